package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lanscope/lanscope/pkg/models"
)

// RecordPresence appends a presence observation for mac. Duplicate
// (mac, timestamp) pairs are ignored rather than erroring, since the
// behavior tracker may replay an observation already persisted.
func (s *Store) RecordPresence(ctx context.Context, mac string, record models.PresenceRecord) error {
	services, err := json.Marshal(record.Services)
	if err != nil {
		return fmt.Errorf("marshal presence services: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO presence_records (mac, timestamp, isOnline, ipAddress, availableServices)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(mac, timestamp) DO NOTHING`,
		mac, record.Timestamp, boolToInt(record.IsOnline), record.IP, string(services),
	)
	if err != nil {
		return fmt.Errorf("insert presence record for %s: %w", mac, err)
	}
	return nil
}

// PresenceHistory returns the most recent presence records for mac, oldest
// first, capped at limit.
func (s *Store) PresenceHistory(ctx context.Context, mac string, limit int) ([]models.PresenceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, isOnline, ipAddress, availableServices
		FROM presence_records
		WHERE mac = ?
		ORDER BY timestamp DESC
		LIMIT ?`, mac, limit)
	if err != nil {
		return nil, fmt.Errorf("query presence history for %s: %w", mac, err)
	}
	defer rows.Close()

	var out []models.PresenceRecord
	for rows.Next() {
		var r models.PresenceRecord
		var isOnline int
		var services string
		if err := rows.Scan(&r.Timestamp, &isOnline, &r.IP, &services); err != nil {
			return nil, err
		}
		r.IsOnline = isOnline != 0
		json.Unmarshal([]byte(services), &r.Services)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// PrunePresenceOlderThan deletes presence records older than cutoff across
// all devices, returning the count removed.
func (s *Store) PrunePresenceOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM presence_records WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune presence records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
