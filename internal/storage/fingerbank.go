package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lanscope/lanscope/pkg/models"
)

// Get satisfies fingerprint.RemoteCacheStore, returning a cached entry only
// if it has not yet expired.
func (s *Store) Get(ctx context.Context, mac, signalHash string) (models.FingerbankCacheEntry, bool, error) {
	var entry models.FingerbankCacheEntry
	var userAgents string
	var lastHitAt sql.NullTime

	row := s.db.QueryRowContext(ctx, `
		SELECT mac, signal_hash, fingerprint_json, dhcp_fingerprint, user_agents,
			fetched_at, expires_at, hit_count, last_hit_at
		FROM fingerbank_cache
		WHERE mac = ? AND signal_hash = ? AND expires_at > ?`,
		mac, signalHash, time.Now())

	err := row.Scan(&entry.MAC, &entry.SignalHash, &entry.FingerprintJSON,
		&entry.DHCPFingerprint, &userAgents, &entry.FetchedAt, &entry.ExpiresAt,
		&entry.HitCount, &lastHitAt)
	if err == sql.ErrNoRows {
		return models.FingerbankCacheEntry{}, false, nil
	}
	if err != nil {
		return models.FingerbankCacheEntry{}, false, fmt.Errorf("get fingerbank cache %s: %w", mac, err)
	}
	json.Unmarshal([]byte(userAgents), &entry.UserAgents)
	if lastHitAt.Valid {
		entry.LastHitAt = lastHitAt.Time
	}

	now := time.Now()
	if _, err := s.db.ExecContext(ctx, `
		UPDATE fingerbank_cache SET hit_count = hit_count + 1, last_hit_at = ?
		WHERE mac = ? AND signal_hash = ?`, now, mac, signalHash); err != nil {
		return entry, true, fmt.Errorf("record fingerbank cache hit %s: %w", mac, err)
	}
	entry.HitCount++
	entry.LastHitAt = now
	if err := s.bumpCacheStat(ctx, "hits"); err != nil {
		return entry, true, err
	}
	return entry, true, nil
}

// Put satisfies fingerprint.RemoteCacheStore, upserting a fetched entry.
func (s *Store) Put(ctx context.Context, entry models.FingerbankCacheEntry) error {
	userAgents, err := json.Marshal(entry.UserAgents)
	if err != nil {
		return fmt.Errorf("marshal user agents: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO fingerbank_cache (
			mac, signal_hash, fingerprint_json, dhcp_fingerprint, user_agents,
			fetched_at, expires_at, hit_count, last_hit_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, 0, NULL)
		ON CONFLICT(mac, signal_hash) DO UPDATE SET
			fingerprint_json=excluded.fingerprint_json,
			dhcp_fingerprint=excluded.dhcp_fingerprint,
			user_agents=excluded.user_agents,
			fetched_at=excluded.fetched_at,
			expires_at=excluded.expires_at`,
		entry.MAC, entry.SignalHash, entry.FingerprintJSON, entry.DHCPFingerprint,
		string(userAgents), entry.FetchedAt, entry.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("put fingerbank cache %s: %w", entry.MAC, err)
	}
	return nil
}

// RecordMiss satisfies fingerprint.RemoteCacheStore, incrementing the global
// miss counter used for cache-effectiveness reporting.
func (s *Store) RecordMiss(ctx context.Context, mac string) error {
	return s.bumpCacheStat(ctx, "misses")
}

// PruneExpired satisfies fingerprint.RemoteCacheStore, deleting every entry
// past its expiry and returning the count removed.
func (s *Store) PruneExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM fingerbank_cache WHERE expires_at <= ?`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("prune fingerbank cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Store) bumpCacheStat(ctx context.Context, column string) error {
	query := fmt.Sprintf("UPDATE fingerbank_cache_stats SET %s = %s + 1 WHERE id = 1", column, column)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("bump fingerbank cache stat %s: %w", column, err)
	}
	return nil
}

// CacheStats reports the cumulative hit/miss counters maintained alongside
// the fingerbank_cache table.
func (s *Store) CacheStats(ctx context.Context) (hits, misses int, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT hits, misses FROM fingerbank_cache_stats WHERE id = 1`)
	if err := row.Scan(&hits, &misses); err != nil {
		return 0, 0, fmt.Errorf("read fingerbank cache stats: %w", err)
	}
	return hits, misses, nil
}
