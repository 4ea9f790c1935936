package storage

import "database/sql"

// Migration is one versioned, idempotent schema change.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations returns the full schema history in ascending version order,
// per spec §6's v1-v5 table.
func migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "create devices table",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE devices (
						mac          TEXT PRIMARY KEY,
						id           TEXT NOT NULL,
						ip           TEXT NOT NULL DEFAULT '',
						hostname     TEXT NOT NULL DEFAULT '',
						vendor       TEXT NOT NULL DEFAULT '',
						firstSeen    DATETIME NOT NULL,
						lastSeen     DATETIME NOT NULL,
						isOnline     INTEGER NOT NULL DEFAULT 0,
						smartScore   INTEGER NOT NULL DEFAULT 0,
						deviceType   TEXT NOT NULL DEFAULT 'unknown',
						userLabel    TEXT NOT NULL DEFAULT '',
						openPorts    TEXT NOT NULL DEFAULT '[]',
						services     TEXT NOT NULL DEFAULT '[]',
						httpInfo     TEXT,
						smartSignals TEXT NOT NULL DEFAULT '[]',
						fingerprint  TEXT
					)`,
					`CREATE INDEX idx_devices_ip ON devices(ip)`,
					`CREATE INDEX idx_devices_lastSeen ON devices(lastSeen)`,
					`CREATE INDEX idx_devices_isOnline ON devices(isOnline)`,
				}
				return execAll(tx, stmts)
			},
		},
		{
			Version:     2,
			Description: "add enrichment columns to devices",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`ALTER TABLE devices ADD COLUMN mdnsTXTRecords TEXT`,
					`ALTER TABLE devices ADD COLUMN portBanners TEXT`,
					`ALTER TABLE devices ADD COLUMN macAnalysis TEXT`,
					`ALTER TABLE devices ADD COLUMN securityPosture TEXT`,
					`ALTER TABLE devices ADD COLUMN behaviorProfile TEXT`,
				}
				return execAll(tx, stmts)
			},
		},
		{
			Version:     3,
			Description: "add sourceInterface and subnet to devices",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`ALTER TABLE devices ADD COLUMN sourceInterface TEXT NOT NULL DEFAULT ''`,
					`ALTER TABLE devices ADD COLUMN subnet TEXT NOT NULL DEFAULT ''`,
				}
				return execAll(tx, stmts)
			},
		},
		{
			Version:     4,
			Description: "create presence_records table",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE presence_records (
						id                INTEGER PRIMARY KEY AUTOINCREMENT,
						mac               TEXT NOT NULL REFERENCES devices(mac) ON DELETE CASCADE,
						timestamp         DATETIME NOT NULL,
						isOnline          INTEGER NOT NULL,
						ipAddress         TEXT NOT NULL DEFAULT '',
						availableServices TEXT NOT NULL DEFAULT '[]',
						UNIQUE(mac, timestamp)
					)`,
					`CREATE INDEX idx_presence_records_mac ON presence_records(mac)`,
					`CREATE INDEX idx_presence_records_timestamp ON presence_records(timestamp)`,
				}
				return execAll(tx, stmts)
			},
		},
		{
			Version:     5,
			Description: "create fingerbank_cache tables",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE fingerbank_cache (
						mac              TEXT NOT NULL,
						signal_hash      TEXT NOT NULL,
						fingerprint_json TEXT NOT NULL,
						dhcp_fingerprint TEXT NOT NULL DEFAULT '',
						user_agents      TEXT NOT NULL DEFAULT '[]',
						fetched_at       DATETIME NOT NULL,
						expires_at       DATETIME NOT NULL,
						hit_count        INTEGER NOT NULL DEFAULT 0,
						last_hit_at      DATETIME,
						PRIMARY KEY (mac, signal_hash)
					)`,
					`CREATE INDEX idx_fingerbank_cache_expires_at ON fingerbank_cache(expires_at)`,
					`CREATE INDEX idx_fingerbank_cache_signal_hash ON fingerbank_cache(signal_hash)`,
					`CREATE TABLE fingerbank_cache_stats (
						id     INTEGER PRIMARY KEY CHECK (id = 1),
						hits   INTEGER NOT NULL DEFAULT 0,
						misses INTEGER NOT NULL DEFAULT 0
					)`,
					`INSERT INTO fingerbank_cache_stats (id, hits, misses) VALUES (1, 0, 0)`,
				}
				return execAll(tx, stmts)
			},
		},
	}
}

func execAll(tx *sql.Tx, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
