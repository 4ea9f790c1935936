package fingerprint

import (
	"context"
	"time"

	"github.com/lanscope/lanscope/pkg/models"
)

// DefaultRemoteCacheTTL is the §4.14 default SQLite/legacy cache lifetime
// for remote-API-derived fingerprints.
const DefaultRemoteCacheTTL = 7 * 24 * time.Hour

// RemoteCacheStore is the persistence boundary for the primary (SQLite)
// remote-fingerprint cache. Implemented by internal/storage.
type RemoteCacheStore interface {
	Get(ctx context.Context, mac, signalHash string) (models.FingerbankCacheEntry, bool, error)
	Put(ctx context.Context, entry models.FingerbankCacheEntry) error
	RecordMiss(ctx context.Context, mac string) error
	PruneExpired(ctx context.Context) (int, error)
}

// LegacyFileCache is the optional JSON-per-entry fallback cache used during
// migration off an older file-based store. Implementations need only
// support simple key-value JSON blobs; nil disables this tier.
type LegacyFileCache interface {
	Get(mac, signalHash string) (models.DeviceFingerprint, bool)
	Put(mac, signalHash string, fp models.DeviceFingerprint) error
}

// RemoteClient fetches a fingerprint from the external fingerprinting API.
// Implemented outside this package; kept as a narrow interface so the
// circuit breaker and cache tiers never depend on a concrete HTTP client.
type RemoteClient interface {
	Fetch(ctx context.Context, mac, dhcpFingerprint string, userAgents []string) (models.DeviceFingerprint, error)
}
