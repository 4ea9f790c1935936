// Package fingerprint implements the tiered fingerprint cache hierarchy
// (§4.14): a local UPnP cache, a remote-fingerprint cache with SQLite,
// legacy-file, bundled-offline, and circuit-breaker-gated remote-API tiers,
// merged per the registry's field-wise merge rules.
package fingerprint

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lanscope/lanscope/internal/discovery"
	"github.com/lanscope/lanscope/internal/metrics"
	"github.com/lanscope/lanscope/pkg/models"
)

func marshalFingerprint(fp models.DeviceFingerprint) (string, error) {
	data, err := json.Marshal(fp)
	return string(data), err
}

func unmarshalFingerprint(raw string, fp *models.DeviceFingerprint) bool {
	return json.Unmarshal([]byte(raw), fp) == nil
}

// Hierarchy orchestrates all fingerprint cache tiers behind a single Lookup
// call. Any tier may be nil/disabled except OfflineDB, which is always
// present.
type Hierarchy struct {
	logger *zap.Logger

	upnpCache   *UPnPCache
	upnpFetcher *discovery.UPnPFetcher

	remoteCache RemoteCacheStore
	legacyCache LegacyFileCache
	offlineDB   *OfflineDB

	remoteClient RemoteClient
	breaker      *CircuitBreaker
	limiter      *rate.Limiter
	remoteTTL    time.Duration
}

// Config configures a Hierarchy. The bundled offline tier is always added by
// NewHierarchy; a nil cache, fetcher or client field disables its tier, and a
// zero Breaker, Limiter or RemoteTTL falls back to its default.
type Config struct {
	UPnPCache    *UPnPCache
	UPnPFetcher  *discovery.UPnPFetcher
	RemoteCache  RemoteCacheStore
	LegacyCache  LegacyFileCache
	RemoteClient RemoteClient
	Breaker      *CircuitBreaker
	// Limiter caps the rate of calls dispatched to the remote API, ahead of
	// the circuit breaker. Defaults to 5 req/s with a burst of 5.
	Limiter   *rate.Limiter
	RemoteTTL time.Duration
}

// NewHierarchy builds a Hierarchy from cfg.
func NewHierarchy(logger *zap.Logger, cfg Config) *Hierarchy {
	ttl := cfg.RemoteTTL
	if ttl <= 0 {
		ttl = DefaultRemoteCacheTTL
	}
	breaker := cfg.Breaker
	if breaker == nil {
		breaker = NewCircuitBreaker(0, 0, 0)
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(5), 5)
	}
	return &Hierarchy{
		logger:       logger,
		upnpCache:    cfg.UPnPCache,
		upnpFetcher:  cfg.UPnPFetcher,
		remoteCache:  cfg.RemoteCache,
		legacyCache:  cfg.LegacyCache,
		offlineDB:    NewOfflineDB(),
		remoteClient: cfg.RemoteClient,
		breaker:      breaker,
		limiter:      limiter,
		remoteTTL:    ttl,
	}
}

// Lookup resolves a device's fingerprint through the full tiered hierarchy.
// ssdpLocation may be empty to skip the UPnP tier. apiKey gates the remote
// API tier: an empty key disables it regardless of breaker state.
func (h *Hierarchy) Lookup(ctx context.Context, canonicalMAC, ssdpLocation, dhcpFingerprint string, userAgents []string, apiKey string, forceRefresh bool) (models.DeviceFingerprint, bool) {
	var upnpFP models.DeviceFingerprint
	var haveUPnP bool
	if ssdpLocation != "" && h.upnpCache != nil {
		upnpFP, haveUPnP = h.lookupUPnP(ctx, canonicalMAC, ssdpLocation, forceRefresh)
	}

	remoteFP, haveRemote := h.lookupRemote(ctx, canonicalMAC, dhcpFingerprint, userAgents, apiKey, forceRefresh)

	switch {
	case haveUPnP && haveRemote:
		merged := mergeFingerprints(&upnpFP, &remoteFP)
		return *merged, true
	case haveUPnP:
		return upnpFP, true
	case haveRemote:
		return remoteFP, true
	default:
		return models.DeviceFingerprint{}, false
	}
}

func (h *Hierarchy) lookupUPnP(ctx context.Context, mac, location string, forceRefresh bool) (models.DeviceFingerprint, bool) {
	if !forceRefresh {
		if fp, ok := h.upnpCache.Get(mac, location); ok {
			fp.CacheHit = true
			metrics.FingerprintCacheHits.WithLabelValues("upnp").Inc()
			return fp, true
		}
	}
	metrics.FingerprintCacheMisses.WithLabelValues("upnp").Inc()
	if h.upnpFetcher == nil {
		return models.DeviceFingerprint{}, false
	}
	fp, ok := h.upnpFetcher.Fetch(ctx, location)
	if !ok {
		return models.DeviceFingerprint{}, false
	}
	fp.CacheHit = false
	if err := h.upnpCache.Put(mac, location, fp); err != nil {
		h.logger.Debug("failed to persist UPnP cache entry", zap.Error(err))
	}
	return fp, true
}

// lookupRemote walks the SQLite → legacy-file → bundled-offline → remote-API
// tiers in order, short-circuiting on the first hit. A hit at tier N never
// triggers a call into tier N+1.
func (h *Hierarchy) lookupRemote(ctx context.Context, mac, dhcpFingerprint string, userAgents []string, apiKey string, forceRefresh bool) (models.DeviceFingerprint, bool) {
	hash := SignalHash(mac, dhcpFingerprint, userAgents)

	if !forceRefresh && h.remoteCache != nil {
		entry, ok, err := h.remoteCache.Get(ctx, mac, hash)
		if err == nil && ok {
			var fp models.DeviceFingerprint
			if unmarshalFingerprint(entry.FingerprintJSON, &fp) {
				fp.CacheHit = true
				metrics.FingerprintCacheHits.WithLabelValues("sqlite").Inc()
				return fp, true
			}
		} else {
			h.remoteCache.RecordMiss(ctx, mac)
		}
	}

	if !forceRefresh && h.legacyCache != nil {
		if fp, ok := h.legacyCache.Get(mac, hash); ok {
			fp.CacheHit = true
			metrics.FingerprintCacheHits.WithLabelValues("legacy").Inc()
			h.backfillSQLite(ctx, mac, hash, dhcpFingerprint, userAgents, fp)
			return fp, true
		}
	}

	if fp, ok := h.offlineDB.Lookup(mac, dhcpFingerprint); ok {
		metrics.FingerprintCacheHits.WithLabelValues("offline").Inc()
		return fp, true
	}

	metrics.FingerprintCacheMisses.WithLabelValues("remote").Inc()
	if apiKey == "" || h.remoteClient == nil {
		return models.DeviceFingerprint{}, false
	}
	if !h.limiter.Allow() {
		if h.remoteCache != nil {
			h.remoteCache.RecordMiss(ctx, mac)
		}
		return models.DeviceFingerprint{}, false
	}

	var fp models.DeviceFingerprint
	err := h.breaker.Execute(func() error {
		var fetchErr error
		fp, fetchErr = h.remoteClient.Fetch(ctx, mac, dhcpFingerprint, userAgents)
		return fetchErr
	})
	if err != nil {
		if h.remoteCache != nil {
			h.remoteCache.RecordMiss(ctx, mac)
		}
		return models.DeviceFingerprint{}, false
	}

	fp.Source = models.FingerprintSourceRemote
	fp.CacheHit = false
	fp.Timestamp = time.Now()
	h.storeRemoteResult(ctx, mac, hash, dhcpFingerprint, userAgents, fp)
	return fp, true
}

func (h *Hierarchy) storeRemoteResult(ctx context.Context, mac, hash, dhcpFingerprint string, userAgents []string, fp models.DeviceFingerprint) {
	data, err := marshalFingerprint(fp)
	if err != nil {
		return
	}
	now := time.Now()
	if h.remoteCache != nil {
		entry := models.FingerbankCacheEntry{
			MAC:             mac,
			FingerprintJSON: data,
			SignalHash:      hash,
			DHCPFingerprint: dhcpFingerprint,
			UserAgents:      userAgents,
			FetchedAt:       now,
			ExpiresAt:       now.Add(h.remoteTTL),
		}
		if err := h.remoteCache.Put(ctx, entry); err != nil {
			h.logger.Warn("failed to persist remote fingerprint cache entry", zap.Error(err))
		}
	}
	if h.legacyCache != nil {
		if err := h.legacyCache.Put(mac, hash, fp); err != nil {
			h.logger.Debug("failed to persist legacy fingerprint cache entry", zap.Error(err))
		}
	}
}

func (h *Hierarchy) backfillSQLite(ctx context.Context, mac, hash, dhcpFingerprint string, userAgents []string, fp models.DeviceFingerprint) {
	if h.remoteCache == nil {
		return
	}
	data, err := marshalFingerprint(fp)
	if err != nil {
		return
	}
	now := time.Now()
	entry := models.FingerbankCacheEntry{
		MAC:             mac,
		FingerprintJSON: data,
		SignalHash:      hash,
		DHCPFingerprint: dhcpFingerprint,
		UserAgents:      userAgents,
		FetchedAt:       now,
		ExpiresAt:       now.Add(h.remoteTTL),
	}
	if err := h.remoteCache.Put(ctx, entry); err != nil {
		h.logger.Debug("failed to back-fill SQLite fingerprint cache", zap.Error(err))
	}
}

// mergeFingerprints merges UPnP- and remote-derived fingerprints per the
// registry's field-wise merge rule: remote wins on conflicting scalars,
// source becomes "both" when both sides contributed data.
func mergeFingerprints(upnp, remote *models.DeviceFingerprint) *models.DeviceFingerprint {
	merged := *upnp
	if remote.DeviceName != "" {
		merged.DeviceName = remote.DeviceName
	}
	if len(remote.Parents) > 0 {
		merged.Parents = remote.Parents
	}
	if remote.Score != 0 {
		merged.Score = remote.Score
	}
	if remote.OS != "" {
		merged.OS = remote.OS
	}
	if remote.OSVersion != "" {
		merged.OSVersion = remote.OSVersion
	}
	merged.IsMobile = remote.IsMobile
	merged.IsTablet = remote.IsTablet
	merged.Source = models.FingerprintSourceBoth
	merged.Timestamp = remote.Timestamp
	merged.CacheHit = upnp.CacheHit && remote.CacheHit
	return &merged
}
