package fingerprint

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/lanscope/lanscope/pkg/models"
)

type fakeRemoteCache struct {
	entries map[string]models.FingerbankCacheEntry
	gets    int
}

func newFakeRemoteCache() *fakeRemoteCache {
	return &fakeRemoteCache{entries: map[string]models.FingerbankCacheEntry{}}
}

func (f *fakeRemoteCache) Get(_ context.Context, mac, signalHash string) (models.FingerbankCacheEntry, bool, error) {
	f.gets++
	e, ok := f.entries[mac+"|"+signalHash]
	return e, ok, nil
}

func (f *fakeRemoteCache) Put(_ context.Context, entry models.FingerbankCacheEntry) error {
	f.entries[entry.MAC+"|"+entry.SignalHash] = entry
	return nil
}

func (f *fakeRemoteCache) RecordMiss(context.Context, string) error { return nil }
func (f *fakeRemoteCache) PruneExpired(context.Context) (int, error) { return 0, nil }

type fakeRemoteClient struct {
	calls int
	fp    models.DeviceFingerprint
	err   error
}

func (f *fakeRemoteClient) Fetch(context.Context, string, string, []string) (models.DeviceFingerprint, error) {
	f.calls++
	return f.fp, f.err
}

func TestLookupRemote_SQLiteCacheHitSkipsRemoteAPI(t *testing.T) {
	remoteCache := newFakeRemoteCache()
	client := &fakeRemoteClient{fp: models.DeviceFingerprint{DeviceName: "from-api"}}
	h := NewHierarchy(zap.NewNop(), Config{RemoteCache: remoteCache, RemoteClient: client})

	hash := SignalHash("AA:BB:CC:DD:EE:FF", "", nil)
	remoteCache.entries["AA:BB:CC:DD:EE:FF|"+hash] = models.FingerbankCacheEntry{
		MAC:             "AA:BB:CC:DD:EE:FF",
		FingerprintJSON: `{"device_name":"cached"}`,
		SignalHash:      hash,
	}

	fp, ok := h.lookupRemote(context.Background(), "AA:BB:CC:DD:EE:FF", "", nil, "key", false)
	if !ok || fp.DeviceName != "cached" {
		t.Fatalf("got %+v, ok=%v, want cached hit", fp, ok)
	}
	if client.calls != 0 {
		t.Fatalf("remote API should not be called on a cache hit, got %d calls", client.calls)
	}
}

func TestLookupRemote_OfflineDBHitSkipsRemoteAPI(t *testing.T) {
	client := &fakeRemoteClient{fp: models.DeviceFingerprint{DeviceName: "from-api"}}
	h := NewHierarchy(zap.NewNop(), Config{RemoteClient: client})

	fp, ok := h.lookupRemote(context.Background(), "B8:27:EB:11:22:33", "", nil, "key", false)
	if !ok || fp.DeviceName != "Raspberry Pi" {
		t.Fatalf("got %+v, ok=%v, want Raspberry Pi from offline DB", fp, ok)
	}
	if client.calls != 0 {
		t.Fatalf("remote API should not be called when the offline DB hits, got %d calls", client.calls)
	}
}

func TestLookupRemote_FallsThroughToRemoteAPIWhenAllTiersMiss(t *testing.T) {
	client := &fakeRemoteClient{fp: models.DeviceFingerprint{DeviceName: "from-api"}}
	h := NewHierarchy(zap.NewNop(), Config{RemoteClient: client})

	fp, ok := h.lookupRemote(context.Background(), "AA:AA:AA:AA:AA:AA", "", nil, "key", false)
	if !ok || fp.DeviceName != "from-api" {
		t.Fatalf("got %+v, ok=%v, want a remote API hit", fp, ok)
	}
	if client.calls != 1 {
		t.Fatalf("remote API calls = %d, want 1", client.calls)
	}
}

func TestLookupRemote_EmptyAPIKeyDisablesRemoteTier(t *testing.T) {
	client := &fakeRemoteClient{fp: models.DeviceFingerprint{DeviceName: "from-api"}}
	h := NewHierarchy(zap.NewNop(), Config{RemoteClient: client})

	_, ok := h.lookupRemote(context.Background(), "AA:AA:AA:AA:AA:AA", "", nil, "", false)
	if ok {
		t.Fatal("expected no result when apiKey is empty")
	}
	if client.calls != 0 {
		t.Fatalf("remote API should not be called without an apiKey, got %d calls", client.calls)
	}
}

func TestLookupRemote_CircuitOpenSkipsRemoteAPI(t *testing.T) {
	client := &fakeRemoteClient{err: errors.New("boom")}
	breaker := NewCircuitBreaker(1, 0, 0)
	h := NewHierarchy(zap.NewNop(), Config{RemoteClient: client, Breaker: breaker})

	_, ok := h.lookupRemote(context.Background(), "AA:AA:AA:AA:AA:AA", "", nil, "key", false)
	if ok {
		t.Fatal("expected no result after the remote call fails")
	}
	if breaker.State() != CircuitOpen {
		t.Fatalf("breaker state = %v, want open", breaker.State())
	}

	_, ok = h.lookupRemote(context.Background(), "BB:BB:BB:BB:BB:BB", "", nil, "key", false)
	if ok {
		t.Fatal("expected no result while the circuit is open")
	}
	if client.calls != 1 {
		t.Fatalf("remote API calls = %d, want 1 (second call blocked by breaker)", client.calls)
	}
}

func TestMergeFingerprints_RemoteWinsSourceBecomesBoth(t *testing.T) {
	upnp := &models.DeviceFingerprint{FriendlyName: "Living Room Speaker", CacheHit: true}
	remote := &models.DeviceFingerprint{DeviceName: "Sonos One", OS: "embedded", CacheHit: true}

	merged := mergeFingerprints(upnp, remote)
	if merged.FriendlyName != "Living Room Speaker" {
		t.Fatalf("friendlyName = %q, want preserved from upnp", merged.FriendlyName)
	}
	if merged.DeviceName != "Sonos One" {
		t.Fatalf("deviceName = %q, want from remote", merged.DeviceName)
	}
	if merged.Source != models.FingerprintSourceBoth {
		t.Fatalf("source = %q, want both", merged.Source)
	}
	if !merged.CacheHit {
		t.Fatal("cacheHit should be true when both sides were cache hits")
	}
}
