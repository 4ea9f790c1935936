package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lanscope/lanscope/pkg/models"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open(%q): %v", path, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_createsDatabaseAndAppliesMigrations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "new.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}

	var count int
	if err := s.DB().QueryRowContext(context.Background(), "SELECT COUNT(*) FROM _migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != len(migrations()) {
		t.Errorf("applied migrations = %d, want %d", count, len(migrations()))
	}
}

func TestOpen_secondRunSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reopen.db")

	s1, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	s1.Close()

	s2, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer s2.Close()

	var count int
	if err := s2.DB().QueryRowContext(context.Background(), "SELECT COUNT(*) FROM _migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != len(migrations()) {
		t.Errorf("applied migrations = %d, want %d", count, len(migrations()))
	}
}

func TestWALModeEnabled(t *testing.T) {
	s := tempStore(t)
	var mode string
	if err := s.DB().QueryRowContext(context.Background(), "PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	s := tempStore(t)
	var fk int
	if err := s.DB().QueryRowContext(context.Background(), "PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestSaveAndLoadDevice_roundTrips(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Second)
	device := models.Device{
		MAC:        "AA:BB:CC:DD:EE:FF",
		UUID:       "device-uuid",
		IP:         "192.168.1.10",
		Hostname:   "nas01",
		Vendor:     "Synology",
		FirstSeen:  now,
		LastSeen:   now,
		IsOnline:   true,
		OpenPorts:  []models.Port{{Number: 443, Transport: models.TransportTCP, State: "open"}},
		DeviceType: models.DeviceTypeNAS,
		SmartScore: 70,
		Signals:    []models.SmartSignal{{Type: "port", Description: "https open", Weight: 10}},
		HTTPInfo:   &models.HTTPInfo{Server: "nginx"},
		SecurityPosture: &models.SecurityPostureData{
			RiskLevel: models.RiskLevelLow,
			RiskScore: 5,
		},
	}

	if err := s.SaveDevice(ctx, device); err != nil {
		t.Fatalf("SaveDevice: %v", err)
	}

	loaded, ok, err := s.LoadDevice(ctx, device.MAC)
	if err != nil {
		t.Fatalf("LoadDevice: %v", err)
	}
	if !ok {
		t.Fatal("LoadDevice: device not found")
	}
	if loaded.Hostname != "nas01" || loaded.Vendor != "Synology" {
		t.Errorf("loaded device = %+v, want hostname/vendor preserved", loaded)
	}
	if len(loaded.OpenPorts) != 1 || loaded.OpenPorts[0].Number != 443 {
		t.Errorf("loaded openPorts = %+v, want one port 443", loaded.OpenPorts)
	}
	if loaded.HTTPInfo == nil || loaded.HTTPInfo.Server != "nginx" {
		t.Errorf("loaded httpInfo = %+v, want server nginx", loaded.HTTPInfo)
	}
	if loaded.SecurityPosture == nil || loaded.SecurityPosture.RiskLevel != models.RiskLevelLow {
		t.Errorf("loaded securityPosture = %+v, want riskLevel low", loaded.SecurityPosture)
	}
}

func TestSaveDevice_upsertOverwritesExistingRow(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	device := models.Device{MAC: "11:22:33:44:55:66", UUID: "u1", Hostname: "first", FirstSeen: time.Now(), LastSeen: time.Now()}
	if err := s.SaveDevice(ctx, device); err != nil {
		t.Fatalf("SaveDevice: %v", err)
	}

	device.Hostname = "second"
	device.IsOnline = true
	if err := s.SaveDevice(ctx, device); err != nil {
		t.Fatalf("SaveDevice (update): %v", err)
	}

	all, err := s.LoadAllDevices(ctx)
	if err != nil {
		t.Fatalf("LoadAllDevices: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("device count = %d, want 1", len(all))
	}
	if all[0].Hostname != "second" || !all[0].IsOnline {
		t.Errorf("loaded device = %+v, want updated hostname and isOnline", all[0])
	}
}

func TestFingerbankCache_getMissThenPutThenHit(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "AA:BB:CC:DD:EE:FF", "hash1")
	if err != nil {
		t.Fatalf("Get (miss): %v", err)
	}
	if ok {
		t.Fatal("expected cache miss before Put")
	}
	if err := s.RecordMiss(ctx, "AA:BB:CC:DD:EE:FF"); err != nil {
		t.Fatalf("RecordMiss: %v", err)
	}

	entry := models.FingerbankCacheEntry{
		MAC:             "AA:BB:CC:DD:EE:FF",
		SignalHash:      "hash1",
		FingerprintJSON: `{"device_name":"Sonos One"}`,
		UserAgents:      []string{"Sonos/1.0"},
		FetchedAt:       time.Now(),
		ExpiresAt:       time.Now().Add(time.Hour),
	}
	if err := s.Put(ctx, entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := s.Get(ctx, "AA:BB:CC:DD:EE:FF", "hash1")
	if err != nil {
		t.Fatalf("Get (hit): %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit after Put")
	}
	if got.FingerprintJSON != entry.FingerprintJSON {
		t.Errorf("fingerprintJSON = %q, want %q", got.FingerprintJSON, entry.FingerprintJSON)
	}
	if got.HitCount != 1 {
		t.Errorf("hitCount = %d, want 1", got.HitCount)
	}

	hits, misses, err := s.CacheStats(ctx)
	if err != nil {
		t.Fatalf("CacheStats: %v", err)
	}
	if hits != 1 || misses != 1 {
		t.Errorf("hits=%d misses=%d, want 1 and 1", hits, misses)
	}
}

func TestFingerbankCache_expiredEntryIsTreatedAsMiss(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	entry := models.FingerbankCacheEntry{
		MAC:             "AA:BB:CC:DD:EE:FF",
		SignalHash:      "hash1",
		FingerprintJSON: `{}`,
		FetchedAt:       time.Now().Add(-2 * time.Hour),
		ExpiresAt:       time.Now().Add(-time.Hour),
	}
	if err := s.Put(ctx, entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	_, ok, err := s.Get(ctx, "AA:BB:CC:DD:EE:FF", "hash1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestFingerbankCache_pruneExpiredRemovesOnlyPastEntries(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	expired := models.FingerbankCacheEntry{MAC: "AA:AA:AA:AA:AA:AA", SignalHash: "h1", FingerprintJSON: "{}", FetchedAt: time.Now(), ExpiresAt: time.Now().Add(-time.Minute)}
	live := models.FingerbankCacheEntry{MAC: "BB:BB:BB:BB:BB:BB", SignalHash: "h2", FingerprintJSON: "{}", FetchedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	if err := s.Put(ctx, expired); err != nil {
		t.Fatalf("Put expired: %v", err)
	}
	if err := s.Put(ctx, live); err != nil {
		t.Fatalf("Put live: %v", err)
	}

	n, err := s.PruneExpired(ctx)
	if err != nil {
		t.Fatalf("PruneExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned = %d, want 1", n)
	}

	if _, ok, _ := s.Get(ctx, "BB:BB:BB:BB:BB:BB", "h2"); !ok {
		t.Error("live entry should survive prune")
	}
}

func TestRecordPresence_historyOrderedOldestFirstAndDeduped(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	device := models.Device{MAC: "AA:BB:CC:DD:EE:FF", UUID: "u1", FirstSeen: time.Now(), LastSeen: time.Now()}
	if err := s.SaveDevice(ctx, device); err != nil {
		t.Fatalf("SaveDevice: %v", err)
	}

	base := time.Now().Truncate(time.Second)
	records := []models.PresenceRecord{
		{Timestamp: base, IsOnline: true, Services: []string{"ssh"}, IP: "192.168.1.10"},
		{Timestamp: base.Add(time.Hour), IsOnline: false, IP: "192.168.1.10"},
	}
	for _, r := range records {
		if err := s.RecordPresence(ctx, device.MAC, r); err != nil {
			t.Fatalf("RecordPresence: %v", err)
		}
	}
	// Duplicate timestamp should be ignored, not error.
	if err := s.RecordPresence(ctx, device.MAC, records[0]); err != nil {
		t.Fatalf("RecordPresence (duplicate): %v", err)
	}

	history, err := s.PresenceHistory(ctx, device.MAC, 10)
	if err != nil {
		t.Fatalf("PresenceHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if !history[0].Timestamp.Equal(base) || !history[1].Timestamp.Equal(base.Add(time.Hour)) {
		t.Errorf("history not ordered oldest-first: %+v", history)
	}
}

func TestPresenceCascadesOnDeviceDelete(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	device := models.Device{MAC: "AA:BB:CC:DD:EE:FF", UUID: "u1", FirstSeen: time.Now(), LastSeen: time.Now()}
	if err := s.SaveDevice(ctx, device); err != nil {
		t.Fatalf("SaveDevice: %v", err)
	}
	if err := s.RecordPresence(ctx, device.MAC, models.PresenceRecord{Timestamp: time.Now(), IsOnline: true}); err != nil {
		t.Fatalf("RecordPresence: %v", err)
	}

	if _, err := s.DB().ExecContext(ctx, "DELETE FROM devices WHERE mac = ?", device.MAC); err != nil {
		t.Fatalf("delete device: %v", err)
	}

	var count int
	if err := s.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM presence_records WHERE mac = ?", device.MAC).Scan(&count); err != nil {
		t.Fatalf("count presence records: %v", err)
	}
	if count != 0 {
		t.Errorf("presence records after device delete = %d, want 0 (cascade)", count)
	}
}
