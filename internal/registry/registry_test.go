package registry

import (
	"context"
	"testing"
	"time"

	"github.com/lanscope/lanscope/pkg/models"
	"go.uber.org/zap"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New(zap.NewNop(), nil)
	t.Cleanup(r.Close)
	return r
}

func waitForCount(t *testing.T, r *Registry, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.Count() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("registry count never reached %d (got %d)", want, r.Count())
}

func TestAddOrUpdate_MergePreservesFirstSeen(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.AddOrUpdate(ctx, Observation{MAC: "AA:BB:CC:DD:EE:FF", Timestamp: t0, IP: "192.168.1.100", Hostname: "old"})
	waitForCount(t, r, 1)

	r.AddOrUpdate(ctx, Observation{
		MAC:       "AA:BB:CC:DD:EE:FF",
		Timestamp: t0.Add(time.Hour),
		IP:        "192.168.1.101",
		Hostname:  "new",
	})

	deadline := time.Now().Add(2 * time.Second)
	var device struct {
		ok       bool
		ip, host string
		first    time.Time
	}
	for time.Now().Before(deadline) {
		d, ok := r.GetByMAC("AA:BB:CC:DD:EE:FF")
		if ok && d.Hostname == "new" {
			device.ok, device.ip, device.host, device.first = ok, d.IP, d.Hostname, d.FirstSeen
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if !device.ok {
		t.Fatal("device not found after second observation")
	}
	if !device.first.Equal(t0) {
		t.Fatalf("firstSeen = %v, want %v", device.first, t0)
	}
	if device.ip != "192.168.1.101" {
		t.Fatalf("ip = %q, want 192.168.1.101", device.ip)
	}
	if device.host != "new" {
		t.Fatalf("hostname = %q, want new", device.host)
	}
}

func TestAddOrUpdate_DuplicateObservationIsIdempotent(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	obs := Observation{MAC: "11:22:33:44:55:66", Timestamp: time.Now(), IP: "10.0.0.5"}

	r.AddOrUpdate(ctx, obs)
	r.AddOrUpdate(ctx, obs)
	waitForCount(t, r, 1)

	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1", r.Count())
	}
}

func TestMarkAllOffline_SetsExistingDevicesOffline(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	r.AddOrUpdate(ctx, Observation{MAC: "AA:AA:AA:AA:AA:AA", Timestamp: time.Now()})
	waitForCount(t, r, 1)

	r.MarkAllOffline()

	d, ok := r.GetByMAC("AA:AA:AA:AA:AA:AA")
	if !ok || d.IsOnline {
		t.Fatalf("got %+v, want offline device", d)
	}
}

func TestRemoveAll_PreservesLabeledDevices(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	r.AddOrUpdate(ctx, Observation{MAC: "BB:BB:BB:BB:BB:BB", Timestamp: time.Now()})
	waitForCount(t, r, 1)

	r.mu.Lock()
	r.devices["BB:BB:BB:BB:BB:BB"].UserLabel = "my-nas"
	r.mu.Unlock()

	r.RemoveAll(true)
	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1 (labeled device preserved)", r.Count())
	}

	r.RemoveAll(false)
	if r.Count() != 0 {
		t.Fatalf("count = %d, want 0", r.Count())
	}
}

func TestAddOrUpdate_MDNSTXTRecordsCapAtEightServiceTypes(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	mac := "CC:CC:CC:CC:CC:CC"

	for i := 0; i < 10; i++ {
		svc := "_service" + string(rune('a'+i)) + "._tcp"
		r.AddOrUpdate(ctx, Observation{
			MAC:       mac,
			Timestamp: time.Now(),
			MDNSTXTRecords: map[string]models.TXTRecord{
				svc: {ServiceType: svc, Family: models.TXTFamilyRaw},
			},
		})
	}
	waitForCount(t, r, 1)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		d, _ := r.GetByMAC(mac)
		if len(d.MDNSTXTRecords) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	d, ok := r.GetByMAC(mac)
	if !ok {
		t.Fatal("device not found")
	}
	if len(d.MDNSTXTRecords) > maxMDNSTXTServiceTypes {
		t.Fatalf("got %d MDNSTXTRecords, want at most %d", len(d.MDNSTXTRecords), maxMDNSTXTServiceTypes)
	}
}
