package behavior

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lanscope/lanscope/pkg/models"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	tr, err := New(zap.NewNop(), "", false, "", 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestRecordPresence_AlwaysOnWithServicesIsInfrastructure(t *testing.T) {
	tr := newTestTracker(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 20; i++ {
		ts := base.Add(time.Duration(i) * time.Hour * 24 / 20)
		tr.RecordPresence("AA:BB:CC:DD:EE:FF", true, []string{"SSH", "HTTP"}, "10.0.0.5", ts)
	}

	profile, ok := tr.Profile("AA:BB:CC:DD:EE:FF")
	if !ok {
		t.Fatal("profile not found")
	}
	if profile.AverageUptimePercent != 100.0 {
		t.Fatalf("averageUptimePercent = %v, want 100.0", profile.AverageUptimePercent)
	}
	if !profile.IsAlwaysOn {
		t.Fatal("expected isAlwaysOn = true")
	}
	if profile.Classification != models.BehaviorInfrastructure {
		t.Fatalf("classification = %q, want infrastructure", profile.Classification)
	}
	if len(profile.ConsistentServices) != 2 || profile.ConsistentServices[0] != "HTTP" || profile.ConsistentServices[1] != "SSH" {
		t.Fatalf("consistentServices = %v, want [HTTP SSH]", profile.ConsistentServices)
	}

	signals := GenerateSignals(profile)
	if len(signals) != 1 {
		t.Fatalf("got %d signals, want 1", len(signals))
	}
	if signals[0].SuggestedType != models.DeviceTypeRouter || signals[0].Confidence != 0.40 {
		t.Fatalf("got %+v, want (behavior, router, 0.40)", signals[0])
	}
}

func TestRecordPresence_FewerThanTenObservationsYieldsUnknownAndNoSignal(t *testing.T) {
	tr := newTestTracker(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		tr.RecordPresence("11:22:33:44:55:66", true, nil, "", base.Add(time.Duration(i)*time.Hour))
	}

	profile, ok := tr.Profile("11:22:33:44:55:66")
	if !ok {
		t.Fatal("profile not found")
	}
	if profile.Classification != models.BehaviorUnknown {
		t.Fatalf("classification = %q, want unknown", profile.Classification)
	}
	if signals := GenerateSignals(profile); signals != nil {
		t.Fatalf("expected no signals below 10 observations, got %v", signals)
	}
}

func TestRecordPresence_TrimsHistoryTo100(t *testing.T) {
	tr := newTestTracker(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 150; i++ {
		tr.RecordPresence("CC:CC:CC:CC:CC:CC", true, nil, "", base.Add(time.Duration(i)*time.Minute))
	}

	profile, _ := tr.Profile("CC:CC:CC:CC:CC:CC")
	if len(profile.PresenceHistory) != models.MaxPresenceRecords {
		t.Fatalf("history length = %d, want %d", len(profile.PresenceHistory), models.MaxPresenceRecords)
	}
	if profile.ObservationCount != 150 {
		t.Fatalf("observationCount = %d, want 150", profile.ObservationCount)
	}
}

func TestNormalizeID_HashingIsDeterministic(t *testing.T) {
	tr, err := New(zap.NewNop(), "", true, "pepper", 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tr.Close()

	a := tr.normalizeID("AA:BB:CC:DD:EE:FF")
	b := tr.normalizeID("AA:BB:CC:DD:EE:FF")
	if a != b || a == "AA:BB:CC:DD:EE:FF" {
		t.Fatalf("expected a stable hashed id, got %q and %q", a, b)
	}
}
