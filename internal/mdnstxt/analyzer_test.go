package mdnstxt

import (
	"strings"
	"testing"

	"github.com/lanscope/lanscope/pkg/models"
)

func TestParse_EmptyRawYieldsNoRecord(t *testing.T) {
	_, ok := Parse("_airplay._tcp", nil)
	if ok {
		t.Fatal("expected no record for empty TXT")
	}
}

func TestParse_AirPlay(t *testing.T) {
	rec, ok := Parse("_airplay._tcp", map[string]string{
		"model":    "AppleTV3,2",
		"deviceid": "AA:BB:CC:DD:EE:FF",
		"srcvers":  "220.68",
		"features": "0x445F8A00",
	})
	if !ok {
		t.Fatal("expected a record")
	}
	if rec.Family != models.TXTFamilyAirPlay {
		t.Fatalf("got family %q, want airplay", rec.Family)
	}
	if rec.AirPlay == nil {
		t.Fatal("expected AirPlay field populated")
	}
	if rec.AirPlay.Model != "AppleTV3,2" {
		t.Fatalf("got model %q", rec.AirPlay.Model)
	}
	if rec.AirPlay.Features == 0 {
		t.Fatal("expected features bitmask parsed")
	}
}

func TestParse_GoogleCast(t *testing.T) {
	rec, ok := Parse("_googlecast._tcp", map[string]string{
		"md": "Chromecast",
		"fn": "Living Room TV",
		"id": "abc123",
		"ve": "05",
	})
	if !ok {
		t.Fatal("expected a record")
	}
	if rec.Family != models.TXTFamilyGoogleCast {
		t.Fatalf("got family %q, want googlecast", rec.Family)
	}
	if rec.GoogleCast.FriendlyName != "Living Room TV" {
		t.Fatalf("got friendly name %q", rec.GoogleCast.FriendlyName)
	}
}

func TestParse_HomeKit(t *testing.T) {
	rec, ok := Parse("_hap._tcp", map[string]string{
		"ci": "5",
		"sf": "0",
		"c#": "12",
		"id": "11:22:33:44:55:66",
		"pv": "1.1",
	})
	if !ok {
		t.Fatal("expected a record")
	}
	if rec.HomeKit.Category != models.HomeKitCategoryLock {
		t.Fatalf("got category %v, want Lock (5)", rec.HomeKit.Category)
	}
	if !rec.HomeKit.IsPaired {
		t.Fatal("expected IsPaired true when sf bit 0 is unset")
	}
}

func TestParse_HomeKitUnpairedFlag(t *testing.T) {
	rec, _ := Parse("_hap._tcp", map[string]string{"sf": "1", "ci": "2"})
	if rec.HomeKit.IsPaired {
		t.Fatal("expected IsPaired false when sf bit 0 is set")
	}
}

func TestParse_RAOP(t *testing.T) {
	rec, ok := Parse("_raop._tcp", map[string]string{
		"am": "AppleTV3,2",
		"cn": "0,1,2,3",
		"et": "0,1,3",
		"sr": "44100",
	})
	if !ok {
		t.Fatal("expected a record")
	}
	if !rec.RAOP.Lossless {
		t.Fatal("expected lossless true when codec list includes ALAC (1)")
	}
	if rec.RAOP.HighRes {
		t.Fatal("44100 sample rate should not be flagged high-res")
	}
}

func TestParse_UnknownServiceFamilyStaysRaw(t *testing.T) {
	rec, ok := Parse("_workstation._tcp", map[string]string{"foo": "bar"})
	if !ok {
		t.Fatal("expected a raw record for an unmapped service")
	}
	if rec.Family != models.TXTFamilyRaw {
		t.Fatalf("got family %q, want raw", rec.Family)
	}
	if rec.AirPlay != nil || rec.GoogleCast != nil || rec.HomeKit != nil || rec.RAOP != nil {
		t.Fatal("expected no typed fields populated for an unmapped service")
	}
}

func TestParse_EnforcesKeyAndValueLimits(t *testing.T) {
	raw := make(map[string]string, 40)
	for i := 0; i < 40; i++ {
		raw[strings.Repeat("k", i+1)] = strings.Repeat("v", 300)
	}
	rec, ok := Parse("_workstation._tcp", raw)
	if !ok {
		t.Fatal("expected a record")
	}
	if len(rec.Raw) > maxKeysPerService {
		t.Fatalf("got %d keys, want at most %d", len(rec.Raw), maxKeysPerService)
	}
	for k, v := range rec.Raw {
		if len(v) > maxValueChars {
			t.Fatalf("value for key %q has length %d, want at most %d", k, len(v), maxValueChars)
		}
	}
}

func TestSignal_HomeKitCamera(t *testing.T) {
	rec, _ := Parse("_hap._tcp", map[string]string{"ci": "16"})
	dt, confidence, ok := Signal(rec)
	if !ok {
		t.Fatal("expected a signal")
	}
	if dt != models.DeviceTypeCamera {
		t.Fatalf("got device type %q, want camera for HomeKit category 16 (IPCamera)", dt)
	}
	if confidence != 0.80 {
		t.Fatalf("got confidence %v, want 0.80", confidence)
	}
}

func TestSignal_RAOPAlwaysSpeaker(t *testing.T) {
	rec, _ := Parse("_raop._tcp", map[string]string{"am": "AppleTV3,2"})
	dt, _, ok := Signal(rec)
	if !ok {
		t.Fatal("expected a signal")
	}
	if dt != models.DeviceTypeSpeaker {
		t.Fatalf("got device type %q, want speaker", dt)
	}
}

func TestSignal_RawFamilyHasNoSignal(t *testing.T) {
	rec, _ := Parse("_workstation._tcp", map[string]string{"foo": "bar"})
	_, _, ok := Signal(rec)
	if ok {
		t.Fatal("expected no signal for an unmapped TXT family")
	}
}
