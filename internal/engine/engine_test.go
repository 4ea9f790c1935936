package engine

import (
	"testing"
	"time"
)

func TestWithinQuietHours_sameDayWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 23, 30, 0, 0, time.UTC)
	if !withinQuietHours(now, "22:00", "23:59") {
		t.Error("expected 23:30 to fall within 22:00-23:59")
	}
	if withinQuietHours(now, "08:00", "17:00") {
		t.Error("23:30 should not fall within 08:00-17:00")
	}
}

func TestWithinQuietHours_wrapsPastMidnight(t *testing.T) {
	late := time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC)
	early := time.Date(2026, 1, 1, 2, 0, 0, 0, time.UTC)
	midday := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	if !withinQuietHours(late, "22:00", "06:00") {
		t.Error("23:00 should fall within a 22:00-06:00 wrapping window")
	}
	if !withinQuietHours(early, "22:00", "06:00") {
		t.Error("02:00 should fall within a 22:00-06:00 wrapping window")
	}
	if withinQuietHours(midday, "22:00", "06:00") {
		t.Error("12:00 should not fall within a 22:00-06:00 wrapping window")
	}
}

func TestWithinQuietHours_emptyBoundsDisables(t *testing.T) {
	now := time.Now()
	if withinQuietHours(now, "", "06:00") {
		t.Error("empty start should disable the quiet window")
	}
	if withinQuietHours(now, "22:00", "") {
		t.Error("empty end should disable the quiet window")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "", "b", "c"); got != "b" {
		t.Errorf("firstNonEmpty = %q, want %q", got, "b")
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Errorf("firstNonEmpty = %q, want empty", got)
	}
}
