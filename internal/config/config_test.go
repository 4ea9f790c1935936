package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaultConfig_hasSaneDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxBehaviorProfiles != 1000 {
		t.Errorf("MaxBehaviorProfiles = %d, want 1000", cfg.MaxBehaviorProfiles)
	}
	if cfg.MaxPresenceRecords != 100 {
		t.Errorf("MaxPresenceRecords = %d, want 100", cfg.MaxPresenceRecords)
	}
	if cfg.CircuitBreaker.Threshold != 5 || cfg.CircuitBreaker.Reset != 60*time.Second || cfg.CircuitBreaker.HalfOpenMax != 3 {
		t.Errorf("CircuitBreaker = %+v, want defaults 5/60s/3", cfg.CircuitBreaker)
	}
	if !cfg.ARPEnabled || !cfg.MDNSEnabled || !cfg.UPNPEnabled {
		t.Error("all discovery toggles should default to enabled")
	}
}

func TestLoadViper_explicitMissingFileErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadViper(dir + "/does-not-exist.yaml"); err == nil {
		t.Fatal("expected an error for an explicit, nonexistent config path")
	}
}

func TestLoadViper_searchModeAppliesDefaults(t *testing.T) {
	v, err := LoadViper("")
	if err != nil {
		t.Fatalf("LoadViper: %v", err)
	}
	if v.GetInt("max_behavior_profiles") != 1000 {
		t.Errorf("max_behavior_profiles = %d, want 1000", v.GetInt("max_behavior_profiles"))
	}
	if v.GetDuration("cache_ttl_upnp") != 24*time.Hour {
		t.Errorf("cache_ttl_upnp = %v, want 24h", v.GetDuration("cache_ttl_upnp"))
	}
}

func TestViperConfig_SubReturnsScopedConfig(t *testing.T) {
	v := viper.New()
	v.Set("circuit_breaker.threshold", 7)
	cfg := New(v)

	sub := cfg.Sub("circuit_breaker")
	if sub.GetInt("threshold") != 7 {
		t.Errorf("sub.GetInt(threshold) = %d, want 7", sub.GetInt("threshold"))
	}
}

func TestViperConfig_SubMissingKeyReturnsEmptyConfig(t *testing.T) {
	cfg := New(viper.New())
	sub := cfg.Sub("nonexistent")
	if sub.IsSet("anything") {
		t.Error("expected empty config for a missing Sub key")
	}
}
