// Package config provides a Viper-backed configuration surface and the
// derived lanscoped engine settings (§6).
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the narrow configuration boundary every subsystem depends on,
// mirroring the teacher's plugin.Config interface.
type Config interface {
	Unmarshal(target any) error
	Get(key string) any
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetDuration(key string) time.Duration
	IsSet(key string) bool
	Sub(key string) Config
}

// ViperConfig implements Config over a *viper.Viper instance.
type ViperConfig struct {
	v *viper.Viper
}

// New wraps v as a Config. A nil v is replaced with an empty Viper.
func New(v *viper.Viper) *ViperConfig {
	if v == nil {
		v = viper.New()
	}
	return &ViperConfig{v: v}
}

func (c *ViperConfig) Unmarshal(target any) error  { return c.v.Unmarshal(target) }
func (c *ViperConfig) Get(key string) any           { return c.v.Get(key) }
func (c *ViperConfig) GetString(key string) string  { return c.v.GetString(key) }
func (c *ViperConfig) GetInt(key string) int         { return c.v.GetInt(key) }
func (c *ViperConfig) GetBool(key string) bool       { return c.v.GetBool(key) }
func (c *ViperConfig) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }
func (c *ViperConfig) IsSet(key string) bool         { return c.v.IsSet(key) }

func (c *ViperConfig) Sub(key string) Config {
	sub := c.v.Sub(key)
	if sub == nil {
		return New(nil)
	}
	return New(sub)
}

// Viper returns the underlying instance for callers that need direct access.
func (c *ViperConfig) Viper() *viper.Viper { return c.v }

// CircuitBreakerConfig configures the remote-fingerprint circuit breaker
// (§4.15).
type CircuitBreakerConfig struct {
	Threshold    int           `mapstructure:"threshold"`
	Reset        time.Duration `mapstructure:"reset"`
	HalfOpenMax  int           `mapstructure:"halfopen_max"`
}

// ScheduleConfig configures recurring active scans.
type ScheduleConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Interval   time.Duration `mapstructure:"interval"`
	QuietStart string        `mapstructure:"quiet_start"`
	QuietEnd   string        `mapstructure:"quiet_end"`
	Subnet     string        `mapstructure:"subnet"`
}

// EngineConfig is the full §6 configuration surface for lanscoped.
type EngineConfig struct {
	DatabasePath string `mapstructure:"database_path"`

	ARPEnabled  bool `mapstructure:"arp_enabled"`
	MDNSEnabled bool `mapstructure:"mdns_enabled"`
	UPNPEnabled bool `mapstructure:"upnp_enabled"`

	ARPPollInterval  time.Duration `mapstructure:"arp_poll_interval"`
	MDNSPollInterval time.Duration `mapstructure:"mdns_poll_interval"`

	PortScanConcurrency int `mapstructure:"port_scan_concurrency"`

	Schedule ScheduleConfig `mapstructure:"schedule"`

	FingerbankAPIKey      string        `mapstructure:"fingerbank_api_key"`
	EnableLegacyFileCache bool          `mapstructure:"enable_legacy_file_cache"`
	LegacyCacheDir        string        `mapstructure:"legacy_cache_dir"`
	CacheTTLRemote        time.Duration `mapstructure:"cache_ttl_remote"`
	CacheTTLUPnP          time.Duration `mapstructure:"cache_ttl_upnp"`

	BehaviorHashIDs     bool `mapstructure:"behavior_hash_ids"`
	MaxBehaviorProfiles int  `mapstructure:"max_behavior_profiles"`
	MaxPresenceRecords  int  `mapstructure:"max_presence_records"`

	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// DefaultConfig returns lanscoped's default engine configuration.
func DefaultConfig() EngineConfig {
	return EngineConfig{
		DatabasePath: "./data/lanscope.db",

		ARPEnabled:  true,
		MDNSEnabled: true,
		UPNPEnabled: true,

		ARPPollInterval:  30 * time.Second,
		MDNSPollInterval: 5 * time.Minute,

		PortScanConcurrency: 20,

		Schedule: ScheduleConfig{
			Enabled:  false,
			Interval: time.Hour,
		},

		EnableLegacyFileCache: false,
		LegacyCacheDir:        "./data/fingerprint-cache",
		CacheTTLRemote:        7 * 24 * time.Hour,
		CacheTTLUPnP:          24 * time.Hour,

		BehaviorHashIDs:     false,
		MaxBehaviorProfiles: 1000,
		MaxPresenceRecords:  100,

		CircuitBreaker: CircuitBreakerConfig{
			Threshold:   5,
			Reset:       60 * time.Second,
			HalfOpenMax: 3,
		},
	}
}

// LoadViper builds a Viper instance with defaults applied, optionally
// reading configPath (or the standard search locations when empty), and
// LANSCOPE-prefixed environment overrides.
func LoadViper(configPath string) (*viper.Viper, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("database_path", defaults.DatabasePath)
	v.SetDefault("arp_enabled", defaults.ARPEnabled)
	v.SetDefault("mdns_enabled", defaults.MDNSEnabled)
	v.SetDefault("upnp_enabled", defaults.UPNPEnabled)
	v.SetDefault("arp_poll_interval", defaults.ARPPollInterval)
	v.SetDefault("mdns_poll_interval", defaults.MDNSPollInterval)
	v.SetDefault("port_scan_concurrency", defaults.PortScanConcurrency)
	v.SetDefault("schedule.enabled", defaults.Schedule.Enabled)
	v.SetDefault("schedule.quiet_start", defaults.Schedule.QuietStart)
	v.SetDefault("schedule.quiet_end", defaults.Schedule.QuietEnd)
	v.SetDefault("schedule.subnet", defaults.Schedule.Subnet)
	v.SetDefault("schedule.interval", defaults.Schedule.Interval)
	v.SetDefault("enable_legacy_file_cache", defaults.EnableLegacyFileCache)
	v.SetDefault("legacy_cache_dir", defaults.LegacyCacheDir)
	v.SetDefault("cache_ttl_remote", defaults.CacheTTLRemote)
	v.SetDefault("cache_ttl_upnp", defaults.CacheTTLUPnP)
	v.SetDefault("behavior_hash_ids", defaults.BehaviorHashIDs)
	v.SetDefault("max_behavior_profiles", defaults.MaxBehaviorProfiles)
	v.SetDefault("max_presence_records", defaults.MaxPresenceRecords)
	v.SetDefault("circuit_breaker.threshold", defaults.CircuitBreaker.Threshold)
	v.SetDefault("circuit_breaker.reset", defaults.CircuitBreaker.Reset)
	v.SetDefault("circuit_breaker.halfopen_max", defaults.CircuitBreaker.HalfOpenMax)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8745")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("lanscope")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/lanscope")
	}

	v.SetEnvPrefix("LANSCOPE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return v, nil
}
