package models

import "time"

// FingerprintSource tags where a DeviceFingerprint's fields came from.
type FingerprintSource string

const (
	FingerprintSourceUPnP     FingerprintSource = "upnp"
	FingerprintSourceRemote   FingerprintSource = "remoteApi"
	FingerprintSourceBoth     FingerprintSource = "both"
	FingerprintSourceNone     FingerprintSource = "none"
)

// DeviceFingerprint is the union of UPnP-derived and remote-API-derived
// identity fields for a device.
type DeviceFingerprint struct {
	// UPnP-derived.
	FriendlyName   string   `json:"friendly_name,omitempty"`
	Manufacturer   string   `json:"manufacturer,omitempty"`
	ModelName      string   `json:"model_name,omitempty"`
	ModelNumber    string   `json:"model_number,omitempty"`
	SerialNumber   string   `json:"serial_number,omitempty"`
	UPnPDeviceType string   `json:"upnp_device_type,omitempty"`
	UPnPServices   []string `json:"upnp_services,omitempty"`

	// Remote-API-derived.
	DeviceName string   `json:"device_name,omitempty"`
	Parents    []string `json:"parents,omitempty"`
	Score      int      `json:"score,omitempty"`
	OS         string   `json:"os,omitempty"`
	OSVersion  string   `json:"os_version,omitempty"`
	IsMobile   bool     `json:"is_mobile,omitempty"`
	IsTablet   bool     `json:"is_tablet,omitempty"`

	Source    FingerprintSource `json:"source"`
	Timestamp time.Time         `json:"timestamp"`
	CacheHit  bool              `json:"cache_hit"`
}

// FingerbankCacheEntry is one row of the remote fingerprint cache.
type FingerbankCacheEntry struct {
	MAC              string    `json:"mac"`
	FingerprintJSON  string    `json:"fingerprint_json"`
	SignalHash       string    `json:"signal_hash"`
	DHCPFingerprint  string    `json:"dhcp_fingerprint,omitempty"`
	UserAgents       []string  `json:"user_agents,omitempty"`
	FetchedAt        time.Time `json:"fetched_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	HitCount         int       `json:"hit_count"`
	LastHitAt        time.Time `json:"last_hit_at"`
}
