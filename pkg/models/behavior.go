package models

import "time"

// BehaviorClassification buckets a device by its observed presence pattern.
type BehaviorClassification string

const (
	BehaviorUnknown        BehaviorClassification = "unknown"
	BehaviorInfrastructure BehaviorClassification = "infrastructure"
	BehaviorServer         BehaviorClassification = "server"
	BehaviorIoT            BehaviorClassification = "iot"
	BehaviorWorkstation    BehaviorClassification = "workstation"
	BehaviorPortable       BehaviorClassification = "portable"
	BehaviorMobile         BehaviorClassification = "mobile"
	BehaviorGuest          BehaviorClassification = "guest"
)

// PresenceRecord is a single timestamped online/offline observation.
type PresenceRecord struct {
	Timestamp time.Time `json:"timestamp"`
	IsOnline  bool      `json:"is_online"`
	Services  []string  `json:"services,omitempty"`
	IP        string    `json:"ip,omitempty"`
}

// DeviceBehaviorProfile tracks a device's presence history and the
// classification derived from it.
type DeviceBehaviorProfile struct {
	DeviceID            string                  `json:"device_id"`
	Classification      BehaviorClassification  `json:"classification"`
	PresenceHistory     []PresenceRecord        `json:"presence_history,omitempty"`
	AverageUptimePercent float64                `json:"average_uptime_percent"`
	IsAlwaysOn          bool                    `json:"is_always_on"`
	IsIntermittent      bool                    `json:"is_intermittent"`
	HasDailyPattern     bool                    `json:"has_daily_pattern"`
	PeakHours           []int                   `json:"peak_hours,omitempty"`
	ConsistentServices  []string                `json:"consistent_services,omitempty"`
	FirstObserved       time.Time               `json:"first_observed"`
	LastObserved        time.Time               `json:"last_observed"`
	ObservationCount    int                     `json:"observation_count"`
}

// MaxPresenceRecords is the hard cap on retained presence history per device.
const MaxPresenceRecords = 100

// MaxBehaviorProfiles is the default LRU cap on tracked behavior profiles.
const MaxBehaviorProfiles = 1000
