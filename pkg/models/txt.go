package models

// HomeKitCategory enumerates the 36 HomeKit accessory categories carried in
// the "ci" TXT key.
type HomeKitCategory int

const (
	HomeKitCategoryOther HomeKitCategory = iota
	HomeKitCategoryBridge
	HomeKitCategoryFan
	HomeKitCategoryGarageDoorOpener
	HomeKitCategoryLighting
	HomeKitCategoryLock
	HomeKitCategoryOutlet
	HomeKitCategorySwitch
	HomeKitCategoryThermostat
	HomeKitCategorySensor
	HomeKitCategorySecuritySystem
	HomeKitCategoryDoor
	HomeKitCategoryWindow
	HomeKitCategoryWindowCovering
	HomeKitCategoryProgrammableSwitch
	HomeKitCategoryRangeExtender
	HomeKitCategoryIPCamera
	HomeKitCategoryVideoDoorbell
	HomeKitCategoryAirPurifier
	HomeKitCategoryAirHeater
	HomeKitCategoryAirConditioner
	HomeKitCategoryAirHumidifier
	HomeKitCategoryAirDehumidifier
	HomeKitCategoryAppleTV
	HomeKitCategoryHomePod
	HomeKitCategorySpeaker
	HomeKitCategoryAirport
	HomeKitCategorySprinkler
	HomeKitCategoryFaucet
	HomeKitCategoryShowerHead
	HomeKitCategoryTelevision
	HomeKitCategoryTargetController
	HomeKitCategoryWiFiRouter
	HomeKitCategoryAudioReceiver
	HomeKitCategoryTVSetTopBox
	HomeKitCategoryTVStreamingStick
)

// AirPlayTXT is the parsed TXT record of an AirPlay service announcement.
type AirPlayTXT struct {
	Model        string `json:"model,omitempty"`
	Features     uint64 `json:"features,omitempty"`
	DeviceID     string `json:"device_id,omitempty"`
	Version      string `json:"version,omitempty"`
	IsAirPlay2   bool   `json:"is_airplay2,omitempty"`
	SupportsMirroring bool `json:"supports_mirroring,omitempty"`
	AudioOnly    bool   `json:"audio_only,omitempty"`
}

// GoogleCastTXT is the parsed TXT record of a _googlecast._tcp service.
type GoogleCastTXT struct {
	Model        string `json:"model,omitempty"`
	FriendlyName string `json:"friendly_name,omitempty"`
	ID           string `json:"id,omitempty"`
	Firmware     string `json:"firmware,omitempty"`
	CastVersion  string `json:"cast_version,omitempty"`
	BuiltIn      bool   `json:"built_in,omitempty"`
	Groups       bool   `json:"groups,omitempty"`
}

// HomeKitTXT is the parsed TXT record of a _hap._tcp service.
type HomeKitTXT struct {
	Category      HomeKitCategory `json:"category"`
	StatusFlags   int             `json:"status_flags"`
	ConfigNum     int             `json:"config_num"`
	ProtoVersion  string          `json:"proto_version,omitempty"`
	DeviceID      string          `json:"device_id,omitempty"`
	IsPaired      bool            `json:"is_paired"`
	SupportsIP    bool            `json:"supports_ip"`
	SupportsBLE   bool            `json:"supports_ble"`
}

// RAOPTXT is the parsed TXT record of a _raop._tcp (AirPlay audio) service.
type RAOPTXT struct {
	Model          string   `json:"model,omitempty"`
	AudioFormats   []string `json:"audio_formats,omitempty"`
	Compression    string   `json:"compression,omitempty"`
	Encryption     string   `json:"encryption,omitempty"`
	Lossless       bool     `json:"lossless,omitempty"`
	HighRes        bool     `json:"high_res,omitempty"`
}

// TXTRecordFamily identifies which typed parser produced a TXTRecord.
type TXTRecordFamily string

const (
	TXTFamilyAirPlay     TXTRecordFamily = "airplay"
	TXTFamilyGoogleCast  TXTRecordFamily = "googlecast"
	TXTFamilyHomeKit     TXTRecordFamily = "homekit"
	TXTFamilyRAOP        TXTRecordFamily = "raop"
	TXTFamilyRaw         TXTRecordFamily = "raw"
)

// TXTRecord wraps one family-typed TXT parse result plus the raw key/value
// pairs it was derived from (bounded per the §4.10 hard limits).
type TXTRecord struct {
	Family     TXTRecordFamily   `json:"family"`
	ServiceType string           `json:"service_type"`
	Raw        map[string]string `json:"raw,omitempty"`
	AirPlay    *AirPlayTXT       `json:"airplay,omitempty"`
	GoogleCast *GoogleCastTXT    `json:"googlecast,omitempty"`
	HomeKit    *HomeKitTXT       `json:"homekit,omitempty"`
	RAOP       *RAOPTXT          `json:"raop,omitempty"`
}

// PortBanner is the classification result of a single port's banner grab.
type PortBanner struct {
	Port            int    `json:"port"`
	Banner          string `json:"banner,omitempty"`
	SoftwareName    string `json:"software_name,omitempty"`
	OSHint          string `json:"os_hint,omitempty"`
	InterfaceKind   string `json:"interface_kind,omitempty"`
	RequiresAuth    bool   `json:"requires_auth,omitempty"`
	CameraVendor    string `json:"camera_vendor,omitempty"`
}
