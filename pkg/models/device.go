// Package models holds the data types shared across lanscope's discovery,
// registry, inference, and persistence layers.
package models

import "time"

// DeviceType categorizes a discovered network device.
type DeviceType string

const (
	DeviceTypeRouter       DeviceType = "router"
	DeviceTypeSwitch       DeviceType = "switch"
	DeviceTypeAccessPoint  DeviceType = "access_point"
	DeviceTypeFirewall     DeviceType = "firewall"
	DeviceTypeNAS          DeviceType = "nas"
	DeviceTypeServer       DeviceType = "server"
	DeviceTypeComputer     DeviceType = "computer"
	DeviceTypeLaptop       DeviceType = "laptop"
	DeviceTypePhone        DeviceType = "phone"
	DeviceTypeTablet       DeviceType = "tablet"
	DeviceTypePrinter      DeviceType = "printer"
	DeviceTypeCamera       DeviceType = "camera"
	DeviceTypeSpeaker      DeviceType = "speaker"
	DeviceTypeSmartTV      DeviceType = "smartTV"
	DeviceTypeHub          DeviceType = "hub"
	DeviceTypeIoT          DeviceType = "iot"
	DeviceTypeUnknown      DeviceType = "unknown"
)

// PortTransport is the transport protocol of a discovered port.
type PortTransport string

const (
	TransportTCP PortTransport = "tcp"
	TransportUDP PortTransport = "udp"
)

// Port describes a single discovered open port on a device.
type Port struct {
	Number    int           `json:"number"`
	Transport PortTransport `json:"transport"`
	State     string        `json:"state"`
	Service   string        `json:"service,omitempty"`
	Version   string        `json:"version,omitempty"`
}

// Key returns the (number, transport) uniqueness key for a port.
func (p Port) Key() PortKey {
	return PortKey{Number: p.Number, Transport: p.Transport}
}

// PortKey is the uniqueness key for a Port within a device.
type PortKey struct {
	Number    int
	Transport PortTransport
}

// ServiceSourceType identifies which discovery protocol surfaced a service.
type ServiceSourceType string

const (
	ServiceSourceMDNS ServiceSourceType = "mdns"
	ServiceSourceSSDP ServiceSourceType = "ssdp"
	ServiceSourceUPnP ServiceSourceType = "upnp"
)

// DiscoveredService represents one service advertised by a device.
type DiscoveredService struct {
	Name string            `json:"name"`
	Type ServiceSourceType `json:"type"`
	Port int               `json:"port,omitempty"`
	TXT  map[string]string `json:"txt,omitempty"`
}

// Key returns the (name, type) uniqueness key for a service.
func (s DiscoveredService) Key() ServiceKey {
	return ServiceKey{Name: s.Name, Type: s.Type}
}

// ServiceKey is the uniqueness key for a DiscoveredService within a device.
type ServiceKey struct {
	Name string
	Type ServiceSourceType
}

// SmartSignal is an immutable piece of evidence contributing to a device's
// smart score.
type SmartSignal struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Weight      int    `json:"weight"`
}

// HTTPInfo captures minimal HTTP banner metadata gathered during probing.
type HTTPInfo struct {
	Server         string `json:"server,omitempty"`
	PoweredBy      string `json:"powered_by,omitempty"`
	WWWAuthenticate string `json:"www_authenticate,omitempty"`
	ContentType    string `json:"content_type,omitempty"`
}

// Device is the canonical, MAC-keyed record lanscope maintains for every
// network host it has ever observed.
type Device struct {
	// Stable identity.
	MAC  string `json:"mac"`
	UUID string `json:"uuid"`

	// Network.
	IP              string `json:"ip,omitempty"`
	Hostname        string `json:"hostname,omitempty"`
	Vendor          string `json:"vendor,omitempty"`
	SourceInterface string `json:"source_interface,omitempty"`
	Subnet          string `json:"subnet,omitempty"`

	// Lifecycle.
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	IsOnline  bool      `json:"is_online"`

	// Discovery artifacts.
	OpenPorts          []Port              `json:"open_ports,omitempty"`
	DiscoveredServices []DiscoveredService `json:"discovered_services,omitempty"`
	HTTPInfo           *HTTPInfo           `json:"http_info,omitempty"`

	// Classification.
	SmartScore int           `json:"smart_score"`
	Signals    []SmartSignal `json:"signals,omitempty"`
	DeviceType DeviceType    `json:"device_type"`
	UserLabel  string        `json:"user_label,omitempty"`

	// Enrichment.
	Fingerprint     *DeviceFingerprint    `json:"fingerprint,omitempty"`
	MDNSTXTRecords  map[string]TXTRecord  `json:"mdns_txt_records,omitempty"`
	PortBanners     map[int]PortBanner    `json:"port_banners,omitempty"`
	MACAnalysis     *MACAnalysis          `json:"mac_analysis,omitempty"`
	SecurityPosture *SecurityPostureData  `json:"security_posture,omitempty"`
	BehaviorProfile *DeviceBehaviorProfile `json:"behavior_profile,omitempty"`
}
