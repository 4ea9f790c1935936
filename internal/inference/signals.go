package inference

import (
	"strings"

	"github.com/lanscope/lanscope/pkg/models"
)

// mdnsServiceSignals maps an mDNS service type string to the signal it
// contributes when discovered for a device (§8 scenario 1-2 reproduce the
// _sonos._tcp and _googlecast._tcp/_airplay._tcp rows exactly).
var mdnsServiceSignals = []struct {
	substr     string
	deviceType models.DeviceType
	confidence float64
}{
	{"_sonos._tcp", models.DeviceTypeSpeaker, 0.90},
	{"_googlecast._tcp", models.DeviceTypeSmartTV, 0.90},
	{"_airplay._tcp", models.DeviceTypeSmartTV, 0.80},
	{"_raop._tcp", models.DeviceTypeSpeaker, 0.75},
	{"_hap._tcp", models.DeviceTypeIoT, 0.70},
	{"_homekit._tcp", models.DeviceTypeIoT, 0.70},
	{"_ipp._tcp", models.DeviceTypePrinter, 0.85},
	{"_printer._tcp", models.DeviceTypePrinter, 0.85},
	{"_pdl-datastream._tcp", models.DeviceTypePrinter, 0.80},
	{"_smb._tcp", models.DeviceTypeNAS, 0.55},
	{"_afpovertcp._tcp", models.DeviceTypeNAS, 0.55},
	{"_nfs._tcp", models.DeviceTypeNAS, 0.55},
	{"_workstation._tcp", models.DeviceTypeComputer, 0.60},
	{"_ssh._tcp", models.DeviceTypeServer, 0.45},
	{"_mqtt._tcp", models.DeviceTypeIoT, 0.65},
	{"_coap._udp", models.DeviceTypeIoT, 0.65},
	{"_matter._tcp", models.DeviceTypeIoT, 0.70},
}

// MDNSSignal returns the signal for an observed mDNS service type, if any
// table entry matches as a substring of the raw service string.
func MDNSSignal(service string) (Signal, bool) {
	for _, rule := range mdnsServiceSignals {
		if strings.Contains(service, rule.substr) {
			return Signal{Source: SourceMDNS, SuggestedType: rule.deviceType, Confidence: rule.confidence}, true
		}
	}
	return Signal{}, false
}

// ssdpFieldSignals maps substrings of SSDP SERVER/ST/USN header values to a
// signal.
var ssdpFieldSignals = []struct {
	substr     string
	deviceType models.DeviceType
	confidence float64
}{
	{"urn:schemas-upnp-org:device:internetgatewaydevice", models.DeviceTypeRouter, 0.85},
	{"urn:schemas-upnp-org:device:mediarenderer", models.DeviceTypeSmartTV, 0.75},
	{"urn:schemas-upnp-org:device:mediaserver", models.DeviceTypeNAS, 0.70},
	{"urn:schemas-sonos-com", models.DeviceTypeSpeaker, 0.90},
	{"urn:dial-multiscreen-org:device:dial", models.DeviceTypeSmartTV, 0.80},
	{"roku", models.DeviceTypeSmartTV, 0.80},
	{"sonos", models.DeviceTypeSpeaker, 0.85},
	{"printer", models.DeviceTypePrinter, 0.75},
	{"axis", models.DeviceTypeCamera, 0.70},
	{"hikvision", models.DeviceTypeCamera, 0.70},
	{"synology", models.DeviceTypeNAS, 0.75},
	{"qnap", models.DeviceTypeNAS, 0.75},
}

// SSDPSignal returns the signal for a SSDP SERVER, ST, or USN header value.
func SSDPSignal(headerValue string) (Signal, bool) {
	lower := strings.ToLower(headerValue)
	for _, rule := range ssdpFieldSignals {
		if strings.Contains(lower, rule.substr) {
			return Signal{Source: SourceSSDP, SuggestedType: rule.deviceType, Confidence: rule.confidence}, true
		}
	}
	return Signal{}, false
}

// portSignals maps a well-known port number to a signal.
var portSignals = map[int]struct {
	deviceType models.DeviceType
	confidence float64
}{
	1400: {models.DeviceTypeSpeaker, 0.85},
	8009: {models.DeviceTypeSmartTV, 0.70},
	7000: {models.DeviceTypeSmartTV, 0.65},
	515:  {models.DeviceTypePrinter, 0.75},
	9100: {models.DeviceTypePrinter, 0.80},
	631:  {models.DeviceTypePrinter, 0.75},
	548:  {models.DeviceTypeNAS, 0.60},
	2049: {models.DeviceTypeNAS, 0.55},
	554:  {models.DeviceTypeCamera, 0.70},
	8554: {models.DeviceTypeCamera, 0.65},
	161:  {models.DeviceTypeSwitch, 0.45},
	179:  {models.DeviceTypeRouter, 0.60},
	53:   {models.DeviceTypeRouter, 0.50},
	67:   {models.DeviceTypeRouter, 0.55},
	3389: {models.DeviceTypeComputer, 0.55},
	5357: {models.DeviceTypeComputer, 0.45},
}

// PortSignal returns the signal for an open port number, if tabled.
func PortSignal(port int) (Signal, bool) {
	rule, ok := portSignals[port]
	if !ok {
		return Signal{}, false
	}
	return Signal{Source: SourcePort, SuggestedType: rule.deviceType, Confidence: rule.confidence}, true
}

// hostnameSignals maps a lowercased hostname substring to a signal.
var hostnameSignals = []struct {
	substr     string
	deviceType models.DeviceType
	confidence float64
}{
	{"iphone", models.DeviceTypePhone, 0.75},
	{"android", models.DeviceTypePhone, 0.70},
	{"ipad", models.DeviceTypeTablet, 0.75},
	{"macbook", models.DeviceTypeLaptop, 0.70},
	{"-laptop", models.DeviceTypeLaptop, 0.55},
	{"desktop", models.DeviceTypeComputer, 0.55},
	{"imac", models.DeviceTypeComputer, 0.70},
	{"appletv", models.DeviceTypeSmartTV, 0.80},
	{"roku", models.DeviceTypeSmartTV, 0.80},
	{"chromecast", models.DeviceTypeSmartTV, 0.80},
	{"sonos", models.DeviceTypeSpeaker, 0.80},
	{"echo", models.DeviceTypeHub, 0.65},
	{"nest", models.DeviceTypeIoT, 0.65},
	{"printer", models.DeviceTypePrinter, 0.75},
	{"camera", models.DeviceTypeCamera, 0.70},
	{"nas", models.DeviceTypeNAS, 0.60},
	{"router", models.DeviceTypeRouter, 0.65},
	{"switch", models.DeviceTypeSwitch, 0.60},
	{"ap-", models.DeviceTypeAccessPoint, 0.55},
}

// HostnameSignal returns the signal for a device's hostname, if tabled.
func HostnameSignal(hostname string) (Signal, bool) {
	lower := strings.ToLower(hostname)
	for _, rule := range hostnameSignals {
		if strings.Contains(lower, rule.substr) {
			return Signal{Source: SourceHostname, SuggestedType: rule.deviceType, Confidence: rule.confidence}, true
		}
	}
	return Signal{}, false
}

// FingerprintSignals derives signals from a merged DeviceFingerprint's
// parents hierarchy, mobile/tablet flags, and manufacturer name.
func FingerprintSignals(fp *models.DeviceFingerprint) []Signal {
	if fp == nil {
		return nil
	}

	var out []Signal
	switch {
	case fp.IsTablet:
		out = append(out, Signal{Source: SourceFingerprint, SuggestedType: models.DeviceTypeTablet, Confidence: 0.85})
	case fp.IsMobile:
		out = append(out, Signal{Source: SourceFingerprint, SuggestedType: models.DeviceTypePhone, Confidence: 0.85})
	}

	for _, parent := range fp.Parents {
		lower := strings.ToLower(parent)
		switch {
		case strings.Contains(lower, "router"), strings.Contains(lower, "gateway"):
			out = append(out, Signal{Source: SourceFingerprint, SuggestedType: models.DeviceTypeRouter, Confidence: 0.80})
		case strings.Contains(lower, "printer"):
			out = append(out, Signal{Source: SourceFingerprint, SuggestedType: models.DeviceTypePrinter, Confidence: 0.80})
		case strings.Contains(lower, "camera"), strings.Contains(lower, "ip cam"):
			out = append(out, Signal{Source: SourceFingerprint, SuggestedType: models.DeviceTypeCamera, Confidence: 0.80})
		case strings.Contains(lower, "nas"), strings.Contains(lower, "storage"):
			out = append(out, Signal{Source: SourceFingerprint, SuggestedType: models.DeviceTypeNAS, Confidence: 0.80})
		case strings.Contains(lower, "game console"), strings.Contains(lower, "media player"):
			out = append(out, Signal{Source: SourceFingerprint, SuggestedType: models.DeviceTypeSmartTV, Confidence: 0.75})
		}
	}

	manufacturer := strings.ToLower(fp.Manufacturer)
	switch {
	case strings.Contains(manufacturer, "sonos"):
		out = append(out, Signal{Source: SourceFingerprint, SuggestedType: models.DeviceTypeSpeaker, Confidence: 0.80})
	case strings.Contains(manufacturer, "synology"), strings.Contains(manufacturer, "qnap"):
		out = append(out, Signal{Source: SourceFingerprint, SuggestedType: models.DeviceTypeNAS, Confidence: 0.80})
	case strings.Contains(manufacturer, "hikvision"), strings.Contains(manufacturer, "dahua"), strings.Contains(manufacturer, "axis"):
		out = append(out, Signal{Source: SourceFingerprint, SuggestedType: models.DeviceTypeCamera, Confidence: 0.80})
	}

	return out
}
