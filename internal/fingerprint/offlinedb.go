package fingerprint

import (
	"strings"

	"github.com/lanscope/lanscope/pkg/models"
)

// offlineOUIEntries is a small bundled snapshot of vendor-identifying
// fingerprints, keyed by OUI prefix, used when no network path to the
// remote API exists. Not a substitute for the remote API's coverage.
var offlineOUIEntries = map[string]models.DeviceFingerprint{
	"B8:27:EB": {DeviceName: "Raspberry Pi", Parents: []string{"Single Board Computer"}, OS: "Linux"},
	"DC:A6:32": {DeviceName: "Raspberry Pi", Parents: []string{"Single Board Computer"}, OS: "Linux"},
	"FC:A1:83": {DeviceName: "Sonos Speaker", Parents: []string{"Speaker", "IoT"}},
	"B0:C5:54": {DeviceName: "Sonos Speaker", Parents: []string{"Speaker", "IoT"}},
	"00:17:88": {DeviceName: "Philips Hue Bridge", Parents: []string{"Smart Home Hub", "IoT"}},
	"18:B4:30": {DeviceName: "Nest Device", Parents: []string{"Thermostat", "IoT"}},
	"44:07:0B": {DeviceName: "Amazon Echo", Parents: []string{"Speaker", "IoT"}, IsMobile: false},
}

// offlineDHCPFingerprints maps a DHCP option-55 parameter-request-list
// fingerprint hash to a device identity, for clients whose vendor cannot be
// derived from the OUI alone (e.g. after a randomized MAC).
var offlineDHCPFingerprints = map[string]models.DeviceFingerprint{
	"1,3,6,15,119,252":           {DeviceName: "Android Device", OS: "Android", IsMobile: true},
	"1,121,3,6,15,119,252,95":    {DeviceName: "iOS Device", OS: "iOS", IsMobile: true},
	"1,15,3,6,44,46,47,31,33,121,249,43": {DeviceName: "Windows PC", OS: "Windows"},
}

// OfflineDB is the bundled read-only fingerprint database, the fourth tier
// of the §4.14 hierarchy.
type OfflineDB struct{}

// NewOfflineDB constructs the bundled offline lookup tier.
func NewOfflineDB() *OfflineDB { return &OfflineDB{} }

// Lookup tries OUI prefix first, then a DHCP parameter-request-list
// fingerprint. Results are tagged cacheHit=true, source=remoteApi per spec.
func (o *OfflineDB) Lookup(canonicalMAC, dhcpFingerprint string) (models.DeviceFingerprint, bool) {
	if fp, ok := o.lookupOUI(canonicalMAC); ok {
		return fp, true
	}
	if dhcpFingerprint != "" {
		if fp, ok := offlineDHCPFingerprints[dhcpFingerprint]; ok {
			fp.Source = models.FingerprintSourceRemote
			fp.CacheHit = true
			return fp, true
		}
	}
	return models.DeviceFingerprint{}, false
}

func (o *OfflineDB) lookupOUI(canonicalMAC string) (models.DeviceFingerprint, bool) {
	parts := strings.Split(canonicalMAC, ":")
	if len(parts) < 3 {
		return models.DeviceFingerprint{}, false
	}
	oui := strings.Join(parts[:3], ":")
	fp, ok := offlineOUIEntries[oui]
	if !ok {
		return models.DeviceFingerprint{}, false
	}
	fp.Source = models.FingerprintSourceRemote
	fp.CacheHit = true
	return fp, true
}
