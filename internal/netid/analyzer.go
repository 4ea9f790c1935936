package netid

import (
	"strconv"
	"strings"

	"github.com/lanscope/lanscope/pkg/models"
)

// vmOUIs are OUI prefixes assigned to common virtualization platforms.
// Membership here drives MACAnalysis.IsVirtualMachine.
var vmOUIs = map[string]bool{
	"00:0C:29": true, // VMware
	"00:50:56": true, // VMware
	"00:05:69": true, // VMware
	"08:00:27": true, // VirtualBox
	"00:1C:42": true, // Parallels
	"52:54:00": true, // QEMU/KVM
	"00:15:5D": true, // Hyper-V
	"00:16:3E": true, // Xen
}

// vendorConfidenceTable maps a vendor substring (lowercased) to a confidence
// tier. Order matters: more specific patterns should precede broad ones.
var vendorConfidenceTable = []struct {
	pattern    string
	confidence models.VendorConfidence
}{
	{"apple", models.VendorConfidenceHigh},
	{"cisco", models.VendorConfidenceHigh},
	{"samsung", models.VendorConfidenceHigh},
	{"google", models.VendorConfidenceHigh},
	{"amazon", models.VendorConfidenceHigh},
	{"ubiquiti", models.VendorConfidenceHigh},
	{"synology", models.VendorConfidenceMedium},
	{"qnap", models.VendorConfidenceMedium},
	{"sonos", models.VendorConfidenceMedium},
	{"raspberry pi", models.VendorConfidenceMedium},
	{"hikvision", models.VendorConfidenceMedium},
	{"dahua", models.VendorConfidenceMedium},
	{"wyze", models.VendorConfidenceLow},
	{"ring", models.VendorConfidenceLow},
}

// vendorAgeTable maps a vendor substring (lowercased) to an OUI-block era.
var vendorAgeTable = []struct {
	pattern string
	age     models.VendorAge
}{
	{"cisco", models.VendorAgeLegacy},
	{"juniper", models.VendorAgeLegacy},
	{"hewlett packard", models.VendorAgeLegacy},
	{"dell", models.VendorAgeEstablished},
	{"netgear", models.VendorAgeEstablished},
	{"apple", models.VendorAgeEstablished},
	{"samsung", models.VendorAgeEstablished},
	{"ubiquiti", models.VendorAgeModern},
	{"sonos", models.VendorAgeModern},
	{"synology", models.VendorAgeModern},
	{"eero", models.VendorAgeRecent},
	{"wyze", models.VendorAgeRecent},
	{"ring", models.VendorAgeRecent},
	{"raspberry pi", models.VendorAgeRecent},
}

// deviceCategoryTable maps a vendor substring (lowercased) to a coarse
// device category, with an optional finer specialization label.
var deviceCategoryTable = []struct {
	pattern        string
	category       models.DeviceType
	specialization string
}{
	{"sonos", models.DeviceTypeSpeaker, "speaker"},
	{"synology", models.DeviceTypeNAS, ""},
	{"qnap", models.DeviceTypeNAS, ""},
	{"ubiquiti", models.DeviceTypeAccessPoint, ""},
	{"eero", models.DeviceTypeAccessPoint, ""},
	{"cisco", models.DeviceTypeRouter, ""},
	{"mikrotik", models.DeviceTypeRouter, ""},
	{"netgear", models.DeviceTypeRouter, ""},
	{"hikvision", models.DeviceTypeCamera, ""},
	{"dahua", models.DeviceTypeCamera, ""},
	{"wyze", models.DeviceTypeCamera, ""},
	{"ring", models.DeviceTypeCamera, ""},
	{"brother", models.DeviceTypePrinter, ""},
	{"canon", models.DeviceTypePrinter, ""},
	{"epson", models.DeviceTypePrinter, ""},
	{"raspberry pi", models.DeviceTypeIoT, ""},
	{"philips", models.DeviceTypeIoT, "smart lighting"},
	{"amazon", models.DeviceTypeIoT, ""},
	{"google", models.DeviceTypeIoT, ""},
	{"apple", models.DeviceTypeComputer, ""},
	{"samsung", models.DeviceTypePhone, ""},
	{"dell", models.DeviceTypeComputer, ""},
	{"lenovo", models.DeviceTypeComputer, ""},
}

// Analyze runs the MAC address analyzer (§4.9) over a normalized MAC and its
// looked-up vendor name (empty string if unknown).
func Analyze(canonicalMAC, vendor string) models.MACAnalysis {
	locallyAdministered, multicast := bits(canonicalMAC)
	oui := OUI(canonicalMAC)
	lowerVendor := strings.ToLower(vendor)

	analysis := models.MACAnalysis{
		OUI:                   oui,
		IsLocallyAdministered: locallyAdministered,
		IsMulticast:           multicast,
		IsRandomized:          locallyAdministered && !multicast,
		IsVirtualMachine:      vmOUIs[oui],
		VendorConfidence:      models.VendorConfidenceUnknown,
		VendorAge:             models.VendorAgeUnknown,
	}

	if analysis.IsRandomized {
		analysis.VendorConfidence = models.VendorConfidenceRandomized
		return analysis
	}

	if vendor == "" {
		return analysis
	}

	for _, rule := range vendorConfidenceTable {
		if strings.Contains(lowerVendor, rule.pattern) {
			analysis.VendorConfidence = rule.confidence
			break
		}
	}
	if analysis.VendorConfidence == models.VendorConfidenceUnknown {
		analysis.VendorConfidence = models.VendorConfidenceLow
	}

	for _, rule := range vendorAgeTable {
		if strings.Contains(lowerVendor, rule.pattern) {
			analysis.VendorAge = rule.age
			break
		}
	}

	for _, rule := range deviceCategoryTable {
		if strings.Contains(lowerVendor, rule.pattern) {
			analysis.DeviceCategory = rule.category
			analysis.Specialization = rule.specialization
			break
		}
	}

	return analysis
}

// bits extracts the locally-administered and multicast bits from the first
// octet of a canonical MAC address.
func bits(canonicalMAC string) (locallyAdministered, multicast bool) {
	parts := strings.SplitN(canonicalMAC, ":", 2)
	if len(parts) == 0 || len(parts[0]) != 2 {
		return false, false
	}
	v, err := strconv.ParseUint(parts[0], 16, 8)
	if err != nil {
		return false, false
	}
	locallyAdministered = v&0x02 != 0
	multicast = v&0x01 != 0
	return locallyAdministered, multicast
}

// Signal produces the macAnalysis-sourced inference signal for a device, or
// ok=false if the category is not classified.
func Signal(analysis models.MACAnalysis) (deviceType models.DeviceType, confidence float64, ok bool) {
	if analysis.DeviceCategory == "" || analysis.DeviceCategory == models.DeviceTypeUnknown {
		return "", 0, false
	}
	confidence = 0.6
	switch analysis.VendorConfidence {
	case models.VendorConfidenceHigh:
		confidence = 0.8
	case models.VendorConfidenceMedium:
		confidence = 0.65
	case models.VendorConfidenceLow:
		confidence = 0.5
	}
	return analysis.DeviceCategory, confidence, true
}
