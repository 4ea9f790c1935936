// Package netid normalizes MAC addresses, looks up OUI vendors, and derives
// MAC-level classification signals (§4.1, §4.9).
package netid

import (
	"fmt"
	"strconv"
	"strings"
)

// Normalize converts a MAC address in any of the common separator styles
// (colon, hyphen, or none) into the canonical uppercase colon-separated,
// zero-padded form "XX:XX:XX:XX:XX:XX". Re-normalizing an already-canonical
// address is a no-op.
func Normalize(mac string) (string, error) {
	cleaned := strings.NewReplacer("-", ":", ".", "").Replace(strings.TrimSpace(mac))

	var groups []string
	if strings.Contains(cleaned, ":") {
		groups = strings.Split(cleaned, ":")
	} else {
		// No separators: split into byte pairs.
		cleaned = strings.ToUpper(cleaned)
		if len(cleaned) != 12 {
			return "", fmt.Errorf("netid: invalid MAC %q", mac)
		}
		for i := 0; i < 12; i += 2 {
			groups = append(groups, cleaned[i:i+2])
		}
	}

	if len(groups) != 6 {
		return "", fmt.Errorf("netid: invalid MAC %q", mac)
	}

	out := make([]string, 6)
	for i, g := range groups {
		if g == "" || len(g) > 2 {
			return "", fmt.Errorf("netid: invalid MAC %q", mac)
		}
		v, err := strconv.ParseUint(g, 16, 8)
		if err != nil {
			return "", fmt.Errorf("netid: invalid MAC octet %q in %q: %w", g, mac, err)
		}
		out[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(out, ":"), nil
}

// MustNormalize is Normalize for call sites that have already validated the
// input (tests, literals). It panics on invalid input.
func MustNormalize(mac string) string {
	n, err := Normalize(mac)
	if err != nil {
		panic(err)
	}
	return n
}

// OUI returns the first three octets (vendor prefix) of a canonical MAC.
func OUI(canonicalMAC string) string {
	parts := strings.SplitN(canonicalMAC, ":", 4)
	if len(parts) < 3 {
		return ""
	}
	return strings.Join(parts[:3], ":")
}

// LookupVendor returns the manufacturer name for a MAC's OUI, or "" if the
// OUI is not in the embedded table. Never fails.
func LookupVendor(mac string) string {
	canonical, err := Normalize(mac)
	if err != nil {
		return ""
	}
	return vendorTable[OUI(canonical)]
}
