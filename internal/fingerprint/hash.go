package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// SignalHash computes the deterministic cache key for a remote fingerprint
// lookup: SHA-256 of the canonical MAC, DHCP fingerprint, and sorted user
// agents, joined with a separator that cannot appear in any input field.
func SignalHash(canonicalMAC, dhcpFingerprint string, userAgents []string) string {
	sorted := append([]string(nil), userAgents...)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString(canonicalMAC)
	b.WriteByte('\x00')
	b.WriteString(dhcpFingerprint)
	b.WriteByte('\x00')
	b.WriteString(strings.Join(sorted, "\x01"))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
