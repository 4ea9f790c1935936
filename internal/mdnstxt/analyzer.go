// Package mdnstxt implements the mDNS TXT record analyzer (§4.10): it
// parses raw TXT key/value pairs captured alongside an mDNS service
// announcement into family-typed records for AirPlay, GoogleCast, HomeKit,
// and RAOP, enforcing the hard bounds on record size, and derives the
// mdnsTXT-sourced device-type signal from the parsed result.
package mdnstxt

import (
	"sort"
	"strconv"
	"strings"

	"github.com/lanscope/lanscope/pkg/models"
)

const (
	maxKeysPerService = 32
	maxValueChars     = 256
)

// clamp enforces the per-service key count and per-value length limits,
// returning a new map safe to attach to a TXTRecord.
func clamp(raw map[string]string) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > maxKeysPerService {
		keys = keys[:maxKeysPerService]
	}

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		v := raw[k]
		if len(v) > maxValueChars {
			v = v[:maxValueChars]
		}
		out[k] = v
	}
	return out
}

// Parse turns one service's raw TXT fields into a typed TXTRecord. ok is
// false when raw carries no data worth recording.
func Parse(serviceType string, raw map[string]string) (models.TXTRecord, bool) {
	clamped := clamp(raw)
	if clamped == nil {
		return models.TXTRecord{}, false
	}

	rec := models.TXTRecord{ServiceType: serviceType, Raw: clamped, Family: models.TXTFamilyRaw}

	switch {
	case strings.Contains(serviceType, "_airplay._tcp"):
		rec.Family = models.TXTFamilyAirPlay
		rec.AirPlay = parseAirPlay(clamped)
	case strings.Contains(serviceType, "_raop._tcp"):
		rec.Family = models.TXTFamilyRAOP
		rec.RAOP = parseRAOP(clamped)
	case strings.Contains(serviceType, "_googlecast._tcp"):
		rec.Family = models.TXTFamilyGoogleCast
		rec.GoogleCast = parseGoogleCast(clamped)
	case strings.Contains(serviceType, "_hap._tcp"), strings.Contains(serviceType, "_homekit._tcp"):
		rec.Family = models.TXTFamilyHomeKit
		rec.HomeKit = parseHomeKit(clamped)
	}

	return rec, true
}

func parseAirPlay(raw map[string]string) *models.AirPlayTXT {
	features := parseHexUint(raw["features"])
	return &models.AirPlayTXT{
		Model:             raw["model"],
		Features:          features,
		DeviceID:          raw["deviceid"],
		Version:           raw["srcvers"],
		IsAirPlay2:        raw["pk"] != "",
		SupportsMirroring: features&0x80 != 0,
		AudioOnly:         raw["features"] != "" && features&0x80 == 0,
	}
}

func parseGoogleCast(raw map[string]string) *models.GoogleCastTXT {
	model := strings.ToLower(raw["md"])
	return &models.GoogleCastTXT{
		Model:        raw["md"],
		FriendlyName: raw["fn"],
		ID:           raw["id"],
		Firmware:     raw["rs"],
		CastVersion:  raw["ve"],
		BuiltIn:      strings.Contains(model, "built-in") || strings.Contains(model, "tv"),
		Groups:       strings.Contains(model, "group"),
	}
}

func parseHomeKit(raw map[string]string) *models.HomeKitTXT {
	category := models.HomeKitCategory(parseInt(raw["ci"]))
	statusFlags := parseInt(raw["sf"])
	return &models.HomeKitTXT{
		Category:     category,
		StatusFlags:  statusFlags,
		ConfigNum:    parseInt(raw["c#"]),
		ProtoVersion: raw["pv"],
		DeviceID:     raw["id"],
		IsPaired:     statusFlags&0x01 == 0,
		SupportsIP:   true,
		SupportsBLE:  false,
	}
}

func parseRAOP(raw map[string]string) *models.RAOPTXT {
	codecs := splitNonEmpty(raw["cn"], ",")
	sampleRate := parseInt(raw["sr"])
	lossless := false
	for _, c := range codecs {
		if c == "1" {
			lossless = true
			break
		}
	}
	return &models.RAOPTXT{
		Model:        raw["am"],
		AudioFormats: codecs,
		Compression:  firstOrEmpty(codecs),
		Encryption:   raw["et"],
		Lossless:     lossless,
		HighRes:      sampleRate > 44100,
	}
}

func parseHexUint(v string) uint64 {
	v = strings.TrimPrefix(v, "0x")
	if idx := strings.IndexByte(v, ','); idx >= 0 {
		v = v[:idx]
	}
	n, err := strconv.ParseUint(v, 16, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseInt(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func splitNonEmpty(v, sep string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstOrEmpty(vs []string) string {
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}
