// Package inference implements the weighted multi-source device-type
// classifier (§4.8): signals from discovery, fingerprinting, and behavior
// analysis are combined into a single best-guess DeviceType.
package inference

import "github.com/lanscope/lanscope/pkg/models"

// Source identifies which subsystem produced a Signal.
type Source string

const (
	SourceFingerprint Source = "fingerprint"
	SourceMDNSTXT     Source = "mdnsTXT"
	SourceUPnP        Source = "upnp"
	SourcePortBanner  Source = "portBanner"
	SourceMDNS        Source = "mdns"
	SourceSSDP        Source = "ssdp"
	SourceHostname    Source = "hostname"
	SourceMACAnalysis Source = "macAnalysis"
	SourceBehavior    Source = "behavior"
	SourcePort        Source = "port"
)

// sourceWeights is the fixed table of per-source trust weights.
var sourceWeights = map[Source]float64{
	SourceFingerprint: 0.90,
	SourceMDNSTXT:     0.85,
	SourceUPnP:        0.80,
	SourcePortBanner:  0.75,
	SourceMDNS:        0.70,
	SourceSSDP:        0.70,
	SourceHostname:    0.60,
	SourceMACAnalysis: 0.60,
	SourceBehavior:    0.60,
	SourcePort:        0.50,
}

// deviceTypeOrder fixes the tie-break ordering, mirroring the DeviceType
// enum's declaration order.
var deviceTypeOrder = []models.DeviceType{
	models.DeviceTypeRouter,
	models.DeviceTypeSwitch,
	models.DeviceTypeAccessPoint,
	models.DeviceTypeFirewall,
	models.DeviceTypeNAS,
	models.DeviceTypeServer,
	models.DeviceTypeComputer,
	models.DeviceTypeLaptop,
	models.DeviceTypePhone,
	models.DeviceTypeTablet,
	models.DeviceTypePrinter,
	models.DeviceTypeCamera,
	models.DeviceTypeSpeaker,
	models.DeviceTypeSmartTV,
	models.DeviceTypeHub,
	models.DeviceTypeIoT,
	models.DeviceTypeUnknown,
}

// Signal is one piece of evidence toward a device's classification.
type Signal struct {
	Source         Source
	SuggestedType  models.DeviceType
	Confidence     float64
}

// ToModelSignal converts a Signal into the persisted models.SmartSignal
// shape (integer weight: confidence × 100, truncated toward zero).
func (s Signal) ToModelSignal() models.SmartSignal {
	return models.SmartSignal{
		Type:        string(s.Source),
		Description: string(s.SuggestedType),
		Weight:      int(s.Confidence * 100),
	}
}

// typeOrderIndex returns the tie-break rank of a DeviceType; unknown types
// not in the declared enum sort last.
func typeOrderIndex(dt models.DeviceType) int {
	for i, t := range deviceTypeOrder {
		if t == dt {
			return i
		}
	}
	return len(deviceTypeOrder)
}

// Infer aggregates signals per §4.8 and returns the winning DeviceType.
// Returns models.DeviceTypeUnknown for an empty or fully-filtered input.
func Infer(signals []Signal) models.DeviceType {
	scores := make(map[models.DeviceType]float64)
	maxContribution := make(map[models.DeviceType]float64)

	any := false
	for _, s := range signals {
		if s.SuggestedType == "" || s.SuggestedType == models.DeviceTypeUnknown {
			continue
		}
		weight := sourceWeights[s.Source]
		contribution := s.Confidence * weight
		scores[s.SuggestedType] += contribution
		if contribution > maxContribution[s.SuggestedType] {
			maxContribution[s.SuggestedType] = contribution
		}
		any = true
	}

	if !any {
		return models.DeviceTypeUnknown
	}

	var best models.DeviceType
	bestScore := -1.0
	for dt, score := range scores {
		switch {
		case score > bestScore:
			bestScore = score
			best = dt
		case score == bestScore:
			if maxContribution[dt] > maxContribution[best] {
				best = dt
			} else if maxContribution[dt] == maxContribution[best] && typeOrderIndex(dt) < typeOrderIndex(best) {
				best = dt
			}
		}
	}

	return best
}
