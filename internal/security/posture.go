// Package security implements the pure-function security posture assessor
// (§4.12): it scores a device's open ports, banners, and hostname against
// fixed risk tables and never performs I/O itself.
package security

import (
	"strconv"
	"strings"
	"time"

	"github.com/lanscope/lanscope/pkg/models"
)

// criticalPorts, highPorts and mediumPorts tier a port number to a score
// contribution and severity.
var criticalPorts = map[int]bool{23: true, 1433: true, 1521: true, 3306: true, 6379: true, 27017: true}
var highPorts = map[int]bool{3389: true, 5900: true, 5901: true, 5902: true}
var mediumPorts = map[int]bool{21: true, 25: true, 110: true, 135: true, 139: true, 445: true}

var defaultHostnames = []string{"default", "admin", "unconfigured", "router", "android", "localhost"}
var weakHostnames = []string{"test", "guest", "temp", "demo"}

// telnetRemediation is the recommendation attached to the Telnet port factor.
const telnetRemediation = "Disable Telnet and use SSH instead"

// Assess runs the §4.12 algorithm over a device's known surface. hostname,
// openPorts, banners, and httpInfo may each be empty/nil; an entirely empty
// input yields riskLevel=unknown.
func Assess(hostname string, openPorts []models.Port, banners map[int]models.PortBanner, httpInfo *models.HTTPInfo) models.SecurityPostureData {
	score := 0
	var factors []models.RiskFactor
	var riskyPorts []int
	hasData := hostname != "" || len(openPorts) > 0 || len(banners) > 0 || httpInfo != nil

	for _, port := range openPorts {
		switch {
		case criticalPorts[port.Number]:
			score += 20
			riskyPorts = append(riskyPorts, port.Number)
			factors = append(factors, criticalPortFactor(port.Number))
		case highPorts[port.Number]:
			score += 15
			riskyPorts = append(riskyPorts, port.Number)
			factors = append(factors, models.RiskFactor{
				Description:    describeHighPort(port.Number),
				Severity:       models.RiskSeverityHigh,
				Port:           port.Number,
				Recommendation: "Restrict remote access to a VPN or trusted network only",
			})
		case mediumPorts[port.Number]:
			score += 8
			riskyPorts = append(riskyPorts, port.Number)
			factors = append(factors, models.RiskFactor{
				Description:    describeMediumPort(port.Number),
				Severity:       models.RiskSeverityMedium,
				Port:           port.Number,
				Recommendation: "Disable the service if not required",
			})
		}
	}

	if hostname != "" {
		lower := strings.ToLower(hostname)
		for _, pattern := range defaultHostnames {
			if strings.Contains(lower, pattern) {
				factors = append(factors, models.RiskFactor{
					Description:    "Device uses a default or generic hostname",
					Severity:       models.RiskSeverityMedium,
					Recommendation: "Set a unique hostname to aid inventory tracking",
				})
				score += 5
				break
			}
		}
		for _, pattern := range weakHostnames {
			if strings.Contains(lower, pattern) {
				factors = append(factors, models.RiskFactor{
					Description:    "Hostname suggests a test or temporary device",
					Severity:       models.RiskSeverityLow,
					Recommendation: "Confirm this device is still in active, authorized use",
				})
				score += 2
				break
			}
		}
	}

	for port, banner := range banners {
		score += assessBanner(port, banner, &factors)
	}

	hasWebInterface := containsAny(openPorts, 80, 443, 8080, 8443)
	hasHTTPS := containsAny(openPorts, 443, 8443)
	usesEncryption := containsAny(openPorts, 22, 443, 8443) || bannerTaggedSSL(banners)

	if hasWebInterface {
		for port, banner := range banners {
			if port != 80 && port != 443 && port != 8080 && port != 8443 {
				continue
			}
			if banner.SoftwareName != "" {
				factors = append(factors, models.RiskFactor{
					Description:    "Web server discloses its software version",
					Severity:       models.RiskSeverityLow,
					Port:           port,
					Recommendation: "Suppress the Server header or version string",
				})
				score += 3
			}
			if banner.InterfaceKind == "admin" && !banner.RequiresAuth {
				factors = append(factors, models.RiskFactor{
					Description:    "Admin interface does not require authentication",
					Severity:       models.RiskSeverityMedium,
					Port:           port,
					Recommendation: "Enable authentication on the management interface",
				})
				score += 8
			}
			if banner.InterfaceKind == "camera" && !banner.RequiresAuth {
				factors = append(factors, models.RiskFactor{
					Description:    "Camera interface does not require authentication",
					Severity:       models.RiskSeverityHigh,
					Port:           port,
					Recommendation: "Enable authentication and change default credentials",
				})
				score += 15
			}
			if banner.RequiresAuth && strings.Contains(strings.ToLower(banner.Banner), "basic") {
				severity := models.RiskSeverityMedium
				if hasHTTPS {
					severity = models.RiskSeverityLow
				}
				factors = append(factors, models.RiskFactor{
					Description:    "HTTP Basic authentication in use",
					Severity:       severity,
					Port:           port,
					Recommendation: "Switch to a stronger authentication scheme over HTTPS",
				})
				if severity == models.RiskSeverityMedium {
					score += 8
				} else {
					score += 3
				}
			}
		}
	}

	for port, banner := range banners {
		if banner.InterfaceKind != "camera" || port == 80 || port == 443 || port == 8080 || port == 8443 {
			continue
		}
		if !banner.RequiresAuth {
			factors = append(factors, models.RiskFactor{
				Description:    "RTSP stream does not require authentication",
				Severity:       models.RiskSeverityHigh,
				Port:           port,
				Recommendation: "Enable RTSP authentication on the camera",
			})
			score += 15
		}
	}

	if score > 100 {
		score = 100
	}

	var level models.RiskLevel
	switch {
	case !hasData:
		level = models.RiskLevelUnknown
	case score >= 40:
		level = models.RiskLevelCritical
	case score >= 25:
		level = models.RiskLevelHigh
	case score >= 10:
		level = models.RiskLevelMedium
	default:
		level = models.RiskLevelLow
	}
	// A single critical- or high-severity factor (e.g. Telnet, an
	// unauthenticated camera) marks the device at that level even when the
	// cumulative score alone would bucket lower.
	if floor := severityFloor(factors); severityRank(floor) > severityRank(level) {
		level = floor
	}

	return models.SecurityPostureData{
		RiskLevel:              level,
		RiskScore:              score,
		RiskFactors:            factors,
		RiskyPorts:             dedupeInts(riskyPorts),
		HasWebInterface:        hasWebInterface,
		RequiresAuthentication: anyRequiresAuth(banners),
		UsesEncryption:         usesEncryption,
		AssessmentDate:         time.Now(),
	}
}

func criticalPortFactor(port int) models.RiskFactor {
	switch port {
	case 23:
		return models.RiskFactor{
			Description:    "Telnet is open, transmitting credentials in cleartext",
			Severity:       models.RiskSeverityCritical,
			Port:           23,
			Recommendation: telnetRemediation,
		}
	case 3306, 1433, 1521:
		return models.RiskFactor{
			Description:    "A database port is exposed to the network",
			Severity:       models.RiskSeverityCritical,
			Port:           port,
			Recommendation: "Restrict database access to application hosts only",
		}
	case 6379:
		return models.RiskFactor{
			Description:    "Redis is exposed without a documented auth check",
			Severity:       models.RiskSeverityCritical,
			Port:           6379,
			Recommendation: "Require authentication and bind Redis to a private interface",
		}
	case 27017:
		return models.RiskFactor{
			Description:    "MongoDB is exposed to the network",
			Severity:       models.RiskSeverityCritical,
			Port:           27017,
			Recommendation: "Restrict MongoDB access and enable authentication",
		}
	default:
		return models.RiskFactor{
			Description:    "A high-risk port is exposed",
			Severity:       models.RiskSeverityCritical,
			Port:           port,
			Recommendation: "Review whether this service needs to be network-reachable",
		}
	}
}

func describeHighPort(port int) string {
	if port == 3389 {
		return "Remote Desktop (RDP) is exposed to the network"
	}
	return "VNC remote desktop is exposed to the network"
}

func describeMediumPort(port int) string {
	switch port {
	case 21:
		return "FTP is open, transmitting credentials in cleartext"
	case 25:
		return "SMTP relay is exposed"
	case 110:
		return "POP3 is open, often without encryption"
	case 135, 139, 445:
		return "A Windows file-sharing port is exposed"
	default:
		return "A moderate-risk port is exposed"
	}
}

// assessBanner applies the SSH-version and protocol-specific rules.
func assessBanner(port int, banner models.PortBanner, factors *[]models.RiskFactor) int {
	lower := strings.ToLower(banner.Banner)
	if !strings.HasPrefix(lower, "ssh-") {
		return 0
	}

	if strings.HasPrefix(lower, "ssh-1") {
		*factors = append(*factors, models.RiskFactor{
			Description:    "SSH protocol version 1 is in use, which is cryptographically broken",
			Severity:       models.RiskSeverityCritical,
			Port:           port,
			Recommendation: "Upgrade to SSH protocol version 2",
		})
		return 20
	}

	if strings.Contains(lower, "openssh") {
		version := extractOpenSSHVersion(lower)
		if major, err := strconv.Atoi(version); err == nil && major < 7 {
			*factors = append(*factors, models.RiskFactor{
				Description:    "OpenSSH version predates 7.0 and may carry known vulnerabilities",
				Severity:       models.RiskSeverityHigh,
				Port:           port,
				Recommendation: "Upgrade OpenSSH to a supported release",
			})
			return 15
		}
	}
	return 0
}

func extractOpenSSHVersion(lower string) string {
	idx := strings.Index(lower, "openssh_")
	if idx < 0 {
		return ""
	}
	rest := lower[idx+len("openssh_"):]
	dot := strings.IndexByte(rest, '.')
	if dot <= 0 {
		return ""
	}
	return rest[:dot]
}

func bannerTaggedSSL(banners map[int]models.PortBanner) bool {
	for _, b := range banners {
		if strings.Contains(strings.ToLower(b.Banner), "ssl") {
			return true
		}
	}
	return false
}

func anyRequiresAuth(banners map[int]models.PortBanner) bool {
	for _, b := range banners {
		if b.RequiresAuth {
			return true
		}
	}
	return false
}

func containsAny(ports []models.Port, wanted ...int) bool {
	set := make(map[int]bool, len(wanted))
	for _, w := range wanted {
		set[w] = true
	}
	for _, p := range ports {
		if set[p.Number] {
			return true
		}
	}
	return false
}

// severityFloor returns the riskLevel implied by the single highest-severity
// factor present, or empty if factors is empty.
func severityFloor(factors []models.RiskFactor) models.RiskLevel {
	var worst models.RiskLevel
	for _, f := range factors {
		var candidate models.RiskLevel
		switch f.Severity {
		case models.RiskSeverityCritical:
			candidate = models.RiskLevelCritical
		case models.RiskSeverityHigh:
			candidate = models.RiskLevelHigh
		case models.RiskSeverityMedium:
			candidate = models.RiskLevelMedium
		default:
			candidate = models.RiskLevelLow
		}
		if severityRank(candidate) > severityRank(worst) {
			worst = candidate
		}
	}
	return worst
}

func severityRank(level models.RiskLevel) int {
	switch level {
	case models.RiskLevelCritical:
		return 4
	case models.RiskLevelHigh:
		return 3
	case models.RiskLevelMedium:
		return 2
	case models.RiskLevelLow:
		return 1
	default:
		return 0
	}
}

func dedupeInts(in []int) []int {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(in))
	var out []int
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
