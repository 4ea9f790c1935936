// Package discovery implements the passive and active discovery subsystems:
// ARP table reads, mDNS/SSDP listeners, UPnP description fetches, port
// scanning, and banner grabbing (§4.2-§4.6, §4.11).
package discovery

import (
	"bufio"
	"context"
	"net"
	"os/exec"
	"runtime"
	"strings"
	"time"

	probing "github.com/prometheus-community/pro-bing"
	"go.uber.org/zap"
)

// ARPEntry is a single IP-to-MAC mapping read from the host's ARP cache.
type ARPEntry struct {
	IP        string
	MAC       string
	Interface string
}

// ARPReader reads the system ARP table. Implementation is platform-specific;
// failures are non-fatal and yield an empty table.
type ARPReader struct {
	logger *zap.Logger
}

// NewARPReader creates an ARP table reader.
func NewARPReader(logger *zap.Logger) *ARPReader {
	return &ARPReader{logger: logger}
}

// ReadTable returns a point-in-time snapshot of the host's ARP cache, one
// entry per IP-to-MAC mapping.
func (r *ARPReader) ReadTable(ctx context.Context) []ARPEntry {
	switch runtime.GOOS {
	case "linux":
		return r.readLinux(ctx)
	case "windows":
		return r.readWindows(ctx)
	case "darwin":
		return r.readDarwin(ctx)
	default:
		r.logger.Warn("ARP table reading not supported on this platform", zap.String("os", runtime.GOOS))
		return nil
	}
}

func (r *ARPReader) readLinux(_ context.Context) []ARPEntry {
	out, err := exec.Command("cat", "/proc/net/arp").Output()
	if err != nil {
		r.logger.Debug("failed to read /proc/net/arp", zap.Error(err))
		return nil
	}
	return ParseLinuxARP(string(out))
}

func (r *ARPReader) readWindows(ctx context.Context) []ARPEntry {
	out, err := exec.CommandContext(ctx, "arp", "-a").Output()
	if err != nil {
		r.logger.Debug("failed to run arp -a", zap.Error(err))
		return nil
	}
	return ParseWindowsARP(string(out))
}

func (r *ARPReader) readDarwin(ctx context.Context) []ARPEntry {
	out, err := exec.CommandContext(ctx, "arp", "-a").Output()
	if err != nil {
		r.logger.Debug("failed to run arp -a", zap.Error(err))
		return nil
	}
	return ParseDarwinARP(string(out))
}

// ParseLinuxARP parses the contents of /proc/net/arp. Exported for testing.
func ParseLinuxARP(output string) []ARPEntry {
	var entries []ARPEntry
	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Scan() // header
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 6 {
			continue
		}
		mac := strings.ToUpper(fields[3])
		if mac == "00:00:00:00:00:00" {
			continue
		}
		entries = append(entries, ARPEntry{IP: fields[0], MAC: mac, Interface: fields[5]})
	}
	return entries
}

// ParseWindowsARP parses `arp -a` output on Windows. Exported for testing.
func ParseWindowsARP(output string) []ARPEntry {
	var entries []ARPEntry
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(fields) < 3 {
			continue
		}
		ip := fields[0]
		if ip == "" || ip[0] < '0' || ip[0] > '9' {
			continue
		}
		mac := strings.ToUpper(strings.ReplaceAll(fields[1], "-", ":"))
		if mac == "FF:FF:FF:FF:FF:FF" || mac == "00:00:00:00:00:00" {
			continue
		}
		entries = append(entries, ARPEntry{IP: ip, MAC: mac})
	}
	return entries
}

// ParseDarwinARP parses `arp -a` output on macOS. Exported for testing.
func ParseDarwinARP(output string) []ARPEntry {
	var entries []ARPEntry
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		parenStart := strings.Index(line, "(")
		parenEnd := strings.Index(line, ")")
		if parenStart < 0 || parenEnd < 0 || parenEnd <= parenStart {
			continue
		}
		ip := line[parenStart+1 : parenEnd]

		atIdx := strings.Index(line[parenEnd:], " at ")
		if atIdx < 0 {
			continue
		}
		rest := line[parenEnd+atIdx+4:]
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		mac := strings.ToUpper(fields[0])
		if mac == "(INCOMPLETE)" || mac == "FF:FF:FF:FF:FF:FF" {
			continue
		}
		var iface string
		if onIdx := strings.Index(rest, " on "); onIdx >= 0 {
			ifaceFields := strings.Fields(rest[onIdx+4:])
			if len(ifaceFields) > 0 {
				iface = ifaceFields[0]
			}
		}
		entries = append(entries, ARPEntry{IP: ip, MAC: mac, Interface: iface})
	}
	return entries
}

// ScanSubnet performs an ICMP ping sweep of cidr to populate the ARP cache
// before a ReadTable call. Non-fatal on error: it logs and returns.
func (r *ARPReader) ScanSubnet(ctx context.Context, cidr string, concurrency int) {
	_, subnet, err := net.ParseCIDR(cidr)
	if err != nil {
		r.logger.Debug("invalid subnet for ping sweep", zap.String("cidr", cidr), zap.Error(err))
		return
	}
	if concurrency <= 0 {
		concurrency = 32
	}

	hosts := expandSubnet(subnet)
	sem := make(chan struct{}, concurrency)
	done := make(chan struct{}, len(hosts))

	for _, ip := range hosts {
		select {
		case <-ctx.Done():
			return
		case sem <- struct{}{}:
		}
		go func(ip string) {
			defer func() { <-sem; done <- struct{}{} }()
			pingOnce(ip)
		}(ip)
	}
	for range hosts {
		select {
		case <-done:
		case <-ctx.Done():
			return
		}
	}
}

func pingOnce(ip string) {
	pinger, err := probing.NewPinger(ip)
	if err != nil {
		return
	}
	pinger.Count = 1
	pinger.Timeout = 500 * time.Millisecond
	pinger.SetPrivileged(runtime.GOOS == "windows")
	_ = pinger.Run()
}

// expandSubnet enumerates host addresses in subnet, excluding network and
// broadcast, capped at a /16 to bound sweep cost.
func expandSubnet(subnet *net.IPNet) []string {
	ones, bits := subnet.Mask.Size()
	hostBits := bits - ones
	if hostBits <= 0 || hostBits > 16 {
		return nil
	}

	total := 1 << hostBits
	var hosts []string
	for i := 1; i < total-1; i++ {
		next := incrementIP(subnet.IP, i)
		if next != nil && subnet.Contains(next) {
			hosts = append(hosts, next.String())
		}
	}
	return hosts
}

func incrementIP(base net.IP, offset int) net.IP {
	ip4 := base.To4()
	if ip4 == nil {
		return nil
	}
	ip := make(net.IP, len(ip4))
	copy(ip, ip4)

	carry := offset
	for i := 3; i >= 0 && carry > 0; i-- {
		val := int(ip[i]) + carry
		ip[i] = byte(val % 256)
		carry = val / 256
	}
	return ip
}
