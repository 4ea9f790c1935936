package discovery

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lanscope/lanscope/pkg/models"
)

// portConnectTimeout is the per-port socket-fallback dial timeout (§4.5).
const portConnectTimeout = 1 * time.Second

// QuickPortSet is the ~10-port fast scan set.
var QuickPortSet = []int{22, 23, 80, 443, 445, 3389, 8080, 8443, 21, 25}

// SmartDevicePortSet is the ~28-port set covering common smart-device and
// infrastructure services.
var SmartDevicePortSet = []int{
	21, 22, 23, 25, 53, 80, 110, 135, 139, 143,
	443, 445, 548, 554, 631, 1400, 1433, 1521, 2049, 3306,
	3389, 5000, 5357, 5900, 6379, 7000, 8009, 8080, 8443, 9100,
	27017,
}

// serviceNames maps a well-known port to its canonical service name for
// guess_service.
var serviceNames = map[int]string{
	21:    "ftp",
	22:    "ssh",
	23:    "telnet",
	25:    "smtp",
	53:    "dns",
	80:    "http",
	110:   "pop3",
	135:   "msrpc",
	139:   "netbios-ssn",
	143:   "imap",
	443:   "https",
	445:   "microsoft-ds",
	548:   "afp",
	554:   "rtsp",
	631:   "ipp",
	1400:  "sonos",
	1433:  "mssql",
	1521:  "oracle",
	2049:  "nfs",
	3306:  "mysql",
	3389:  "rdp",
	5000:  "upnp",
	5357:  "wsdapi",
	5900:  "vnc",
	6379:  "redis",
	7000:  "airplay",
	8009:  "chromecast",
	8080:  "http-alt",
	8443:  "https-alt",
	9100:  "jetdirect",
	27017: "mongodb",
}

// GuessService returns the canonical service name for a well-known port, or
// "" if unmapped.
func GuessService(port int) string {
	return serviceNames[port]
}

// PortScanner performs active TCP port scans, preferring an external
// scanner binary (nmap) on PATH and falling back to parallel socket
// connects.
type PortScanner struct {
	logger      *zap.Logger
	concurrency int
}

// NewPortScanner creates a scanner with the given parallel-connect fan-out.
func NewPortScanner(logger *zap.Logger, concurrency int) *PortScanner {
	if concurrency <= 0 {
		concurrency = 20
	}
	return &PortScanner{logger: logger, concurrency: concurrency}
}

// Scan checks the given ports on ip, returning ascending, open PortInfo
// entries. useExternal attempts an nmap invocation first; on any failure it
// transparently falls back to the socket path.
func (s *PortScanner) Scan(ctx context.Context, ip string, ports []int, useExternal bool) []models.Port {
	if useExternal {
		if result, ok := s.scanExternal(ctx, ip, ports); ok {
			return result
		}
	}
	return s.scanSockets(ctx, ip, ports)
}

func (s *PortScanner) scanExternal(ctx context.Context, ip string, ports []int) ([]models.Port, bool) {
	if _, err := exec.LookPath("nmap"); err != nil {
		return nil, false
	}

	portList := make([]string, len(ports))
	for i, p := range ports {
		portList[i] = strconv.Itoa(p)
	}

	cmd := exec.CommandContext(ctx, "nmap", "-Pn", "-p", strings.Join(portList, ","), ip)
	out, err := cmd.Output()
	if err != nil {
		s.logger.Debug("external port scanner failed, falling back", zap.String("ip", ip), zap.Error(err))
		return nil, false
	}

	results := parseNmapTabularOutput(out)
	sort.Slice(results, func(i, j int) bool { return results[i].Number < results[j].Number })
	return results, true
}

// parseNmapTabularOutput parses lines of the form "port/proto state service
// [version]" from nmap's default output.
func parseNmapTabularOutput(out []byte) []models.Port {
	var results []models.Port
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		portProto := strings.SplitN(fields[0], "/", 2)
		if len(portProto) != 2 {
			continue
		}
		num, err := strconv.Atoi(portProto[0])
		if err != nil {
			continue
		}
		transport := models.TransportTCP
		if strings.EqualFold(portProto[1], "udp") {
			transport = models.TransportUDP
		}
		if fields[1] != "open" {
			continue
		}
		port := models.Port{Number: num, Transport: transport, State: "open"}
		if len(fields) >= 3 {
			port.Service = fields[2]
		}
		if len(fields) >= 4 {
			port.Version = strings.Join(fields[3:], " ")
		}
		results = append(results, port)
	}
	return results
}

// scanSockets performs parallel non-blocking TCP connects with a 1s
// per-port timeout.
func (s *PortScanner) scanSockets(ctx context.Context, ip string, ports []int) []models.Port {
	var mu sync.Mutex
	var wg sync.WaitGroup
	var results []models.Port
	sem := make(chan struct{}, s.concurrency)

	for _, port := range ports {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(p int) {
			defer wg.Done()
			defer func() { <-sem }()

			addr := net.JoinHostPort(ip, strconv.Itoa(p))
			d := net.Dialer{Timeout: portConnectTimeout}
			conn, err := d.DialContext(ctx, "tcp", addr)
			if err != nil {
				return
			}
			conn.Close()

			mu.Lock()
			results = append(results, models.Port{
				Number:    p,
				Transport: models.TransportTCP,
				State:     "open",
				Service:   GuessService(p),
			})
			mu.Unlock()
		}(port)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Number < results[j].Number })
	return results
}
