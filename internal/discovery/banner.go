package discovery

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lanscope/lanscope/pkg/models"
)

// bannerReadTimeout bounds the connect+read for a single banner grab (§4.11).
const bannerReadTimeout = 5 * time.Second

// BannerGrabber connects to an open port and classifies its service by
// protocol-specific probing. It always returns partial data; it never fails
// upward.
type BannerGrabber struct {
	logger *zap.Logger
}

// NewBannerGrabber creates a banner grabber.
func NewBannerGrabber(logger *zap.Logger) *BannerGrabber {
	return &BannerGrabber{logger: logger}
}

// Grab classifies the service on ip:port according to well-known port
// families (SSH, HTTP(S), RTSP) and returns the best-effort result.
func (b *BannerGrabber) Grab(ctx context.Context, ip string, port int) models.PortBanner {
	result := models.PortBanner{Port: port}

	switch port {
	case 22:
		b.grabSSH(ctx, ip, port, &result)
	case 80, 8080, 443, 8443:
		b.grabHTTP(ctx, ip, port, &result)
	case 554, 8554:
		b.grabRTSP(ctx, ip, port, &result)
	default:
		b.grabGeneric(ctx, ip, port, &result)
	}

	return result
}

func (b *BannerGrabber) dial(ctx context.Context, ip string, port int) (net.Conn, bool) {
	dialCtx, cancel := context.WithTimeout(ctx, bannerReadTimeout)
	defer cancel()

	addr := net.JoinHostPort(ip, strconv.Itoa(port))
	d := net.Dialer{}
	conn, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		b.logger.Debug("banner dial failed", zap.String("addr", addr), zap.Error(err))
		return nil, false
	}
	conn.SetDeadline(time.Now().Add(bannerReadTimeout))
	return conn, true
}

func (b *BannerGrabber) readLine(conn net.Conn) string {
	reader := bufio.NewReaderSize(conn, 512)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func (b *BannerGrabber) grabGeneric(ctx context.Context, ip string, port int, result *models.PortBanner) {
	conn, ok := b.dial(ctx, ip, port)
	if !ok {
		return
	}
	defer conn.Close()
	result.Banner = b.readLine(conn)
}

// grabSSH parses "SSH-<proto>-<software>" and classifies the underlying
// interface kind.
func (b *BannerGrabber) grabSSH(ctx context.Context, ip string, port int, result *models.PortBanner) {
	conn, ok := b.dial(ctx, ip, port)
	if !ok {
		return
	}
	defer conn.Close()

	line := b.readLine(conn)
	result.Banner = line
	if !strings.HasPrefix(line, "SSH-") {
		return
	}

	parts := strings.SplitN(line, "-", 3)
	if len(parts) == 3 {
		result.SoftwareName = parts[2]
	}

	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "dropbear"):
		result.OSHint = "embedded_linux"
		result.InterfaceKind = "network-equipment"
	case strings.Contains(lower, "routeros"):
		result.OSHint = "mikrotik"
		result.InterfaceKind = "network-equipment"
	case strings.Contains(lower, "cisco"):
		result.InterfaceKind = "network-equipment"
	case strings.Contains(lower, "synology"), strings.Contains(lower, "qnap"):
		result.InterfaceKind = "nas"
	case strings.Contains(lower, "openssh"):
		result.OSHint = "unix"
	}
}

// grabHTTP sends a minimal GET and parses response headers.
func (b *BannerGrabber) grabHTTP(ctx context.Context, ip string, port int, result *models.PortBanner) {
	conn, ok := b.dial(ctx, ip, port)
	if !ok {
		return
	}
	defer conn.Close()

	req := fmt.Sprintf("GET / HTTP/1.1\r\nHost: %s\r\nConnection: close\r\n\r\n", ip)
	if _, err := conn.Write([]byte(req)); err != nil {
		return
	}

	reader := bufio.NewReaderSize(conn, 4096)
	var server, poweredBy, wwwAuth, contentType string
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" || err != nil {
			break
		}
		colon := strings.Index(line, ":")
		if colon < 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:colon]))
		value := strings.TrimSpace(line[colon+1:])
		switch key {
		case "server":
			server = value
		case "x-powered-by":
			poweredBy = value
		case "www-authenticate":
			wwwAuth = value
		case "content-type":
			contentType = value
		}
	}

	result.Banner = server
	result.SoftwareName = server
	result.RequiresAuth = wwwAuth != ""

	lower := strings.ToLower(server + " " + poweredBy + " " + contentType)
	switch {
	case strings.Contains(lower, "hikvision"), strings.Contains(lower, "dahua"), strings.Contains(lower, "axis"):
		result.InterfaceKind = "camera"
		result.CameraVendor = cameraVendorFromBanner(lower)
	case strings.Contains(lower, "router"), strings.Contains(lower, "gateway"):
		result.InterfaceKind = "router"
	case strings.Contains(lower, "synology"), strings.Contains(lower, "qnap"):
		result.InterfaceKind = "nas"
	case strings.Contains(lower, "printer"), strings.Contains(lower, "cups"):
		result.InterfaceKind = "printer"
	case wwwAuth != "":
		result.InterfaceKind = "admin"
	}
}

func cameraVendorFromBanner(lower string) string {
	switch {
	case strings.Contains(lower, "hikvision"):
		return "Hikvision"
	case strings.Contains(lower, "dahua"):
		return "Dahua"
	case strings.Contains(lower, "axis"):
		return "Axis"
	default:
		return ""
	}
}

// grabRTSP sends an OPTIONS request and parses Server/supported methods.
func (b *BannerGrabber) grabRTSP(ctx context.Context, ip string, port int, result *models.PortBanner) {
	conn, ok := b.dial(ctx, ip, port)
	if !ok {
		return
	}
	defer conn.Close()

	req := fmt.Sprintf("OPTIONS rtsp://%s:%d RTSP/1.0\r\nCSeq: 1\r\n\r\n", ip, port)
	if _, err := conn.Write([]byte(req)); err != nil {
		return
	}

	reader := bufio.NewReaderSize(conn, 2048)
	var server string
	var requiresAuth bool
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" || err != nil {
			break
		}
		if strings.HasPrefix(line, "RTSP/1.0 401") {
			requiresAuth = true
		}
		colon := strings.Index(line, ":")
		if colon < 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:colon]))
		value := strings.TrimSpace(line[colon+1:])
		if key == "server" {
			server = value
		}
		if key == "www-authenticate" {
			requiresAuth = true
		}
	}

	result.Banner = server
	result.SoftwareName = server
	result.RequiresAuth = requiresAuth
	result.InterfaceKind = "camera"
	result.CameraVendor = cameraVendorFromBanner(strings.ToLower(server))
}
