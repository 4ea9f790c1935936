package discovery

import (
	"bufio"
	"context"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ssdpMulticastAddr is the fixed SSDP multicast group/port (§4.4).
const ssdpMulticastAddr = "239.255.255.250:1900"

// SSDPObservation is one parsed NOTIFY or M-SEARCH response.
type SSDPObservation struct {
	Server     string
	USN        string
	ST         string
	Location   string
	RemoteIP   string
	ObservedAt time.Time
}

// SSDPListener joins the SSDP multicast group and parses NOTIFY/M-SEARCH
// response headers. Malformed lines are skipped; the listener never panics
// on bad input.
type SSDPListener struct {
	logger *zap.Logger

	conn *net.UDPConn
}

// NewSSDPListener creates an SSDP listener.
func NewSSDPListener(logger *zap.Logger) *SSDPListener {
	return &SSDPListener{logger: logger}
}

// Start joins the multicast group and forwards parsed observations to out
// until ctx is cancelled or Stop is called.
func (l *SSDPListener) Start(ctx context.Context, out chan<- SSDPObservation) error {
	addr, err := net.ResolveUDPAddr("udp4", ssdpMulticastAddr)
	if err != nil {
		return err
	}

	conn, err := net.ListenMulticastUDP("udp4", nil, addr)
	if err != nil {
		return err
	}
	l.conn = conn

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, 8192)
	for {
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.logger.Debug("SSDP read failed", zap.Error(err))
			return nil
		}

		obs, ok := parseSSDPMessage(buf[:n])
		if !ok {
			continue
		}
		obs.RemoteIP = src.IP.String()
		obs.ObservedAt = time.Now()

		select {
		case out <- obs:
		case <-ctx.Done():
			return nil
		}
	}
}

// Stop releases the multicast socket.
func (l *SSDPListener) Stop() {
	if l.conn != nil {
		l.conn.Close()
	}
}

// parseSSDPMessage tolerantly parses SERVER/USN/ST/LOCATION headers from a
// raw SSDP NOTIFY or M-SEARCH response datagram. Returns ok=false only when
// no headers of interest were found at all.
func parseSSDPMessage(raw []byte) (SSDPObservation, bool) {
	var obs SSDPObservation
	found := false

	scanner := bufio.NewScanner(strings.NewReader(string(raw)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		colon := strings.Index(line, ":")
		if colon < 0 {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(line[:colon]))
		value := strings.TrimSpace(line[colon+1:])
		if value == "" {
			continue
		}

		switch key {
		case "SERVER":
			obs.Server = value
			found = true
		case "USN":
			obs.USN = value
			found = true
		case "ST", "NT":
			obs.ST = value
			found = true
		case "LOCATION":
			obs.Location = value
			found = true
		}
	}

	return obs, found
}
