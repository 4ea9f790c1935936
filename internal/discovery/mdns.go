package discovery

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
	"go.uber.org/zap"
)

// mdnsServiceTypes is the fixed set of ~28 service types the listener
// subscribes to (§4.3).
var mdnsServiceTypes = []string{
	"_http._tcp",
	"_https._tcp",
	"_ssh._tcp",
	"_smb._tcp",
	"_afpovertcp._tcp",
	"_nfs._tcp",
	"_ipp._tcp",
	"_ipps._tcp",
	"_printer._tcp",
	"_pdl-datastream._tcp",
	"_airplay._tcp",
	"_raop._tcp",
	"_googlecast._tcp",
	"_homekit._tcp",
	"_hap._tcp",
	"_sonos._tcp",
	"_spotify-connect._tcp",
	"_mqtt._tcp",
	"_coap._udp",
	"_matter._tcp",
	"_workstation._tcp",
	"_device-info._tcp",
	"_companion-link._tcp",
	"_rdlink._tcp",
	"_nvstream._tcp",
	"_xbox._tcp",
	"_amzn-wplay._tcp",
	"_touch-able._tcp",
}

// MDNSObservation is one resolved service announcement.
type MDNSObservation struct {
	ServiceType string
	Name        string
	Host        string
	IP          string
	Port        int
	TXT         map[string]string
	ObservedAt  time.Time
}

// MDNSListener subscribes to the fixed mDNS service set and emits an
// observation per discovered, resolved instance.
type MDNSListener struct {
	logger       *zap.Logger
	queryTimeout time.Duration

	mu      sync.Mutex
	cancels []func()
	wg      sync.WaitGroup
}

// NewMDNSListener creates a listener with a 2s per-query resolve timeout.
func NewMDNSListener(logger *zap.Logger) *MDNSListener {
	return &MDNSListener{logger: logger, queryTimeout: 2 * time.Second}
}

// Start runs one discovery pass across all service types and emits each
// observation to out. Start blocks until ctx is cancelled or the pass
// completes; callers wanting periodic discovery should call Start on a
// ticker from a parent goroutine.
func (l *MDNSListener) Start(ctx context.Context, out chan<- MDNSObservation) {
	var wg sync.WaitGroup
	for _, svc := range mdnsServiceTypes {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(service string) {
			defer wg.Done()
			l.queryService(ctx, service, out)
		}(svc)
	}
	wg.Wait()
}

// queryService runs a single mdns.Query for one service type and forwards
// resolved entries to out.
func (l *MDNSListener) queryService(ctx context.Context, service string, out chan<- MDNSObservation) {
	entries := make(chan *mdns.ServiceEntry, 16)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			obs, ok := l.toObservation(service, entry)
			if !ok {
				continue
			}
			select {
			case out <- obs:
			case <-ctx.Done():
				return
			}
		}
	}()

	params := mdns.DefaultParams(service)
	params.Timeout = l.queryTimeout
	params.Entries = entries
	params.DisableIPv6 = true

	if err := mdns.Query(params); err != nil {
		l.logger.Debug("mDNS query failed", zap.String("service", service), zap.Error(err))
	}
	close(entries)
	<-done
}

func (l *MDNSListener) toObservation(service string, entry *mdns.ServiceEntry) (MDNSObservation, bool) {
	if entry == nil {
		return MDNSObservation{}, false
	}

	ip := ""
	if entry.AddrV4 != nil && !entry.AddrV4.IsUnspecified() {
		ip = entry.AddrV4.String()
	} else if entry.Addr != nil && !entry.Addr.IsUnspecified() {
		ip = entry.Addr.String()
	}
	if ip == "" {
		return MDNSObservation{}, false
	}

	txt := make(map[string]string, len(entry.InfoFields))
	for _, field := range entry.InfoFields {
		parts := strings.SplitN(field, "=", 2)
		if len(parts) != 2 {
			continue
		}
		txt[parts[0]] = parts[1]
	}

	return MDNSObservation{
		ServiceType: service,
		Name:        entry.Name,
		Host:        strings.TrimSuffix(entry.Host, "."),
		IP:          ip,
		Port:        entry.Port,
		TXT:         txt,
		ObservedAt:  time.Now(),
	}, true
}

// Stop is a no-op placeholder for symmetry with the other listeners: each
// Start pass owns its own goroutines and exits when its context is
// cancelled, so there is no persistent state to release here.
func (l *MDNSListener) Stop() {}
