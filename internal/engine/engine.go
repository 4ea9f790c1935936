// Package engine is the composition piece that drives every discovery
// subsystem and feeds their observations into the device registry: it plays
// the role the teacher's internal/recon.Module plays for its plugin host,
// collapsed to a single engine with no plugin registry underneath it.
package engine

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lanscope/lanscope/internal/behavior"
	"github.com/lanscope/lanscope/internal/config"
	"github.com/lanscope/lanscope/internal/discovery"
	"github.com/lanscope/lanscope/internal/events"
	"github.com/lanscope/lanscope/internal/fingerprint"
	"github.com/lanscope/lanscope/internal/inference"
	"github.com/lanscope/lanscope/internal/mdnstxt"
	"github.com/lanscope/lanscope/internal/metrics"
	"github.com/lanscope/lanscope/internal/netid"
	"github.com/lanscope/lanscope/internal/registry"
	"github.com/lanscope/lanscope/internal/security"
	"github.com/lanscope/lanscope/pkg/models"
)

// Dependencies are the already-constructed collaborators the Engine wires
// together. The composition root (cmd/lanscoped) owns their lifecycles
// except where noted.
type Dependencies struct {
	Logger      *zap.Logger
	Config      config.EngineConfig
	Registry    *registry.Registry
	Bus         *events.Bus
	Fingerprint *fingerprint.Hierarchy
	Behavior    *behavior.Tracker
}

// Engine owns the discovery goroutines and the glue logic that turns their
// raw observations into registry.Observation values.
type Engine struct {
	logger   *zap.Logger
	cfg      config.EngineConfig
	registry *registry.Registry
	bus      *events.Bus
	fp       *fingerprint.Hierarchy
	behavior *behavior.Tracker

	arp           *discovery.ARPReader
	mdns          *discovery.MDNSListener
	ssdp          *discovery.SSDPListener
	portScanner   *discovery.PortScanner
	bannerGrabber *discovery.BannerGrabber

	mu       sync.Mutex
	ipToMAC  map[string]string
	macToLoc map[string]string // last known SSDP LOCATION per MAC, for the fingerprint hierarchy's UPnP tier

	wg         sync.WaitGroup
	scanCtx    context.Context
	scanCancel context.CancelFunc
}

// New builds an Engine. Discovery listeners are constructed eagerly but not
// started until Start.
func New(deps Dependencies) *Engine {
	return &Engine{
		logger:        deps.Logger,
		cfg:           deps.Config,
		registry:      deps.Registry,
		bus:           deps.Bus,
		fp:            deps.Fingerprint,
		behavior:      deps.Behavior,
		arp:           discovery.NewARPReader(deps.Logger.Named("arp")),
		mdns:          discovery.NewMDNSListener(deps.Logger.Named("mdns")),
		ssdp:          discovery.NewSSDPListener(deps.Logger.Named("ssdp")),
		portScanner:   discovery.NewPortScanner(deps.Logger.Named("portscan"), deps.Config.PortScanConcurrency),
		bannerGrabber: discovery.NewBannerGrabber(deps.Logger.Named("banner")),
		ipToMAC:       make(map[string]string),
		macToLoc:      make(map[string]string),
	}
}

// Start launches every enabled discovery loop as a background goroutine.
// Start returns immediately; call Stop to shut everything down.
func (e *Engine) Start(_ context.Context) error {
	e.scanCtx, e.scanCancel = context.WithCancel(context.Background())

	if e.cfg.ARPEnabled {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.runARPLoop(e.scanCtx)
		}()
		e.logger.Info("ARP passive discovery enabled", zap.Duration("interval", e.cfg.ARPPollInterval))
	}

	if e.cfg.MDNSEnabled {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.runMDNSLoop(e.scanCtx)
		}()
		e.logger.Info("mDNS passive discovery enabled", zap.Duration("interval", e.cfg.MDNSPollInterval))
	}

	if e.cfg.UPNPEnabled {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.runSSDPLoop(e.scanCtx)
		}()
		e.logger.Info("UPnP/SSDP passive discovery enabled")
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.runBehaviorLoop(e.scanCtx)
	}()

	if e.cfg.Schedule.Enabled && e.cfg.Schedule.Subnet != "" {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.runActiveScanLoop(e.scanCtx)
		}()
		e.logger.Info("scheduled active scan enabled",
			zap.Duration("interval", e.cfg.Schedule.Interval),
			zap.String("subnet", e.cfg.Schedule.Subnet),
		)
	}

	e.logger.Info("engine started")
	return nil
}

// Stop cancels every discovery loop and waits for them to exit.
func (e *Engine) Stop(_ context.Context) error {
	e.logger.Info("engine stopping")
	if e.scanCancel != nil {
		e.scanCancel()
	}
	e.wg.Wait()
	e.logger.Info("engine stopped")
	return nil
}

// runARPLoop periodically snapshots the host ARP table and emits one
// Observation per entry, carrying the MAC analyzer's output.
func (e *Engine) runARPLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.ARPPollInterval)
	defer ticker.Stop()

	e.pollARP(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.pollARP(ctx)
		}
	}
}

func (e *Engine) pollARP(ctx context.Context) {
	entries := e.arp.ReadTable(ctx)
	for _, entry := range entries {
		mac, err := netid.Normalize(entry.MAC)
		if err != nil {
			continue
		}
		vendor := netid.LookupVendor(mac)

		e.mu.Lock()
		e.ipToMAC[entry.IP] = mac
		e.mu.Unlock()

		analysis := netid.Analyze(mac, vendor)
		var signals []inference.Signal
		if dt, confidence, ok := netid.Signal(analysis); ok {
			signals = append(signals, inference.Signal{Source: inference.SourceMACAnalysis, SuggestedType: dt, Confidence: confidence})
		}

		e.registry.AddOrUpdate(ctx, registry.Observation{
			MAC:             mac,
			Timestamp:       time.Now(),
			IP:              entry.IP,
			Vendor:          vendor,
			SourceInterface: entry.Interface,
			MACAnalysis:     &analysis,
			Signals:         signals,
		})
	}
}

// runMDNSLoop periodically runs one mDNS discovery pass across the fixed
// service set and emits an Observation per resolved instance whose IP is
// already known from the ARP table.
func (e *Engine) runMDNSLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.MDNSPollInterval)
	defer ticker.Stop()

	e.pollMDNS(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.pollMDNS(ctx)
		}
	}
}

func (e *Engine) pollMDNS(ctx context.Context) {
	out := make(chan discovery.MDNSObservation, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.mdns.Start(ctx, out)
	}()
	go func() {
		<-done
		close(out)
	}()

	for obs := range out {
		mac, ok := e.resolveMAC(obs.IP)
		if !ok {
			continue
		}

		var signals []inference.Signal
		if sig, ok := inference.MDNSSignal(obs.ServiceType); ok {
			signals = append(signals, sig)
		}

		var txtRecords map[string]models.TXTRecord
		if rec, ok := mdnstxt.Parse(obs.ServiceType, obs.TXT); ok {
			txtRecords = map[string]models.TXTRecord{obs.ServiceType: rec}
			if dt, confidence, ok := mdnstxt.Signal(rec); ok {
				signals = append(signals, inference.Signal{
					Source:        inference.SourceMDNSTXT,
					SuggestedType: dt,
					Confidence:    confidence,
				})
			}
		}

		e.registry.AddOrUpdate(ctx, registry.Observation{
			MAC:       mac,
			Timestamp: obs.ObservedAt,
			IP:        obs.IP,
			Hostname:  obs.Host,
			Services: []models.DiscoveredService{{
				Name: obs.ServiceType,
				Type: models.ServiceSourceMDNS,
				Port: obs.Port,
			}},
			MDNSTXTRecords: txtRecords,
			Signals:        signals,
		})
	}
}

// runSSDPLoop joins the SSDP multicast group for the engine's lifetime,
// resolving each NOTIFY/M-SEARCH response against the known ARP table and,
// when a LOCATION header is present, triggering the fingerprint hierarchy's
// UPnP tier.
func (e *Engine) runSSDPLoop(ctx context.Context) {
	out := make(chan discovery.SSDPObservation, 64)
	go func() {
		if err := e.ssdp.Start(ctx, out); err != nil {
			e.logger.Warn("SSDP listener stopped", zap.Error(err))
		}
	}()
	defer e.ssdp.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case obs, ok := <-out:
			if !ok {
				return
			}
			e.handleSSDP(ctx, obs)
		}
	}
}

func (e *Engine) handleSSDP(ctx context.Context, obs discovery.SSDPObservation) {
	mac, ok := e.resolveMAC(obs.RemoteIP)
	if !ok {
		return
	}

	var signals []inference.Signal
	for _, field := range []string{obs.Server, obs.ST, obs.USN} {
		if sig, ok := inference.SSDPSignal(field); ok {
			signals = append(signals, sig)
			break
		}
	}

	var fp *models.DeviceFingerprint
	if obs.Location != "" {
		e.mu.Lock()
		e.macToLoc[mac] = obs.Location
		e.mu.Unlock()

		if e.fp != nil {
			if result, ok := e.fp.Lookup(ctx, mac, obs.Location, "", nil, e.cfg.FingerbankAPIKey, false); ok {
				fp = &result
				signals = append(signals, inference.FingerprintSignals(fp)...)
			}
		}
	}

	e.registry.AddOrUpdate(ctx, registry.Observation{
		MAC:       mac,
		Timestamp: obs.ObservedAt,
		IP:        obs.RemoteIP,
		Services: []models.DiscoveredService{{
			Name: firstNonEmpty(obs.ST, obs.USN),
			Type: models.ServiceSourceSSDP,
		}},
		Fingerprint: fp,
		Signals:     signals,
	})
}

// runBehaviorLoop records every registry change in the behavior tracker and
// periodically folds each device's recomputed classification back into the
// registry as a behavior-sourced observation.
func (e *Engine) runBehaviorLoop(ctx context.Context) {
	if e.behavior == nil {
		return
	}

	sub, unsubscribe := e.registry.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			serviceNames := make([]string, 0, len(ev.Device.DiscoveredServices))
			for _, s := range ev.Device.DiscoveredServices {
				serviceNames = append(serviceNames, s.Name)
			}
			e.behavior.RecordPresence(ev.Device.MAC, ev.Device.IsOnline, serviceNames, ev.Device.IP, ev.Device.LastSeen)
		case <-ticker.C:
			e.recomputeBehaviorProfiles(ctx)
		}
	}
}

func (e *Engine) recomputeBehaviorProfiles(ctx context.Context) {
	for _, device := range e.registry.GetAll() {
		profile, ok := e.behavior.Profile(device.MAC)
		if !ok {
			continue
		}
		signals := behavior.GenerateSignals(profile)
		e.registry.AddOrUpdate(ctx, registry.Observation{
			MAC:             device.MAC,
			Timestamp:       time.Now(),
			BehaviorProfile: &profile,
			Signals:         signals,
		})
	}
}

// runActiveScanLoop fires a full active scan on Schedule.Interval, skipping
// runs that fall within the configured quiet window.
func (e *Engine) runActiveScanLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.Schedule.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if withinQuietHours(time.Now(), e.cfg.Schedule.QuietStart, e.cfg.Schedule.QuietEnd) {
				continue
			}
			e.runActiveScan(ctx)
		}
	}
}

// runActiveScan pings the configured subnet to populate the ARP table, then
// port-scans and banner-grabs every currently known device, deriving
// security posture and port/hostname inference signals.
func (e *Engine) runActiveScan(ctx context.Context) {
	e.bus.Publish(ctx, events.Event{Topic: events.TopicScanStarted, Payload: e.cfg.Schedule.Subnet})

	e.registry.MarkAllOffline()

	e.arp.ScanSubnet(ctx, e.cfg.Schedule.Subnet, e.scanConcurrency())
	e.pollARP(ctx)

	devices := e.registry.GetAll()
	for i, device := range devices {
		if device.IP == "" {
			continue
		}
		e.scanDevice(ctx, device)
		e.bus.Publish(ctx, events.Event{Topic: events.TopicScanProgress, Payload: i + 1})
	}

	e.bus.Publish(ctx, events.Event{Topic: events.TopicScanCompleted, Payload: len(devices)})
	metrics.ActiveScansTotal.Inc()
}

func (e *Engine) scanConcurrency() int {
	if e.cfg.PortScanConcurrency > 0 {
		return e.cfg.PortScanConcurrency
	}
	return 20
}

func (e *Engine) scanDevice(ctx context.Context, device models.Device) {
	openPorts := e.portScanner.Scan(ctx, device.IP, discovery.SmartDevicePortSet, false)

	banners := make(map[int]models.PortBanner, len(openPorts))
	var signals []inference.Signal
	for _, port := range openPorts {
		banner := e.bannerGrabber.Grab(ctx, device.IP, port.Number)
		banners[port.Number] = banner
		if sig, ok := inference.PortSignal(port.Number); ok {
			signals = append(signals, sig)
		}
	}
	if sig, ok := inference.HostnameSignal(device.Hostname); ok {
		signals = append(signals, sig)
	}

	var httpInfo *models.HTTPInfo
	for _, port := range []int{80, 443, 8080, 8443} {
		if banner, ok := banners[port]; ok && banner.Banner != "" {
			httpInfo = &models.HTTPInfo{Server: banner.Banner}
			break
		}
	}

	posture := security.Assess(device.Hostname, openPorts, banners, httpInfo)

	var fp *models.DeviceFingerprint
	if e.fp != nil && e.cfg.FingerbankAPIKey != "" {
		e.mu.Lock()
		location := e.macToLoc[device.MAC]
		e.mu.Unlock()
		if result, ok := e.fp.Lookup(ctx, device.MAC, location, "", nil, e.cfg.FingerbankAPIKey, false); ok {
			fp = &result
			signals = append(signals, inference.FingerprintSignals(fp)...)
		}
	}

	e.registry.AddOrUpdate(ctx, registry.Observation{
		MAC:             device.MAC,
		Timestamp:       time.Now(),
		Ports:           openPorts,
		PortBanners:     banners,
		HTTPInfo:        httpInfo,
		SecurityPosture: &posture,
		Fingerprint:     fp,
		Signals:         signals,
	})
}

func (e *Engine) resolveMAC(ip string) (string, bool) {
	if ip == "" {
		return "", false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	mac, ok := e.ipToMAC[ip]
	return mac, ok
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// withinQuietHours reports whether now falls within the [start, end) window,
// both given as "HH:MM" in local time. An empty start or end disables the
// quiet window.
func withinQuietHours(now time.Time, start, end string) bool {
	if start == "" || end == "" {
		return false
	}
	s, okS := parseHHMM(start)
	e, okE := parseHHMM(end)
	if !okS || !okE {
		return false
	}
	cur := now.Hour()*60 + now.Minute()
	if s <= e {
		return cur >= s && cur < e
	}
	// Window wraps past midnight.
	return cur >= s || cur < e
}

func parseHHMM(v string) (int, bool) {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
