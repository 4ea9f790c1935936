// Package registry holds the single authoritative in-memory MAC->Device map
// (§4.7): a single-writer queue serializes observation merges, and readers
// see a consistent snapshot under a shared lock.
package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lanscope/lanscope/internal/inference"
	"github.com/lanscope/lanscope/internal/metrics"
	"github.com/lanscope/lanscope/pkg/models"
)

// UpdateKind classifies a change pushed to subscribers.
type UpdateKind string

const (
	UpdateCreated     UpdateKind = "created"
	UpdateUpdated     UpdateKind = "updated"
	UpdateWentOffline UpdateKind = "wentOffline"
)

// Event is pushed to subscribers on every observed change.
type Event struct {
	Device models.Device
	Kind   UpdateKind
}

// Observation is one piece of evidence about a MAC, applied atomically to
// the registry. Zero-valued optional fields mean "no update," never
// "clear" (§7 Propagation).
type Observation struct {
	MAC             string
	Timestamp       time.Time
	IP              string
	Hostname        string
	Vendor          string
	SourceInterface string
	Subnet          string
	Ports           []models.Port
	Services        []models.DiscoveredService
	HTTPInfo        *models.HTTPInfo
	Fingerprint     *models.DeviceFingerprint
	MDNSTXTRecords  map[string]models.TXTRecord
	PortBanners     map[int]models.PortBanner
	MACAnalysis     *models.MACAnalysis
	SecurityPosture *models.SecurityPostureData
	BehaviorProfile *models.DeviceBehaviorProfile
	Signals         []inference.Signal
}

// Persister write-throughs a device after a merge. Storage failures are
// logged by the implementation and never block the in-memory mutation.
type Persister interface {
	SaveDevice(ctx context.Context, device models.Device) error
}

// Registry is the MAC-keyed device store. All mutation flows through a
// bounded observation queue processed by a single goroutine; reads take a
// shared lock over the map.
type Registry struct {
	logger    *zap.Logger
	persister Persister

	mu      sync.RWMutex
	devices map[string]*models.Device

	queue chan Observation

	subMu sync.Mutex
	subs  map[chan Event]struct{}

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// queueCapacity bounds the observation backlog (§5 Backpressure); callers
// that fill the queue block briefly rather than silently drop.
const queueCapacity = 4096

// maxMDNSTXTServiceTypes caps the number of distinct service types whose TXT
// records a single device accumulates (§4.10 hard limit).
const maxMDNSTXTServiceTypes = 8

// New creates a Registry and starts its single-writer processing loop.
func New(logger *zap.Logger, persister Persister) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		logger:    logger,
		persister: persister,
		devices:   make(map[string]*models.Device),
		queue:     make(chan Observation, queueCapacity),
		subs:      make(map[chan Event]struct{}),
		cancel:    cancel,
	}
	r.wg.Add(1)
	go r.run(ctx)
	return r
}

// Close stops the writer loop and drains any in-flight observations before
// returning.
func (r *Registry) Close() {
	r.cancel()
	r.wg.Wait()
}

func (r *Registry) run(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case obs := <-r.queue:
			r.apply(obs)
		case <-ctx.Done():
			// Drain remaining queued observations before releasing.
			for {
				select {
				case obs := <-r.queue:
					r.apply(obs)
				default:
					return
				}
			}
		}
	}
}

// AddOrUpdate enqueues an observation for serialized merge. It blocks briefly
// if the queue is full, then applies backpressure by blocking until space
// frees (documented in §5: discovery tasks may block rather than drop).
func (r *Registry) AddOrUpdate(ctx context.Context, obs Observation) {
	if obs.Timestamp.IsZero() {
		obs.Timestamp = time.Now()
	}
	select {
	case r.queue <- obs:
	case <-ctx.Done():
	}
}

// apply performs the merge rule for a single observation (§4.7).
func (r *Registry) apply(obs Observation) {
	r.mu.Lock()
	existing, found := r.devices[obs.MAC]

	var device models.Device
	kind := UpdateUpdated

	if !found {
		device = models.Device{
			MAC:       obs.MAC,
			UUID:      uuid.New().String(),
			FirstSeen: obs.Timestamp,
			LastSeen:  obs.Timestamp,
			IsOnline:  true,
		}
		kind = UpdateCreated
	} else {
		device = *existing
		if obs.Timestamp.After(device.LastSeen) {
			device.LastSeen = obs.Timestamp
		}
		device.IsOnline = true
	}

	mergeFields(&device, obs)
	device.OpenPorts = unionPorts(device.OpenPorts, obs.Ports)
	device.DiscoveredServices = unionServices(device.DiscoveredServices, obs.Services)
	device.Fingerprint = mergeFingerprint(device.Fingerprint, obs.Fingerprint)

	signals := collectSignals(&device, obs.Signals)
	device.SmartScore = smartScore(signals, device.DiscoveredServices, device.OpenPorts)
	device.Signals = toModelSignals(signals)
	device.DeviceType = inference.Infer(signals)

	r.devices[obs.MAC] = &device
	metrics.DevicesTracked.Set(float64(len(r.devices)))
	r.mu.Unlock()

	if r.persister != nil {
		if err := r.persister.SaveDevice(context.Background(), device); err != nil {
			r.logger.Warn("device persist failed", zap.String("mac", obs.MAC), zap.Error(err))
		}
	}

	r.publish(Event{Device: device, Kind: kind})
}

// mergeFields applies the non-empty-only replacement rule for scalar
// identity fields.
func mergeFields(device *models.Device, obs Observation) {
	if obs.IP != "" {
		device.IP = obs.IP
	}
	if obs.Hostname != "" {
		device.Hostname = obs.Hostname
	}
	if obs.Vendor != "" {
		device.Vendor = obs.Vendor
	}
	if obs.SourceInterface != "" {
		device.SourceInterface = obs.SourceInterface
	}
	if obs.Subnet != "" {
		device.Subnet = obs.Subnet
	}
	if obs.HTTPInfo != nil {
		device.HTTPInfo = obs.HTTPInfo
	}
	if obs.MACAnalysis != nil {
		device.MACAnalysis = obs.MACAnalysis
	}
	if obs.SecurityPosture != nil {
		device.SecurityPosture = obs.SecurityPosture
	}
	if obs.BehaviorProfile != nil {
		device.BehaviorProfile = obs.BehaviorProfile
	}
	if obs.MDNSTXTRecords != nil {
		if device.MDNSTXTRecords == nil {
			device.MDNSTXTRecords = make(map[string]models.TXTRecord, len(obs.MDNSTXTRecords))
		}
		for k, v := range obs.MDNSTXTRecords {
			if _, exists := device.MDNSTXTRecords[k]; !exists && len(device.MDNSTXTRecords) >= maxMDNSTXTServiceTypes {
				continue
			}
			device.MDNSTXTRecords[k] = v
		}
	}
	if obs.PortBanners != nil {
		if device.PortBanners == nil {
			device.PortBanners = make(map[int]models.PortBanner, len(obs.PortBanners))
		}
		for k, v := range obs.PortBanners {
			device.PortBanners[k] = v
		}
	}
}

// unionPorts merges open ports by (number, transport), preferring the
// newer observation's fields on conflict.
func unionPorts(existing []models.Port, incoming []models.Port) []models.Port {
	if len(incoming) == 0 {
		return existing
	}
	byKey := make(map[models.PortKey]models.Port, len(existing)+len(incoming))
	for _, p := range existing {
		byKey[p.Key()] = p
	}
	for _, p := range incoming {
		byKey[p.Key()] = p
	}
	out := make([]models.Port, 0, len(byKey))
	for _, p := range byKey {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Number != out[j].Number {
			return out[i].Number < out[j].Number
		}
		return out[i].Transport < out[j].Transport
	})
	return out
}

// unionServices merges discovered services by (name, type).
func unionServices(existing []models.DiscoveredService, incoming []models.DiscoveredService) []models.DiscoveredService {
	if len(incoming) == 0 {
		return existing
	}
	byKey := make(map[models.ServiceKey]models.DiscoveredService, len(existing)+len(incoming))
	for _, s := range existing {
		byKey[s.Key()] = s
	}
	for _, s := range incoming {
		byKey[s.Key()] = s
	}
	out := make([]models.DiscoveredService, 0, len(byKey))
	for _, s := range byKey {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// mergeFingerprint merges field-wise, preferring the remote-API side on
// conflict and recomputing the source tag, per §4.7 and the cache
// hierarchy's merge rule (§4.14).
func mergeFingerprint(existing, incoming *models.DeviceFingerprint) *models.DeviceFingerprint {
	if incoming == nil {
		return existing
	}
	if existing == nil {
		return incoming
	}

	merged := *existing
	if incoming.FriendlyName != "" {
		merged.FriendlyName = incoming.FriendlyName
	}
	if incoming.Manufacturer != "" {
		merged.Manufacturer = incoming.Manufacturer
	}
	if incoming.ModelName != "" {
		merged.ModelName = incoming.ModelName
	}
	if incoming.ModelNumber != "" {
		merged.ModelNumber = incoming.ModelNumber
	}
	if incoming.SerialNumber != "" {
		merged.SerialNumber = incoming.SerialNumber
	}
	if incoming.UPnPDeviceType != "" {
		merged.UPnPDeviceType = incoming.UPnPDeviceType
	}
	if len(incoming.UPnPServices) > 0 {
		merged.UPnPServices = incoming.UPnPServices
	}
	if incoming.DeviceName != "" {
		merged.DeviceName = incoming.DeviceName
	}
	if len(incoming.Parents) > 0 {
		merged.Parents = incoming.Parents
	}
	if incoming.Score != 0 {
		merged.Score = incoming.Score
	}
	if incoming.OS != "" {
		merged.OS = incoming.OS
	}
	if incoming.OSVersion != "" {
		merged.OSVersion = incoming.OSVersion
	}
	if incoming.IsMobile {
		merged.IsMobile = true
	}
	if incoming.IsTablet {
		merged.IsTablet = true
	}

	hasUPnP := merged.FriendlyName != "" || merged.UPnPDeviceType != ""
	hasRemote := merged.DeviceName != "" || len(merged.Parents) > 0 || merged.OS != ""
	switch {
	case hasUPnP && hasRemote:
		merged.Source = models.FingerprintSourceBoth
	case hasRemote:
		merged.Source = models.FingerprintSourceRemote
	case hasUPnP:
		merged.Source = models.FingerprintSourceUPnP
	default:
		merged.Source = models.FingerprintSourceNone
	}
	merged.Timestamp = incoming.Timestamp
	return &merged
}

// collectSignals combines the observation's explicit signals with signals
// re-derived from the device's current hostname and fingerprint, so that
// inference always runs over the full evidence set after every merge.
func collectSignals(device *models.Device, obsSignals []inference.Signal) []inference.Signal {
	signals := append([]inference.Signal(nil), obsSignals...)

	if device.Hostname != "" {
		if sig, ok := inference.HostnameSignal(device.Hostname); ok {
			signals = append(signals, sig)
		}
	}
	signals = append(signals, inference.FingerprintSignals(device.Fingerprint)...)

	return signals
}

// smartScore implements §4.7's scoring formula.
func smartScore(signals []inference.Signal, services []models.DiscoveredService, ports []models.Port) int {
	total := 0
	for _, s := range signals {
		total += int(s.Confidence * 100)
	}
	if len(services) > 0 {
		total += 5
	}
	total += 5 * len(ports)
	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}
	return total
}

func toModelSignals(signals []inference.Signal) []models.SmartSignal {
	out := make([]models.SmartSignal, 0, len(signals))
	for _, s := range signals {
		out = append(out, s.ToModelSignal())
	}
	return out
}

// publish fans the event out to all subscribers without blocking; a
// subscriber whose channel is full misses the update (the channel is
// buffered by Subscribe to make this rare).
func (r *Registry) publish(ev Event) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for ch := range r.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a new observation channel. Call the returned function
// to unsubscribe and release the channel.
func (r *Registry) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)
	r.subMu.Lock()
	r.subs[ch] = struct{}{}
	r.subMu.Unlock()

	return ch, func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		if _, ok := r.subs[ch]; ok {
			delete(r.subs, ch)
			close(ch)
		}
	}
}

// GetByMAC returns the device for mac, or false if unknown.
func (r *Registry) GetByMAC(mac string) (models.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[mac]
	if !ok {
		return models.Device{}, false
	}
	return *d, true
}

// GetAll returns every tracked device.
func (r *Registry) GetAll() []models.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, *d)
	}
	return out
}

// GetOnline returns devices currently marked online.
func (r *Registry) GetOnline() []models.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Device
	for _, d := range r.devices {
		if d.IsOnline {
			out = append(out, *d)
		}
	}
	return out
}

// GetSeenAfter returns devices whose LastSeen is after ts.
func (r *Registry) GetSeenAfter(ts time.Time) []models.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Device
	for _, d := range r.devices {
		if d.LastSeen.After(ts) {
			out = append(out, *d)
		}
	}
	return out
}

// Count returns the number of tracked devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// Remove deletes a single device by MAC.
func (r *Registry) Remove(mac string) {
	r.mu.Lock()
	delete(r.devices, mac)
	r.mu.Unlock()
}

// RemoveAll clears the registry. When preserveLabels is true, devices
// carrying a non-empty UserLabel are kept.
func (r *Registry) RemoveAll(preserveLabels bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !preserveLabels {
		r.devices = make(map[string]*models.Device)
		return
	}
	for mac, d := range r.devices {
		if d.UserLabel == "" {
			delete(r.devices, mac)
		}
	}
}

// MarkAllOffline sets isOnline=false on every tracked device, emitting a
// wentOffline event for each one previously online. Called before a full
// scan (§4.7).
func (r *Registry) MarkAllOffline() {
	r.mu.Lock()
	var events []Event
	for _, d := range r.devices {
		if d.IsOnline {
			d.IsOnline = false
			events = append(events, Event{Device: *d, Kind: UpdateWentOffline})
		}
	}
	r.mu.Unlock()

	for _, ev := range events {
		r.publish(ev)
	}
}
