// Package behavior implements the presence-history tracker (§4.13): it
// accumulates per-device online/offline observations and derives a
// behavioral classification (infrastructure, server, iot, workstation,
// portable, mobile, guest) used as one more inference signal.
package behavior

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tidwall/buntdb"
	"go.uber.org/zap"

	"github.com/lanscope/lanscope/internal/inference"
	"github.com/lanscope/lanscope/pkg/models"
)

const (
	businessHourStart = 9
	businessHourEnd   = 17
	eveningHourStart  = 18
	eveningHourEnd    = 23
	persistEveryN     = 10
	minObservations   = 10
)

// Tracker maintains an LRU-capped set of device behavior profiles, persisted
// to a buntdb store every persistEveryN updates.
type Tracker struct {
	logger *zap.Logger
	db     *buntdb.DB
	salt   string
	hashID bool

	mu        sync.Mutex
	profiles  *lru.Cache[string, *models.DeviceBehaviorProfile]
	updates   int
}

// New creates a Tracker. dbPath may be empty to disable persistence (tests).
// salt is the persisted hashing salt used when hashID is true; hashID mirrors
// the `behavior_hash_ids` configuration flag.
func New(logger *zap.Logger, dbPath string, hashID bool, salt string, capacity int) (*Tracker, error) {
	if capacity <= 0 {
		capacity = models.MaxBehaviorProfiles
	}
	profiles, err := lru.New[string, *models.DeviceBehaviorProfile](capacity)
	if err != nil {
		return nil, err
	}

	var db *buntdb.DB
	if dbPath != "" {
		db, err = buntdb.Open(dbPath)
		if err != nil {
			return nil, err
		}
	}

	t := &Tracker{logger: logger, db: db, salt: salt, hashID: hashID, profiles: profiles}
	t.load()
	return t, nil
}

// Close flushes outstanding state and releases the underlying store.
func (t *Tracker) Close() error {
	t.persist()
	if t.db != nil {
		return t.db.Close()
	}
	return nil
}

func (t *Tracker) normalizeID(id string) string {
	if !t.hashID {
		return id
	}
	sum := sha256.Sum256([]byte(t.salt + id))
	return hex.EncodeToString(sum[:])
}

// RecordPresence appends a presence observation for id, updates its rolling
// window, and recomputes its classification.
func (t *Tracker) RecordPresence(id string, isOnline bool, services []string, ip string, observedAt time.Time) {
	key := t.normalizeID(id)

	t.mu.Lock()
	defer t.mu.Unlock()

	profile, ok := t.profiles.Get(key)
	if !ok {
		profile = &models.DeviceBehaviorProfile{
			DeviceID:       key,
			Classification: models.BehaviorUnknown,
			FirstObserved:  observedAt,
		}
	}

	profile.PresenceHistory = append(profile.PresenceHistory, models.PresenceRecord{
		Timestamp: observedAt,
		IsOnline:  isOnline,
		Services:  services,
		IP:        ip,
	})
	if len(profile.PresenceHistory) > models.MaxPresenceRecords {
		profile.PresenceHistory = profile.PresenceHistory[len(profile.PresenceHistory)-models.MaxPresenceRecords:]
	}

	profile.LastObserved = observedAt
	profile.ObservationCount++

	if isOnline && len(services) > 0 {
		profile.ConsistentServices = recomputeConsistentServices(profile.PresenceHistory)
	}

	t.updateClassification(profile)
	t.profiles.Add(key, profile)

	t.updates++
	if t.updates%persistEveryN == 0 {
		t.persistLocked()
	}
}

// Profile returns a copy of id's behavior profile, if tracked.
func (t *Tracker) Profile(id string) (models.DeviceBehaviorProfile, bool) {
	key := t.normalizeID(id)
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.profiles.Get(key)
	if !ok {
		return models.DeviceBehaviorProfile{}, false
	}
	return *p, true
}

// updateClassification recomputes uptime%, peak hours, daily-pattern
// detection, and the behavior classification for profile, per §4.13.
func (t *Tracker) updateClassification(profile *models.DeviceBehaviorProfile) {
	total := len(profile.PresenceHistory)
	if total == 0 {
		profile.Classification = models.BehaviorUnknown
		return
	}

	onlineByHour := make([]int, 24)
	onlineCount := 0
	for _, rec := range profile.PresenceHistory {
		if rec.IsOnline {
			onlineCount++
			onlineByHour[rec.Timestamp.Hour()]++
		}
	}
	profile.AverageUptimePercent = 100 * float64(onlineCount) / float64(total)

	maxHour := 0
	for _, c := range onlineByHour {
		if c > maxHour {
			maxHour = c
		}
	}

	var peakHours []int
	if maxHour > 0 {
		threshold := float64(maxHour) * 0.5
		for hour, c := range onlineByHour {
			if float64(c) >= threshold {
				peakHours = append(peakHours, hour)
			}
		}
	}
	sort.Ints(peakHours)
	profile.PeakHours = peakHours

	profile.HasDailyPattern = hasDailyPattern(peakHours)

	if profile.ObservationCount < minObservations {
		profile.Classification = models.BehaviorUnknown
		profile.IsAlwaysOn = false
		profile.IsIntermittent = false
		return
	}

	uptime := profile.AverageUptimePercent
	daily := profile.HasDailyPattern
	switch {
	case uptime >= 95:
		profile.Classification = models.BehaviorInfrastructure
	case uptime >= 85:
		if daily {
			profile.Classification = models.BehaviorServer
		} else {
			profile.Classification = models.BehaviorIoT
		}
	case uptime >= 50:
		if daily {
			profile.Classification = models.BehaviorWorkstation
		} else {
			profile.Classification = models.BehaviorPortable
		}
	case uptime >= 20:
		if daily {
			profile.Classification = models.BehaviorPortable
		} else {
			profile.Classification = models.BehaviorMobile
		}
	case uptime >= 5:
		profile.Classification = models.BehaviorMobile
	default:
		profile.Classification = models.BehaviorGuest
	}

	switch profile.Classification {
	case models.BehaviorInfrastructure, models.BehaviorServer, models.BehaviorIoT:
		profile.IsAlwaysOn = true
		profile.IsIntermittent = false
	case models.BehaviorPortable, models.BehaviorMobile, models.BehaviorGuest:
		profile.IsAlwaysOn = false
		profile.IsIntermittent = true
	default:
		profile.IsAlwaysOn = false
		profile.IsIntermittent = false
	}
}

// hasDailyPattern implements peakHours.len in [2,16] and at most 2
// non-adjacent gaps among the sorted hours (treating hour 23→0 as adjacent).
func hasDailyPattern(peakHours []int) bool {
	n := len(peakHours)
	if n < 2 || n > 16 {
		return false
	}

	gaps := 0
	for i := 1; i < n; i++ {
		if peakHours[i]-peakHours[i-1] != 1 {
			gaps++
		}
	}
	// Treat 23→0 as adjacent: a peak window wrapping midnight shouldn't
	// count as a gap.
	if peakHours[0] == 0 && peakHours[n-1] == 23 && gaps > 0 {
		gaps--
	}
	return gaps <= 2
}

func recomputeConsistentServices(history []models.PresenceRecord) []string {
	onlineTotal := 0
	counts := map[string]int{}
	for _, rec := range history {
		if !rec.IsOnline {
			continue
		}
		onlineTotal++
		for _, svc := range rec.Services {
			counts[svc]++
		}
	}
	if onlineTotal == 0 {
		return nil
	}

	var out []string
	for svc, c := range counts {
		if float64(c)/float64(onlineTotal) >= 0.8 {
			out = append(out, svc)
		}
	}
	sort.Strings(out)
	return out
}

// GenerateSignals produces the §4.13 behavior→type signal for profile, or
// nil when fewer than minObservations observations have been recorded.
func GenerateSignals(profile models.DeviceBehaviorProfile) []inference.Signal {
	if profile.ObservationCount < minObservations {
		return nil
	}

	businessPeak := peakFraction(profile.PeakHours, businessHourStart, businessHourEnd) > 0.5
	eveningPeak := peakFraction(profile.PeakHours, eveningHourStart, eveningHourEnd) > 0.5

	var sig inference.Signal
	switch profile.Classification {
	case models.BehaviorInfrastructure:
		sig = inference.Signal{Source: inference.SourceBehavior, SuggestedType: models.DeviceTypeRouter, Confidence: 0.40}
	case models.BehaviorServer:
		sig = inference.Signal{Source: inference.SourceBehavior, SuggestedType: models.DeviceTypeNAS, Confidence: 0.35}
	case models.BehaviorIoT:
		if eveningPeak {
			sig = inference.Signal{Source: inference.SourceBehavior, SuggestedType: models.DeviceTypeSmartTV, Confidence: 0.35}
		} else {
			sig = inference.Signal{Source: inference.SourceBehavior, SuggestedType: models.DeviceTypeHub, Confidence: 0.30}
		}
	case models.BehaviorWorkstation:
		if businessPeak {
			sig = inference.Signal{Source: inference.SourceBehavior, SuggestedType: models.DeviceTypeComputer, Confidence: 0.35}
		} else if eveningPeak {
			sig = inference.Signal{Source: inference.SourceBehavior, SuggestedType: models.DeviceTypeSmartTV, Confidence: 0.35}
		} else {
			sig = inference.Signal{Source: inference.SourceBehavior, SuggestedType: models.DeviceTypeComputer, Confidence: 0.30}
		}
	case models.BehaviorPortable:
		sig = inference.Signal{Source: inference.SourceBehavior, SuggestedType: models.DeviceTypeComputer, Confidence: 0.30}
	case models.BehaviorMobile:
		sig = inference.Signal{Source: inference.SourceBehavior, SuggestedType: models.DeviceTypePhone, Confidence: 0.30}
	case models.BehaviorGuest:
		sig = inference.Signal{Source: inference.SourceBehavior, SuggestedType: models.DeviceTypePhone, Confidence: 0.25}
	default:
		return nil
	}
	return []inference.Signal{sig}
}

func peakFraction(peakHours []int, start, end int) float64 {
	if len(peakHours) == 0 {
		return 0
	}
	count := 0
	for _, h := range peakHours {
		if h >= start && h <= end {
			count++
		}
	}
	return float64(count) / float64(len(peakHours))
}

// persist atomically writes the entire profile set to the backing store.
func (t *Tracker) persist() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.persistLocked()
}

func (t *Tracker) persistLocked() {
	if t.db == nil {
		return
	}
	err := t.db.Update(func(tx *buntdb.Tx) error {
		for _, key := range t.profiles.Keys() {
			profile, ok := t.profiles.Peek(key)
			if !ok {
				continue
			}
			data, err := json.Marshal(profile)
			if err != nil {
				continue
			}
			if _, _, err := tx.Set(key, string(data), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.logger.Warn("failed to persist behavior profiles", zap.Error(err))
	}
}

func (t *Tracker) load() {
	if t.db == nil {
		return
	}
	err := t.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("", func(key, value string) bool {
			var profile models.DeviceBehaviorProfile
			if err := json.Unmarshal([]byte(value), &profile); err == nil {
				t.profiles.Add(key, &profile)
			}
			return true
		})
	})
	if err != nil {
		t.logger.Debug("no prior behavior state loaded", zap.Error(err))
	}
}
