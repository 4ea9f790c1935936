package fingerprint

import (
	"encoding/json"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/lanscope/lanscope/pkg/models"
)

// DefaultUPnPCacheTTL is the §4.14 default UPnP cache lifetime.
const DefaultUPnPCacheTTL = 24 * time.Hour

// UPnPCache stores UPnP description fetches, keyed by MAC and SSDP LOCATION
// URL, with a TTL enforced by the underlying store.
type UPnPCache struct {
	db  *buntdb.DB
	ttl time.Duration
}

// NewUPnPCache opens (or creates) the cache at path. An empty path opens an
// in-memory store, useful for tests.
func NewUPnPCache(path string, ttl time.Duration) (*UPnPCache, error) {
	if path == "" {
		path = ":memory:"
	}
	if ttl <= 0 {
		ttl = DefaultUPnPCacheTTL
	}
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &UPnPCache{db: db, ttl: ttl}, nil
}

func (c *UPnPCache) Close() error { return c.db.Close() }

func cacheKey(mac, location string) string {
	return mac + "|" + location
}

// Get returns the cached fingerprint for (mac, location), if present and
// unexpired.
func (c *UPnPCache) Get(mac, location string) (models.DeviceFingerprint, bool) {
	var fp models.DeviceFingerprint
	var found bool
	c.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(cacheKey(mac, location))
		if err != nil {
			return nil
		}
		if err := json.Unmarshal([]byte(val), &fp); err == nil {
			found = true
		}
		return nil
	})
	return fp, found
}

// Put stores fp for (mac, location) with the cache's configured TTL.
func (c *UPnPCache) Put(mac, location string, fp models.DeviceFingerprint) error {
	data, err := json.Marshal(fp)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(cacheKey(mac, location), string(data), &buntdb.SetOptions{Expires: true, TTL: c.ttl})
		return err
	})
}
