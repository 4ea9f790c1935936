package fingerprint

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/lanscope/lanscope/pkg/models"
)

// FileLegacyCache is a JSON-per-entry on-disk cache kept for migration
// compatibility with an older fingerprint store layout. One file per
// (mac, signalHash) pair under dir.
type FileLegacyCache struct {
	dir string
}

// NewFileLegacyCache creates a legacy cache rooted at dir, creating it if
// necessary.
func NewFileLegacyCache(dir string) (*FileLegacyCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileLegacyCache{dir: dir}, nil
}

func (c *FileLegacyCache) entryPath(mac, signalHash string) string {
	return filepath.Join(c.dir, mac+"_"+signalHash+".json")
}

// Get reads a previously cached entry, if present.
func (c *FileLegacyCache) Get(mac, signalHash string) (models.DeviceFingerprint, bool) {
	data, err := os.ReadFile(c.entryPath(mac, signalHash))
	if err != nil {
		return models.DeviceFingerprint{}, false
	}
	var fp models.DeviceFingerprint
	if err := json.Unmarshal(data, &fp); err != nil {
		return models.DeviceFingerprint{}, false
	}
	return fp, true
}

// Put writes fp for (mac, signalHash), overwriting any existing entry.
func (c *FileLegacyCache) Put(mac, signalHash string, fp models.DeviceFingerprint) error {
	data, err := json.Marshal(fp)
	if err != nil {
		return err
	}
	return os.WriteFile(c.entryPath(mac, signalHash), data, 0o644)
}
