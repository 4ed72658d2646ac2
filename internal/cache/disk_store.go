// Handles on-disk caching of fetched record lists
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// entry is the on-disk envelope: the records together with the time
// they were captured from the API.
type entry struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Records   json.RawMessage `json:"records"`
}

// DiskStore is a key-addressed file cache with expiration. At most one
// entry exists per key; writes overwrite, reads of entries older than
// the TTL behave as misses.
type DiskStore struct {
	dir string
	ttl time.Duration

	now func() time.Time
}

// NewDiskStore creates a new disk store
func NewDiskStore(dir string, ttl time.Duration) *DiskStore {
	return &DiskStore{
		dir: dir,
		ttl: ttl,
		now: time.Now,
	}
}

// Init ensures the cache directory exists
func (s *DiskStore) Init() error {
	return os.MkdirAll(s.dir, 0755)
}

func (s *DiskStore) path(key Key) string {
	return filepath.Join(s.dir, key.Filename())
}

// Write stores the records under the key, stamped with the current
// time. The write goes through a temp file and a rename so a reader
// never sees a torn entry.
func (s *DiskStore) Write(key Key, records any) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshaling records for %s: %w", key, err)
	}

	data, err := json.Marshal(entry{
		FetchedAt: s.now().UTC(),
		Records:   raw,
	})
	if err != nil {
		return fmt.Errorf("marshaling cache entry %s: %w", key, err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}

	logrus.Debugf("Cached %s (%d bytes)", key, len(data))
	return nil
}

// Read loads the records stored under the key into out. It reports a
// miss when no entry exists, when the entry is older than the TTL
// (age exactly equal to the TTL counts as expired), or when the file
// cannot be decoded. Expired files are left in place for the next
// write to overwrite. On a hit it returns the capture timestamp.
func (s *DiskStore) Read(key Key, out any) (time.Time, bool) {
	path := s.path(key)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.Warnf("Failed to read cache entry %s: %v", key, err)
		}
		return time.Time{}, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		logrus.Warnf("Corrupt cache entry %s, treating as miss: %v", key, err)
		return time.Time{}, false
	}

	if s.now().Sub(e.FetchedAt) >= s.ttl {
		logrus.Debugf("Cache entry %s expired", key)
		return time.Time{}, false
	}

	if err := json.Unmarshal(e.Records, out); err != nil {
		logrus.Warnf("Corrupt cache records in %s, treating as miss: %v", key, err)
		return time.Time{}, false
	}

	return e.FetchedAt, true
}
