package weather

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultMaxAge is how long a cached document is served before a refresh.
const DefaultMaxAge = 30 * time.Minute

// FileCache keeps the last fetched weather document on disk.
// The file's modification time is the staleness clock.
type FileCache struct {
	path   string
	maxAge time.Duration
	loc    Location
	source Provider

	// mu serializes refreshes inside one process. Other processes sharing the
	// file are not coordinated.
	mu sync.Mutex
}

// NewFileCache creates a cache for loc backed by the document at path.
// If maxAge is <= 0, DefaultMaxAge is used.
func NewFileCache(path string, maxAge time.Duration, loc Location, source Provider) *FileCache {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &FileCache{
		path:   path,
		maxAge: maxAge,
		loc:    loc,
		source: source,
	}
}

// Location returns the location this cache tracks.
func (c *FileCache) Location() Location {
	return c.loc
}

// Get returns the cached snapshot, refreshing it first when it is older than
// maxAge relative to now. When the refresh fails and a cached document exists
// it is returned with Stale set.
func (c *FileCache) Get(ctx context.Context, now time.Time) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, err := os.Stat(c.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, fmt.Errorf("stat weather cache: %w", err)
	}
	if err == nil && !c.expired(info.ModTime(), now) {
		return c.readLocked()
	}

	snap, refreshErr := c.refreshLocked(ctx)
	if refreshErr == nil {
		return snap, nil
	}

	if err != nil {
		// Nothing cached to fall back on.
		return Snapshot{}, fmt.Errorf("%w: %v", ErrWeatherUnavailable, refreshErr)
	}

	log.Printf("WARN: weather refresh for %s failed, serving cache from %s: %v",
		c.loc.Key(), info.ModTime().Format(time.RFC3339), refreshErr)

	snap, err = c.readLocked()
	if err != nil {
		return Snapshot{}, err
	}
	snap.Stale = true
	return snap, nil
}

// Refresh fetches a new document regardless of the cache age.
func (c *FileCache) Refresh(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.refreshLocked(ctx)
}

func (c *FileCache) expired(modTime, now time.Time) bool {
	age := now.Sub(modTime)
	if age < 0 {
		age = -age
	}
	return age > c.maxAge
}

func (c *FileCache) refreshLocked(ctx context.Context) (Snapshot, error) {
	if c.source == nil {
		return Snapshot{}, fmt.Errorf("no weather source configured")
	}

	doc, err := c.source.Fetch(ctx, c.loc)
	if err != nil {
		return Snapshot{}, err
	}
	// A malformed document must not replace the last good one.
	if _, err := ExtractFields(doc); err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", c.source.Name(), err)
	}

	if err := c.writeLocked(doc); err != nil {
		return Snapshot{}, err
	}

	log.Printf("INFO: weather cache refreshed for %s via %s", c.loc.Key(), c.source.Name())
	return c.readLocked()
}

func (c *FileCache) readLocked() (Snapshot, error) {
	doc, err := os.ReadFile(c.path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read weather cache: %w", err)
	}
	info, err := os.Stat(c.path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("stat weather cache: %w", err)
	}

	snap, err := ExtractFields(doc)
	if err != nil {
		log.Printf("WARN: weather cache %s: %v; using zero features", c.path, err)
	}
	snap.FetchedAt = info.ModTime().UTC()
	return snap, nil
}

// writeLocked replaces the cache file atomically.
func (c *FileCache) writeLocked(doc []byte) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create weather cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".weather-*.json")
	if err != nil {
		return fmt.Errorf("create weather cache temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(doc); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write weather cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close weather cache: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace weather cache: %w", err)
	}
	return nil
}
