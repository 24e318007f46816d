// Package cache provides byte-level caching for extraction and
// validation results.
//
// Extracting a large container takes seconds; running the external
// validator takes longer still. Both results are pure functions of the
// file's identity (path, size, mtime), which makes them safe to cache
// aggressively. Three backends are provided:
//   - FileCache: directory-backed storage for CLI usage
//   - RedisCache: shared storage for multi-instance deployments
//   - NullCache: disabled caching for tests
package cache

import (
	"context"
	"time"
)

// Cache stores serialized results keyed by string.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs per result class.
const (
	// TreeTTL covers extracted structure trees. Files rarely change
	// under inspection, but mtime is part of the key so staleness is
	// already handled; the TTL just bounds disk growth.
	TreeTTL = 7 * 24 * time.Hour

	// ReportTTL covers validator reports. Shorter than TreeTTL because
	// validator upgrades change findings without touching the file.
	ReportTTL = 24 * time.Hour
)

// Keyer builds cache keys from file identity.
type Keyer interface {
	// TreeKey identifies an extracted tree.
	TreeKey(path string, size int64, modTime time.Time) string

	// ReportKey identifies a validator report, including the validator
	// command so switching validators never serves a stale report.
	ReportKey(path string, size int64, modTime time.Time, validator string) string
}

// DefaultKeyer hashes file identity into namespaced keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// TreeKey generates a key for an extracted tree.
func (k *DefaultKeyer) TreeKey(path string, size int64, modTime time.Time) string {
	return hashKey("tree", path, size, modTime.UnixNano())
}

// ReportKey generates a key for a validator report.
func (k *DefaultKeyer) ReportKey(path string, size int64, modTime time.Time, validator string) string {
	return hashKey("report", path, size, modTime.UnixNano(), validator)
}
