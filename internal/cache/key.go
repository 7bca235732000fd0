// Package cache implements the Cache Layer (spec.md §6 "Persisted
// state"): a content-addressed LRU over one file's expansion result,
// keyed by (file-content-hash, config-hash, registry-version) so a
// stale entry from a prior registry or config is never served.
//
// Grounded on internal/module/loader.go's cache map[string]*Module +
// sync.RWMutex pattern, generalized to bounded LRU eviction via
// container/list (stdlib; see DESIGN.md for why no pack library fits
// better) with internal/metrics instrumentation grounded on
// kraklabs-cie/pkg/ingestion/metrics.go.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Key identifies one cacheable expansion result.
type Key struct {
	FileHash        string
	ConfigHash      string
	RegistryVersion string
}

// Digest returns the 128-bit (truncated) hex digest spec.md §9
// "Supplemented features" names as the on-disk entry filename.
func (k Key) Digest() string {
	sum := sha256.Sum256([]byte(k.FileHash + "\x00" + k.ConfigHash + "\x00" + k.RegistryVersion))
	return hex.EncodeToString(sum[:16])
}

// HashSource hashes a file's source text into the FileHash component of
// a Key (spec.md §6 "content-addressed").
func HashSource(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}
