package cache

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/typesugar/typesugar/internal/ast"
	"github.com/typesugar/typesugar/internal/diag"
	"github.com/typesugar/typesugar/internal/metrics"
)

// DefaultMaxEntries is the default `cache.max_entries` bound (spec.md
// §9 "Supplemented features").
const DefaultMaxEntries = 500

// Entry is one cached expansion result. Text is the deterministic
// golden-printed form of the transformed AST (ast.Golden) rather than
// a re-serialized surface-language source string, since the core owns
// no surface-language printer (§1 "provided by the host toolchain");
// a host wiring a real printer in front of this cache can substitute
// its own text before calling Put.
type Entry struct {
	Text            string            `yaml:"text"`
	Diagnostics     []diag.Diagnostic `yaml:"diagnostics"`
	RegistryVersion string            `yaml:"registry_version"`
}

// Store is the process-wide expansion cache: an in-memory LRU with an
// optional on-disk directory for cross-process persistence (spec.md §6
// "Persisted state").
type Store struct {
	lru     *lru
	diskDir string
	bus     *diag.Bus
}

// NewStore creates a Store bounded to maxEntries (0 uses
// DefaultMaxEntries). diskDir may be empty to disable on-disk
// persistence. bus may be nil to suppress eviction diagnostics.
func NewStore(maxEntries int, diskDir string, bus *diag.Bus) *Store {
	s := &Store{lru: newLRU(maxEntries), diskDir: diskDir, bus: bus}
	s.lru.onEvict = func(digest string) {
		metrics.RecordCacheEviction()
		if s.bus != nil {
			s.bus.Report(diag.New(diag.CacheEvicted, ast.Span{}, "evicted cache entry "+digest[:8]))
		}
	}
	return s
}

// Get looks up key, checking the in-memory LRU first and falling back
// to the on-disk directory if configured. A disk hit is promoted back
// into the LRU.
func (s *Store) Get(key Key) (Entry, bool) {
	digest := key.Digest()
	if e, ok := s.lru.Get(digest); ok {
		metrics.RecordCacheHit()
		return e, true
	}
	if s.diskDir != "" {
		if e, ok := s.readDisk(digest, key.RegistryVersion); ok {
			s.lru.Put(digest, e)
			metrics.RecordCacheHit()
			return e, true
		}
	}
	metrics.RecordCacheMiss()
	return Entry{}, false
}

// Put stores entry under key, writing it to disk too when persistence
// is configured.
func (s *Store) Put(key Key, entry Entry) {
	digest := key.Digest()
	s.lru.Put(digest, entry)
	if s.diskDir != "" {
		_ = s.writeDisk(digest, entry) // persistence is best-effort: a write failure degrades to memory-only caching, not a pipeline error
	}
}

// Len reports the number of entries currently held in memory.
func (s *Store) Len() int { return s.lru.Len() }

func (s *Store) diskPath(digest string) string {
	return filepath.Join(s.diskDir, digest+".yaml")
}

func (s *Store) readDisk(digest, wantRegistryVersion string) (Entry, bool) {
	data, err := os.ReadFile(s.diskPath(digest))
	if err != nil {
		return Entry{}, false
	}
	var e Entry
	if err := yaml.Unmarshal(data, &e); err != nil {
		return Entry{}, false
	}
	if e.RegistryVersion != wantRegistryVersion {
		return Entry{}, false
	}
	return e, true
}

func (s *Store) writeDisk(digest string, e Entry) error {
	if err := os.MkdirAll(s.diskDir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(e)
	if err != nil {
		return err
	}
	return os.WriteFile(s.diskPath(digest), data, 0o644)
}
