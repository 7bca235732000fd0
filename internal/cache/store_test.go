package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_PutThenGet_Hits(t *testing.T) {
	s := NewStore(10, "", nil)
	key := Key{FileHash: HashSource("const x = 1;"), ConfigHash: "cfg1", RegistryVersion: "v1"}
	entry := Entry{Text: "const x = 1;", RegistryVersion: "v1"}

	s.Put(key, entry)
	got, ok := s.Get(key)
	require.True(t, ok, "expected a cache hit after Put")
	require.Equal(t, entry.Text, got.Text)
}

func TestStore_Miss_WhenKeyComponentsDiffer(t *testing.T) {
	s := NewStore(10, "", nil)
	key := Key{FileHash: "a", ConfigHash: "cfg1", RegistryVersion: "v1"}
	s.Put(key, Entry{Text: "x"})

	other := Key{FileHash: "a", ConfigHash: "cfg2", RegistryVersion: "v1"}
	if _, ok := s.Get(other); ok {
		t.Fatal("expected a miss when the config hash differs")
	}
}

func TestStore_EvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	s := NewStore(2, "", nil)
	s.lru.onEvict = func(digest string) { evicted = append(evicted, digest) }

	k1 := Key{FileHash: "a", RegistryVersion: "v1"}
	k2 := Key{FileHash: "b", RegistryVersion: "v1"}
	k3 := Key{FileHash: "c", RegistryVersion: "v1"}

	s.Put(k1, Entry{Text: "1"})
	s.Put(k2, Entry{Text: "2"})
	s.Get(k1) // k1 now most-recently-used, k2 is the LRU victim
	s.Put(k3, Entry{Text: "3"})

	if len(evicted) != 1 || evicted[0] != k2.Digest() {
		t.Fatalf("expected k2 evicted, got %v", evicted)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 entries after eviction, got %d", s.Len())
	}
}

func TestStore_DiskPersistence_SurvivesAcrossStores(t *testing.T) {
	dir := t.TempDir()
	s1 := NewStore(10, dir, nil)
	key := Key{FileHash: "a", ConfigHash: "cfg", RegistryVersion: "v1"}
	s1.Put(key, Entry{Text: "cached", RegistryVersion: "v1"})

	s2 := NewStore(10, dir, nil)
	got, ok := s2.Get(key)
	require.True(t, ok, "expected the second store to read the first store's on-disk entry")
	require.Equal(t, "cached", got.Text)
}

func TestStore_DiskPersistence_RejectsStaleRegistryVersion(t *testing.T) {
	dir := t.TempDir()
	s1 := NewStore(10, dir, nil)
	key := Key{FileHash: "a", RegistryVersion: "v1"}
	s1.Put(key, Entry{Text: "cached", RegistryVersion: "v1"})

	s2 := NewStore(10, dir, nil)
	staleKey := Key{FileHash: "a", RegistryVersion: "v2"}
	if _, ok := s2.Get(staleKey); ok {
		t.Fatal("expected a miss once the registry version no longer matches the persisted entry")
	}
}

func TestKey_Digest_StableAndContentAddressed(t *testing.T) {
	k := Key{FileHash: "a", ConfigHash: "b", RegistryVersion: "c"}
	if k.Digest() != k.Digest() {
		t.Fatal("expected Digest to be deterministic")
	}
	other := Key{FileHash: "a", ConfigHash: "b", RegistryVersion: "d"}
	if k.Digest() == other.Digest() {
		t.Fatal("expected a different registry version to change the digest")
	}
}

func TestStore_DiskPath_NamesFileByDigest(t *testing.T) {
	s := NewStore(10, "/tmp/typesugar-cache-test", nil)
	key := Key{FileHash: "a", RegistryVersion: "v1"}
	got := s.diskPath(key.Digest())
	want := filepath.Join("/tmp/typesugar-cache-test", key.Digest()+".yaml")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
