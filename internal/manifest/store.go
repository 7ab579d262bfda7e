package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

const cacheKey = "manifest"

// Store caches and persists manifest snapshots. Readers always get a
// point-in-time snapshot; Regenerate atomically replaces the cached
// reference so in-flight readers keep the snapshot they started with.
type Store struct {
	builder *Builder
	path    string
	cache   *gocache.Cache

	mu sync.Mutex // serializes rebuilds and file writes
}

// NewStore creates a manifest store persisting to path with the given TTL.
func NewStore(builder *Builder, path string, ttl time.Duration) *Store {
	return &Store{
		builder: builder,
		path:    path,
		cache:   gocache.New(ttl, ttl),
	}
}

// Get returns the current manifest: memory cache first, then the persisted
// snapshot, then a full rebuild.
func (s *Store) Get() (*Manifest, error) {
	if v, ok := s.cache.Get(cacheKey); ok {
		return v.(*Manifest), nil
	}

	if m, ok := s.loadPersisted(); ok {
		s.cache.SetDefault(cacheKey, m)
		return m, nil
	}

	return s.Regenerate()
}

// Regenerate builds a fresh snapshot, persists it, and replaces the cache.
func (s *Store) Regenerate() (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.builder.Build()

	if err := s.persist(m); err != nil {
		return nil, err
	}
	s.cache.SetDefault(cacheKey, m)

	log.Info().Int("blocks", len(m.Blocks)).Str("version", m.Version).Msg("manifest regenerated")
	return m, nil
}

// ClearCache drops the in-memory snapshot; the persisted file remains.
func (s *Store) ClearCache() {
	s.cache.Delete(cacheKey)
}

func (s *Store) loadPersisted() (*Manifest, bool) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		return nil, false
	}
	var m Manifest
	if err := json.Unmarshal(content, &m); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("manifest: ignoring corrupt persisted snapshot")
		return nil, false
	}
	if len(m.Blocks) == 0 {
		return nil, false
	}
	return &m, true
}

func (s *Store) persist(m *Manifest) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	content, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}
