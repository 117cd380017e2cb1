package data

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgnsrekt/greekslab/internal/volsurface"
)

// StoredSurface is a built volatility grid registered under an id.
type StoredSurface struct {
	ID      string           `json:"id"`
	Created time.Time        `json:"created"`
	Grid    *volsurface.Grid `json:"grid"`
}

// SurfaceStore holds built grids for later queries. When full, the oldest
// surface is evicted on Put.
type SurfaceStore struct {
	mu       sync.RWMutex
	surfaces map[string]*StoredSurface
	order    []string // insertion order, oldest first
	capacity int
}

func NewSurfaceStore(capacity int) *SurfaceStore {
	if capacity < 1 {
		capacity = 1
	}
	return &SurfaceStore{
		surfaces: make(map[string]*StoredSurface),
		capacity: capacity,
	}
}

// Put registers the grid and returns its record. The second return value is
// the id evicted to make room, or "".
func (s *SurfaceStore) Put(g *volsurface.Grid) (*StoredSurface, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted string
	if len(s.order) >= s.capacity {
		evicted = s.order[0]
		s.order = s.order[1:]
		delete(s.surfaces, evicted)
	}

	rec := &StoredSurface{ID: uuid.NewString(), Created: time.Now().UTC(), Grid: g}
	s.surfaces[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return rec, evicted
}

func (s *SurfaceStore) Get(id string) (*StoredSurface, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.surfaces[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Delete removes a surface. Returns ErrNotFound for unknown ids.
func (s *SurfaceStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surfaces[id]; !ok {
		return ErrNotFound
	}
	delete(s.surfaces, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *SurfaceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.surfaces)
}

// IDs returns registered ids, oldest first.
func (s *SurfaceStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}
