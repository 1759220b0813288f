package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/Siddarth2230/url-mapping-service/internal/models"
)

// MemoryStore is a Store kept in process memory. It enforces the same
// uniqueness rules as the url_mapping table.
type MemoryStore struct {
	mu      sync.RWMutex
	lastID  int64
	byFull  map[string]models.URLMapping
	byShort map[string]models.URLMapping
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byFull:  make(map[string]models.URLMapping),
		byShort: make(map[string]models.URLMapping),
	}
}

func (s *MemoryStore) FindByFullURL(_ context.Context, fullURL string) (*models.URLMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.byFull[fullURL]; ok {
		return &m, nil
	}
	return nil, nil
}

func (s *MemoryStore) FindByShortURL(_ context.Context, shortURL string) (*models.URLMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.byShort[shortURL]; ok {
		return &m, nil
	}
	return nil, nil
}

func (s *MemoryStore) ExistsByShortURL(_ context.Context, shortURL string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byShort[shortURL]
	return ok, nil
}

func (s *MemoryStore) Save(_ context.Context, m *models.URLMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byFull[m.FullURL]; ok {
		return fmt.Errorf("%w: full_url", ErrConstraintViolation)
	}
	if _, ok := s.byShort[m.ShortURL]; ok {
		return fmt.Errorf("%w: short_url", ErrConstraintViolation)
	}
	s.lastID++
	m.ID = s.lastID
	s.byFull[m.FullURL] = *m
	s.byShort[m.ShortURL] = *m
	return nil
}

// Len returns the number of stored mappings.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byFull)
}
