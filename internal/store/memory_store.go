package store

import (
	"context"
	"sync"
	"time"

	"github.com/vbonduro/stocktake/internal/domain"
)

// MemoryItemStore keeps items in a slice in insertion order. IDs come from a
// counter that starts at 1 and never goes back, so deleted IDs are not reused.
type MemoryItemStore struct {
	mu     sync.RWMutex
	items  []*domain.Item
	nextID int64
}

func NewMemoryItemStore() *MemoryItemStore {
	return &MemoryItemStore{nextID: 1}
}

func (s *MemoryItemStore) Create(ctx context.Context, name, description, photoKey string) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	item := &domain.Item{
		ID:          s.nextID,
		Name:        name,
		Description: description,
		PhotoKey:    photoKey,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.nextID++
	s.items = append(s.items, item)

	cp := *item
	return &cp, nil
}

func (s *MemoryItemStore) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		cp := *s.items[i]
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryItemStore) List(ctx context.Context) ([]*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Item, len(s.items))
	for i, item := range s.items {
		cp := *item
		out[i] = &cp
	}
	return out, nil
}

func (s *MemoryItemStore) Update(ctx context.Context, id int64, name, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	s.items[i].Name = name
	s.items[i].Description = description
	s.items[i].UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryItemStore) SetPhoto(ctx context.Context, id int64, photoKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	s.items[i].PhotoKey = photoKey
	s.items[i].UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryItemStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

// indexOf must be called with mu held.
func (s *MemoryItemStore) indexOf(id int64) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
