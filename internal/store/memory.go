package store

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/mystocks/internal/models"
)

// MemoryStore is a map-backed PortfolioStore used in tests. It keeps
// insertion order so listings are deterministic.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[primitive.ObjectID]models.PortfolioEntry
	order   []primitive.ObjectID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[primitive.ObjectID]models.PortfolioEntry)}
}

func (s *MemoryStore) Save(ctx context.Context, entry *models.PortfolioEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if _, ok := s.entries[entry.ID]; !ok {
		s.order = append(s.order, entry.ID)
	}
	s.entries[entry.ID] = *entry
	return nil
}

func (s *MemoryStore) SaveAll(ctx context.Context, entries []models.PortfolioEntry) error {
	for i := range entries {
		if err := s.Save(ctx, &entries[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) FindAll(ctx context.Context) ([]models.PortfolioEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]models.PortfolioEntry, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, s.entries[id])
	}
	return entries, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.PortfolioEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &entry, nil
}

func (s *MemoryStore) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return nil
	}
	delete(s.entries, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[primitive.ObjectID]models.PortfolioEntry)
	s.order = nil
	return nil
}

func (s *MemoryStore) ReplaceAll(ctx context.Context, entries []models.PortfolioEntry) error {
	old, err := s.FindAll(ctx)
	if err != nil {
		return err
	}
	if err := s.SaveAll(ctx, entries); err != nil {
		return err
	}
	for _, e := range old {
		if err := s.DeleteByID(ctx, e.ID); err != nil {
			return err
		}
	}
	return nil
}
