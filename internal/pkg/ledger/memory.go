package ledger

import (
	"context"
	"slices"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps ledgers for the life of the process. Used in tests and
// when no durable backend is configured.
type MemoryStore struct {
	c *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{c: cache.New(cache.NoExpiration, 0)}
}

func (s *MemoryStore) Load(_ context.Context, purpose string) ([]int64, error) {
	if v, ok := s.c.Get(purpose); ok {
		return slices.Clone(v.([]int64)), nil
	}
	return []int64{}, nil
}

func (s *MemoryStore) Save(_ context.Context, purpose string, timestamps []int64) error {
	s.c.Set(purpose, slices.Clone(timestamps), cache.NoExpiration)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
