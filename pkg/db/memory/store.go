// Package memory is an in-process Store used by tests and single-node deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/puzpuzpuz/xsync/v4"
)

// Store keeps encoded entities in a concurrent map. Reads never block; Apply is serialized so a
// batch is checked and written as one step.
type Store struct {
	data *xsync.Map[string, []byte]
	mu   sync.Mutex
}

// New returns an empty store.
func New() *Store {
	return &Store{data: xsync.NewMap[string, []byte]()}
}

func (s *Store) Get(_ context.Context, entity entities.Entity, id string) ([]byte, bool, error) {
	v, ok := s.data.Load(entity.Key("", id))
	return v, ok, nil
}

func (s *Store) Apply(ctx context.Context, writes []db.Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range writes {
		if !w.CreateOnly {
			continue
		}
		key := w.Entity.Key("", w.ID)
		if _, exists := s.data.Load(key); exists {
			return fmt.Errorf("%s: %w", key, db.ErrAlreadyExists)
		}
	}
	for _, w := range writes {
		s.data.Store(w.Entity.Key("", w.ID), w.Value)
	}
	return nil
}

// Len returns the number of stored entities of a kind.
func (s *Store) Len(entity entities.Entity) int {
	prefix := entity.Key("", "")
	n := 0
	s.data.Range(func(key string, _ []byte) bool {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			n++
		}
		return true
	})
	return n
}

func (s *Store) Close() error {
	return nil
}
