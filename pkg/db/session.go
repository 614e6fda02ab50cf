package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/canopy-network/ammx/pkg/db/entities"
	"go.uber.org/zap"
)

// Repository hands out units of work over a Store and fans committed writes out to sinks.
type Repository struct {
	Store  Store
	Sinks  []Sink
	Logger *zap.Logger
}

// NewRepository returns a repository over store.
func NewRepository(logger *zap.Logger, store Store, sinks ...Sink) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{Store: store, Sinks: sinks, Logger: logger}
}

// Begin starts a unit of work.
func (r *Repository) Begin() *Session {
	return &Session{
		repo:    r,
		entries: map[string]*entry{},
	}
}

type entry struct {
	entity     entities.Entity
	id         string
	model      any
	dirty      bool
	createOnly bool
}

// Session buffers the reads and writes of one event. Loaded entities are cached so every
// handler step sees the same instance, and nothing reaches the store before Commit.
type Session struct {
	repo    *Repository
	entries map[string]*entry
	order   []string
}

func sessionKey(entity entities.Entity, id string) string {
	return entity.Key("", id)
}

// Load returns the entity with the given id, or ok=false when it does not exist. Staged writes
// of the session are visible.
func Load[T any](ctx context.Context, s *Session, entity entities.Entity, id string) (*T, bool, error) {
	key := sessionKey(entity, id)
	if e, ok := s.entries[key]; ok {
		if e.model == nil {
			return nil, false, nil
		}
		v, ok := e.model.(*T)
		if !ok {
			return nil, false, fmt.Errorf("load %s: cached model is %T", key, e.model)
		}
		return v, true, nil
	}

	raw, found, err := s.repo.Store.Get(ctx, entity, id)
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", key, err)
	}
	if !found {
		s.entries[key] = &entry{entity: entity, id: id}
		return nil, false, nil
	}

	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", key, err)
	}
	s.entries[key] = &entry{entity: entity, id: id, model: v}
	return v, true, nil
}

// Save stages an upsert of v.
func Save[T any](s *Session, entity entities.Entity, id string, v *T) {
	key := sessionKey(entity, id)
	e, ok := s.entries[key]
	if !ok {
		e = &entry{entity: entity, id: id}
		s.entries[key] = e
	}
	e.model = v
	if !e.dirty {
		e.dirty = true
		s.order = append(s.order, key)
	}
}

// Create stages an insert of v that must not overwrite an existing entity. It returns
// ErrAlreadyExists when the id is already stored or staged.
func Create[T any](ctx context.Context, s *Session, entity entities.Entity, id string, v *T) error {
	_, exists, err := Load[T](ctx, s, entity, id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("create %s: %w", sessionKey(entity, id), ErrAlreadyExists)
	}
	Save(s, entity, id, v)
	s.entries[sessionKey(entity, id)].createOnly = true
	return nil
}

// Pending returns the number of staged writes.
func (s *Session) Pending() int {
	return len(s.order)
}

// Commit writes every staged entity in one atomic Apply and forwards the writes to the sinks.
// Sink failures are logged; the store is the source of truth.
func (s *Session) Commit(ctx context.Context) error {
	if len(s.order) == 0 {
		return nil
	}

	writes := make([]Write, 0, len(s.order))
	for _, key := range s.order {
		e := s.entries[key]
		value, err := json.Marshal(e.model)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		writes = append(writes, Write{
			Entity:     e.entity,
			ID:         e.id,
			Value:      value,
			Model:      e.model,
			CreateOnly: e.createOnly,
		})
	}

	if err := s.repo.Store.Apply(ctx, writes); err != nil {
		return fmt.Errorf("commit %d writes: %w", len(writes), err)
	}
	s.reset()

	for _, sink := range s.repo.Sinks {
		if err := sink.Record(ctx, writes); err != nil {
			s.repo.Logger.Warn("sink rejected committed writes",
				zap.Int("writes", len(writes)),
				zap.Error(err))
		}
	}
	return nil
}

// Discard drops every staged write.
func (s *Session) Discard() {
	s.reset()
}

func (s *Session) reset() {
	s.entries = map[string]*entry{}
	s.order = nil
}

// IsAlreadyExists reports whether err is a create-only collision.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}
