package db

import (
	"context"
	"errors"

	"github.com/canopy-network/ammx/pkg/db/entities"
)

// ErrAlreadyExists is returned when a create-only write targets an id that is already stored.
var ErrAlreadyExists = errors.New("entity already exists")

// Write is one staged mutation. Value is the encoded entity; Model is the typed value it was
// encoded from, handed to sinks so they do not decode again.
type Write struct {
	Entity entities.Entity
	ID     string
	Value  []byte
	Model  any

	// CreateOnly rejects the whole batch when the id already exists.
	CreateOnly bool
}

// Store is the key-value persistence port of the indexer.
type Store interface {
	// Get returns the encoded entity and whether it exists.
	Get(ctx context.Context, entity entities.Entity, id string) ([]byte, bool, error)
	// Apply persists all writes atomically. If any create-only write collides with a stored id
	// nothing is written and an error wrapping ErrAlreadyExists is returned.
	Apply(ctx context.Context, writes []Write) error
	Close() error
}

// Sink receives the writes of every committed unit of work, in commit order.
type Sink interface {
	Record(ctx context.Context, writes []Write) error
}
