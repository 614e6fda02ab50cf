// Package kv persists entities in Redis, one JSON value per key.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultKeyPrefix namespaces every key written by the store.
const DefaultKeyPrefix = "ammx"

// applyScript checks the first ARGV[1] keys for existence and, only when none exists, sets every
// key to its value. It returns the first colliding key or an empty string.
const applyScript = `
local creates = tonumber(ARGV[1])
for i = 1, creates do
	if redis.call('EXISTS', KEYS[i]) == 1 then
		return KEYS[i]
	end
end
for i = 1, #KEYS do
	redis.call('SET', KEYS[i], ARGV[i + 1])
end
return ''
`

// Store is a db.Store backed by Redis.
type Store struct {
	client redis.UniversalClient
	prefix string
	logger *zap.Logger
}

// New returns a store writing keys under prefix. The prefix is wrapped in a hash tag unless it
// already carries one, so every key maps to one cluster slot and the apply script stays legal
// on Redis Cluster.
func New(logger *zap.Logger, client redis.UniversalClient, prefix string) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: hashTag(prefix), logger: logger}
}

func hashTag(prefix string) string {
	if strings.Contains(prefix, "{") {
		return prefix
	}
	return "{" + prefix + "}"
}

func (s *Store) key(entity entities.Entity, id string) string {
	return entity.Key(s.prefix, id)
}

func (s *Store) Get(ctx context.Context, entity entities.Entity, id string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, s.key(entity, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", s.key(entity, id), err)
	}
	return v, true, nil
}

// Apply writes the batch. Plain upserts go through a MULTI/EXEC pipeline; batches carrying
// create-only writes run as one script so a collision leaves every key untouched.
func (s *Store) Apply(ctx context.Context, writes []db.Write) error {
	if len(writes) == 0 {
		return nil
	}

	creates := 0
	for _, w := range writes {
		if w.CreateOnly {
			creates++
		}
	}
	if creates == 0 {
		return s.applyPipeline(ctx, writes)
	}
	return s.applyScript(ctx, writes, creates)
}

func (s *Store) applyPipeline(ctx context.Context, writes []db.Write) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, w := range writes {
			pipe.Set(ctx, s.key(w.Entity, w.ID), string(w.Value), 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis pipeline of %d writes: %w", len(writes), err)
	}
	return nil
}

func (s *Store) applyScript(ctx context.Context, writes []db.Write, creates int) error {
	keys := make([]string, 0, len(writes))
	args := make([]interface{}, 0, len(writes)+1)
	args = append(args, creates)

	// Create-only writes lead so the script can check them by position.
	for _, w := range writes {
		if w.CreateOnly {
			keys = append(keys, s.key(w.Entity, w.ID))
			args = append(args, string(w.Value))
		}
	}
	for _, w := range writes {
		if !w.CreateOnly {
			keys = append(keys, s.key(w.Entity, w.ID))
			args = append(args, string(w.Value))
		}
	}

	collided, err := s.client.Eval(ctx, applyScript, keys, args...).Text()
	if err != nil {
		return fmt.Errorf("redis apply of %d writes: %w", len(writes), err)
	}
	if collided != "" {
		s.logger.Debug("create-only write collided", zap.String("key", collided))
		return fmt.Errorf("%s: %w", collided, db.ErrAlreadyExists)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
