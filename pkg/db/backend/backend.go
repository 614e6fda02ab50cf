// Package backend selects the entity store from the environment.
package backend

import (
	"fmt"

	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/kv"
	"github.com/canopy-network/ammx/pkg/db/memory"
	"github.com/canopy-network/ammx/pkg/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	Redis  = "redis"
	Memory = "memory"
)

// Open returns the store named by STORE_BACKEND. The redis backend shares client with the
// stream consumer and keys entities under REDIS_KEY_PREFIX.
func Open(logger *zap.Logger, client redis.UniversalClient) (db.Store, error) {
	switch name := utils.Env("STORE_BACKEND", Redis); name {
	case Redis:
		if client == nil {
			return nil, fmt.Errorf("store backend %q needs a redis client", name)
		}
		return kv.New(logger, client, utils.Env("REDIS_KEY_PREFIX", kv.DefaultKeyPrefix)), nil
	case Memory:
		logger.Warn("Using in-memory store, state is lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", name)
	}
}
