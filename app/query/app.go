package query

import (
	"context"

	"github.com/canopy-network/ammx/app/query/types"
	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/backend"
	"github.com/canopy-network/ammx/pkg/db/clickhouse"
	evtypes "github.com/canopy-network/ammx/pkg/indexer/types"
	"github.com/canopy-network/ammx/pkg/logging"
	"github.com/canopy-network/ammx/pkg/redis"
	"github.com/canopy-network/ammx/pkg/temporal"
	"github.com/canopy-network/ammx/pkg/utils"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New("query")
	if err != nil {
		// nothing else to do here, we'll just log to stderr'
		panic(err)
	}

	// The memory backend runs without redis; the websocket feed is disabled then.
	var redisClient *redis.Client
	var universal goredis.UniversalClient
	if utils.Env("STORE_BACKEND", backend.Redis) == backend.Redis {
		redisClient, err = redis.NewClient(ctx, logger)
		if err != nil {
			logger.Fatal("Unable to connect to redis", zap.Error(err))
		}
		universal = redisClient.GetClient()
	} else {
		logger.Info("Redis disabled - WebSocket real-time events will not be available")
	}

	store, err := backend.Open(logger, universal)
	if err != nil {
		logger.Fatal("Unable to open entity store", zap.Error(err))
	}

	app := &types.App{
		Repository:   db.NewRepository(logger, store),
		Store:        store,
		RedisClient:  redisClient,
		SwapsChannel: utils.Env("SWAPS_CHANNEL", evtypes.GetChannel("ammx", evtypes.SwapIndexedEventName)),
		Logger:       logger,
	}

	if utils.EnvBool("CLICKHOUSE_ENABLED", false) {
		client, err := clickhouse.New(ctx, logger, utils.Env("CLICKHOUSE_DB", "ammx"), clickhouse.GetPoolConfigForComponent("query"))
		if err != nil {
			logger.Fatal("Unable to connect to clickhouse", zap.Error(err))
		}
		app.ClickHouse = &client
		app.Swaps = app.ClickHouse
	} else {
		logger.Info("ClickHouse disabled - swap history will not be available")
	}

	if utils.EnvBool("TEMPORAL_ENABLED", false) {
		temporalClient, err := temporal.NewClient(ctx, logger)
		if err != nil {
			logger.Fatal("Unable to establish temporal connection", zap.Error(err))
		}
		app.TemporalClient = temporalClient
		app.Backfill = temporalClient
	}

	if secret := utils.Env("JWT_SECRET", ""); secret != "" {
		app.JWTSecret = []byte(secret)
	}
	if token := utils.Env("ADMIN_TOKEN", ""); token != "" {
		hash, err := utils.HashOrRead(token)
		if err != nil {
			logger.Fatal("Unable to hash admin token", zap.Error(err))
		}
		app.AdminTokenHash = hash
	}
	if app.JWTSecret == nil && app.AdminTokenHash == nil {
		logger.Warn("No JWT_SECRET or ADMIN_TOKEN set - admin routes will reject every request")
	}

	return app
}
