package types

import (
	"context"
	"net/http"
	"time"

	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/clickhouse"
	"github.com/canopy-network/ammx/pkg/db/models/amm"
	"github.com/canopy-network/ammx/pkg/redis"
	"github.com/canopy-network/ammx/pkg/temporal"
	"github.com/canopy-network/ammx/pkg/temporal/indexer"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

// SwapQuerier pages through the swap history of a pool.
type SwapQuerier interface {
	QuerySwapsByPool(ctx context.Context, pool string, cursor uint64, limit int) ([]amm.Swap, error)
}

// BackfillStarter starts backfill workflows.
type BackfillStarter interface {
	StartBackfill(ctx context.Context, in indexer.BackfillInput) (client.WorkflowRun, error)
}

type App struct {
	// Repository reads entities from the same store the indexer writes.
	Repository *db.Repository
	Store      db.Store

	// RedisClient feeds the websocket swap stream. Nil when redis is not used.
	RedisClient  *redis.Client
	SwapsChannel string

	// ClickHouse backs swap history. Swaps is nil when it is disabled.
	ClickHouse *clickhouse.Client
	Swaps      SwapQuerier

	// TemporalClient backs the admin backfill route. Backfill is nil when it is disabled.
	TemporalClient *temporal.Client
	Backfill       BackfillStarter

	// JWTSecret verifies HS256 bearer tokens on admin routes.
	JWTSecret []byte
	// AdminTokenHash is the bcrypt hash of the static admin token.
	AdminTokenHash []byte

	// Zap Logger
	Logger *zap.Logger
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
}

// Start starts the application.
func (a *App) Start(ctx context.Context) {
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Error("Server stopped", zap.Error(err))
		}
	}()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = a.Server.Shutdown(shutdownCtx)

	if a.ClickHouse != nil {
		if err := a.ClickHouse.Close(); err != nil {
			a.Logger.Error("Failed to close clickhouse connection", zap.Error(err))
		}
	}
	if a.TemporalClient != nil {
		a.TemporalClient.Close()
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.Error("Failed to close entity store", zap.Error(err))
	}
	if a.RedisClient != nil {
		_ = a.RedisClient.Close()
	}

	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}
