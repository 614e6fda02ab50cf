package indexer

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/canopy-network/ammx/app/indexer/activity"
	"github.com/canopy-network/ammx/app/indexer/workflow"
	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/backend"
	"github.com/canopy-network/ammx/pkg/db/clickhouse"
	"github.com/canopy-network/ammx/pkg/indexer/decoder"
	"github.com/canopy-network/ammx/pkg/indexer/processor"
	evtypes "github.com/canopy-network/ammx/pkg/indexer/types"
	"github.com/canopy-network/ammx/pkg/logging"
	"github.com/canopy-network/ammx/pkg/redis"
	"github.com/canopy-network/ammx/pkg/rpc"
	"github.com/canopy-network/ammx/pkg/temporal"
	"github.com/canopy-network/ammx/pkg/temporal/indexer"
	"github.com/canopy-network/ammx/pkg/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	sdkactivity "go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	temporalworkflow "go.temporal.io/sdk/workflow"
	"go.uber.org/zap"
)

type App struct {
	Consumer       *redis.StreamConsumer
	Worker         worker.Worker
	TemporalClient *temporal.Client
	RedisClient    *redis.Client
	EthClient      *ethclient.Client
	Store          db.Store
	Sink           *clickhouse.Sink
	ClickHouse     *clickhouse.Client
	Processor      *processor.Processor
	FetchPool      pond.Pool
	Activities     *activity.Context
	Logger         *zap.Logger
}

// Start runs the stream consumer (and the backfill worker when enabled) until the context is
// canceled.
func (a *App) Start(ctx context.Context) {
	if a.Worker != nil {
		if err := a.Worker.Start(); err != nil {
			a.Logger.Fatal("Unable to start worker", zap.Error(err))
		}
	}

	err := a.Consumer.Run(ctx, a.Activities.HandleStreamMessage)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error("Stream consumer stopped", zap.Error(err))
	}
	a.Stop()
}

// Stop releases every resource in reverse dependency order.
func (a *App) Stop() {
	if a.Worker != nil {
		a.Worker.Stop()
	}
	a.Processor.Close()
	a.FetchPool.StopAndWait()

	if a.Sink != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := a.Sink.Stop(ctx); err != nil {
			a.Logger.Warn("Final sink flush failed", zap.Error(err))
		}
		cancel()
		_ = a.ClickHouse.Close()
	}
	if a.TemporalClient != nil {
		a.TemporalClient.Close()
	}
	_ = a.Store.Close()
	_ = a.RedisClient.Close()
	a.EthClient.Close()
	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}

// Initialize initializes the application.
func Initialize(ctx context.Context) *App {
	logger, err := logging.New("indexer")
	if err != nil {
		// nothing else to do here, we'll just log to stderr'
		panic(err)
	}

	redisClient, err := redis.NewClient(ctx, logger)
	if err != nil {
		logger.Fatal("Unable to connect to redis", zap.Error(err))
	}

	store, err := backend.Open(logger, redisClient.GetClient())
	if err != nil {
		logger.Fatal("Unable to open entity store", zap.Error(err))
	}

	var sinks []db.Sink
	var sink *clickhouse.Sink
	var chClient *clickhouse.Client
	if utils.EnvBool("CLICKHOUSE_ENABLED", false) {
		client, err := clickhouse.New(ctx, logger, utils.Env("CLICKHOUSE_DB", "ammx"), clickhouse.GetPoolConfigForComponent("indexer"))
		if err != nil {
			logger.Fatal("Unable to connect to clickhouse", zap.Error(err))
		}
		if err := client.InitTables(ctx); err != nil {
			logger.Fatal("Unable to initialize clickhouse tables", zap.Error(err))
		}
		chClient = &client
		sink = clickhouse.NewSink(logger, chClient, utils.EnvInt("SINK_BATCH_SIZE", 1000))
		if err := sink.Start(ctx, utils.Env("SINK_FLUSH_CRON", "*/5 * * * * *")); err != nil {
			logger.Fatal("Unable to schedule sink flush", zap.Error(err))
		}
		sinks = append(sinks, sink)
	}

	rpcURLs := utils.EnvList("RPC_URL")
	if len(rpcURLs) == 0 {
		rpcURLs = []string{"http://localhost:4444"}
	}
	ethClient, err := rpc.DialEth(ctx, logger, rpcURLs, utils.EnvDuration("RPC_TIMEOUT", 15*time.Second))
	if err != nil {
		logger.Fatal("Unable to dial RPC", zap.Strings("urls", rpcURLs), zap.Error(err))
	}

	concurrency := utils.EnvInt("RPC_CONCURRENCY", 4)
	proc := processor.New(processor.Config{
		Logger:      logger,
		Repository:  db.NewRepository(logger, store, sinks...),
		Oracle:      rpc.NewEthOracle(logger, ethClient),
		Publisher:   redis.NewSwapPublisher(redisClient, utils.Env("SWAPS_CHANNEL", evtypes.GetChannel("ammx", evtypes.SwapIndexedEventName))),
		Concurrency: concurrency,
	})

	var addresses []common.Address
	for _, addr := range utils.EnvList("CONTRACT_ADDRESSES") {
		if !common.IsHexAddress(addr) {
			logger.Fatal("Invalid contract address", zap.String("address", addr))
		}
		addresses = append(addresses, common.HexToAddress(addr))
	}

	fetchPool := pond.NewPool(concurrency * 4)
	activityContext := &activity.Context{
		Logger:    logger,
		Source:    ethClient,
		Addresses: addresses,
		Decoder:   decoder.New(),
		Processor: proc,
		FetchPool: fetchPool,
	}

	hostname, _ := os.Hostname()
	consumer, err := redis.NewStreamConsumer(redisClient, redis.StreamConsumerConfig{
		Stream:   utils.Env("EVENTS_STREAM", "ammx:events"),
		Group:    utils.Env("EVENTS_GROUP", "ammx-indexer"),
		Consumer: utils.Env("EVENTS_CONSUMER", hostname),
		Count:    100,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("Unable to create stream consumer", zap.Error(err))
	}

	app := &App{
		Consumer:    consumer,
		RedisClient: redisClient,
		EthClient:   ethClient,
		Store:       store,
		Sink:        sink,
		ClickHouse:  chClient,
		Processor:   proc,
		FetchPool:   fetchPool,
		Activities:  activityContext,
		Logger:      logger,
	}

	if utils.EnvBool("TEMPORAL_ENABLED", false) {
		temporalClient, err := temporal.NewClient(ctx, logger)
		if err != nil {
			logger.Fatal("Unable to establish temporal connection", zap.Error(err))
		}
		workflowContext := workflow.Context{TemporalClient: temporalClient}

		// a single poller keeps backfill batches from interleaving with each other
		wkr := worker.New(
			temporalClient.TClient,
			temporalClient.BackfillQueue,
			worker.Options{
				MaxConcurrentWorkflowTaskPollers:   1,
				MaxConcurrentActivityTaskPollers:   1,
				MaxConcurrentActivityExecutionSize: 1,
				WorkerStopTimeout:                  1 * time.Minute,
			},
		)
		wkr.RegisterWorkflowWithOptions(
			workflowContext.BackfillWorkflow,
			temporalworkflow.RegisterOptions{Name: indexer.BackfillWorkflowName},
		)
		wkr.RegisterActivityWithOptions(activityContext.GetChainHead, sdkactivity.RegisterOptions{Name: indexer.ChainHeadActivity})
		wkr.RegisterActivityWithOptions(activityContext.FetchLogs, sdkactivity.RegisterOptions{Name: indexer.FetchLogsActivity})
		wkr.RegisterActivityWithOptions(activityContext.ApplyLogs, sdkactivity.RegisterOptions{Name: indexer.ApplyLogsActivity})

		app.TemporalClient = temporalClient
		app.Worker = wkr
	}

	return app
}
