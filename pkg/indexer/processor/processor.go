// Package processor folds decoded converter events into the entity graph.
//
// Each event runs against its own unit of work: handlers read entities by deterministic id,
// stage their writes and the processor commits them atomically. A handler that finds a missing
// dependency returns a skip, which discards every staged write of the event.
package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/models/amm"
	"github.com/canopy-network/ammx/pkg/indexer/types"
	"github.com/canopy-network/ammx/pkg/rpc"
	"go.uber.org/zap"
)

// Publisher receives swaps once their unit of work is committed.
type Publisher interface {
	PublishSwap(ctx context.Context, swap *amm.Swap)
}

// Config wires a Processor.
type Config struct {
	Logger     *zap.Logger
	Repository *db.Repository
	Oracle     rpc.Oracle
	Publisher  Publisher
	// Concurrency bounds the contract reads issued in parallel during activation.
	Concurrency int
}

// unit is the per-event state shared by the steps of a handler.
type unit struct {
	*db.Session
	swaps []*amm.Swap
}

type handlerFunc func(ctx context.Context, u *unit, ev types.Event) error

// Processor dispatches events to their handler. Handle calls are serialized, so the live stream
// and a backfill share one fold; each source must still deliver its events in chain order.
type Processor struct {
	mu sync.Mutex

	logger    *zap.Logger
	repo      *db.Repository
	oracle    rpc.Oracle
	publisher Publisher
	workers   pond.Pool

	handlers map[types.EventKind]handlerFunc
}

// New returns a processor with the full dispatch table.
func New(cfg Config) *Processor {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	p := &Processor{
		logger:    logger.Named("processor"),
		repo:      cfg.Repository,
		oracle:    cfg.Oracle,
		publisher: cfg.Publisher,
		workers:   pond.NewPool(concurrency),
	}
	p.handlers = map[types.EventKind]handlerFunc{
		types.KindNewConverter:              p.handleNewConverter,
		types.KindOwnerUpdate:               p.handleOwnerUpdate,
		types.KindLiquidityAdded:            p.handleLiquidity,
		types.KindLiquidityRemoved:          p.handleLiquidity,
		types.KindActivation:                p.handleActivation,
		types.KindConversionV1:              p.handleConversion,
		types.KindConversionV2:              p.handleConversion,
		types.KindConversionWithProtocolFee: p.handleConversion,
		types.KindWithdrawFees:              p.handleWithdrawFees,
	}
	return p
}

// Close stops the worker pool.
func (p *Processor) Close() {
	p.workers.StopAndWait()
}

// Handle applies one event. Only storage errors are returned; the event should then be
// redelivered. Dropped and already applied events return nil.
func (p *Processor) Handle(ctx context.Context, ev types.Event) error {
	ec := ev.Context()
	logger := p.logger.With(
		zap.String("event", string(ev.Kind())),
		zap.String("tx", ec.TxHash.Hex()),
		zap.Uint("logIndex", ec.LogIndex),
		zap.Uint64("block", ec.BlockNumber),
	)

	handler, ok := p.handlers[ev.Kind()]
	if !ok {
		logger.Debug("No handler for event")
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	u := &unit{Session: p.repo.Begin()}
	if err := handler(ctx, u, ev); err != nil {
		u.Discard()
		var skip *skipError
		if errors.As(err, &skip) {
			if skip.replay {
				logger.Warn("Event already applied, skipping", zap.String("reason", skip.reason))
			} else {
				logger.Debug("Event dropped", zap.String("reason", skip.reason))
			}
			return nil
		}
		return fmt.Errorf("handle %s: %w", ev.Kind(), err)
	}

	staged := u.Pending()
	if err := u.Commit(ctx); err != nil {
		if db.IsAlreadyExists(err) {
			logger.Warn("Event already applied, skipping", zap.Error(err))
			return nil
		}
		return fmt.Errorf("commit %s: %w", ev.Kind(), err)
	}
	logger.Debug("Event applied", zap.Int("writes", staged))

	if p.publisher != nil {
		for _, swap := range u.swaps {
			p.publisher.PublishSwap(ctx, swap)
		}
	}
	return nil
}

// skipError ends a handler without writing anything.
type skipError struct {
	reason string
	replay bool
}

func (e *skipError) Error() string { return e.reason }

func drop(reason string) error {
	return &skipError{reason: reason}
}

func replayed(reason string) error {
	return &skipError{reason: reason, replay: true}
}
