package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/canopy-network/ammx/pkg/db/models/amm"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RowWriter inserts rows into a table. *Client implements it.
type RowWriter interface {
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) error
}

// buffer holds pending rows of one table, keeping only the latest row per id.
type buffer struct {
	columns []string
	rows    [][]any
	index   map[string]int
}

func (b *buffer) put(id string, row []any) {
	if i, ok := b.index[id]; ok {
		b.rows[i] = row
		return
	}
	b.index[id] = len(b.rows)
	b.rows = append(b.rows, row)
}

func (b *buffer) drain() [][]any {
	rows := b.rows
	b.rows = nil
	b.index = map[string]int{}
	return rows
}

// Sink mirrors committed swaps, conversions, liquidity history and candlesticks into ClickHouse.
// Rows are buffered and flushed when a table reaches BatchSize or on the cron schedule.
type Sink struct {
	logger    *zap.Logger
	writer    RowWriter
	batchSize int

	mu      sync.Mutex
	buffers map[entities.Entity]*buffer

	cron *cron.Cron
}

// NewSink returns a sink writing through w.
func NewSink(logger *zap.Logger, w RowWriter, batchSize int) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	buffers := make(map[entities.Entity]*buffer, len(mirroredTables))
	for _, t := range mirroredTables {
		buffers[t.entity] = &buffer{
			columns: amm.ColumnsToNameList(t.columns),
			index:   map[string]int{},
		}
	}
	return &Sink{
		logger:    logger.Named("clickhouse.sink"),
		writer:    w,
		batchSize: batchSize,
		buffers:   buffers,
	}
}

// Record buffers the mirrored writes of one commit. Entity kinds that are not mirrored are
// ignored.
func (s *Sink) Record(ctx context.Context, writes []db.Write) error {
	full := make([]entities.Entity, 0)

	s.mu.Lock()
	for _, w := range writes {
		row, ok := toRow(w.Model)
		if !ok {
			continue
		}
		b := s.buffers[w.Entity]
		if b == nil {
			continue
		}
		b.put(w.ID, row)
		if len(b.rows) >= s.batchSize {
			full = append(full, w.Entity)
		}
	}
	s.mu.Unlock()

	var errs []error
	for _, entity := range full {
		if err := s.flushTable(ctx, entity); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush writes every buffered row.
func (s *Sink) Flush(ctx context.Context) error {
	var errs []error
	for _, t := range mirroredTables {
		if err := s.flushTable(ctx, t.entity); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Sink) flushTable(ctx context.Context, entity entities.Entity) error {
	s.mu.Lock()
	b := s.buffers[entity]
	rows := b.drain()
	columns := b.columns
	s.mu.Unlock()

	if len(rows) == 0 {
		return nil
	}

	start := time.Now()
	if err := s.writer.InsertRows(ctx, entity.TableName(), columns, rows); err != nil {
		s.requeue(entity, rows)
		return fmt.Errorf("flush %s: %w", entity, err)
	}
	s.logger.Debug("Flushed rows",
		zap.String("table", entity.TableName()),
		zap.Int("rows", len(rows)),
		zap.Duration("took", time.Since(start)))
	return nil
}

// requeue puts rows back in front of anything buffered since the failed flush.
func (s *Sink) requeue(entity entities.Entity, rows [][]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buffers[entity]
	newer := b.drain()
	for _, row := range rows {
		b.put(row[0].(string), row)
	}
	for _, row := range newer {
		b.put(row[0].(string), row)
	}
}

// Pending returns the number of buffered rows of a table.
func (s *Sink) Pending(entity entities.Entity) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.buffers[entity]; b != nil {
		return len(b.rows)
	}
	return 0
}

// Start flushes on the given cron spec (seconds field included).
func (s *Sink) Start(ctx context.Context, spec string) error {
	s.cron = cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	_, err := s.cron.AddFunc(spec, func() {
		// keep each run bounded
		rctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := s.Flush(rctx); err != nil {
			s.logger.Warn("Scheduled flush failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule sink flush %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.Info("Sink flush scheduled", zap.String("cronSpec", spec))
	return nil
}

// Stop stops the schedule and flushes what is left.
func (s *Sink) Stop(ctx context.Context) error {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	return s.Flush(ctx)
}

// toRow maps a mirrored model to its column values. The id is always the first column.
func toRow(model any) ([]any, bool) {
	switch m := model.(type) {
	case *amm.Swap:
		return []any{
			m.ID, m.Transaction, m.LogIndex, m.BlockNumber, m.Timestamp,
			m.LiquidityPool, m.FromToken, m.ToToken,
			m.FromAmount, m.ToAmount, m.LpFee, m.ProtocolFee, m.Rate,
			m.Trader, m.User,
		}, true
	case *amm.Conversion:
		return []any{
			m.ID, m.Transaction, m.BlockNumber, m.Timestamp, m.EmittedBy,
			m.FromToken, m.ToToken, m.Trader,
			bigOrZero(m.Amount), bigOrZero(m.Return), bigOrZero(m.ConversionFee), bigOrZero(m.ProtocolFee),
		}, true
	case *amm.UserLiquidityHistory:
		return []any{
			m.ID, m.User, string(m.Type), m.Provider, m.ReserveToken,
			m.Amount, m.NewBalance, m.NewSupply,
			m.Transaction, m.Timestamp, m.EmittedBy, m.LiquidityPool, m.LiquidityPoolToken,
		}, true
	case *amm.Candlestick:
		return []any{
			m.ID, m.BaseToken, m.QuoteToken, string(m.Interval), m.PeriodStartUnix,
			m.Open, m.High, m.Low, m.Close, m.BaseVolume, m.QuoteVolume, m.TxCount,
		}, true
	default:
		return nil, false
	}
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
