package processor

import (
	"context"

	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/canopy-network/ammx/pkg/db/models/amm"
	"github.com/canopy-network/ammx/pkg/indexer/types"
	"github.com/shopspring/decimal"
)

// createSwap stages the swap and the raw conversion row. A swap that already exists means the
// event was applied before.
func (p *Processor) createSwap(ctx context.Context, u *unit, raw *types.Conversion, record types.ConversionEvent) (*amm.Swap, error) {
	id := amm.EventID(record.TxHash, record.LogIndex)

	rate := decimal.Zero
	if !record.FromAmount.IsZero() {
		rate = record.ToAmount.DivRound(record.FromAmount, amm.PricePrecision)
	}
	swap := &amm.Swap{
		ID:            id,
		Transaction:   record.Transaction,
		LogIndex:      uint32(record.LogIndex),
		BlockNumber:   record.BlockNumber,
		Timestamp:     record.Timestamp,
		LiquidityPool: record.LiquidityPool,
		FromToken:     record.FromToken,
		ToToken:       record.ToToken,
		FromAmount:    record.FromAmount,
		ToAmount:      record.ToAmount,
		LpFee:         record.ConversionFee,
		ProtocolFee:   record.ProtocolFee,
		Rate:          rate,
		Trader:        record.Trader,
		User:          record.User,
	}
	if err := db.Create(ctx, u.Session, entities.Swaps, id, swap); err != nil {
		if db.IsAlreadyExists(err) {
			return nil, replayed("swap " + id + " already recorded")
		}
		return nil, err
	}

	conversion := &amm.Conversion{
		ID:            id,
		Transaction:   record.Transaction,
		BlockNumber:   record.BlockNumber,
		Timestamp:     record.Timestamp,
		EmittedBy:     record.LiquidityPool,
		FromToken:     record.FromToken,
		ToToken:       record.ToToken,
		Trader:        record.Trader,
		Amount:        raw.Amount,
		Return:        raw.Return,
		ConversionFee: raw.ConversionFee,
		ProtocolFee:   raw.ProtocolFee,
	}
	if err := db.Create(ctx, u.Session, entities.Conversions, id, conversion); err != nil {
		if db.IsAlreadyExists(err) {
			return nil, replayed("conversion " + id + " already recorded")
		}
		return nil, err
	}
	return swap, nil
}
