package processor

import (
	"context"
	"errors"

	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/canopy-network/ammx/pkg/db/models/amm"
	"github.com/canopy-network/ammx/pkg/indexer/types"
	"github.com/shopspring/decimal"
)

func (p *Processor) handleConversion(ctx context.Context, u *unit, ev types.Event) error {
	e := ev.(*types.Conversion)
	ec := e.Ctx

	pool, ok, err := loadPool(ctx, u, ec.Emitter)
	if err != nil {
		return err
	}
	if !ok {
		return drop("liquidity pool " + amm.AddressID(ec.Emitter) + " not found")
	}
	from, ok, err := loadToken(ctx, u, e.FromToken)
	if err != nil {
		return err
	}
	if !ok {
		return drop("from token " + amm.AddressID(e.FromToken) + " not found")
	}
	to, ok, err := loadToken(ctx, u, e.ToToken)
	if err != nil {
		return err
	}
	if !ok {
		return drop("to token " + amm.AddressID(e.ToToken) + " not found")
	}

	// V1 and V2 share a topic; only the pool type tells them apart.
	if e.Variant == types.KindConversionV1 && pool.Type == amm.ConverterTypeV2 {
		e.Variant = types.KindConversionV2
	}

	tx, err := p.recordTransaction(ctx, u, ec)
	if err != nil {
		return err
	}

	record := normalizeConversion(e, tx, pool, from, to)
	return p.processConversion(ctx, u, e, record, pool)
}

// normalizeConversion folds any conversion variant into the canonical record. Fees are scaled
// with the to-token decimals; a missing protocol fee is zero.
func normalizeConversion(e *types.Conversion, tx *amm.Transaction, pool *amm.LiquidityPool, from, to *amm.Token) types.ConversionEvent {
	protocolFee := decimal.Zero
	if e.ProtocolFee != nil {
		protocolFee = amm.Decimalize(e.ProtocolFee, to.Decimals)
	}
	return types.ConversionEvent{
		Transaction:   tx.ID,
		TxHash:        e.Ctx.TxHash,
		LogIndex:      e.Ctx.LogIndex,
		BlockNumber:   e.Ctx.BlockNumber,
		Timestamp:     e.Ctx.BlockTime,
		LiquidityPool: pool.ID,
		FromToken:     from.ID,
		ToToken:       to.ID,
		FromAmount:    amm.Decimalize(e.Amount, from.Decimals),
		ToAmount:      amm.Decimalize(e.Return, to.Decimals),
		Trader:        amm.AddressID(e.Trader),
		User:          tx.From,
		ConversionFee: amm.Decimalize(e.ConversionFee, to.Decimals),
		ProtocolFee:   protocolFee,
	}
}

// processConversion applies every consequence of a swap. The swap row is created first and
// guards the rest against redelivery.
func (p *Processor) processConversion(ctx context.Context, u *unit, raw *types.Conversion, record types.ConversionEvent, pool *amm.LiquidityPool) error {
	swap, err := p.createSwap(ctx, u, raw, record)
	if err != nil {
		return err
	}

	market := errors.Join(
		p.updatePairPrice(ctx, u, record),
		p.updateVolumes(ctx, u, record),
		p.updateCandlesticks(ctx, u, record),
	)
	applyBalances(u, pool, record)
	if err := errors.Join(market, p.updateTotals(ctx, u, record)); err != nil {
		return err
	}

	u.swaps = append(u.swaps, swap)
	return nil
}

// applyBalances moves the traded amounts through the pool ledger.
func applyBalances(u *unit, pool *amm.LiquidityPool, record types.ConversionEvent) {
	pool.IncrementBalance(record.FromToken, record.FromAmount)
	pool.DecrementBalance(record.ToToken, record.ToAmount)
	db.Save(u.Session, entities.LiquidityPools, pool.ID, pool)
}
