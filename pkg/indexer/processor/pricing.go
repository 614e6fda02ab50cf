package processor

import (
	"context"

	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/canopy-network/ammx/pkg/db/models/amm"
	"github.com/canopy-network/ammx/pkg/indexer/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// grossReturn is what the pool paid out before fees were taken.
func grossReturn(record types.ConversionEvent) decimal.Decimal {
	return record.ToAmount.Add(record.ConversionFee).Add(record.ProtocolFee)
}

// swapPrice returns the base price implied by record for its pair.
func swapPrice(record types.ConversionEvent) (base, quote string, price decimal.Decimal, ok bool) {
	base, quote = amm.PairKey(record.FromToken, record.ToToken)
	price, ok = amm.BasePrice(record.FromToken, base, record.FromAmount, grossReturn(record))
	return base, quote, price, ok
}

func (p *Processor) updatePairPrice(ctx context.Context, u *unit, record types.ConversionEvent) error {
	base, quote, price, ok := swapPrice(record)
	if !ok {
		p.logger.Debug("price undefined, pair price not updated",
			zap.String("pool", record.LiquidityPool),
			zap.String("fromAmount", record.FromAmount.String()))
		return nil
	}

	id := amm.PairID(base, quote)
	pair, found, err := db.Load[amm.PairPrice](ctx, u.Session, entities.PairPrices, id)
	if err != nil {
		return err
	}
	if !found {
		pair = &amm.PairPrice{ID: id, BaseToken: base, QuoteToken: quote}
	}
	pair.LastPrice = price
	pair.LastLiquidityPool = record.LiquidityPool
	pair.LastUpdatedBlock = record.BlockNumber
	pair.LastUpdatedTimestamp = record.Timestamp
	db.Save(u.Session, entities.PairPrices, id, pair)
	return nil
}
