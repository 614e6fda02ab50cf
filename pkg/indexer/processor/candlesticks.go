package processor

import (
	"context"
	"errors"

	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/canopy-network/ammx/pkg/db/models/amm"
	"github.com/canopy-network/ammx/pkg/indexer/types"
)

func (p *Processor) updateCandlesticks(ctx context.Context, u *unit, record types.ConversionEvent) error {
	base, quote, price, ok := swapPrice(record)
	if !ok {
		return nil
	}

	baseVolume, quoteVolume := record.FromAmount, record.ToAmount
	if record.FromToken != base {
		baseVolume, quoteVolume = record.ToAmount, record.FromAmount
	}

	var errs []error
	for _, interval := range amm.CandleIntervals {
		start := interval.BucketStart(record.Timestamp)
		id := amm.CandlestickID(base, quote, interval, start)

		candle, found, err := db.Load[amm.Candlestick](ctx, u.Session, entities.Candlesticks, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !found {
			candle = amm.NewCandlestick(base, quote, interval, start, price)
		}
		candle.Apply(price, baseVolume, quoteVolume)
		db.Save(u.Session, entities.Candlesticks, id, candle)
	}
	return errors.Join(errs...)
}
