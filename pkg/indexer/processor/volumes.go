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

// updateVolumes adds both legs of the swap to the pool and protocol volume counters.
func (p *Processor) updateVolumes(ctx context.Context, u *unit, record types.ConversionEvent) error {
	var errs []error
	for _, scope := range []string{record.LiquidityPool, amm.ProtocolScope} {
		errs = append(errs,
			addVolume(ctx, u, scope, record.FromToken, record.FromAmount, record),
			addVolume(ctx, u, scope, record.ToToken, record.ToAmount, record),
		)
	}
	return errors.Join(errs...)
}

func addVolume(ctx context.Context, u *unit, scope, token string, amount decimal.Decimal, record types.ConversionEvent) error {
	totalID := amm.ScopedID(scope, token)
	total, found, err := db.Load[amm.VolumeTotal](ctx, u.Session, entities.VolumeTotals, totalID)
	if err != nil {
		return err
	}
	if !found {
		total = &amm.VolumeTotal{ID: totalID, Scope: scope, Token: token, CumulativeVolume: decimal.Zero}
	}
	total.CumulativeVolume = total.CumulativeVolume.Add(amount)
	db.Save(u.Session, entities.VolumeTotals, totalID, total)

	for _, interval := range amm.VolumeIntervals {
		start := interval.BucketStart(record.Timestamp)
		id := amm.VolumeBucketID(scope, token, interval, start)

		bucket, found, err := db.Load[amm.VolumeBucket](ctx, u.Session, entities.VolumeBuckets, id)
		if err != nil {
			return err
		}
		if !found {
			bucket = &amm.VolumeBucket{
				ID:              id,
				Scope:           scope,
				Token:           token,
				Interval:        interval,
				PeriodStartUnix: start,
				Volume:          decimal.Zero,
			}
		}
		bucket.Volume = bucket.Volume.Add(amount)
		bucket.CumulativeVolume = total.CumulativeVolume
		bucket.SwapCount++
		db.Save(u.Session, entities.VolumeBuckets, id, bucket)
	}
	return nil
}
