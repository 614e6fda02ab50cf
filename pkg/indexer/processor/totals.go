package processor

import (
	"context"

	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/canopy-network/ammx/pkg/db/models/amm"
	"github.com/canopy-network/ammx/pkg/indexer/types"
)

// updateTotals bumps the protocol and user totals of the to-token along with the swap counters.
func (p *Processor) updateTotals(ctx context.Context, u *unit, record types.ConversionEvent) error {
	user, err := p.resolveUser(ctx, u, record.User, record.Timestamp)
	if err != nil {
		return err
	}
	user.NumSwaps++
	db.Save(u.Session, entities.Users, user.ID, user)

	for _, scope := range []string{amm.ProtocolScope, user.ID} {
		id := amm.ScopedID(scope, record.ToToken)
		totals, found, err := db.Load[amm.AmmTotals](ctx, u.Session, entities.AmmTotals, id)
		if err != nil {
			return err
		}
		if !found {
			totals = amm.NewAmmTotals(scope, record.ToToken)
		}
		totals.Volume = totals.Volume.Add(record.ToAmount)
		totals.LpFee = totals.LpFee.Add(record.ConversionFee)
		totals.ProtocolFee = totals.ProtocolFee.Add(record.ProtocolFee)
		totals.NumSwaps++
		db.Save(u.Session, entities.AmmTotals, id, totals)
	}

	stats, err := p.protocolStats(ctx, u)
	if err != nil {
		return err
	}
	stats.TotalSwaps++
	return nil
}
