package processor

import (
	"context"

	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/canopy-network/ammx/pkg/db/models/amm"
	"github.com/canopy-network/ammx/pkg/indexer/types"
)

func (p *Processor) handleWithdrawFees(ctx context.Context, u *unit, ev types.Event) error {
	e := ev.(*types.WithdrawFees)
	ec := e.Ctx

	pool, ok, err := loadPool(ctx, u, ec.Emitter)
	if err != nil {
		return err
	}
	if !ok {
		return drop("liquidity pool " + amm.AddressID(ec.Emitter) + " not found")
	}
	token, ok, err := loadToken(ctx, u, e.Token)
	if err != nil {
		return err
	}
	if !ok {
		return drop("fee token " + amm.AddressID(e.Token) + " not found")
	}

	tx, err := p.recordTransaction(ctx, u, ec)
	if err != nil {
		return err
	}

	amount := amm.Decimalize(e.ProtocolFeeAmount, token.Decimals)
	row := &amm.FeeWithdrawal{
		ID:                amm.EventID(ec.TxHash, ec.LogIndex),
		LiquidityPool:     pool.ID,
		Token:             token.ID,
		ProtocolFeeAmount: amount,
		Transaction:       tx.ID,
		Timestamp:         ec.BlockTime,
	}
	if err := db.Create(ctx, u.Session, entities.FeeWithdrawals, row.ID, row); err != nil {
		if db.IsAlreadyExists(err) {
			return replayed("fee withdrawal " + row.ID + " already recorded")
		}
		return err
	}

	pool.DecrementBalance(token.ID, amount)
	db.Save(u.Session, entities.LiquidityPools, pool.ID, pool)
	return nil
}
