package processor

import (
	"context"

	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/canopy-network/ammx/pkg/db/models/amm"
	"github.com/canopy-network/ammx/pkg/indexer/types"
)

func (p *Processor) handleLiquidity(ctx context.Context, u *unit, ev types.Event) error {
	e := ev.(*types.Liquidity)
	ec := e.Ctx

	pool, ok, err := loadPool(ctx, u, ec.Emitter)
	if err != nil {
		return err
	}
	if !ok {
		return drop("liquidity pool " + amm.AddressID(ec.Emitter) + " not found")
	}
	token, ok, err := loadToken(ctx, u, e.ReserveToken)
	if err != nil {
		return err
	}
	if !ok {
		return drop("reserve token " + amm.AddressID(e.ReserveToken) + " not found")
	}
	lptID := amm.PoolTokenID(pool.ID, token.ID)
	_, ok, err = db.Load[amm.LiquidityPoolToken](ctx, u.Session, entities.LiquidityPoolTokens, lptID)
	if err != nil {
		return err
	}
	if !ok {
		return drop("liquidity pool token " + lptID + " not found")
	}

	tx, err := p.recordTransaction(ctx, u, ec)
	if err != nil {
		return err
	}
	user, err := p.resolveUser(ctx, u, tx.From, ec.BlockTime)
	if err != nil {
		return err
	}

	amount := amm.Decimalize(e.Amount, token.Decimals)
	kind := amm.LiquidityRemoved
	if e.Added {
		kind = amm.LiquidityAdded
	}
	row := &amm.UserLiquidityHistory{
		ID:                 amm.EventID(ec.TxHash, ec.LogIndex),
		User:               user.ID,
		Type:               kind,
		Provider:           amm.AddressID(e.Provider),
		ReserveToken:       token.ID,
		Amount:             amount,
		NewBalance:         amm.Decimalize(e.NewBalance, token.Decimals),
		NewSupply:          amm.Decimalize(e.NewSupply, token.Decimals),
		Transaction:        tx.ID,
		Timestamp:          ec.BlockTime,
		EmittedBy:          pool.ID,
		LiquidityPool:      pool.ID,
		LiquidityPoolToken: lptID,
	}
	if err := db.Create(ctx, u.Session, entities.UserLiquidityHistory, row.ID, row); err != nil {
		if db.IsAlreadyExists(err) {
			return replayed("liquidity history " + row.ID + " already recorded")
		}
		return err
	}

	if e.Added {
		pool.IncrementBalance(token.ID, amount)
	} else {
		pool.DecrementBalance(token.ID, amount)
	}
	db.Save(u.Session, entities.LiquidityPools, pool.ID, pool)
	return nil
}
