package processor

import (
	"context"
	"errors"

	"github.com/alitto/pond/v2"
	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/canopy-network/ammx/pkg/db/models/amm"
	"github.com/canopy-network/ammx/pkg/indexer/types"
	"github.com/canopy-network/ammx/pkg/rpc"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// reserveSlot is what the oracle reported for one reserve index.
type reserveSlot struct {
	reserve   rpc.Result[common.Address]
	poolToken rpc.Result[common.Address]
}

func (p *Processor) handleActivation(ctx context.Context, u *unit, ev types.Event) error {
	e := ev.(*types.Activation)
	ec := e.Ctx

	pool, ok, err := loadPool(ctx, u, ec.Emitter)
	if err != nil {
		return err
	}
	if !ok {
		return drop("liquidity pool " + amm.AddressID(ec.Emitter) + " not found")
	}
	if _, err := p.recordTransaction(ctx, u, ec); err != nil {
		return err
	}

	if !e.Activated {
		// deactivation keeps tokens and pool tokens as historical associations
		if pool.Activated {
			stats, err := p.protocolStats(ctx, u)
			if err != nil {
				return err
			}
			if stats.TotalActivePools > 0 {
				stats.TotalActivePools--
			}
		}
		pool.Activated = false
		db.Save(u.Session, entities.LiquidityPools, pool.ID, pool)
		return nil
	}

	if !pool.Activated {
		stats, err := p.protocolStats(ctx, u)
		if err != nil {
			return err
		}
		stats.TotalActivePools++
	}
	pool.Activated = true
	if e.ConverterType != 0 {
		pool.Type = e.ConverterType
	}
	db.Save(u.Session, entities.LiquidityPools, pool.ID, pool)

	if err := p.attachSmartToken(ctx, u, pool, e); err != nil {
		return err
	}

	count := p.oracle.TryReserveTokenCount(ctx, ec.Emitter)
	if !count.OK {
		p.logger.Warn("reserveTokenCount() failed, reserves not resolved", zap.String("pool", pool.ID))
		return nil
	}

	slots := p.fetchReserves(ctx, ec.Emitter, e.ConverterType, count.Value)
	for i, slot := range slots {
		if !slot.reserve.OK {
			p.logger.Warn("reserveTokens() failed, skipping index",
				zap.String("pool", pool.ID),
				zap.Int("index", i))
			continue
		}
		if err := p.attachReserve(ctx, u, pool, e, i, slot); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) attachSmartToken(ctx context.Context, u *unit, pool *amm.LiquidityPool, e *types.Activation) error {
	id := amm.AddressID(e.Anchor)
	_, ok, err := db.Load[amm.SmartToken](ctx, u.Session, entities.SmartTokens, id)
	if err != nil {
		return err
	}
	if !ok {
		db.Save(u.Session, entities.SmartTokens, id, &amm.SmartToken{
			ID:            id,
			LiquidityPool: pool.ID,
			AddedAtBlock:  e.Ctx.BlockNumber,
		})
	}
	pool.SmartToken = id
	return nil
}

// fetchReserves reads every reserve slot in parallel. Results keep index order.
func (p *Processor) fetchReserves(ctx context.Context, converter common.Address, converterType uint16, count uint16) []reserveSlot {
	slots := make([]reserveSlot, count)
	group := p.workers.NewGroupContext(ctx)
	groupCtx := group.Context()

	for i := range slots {
		index := uint16(i)
		group.Submit(func() {
			if groupCtx.Err() != nil {
				return
			}
			slot := &slots[index]
			slot.reserve = p.oracle.TryReserveTokens(groupCtx, converter, index)
			if slot.reserve.OK && converterType == amm.ConverterTypeV2 {
				slot.poolToken = p.oracle.TryPoolToken(groupCtx, converter, slot.reserve.Value)
			}
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		p.logger.Warn("parallel reserve fetch encountered error", zap.Error(err))
	}
	return slots
}

func (p *Processor) attachReserve(ctx context.Context, u *unit, pool *amm.LiquidityPool, e *types.Activation, index int, slot reserveSlot) error {
	token, err := p.resolveToken(ctx, u, slot.reserve.Value, e.Ctx.BlockNumber)
	if err != nil {
		return err
	}
	pool.AddReserveToken(token.ID)
	switch index {
	case 0:
		pool.Token0 = token.ID
	case 1:
		pool.Token1 = token.ID
	}

	var poolToken string
	switch e.ConverterType {
	case amm.ConverterTypeV1:
		poolToken = amm.AddressID(e.Anchor)
	case amm.ConverterTypeV2:
		if !slot.poolToken.OK {
			p.logger.Warn("poolToken() failed, pool token not recorded",
				zap.String("pool", pool.ID),
				zap.String("reserve", token.ID))
			return nil
		}
		poolToken = amm.AddressID(slot.poolToken.Value)
	default:
		return nil
	}

	id := amm.PoolTokenID(pool.ID, token.ID)
	db.Save(u.Session, entities.LiquidityPoolTokens, id, &amm.LiquidityPoolToken{
		ID:            id,
		LiquidityPool: pool.ID,
		Token:         token.ID,
		PoolToken:     poolToken,
	})
	return nil
}
