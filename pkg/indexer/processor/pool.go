package processor

import (
	"context"

	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/canopy-network/ammx/pkg/db/models/amm"
	"github.com/canopy-network/ammx/pkg/indexer/types"
	"github.com/ethereum/go-ethereum/common"
)

func loadPool(ctx context.Context, u *unit, addr common.Address) (*amm.LiquidityPool, bool, error) {
	return db.Load[amm.LiquidityPool](ctx, u.Session, entities.LiquidityPools, amm.AddressID(addr))
}

func (p *Processor) handleNewConverter(ctx context.Context, u *unit, ev types.Event) error {
	e := ev.(*types.NewConverter)
	ec := e.Ctx

	tx, err := p.recordTransaction(ctx, u, ec)
	if err != nil {
		return err
	}

	row := &amm.NewConverter{
		ID:          amm.EventID(ec.TxHash, ec.LogIndex),
		Type:        e.ConverterType,
		Converter:   amm.AddressID(e.Converter),
		Owner:       amm.AddressID(e.Owner),
		Transaction: tx.ID,
		Timestamp:   ec.BlockTime,
	}
	if err := db.Create(ctx, u.Session, entities.NewConverters, row.ID, row); err != nil {
		if db.IsAlreadyExists(err) {
			return replayed("new converter " + row.ID + " already recorded")
		}
		return err
	}

	pool, ok, err := loadPool(ctx, u, e.Converter)
	if err != nil {
		return err
	}
	if !ok {
		pool = amm.NewLiquidityPool(row.Converter)
		pool.CreatedAtBlock = ec.BlockNumber
		pool.CreatedAtTimestamp = ec.BlockTime
		pool.CreatedAtTransaction = tx.ID

		stats, err := p.protocolStats(ctx, u)
		if err != nil {
			return err
		}
		stats.TotalLiquidityPools++
	}
	pool.Type = e.ConverterType
	pool.Owner = row.Owner
	db.Save(u.Session, entities.LiquidityPools, pool.ID, pool)
	return nil
}

func (p *Processor) handleOwnerUpdate(ctx context.Context, u *unit, ev types.Event) error {
	e := ev.(*types.OwnerUpdate)
	ec := e.Ctx

	tx, err := p.recordTransaction(ctx, u, ec)
	if err != nil {
		return err
	}

	row := &amm.OwnerUpdate{
		ID:          amm.EventID(ec.TxHash, ec.LogIndex),
		PrevOwner:   amm.AddressID(e.PrevOwner),
		NewOwner:    amm.AddressID(e.NewOwner),
		EmittedBy:   amm.AddressID(ec.Emitter),
		Transaction: tx.ID,
		Timestamp:   ec.BlockTime,
	}
	if err := db.Create(ctx, u.Session, entities.OwnerUpdates, row.ID, row); err != nil {
		if db.IsAlreadyExists(err) {
			return replayed("owner update " + row.ID + " already recorded")
		}
		return err
	}

	// factories and other owned contracts emit the same event
	pool, ok, err := loadPool(ctx, u, ec.Emitter)
	if err != nil || !ok {
		return err
	}
	pool.Owner = row.NewOwner
	db.Save(u.Session, entities.LiquidityPools, pool.ID, pool)
	return nil
}
