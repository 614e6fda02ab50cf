package processor

import (
	"context"

	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/canopy-network/ammx/pkg/db/models/amm"
	"github.com/canopy-network/ammx/pkg/indexer/types"
)

// recordTransaction upserts the transaction of ec if it is not stored yet.
func (p *Processor) recordTransaction(ctx context.Context, u *unit, ec types.EventContext) (*amm.Transaction, error) {
	id := amm.HashID(ec.TxHash)
	tx, ok, err := db.Load[amm.Transaction](ctx, u.Session, entities.Transactions, id)
	if err != nil {
		return nil, err
	}
	if ok {
		return tx, nil
	}

	tx = &amm.Transaction{
		ID:          id,
		BlockNumber: ec.BlockNumber,
		Timestamp:   ec.BlockTime,
		Index:       ec.TxIndex,
		From:        amm.AddressID(ec.From),
	}
	if ec.To != nil {
		tx.To = amm.AddressID(*ec.To)
	}
	db.Save(u.Session, entities.Transactions, id, tx)
	return tx, nil
}
