package processor

import (
	"context"

	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/canopy-network/ammx/pkg/db/models/amm"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

func loadToken(ctx context.Context, u *unit, addr common.Address) (*amm.Token, bool, error) {
	return db.Load[amm.Token](ctx, u.Session, entities.Tokens, amm.AddressID(addr))
}

// resolveToken returns the token at addr, creating it from the oracle on first sight. Decimals
// default to 18 and strings to empty when the token does not answer.
func (p *Processor) resolveToken(ctx context.Context, u *unit, addr common.Address, block uint64) (*amm.Token, error) {
	token, ok, err := loadToken(ctx, u, addr)
	if err != nil || ok {
		return token, err
	}

	token = &amm.Token{
		ID:             amm.AddressID(addr),
		Decimals:       amm.DefaultTokenDecimals,
		CreatedAtBlock: block,
	}
	if r := p.oracle.TryDecimals(ctx, addr); r.OK {
		token.Decimals = r.Value
	} else {
		p.logger.Warn("decimals() failed, assuming default",
			zap.String("token", token.ID),
			zap.Uint8("decimals", amm.DefaultTokenDecimals))
	}
	if r := p.oracle.TrySymbol(ctx, addr); r.OK {
		token.Symbol = r.Value
	}
	if r := p.oracle.TryName(ctx, addr); r.OK {
		token.Name = r.Value
	}

	db.Save(u.Session, entities.Tokens, token.ID, token)
	return token, nil
}
