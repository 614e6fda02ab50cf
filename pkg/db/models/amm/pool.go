package amm

import (
	"time"

	"github.com/shopspring/decimal"
)

// Converter types as emitted by NewConverter and Activation.
const (
	// ConverterTypeV1 pools use the anchor itself as the pool token for every reserve.
	ConverterTypeV1 uint16 = 1
	// ConverterTypeV2 pools have a dedicated pool token per reserve.
	ConverterTypeV2 uint16 = 2
)

// LiquidityPool is a converter contract. Pools are never deleted; deactivation only flips Activated.
type LiquidityPool struct {
	ID         string `json:"id"`
	Type       uint16 `json:"type"`
	Owner      string `json:"owner"`
	Activated  bool   `json:"activated"`
	SmartToken string `json:"smart_token,omitempty"`
	Token0     string `json:"token0,omitempty"`
	Token1     string `json:"token1,omitempty"`

	// ReserveTokens lists reserve token ids in the order the converter reports them.
	ReserveTokens []string `json:"reserve_tokens"`

	// Balances is the per-reserve pooled balance ledger. Values may go negative; fee
	// withdrawals are not fully modelled.
	Balances map[string]decimal.Decimal `json:"balances"`

	CreatedAtBlock       uint64    `json:"created_at_block"`
	CreatedAtTimestamp   time.Time `json:"created_at_timestamp"`
	CreatedAtTransaction string    `json:"created_at_transaction"`
}

// NewLiquidityPool returns an inactive pool with an empty ledger.
func NewLiquidityPool(id string) *LiquidityPool {
	return &LiquidityPool{
		ID:            id,
		ReserveTokens: []string{},
		Balances:      map[string]decimal.Decimal{},
	}
}

// Balance returns the ledger balance of token (zero when never touched).
func (p *LiquidityPool) Balance(token string) decimal.Decimal {
	if p.Balances == nil {
		return decimal.Zero
	}
	return p.Balances[token]
}

// IncrementBalance adds amount to the token balance.
func (p *LiquidityPool) IncrementBalance(token string, amount decimal.Decimal) {
	if p.Balances == nil {
		p.Balances = map[string]decimal.Decimal{}
	}
	p.Balances[token] = p.Balances[token].Add(amount)
}

// DecrementBalance subtracts amount from the token balance without a non-negativity check.
func (p *LiquidityPool) DecrementBalance(token string, amount decimal.Decimal) {
	p.IncrementBalance(token, amount.Neg())
}

// AddReserveToken records token as a reserve, keeping the first-seen order. It reports whether the
// token was new to the pool.
func (p *LiquidityPool) AddReserveToken(token string) bool {
	for _, t := range p.ReserveTokens {
		if t == token {
			return false
		}
	}
	p.ReserveTokens = append(p.ReserveTokens, token)
	return true
}

// LiquidityPoolToken joins a pool and one of its reserve tokens, together with the pool token
// minted for that reserve.
type LiquidityPoolToken struct {
	ID            string `json:"id"`
	LiquidityPool string `json:"liquidity_pool"`
	Token         string `json:"token"`
	PoolToken     string `json:"pool_token"`
}
