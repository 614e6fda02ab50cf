package amm

// DefaultTokenDecimals is assumed when the token contract does not answer decimals().
const DefaultTokenDecimals uint8 = 18

// Token is an ERC20 token referenced by a pool. It is created once and never mutated; Decimals is
// the scale used for every amount of this token.
type Token struct {
	ID       string `json:"id"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`

	// CreatedAtBlock is the block of the event that first referenced the token.
	CreatedAtBlock uint64 `json:"created_at_block"`
}

// SmartToken is the anchor (pool share token) of a converter.
type SmartToken struct {
	ID            string `json:"id"`
	LiquidityPool string `json:"liquidity_pool"`
	// AddedAtBlock is the block of the first activation that referenced this anchor.
	AddedAtBlock uint64 `json:"added_at_block"`
}
