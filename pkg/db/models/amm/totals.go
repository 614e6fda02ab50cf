package amm

import "github.com/shopspring/decimal"

// AmmTotals are running conversion totals for a scope (protocol or a user address), keyed by the
// token the conversions paid out in.
type AmmTotals struct {
	ID          string          `json:"id"`
	Scope       string          `json:"scope"`
	Token       string          `json:"token"`
	Volume      decimal.Decimal `json:"volume"`
	LpFee       decimal.Decimal `json:"lp_fee"`
	ProtocolFee decimal.Decimal `json:"protocol_fee"`
	NumSwaps    uint64          `json:"num_swaps"`
}

// NewAmmTotals returns zeroed totals for scope and token.
func NewAmmTotals(scope, token string) *AmmTotals {
	return &AmmTotals{
		ID:          ScopedID(scope, token),
		Scope:       scope,
		Token:       token,
		Volume:      decimal.Zero,
		LpFee:       decimal.Zero,
		ProtocolFee: decimal.Zero,
	}
}

// ProtocolStatsID is the id of the ProtocolStats singleton.
const ProtocolStatsID = "0"

// ProtocolStats holds protocol-wide counters.
type ProtocolStats struct {
	ID                  string `json:"id"`
	TotalSwaps          uint64 `json:"total_swaps"`
	TotalUsers          uint64 `json:"total_users"`
	TotalLiquidityPools uint64 `json:"total_liquidity_pools"`
	TotalActivePools    uint64 `json:"total_active_pools"`
}
