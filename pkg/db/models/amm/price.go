package amm

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePrecision is the number of decimal places kept for derived prices.
const PricePrecision int32 = 18

// PairPrice is the running price state of a token pair: the price of one base token expressed
// in quote tokens, as implied by the latest swap between them.
type PairPrice struct {
	ID                   string          `json:"id"`
	BaseToken            string          `json:"base_token"`
	QuoteToken           string          `json:"quote_token"`
	LastPrice            decimal.Decimal `json:"last_price"`
	LastLiquidityPool    string          `json:"last_liquidity_pool"`
	LastUpdatedBlock     uint64          `json:"last_updated_block"`
	LastUpdatedTimestamp time.Time       `json:"last_updated_timestamp"`
}

// PairKey orients two tokens into (base, quote). The lexically smaller address is the base so a
// pair has one orientation regardless of swap direction.
func PairKey(a, b string) (base, quote string) {
	if a <= b {
		return a, b
	}
	return b, a
}

// PairID returns the id of the pair formed by two tokens in either order.
func PairID(a, b string) string {
	base, quote := PairKey(a, b)
	return base + "-" + quote
}

// BasePrice returns the price of the pair base in quote units for a swap that sold fromAmount
// of fromToken for a gross toAmount of the other token. ok is false when the price is undefined.
func BasePrice(fromToken, base string, fromAmount, grossToAmount decimal.Decimal) (price decimal.Decimal, ok bool) {
	if fromAmount.IsZero() || grossToAmount.IsZero() {
		return decimal.Zero, false
	}
	if fromToken == base {
		return grossToAmount.DivRound(fromAmount, PricePrecision), true
	}
	return fromAmount.DivRound(grossToAmount, PricePrecision), true
}
