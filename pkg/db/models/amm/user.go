package amm

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// User is a trader or liquidity provider, created with zeroed counters on first sight.
type User struct {
	ID                      string    `json:"id"`
	NumSwaps                uint64    `json:"num_swaps"`
	AvailableTradingRewards *big.Int  `json:"available_trading_rewards"`
	AvailableRewardSov      *big.Int  `json:"available_reward_sov"`
	CreatedAtTimestamp      time.Time `json:"created_at_timestamp"`
}

// NewUser returns a user with zeroed counters.
func NewUser(id string, createdAt time.Time) *User {
	return &User{
		ID:                      id,
		AvailableTradingRewards: new(big.Int),
		AvailableRewardSov:      new(big.Int),
		CreatedAtTimestamp:      createdAt,
	}
}

// LiquidityHistoryType tells additions from removals.
type LiquidityHistoryType string

const (
	LiquidityAdded   LiquidityHistoryType = "Added"
	LiquidityRemoved LiquidityHistoryType = "Removed"
)

// UserLiquidityHistoryColumns defines the schema of the mirrored user_liquidity_history table.
var UserLiquidityHistoryColumns = []ColumnDef{
	{Name: "id", Type: "String", Codec: "ZSTD(1)"},
	{Name: "user", Type: "String", Codec: "ZSTD(1)"},
	{Name: "type", Type: "LowCardinality(String)"},
	{Name: "provider", Type: "String", Codec: "ZSTD(1)"},
	{Name: "reserve_token", Type: "LowCardinality(String)"},
	{Name: "amount", Type: AmountType},
	{Name: "new_balance", Type: AmountType},
	{Name: "new_supply", Type: AmountType},
	{Name: "transaction", Type: "String", Codec: "ZSTD(1)"},
	{Name: "timestamp", Type: "DateTime64(3, 'UTC')", Codec: "DoubleDelta, LZ4"},
	{Name: "emitted_by", Type: "LowCardinality(String)"},
	{Name: "liquidity_pool", Type: "LowCardinality(String)"},
	{Name: "liquidity_pool_token", Type: "String", Codec: "ZSTD(1)"},
}

// UserLiquidityHistory is one add or remove liquidity action with a snapshot of the reserve
// balance and pool token supply right after it. Append-only.
type UserLiquidityHistory struct {
	ID                 string               `ch:"id" json:"id"`
	User               string               `ch:"user" json:"user"`
	Type               LiquidityHistoryType `ch:"type" json:"type"`
	Provider           string               `ch:"provider" json:"provider"`
	ReserveToken       string               `ch:"reserve_token" json:"reserve_token"`
	Amount             decimal.Decimal      `ch:"amount" json:"amount"`
	NewBalance         decimal.Decimal      `ch:"new_balance" json:"new_balance"`
	NewSupply          decimal.Decimal      `ch:"new_supply" json:"new_supply"`
	Transaction        string               `ch:"transaction" json:"transaction"`
	Timestamp          time.Time            `ch:"timestamp" json:"timestamp"`
	EmittedBy          string               `ch:"emitted_by" json:"emitted_by"`
	LiquidityPool      string               `ch:"liquidity_pool" json:"liquidity_pool"`
	LiquidityPoolToken string               `ch:"liquidity_pool_token" json:"liquidity_pool_token"`
}
