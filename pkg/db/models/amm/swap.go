package amm

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// SwapColumns defines the schema of the mirrored swaps table.
var SwapColumns = []ColumnDef{
	{Name: "id", Type: "String", Codec: "ZSTD(1)"},
	{Name: "transaction", Type: "String", Codec: "ZSTD(1)"},
	{Name: "log_index", Type: "UInt32"},
	{Name: "block_number", Type: "UInt64", Codec: "DoubleDelta, LZ4"},
	{Name: "timestamp", Type: "DateTime64(3, 'UTC')", Codec: "DoubleDelta, LZ4"},
	{Name: "liquidity_pool", Type: "LowCardinality(String)"},
	{Name: "from_token", Type: "LowCardinality(String)"},
	{Name: "to_token", Type: "LowCardinality(String)"},
	{Name: "from_amount", Type: AmountType},
	{Name: "to_amount", Type: AmountType},
	{Name: "lp_fee", Type: AmountType},
	{Name: "protocol_fee", Type: AmountType},
	{Name: "rate", Type: AmountType},
	{Name: "trader", Type: "String", Codec: "ZSTD(1)"},
	{Name: "user", Type: "String", Codec: "ZSTD(1)"},
}

// Swap is one conversion through a pool. Swaps are append-only: the id (tx hash + log index) is
// unique and a second create with the same id is rejected.
type Swap struct {
	ID            string          `ch:"id" json:"id"`
	Transaction   string          `ch:"transaction" json:"transaction"`
	LogIndex      uint32          `ch:"log_index" json:"log_index"`
	BlockNumber   uint64          `ch:"block_number" json:"block_number"`
	Timestamp     time.Time       `ch:"timestamp" json:"timestamp"`
	LiquidityPool string          `ch:"liquidity_pool" json:"liquidity_pool"`
	FromToken     string          `ch:"from_token" json:"from_token"`
	ToToken       string          `ch:"to_token" json:"to_token"`
	FromAmount    decimal.Decimal `ch:"from_amount" json:"from_amount"`
	ToAmount      decimal.Decimal `ch:"to_amount" json:"to_amount"`
	LpFee         decimal.Decimal `ch:"lp_fee" json:"lp_fee"`
	ProtocolFee   decimal.Decimal `ch:"protocol_fee" json:"protocol_fee"`
	// Rate is toAmount / fromAmount, net of fees; zero when fromAmount is zero.
	Rate   decimal.Decimal `ch:"rate" json:"rate"`
	Trader string          `ch:"trader" json:"trader"`
	User   string          `ch:"user" json:"user"`
}

// ConversionColumns defines the schema of the mirrored conversions table.
var ConversionColumns = []ColumnDef{
	{Name: "id", Type: "String", Codec: "ZSTD(1)"},
	{Name: "transaction", Type: "String", Codec: "ZSTD(1)"},
	{Name: "block_number", Type: "UInt64", Codec: "DoubleDelta, LZ4"},
	{Name: "timestamp", Type: "DateTime64(3, 'UTC')", Codec: "DoubleDelta, LZ4"},
	{Name: "emitted_by", Type: "LowCardinality(String)"},
	{Name: "from_token", Type: "LowCardinality(String)"},
	{Name: "to_token", Type: "LowCardinality(String)"},
	{Name: "trader", Type: "String", Codec: "ZSTD(1)"},
	{Name: "amount", Type: "UInt256"},
	{Name: "return_amount", Type: "UInt256"},
	{Name: "conversion_fee", Type: "Int256"},
	{Name: "protocol_fee", Type: "Int256"},
}

// Conversion is the raw conversion event exactly as emitted, kept next to the normalized Swap.
type Conversion struct {
	ID            string    `ch:"id" json:"id"`
	Transaction   string    `ch:"transaction" json:"transaction"`
	BlockNumber   uint64    `ch:"block_number" json:"block_number"`
	Timestamp     time.Time `ch:"timestamp" json:"timestamp"`
	EmittedBy     string    `ch:"emitted_by" json:"emitted_by"`
	FromToken     string    `ch:"from_token" json:"from_token"`
	ToToken       string    `ch:"to_token" json:"to_token"`
	Trader        string    `ch:"trader" json:"trader"`
	Amount        *big.Int  `ch:"amount" json:"amount"`
	Return        *big.Int  `ch:"return_amount" json:"return"`
	ConversionFee *big.Int  `ch:"conversion_fee" json:"conversion_fee"`
	ProtocolFee   *big.Int  `ch:"protocol_fee" json:"protocol_fee"`
}
