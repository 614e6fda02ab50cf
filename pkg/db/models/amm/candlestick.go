package amm

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CandlestickColumns defines the schema of the mirrored candlesticks table. Rows are versioned by
// tx_count, which grows with every update of a bucket.
var CandlestickColumns = []ColumnDef{
	{Name: "id", Type: "String", Codec: "ZSTD(1)"},
	{Name: "base_token", Type: "LowCardinality(String)"},
	{Name: "quote_token", Type: "LowCardinality(String)"},
	{Name: "interval", Type: "LowCardinality(String)"},
	{Name: "period_start_unix", Type: "Int64", Codec: "DoubleDelta, LZ4"},
	{Name: "open", Type: AmountType},
	{Name: "high", Type: AmountType},
	{Name: "low", Type: AmountType},
	{Name: "close", Type: AmountType},
	{Name: "base_volume", Type: AmountType},
	{Name: "quote_volume", Type: AmountType},
	{Name: "tx_count", Type: "UInt64"},
}

// Candlestick is an OHLC bucket of a pair's base price for one interval.
type Candlestick struct {
	ID              string          `ch:"id" json:"id"`
	BaseToken       string          `ch:"base_token" json:"base_token"`
	QuoteToken      string          `ch:"quote_token" json:"quote_token"`
	Interval        Interval        `ch:"interval" json:"interval"`
	PeriodStartUnix int64           `ch:"period_start_unix" json:"period_start_unix"`
	Open            decimal.Decimal `ch:"open" json:"open"`
	High            decimal.Decimal `ch:"high" json:"high"`
	Low             decimal.Decimal `ch:"low" json:"low"`
	Close           decimal.Decimal `ch:"close" json:"close"`
	BaseVolume      decimal.Decimal `ch:"base_volume" json:"base_volume"`
	QuoteVolume     decimal.Decimal `ch:"quote_volume" json:"quote_volume"`
	TxCount         uint64          `ch:"tx_count" json:"tx_count"`
}

// CandlestickID returns the id of the bucket of the pair (base, quote) starting at periodStart.
func CandlestickID(base, quote string, interval Interval, periodStart int64) string {
	return fmt.Sprintf("%s-%s-%s-%d", base, quote, interval, periodStart)
}

// NewCandlestick opens a bucket with open=high=low=close=price.
func NewCandlestick(base, quote string, interval Interval, periodStart int64, price decimal.Decimal) *Candlestick {
	return &Candlestick{
		ID:              CandlestickID(base, quote, interval, periodStart),
		BaseToken:       base,
		QuoteToken:      quote,
		Interval:        interval,
		PeriodStartUnix: periodStart,
		Open:            price,
		High:            price,
		Low:             price,
		Close:           price,
		BaseVolume:      decimal.Zero,
		QuoteVolume:     decimal.Zero,
	}
}

// Apply folds one trade into the bucket. Low never exceeds open, close or high and high never
// falls below them.
func (c *Candlestick) Apply(price, baseVolume, quoteVolume decimal.Decimal) {
	if price.GreaterThan(c.High) {
		c.High = price
	}
	if price.LessThan(c.Low) {
		c.Low = price
	}
	c.Close = price
	c.BaseVolume = c.BaseVolume.Add(baseVolume)
	c.QuoteVolume = c.QuoteVolume.Add(quoteVolume)
	c.TxCount++
}
