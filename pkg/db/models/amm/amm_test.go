package amm

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDecimalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      *big.Int
		decimals uint8
		want     string
	}{
		{name: "eighteen decimals", raw: big.NewInt(1_500_000_000_000_000_000), decimals: 18, want: "1.5"},
		{name: "six decimals", raw: big.NewInt(2_000_001), decimals: 6, want: "2.000001"},
		{name: "zero decimals", raw: big.NewInt(42), decimals: 0, want: "42"},
		{name: "nil is zero", raw: nil, decimals: 18, want: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, d(tt.want).Equal(Decimalize(tt.raw, tt.decimals)), "got %s", Decimalize(tt.raw, tt.decimals))
		})
	}
}

func TestIDs(t *testing.T) {
	addr := common.HexToAddress("0xABCDEF0000000000000000000000000000000001")
	assert.Equal(t, "0xabcdef0000000000000000000000000000000001", AddressID(addr))

	hash := common.HexToHash("0x01")
	assert.Equal(t, HashID(hash)+"-7", EventID(hash, 7))
	assert.Equal(t, "0xpool0xtoken", PoolTokenID("0xpool", "0xtoken"))
	assert.Equal(t, "protocol-0xtoken", ScopedID(ProtocolScope, "0xtoken"))
}

func TestPairKeyOrientation(t *testing.T) {
	base, quote := PairKey("0xbb", "0xaa")
	assert.Equal(t, "0xaa", base)
	assert.Equal(t, "0xbb", quote)
	assert.Equal(t, PairID("0xaa", "0xbb"), PairID("0xbb", "0xaa"))
}

func TestBasePrice(t *testing.T) {
	// Selling 2 base for 10 quote prices the base at 5.
	p, ok := BasePrice("0xaa", "0xaa", d("2"), d("10"))
	require.True(t, ok)
	assert.True(t, d("5").Equal(p))

	// Selling 10 quote for 2 base gives the same orientation.
	p, ok = BasePrice("0xbb", "0xaa", d("10"), d("2"))
	require.True(t, ok)
	assert.True(t, d("5").Equal(p))

	_, ok = BasePrice("0xaa", "0xaa", decimal.Zero, d("1"))
	assert.False(t, ok)

	p, ok = BasePrice("0xaa", "0xaa", d("3"), d("1"))
	require.True(t, ok)
	assert.Equal(t, int32(-PricePrecision), p.Exponent())
}

func TestIntervalBucketStart(t *testing.T) {
	ts := time.Date(2024, 3, 5, 13, 47, 31, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 3, 5, 13, 47, 0, 0, time.UTC).Unix(), IntervalMinute.BucketStart(ts))
	assert.Equal(t, time.Date(2024, 3, 5, 13, 45, 0, 0, time.UTC).Unix(), IntervalFifteenMinutes.BucketStart(ts))
	assert.Equal(t, time.Date(2024, 3, 5, 13, 0, 0, 0, time.UTC).Unix(), IntervalHour.BucketStart(ts))
	assert.Equal(t, time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC).Unix(), IntervalFourHours.BucketStart(ts))
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC).Unix(), IntervalDay.BucketStart(ts))

	_, err := ParseInterval("2h")
	require.Error(t, err)
	i, err := ParseInterval("4h")
	require.NoError(t, err)
	assert.Equal(t, IntervalFourHours, i)
}

func TestCandlestickApply(t *testing.T) {
	c := NewCandlestick("0xaa", "0xbb", IntervalHour, 3600, d("5"))
	c.Apply(d("5"), d("1"), d("5"))
	c.Apply(d("7"), d("1"), d("7"))
	c.Apply(d("3"), d("2"), d("6"))

	assert.True(t, d("5").Equal(c.Open))
	assert.True(t, d("7").Equal(c.High))
	assert.True(t, d("3").Equal(c.Low))
	assert.True(t, d("3").Equal(c.Close))
	assert.True(t, d("4").Equal(c.BaseVolume))
	assert.True(t, d("18").Equal(c.QuoteVolume))
	assert.Equal(t, uint64(3), c.TxCount)

	assert.True(t, c.Low.LessThanOrEqual(c.Open))
	assert.True(t, c.Low.LessThanOrEqual(c.Close))
	assert.True(t, c.High.GreaterThanOrEqual(c.Open))
	assert.True(t, c.High.GreaterThanOrEqual(c.Close))
	assert.Equal(t, "0xaa-0xbb-1h-3600", c.ID)
}

func TestLiquidityPoolLedger(t *testing.T) {
	p := NewLiquidityPool("0xpool")
	p.IncrementBalance("0xaa", d("10"))
	p.DecrementBalance("0xaa", d("12.5"))
	assert.True(t, d("-2.5").Equal(p.Balance("0xaa")))
	assert.True(t, p.Balance("0xcc").IsZero())

	assert.True(t, p.AddReserveToken("0xaa"))
	assert.True(t, p.AddReserveToken("0xbb"))
	assert.False(t, p.AddReserveToken("0xaa"))
	assert.Equal(t, []string{"0xaa", "0xbb"}, p.ReserveTokens)
}
