package decoder

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/canopy-network/ammx/pkg/indexer/types"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

var (
	pool    = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	tokenA  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	tokenB  = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	trader  = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	txHash  = common.HexToHash("0xfeed")
	txFrom  = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	uintTop = func(v int64) common.Hash { return common.BigToHash(big.NewInt(v)) }
)

func addrTopic(a common.Address) common.Hash {
	return common.BytesToHash(a.Bytes())
}

func envelope(t *testing.T, ev abi.Event, topics []common.Hash, data ...interface{}) *types.Envelope {
	t.Helper()
	packed, err := ev.Inputs.NonIndexed().Pack(data...)
	require.NoError(t, err)
	return &types.Envelope{
		Log: ethtypes.Log{
			Address:     pool,
			Topics:      append([]common.Hash{ev.ID}, topics...),
			Data:        packed,
			BlockNumber: 100,
			TxHash:      txHash,
			Index:       3,
		},
		BlockTime: 1700000000,
		TxFrom:    txFrom,
		TxIndex:   2,
	}
}

func TestDecodeConversionV1(t *testing.T) {
	d := New()
	env := envelope(t, ConverterEventsABI.Events["Conversion"],
		[]common.Hash{addrTopic(tokenA), addrTopic(tokenB), addrTopic(trader)},
		big.NewInt(1000), big.NewInt(990), big.NewInt(-5))

	ev, err := d.Decode(env)
	require.NoError(t, err)
	require.Equal(t, types.KindConversionV1, ev.Kind())

	c := ev.(*types.Conversion)
	require.Equal(t, tokenA, c.FromToken)
	require.Equal(t, tokenB, c.ToToken)
	require.Equal(t, trader, c.Trader)
	require.Equal(t, big.NewInt(1000), c.Amount)
	require.Equal(t, big.NewInt(990), c.Return)
	require.Equal(t, big.NewInt(-5), c.ConversionFee)
	require.Nil(t, c.ProtocolFee)

	ctx := ev.Context()
	require.Equal(t, pool, ctx.Emitter)
	require.Equal(t, txHash, ctx.TxHash)
	require.Equal(t, uint(3), ctx.LogIndex)
	require.Equal(t, uint64(100), ctx.BlockNumber)
	require.Equal(t, int64(1700000000), ctx.BlockTime.Unix())
	require.Equal(t, txFrom, ctx.From)
}

func TestDecodeConversionWithProtocolFee(t *testing.T) {
	d := New()
	env := envelope(t, ProtocolFeeEventsABI.Events["Conversion"],
		[]common.Hash{addrTopic(tokenA), addrTopic(tokenB), addrTopic(trader)},
		big.NewInt(1000), big.NewInt(990), big.NewInt(5), big.NewInt(2))

	ev, err := d.Decode(env)
	require.NoError(t, err)
	require.Equal(t, types.KindConversionWithProtocolFee, ev.Kind())
	require.Equal(t, big.NewInt(2), ev.(*types.Conversion).ProtocolFee)
}

func TestDecodeActivationAndFactory(t *testing.T) {
	d := New()

	ev, err := d.Decode(envelope(t, ConverterEventsABI.Events["Activation"],
		[]common.Hash{uintTop(2), addrTopic(tokenA), uintTop(1)}))
	require.NoError(t, err)
	act := ev.(*types.Activation)
	require.Equal(t, uint16(2), act.ConverterType)
	require.Equal(t, tokenA, act.Anchor)
	require.True(t, act.Activated)

	ev, err = d.Decode(envelope(t, ConverterEventsABI.Events["NewConverter"],
		[]common.Hash{uintTop(1), addrTopic(pool), addrTopic(trader)}))
	require.NoError(t, err)
	nc := ev.(*types.NewConverter)
	require.Equal(t, uint16(1), nc.ConverterType)
	require.Equal(t, pool, nc.Converter)
	require.Equal(t, trader, nc.Owner)
}

func TestDecodeLiquidityAndFees(t *testing.T) {
	d := New()

	ev, err := d.Decode(envelope(t, ConverterEventsABI.Events["LiquidityRemoved"],
		[]common.Hash{addrTopic(trader), addrTopic(tokenA)},
		big.NewInt(10), big.NewInt(90), big.NewInt(500)))
	require.NoError(t, err)
	require.Equal(t, types.KindLiquidityRemoved, ev.Kind())
	liq := ev.(*types.Liquidity)
	require.False(t, liq.Added)
	require.Equal(t, big.NewInt(500), liq.NewSupply)

	ev, err = d.Decode(envelope(t, ConverterEventsABI.Events["WithdrawFees"],
		[]common.Hash{addrTopic(trader), addrTopic(txFrom)},
		tokenB, big.NewInt(7), big.NewInt(0)))
	require.NoError(t, err)
	wf := ev.(*types.WithdrawFees)
	require.Equal(t, tokenB, wf.Token)
	require.Equal(t, big.NewInt(7), wf.ProtocolFeeAmount)
}

func TestDecodeErrors(t *testing.T) {
	d := New()

	_, err := d.Decode(&types.Envelope{Log: ethtypes.Log{Topics: []common.Hash{common.HexToHash("0x01")}}})
	require.ErrorIs(t, err, ErrUnknownEvent)

	_, err = d.Decode(&types.Envelope{Log: ethtypes.Log{}})
	require.ErrorIs(t, err, ErrUnknownEvent)

	env := envelope(t, ConverterEventsABI.Events["OwnerUpdate"], []common.Hash{addrTopic(tokenA), addrTopic(tokenB)})
	env.Log.Removed = true
	_, err = d.Decode(env)
	require.ErrorIs(t, err, ErrRemovedLog)

	// missing indexed topic
	_, err = d.Decode(envelope(t, ConverterEventsABI.Events["OwnerUpdate"], []common.Hash{addrTopic(tokenA)}))
	require.Error(t, err)
}

func TestTopicsCoverEveryEvent(t *testing.T) {
	require.Len(t, New().Topics(), 8)
}

func TestEnvelopeJSON(t *testing.T) {
	env := envelope(t, ConverterEventsABI.Events["OwnerUpdate"], []common.Hash{addrTopic(tokenA), addrTopic(tokenB)})
	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded types.Envelope
	require.NoError(t, json.Unmarshal(raw, &decoded))
	ev, err := New().Decode(&decoded)
	require.NoError(t, err)
	require.Equal(t, tokenB, ev.(*types.OwnerUpdate).NewOwner)
}
