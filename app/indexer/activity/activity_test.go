package activity

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/alitto/pond/v2"
	"github.com/canopy-network/ammx/app/indexer/types"
	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/canopy-network/ammx/pkg/db/memory"
	"github.com/canopy-network/ammx/pkg/db/models/amm"
	"github.com/canopy-network/ammx/pkg/indexer/decoder"
	"github.com/canopy-network/ammx/pkg/indexer/processor"
	evtypes "github.com/canopy-network/ammx/pkg/indexer/types"
	"github.com/canopy-network/ammx/pkg/redis"
	"github.com/canopy-network/ammx/pkg/rpc"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	converter = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	anchor    = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	owner     = common.HexToAddress("0x0000000000000000000000000000000000000011")
	factory   = common.HexToAddress("0x0000000000000000000000000000000000000022")
	sender    = common.HexToAddress("0x00000000000000000000000000000000000000f1")
)

// silentOracle answers nothing, which the processor treats as failed reads.
type silentOracle struct{}

func (silentOracle) TryReserveTokenCount(context.Context, common.Address) rpc.Result[uint16] {
	return rpc.Failed[uint16]()
}
func (silentOracle) TryReserveTokens(context.Context, common.Address, uint16) rpc.Result[common.Address] {
	return rpc.Failed[common.Address]()
}
func (silentOracle) TryPoolToken(context.Context, common.Address, common.Address) rpc.Result[common.Address] {
	return rpc.Failed[common.Address]()
}
func (silentOracle) TryDecimals(context.Context, common.Address) rpc.Result[uint8] {
	return rpc.Failed[uint8]()
}
func (silentOracle) TrySymbol(context.Context, common.Address) rpc.Result[string] {
	return rpc.Failed[string]()
}
func (silentOracle) TryName(context.Context, common.Address) rpc.Result[string] {
	return rpc.Failed[string]()
}

type fakeSource struct {
	logs    []ethtypes.Log
	times   map[uint64]uint64
	query   ethereum.FilterQuery
	headErr error
}

func (f *fakeSource) BlockNumber(context.Context) (uint64, error) {
	return 42, f.headErr
}

func (f *fakeSource) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error) {
	f.query = q
	return f.logs, nil
}

func (f *fakeSource) HeaderByNumber(_ context.Context, number *big.Int) (*ethtypes.Header, error) {
	t, ok := f.times[number.Uint64()]
	if !ok {
		return nil, errors.New("header not found")
	}
	return &ethtypes.Header{Number: number, Time: t}, nil
}

func (f *fakeSource) TransactionByHash(context.Context, common.Hash) (*ethtypes.Transaction, bool, error) {
	return ethtypes.NewTx(&ethtypes.LegacyTx{To: &converter, Gas: 21000}), false, nil
}

func (f *fakeSource) TransactionSender(context.Context, *ethtypes.Transaction, common.Hash, uint) (common.Address, error) {
	return sender, nil
}

func newContext(t *testing.T, source rpc.LogSource) (*Context, *memory.Store) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := memory.New()
	proc := processor.New(processor.Config{
		Logger:     logger,
		Repository: db.NewRepository(logger, store),
		Oracle:     silentOracle{},
	})
	pool := pond.NewPool(4)
	t.Cleanup(func() {
		proc.Close()
		pool.StopAndWait()
	})
	return &Context{
		Logger:    logger,
		Source:    source,
		Decoder:   decoder.New(),
		Processor: proc,
		FetchPool: pool,
	}, store
}

func newConverterLog(block uint64, index uint) ethtypes.Log {
	return ethtypes.Log{
		Address: factory,
		Topics: []common.Hash{
			decoder.ConverterEventsABI.Events["NewConverter"].ID,
			common.BigToHash(big.NewInt(1)),
			common.BytesToHash(converter.Bytes()),
			common.BytesToHash(owner.Bytes()),
		},
		BlockNumber: block,
		TxHash:      common.BigToHash(big.NewInt(int64(block))),
		Index:       index,
	}
}

func activationLog(block uint64, index uint) ethtypes.Log {
	return ethtypes.Log{
		Address: converter,
		Topics: []common.Hash{
			decoder.ConverterEventsABI.Events["Activation"].ID,
			common.BigToHash(big.NewInt(1)),
			common.BytesToHash(anchor.Bytes()),
			common.BigToHash(big.NewInt(1)),
		},
		BlockNumber: block,
		TxHash:      common.BigToHash(big.NewInt(int64(block))),
		Index:       index,
	}
}

func TestFetchLogsOrdersAndEnriches(t *testing.T) {
	source := &fakeSource{
		logs:  []ethtypes.Log{activationLog(11, 0), newConverterLog(10, 3)},
		times: map[uint64]uint64{10: 1_700_000_000, 11: 1_700_000_012},
	}
	c, _ := newContext(t, source)
	c.Addresses = []common.Address{factory, converter}

	out, err := c.FetchLogs(context.Background(), types.ActivityFetchLogsInput{FromBlock: 10, ToBlock: 11})
	require.NoError(t, err)
	require.Len(t, out.Envelopes, 2)

	require.EqualValues(t, 10, out.Envelopes[0].Log.BlockNumber)
	require.EqualValues(t, 1_700_000_000, out.Envelopes[0].BlockTime)
	require.EqualValues(t, 1_700_000_012, out.Envelopes[1].BlockTime)
	require.Equal(t, sender, out.Envelopes[1].TxFrom)
	require.Equal(t, converter, *out.Envelopes[1].TxTo)

	require.EqualValues(t, 10, source.query.FromBlock.Uint64())
	require.Equal(t, c.Addresses, source.query.Addresses)
	require.Len(t, source.query.Topics[0], len(c.Decoder.Topics()))
}

func TestFetchLogsFailsOnMissingHeader(t *testing.T) {
	source := &fakeSource{logs: []ethtypes.Log{newConverterLog(10, 0)}, times: map[uint64]uint64{}}
	c, _ := newContext(t, source)

	_, err := c.FetchLogs(context.Background(), types.ActivityFetchLogsInput{FromBlock: 10, ToBlock: 10})
	require.Error(t, err)
}

func TestApplyLogsFoldsInOrder(t *testing.T) {
	c, store := newContext(t, &fakeSource{})

	unknown := newConverterLog(12, 0)
	unknown.Topics[0] = common.HexToHash("0xdeadbeef")

	out, err := c.ApplyLogs(context.Background(), types.ActivityApplyLogsInput{Envelopes: []evtypes.Envelope{
		{Log: newConverterLog(10, 0), BlockTime: 1_700_000_000, TxFrom: sender},
		{Log: activationLog(11, 0), BlockTime: 1_700_000_012, TxFrom: sender},
		{Log: unknown, BlockTime: 1_700_000_024, TxFrom: sender},
	}})
	require.NoError(t, err)
	require.Equal(t, 2, out.Applied)
	require.Equal(t, 1, out.Skipped)

	raw, ok, err := store.Get(context.Background(), entities.LiquidityPools, amm.AddressID(converter))
	require.NoError(t, err)
	require.True(t, ok)
	var pool amm.LiquidityPool
	require.NoError(t, json.Unmarshal(raw, &pool))
	require.True(t, pool.Activated)
	require.Equal(t, amm.AddressID(anchor), pool.SmartToken)
}

func TestHandleStreamMessage(t *testing.T) {
	c, store := newContext(t, &fakeSource{})

	payload, err := json.Marshal(evtypes.Envelope{Log: newConverterLog(10, 0), BlockTime: 1_700_000_000, TxFrom: sender})
	require.NoError(t, err)

	require.NoError(t, c.HandleStreamMessage(context.Background(), redis.Message{
		ID:     "1-0",
		Values: map[string]interface{}{"data": string(payload)},
	}))
	require.Equal(t, 1, store.Len(entities.LiquidityPools))

	// malformed entries are acknowledged
	require.NoError(t, c.HandleStreamMessage(context.Background(), redis.Message{
		ID:     "2-0",
		Values: map[string]interface{}{"data": "{not json"},
	}))
	require.NoError(t, c.HandleStreamMessage(context.Background(), redis.Message{ID: "3-0"}))
}

func TestGetChainHead(t *testing.T) {
	c, _ := newContext(t, &fakeSource{})
	out, err := c.GetChainHead(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 42, out.Height)

	c, _ = newContext(t, &fakeSource{headErr: errors.New("down")})
	_, err = c.GetChainHead(context.Background())
	require.Error(t, err)
}
