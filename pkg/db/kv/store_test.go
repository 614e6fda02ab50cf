package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestGet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := New(zaptest.NewLogger(t), client, "test")
	ctx := context.Background()

	mock.ExpectGet("{test}:tokens:0xaa").SetVal(`{"id":"0xaa"}`)
	v, ok, err := s.Get(ctx, entities.Tokens, "0xaa")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"id":"0xaa"}`, string(v))

	mock.ExpectGet("{test}:tokens:0xbb").RedisNil()
	_, ok, err = s.Get(ctx, entities.Tokens, "0xbb")
	require.NoError(t, err)
	require.False(t, ok)

	mock.ExpectGet("{test}:tokens:0xcc").SetErr(errors.New("i/o timeout"))
	_, _, err = s.Get(ctx, entities.Tokens, "0xcc")
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyUpsertsUsePipeline(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := New(zaptest.NewLogger(t), client, "test")

	mock.ExpectTxPipeline()
	mock.ExpectSet("{test}:tokens:0xaa", `{"id":"0xaa"}`, 0).SetVal("OK")
	mock.ExpectSet("{test}:users:0xu", `{"id":"0xu"}`, 0).SetVal("OK")
	mock.ExpectTxPipelineExec()

	err := s.Apply(context.Background(), []db.Write{
		{Entity: entities.Tokens, ID: "0xaa", Value: []byte(`{"id":"0xaa"}`)},
		{Entity: entities.Users, ID: "0xu", Value: []byte(`{"id":"0xu"}`)},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyCreateOnlyRunsScript(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := New(zaptest.NewLogger(t), client, "test")

	writes := []db.Write{
		{Entity: entities.Transactions, ID: "0x01", Value: []byte(`tx`)},
		{Entity: entities.Swaps, ID: "0x01-0", Value: []byte(`swap`), CreateOnly: true},
	}
	keys := []string{"{test}:swaps:0x01-0", "{test}:transactions:0x01"}

	mock.ExpectEval(applyScript, keys, 1, "swap", "tx").SetVal("")
	require.NoError(t, s.Apply(context.Background(), writes))

	mock.ExpectEval(applyScript, keys, 1, "swap", "tx").SetVal("{test}:swaps:0x01-0")
	err := s.Apply(context.Background(), writes)
	require.ErrorIs(t, err, db.ErrAlreadyExists)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyEmptyIsNoop(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := New(zaptest.NewLogger(t), client, "")
	require.NoError(t, s.Apply(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKeysShareOneHashSlot(t *testing.T) {
	client, _ := redismock.NewClientMock()

	s := New(zaptest.NewLogger(t), client, "")
	require.Equal(t, "{ammx}:swaps:0x01-0", s.key(entities.Swaps, "0x01-0"))
	require.Equal(t, "{ammx}:liquidity_pools:0xaa", s.key(entities.LiquidityPools, "0xaa"))

	s = New(zaptest.NewLogger(t), client, "{tenant}:ammx")
	require.Equal(t, "{tenant}:ammx:tokens:0xaa", s.key(entities.Tokens, "0xaa"))
}
