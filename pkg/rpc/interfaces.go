package rpc

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Result is the outcome of a contract read that is allowed to fail. A reverted or undecodable
// call yields OK=false and the zero Value; callers decide the fallback.
type Result[T any] struct {
	OK    bool
	Value T
}

// Ok wraps a successful read.
func Ok[T any](v T) Result[T] {
	return Result[T]{OK: true, Value: v}
}

// Failed is a read that did not produce a value.
func Failed[T any]() Result[T] {
	return Result[T]{}
}

// Oracle captures the contract reads the processor needs while folding events.
type Oracle interface {
	TryReserveTokenCount(ctx context.Context, converter common.Address) Result[uint16]
	TryReserveTokens(ctx context.Context, converter common.Address, index uint16) Result[common.Address]
	TryPoolToken(ctx context.Context, converter, reserve common.Address) Result[common.Address]
	TryDecimals(ctx context.Context, token common.Address) Result[uint8]
	TrySymbol(ctx context.Context, token common.Address) Result[string]
	TryName(ctx context.Context, token common.Address) Result[string]
}

// LogSource is the subset of an Ethereum client used to backfill historical logs.
type LogSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (tx *types.Transaction, isPending bool, err error)
	TransactionSender(ctx context.Context, tx *types.Transaction, block common.Hash, index uint) (common.Address, error)
}
