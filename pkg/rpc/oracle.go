package rpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/canopy-network/ammx/pkg/retry"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
)

// EthOracle reads converter and token state through eth_call.
type EthOracle struct {
	caller bind.ContractCaller
	logger *zap.Logger
	retry  retry.Config

	// token metadata never changes, so successful reads are cached
	decimals *xsync.Map[common.Address, uint8]
	symbols  *xsync.Map[common.Address, string]
	names    *xsync.Map[common.Address, string]
}

// NewEthOracle returns an oracle issuing calls through caller, typically an *ethclient.Client.
func NewEthOracle(logger *zap.Logger, caller bind.ContractCaller) *EthOracle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EthOracle{
		caller: caller,
		logger: logger.Named("oracle"),
		retry: retry.Config{
			MaxRetries:    3,
			InitialDelay:  200 * time.Millisecond,
			MaxDelay:      2 * time.Second,
			Multiplier:    2.0,
			JitterEnabled: true,
		},
		decimals: xsync.NewMap[common.Address, uint8](),
		symbols:  xsync.NewMap[common.Address, string](),
		names:    xsync.NewMap[common.Address, string](),
	}
}

// call invokes method on contract and returns the unpacked outputs. Reverts and decode failures
// are not retried; transport errors are.
func (o *EthOracle) call(ctx context.Context, contract common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	bound := bind.NewBoundContract(contract, parsed, o.caller, nil, nil)
	var out []interface{}
	err := retry.WithBackoff(ctx, o.retry, o.logger, method, func() error {
		out = nil
		err := bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...)
		if err != nil && isPermanent(err) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		o.logger.Debug("contract read failed",
			zap.String("contract", contract.Hex()),
			zap.String("method", method),
			zap.Error(err))
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: empty output", method)
	}
	return out, nil
}

func isPermanent(err error) bool {
	if errors.Is(err, bind.ErrNoCode) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "revert") ||
		strings.Contains(msg, "abi:") ||
		strings.Contains(msg, "invalid opcode")
}

func (o *EthOracle) TryReserveTokenCount(ctx context.Context, converter common.Address) Result[uint16] {
	out, err := o.call(ctx, converter, ConverterABI, "reserveTokenCount")
	if err != nil {
		return Failed[uint16]()
	}
	v, ok := out[0].(uint16)
	if !ok {
		return Failed[uint16]()
	}
	return Ok(v)
}

func (o *EthOracle) TryReserveTokens(ctx context.Context, converter common.Address, index uint16) Result[common.Address] {
	out, err := o.call(ctx, converter, ConverterABI, "reserveTokens", new(big.Int).SetUint64(uint64(index)))
	if err != nil {
		return Failed[common.Address]()
	}
	return addressResult(out)
}

func (o *EthOracle) TryPoolToken(ctx context.Context, converter, reserve common.Address) Result[common.Address] {
	out, err := o.call(ctx, converter, ConverterABI, "poolToken", reserve)
	if err != nil {
		return Failed[common.Address]()
	}
	return addressResult(out)
}

func addressResult(out []interface{}) Result[common.Address] {
	v, ok := out[0].(common.Address)
	if !ok || v == (common.Address{}) {
		return Failed[common.Address]()
	}
	return Ok(v)
}

func (o *EthOracle) TryDecimals(ctx context.Context, token common.Address) Result[uint8] {
	if v, ok := o.decimals.Load(token); ok {
		return Ok(v)
	}
	out, err := o.call(ctx, token, ERC20ABI, "decimals")
	if err != nil {
		return Failed[uint8]()
	}
	v, ok := out[0].(uint8)
	if !ok {
		return Failed[uint8]()
	}
	o.decimals.Store(token, v)
	return Ok(v)
}

func (o *EthOracle) TrySymbol(ctx context.Context, token common.Address) Result[string] {
	return o.cachedString(ctx, o.symbols, token, "symbol")
}

func (o *EthOracle) TryName(ctx context.Context, token common.Address) Result[string] {
	return o.cachedString(ctx, o.names, token, "name")
}

func (o *EthOracle) cachedString(ctx context.Context, cache *xsync.Map[common.Address, string], token common.Address, method string) Result[string] {
	if v, ok := cache.Load(token); ok {
		return Ok(v)
	}
	r := o.tryString(ctx, token, method)
	if r.OK {
		cache.Store(token, r.Value)
	}
	return r
}

// tryString reads a string getter, falling back to the bytes32 variant.
func (o *EthOracle) tryString(ctx context.Context, token common.Address, method string) Result[string] {
	if out, err := o.call(ctx, token, ERC20ABI, method); err == nil {
		if s, ok := out[0].(string); ok {
			return Ok(s)
		}
	}
	out, err := o.call(ctx, token, ERC20Bytes32ABI, method)
	if err != nil {
		return Failed[string]()
	}
	raw, ok := out[0].([32]byte)
	if !ok {
		return Failed[string]()
	}
	return Ok(string(bytes.TrimRight(raw[:], "\x00")))
}
