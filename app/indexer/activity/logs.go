package activity

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/canopy-network/ammx/app/indexer/types"
	evtypes "github.com/canopy-network/ammx/pkg/indexer/types"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/puzpuzpuz/xsync/v4"
	"go.temporal.io/sdk/activity"
	"go.uber.org/zap"
)

// GetChainHead returns the latest block number.
func (c *Context) GetChainHead(ctx context.Context) (types.ActivityChainHeadOutput, error) {
	height, err := c.Source.BlockNumber(ctx)
	if err != nil {
		return types.ActivityChainHeadOutput{}, fmt.Errorf("block number: %w", err)
	}
	return types.ActivityChainHeadOutput{Height: height}, nil
}

type txInfo struct {
	from common.Address
	to   *common.Address
}

// FetchLogs reads the converter logs of a block range and attaches the block time and
// transaction sender to each of them.
func (c *Context) FetchLogs(ctx context.Context, in types.ActivityFetchLogsInput) (types.ActivityFetchLogsOutput, error) {
	start := time.Now()
	logger := c.Logger.With(zap.Uint64("from", in.FromBlock), zap.Uint64("to", in.ToBlock))

	logs, err := c.Source.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(in.FromBlock),
		ToBlock:   new(big.Int).SetUint64(in.ToBlock),
		Addresses: c.Addresses,
		Topics:    [][]common.Hash{c.Decoder.Topics()},
	})
	if err != nil {
		return types.ActivityFetchLogsOutput{}, fmt.Errorf("filter logs: %w", err)
	}
	if len(logs) == 0 {
		return types.ActivityFetchLogsOutput{DurationMs: msSince(start)}, nil
	}

	slices.SortStableFunc(logs, func(a, b ethtypes.Log) int {
		if a.BlockNumber != b.BlockNumber {
			return cmp.Compare(a.BlockNumber, b.BlockNumber)
		}
		return cmp.Compare(a.Index, b.Index)
	})

	blockTimes := xsync.NewMap[uint64, uint64]()
	txs := xsync.NewMap[common.Hash, txInfo]()

	group := c.FetchPool.NewGroupContext(ctx)
	groupCtx := group.Context()
	seenBlocks := map[uint64]bool{}
	seenTxs := map[common.Hash]bool{}

	for _, l := range logs {
		if !seenBlocks[l.BlockNumber] {
			seenBlocks[l.BlockNumber] = true
			number := l.BlockNumber
			group.SubmitErr(func() error {
				header, err := c.Source.HeaderByNumber(groupCtx, new(big.Int).SetUint64(number))
				if err != nil {
					return fmt.Errorf("header %d: %w", number, err)
				}
				blockTimes.Store(number, header.Time)
				return nil
			})
		}
		if !seenTxs[l.TxHash] {
			seenTxs[l.TxHash] = true
			hash, blockHash, index := l.TxHash, l.BlockHash, l.TxIndex
			group.SubmitErr(func() error {
				tx, _, err := c.Source.TransactionByHash(groupCtx, hash)
				if err != nil {
					return fmt.Errorf("transaction %s: %w", hash.Hex(), err)
				}
				from, err := c.Source.TransactionSender(groupCtx, tx, blockHash, index)
				if err != nil {
					return fmt.Errorf("sender of %s: %w", hash.Hex(), err)
				}
				txs.Store(hash, txInfo{from: from, to: tx.To()})
				return nil
			})
		}
	}

	if err := group.Wait(); err != nil {
		if errors.Is(err, pond.ErrGroupStopped) && ctx.Err() != nil {
			return types.ActivityFetchLogsOutput{}, ctx.Err()
		}
		return types.ActivityFetchLogsOutput{}, err
	}

	envelopes := make([]evtypes.Envelope, 0, len(logs))
	for _, l := range logs {
		blockTime, _ := blockTimes.Load(l.BlockNumber)
		tx, _ := txs.Load(l.TxHash)
		envelopes = append(envelopes, evtypes.Envelope{
			Log:       l,
			BlockTime: int64(blockTime),
			TxFrom:    tx.from,
			TxTo:      tx.to,
			TxIndex:   l.TxIndex,
		})
	}

	logger.Info("Fetched converter logs",
		zap.Int("logs", len(envelopes)),
		zap.Int("blocks", len(seenBlocks)),
		zap.Int("transactions", len(seenTxs)))

	return types.ActivityFetchLogsOutput{Envelopes: envelopes, DurationMs: msSince(start)}, nil
}

// ApplyLogs folds the envelopes in order. A storage error fails the activity; Temporal retries
// it and events already committed are recognized as replays.
func (c *Context) ApplyLogs(ctx context.Context, in types.ActivityApplyLogsInput) (types.ActivityApplyLogsOutput, error) {
	start := time.Now()
	out := types.ActivityApplyLogsOutput{}

	for i := range in.Envelopes {
		applied, err := c.Apply(ctx, &in.Envelopes[i])
		if err != nil {
			return out, err
		}
		if applied {
			out.Applied++
		} else {
			out.Skipped++
		}
		if i%100 == 0 && activity.IsActivity(ctx) {
			activity.RecordHeartbeat(ctx, i)
		}
	}

	out.DurationMs = msSince(start)
	return out, nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
