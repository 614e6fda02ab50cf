package activity

import (
	"github.com/alitto/pond/v2"
	"github.com/canopy-network/ammx/pkg/indexer/decoder"
	"github.com/canopy-network/ammx/pkg/indexer/processor"
	"github.com/canopy-network/ammx/pkg/rpc"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Context holds what the indexer activities and the stream handler share.
type Context struct {
	Logger *zap.Logger
	// Source reads historical logs, headers and transactions.
	Source rpc.LogSource
	// Addresses restricts log queries to known converter and factory contracts. Empty means all.
	Addresses []common.Address
	Decoder   *decoder.Decoder
	Processor *processor.Processor
	// FetchPool bounds the header and transaction lookups of one batch.
	FetchPool pond.Pool
}
