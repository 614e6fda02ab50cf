package types

import (
	evtypes "github.com/canopy-network/ammx/pkg/indexer/types"
)

// ActivityChainHeadOutput is the latest block number reported by the node.
type ActivityChainHeadOutput struct {
	Height uint64 `json:"height"`
}

// ActivityFetchLogsInput selects the inclusive block range of one backfill batch.
type ActivityFetchLogsInput struct {
	FromBlock uint64 `json:"from_block"`
	ToBlock   uint64 `json:"to_block"`
}

// ActivityFetchLogsOutput holds the converter logs of a batch in chain order, each wrapped with
// its block time and transaction sender.
type ActivityFetchLogsOutput struct {
	Envelopes  []evtypes.Envelope `json:"envelopes"`
	DurationMs float64            `json:"duration_ms"`
}

// ActivityApplyLogsInput carries the envelopes to fold, in chain order.
type ActivityApplyLogsInput struct {
	Envelopes []evtypes.Envelope `json:"envelopes"`
}

// ActivityApplyLogsOutput counts how the envelopes of a batch were handled.
type ActivityApplyLogsOutput struct {
	Applied    int     `json:"applied"`
	Skipped    int     `json:"skipped"`
	DurationMs float64 `json:"duration_ms"`
}

// WorkflowBackfillOutput summarizes a backfill run (or the tail run after ContinueAsNew).
type WorkflowBackfillOutput struct {
	FromBlock  uint64  `json:"from_block"`
	ToBlock    uint64  `json:"to_block"`
	Logs       int     `json:"logs"`
	Applied    int     `json:"applied"`
	Skipped    int     `json:"skipped"`
	DurationMs float64 `json:"duration_ms"`
}
