package indexer

// Input types for triggering workflows from other apps

// BackfillInput replays converter logs of the inclusive block range [FromBlock, ToBlock].
type BackfillInput struct {
	FromBlock uint64 `json:"from_block"`
	// ToBlock 0 means the chain head when the workflow starts.
	ToBlock   uint64 `json:"to_block"`
	BatchSize uint64 `json:"batch_size"`
}

// DefaultBackfillBatchSize is the block span of one FetchLogs call.
const DefaultBackfillBatchSize = 2000

// Normalize fills defaults.
func (in BackfillInput) Normalize() BackfillInput {
	if in.BatchSize == 0 {
		in.BatchSize = DefaultBackfillBatchSize
	}
	return in
}
