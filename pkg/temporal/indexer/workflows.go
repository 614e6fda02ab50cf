package indexer

// Indexer workflow and activity names
const (
	BackfillWorkflowName = "BackfillWorkflow"
	ChainHeadActivity    = "GetChainHead"
	FetchLogsActivity    = "FetchLogs"
	ApplyLogsActivity    = "ApplyLogs"
)
