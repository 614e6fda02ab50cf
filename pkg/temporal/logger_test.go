package temporal

import (
	"testing"

	"github.com/canopy-network/ammx/pkg/temporal/indexer"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapAdapterForwardsKeyvals(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	adapter := NewZapAdapter(zap.New(core))

	adapter.With("WorkflowID", "backfill:1-2").Info("started", "attempt", 1)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "started", entries[0].Message)
	fields := entries[0].ContextMap()
	require.Equal(t, "backfill:1-2", fields["WorkflowID"])
	require.EqualValues(t, 1, fields["attempt"])
}

func TestBackfillWorkflowID(t *testing.T) {
	c := &Client{BackfillWorkflowID: "backfill:%d-%d"}
	require.Equal(t, "backfill:100-200", c.GetBackfillWorkflowID(100, 200))

	in := indexer.BackfillInput{FromBlock: 1}.Normalize()
	require.EqualValues(t, indexer.DefaultBackfillBatchSize, in.BatchSize)
}
