package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/canopy-network/ammx/app/indexer/types"
	evtypes "github.com/canopy-network/ammx/pkg/indexer/types"
	"github.com/canopy-network/ammx/pkg/temporal/indexer"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"
)

type mockBackfillActivities struct {
	mu      sync.Mutex
	head    uint64
	ranges  [][2]uint64
	applied []int
	// received keeps the envelopes as ApplyLogs decoded them.
	received []evtypes.Envelope
	// logsAt returns one envelope for each batch starting at a listed block.
	logsAt map[uint64]bool
}

func (m *mockBackfillActivities) GetChainHead(context.Context) (types.ActivityChainHeadOutput, error) {
	return types.ActivityChainHeadOutput{Height: m.head}, nil
}

func (m *mockBackfillActivities) FetchLogs(_ context.Context, in types.ActivityFetchLogsInput) (types.ActivityFetchLogsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ranges = append(m.ranges, [2]uint64{in.FromBlock, in.ToBlock})
	if m.logsAt[in.FromBlock] {
		return types.ActivityFetchLogsOutput{Envelopes: []evtypes.Envelope{envelopeAt(in.FromBlock)}}, nil
	}
	return types.ActivityFetchLogsOutput{}, nil
}

func (m *mockBackfillActivities) ApplyLogs(_ context.Context, in types.ActivityApplyLogsInput) (types.ActivityApplyLogsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applied = append(m.applied, len(in.Envelopes))
	m.received = append(m.received, in.Envelopes...)
	return types.ActivityApplyLogsOutput{Applied: len(in.Envelopes)}, nil
}

// envelopeAt builds an envelope around a log carrying every field the log JSON codec requires.
func envelopeAt(block uint64) evtypes.Envelope {
	return evtypes.Envelope{
		Log: ethtypes.Log{
			Address:     common.HexToAddress("0x00000000000000000000000000000000000000c0"),
			Topics:      []common.Hash{common.HexToHash("0x01")},
			Data:        []byte{},
			BlockNumber: block,
			TxHash:      common.HexToHash("0xaa"),
			BlockHash:   common.HexToHash("0xbb"),
			Index:       3,
		},
		BlockTime: int64(block),
		TxFrom:    common.HexToAddress("0x00000000000000000000000000000000000000f0"),
	}
}

func register(env *testsuite.TestWorkflowEnvironment, wc *Context, m *mockBackfillActivities) {
	env.RegisterWorkflowWithOptions(wc.BackfillWorkflow, workflow.RegisterOptions{Name: indexer.BackfillWorkflowName})
	env.RegisterActivityWithOptions(m.GetChainHead, activity.RegisterOptions{Name: indexer.ChainHeadActivity})
	env.RegisterActivityWithOptions(m.FetchLogs, activity.RegisterOptions{Name: indexer.FetchLogsActivity})
	env.RegisterActivityWithOptions(m.ApplyLogs, activity.RegisterOptions{Name: indexer.ApplyLogsActivity})
}

// TestBackfillWorkflow_Batches walks [0, 4999] in batches of 2000 and only applies batches with logs.
func TestBackfillWorkflow_Batches(t *testing.T) {
	suite := testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()

	mock := &mockBackfillActivities{logsAt: map[uint64]bool{2000: true}}
	wc := &Context{}
	register(env, wc, mock)

	env.ExecuteWorkflow(indexer.BackfillWorkflowName, indexer.BackfillInput{FromBlock: 0, ToBlock: 4999, BatchSize: 2000})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out types.WorkflowBackfillOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.Equal(t, [][2]uint64{{0, 1999}, {2000, 3999}, {4000, 4999}}, mock.ranges)
	assert.Equal(t, []int{1}, mock.applied)
	require.Len(t, mock.received, 1)
	assert.Equal(t, uint64(2000), mock.received[0].Log.BlockNumber)
	assert.Equal(t, common.HexToHash("0xaa"), mock.received[0].Log.TxHash)
	assert.Equal(t, uint(3), mock.received[0].Log.Index)
	assert.Equal(t, 1, out.Logs)
	assert.Equal(t, 1, out.Applied)
}

// TestBackfillWorkflow_ResolvesHead backfills up to the chain head when no end block is given.
func TestBackfillWorkflow_ResolvesHead(t *testing.T) {
	suite := testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()

	mock := &mockBackfillActivities{head: 150}
	wc := &Context{}
	register(env, wc, mock)

	env.ExecuteWorkflow(indexer.BackfillWorkflowName, indexer.BackfillInput{FromBlock: 100, BatchSize: 100})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	assert.Equal(t, [][2]uint64{{100, 150}}, mock.ranges)
}

// TestBackfillWorkflow_ContinueAsNew hands the remaining range to a new run after the batch limit.
func TestBackfillWorkflow_ContinueAsNew(t *testing.T) {
	suite := testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()

	mock := &mockBackfillActivities{}
	wc := &Context{Config: Config{ContinueAsNewBatches: 2}}
	register(env, wc, mock)

	env.ExecuteWorkflow(indexer.BackfillWorkflowName, indexer.BackfillInput{FromBlock: 0, ToBlock: 999, BatchSize: 100})

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	var continueAsNew *workflow.ContinueAsNewError
	require.True(t, errors.As(err, &continueAsNew), "expected ContinueAsNew, got %v", err)
	assert.Equal(t, [][2]uint64{{0, 99}, {100, 199}}, mock.ranges)
}
