package workflow

import (
	"time"

	"github.com/canopy-network/ammx/app/indexer/types"
	"github.com/canopy-network/ammx/pkg/temporal/indexer"
	sdktemporal "go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const defaultContinueAsNewBatches = 50

// BackfillWorkflow replays converter logs of a block range, batch after batch in chain order.
// Every batch is fetched then applied before the next one starts, so the fold sees the same
// order as the live stream. Large ranges continue as new to keep the history bounded.
func (wc *Context) BackfillWorkflow(ctx workflow.Context, input indexer.BackfillInput) (types.WorkflowBackfillOutput, error) {
	logger := workflow.GetLogger(ctx)
	startTime := workflow.Now(ctx)
	input = input.Normalize()

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		HeartbeatTimeout:    time.Minute,
		RetryPolicy: &sdktemporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    0, // Unlimited retries
		},
	}
	activityCtx := workflow.WithActivityOptions(ctx, ao)

	if input.ToBlock == 0 {
		var head types.ActivityChainHeadOutput
		if err := workflow.ExecuteActivity(activityCtx, indexer.ChainHeadActivity).Get(activityCtx, &head); err != nil {
			return types.WorkflowBackfillOutput{}, err
		}
		input.ToBlock = head.Height
	}

	logger.Info("BackfillWorkflow started",
		"from_block", input.FromBlock,
		"to_block", input.ToBlock,
		"batch_size", input.BatchSize,
	)

	out := types.WorkflowBackfillOutput{FromBlock: input.FromBlock, ToBlock: input.ToBlock}
	if input.FromBlock > input.ToBlock {
		return out, nil
	}

	maxBatches := wc.Config.ContinueAsNewBatches
	if maxBatches <= 0 {
		maxBatches = defaultContinueAsNewBatches
	}

	current := input.FromBlock
	for batches := 0; current <= input.ToBlock; batches++ {
		if batches >= maxBatches {
			logger.Info("Triggering ContinueAsNew for backfill",
				"next_block", current,
				"to_block", input.ToBlock,
				"logs", out.Logs,
			)
			return out, workflow.NewContinueAsNewError(ctx, wc.BackfillWorkflow, indexer.BackfillInput{
				FromBlock: current,
				ToBlock:   input.ToBlock,
				BatchSize: input.BatchSize,
			})
		}

		end := min(current+input.BatchSize-1, input.ToBlock)

		var fetched types.ActivityFetchLogsOutput
		err := workflow.ExecuteActivity(activityCtx, indexer.FetchLogsActivity, types.ActivityFetchLogsInput{
			FromBlock: current,
			ToBlock:   end,
		}).Get(activityCtx, &fetched)
		if err != nil {
			return out, err
		}

		if len(fetched.Envelopes) > 0 {
			var applied types.ActivityApplyLogsOutput
			err = workflow.ExecuteActivity(activityCtx, indexer.ApplyLogsActivity, types.ActivityApplyLogsInput{
				Envelopes: fetched.Envelopes,
			}).Get(activityCtx, &applied)
			if err != nil {
				return out, err
			}
			out.Logs += len(fetched.Envelopes)
			out.Applied += applied.Applied
			out.Skipped += applied.Skipped
		}

		if end == input.ToBlock {
			break
		}
		current = end + 1
	}

	out.DurationMs = float64(workflow.Now(ctx).Sub(startTime).Microseconds()) / 1000.0
	logger.Info("BackfillWorkflow completed",
		"from_block", input.FromBlock,
		"to_block", input.ToBlock,
		"logs", out.Logs,
		"applied", out.Applied,
		"skipped", out.Skipped,
		"duration_ms", out.DurationMs,
	)
	return out, nil
}
