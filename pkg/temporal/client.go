package temporal

import (
	"context"
	"fmt"
	"time"

	"github.com/canopy-network/ammx/pkg/temporal/indexer"
	"github.com/canopy-network/ammx/pkg/utils"
	"go.uber.org/zap"

	"go.temporal.io/api/enums/v1"
	taskqueuepb "go.temporal.io/api/taskqueue/v1"
	workflowservicepb "go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
)

type Client struct {
	TClient   client.Client
	Namespace string

	// BackfillQueue serves the backfill workflow and its activities.
	BackfillQueue string

	// BackfillWorkflowID is formatted with the block range.
	BackfillWorkflowID string
}

type Health struct {
	ConnectionOK  bool                      `json:"connection_ok"`
	BackfillQueue []*taskqueuepb.PollerInfo `json:"backfill_queue"`
}

func NewClient(ctx context.Context, logger *zap.Logger) (*Client, error) {
	host := utils.Env("TEMPORAL_HOSTPORT", "localhost:7233")
	ns := utils.Env("TEMPORAL_NAMESPACE", "ammx")
	loggerWrapper := NewZapAdapter(logger)

	logger.Info("Connecting to Temporal", zap.String("host", host), zap.String("namespace", ns))
	tClient, err := Dial(ctx, host, ns, loggerWrapper)
	if err != nil {
		return nil, err
	}

	if _, err = tClient.CheckHealth(ctx, nil); err != nil {
		tClient.Close()
		return nil, err
	}

	return &Client{
		TClient:            tClient,
		Namespace:          ns,
		BackfillQueue:      utils.Env("BACKFILL_QUEUE", "ammx:backfill"),
		BackfillWorkflowID: "backfill:%d-%d",
	}, nil
}

// Dial connects to Temporal using the provided hostPort and namespace.
func Dial(ctx context.Context, hostPort, namespace string, logger log.Logger) (client.Client, error) {
	return client.DialContext(
		ctx,
		client.Options{
			HostPort:  hostPort,
			Namespace: namespace,
			Logger:    logger,
		},
	)
}

// GetBackfillWorkflowID returns the workflow ID of a backfill over [from, to]. Starting the same
// range twice is rejected by Temporal while the first run is open.
func (c *Client) GetBackfillWorkflowID(from, to uint64) string {
	return fmt.Sprintf(c.BackfillWorkflowID, from, to)
}

// StartBackfill starts the backfill workflow and returns its run.
func (c *Client) StartBackfill(ctx context.Context, in indexer.BackfillInput) (client.WorkflowRun, error) {
	in = in.Normalize()
	return c.TClient.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        c.GetBackfillWorkflowID(in.FromBlock, in.ToBlock),
		TaskQueue: c.BackfillQueue,

		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, indexer.BackfillWorkflowName, in)
}

// Health returns the health of the Temporal client.
func (c *Client) Health(ctx context.Context) (Health, error) {
	h := Health{ConnectionOK: true}
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	svc := c.TClient.WorkflowService()
	if svc != nil {
		if rep, err := svc.DescribeTaskQueue(ctx, &workflowservicepb.DescribeTaskQueueRequest{
			Namespace:     c.Namespace,
			TaskQueue:     &taskqueuepb.TaskQueue{Name: c.BackfillQueue},
			TaskQueueType: enums.TASK_QUEUE_TYPE_WORKFLOW,
		}); err == nil {
			h.BackfillQueue = rep.GetPollers()
		}
	}
	return h, nil
}

// Close closes the underlying client.
func (c *Client) Close() {
	c.TClient.Close()
}
