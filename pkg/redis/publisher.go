package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/canopy-network/ammx/pkg/db/models/amm"
	"github.com/canopy-network/ammx/pkg/indexer/types"
	"go.uber.org/zap"
)

// SwapPublisher announces committed swaps on a Pub/Sub channel.
type SwapPublisher struct {
	client  *Client
	channel string
}

// NewSwapPublisher returns a publisher writing to channel.
func NewSwapPublisher(client *Client, channel string) *SwapPublisher {
	return &SwapPublisher{client: client, channel: channel}
}

// PublishSwap is best effort; the swap is already stored when it is called.
func (p *SwapPublisher) PublishSwap(ctx context.Context, swap *amm.Swap) {
	payload, err := json.Marshal(types.SwapIndexedEvent{
		Event:     types.SwapIndexedEventName,
		Timestamp: time.Now().UTC(),
		Swap:      *swap,
	})
	if err != nil {
		p.client.logger.Warn("Failed to encode swap event", zap.String("swap", swap.ID), zap.Error(err))
		return
	}
	p.client.Publish(ctx, p.channel, payload)
}
