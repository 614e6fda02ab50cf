package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/canopy-network/ammx/pkg/indexer/decoder"
	evtypes "github.com/canopy-network/ammx/pkg/indexer/types"
	"github.com/canopy-network/ammx/pkg/redis"
	"go.uber.org/zap"
)

// Apply decodes one envelope and hands it to the processor. It reports false for logs that are
// not converter events or cannot be decoded; only processor (storage) errors are returned.
func (c *Context) Apply(ctx context.Context, env *evtypes.Envelope) (bool, error) {
	ev, err := c.Decoder.Decode(env)
	if err != nil {
		fields := []zap.Field{
			zap.String("tx", env.Log.TxHash.Hex()),
			zap.Uint("logIndex", env.Log.Index),
			zap.Error(err),
		}
		if errors.Is(err, decoder.ErrUnknownEvent) || errors.Is(err, decoder.ErrRemovedLog) {
			c.Logger.Debug("Skipping log", fields...)
		} else {
			c.Logger.Warn("Undecodable converter log, skipping", fields...)
		}
		return false, nil
	}

	if err := c.Processor.Handle(ctx, ev); err != nil {
		return false, err
	}
	return true, nil
}

// HandleStreamMessage is the stream consumer callback. Malformed entries are acknowledged so
// they cannot block the stream; storage failures leave the entry pending.
func (c *Context) HandleStreamMessage(ctx context.Context, msg redis.Message) error {
	data := msg.GetData()
	if data == nil {
		c.Logger.Warn("Stream entry without data field, skipping", zap.String("id", msg.ID))
		return nil
	}

	var env evtypes.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.Logger.Warn("Malformed envelope, skipping", zap.String("id", msg.ID), zap.Error(err))
		return nil
	}

	if _, err := c.Apply(ctx, &env); err != nil {
		return fmt.Errorf("entry %s: %w", msg.ID, err)
	}
	return nil
}
