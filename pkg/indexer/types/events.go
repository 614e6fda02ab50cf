package types

import (
	"time"

	"github.com/canopy-network/ammx/pkg/db/models/amm"
)

// SwapIndexedEvent is published to Redis Pub/Sub after the swap's unit of work committed, so
// every entity it references is queryable when the event is received.
type SwapIndexedEvent struct {
	Event     string    `json:"event"`     // Always "swap.indexed"
	Timestamp time.Time `json:"timestamp"` // Event publication time (UTC)
	Swap      amm.Swap  `json:"swap"`
}

// SwapIndexedEventName is the value of SwapIndexedEvent.Event.
const SwapIndexedEventName = "swap.indexed"

// GetChannel returns the Redis Pub/Sub channel for an event type under namespace.
// Example: ammx:swap.indexed
func GetChannel(namespace, eventType string) string {
	return namespace + ":" + eventType
}
