package controller

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	evtypes "github.com/canopy-network/ammx/pkg/indexer/types"
	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// allPools subscribes a client to the swaps of every pool.
const allPools = "*"

// ClientMessage represents messages sent by WebSocket clients.
type ClientMessage struct {
	Action string `json:"action"` // "subscribe" or "unsubscribe"
	Pool   string `json:"pool"`   // Pool address, or "*" for all pools
}

// ServerMessage represents messages sent to WebSocket clients.
type ServerMessage struct {
	Type    string      `json:"type"`    // "swap.indexed", "subscribed", "unsubscribed", "info", "error"
	Payload interface{} `json:"payload"` // Event-specific data
}

// clientSubscriptions tracks the pools a client is subscribed to.
type clientSubscriptions struct {
	mu    sync.RWMutex
	pools map[string]bool
}

func newClientSubscriptions() *clientSubscriptions {
	return &clientSubscriptions{
		pools: make(map[string]bool),
	}
}

func (cs *clientSubscriptions) subscribe(pool string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.pools[strings.ToLower(pool)] = true
}

func (cs *clientSubscriptions) unsubscribe(pool string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.pools, strings.ToLower(pool))
}

// isSubscribed checks if a pool is subscribed. The wildcard matches all pools.
func (cs *clientSubscriptions) isSubscribed(pool string) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if cs.pools[allPools] {
		return true
	}
	return cs.pools[strings.ToLower(pool)]
}

// HandleWebSocket upgrades HTTP connection to WebSocket and streams indexed swaps.
//
// Protocol:
// Client sends: {"action": "subscribe", "pool": "0xabc..."}  // Subscribe to one pool
// Client sends: {"action": "subscribe", "pool": "*"}         // Subscribe to ALL pools
// Client sends: {"action": "unsubscribe", "pool": "0xabc..."}
//
// Server sends:
// - {"type": "swap.indexed", "payload": {...}}
// - {"type": "subscribed", "payload": {"pool": "0xabc..."}}
// - {"type": "unsubscribed", "payload": {"pool": "0xabc..."}}
// - {"type": "error", "payload": {"message": "..."}}
//
// All goroutines recover from panics so one client cannot take the server down.
func (c *Controller) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if c.App.RedisClient == nil {
		http.Error(w, "Real-time events not available (Redis disabled)", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.App.Logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}
	defer func(conn *websocket.Conn) {
		if err := conn.Close(); err != nil {
			c.App.Logger.Debug("Failed to close WebSocket connection", zap.Error(err))
		}
	}(conn)

	c.App.Logger.Info("WebSocket client connected", zap.String("remote_addr", r.RemoteAddr))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	subs := newClientSubscriptions()
	send := make(chan ServerMessage, 256)

	var wg sync.WaitGroup
	guarded := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					c.App.Logger.Error("Panic in websocket goroutine",
						zap.String("goroutine", name),
						zap.Any("panic", rec),
						zap.String("stack", string(debug.Stack())),
						zap.String("remote_addr", r.RemoteAddr))
					cancel()
				}
			}()
			fn()
		}()
	}

	guarded("redis subscriber", func() { c.subscribeToRedis(ctx, send, subs) })
	guarded("ping ticker", func() { c.sendPings(ctx, conn) })
	guarded("message writer", func() { c.writeMessages(ctx, conn, send) })

	// Blocks until the connection closes.
	c.readClientMessages(ctx, conn, cancel, subs, send)

	cancel()
	wg.Wait()

	c.App.Logger.Info("WebSocket client disconnected", zap.String("remote_addr", r.RemoteAddr))
}

// subscribeToRedis subscribes to the swaps channel and forwards the swaps of subscribed pools.
// A lost subscription is retried with exponential backoff until ctx is canceled.
func (c *Controller) subscribeToRedis(ctx context.Context, send chan<- ServerMessage, subs *clientSubscriptions) {
	const (
		initialBackoff = 1 * time.Second
		maxBackoff     = 30 * time.Second
		backoffFactor  = 2.0
		jitterFactor   = 0.1
	)

	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err := c.attemptRedisSubscription(ctx, send, subs, attempt)
		if ctx.Err() != nil {
			return
		}

		c.App.Logger.Warn("Redis subscription ended, will retry",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff))

		select {
		case send <- ServerMessage{
			Type: "error",
			Payload: map[string]interface{}{
				"message":     "Redis connection lost, attempting to reconnect...",
				"retryIn":     backoff.Seconds(),
				"attempt":     attempt,
				"recoverable": true,
			},
		}:
		case <-ctx.Done():
			return
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff = calculateNextBackoff(backoff, maxBackoff, backoffFactor, jitterFactor)
	}
}

// attemptRedisSubscription runs one subscription until it fails or ctx is canceled.
func (c *Controller) attemptRedisSubscription(ctx context.Context, send chan<- ServerMessage, subs *clientSubscriptions, attempt int) error {
	pubsub := c.App.RedisClient.Subscribe(ctx, c.App.SwapsChannel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			c.App.Logger.Debug("Error closing Redis subscription", zap.Error(err))
		}
	}()

	receiveCtx, receiveCancel := context.WithTimeout(ctx, 5*time.Second)
	defer receiveCancel()
	if _, err := pubsub.Receive(receiveCtx); err != nil {
		return fmt.Errorf("failed to confirm Redis subscription: %w", err)
	}

	c.App.Logger.Debug("Subscribed to swaps channel",
		zap.String("channel", c.App.SwapsChannel),
		zap.Int("attempt", attempt))

	if attempt > 1 {
		select {
		case send <- ServerMessage{Type: "info", Payload: map[string]interface{}{"message": "Redis connection established", "attempt": attempt}}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return c.processRedisMessages(ctx, pubsub, send, subs)
}

// processRedisMessages forwards messages until the channel closes (nil) or ctx is canceled.
func (c *Controller) processRedisMessages(ctx context.Context, pubsub *redis.PubSub, send chan<- ServerMessage, subs *clientSubscriptions) error {
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			out, forward, err := routeSwap(msg.Payload, subs)
			if err != nil {
				c.App.Logger.Warn("Failed to parse swap event",
					zap.Error(err),
					zap.String("channel", msg.Channel))
				continue
			}
			if !forward {
				continue
			}
			select {
			case send <- out:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// routeSwap decodes a published swap and reports whether the client is subscribed to its pool.
func routeSwap(payload string, subs *clientSubscriptions) (ServerMessage, bool, error) {
	var event evtypes.SwapIndexedEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return ServerMessage{}, false, err
	}
	if !subs.isSubscribed(event.Swap.LiquidityPool) {
		return ServerMessage{}, false, nil
	}
	return ServerMessage{Type: evtypes.SwapIndexedEventName, Payload: event}, true, nil
}

// calculateNextBackoff grows current by factor, capped at max, with +/- jitterFactor jitter.
func calculateNextBackoff(current, max time.Duration, factor, jitterFactor float64) time.Duration {
	next := time.Duration(float64(current) * factor)
	if next > max {
		next = max
	}

	jitter := float64(next) * jitterFactor * (2*rand.Float64() - 1)
	nextWithJitter := time.Duration(float64(next) + jitter)

	if nextWithJitter < current {
		nextWithJitter = current
	}
	if nextWithJitter > max {
		nextWithJitter = max
	}
	return nextWithJitter
}

// sendPings sends periodic WebSocket ping frames. The client's pong resets the read deadline.
func (c *Controller) sendPings(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				c.App.Logger.Debug("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}

// writeMessages is the only writer of data frames on conn.
func (c *Controller) writeMessages(ctx context.Context, conn *websocket.Conn, send <-chan ServerMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-send:
			data, err := json.Marshal(msg)
			if err != nil {
				c.App.Logger.Error("Failed to encode WebSocket message", zap.Error(err))
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.App.Logger.Debug("Failed to write WebSocket message", zap.Error(err))
				return
			}
		}
	}
}

// readClientMessages handles subscription requests until the connection closes.
func (c *Controller) readClientMessages(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc, subs *clientSubscriptions, send chan<- ServerMessage) {
	defer cancel()

	resetDeadline := func() error { return conn.SetReadDeadline(time.Now().Add(60 * time.Second)) }
	if err := resetDeadline(); err != nil {
		c.App.Logger.Error("Failed to set read deadline", zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error { return resetDeadline() })

	reply := func(msg ServerMessage) bool {
		select {
		case send <- msg:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.App.Logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		if err := resetDeadline(); err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if !reply(ServerMessage{Type: "error", Payload: map[string]string{"message": "invalid message"}}) {
				return
			}
			continue
		}

		var out ServerMessage
		switch {
		case msg.Action != "subscribe" && msg.Action != "unsubscribe":
			out = ServerMessage{Type: "error", Payload: map[string]string{"message": "unknown action: " + msg.Action}}
		case msg.Pool == "":
			out = ServerMessage{Type: "error", Payload: map[string]string{"message": "pool is required"}}
		case msg.Action == "subscribe":
			subs.subscribe(msg.Pool)
			out = ServerMessage{Type: "subscribed", Payload: map[string]string{"pool": msg.Pool}}
		default:
			subs.unsubscribe(msg.Pool)
			out = ServerMessage{Type: "unsubscribed", Payload: map[string]string{"pool": msg.Pool}}
		}
		if !reply(out) {
			return
		}
	}
}
