package rpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/canopy-network/ammx/pkg/utils"
)

// ErrNoEndpoint is returned when every endpoint is skipped by its circuit breaker.
var ErrNoEndpoint = errors.New("no healthy rpc endpoint")

// FailoverTransport is an http.RoundTripper that spreads JSON-RPC requests over several
// endpoints with a circuit breaker per endpoint and a shared token bucket. Endpoints are tried in
// configuration order, so the first healthy one takes the traffic.
type FailoverTransport struct {
	endpoints []*url.URL
	base      http.RoundTripper

	// token-bucket
	tokens      int64
	maxTokens   int64
	refillEvery time.Duration
	lastRefill  atomic.Value // time.Time

	// circuit-breaker
	mu       sync.Mutex
	failures map[string]int
	opened   map[string]time.Time

	breakerThreshold int
	breakerCooldown  time.Duration
}

// Opts is the set of options for a new FailoverTransport.
type Opts struct {
	Endpoints       []string
	RPS             int
	Burst           int
	BreakerFailures int
	BreakerCooldown time.Duration
	Base            http.RoundTripper
}

// NewFailoverTransport creates a transport over the given http(s) endpoints.
func NewFailoverTransport(o Opts) (*FailoverTransport, error) {
	if o.RPS <= 0 {
		o.RPS = 20
	}
	if o.Burst <= 0 {
		o.Burst = 40
	}
	if o.BreakerFailures <= 0 {
		o.BreakerFailures = 3
	}
	if o.BreakerCooldown <= 0 {
		o.BreakerCooldown = 5 * time.Second
	}
	if o.Base == nil {
		o.Base = http.DefaultTransport
	}

	endpoints := utils.Dedup(o.Endpoints)
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints configured")
	}
	parsed := make([]*url.URL, 0, len(endpoints))
	for _, ep := range endpoints {
		u, err := url.Parse(ep)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint %q: %w", ep, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("endpoint %q: scheme must be http or https", ep)
		}
		parsed = append(parsed, u)
	}

	t := &FailoverTransport{
		endpoints:        parsed,
		base:             o.Base,
		maxTokens:        int64(o.Burst),
		refillEvery:      time.Second / time.Duration(o.RPS),
		failures:         map[string]int{},
		opened:           map[string]time.Time{},
		breakerThreshold: o.BreakerFailures,
		breakerCooldown:  o.BreakerCooldown,
	}
	t.tokens = t.maxTokens
	t.lastRefill.Store(time.Now())
	return t, nil
}

// Primary returns the first configured endpoint.
func (t *FailoverTransport) Primary() string {
	return t.endpoints[0].String()
}

// refill refills the token-bucket with new tokens if necessary.
func (t *FailoverTransport) refill() {
	last := t.lastRefill.Load().(time.Time)
	now := time.Now()
	if now.Sub(last) >= t.refillEvery {
		if atomic.LoadInt64(&t.tokens) < t.maxTokens {
			atomic.AddInt64(&t.tokens, 1)
		}
		t.lastRefill.Store(now)
	}
}

// acquire takes a token from the bucket, blocking until one is available or ctx is done.
func (t *FailoverTransport) acquire(ctx context.Context) error {
	for {
		t.refill()
		if atomic.AddInt64(&t.tokens, -1) >= 0 {
			return nil
		}
		atomic.AddInt64(&t.tokens, 1)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.refillEvery / 2):
		}
	}
}

// isOpen returns true if the endpoint's breaker is OPEN.
func (t *FailoverTransport) isOpen(ep string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	until, ok := t.opened[ep]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(t.opened, ep)
		t.failures[ep] = 0
		return false
	}
	return true
}

// noteFailure marks an endpoint as failed and opens the circuit-breaker if the failure count exceeds the threshold.
func (t *FailoverTransport) noteFailure(ep string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[ep]++
	if t.failures[ep] >= t.breakerThreshold {
		t.opened[ep] = time.Now().Add(t.breakerCooldown)
	}
}

func (t *FailoverTransport) noteSuccess(ep string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[ep] = 0
}

// RoundTrip sends req to the first endpoint whose breaker is closed, moving on after transport
// errors, 5xx and 429 answers. Other answers, including JSON-RPC errors, are returned as is.
func (t *FailoverTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var payload []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, err
		}
		payload = b
	}

	ctx := req.Context()
	lastErr := ErrNoEndpoint
	for _, ep := range t.endpoints {
		key := ep.String()
		if t.isOpen(key) {
			continue
		}
		if err := t.acquire(ctx); err != nil {
			return nil, err
		}

		attempt := req.Clone(ctx)
		target := *ep
		attempt.URL = &target
		attempt.Host = target.Host
		attempt.Body = io.NopCloser(bytes.NewReader(payload))
		attempt.ContentLength = int64(len(payload))
		attempt.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(payload)), nil
		}

		resp, err := t.base.RoundTrip(attempt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			t.noteFailure(key)
			continue
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("%s: http %d", target.Host, resp.StatusCode)
			t.noteFailure(key)
			_ = utils.DrainAndClose(resp.Body)
			continue
		}

		t.noteSuccess(key)
		return resp, nil
	}

	return nil, lastErr
}
