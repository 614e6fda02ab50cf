package rpc

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// DialEth connects an ethclient to endpoints. Several http(s) endpoints share one failover
// transport; a single websocket or ipc endpoint is dialed directly.
func DialEth(ctx context.Context, logger *zap.Logger, endpoints []string, timeout time.Duration) (*ethclient.Client, error) {
	if len(endpoints) == 1 && !strings.HasPrefix(endpoints[0], "http") {
		return ethclient.DialContext(ctx, endpoints[0])
	}

	transport, err := NewFailoverTransport(Opts{Endpoints: endpoints})
	if err != nil {
		return nil, err
	}
	logger.Info("Dialing rpc endpoints",
		zap.Strings("endpoints", endpoints),
		zap.String("primary", transport.Primary()))

	client, err := gethrpc.DialOptions(ctx, transport.Primary(),
		gethrpc.WithHTTPClient(&http.Client{Transport: transport, Timeout: timeout}))
	if err != nil {
		return nil, err
	}
	return ethclient.NewClient(client), nil
}
