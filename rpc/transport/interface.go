package transport

import (
	"context"
	"github.com/ValentinKolb/dGrid/rpc/transport/conn"
)

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport hands out live connections to the cluster members.
// Callers register their calls directly on the returned connection.
type IRPCClientTransport interface {
	// GetConnection returns a live connection to one of the configured endpoints,
	// dialing one if no live connection exists
	GetConnection(ctx context.Context) (*conn.Connection, error)
	// GetOrConnect returns a live connection to the given endpoint, dialing one if needed
	GetOrConnect(ctx context.Context, endpoint string) (*conn.Connection, error)
	// Shutdown closes all connections, pending calls fail with conn.ErrClientShuttingDown
	Shutdown()
}
