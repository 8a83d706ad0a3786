package websocket

import (
	"context"
	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/ValentinKolb/dGrid/rpc/transport"
	"github.com/ValentinKolb/dGrid/rpc/transport/base"
	"github.com/gobwas/ws"
	"net"
	"strings"
	"time"
)

// clientConnector implements the IClientConnector interface for WebSocket connections
type clientConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "ws"
}

// Connect performs the WebSocket handshake. Endpoints without a scheme are dialed as ws://endpoint/.
func (c *clientConnector) Connect(ctx context.Context, endpoint string) (net.Conn, error) {
	conn, br, _, err := ws.Dial(ctx, endpointURL(endpoint))
	if err != nil {
		return nil, err
	}
	return NewStreamConn(conn, br, ws.StateClientSide), nil
}

// UpgradeConnection applies TCP_NODELAY and keep-alive to the connection below the WebSocket
func (c *clientConnector) UpgradeConnection(conn net.Conn, config common.ClientConfig) error {
	stream, ok := conn.(*StreamConn)
	if !ok {
		return nil
	}
	tcpConn, ok := stream.Conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	if err := tcpConn.SetNoDelay(config.Transport.TCPNoDelay); err != nil {
		return err
	}
	if config.Transport.TCPKeepAliveSec > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		return tcpConn.SetKeepAlivePeriod(time.Duration(config.Transport.TCPKeepAliveSec) * time.Second)
	}
	return nil
}

func endpointURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "ws://") || strings.HasPrefix(endpoint, "wss://") {
		return endpoint
	}
	return "ws://" + endpoint + "/"
}

// --------------------------------------------------------------------------
// Client Transport Factory Method
// --------------------------------------------------------------------------

// NewWSClientTransport creates a new WebSocket client transport
func NewWSClientTransport(config common.ClientConfig) transport.IRPCClientTransport {
	return base.NewManager(&clientConnector{}, config)
}
