package base

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/ValentinKolb/dGrid/rpc/transport"
	"github.com/ValentinKolb/dGrid/rpc/transport/conn"
	"github.com/jpillora/backoff"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger("transport/rpc")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint, honoring the deadline of ctx
	Connect(ctx context.Context, endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// DestroyListener is notified after a connection of the manager was destroyed
type DestroyListener func(c *conn.Connection)

// -----------------------------------------------------------
// Manager
// -----------------------------------------------------------

// Manager is the default connection manager. It dials connections through a connector,
// allocates connection and call ids and keeps track of the live connections.
type Manager struct {
	connector IClientConnector
	config    common.ClientConfig

	nextConnID atomic.Int64
	nextCallID atomic.Int32
	live       atomic.Bool

	connections *xsync.MapOf[int64, *conn.Connection]
	byEndpoint  *xsync.MapOf[string, *conn.Connection]
	connectMu   sync.Mutex // serializes dialing, so each endpoint gets one connection

	listenersMu sync.RWMutex
	listeners   []DestroyListener
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewManager creates a new connection manager with the specified connector
func NewManager(connector IClientConnector, config common.ClientConfig) *Manager {
	m := &Manager{
		connector:   connector,
		config:      config,
		connections: xsync.NewMapOf[int64, *conn.Connection](),
		byEndpoint:  xsync.NewMapOf[string, *conn.Connection](),
	}
	m.live.Store(true)
	return m
}

// NewBaseClientTransport creates a client transport for the configured endpoints
func NewBaseClientTransport(connector IClientConnector, config common.ClientConfig) transport.IRPCClientTransport {
	return NewManager(connector, config)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see conn.IConnectionManager)
// --------------------------------------------------------------------------

func (m *Manager) AllocateConnectionID() int64 {
	return m.nextConnID.Add(1)
}

func (m *Manager) AllocateCallID() int32 {
	for {
		id := m.nextCallID.Add(1)
		if id > 0 {
			return id
		}
		// wrapped around, start over at 1
		m.nextCallID.CompareAndSwap(id, 0)
	}
}

func (m *Manager) OnConnectionDestroyed(c *conn.Connection) {
	m.connections.Delete(c.ID())
	m.byEndpoint.Compute(c.Endpoint(), func(current *conn.Connection, loaded bool) (*conn.Connection, bool) {
		// only drop the entry if it still points to the destroyed connection
		return current, !loaded || current == c
	})

	m.listenersMu.RLock()
	defer m.listenersMu.RUnlock()
	for _, l := range m.listeners {
		l(c)
	}
}

func (m *Manager) IsLive() bool {
	return m.live.Load()
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (m *Manager) GetConnection(ctx context.Context) (*conn.Connection, error) {
	if len(m.config.Endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints provided")
	}

	var lastErr error
	for _, endpoint := range m.config.Endpoints {
		c, err := m.GetOrConnect(ctx, endpoint)
		if err == nil {
			return c, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
		Logger.Warningf("Failed to connect to %s: %v", endpoint, err)
	}
	return nil, fmt.Errorf("failed to connect to any endpoint: %w", lastErr)
}

func (m *Manager) GetOrConnect(ctx context.Context, endpoint string) (*conn.Connection, error) {
	if c, ok := m.byEndpoint.Load(endpoint); ok && c.Alive() {
		return c, nil
	}

	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	// another caller may have connected while we waited for the lock
	if c, ok := m.byEndpoint.Load(endpoint); ok && c.Alive() {
		return c, nil
	}
	return m.Connect(ctx, endpoint)
}

func (m *Manager) Shutdown() {
	if !m.live.CompareAndSwap(true, false) {
		return
	}

	closing := m.Connections()
	for _, c := range closing {
		c.Close(nil)
	}
	for _, c := range closing {
		c.Wait()
	}
	Logger.Infof("Shut down %s transport, closed %d connections", m.connector.GetName(), len(closing))
}

// --------------------------------------------------------------------------
// Connection handling
// --------------------------------------------------------------------------

// Connect dials a new connection to the endpoint, writes the preamble and starts its pumps.
// Failed dial attempts are retried DialRetries times with a jittered backoff.
func (m *Manager) Connect(ctx context.Context, endpoint string) (*conn.Connection, error) {
	if !m.IsLive() {
		return nil, conn.ErrClientShuttingDown
	}

	socket, err := m.dial(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	// Upgrade the connection with protocol-specific settings
	if err := m.connector.UpgradeConnection(socket, m.config); err != nil {
		_ = socket.Close()
		return nil, fmt.Errorf("failed to upgrade connection to %s: %w", endpoint, err)
	}

	rcv, snd := socketBufferSizes(socket)
	c := conn.NewConnection(m, socket, conn.Options{
		ReceiveBufferSize: bufferSize(rcv, m.config.Transport.ReadBufferSize),
		SendBufferSize:    bufferSize(snd, m.config.Transport.WriteBufferSize),
		MaxFrameSize:      m.config.Transport.MaxFrameSize,
		ClientType:        m.config.ClientType,
	})
	c.SetEndpoint(endpoint)

	if err := c.Init(); err != nil {
		c.Close(err)
		return nil, fmt.Errorf("handshake with %s failed: %w", endpoint, err)
	}

	m.connections.Store(c.ID(), c)
	m.byEndpoint.Store(endpoint, c)

	// Shutdown may have taken its snapshot while we were dialing
	if !m.IsLive() {
		c.Close(nil)
		c.Wait()
		return nil, conn.ErrClientShuttingDown
	}

	if err := c.Start(); err != nil {
		c.Close(err)
		return nil, fmt.Errorf("failed to start connection to %s: %w", endpoint, err)
	}

	Logger.Infof("Connected to %s using %s transport (connection %d)", endpoint, m.connector.GetName(), c.ID())
	return c, nil
}

// dial connects through the connector, retrying failed attempts with a jittered backoff
func (m *Manager) dial(ctx context.Context, endpoint string) (net.Conn, error) {
	b := &backoff.Backoff{
		Factor: 1.25,
		Jitter: true,
		Min:    100 * time.Millisecond,
		Max:    2 * time.Second,
	}

	attempts := 1 + max(0, m.config.Transport.DialRetries)
	var lastErr error
	for i := 0; i < attempts; i++ {
		dialCtx, cancel := ctx, context.CancelFunc(func() {})
		if m.config.Transport.ConnectTimeoutSecond > 0 {
			dialCtx, cancel = context.WithTimeout(ctx, time.Duration(m.config.Transport.ConnectTimeoutSecond)*time.Second)
		}
		socket, err := m.connector.Connect(dialCtx, endpoint)
		cancel()
		if err == nil {
			return socket, nil
		}

		lastErr = err
		Logger.Debugf("Dial attempt %d/%d to %s failed: %v", i+1, attempts, endpoint, err)

		if i+1 < attempts {
			select {
			case <-time.After(b.Duration()):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("failed to connect to %s after %d attempts: %w", endpoint, attempts, lastErr)
}

// Connection returns the live connection with the given id
func (m *Manager) Connection(id int64) (*conn.Connection, bool) {
	return m.connections.Load(id)
}

// Connections returns a snapshot of all live connections
func (m *Manager) Connections() []*conn.Connection {
	result := make([]*conn.Connection, 0, m.connections.Size())
	m.connections.Range(func(_ int64, c *conn.Connection) bool {
		result = append(result, c)
		return true
	})
	return result
}

// AddDestroyListener registers a listener that is called for every destroyed connection
func (m *Manager) AddDestroyListener(l DestroyListener) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.listeners = append(m.listeners, l)
}
