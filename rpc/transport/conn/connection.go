package conn

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dGrid/lib/util"
	"github.com/ValentinKolb/dGrid/rpc/transport/codec"
	"github.com/lni/dragonboat/v4/logger"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger("transport/conn")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IConnectionManager creates and retires connections. A connection only depends on this
// interface, the default implementation lives in the transport/base package.
type IConnectionManager interface {
	// AllocateConnectionID returns a process unique connection id
	AllocateConnectionID() int64

	// AllocateCallID returns a call id that is not in use on any live connection
	AllocateCallID() int32

	// OnConnectionDestroyed is called exactly once after a connection was closed
	OnConnectionDestroyed(conn *Connection)

	// IsLive returns false once the client shuts down
	IsLive() bool
}

// -----------------------------------------------------------
// Constants and Options
// -----------------------------------------------------------

const (
	// ProtocolID is the first part of the preamble every connection starts with
	ProtocolID = "CB1"
	// DefaultClientType identifies this client implementation in the preamble
	DefaultClientType = "GOC"
	// PreambleSize is the size of the protocol id and the client type tag
	PreambleSize = 6
	// DefaultBufferSize is used if the socket buffer sizes are unknown
	DefaultBufferSize = 64 << 10
)

const (
	stateOpen uint32 = iota
	stateClosed
)

// Options configure a connection. Zero values select the defaults.
type Options struct {
	// ReceiveBufferSize is the size of the read buffer, usually SO_RCVBUF of the socket
	ReceiveBufferSize int
	// SendBufferSize bounds the staging buffer of the write pump, usually SO_SNDBUF of the socket
	SendBufferSize int
	// MaxFrameSize is the largest payload accepted from the member
	MaxFrameSize int
	// ClientType is the 3 byte client tag sent in the preamble
	ClientType string
}

func (o Options) withDefaults() Options {
	if o.ReceiveBufferSize <= 0 {
		o.ReceiveBufferSize = DefaultBufferSize
	}
	if o.SendBufferSize <= 0 {
		o.SendBufferSize = DefaultBufferSize
	}
	if o.MaxFrameSize <= 0 {
		o.MaxFrameSize = codec.DefaultMaxFrameSize
	}
	if o.ClientType == "" {
		o.ClientType = DefaultClientType
	}
	return o
}

// -----------------------------------------------------------
// Connection
// -----------------------------------------------------------

// Connection multiplexes calls and event subscriptions over a single socket to a cluster member.
// The connection goes from open to closed exactly once and is never reopened.
type Connection struct {
	id      int64
	manager IConnectionManager
	socket  net.Conn
	opts    Options

	state   atomic.Uint32
	closed  chan struct{}
	failure atomic.Pointer[error]

	started atomic.Bool
	pumps   sync.WaitGroup

	calls *callTable
	queue *util.LockFreeMPSC[codec.Frame]

	// owned by the read side (ReadSync before Start, the read pump afterwards)
	readBuf []byte
	rd, wr  int
	dec     *codec.Decoder

	endpoint  atomic.Pointer[string]
	lastRead  atomic.Int64
	lastWrite atomic.Int64
}

// NewConnection wraps an established socket. The id is allocated from the manager.
// The connection does not read or write until Init and Start are called.
func NewConnection(manager IConnectionManager, socket net.Conn, opts Options) *Connection {
	opts = opts.withDefaults()
	c := &Connection{
		id:      manager.AllocateConnectionID(),
		manager: manager,
		socket:  socket,
		opts:    opts,
		closed:  make(chan struct{}),
		calls:   newCallTable(),
		queue:   util.NewLockFreeMPSC[codec.Frame](),
		readBuf: make([]byte, opts.ReceiveBufferSize),
		dec:     codec.NewDecoder(opts.MaxFrameSize),
	}
	connectionsOpened.Inc()
	return c
}

// --------------------------------------------------------------------------
// Handshake and synchronous I/O (only valid before Start)
// --------------------------------------------------------------------------

// Init writes the preamble. It has to be called once before any frame is written.
func (c *Connection) Init() error {
	if len(c.opts.ClientType) != PreambleSize-len(ProtocolID) {
		return fmt.Errorf("client type %q must be %d bytes", c.opts.ClientType, PreambleSize-len(ProtocolID))
	}
	if !c.Alive() {
		return ErrConnectionClosed
	}
	if c.started.Load() {
		return ErrPumpsRunning
	}

	preamble := make([]byte, 0, PreambleSize)
	preamble = append(preamble, ProtocolID...)
	preamble = append(preamble, c.opts.ClientType...)
	if err := c.writeFull(preamble); err != nil {
		return fmt.Errorf("failed to write preamble: %w", err)
	}
	return nil
}

// WriteSync writes a frame on the calling goroutine, e.g. for an authentication exchange.
func (c *Connection) WriteSync(frame *codec.Frame) error {
	if c.started.Load() {
		return ErrPumpsRunning
	}
	if !c.Alive() {
		return ErrConnectionClosed
	}
	return c.writeEncoded(codec.NewEncoder(frame))
}

// ReadSync reads the next frame on the calling goroutine.
// Bytes read beyond the frame stay buffered for the read pump.
func (c *Connection) ReadSync() (*codec.Frame, error) {
	if c.started.Load() {
		return nil, ErrPumpsRunning
	}
	if !c.Alive() {
		return nil, ErrConnectionClosed
	}
	return c.readFrame()
}

// Start launches the read and write pump
func (c *Connection) Start() error {
	if !c.Alive() {
		return ErrConnectionClosed
	}
	if !c.started.CompareAndSwap(false, true) {
		return ErrPumpsRunning
	}
	c.pumps.Add(2)
	go c.readLoop()
	go c.writeLoop()
	return nil
}

// Wait blocks until both pumps have exited
func (c *Connection) Wait() {
	c.pumps.Wait()
}

// --------------------------------------------------------------------------
// Calls and events
// --------------------------------------------------------------------------

// RegisterCall assigns a fresh call id to the request of call and makes the call
// resolvable by inbound frames. If the call has a handler it is also registered as
// an event subscription. A call registered on a closed connection is failed at once.
func (c *Connection) RegisterCall(call *Call) int32 {
	if call.Future == nil {
		call.Future = NewFuture()
	}
	id := c.manager.AllocateCallID()
	call.Request.CallID = id
	c.calls.register(id, call)

	// a concurrent Close may have drained the table before the insert
	if !c.Alive() {
		if late, ok := c.calls.resolve(id); ok {
			late.Future.Fail(c.closeFailure())
		}
		c.calls.deregisterHandler(id)
	}
	return id
}

// ResolveCall removes the pending call with the given id.
// Resolving an unknown or already resolved id is a no-op.
func (c *Connection) ResolveCall(callID int32) (*Call, bool) {
	return c.calls.resolve(callID)
}

// EventHandler returns the handler of an event subscription without removing it
func (c *Connection) EventHandler(callID int32) (EventHandler, bool) {
	return c.calls.handler(callID)
}

// DeregisterEventHandler ends an event subscription
func (c *Connection) DeregisterEventHandler(callID int32) bool {
	_, ok := c.calls.deregisterHandler(callID)
	return ok
}

// PendingCalls returns the number of calls waiting for a response
func (c *Connection) PendingCalls() int {
	return c.calls.size()
}

// Send enqueues a frame for the write pump. It returns false if the connection is closed.
func (c *Connection) Send(frame *codec.Frame) bool {
	if !c.Alive() {
		return false
	}
	return c.queue.Push(frame)
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

// Close shuts the connection down. Only the first call has an effect: it stops the pumps,
// fails every pending call, drops all event subscriptions and notifies the manager.
// A nil cause marks an explicit close.
func (c *Connection) Close(cause error) {
	if !c.state.CompareAndSwap(stateOpen, stateClosed) {
		return
	}
	close(c.closed)

	if err := c.socket.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		Logger.Warningf("Error closing socket of %s: %v", c, err)
	}

	c.queue.Close()
	if c.started.CompareAndSwap(false, true) {
		// no write pump will ever consume the queue
		c.pumps.Add(1)
		go c.discardQueue()
	}

	failure := c.newFailure(cause)
	c.failure.Store(&failure)

	drained := 0
	c.calls.drain(func(_ int32, call *Call) {
		call.Future.Fail(failure)
		drained++
	})

	if cause == nil {
		Logger.Infof("%s closed explicitly, failed %d pending calls", c, drained)
	} else {
		Logger.Warningf("%s lost. Reason: %v", c, cause)
	}

	connectionsClosed.Inc()
	c.manager.OnConnectionDestroyed(c)
}

// newFailure builds the error handed to pending calls of a closing connection
func (c *Connection) newFailure(cause error) error {
	if !c.manager.IsLive() {
		return ErrClientShuttingDown
	}
	if cause == nil {
		cause = ErrConnectionClosed
	}
	return &DisconnectError{ConnID: c.id, Endpoint: c.Endpoint(), Cause: cause}
}

func (c *Connection) closeFailure() error {
	if p := c.failure.Load(); p != nil {
		return *p
	}
	return c.newFailure(nil)
}

// Closed returns a channel that is closed once the connection is closed
func (c *Connection) Closed() <-chan struct{} {
	return c.closed
}

// Alive reports whether the connection is still open
func (c *Connection) Alive() bool {
	return c.state.Load() == stateOpen
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// ID returns the process unique id of the connection
func (c *Connection) ID() int64 {
	return c.id
}

// Endpoint returns the endpoint of the member, or the remote address until it was set
func (c *Connection) Endpoint() string {
	if ep := c.endpoint.Load(); ep != nil {
		return *ep
	}
	return c.RemoteAddr()
}

// SetEndpoint records the endpoint after the handshake. Only the first call has an effect.
func (c *Connection) SetEndpoint(endpoint string) bool {
	return c.endpoint.CompareAndSwap(nil, &endpoint)
}

// RemoteAddr returns the remote address of the socket
func (c *Connection) RemoteAddr() string {
	if addr := c.socket.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// LastRead returns the time bytes were last read from the socket
func (c *Connection) LastRead() time.Time {
	return unixNano(c.lastRead.Load())
}

// LastWrite returns the time bytes were last written to the socket
func (c *Connection) LastWrite() time.Time {
	return unixNano(c.lastWrite.Load())
}

func unixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (c *Connection) String() string {
	return fmt.Sprintf("Connection [%d -> %s] live=%t", c.id, c.Endpoint(), c.Alive())
}
