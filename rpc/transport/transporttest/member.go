package transporttest

import (
	"bufio"
	"errors"
	"fmt"
	"github.com/ValentinKolb/dGrid/rpc/transport/codec"
	"github.com/ValentinKolb/dGrid/rpc/transport/websocket"
	"github.com/gobwas/ws"
	"github.com/lithdew/bytesutil"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"net"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var Logger = logger.GetLogger("transporttest")

// Handler answers a request frame. It runs on the read goroutine of the session.
type Handler func(s *Session, req *codec.Frame)

// Echo replies to every request with its own payload
func Echo(s *Session, req *codec.Frame) {
	_ = s.Reply(req, req.Payload)
}

// Option configures a Member
type Option func(m *Member)

// WithWebSocket makes the member accept WebSocket connections
func WithWebSocket() Option {
	return func(m *Member) { m.websocket = true }
}

// WithUnixSocket makes the member listen on a unix socket in a temporary directory
func WithUnixSocket() Option {
	return func(m *Member) { m.network = "unix" }
}

// Member is a fake cluster member. It accepts client connections, checks their preamble
// and hands every request frame to its handler.
type Member struct {
	network   string
	websocket bool
	handler   Handler
	listener  net.Listener

	mu       sync.Mutex
	sessions []*Session
	accepted chan *Session

	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewMember starts a member on a random local port. It is closed when the test ends.
func NewMember(t testing.TB, handler Handler, opts ...Option) *Member {
	t.Helper()
	m := &Member{
		network:  "tcp",
		handler:  handler,
		accepted: make(chan *Session, 64),
	}
	for _, opt := range opts {
		opt(m)
	}

	address := "127.0.0.1:0"
	if m.network == "unix" {
		address = filepath.Join(t.TempDir(), "member.sock")
	}
	listener, err := net.Listen(m.network, address)
	if err != nil {
		t.Fatalf("member failed to listen: %v", err)
	}
	m.listener = listener

	m.wg.Add(1)
	go m.acceptLoop()
	t.Cleanup(m.Close)
	return m
}

// Addr returns the endpoint clients connect to
func (m *Member) Addr() string {
	return m.listener.Addr().String()
}

// NextSession waits for the next accepted session whose preamble was read
func (m *Member) NextSession(timeout time.Duration) (*Session, error) {
	select {
	case s := <-m.accepted:
		return s, nil
	case <-time.After(timeout):
		return nil, errors.New("no session accepted in time")
	}
}

// Sessions returns all sessions accepted so far
func (m *Member) Sessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Session(nil), m.sessions...)
}

// Close stops accepting, closes every session and waits for their goroutines
func (m *Member) Close() {
	if !m.closed.CompareAndSwap(false, true) {
		return
	}
	_ = m.listener.Close()
	for _, s := range m.Sessions() {
		_ = s.Close()
	}
	m.wg.Wait()
}

func (m *Member) acceptLoop() {
	defer m.wg.Done()
	for {
		c, err := m.listener.Accept()
		if err != nil {
			if !m.closed.Load() {
				Logger.Errorf("Accept error: %v", err)
			}
			return
		}
		m.wg.Add(1)
		go m.serve(c)
	}
}

// serve upgrades the connection if needed, reads the preamble and then the request frames
func (m *Member) serve(c net.Conn) {
	defer m.wg.Done()

	if m.websocket {
		if _, err := ws.Upgrade(c); err != nil {
			Logger.Warningf("WebSocket upgrade failed: %v", err)
			_ = c.Close()
			return
		}
		c = websocket.NewStreamConn(c, nil, ws.StateServerSide)
	}

	s := &Session{conn: c, r: bufio.NewReader(c)}
	m.mu.Lock()
	closed := m.closed.Load()
	if !closed {
		m.sessions = append(m.sessions, s)
	}
	m.mu.Unlock()
	if closed {
		_ = c.Close()
		return
	}
	defer s.Close()

	preamble := make([]byte, 6)
	if _, err := io.ReadFull(s.r, preamble); err != nil {
		return
	}
	s.preamble = string(preamble)
	if s.preamble[:3] != "CB1" {
		Logger.Warningf("Rejecting connection with preamble %q", s.preamble)
		return
	}
	m.accepted <- s

	for {
		req, err := s.readFrame()
		if err != nil {
			return
		}
		s.received.Add(1)
		if m.handler != nil {
			m.handler(s, req)
		}
	}
}

// --------------------------------------------------------------------------
// Session
// --------------------------------------------------------------------------

// Session is the member side of one client connection
type Session struct {
	conn     net.Conn
	r        *bufio.Reader
	preamble string
	received atomic.Int64

	writeMu sync.Mutex
}

// Preamble returns the 6 byte greeting the client sent
func (s *Session) Preamble() string {
	return s.preamble
}

// Received returns the number of request frames read so far
func (s *Session) Received() int64 {
	return s.received.Load()
}

// Reply answers a request with the given payload
func (s *Session) Reply(req *codec.Frame, payload []byte) error {
	return s.WriteFrame(&codec.Frame{CallID: req.CallID, PartitionID: req.PartitionID, Payload: payload})
}

// ReplyError answers a request with a failure payload
func (s *Session) ReplyError(req *codec.Frame, payload []byte) error {
	return s.WriteFrame(&codec.Frame{Flags: codec.FlagError, CallID: req.CallID, PartitionID: req.PartitionID, Payload: payload})
}

// Push sends an event frame for the subscription with the given call id
func (s *Session) Push(callID int32, payload []byte) error {
	return s.WriteFrame(&codec.Frame{Flags: codec.FlagEvent, CallID: callID, PartitionID: -1, Payload: payload})
}

// WriteFrame writes a complete frame
func (s *Session) WriteFrame(f *codec.Frame) error {
	return s.WriteRaw(f.AppendTo(nil))
}

// WriteRaw writes arbitrary bytes, e.g. a frame split at a chosen offset
func (s *Session) WriteRaw(b []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.conn.Write(b)
	return err
}

// Close closes the connection, the client sees the end of the stream
func (s *Session) Close() error {
	return s.conn.Close()
}

func (s *Session) readFrame() (*codec.Frame, error) {
	header := make([]byte, codec.HeaderSize)
	if _, err := io.ReadFull(s.r, header); err != nil {
		return nil, err
	}

	dec := codec.NewDecoder(0)
	_, done, err := dec.Feed(header)
	if err != nil {
		return nil, err
	}
	if !done {
		body := make([]byte, bytesutil.Uint32BE(header[10:14]))
		if _, err := io.ReadFull(s.r, body); err != nil {
			return nil, err
		}
		if _, done, err = dec.Feed(body); err != nil {
			return nil, err
		}
		if !done {
			return nil, fmt.Errorf("incomplete frame")
		}
	}
	return dec.Frame(), nil
}
