package websocket

import (
	"bufio"
	"errors"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"io"
	"net"
	"sync"
	"time"
)

// closeTimeout bounds the wait for pending writes and the close frame
const closeTimeout = time.Second

// StreamConn adapts a WebSocket connection to a byte stream. Every Write is sent as one
// binary message, Read returns the payload of the received data messages in order, so
// frames may span message boundaries just like on a plain socket.
type StreamConn struct {
	net.Conn

	state ws.State
	rw    io.ReadWriter
	// pending holds the unread rest of the last received message
	pending []byte

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// NewStreamConn wraps an upgraded connection. br holds bytes buffered during the
// handshake and may be nil. state selects the client or server side of the protocol.
func NewStreamConn(conn net.Conn, br *bufio.Reader, state ws.State) *StreamConn {
	var r io.Reader = conn
	if br != nil {
		r = br
	}
	s := &StreamConn{Conn: conn, state: state}
	// control frame replies written while reading share the write lock
	s.rw = struct {
		io.Reader
		io.Writer
	}{r, lockedWriter{s}}
	return s
}

type lockedWriter struct {
	s *StreamConn
}

func (w lockedWriter) Write(p []byte) (int, error) {
	w.s.writeMu.Lock()
	defer w.s.writeMu.Unlock()
	return w.s.Conn.Write(p)
}

// Read reads from the current message, receiving the next data message if it is used up.
// Control frames are handled transparently, a close frame ends the stream with io.EOF.
func (s *StreamConn) Read(p []byte) (int, error) {
	for len(s.pending) == 0 {
		data, _, err := wsutil.ReadData(s.rw, s.state)
		if err != nil {
			var closed wsutil.ClosedError
			if errors.As(err, &closed) {
				return 0, io.EOF
			}
			return 0, err
		}
		s.pending = data
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// Write sends p as a single binary message
func (s *StreamConn) Write(p []byte) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := wsutil.WriteMessage(s.Conn, s.state, ws.OpBinary, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a close frame and closes the underlying connection
func (s *StreamConn) Close() error {
	err := net.ErrClosed
	s.closeOnce.Do(func() {
		// unblock a writer stuck on a peer that stopped reading
		_ = s.Conn.SetWriteDeadline(time.Now().Add(closeTimeout))
		s.writeMu.Lock()
		// best effort, the peer may already be gone
		_ = wsutil.WriteMessage(s.Conn, s.state, ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
		s.writeMu.Unlock()
		err = s.Conn.Close()
	})
	return err
}
