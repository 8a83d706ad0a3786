package conn

import (
	"errors"
	"github.com/ValentinKolb/dGrid/rpc/transport/codec"
	"io"
	"time"
)

// readLoop is the read pump. It runs until the socket fails or the connection is closed.
func (c *Connection) readLoop() {
	defer c.pumps.Done()

	for {
		frame, err := c.readFrame()
		if err != nil {
			if !c.Alive() {
				// closed locally, the socket error is a consequence
				return
			}
			if errors.Is(err, io.EOF) {
				err = ErrRemoteClosed
			}
			c.Close(err)
			return
		}
		c.dispatch(frame)
	}
}

// readFrame returns the next complete frame. The socket is only read once every
// buffered byte was handed to the decoder, so leftovers of a previous read are
// decoded first.
func (c *Connection) readFrame() (*codec.Frame, error) {
	for {
		if c.rd == c.wr {
			c.rd, c.wr = 0, 0
			n, err := c.socket.Read(c.readBuf)
			if n > 0 {
				c.wr = n
				c.lastRead.Store(time.Now().UnixNano())
				bytesRead.Add(n)
			} else if err != nil {
				return nil, err
			} else {
				continue
			}
		}

		n, done, err := c.dec.Feed(c.readBuf[c.rd:c.wr])
		c.rd += n
		if err != nil {
			return nil, err
		}
		if done {
			frame := c.dec.Frame()
			c.dec.Reset()
			framesRead.Inc()
			frameSizeRead.Update(float64(frame.Size()))
			return frame, nil
		}
	}
}

// dispatch routes an inbound frame to its pending call or event subscription
func (c *Connection) dispatch(frame *codec.Frame) {
	if frame.IsEvent() {
		if handler, ok := c.calls.handler(frame.CallID); ok {
			c.invoke(handler, frame)
			return
		}
		c.unmatched(frame)
		return
	}

	if call, ok := c.calls.resolve(frame.CallID); ok {
		call.Future.Complete(frame)
		return
	}
	if handler, ok := c.calls.handler(frame.CallID); ok {
		c.invoke(handler, frame)
		return
	}
	c.unmatched(frame)
}

// invoke runs an event handler on the read pump, a panicking handler is logged and skipped
func (c *Connection) invoke(handler EventHandler, frame *codec.Frame) {
	defer func() {
		if r := recover(); r != nil {
			handlerPanics.Inc()
			Logger.Errorf("Event handler for call %d on %s panicked: %v", frame.CallID, c, r)
		}
	}()
	eventsDispatched.Inc()
	handler(frame)
}

func (c *Connection) unmatched(frame *codec.Frame) {
	unmatchedFrames.Inc()
	Logger.Debugf("Dropping %v on %s: no pending call or subscription", frame, c)
}
