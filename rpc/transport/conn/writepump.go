package conn

import (
	"github.com/ValentinKolb/dGrid/rpc/transport/codec"
	"github.com/valyala/bytebufferpool"
	"time"
)

// writeLoop is the write pump. It writes queued frames in FIFO order until the queue is
// closed. Frames dequeued after the connection was closed are dropped.
func (c *Connection) writeLoop() {
	defer c.pumps.Done()

	enc := &codec.Encoder{}
	for frame := range c.queue.Recv() {
		if !c.Alive() {
			continue
		}
		enc.Reset(frame)
		if err := c.writeEncoded(enc); err != nil {
			c.Close(err)
		}
	}
}

// discardQueue consumes the queue of a connection that was closed before Start
func (c *Connection) discardQueue() {
	defer c.pumps.Done()
	for range c.queue.Recv() {
	}
}

// writeEncoded writes a frame through a staging buffer of min(send buffer size, frame size)
// bytes, refilling it until the encoder reports completion
func (c *Connection) writeEncoded(enc *codec.Encoder) error {
	size := min(c.opts.SendBufferSize, enc.Len())

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if cap(buf.B) < size {
		buf.B = make([]byte, size)
	}
	staging := buf.B[:size]

	for {
		n, done := enc.Fill(staging)
		if err := c.writeFull(staging[:n]); err != nil {
			return err
		}
		if done {
			break
		}
	}

	framesWritten.Inc()
	frameSizeWritten.Update(float64(enc.Len()))
	return nil
}

// writeFull writes b completely, continuing after partial writes
func (c *Connection) writeFull(b []byte) error {
	for len(b) > 0 {
		n, err := c.socket.Write(b)
		if n > 0 {
			c.lastWrite.Store(time.Now().UnixNano())
			bytesWritten.Add(n)
			b = b[n:]
		}
		if err != nil {
			return err
		}
	}
	return nil
}
