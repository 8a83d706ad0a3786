package codec

// Encoder writes one frame incrementally into caller provided buffers.
// It keeps a cursor so a frame larger than the buffer is emitted over several Fill calls.
type Encoder struct {
	header  [HeaderSize]byte
	payload []byte
	pos     int
}

// NewEncoder creates an encoder for the given frame
func NewEncoder(f *Frame) *Encoder {
	e := &Encoder{}
	e.Reset(f)
	return e
}

// Reset prepares the encoder for the next frame, reusing its header storage
func (e *Encoder) Reset(f *Frame) {
	appendHeader(e.header[:0], f)
	e.payload = f.Payload
	e.pos = 0
}

// Len returns the total wire size of the current frame
func (e *Encoder) Len() int {
	return HeaderSize + len(e.payload)
}

// Remaining returns the number of bytes not yet emitted
func (e *Encoder) Remaining() int {
	return e.Len() - e.pos
}

// Fill copies as much of the remaining frame into dst as fits.
// It returns the number of bytes written and whether the frame is now fully emitted.
func (e *Encoder) Fill(dst []byte) (n int, done bool) {
	if e.pos < HeaderSize {
		c := copy(dst, e.header[e.pos:])
		e.pos += c
		n += c
		dst = dst[c:]
	}
	if e.pos >= HeaderSize {
		c := copy(dst, e.payload[e.pos-HeaderSize:])
		e.pos += c
		n += c
	}
	return n, e.pos == e.Len()
}
