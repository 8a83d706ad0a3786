package codec

import (
	"fmt"
	"github.com/lithdew/bytesutil"
)

// State is the progress of a Decoder on the current frame
type State uint8

const (
	// AwaitingHeader means the decoder still collects header bytes
	AwaitingHeader State = iota
	// AccumulatingBody means the header is parsed and payload bytes are collected
	AccumulatingBody
	// FrameComplete means a frame is available via Frame() until Reset is called
	FrameComplete
)

func (s State) String() string {
	switch s {
	case AwaitingHeader:
		return "AwaitingHeader"
	case AccumulatingBody:
		return "AccumulatingBody"
	case FrameComplete:
		return "FrameComplete"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Decoder reassembles frames from arbitrarily split chunks of a byte stream.
// It is not safe for concurrent use, a connection owns exactly one decoder on its read side.
type Decoder struct {
	maxSize int

	header [HeaderSize]byte
	hn     int

	frame Frame
	bn    int

	state State
}

// NewDecoder creates a decoder that rejects payloads above maxFrameSize.
// A maxFrameSize <= 0 selects DefaultMaxFrameSize.
func NewDecoder(maxFrameSize int) *Decoder {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &Decoder{maxSize: maxFrameSize}
}

// State returns the current decoding state
func (d *Decoder) State() State {
	return d.state
}

// Feed consumes bytes from src until the current frame is complete or src is exhausted.
// It returns the number of bytes consumed and whether a frame is complete. Bytes after the
// end of a frame are never consumed, the caller feeds them again after Reset.
func (d *Decoder) Feed(src []byte) (n int, done bool, err error) {
	if d.state == AwaitingHeader {
		c := copy(d.header[d.hn:], src)
		d.hn += c
		n += c
		src = src[c:]
		if d.hn < HeaderSize {
			return n, false, nil
		}
		if err := d.parseHeader(); err != nil {
			return n, false, err
		}
	}

	if d.state == AccumulatingBody {
		c := copy(d.frame.Payload[d.bn:], src)
		d.bn += c
		n += c
		if d.bn == len(d.frame.Payload) {
			d.state = FrameComplete
		}
	}

	return n, d.state == FrameComplete, nil
}

func (d *Decoder) parseHeader() error {
	if d.header[0] != Version {
		return fmt.Errorf("%w: %d", ErrBadFrameVersion, d.header[0])
	}
	length := bytesutil.Uint32BE(d.header[10:14])
	if uint64(length) > uint64(d.maxSize) {
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, d.maxSize)
	}

	d.frame = Frame{
		Flags:       d.header[1],
		CallID:      int32(bytesutil.Uint32BE(d.header[2:6])),
		PartitionID: int32(bytesutil.Uint32BE(d.header[6:10])),
		// every frame gets its own payload, it is handed to other goroutines
		Payload: make([]byte, length),
	}
	d.bn = 0
	d.state = AccumulatingBody
	if length == 0 {
		d.state = FrameComplete
	}
	return nil
}

// Frame returns the completed frame or nil if the current frame is not complete yet
func (d *Decoder) Frame() *Frame {
	if d.state != FrameComplete {
		return nil
	}
	f := d.frame
	return &f
}

// Reset discards the current frame and prepares the decoder for the next header
func (d *Decoder) Reset() {
	d.hn = 0
	d.bn = 0
	d.frame = Frame{}
	d.state = AwaitingHeader
}
