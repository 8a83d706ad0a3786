package codec

import (
	"errors"
	"fmt"
	"github.com/lithdew/bytesutil"
)

// Frame layout on the wire:
// - 1 byte: protocol version
// - 1 byte: flags (FlagEvent, FlagError)
// - 4 bytes: callID (int32, big endian)
// - 4 bytes: partitionID (int32, big endian, -1 if the frame is not bound to a partition)
// - 4 bytes: payload length (uint32, big endian)
// - N bytes: payload
const (
	// Version is the frame version written by this package
	Version uint8 = 1
	// HeaderSize is the fixed size of a frame header in bytes
	HeaderSize = 14
	// DefaultMaxFrameSize bounds the payload a decoder accepts if no limit is configured
	DefaultMaxFrameSize = 16 << 20
)

const (
	// FlagEvent marks a frame pushed by the member for an event subscription
	FlagEvent uint8 = 1 << iota
	// FlagError marks a response whose payload describes a remote failure
	FlagError
)

var (
	// ErrFrameTooLarge is returned by the decoder if a header announces a payload above the limit
	ErrFrameTooLarge = errors.New("codec: frame exceeds maximum size")
	// ErrBadFrameVersion is returned by the decoder for frames of an unknown version
	ErrBadFrameVersion = errors.New("codec: unsupported frame version")
)

// Frame is the unit exchanged between client and member.
// A frame must not be modified after it was handed to an encoder or returned by a decoder.
type Frame struct {
	Flags       uint8
	CallID      int32
	PartitionID int32
	Payload     []byte
}

// IsEvent reports whether the frame is a server pushed event
func (f *Frame) IsEvent() bool {
	return f.Flags&FlagEvent != 0
}

// IsError reports whether the frame carries a remote failure
func (f *Frame) IsError() bool {
	return f.Flags&FlagError != 0
}

// Size returns the number of bytes the frame occupies on the wire
func (f *Frame) Size() int {
	return HeaderSize + len(f.Payload)
}

// AppendTo appends the complete wire representation of the frame to dst
func (f *Frame) AppendTo(dst []byte) []byte {
	dst = appendHeader(dst, f)
	return append(dst, f.Payload...)
}

func (f *Frame) String() string {
	return fmt.Sprintf("Frame{callID=%d, partition=%d, flags=%08b, payload=%d bytes}",
		f.CallID, f.PartitionID, f.Flags, len(f.Payload))
}

func appendHeader(dst []byte, f *Frame) []byte {
	dst = append(dst, Version, f.Flags)
	dst = bytesutil.AppendUint32BE(dst, uint32(f.CallID))
	dst = bytesutil.AppendUint32BE(dst, uint32(f.PartitionID))
	return bytesutil.AppendUint32BE(dst, uint32(len(f.Payload)))
}
