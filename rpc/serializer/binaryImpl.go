package serializer

import (
	"fmt"
	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/lithdew/bytesutil"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format:
// type(1) | flags(1) | every present field in flag order.
// Strings and byte slices are prefixed with their length (uint32, big endian).
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasMap        byte = 1 << 0
	hasKey        byte = 1 << 1
	hasValue      byte = 1 << 2
	hasOldValue   byte = 1 << 3
	hasListenerID byte = 1 << 4
	hasOk         byte = 1 << 5
	hasErr        byte = 1 << 6
	hasMeta       byte = 1 << 7
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	result := make([]byte, 2, b.sizeBytes(msg))
	result[0] = byte(msg.MsgType)

	var flags byte
	if msg.Map != "" {
		flags |= hasMap
		result = appendBytes(result, []byte(msg.Map))
	}
	if msg.Key != "" {
		flags |= hasKey
		result = appendBytes(result, []byte(msg.Key))
	}
	if msg.Value != nil {
		flags |= hasValue
		result = appendBytes(result, msg.Value)
	}
	if msg.OldValue != nil {
		flags |= hasOldValue
		result = appendBytes(result, msg.OldValue)
	}
	if msg.ListenerID != 0 {
		flags |= hasListenerID
		result = bytesutil.AppendUint32BE(result, uint32(msg.ListenerID))
	}
	if msg.Ok {
		// the flag alone carries the value
		flags |= hasOk
	}
	if msg.Err != "" {
		flags |= hasErr
		result = appendBytes(result, []byte(msg.Err))
	}
	if msg.Meta != nil {
		flags |= hasMeta
		result = appendBytes(result, msg.Meta)
	}

	// Set flags byte after knowing which fields are present
	result[1] = flags
	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	*msg = common.Message{MsgType: common.MessageType(data[0])}
	flags := data[1]
	r := binaryReader{data: data, pos: 2}

	if flags&hasMap != 0 {
		msg.Map = string(r.bytes("map"))
	}
	if flags&hasKey != 0 {
		msg.Key = string(r.bytes("key"))
	}
	if flags&hasValue != 0 {
		msg.Value = r.bytes("value")
	}
	if flags&hasOldValue != 0 {
		msg.OldValue = r.bytes("old value")
	}
	if flags&hasListenerID != 0 {
		msg.ListenerID = int32(r.uint32("listener id"))
	}
	msg.Ok = flags&hasOk != 0
	if flags&hasErr != 0 {
		msg.Err = string(r.bytes("error"))
	}
	if flags&hasMeta != 0 {
		msg.Meta = r.bytes("meta")
	}

	return r.err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	if msg.Map != "" {
		size += 4 + len(msg.Map)
	}
	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.OldValue != nil {
		size += 4 + len(msg.OldValue)
	}
	if msg.ListenerID != 0 {
		size += 4
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta)
	}
	return size
}

// appendBytes appends a length prefixed byte slice
func appendBytes(dst, b []byte) []byte {
	dst = bytesutil.AppendUint32BE(dst, uint32(len(b)))
	return append(dst, b...)
}

// binaryReader reads length prefixed fields, the first error sticks
type binaryReader struct {
	data []byte
	pos  int
	err  error
}

func (r *binaryReader) uint32(field string) uint32 {
	if r.err != nil {
		return 0
	}
	if r.pos+4 > len(r.data) {
		r.err = fmt.Errorf("data too short for %s", field)
		return 0
	}
	v := bytesutil.Uint32BE(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v
}

// bytes returns a copy of the next length prefixed field, an empty field yields an empty (not nil) slice
func (r *binaryReader) bytes(field string) []byte {
	n := int(r.uint32(field + " length"))
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.data) {
		r.err = fmt.Errorf("data too short for %s data", field)
		return nil
	}
	b := make([]byte, n)
	copy(b, r.data[r.pos:r.pos+n])
	r.pos += n
	return b
}
