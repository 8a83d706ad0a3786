package serializer

import (
	"fmt"
	"github.com/ValentinKolb/dGrid/rpc/common"
	"google.golang.org/protobuf/encoding/protowire"
)

// NewProtoSerializer creates a new serializer using the protocol buffers wire format.
// The message corresponds to the following schema:
//
//	message Message {
//	  uint32 type        = 1;
//	  string map         = 2;
//	  string key         = 3;
//	  bytes  value       = 4;
//	  bytes  old_value   = 5;
//	  sint32 listener_id = 6;
//	  bool   ok          = 7;
//	  string err         = 8;
//	  bytes  meta        = 9;
//	}
func NewProtoSerializer() IRPCSerializer {
	return &protoSerializerImpl{}
}

// protoSerializerImpl implements the IRPCSerializer interface with protowire
type protoSerializerImpl struct {
}

const (
	protoFieldType       protowire.Number = 1
	protoFieldMap        protowire.Number = 2
	protoFieldKey        protowire.Number = 3
	protoFieldValue      protowire.Number = 4
	protoFieldOldValue   protowire.Number = 5
	protoFieldListenerID protowire.Number = 6
	protoFieldOk         protowire.Number = 7
	protoFieldErr        protowire.Number = 8
	protoFieldMeta       protowire.Number = 9
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (p protoSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	b := make([]byte, 0, 32+len(msg.Map)+len(msg.Key)+len(msg.Value)+len(msg.OldValue)+len(msg.Err)+len(msg.Meta))

	b = protowire.AppendTag(b, protoFieldType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(msg.MsgType))

	if msg.Map != "" {
		b = protowire.AppendTag(b, protoFieldMap, protowire.BytesType)
		b = protowire.AppendString(b, msg.Map)
	}
	if msg.Key != "" {
		b = protowire.AppendTag(b, protoFieldKey, protowire.BytesType)
		b = protowire.AppendString(b, msg.Key)
	}
	// byte fields are written whenever they are non nil to keep nil and empty apart
	if msg.Value != nil {
		b = protowire.AppendTag(b, protoFieldValue, protowire.BytesType)
		b = protowire.AppendBytes(b, msg.Value)
	}
	if msg.OldValue != nil {
		b = protowire.AppendTag(b, protoFieldOldValue, protowire.BytesType)
		b = protowire.AppendBytes(b, msg.OldValue)
	}
	if msg.ListenerID != 0 {
		b = protowire.AppendTag(b, protoFieldListenerID, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(msg.ListenerID)))
	}
	if msg.Ok {
		b = protowire.AppendTag(b, protoFieldOk, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	if msg.Err != "" {
		b = protowire.AppendTag(b, protoFieldErr, protowire.BytesType)
		b = protowire.AppendString(b, msg.Err)
	}
	if msg.Meta != nil {
		b = protowire.AppendTag(b, protoFieldMeta, protowire.BytesType)
		b = protowire.AppendBytes(b, msg.Meta)
	}
	return b, nil
}

func (p protoSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	*msg = common.Message{}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("invalid field tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case typ == protowire.VarintType && isVarintField(num):
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("invalid varint in field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case protoFieldType:
				msg.MsgType = common.MessageType(v)
			case protoFieldListenerID:
				msg.ListenerID = int32(protowire.DecodeZigZag(v))
			case protoFieldOk:
				msg.Ok = protowire.DecodeBool(v)
			}

		case typ == protowire.BytesType && !isVarintField(num):
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("invalid bytes in field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case protoFieldMap:
				msg.Map = string(v)
			case protoFieldKey:
				msg.Key = string(v)
			case protoFieldValue:
				msg.Value = append([]byte{}, v...)
			case protoFieldOldValue:
				msg.OldValue = append([]byte{}, v...)
			case protoFieldErr:
				msg.Err = string(v)
			case protoFieldMeta:
				msg.Meta = append([]byte{}, v...)
			}

		default:
			// unknown fields are skipped
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("invalid value in field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}

func isVarintField(num protowire.Number) bool {
	return num == protoFieldType || num == protoFieldListenerID || num == protoFieldOk
}
