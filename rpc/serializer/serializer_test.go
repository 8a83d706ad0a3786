package serializer

import (
	"github.com/ValentinKolb/dGrid/rpc/common"
	"reflect"
	"testing"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
	"Proto":  NewProtoSerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Put request
		*common.NewPutRequest("users", "test-key", []byte("test-value")),

		// Get response
		*common.NewGetResponse([]byte("test-value"), true, nil),

		// Remove response with the previous value
		*common.NewRemoveResponse([]byte("old"), true, nil),

		// Listener handling, including a negative id
		*common.NewAddListenerResponse(42, nil),
		*common.NewRemoveListenerRequest("users", -7),

		// Entry event
		*common.NewEntryEvent(common.MsgTEventEntryUpdated, "users", "k", []byte("new"), []byte("old")),

		// Error response
		*common.NewErrorResponse("test error message"),

		// Message with all fields filled
		{
			MsgType:    common.MsgTMapPut,
			Map:        "test-map",
			Key:        "test-key",
			Value:      []byte("test-value"),
			OldValue:   []byte("test-old-value"),
			ListenerID: 1 << 30,
			Ok:         true,
			Err:        "partial failure",
			Meta:       []byte("test-meta-data"),
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestDeserializeResetsMessage tests that fields of a reused message do not leak into the next one
func TestDeserializeResetsMessage(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			data, err := serializer.Serialize(*common.NewContainsKeyRequest("m", "k"))
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			result := common.Message{Value: []byte("stale"), Ok: true, Err: "stale"}
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}
			if result.Value != nil || result.Ok || result.Err != "" {
				t.Errorf("stale fields survived: %+v", result)
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for msgType := common.MsgTSuccess; msgType <= common.MsgTEventEntryRemoved; msgType++ {
				msg := common.Message{MsgType: msgType}

				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Check type
				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s",
						msgType.String(), result.MsgType.String())
				}
			}
		})
	}
}

// TestEmptyByteFields tests that the binary and proto serializers keep empty and nil slices apart
func TestEmptyByteFields(t *testing.T) {
	testCases := []struct {
		name string
		msg  common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
		},
		{
			name: "Empty value slice but not nil",
			msg: common.Message{
				MsgType: common.MsgTMapPut,
				Key:     "test",
				Value:   []byte{},
			},
		},
		{
			name: "Empty old value and meta",
			msg: common.Message{
				MsgType:  common.MsgTMapRemove,
				OldValue: []byte{},
				Meta:     []byte{},
				Ok:       true,
			},
		},
	}

	for _, name := range []string{"Binary", "Proto"} {
		serializer := testSerializers[name]()
		for _, tc := range testCases {
			t.Run(name+"/"+tc.name, func(t *testing.T) {
				data, err := serializer.Serialize(tc.msg)
				if err != nil {
					t.Fatalf("Failed to serialize: %v", err)
				}

				var result common.Message
				if err := serializer.Deserialize(data, &result); err != nil {
					t.Fatalf("Failed to deserialize: %v", err)
				}

				if !reflect.DeepEqual(tc.msg, result) {
					t.Errorf("mismatch:\nOriginal: %#v\nResult: %#v", tc.msg, result)
				}
			})
		}
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Too short header",
			data:        []byte{1}, // Only message type, no flags
			expectError: true,
		},
		{
			name:        "Valid header only",
			data:        []byte{1, 0}, // Message type 1, no flags
			expectError: false,
		},
		{
			name:        "Invalid length for key",
			data:        []byte{1, hasKey, 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims key length 5 but only 3 bytes provided
			expectError: true,
		},
		{
			name:        "Invalid length for value",
			data:        []byte{1, hasValue, 0, 0, 0, 10}, // Claims value length 10 but no bytes provided
			expectError: true,
		},
		{
			name:        "Truncated listener id",
			data:        []byte{1, hasListenerID, 0, 0},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}

// TestInvalidProtoData tests how the proto serializer handles corrupt data and unknown fields
func TestInvalidProtoData(t *testing.T) {
	serializer := NewProtoSerializer()

	var msg common.Message
	// field 3 (key) claims 5 bytes, only 2 follow
	if err := serializer.Deserialize([]byte{0x1a, 5, 'a', 'b'}, &msg); err == nil {
		t.Error("Expected error for truncated bytes field")
	}

	// unknown field 15 (varint) followed by type = 4
	if err := serializer.Deserialize([]byte{0x78, 1, 0x08, 4}, &msg); err != nil {
		t.Fatalf("Unknown field should be skipped, got: %v", err)
	}
	if msg.MsgType != common.MessageType(4) {
		t.Errorf("Expected type 4, got %d", msg.MsgType)
	}
}
