package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for requests, responses and entry events.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Map        string `json:"map,omitempty"`        // Name of the distributed map, used by all map operations
	Key        string `json:"key,omitempty"`        // Used for: Put, PutIfAbsent, Get, Remove, ContainsKey, events
	Value      []byte `json:"value,omitempty"`      // Used for: Put (request), PutIfAbsent, Get (response), events
	OldValue   []byte `json:"oldValue,omitempty"`   // Used for: Put, Remove (responses), update and remove events
	ListenerID int32  `json:"listenerId,omitempty"` // Used for: AddListener (response), RemoveListener (request)

	// Response only fields
	Ok  bool   `json:"ok,omitempty"`  // Used for: Put, PutIfAbsent, Get, Remove, ContainsKey, RemoveListener responses
	Err string `json:"err,omitempty"` // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Unused, can be used for additional Adapters
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

func withErr(msg *Message, err error) *Message {
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewPutRequest creates a new Put request
func NewPutRequest(mapName, key string, value []byte) *Message {
	return &Message{
		MsgType: MsgTMapPut,
		Map:     mapName,
		Key:     key,
		Value:   value,
	}
}

// NewPutResponse creates a new Put response, ok reports whether a previous value was replaced
func NewPutResponse(oldValue []byte, ok bool, err error) *Message {
	return withErr(&Message{
		MsgType:  MsgTMapPut,
		OldValue: oldValue,
		Ok:       ok,
	}, err)
}

// NewPutIfAbsentRequest creates a new PutIfAbsent request
func NewPutIfAbsentRequest(mapName, key string, value []byte) *Message {
	return &Message{
		MsgType: MsgTMapPutIfAbsent,
		Map:     mapName,
		Key:     key,
		Value:   value,
	}
}

// NewPutIfAbsentResponse creates a new PutIfAbsent response. ok reports whether the value
// was stored, otherwise value holds the existing value.
func NewPutIfAbsentResponse(value []byte, ok bool, err error) *Message {
	return withErr(&Message{
		MsgType: MsgTMapPutIfAbsent,
		Value:   value,
		Ok:      ok,
	}, err)
}

// NewGetRequest creates a new Get request
func NewGetRequest(mapName, key string) *Message {
	return &Message{
		MsgType: MsgTMapGet,
		Map:     mapName,
		Key:     key,
	}
}

// NewGetResponse creates a new Get response
func NewGetResponse(value []byte, ok bool, err error) *Message {
	return withErr(&Message{
		MsgType: MsgTMapGet,
		Value:   value,
		Ok:      ok,
	}, err)
}

// NewRemoveRequest creates a new Remove request
func NewRemoveRequest(mapName, key string) *Message {
	return &Message{
		MsgType: MsgTMapRemove,
		Map:     mapName,
		Key:     key,
	}
}

// NewRemoveResponse creates a new Remove response
func NewRemoveResponse(oldValue []byte, ok bool, err error) *Message {
	return withErr(&Message{
		MsgType:  MsgTMapRemove,
		OldValue: oldValue,
		Ok:       ok,
	}, err)
}

// NewContainsKeyRequest creates a new ContainsKey request
func NewContainsKeyRequest(mapName, key string) *Message {
	return &Message{
		MsgType: MsgTMapContainsKey,
		Map:     mapName,
		Key:     key,
	}
}

// NewContainsKeyResponse creates a new ContainsKey response
func NewContainsKeyResponse(ok bool, err error) *Message {
	return withErr(&Message{
		MsgType: MsgTMapContainsKey,
		Ok:      ok,
	}, err)
}

// NewAddListenerRequest creates a new AddListener request
func NewAddListenerRequest(mapName string) *Message {
	return &Message{
		MsgType: MsgTMapAddListener,
		Map:     mapName,
	}
}

// NewAddListenerResponse creates a new AddListener response
func NewAddListenerResponse(listenerID int32, err error) *Message {
	return withErr(&Message{
		MsgType:    MsgTMapAddListener,
		ListenerID: listenerID,
		Ok:         err == nil,
	}, err)
}

// NewRemoveListenerRequest creates a new RemoveListener request
func NewRemoveListenerRequest(mapName string, listenerID int32) *Message {
	return &Message{
		MsgType:    MsgTMapRemoveListener,
		Map:        mapName,
		ListenerID: listenerID,
	}
}

// NewRemoveListenerResponse creates a new RemoveListener response
func NewRemoveListenerResponse(ok bool, err error) *Message {
	return withErr(&Message{
		MsgType: MsgTMapRemoveListener,
		Ok:      ok,
	}, err)
}

// NewEntryEvent creates an entry event pushed to the listeners of a map
func NewEntryEvent(eventType MessageType, mapName, key string, value, oldValue []byte) *Message {
	return &Message{
		MsgType:  eventType,
		Map:      mapName,
		Key:      key,
		Value:    value,
		OldValue: oldValue,
	}
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTSuccess:
		return "success"
	case MsgTError:
		return "error"
	case MsgTMapPut:
		return "put"
	case MsgTMapPutIfAbsent:
		return "putIfAbsent"
	case MsgTMapGet:
		return "get"
	case MsgTMapRemove:
		return "remove"
	case MsgTMapContainsKey:
		return "containsKey"
	case MsgTMapAddListener:
		return "addListener"
	case MsgTMapRemoveListener:
		return "removeListener"
	case MsgTEventEntryAdded:
		return "entryAdded"
	case MsgTEventEntryUpdated:
		return "entryUpdated"
	case MsgTEventEntryRemoved:
		return "entryRemoved"
	default:
		return "unknown"
	}
}

// IsEvent reports whether the type is an entry event
func (t MessageType) IsEvent() bool {
	return t >= MsgTEventEntryAdded && t <= MsgTEventEntryRemoved
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	for candidate := MsgTUnknown; candidate < msgTEnd; candidate++ {
		if candidate.String() == s {
			*t = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown message type: %s", s)
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// IMap operations

	MsgTMapPut            // Put a key-value pair, returns the previous value
	MsgTMapPutIfAbsent    // Put a key-value pair if the key is not set
	MsgTMapGet            // Get a value by key
	MsgTMapRemove         // Remove a key, returns the previous value
	MsgTMapContainsKey    // Check if a key exists
	MsgTMapAddListener    // Subscribe to the entry events of a map
	MsgTMapRemoveListener // End a subscription

	// Entry events (pushed by the member)

	MsgTEventEntryAdded   // A key was added
	MsgTEventEntryUpdated // The value of a key changed
	MsgTEventEntryRemoved // A key was removed

	msgTEnd
)
