package gridmap

import (
	"context"
	"fmt"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IMap is the interface of a named distributed map. All operations honor the
// deadline and cancellation of ctx.
type IMap interface {
	// Name returns the name of the map
	Name() string
	// Put stores value under key. It returns the replaced value and whether there was one.
	Put(ctx context.Context, key string, value []byte) (old []byte, replaced bool, err error)
	// PutIfAbsent stores value only if key has no value. It returns the value stored after
	// the operation and whether it was stored by this call.
	PutIfAbsent(ctx context.Context, key string, value []byte) (actual []byte, stored bool, err error)
	// Get returns the value for a key. The boolean return value indicates whether a value for the key was found.
	Get(ctx context.Context, key string) (value []byte, loaded bool, err error)
	// Remove deletes a key and returns the removed value.
	Remove(ctx context.Context, key string) (old []byte, removed bool, err error)
	// ContainsKey returns whether a key exists in the map.
	ContainsKey(ctx context.Context, key string) (bool, error)
	// AddEntryListener subscribes listener to all changes of the map. The listener is called
	// from the goroutine delivering the event and must not block.
	AddEntryListener(ctx context.Context, listener EntryListener) (id int32, err error)
	// RemoveEntryListener ends a subscription. It returns false if the id is unknown.
	RemoveEntryListener(ctx context.Context, id int32) (removed bool, err error)
}

// --------------------------------------------------------------------------
// Entry Events
// --------------------------------------------------------------------------

// EntryEventType is the kind of change an EntryEvent describes
type EntryEventType uint8

const (
	EntryAdded EntryEventType = iota + 1
	EntryUpdated
	EntryRemoved
)

func (t EntryEventType) String() string {
	switch t {
	case EntryAdded:
		return "EntryAdded"
	case EntryUpdated:
		return "EntryUpdated"
	case EntryRemoved:
		return "EntryRemoved"
	default:
		return fmt.Sprintf("EntryEventType(%d)", uint8(t))
	}
}

// EntryEvent describes a single change of a map entry
type EntryEvent struct {
	Type     EntryEventType
	Map      string
	Key      string
	Value    []byte // nil for EntryRemoved
	OldValue []byte // nil for EntryAdded
}

func (e EntryEvent) String() string {
	return fmt.Sprintf("%s{map=%s, key=%s}", e.Type, e.Map, e.Key)
}

// EntryListener receives the entry events of a map
type EntryListener func(event EntryEvent)
