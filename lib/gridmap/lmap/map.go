package lmap

import (
	"context"
	"github.com/ValentinKolb/dGrid/lib/gridmap"
	"github.com/puzpuzpuz/xsync/v3"
	"sync/atomic"
)

type mapImpl struct {
	name      string
	entries   *xsync.MapOf[string, []byte]
	listeners *xsync.MapOf[int32, gridmap.EntryListener]
	nextID    atomic.Int32
}

// NewLocalMap creates a new local map instance.
// This map is not distributed, its entries and listeners live in the calling process.
func NewLocalMap(name string) gridmap.IMap {
	return &mapImpl{
		name:      name,
		entries:   xsync.NewMapOf[string, []byte](),
		listeners: xsync.NewMapOf[int32, gridmap.EntryListener](),
	}
}

// publish calls every listener with the event
func (m *mapImpl) publish(t gridmap.EntryEventType, key string, value, old []byte) {
	m.listeners.Range(func(_ int32, l gridmap.EntryListener) bool {
		l(gridmap.EntryEvent{Type: t, Map: m.name, Key: key, Value: value, OldValue: old})
		return true
	})
}

// --------------------------------------------------------------------------
// Interface Methods (docu see gridmap/interface.go)
// --------------------------------------------------------------------------

func (m *mapImpl) Name() string {
	return m.name
}

func (m *mapImpl) Put(ctx context.Context, key string, value []byte) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	old, replaced := m.entries.LoadAndStore(key, value)
	if replaced {
		m.publish(gridmap.EntryUpdated, key, value, old)
	} else {
		m.publish(gridmap.EntryAdded, key, value, nil)
	}
	return old, replaced, nil
}

func (m *mapImpl) PutIfAbsent(ctx context.Context, key string, value []byte) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	actual, loaded := m.entries.LoadOrStore(key, value)
	if !loaded {
		m.publish(gridmap.EntryAdded, key, value, nil)
	}
	return actual, !loaded, nil
}

func (m *mapImpl) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	value, ok := m.entries.Load(key)
	return value, ok, nil
}

func (m *mapImpl) Remove(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	old, removed := m.entries.LoadAndDelete(key)
	if removed {
		m.publish(gridmap.EntryRemoved, key, nil, old)
	}
	return old, removed, nil
}

func (m *mapImpl) ContainsKey(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, ok := m.entries.Load(key)
	return ok, nil
}

func (m *mapImpl) AddEntryListener(ctx context.Context, listener gridmap.EntryListener) (int32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	id := m.nextID.Add(1)
	m.listeners.Store(id, listener)
	return id, nil
}

func (m *mapImpl) RemoveEntryListener(ctx context.Context, id int32) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, ok := m.listeners.LoadAndDelete(id)
	return ok, nil
}
