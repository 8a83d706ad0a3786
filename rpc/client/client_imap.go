package client

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/dGrid/lib/gridmap"
	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/ValentinKolb/dGrid/rpc/serializer"
	"github.com/ValentinKolb/dGrid/rpc/transport"
	"github.com/ValentinKolb/dGrid/rpc/transport/codec"
	"github.com/puzpuzpuz/xsync/v3"
)

// NewRPCMap creates a new RPC map
// The function takes the map name, a config, a transport and a serializer as parameters
// Connections are dialed lazily by the first operation
func NewRPCMap(
	name string,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (gridmap.IMap, error) {
	if len(config.Endpoints) == 0 {
		return nil, fmt.Errorf("RPC client - no endpoints configured for map %s", name)
	}

	m := rpcMap{
		rpcClientAdapter: rpcClientAdapter{
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
		name:      name,
		listeners: xsync.NewMapOf[int32, subscription](),
	}
	return &m, nil
}

type rpcMap struct {
	rpcClientAdapter
	name string
	// listeners maps the listener ids handed out by the members to their subscriptions
	listeners *xsync.MapOf[int32, subscription]
}

// --------------------------------------------------------------------------
// Interface Methods (docu see gridmap/interface.go)
// --------------------------------------------------------------------------

func (m *rpcMap) Name() string {
	return m.name
}

func (m *rpcMap) Put(ctx context.Context, key string, value []byte) ([]byte, bool, error) {
	req := common.NewPutRequest(m.name, key, value)
	resp, _, err := m.invokeRPCRequest(ctx, m.partition(key), req, nil)
	if err != nil || !resp.Ok {
		return nil, false, err
	}
	return resp.OldValue, true, nil
}

func (m *rpcMap) PutIfAbsent(ctx context.Context, key string, value []byte) ([]byte, bool, error) {
	req := common.NewPutIfAbsentRequest(m.name, key, value)
	resp, _, err := m.invokeRPCRequest(ctx, m.partition(key), req, nil)
	if err != nil {
		return nil, false, err
	}
	return resp.Value, resp.Ok, nil
}

func (m *rpcMap) Get(ctx context.Context, key string) ([]byte, bool, error) {
	req := common.NewGetRequest(m.name, key)
	resp, _, err := m.invokeRPCRequest(ctx, m.partition(key), req, nil)
	if err != nil || !resp.Ok {
		return nil, false, err
	}
	return resp.Value, true, nil
}

func (m *rpcMap) Remove(ctx context.Context, key string) ([]byte, bool, error) {
	req := common.NewRemoveRequest(m.name, key)
	resp, _, err := m.invokeRPCRequest(ctx, m.partition(key), req, nil)
	if err != nil || !resp.Ok {
		return nil, false, err
	}
	return resp.OldValue, true, nil
}

func (m *rpcMap) ContainsKey(ctx context.Context, key string) (bool, error) {
	req := common.NewContainsKeyRequest(m.name, key)
	resp, _, err := m.invokeRPCRequest(ctx, m.partition(key), req, nil)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (m *rpcMap) AddEntryListener(ctx context.Context, listener gridmap.EntryListener) (int32, error) {
	req := common.NewAddListenerRequest(m.name)
	resp, sub, err := m.invokeRPCRequest(ctx, -1, req, m.eventHandler(listener))
	if err != nil {
		return 0, err
	}
	m.listeners.Store(resp.ListenerID, sub)
	return resp.ListenerID, nil
}

func (m *rpcMap) RemoveEntryListener(ctx context.Context, id int32) (bool, error) {
	sub, ok := m.listeners.LoadAndDelete(id)
	if !ok {
		return false, nil
	}
	// stop delivering events before the member confirms
	sub.conn.DeregisterEventHandler(sub.callID)

	req := common.NewRemoveListenerRequest(m.name, id)
	resp, _, err := m.invokeRPCRequest(ctx, -1, req, nil)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

// --------------------------------------------------------------------------
// Event handling
// --------------------------------------------------------------------------

// eventHandler turns the event frames of a listener subscription into entry events
func (m *rpcMap) eventHandler(listener gridmap.EntryListener) func(frame *codec.Frame) {
	return func(frame *codec.Frame) {
		var msg common.Message
		if err := m.serializer.Deserialize(frame.Payload, &msg); err != nil {
			Logger.Errorf("Dropping malformed event for map %s: %v", m.name, err)
			return
		}

		var eventType gridmap.EntryEventType
		switch msg.MsgType {
		case common.MsgTEventEntryAdded:
			eventType = gridmap.EntryAdded
		case common.MsgTEventEntryUpdated:
			eventType = gridmap.EntryUpdated
		case common.MsgTEventEntryRemoved:
			eventType = gridmap.EntryRemoved
		default:
			Logger.Warningf("Dropping event of unexpected type %s for map %s", msg.MsgType, m.name)
			return
		}

		listener(gridmap.EntryEvent{
			Type:     eventType,
			Map:      msg.Map,
			Key:      msg.Key,
			Value:    msg.Value,
			OldValue: msg.OldValue,
		})
	}
}
