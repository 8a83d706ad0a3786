package transporttest

import (
	"bytes"
	"fmt"
	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/ValentinKolb/dGrid/rpc/serializer"
	"github.com/ValentinKolb/dGrid/rpc/transport/codec"
	"github.com/puzpuzpuz/xsync/v3"
	"sync/atomic"
)

// Grid is an in memory member implementation of the distributed map operations.
// Use Grid.Handle as the Handler of a Member.
type Grid struct {
	serializer serializer.IRPCSerializer
	maps       *xsync.MapOf[string, *xsync.MapOf[string, []byte]]
	listeners  *xsync.MapOf[int32, gridListener]
	nextID     atomic.Int32
}

// gridListener is an event subscription, events are pushed with the call id of the
// request that created it
type gridListener struct {
	mapName string
	session *Session
	callID  int32
}

// NewGrid creates an empty grid that speaks the given serializer
func NewGrid(s serializer.IRPCSerializer) *Grid {
	return &Grid{
		serializer: s,
		maps:       xsync.NewMapOf[string, *xsync.MapOf[string, []byte]](),
		listeners:  xsync.NewMapOf[int32, gridListener](),
	}
}

// Listeners returns the number of registered entry listeners
func (g *Grid) Listeners() int {
	return g.listeners.Size()
}

// Handle decodes a request, applies it and replies. Entry events are pushed
// to the listeners of the map after the reply was written.
func (g *Grid) Handle(s *Session, req *codec.Frame) {
	var msg common.Message
	if err := g.serializer.Deserialize(req.Payload, &msg); err != nil {
		g.reply(s, req, common.NewErrorResponse(fmt.Sprintf("malformed request: %v", err)), true)
		return
	}

	m, _ := g.maps.LoadOrCompute(msg.Map, func() *xsync.MapOf[string, []byte] {
		return xsync.NewMapOf[string, []byte]()
	})

	switch msg.MsgType {
	case common.MsgTMapPut:
		old, loaded := m.LoadAndStore(msg.Key, msg.Value)
		g.reply(s, req, common.NewPutResponse(old, loaded, nil), false)
		if loaded {
			g.publish(common.NewEntryEvent(common.MsgTEventEntryUpdated, msg.Map, msg.Key, msg.Value, old))
		} else {
			g.publish(common.NewEntryEvent(common.MsgTEventEntryAdded, msg.Map, msg.Key, msg.Value, nil))
		}

	case common.MsgTMapPutIfAbsent:
		actual, loaded := m.LoadOrStore(msg.Key, msg.Value)
		g.reply(s, req, common.NewPutIfAbsentResponse(actual, !loaded, nil), false)
		if !loaded {
			g.publish(common.NewEntryEvent(common.MsgTEventEntryAdded, msg.Map, msg.Key, msg.Value, nil))
		}

	case common.MsgTMapGet:
		value, ok := m.Load(msg.Key)
		g.reply(s, req, common.NewGetResponse(value, ok, nil), false)

	case common.MsgTMapRemove:
		old, ok := m.LoadAndDelete(msg.Key)
		g.reply(s, req, common.NewRemoveResponse(old, ok, nil), false)
		if ok {
			g.publish(common.NewEntryEvent(common.MsgTEventEntryRemoved, msg.Map, msg.Key, nil, old))
		}

	case common.MsgTMapContainsKey:
		_, ok := m.Load(msg.Key)
		g.reply(s, req, common.NewContainsKeyResponse(ok, nil), false)

	case common.MsgTMapAddListener:
		id := g.nextID.Add(1)
		g.listeners.Store(id, gridListener{mapName: msg.Map, session: s, callID: req.CallID})
		g.reply(s, req, common.NewAddListenerResponse(id, nil), false)

	case common.MsgTMapRemoveListener:
		_, ok := g.listeners.LoadAndDelete(msg.ListenerID)
		g.reply(s, req, common.NewRemoveListenerResponse(ok, nil), false)

	default:
		g.reply(s, req, common.NewErrorResponse(fmt.Sprintf("unsupported message type %s", msg.MsgType)), true)
	}
}

func (g *Grid) reply(s *Session, req *codec.Frame, msg *common.Message, failure bool) {
	payload, err := g.serializer.Serialize(*msg)
	if err != nil {
		Logger.Errorf("Failed to serialize %s response: %v", msg.MsgType, err)
		return
	}
	if failure {
		err = s.ReplyError(req, payload)
	} else {
		err = s.Reply(req, payload)
	}
	if err != nil {
		Logger.Debugf("Failed to reply to call %d: %v", req.CallID, err)
	}
}

func (g *Grid) publish(event *common.Message) {
	var payload []byte
	g.listeners.Range(func(id int32, l gridListener) bool {
		if l.mapName != event.Map {
			return true
		}
		if payload == nil {
			var err error
			if payload, err = g.serializer.Serialize(*event); err != nil {
				Logger.Errorf("Failed to serialize %s: %v", event.MsgType, err)
				return false
			}
		}
		if err := l.session.Push(l.callID, payload); err != nil {
			// the subscriber is gone
			g.listeners.Delete(id)
		}
		return true
	})
}

// Value returns the stored value of a key, for assertions in tests
func (g *Grid) Value(mapName, key string) ([]byte, bool) {
	m, ok := g.maps.Load(mapName)
	if !ok {
		return nil, false
	}
	v, ok := m.Load(key)
	return bytes.Clone(v), ok
}
