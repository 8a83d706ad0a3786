package conn

import (
	"fmt"
	"github.com/ValentinKolb/dGrid/rpc/transport/codec"
	"github.com/puzpuzpuz/xsync/v3"
)

// EventHandler is invoked on the read pump for every event frame of a subscription.
// It must not block.
type EventHandler func(frame *codec.Frame)

// Call is an outstanding request on a connection
type Call struct {
	// Request is sent to the member, its CallID is assigned on registration
	Request *codec.Frame
	// Future is resolved with the response or a failure
	Future *Future
	// Handler turns the call into an event subscription if set
	Handler EventHandler
}

// callTable holds the pending calls and the event subscriptions of one connection
type callTable struct {
	pending *xsync.MapOf[int32, *Call]
	events  *xsync.MapOf[int32, EventHandler]
}

func newCallTable() *callTable {
	return &callTable{
		pending: xsync.NewMapOf[int32, *Call](),
		events:  xsync.NewMapOf[int32, EventHandler](),
	}
}

// register inserts a call under id. Registering an id twice is a programming error.
func (t *callTable) register(id int32, call *Call) {
	if _, loaded := t.pending.LoadOrStore(id, call); loaded {
		panic(fmt.Sprintf("conn: call id %d registered twice", id))
	}
	if call.Handler != nil {
		if _, loaded := t.events.LoadOrStore(id, call.Handler); loaded {
			// the id still belongs to a live subscription
			t.pending.Delete(id)
			panic(fmt.Sprintf("conn: call id %d is already an event subscription", id))
		}
	}
	pendingCalls.Inc()
}

// resolve removes and returns the pending call with the given id
func (t *callTable) resolve(id int32) (*Call, bool) {
	call, ok := t.pending.LoadAndDelete(id)
	if ok {
		pendingCalls.Dec()
	}
	return call, ok
}

func (t *callTable) handler(id int32) (EventHandler, bool) {
	return t.events.Load(id)
}

func (t *callTable) deregisterHandler(id int32) (EventHandler, bool) {
	return t.events.LoadAndDelete(id)
}

// drain removes every pending call and passes it to fn. A call removed concurrently
// by resolve is never passed to fn, so each call has exactly one owner.
func (t *callTable) drain(fn func(id int32, call *Call)) {
	t.pending.Range(func(id int32, _ *Call) bool {
		if call, ok := t.resolve(id); ok {
			fn(id, call)
		}
		return true
	})
	t.events.Clear()
}

func (t *callTable) size() int {
	return t.pending.Size()
}
