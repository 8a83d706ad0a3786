package conn

import (
	"context"
	"github.com/ValentinKolb/dGrid/rpc/transport/codec"
	"sync/atomic"
)

// Future is the completion handle of a call. It is resolved exactly once,
// either with the response frame or with a failure.
type Future struct {
	resolved atomic.Bool
	done     chan struct{}
	frame    *codec.Frame
	err      error
}

// NewFuture creates an unresolved future
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Complete resolves the future with a response frame.
// It returns false if the future was already resolved.
func (f *Future) Complete(frame *codec.Frame) bool {
	return f.resolve(frame, nil)
}

// Fail resolves the future with an error.
// It returns false if the future was already resolved.
func (f *Future) Fail(err error) bool {
	return f.resolve(nil, err)
}

func (f *Future) resolve(frame *codec.Frame, err error) bool {
	if !f.resolved.CompareAndSwap(false, true) {
		return false
	}
	f.frame = frame
	f.err = err
	close(f.done)
	return true
}

// Done returns a channel that is closed once the future is resolved
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the future is resolved
func (f *Future) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result blocks until the future is resolved and returns its outcome
func (f *Future) Result() (*codec.Frame, error) {
	<-f.done
	return f.frame, f.err
}

// Wait blocks until the future is resolved or ctx is done.
// Giving up on a future does not remove the call from its connection.
func (f *Future) Wait(ctx context.Context) (*codec.Frame, error) {
	select {
	case <-f.done:
		return f.frame, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
