package conn

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionClosed is the generic close cause if Close was called without a reason
	ErrConnectionClosed = errors.New("connection closed")
	// ErrTargetDisconnected is matched by every failure handed to pending calls of a lost connection
	ErrTargetDisconnected = errors.New("target disconnected")
	// ErrClientShuttingDown is handed to pending calls if the connection manager is no longer live
	ErrClientShuttingDown = errors.New("client is shutting down")
	// ErrRemoteClosed is the close cause if the member ended the stream
	ErrRemoteClosed = errors.New("remote closed")
	// ErrPumpsRunning is returned by operations that are only valid before Start
	ErrPumpsRunning = errors.New("connection pumps already running")
)

// DisconnectError is the failure pending calls receive when their connection is lost.
// errors.Is matches both ErrTargetDisconnected and the cause of the disconnect.
type DisconnectError struct {
	ConnID   int64
	Endpoint string
	Cause    error
}

func (e *DisconnectError) Error() string {
	return fmt.Sprintf("%v: connection %d to %s: %v", ErrTargetDisconnected, e.ConnID, e.Endpoint, e.Cause)
}

// Is reports ErrTargetDisconnected as a match
func (e *DisconnectError) Is(target error) bool {
	return target == ErrTargetDisconnected
}

// Unwrap returns the cause of the disconnect
func (e *DisconnectError) Unwrap() error {
	return e.Cause
}
