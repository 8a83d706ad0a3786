package client

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/dGrid/lib/util"
	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/ValentinKolb/dGrid/rpc/serializer"
	"github.com/ValentinKolb/dGrid/rpc/transport"
	"github.com/ValentinKolb/dGrid/rpc/transport/codec"
	"github.com/ValentinKolb/dGrid/rpc/transport/conn"
	"github.com/lni/dragonboat/v4/logger"
	"time"
)

var (
	Logger = logger.GetLogger("rpc")
)

// RemoteError is a failure reported by the member that executed the operation
type RemoteError struct {
	Op  common.MessageType
	Msg string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("RPC client - remote error (%s): %s", e.Op, e.Msg)
}

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
// Used by the RPC clients with composition pattern
type rpcClientAdapter struct {
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// subscription identifies the call an event handler was registered with
type subscription struct {
	conn   *conn.Connection
	callID int32
}

// partition returns the partition a key belongs to
func (a *rpcClientAdapter) partition(key string) int32 {
	return util.PartitionID(key, a.config.PartitionCount)
}

// invokeRPCRequest is a helper function used for all RPC Clients to send requests.
// It serializes the request, registers a call on a member connection and waits for the
// response, bounded by ctx and the configured timeout. A non nil handler keeps receiving
// the event frames pushed for the call after the response arrived.
// This method also checks if the response is an error response and if the type of the response is the expected type
func (a *rpcClientAdapter) invokeRPCRequest(ctx context.Context, partitionID int32, req *common.Message, handler conn.EventHandler) (*common.Message, subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, subscription{}, err
	}

	// Serialize the request
	reqBytes, err := a.serializer.Serialize(*req)
	if err != nil {
		return nil, subscription{}, err
	}

	if a.config.TimeoutSecond > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(a.config.TimeoutSecond)*time.Second)
		defer cancel()
	}

	c, err := a.transport.GetConnection(ctx)
	if err != nil {
		return nil, subscription{}, err
	}

	frame := &codec.Frame{PartitionID: partitionID, Payload: reqBytes}
	call := &conn.Call{Request: frame, Handler: handler}
	callID := c.RegisterCall(call)
	sub := subscription{conn: c, callID: callID}

	if !c.Send(frame) {
		// if the call is gone already, Close failed it with the disconnect reason
		if _, ok := c.ResolveCall(callID); ok {
			call.Future.Fail(conn.ErrConnectionClosed)
		}
	}

	respFrame, err := call.Future.Wait(ctx)
	if err != nil {
		// a response arriving later finds no call and is dropped by the read pump
		c.ResolveCall(callID)
		a.release(sub, handler)
		return nil, subscription{}, err
	}

	// Deserialize the response
	resp := &common.Message{}
	if err := a.serializer.Deserialize(respFrame.Payload, resp); err != nil {
		a.release(sub, handler)
		return nil, subscription{}, fmt.Errorf("RPC client - malformed response: %w", err)
	}

	// Check if the response is an error response
	if respFrame.IsError() || resp.MsgType == common.MsgTError || resp.Err != "" {
		a.release(sub, handler)
		return nil, subscription{}, &RemoteError{Op: req.MsgType, Msg: resp.Err}
	}

	// Check if the type of the response is the expected type
	if resp.MsgType != req.MsgType {
		a.release(sub, handler)
		return nil, subscription{}, fmt.Errorf("RPC client - unexpected message type: %s, expected %s", resp.MsgType, req.MsgType)
	}

	return resp, sub, nil
}

// release drops the event handler of a failed subscription call
func (a *rpcClientAdapter) release(sub subscription, handler conn.EventHandler) {
	if handler != nil {
		sub.conn.DeregisterEventHandler(sub.callID)
	}
}
