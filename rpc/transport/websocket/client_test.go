package websocket_test

import (
	"context"
	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/ValentinKolb/dGrid/rpc/transport/codec"
	"github.com/ValentinKolb/dGrid/rpc/transport/conn"
	"github.com/ValentinKolb/dGrid/rpc/transport/transporttest"
	"github.com/ValentinKolb/dGrid/rpc/transport/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWebSocketTransportRoundTrip(t *testing.T) {
	member := transporttest.NewMember(t, transporttest.Echo, transporttest.WithWebSocket())
	tr := websocket.NewWSClientTransport(common.ClientConfig{
		Endpoints: []string{member.Addr()},
		Transport: common.ClientTransportConfig{TCPConf: common.TCPConf{TCPNoDelay: true}},
	})
	defer tr.Shutdown()

	c, err := tr.GetConnection(context.Background())
	require.NoError(t, err)

	s, err := member.NextSession(time.Second)
	require.NoError(t, err)
	require.Equal(t, "CB1GOC", s.Preamble())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// larger than a single staging buffer write, so the frame spans several messages
	payload := make([]byte, 200<<10)
	for i := range payload {
		payload[i] = byte(i)
	}
	for _, p := range [][]byte{[]byte("small"), payload} {
		frame := &codec.Frame{PartitionID: -1, Payload: p}
		call := &conn.Call{Request: frame}
		c.RegisterCall(call)
		require.True(t, c.Send(frame))

		resp, err := call.Future.Wait(ctx)
		require.NoError(t, err)
		require.Equal(t, p, resp.Payload)
	}
}

func TestWebSocketRemoteClose(t *testing.T) {
	member := transporttest.NewMember(t, nil, transporttest.WithWebSocket())
	tr := websocket.NewWSClientTransport(common.ClientConfig{Endpoints: []string{member.Addr()}})
	defer tr.Shutdown()

	c, err := tr.GetConnection(context.Background())
	require.NoError(t, err)
	s, err := member.NextSession(time.Second)
	require.NoError(t, err)

	require.NoError(t, s.Close())

	select {
	case <-c.Closed():
	case <-time.After(5 * time.Second):
		t.Fatal("connection not closed after the member closed the stream")
	}
}
