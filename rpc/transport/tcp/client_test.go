package tcp

import (
	"context"
	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/ValentinKolb/dGrid/rpc/transport/codec"
	"github.com/ValentinKolb/dGrid/rpc/transport/conn"
	"github.com/ValentinKolb/dGrid/rpc/transport/transporttest"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"net"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTCPTransportRoundTrip(t *testing.T) {
	member := transporttest.NewMember(t, transporttest.Echo)
	tr := NewTCPClientTransport(common.ClientConfig{
		Endpoints: []string{member.Addr()},
		Transport: common.ClientTransportConfig{
			TCPConf: common.TCPConf{TCPNoDelay: true, TCPKeepAliveSec: 30, TCPLingerSec: -1},
		},
	})
	defer tr.Shutdown()

	c, err := tr.GetConnection(context.Background())
	require.NoError(t, err)

	frame := &codec.Frame{PartitionID: 3, Payload: []byte("ping")}
	call := &conn.Call{Request: frame}
	c.RegisterCall(call)
	require.True(t, c.Send(frame))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := call.Future.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("ping"), resp.Payload)
	require.Equal(t, int32(3), resp.PartitionID)
}

func TestTCPUpgradeConnection(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := l.Accept()
		if err == nil {
			accepted <- c
		}
		close(accepted)
	}()

	connector := &clientConnector{}
	require.Equal(t, "tcp", connector.GetName())

	socket, err := connector.Connect(context.Background(), l.Addr().String())
	require.NoError(t, err)
	defer socket.Close()
	if server, ok := <-accepted; ok {
		defer server.Close()
	}

	err = connector.UpgradeConnection(socket, common.ClientConfig{
		Transport: common.ClientTransportConfig{
			SocketConf: common.SocketConf{ReadBufferSize: 64 << 10, WriteBufferSize: 64 << 10},
			TCPConf:    common.TCPConf{TCPNoDelay: true, TCPKeepAliveSec: 10, TCPLingerSec: 1},
		},
	})
	require.NoError(t, err)

	// non tcp connections are left untouched
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	require.NoError(t, connector.UpgradeConnection(a, common.ClientConfig{}))
}
