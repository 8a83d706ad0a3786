package client

import (
	"context"
	"errors"
	"github.com/ValentinKolb/dGrid/lib/gridmap"
	maptesting "github.com/ValentinKolb/dGrid/lib/gridmap/testing"
	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/ValentinKolb/dGrid/rpc/serializer"
	"github.com/ValentinKolb/dGrid/rpc/transport"
	"github.com/ValentinKolb/dGrid/rpc/transport/codec"
	"github.com/ValentinKolb/dGrid/rpc/transport/conn"
	"github.com/ValentinKolb/dGrid/rpc/transport/tcp"
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

var serializers = map[string]serializer.IRPCSerializer{
	"binary": serializer.NewBinarySerializer(),
	"json":   serializer.NewJSONSerializer(),
	"gob":    serializer.NewGOBSerializer(),
	"proto":  serializer.NewProtoSerializer(),
}

// newTestMap starts a member backed by an in memory grid and returns a map client for it.
// Member and transport are closed when the test ends.
func newTestMap(t *testing.T, s serializer.IRPCSerializer, config common.ClientConfig, overWebSocket bool) (gridmap.IMap, *transporttest.Grid) {
	t.Helper()
	grid := transporttest.NewGrid(s)
	var opts []transporttest.Option
	if overWebSocket {
		opts = append(opts, transporttest.WithWebSocket())
	}
	member := transporttest.NewMember(t, grid.Handle, opts...)

	config.Endpoints = []string{member.Addr()}
	if config.PartitionCount == 0 {
		config.PartitionCount = 271
	}

	var tr transport.IRPCClientTransport
	if overWebSocket {
		tr = websocket.NewWSClientTransport(config)
	} else {
		tr = tcp.NewTCPClientTransport(config)
	}
	t.Cleanup(tr.Shutdown)

	m, err := NewRPCMap(t.Name(), config, tr, s)
	require.NoError(t, err)
	return m, grid
}

func TestRPCMap(t *testing.T) {
	for name, s := range serializers {
		maptesting.RunIMapTests(t, name, func(t *testing.T) gridmap.IMap {
			m, _ := newTestMap(t, s, common.ClientConfig{TimeoutSecond: 10}, false)
			return m
		})
	}
}

func TestRPCMapOverWebSocket(t *testing.T) {
	maptesting.RunIMapTests(t, "ws", func(t *testing.T) gridmap.IMap {
		m, _ := newTestMap(t, serializer.NewBinarySerializer(), common.ClientConfig{TimeoutSecond: 10}, true)
		return m
	})
}

func TestRPCMapWritesThroughToMember(t *testing.T) {
	m, grid := newTestMap(t, serializer.NewBinarySerializer(), common.ClientConfig{}, false)

	_, _, err := m.Put(context.Background(), "key", []byte("value"))
	require.NoError(t, err)

	v, ok := grid.Value(m.Name(), "key")
	require.True(t, ok)
	require.Equal(t, []byte("value"), v)
}

func TestRPCMapListenerRemovedOnMember(t *testing.T) {
	m, grid := newTestMap(t, serializer.NewBinarySerializer(), common.ClientConfig{}, false)
	ctx := context.Background()

	id, err := m.AddEntryListener(ctx, func(gridmap.EntryEvent) {})
	require.NoError(t, err)
	require.Equal(t, 1, grid.Listeners())

	removed, err := m.RemoveEntryListener(ctx, id)
	require.NoError(t, err)
	require.True(t, removed)
	require.Equal(t, 0, grid.Listeners())
}

func TestNewRPCMapWithoutEndpoints(t *testing.T) {
	_, err := NewRPCMap("m", common.ClientConfig{}, nil, serializer.NewBinarySerializer())
	require.Error(t, err)
}

func TestInvokeTimeout(t *testing.T) {
	// the member never answers
	member := transporttest.NewMember(t, nil)
	config := common.ClientConfig{Endpoints: []string{member.Addr()}, TimeoutSecond: 1}
	tr := tcp.NewTCPClientTransport(config)
	t.Cleanup(tr.Shutdown)

	m, err := NewRPCMap("m", config, tr, serializer.NewBinarySerializer())
	require.NoError(t, err)

	start := time.Now()
	_, _, err = m.Get(context.Background(), "key")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)

	c, err := tr.GetConnection(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, c.PendingCalls(), "timed out call must be removed")
	require.True(t, c.Alive())
}

func TestLateResponseIsDropped(t *testing.T) {
	s := serializer.NewBinarySerializer()
	requests := make(chan *codec.Frame, 1)
	member := transporttest.NewMember(t, func(_ *transporttest.Session, req *codec.Frame) {
		requests <- req
	})
	config := common.ClientConfig{Endpoints: []string{member.Addr()}}
	tr := tcp.NewTCPClientTransport(config)
	t.Cleanup(tr.Shutdown)

	m, err := NewRPCMap("m", config, tr, s)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, _, err = m.Get(ctx, "key")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// answer the abandoned call, the client drops the response
	req := <-requests
	session, err := member.NextSession(time.Second)
	require.NoError(t, err)
	payload, err := s.Serialize(*common.NewGetResponse([]byte("late"), true, nil))
	require.NoError(t, err)
	require.NoError(t, session.Reply(req, payload))

	c, err := tr.GetConnection(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return !c.LastRead().IsZero() }, 5*time.Second, 5*time.Millisecond)
	require.True(t, c.Alive())
	require.Equal(t, 0, c.PendingCalls())
}

func TestRemoteError(t *testing.T) {
	s := serializer.NewBinarySerializer()
	member := transporttest.NewMember(t, func(session *transporttest.Session, req *codec.Frame) {
		payload, _ := s.Serialize(*common.NewErrorResponse("partition not owned"))
		_ = session.ReplyError(req, payload)
	})
	config := common.ClientConfig{Endpoints: []string{member.Addr()}}
	tr := tcp.NewTCPClientTransport(config)
	t.Cleanup(tr.Shutdown)

	m, err := NewRPCMap("m", config, tr, s)
	require.NoError(t, err)

	_, _, err = m.Put(context.Background(), "key", []byte("value"))
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	require.Equal(t, common.MsgTMapPut, remote.Op)
	require.Equal(t, "partition not owned", remote.Msg)
}

func TestShutdownFailsCalls(t *testing.T) {
	member := transporttest.NewMember(t, nil)
	config := common.ClientConfig{Endpoints: []string{member.Addr()}}
	tr := tcp.NewTCPClientTransport(config)
	t.Cleanup(tr.Shutdown)

	m, err := NewRPCMap("m", config, tr, serializer.NewBinarySerializer())
	require.NoError(t, err)

	errs := make(chan error, 1)
	go func() {
		_, err := m.ContainsKey(context.Background(), "key")
		errs <- err
	}()

	_, err = member.NextSession(5 * time.Second)
	require.NoError(t, err)
	c, err := tr.GetConnection(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return c.PendingCalls() == 1 }, 5*time.Second, 5*time.Millisecond)

	tr.Shutdown()

	select {
	case err := <-errs:
		require.ErrorIs(t, err, conn.ErrClientShuttingDown)
	case <-time.After(5 * time.Second):
		t.Fatal("call not failed by shutdown")
	}
}

func TestPartitionOfKey(t *testing.T) {
	a := rpcClientAdapter{config: common.ClientConfig{PartitionCount: 271}}
	for _, key := range []string{"", "a", "user:1", "schlüssel"} {
		p := a.partition(key)
		require.GreaterOrEqual(t, p, int32(0))
		require.Less(t, p, int32(271))
		require.Equal(t, p, a.partition(key), "partition must be stable")
	}

	a.config.PartitionCount = 0
	require.Equal(t, int32(-1), a.partition("key"))
}
