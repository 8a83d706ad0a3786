package base_test

import (
	"context"
	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/ValentinKolb/dGrid/rpc/transport/base"
	"github.com/ValentinKolb/dGrid/rpc/transport/codec"
	"github.com/ValentinKolb/dGrid/rpc/transport/conn"
	"github.com/ValentinKolb/dGrid/rpc/transport/tcp"
	"github.com/ValentinKolb/dGrid/rpc/transport/transporttest"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"net"
	"sync"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newManager creates a tcp connection manager that is shut down when the test ends
func newManager(t *testing.T, endpoints ...string) *base.Manager {
	t.Helper()
	return newManagerWithConfig(t, common.ClientConfig{Endpoints: endpoints})
}

func newManagerWithConfig(t *testing.T, config common.ClientConfig) *base.Manager {
	t.Helper()
	m, ok := tcp.NewTCPClientTransport(config).(*base.Manager)
	require.True(t, ok)
	t.Cleanup(m.Shutdown)
	return m
}

// closedAddr returns an address nobody listens on
func closedAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func call(t *testing.T, c *conn.Connection, payload []byte) (*codec.Frame, error) {
	t.Helper()
	frame := &codec.Frame{PartitionID: -1, Payload: payload}
	cl := &conn.Call{Request: frame}
	c.RegisterCall(cl)
	require.True(t, c.Send(frame))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return cl.Future.Wait(ctx)
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestConnectWritesPreamble(t *testing.T) {
	member := transporttest.NewMember(t, transporttest.Echo)
	m := newManager(t, member.Addr())

	c, err := m.GetConnection(context.Background())
	require.NoError(t, err)
	require.True(t, c.Alive())
	require.Equal(t, member.Addr(), c.Endpoint())

	s, err := member.NextSession(time.Second)
	require.NoError(t, err)
	require.Equal(t, "CB1GOC", s.Preamble())
}

func TestConnectCustomClientType(t *testing.T) {
	member := transporttest.NewMember(t, transporttest.Echo)
	m := newManagerWithConfig(t, common.ClientConfig{Endpoints: []string{member.Addr()}, ClientType: "TST"})
	_, err := m.GetConnection(context.Background())
	require.NoError(t, err)

	s, err := member.NextSession(time.Second)
	require.NoError(t, err)
	require.Equal(t, "CB1TST", s.Preamble())
}

func TestEchoRoundTrip(t *testing.T) {
	member := transporttest.NewMember(t, transporttest.Echo)
	m := newManager(t, member.Addr())

	c, err := m.GetConnection(context.Background())
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		payload := []byte{byte(i), 'x', 'y'}
		resp, err := call(t, c, payload)
		require.NoError(t, err)
		require.Equal(t, payload, resp.Payload)
	}
	require.Equal(t, 0, c.PendingCalls())
}

func TestLargeFrameRoundTrip(t *testing.T) {
	member := transporttest.NewMember(t, transporttest.Echo)
	m := newManager(t, member.Addr())

	c, err := m.GetConnection(context.Background())
	require.NoError(t, err)

	payload := make([]byte, 3<<20)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	resp, err := call(t, c, payload)
	require.NoError(t, err)
	require.Equal(t, payload, resp.Payload)
}

func TestConcurrentCalls(t *testing.T) {
	member := transporttest.NewMember(t, transporttest.Echo)
	m := newManager(t, member.Addr())

	c, err := m.GetConnection(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			frame := &codec.Frame{PartitionID: int32(i), Payload: []byte{byte(i)}}
			cl := &conn.Call{Request: frame}
			c.RegisterCall(cl)
			c.Send(frame)
			resp, err := cl.Future.Result()
			if err == nil && resp.Payload[0] != byte(i) {
				err = context.Canceled
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestGetOrConnectReusesConnection(t *testing.T) {
	member := transporttest.NewMember(t, transporttest.Echo)
	m := newManager(t, member.Addr())

	first, err := m.GetOrConnect(context.Background(), member.Addr())
	require.NoError(t, err)
	second, err := m.GetOrConnect(context.Background(), member.Addr())
	require.NoError(t, err)

	require.Same(t, first, second)
	require.Len(t, m.Connections(), 1)

	got, ok := m.Connection(first.ID())
	require.True(t, ok)
	require.Same(t, first, got)
}

func TestRemoteCloseDestroysConnection(t *testing.T) {
	member := transporttest.NewMember(t, transporttest.Echo)
	m := newManager(t, member.Addr())

	destroyed := make(chan *conn.Connection, 1)
	m.AddDestroyListener(func(c *conn.Connection) { destroyed <- c })

	c, err := m.GetConnection(context.Background())
	require.NoError(t, err)
	s, err := member.NextSession(time.Second)
	require.NoError(t, err)

	require.NoError(t, s.Close())

	select {
	case got := <-destroyed:
		require.Same(t, c, got)
	case <-time.After(5 * time.Second):
		t.Fatal("destroy listener not called")
	}
	require.False(t, c.Alive())
	require.Empty(t, m.Connections())

	// the next call dials a fresh connection
	next, err := m.GetConnection(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, c.ID(), next.ID())
}

func TestRemoteCloseFailsPendingCalls(t *testing.T) {
	member := transporttest.NewMember(t, nil)
	m := newManager(t, member.Addr())

	c, err := m.GetConnection(context.Background())
	require.NoError(t, err)
	s, err := member.NextSession(time.Second)
	require.NoError(t, err)

	frame := &codec.Frame{PartitionID: -1, Payload: []byte("never answered")}
	cl := &conn.Call{Request: frame}
	c.RegisterCall(cl)
	require.True(t, c.Send(frame))
	require.Eventually(t, func() bool { return s.Received() == 1 }, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Close())

	_, err = cl.Future.Result()
	require.ErrorIs(t, err, conn.ErrTargetDisconnected)
	require.ErrorIs(t, err, conn.ErrRemoteClosed)
}

func TestShutdownFailsPendingCalls(t *testing.T) {
	member := transporttest.NewMember(t, nil)
	m := newManager(t, member.Addr())

	c, err := m.GetConnection(context.Background())
	require.NoError(t, err)

	frame := &codec.Frame{PartitionID: -1}
	cl := &conn.Call{Request: frame}
	c.RegisterCall(cl)
	require.True(t, c.Send(frame))

	m.Shutdown()

	_, err = cl.Future.Result()
	require.ErrorIs(t, err, conn.ErrClientShuttingDown)
	require.False(t, m.IsLive())
	require.Empty(t, m.Connections())

	_, err = m.GetConnection(context.Background())
	require.ErrorIs(t, err, conn.ErrClientShuttingDown)

	// shutting down twice is a no-op
	m.Shutdown()
}

func TestDialRetriesExhausted(t *testing.T) {
	addr := closedAddr(t)
	m := newManagerWithConfig(t, common.ClientConfig{
		Endpoints: []string{addr},
		Transport: common.ClientTransportConfig{DialRetries: 2, ConnectTimeoutSecond: 1},
	})

	_, err := m.GetOrConnect(context.Background(), addr)
	require.Error(t, err)
	require.Contains(t, err.Error(), "after 3 attempts")
}

func TestDialHonorsContext(t *testing.T) {
	addr := closedAddr(t)
	m := newManagerWithConfig(t, common.ClientConfig{
		Endpoints: []string{addr},
		Transport: common.ClientTransportConfig{DialRetries: 100},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := m.GetConnection(ctx)
	require.Error(t, err)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestGetConnectionFallsBackToNextEndpoint(t *testing.T) {
	member := transporttest.NewMember(t, transporttest.Echo)
	m := newManager(t, closedAddr(t), member.Addr())

	c, err := m.GetConnection(context.Background())
	require.NoError(t, err)
	require.Equal(t, member.Addr(), c.Endpoint())
}

func TestGetConnectionWithoutEndpoints(t *testing.T) {
	m := newManager(t)
	_, err := m.GetConnection(context.Background())
	require.Error(t, err)
}

func TestAllocateCallIDUnique(t *testing.T) {
	m := newManager(t)

	var mu sync.Mutex
	seen := make(map[int32]struct{})
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				id := m.AllocateCallID()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, 8000)
	for id := range seen {
		require.Positive(t, id)
	}
}

// blockingConnector dials tcp but holds every dial until release is closed
type blockingConnector struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingConnector) Connect(ctx context.Context, endpoint string) (net.Conn, error) {
	close(b.entered)
	<-b.release
	var d net.Dialer
	return d.DialContext(ctx, "tcp", endpoint)
}

func (b *blockingConnector) GetName() string {
	return "blocking"
}

func (b *blockingConnector) UpgradeConnection(net.Conn, common.ClientConfig) error {
	return nil
}

func TestShutdownDuringDial(t *testing.T) {
	member := transporttest.NewMember(t, transporttest.Echo)
	connector := &blockingConnector{entered: make(chan struct{}), release: make(chan struct{})}
	m := base.NewManager(connector, common.ClientConfig{Endpoints: []string{member.Addr()}})

	type result struct {
		c   *conn.Connection
		err error
	}
	done := make(chan result, 1)
	go func() {
		c, err := m.GetConnection(context.Background())
		done <- result{c, err}
	}()

	<-connector.entered
	m.Shutdown()
	close(connector.release)

	res := <-done
	require.ErrorIs(t, res.err, conn.ErrClientShuttingDown)
	require.Nil(t, res.c)
	require.Empty(t, m.Connections())
}
