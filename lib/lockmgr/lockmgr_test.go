package lockmgr

import (
	"bytes"
	"context"
	"github.com/ValentinKolb/dGrid/lib/gridmap/lmap"
	"github.com/ValentinKolb/dGrid/rpc/client"
	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/ValentinKolb/dGrid/rpc/serializer"
	"github.com/ValentinKolb/dGrid/rpc/transport/tcp"
	"github.com/ValentinKolb/dGrid/rpc/transport/transporttest"
	"testing"
	"time"
)

func TestAcquireRelease(t *testing.T) {
	ctx := context.Background()
	lm := NewLockManager(lmap.NewLocalMap("locks"))

	ok, owner, err := lm.AcquireLock(ctx, "resource")
	if err != nil || !ok {
		t.Fatalf("Expected first AcquireLock to succeed, got ok=%t err=%v", ok, err)
	}
	if len(owner) != 32 {
		t.Errorf("Expected a 32 byte owner id, got %d bytes", len(owner))
	}

	ok, other, err := lm.AcquireLock(ctx, "resource")
	if err != nil || ok || other != nil {
		t.Errorf("Expected second AcquireLock to fail, got ok=%t err=%v", ok, err)
	}

	released, err := lm.ReleaseLock(ctx, "resource", []byte("not the owner"))
	if err != nil || released {
		t.Errorf("Expected release by a foreign owner to fail, got released=%t err=%v", released, err)
	}

	released, err = lm.ReleaseLock(ctx, "resource", owner)
	if err != nil || !released {
		t.Errorf("Expected release by the owner to succeed, got released=%t err=%v", released, err)
	}

	released, err = lm.ReleaseLock(ctx, "resource", owner)
	if err != nil || !released {
		t.Errorf("Expected release of a missing lock to report true, got released=%t err=%v", released, err)
	}

	ok, next, err := lm.AcquireLock(ctx, "resource")
	if err != nil || !ok {
		t.Fatalf("Expected AcquireLock after release to succeed, got ok=%t err=%v", ok, err)
	}
	if bytes.Equal(owner, next) {
		t.Errorf("Expected a fresh owner id")
	}
}

func TestLockWaitsForRelease(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	lm := NewLockManager(lmap.NewLocalMap("locks"))

	owner, err := lm.Lock(ctx, "resource")
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	acquired := make(chan []byte, 1)
	go func() {
		next, err := lm.Lock(ctx, "resource")
		if err != nil {
			t.Errorf("Waiting Lock failed: %v", err)
		}
		acquired <- next
	}()

	select {
	case <-acquired:
		t.Fatal("Lock returned while the lock was held")
	case <-time.After(100 * time.Millisecond):
	}

	if ok, err := lm.ReleaseLock(ctx, "resource", owner); err != nil || !ok {
		t.Fatalf("ReleaseLock failed: ok=%t err=%v", ok, err)
	}

	select {
	case next := <-acquired:
		if next == nil || bytes.Equal(next, owner) {
			t.Errorf("Expected the waiter to own the lock with a new id")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Waiting Lock did not acquire the released lock")
	}
}

func TestLockHonorsContext(t *testing.T) {
	lm := NewLockManager(lmap.NewLocalMap("locks"))

	if _, err := lm.Lock(context.Background(), "resource"); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, err := lm.Lock(ctx, "resource"); err != context.DeadlineExceeded {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
}

func TestLockOverRPCMap(t *testing.T) {
	s := serializer.NewBinarySerializer()
	grid := transporttest.NewGrid(s)
	member := transporttest.NewMember(t, grid.Handle)

	config := common.ClientConfig{Endpoints: []string{member.Addr()}, TimeoutSecond: 5, PartitionCount: 271}
	tr := tcp.NewTCPClientTransport(config)
	defer tr.Shutdown()

	locks, err := client.NewRPCMap("locks", config, tr, s)
	if err != nil {
		t.Fatalf("NewRPCMap failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	first, second := NewLockManager(locks), NewLockManager(locks)
	owner, err := first.Lock(ctx, "job")
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	acquired := make(chan error, 1)
	go func() {
		_, err := second.Lock(ctx, "job")
		acquired <- err
	}()

	time.Sleep(100 * time.Millisecond)
	if ok, err := first.ReleaseLock(ctx, "job", owner); err != nil || !ok {
		t.Fatalf("ReleaseLock failed: ok=%t err=%v", ok, err)
	}

	if err := <-acquired; err != nil {
		t.Fatalf("Waiting Lock failed: %v", err)
	}
	if grid.Listeners() != 0 {
		t.Errorf("Expected all lock listeners to be removed, %d left", grid.Listeners())
	}
}
