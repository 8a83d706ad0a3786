package lockmgr

import (
	"bytes"
	"context"
	"github.com/ValentinKolb/dGrid/lib/gridmap"
	"github.com/jpillora/backoff"
	"github.com/lni/dragonboat/v4/logger"
	"time"
)

var Logger = logger.GetLogger("lockmgr")

type lockMgrImpl struct {
	locks gridmap.IMap
}

// NewLockManager creates a lock manager that keeps its locks in the given map
func NewLockManager(locks gridmap.IMap) ILockManager {
	return &lockMgrImpl{
		locks: locks,
	}
}

func (lm *lockMgrImpl) AcquireLock(ctx context.Context, key string) (bool, []byte, error) {
	// Generate owner id (256 bit random value)
	ownerID, err := generateOwnerID()
	if err != nil {
		return false, nil, err
	}

	// Try to acquire the lock (by setting the value only if it doesn't exist - atomic CAS operation)
	actual, stored, err := lm.locks.PutIfAbsent(ctx, key, ownerID)
	if err != nil {
		Logger.Warningf("Error acquiring lock %s: %v", key, err)
		return false, nil, err
	}

	// Return true if lock was acquired BY US
	if stored && bytes.Equal(actual, ownerID) {
		return true, ownerID, nil
	}
	// Return false if the lock is held BY SOMEONE ELSE
	return false, nil, nil
}

func (lm *lockMgrImpl) Lock(ctx context.Context, key string) ([]byte, error) {
	// wake up as soon as the lock entry is removed
	released := make(chan struct{}, 1)
	id, err := lm.locks.AddEntryListener(ctx, func(e gridmap.EntryEvent) {
		if e.Type == gridmap.EntryRemoved && e.Key == key {
			select {
			case released <- struct{}{}:
			default:
			}
		}
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		// the caller's ctx may be done already
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := lm.locks.RemoveEntryListener(cleanupCtx, id); err != nil {
			Logger.Warningf("Failed to remove lock listener %d: %v", id, err)
		}
	}()

	// poll as well, a release event may be lost together with its connection
	b := &backoff.Backoff{
		Factor: 2,
		Jitter: true,
		Min:    50 * time.Millisecond,
		Max:    2 * time.Second,
	}
	for {
		ok, ownerID, err := lm.AcquireLock(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			return ownerID, nil
		}

		Logger.Debugf("Lock %s is held, waiting", key)
		select {
		case <-released:
			b.Reset()
		case <-time.After(b.Duration()):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (lm *lockMgrImpl) ReleaseLock(ctx context.Context, key string, ownerID []byte) (bool, error) {
	// Check if the lock exists
	value, ok, err := lm.locks.Get(ctx, key)
	if err != nil || !ok {
		return err == nil, err
	}

	// Check if the lock is owned by us
	if !bytes.Equal(ownerID, value) {
		return false, nil
	}

	// Release the lock, only the owner removes the entry so it cannot change in between
	_, _, err = lm.locks.Remove(ctx, key)
	return err == nil, err
}
