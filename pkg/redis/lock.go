package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultLockTTL = 30 * time.Second

// Lock is a single-owner Redis lock built on SETNX + TTL. Used to
// serialize status writes per order and to keep sweep runs exclusive.
type Lock struct {
	store LockStore
	key   string
	ttl   time.Duration
	owner string
}

// NewLock constructs a lock for the given namespaced key.
func NewLock(store LockStore, key string, ttl time.Duration) (*Lock, error) {
	if store == nil {
		return nil, errors.New("lock store is required")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Lock{store: store, key: key, ttl: ttl}, nil
}

// Acquire tries to own the lock for the configured TTL.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// AcquireWait retries acquisition until it succeeds, the deadline passes,
// or the context is done.
func (l *Lock) AcquireWait(ctx context.Context, wait, interval time.Duration) (bool, error) {
	deadline := time.Now().Add(wait)
	for {
		ok, err := l.Acquire(ctx)
		if err != nil || ok {
			return ok, err
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// Release frees the lock only if the owner value still matches.
func (l *Lock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	value, err := l.store.Get(ctx, l.key)
	if err != nil {
		if IsNil(err) {
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != l.owner {
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.owner = ""
	return nil
}
