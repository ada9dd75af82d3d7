package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	reservationserrors "tablebook/internal/reservations/errors"
	"tablebook/pkg/logger"
)

const (
	lockPollInterval   = 25 * time.Millisecond
	lockReleaseTimeout = 2 * time.Second
)

// SlotKey identifies the unit of serialisation: one tenant, one date, one time.
type SlotKey struct {
	TenantID string
	Date     string
	TimeSlot string
}

func (k SlotKey) String() string {
	return fmt.Sprintf("slot:%s:%s:%s", k.TenantID, k.Date, k.TimeSlot)
}

// SlotLocker serialises writers on one slot. The returned release is safe to
// call more than once.
type SlotLocker interface {
	Acquire(ctx context.Context, key SlotKey) (release func(), err error)
}

// lockStore is a non-blocking lock primitive. pollingLocker turns it into a
// SlotLocker by retrying until the wait budget runs out.
type lockStore interface {
	tryLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	unlock(ctx context.Context, key, owner string) error
}

type pollingLocker struct {
	store lockStore
	ttl   time.Duration
	wait  time.Duration
	log   *logger.Logger
	name  string
}

func (l *pollingLocker) Acquire(ctx context.Context, key SlotKey) (func(), error) {
	owner := uuid.NewString()
	id := key.String()

	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.store.tryLock(ctx, id, owner, l.ttl)
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s slot lock: %w", l.name, err)
		}
		if ok {
			return l.releaser(id, owner), nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s", reservationserrors.ErrLockTimeout, id)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *pollingLocker) releaser(id, owner string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), lockReleaseTimeout)
			defer cancel()
			if err := l.store.unlock(ctx, id, owner); err != nil {
				l.log.Warn("Failed to release slot lock", "backend", l.name, "lock_id", id, "error", err)
			}
		})
	}
}

type memorySlotLocker struct {
	mu    sync.Mutex
	slots map[string]*slotSemaphore
	wait  time.Duration
}

type slotSemaphore struct {
	ch   chan struct{}
	refs int
}

// NewMemorySlotLocker serialises writers inside one process only.
func NewMemorySlotLocker(wait time.Duration) SlotLocker {
	return &memorySlotLocker{
		slots: make(map[string]*slotSemaphore),
		wait:  wait,
	}
}

func (l *memorySlotLocker) Acquire(ctx context.Context, key SlotKey) (func(), error) {
	id := key.String()

	l.mu.Lock()
	sem, ok := l.slots[id]
	if !ok {
		sem = &slotSemaphore{ch: make(chan struct{}, 1)}
		l.slots[id] = sem
	}
	sem.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case sem.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-sem.ch
				l.drop(id, sem)
			})
		}, nil
	case <-timer.C:
		l.drop(id, sem)
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrLockTimeout, id)
	case <-ctx.Done():
		l.drop(id, sem)
		return nil, ctx.Err()
	}
}

func (l *memorySlotLocker) drop(id string, sem *slotSemaphore) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sem.refs--
	if sem.refs == 0 {
		delete(l.slots, id)
	}
}
