package scopeshare

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

// SharedCell gives scoped shared or exclusive access to a value from any
// number of goroutines. Readers run concurrently; a writer runs alone.
// Blocking accessors wait without timeout. Acquiring the lock again from a
// goroutine that already holds it may deadlock.
//
// A panic that unwinds through an exclusive access poisons the cell: every
// later blocking access panics with ErrPoisoned until ClearPoison is called.
// Non-blocking accessors report a poisoned cell as unavailable.
//
// The zero value is a usable SharedCell holding the zero T. A SharedCell must
// not be copied after first use.
//
// The codec methods (JSON, YAML, CBOR, SQL) have pointer receivers. A
// SharedCell embedded by value encodes as the wrapped value only when reached
// through a pointer, e.g. json.Marshal(&doc); through a copy it encodes as {}.
type SharedCell[T any] struct {
	once     sync.Once
	mu       RWLocker
	logger   *zap.Logger
	poisoned atomic.Bool
	value    T
}

// NewShared returns a SharedCell holding v, guarded by an *xsync.RBMutex
// unless WithLocker supplies another RWLocker.
func NewShared[T any](v T, opts ...Option) *SharedCell[T] {
	o := buildOptions(opts)
	if o.locker == nil {
		o.locker = newLocker()
	}
	return &SharedCell[T]{mu: o.locker, logger: o.logger, value: v}
}

func (c *SharedCell[T]) init() {
	c.once.Do(func() {
		if c.mu == nil {
			c.mu = newLocker()
		}
		if c.logger == nil {
			c.logger = zap.NewNop()
		}
	})
}

// With calls f with the value under a read lock.
func (c *SharedCell[T]) With(f func(T)) {
	View(c, func(v T) struct{} {
		f(v)
		return struct{}{}
	})
}

// WithMut calls f with a pointer to the value under the write lock.
func (c *SharedCell[T]) WithMut(f func(*T)) {
	Modify(c, func(v *T) struct{} {
		f(v)
		return struct{}{}
	})
}

// TryWith calls f under a read lock if it can be taken without blocking and
// reports whether f ran.
func (c *SharedCell[T]) TryWith(f func(T)) bool {
	_, ok := TryView(c, func(v T) struct{} {
		f(v)
		return struct{}{}
	})
	return ok
}

// TryWithMut calls f under the write lock if it can be taken without blocking
// and reports whether f ran.
func (c *SharedCell[T]) TryWithMut(f func(*T)) bool {
	_, ok := TryModify(c, func(v *T) struct{} {
		f(v)
		return struct{}{}
	})
	return ok
}

// Borrow blocks until the read lock is held. It panics with ErrPoisoned if
// the cell is poisoned.
func (c *SharedCell[T]) Borrow() *ReadGuard[T] {
	c.init()
	t := c.mu.RLock()
	if c.poisoned.Load() {
		c.mu.RUnlock(t)
		panic(ErrPoisoned)
	}
	return c.readGuard(t)
}

// BorrowMut blocks until the write lock is held. It panics with ErrPoisoned
// if the cell is poisoned.
func (c *SharedCell[T]) BorrowMut() *WriteGuard[T] {
	c.init()
	c.mu.Lock()
	if c.poisoned.Load() {
		c.mu.Unlock()
		panic(ErrPoisoned)
	}
	return c.writeGuard()
}

// TryBorrow takes the read lock without blocking. It reports false if a
// writer holds the lock or the cell is poisoned.
func (c *SharedCell[T]) TryBorrow() (*ReadGuard[T], bool) {
	c.init()
	ok, t := c.mu.TryRLock()
	if !ok {
		return nil, false
	}
	if c.poisoned.Load() {
		c.mu.RUnlock(t)
		return nil, false
	}
	return c.readGuard(t), true
}

// TryBorrowMut takes the write lock without blocking. It reports false if the
// lock is held or the cell is poisoned.
func (c *SharedCell[T]) TryBorrowMut() (*WriteGuard[T], bool) {
	c.init()
	if !c.mu.TryLock() {
		return nil, false
	}
	if c.poisoned.Load() {
		c.mu.Unlock()
		return nil, false
	}
	return c.writeGuard(), true
}

func (c *SharedCell[T]) readGuard(t *xsync.RToken) *ReadGuard[T] {
	return newReadGuard(&c.value, func() {
		c.mu.RUnlock(t)
	})
}

func (c *SharedCell[T]) writeGuard() *WriteGuard[T] {
	return newObservedWriteGuard(&c.value, func(panicked any) {
		if panicked != nil {
			c.poisoned.Store(true)
			c.logger.Warn("shared cell poisoned", zap.Any("panic", panicked))
		}
		c.mu.Unlock()
	})
}

// Snapshot returns a copy of the value taken under a read lock. The copy is
// deep only if T implements Cloner.
func (c *SharedCell[T]) Snapshot() T {
	return View(c, cloneValue[T])
}

// Replace stores v under the write lock and returns the previous value.
func (c *SharedCell[T]) Replace(v T) T {
	return Modify(c, func(p *T) T {
		old := *p
		*p = v
		return old
	})
}

// Clone returns a new SharedCell, with its own lock, holding a snapshot of
// the value.
func (c *SharedCell[T]) Clone() *SharedCell[T] {
	v := c.Snapshot()
	return &SharedCell[T]{logger: c.logger, value: v}
}

// IsPoisoned reports whether a writer panicked while holding the lock.
func (c *SharedCell[T]) IsPoisoned() bool {
	return c.poisoned.Load()
}

// ClearPoison marks the value as consistent again.
func (c *SharedCell[T]) ClearPoison() {
	c.init()
	if c.poisoned.CompareAndSwap(true, false) {
		c.logger.Info("shared cell poison cleared")
	}
}

func (c *SharedCell[T]) String() string {
	return View(c, func(v T) string {
		return fmt.Sprintf("SharedCell{value: %v}", v)
	})
}
