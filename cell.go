package scopeshare

import (
	"fmt"

	"go.uber.org/zap"
)

// Cell gives scoped shared or exclusive access to a value owned by a single
// goroutine. Conflicting borrows are detected at run time: Borrow panics while
// a mutable borrow is outstanding, BorrowMut panics while any borrow is
// outstanding. A borrow attempted from a second goroutine while another
// goroutine holds one also panics, but Cell is not safe for concurrent use;
// use SharedCell for that.
//
// The zero value is a usable Cell holding the zero T. A Cell must not be
// copied after first use.
//
// The codec methods (JSON, YAML, CBOR, SQL) have pointer receivers. A Cell
// embedded by value encodes as the wrapped value only when reached through a
// pointer, e.g. json.Marshal(&doc); through a copy it encodes as {}.
type Cell[T any] struct {
	flag   borrowFlag
	logger *zap.Logger
	value  T
}

// New returns a Cell holding v.
func New[T any](v T, opts ...Option) *Cell[T] {
	o := buildOptions(opts)
	return &Cell[T]{logger: o.logger, value: v}
}

func (c *Cell[T]) log() *zap.Logger {
	if c.logger == nil {
		return zap.NewNop()
	}
	return c.logger
}

// With calls f with the value under a shared borrow.
func (c *Cell[T]) With(f func(T)) {
	View(c, func(v T) struct{} {
		f(v)
		return struct{}{}
	})
}

// WithMut calls f with a pointer to the value under an exclusive borrow.
func (c *Cell[T]) WithMut(f func(*T)) {
	Modify(c, func(v *T) struct{} {
		f(v)
		return struct{}{}
	})
}

// Borrow takes a shared borrow. It panics with a *BorrowError if the value is
// mutably borrowed.
func (c *Cell[T]) Borrow() *ReadGuard[T] {
	g, err := c.TryBorrow()
	if err != nil {
		panic(err)
	}
	return g
}

// BorrowMut takes an exclusive borrow. It panics with a *BorrowError if the
// value is borrowed.
func (c *Cell[T]) BorrowMut() *WriteGuard[T] {
	g, err := c.TryBorrowMut()
	if err != nil {
		panic(err)
	}
	return g
}

// TryBorrow is Borrow returning the *BorrowError instead of panicking.
func (c *Cell[T]) TryBorrow() (*ReadGuard[T], error) {
	if err := c.flag.acquireShared(); err != nil {
		c.log().Debug("borrow rejected", zap.Error(err))
		return nil, err
	}
	return newReadGuard(&c.value, c.flag.releaseShared), nil
}

// TryBorrowMut is BorrowMut returning the *BorrowError instead of panicking.
func (c *Cell[T]) TryBorrowMut() (*WriteGuard[T], error) {
	if err := c.flag.acquireExclusive(); err != nil {
		c.log().Debug("mutable borrow rejected", zap.Error(err))
		return nil, err
	}
	return newWriteGuard(&c.value, func(any) { c.flag.releaseExclusive() }), nil
}

// Replace stores v and returns the previous value.
func (c *Cell[T]) Replace(v T) T {
	return Modify(c, func(p *T) T {
		old := *p
		*p = v
		return old
	})
}

// Clone returns a new Cell holding a copy of the value. The copy is deep only
// if T implements Cloner.
func (c *Cell[T]) Clone() *Cell[T] {
	return &Cell[T]{logger: c.logger, value: View(c, cloneValue[T])}
}

// String panics with a *BorrowError if the value is mutably borrowed. Note
// that fmt recovers such panics and prints them inline.
func (c *Cell[T]) String() string {
	return View(c, func(v T) string {
		return fmt.Sprintf("Cell{value: %v}", v)
	})
}

func (c *Cell[T]) GoString() string {
	return View(c, func(v T) string {
		return fmt.Sprintf("scopeshare.Cell[%T]{value: %#v}", v, v)
	})
}
