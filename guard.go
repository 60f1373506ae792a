package scopeshare

import "fmt"

// ReadGuard is a shared access to the value of a Cell or SharedCell.
// The access lasts until Release, which is normally deferred:
//
//	g := c.Borrow()
//	defer g.Release()
type ReadGuard[T any] struct {
	value   *T
	release func()
}

func newReadGuard[T any](value *T, release func()) *ReadGuard[T] {
	return &ReadGuard[T]{value: value, release: release}
}

// Get returns a copy of the guarded value.
func (g *ReadGuard[T]) Get() T {
	return *g.ptr()
}

// Ptr exposes the guarded value for reading without a copy. The pointer must
// not be written through or retained after Release.
func (g *ReadGuard[T]) Ptr() *T {
	return g.ptr()
}

// Release ends the access. Calling it more than once is a no-op.
func (g *ReadGuard[T]) Release() {
	if g.value == nil {
		return
	}
	release := g.release
	g.value, g.release = nil, nil
	release()
}

func (g *ReadGuard[T]) ptr() *T {
	if g.value == nil {
		panic(ErrReleasedGuard)
	}
	return g.value
}

func (g *ReadGuard[T]) String() string {
	return fmt.Sprintf("%v", g.Get())
}

// WriteGuard is an exclusive access to the value of a Cell or SharedCell.
//
// A SharedCell guard released with defer g.Release() observes a panic
// unwinding through the surrounding function, poisons the cell and lets the
// panic continue with the same value. Cell guards never recover.
type WriteGuard[T any] struct {
	value   *T
	release func(panicked any)
	observe bool
}

func newWriteGuard[T any](value *T, release func(panicked any)) *WriteGuard[T] {
	return &WriteGuard[T]{value: value, release: release}
}

func newObservedWriteGuard[T any](value *T, release func(panicked any)) *WriteGuard[T] {
	return &WriteGuard[T]{value: value, release: release, observe: true}
}

// Get returns a copy of the guarded value.
func (g *WriteGuard[T]) Get() T {
	return *g.ptr()
}

// Set overwrites the guarded value.
func (g *WriteGuard[T]) Set(v T) {
	*g.ptr() = v
}

// Ptr exposes the guarded value for in-place mutation. The pointer must not be
// retained after Release.
func (g *WriteGuard[T]) Ptr() *T {
	return g.ptr()
}

// Release ends the access. Calling it more than once is a no-op.
func (g *WriteGuard[T]) Release() {
	var r any
	if g.observe {
		r = recover()
	}
	if g.value != nil {
		release := g.release
		g.value, g.release = nil, nil
		release(r)
	}
	if r != nil {
		panic(r)
	}
}

func (g *WriteGuard[T]) ptr() *T {
	if g.value == nil {
		panic(ErrReleasedGuard)
	}
	return g.value
}

func (g *WriteGuard[T]) String() string {
	return fmt.Sprintf("%v", g.Get())
}
