package scopeshare

// Accessor is implemented by Cell and SharedCell.
type Accessor[T any] interface {
	Borrow() *ReadGuard[T]
	BorrowMut() *WriteGuard[T]
}

var (
	_ Accessor[int] = (*Cell[int])(nil)
	_ Accessor[int] = (*SharedCell[int])(nil)
)

// View calls f with the value under a shared access and returns its result.
// The access is released when f returns or panics.
func View[T, R any](a Accessor[T], f func(T) R) R {
	g := a.Borrow()
	defer g.Release()
	return f(*g.value)
}

// Modify calls f with a pointer to the value under an exclusive access and
// returns its result. A panic in f poisons a SharedCell.
func Modify[T, R any](a Accessor[T], f func(*T) R) R {
	g := a.BorrowMut()
	defer g.Release()
	return f(g.value)
}

// TryView is View without blocking. It reports false if the lock is held by a
// writer or poisoned.
func TryView[T, R any](c *SharedCell[T], f func(T) R) (R, bool) {
	g, ok := c.TryBorrow()
	if !ok {
		var zero R
		return zero, false
	}
	defer g.Release()
	return f(*g.value), true
}

// TryModify is Modify without blocking. It reports false if the lock is held
// or poisoned.
func TryModify[T, R any](c *SharedCell[T], f func(*T) R) (R, bool) {
	g, ok := c.TryBorrowMut()
	if !ok {
		var zero R
		return zero, false
	}
	defer g.Release()
	return f(g.value), true
}

// Cloner is implemented by values that need a deep copy. Clone and Snapshot
// use it when present and fall back to plain assignment otherwise.
type Cloner[T any] interface {
	Clone() T
}

func cloneValue[T any](v T) T {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone()
	}
	return v
}
