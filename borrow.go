package scopeshare

import (
	"sync/atomic"

	"github.com/petermattis/goid"
)

const exclusive = -1

// borrowFlag tracks the outstanding borrows of a Cell: 0 is free, n > 0 is
// n shared borrows, exclusive is one mutable borrow. owner is the goroutine
// that took the first outstanding borrow.
type borrowFlag struct {
	state atomic.Int64
	owner atomic.Int64
}

func (f *borrowFlag) acquireShared() error {
	me := goid.Get()
	for {
		s := f.state.Load()
		switch {
		case s == exclusive:
			return f.conflict("borrow", me, ErrAlreadyMutablyBorrowed)
		case s > 0 && f.owner.Load() != me:
			return &BorrowError{Op: "borrow", Err: ErrCrossGoroutine}
		}
		if f.state.CompareAndSwap(s, s+1) {
			if s == 0 {
				f.owner.Store(me)
			}
			return nil
		}
	}
}

func (f *borrowFlag) releaseShared() {
	if f.state.Add(-1) == 0 {
		f.owner.Store(0)
	}
}

func (f *borrowFlag) acquireExclusive() error {
	me := goid.Get()
	if f.state.CompareAndSwap(0, exclusive) {
		f.owner.Store(me)
		return nil
	}
	return f.conflict("borrow mut", me, ErrAlreadyBorrowed)
}

func (f *borrowFlag) releaseExclusive() {
	f.owner.Store(0)
	f.state.Store(0)
}

func (f *borrowFlag) conflict(op string, me int64, err error) *BorrowError {
	if owner := f.owner.Load(); owner != 0 && owner != me {
		err = ErrCrossGoroutine
	}
	return &BorrowError{Op: op, Err: err}
}
