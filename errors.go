package scopeshare

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrAlreadyBorrowed is the cause of a mutable borrow rejected because
	// the Cell is borrowed.
	ErrAlreadyBorrowed = errors.New("already borrowed")
	// ErrAlreadyMutablyBorrowed is the cause of a borrow rejected because the
	// Cell is mutably borrowed.
	ErrAlreadyMutablyBorrowed = errors.New("already mutably borrowed")
	// ErrCrossGoroutine is the cause of a borrow rejected because another
	// goroutine holds a borrow of the same Cell.
	ErrCrossGoroutine = errors.New("borrowed by another goroutine")

	// ErrPoisoned is the panic value of blocking accesses to a SharedCell
	// whose previous writer panicked while holding the lock.
	ErrPoisoned = errors.New("scopeshare: lock poisoned")

	// ErrReleasedGuard is the panic value of a guard used after Release.
	ErrReleasedGuard = errors.New("scopeshare: use of released guard")
)

// BorrowError reports a borrow that conflicts with an outstanding one on the
// same Cell. Borrow and BorrowMut panic with it; TryBorrow and TryBorrowMut
// return it.
type BorrowError struct {
	Op  string
	Err error
}

func (b *BorrowError) Is(err error) bool {
	_, ok := err.(*BorrowError)
	return ok
}

func (b *BorrowError) Unwrap() error {
	return b.Err
}

func (b *BorrowError) Error() string {
	return fmt.Sprintf("scopeshare: %s: %v", b.Op, b.Err)
}
