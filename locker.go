package scopeshare

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// RWLocker describes the locking behavior required by SharedCell.
// *xsync.RBMutex satisfies it and is the default.
type RWLocker interface {
	sync.Locker
	RLock() *xsync.RToken
	RUnlock(t *xsync.RToken)
	TryRLock() (bool, *xsync.RToken)
	TryLock() bool
}

var _ RWLocker = (*xsync.RBMutex)(nil)

func newLocker() RWLocker {
	return xsync.NewRBMutex()
}
