package store

import (
	"errors"
	"sync"
)

// ErrLockConflict is returned when code asks to widen a read scope into a
// write scope on the same entity. The upgrade can never be granted: other
// readers may be interleaved and would starve the writer, so honoring it
// would deadlock. The legal protocol is readDone, then writeScope, then
// revalidate whatever the read observed.
var ErrLockConflict = errors.New("store: lock upgrade from read to write scope")

// guard serializes access to one entity. Entities are only touched inside a
// read scope (consistent snapshot) or a write scope (field mutation); the
// collection-level locks never substitute for it. A guard is never held
// while bytes move on a socket. The two-scope API makes an in-place upgrade
// inexpressible; promote exists so code that nevertheless asks for one gets
// ErrLockConflict immediately instead of a deadlock.
type guard struct {
	mu sync.RWMutex
}

func (g *guard) readScope()  { g.mu.RLock() }
func (g *guard) readDone()   { g.mu.RUnlock() }
func (g *guard) writeScope() { g.mu.Lock() }
func (g *guard) writeDone()  { g.mu.Unlock() }

// promote rejects the read-to-write upgrade outright instead of blocking on
// the write lock while the read lock is still held.
func (g *guard) promote() error {
	return ErrLockConflict
}
