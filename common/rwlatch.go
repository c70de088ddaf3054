// this code is from https://github.com/pzhzqt/goostub
// there is license and copyright notice in licenses/goostub dir

package common

import (
	"github.com/sasha-s/go-deadlock"
)

// ReaderWriterLatch is the page-level and buffer-pool-internal-structure
// latch used throughout the kernel: multiple readers or one writer, per
// the crabbing/latch discipline spec'd for page traversal.
type ReaderWriterLatch interface {
	WLock()
	WUnlock()
	RLock()
	RUnlock()
}

type readerWriterLatch struct {
	mutex deadlock.RWMutex
}

// NewRWLatch returns a deadlock-detecting reader/writer latch. Swapping in
// go-deadlock for the bare sync.RWMutex the teacher used costs nothing at
// rest and turns a page-latch ordering bug (e.g. two internal nodes
// crabbed in the wrong order during a B+ tree split) into an immediate,
// actionable panic instead of a hang.
func NewRWLatch() ReaderWriterLatch {
	return &readerWriterLatch{}
}

func (l *readerWriterLatch) WLock()   { l.mutex.Lock() }
func (l *readerWriterLatch) WUnlock() { l.mutex.Unlock() }
func (l *readerWriterLatch) RLock()   { l.mutex.RLock() }
func (l *readerWriterLatch) RUnlock() { l.mutex.RUnlock() }
