// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package buffer

import (
	"errors"

	"github.com/ryogrid/minisql/common"
	"github.com/ryogrid/minisql/storage/disk"
	"github.com/ryogrid/minisql/storage/page"
	"github.com/ryogrid/minisql/types"
	"go.uber.org/zap"
)

// BufferPoolManager caches disk pages in a fixed pool of frames, backed by
// a pluggable eviction Replacer (Clock or LRU). All bookkeeping (page
// table, free list, frame array) is guarded by a single latch, matching
// the coarse-grained pool-wide latch the recovery/table-heap layers above
// it assume when they crab individual page latches instead.
type BufferPoolManager struct {
	diskManager disk.DiskManager
	pages       []*page.Page
	replacer    Replacer
	freeList    []FrameID
	pageTable   map[types.PageID]FrameID
	latch       common.ReaderWriterLatch
}

// FetchPage fetches the requested page from the buffer pool.
func (b *BufferPoolManager) FetchPage(pageID types.PageID) *page.Page {
	b.latch.WLock()
	defer b.latch.WUnlock()

	if frameID, ok := b.pageTable[pageID]; ok {
		pg := b.pages[frameID]
		pg.IncPinCount()
		b.replacer.Pin(frameID)
		common.ShTrace(common.OpTrace, "buffer pool hit", zap.Int32("page_id", int32(pageID)), zap.Int("pin_count", pg.PinCount()))
		return pg
	}

	frameID, isFromFreeList := b.getFrameID()
	if frameID == nil {
		common.ShTrace(common.Debug, "buffer pool exhausted, no victim frame available", zap.Int32("page_id", int32(pageID)))
		return nil
	}

	if !isFromFreeList {
		currentPage := b.pages[*frameID]
		if currentPage != nil {
			if currentPage.IsDirty() {
				data := currentPage.Data()
				b.diskManager.WritePage(currentPage.ID(), data[:])
			}
			delete(b.pageTable, currentPage.ID())
			common.ShTrace(common.OpTrace, "buffer pool evicted page", zap.Int32("evicted_page_id", int32(currentPage.ID())), zap.Int32("for_page_id", int32(pageID)))
		}
	}

	data := make([]byte, common.PageSize)
	err := b.diskManager.ReadPage(pageID, data)
	if err != nil {
		common.ShTrace(common.Warn, "buffer pool read from disk failed", zap.Int32("page_id", int32(pageID)), zap.Error(err))
		return nil
	}
	var pageData [common.PageSize]byte
	copy(pageData[:], data)
	pg := page.New(pageID, 1, false, &pageData)
	b.pageTable[pageID] = *frameID
	b.pages[*frameID] = pg

	common.ShTrace(common.OpTrace, "buffer pool miss, fetched from disk", zap.Int32("page_id", int32(pageID)))
	return pg
}

// UnpinPage unpins the target page from the buffer pool.
func (b *BufferPoolManager) UnpinPage(pageID types.PageID, isDirty bool) error {
	b.latch.WLock()
	defer b.latch.WUnlock()

	if frameID, ok := b.pageTable[pageID]; ok {
		pg := b.pages[frameID]
		if pg.PinCount() <= 0 {
			return errors.New("page is already unpinned")
		}
		pg.DecPinCount()

		if pg.PinCount() <= 0 {
			b.replacer.Unpin(frameID)
		}

		pg.SetIsDirty(pg.IsDirty() || isDirty)

		return nil
	}

	return errors.New("could not find page")
}

// FlushPage flushes the target page to disk.
func (b *BufferPoolManager) FlushPage(pageID types.PageID) bool {
	b.latch.WLock()
	defer b.latch.WUnlock()

	if frameID, ok := b.pageTable[pageID]; ok {
		pg := b.pages[frameID]

		data := pg.Data()
		b.diskManager.WritePage(pageID, data[:])
		pg.SetIsDirty(false)

		return true
	}

	return false
}

// NewPage allocates a new page in the buffer pool with the disk manager's help.
func (b *BufferPoolManager) NewPage() *page.Page {
	b.latch.WLock()
	defer b.latch.WUnlock()

	frameID, isFromFreeList := b.getFrameID()
	if frameID == nil {
		return nil
	}

	if !isFromFreeList {
		currentPage := b.pages[*frameID]
		if currentPage != nil {
			if currentPage.IsDirty() {
				data := currentPage.Data()
				b.diskManager.WritePage(currentPage.ID(), data[:])
			}
			delete(b.pageTable, currentPage.ID())
		}
	}

	pageID := b.diskManager.AllocatePage()
	pg := page.NewEmpty(pageID)

	b.pageTable[pageID] = *frameID
	b.pages[*frameID] = pg

	return pg
}

// DeletePage deletes a page from the buffer pool.
func (b *BufferPoolManager) DeletePage(pageID types.PageID) error {
	b.latch.WLock()
	defer b.latch.WUnlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		b.diskManager.DeallocatePage(pageID)
		return nil
	}

	pg := b.pages[frameID]
	if pg.PinCount() > 0 {
		return errors.New("pin count greater than 0")
	}
	delete(b.pageTable, pg.ID())
	b.replacer.Pin(frameID)
	b.diskManager.DeallocatePage(pageID)

	b.freeList = append(b.freeList, frameID)

	common.ShTrace(common.OpTrace, "buffer pool deleted page", zap.Int32("page_id", int32(pageID)))
	return nil
}

// FlushAllpages flushes every buffered page to disk.
func (b *BufferPoolManager) FlushAllpages() {
	b.latch.RLock()
	pageIDs := make([]types.PageID, 0, len(b.pageTable))
	for pageID := range b.pageTable {
		pageIDs = append(pageIDs, pageID)
	}
	b.latch.RUnlock()

	for _, pageID := range pageIDs {
		b.FlushPage(pageID)
	}
}

func (b *BufferPoolManager) getFrameID() (*FrameID, bool) {
	if len(b.freeList) > 0 {
		frameID, newFreeList := b.freeList[0], b.freeList[1:]
		b.freeList = newFreeList

		return &frameID, true
	}

	id, ok := b.replacer.Victim()
	if !ok {
		return nil, false
	}
	return &id, false
}

// ReplacerPolicy selects which eviction policy a new pool uses.
type ReplacerPolicy int

const (
	ClockPolicy ReplacerPolicy = iota
	LRUPolicy
)

// NewBufferPoolManager returns an empty buffer pool manager backed by the
// clock replacement policy, matching the teacher's default.
func NewBufferPoolManager(poolSize uint32, diskManager disk.DiskManager) *BufferPoolManager {
	return NewBufferPoolManagerWithPolicy(poolSize, diskManager, ClockPolicy)
}

// NewBufferPoolManagerWithPolicy returns an empty buffer pool manager using
// the given eviction policy.
func NewBufferPoolManagerWithPolicy(poolSize uint32, diskManager disk.DiskManager, policy ReplacerPolicy) *BufferPoolManager {
	freeList := make([]FrameID, poolSize)
	pages := make([]*page.Page, poolSize)
	for i := uint32(0); i < poolSize; i++ {
		freeList[i] = FrameID(i)
		pages[i] = nil
	}

	var replacer Replacer
	switch policy {
	case LRUPolicy:
		replacer = NewLRUReplacer(poolSize)
	default:
		replacer = NewClockReplacer(poolSize)
	}

	return &BufferPoolManager{
		diskManager: diskManager,
		pages:       pages,
		replacer:    replacer,
		freeList:    freeList,
		pageTable:   make(map[types.PageID]FrameID),
		latch:       common.NewRWLatch(),
	}
}
