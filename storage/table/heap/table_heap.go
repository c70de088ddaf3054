// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package heap

import (
	"github.com/golang-collections/collections/stack"

	"github.com/ryogrid/minisql/common"
	"github.com/ryogrid/minisql/recovery"
	"github.com/ryogrid/minisql/storage/buffer"
	"github.com/ryogrid/minisql/storage/page"
	"github.com/ryogrid/minisql/storage/table"
	"github.com/ryogrid/minisql/storage/tuple"
	"github.com/ryogrid/minisql/types"
)

// TableHeap is a singly-linked list of slotted pages rooted at
// firstPageID. Insertion remembers the last page it successfully wrote
// to as a hint, so a stream of inserts doesn't re-walk the whole chain
// looking for space each time.
type TableHeap struct {
	bpm         *buffer.BufferPoolManager
	firstPageID types.PageID
	hintPageID  types.PageID
	logManager  *recovery.LogManager
}

// NewTableHeap allocates a fresh, empty heap.
func NewTableHeap(bpm *buffer.BufferPoolManager, logManager *recovery.LogManager) *TableHeap {
	p := bpm.NewPage()
	tp := table.CastPageAsTablePage(p)
	tp.Init(p.ID(), types.InvalidPageID)
	bpm.FlushPage(p.ID())
	bpm.UnpinPage(p.ID(), true)
	return &TableHeap{bpm: bpm, firstPageID: p.ID(), hintPageID: p.ID(), logManager: logManager}
}

// OpenTableHeap reattaches to a heap that was already created, e.g. one
// the catalog is restoring on restart.
func OpenTableHeap(bpm *buffer.BufferPoolManager, firstPageID types.PageID, logManager *recovery.LogManager) *TableHeap {
	return &TableHeap{bpm: bpm, firstPageID: firstPageID, hintPageID: firstPageID, logManager: logManager}
}

func (t *TableHeap) GetFirstPageID() types.PageID { return t.firstPageID }

// InsertTuple starts from the hint page and follows next_page_id on
// failure, allocating and linking a new tail page once the chain is
// exhausted.
func (t *TableHeap) InsertTuple(row *tuple.Row, txnID types.TxnID, prevLSN types.LSN) (*page.RID, types.LSN, error) {
	current := table.CastPageAsTablePage(t.bpm.FetchPage(t.hintPageID))
	if current == nil {
		current = table.CastPageAsTablePage(t.bpm.FetchPage(t.firstPageID))
		t.hintPageID = t.firstPageID
	}

	for {
		rid, lsn, err := current.InsertTuple(row, txnID, prevLSN, t.logManager)
		if err == nil {
			t.hintPageID = current.GetTablePageID()
			t.bpm.UnpinPage(current.GetTablePageID(), true)
			return rid, lsn, nil
		}
		if err != table.ErrNotEnoughSpace {
			t.bpm.UnpinPage(current.GetTablePageID(), false)
			return nil, prevLSN, err
		}

		nextID := current.GetNextPageID()
		if nextID.IsValid() {
			t.bpm.UnpinPage(current.GetTablePageID(), false)
			current = table.CastPageAsTablePage(t.bpm.FetchPage(nextID))
			continue
		}

		newPg := t.bpm.NewPage()
		newTp := table.CastPageAsTablePage(newPg)
		newTp.Init(newPg.ID(), current.GetTablePageID())
		current.SetNextPageID(newPg.ID())
		t.bpm.FlushPage(newPg.ID())
		t.bpm.UnpinPage(current.GetTablePageID(), true)
		current = newTp
	}
}

// UpdateTuple attempts an in-place update; on NOT_ENOUGH_SPACE it
// tombstones the old slot and inserts the new row elsewhere, returning
// the row's new rid.
func (t *TableHeap) UpdateTuple(row *tuple.Row, rid *page.RID, txnID types.TxnID, prevLSN types.LSN) (*page.RID, types.LSN, error) {
	tp := table.CastPageAsTablePage(t.bpm.FetchPage(rid.GetPageId()))
	if tp == nil {
		return nil, prevLSN, common.Error("could not find the page containing that rid")
	}

	oldRow := &tuple.Row{}
	status, lsn := tp.UpdateTuple(row, oldRow, rid, txnID, prevLSN, t.logManager)
	t.bpm.UnpinPage(tp.GetTablePageID(), status == table.Updated)

	switch status {
	case table.Updated:
		return rid, lsn, nil
	case table.NotEnoughSpace:
		if !t.MarkDelete(rid, txnID, lsn) {
			return nil, lsn, common.Error("could not tombstone the row being relocated")
		}
		return t.InsertTuple(row, txnID, lsn)
	case table.SlotInvalid:
		return nil, lsn, common.Error("rid does not name a live slot")
	default: // AlreadyDeleted
		return nil, lsn, common.Error("row was already deleted")
	}
}

func (t *TableHeap) MarkDelete(rid *page.RID, txnID types.TxnID, prevLSN types.LSN) bool {
	tp := table.CastPageAsTablePage(t.bpm.FetchPage(rid.GetPageId()))
	if tp == nil {
		return false
	}
	ok, lsn := tp.MarkDelete(rid, txnID, prevLSN, t.logManager)
	t.bpm.UnpinPage(tp.GetTablePageID(), ok)
	_ = lsn
	return ok
}

// ApplyDelete commits a MarkDelete, reclaiming the slot's space. It
// invalidates the insertion hint since the page's free-space layout has
// shifted.
func (t *TableHeap) ApplyDelete(rid *page.RID) {
	tp := table.CastPageAsTablePage(t.bpm.FetchPage(rid.GetPageId()))
	common.SHAssert(tp != nil, "couldn't find a page containing that rid")
	tp.ApplyDelete(rid)
	t.bpm.UnpinPage(tp.GetTablePageID(), true)
	t.hintPageID = t.firstPageID
}

func (t *TableHeap) RollbackDelete(rid *page.RID) {
	tp := table.CastPageAsTablePage(t.bpm.FetchPage(rid.GetPageId()))
	common.SHAssert(tp != nil, "couldn't find a page containing that rid")
	tp.RollbackDelete(rid)
	t.bpm.UnpinPage(tp.GetTablePageID(), true)
}

// GetTuple resolves a row by (pid, slot).
func (t *TableHeap) GetTuple(rid *page.RID) *tuple.Row {
	tp := table.CastPageAsTablePage(t.bpm.FetchPage(rid.GetPageId()))
	if tp == nil {
		return nil
	}
	defer t.bpm.UnpinPage(tp.GetTablePageID(), false)
	return tp.GetTuple(rid)
}

// GetFirstTuple returns the heap's first live row, or nil if it's empty.
func (t *TableHeap) GetFirstTuple() *tuple.Row {
	pageID := t.firstPageID
	for pageID.IsValid() {
		tp := table.CastPageAsTablePage(t.bpm.FetchPage(pageID))
		rid := tp.GetTupleFirstRID()
		nextID := tp.GetNextPageID()
		t.bpm.UnpinPage(pageID, false)
		if rid != nil {
			return t.GetTuple(rid)
		}
		pageID = nextID
	}
	return nil
}

// Iterator returns a forward iterator over the heap's live rows.
func (t *TableHeap) Iterator() *TableHeapIterator {
	return NewTableHeapIterator(t)
}

// DropHeap deallocates every page in the chain. It first walks the
// chain collecting page ids onto a stack, then pops and deletes them,
// so the traversal isn't recursive even though pages are freed in
// reverse chain order.
func (t *TableHeap) DropHeap() {
	pages := stack.New()
	pageID := t.firstPageID
	for pageID.IsValid() {
		tp := table.CastPageAsTablePage(t.bpm.FetchPage(pageID))
		nextID := tp.GetNextPageID()
		t.bpm.UnpinPage(pageID, false)
		pages.Push(pageID)
		pageID = nextID
	}
	for pages.Len() > 0 {
		t.bpm.DeletePage(pages.Pop().(types.PageID))
	}
}

func (t *TableHeap) GetBufferPoolManager() *buffer.BufferPoolManager { return t.bpm }
