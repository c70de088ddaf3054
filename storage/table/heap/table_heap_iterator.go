// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package heap

import (
	"github.com/ryogrid/minisql/storage/page"
	"github.com/ryogrid/minisql/storage/table"
	"github.com/ryogrid/minisql/storage/tuple"
)

// TableHeapIterator walks a heap forward from its first live row.
// Advancing tries the current page first; once that page is exhausted it
// follows next_page_id until it finds a page with a live row or runs off
// the end of the chain, at which point Current returns nil (the
// INVALID_ROWID sentinel).
type TableHeapIterator struct {
	heap *TableHeap
	rid  *page.RID
}

func NewTableHeapIterator(heap *TableHeap) *TableHeapIterator {
	it := &TableHeapIterator{heap: heap}
	it.rid = it.firstRID()
	return it
}

func (it *TableHeapIterator) firstRID() *page.RID {
	pageID := it.heap.firstPageID
	for pageID.IsValid() {
		tp := table.CastPageAsTablePage(it.heap.bpm.FetchPage(pageID))
		rid := tp.GetTupleFirstRID()
		nextID := tp.GetNextPageID()
		it.heap.bpm.UnpinPage(pageID, false)
		if rid != nil {
			return rid
		}
		pageID = nextID
	}
	return nil
}

// Current returns the row the iterator is positioned on, or nil once the
// chain is exhausted.
func (it *TableHeapIterator) Current() *tuple.Row {
	if it.rid == nil {
		return nil
	}
	return it.heap.GetTuple(it.rid)
}

// RID returns the current row's identity, or nil at end of heap.
func (it *TableHeapIterator) RID() *page.RID { return it.rid }

// End reports whether the iterator has run off the end of the heap.
func (it *TableHeapIterator) End() bool { return it.rid == nil }

// Next advances the iterator by one live row, first scanning the rest
// of the current page and then walking next_page_id.
func (it *TableHeapIterator) Next() *tuple.Row {
	if it.rid == nil {
		return nil
	}

	pageID := it.rid.GetPageId()
	tp := table.CastPageAsTablePage(it.heap.bpm.FetchPage(pageID))
	nextInPage := tp.GetNextTupleRID(it.rid, false)
	if nextInPage != nil {
		it.heap.bpm.UnpinPage(pageID, false)
		it.rid = nextInPage
		return it.Current()
	}

	nextPageID := tp.GetNextPageID()
	it.heap.bpm.UnpinPage(pageID, false)

	for nextPageID.IsValid() {
		nextTp := table.CastPageAsTablePage(it.heap.bpm.FetchPage(nextPageID))
		found := nextTp.GetNextTupleRID(nil, true)
		followingPageID := nextTp.GetNextPageID()
		it.heap.bpm.UnpinPage(nextPageID, false)
		if found != nil {
			it.rid = found
			return it.Current()
		}
		nextPageID = followingPageID
	}

	it.rid = nil
	return nil
}
