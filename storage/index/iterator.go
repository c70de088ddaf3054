package index

import (
	"unsafe"

	"github.com/ryogrid/minisql/storage/page"
	"github.com/ryogrid/minisql/types"
)

// Iterator walks leaves left to right via next_leaf, yielding (key, rid)
// pairs in strictly increasing key order. It holds its current leaf
// pinned; End() releases nothing on its own, so callers that abandon an
// iterator mid-scan must unpin its current leaf themselves via Close.
type Iterator struct {
	tree   *BPlusTree
	leaf   *LeafPage
	leafID types.PageID
	slot   uint32
}

// Begin positions at the first key of the leftmost leaf.
func (t *BPlusTree) Begin() *Iterator {
	if t.IsEmpty() {
		return &Iterator{tree: t}
	}
	leaf, leafID := t.leftmostLeaf()
	return &Iterator{tree: t, leaf: leaf, leafID: leafID, slot: 0}
}

// BeginAt positions at the first key >= probe (possibly in the leaf
// immediately to the right, if probe falls past the end of its home
// leaf).
func (t *BPlusTree) BeginAt(key Key) *Iterator {
	if t.IsEmpty() {
		return &Iterator{tree: t}
	}
	leaf, leafID := t.findLeaf(key, false)
	idx := leaf.KeyIndex(key, t.comparator)
	if idx >= leaf.GetSize() {
		nextID := leaf.GetNextPageID()
		t.bpm.UnpinPage(leafID, false)
		if !nextID.IsValid() {
			return &Iterator{tree: t}
		}
		next := CastPageAsLeafPage(t.bpm.FetchPage(nextID))
		return &Iterator{tree: t, leaf: next, leafID: nextID, slot: 0}
	}
	return &Iterator{tree: t, leaf: leaf, leafID: leafID, slot: idx}
}

func (t *BPlusTree) leftmostLeaf() (*LeafPage, types.PageID) {
	pageID := t.getRootID()
	n := CastPageAsNode(t.bpm.FetchPage(pageID))
	for !n.IsLeaf() {
		ip := (*InternalPage)(unsafe.Pointer(n))
		child := ip.ValueAt(0)
		t.bpm.UnpinPage(pageID, false)
		pageID = child
		n = CastPageAsNode(t.bpm.FetchPage(pageID))
	}
	return (*LeafPage)(unsafe.Pointer(n)), pageID
}

// End reports whether the iterator has run off the right end of the
// index.
func (it *Iterator) End() bool { return it.leaf == nil }

func (it *Iterator) Key() Key {
	if it.End() {
		return nil
	}
	return it.leaf.KeyAt(it.slot)
}

func (it *Iterator) Value() *page.RID {
	if it.End() {
		return nil
	}
	return it.leaf.ValueAt(it.slot)
}

// Next advances by one entry, unpinning the exhausted leaf and following
// next_leaf when it walks off the current page.
func (it *Iterator) Next() {
	if it.End() {
		return
	}
	it.slot++
	if it.slot < it.leaf.GetSize() {
		return
	}
	nextID := it.leaf.GetNextPageID()
	it.tree.bpm.UnpinPage(it.leafID, false)
	if !nextID.IsValid() {
		it.leaf = nil
		return
	}
	it.leaf = CastPageAsLeafPage(it.tree.bpm.FetchPage(nextID))
	it.leafID = nextID
	it.slot = 0
}

// Close releases the pin on the iterator's current leaf, if any. Callers
// that consume an iterator to completion (until End()) need not call
// this; Next already unpins as it advances.
func (it *Iterator) Close() {
	if it.leaf == nil {
		return
	}
	it.tree.bpm.UnpinPage(it.leafID, false)
	it.leaf = nil
}
