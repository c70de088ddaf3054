package index

import (
	"unsafe"

	"github.com/ryogrid/minisql/storage/page"
	"github.com/ryogrid/minisql/types"
)

const (
	leafValueSize  = uint32(8) // RID: page id (4) + slot (4)
	offsetNextLeaf = NodeHeaderSize
	LeafHeaderSize = NodeHeaderSize + 4
)

// LeafPage stores the actual (key, RID) pairs of the index in sorted key
// order, chained to its right sibling via next_leaf for range scans.
type LeafPage struct {
	node
}

func CastPageAsLeafPage(p *page.Page) *LeafPage {
	if p == nil {
		return nil
	}
	return (*LeafPage)(unsafe.Pointer(p))
}

func (lp *LeafPage) Init(pageID, parentID types.PageID, keySize, maxSize uint32) {
	lp.setPageType(LeafPageType)
	lp.setPageID(pageID)
	lp.SetParentPageID(parentID)
	lp.setKeySize(keySize)
	lp.SetMaxSize(maxSize)
	lp.SetSize(0)
	lp.SetNextPageID(types.InvalidPageID)
}

func (lp *LeafPage) GetNextPageID() types.PageID {
	return types.NewPageIDFromBytes(lp.Data()[offsetNextLeaf:])
}

func (lp *LeafPage) SetNextPageID(pid types.PageID) {
	lp.Copy(offsetNextLeaf, pid.Serialize())
}

func (lp *LeafPage) entryOffset(i uint32) uint32 {
	return LeafHeaderSize + i*(lp.GetKeySize()+leafValueSize)
}

func (lp *LeafPage) KeyAt(i uint32) Key {
	off := lp.entryOffset(i)
	buf := make(Key, lp.GetKeySize())
	copy(buf, lp.Data()[off:off+lp.GetKeySize()])
	return buf
}

func (lp *LeafPage) SetKeyAt(i uint32, key Key) {
	lp.Copy(lp.entryOffset(i), key)
}

func (lp *LeafPage) ValueAt(i uint32) *page.RID {
	off := lp.entryOffset(i) + lp.GetKeySize()
	pid := types.NewPageIDFromBytes(lp.Data()[off:])
	slot := types.NewUInt32FromBytes(lp.Data()[off+4:])
	return page.NewRID(pid, uint32(slot))
}

func (lp *LeafPage) SetValueAt(i uint32, rid *page.RID) {
	off := lp.entryOffset(i) + lp.GetKeySize()
	lp.Copy(off, rid.GetPageId().Serialize())
	lp.Copy(off+4, types.UInt32(rid.GetSlotNum()).Serialize())
}

func (lp *LeafPage) setEntry(i uint32, key Key, rid *page.RID) {
	lp.SetKeyAt(i, key)
	lp.SetValueAt(i, rid)
}

// KeyIndex returns the first slot whose key is >= probe (lower_bound).
func (lp *LeafPage) KeyIndex(probe Key, cmp Comparator) uint32 {
	size := int(lp.GetSize())
	lo, hi := 0, size
	for lo < hi {
		mid := (lo + hi) / 2
		if cmp(lp.KeyAt(uint32(mid)), probe) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return uint32(lo)
}

// Lookup returns the RID stored for an exact key match, or nil.
func (lp *LeafPage) Lookup(probe Key, cmp Comparator) *page.RID {
	idx := lp.KeyIndex(probe, cmp)
	if idx >= lp.GetSize() {
		return nil
	}
	if cmp(lp.KeyAt(idx), probe) != 0 {
		return nil
	}
	return lp.ValueAt(idx)
}

// Insert places (key, rid) in sorted order. Returns false without
// mutating the page if key is already present.
func (lp *LeafPage) Insert(key Key, rid *page.RID, cmp Comparator) (uint32, bool) {
	idx := lp.KeyIndex(key, cmp)
	if idx < lp.GetSize() && cmp(lp.KeyAt(idx), key) == 0 {
		return lp.GetSize(), false
	}
	size := lp.GetSize()
	for i := size; i > idx; i-- {
		lp.setEntry(i, lp.KeyAt(i-1), lp.ValueAt(i-1))
	}
	lp.setEntry(idx, key, rid)
	lp.SetSize(size + 1)
	return size + 1, true
}

// RemoveAndDeleteRecord deletes the entry matching key, if present, and
// reports the resulting size.
func (lp *LeafPage) RemoveAndDeleteRecord(key Key, cmp Comparator) uint32 {
	idx := lp.KeyIndex(key, cmp)
	size := lp.GetSize()
	if idx >= size || cmp(lp.KeyAt(idx), key) != 0 {
		return size
	}
	for i := idx; i < size-1; i++ {
		lp.setEntry(i, lp.KeyAt(i+1), lp.ValueAt(i+1))
	}
	lp.SetSize(size - 1)
	return size - 1
}

// MoveHalfTo moves the upper half of entries to recipient, the newly
// allocated right sibling of a leaf split, and relinks next_leaf.
func (lp *LeafPage) MoveHalfTo(recipient *LeafPage) {
	total := lp.GetSize()
	splitAt := total / 2
	for i := splitAt; i < total; i++ {
		recipient.setEntry(i-splitAt, lp.KeyAt(i), lp.ValueAt(i))
	}
	recipient.SetSize(total - splitAt)
	lp.SetSize(splitAt)

	recipient.SetNextPageID(lp.GetNextPageID())
	lp.SetNextPageID(recipient.GetPageID())
}

// MoveAllTo appends every entry of lp onto the end of recipient during a
// coalesce, and splices lp out of the leaf chain. lp is left empty.
func (lp *LeafPage) MoveAllTo(recipient *LeafPage) {
	base := recipient.GetSize()
	for i := uint32(0); i < lp.GetSize(); i++ {
		recipient.setEntry(base+i, lp.KeyAt(i), lp.ValueAt(i))
	}
	recipient.SetSize(base + lp.GetSize())
	recipient.SetNextPageID(lp.GetNextPageID())
	lp.SetSize(0)
}

// MoveFirstToEndOf moves lp's first entry onto the end of recipient, its
// left sibling, during a redistribute.
func (lp *LeafPage) MoveFirstToEndOf(recipient *LeafPage) {
	recipient.setEntry(recipient.GetSize(), lp.KeyAt(0), lp.ValueAt(0))
	recipient.SetSize(recipient.GetSize() + 1)

	size := lp.GetSize()
	for i := uint32(0); i < size-1; i++ {
		lp.setEntry(i, lp.KeyAt(i+1), lp.ValueAt(i+1))
	}
	lp.SetSize(size - 1)
}

// MoveLastToFrontOf moves lp's last entry onto the front of recipient,
// its right sibling, during a redistribute.
func (lp *LeafPage) MoveLastToFrontOf(recipient *LeafPage) {
	lastIdx := lp.GetSize() - 1
	key := lp.KeyAt(lastIdx)
	val := lp.ValueAt(lastIdx)
	lp.SetSize(lastIdx)

	for i := recipient.GetSize(); i > 0; i-- {
		recipient.setEntry(i, recipient.KeyAt(i-1), recipient.ValueAt(i-1))
	}
	recipient.setEntry(0, key, val)
	recipient.SetSize(recipient.GetSize() + 1)
}
