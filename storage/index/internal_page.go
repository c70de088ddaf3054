package index

import (
	"unsafe"

	"github.com/ryogrid/minisql/storage/page"
	"github.com/ryogrid/minisql/types"
)

const internalValueSize = uint32(4) // child page id

// InternalPage routes a key toward the child subtree that may contain
// it. Entry i pairs KeyAt(i) with ValueAt(i); KeyAt(0) is never read —
// value_at(0) is "everything less than key_at(1)".
type InternalPage struct {
	node
}

func CastPageAsInternalPage(p *page.Page) *InternalPage {
	if p == nil {
		return nil
	}
	return (*InternalPage)(unsafe.Pointer(p))
}

func (ip *InternalPage) Init(pageID, parentID types.PageID, keySize, maxSize uint32) {
	ip.setPageType(InternalPageType)
	ip.setPageID(pageID)
	ip.SetParentPageID(parentID)
	ip.setKeySize(keySize)
	ip.SetMaxSize(maxSize)
	ip.SetSize(0)
}

func (ip *InternalPage) entryOffset(i uint32) uint32 {
	return NodeHeaderSize + i*(ip.GetKeySize()+internalValueSize)
}

func (ip *InternalPage) KeyAt(i uint32) Key {
	off := ip.entryOffset(i)
	buf := make(Key, ip.GetKeySize())
	copy(buf, ip.Data()[off:off+ip.GetKeySize()])
	return buf
}

func (ip *InternalPage) SetKeyAt(i uint32, key Key) {
	ip.Copy(ip.entryOffset(i), key)
}

func (ip *InternalPage) ValueAt(i uint32) types.PageID {
	off := ip.entryOffset(i) + ip.GetKeySize()
	return types.NewPageIDFromBytes(ip.Data()[off:])
}

func (ip *InternalPage) SetValueAt(i uint32, v types.PageID) {
	off := ip.entryOffset(i) + ip.GetKeySize()
	ip.Copy(off, v.Serialize())
}

func (ip *InternalPage) setEntry(i uint32, key Key, v types.PageID) {
	ip.SetKeyAt(i, key)
	ip.SetValueAt(i, v)
}

// ValueIndex returns the slot holding v, or -1.
func (ip *InternalPage) ValueIndex(v types.PageID) int {
	size := int(ip.GetSize())
	for i := 0; i < size; i++ {
		if ip.ValueAt(uint32(i)) == v {
			return i
		}
	}
	return -1
}

// Lookup descends toward the child that may hold probe, using the
// separator-after rule: binary search keys 1..size-1, and once
// key_at(mid) compares greater than probe, everything from mid onward
// routes right.
func (ip *InternalPage) Lookup(probe Key, cmp Comparator) types.PageID {
	size := int(ip.GetSize())
	lo, hi := 1, size-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if cmp(ip.KeyAt(uint32(mid)), probe) <= 0 {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return ip.ValueAt(uint32(hi))
}

// PopulateNewRoot initializes a brand-new root holding {oldValue, key,
// newValue} after the previous root split.
func (ip *InternalPage) PopulateNewRoot(oldValue types.PageID, key Key, newValue types.PageID) {
	ip.SetValueAt(0, oldValue)
	ip.setEntry(1, key, newValue)
	ip.SetSize(2)
}

// InsertNodeAfter inserts {key, newValue} immediately after the entry
// holding oldValue, shifting later entries right.
func (ip *InternalPage) InsertNodeAfter(oldValue types.PageID, key Key, newValue types.PageID) uint32 {
	idx := ip.ValueIndex(oldValue)
	size := ip.GetSize()
	for i := int(size); i > idx+1; i-- {
		ip.setEntry(uint32(i), ip.KeyAt(uint32(i-1)), ip.ValueAt(uint32(i-1)))
	}
	ip.setEntry(uint32(idx+1), key, newValue)
	ip.SetSize(size + 1)
	return size + 1
}

// MoveHalfTo moves this node's upper half of entries to recipient, the
// newly-allocated right sibling of a split.
func (ip *InternalPage) MoveHalfTo(recipient *InternalPage, bpm pageFetcher) {
	total := ip.GetSize()
	splitAt := total / 2
	for i := splitAt; i < total; i++ {
		recipient.setEntry(i-splitAt, ip.KeyAt(i), ip.ValueAt(i))
	}
	recipient.SetSize(total - splitAt)
	ip.SetSize(splitAt)
	recipient.reparentChildren(bpm)
}

// MoveAllTo appends every entry from ip onto the end of recipient,
// folding in middleKey as the separator between them (used during
// coalesce). ip is left empty.
func (ip *InternalPage) MoveAllTo(recipient *InternalPage, middleKey Key, bpm pageFetcher) {
	base := recipient.GetSize()
	recipient.setEntry(base, middleKey, ip.ValueAt(0))
	for i := uint32(1); i < ip.GetSize(); i++ {
		recipient.setEntry(base+i, ip.KeyAt(i), ip.ValueAt(i))
	}
	recipient.SetSize(base + ip.GetSize())
	ip.SetSize(0)
	recipient.reparentChildren(bpm)
}

// MoveFirstToEndOf moves ip's first entry onto the end of recipient, its
// left sibling, during a redistribute; middleKey becomes the separator
// that used to point at ip's now-shifted first child.
func (ip *InternalPage) MoveFirstToEndOf(recipient *InternalPage, middleKey Key, bpm pageFetcher) {
	recipient.setEntry(recipient.GetSize(), middleKey, ip.ValueAt(0))
	recipient.SetSize(recipient.GetSize() + 1)

	size := ip.GetSize()
	for i := uint32(0); i < size-1; i++ {
		ip.setEntry(i, ip.KeyAt(i+1), ip.ValueAt(i+1))
	}
	ip.SetSize(size - 1)
	recipient.reparentLastChild(bpm)
}

// MoveLastToFrontOf moves ip's last entry onto the front of recipient, its
// right sibling, during a redistribute. middleKey becomes the separator
// in front of recipient's old first child, and the moved key is left in
// recipient's KeyAt(0) for the caller to install in the parent.
func (ip *InternalPage) MoveLastToFrontOf(recipient *InternalPage, middleKey Key, bpm pageFetcher) {
	lastIdx := ip.GetSize() - 1
	movedKey := ip.KeyAt(lastIdx)
	movedValue := ip.ValueAt(lastIdx)
	ip.SetSize(lastIdx)

	for i := recipient.GetSize(); i > 0; i-- {
		recipient.setEntry(i, recipient.KeyAt(i-1), recipient.ValueAt(i-1))
	}
	recipient.SetKeyAt(1, middleKey)
	recipient.setEntry(0, movedKey, movedValue)
	recipient.SetSize(recipient.GetSize() + 1)
	recipient.reparentFirstChild(bpm)
}

// Remove deletes the entry at idx, shifting later entries left.
func (ip *InternalPage) Remove(idx uint32) {
	size := ip.GetSize()
	for i := idx; i < size-1; i++ {
		ip.setEntry(i, ip.KeyAt(i+1), ip.ValueAt(i+1))
	}
	ip.SetSize(size - 1)
}

// RemoveAndReturnOnlyChild empties a one-entry root, returning its sole
// child so adjust_root can promote it.
func (ip *InternalPage) RemoveAndReturnOnlyChild() types.PageID {
	child := ip.ValueAt(0)
	ip.SetSize(0)
	return child
}

type pageFetcher interface {
	FetchPage(types.PageID) *page.Page
	UnpinPage(types.PageID, bool) error
}

func (ip *InternalPage) reparentChildren(bpm pageFetcher) {
	for i := uint32(0); i < ip.GetSize(); i++ {
		reparentAt(bpm, ip.ValueAt(i), ip.GetPageID())
	}
}

func (ip *InternalPage) reparentLastChild(bpm pageFetcher) {
	reparentAt(bpm, ip.ValueAt(ip.GetSize()-1), ip.GetPageID())
}

func (ip *InternalPage) reparentFirstChild(bpm pageFetcher) {
	reparentAt(bpm, ip.ValueAt(0), ip.GetPageID())
}

func reparentAt(bpm pageFetcher, childID types.PageID, parentID types.PageID) {
	child := CastPageAsNode(bpm.FetchPage(childID))
	child.SetParentPageID(parentID)
	bpm.UnpinPage(childID, true)
}

// CastPageAsNode reinterprets a page as the shared node header, enough
// to read/set the parent pointer regardless of leaf/internal kind.
func CastPageAsNode(p *page.Page) *node {
	if p == nil {
		return nil
	}
	return (*node)(unsafe.Pointer(p))
}
