package index

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/golang-collections/collections/queue"
	"github.com/golang-collections/collections/stack"
	"go.uber.org/zap"

	"github.com/ryogrid/minisql/common"
	"github.com/ryogrid/minisql/storage/buffer"
	"github.com/ryogrid/minisql/storage/page"
	"github.com/ryogrid/minisql/types"
)

// BPlusTree is a disk-paged B+ tree index over one key schema. Its root
// page id lives in the shared index-roots page (common.IndexRootsPageID)
// keyed by indexID, so an empty tree allocates its root lazily on the
// first insert.
type BPlusTree struct {
	bpm         *buffer.BufferPoolManager
	indexID     uint32
	keySize     uint32
	comparator  Comparator
	leafMax     uint32
	internalMax uint32
}

// order returns the max entry count a page of headerSize holding entries
// of (keySize + valueSize) bytes each can pack, per
// (PAGE_SIZE - header) / (key_size + child_size) - 1.
func order(headerSize, keySize, valueSize uint32) uint32 {
	fit := (common.PageSize - headerSize) / (keySize + valueSize)
	if fit == 0 {
		return 0
	}
	return fit - 1
}

func NewBPlusTree(bpm *buffer.BufferPoolManager, indexID uint32, keySize uint32, comparator Comparator) *BPlusTree {
	return &BPlusTree{
		bpm:         bpm,
		indexID:     indexID,
		keySize:     keySize,
		comparator:  comparator,
		leafMax:     order(LeafHeaderSize, keySize, leafValueSize),
		internalMax: order(NodeHeaderSize, keySize, internalValueSize),
	}
}

func (t *BPlusTree) rootsPage() *IndexRootsPage {
	return CastPageAsIndexRootsPage(t.bpm.FetchPage(types.PageID(common.IndexRootsPageID)))
}

func (t *BPlusTree) getRootID() types.PageID {
	rp := t.rootsPage()
	id := rp.GetRootID(t.indexID)
	t.bpm.UnpinPage(types.PageID(common.IndexRootsPageID), false)
	return id
}

func (t *BPlusTree) setRootID(pageID types.PageID) {
	rp := t.rootsPage()
	rp.SetRootID(t.indexID, pageID)
	t.bpm.UnpinPage(types.PageID(common.IndexRootsPageID), true)
}

// IsEmpty reports whether this index has no root page yet.
func (t *BPlusTree) IsEmpty() bool {
	return !t.getRootID().IsValid()
}

// Destroy deletes every page belonging to this tree and removes its
// entry from the shared index-roots page, reclaiming the pages a
// dropped index would otherwise leak permanently. It walks the tree
// collecting page ids onto a stack before deleting any of them, so a
// page is never fetched again after one of its siblings has already
// been freed.
func (t *BPlusTree) Destroy() {
	rootID := t.getRootID()
	if rootID.IsValid() {
		pages := stack.New()
		toVisit := stack.New()
		toVisit.Push(rootID)
		for toVisit.Len() > 0 {
			pageID := toVisit.Pop().(types.PageID)
			n := CastPageAsNode(t.bpm.FetchPage(pageID))
			if !n.IsLeaf() {
				internal := (*InternalPage)(unsafe.Pointer(n))
				for i := uint32(0); i < internal.GetSize(); i++ {
					toVisit.Push(internal.ValueAt(i))
				}
			}
			t.bpm.UnpinPage(pageID, false)
			pages.Push(pageID)
		}
		for pages.Len() > 0 {
			t.bpm.DeletePage(pages.Pop().(types.PageID))
		}
	}

	rp := t.rootsPage()
	rp.DeleteRootID(t.indexID)
	t.bpm.UnpinPage(types.PageID(common.IndexRootsPageID), true)
}

// GetValue descends from the root to the leaf that may hold key and
// returns its RID, or nil if key is absent.
func (t *BPlusTree) GetValue(key Key) *page.RID {
	if t.IsEmpty() {
		return nil
	}
	leaf, leafID := t.findLeaf(key, false)
	defer t.bpm.UnpinPage(leafID, false)
	return leaf.Lookup(key, t.comparator)
}

// findLeaf descends from the root to the leaf that may hold key. It takes
// no page latches (crabbing is not implemented): each internal node is
// unpinned as the descent leaves it, and the leaf is returned pinned.
func (t *BPlusTree) findLeaf(key Key, forUpdate bool) (*LeafPage, types.PageID) {
	pageID := t.getRootID()
	n := CastPageAsNode(t.bpm.FetchPage(pageID))
	for !n.IsLeaf() {
		ip := (*InternalPage)(unsafe.Pointer(n))
		childID := ip.Lookup(key, t.comparator)
		t.bpm.UnpinPage(pageID, false)
		pageID = childID
		n = CastPageAsNode(t.bpm.FetchPage(pageID))
	}
	return (*LeafPage)(unsafe.Pointer(n)), pageID
}

// Insert places (key, rid). Returns false, leaving the tree unchanged, if
// key is already present.
func (t *BPlusTree) Insert(key Key, rid *page.RID) bool {
	if t.IsEmpty() {
		return t.startNewTree(key, rid)
	}
	leaf, leafID := t.findLeaf(key, true)
	leaf.WLatch()
	_, ok := leaf.Insert(key, rid, t.comparator)
	if !ok {
		leaf.WUnlatch()
		t.bpm.UnpinPage(leafID, false)
		return false
	}
	if leaf.GetSize() > t.leafMax {
		sibling, siblingID := t.newLeaf(leaf.GetParentPageID())
		leaf.MoveHalfTo(sibling)
		sepKey := sibling.KeyAt(0)
		leaf.WUnlatch()
		t.bpm.UnpinPage(leafID, true)
		t.bpm.UnpinPage(siblingID, true)
		common.ShTrace(common.OpTrace, "leaf split", zap.Uint32("index_id", t.indexID), zap.Int32("leaf_id", int32(leafID)), zap.Int32("new_sibling_id", int32(siblingID)))
		t.insertIntoParent(leafID, sepKey, siblingID)
		return true
	}
	leaf.WUnlatch()
	t.bpm.UnpinPage(leafID, true)
	return true
}

func (t *BPlusTree) startNewTree(key Key, rid *page.RID) bool {
	leaf, leafID := t.newLeaf(types.InvalidPageID)
	leaf.Insert(key, rid, t.comparator)
	t.bpm.UnpinPage(leafID, true)
	t.setRootID(leafID)
	return true
}

func (t *BPlusTree) newLeaf(parentID types.PageID) (*LeafPage, types.PageID) {
	p := t.bpm.NewPage()
	leaf := CastPageAsLeafPage(p)
	leaf.Init(p.ID(), parentID, t.keySize, t.leafMax)
	return leaf, p.ID()
}

func (t *BPlusTree) newInternal(parentID types.PageID) (*InternalPage, types.PageID) {
	p := t.bpm.NewPage()
	ip := CastPageAsInternalPage(p)
	ip.Init(p.ID(), parentID, t.keySize, t.internalMax)
	return ip, p.ID()
}

// insertIntoParent installs {sepKey -> newID} after oldID in oldID's
// parent, splitting that parent (recursively, up to a new root) if it
// overflows.
func (t *BPlusTree) insertIntoParent(oldID types.PageID, sepKey Key, newID types.PageID) {
	oldNode := CastPageAsNode(t.bpm.FetchPage(oldID))
	parentID := oldNode.GetParentPageID()
	t.bpm.UnpinPage(oldID, false)

	if !parentID.IsValid() {
		root, rootID := t.newInternal(types.InvalidPageID)
		root.PopulateNewRoot(oldID, sepKey, newID)
		t.reparent(oldID, rootID)
		t.reparent(newID, rootID)
		t.bpm.UnpinPage(rootID, true)
		t.setRootID(rootID)
		common.ShTrace(common.OpTrace, "new root created", zap.Uint32("index_id", t.indexID), zap.Int32("root_id", int32(rootID)))
		return
	}

	parent := CastPageAsInternalPage(t.bpm.FetchPage(parentID))
	t.reparent(newID, parentID)
	parent.InsertNodeAfter(oldID, sepKey, newID)

	if parent.GetSize() > t.internalMax {
		sibling, siblingID := t.newInternal(parent.GetParentPageID())
		midKey := parent.KeyAt(parent.GetSize() / 2)
		parent.MoveHalfTo(sibling, t.bpm)
		t.bpm.UnpinPage(parentID, true)
		t.bpm.UnpinPage(siblingID, true)
		common.ShTrace(common.OpTrace, "internal node split", zap.Uint32("index_id", t.indexID), zap.Int32("node_id", int32(parentID)), zap.Int32("new_sibling_id", int32(siblingID)))
		t.insertIntoParent(parentID, midKey, siblingID)
		return
	}
	t.bpm.UnpinPage(parentID, true)
}

func (t *BPlusTree) reparent(childID, parentID types.PageID) {
	child := CastPageAsNode(t.bpm.FetchPage(childID))
	child.SetParentPageID(parentID)
	t.bpm.UnpinPage(childID, true)
}

// Remove deletes key's entry, if present, and rebalances the affected
// leaf and its ancestors.
func (t *BPlusTree) Remove(key Key) bool {
	if t.IsEmpty() {
		return false
	}
	leaf, leafID := t.findLeaf(key, true)
	if leaf.Lookup(key, t.comparator) == nil {
		t.bpm.UnpinPage(leafID, false)
		return false
	}
	leaf.RemoveAndDeleteRecord(key, t.comparator)
	t.coalesceOrRedistributeLeaf(leaf, leafID)
	return true
}

func (t *BPlusTree) coalesceOrRedistributeLeaf(leaf *LeafPage, leafID types.PageID) {
	if leaf.IsRoot() {
		t.adjustRootLeaf(leaf, leafID)
		return
	}
	if leaf.GetSize() >= leaf.MinSize() {
		t.bpm.UnpinPage(leafID, true)
		return
	}

	parentID := leaf.GetParentPageID()
	parent := CastPageAsInternalPage(t.bpm.FetchPage(parentID))
	idx := parent.ValueIndex(leafID)

	var siblingID types.PageID
	var sibling *LeafPage
	leftOfSibling := false
	if idx > 0 {
		siblingID = parent.ValueAt(uint32(idx - 1))
		sibling = CastPageAsLeafPage(t.bpm.FetchPage(siblingID))
		leftOfSibling = true
	} else {
		siblingID = parent.ValueAt(uint32(idx + 1))
		sibling = CastPageAsLeafPage(t.bpm.FetchPage(siblingID))
	}

	if sibling.GetSize()+leaf.GetSize() > t.leafMax {
		if leftOfSibling {
			sibling.MoveLastToFrontOf(leaf)
			parent.SetKeyAt(uint32(idx), leaf.KeyAt(0))
		} else {
			sibling.MoveFirstToEndOf(leaf)
			parent.SetKeyAt(uint32(idx+1), sibling.KeyAt(0))
		}
		t.bpm.UnpinPage(leafID, true)
		t.bpm.UnpinPage(siblingID, true)
		t.bpm.UnpinPage(parentID, true)
		common.ShTrace(common.OpTrace, "leaf redistributed", zap.Uint32("index_id", t.indexID), zap.Int32("leaf_id", int32(leafID)), zap.Int32("sibling_id", int32(siblingID)))
		return
	}

	// coalesce: fold the right-hand node of the pair into the left one.
	if leftOfSibling {
		leaf.MoveAllTo(sibling)
		t.bpm.UnpinPage(leafID, true)
		t.bpm.UnpinPage(siblingID, true)
		parent.Remove(uint32(idx))
		_ = t.bpm.DeletePage(leafID)
	} else {
		sibling.MoveAllTo(leaf)
		t.bpm.UnpinPage(leafID, true)
		t.bpm.UnpinPage(siblingID, true)
		parent.Remove(uint32(idx + 1))
		_ = t.bpm.DeletePage(siblingID)
	}
	common.ShTrace(common.OpTrace, "leaf coalesced", zap.Uint32("index_id", t.indexID), zap.Int32("leaf_id", int32(leafID)), zap.Int32("sibling_id", int32(siblingID)))
	t.coalesceOrRedistributeInternal(parent, parentID)
}

func (t *BPlusTree) coalesceOrRedistributeInternal(node *InternalPage, nodeID types.PageID) {
	if node.IsRoot() {
		t.adjustRootInternal(node, nodeID)
		return
	}
	if node.GetSize() >= node.MinSize() {
		t.bpm.UnpinPage(nodeID, true)
		return
	}

	parentID := node.GetParentPageID()
	parent := CastPageAsInternalPage(t.bpm.FetchPage(parentID))
	idx := parent.ValueIndex(nodeID)

	var siblingID types.PageID
	var sibling *InternalPage
	leftOfSibling := false
	if idx > 0 {
		siblingID = parent.ValueAt(uint32(idx - 1))
		sibling = CastPageAsInternalPage(t.bpm.FetchPage(siblingID))
		leftOfSibling = true
	} else {
		siblingID = parent.ValueAt(uint32(idx + 1))
		sibling = CastPageAsInternalPage(t.bpm.FetchPage(siblingID))
	}

	if sibling.GetSize()+node.GetSize() > t.internalMax {
		if leftOfSibling {
			sepKey := parent.KeyAt(uint32(idx))
			sibling.MoveLastToFrontOf(node, sepKey, t.bpm)
			parent.SetKeyAt(uint32(idx), node.KeyAt(0))
		} else {
			sepKey := parent.KeyAt(uint32(idx + 1))
			sibling.MoveFirstToEndOf(node, sepKey, t.bpm)
			parent.SetKeyAt(uint32(idx+1), sibling.KeyAt(0))
		}
		t.bpm.UnpinPage(nodeID, true)
		t.bpm.UnpinPage(siblingID, true)
		t.bpm.UnpinPage(parentID, true)
		common.ShTrace(common.OpTrace, "internal node redistributed", zap.Uint32("index_id", t.indexID), zap.Int32("node_id", int32(nodeID)), zap.Int32("sibling_id", int32(siblingID)))
		return
	}

	if leftOfSibling {
		sepKey := parent.KeyAt(uint32(idx))
		node.MoveAllTo(sibling, sepKey, t.bpm)
		t.bpm.UnpinPage(nodeID, true)
		t.bpm.UnpinPage(siblingID, true)
		parent.Remove(uint32(idx))
		_ = t.bpm.DeletePage(nodeID)
	} else {
		sepKey := parent.KeyAt(uint32(idx + 1))
		sibling.MoveAllTo(node, sepKey, t.bpm)
		t.bpm.UnpinPage(nodeID, true)
		t.bpm.UnpinPage(siblingID, true)
		parent.Remove(uint32(idx + 1))
		_ = t.bpm.DeletePage(siblingID)
	}
	common.ShTrace(common.OpTrace, "internal node coalesced", zap.Uint32("index_id", t.indexID), zap.Int32("node_id", int32(nodeID)), zap.Int32("sibling_id", int32(siblingID)))
	t.coalesceOrRedistributeInternal(parent, parentID)
}

func (t *BPlusTree) adjustRootLeaf(leaf *LeafPage, leafID types.PageID) {
	if leaf.GetSize() == 0 {
		t.bpm.UnpinPage(leafID, true)
		_ = t.bpm.DeletePage(leafID)
		t.setRootID(types.InvalidPageID)
		return
	}
	t.bpm.UnpinPage(leafID, true)
}

func (t *BPlusTree) adjustRootInternal(node *InternalPage, nodeID types.PageID) {
	if node.GetSize() == 1 {
		onlyChild := node.RemoveAndReturnOnlyChild()
		t.bpm.UnpinPage(nodeID, true)
		_ = t.bpm.DeletePage(nodeID)
		t.reparent(onlyChild, types.InvalidPageID)
		t.setRootID(onlyChild)
		return
	}
	t.bpm.UnpinPage(nodeID, true)
}

// String renders the tree level by level, one line per depth, for
// debugging a corrupted or unexpectedly shaped tree in a test failure
// message. It walks with a plain FIFO queue rather than recursion so an
// unbalanced tree still prints breadth-first.
func (t *BPlusTree) String() string {
	rootID := t.getRootID()
	if !rootID.IsValid() {
		return "<empty tree>"
	}

	var sb strings.Builder
	q := queue.New()
	q.Enqueue(rootID)
	levelSize := 1

	for q.Len() > 0 {
		pageID := q.Dequeue().(types.PageID)
		levelSize--
		n := CastPageAsNode(t.bpm.FetchPage(pageID))
		if n.IsLeaf() {
			leaf := (*LeafPage)(unsafe.Pointer(n))
			fmt.Fprintf(&sb, "[leaf pid=%d size=%d] ", pageID, leaf.GetSize())
		} else {
			internal := (*InternalPage)(unsafe.Pointer(n))
			fmt.Fprintf(&sb, "[internal pid=%d size=%d] ", pageID, internal.GetSize())
			for i := uint32(0); i < internal.GetSize(); i++ {
				q.Enqueue(internal.ValueAt(i))
			}
		}
		t.bpm.UnpinPage(pageID, false)

		if levelSize == 0 {
			sb.WriteByte('\n')
			levelSize = q.Len()
		}
	}
	return sb.String()
}
