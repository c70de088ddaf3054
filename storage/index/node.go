package index

import (
	"github.com/ryogrid/minisql/storage/page"
	"github.com/ryogrid/minisql/types"
)

// PageType distinguishes an internal node from a leaf, stored as the
// first header word of every B+ tree page per the on-disk node layout.
type PageType uint32

const (
	InvalidPage PageType = iota
	InternalPageType
	LeafPageType
)

// Node header layout, common to internal and leaf pages:
//
//	{page_type u32, LSN u32, size u32, max_size u32, parent u32, pid u32, key_size u32}
//
// followed by packed (key, value) entries; leaf pages append a
// next_leaf u32 after the header.
const (
	offsetPageType = uint32(0)
	offsetLSN      = uint32(4)
	offsetSize     = uint32(8)
	offsetMaxSize  = uint32(12)
	offsetParent   = uint32(16)
	offsetPID      = uint32(20)
	offsetKeySize  = uint32(24)
	NodeHeaderSize = uint32(28)
)

// node is embedded by InternalPage and LeafPage; it owns every header
// field both share.
type node struct {
	page.Page
}

func (n *node) GetPageType() PageType {
	return PageType(types.NewUInt32FromBytes(n.Data()[offsetPageType:]))
}

func (n *node) setPageType(t PageType) {
	n.Copy(offsetPageType, types.UInt32(t).Serialize())
}

func (n *node) IsLeaf() bool { return n.GetPageType() == LeafPageType }

func (n *node) GetSize() uint32 {
	return uint32(types.NewUInt32FromBytes(n.Data()[offsetSize:]))
}

func (n *node) SetSize(size uint32) {
	n.Copy(offsetSize, types.UInt32(size).Serialize())
}

func (n *node) IncreaseSize(delta int) {
	n.SetSize(uint32(int(n.GetSize()) + delta))
}

func (n *node) GetMaxSize() uint32 {
	return uint32(types.NewUInt32FromBytes(n.Data()[offsetMaxSize:]))
}

func (n *node) SetMaxSize(maxSize uint32) {
	n.Copy(offsetMaxSize, types.UInt32(maxSize).Serialize())
}

// MinSize is ceil(max/2), the smallest size a non-root node may fall to
// before it must redistribute or coalesce.
func (n *node) MinSize() uint32 {
	return (n.GetMaxSize() + 1) / 2
}

func (n *node) GetParentPageID() types.PageID {
	return types.NewPageIDFromBytes(n.Data()[offsetParent:])
}

func (n *node) SetParentPageID(pid types.PageID) {
	n.Copy(offsetParent, pid.Serialize())
}

func (n *node) GetPageID() types.PageID {
	return types.NewPageIDFromBytes(n.Data()[offsetPID:])
}

func (n *node) setPageID(pid types.PageID) {
	n.Copy(offsetPID, pid.Serialize())
}

func (n *node) GetKeySize() uint32 {
	return uint32(types.NewUInt32FromBytes(n.Data()[offsetKeySize:]))
}

func (n *node) setKeySize(size uint32) {
	n.Copy(offsetKeySize, types.UInt32(size).Serialize())
}

func (n *node) IsRoot() bool {
	return n.GetParentPageID() == types.InvalidPageID
}
