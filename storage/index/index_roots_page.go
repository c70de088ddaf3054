package index

import (
	"unsafe"

	"github.com/ryogrid/minisql/common"
	"github.com/ryogrid/minisql/storage/page"
	"github.com/ryogrid/minisql/types"
)

// maxIndexRoots bounds how many (index_id -> root_page_id) mappings fit
// in the single dedicated index-roots page shared by every index in the
// database, at common.IndexRootsPageID.
const maxIndexRoots = (common.PageSize - 4) / 8

// IndexRootsPage is a fixed-format page mapping index id to its current
// B+ tree root page id. There is exactly one, allocated once at
// common.IndexRootsPageID.
type IndexRootsPage struct {
	page.Page
}

func CastPageAsIndexRootsPage(p *page.Page) *IndexRootsPage {
	return (*IndexRootsPage)(unsafe.Pointer(p))
}

func (rp *IndexRootsPage) Init() {
	rp.SetCount(0)
}

func (rp *IndexRootsPage) GetCount() uint32 {
	return uint32(types.NewUInt32FromBytes(rp.Data()[0:]))
}

func (rp *IndexRootsPage) SetCount(n uint32) {
	rp.Copy(0, types.UInt32(n).Serialize())
}

func (rp *IndexRootsPage) entryOffset(i uint32) uint32 {
	return 4 + i*8
}

// GetRootID returns the current root page id for indexID, or
// types.InvalidPageID if no mapping exists.
func (rp *IndexRootsPage) GetRootID(indexID uint32) types.PageID {
	count := rp.GetCount()
	for i := uint32(0); i < count; i++ {
		off := rp.entryOffset(i)
		id := uint32(types.NewUInt32FromBytes(rp.Data()[off:]))
		if id == indexID {
			return types.NewPageIDFromBytes(rp.Data()[off+4:])
		}
	}
	return types.InvalidPageID
}

// SetRootID inserts or updates the root page id mapped to indexID.
func (rp *IndexRootsPage) SetRootID(indexID uint32, rootPageID types.PageID) {
	count := rp.GetCount()
	for i := uint32(0); i < count; i++ {
		off := rp.entryOffset(i)
		id := uint32(types.NewUInt32FromBytes(rp.Data()[off:]))
		if id == indexID {
			rp.Copy(off+4, rootPageID.Serialize())
			return
		}
	}
	common.SHAssertf(count < maxIndexRoots, "index roots page full at %d entries", count)
	off := rp.entryOffset(count)
	rp.Copy(off, types.UInt32(indexID).Serialize())
	rp.Copy(off+4, rootPageID.Serialize())
	rp.SetCount(count + 1)
}

// DeleteRootID removes indexID's mapping, if present.
func (rp *IndexRootsPage) DeleteRootID(indexID uint32) {
	count := rp.GetCount()
	for i := uint32(0); i < count; i++ {
		off := rp.entryOffset(i)
		id := uint32(types.NewUInt32FromBytes(rp.Data()[off:]))
		if id != indexID {
			continue
		}
		for j := i; j < count-1; j++ {
			srcOff := rp.entryOffset(j + 1)
			dstOff := rp.entryOffset(j)
			rp.Copy(dstOff, rp.Data()[srcOff:srcOff+8])
		}
		rp.SetCount(count - 1)
		return
	}
}
