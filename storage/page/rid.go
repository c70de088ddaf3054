package page

import (
	"strconv"

	"github.com/ryogrid/minisql/types"
)

// RID is the record identifier for the given page identifier and slot number
type RID struct {
	pageId  types.PageID
	slotNum uint32
}

func NewRID(pageId types.PageID, slot uint32) *RID {
	return &RID{pageId: pageId, slotNum: slot}
}

// Set sets the recod identifier
func (r *RID) Set(pageId types.PageID, slot uint32) {
	r.pageId = pageId
	r.slotNum = slot
}

// GetPageId gets the page id
func (r *RID) GetPageId() types.PageID {
	return r.pageId
}

// GetSlot gets the slot number
func (r *RID) GetSlot() uint32 {
	return r.slotNum
}

// GetSlotNum is an alias for GetSlot, matching the table-page/heap
// layer's naming for the same field.
func (r *RID) GetSlotNum() uint32 {
	return r.slotNum
}

// String renders the rid as "pageId:slot", the key the recovery log
// uses to identify a physically-logged row.
func (r *RID) String() string {
	return strconv.Itoa(int(r.pageId)) + ":" + strconv.Itoa(int(r.slotNum))
}
