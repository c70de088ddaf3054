// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package table

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/ryogrid/minisql/common"
	"github.com/ryogrid/minisql/recovery"
	"github.com/ryogrid/minisql/storage/page"
	"github.com/ryogrid/minisql/storage/tuple"
	"github.com/ryogrid/minisql/types"
)

const deleteMask = uint32(1 << 31)

const sizeTablePageHeader = uint32(24)
const sizeSlot = uint32(8)
const offSetPrevPageId = uint32(8)
const offSetNextPageId = uint32(12)
const offsetFreeSpace = uint32(16)
const offSetTupleCount = uint32(20)
const offsetTupleOffset = uint32(24)
const offsetTupleSize = uint32(28)

const ErrEmptyRow = common.Error("row cannot be empty")
const ErrRowTooLarge = common.Error("row is too large for a page")
const ErrNotEnoughSpace = common.Error("there is not enough space")

// UpdateStatus is the result of a slotted-page update, distinguishing an
// in-place rewrite from the caller having to relocate the row itself.
type UpdateStatus int32

const (
	Updated UpdateStatus = iota
	NotEnoughSpace
	SlotInvalid
	AlreadyDeleted
)

// TablePage is a slotted page: a fixed header, a slot directory that
// grows toward the end of the page, and row payloads that grow backward
// from PAGE_SIZE. Every mutation is bracketed by the frame's write
// latch; every read by its read latch, letting a single-threaded engine
// upgrade to a concurrent one without touching the page format.
//
//	---------------------------------------------------------
//	| HEADER | ... FREE SPACE ... | ... INSERTED ROWS ...   |
//	---------------------------------------------------------
//	                              ^
//	                              free space pointer
//	Header format (size in bytes):
//	----------------------------------------------------------------------------
//	| PageId (4)| LSN (4)| PrevPageId (4)| NextPageId (4)| FreeSpacePointer(4) |
//	----------------------------------------------------------------------------
//	----------------------------------------------------------------
//	| SlotCount (4) | Slot_1 offset (4) | Slot_1 size (4) | ...     |
//	----------------------------------------------------------------
type TablePage struct {
	page.Page
}

// CastPageAsTablePage reinterprets a buffer-pool frame's raw bytes as a
// table page. Page and TablePage share layout, so the frame's latch
// carries over untouched.
func CastPageAsTablePage(p *page.Page) *TablePage {
	if p == nil {
		return nil
	}
	return (*TablePage)(unsafe.Pointer(p))
}

// Init lays out an empty page header. prevPageID chains it into the
// heap's page list; the caller links nextPageID separately once it
// knows it.
func (tp *TablePage) Init(pageID types.PageID, prevPageID types.PageID) {
	tp.setPageID(pageID)
	tp.setPrevPageID(prevPageID)
	tp.setNextPageID(types.InvalidPageID)
	tp.setTupleCount(0)
	tp.setFreeSpacePointer(common.PageSize)
}

// InsertTuple serializes row into the first tombstoned slot, or appends
// a new one, and logs an INSERT record keyed by the row's freshly
// assigned rid.
func (tp *TablePage) InsertTuple(row *tuple.Row, txnID types.TxnID, prevLSN types.LSN, logManager *recovery.LogManager) (*page.RID, types.LSN, error) {
	tp.WLatch()
	defer tp.WUnlatch()

	if row.Size() == 0 {
		return nil, prevLSN, ErrEmptyRow
	}
	if row.Size() >= common.SizeMaxRow {
		return nil, prevLSN, ErrRowTooLarge
	}
	if tp.freeSpaceRemaining() < row.Size()+sizeSlot {
		return nil, prevLSN, ErrNotEnoughSpace
	}

	var slot uint32
	for slot = 0; slot < tp.GetTupleCount(); slot++ {
		if tp.GetTupleSize(slot) == 0 {
			break
		}
	}

	rid := page.NewRID(tp.GetTablePageID(), slot)
	row.SetRID(rid)

	tp.setFreeSpacePointer(tp.GetFreeSpacePointer() - row.Size())
	tp.setRow(slot, row)
	if slot == tp.GetTupleCount() {
		tp.setTupleCount(tp.GetTupleCount() + 1)
	}

	newLSN := prevLSN
	if logManager.IsEnabledLogging() {
		record := recovery.NewLogRecordInsert(txnID, prevLSN, rid.String(), row.Data())
		newLSN = logManager.AppendLogRecord(record)
		tp.SetLSN(newLSN)
	}
	return rid, newLSN, nil
}

// UpdateTuple rewrites the row at rid in place when the new size fits
// within the freed-up run, compacting the surrounding rows if needed. It
// fills oldRow with the row's pre-update contents for the caller to log
// or hand back to an aborting transaction.
func (tp *TablePage) UpdateTuple(newRow *tuple.Row, oldRow *tuple.Row, rid *page.RID, txnID types.TxnID, prevLSN types.LSN, logManager *recovery.LogManager) (UpdateStatus, types.LSN) {
	tp.WLatch()
	defer tp.WUnlatch()

	slotNum := rid.GetSlotNum()
	if slotNum >= tp.GetTupleCount() {
		return SlotInvalid, prevLSN
	}
	rowSize := tp.GetTupleSize(slotNum)
	if IsDeleted(rowSize) {
		return AlreadyDeleted, prevLSN
	}

	rowOffset := tp.GetTupleOffsetAtSlot(slotNum)
	oldData := make([]byte, rowSize)
	copy(oldData, tp.Data()[rowOffset:rowOffset+rowSize])
	oldRow.SetSize(rowSize)
	oldRow.SetData(oldData)
	oldRow.SetRID(rid)

	if tp.freeSpaceRemaining()+rowSize < newRow.Size() {
		return NotEnoughSpace, prevLSN
	}

	freeSpacePointer := tp.GetFreeSpacePointer()
	copy(tp.Data()[freeSpacePointer+rowSize-newRow.Size():], tp.Data()[freeSpacePointer:rowOffset])
	tp.setFreeSpacePointer(freeSpacePointer + rowSize - newRow.Size())
	copy(tp.Data()[rowOffset+rowSize-newRow.Size():], newRow.Data()[:newRow.Size()])
	tp.SetTupleSize(slotNum, newRow.Size())

	tupleCount := int(tp.GetTupleCount())
	for i := 0; i < tupleCount; i++ {
		offsetI := tp.GetTupleOffsetAtSlot(uint32(i))
		if tp.GetTupleSize(uint32(i)) > 0 && offsetI < rowOffset+rowSize {
			tp.SetTupleOffsetAtSlot(uint32(i), offsetI+rowSize-newRow.Size())
		}
	}

	newLSN := prevLSN
	if logManager.IsEnabledLogging() {
		record := recovery.NewLogRecordUpdate(txnID, prevLSN, rid.String(), oldData, rid.String(), newRow.Data())
		newLSN = logManager.AppendLogRecord(record)
		tp.SetLSN(newLSN)
	}
	return Updated, newLSN
}

// MarkDelete tombstones the slot's row without reclaiming its space,
// logging a DELETE record so an abort can restore it with
// RollbackDelete. A committed transaction later calls ApplyDelete to
// reclaim the space.
func (tp *TablePage) MarkDelete(rid *page.RID, txnID types.TxnID, prevLSN types.LSN, logManager *recovery.LogManager) (bool, types.LSN) {
	tp.WLatch()
	defer tp.WUnlatch()

	slotNum := rid.GetSlotNum()
	if slotNum >= tp.GetTupleCount() {
		return false, prevLSN
	}
	rowSize := tp.GetTupleSize(slotNum)
	if IsDeleted(rowSize) {
		return false, prevLSN
	}

	newLSN := prevLSN
	if logManager.IsEnabledLogging() {
		rowOffset := tp.GetTupleOffsetAtSlot(slotNum)
		oldData := make([]byte, rowSize)
		copy(oldData, tp.Data()[rowOffset:rowOffset+rowSize])
		record := recovery.NewLogRecordDelete(txnID, prevLSN, rid.String(), oldData)
		newLSN = logManager.AppendLogRecord(record)
		tp.SetLSN(newLSN)
	}

	if rowSize > 0 {
		tp.SetTupleSize(slotNum, SetDeletedFlag(rowSize))
	}
	return true, newLSN
}

// ApplyDelete commits a prior MarkDelete, physically reclaiming the
// slot's space. It is not itself logged: the DELETE record MarkDelete
// already wrote covers the transaction's undo needs.
func (tp *TablePage) ApplyDelete(rid *page.RID) {
	tp.WLatch()
	defer tp.WUnlatch()

	slotNum := rid.GetSlotNum()
	common.SHAssert(slotNum < tp.GetTupleCount(), "cannot apply delete past the slot directory")

	rowOffset := tp.GetTupleOffsetAtSlot(slotNum)
	rowSize := tp.GetTupleSize(slotNum)
	if IsDeleted(rowSize) {
		rowSize = UnsetDeletedFlag(rowSize)
	}

	freeSpacePointer := tp.GetFreeSpacePointer()
	copy(tp.Data()[freeSpacePointer+rowSize:], tp.Data()[freeSpacePointer:rowOffset])
	tp.setFreeSpacePointer(freeSpacePointer + rowSize)
	tp.SetTupleSize(slotNum, 0)
	tp.SetTupleOffsetAtSlot(slotNum, 0)

	tupleCount := int(tp.GetTupleCount())
	for i := 0; i < tupleCount; i++ {
		offsetI := tp.GetTupleOffsetAtSlot(uint32(i))
		if tp.GetTupleSize(uint32(i)) != 0 && offsetI < rowOffset {
			tp.SetTupleOffsetAtSlot(uint32(i), offsetI+rowSize)
		}
	}
}

// RollbackDelete undoes a MarkDelete that has not yet been applied,
// restoring the slot's row to live status.
func (tp *TablePage) RollbackDelete(rid *page.RID) {
	tp.WLatch()
	defer tp.WUnlatch()

	slotNum := rid.GetSlotNum()
	common.SHAssert(slotNum < tp.GetTupleCount(), "cannot rollback delete past the slot directory")

	rowSize := tp.GetTupleSize(slotNum)
	if IsDeleted(rowSize) {
		tp.SetTupleSize(slotNum, UnsetDeletedFlag(rowSize))
	}
}

// GetTuple reads back the row at rid, or nil if the slot is out of
// range or tombstoned.
func (tp *TablePage) GetTuple(rid *page.RID) *tuple.Row {
	tp.RLatch()
	defer tp.RUnlatch()

	slot := rid.GetSlotNum()
	if slot >= tp.GetTupleCount() {
		return nil
	}
	rowOffset := tp.GetTupleOffsetAtSlot(slot)
	rowSize := tp.GetTupleSize(slot)
	if IsDeleted(rowSize) {
		return nil
	}

	data := make([]byte, rowSize)
	copy(data, tp.Data()[rowOffset:])
	return tuple.NewTuple(rid, rowSize, data)
}

// GetTupleFirstRID returns the first live slot's rid, or nil if the page
// is empty or fully tombstoned.
func (tp *TablePage) GetTupleFirstRID() *page.RID {
	tp.RLatch()
	defer tp.RUnlatch()

	count := tp.GetTupleCount()
	for i := uint32(0); i < count; i++ {
		if !IsDeleted(tp.GetTupleSize(i)) {
			return page.NewRID(tp.GetTablePageID(), i)
		}
	}
	return nil
}

// GetNextTupleRID returns the next live slot's rid after curRID, or the
// first live slot if isNextPage is set (used after crossing into a new
// page from the heap iterator).
func (tp *TablePage) GetNextTupleRID(curRID *page.RID, isNextPage bool) *page.RID {
	tp.RLatch()
	defer tp.RUnlatch()

	count := tp.GetTupleCount()
	start := uint32(0)
	if !isNextPage {
		start = curRID.GetSlotNum() + 1
	}
	for i := start; i < count; i++ {
		if !IsDeleted(tp.GetTupleSize(i)) {
			return page.NewRID(tp.GetTablePageID(), i)
		}
	}
	return nil
}

func (tp *TablePage) setPageID(pageID types.PageID)     { tp.Copy(0, pageID.Serialize()) }
func (tp *TablePage) setPrevPageID(pageID types.PageID) { tp.Copy(offSetPrevPageId, pageID.Serialize()) }
func (tp *TablePage) setNextPageID(pageID types.PageID) { tp.Copy(offSetNextPageId, pageID.Serialize()) }

func (tp *TablePage) setFreeSpacePointer(freeSpacePointer uint32) {
	tp.Copy(offsetFreeSpace, types.UInt32(freeSpacePointer).Serialize())
}

func (tp *TablePage) setTupleCount(tupleCount uint32) {
	tp.Copy(offSetTupleCount, types.UInt32(tupleCount).Serialize())
}

func (tp *TablePage) setRow(slot uint32, row *tuple.Row) {
	fsp := tp.GetFreeSpacePointer()
	tp.Copy(fsp, row.Data())
	tp.Copy(offsetTupleOffset+sizeSlot*slot, types.UInt32(fsp).Serialize())
	tp.Copy(offsetTupleSize+sizeSlot*slot, types.UInt32(row.Size()).Serialize())
}

func (tp *TablePage) GetTablePageID() types.PageID {
	return types.NewPageIDFromBytes(tp.Data()[:])
}

func (tp *TablePage) GetPrevPageID() types.PageID {
	return types.NewPageIDFromBytes(tp.Data()[offSetPrevPageId:])
}

func (tp *TablePage) GetNextPageID() types.PageID {
	return types.NewPageIDFromBytes(tp.Data()[offSetNextPageId:])
}

func (tp *TablePage) SetNextPageID(pageID types.PageID) {
	tp.WLatch()
	defer tp.WUnlatch()
	tp.setNextPageID(pageID)
}

func (tp *TablePage) GetTupleCount() uint32 {
	return uint32(types.NewUInt32FromBytes(tp.Data()[offSetTupleCount:]))
}

func (tp *TablePage) GetTupleOffsetAtSlot(slot uint32) uint32 {
	return uint32(types.NewUInt32FromBytes(tp.Data()[offsetTupleOffset+sizeSlot*slot:]))
}

func (tp *TablePage) SetTupleOffsetAtSlot(slot uint32, offset uint32) {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, offset)
	copy(tp.Data()[offsetTupleOffset+sizeSlot*slot:], buf.Bytes())
}

func (tp *TablePage) GetTupleSize(slot uint32) uint32 {
	return uint32(types.NewUInt32FromBytes(tp.Data()[offsetTupleSize+sizeSlot*slot:]))
}

func (tp *TablePage) SetTupleSize(slot uint32, size uint32) {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, size)
	copy(tp.Data()[offsetTupleSize+sizeSlot*slot:], buf.Bytes())
}

func (tp *TablePage) freeSpaceRemaining() uint32 {
	return tp.GetFreeSpacePointer() - sizeTablePageHeader - sizeSlot*tp.GetTupleCount()
}

func (tp *TablePage) GetFreeSpacePointer() uint32 {
	return uint32(types.NewUInt32FromBytes(tp.Data()[offsetFreeSpace:]))
}

// IsDeleted reports whether a slot's stored size carries the tombstone
// flag, or is simply empty.
func IsDeleted(rowSize uint32) bool {
	return rowSize&deleteMask == deleteMask || rowSize == 0
}

func SetDeletedFlag(rowSize uint32) uint32 { return rowSize | deleteMask }

func UnsetDeletedFlag(rowSize uint32) uint32 { return rowSize &^ deleteMask }
