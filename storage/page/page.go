// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package page

import (
	"github.com/ryogrid/minisql/common"
	"github.com/ryogrid/minisql/types"
)

const PageSize = common.PageSize

// Page is one PageSize-byte frame worth of buffer-pool-managed data,
// alongside the bookkeeping the buffer pool needs to decide when it can be
// evicted and whether it must be flushed first.
//
// LSN is the log sequence number of the most recent WAL record that
// touched this page's contents. It lives only in this struct, not in the
// page bytes, and the recovery manager's redo does not consult it.
type Page struct {
	id       types.PageID
	pinCount int
	isDirty  bool
	lsn      types.LSN
	data     *[PageSize]byte
	latch    common.ReaderWriterLatch
}

// WLatch/RLatch crab this page's contents for concurrent readers/writers
// above the buffer pool (table heap scans, B+ tree descents). TablePage
// and the B+ tree page views reach these through their unsafe.Pointer
// overlay of Page, so every page-typed view shares one latch per frame.
func (p *Page) WLatch()   { p.latch.WLock() }
func (p *Page) WUnlatch() { p.latch.WUnlock() }
func (p *Page) RLatch()   { p.latch.RLock() }
func (p *Page) RUnlatch() { p.latch.RUnlock() }

// IncPinCount increments pin count
func (p *Page) IncPinCount() {
	p.pinCount++
}

// DecPinCount decrements pin count
func (p *Page) DecPinCount() {
	if p.pinCount > 0 {
		p.pinCount--
	}
}

// PinCount returns the pin count
func (p *Page) PinCount() int {
	return p.pinCount
}

// ID returns the page id
func (p *Page) ID() types.PageID {
	return p.id
}

func (p *Page) Data() *[PageSize]byte {
	return p.data
}

// Copy writes data into the page's byte buffer starting at offset. Used
// by every typed view (TablePage, B+ tree node views) to install a
// serialized field without hand-rolling a slice copy at each call site.
func (p *Page) Copy(offset uint32, data []byte) {
	copy(p.data[offset:], data)
}

func (p *Page) SetIsDirty(isDirty bool) {
	p.isDirty = isDirty
}

func (p *Page) IsDirty() bool {
	return p.isDirty
}

func (p *Page) LSN() types.LSN {
	return p.lsn
}

func (p *Page) SetLSN(lsn types.LSN) {
	p.lsn = lsn
}

func New(id types.PageID, pinCount int, isDirty bool, data *[PageSize]byte) *Page {
	return &Page{id: id, pinCount: pinCount, isDirty: isDirty, lsn: types.InvalidLSN, data: data, latch: common.NewRWLatch()}
}

func NewEmpty(id types.PageID) *Page {
	return &Page{id: id, pinCount: 1, isDirty: false, lsn: types.InvalidLSN, data: &[PageSize]byte{}, latch: common.NewRWLatch()}
}
