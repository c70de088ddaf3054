package disk

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"

	"github.com/ryogrid/minisql/common"
	"github.com/ryogrid/minisql/types"
)

// pageRawIO is the raw, page-granular byte transport a bitmapAllocator
// runs its bookkeeping over. Both the file-backed and in-memory disk
// managers satisfy it directly with their own ReadPage/WritePage.
type pageRawIO interface {
	readRaw(pageID types.PageID, buf []byte) error
	writeRaw(pageID types.PageID, buf []byte) error
}

const bitmapMagic = uint32(0x424d4150) // "BMAP"

// bitmapHeader prefixes every bitmap page. checksum guards the bitmap
// payload that follows it, catching a torn or short write of an extent
// page before Allocate/Deallocate trusts a corrupted free-bit map.
type bitmapHeader struct {
	magic            uint32
	nextBitmapPageID int32
	numFree          uint32
	checksum         uint32
}

func (h bitmapHeader) encode() []byte {
	buf := make([]byte, common.BitmapHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.magic)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.nextBitmapPageID))
	binary.LittleEndian.PutUint32(buf[8:12], h.numFree)
	binary.LittleEndian.PutUint32(buf[12:16], h.checksum)
	return buf
}

func decodeBitmapHeader(buf []byte) bitmapHeader {
	return bitmapHeader{
		magic:            binary.LittleEndian.Uint32(buf[0:4]),
		nextBitmapPageID: int32(binary.LittleEndian.Uint32(buf[4:8])),
		numFree:          binary.LittleEndian.Uint32(buf[8:12]),
		checksum:         binary.LittleEndian.Uint32(buf[12:16]),
	}
}

func bitmapChecksum(bitmap []byte) uint32 {
	return murmur3.Sum32(bitmap)
}

// bitmapAllocator implements a chained extent-of-bitmap-pages allocator:
// each extent is one bitmap page immediately followed by the
// common.BitmapCapacity data pages it tracks. Reserved pages 0-2 (catalog
// meta, index roots, disk meta) precede the first extent, so the first
// bitmap page always sits at page 3.
//
// Extents are laid out at deterministic offsets (extent i's bitmap page is
// firstBitmapPageID + i*(1+BitmapCapacity)), so allocation/deallocation
// never has to walk the chain: the extent index for a data page, or the
// next extent to create, is arithmetic.
type bitmapAllocator struct {
	io                pageRawIO
	firstBitmapPageID types.PageID
	numExtents        uint32
	latch             common.ReaderWriterLatch
}

const firstBitmapPageID = types.PageID(common.DiskMetaPageID + 1)

func newBitmapAllocator(io pageRawIO) *bitmapAllocator {
	return &bitmapAllocator{io: io, firstBitmapPageID: firstBitmapPageID, latch: common.NewRWLatch()}
}

func (a *bitmapAllocator) extentSize() types.PageID {
	return types.PageID(1 + common.BitmapCapacity)
}

func (a *bitmapAllocator) extentBitmapPageID(idx uint32) types.PageID {
	return a.firstBitmapPageID + types.PageID(idx)*a.extentSize()
}

// initFresh lays down extent 0 and the disk meta page. Called when the
// backing storage is empty.
func (a *bitmapAllocator) initFresh() {
	a.numExtents = 1
	hdr := bitmapHeader{magic: bitmapMagic, nextBitmapPageID: int32(common.InvalidPageID), numFree: common.BitmapCapacity}
	a.writeExtent(a.extentBitmapPageID(0), hdr, make([]byte, common.PageSize-common.BitmapHeaderSize))
	a.writeMeta()
}

// loadExisting reads the disk meta page written by a prior initFresh/grow.
// Returns false if the meta page has never been initialized (fresh file).
func (a *bitmapAllocator) loadExisting() bool {
	buf := make([]byte, common.PageSize)
	if err := a.io.readRaw(types.PageID(common.DiskMetaPageID), buf); err != nil {
		return false
	}
	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != bitmapMagic {
		return false
	}
	a.numExtents = binary.LittleEndian.Uint32(buf[4:8])
	return true
}

func (a *bitmapAllocator) writeMeta() {
	buf := make([]byte, common.PageSize)
	binary.LittleEndian.PutUint32(buf[0:4], bitmapMagic)
	binary.LittleEndian.PutUint32(buf[4:8], a.numExtents)
	a.io.writeRaw(types.PageID(common.DiskMetaPageID), buf)
}

func (a *bitmapAllocator) readExtent(bitmapPageID types.PageID) (bitmapHeader, []byte) {
	buf := make([]byte, common.PageSize)
	a.io.readRaw(bitmapPageID, buf)
	hdr := decodeBitmapHeader(buf[:common.BitmapHeaderSize])
	bitmap := buf[common.BitmapHeaderSize:]
	common.SHAssertf(hdr.checksum == bitmapChecksum(bitmap), "bitmap extent %d: checksum mismatch, torn write?", bitmapPageID)
	return hdr, bitmap
}

func (a *bitmapAllocator) writeExtent(bitmapPageID types.PageID, hdr bitmapHeader, bitmap []byte) {
	hdr.checksum = bitmapChecksum(bitmap)
	buf := make([]byte, common.PageSize)
	copy(buf, hdr.encode())
	copy(buf[common.BitmapHeaderSize:], bitmap)
	a.io.writeRaw(bitmapPageID, buf)
}

func firstZeroBit(bitmap []byte) (int, bool) {
	for i, b := range bitmap {
		if b != 0xff {
			for bit := 0; bit < 8; bit++ {
				if b&(1<<uint(bit)) == 0 {
					return i*8 + bit, true
				}
			}
		}
	}
	return 0, false
}

func setBit(bitmap []byte, pos int)   { bitmap[pos/8] |= 1 << uint(pos%8) }
func clearBit(bitmap []byte, pos int) { bitmap[pos/8] &^= 1 << uint(pos%8) }

// Allocate returns a free data page id, growing the extent chain if every
// existing extent is full.
func (a *bitmapAllocator) Allocate() types.PageID {
	a.latch.WLock()
	defer a.latch.WUnlock()

	for idx := uint32(0); idx < a.numExtents; idx++ {
		bmPageID := a.extentBitmapPageID(idx)
		hdr, bitmap := a.readExtent(bmPageID)
		if hdr.numFree == 0 {
			continue
		}
		pos, ok := firstZeroBit(bitmap)
		if !ok {
			continue
		}
		setBit(bitmap, pos)
		hdr.numFree--
		a.writeExtent(bmPageID, hdr, bitmap)
		return bmPageID + 1 + types.PageID(pos)
	}

	newIdx := a.numExtents
	a.numExtents++
	hdr := bitmapHeader{magic: bitmapMagic, nextBitmapPageID: int32(common.InvalidPageID), numFree: common.BitmapCapacity - 1}
	bitmap := make([]byte, common.PageSize-common.BitmapHeaderSize)
	setBit(bitmap, 0)
	bmPageID := a.extentBitmapPageID(newIdx)
	a.writeExtent(bmPageID, hdr, bitmap)
	a.writeMeta()
	return bmPageID + 1
}

// Deallocate clears the bit tracking pageID. pageID must have come from a
// prior Allocate call on this allocator.
func (a *bitmapAllocator) Deallocate(pageID types.PageID) {
	a.latch.WLock()
	defer a.latch.WUnlock()

	offset := pageID - a.firstBitmapPageID
	extentIdx := uint32(offset / a.extentSize())
	withinExtent := offset % a.extentSize()
	if withinExtent == 0 {
		common.SHAssert(false, "Deallocate called on a bitmap page id, not a data page id")
		return
	}
	bmPageID := a.extentBitmapPageID(extentIdx)
	hdr, bitmap := a.readExtent(bmPageID)
	pos := int(withinExtent - 1)
	clearBit(bitmap, pos)
	hdr.numFree++
	a.writeExtent(bmPageID, hdr, bitmap)
}
