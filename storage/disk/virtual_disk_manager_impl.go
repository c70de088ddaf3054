package disk

import (
	"errors"
	"strings"
	"sync"

	"github.com/dsnet/golib/memfile"

	"github.com/ryogrid/minisql/common"
	"github.com/ryogrid/minisql/types"
)

// VirtualDiskManagerImpl is an in-memory DiskManager, backed by
// dsnet/golib/memfile instead of an *os.File. Used by tests that want the
// DiskManager/BufferPoolManager/TableHeap stack without touching the
// filesystem; it shares the exact same bitmap allocation scheme as
// DiskManagerImpl.
type VirtualDiskManagerImpl struct {
	db          *memfile.File
	fileName    string
	logFile     *memfile.File
	fileNameLog string
	numWrites   uint64
	numFlushes  uint64
	size        int64
	dbMu        sync.Mutex
	logMu       sync.Mutex
	bitmap      *bitmapAllocator
}

func NewVirtualDiskManagerImpl(dbFilename string) DiskManager {
	periodIdx := strings.LastIndex(dbFilename, ".")
	logfnameBase := dbFilename[:periodIdx]
	logfname := logfnameBase + "." + "log"

	d := &VirtualDiskManagerImpl{
		db:          memfile.New(make([]byte, 0)),
		fileName:    dbFilename,
		logFile:     memfile.New(make([]byte, 0)),
		fileNameLog: logfname,
	}
	d.bitmap = newBitmapAllocator(d)
	d.bitmap.initFresh() // a fresh in-memory file never has prior state to load

	return d
}

func (d *VirtualDiskManagerImpl) ShutDown() {
	// nothing to release, the file lives on the heap
}

func (d *VirtualDiskManagerImpl) readRaw(pageID types.PageID, buf []byte) error {
	return d.ReadPage(pageID, buf)
}

func (d *VirtualDiskManagerImpl) writeRaw(pageID types.PageID, buf []byte) error {
	return d.WritePage(pageID, buf)
}

func (d *VirtualDiskManagerImpl) WritePage(pageID types.PageID, pageData []byte) error {
	d.dbMu.Lock()
	defer d.dbMu.Unlock()

	offset := int64(pageID) * common.PageSize
	d.db.WriteAt(pageData, offset)
	if offset+int64(len(pageData)) > d.size {
		d.size = offset + int64(len(pageData))
	}
	d.numWrites++
	return nil
}

func (d *VirtualDiskManagerImpl) ReadPage(pageID types.PageID, pageData []byte) error {
	d.dbMu.Lock()
	defer d.dbMu.Unlock()

	offset := int64(pageID) * common.PageSize
	if offset+int64(len(pageData)) > d.size {
		for i := range pageData {
			pageData[i] = 0
		}
		return nil
	}

	_, err := d.db.ReadAt(pageData, offset)
	if err != nil {
		return errors.New("I/O error while reading")
	}
	return nil
}

func (d *VirtualDiskManagerImpl) AllocatePage() types.PageID {
	return d.bitmap.Allocate()
}

func (d *VirtualDiskManagerImpl) DeallocatePage(pageID types.PageID) {
	d.bitmap.Deallocate(pageID)
}

func (d *VirtualDiskManagerImpl) GetNumWrites() uint64 {
	return d.numWrites
}

func (d *VirtualDiskManagerImpl) GetNumFlushes() uint64 {
	return d.numFlushes
}

func (d *VirtualDiskManagerImpl) Size() int64 {
	d.dbMu.Lock()
	defer d.dbMu.Unlock()
	return d.size
}

func (d *VirtualDiskManagerImpl) RemoveDBFile() {
	// nothing to remove
}

func (d *VirtualDiskManagerImpl) RemoveLogFile() {
	// nothing to remove
}

// GCLogFile discards accumulated WAL content, e.g. right after a
// checkpoint makes it unnecessary for recovery.
func (d *VirtualDiskManagerImpl) GCLogFile() error {
	d.logMu.Lock()
	defer d.logMu.Unlock()
	d.logFile = memfile.New(make([]byte, 0))
	return nil
}

func (d *VirtualDiskManagerImpl) WriteLog(logData []byte) {
	if len(logData) == 0 {
		return
	}
	d.logMu.Lock()
	defer d.logMu.Unlock()
	d.numFlushes++
	d.logFile.Write(logData)
}

func (d *VirtualDiskManagerImpl) ReadLog(logData []byte, offset int32) bool {
	d.logMu.Lock()
	defer d.logMu.Unlock()

	if int64(offset) >= int64(len(d.logFile.Bytes())) {
		return false
	}
	d.logFile.ReadAt(logData, int64(offset))
	return true
}

func (d *VirtualDiskManagerImpl) GetLogFileSize() int64 {
	d.logMu.Lock()
	defer d.logMu.Unlock()
	return int64(len(d.logFile.Bytes()))
}
