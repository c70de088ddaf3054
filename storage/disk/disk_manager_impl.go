// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package disk

import (
	"errors"
	"io"
	"log"
	"os"
	"strings"

	"github.com/ryogrid/minisql/common"
	"github.com/ryogrid/minisql/types"
)

// DiskManagerImpl is the file-backed implementation of DiskManager.
type DiskManagerImpl struct {
	db           *os.File
	fileName     string
	logFile      *os.File
	fileNameLog  string
	numWrites    uint64
	numFlushes   uint64
	size         int64
	bitmap       *bitmapAllocator
}

// NewDiskManagerImpl returns a DiskManager instance backed by dbFilename
// and dbFilename's sibling .log file.
func NewDiskManagerImpl(dbFilename string) DiskManager {
	file, err := os.OpenFile(dbFilename, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		log.Fatalln("can't open db file")
		return nil
	}

	periodIdx := strings.LastIndex(dbFilename, ".")
	logfnameBase := dbFilename[:periodIdx]
	logfname := logfnameBase + "." + "log"
	logFile, err := os.OpenFile(logfname, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		log.Fatalln("can't open log file")
		return nil
	}

	fileInfo, err := file.Stat()
	if err != nil {
		log.Fatalln("file info error")
		return nil
	}
	logFile.Seek(0, io.SeekEnd)

	d := &DiskManagerImpl{db: file, fileName: dbFilename, logFile: logFile, fileNameLog: logfname, size: fileInfo.Size()}
	d.bitmap = newBitmapAllocator(d)
	if !d.bitmap.loadExisting() {
		d.bitmap.initFresh()
	}
	return d
}

// ShutDown closes of the database file
func (d *DiskManagerImpl) ShutDown() {
	d.db.Close()
	d.logFile.Close()
}

func (d *DiskManagerImpl) readRaw(pageID types.PageID, buf []byte) error {
	return d.ReadPage(pageID, buf)
}

func (d *DiskManagerImpl) writeRaw(pageID types.PageID, buf []byte) error {
	return d.WritePage(pageID, buf)
}

// WritePage writes a page to the database file
func (d *DiskManagerImpl) WritePage(pageID types.PageID, pageData []byte) error {
	offset := int64(pageID) * common.PageSize
	d.db.Seek(offset, io.SeekStart)
	bytesWritten, err := d.db.Write(pageData)
	if err != nil {
		return err
	}
	if bytesWritten != common.PageSize {
		return errors.New("bytes written not equals page size")
	}
	if offset+int64(bytesWritten) > d.size {
		d.size = offset + int64(bytesWritten)
	}

	d.numWrites++
	d.db.Sync()
	return nil
}

// ReadPage reads a page from the database file
func (d *DiskManagerImpl) ReadPage(pageID types.PageID, pageData []byte) error {
	offset := int64(pageID) * common.PageSize

	fileInfo, err := d.db.Stat()
	if err != nil {
		return errors.New("file info error")
	}
	if offset > fileInfo.Size() {
		return errors.New("I/O error past end of file")
	}

	d.db.Seek(offset, io.SeekStart)

	bytesRead, err := d.db.Read(pageData)
	if err != nil && err != io.EOF {
		return errors.New("I/O error while reading")
	}
	if bytesRead < common.PageSize {
		for i := bytesRead; i < common.PageSize; i++ {
			pageData[i] = 0
		}
	}
	return nil
}

// AllocatePage allocates a new data page via the bitmap allocator.
func (d *DiskManagerImpl) AllocatePage() types.PageID {
	return d.bitmap.Allocate()
}

// DeallocatePage clears pageID's bit so a later Allocate can reuse it.
func (d *DiskManagerImpl) DeallocatePage(pageID types.PageID) {
	d.bitmap.Deallocate(pageID)
}

// GetNumWrites returns the number of disk writes
func (d *DiskManagerImpl) GetNumWrites() uint64 {
	return d.numWrites
}

// GetNumFlushes returns the number of log flushes
func (d *DiskManagerImpl) GetNumFlushes() uint64 {
	return d.numFlushes
}

// Size returns the size of the file in disk
func (d *DiskManagerImpl) Size() int64 {
	return d.size
}

// RemoveDBFile removes the underlying db file. ATTENTION: call only after ShutDown.
func (d *DiskManagerImpl) RemoveDBFile() {
	os.Remove(d.fileName)
}

// RemoveLogFile removes the underlying log file. ATTENTION: call only after ShutDown.
func (d *DiskManagerImpl) RemoveLogFile() {
	os.Remove(d.fileNameLog)
}

// WriteLog appends log_data to the WAL file and syncs it. Only performs
// sequential writes; the LogManager is responsible for buffering.
func (d *DiskManagerImpl) WriteLog(logData []byte) {
	if len(logData) == 0 {
		return
	}
	d.numFlushes++
	_, err := d.logFile.Write(logData)
	if err != nil {
		return
	}
	d.logFile.Sync()
}

// ReadLog reads len(logData) bytes starting at offset from the WAL file.
// Returns false once offset reaches the end of the log.
func (d *DiskManagerImpl) ReadLog(logData []byte, offset int32) bool {
	if int64(offset) >= d.GetLogFileSize() {
		return false
	}

	d.logFile.Seek(int64(offset), io.SeekStart)
	readBytes, err := d.logFile.Read(logData)
	if err != nil && err != io.EOF {
		return false
	}
	if readBytes < len(logData) {
		for i := readBytes; i < len(logData); i++ {
			logData[i] = 0
		}
	}
	return true
}

// GetLogFileSize returns the current size of the WAL file.
func (d *DiskManagerImpl) GetLogFileSize() int64 {
	fileInfo, err := d.logFile.Stat()
	if err != nil {
		return -1
	}
	return fileInfo.Size()
}
