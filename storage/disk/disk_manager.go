package disk

import (
	"github.com/ryogrid/minisql/types"
)

// DiskManager is responsible for interacting with disk: page-granular
// read/write of the data file, bitmap-backed page allocation, and the WAL
// log file the recovery manager appends to.
type DiskManager interface {
	ReadPage(types.PageID, []byte) error
	WritePage(types.PageID, []byte) error
	AllocatePage() types.PageID
	DeallocatePage(types.PageID)
	GetNumWrites() uint64
	GetNumFlushes() uint64
	ShutDown()
	Size() int64

	WriteLog(logData []byte)
	ReadLog(logData []byte, offset int32) bool
	GetLogFileSize() int64
}
