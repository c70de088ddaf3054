// this code is from https://github.com/pzhzqt/goostub
// there is license and copyright notice in licenses/goostub dir

package common

const (
	// invalid page id
	InvalidPageID = -1
	// invalid transaction id
	InvalidTxnID = -1
	// invalid log sequence number
	InvalidLSN = -1
	// the catalog meta page id
	CatalogMetaPageID = 0
	// the index-roots page id
	IndexRootsPageID = 1
	// the disk manager's own meta page (bitmap geometry)
	DiskMetaPageID = 2
	// size of a data page in byte
	PageSize = 4096
	// BitmapHeaderSize is the fixed header every bitmap page carries ahead
	// of its bitmap bits: magic, next-bitmap-page-id, free-count, checksum.
	BitmapHeaderSize = 16
	// number of data pages tracked by one bitmap page
	BitmapCapacity = (PageSize - BitmapHeaderSize) * 8
	// log buffer sizing; the in-memory LogManager does not reference these
	LogBufferPoolSize = 32
	LogBufferSize      = (LogBufferPoolSize + 1) * PageSize

	// SizeMaxRow bounds a single row's serialized size so that at least one
	// slot plus the table page header always fits on a page.
	SizeMaxRow = PageSize / 4
)

// EnableLogging gates whether table page mutations append WAL log records
// through the LogManager. Off by default; TestTablePageInsertAppendsLogRecord
// turns it on explicitly to check the appended INSERT record.
var EnableLogging = false
