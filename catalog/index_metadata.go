package catalog

import (
	"github.com/ryogrid/minisql/storage/index"
	"github.com/ryogrid/minisql/storage/table/schema"
)

// IndexMetadata is an index's live catalog entry: which table and
// columns it covers, its key schema/size, and the tree itself.
type IndexMetadata struct {
	ID          uint32
	Name        string
	TableID     uint32
	ColumnIndex []uint32
	KeySchema   *schema.Schema
	KeySize     uint32
	Tree        *index.BPlusTree
}
