package catalog

import (
	"github.com/ryogrid/minisql/storage/table/heap"
	"github.com/ryogrid/minisql/storage/table/schema"
)

// TableMetadata is a table's live, in-memory catalog entry: its schema
// and the heap holding its rows.
type TableMetadata struct {
	ID     uint32
	Name   string
	Schema *schema.Schema
	Heap   *heap.TableHeap
}
