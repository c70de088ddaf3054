package heap

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryogrid/minisql/recovery"
	"github.com/ryogrid/minisql/storage/buffer"
	"github.com/ryogrid/minisql/storage/disk"
	"github.com/ryogrid/minisql/storage/page"
	"github.com/ryogrid/minisql/storage/table/column"
	"github.com/ryogrid/minisql/storage/table/schema"
	"github.com/ryogrid/minisql/storage/tuple"
	"github.com/ryogrid/minisql/types"
)

func heapTestSchema() *schema.Schema {
	return schema.NewSchema([]*column.Column{
		column.NewColumn("id", types.Integer, false, false),
		column.NewCharColumn("payload", 96, false, false),
	})
}

func heapTestRow(schema_ *schema.Schema, id int32) *tuple.Row {
	return tuple.NewTupleFromSchema([]types.Value{
		types.NewInteger(id),
		types.NewChar(fmt.Sprintf("row-%d", id), 96),
	}, schema_)
}

// TestTableHeapManyRowsRoundTrip mirrors the forward-scan scenario:
// every inserted row must come back through both direct GetTuple and
// the forward iterator, in insertion order.
func TestTableHeapManyRowsRoundTrip(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := buffer.NewBufferPoolManager(20, dm)
	lm := recovery.NewLogManager(dm)
	th := NewTableHeap(bpm, lm)

	schema_ := heapTestSchema()
	const n = 500

	for i := 0; i < n; i++ {
		row := heapTestRow(schema_, int32(i))
		rid, _, err := th.InsertTuple(row, types.TxnID(1), types.InvalidLSN)
		assert.NoError(t, err)
		got := th.GetTuple(rid)
		assert.NotNil(t, got)
		assert.Equal(t, int32(i), got.GetValue(schema_, 0).ToInteger())
	}

	count := 0
	seen := int32(0)
	for it := th.Iterator(); !it.End(); it.Next() {
		row := it.Current()
		assert.NotNil(t, row)
		assert.Equal(t, seen, row.GetValue(schema_, 0).ToInteger())
		seen++
		count++
	}
	assert.Equal(t, n, count)
}

func TestTableHeapDeleteSkippedByIterator(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := buffer.NewBufferPoolManager(10, dm)
	lm := recovery.NewLogManager(dm)
	th := NewTableHeap(bpm, lm)

	schema_ := heapTestSchema()
	const n = 40

	allRIDs := make([]*page.RID, 0, n)
	for i := 0; i < n; i++ {
		row := heapTestRow(schema_, int32(i))
		rid, _, err := th.InsertTuple(row, types.TxnID(1), types.InvalidLSN)
		assert.NoError(t, err)
		allRIDs = append(allRIDs, rid)
	}

	for i, rid := range allRIDs {
		if i%2 == 0 {
			assert.True(t, th.MarkDelete(rid, types.TxnID(1), types.InvalidLSN))
			th.ApplyDelete(rid)
		}
	}

	count := 0
	for it := th.Iterator(); !it.End(); it.Next() {
		count++
	}
	assert.Equal(t, n/2, count)
}

func TestTableHeapUpdateRoundTrip(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := buffer.NewBufferPoolManager(10, dm)
	lm := recovery.NewLogManager(dm)
	th := NewTableHeap(bpm, lm)

	schema_ := heapTestSchema()
	row := heapTestRow(schema_, 1)
	rid, lsn, err := th.InsertTuple(row, types.TxnID(1), types.InvalidLSN)
	assert.NoError(t, err)

	updated := heapTestRow(schema_, 1)
	newRID, _, err := th.UpdateTuple(updated, rid, types.TxnID(1), lsn)
	assert.NoError(t, err)
	assert.NotNil(t, newRID)

	got := th.GetTuple(newRID)
	assert.NotNil(t, got)
}
