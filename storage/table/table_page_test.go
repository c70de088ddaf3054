package table

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryogrid/minisql/common"
	"github.com/ryogrid/minisql/recovery"
	"github.com/ryogrid/minisql/storage/buffer"
	"github.com/ryogrid/minisql/storage/disk"
	"github.com/ryogrid/minisql/storage/page"
	"github.com/ryogrid/minisql/storage/table/column"
	"github.com/ryogrid/minisql/storage/table/schema"
	"github.com/ryogrid/minisql/storage/tuple"
	"github.com/ryogrid/minisql/types"
)

func testSchema() *schema.Schema {
	return schema.NewSchema([]*column.Column{
		column.NewColumn("id", types.Integer, false, false),
		column.NewCharColumn("name", 8, false, false),
	})
}

func testRow(schema_ *schema.Schema, id int32, name string) *tuple.Row {
	return tuple.NewTupleFromSchema([]types.Value{
		types.NewInteger(id),
		types.NewChar(name, 8),
	}, schema_)
}

func TestTablePageInsertGet(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := buffer.NewBufferPoolManager(5, dm)
	lm := recovery.NewLogManager(dm)

	schema_ := testSchema()
	pg := bpm.NewPage()
	tp := CastPageAsTablePage(pg)
	tp.Init(pg.ID(), types.InvalidPageID)

	row := testRow(schema_, 1, "alice")
	rid, _, err := tp.InsertTuple(row, types.TxnID(1), types.InvalidLSN, lm)
	assert.NoError(t, err)
	assert.NotNil(t, rid)

	got := tp.GetTuple(rid)
	assert.NotNil(t, got)
	assert.Equal(t, int32(1), got.GetValue(schema_, 0).ToInteger())
	assert.Equal(t, "alice", got.GetValue(schema_, 1).ToChar())
}

func TestTablePageMarkApplyDelete(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := buffer.NewBufferPoolManager(5, dm)
	lm := recovery.NewLogManager(dm)

	schema_ := testSchema()
	pg := bpm.NewPage()
	tp := CastPageAsTablePage(pg)
	tp.Init(pg.ID(), types.InvalidPageID)

	row := testRow(schema_, 2, "bob")
	rid, _, err := tp.InsertTuple(row, types.TxnID(1), types.InvalidLSN, lm)
	assert.NoError(t, err)

	ok, _ := tp.MarkDelete(rid, types.TxnID(1), types.InvalidLSN, lm)
	assert.True(t, ok)
	assert.Nil(t, tp.GetTuple(rid))

	tp.ApplyDelete(rid)
	assert.Nil(t, tp.GetTuple(rid))
}

func TestTablePageRollbackDelete(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := buffer.NewBufferPoolManager(5, dm)
	lm := recovery.NewLogManager(dm)

	schema_ := testSchema()
	pg := bpm.NewPage()
	tp := CastPageAsTablePage(pg)
	tp.Init(pg.ID(), types.InvalidPageID)

	row := testRow(schema_, 3, "carl")
	rid, _, err := tp.InsertTuple(row, types.TxnID(1), types.InvalidLSN, lm)
	assert.NoError(t, err)

	ok, _ := tp.MarkDelete(rid, types.TxnID(1), types.InvalidLSN, lm)
	assert.True(t, ok)

	tp.RollbackDelete(rid)
	got := tp.GetTuple(rid)
	assert.NotNil(t, got)
	assert.Equal(t, int32(3), got.GetValue(schema_, 0).ToInteger())
}

func TestTablePageUpdateInPlace(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := buffer.NewBufferPoolManager(5, dm)
	lm := recovery.NewLogManager(dm)

	schema_ := testSchema()
	pg := bpm.NewPage()
	tp := CastPageAsTablePage(pg)
	tp.Init(pg.ID(), types.InvalidPageID)

	row := testRow(schema_, 4, "dana")
	rid, _, err := tp.InsertTuple(row, types.TxnID(1), types.InvalidLSN, lm)
	assert.NoError(t, err)

	newRow := testRow(schema_, 4, "erin")
	oldRow := &tuple.Row{}
	status, _ := tp.UpdateTuple(newRow, oldRow, rid, types.TxnID(1), types.InvalidLSN, lm)
	assert.Equal(t, Updated, status)
	assert.Equal(t, "dana", oldRow.GetValue(schema_, 1).ToChar())

	got := tp.GetTuple(rid)
	assert.Equal(t, "erin", got.GetValue(schema_, 1).ToChar())
}

func TestTablePageUpdateInvalidSlot(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := buffer.NewBufferPoolManager(5, dm)
	lm := recovery.NewLogManager(dm)

	pg := bpm.NewPage()
	tp := CastPageAsTablePage(pg)
	tp.Init(pg.ID(), types.InvalidPageID)

	schema_ := testSchema()
	newRow := testRow(schema_, 9, "zzzzzzz")
	oldRow := &tuple.Row{}
	badRID := page.NewRID(tp.GetTablePageID(), 99)
	status, _ := tp.UpdateTuple(newRow, oldRow, badRID, types.TxnID(1), types.InvalidLSN, lm)
	assert.Equal(t, SlotInvalid, status)
}

func TestTablePageInsertAppendsLogRecord(t *testing.T) {
	common.EnableLogging = true
	defer func() { common.EnableLogging = false }()

	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := buffer.NewBufferPoolManager(5, dm)
	lm := recovery.NewLogManager(dm)

	schema_ := testSchema()
	pg := bpm.NewPage()
	tp := CastPageAsTablePage(pg)
	tp.Init(pg.ID(), types.InvalidPageID)

	row := testRow(schema_, 5, "frank")
	rid, lsn, err := tp.InsertTuple(row, types.TxnID(1), types.InvalidLSN, lm)
	assert.NoError(t, err)
	assert.Equal(t, lsn, tp.LSN())

	record, ok := lm.GetRecord(lsn)
	assert.True(t, ok)
	assert.Equal(t, recovery.Insert, record.Type)
	assert.Equal(t, rid.String(), record.NewKey)
}
