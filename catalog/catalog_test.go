package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryogrid/minisql/recovery"
	"github.com/ryogrid/minisql/storage/buffer"
	"github.com/ryogrid/minisql/storage/disk"
	"github.com/ryogrid/minisql/storage/index"
	"github.com/ryogrid/minisql/storage/page"
	"github.com/ryogrid/minisql/storage/table/column"
	"github.com/ryogrid/minisql/storage/table/schema"
	"github.com/ryogrid/minisql/types"
)

func usersSchema() *schema.Schema {
	return schema.NewSchema([]*column.Column{
		column.NewColumn("id", types.Integer, false, false),
		column.NewCharColumn("name", 32, false, false),
	})
}

func TestCatalogCreateAndGetTable(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := buffer.NewBufferPoolManager(20, dm)
	lm := recovery.NewLogManager(dm)
	cat := NewCatalog(bpm, lm)

	tm, code := cat.CreateTable("users", usersSchema())
	require.Equal(t, uint32(0), uint32(code))
	require.NotNil(t, tm)

	_, dup := cat.CreateTable("users", usersSchema())
	assert.NotEqual(t, uint32(0), uint32(dup))

	got, code := cat.GetTable("users")
	require.NotNil(t, got)
	assert.Equal(t, "users", got.Name)
	assert.Equal(t, uint32(2), got.Schema.GetColumnCount())
}

func TestCatalogTablePersistsAcrossReopen(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	lm := recovery.NewLogManager(dm)

	bpm1 := buffer.NewBufferPoolManager(20, dm)
	cat1 := NewCatalog(bpm1, lm)
	_, code := cat1.CreateTable("orders", usersSchema())
	require.Equal(t, uint32(0), uint32(code))

	bpm2 := buffer.NewBufferPoolManager(20, dm)
	cat2 := OpenCatalog(bpm2, lm)

	got, code := cat2.GetTable("orders")
	require.NotNil(t, got)
	require.Equal(t, uint32(0), uint32(code))
	assert.Equal(t, "orders", got.Name)
	require.Equal(t, uint32(2), got.Schema.GetColumnCount())
	assert.Equal(t, "id", got.Schema.GetColumn(0).GetColumnName())
	assert.Equal(t, "name", got.Schema.GetColumn(1).GetColumnName())
}

func TestCatalogCreateIndexRejectsUnknownColumn(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := buffer.NewBufferPoolManager(20, dm)
	lm := recovery.NewLogManager(dm)
	cat := NewCatalog(bpm, lm)
	cat.CreateTable("users", usersSchema())

	_, code := cat.CreateIndex("users", "by_ghost", []string{"nope"})
	assert.Equal(t, uint32(8), uint32(code)) // DBColumnNameNotExist
}

func TestCatalogCreateIndexAndInsertLookup(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := buffer.NewBufferPoolManager(20, dm)
	lm := recovery.NewLogManager(dm)
	cat := NewCatalog(bpm, lm)
	cat.CreateTable("users", usersSchema())

	im, code := cat.CreateIndex("users", "by_id", []string{"id"})
	require.Equal(t, uint32(0), uint32(code))
	require.NotNil(t, im)

	_, dup := cat.CreateIndex("users", "by_id", []string{"id"})
	assert.NotEqual(t, uint32(0), uint32(dup))

	indexes, code := cat.GetTableIndexes("users")
	require.Equal(t, uint32(0), uint32(code))
	require.Len(t, indexes, 1)
	assert.Equal(t, "by_id", indexes[0].Name)
}

func TestCatalogDropTable(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := buffer.NewBufferPoolManager(20, dm)
	lm := recovery.NewLogManager(dm)
	cat := NewCatalog(bpm, lm)
	cat.CreateTable("temp", usersSchema())

	code := cat.DropTable("temp")
	assert.Equal(t, uint32(0), uint32(code))

	_, code = cat.GetTable("temp")
	assert.NotEqual(t, uint32(0), uint32(code))

	assert.NotEqual(t, uint32(0), uint32(cat.DropTable("temp")))
}

func TestCatalogDropIndex(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := buffer.NewBufferPoolManager(20, dm)
	lm := recovery.NewLogManager(dm)
	cat := NewCatalog(bpm, lm)
	cat.CreateTable("users", usersSchema())

	im, code := cat.CreateIndex("users", "by_id", []string{"id"})
	require.Equal(t, uint32(0), uint32(code))

	key := index.EncodeKey([]types.Value{types.NewInteger(7)}, im.KeySchema, im.KeySize)
	require.True(t, im.Tree.Insert(key, page.NewRID(types.PageID(1), 0)))
	require.False(t, im.Tree.IsEmpty())

	code = cat.DropIndex("users", "by_id")
	assert.Equal(t, uint32(0), uint32(code))

	_, code = cat.GetIndex("users", "by_id")
	assert.NotEqual(t, uint32(0), uint32(code))

	assert.NotEqual(t, uint32(0), uint32(cat.DropIndex("users", "by_id")))

	im2, code := cat.CreateIndex("users", "by_id_again", []string{"id"})
	require.Equal(t, uint32(0), uint32(code))
	assert.True(t, im2.Tree.IsEmpty())
}
