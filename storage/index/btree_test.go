package index

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryogrid/minisql/common"
	"github.com/ryogrid/minisql/storage/buffer"
	"github.com/ryogrid/minisql/storage/disk"
	"github.com/ryogrid/minisql/storage/page"
	"github.com/ryogrid/minisql/storage/table/column"
	"github.com/ryogrid/minisql/storage/table/schema"
	"github.com/ryogrid/minisql/types"
)

// bootstrapRootsPage initializes the shared index-roots page at its fixed
// reserved id, the way database creation would (reserved ids 0-2 sit
// outside the bitmap allocator and are addressed directly).
func bootstrapRootsPage(t *testing.T, bpm *buffer.BufferPoolManager) {
	t.Helper()
	rootsPage := bpm.FetchPage(types.PageID(common.IndexRootsPageID))
	require.NotNil(t, rootsPage)
	CastPageAsIndexRootsPage(rootsPage).Init()
	require.NoError(t, bpm.UnpinPage(rootsPage.ID(), true))
}

func intKeySchema() *schema.Schema {
	return schema.NewSchema([]*column.Column{
		column.NewColumn("k", types.Integer, false, false),
	})
}

func intKey(schema_ *schema.Schema, keySize uint32, v int32) Key {
	return EncodeKey([]types.Value{types.NewInteger(v)}, schema_, keySize)
}

func newTestTree(t *testing.T, poolSize uint32) (*BPlusTree, *buffer.BufferPoolManager, *schema.Schema, uint32) {
	dm := disk.NewDiskManagerTest()
	t.Cleanup(dm.ShutDown)
	bpm := buffer.NewBufferPoolManager(poolSize, dm)
	bootstrapRootsPage(t, bpm)

	schema_ := intKeySchema()
	keySize := RoundKeySize(NaturalKeySize(schema_))
	tree := NewBPlusTree(bpm, 1, keySize, NewComparator(schema_))
	return tree, bpm, schema_, keySize
}

func TestBPlusTreeInsertAndGetValue(t *testing.T) {
	tree, _, schema_, keySize := newTestTree(t, 64)

	order := rand.New(rand.NewSource(1)).Perm(1000)
	for _, v := range order {
		rid := page.NewRID(types.PageID(v), uint32(v%8))
		ok := tree.Insert(intKey(schema_, keySize, int32(v)), rid)
		assert.True(t, ok)
	}

	for v := 0; v < 1000; v++ {
		got := tree.GetValue(intKey(schema_, keySize, int32(v)))
		require.NotNil(t, got, "missing key %d", v)
		assert.Equal(t, types.PageID(v), got.GetPageId())
	}
}

func TestBPlusTreeRangeScan(t *testing.T) {
	tree, _, schema_, keySize := newTestTree(t, 64)

	for v := 0; v < 1000; v++ {
		rid := page.NewRID(types.PageID(v), 0)
		assert.True(t, tree.Insert(intKey(schema_, keySize, int32(v)), rid))
	}

	it := tree.BeginAt(intKey(schema_, keySize, 500))
	count := 0
	expect := int32(500)
	for !it.End() {
		v := DecodeValue(it.Key(), schema_, 0).ToInteger()
		assert.Equal(t, expect, v)
		expect++
		count++
		it.Next()
	}
	assert.Equal(t, 500, count)
}

func TestBPlusTreeDuplicateInsertRejected(t *testing.T) {
	tree, _, schema_, keySize := newTestTree(t, 16)

	ridA := page.NewRID(types.PageID(1), 0)
	ridB := page.NewRID(types.PageID(2), 0)

	assert.True(t, tree.Insert(intKey(schema_, keySize, 7), ridA))
	assert.False(t, tree.Insert(intKey(schema_, keySize, 7), ridB))

	got := tree.GetValue(intKey(schema_, keySize, 7))
	require.NotNil(t, got)
	assert.Equal(t, ridA.GetPageId(), got.GetPageId())
}

func TestBPlusTreeRemoveLowerHalfInReverse(t *testing.T) {
	tree, _, schema_, keySize := newTestTree(t, 64)

	for v := 1; v <= 1000; v++ {
		rid := page.NewRID(types.PageID(v), 0)
		assert.True(t, tree.Insert(intKey(schema_, keySize, int32(v)), rid))
	}

	for v := 500; v >= 1; v-- {
		ok := tree.Remove(intKey(schema_, keySize, int32(v)))
		assert.True(t, ok, "remove %d", v)
	}

	for v := 1; v <= 500; v++ {
		assert.Nil(t, tree.GetValue(intKey(schema_, keySize, int32(v))))
	}
	for v := 501; v <= 1000; v++ {
		assert.NotNil(t, tree.GetValue(intKey(schema_, keySize, int32(v))))
	}
}

func TestBPlusTreeInsertRemoveReversibility(t *testing.T) {
	tree, _, schema_, keySize := newTestTree(t, 16)

	for v := 0; v < 20; v++ {
		assert.True(t, tree.Insert(intKey(schema_, keySize, int32(v)), page.NewRID(types.PageID(v), 0)))
	}
	rootBefore := tree.getRootID()

	newKey := intKey(schema_, keySize, 999)
	newRID := page.NewRID(types.PageID(999), 0)
	assert.True(t, tree.Insert(newKey, newRID))
	assert.True(t, tree.Remove(newKey))

	assert.Equal(t, rootBefore, tree.getRootID())
	assert.Nil(t, tree.GetValue(newKey))
}
