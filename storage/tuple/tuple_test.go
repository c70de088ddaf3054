// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package tuple

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryogrid/minisql/storage/table/column"
	"github.com/ryogrid/minisql/storage/table/schema"
	"github.com/ryogrid/minisql/types"
)

func TestTuple(t *testing.T) {
	columnA := column.NewColumn("a", types.Integer, false, false)
	columnB := column.NewCharColumn("b", 16, false, false)
	columnC := column.NewColumn("c", types.Integer, false, false)
	columnD := column.NewCharColumn("d", 12, false, false)
	columnE := column.NewColumn("e", types.Float, true, false)

	tupleSchema := schema.NewSchema([]*column.Column{columnA, columnB, columnC, columnD, columnE})

	expA, expB, expC, expD := int32(99), "Hello World", int32(100), "abc@#+&"
	values := []types.Value{
		types.NewInteger(expA),
		types.NewChar(expB, 16),
		types.NewInteger(expC),
		types.NewChar(expD, 12),
		{},
	}

	row := NewRow(values, map[uint32]bool{4: true}, tupleSchema)

	assert.Equal(t, expA, row.GetValue(tupleSchema, 0).ToInteger())
	assert.Equal(t, expB, row.GetValue(tupleSchema, 1).ToChar())
	assert.Equal(t, expC, row.GetValue(tupleSchema, 2).ToInteger())
	assert.Equal(t, expD, row.GetValue(tupleSchema, 3).ToChar())
	assert.True(t, row.IsNull(tupleSchema, 4))
	assert.False(t, row.IsNull(tupleSchema, 0))

	expectedSize := uint32(4) + nullBitmapBytes(tupleSchema.GetColumnCount()) +
		values[0].Size() + values[1].Size() + values[2].Size() + values[3].Size()
	assert.Equal(t, expectedSize, row.Size())
}
