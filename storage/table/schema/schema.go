// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package schema

import (
	"encoding/binary"
	"math"

	"github.com/ryogrid/minisql/common"
	"github.com/ryogrid/minisql/storage/table/column"
)

// schemaMagic tags a serialized schema, per the same pattern as
// column.Serialize's COLUMN_MAGIC.
const schemaMagic = uint32(0x53434831) // "SCH1"

// Schema is the ordered column list for one table's rows. NewSchema gives
// each column its offset as the running sum of declared widths and keeps
// the total as Length.
type Schema struct {
	length  uint32
	columns []*column.Column
}

func NewSchema(columns []*column.Column) *Schema {
	schema := &Schema{}

	var currentOffset uint32
	for _, col := range columns {
		col.SetOffset(currentOffset)
		currentOffset += col.Length()
		schema.columns = append(schema.columns, col)
	}
	schema.length = currentOffset
	return schema
}

func (s *Schema) GetColumn(colIndex uint32) *column.Column {
	return s.columns[colIndex]
}

func (s *Schema) GetColumnCount() uint32 {
	return uint32(len(s.columns))
}

// Length is the sum of the columns' declared widths (Column.Length). It
// excludes a row's field count, null bitmap and CHAR length prefixes, and
// counts null columns, so it is not a row's serialized size.
func (s *Schema) Length() uint32 {
	return s.length
}

// NullBitmapSize is the number of bytes needed to hold one null bit per
// column, rounded up.
func (s *Schema) NullBitmapSize() uint32 {
	return (uint32(len(s.columns)) + 7) / 8
}

func (s *Schema) GetColIndex(columnName string) uint32 {
	for i := uint32(0); i < s.GetColumnCount(); i++ {
		if s.columns[i].GetColumnName() == columnName {
			return i
		}
	}

	return math.MaxUint32
}

func (s *Schema) GetColumns() []*column.Column {
	return s.columns
}

func (s *Schema) IsHaveColumn(columnName string) bool {
	for _, col := range s.columns {
		if col.GetColumnName() == columnName {
			return true
		}
	}
	return false
}

// CopySchema builds a new Schema over a subset of from's columns, named by
// index. Used to derive an index's key schema from a table's row schema.
func CopySchema(from *Schema, attrs []uint32) *Schema {
	cols := make([]*column.Column, 0, len(attrs))
	for _, idx := range attrs {
		orig := from.columns[idx]
		c := *orig
		cols = append(cols, &c)
	}
	return NewSchema(cols)
}

// Serialize renders s as `u32 SCHEMA_MAGIC, u32 column_count, columns…`.
func (s *Schema) Serialize() []byte {
	buf := make([]byte, 0, 8+64*len(s.columns))
	head := make([]byte, 8)
	binary.LittleEndian.PutUint32(head[0:], schemaMagic)
	binary.LittleEndian.PutUint32(head[4:], uint32(len(s.columns)))
	buf = append(buf, head...)
	for _, col := range s.columns {
		buf = append(buf, col.Serialize()...)
	}
	return buf
}

// Deserialize reads back a Schema written by Serialize, returning the
// number of bytes consumed.
func Deserialize(data []byte) (*Schema, uint32) {
	magic := binary.LittleEndian.Uint32(data[0:])
	common.SHAssertf(magic == schemaMagic, "schema deserialize: bad magic %x", magic)
	count := binary.LittleEndian.Uint32(data[4:])
	off := uint32(8)
	cols := make([]*column.Column, 0, count)
	for i := uint32(0); i < count; i++ {
		col, n := column.Deserialize(data[off:])
		cols = append(cols, col)
		off += n
	}
	return NewSchema(cols), off
}
