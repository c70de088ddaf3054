// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package column

import (
	"encoding/binary"

	"github.com/ryogrid/minisql/common"
	"github.com/ryogrid/minisql/types"
)

// columnMagic tags a serialized column so deserialize can catch a
// corrupt or misaligned read before trusting the fields that follow.
const columnMagic = uint32(0x434f4c31) // "COL1"

// Column describes one attribute of a Schema: its wire type, its declared
// width and the running offset NewSchema assigns it, and the constraints the
// catalog and table heap enforce on it. Every live TypeID (Integer, Float,
// Char) is fixed-width, so unlike the teacher's version there is no
// separate uninlined/variable-length representation to track.
type Column struct {
	columnName   string
	columnType   types.TypeID
	length       uint32 // serialized width in bytes; for Char this is the declared CHAR(n)
	columnOffset uint32 // sum of the declared widths of the preceding columns
	nullable     bool
	unique       bool
	hasIndex     bool
}

// NewColumn builds an Integer or Float column.
func NewColumn(name string, columnType types.TypeID, nullable bool, unique bool) *Column {
	return &Column{columnName: name, columnType: columnType, length: columnType.Size(), nullable: nullable, unique: unique}
}

// NewCharColumn builds a fixed-length CHAR(size) column.
func NewCharColumn(name string, size uint32, nullable bool, unique bool) *Column {
	return &Column{columnName: name, columnType: types.Char, length: size, nullable: nullable, unique: unique}
}

func (c *Column) GetType() types.TypeID {
	return c.columnType
}

func (c *Column) GetOffset() uint32 {
	return c.columnOffset
}

func (c *Column) SetOffset(offset uint32) {
	c.columnOffset = offset
}

// Length is the column's declared width: 4 for INT/FLOAT, n for CHAR(n).
// A serialized CHAR value also carries a u32 length prefix.
func (c *Column) Length() uint32 {
	return c.length
}

func (c *Column) GetColumnName() string {
	return c.columnName
}

func (c *Column) Nullable() bool {
	return c.nullable
}

func (c *Column) Unique() bool {
	return c.unique
}

func (c *Column) HasIndex() bool {
	return c.hasIndex
}

func (c *Column) SetHasIndex(hasIndex bool) {
	c.hasIndex = hasIndex
}

// Serialize renders c as:
//
//	u32 COLUMN_MAGIC, u32 name_len, bytes name, u32 type, u32 length,
//	u32 offset, u8 nullable, u8 unique
//
// The offset slot holds GetOffset(), not the column's position in its
// table; a Column carries no table position.
func (c *Column) Serialize() []byte {
	name := []byte(c.columnName)
	buf := make([]byte, 4+4+len(name)+4+4+4+1+1)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:], columnMagic)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(name)))
	off += 4
	copy(buf[off:], name)
	off += len(name)
	binary.LittleEndian.PutUint32(buf[off:], uint32(c.columnType))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], c.length)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], c.columnOffset)
	off += 4
	if c.nullable {
		buf[off] = 1
	}
	off++
	if c.unique {
		buf[off] = 1
	}
	return buf
}

// Deserialize reads back a Column written by Serialize, returning the
// number of bytes consumed.
func Deserialize(data []byte) (*Column, uint32) {
	off := uint32(0)
	magic := binary.LittleEndian.Uint32(data[off:])
	common.SHAssertf(magic == columnMagic, "column deserialize: bad magic %x", magic)
	off += 4
	nameLen := binary.LittleEndian.Uint32(data[off:])
	off += 4
	name := string(data[off : off+nameLen])
	off += nameLen
	colType := types.TypeID(binary.LittleEndian.Uint32(data[off:]))
	off += 4
	length := binary.LittleEndian.Uint32(data[off:])
	off += 4
	tableIndex := binary.LittleEndian.Uint32(data[off:])
	off += 4
	nullable := data[off] == 1
	off++
	unique := data[off] == 1
	off++
	c := &Column{
		columnName:   name,
		columnType:   colType,
		length:       length,
		columnOffset: tableIndex,
		nullable:     nullable,
		unique:       unique,
	}
	return c, off
}

// SerializedSize returns how many bytes Serialize would produce.
func (c *Column) SerializedSize() uint32 {
	return 4 + 4 + uint32(len(c.columnName)) + 4 + 4 + 4 + 1 + 1
}
