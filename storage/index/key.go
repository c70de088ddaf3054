package index

import (
	"github.com/ryogrid/minisql/storage/table/column"
	"github.com/ryogrid/minisql/storage/table/schema"
	"github.com/ryogrid/minisql/types"
)

// Key is a B+ tree index key: the fixed-width serialized form of one or
// more column values, padded to the index's rounded key size. It is
// opaque bytes on disk; a Comparator gives it meaning by decoding
// against the index's key schema.
type Key []byte

// Comparator orders two Keys the way the index's key schema says its
// columns should compare (column by column, in schema order).
type Comparator func(a, b Key) int

// KeySizeSteps are the rounded key-storage sizes an index key is padded
// up to. A key schema whose natural width exceeds the largest step is
// rejected at index creation.
var KeySizeSteps = []uint32{16, 32, 64, 128, 256}

// RoundKeySize returns the smallest step in KeySizeSteps that fits
// natural, or 0 if natural exceeds every step.
func RoundKeySize(natural uint32) uint32 {
	for _, step := range KeySizeSteps {
		if natural <= step {
			return step
		}
	}
	return 0
}

// keyFieldWidth is the width a column occupies in a Key's field section.
// Unlike a Row, a Key lays every column at a fixed offset regardless of
// nullness (spec.md §6 only requires key storage be rounded up to a
// KeySizeSteps bucket, not that it share Row's null-skipping, sequential
// layout) so a CHAR column still needs its own u32 length prefix
// accounted for in that fixed width.
func keyFieldWidth(col *column.Column) uint32 {
	if col.GetType() == types.Char {
		return 4 + col.Length()
	}
	return col.Length()
}

// keyFieldOffset is the fixed byte offset of colIndex within a key
// schema's field section (after the null bitmap).
func keyFieldOffset(keySchema *schema.Schema, colIndex uint32) uint32 {
	var offset uint32
	for i := uint32(0); i < colIndex; i++ {
		offset += keyFieldWidth(keySchema.GetColumn(i))
	}
	return offset
}

// keyFieldsWidth is the total field-section width of a key schema.
func keyFieldsWidth(keySchema *schema.Schema) uint32 {
	return keyFieldOffset(keySchema, keySchema.GetColumnCount())
}

// NaturalKeySize is the unpadded byte width a key schema's rows
// serialize to: a null bitmap plus each column's fixed field width,
// where a CHAR column's width includes its own u32 length prefix.
func NaturalKeySize(keySchema *schema.Schema) uint32 {
	return keySchema.NullBitmapSize() + keyFieldsWidth(keySchema)
}

// EncodeKey serializes values (in key-schema column order) into a Key
// padded to keySize bytes.
func EncodeKey(values []types.Value, keySchema *schema.Schema, keySize uint32) Key {
	row := indexRowFromValues(values, keySchema)
	buf := make(Key, keySize)
	copy(buf, row)
	return buf
}

// DecodeValue reads back column colIndex from an encoded key.
func DecodeValue(key Key, keySchema *schema.Schema, colIndex uint32) types.Value {
	bitmapSize := keySchema.NullBitmapSize()
	col := keySchema.GetColumn(colIndex)
	offset := bitmapSize + keyFieldOffset(keySchema, colIndex)
	v, _ := types.DeserializeValue(key[offset:], col.GetType(), col.Length())
	return v
}

func indexRowFromValues(values []types.Value, keySchema *schema.Schema) []byte {
	bitmapSize := keySchema.NullBitmapSize()
	out := make([]byte, bitmapSize+keyFieldsWidth(keySchema))
	for i := uint32(0); i < keySchema.GetColumnCount(); i++ {
		offset := bitmapSize + keyFieldOffset(keySchema, i)
		copy(out[offset:], values[i].Serialize())
	}
	return out
}

// NewComparator builds a Comparator over keySchema's columns in order,
// stopping at the first column whose values differ.
func NewComparator(keySchema *schema.Schema) Comparator {
	return func(a, b Key) int {
		for i := uint32(0); i < keySchema.GetColumnCount(); i++ {
			va := DecodeValue(a, keySchema, i)
			vb := DecodeValue(b, keySchema, i)
			if va.CompareLessThan(vb) {
				return -1
			}
			if va.CompareGreaterThan(vb) {
				return 1
			}
		}
		return 0
	}
}
