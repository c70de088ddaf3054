// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package tuple

import (
	"bytes"
	"encoding/binary"

	"github.com/ryogrid/minisql/storage/page"
	"github.com/ryogrid/minisql/storage/table/schema"
	"github.com/ryogrid/minisql/types"
)

// TupleSizeOffsetInLogrecord is the byte offset of a row's size field
// within its length-prefixed on-page/on-log encoding.
var TupleSizeOffsetInLogrecord = 4 // payload size info in Bytes

// Row wire format, per spec.md §3/§6:
//
//	u32 field_count
//	u32[ceil(field_count/32)] null_bitmap   (bit i set => column i is null)
//	non-null fields, in column order, concatenated
//
// Each field is its Value's own Serialize() form (INT/FLOAT fixed 4
// bytes, CHAR a u32 length prefix then that many bytes). A null column
// contributes nothing to the field section, so fields aren't at a fixed
// offset: GetValue walks from the start of the field section each call.
type Row struct {
	rid  *page.RID
	size uint32
	data []byte
}

func NewTuple(rid *page.RID, size uint32, data []byte) *Row {
	return &Row{rid, size, data}
}

// NewTupleFromSchema builds a Row from column values with every column
// non-null; NewRow takes an explicit null set.
func NewTupleFromSchema(values []types.Value, schema_ *schema.Schema) *Row {
	return NewRow(values, nil, schema_)
}

// NewRow builds a Row from column values and an explicit null set.
func NewRow(values []types.Value, nulls map[uint32]bool, schema_ *schema.Schema) *Row {
	count := schema_.GetColumnCount()
	bitmap := make([]byte, nullBitmapBytes(count))
	var fields []byte
	for i := uint32(0); i < count; i++ {
		if nulls[i] {
			setNullBit(bitmap, i)
			continue
		}
		fields = append(fields, values[i].Serialize()...)
	}

	data := make([]byte, 4+len(bitmap)+len(fields))
	binary.LittleEndian.PutUint32(data[0:4], count)
	copy(data[4:], bitmap)
	copy(data[4+len(bitmap):], fields)

	return &Row{size: uint32(len(data)), data: data}
}

// nullBitmapBytes is the byte width of a word-granular null bitmap
// covering count columns, per spec.md §3's `u32[ceil(count/32)]` layout.
func nullBitmapBytes(count uint32) uint32 {
	return ((count + 31) / 32) * 4
}

func setNullBit(bitmap []byte, colIndex uint32) {
	word := (colIndex / 32) * 4
	v := binary.LittleEndian.Uint32(bitmap[word:])
	v |= 1 << (colIndex % 32)
	binary.LittleEndian.PutUint32(bitmap[word:], v)
}

func isNullBitSet(bitmap []byte, colIndex uint32) bool {
	word := (colIndex / 32) * 4
	v := binary.LittleEndian.Uint32(bitmap[word:])
	return v&(1<<(colIndex%32)) != 0
}

func (t *Row) fieldCount() uint32 {
	return binary.LittleEndian.Uint32(t.data[0:4])
}

func (t *Row) nullBitmap() []byte {
	return t.data[4 : 4+nullBitmapBytes(t.fieldCount())]
}

func (t *Row) fieldsStart() uint32 {
	return 4 + nullBitmapBytes(t.fieldCount())
}

// IsNull reports whether column colIndex is null in this row.
func (t *Row) IsNull(schema_ *schema.Schema, colIndex uint32) bool {
	return isNullBitSet(t.nullBitmap(), colIndex)
}

// GetValue returns the value stored for colIndex. Callers must check
// IsNull first; the returned Value for a null column is a zero value of
// the column's type, not a sentinel.
func (t *Row) GetValue(schema_ *schema.Schema, colIndex uint32) types.Value {
	bitmap := t.nullBitmap()
	off := t.fieldsStart()
	for i := uint32(0); i < colIndex; i++ {
		if isNullBitSet(bitmap, i) {
			continue
		}
		col := schema_.GetColumn(i)
		_, n := types.DeserializeValue(t.data[off:], col.GetType(), col.Length())
		off += n
	}
	col := schema_.GetColumn(colIndex)
	v, _ := types.DeserializeValue(t.data[off:], col.GetType(), col.Length())
	return v
}

func (t *Row) Size() uint32 {
	return t.size
}

func (t *Row) SetSize(size uint32) {
	t.size = size
}

func (t *Row) Data() []byte {
	return t.data
}

func (t *Row) SetData(data []byte) {
	t.data = data
}

func (t *Row) GetRID() *page.RID {
	return t.rid
}

func (t *Row) SetRID(rid *page.RID) {
	t.rid = rid
}

func (t *Row) SerializeTo(storage []byte) {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, t.size)
	sizeInBytes := buf.Bytes()
	copy(storage, sizeInBytes)
	copy(storage[TupleSizeOffsetInLogrecord:TupleSizeOffsetInLogrecord+int(t.size)], t.data)
}

func (t *Row) DeserializeFrom(storage []byte) {
	buf := bytes.NewBuffer(storage)
	binary.Read(buf, binary.LittleEndian, &t.size)
	t.data = make([]byte, t.size)
	copy(t.data, storage[TupleSizeOffsetInLogrecord:TupleSizeOffsetInLogrecord+int(t.size)])
}

func (t *Row) GetDeepCopy() *Row {
	ret := &Row{size: t.size, data: make([]byte, len(t.data))}
	copy(ret.data, t.data)
	if t.rid != nil {
		copiedRid := page.NewRID(t.rid.GetPageId(), t.rid.GetSlot())
		ret.rid = copiedRid
	}
	return ret
}
