// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package types

import (
	"bytes"
	"encoding/binary"
	"strings"
)

// Value is a typed view over a single column's data. Per the kernel's
// scope only INT, FLOAT and fixed-length CHAR(n) are live; the teacher's
// Boolean/Varchar cases are dropped rather than kept unreachable, since
// Value (unlike TypeID) carries per-type storage that would otherwise sit
// dead in every instance.
//
// Nullness is NOT tracked here: a Row's leading null-bitmap is the single
// source of truth for which columns are null, so a Value never needs to
// serialize an is-null flag of its own. A null column's Value is simply
// never read; ToInteger/ToFloat/ToChar on one is a caller bug.
type Value struct {
	valueType TypeID
	integer   int32
	float     float32
	char      string
}

func NewInteger(value int32) Value {
	return Value{valueType: Integer, integer: value}
}

func NewFloat(value float32) Value {
	return Value{valueType: Float, float: value}
}

// NewChar builds a CHAR(size) value, right-padding or truncating value to
// exactly size bytes so every instance of a given column serializes to the
// same fixed width.
func NewChar(value string, size uint32) Value {
	if uint32(len(value)) > size {
		value = value[:size]
	} else if uint32(len(value)) < size {
		value = value + strings.Repeat("\x00", int(size)-len(value))
	}
	return Value{valueType: Char, char: value}
}

// DeserializeValue reads one field back from the front of data, per
// spec.md §6's row/key field format (INT/FLOAT fixed 4 bytes, CHAR a u32
// length prefix then that many bytes), returning the value and the
// number of bytes consumed so a caller can walk a sequence of fields
// without knowing their widths up front. charSize is the column's
// declared CHAR(n) width, used to pad/truncate the decoded string
// consistently; it's ignored for Integer/Float.
func DeserializeValue(data []byte, valueType TypeID, charSize uint32) (Value, uint32) {
	switch valueType {
	case Integer:
		var v int32
		binary.Read(bytes.NewBuffer(data[:4]), binary.LittleEndian, &v)
		return NewInteger(v), 4
	case Float:
		var v float32
		binary.Read(bytes.NewBuffer(data[:4]), binary.LittleEndian, &v)
		return NewFloat(v), 4
	case Char:
		length := binary.LittleEndian.Uint32(data[0:4])
		return NewChar(string(data[4:4+length]), charSize), 4 + length
	default:
		panic("DeserializeValue: unsupported TypeID " + valueType.String())
	}
}

func (v Value) CompareEquals(right Value) bool {
	switch v.valueType {
	case Integer:
		return v.integer == right.integer
	case Float:
		return v.float == right.float
	case Char:
		return v.char == right.char
	}
	return false
}

func (v Value) CompareNotEquals(right Value) bool {
	return !v.CompareEquals(right)
}

func (v Value) CompareGreaterThan(right Value) bool {
	switch v.valueType {
	case Integer:
		return v.integer > right.integer
	case Float:
		return v.float > right.float
	case Char:
		return v.char > right.char
	}
	return false
}

func (v Value) CompareGreaterThanOrEqual(right Value) bool {
	return v.CompareGreaterThan(right) || v.CompareEquals(right)
}

func (v Value) CompareLessThan(right Value) bool {
	switch v.valueType {
	case Integer:
		return v.integer < right.integer
	case Float:
		return v.float < right.float
	case Char:
		return v.char < right.char
	}
	return false
}

func (v Value) CompareLessThanOrEqual(right Value) bool {
	return v.CompareLessThan(right) || v.CompareEquals(right)
}

// Serialize returns v's wire representation, per spec.md §6's row/key
// field format: INT/FLOAT are 4-byte little-endian fixed width; CHAR is
// prefixed with a u32 length so a sequential reader can skip a field it
// doesn't need without knowing the column's declared size up front.
func (v Value) Serialize() []byte {
	switch v.valueType {
	case Integer:
		buf := new(bytes.Buffer)
		binary.Write(buf, binary.LittleEndian, v.integer)
		return buf.Bytes()
	case Float:
		buf := new(bytes.Buffer)
		binary.Write(buf, binary.LittleEndian, v.float)
		return buf.Bytes()
	case Char:
		buf := new(bytes.Buffer)
		binary.Write(buf, binary.LittleEndian, uint32(len(v.char)))
		buf.WriteString(v.char)
		return buf.Bytes()
	}
	return []byte{}
}

// Size returns the number of bytes Serialize produces.
func (v Value) Size() uint32 {
	switch v.valueType {
	case Integer, Float:
		return v.valueType.Size()
	case Char:
		return 4 + uint32(len(v.char))
	}
	panic("Value.Size: unsupported TypeID " + v.valueType.String())
}

func (v Value) ToInteger() int32 { return v.integer }
func (v Value) ToFloat() float32 { return v.float }

// ToChar returns the column value with trailing NUL padding stripped.
func (v Value) ToChar() string {
	return strings.TrimRight(v.char, "\x00")
}

func (v Value) ValueType() TypeID {
	return v.valueType
}

func (v Value) Add(other Value) Value {
	switch v.valueType {
	case Integer:
		return NewInteger(v.integer + other.integer)
	case Float:
		return NewFloat(v.float + other.float)
	default:
		panic("Value.Add is implemented for Integer and Float only")
	}
}

func (v Value) Max(other Value) Value {
	if v.CompareGreaterThanOrEqual(other) {
		return v
	}
	return other
}

func (v Value) Min(other Value) Value {
	if v.CompareLessThanOrEqual(other) {
		return v
	}
	return other
}
