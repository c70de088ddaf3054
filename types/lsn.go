package types

import (
	"bytes"
	"encoding/binary"
)

// LSN is a log sequence number. Kept as its own type rather than a bare
// int32 so page headers and log records can't accidentally mix it up with
// a TxnID or PageID at a call site.
type LSN int32

const InvalidLSN LSN = -1

func (l LSN) Serialize() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, l)
	return buf.Bytes()
}

func NewLSNFromBytes(data []byte) (ret LSN) {
	binary.Read(bytes.NewBuffer(data), binary.LittleEndian, &ret)
	return ret
}
