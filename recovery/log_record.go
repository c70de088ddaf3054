// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package recovery

import "github.com/ryogrid/minisql/types"

// LogRecordType is the taxonomy the recovery manager's redo/undo phases
// switch on. It intentionally collapses the teacher's page-physical split
// (MARKDELETE/APPLYDELETE/ROLLBACKDELETE/NEWPAGE/UPDATE/INSERT) into the
// logical set the shadow-store replay operates over: a delete is one
// record regardless of which TablePage call produced it, and applying or
// rolling back a mark is bookkeeping the table page does locally rather
// than a separately-logged event.
type LogRecordType int32

const (
	Invalid LogRecordType = iota
	Insert
	Delete
	Update
	Begin
	Commit
	Abort
)

func (t LogRecordType) String() string {
	switch t {
	case Insert:
		return "INSERT"
	case Delete:
		return "DELETE"
	case Update:
		return "UPDATE"
	case Begin:
		return "BEGIN"
	case Commit:
		return "COMMIT"
	case Abort:
		return "ABORT"
	default:
		return "INVALID"
	}
}

// LogRecord is one WAL entry. OldKey/OldVal describe the pre-image a
// DELETE or UPDATE must restore on undo; NewKey/NewVal describe the
// post-image an INSERT or UPDATE must reapply on redo. A table-page call
// site stringifies the affected RID as the key and the row's serialized
// bytes as the value; an index or catalog caller may log at whatever
// granularity its own key space uses.
type LogRecord struct {
	LSN     types.LSN
	PrevLSN types.LSN
	TxnID   types.TxnID
	Type    LogRecordType
	OldKey  string
	OldVal  []byte
	NewKey  string
	NewVal  []byte
}

func NewLogRecordBegin(txnID types.TxnID, prevLSN types.LSN) *LogRecord {
	return &LogRecord{PrevLSN: prevLSN, TxnID: txnID, Type: Begin}
}

func NewLogRecordCommit(txnID types.TxnID, prevLSN types.LSN) *LogRecord {
	return &LogRecord{PrevLSN: prevLSN, TxnID: txnID, Type: Commit}
}

func NewLogRecordAbort(txnID types.TxnID, prevLSN types.LSN) *LogRecord {
	return &LogRecord{PrevLSN: prevLSN, TxnID: txnID, Type: Abort}
}

func NewLogRecordInsert(txnID types.TxnID, prevLSN types.LSN, newKey string, newVal []byte) *LogRecord {
	return &LogRecord{PrevLSN: prevLSN, TxnID: txnID, Type: Insert, NewKey: newKey, NewVal: newVal}
}

func NewLogRecordDelete(txnID types.TxnID, prevLSN types.LSN, oldKey string, oldVal []byte) *LogRecord {
	return &LogRecord{PrevLSN: prevLSN, TxnID: txnID, Type: Delete, OldKey: oldKey, OldVal: oldVal}
}

func NewLogRecordUpdate(txnID types.TxnID, prevLSN types.LSN, oldKey string, oldVal []byte, newKey string, newVal []byte) *LogRecord {
	return &LogRecord{PrevLSN: prevLSN, TxnID: txnID, Type: Update, OldKey: oldKey, OldVal: oldVal, NewKey: newKey, NewVal: newVal}
}
