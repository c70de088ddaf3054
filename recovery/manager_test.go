package recovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryogrid/minisql/storage/disk"
	"github.com/ryogrid/minisql/types"
)

// TestRedoUndoScenario mirrors the worked example: BEGIN t1, INSERT t1
// (a,1), INSERT t1 (b,2), COMMIT t1, BEGIN t2, UPDATE t2 (a,1)->(a,9),
// INSERT t2 (c,3), with no COMMIT for t2. Redo should reflect every
// record; undo should then roll t2 back out, leaving only t1's effects.
func TestRedoUndoScenario(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	lm := NewLogManager(dm)

	t1 := types.TxnID(1)
	t2 := types.TxnID(2)

	prev1 := types.InvalidLSN
	prev1 = lm.AppendLogRecord(NewLogRecordBegin(t1, prev1))
	prev1 = lm.AppendLogRecord(NewLogRecordInsert(t1, prev1, "a", []byte("1")))
	prev1 = lm.AppendLogRecord(NewLogRecordInsert(t1, prev1, "b", []byte("2")))
	prev1 = lm.AppendLogRecord(NewLogRecordCommit(t1, prev1))

	prev2 := types.InvalidLSN
	prev2 = lm.AppendLogRecord(NewLogRecordBegin(t2, prev2))
	prev2 = lm.AppendLogRecord(NewLogRecordUpdate(t2, prev2, "a", []byte("1"), "a", []byte("9")))
	prev2 = lm.AppendLogRecord(NewLogRecordInsert(t2, prev2, "c", []byte("3")))

	store := NewShadowStore()
	mgr := NewManager(lm, store)
	mgr.Init(CheckPoint{CheckpointLSN: 0, ATT: map[types.TxnID]types.LSN{}, Snapshot: map[string][]byte{}})

	mgr.RedoPhase()

	a, ok := store.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("9"), a)
	b, ok := store.Get("b")
	assert.True(t, ok)
	assert.Equal(t, []byte("2"), b)
	c, ok := store.Get("c")
	assert.True(t, ok)
	assert.Equal(t, []byte("3"), c)

	att := mgr.ATT()
	_, t1Active := att[t1]
	assert.False(t, t1Active)
	lastLSN, t2Active := att[t2]
	assert.True(t, t2Active)
	assert.Equal(t, prev2, lastLSN)

	mgr.UndoPhase()

	a, ok = store.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), a)
	b, ok = store.Get("b")
	assert.True(t, ok)
	assert.Equal(t, []byte("2"), b)
	_, ok = store.Get("c")
	assert.False(t, ok)

	assert.Empty(t, mgr.ATT())
}

// TestAbortRunsRollback pins the previously-buggy fallthrough: an ABORT
// record must run rollback before leaving the active transaction table.
// COMMIT without rollback is covered by TestRedoUndoScenario.
func TestAbortRunsRollback(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	lm := NewLogManager(dm)

	txnID := types.TxnID(7)
	prev := types.InvalidLSN
	prev = lm.AppendLogRecord(NewLogRecordBegin(txnID, prev))
	prev = lm.AppendLogRecord(NewLogRecordInsert(txnID, prev, "x", []byte("1")))
	prev = lm.AppendLogRecord(NewLogRecordAbort(txnID, prev))

	store := NewShadowStore()
	mgr := NewManager(lm, store)
	mgr.Init(CheckPoint{CheckpointLSN: 0, ATT: map[types.TxnID]types.LSN{}, Snapshot: map[string][]byte{}})
	mgr.RedoPhase()

	_, ok := store.Get("x")
	assert.False(t, ok, "abort must roll the insert back before dropping the txn from ATT")
	assert.Empty(t, mgr.ATT())
	_ = prev
}
