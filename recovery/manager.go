package recovery

import (
	"go.uber.org/zap"

	"github.com/ryogrid/minisql/common"
	"github.com/ryogrid/minisql/types"
)

// CheckPoint is the recovery manager's starting point: the lsn to redo
// from, the active transaction table as of that lsn, and a snapshot of
// the shadow store taken at the same instant.
type CheckPoint struct {
	CheckpointLSN types.LSN
	ATT           map[types.TxnID]types.LSN
	Snapshot      map[string][]byte
}

// Manager runs the ARIES-style redo/undo passes described for the
// engine's crash recovery: redo replays every record from the
// checkpoint forward against the shadow store, tracking the active
// transaction table as it goes; undo then rolls back whatever
// transactions redo left uncommitted.
type Manager struct {
	logManager    *LogManager
	store         *ShadowStore
	checkpointLSN types.LSN
	att           map[types.TxnID]types.LSN
}

func NewManager(logManager *LogManager, store *ShadowStore) *Manager {
	return &Manager{logManager: logManager, store: store, att: make(map[types.TxnID]types.LSN)}
}

// Init loads a checkpoint, seeding the shadow store and the active
// transaction table recovery resumes from.
func (m *Manager) Init(cp CheckPoint) {
	m.checkpointLSN = cp.CheckpointLSN
	m.att = make(map[types.TxnID]types.LSN, len(cp.ATT))
	for txnID, lsn := range cp.ATT {
		m.att[txnID] = lsn
	}
	for k, v := range cp.Snapshot {
		m.store.Put(k, v)
	}
}

func (m *Manager) Store() *ShadowStore { return m.store }

func (m *Manager) ATT() map[types.TxnID]types.LSN { return m.att }

// RedoPhase iterates every log record from the checkpoint lsn forward,
// replaying its effect on the shadow store and keeping ATT current.
func (m *Manager) RedoPhase() {
	common.ShTrace(common.Info, "recovery redo phase starting", zap.Int32("checkpoint_lsn", int32(m.checkpointLSN)))
	for _, record := range m.logManager.GetLogRecords() {
		if record.LSN < m.checkpointLSN {
			continue
		}
		m.att[record.TxnID] = record.LSN

		switch record.Type {
		case Insert:
			m.store.Put(record.NewKey, record.NewVal)
		case Delete:
			m.store.Erase(record.OldKey)
		case Update:
			m.store.Erase(record.OldKey)
			m.store.Put(record.NewKey, record.NewVal)
		case Commit:
			delete(m.att, record.TxnID)
			common.ShTrace(common.OpTrace, "redo: transaction committed", zap.Int32("txn_id", int32(record.TxnID)), zap.Int32("lsn", int32(record.LSN)))
		case Abort:
			common.ShTrace(common.OpTrace, "redo: transaction aborted, rolling back", zap.Int32("txn_id", int32(record.TxnID)), zap.Int32("lsn", int32(record.LSN)))
			m.rollback(record.TxnID)
			delete(m.att, record.TxnID)
		case Begin, Invalid:
			// ATT update above is the only effect.
		}
	}
	common.ShTrace(common.Info, "recovery redo phase complete", zap.Int("active_txn_count", len(m.att)))
}

// UndoPhase rolls back every transaction redo left active, i.e. every
// transaction whose COMMIT record never appeared in the log.
func (m *Manager) UndoPhase() {
	common.ShTrace(common.Info, "recovery undo phase starting", zap.Int("active_txn_count", len(m.att)))
	for txnID := range m.att {
		m.rollback(txnID)
	}
	m.att = make(map[types.TxnID]types.LSN)
	common.ShTrace(common.Info, "recovery undo phase complete")
}

// rollback walks the prev_lsn chain backward from a transaction's last
// observed lsn, inverting each record's effect on the shadow store. It
// stops at an invalid or unknown lsn, leaving whatever it already undid
// in place.
func (m *Manager) rollback(txnID types.TxnID) {
	lsn, ok := m.att[txnID]
	if !ok {
		return
	}

	for lsn != types.InvalidLSN {
		record, ok := m.logManager.GetRecord(lsn)
		if !ok {
			return
		}

		switch record.Type {
		case Insert:
			m.store.Erase(record.NewKey)
		case Delete:
			m.store.Put(record.OldKey, record.OldVal)
		case Update:
			m.store.Erase(record.NewKey)
			m.store.Put(record.OldKey, record.OldVal)
		}
		common.ShTrace(common.OpTrace, "undo record", zap.Int32("txn_id", int32(txnID)), zap.Int32("lsn", int32(lsn)))

		lsn = record.PrevLSN
	}
}
