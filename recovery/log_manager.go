// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package recovery

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/ryogrid/minisql/common"
	"github.com/ryogrid/minisql/storage/disk"
	"github.com/ryogrid/minisql/types"
)

// LogManager assigns LSNs and keeps the ordered log the recovery manager
// replays. Unlike the teacher's byte-buffer-and-flush-thread design, the
// log an engine restart replays is the in-memory {lsn -> LogRecord} map
// itself (per the recovery contract); Flush persists a serialized copy
// through the disk manager's log file for durability but is not the path
// recovery reads back from within one process lifetime.
type LogManager struct {
	nextLSN       types.LSN
	persistentLSN types.LSN
	records       map[types.LSN]*LogRecord
	diskManager   disk.DiskManager
	latch         common.ReaderWriterLatch
}

func NewLogManager(diskManager disk.DiskManager) *LogManager {
	return &LogManager{
		nextLSN:       0,
		persistentLSN: types.InvalidLSN,
		records:       make(map[types.LSN]*LogRecord),
		diskManager:   diskManager,
		latch:         common.NewRWLatch(),
	}
}

func (lm *LogManager) IsEnabledLogging() bool { return common.EnableLogging }

func (lm *LogManager) GetNextLSN() types.LSN       { return lm.nextLSN }
func (lm *LogManager) GetPersistentLSN() types.LSN { return lm.persistentLSN }

// AppendLogRecord assigns the record the next LSN, in commit order, and
// stores it. Callers must have already filled in TxnID/PrevLSN/Type/Key/
// OldVal/NewVal.
func (lm *LogManager) AppendLogRecord(record *LogRecord) types.LSN {
	lm.latch.WLock()
	defer lm.latch.WUnlock()

	record.LSN = lm.nextLSN
	lm.nextLSN++
	lm.records[record.LSN] = record
	return record.LSN
}

// GetLogRecords returns the log's records, in LSN order. This is the
// {lsn -> LogRecord} map the recovery manager consumes.
func (lm *LogManager) GetLogRecords() []*LogRecord {
	lm.latch.RLock()
	defer lm.latch.RUnlock()

	lsns := make([]types.LSN, 0, len(lm.records))
	for lsn := range lm.records {
		lsns = append(lsns, lsn)
	}
	sort.Slice(lsns, func(i, j int) bool { return lsns[i] < lsns[j] })

	out := make([]*LogRecord, len(lsns))
	for i, lsn := range lsns {
		out[i] = lm.records[lsn]
	}
	return out
}

func (lm *LogManager) GetRecord(lsn types.LSN) (*LogRecord, bool) {
	lm.latch.RLock()
	defer lm.latch.RUnlock()

	r, ok := lm.records[lsn]
	return r, ok
}

// Flush serializes every record with lsn > the last persisted one and
// writes them through the disk manager's log file. It does not affect
// what RedoPhase/UndoPhase see, since those replay the in-memory log.
func (lm *LogManager) Flush() {
	lm.latch.WLock()
	defer lm.latch.WUnlock()

	buf := new(bytes.Buffer)
	for lsn := lm.persistentLSN + 1; lsn < lm.nextLSN; lsn++ {
		record, ok := lm.records[lsn]
		if !ok {
			continue
		}
		serializeLogRecord(buf, record)
	}
	if buf.Len() > 0 {
		lm.diskManager.WriteLog(buf.Bytes())
	}
	lm.persistentLSN = lm.nextLSN - 1
}

func serializeLogRecord(buf *bytes.Buffer, record *LogRecord) {
	binary.Write(buf, binary.LittleEndian, int32(record.Type))
	binary.Write(buf, binary.LittleEndian, int32(record.LSN))
	binary.Write(buf, binary.LittleEndian, int32(record.PrevLSN))
	binary.Write(buf, binary.LittleEndian, int32(record.TxnID))
	writeLenPrefixed(buf, []byte(record.OldKey))
	writeLenPrefixed(buf, record.OldVal)
	writeLenPrefixed(buf, []byte(record.NewKey))
	writeLenPrefixed(buf, record.NewVal)
}

func writeLenPrefixed(buf *bytes.Buffer, data []byte) {
	binary.Write(buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
}
