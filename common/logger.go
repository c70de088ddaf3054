package common

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel gates the verbose per-operation tracing calls scattered through
// the kernel (buffer pool fetches, page latches, tree descents). It is
// independent from zap's own level, which governs the engine's structured
// diagnostic log.
type LogLevel int32

const (
	DebugDetail LogLevel = 1 << iota
	Debug
	OpTrace
	Info
	Warn
	ErrorLevel
)

// TraceLevelSetting controls which ShTrace calls actually emit. Tests leave
// it at zero; a developer chasing a specific bug flips on OpTrace or Debug.
var TraceLevelSetting LogLevel = 0

var base *zap.Logger = newDefaultLogger()

func newDefaultLogger() *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(enc),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   "minisql.engine.log",
			MaxSize:    32, // megabytes
			MaxBackups: 3,
			MaxAge:     7, // days
		}),
		zap.NewAtomicLevelAt(zapcore.InfoLevel),
	)
	return zap.New(core)
}

// L returns the package-level structured logger. Kernel components pull it
// once at construction time and attach fields for their own identity
// (page_id, txn_id, pool_size, ...).
func L() *zap.Logger { return base }

// SetLogger overrides the package-level logger, used by tests that want logs
// routed to a buffer instead of the rotating file.
func SetLogger(l *zap.Logger) { base = l }

// ShTrace is the gated per-operation tracer ported from the teacher's
// ShPrintf: cheap to call on the hot path since the level check happens
// before any formatting or field allocation.
func ShTrace(level LogLevel, msg string, fields ...zap.Field) {
	if level&TraceLevelSetting == 0 {
		return
	}
	base.Info(msg, fields...)
}
