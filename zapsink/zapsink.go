// Package zapsink routes psdebug output into a zap.Logger, for programs that
// already ship their logs through zap and want debug namespaces to land in the
// same stream. Registries feeding zap should be built with NoColor so entries
// carry no escape sequences.
package zapsink

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"pkt.systems/psdebug"
)

// NamespaceKey is the field Attach adds to every entry.
const NamespaceKey = "namespace"

// LogFunc returns a psdebug.LogFunc writing each line to logger at debug
// level.
func LogFunc(logger *zap.Logger) psdebug.LogFunc {
	return LogFuncAt(logger, zapcore.DebugLevel)
}

// LogFuncAt is LogFunc with an explicit zap level.
func LogFuncAt(logger *zap.Logger, level zapcore.Level, fields ...zap.Field) psdebug.LogFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(line string) {
		if ce := logger.Check(level, line); ce != nil {
			ce.Write(fields...)
		}
	}
}

// Attach replaces l's transport with logger, tagging every entry with l's
// namespace.
func Attach(l *psdebug.Logger, logger *zap.Logger) {
	if l == nil {
		return
	}
	l.SetLogFunc(LogFuncAt(logger, zapcore.DebugLevel, zap.String(NamespaceKey, l.Namespace())))
}
