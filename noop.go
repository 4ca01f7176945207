package psdebug

var noopLogger = &Logger{}

// Noop returns a logger that never emits. It is not attached to any registry,
// so Enable and SetEnabled have no effect on it; Extend on it yields more
// no-op loggers.
func Noop() *Logger {
	return noopLogger
}
