package psdebug

import (
	"sync/atomic"
	"time"
)

// LogFunc receives one fully rendered line, without a trailing newline. A
// panic raised by a LogFunc is not recovered and reaches the caller of Print.
type LogFunc func(line string)

// Logger emits messages for one namespace. Its enabled flag is computed when
// it is created and refreshed by its Registry whenever the patterns change;
// a disabled Logger returns from Print before formatting anything.
type Logger struct {
	namespace string
	registry  *Registry
	color     int
	enabled   atomic.Bool
	prev      atomic.Int64
	log       atomic.Pointer[LogFunc]
}

// Namespace returns the logger's namespace.
func (l *Logger) Namespace() string {
	if l == nil {
		return ""
	}
	return l.namespace
}

// Enabled reports whether Print currently emits.
func (l *Logger) Enabled() bool {
	return l != nil && l.enabled.Load()
}

// SetEnabled overrides the enabled flag until the next Enable or Disable on
// the registry recomputes it.
func (l *Logger) SetEnabled(enabled bool) {
	if l == nil || l.registry == nil {
		return
	}
	l.enabled.Store(enabled)
}

// Color returns the palette colour assigned to the namespace.
func (l *Logger) Color() int {
	if l == nil {
		return 0
	}
	return l.color
}

// LogFunc returns the transport Print hands rendered lines to: the logger's
// own override when set, the registry's writer otherwise.
func (l *Logger) LogFunc() LogFunc {
	if fn := l.log.Load(); fn != nil {
		return *fn
	}
	if l.registry == nil {
		return func(string) {}
	}
	return l.registry.sink.write
}

// SetLogFunc replaces the transport for this logger only. Passing nil
// restores the registry's writer.
func (l *Logger) SetLogFunc(fn LogFunc) {
	if fn == nil {
		l.log.Store(nil)
		return
	}
	l.log.Store(&fn)
}

// Print renders args and hands the line to the logger's LogFunc.
//
// A leading string is a format: %s, %d, %i, %j, %o and %O each consume one
// argument and %% is a literal percent sign. A leading error is replaced by
// its stack trace when it carries one. Any other leading value is rendered
// as-is. Remaining arguments are appended separated by spaces. The line ends
// with the time elapsed since this logger last emitted, in the largest
// fitting unit: +850ms, +2s, +5m, +3h or +1d.
func (l *Logger) Print(args ...any) {
	if l == nil || !l.enabled.Load() {
		return
	}
	r := l.registry
	now := r.now()
	curr := now.UnixNano()
	var elapsed time.Duration
	if prev := l.prev.Swap(curr); prev != 0 {
		elapsed = time.Duration(curr - prev)
	}
	l.LogFunc()(r.render(l, args, elapsed, now))
}

// Printf is Print with an explicit format string.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || !l.enabled.Load() {
		return
	}
	l.Print(append([]any{format}, args...)...)
}

// Extend returns a child logger whose namespace is the receiver's namespace,
// a colon and suffix. A non-string suffix is converted like a namespace.
func (l *Logger) Extend(suffix any) *Logger {
	return l.ExtendDelim(suffix, ":")
}

// ExtendDelim is Extend with an explicit delimiter; an empty delimiter
// concatenates. The child starts with the parent's enabled state and LogFunc
// and is tracked by the registry so later pattern changes apply to it. Children
// are not cached: extending twice with the same suffix yields two loggers.
func (l *Logger) ExtendDelim(suffix any, delimiter string) *Logger {
	if l == nil {
		return nil
	}
	namespace := l.namespace + delimiter + stringify(suffix)
	var child *Logger
	if l.registry == nil {
		child = &Logger{namespace: namespace}
	} else {
		child = &Logger{
			namespace: namespace,
			registry:  l.registry,
			color:     selectColor(namespace, l.registry.palette),
		}
	}
	child.log.Store(l.log.Load())
	if l.registry == nil {
		child.enabled.Store(l.enabled.Load())
		return child
	}
	l.registry.adopt(child, l)
	return child
}
