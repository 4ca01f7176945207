package psdebug

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
	"weak"

	"pkt.systems/psdebug/ansi"
)

// Options controls how a Registry renders and where it writes.
type Options struct {
	// Writer receives one line per emitted message. Defaults to os.Stderr.
	Writer io.Writer

	// Patterns is the initial enable/skip pattern list, e.g. "app:*,-app:db".
	Patterns string

	// NoColor forces colour escape codes off regardless of terminal detection.
	NoColor bool

	// ForceColor emits colour even when Writer is not a terminal.
	ForceColor bool

	// HideDate drops the ISO-8601 timestamp prefix in plain (non-colour)
	// output.
	HideDate bool

	// Palette selects the namespace colours. When nil, a terminal writer gets
	// a palette matching TERM/COLORTERM and anything else gets ansi.Default().
	Palette *ansi.Palette

	// InspectDepth bounds %o and %O inspection. Defaults to
	// DefaultInspectDepth.
	InspectDepth int

	// Formatters adds or overrides placeholder verbs.
	Formatters map[byte]VerbFunc

	// Clock overrides time.Now, mainly for tests.
	Clock func() time.Time
}

// Registry owns the compiled pattern set and every Logger it has handed out.
// Enable and Disable refresh the enabled flag of all of them, so loggers
// created before a pattern change follow it.
type Registry struct {
	mu        sync.Mutex
	set       MatcherSet
	cache     map[string]*Logger
	instances []weak.Pointer[Logger]

	format    *formatter
	sink      *lineSink
	writer    io.Writer
	useColors bool
	hideDate  bool
	palette   *ansi.Palette
	now       func() time.Time
	err       error
}

// NewRegistry builds a Registry from opts.
func NewRegistry(opts Options) *Registry {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	tty := isTerminal(w)
	useColors := !opts.NoColor && (opts.ForceColor || tty)
	palette := opts.Palette
	if palette.Len() == 0 {
		if useColors && tty {
			palette = ansi.PaletteForTerm(os.Getenv("TERM"), os.Getenv("COLORTERM"))
		} else {
			palette = ansi.Default()
		}
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	r := &Registry{
		set:       Compile(opts.Patterns),
		cache:     make(map[string]*Logger),
		format:    newFormatter(opts.InspectDepth),
		sink:      newLineSink(w),
		writer:    w,
		useColors: useColors,
		hideDate:  opts.HideDate,
		palette:   palette,
		now:       now,
	}
	for verb, fn := range opts.Formatters {
		r.format.setVerb(verb, fn)
	}
	return r
}

// New returns the Logger for namespace, creating it on first use. Non-string
// namespaces are converted with their String/Error method or fmt.Sprint.
//
// Loggers made by Extend are not cached, so New("a:b") and New("a").Extend("b")
// are distinct loggers with their own LogFunc and elapsed state.
func (r *Registry) New(namespace any) *Logger {
	ns := stringify(namespace)
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.cache[ns]; ok {
		return l
	}
	l := r.newLoggerLocked(ns)
	l.enabled.Store(r.set.Enabled(ns))
	r.cache[ns] = l
	r.instances = append(r.instances, weak.Make(l))
	return l
}

func (r *Registry) newLoggerLocked(namespace string) *Logger {
	return &Logger{
		namespace: namespace,
		registry:  r,
		color:     selectColor(namespace, r.palette),
	}
}

// adopt registers a child built by Extend so pattern changes reach it. The
// parent's enabled flag is copied under the same lock, so no refresh can slip
// between the copy and the registration. Adopted loggers are tracked weakly
// and never cached: once the caller drops them the next refresh forgets them.
func (r *Registry) adopt(child, parent *Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	child.enabled.Store(parent.enabled.Load())
	r.instances = append(r.instances, weak.Make(child))
}

// Enable compiles patterns, replaces the current pattern set with it and
// recomputes the enabled flag of every logger created so far.
func (r *Registry) Enable(patterns any) {
	set := Compile(stringify(patterns))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set = set
	r.refreshLocked()
}

// Disable clears the pattern set, disabling every logger, and returns the
// previous patterns in a form Enable accepts.
func (r *Registry) Disable() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.set.String()
	r.set = MatcherSet{}
	r.refreshLocked()
	return prev
}

func (r *Registry) refreshLocked() {
	live := r.instances[:0]
	for _, wp := range r.instances {
		l := wp.Value()
		if l == nil {
			continue
		}
		l.enabled.Store(r.set.Enabled(l.namespace))
		live = append(live, wp)
	}
	clear(r.instances[len(live):])
	r.instances = live
}

// Enabled reports whether namespace is enabled under the current patterns.
// It does not create a Logger.
func (r *Registry) Enabled(namespace any) bool {
	ns := stringify(namespace)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set.Enabled(ns)
}

// Patterns returns the current compiled pattern set.
func (r *Registry) Patterns() MatcherSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set
}

// Names returns the current enable patterns.
func (r *Registry) Names() []string {
	return r.Patterns().Names()
}

// Skips returns the current skip patterns without their '-' prefix.
func (r *Registry) Skips() []string {
	return r.Patterns().Skips()
}

// SetFormatter installs fn as the renderer for %<verb>. A nil fn removes the
// verb; '%' is reserved for the literal percent sign and cannot be replaced.
func (r *Registry) SetFormatter(verb byte, fn VerbFunc) {
	r.format.setVerb(verb, fn)
}

// UseColors reports whether the registry renders ANSI colour.
func (r *Registry) UseColors() bool {
	return r.useColors
}

// WriteFailures returns how many lines the default transport failed to write
// in full.
func (r *Registry) WriteFailures() uint64 {
	return r.sink.failures.Load()
}

// Err returns the error encountered while opening the configured output, if
// any. The registry falls back to its base writer in that case.
func (r *Registry) Err() error {
	return r.err
}

// Close releases an output file the registry opened itself (see
// RegistryFromEnv). Writers supplied by the caller are left open.
func (r *Registry) Close() error {
	return closeOutput(r.writer)
}

func (r *Registry) render(l *Logger, args []any, elapsed time.Duration, now time.Time) string {
	msg := r.format.message(args)
	return decorate(l.namespace, msg, l.color, elapsed, r.useColors, r.hideDate, now)
}

// stringify is the single conversion point for namespace and pattern
// arguments that are not already strings.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}
	return fmt.Sprint(v)
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return RegistryFromEnv()
})

// Default returns the process-wide registry, configured from the DEBUG
// environment variables on first use.
func Default() *Registry {
	return defaultRegistry()
}

// New returns the Logger for namespace from the default registry.
func New(namespace any) *Logger {
	return Default().New(namespace)
}

// Enable replaces the default registry's patterns.
func Enable(patterns any) {
	Default().Enable(patterns)
}

// Disable clears the default registry's patterns and returns the previous
// ones.
func Disable() string {
	return Default().Disable()
}

// Enabled reports whether namespace is enabled in the default registry.
func Enabled(namespace any) bool {
	return Default().Enabled(namespace)
}

// Names returns the default registry's enable patterns.
func Names() []string {
	return Default().Names()
}

// Skips returns the default registry's skip patterns.
func Skips() []string {
	return Default().Skips()
}
