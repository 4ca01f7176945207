package psdebug

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"pkt.systems/psdebug/ansi"
)

// VerbFunc renders the argument consumed by one %<verb> placeholder.
type VerbFunc func(arg any) string

// DefaultInspectDepth bounds how deep %o and %O descend into nested values.
const DefaultInspectDepth = 2

const isoMillis = "2006-01-02T15:04:05.000Z"

type formatter struct {
	mu      sync.RWMutex
	verbs   map[byte]VerbFunc
	inspect *spew.ConfigState
}

func newFormatter(depth int) *formatter {
	if depth <= 0 {
		depth = DefaultInspectDepth
	}
	cfg := &spew.ConfigState{
		Indent:                  "  ",
		MaxDepth:                depth,
		DisableCapacities:       true,
		DisablePointerAddresses: true,
		SortKeys:                true,
	}
	f := &formatter{inspect: cfg}
	f.verbs = map[byte]VerbFunc{
		's': formatString,
		'd': formatInteger,
		'i': formatInteger,
		'j': formatJSON,
		'o': func(arg any) string { return cfg.Sprintf("%+v", arg) },
		'O': func(arg any) string { return strings.TrimRight(cfg.Sdump(arg), "\n") },
	}
	return f
}

func (f *formatter) setVerb(verb byte, fn VerbFunc) {
	if verb == '%' {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if fn == nil {
		delete(f.verbs, verb)
		return
	}
	f.verbs[verb] = fn
}

// message renders the argument list without namespace decoration. A leading
// string is scanned for placeholders; a leading error is replaced by its
// stack or message; any other leading value disables scanning. Arguments not
// consumed by a placeholder are appended space separated.
func (f *formatter) message(args []any) string {
	if len(args) == 0 {
		return ""
	}
	var b strings.Builder
	rest := args[1:]
	switch first := args[0].(type) {
	case error:
		b.WriteString(errorText(first))
	case string:
		rest = f.expand(&b, first, rest)
	default:
		b.WriteString(f.value(first))
	}
	for _, arg := range rest {
		b.WriteByte(' ')
		b.WriteString(f.value(arg))
	}
	return b.String()
}

func (f *formatter) expand(b *strings.Builder, format string, args []any) []any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	b.Grow(len(format))
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 == len(format) {
			b.WriteByte(c)
			continue
		}
		verb := format[i+1]
		if verb == '%' {
			b.WriteByte('%')
			i++
			continue
		}
		fn, ok := f.verbs[verb]
		if !ok || len(args) == 0 {
			// Left literal; the verb byte is copied on the next iteration.
			b.WriteByte('%')
			continue
		}
		b.WriteString(fn(args[0]))
		args = args[1:]
		i++
	}
	return args
}

func (f *formatter) value(arg any) string {
	switch v := arg.(type) {
	case string:
		return v
	case error:
		return v.Error()
	}
	return f.inspect.Sprint(arg)
}

// decorate wraps a rendered message with the namespace label and the elapsed
// suffix.
func decorate(namespace, msg string, color int, elapsed time.Duration, useColors, hideDate bool, now time.Time) string {
	var b strings.Builder
	if useColors {
		prefix := "  " + ansi.BoldColor(color) + namespace + " " + ansi.Reset
		b.Grow(len(prefix)*2 + len(msg) + 24)
		b.WriteString(prefix)
		b.WriteString(strings.ReplaceAll(msg, "\n", "\n"+prefix))
		b.WriteByte(' ')
		b.WriteString(ansi.Color(color))
		b.WriteByte('+')
		b.WriteString(humanizeElapsed(elapsed))
		b.WriteString(ansi.Reset)
		return b.String()
	}
	b.Grow(len(isoMillis) + len(namespace) + len(msg) + 12)
	if !hideDate {
		b.WriteString(now.UTC().Format(isoMillis))
		b.WriteByte(' ')
	}
	b.WriteString(namespace)
	b.WriteByte(' ')
	b.WriteString(msg)
	b.WriteString(" +")
	b.WriteString(humanizeElapsed(elapsed))
	return b.String()
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// errorText prefers a preformatted stack, then a pkg/errors stack trace, then
// the plain message.
func errorText(err error) string {
	if s, ok := err.(interface{ Stack() string }); ok {
		if stack := s.Stack(); stack != "" {
			return stack
		}
	}
	if _, ok := err.(stackTracer); ok {
		return fmt.Sprintf("%+v", err)
	}
	return err.Error()
}

func formatString(arg any) string {
	switch v := arg.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return fmt.Sprint(arg)
}

func formatInteger(arg any) string {
	if s, ok := arg.(string); ok {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return "NaN"
		}
		return truncatedFloat(parsed)
	}
	v := reflect.ValueOf(arg)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return truncatedFloat(v.Float())
	case reflect.Bool:
		if v.Bool() {
			return "1"
		}
		return "0"
	}
	return "NaN"
}

func truncatedFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	t := math.Trunc(f)
	if t == 0 {
		return "0"
	}
	return strconv.FormatFloat(t, 'f', -1, 64)
}

func formatJSON(arg any) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(arg); err != nil {
		return "[UnexpectedJSONParseError]: " + err.Error()
	}
	return strings.TrimSuffix(b.String(), "\n")
}

const (
	msSecond = int64(1000)
	msMinute = 60 * msSecond
	msHour   = 60 * msMinute
	msDay    = 24 * msHour
)

// humanizeElapsed renders d in the short "ms" style: 850ms, 2s, 5m, 3h, 1d.
// Larger units round half up.
func humanizeElapsed(d time.Duration) string {
	ms := d.Milliseconds()
	abs := ms
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= msDay:
		return strconv.FormatInt(roundDiv(ms, msDay), 10) + "d"
	case abs >= msHour:
		return strconv.FormatInt(roundDiv(ms, msHour), 10) + "h"
	case abs >= msMinute:
		return strconv.FormatInt(roundDiv(ms, msMinute), 10) + "m"
	case abs >= msSecond:
		return strconv.FormatInt(roundDiv(ms, msSecond), 10) + "s"
	}
	return strconv.FormatInt(ms, 10) + "ms"
}

func roundDiv(n, d int64) int64 {
	return int64(math.Floor(float64(n)/float64(d) + 0.5))
}
