// Command psdebug2json converts psdebug output, plain or coloured, into one
// JSON object per message.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"pkt.systems/psdebug"
)

const isoMillis = "2006-01-02T15:04:05.000Z"

type listFlag []string

func (f *listFlag) String() string {
	if f == nil {
		return ""
	}
	return strings.Join(*f, ",")
}

func (f *listFlag) Set(value string) error {
	*f = append(*f, value)
	return nil
}

// record is one decoded message. Messages spanning several lines are joined
// with '\n'.
type record struct {
	ts        string
	namespace string
	msg       string
	elapsed   string
	elapsedMS int64
}

func main() {
	var (
		inputStdin bool
		writeFiles bool
		outDir     string
		filters    listFlag
	)
	flag.BoolVar(&inputStdin, "i", false, "read from stdin")
	flag.BoolVar(&writeFiles, "o", false, "write output files instead of stdout")
	flag.StringVar(&outDir, "outdir", "", "output directory when -o is set")
	flag.Var(&filters, "n", "namespace pattern list, e.g. 'app:*,-app:db' (repeatable)")
	flag.Parse()

	args := flag.Args()
	if inputStdin && len(args) > 0 {
		fatalf("cannot combine -i with input files")
	}
	if !inputStdin && len(args) == 0 {
		fatalf("no input files provided (use -i for stdin)")
	}
	if writeFiles && inputStdin {
		fatalf("-o cannot be used with -i (stdin)")
	}
	if outDir != "" && !writeFiles {
		fatalf("-outdir requires -o")
	}
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			fatalf("create outdir: %v", err)
		}
	}

	filter := newNamespaceFilter(filters)

	if inputStdin {
		if err := processReader(os.Stdin, "stdin", os.Stdout, filter); err != nil {
			fatalf("%v", err)
		}
		return
	}

	for _, path := range args {
		out, err := outputWriter(path, writeFiles, outDir)
		if err != nil {
			fatalf("%v", err)
		}
		if err := processFile(path, out, filter); err != nil {
			_ = closeOutput(out, writeFiles)
			fatalf("%v", err)
		}
		if err := closeOutput(out, writeFiles); err != nil {
			fatalf("%v", err)
		}
	}
}

// namespaceFilter keeps records whose namespace the pattern list enables. No
// patterns keeps everything.
type namespaceFilter struct {
	set psdebug.MatcherSet
}

func newNamespaceFilter(patterns []string) namespaceFilter {
	return namespaceFilter{set: psdebug.Compile(strings.Join(patterns, ","))}
}

func (f namespaceFilter) Matches(rec record) bool {
	if f.set.Empty() {
		return true
	}
	return f.set.Enabled(rec.namespace)
}

func outputWriter(path string, writeFiles bool, outDir string) (io.Writer, error) {
	if !writeFiles {
		return os.Stdout, nil
	}
	outPath := path + ".json"
	if outDir != "" {
		outPath = filepath.Join(outDir, filepath.Base(outPath))
	}
	file, err := os.Create(outPath)
	if err != nil {
		return nil, errors.Wrapf(err, "open output %s", outPath)
	}
	return file, nil
}

func closeOutput(w io.Writer, writeFiles bool) error {
	if !writeFiles {
		return nil
	}
	if c, ok := w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func processFile(path string, out io.Writer, filter namespaceFilter) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer file.Close()
	return processReader(file, path, out, filter)
}

func processReader(r io.Reader, name string, out io.Writer, filter namespaceFilter) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)
	var (
		pending *record
		start   int
	)
	emit := func(rec *record) error {
		if !filter.Matches(*rec) {
			return nil
		}
		if err := writeRecord(out, *rec); err != nil {
			return errors.Wrapf(err, "%s:%d: encode", name, start)
		}
		return nil
	}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripANSI(scanner.Text())
		if pending != nil {
			pending.msg += "\n" + continuation(line, pending.namespace)
		} else {
			if strings.TrimSpace(line) == "" {
				continue
			}
			rec, err := parseHeader(line)
			if err != nil {
				warnf("%s:%d: %v", name, lineNo, err)
				continue
			}
			pending, start = &rec, lineNo
		}
		if !pending.splitElapsed() {
			continue
		}
		if err := emit(pending); err != nil {
			return err
		}
		pending = nil
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "%s: read", name)
	}
	if pending != nil {
		warnf("%s:%d: message has no elapsed suffix", name, start)
		return emit(pending)
	}
	return nil
}

// parseHeader decodes the first line of a message: an optional ISO timestamp,
// the namespace and the start of the message.
func parseHeader(line string) (record, error) {
	rest := strings.TrimLeft(line, " ")
	var rec record
	token, after := splitToken(rest)
	if ts, err := time.Parse(isoMillis, token); err == nil {
		rec.ts = ts.UTC().Format(time.RFC3339Nano)
		token, after = splitToken(after)
	}
	if token == "" {
		return record{}, errors.New("missing namespace")
	}
	rec.namespace = token
	rec.msg = after
	return rec, nil
}

// continuation strips the namespace label coloured output repeats on every
// line of a multi-line message.
func continuation(line, namespace string) string {
	if rest, ok := strings.CutPrefix(line, "  "+namespace+" "); ok {
		return rest
	}
	return line
}

// splitElapsed moves a trailing " +<n><unit>" from msg into the elapsed
// fields and reports whether one was found.
func (r *record) splitElapsed() bool {
	idx := strings.LastIndex(r.msg, "+")
	if idx < 0 || (idx > 0 && r.msg[idx-1] != ' ') {
		return false
	}
	ms, ok := parseElapsed(r.msg[idx+1:])
	if !ok {
		return false
	}
	r.elapsed = r.msg[idx+1:]
	r.elapsedMS = ms
	r.msg = strings.TrimSuffix(r.msg[:idx], " ")
	return true
}

var elapsedUnits = []struct {
	suffix string
	scale  time.Duration
}{
	{"ms", time.Millisecond},
	{"s", time.Second},
	{"m", time.Minute},
	{"h", time.Hour},
	{"d", 24 * time.Hour},
}

// parseElapsed reverses the elapsed humanization. Units coarser than
// milliseconds were rounded when written, so the result is approximate.
func parseElapsed(s string) (int64, bool) {
	for _, unit := range elapsedUnits {
		digits, ok := strings.CutSuffix(s, unit.suffix)
		if !ok || digits == "" {
			continue
		}
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			continue
		}
		return n * int64(unit.scale/time.Millisecond), true
	}
	return 0, false
}

func splitToken(line string) (string, string) {
	line = strings.TrimLeft(line, " ")
	idx := strings.IndexByte(line, ' ')
	if idx < 0 {
		return line, ""
	}
	return line[:idx], line[idx+1:]
}

func stripANSI(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\x1b' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 >= len(s) || s[i+1] != '[' {
			b.WriteByte(s[i])
			continue
		}
		j := i + 1
		for j < len(s) && s[j] != 'm' {
			j++
		}
		if j >= len(s) {
			break
		}
		i = j
	}
	return b.String()
}

// writeRecord writes rec with a fixed key order: ts, ns, msg, elapsed,
// elapsed_ms. ts is omitted when the line carried no timestamp.
func writeRecord(out io.Writer, rec record) error {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	writeKV := func(key string, value any) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		valBytes, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.WriteString(strconv.Quote(key))
		buf.WriteByte(':')
		buf.Write(valBytes)
		return nil
	}
	if rec.ts != "" {
		if err := writeKV("ts", rec.ts); err != nil {
			return err
		}
	}
	for _, kv := range []struct {
		key   string
		value any
	}{
		{"ns", rec.namespace},
		{"msg", rec.msg},
		{"elapsed", rec.elapsed},
		{"elapsed_ms", rec.elapsedMS},
	} {
		if err := writeKV(kv.key, kv.value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	buf.WriteByte('\n')
	_, err := out.Write(buf.Bytes())
	return err
}

func warnf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "psdebug2json: %s\n", fmt.Sprintf(format, args...))
}

func fatalf(format string, args ...any) {
	warnf(format, args...)
	os.Exit(2)
}
