package psdebug_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"pkt.systems/psdebug"
)

func TestDisabledLoggerNeverCallsLogFunc(t *testing.T) {
	reg := newPlainRegistry(&bytes.Buffer{}, "other")
	l := reg.New("quiet")

	calls := 0
	l.SetLogFunc(func(string) { calls++ })
	l.Print("a", 1, struct{}{})
	l.Printf("%s %d", "b", 2)
	l.Print()
	if calls != 0 {
		t.Fatalf("expected no LogFunc calls, got %d", calls)
	}
}

type panicStringer struct{}

func (panicStringer) String() string { panic("formatted while disabled") }

func TestDisabledLoggerSkipsFormatting(t *testing.T) {
	reg := newPlainRegistry(&bytes.Buffer{}, "")
	l := reg.New("lazy")
	l.Printf("%s", panicStringer{})
	l.Print(panicStringer{})
}

func TestEnableAfterCreationStartsEmitting(t *testing.T) {
	reg := newPlainRegistry(&bytes.Buffer{}, "")
	reg.Disable()

	rec := &recorder{}
	foo := reg.New("foo")
	foo.SetLogFunc(rec.log)
	foo.Print("first")
	if len(rec.Lines()) != 0 {
		t.Fatalf("expected disabled logger to stay silent")
	}

	reg.Enable("foo")
	foo.Print("second")
	lines := rec.Lines()
	if len(lines) != 1 || lines[0] != "foo second +0ms" {
		t.Fatalf("unexpected lines %q", lines)
	}
}

func TestExtendNamespaces(t *testing.T) {
	reg := newPlainRegistry(&bytes.Buffer{}, "")
	foo := reg.New("foo")

	if got := foo.Extend("bar").Namespace(); got != "foo:bar" {
		t.Fatalf("Extend=%q", got)
	}
	if got := foo.ExtendDelim("bar", "--").Namespace(); got != "foo--bar" {
		t.Fatalf("ExtendDelim(--)=%q", got)
	}
	if got := foo.ExtendDelim("bar", "").Namespace(); got != "foobar" {
		t.Fatalf("ExtendDelim(\"\")=%q", got)
	}
	if got := foo.Extend("bar").Extend("baz").Namespace(); got != "foo:bar:baz" {
		t.Fatalf("nested Extend=%q", got)
	}
}

func TestExtendInheritsLogFunc(t *testing.T) {
	reg := newPlainRegistry(&bytes.Buffer{}, "foo*")
	rec := &recorder{}
	foo := reg.New("foo")
	foo.SetLogFunc(rec.log)

	child := foo.Extend("bar")
	child.Print("from child")
	foo.Print("from parent")

	lines := rec.Lines()
	want := []string{"foo:bar from child +0ms", "foo from parent +0ms"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("lines=%q want %q", lines, want)
	}
}

func TestExtendInheritsEnabledSnapshot(t *testing.T) {
	reg := newPlainRegistry(&bytes.Buffer{}, "foo")
	foo := reg.New("foo")
	child := foo.Extend("bar")
	if !child.Enabled() {
		t.Fatalf("expected child to start with the parent's enabled state")
	}
	if reg.Enabled("foo:bar") {
		t.Fatalf("pattern should not match foo:bar on its own")
	}

	foo.SetEnabled(false)
	if foo.ExtendDelim("x", "").Enabled() {
		t.Fatalf("child should copy the parent's current flag")
	}
}

func TestSetEnabledIsOverriddenByRefresh(t *testing.T) {
	reg := newPlainRegistry(&bytes.Buffer{}, "")
	l := reg.New("manual")
	l.SetEnabled(true)
	if !l.Enabled() {
		t.Fatalf("expected manual override to stick until the next refresh")
	}
	reg.Enable("other")
	if l.Enabled() {
		t.Fatalf("expected refresh to recompute the flag")
	}
}

func TestSetLogFuncNilRestoresRegistryWriter(t *testing.T) {
	var buf bytes.Buffer
	reg := newPlainRegistry(&buf, "*")
	rec := &recorder{}
	l := reg.New("swap")

	l.SetLogFunc(rec.log)
	l.Print("to recorder")
	l.SetLogFunc(nil)
	l.Print("to writer")

	if got := rec.Lines(); len(got) != 1 {
		t.Fatalf("recorder lines=%q", got)
	}
	if got := buf.String(); got != "swap to writer +0ms\n" {
		t.Fatalf("writer output=%q", got)
	}
}

func TestLogFuncPanicPropagates(t *testing.T) {
	reg := newPlainRegistry(&bytes.Buffer{}, "*")
	l := reg.New("boom")
	l.SetLogFunc(func(string) { panic("sink failed") })

	defer func() {
		if r := recover(); r != "sink failed" {
			t.Fatalf("expected sink panic to propagate, got %v", r)
		}
	}()
	l.Print("x")
	t.Fatalf("Print returned after sink panic")
}

func TestElapsedSincePreviousEmission(t *testing.T) {
	var buf bytes.Buffer
	reg := psdebug.NewRegistry(psdebug.Options{
		Writer:   &buf,
		Patterns: "*",
		NoColor:  true,
		HideDate: true,
		Clock:    newStepClock(testEpoch, 1500*time.Millisecond).Now,
	})
	l := reg.New("tick")
	l.Print("one")
	l.Print("two")
	reg.New("other").Print("independent")

	want := "tick one +0ms\ntick two +2s\nother independent +0ms\n"
	if got := buf.String(); got != want {
		t.Fatalf("output=%q want %q", got, want)
	}
}

func TestDisabledCallsDoNotResetElapsed(t *testing.T) {
	rec := &recorder{}
	reg := psdebug.NewRegistry(psdebug.Options{
		Writer:   &bytes.Buffer{},
		Patterns: "*",
		NoColor:  true,
		HideDate: true,
		Clock:    newStepClock(testEpoch, 100*time.Millisecond).Now,
	})
	l := reg.New("gap")
	l.SetLogFunc(rec.log)
	l.Print("a")
	reg.Disable()
	l.Print("dropped")
	reg.Enable("gap")
	l.Print("b")

	lines := rec.Lines()
	if len(lines) != 2 || lines[1] != "gap b +100ms" {
		t.Fatalf("lines=%q", lines)
	}
}

func TestPlainOutputIncludesISOTimestamp(t *testing.T) {
	var buf bytes.Buffer
	reg := psdebug.NewRegistry(psdebug.Options{
		Writer:   &buf,
		Patterns: "*",
		NoColor:  true,
		Clock:    newStepClock(testEpoch.Add(123*time.Millisecond), 0).Now,
	})
	reg.New("ts").Print("hello")
	if got, want := buf.String(), "2024-01-02T15:04:05.123Z ts hello +0ms\n"; got != want {
		t.Fatalf("output=%q want %q", got, want)
	}
}

type stackErr struct{ stack string }

func (e stackErr) Error() string { return "test" }
func (e stackErr) Stack() string { return e.stack }

func TestErrorArgumentUsesStack(t *testing.T) {
	var buf bytes.Buffer
	reg := newPlainRegistry(&buf, "test")
	reg.New("test").Print(stackErr{stack: "Error: test\n    at test:1:1"})

	if got, want := buf.String(), "test Error: test\n    at test:1:1 +0ms\n"; got != want {
		t.Fatalf("output=%q want %q", got, want)
	}
}

func TestErrorArgumentWithTimestamp(t *testing.T) {
	var buf bytes.Buffer
	reg := psdebug.NewRegistry(psdebug.Options{
		Writer:   &buf,
		Patterns: "test",
		NoColor:  true,
		Clock:    newStepClock(testEpoch, 0).Now,
	})
	reg.New("test").Print(stackErr{stack: "Error: test\n    at test:1:1"})

	want := "2024-01-02T15:04:05.000Z test Error: test\n    at test:1:1 +0ms\n"
	if got := buf.String(); got != want {
		t.Fatalf("output=%q want %q", got, want)
	}
}

func TestColorOutputPrefixesEveryLine(t *testing.T) {
	var buf bytes.Buffer
	reg := psdebug.NewRegistry(psdebug.Options{
		Writer:     &buf,
		Patterns:   "*",
		ForceColor: true,
		Palette:    &ansiSingle,
		Clock:      newStepClock(testEpoch, 0).Now,
	})
	reg.New("test").Print(stackErr{stack: "Error: test\n    at test:1:1"})

	prefix := "  \x1b[36;1mtest \x1b[0m"
	want := prefix + "Error: test\n" + prefix + "    at test:1:1 \x1b[36m+0ms\x1b[0m\n"
	if got := buf.String(); got != want {
		t.Fatalf("output=%q want %q", got, want)
	}
}

func TestNoopLogger(t *testing.T) {
	l := psdebug.Noop()
	l.SetEnabled(true)
	if l.Enabled() {
		t.Fatalf("noop logger must stay disabled")
	}
	l.Print("nothing")
	child := l.Extend("child")
	if child.Namespace() != ":child" || child.Enabled() {
		t.Fatalf("unexpected noop child %q enabled=%v", child.Namespace(), child.Enabled())
	}
	child.Print("still nothing")
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *psdebug.Logger
	l.Print("x")
	l.Printf("%d", 1)
	if l.Enabled() || l.Namespace() != "" || l.Extend("a") != nil {
		t.Fatalf("nil logger should behave as disabled")
	}
}

func TestElapsedFollowsMockClock(t *testing.T) {
	mock := clock.NewMock()
	mock.Add(testEpoch.Sub(mock.Now()))

	var buf bytes.Buffer
	reg := psdebug.NewRegistry(psdebug.Options{
		Writer:   &buf,
		Patterns: "mock",
		NoColor:  true,
		Clock:    mock.Now,
	})
	l := reg.New("mock")
	l.Print("start")
	mock.Add(90 * time.Minute)
	l.Print("later")
	mock.Add(36 * time.Hour)
	l.Print("much later")

	want := "2024-01-02T15:04:05.000Z mock start +0ms\n" +
		"2024-01-02T16:34:05.000Z mock later +2h\n" +
		"2024-01-04T04:34:05.000Z mock much later +2d\n"
	if got := buf.String(); got != want {
		t.Fatalf("output=%q want %q", got, want)
	}
}
