package psdebug_test

import (
	"bytes"
	"sync"
	"time"

	"pkt.systems/psdebug"
	"pkt.systems/psdebug/ansi"
)

// stepClock returns start on the first call and advances by step on every
// call after that.
type stepClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

func newStepClock(start time.Time, step time.Duration) *stepClock {
	return &stepClock{next: start, step: step}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.step)
	return now
}

// ansiSingle pins every namespace to cyan so colour output is predictable.
var ansiSingle = ansi.Palette{Name: "single", Colors: []int{6}}

var testEpoch = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// newPlainRegistry builds a colourless, dateless registry writing to buf.
func newPlainRegistry(buf *bytes.Buffer, patterns string) *psdebug.Registry {
	return psdebug.NewRegistry(psdebug.Options{
		Writer:   buf,
		Patterns: patterns,
		NoColor:  true,
		HideDate: true,
		Clock:    newStepClock(testEpoch, 0).Now,
	})
}

// recorder is a LogFunc that keeps every line it receives.
type recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *recorder) log(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

func (r *recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}
