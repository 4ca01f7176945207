package psdebug

import (
	"io"
	"sync"
	"sync/atomic"
)

const (
	lineBufferDefaultCap = 256
	lineBufferMaxCap     = 64 << 10
)

var lineBufferPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, lineBufferDefaultCap)
		return &buf
	},
}

// lineSink is the default transport: every line is written with a trailing
// newline in a single Write call so concurrent loggers never interleave.
type lineSink struct {
	mu       sync.Mutex
	dst      io.Writer
	failures atomic.Uint64
}

func newLineSink(dst io.Writer) *lineSink {
	if dst == nil {
		dst = io.Discard
	}
	return &lineSink{dst: dst}
}

func (s *lineSink) write(line string) {
	bp := lineBufferPool.Get().(*[]byte)
	buf := append((*bp)[:0], line...)
	buf = append(buf, '\n')

	s.mu.Lock()
	n, err := s.dst.Write(buf)
	s.mu.Unlock()
	if err != nil || n != len(buf) {
		s.failures.Add(1)
	}

	if cap(buf) > lineBufferMaxCap {
		buf = make([]byte, 0, lineBufferDefaultCap)
	}
	*bp = buf[:0]
	lineBufferPool.Put(bp)
}
