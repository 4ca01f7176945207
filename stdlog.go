package psdebug

import (
	"bytes"
	"log"
)

// StdLogger wraps logger into a stdlib *log.Logger. Each non-empty line
// written through it becomes one Print call, so the namespace filter and the
// elapsed suffix apply as usual.
func StdLogger(logger *Logger) *log.Logger {
	if logger == nil {
		logger = Noop()
	}
	return log.New(loggerWriter{logger: logger}, "", 0)
}

type loggerWriter struct {
	logger *Logger
}

func (w loggerWriter) Write(p []byte) (int, error) {
	if len(p) == 0 || !w.logger.Enabled() {
		return len(p), nil
	}
	for line := range bytes.SplitSeq(p, []byte{'\n'}) {
		line = bytes.TrimRight(line, "\r")
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		w.logger.Print("%s", string(line))
	}
	return len(p), nil
}
