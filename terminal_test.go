package psdebug_test

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/creack/pty"
	"pkt.systems/psdebug"
)

func captureTTYOutput(t *testing.T, fn func(*os.File)) string {
	t.Helper()
	master, slave, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(&buf, master)
		close(done)
	}()
	fn(slave)
	_ = slave.Close()
	<-done
	_ = master.Close()
	return buf.String()
}

func hasANSI(s string) bool {
	return strings.Contains(s, "\x1b[")
}

func TestTerminalWriterEnablesColor(t *testing.T) {
	var useColors bool
	out := captureTTYOutput(t, func(tty *os.File) {
		reg := psdebug.NewRegistry(psdebug.Options{Writer: tty, Patterns: "tty"})
		useColors = reg.UseColors()
		reg.New("tty").Print("colour")
	})
	if !useColors {
		t.Fatalf("expected a terminal writer to enable colour")
	}
	if !hasANSI(out) || !strings.Contains(out, "tty") {
		t.Fatalf("expected coloured terminal output, got %q", out)
	}
}

func TestTerminalWriterNoColor(t *testing.T) {
	out := captureTTYOutput(t, func(tty *os.File) {
		reg := psdebug.NewRegistry(psdebug.Options{Writer: tty, Patterns: "tty", NoColor: true})
		reg.New("tty").Print("plain")
	})
	if hasANSI(out) {
		t.Fatalf("did not expect ANSI sequences when NoColor set, got %q", out)
	}
}

func TestPipeWriterIsNotTerminal(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	reg := psdebug.NewRegistry(psdebug.Options{Writer: w})
	if reg.UseColors() {
		t.Fatalf("expected a pipe writer to disable colour")
	}
	reg = psdebug.NewRegistry(psdebug.Options{Writer: w, ForceColor: true})
	if !reg.UseColors() {
		t.Fatalf("expected ForceColor to enable colour on a pipe")
	}
}
