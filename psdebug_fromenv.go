package psdebug

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"pkt.systems/psdebug/ansi"
)

// EnvOption customizes RegistryFromEnv behavior.
type EnvOption func(*envConfig)

type envConfig struct {
	prefix  string
	options Options
	writer  io.Writer
}

// WithEnvPrefix overrides the environment variable prefix used by
// RegistryFromEnv. The pattern list is read from the prefix itself and the
// settings from prefix + "_" + NAME.
func WithEnvPrefix(prefix string) EnvOption {
	return func(cfg *envConfig) {
		cfg.prefix = prefix
	}
}

// WithEnvOptions seeds RegistryFromEnv with explicit Options values.
func WithEnvOptions(opts Options) EnvOption {
	return func(cfg *envConfig) {
		cfg.options = opts
	}
}

// WithEnvWriter seeds RegistryFromEnv with a default output writer.
func WithEnvWriter(w io.Writer) EnvOption {
	return func(cfg *envConfig) {
		cfg.writer = w
	}
}

// RegistryFromEnv builds a Registry from environment variables, allowing
// optional seeded options and writers. Environment values override supplied
// options.
//
// Recognised variables are: DEBUG (the pattern list), DEBUG_COLORS,
// DEBUG_HIDE_DATE, DEBUG_DEPTH, DEBUG_PALETTE (basic|extended|auto) and
// DEBUG_OUTPUT, plus NO_COLOR. DEBUG_OUTPUT accepts stdout, stderr, default,
// a file path, or stdout+/stderr+/default+<path> to tee.
func RegistryFromEnv(opts ...EnvOption) *Registry {
	cfg := envConfig{prefix: "DEBUG"}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	resolved := cfg.options
	baseWriter := cfg.writer
	if baseWriter == nil {
		baseWriter = resolved.Writer
	}
	if baseWriter == nil {
		baseWriter = os.Stderr
	}
	prefix := cfg.prefix
	if value, ok := lookupEnv(prefix, ""); ok {
		resolved.Patterns = value
	}
	if value, ok := os.LookupEnv("NO_COLOR"); ok && value != "" {
		resolved.NoColor = true
		resolved.ForceColor = false
	}
	if value, ok := lookupEnv(prefix, "COLORS"); ok {
		if parsed, ok := parseEnvBool(value); ok {
			resolved.NoColor = !parsed
			resolved.ForceColor = parsed
		}
	}
	if value, ok := lookupEnv(prefix, "HIDE_DATE"); ok {
		if parsed, ok := parseEnvBool(value); ok {
			resolved.HideDate = parsed
		}
	}
	if value, ok := lookupEnv(prefix, "DEPTH"); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && parsed > 0 {
			resolved.InspectDepth = parsed
		}
	}
	if value, ok := lookupEnv(prefix, "PALETTE"); ok {
		resolved.Palette = ansi.PaletteByName(value)
	}
	outputValue, hasOutput := lookupEnv(prefix, "OUTPUT")
	writer := baseWriter
	var outputErr error
	if hasOutput {
		if w, err := writerFromEnvOutput(outputValue, baseWriter); err != nil {
			outputErr = err
		} else {
			writer = w
		}
	}
	resolved.Writer = writer
	r := NewRegistry(resolved)
	if outputErr != nil {
		r.err = outputErr
		reportOutputError(baseWriter, outputErr, r.now())
	}
	return r
}

// reportOutputError writes one plain psdebug line to w describing err.
func reportOutputError(w io.Writer, err error, now time.Time) {
	line := decorate("psdebug", "debug output unavailable: "+err.Error(), 0, 0, false, false, now)
	_, _ = io.WriteString(w, line+"\n")
}

func lookupEnv(prefix, key string) (string, bool) {
	switch {
	case key == "":
		return os.LookupEnv(prefix)
	case prefix == "":
		return os.LookupEnv(key)
	}
	return os.LookupEnv(prefix + "_" + key)
}

func parseEnvBool(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "on", "enabled":
		return true, true
	case "no", "off", "disabled", "none", "null":
		return false, true
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, false
	}
	return parsed, true
}

func writerFromEnvOutput(value string, base io.Writer) (io.Writer, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return base, nil
	}
	if base == nil {
		base = io.Discard
	}
	lowered := strings.ToLower(trimmed)
	switch lowered {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	case "default":
		return base, nil
	}
	for _, tee := range []struct {
		prefix string
		dst    io.Writer
	}{
		{"stdout+", os.Stdout},
		{"stderr+", os.Stderr},
		{"default+", base},
	} {
		if !strings.HasPrefix(lowered, tee.prefix) {
			continue
		}
		path := strings.TrimSpace(trimmed[len(tee.prefix):])
		if path == "" {
			return tee.dst, nil
		}
		file, err := openOutputFile(path)
		if err != nil {
			return base, err
		}
		return newOwnedOutput(newTeeWriter(tee.dst, file), file), nil
	}
	file, err := openOutputFile(trimmed)
	if err != nil {
		return base, err
	}
	return newOwnedOutput(file, file), nil
}

func openOutputFile(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open debug output %q", path)
	}
	return file, nil
}
