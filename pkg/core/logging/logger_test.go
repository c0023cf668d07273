package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestToFields(t *testing.T) {
	if fields := toFields(); fields != nil {
		t.Errorf("toFields() = %v, want nil", fields)
	}

	fields := toFields("k", 3, "norm", "absolute", "orphan")
	if len(fields) != 2 || fields["k"] != 3 || fields["norm"] != "absolute" {
		t.Errorf("toFields = %v", fields)
	}

	if fields := toFields(7, "ratio"); len(fields) != 0 {
		t.Errorf("non-string key kept: %v", fields)
	}
}

func TestWithLevelKeepsName(t *testing.T) {
	var buf bytes.Buffer
	l := Wrap(NewLogger(LoggerConfig{ServiceName: "solver", Level: "error", Format: "text", Output: &buf}))

	verbose := l.WithLevel("debug")
	if verbose.name != "solver" {
		t.Errorf("name = %q, want solver", verbose.name)
	}
	verbose.Debug("iteration", "n", 4, "max_error", 1e-6)
	if !strings.Contains(buf.String(), "iteration") {
		t.Errorf("debug line missing at debug level: %q", buf.String())
	}

	buf.Reset()
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("original logger level changed: %q", buf.String())
	}
}

func BenchmarkLoggerDisabled(b *testing.B) {
	l := Wrap(NewLogger(LoggerConfig{ServiceName: "bench", Level: "off", Output: &bytes.Buffer{}}))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Debug("iteration", "n", i)
	}
}
