package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	mdwlog "github.com/msto63/laplace/foundation/core/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  mdwlog.Level
	}{
		{"trace", mdwlog.LevelTrace},
		{"DEBUG", mdwlog.LevelDebug},
		{"", mdwlog.LevelInfo},
		{"warning", mdwlog.LevelWarn},
		{"error", mdwlog.LevelError},
		{"off", mdwlog.LevelOff},
		{"loud", mdwlog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LoggerConfig{ServiceName: "laplace", Level: "debug", Format: "json", Output: &buf})
	l.Debug("solved", mdwlog.Fields{"k": 3})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %q", buf.String())
	}
	if entry["message"] != "solved" {
		t.Errorf("entry = %v", entry)
	}
}

func TestKeyValueLogger(t *testing.T) {
	var buf, extra bytes.Buffer
	l := Wrap(NewLogger(LoggerConfig{
		ServiceName:       "grpc",
		Level:             "info",
		Format:            "logfmt",
		Output:            &buf,
		AdditionalOutputs: []io.Writer{&extra},
	}))

	l.Info("gRPC request", "method", "/laplace.v1.Laplace/Compute", "status", "OK", 42)
	l.Debug("hidden", "k", 1)

	out := buf.String()
	if !strings.Contains(out, `method="/laplace.v1.Laplace/Compute"`) || !strings.Contains(out, `status="OK"`) {
		t.Errorf("missing fields in %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line logged at info level: %q", out)
	}
	if extra.String() != out {
		t.Errorf("additional output got %q, want %q", extra.String(), out)
	}

	quiet := l.WithLevel("error")
	buf.Reset()
	quiet.Warn("dropped")
	if buf.Len() != 0 {
		t.Errorf("warn logged at error level: %q", buf.String())
	}
}

func TestConfigureDefaults(t *testing.T) {
	var buf bytes.Buffer
	Configure("warn", "text", &buf)
	defer Configure("info", "text", nil)

	l := New("store")
	l.Info("skipped")
	l.Warn("seed rejected", "k", 4)
	if strings.Contains(buf.String(), "skipped") || !strings.Contains(buf.String(), "seed rejected") {
		t.Errorf("output = %q", buf.String())
	}
	if cfg := DefaultLoggerConfig("x"); cfg.ServiceName != "x" || cfg.Level != "warn" {
		t.Errorf("DefaultLoggerConfig = %+v", cfg)
	}
}
