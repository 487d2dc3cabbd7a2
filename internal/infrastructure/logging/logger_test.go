package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/config"
)

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		name   string
		format string
		check  func(t *testing.T, out string)
	}{
		{"json", "json", func(t *testing.T, out string) {
			var entry map[string]any
			if err := json.Unmarshal([]byte(out), &entry); err != nil {
				t.Fatalf("output is not JSON: %v (%s)", err, out)
			}
			if entry["service"] != "graylogic" || entry["version"] != "1.2.3" {
				t.Errorf("default attrs missing: %v", entry)
			}
		}},
		{"text", "text", func(t *testing.T, out string) {
			if !strings.Contains(out, "msg=hello") || !strings.Contains(out, "service=graylogic") {
				t.Errorf("unexpected text output: %s", out)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: tt.format}, "1.2.3", &buf)
			logger.Info("hello")
			tt.check(t, strings.TrimSpace(buf.String()))
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "warn", BufferSize: 10}, "dev", &buf)

	logger.Info("dropped")
	logger.Warn("kept")

	if strings.Contains(buf.String(), "dropped") {
		t.Error("info record written at warn level")
	}
	entries := logger.Buffer().Entries()
	if len(entries) != 1 || entries[0].Message != "kept" {
		t.Errorf("buffer = %+v", entries)
	}
}

func TestLogger_BufferDisabled(t *testing.T) {
	logger := NewWithWriter(config.LoggingConfig{Level: "info"}, "dev", &bytes.Buffer{})
	if logger.Buffer() != nil {
		t.Error("Buffer() should be nil when buffer_size is 0")
	}
}

func TestLogger_WithSharesBuffer(t *testing.T) {
	logger := NewWithWriter(config.LoggingConfig{Level: "info", BufferSize: 10}, "dev", &bytes.Buffer{})
	child := logger.With("component", "rfsocket")

	child.Error("transmit failed", "error", errors.New("no route"))

	entries := logger.Buffer().Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Level != "ERROR" {
		t.Errorf("Level = %q", e.Level)
	}
	if e.Attrs["component"] != "rfsocket" || e.Attrs["service"] != "graylogic" {
		t.Errorf("Attrs = %v", e.Attrs)
	}
	if e.Attrs["error"] != "no route" {
		t.Errorf("error attr = %v, want string", e.Attrs["error"])
	}
}

func TestBuffer_Wraps(t *testing.T) {
	buf := NewBuffer(3, slog.LevelDebug)
	logger := slog.New(buf)
	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		logger.Info(msg)
	}

	entries := buf.Entries()
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	for i, want := range []string{"c", "d", "e"} {
		if entries[i].Message != want {
			t.Errorf("entries[%d] = %q, want %q", i, entries[i].Message, want)
		}
	}
}

func TestBuffer_Groups(t *testing.T) {
	buf := NewBuffer(5, slog.LevelInfo)
	slog.New(buf).WithGroup("req").Info("served", "status", 200, slog.Group("peer", "ip", "10.0.0.2"))

	attrs := buf.Entries()[0].Attrs
	if attrs["req.status"] != int64(200) || attrs["req.peer.ip"] != "10.0.0.2" {
		t.Errorf("Attrs = %v", attrs)
	}
}

func TestBuffer_ServeHTTP(t *testing.T) {
	buf := NewBuffer(10, slog.LevelDebug)
	logger := slog.New(buf)
	logger.Debug("one")
	logger.Info("two")
	logger.Warn("three")
	logger.Error("four")

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"one", "two", "three", "four"}},
		{"?level=warn", []string{"three", "four"}},
		{"?limit=2", []string{"three", "four"}},
		{"?level=info&limit=1", []string{"four"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			buf.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/log"+tt.query, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var body struct {
				Entries []Entry `json:"entries"`
				Count   int     `json:"count"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body.Count != len(tt.want) || len(body.Entries) != len(tt.want) {
				t.Fatalf("entries = %+v, want %v", body.Entries, tt.want)
			}
			for i, msg := range tt.want {
				if body.Entries[i].Message != msg {
					t.Errorf("entries[%d] = %q, want %q", i, body.Entries[i].Message, msg)
				}
			}
		})
	}
}
