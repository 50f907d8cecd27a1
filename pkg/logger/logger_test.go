package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestCriticalLevelRendered(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo, "json")

	log.Critical("scheduler: stopped", "reason", "test")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json line, got %q: %v", buf.String(), err)
	}
	if entry["level"] != "CRITICAL" {
		t.Fatalf("expected CRITICAL level, got %v", entry["level"])
	}
}

func TestBusinessErrorSkipsNil(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelDebug, "text")

	log.BusinessError("groups.join: conflict", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected no output for nil error, got %q", buf.String())
	}

	log.BusinessError("groups.join: conflict", errors.New("group full"), "group_id", "g-1")
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "group full") {
		t.Fatalf("expected warn line with error, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		value string
		env   string
		want  slog.Level
	}{
		{"", "development", slog.LevelDebug},
		{"", "production", slog.LevelInfo},
		{"warn", "production", slog.LevelWarn},
		{"fatal", "production", LevelCritical},
		{"nonsense", "production", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.value, tc.env); got != tc.want {
			t.Fatalf("parseLevel(%q, %q): expected %v, got %v", tc.value, tc.env, tc.want, got)
		}
	}
}

func TestParseFormatDefaultsToJSON(t *testing.T) {
	if got := parseFormat("PRETTY"); got != "pretty" {
		t.Fatalf("expected pretty, got %q", got)
	}
	if got := parseFormat("xml"); got != "json" {
		t.Fatalf("expected json fallback, got %q", got)
	}
}

func TestStdLogWritesWarnings(t *testing.T) {
	var buf bytes.Buffer
	std := StdLog(New(&buf, slog.LevelDebug, FormatText))

	std.Printf("http: TLS handshake error from %s", "10.0.0.1")

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "10.0.0.1") {
		t.Fatalf("expected warn line, got %q", out)
	}
}
