package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "unknown", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
	}

	for _, tc := range cases {
		got := parseLogLevel(tc.in)
		if got != tc.want {
			t.Fatalf("parseLogLevel(%q)=%v want=%v", tc.in, got, tc.want)
		}
	}
}

func TestNewLogHandler_Formats(t *testing.T) {
	var buf bytes.Buffer
	slog.New(newLogHandler(&buf, "info", "json")).Info("server.start", "addr", ":8080")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("json handler output %q: %v", buf.String(), err)
	}
	if rec["msg"] != "server.start" || rec["addr"] != ":8080" {
		t.Fatalf("unexpected record: %v", rec)
	}

	buf.Reset()
	t.Setenv("NO_COLOR", "1")
	log := slog.New(newLogHandler(&buf, "warn", "pretty"))
	log.Info("dropped")
	log.Warn("auth.login.throttle_reset.fail", "err", "boom")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info record passed warn level: %q", out)
	}
	if !strings.Contains(out, "lvl=[WARN]") || !strings.Contains(out, "err=boom") {
		t.Fatalf("unexpected pretty output: %q", out)
	}
}
