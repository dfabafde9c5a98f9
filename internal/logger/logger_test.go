package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "json")

	l.Info().Str("host", "localhost").Int("port", 25565).Msg("query done")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["host"] != "localhost" || entry["message"] != "query done" {
		t.Errorf("unexpected entry %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("missing timestamp")
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "console")

	l.Warn().Str("kind", "timeout").Msg("query failed")

	out := buf.String()
	if !strings.Contains(out, "query failed") || !strings.Contains(out, "kind=timeout") {
		t.Errorf("unexpected console output %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("console output to a buffer must not be colored: %q", out)
	}
}

func TestOpenOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcstatus.log")

	w, closer := openOutput(path)
	if _, err := w.Write([]byte("line\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestComponent(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	log.Logger = New(&buf, "json")
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	Component("server").Warn().Str("host", "mc.example.com").Msg("queue full")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["component"] != "server" || entry["level"] != "warn" || entry["host"] != "mc.example.com" {
		t.Errorf("unexpected entry %v", entry)
	}
}
