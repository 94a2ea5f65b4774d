package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "planner", "debug", "json")
	log.Debug().Str("k", "v").Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("not json: %v (%q)", err, buf.String())
	}
	if line["service"] != "planner" || line["message"] != "hello" || line["k"] != "v" {
		t.Fatalf("unexpected line: %v", line)
	}
	if _, ok := line["time"]; !ok {
		t.Fatal("missing timestamp")
	}
}

func TestLevelFallback(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "planner", "nonsense", "json")
	log.Debug().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("debug line written at info level: %q", buf.String())
	}
	log.Info().Msg("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatal("info line missing")
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "planner", "info", "console")
	log.Info().Msg("hello")
	if json.Valid(buf.Bytes()) {
		t.Fatalf("console output should not be json: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("message missing: %q", buf.String())
	}
}
