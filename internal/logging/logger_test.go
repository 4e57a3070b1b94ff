package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"chorus/internal/logging"
)

func TestConsoleHandlerLine(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger = logging.WithComponent(logger, "server")
	logger.Info("request served", slog.String(logging.FieldMessageID, "Ping"), slog.Int("bytes", 23))

	line := strings.TrimSpace(buf.String())
	for _, want := range []string{" INFO server: request served", "message=Ping", "bytes=23"} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component not folded into prefix: %q", line)
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("commit rejected", slog.String("reason", "Album still contains songs"))
	if !strings.Contains(buf.String(), `reason="Album still contains songs"`) {
		t.Fatalf("value not quoted: %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("quiet")
	logger.Warn("loud")
	out := buf.String()
	if strings.Contains(out, "quiet") || !strings.Contains(out, "loud") {
		t.Fatalf("level filter wrong: %q", out)
	}
}

func TestJSONHandlerShape(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("snapshot saved", slog.Uint64(logging.FieldRevision, 42))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["msg"] != "snapshot saved" {
		t.Fatalf("msg: %v", record["msg"])
	}
	if record["level"] != "info" {
		t.Fatalf("level: %v", record["level"])
	}
	if _, ok := record["ts"]; !ok {
		t.Fatal("missing ts")
	}
	if record[logging.FieldRevision] != float64(42) {
		t.Fatalf("revision: %v", record[logging.FieldRevision])
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("accepted unsupported format")
	}
}
