package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConsoleHandler_PromotesComponent(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))
	logger = NewComponentLogger(logger, "jobs")

	logger.Info("job submitted", String(FieldJobID, "job 1"), Int("progress", 10))
	logger.Debug("hidden")

	line := buf.String()
	if !strings.Contains(line, "INFO jobs: job submitted") {
		t.Fatalf("line = %q, want component before message", line)
	}
	if !strings.Contains(line, `job_id="job 1"`) || !strings.Contains(line, "progress=10") {
		t.Fatalf("line = %q, want quoted job_id and progress", line)
	}
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug record should be filtered at info level: %q", line)
	}
}

func TestNew_FileOutputAndUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "yum.log")
	logger, closer, err := New(Options{Level: "info", Format: "json", Outputs: []string{path}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("queue stalled", String(FieldQuery, "pasta"))
	if err := closer.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"level":"warn"`) || !strings.Contains(string(data), `"query":"pasta"`) {
		t.Fatalf("json log = %s", data)
	}

	if _, _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestProgressSampler(t *testing.T) {
	s := NewProgressSampler(25)
	steps := []struct {
		percent int
		step    string
		want    bool
	}{
		{0, "Pulling video data", true},
		{5, "Pulling video data", false},
		{10, "Listening to the video", true},
		{26, "Listening to the video", true},
		{30, "Listening to the video", false},
		{100, "Calculating the nutrition", true},
		{100, "Calculating the nutrition", false},
	}
	for i, tt := range steps {
		if got := s.ShouldLog(tt.percent, tt.step); got != tt.want {
			t.Fatalf("step %d: ShouldLog(%d, %q) = %v, want %v", i, tt.percent, tt.step, got, tt.want)
		}
	}
	s.Reset()
	if !s.ShouldLog(0, "") {
		t.Fatal("ShouldLog after Reset should emit")
	}
}
