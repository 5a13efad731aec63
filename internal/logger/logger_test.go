package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/olivier-w/presto/internal/config"
)

func TestNewWithoutFileDiscards(t *testing.T) {
	log, c, err := New(config.Log{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	log.Info("dropped")
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "presto.log")
	log, c, err := New(config.Log{Level: "warn", File: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	log.Info("quiet")
	log.Warn("track unavailable", zap.String("path", "/m/a.mp3"))
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	out := string(data)
	if strings.Contains(out, "quiet") {
		t.Fatalf("info entry written at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"track unavailable"`) || !strings.Contains(out, `"path":"/m/a.mp3"`) {
		t.Fatalf("log output = %s", out)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presto.log")
	if _, _, err := New(config.Log{Level: "loud", File: path}); err == nil {
		t.Fatal("New() accepted an unknown level")
	}
}
