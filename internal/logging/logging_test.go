package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/kevmo314/go-bomc1/internal/config"
)

func TestNewLevelAndFormat(t *testing.T) {
	log := New(config.LogConfig{Level: "debug", Format: "json"})
	if log.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %s, want debug", log.GetLevel())
	}
	if _, ok := log.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("formatter = %T, want *logrus.JSONFormatter", log.Formatter)
	}

	log = New(config.LogConfig{Level: "nonsense"})
	if log.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %s, want info fallback", log.GetLevel())
	}
	if _, ok := log.Formatter.(*logrus.TextFormatter); !ok {
		t.Errorf("formatter = %T, want *logrus.TextFormatter", log.Formatter)
	}
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bomc1.log")

	log := New(config.LogConfig{Level: "info", Output: "file", FilePath: path})
	log.Info("acquired frame")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "acquired frame") {
		t.Errorf("log file = %q, want the message", data)
	}
}
