// Package logging builds the logrus logger used by the bomc1 tools.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/kevmo314/go-bomc1/internal/config"
)

// New returns a logger configured from cfg. An unusable log file falls back
// to stderr with a warning rather than failing start-up.
func New(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	switch cfg.Output {
	case "stdout":
		log.SetOutput(os.Stdout)
	case "file":
		if cfg.FilePath == "" {
			log.Warn("log output is file but no file_path set, using stderr")
			break
		}
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Warnf("open log file %s: %v, using stderr", cfg.FilePath, err)
			break
		}
		log.SetOutput(file)
	default:
		log.SetOutput(os.Stderr)
	}

	return log
}

// Discard returns a logger that drops everything, for library defaults and
// tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return log
}
