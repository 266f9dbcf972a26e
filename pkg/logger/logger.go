// Package logger configures the process-wide logrus logger with optional
// rotating file output.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config is the logging configuration.
type Config struct {
	Level      string // debug, info, warn, error
	OutputFile string // optional; empty logs to console only
	MaxSize    int    // MB per file before rotation
	MaxBackups int    // rotated files to keep
	MaxAge     int    // days to keep rotated files
	Compress   bool
	Console    bool // also log to stderr when a file is configured
}

// Init applies cfg to the standard logrus logger. Call once at startup,
// before any component logger is used.
func Init(cfg Config) error {
	level, err := logrus.ParseLevel(defaultString(cfg.Level, "info"))
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if cfg.OutputFile == "" {
		logrus.SetOutput(os.Stderr)
		return nil
	}

	if dir := filepath.Dir(cfg.OutputFile); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}

	rotating := &lumberjack.Logger{
		Filename:   cfg.OutputFile,
		MaxSize:    defaultInt(cfg.MaxSize, 100),
		MaxBackups: defaultInt(cfg.MaxBackups, 5),
		MaxAge:     defaultInt(cfg.MaxAge, 14),
		Compress:   cfg.Compress,
	}

	var out io.Writer = rotating
	if cfg.Console {
		out = io.MultiWriter(os.Stderr, rotating)
	}
	logrus.SetOutput(out)
	return nil
}

// FileFor builds the conventional log file path for a venue/ticker pair,
// e.g. logs/standx_btc.log.
func FileFor(venue, ticker string) string {
	name := strings.ToLower(venue)
	if ticker != "" {
		name += "_" + strings.ToLower(ticker)
	}
	return filepath.Join("logs", name+".log")
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func defaultInt(n, fallback int) int {
	if n == 0 {
		return fallback
	}
	return n
}
