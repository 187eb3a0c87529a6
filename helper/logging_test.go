package helper

import (
	"log/slog"
	"testing"
)

func TestParseSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := parseSlogLevel(in)
		if err != nil {
			t.Fatalf("parseSlogLevel(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("parseSlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseSlogLevelUnknown(t *testing.T) {
	if _, err := parseSlogLevel("verbose"); err == nil {
		t.Fatal("expected error for an unrecognized log level")
	}
}

func TestNewLoggerFromConfigFormats(t *testing.T) {
	for _, format := range []string{"", "text", "json", "JSON"} {
		if _, err := newLoggerFromConfig(loggerConfig{Format: format}); err != nil {
			t.Fatalf("newLoggerFromConfig(format=%q): %v", format, err)
		}
	}
}

func TestNewLoggerFromConfigRejectsUnknownFormat(t *testing.T) {
	if _, err := newLoggerFromConfig(loggerConfig{Format: "xml"}); err == nil {
		t.Fatal("expected error for an unknown log format")
	}
}

func TestNewLoggerFromConfigRejectsUnknownLevel(t *testing.T) {
	if _, err := newLoggerFromConfig(loggerConfig{Level: "trace"}); err == nil {
		t.Fatal("expected error for an unknown log level")
	}
}
