package logging

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/MyelinBots/wellness-sync/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{" warning ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewWithFile(t *testing.T) {
	l := New(config.LogConfig{Level: "debug", File: filepath.Join(t.TempDir(), "ws.log"), MaxSizeMB: 1})
	if l == nil {
		t.Fatal("New() returned nil")
	}
	l.Info("hello")
}

func TestOrNil(t *testing.T) {
	if Or(nil, "sync") == nil {
		t.Fatal("Or(nil) returned nil")
	}
}
