package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		wantDbg bool
	}{
		{"info hides debug", log.InfoLevel, false},
		{"debug shows debug", log.DebugLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := newLogger(&buf, tt.level)
			l.Debug("swapchain recreated")
			l.Info("graphics initialized")

			out := buf.String()
			if got := strings.Contains(out, "swapchain recreated"); got != tt.wantDbg {
				t.Errorf("debug line present = %v, want %v\n%s", got, tt.wantDbg, out)
			}
			if !strings.Contains(out, "graphics initialized") {
				t.Errorf("info line missing:\n%s", out)
			}
			if !strings.Contains(out, "quad") {
				t.Errorf("prefix missing:\n%s", out)
			}
		})
	}
}

func TestRootCmdRejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"extra"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for positional argument")
	}
}
