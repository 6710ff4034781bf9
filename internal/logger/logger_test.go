package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiscardBeforeInit(t *testing.T) {
	// must not panic
	Info.Printf("hello")
	Error.Printf("hello")
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level   string
		visible []string
		hidden  []string
	}{
		{"error", []string{"ERROR"}, []string{"WARN", "INFO", "DEBUG", "VERBOSE"}},
		{"info", []string{"ERROR", "WARN", "INFO"}, []string{"DEBUG", "VERBOSE"}},
		{"verbose", []string{"ERROR", "WARN", "INFO", "DEBUG", "VERBOSE"}, nil},
		{"nonsense", []string{"INFO"}, []string{"DEBUG"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			InitWithWriter(tt.level, &buf)

			Error.Print("e")
			Warn.Print("w")
			Info.Print("i")
			Debug.Print("d")
			Verbose.Print("v")

			out := buf.String()
			for _, prefix := range tt.visible {
				if !strings.Contains(out, prefix+": ") {
					t.Errorf("level %s: missing %s output in %q", tt.level, prefix, out)
				}
			}
			for _, prefix := range tt.hidden {
				if strings.Contains(out, prefix+": ") {
					t.Errorf("level %s: unexpected %s output in %q", tt.level, prefix, out)
				}
			}
		})
	}
}

func TestInitWithConfigWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bs.log")
	if err := InitWithConfig("debug", path); err != nil {
		t.Fatalf("InitWithConfig: %v", err)
	}
	defer Close()

	Debug.Printf("solver trace")
	Always.Printf("startup")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "solver trace") || !strings.Contains(string(data), "startup") {
		t.Errorf("log file missing entries: %q", data)
	}
	if Level() != "debug" {
		t.Errorf("Level() = %q", Level())
	}
}

func TestSwitchToStderrClosesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bs.log")
	if err := InitWithConfig("info", path); err != nil {
		t.Fatalf("InitWithConfig: %v", err)
	}
	f := logFile

	if err := InitWithConfig("info", ""); err != nil {
		t.Fatalf("InitWithConfig to stderr: %v", err)
	}
	if logFile != nil {
		t.Error("log file still tracked after switching to stderr")
	}
	if _, err := f.Write([]byte("x")); err == nil {
		t.Error("previous log file was left open")
	}
}

func TestInitWithConfigBadPath(t *testing.T) {
	if err := InitWithConfig("info", filepath.Join(t.TempDir(), "no", "such", "dir", "x.log")); err == nil {
		t.Error("expected error for unwritable path")
	}
}
