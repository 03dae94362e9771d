package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"trace", LevelTrace, true},
		{"DBG", LevelDebug, true},
		{" info ", LevelInfo, true},
		{"wrn", LevelWarn, true},
		{"error", LevelError, true},
		{"critical", LevelCritical, true},
		{"off", LevelOff, true},
		{"loud", LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := LevelFromString(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("LevelFromString(%q) = (%s, %v), want (%s, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if LevelOff.String() != "OFF" || Level(99).String() != "OFF" || LevelWarn.String() != "WRN" {
		t.Fatalf("unexpected level strings")
	}
}

func TestBackend_FiltersByLoggerAndWriterLevel(t *testing.T) {
	b := NewBackend()
	b.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC) }

	all := &bufferCloser{}
	errsOnly := &bufferCloser{}
	if err := b.AddLogWriter(all, LevelTrace); err != nil {
		t.Fatalf("AddLogWriter: %v", err)
	}
	if err := b.AddLogWriter(errsOnly, LevelError); err != nil {
		t.Fatalf("AddLogWriter: %v", err)
	}

	log := b.Logger("TEST")
	log.SetLevel(LevelDebug)
	log.Tracef("hidden %d", 1)
	log.Debugf("probe count=%d", 3)
	log.Errorf("boom")

	want := "2024-01-02 03:04:05.006 [DBG] TEST: probe count=3\n" +
		"2024-01-02 03:04:05.006 [ERR] TEST: boom\n"
	if all.String() != want {
		t.Fatalf("all=%q, want %q", all.String(), want)
	}
	if errsOnly.String() != "2024-01-02 03:04:05.006 [ERR] TEST: boom\n" {
		t.Fatalf("errsOnly=%q", errsOnly.String())
	}

	b.Close()
	if !all.closed || !errsOnly.closed {
		t.Fatalf("writers not closed")
	}
	log.Errorf("after close")
	if strings.Contains(all.String(), "after close") {
		t.Fatalf("write after close")
	}
	if err := b.AddLogWriter(&bufferCloser{}, LevelInfo); err == nil {
		t.Fatalf("expected error adding writer to closed backend")
	}
}

func TestBackend_LogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "alt.log")
	b := NewBackend()
	if err := b.AddLogFile(path, LevelInfo); err != nil {
		t.Fatalf("AddLogFile: %v", err)
	}
	b.Logger("FILE").Infof("hello")
	b.Close()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(raw), "[INF] FILE: hello") {
		t.Fatalf("log file=%q", raw)
	}
}

func TestRegisterSubSystem(t *testing.T) {
	a := RegisterSubSystem("TSTA")
	if RegisterSubSystem("TSTA") != a {
		t.Fatalf("expected same logger for same tag")
	}
	SetLogLevels(LevelWarn)
	if a.Level() != LevelWarn {
		t.Fatalf("level=%s, want WRN", a.Level())
	}
	found := false
	for _, tag := range SupportedSubsystems() {
		if tag == "TSTA" {
			found = true
		}
	}
	if !found {
		t.Fatalf("TSTA not registered")
	}
}
