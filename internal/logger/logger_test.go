package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Debug("debug %d", 1)
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	out := buf.String()
	if strings.Contains(out, "DEBUG") || strings.Contains(out, "INFO") {
		t.Errorf("levels below Warn leaked into output: %q", out)
	}
	if !strings.Contains(out, "[WARN] warn") {
		t.Errorf("missing warn line in %q", out)
	}
	if !strings.Contains(out, "[ERROR] error") {
		t.Errorf("missing error line in %q", out)
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelNone)

	l.Error("silent")
	if buf.Len() != 0 {
		t.Errorf("LevelNone logger wrote %q", buf.String())
	}

	l.SetLevel(LevelDebug)
	l.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("message missing after SetLevel: %q", buf.String())
	}
}

func TestPrefixAndFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelInfo)

	l.Info("parsed %d segments", 4)
	out := buf.String()
	if !strings.Contains(out, "hl7v2") {
		t.Errorf("missing prefix in %q", out)
	}
	if !strings.Contains(out, "parsed 4 segments") {
		t.Errorf("missing formatted message in %q", out)
	}
}

func TestNilLoggerSafe(t *testing.T) {
	var l *Logger
	l.Debug("no panic")
	l.Error("no panic")
}

func TestDefaultIsSilent(t *testing.T) {
	var buf bytes.Buffer
	d := Default()
	d.SetOutput(&buf)
	defer d.SetLevel(LevelNone)

	d.Error("should not appear")
	if buf.Len() != 0 {
		t.Errorf("default logger wrote %q", buf.String())
	}
}
