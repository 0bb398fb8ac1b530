package slog

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	lc "github.com/unkn0wn-root/lingocache"
)

func TestLoggerJSONFieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "info", true)
	if err != nil {
		t.Fatal(err)
	}

	l.Debug("hidden", nil)
	l.Warn("persist failed", lc.Fields{"ns": lc.NSArticle, "err": errors.New("dial tcp: refused"), "n": 3})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("want 1 line (debug filtered), got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["level"] != "WARN" || rec["msg"] != "persist failed" {
		t.Fatalf("record %v", rec)
	}
	if rec["err"] != "dial tcp: refused" || rec["ns"] != "article" || rec["n"] != float64(3) {
		t.Fatalf("fields %v", rec)
	}
}

func TestLoggerTextKeyOrder(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(&buf, "debug", false)
	l.Debug("x", lc.Fields{"b": 2, "a": 1})
	out := buf.String()
	if strings.Index(out, "a=1") > strings.Index(out, "b=2") {
		t.Fatalf("fields not sorted: %q", out)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, "loud", true); err == nil {
		t.Fatal("expected error")
	}
}
