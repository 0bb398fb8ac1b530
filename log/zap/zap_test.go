package zap

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	lc "github.com/unkn0wn-root/lingocache"
)

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := ZapLogger{L: zap.New(core)}

	l.Debug("dropped", lc.Fields{"x": 1})
	l.Error("all services failed", lc.Fields{"task": "translation", "err": errors.New("boom")})

	if logs.Len() != 1 {
		t.Fatalf("want 1 entry, got %d", logs.Len())
	}
	e := logs.All()[0]
	if e.Level != zapcore.ErrorLevel || e.Message != "all services failed" {
		t.Fatalf("entry %+v", e.Entry)
	}
	ctx := e.ContextMap()
	if ctx["err"] != "boom" || ctx["task"] != "translation" {
		t.Fatalf("context %v", ctx)
	}
}

func TestNewParsesLevel(t *testing.T) {
	l, err := New("warn")
	if err != nil {
		t.Fatal(err)
	}
	if l.L.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("info should be disabled at warn")
	}
	if _, err := New("chatty"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
