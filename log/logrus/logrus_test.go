package logrus

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	lc "github.com/unkn0wn-root/lingocache"
)

func TestLogrusLoggerFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	l := LogrusLogger{E: logrus.NewEntry(base)}

	l.Warn("service failed", lc.Fields{"service": "gemini", "err": errors.New("rate-limit")})

	e := hook.LastEntry()
	if e == nil || e.Level != logrus.WarnLevel || e.Message != "service failed" {
		t.Fatalf("entry %+v", e)
	}
	if e.Data["service"] != "gemini" {
		t.Fatalf("data %v", e.Data)
	}
	if err, _ := e.Data[logrus.ErrorKey].(error); err == nil || err.Error() != "rate-limit" {
		t.Fatalf("error field %v", e.Data[logrus.ErrorKey])
	}
}

func TestNewJSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "info")
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("quiet", nil)
	l.Info("served from cache", lc.Fields{"ns": "translation"})

	out := buf.String()
	if strings.Contains(out, "quiet") || !strings.Contains(out, `"ns":"translation"`) || !strings.Contains(out, `"component":"lingocache"`) {
		t.Fatalf("output %q", out)
	}
	if _, err := New(&buf, "noisy"); err == nil {
		t.Fatal("expected error")
	}
}
