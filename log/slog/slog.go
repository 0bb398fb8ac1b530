// Package slog adapts log/slog to lingocache.Logger.
package slog

import (
	"context"
	"fmt"
	"io"
	stdslog "log/slog"
	"sort"
	"strings"

	lc "github.com/unkn0wn-root/lingocache"
)

var _ lc.Logger = Logger{}

type Logger struct{ L *stdslog.Logger }

// New returns a JSON (or text) logger writing to w at the named level
// (debug|info|warn|error).
func New(w io.Writer, level string, json bool) (Logger, error) {
	var lvl stdslog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return Logger{}, fmt.Errorf("slog: level %q: %w", level, err)
	}
	opts := &stdslog.HandlerOptions{Level: lvl}
	var h stdslog.Handler = stdslog.NewTextHandler(w, opts)
	if json {
		h = stdslog.NewJSONHandler(w, opts)
	}
	return Logger{L: stdslog.New(h)}, nil
}

func (s Logger) Debug(msg string, f lc.Fields) { s.log(stdslog.LevelDebug, msg, f) }
func (s Logger) Info(msg string, f lc.Fields)  { s.log(stdslog.LevelInfo, msg, f) }
func (s Logger) Warn(msg string, f lc.Fields)  { s.log(stdslog.LevelWarn, msg, f) }
func (s Logger) Error(msg string, f lc.Fields) { s.log(stdslog.LevelError, msg, f) }

func (s Logger) log(lvl stdslog.Level, msg string, f lc.Fields) {
	ctx := context.Background()
	if !s.L.Enabled(ctx, lvl) {
		return
	}
	s.L.LogAttrs(ctx, lvl, msg, attrs(f)...)
}

// attrs renders fields in key order; errors become their message.
func attrs(f lc.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]stdslog.Attr, 0, len(f))
	for _, k := range keys {
		switch v := f[k].(type) {
		case error:
			out = append(out, stdslog.String(k, v.Error()))
		case fmt.Stringer:
			out = append(out, stdslog.String(k, v.String()))
		default:
			out = append(out, stdslog.Any(k, v))
		}
	}
	return out
}
