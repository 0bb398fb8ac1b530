// Package zap adapts go.uber.org/zap to lingocache.Logger.
package zap

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	lc "github.com/unkn0wn-root/lingocache"
)

var _ lc.Logger = ZapLogger{}

type ZapLogger struct{ L *zap.Logger }

// New builds a production JSON logger at the named level.
func New(level string) (ZapLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return ZapLogger{}, fmt.Errorf("zap: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Sampling = nil
	l, err := cfg.Build()
	if err != nil {
		return ZapLogger{}, fmt.Errorf("zap: build: %w", err)
	}
	return ZapLogger{L: l.Named("lingocache")}, nil
}

func (z ZapLogger) Debug(msg string, f lc.Fields) { z.L.Debug(msg, zf(f)...) }
func (z ZapLogger) Info(msg string, f lc.Fields)  { z.L.Info(msg, zf(f)...) }
func (z ZapLogger) Warn(msg string, f lc.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z ZapLogger) Error(msg string, f lc.Fields) { z.L.Error(msg, zf(f)...) }

// Sync flushes buffered entries.
func (z ZapLogger) Sync() error { return z.L.Sync() }

func zf(f lc.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
