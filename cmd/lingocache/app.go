package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	lc "github.com/unkn0wn-root/lingocache"
	"github.com/unkn0wn-root/lingocache/batch"
	"github.com/unkn0wn-root/lingocache/codec"
	"github.com/unkn0wn-root/lingocache/config"
	"github.com/unkn0wn-root/lingocache/fallback"
	gen "github.com/unkn0wn-root/lingocache/genstore"
	asynchook "github.com/unkn0wn-root/lingocache/hooks/async"
	"github.com/unkn0wn-root/lingocache/internal/availability"
	lclogrus "github.com/unkn0wn-root/lingocache/log/logrus"
	lcslog "github.com/unkn0wn-root/lingocache/log/slog"
	lczap "github.com/unkn0wn-root/lingocache/log/zap"
	pr "github.com/unkn0wn-root/lingocache/provider"
	bcprov "github.com/unkn0wn-root/lingocache/provider/bigcache"
	redisprov "github.com/unkn0wn-root/lingocache/provider/redis"
	rprov "github.com/unkn0wn-root/lingocache/provider/ristretto"
	vkprov "github.com/unkn0wn-root/lingocache/provider/valkey"
	"github.com/unkn0wn-root/lingocache/service"
	"github.com/unkn0wn-root/lingocache/service/gemini"
	"github.com/unkn0wn-root/lingocache/service/openai"
	"github.com/unkn0wn-root/lingocache/sloghooks"
)

const maxArticleBytes = 1 << 20

// Article is a saved reading text.
type Article struct {
	URL      string    `cbor:"1,keyasint"`
	Title    string    `cbor:"2,keyasint"`
	Text     string    `cbor:"3,keyasint"`
	Language string    `cbor:"4,keyasint,omitempty"`
	SavedAt  time.Time `cbor:"5,keyasint"`
}

type app struct {
	cfg      config.Config
	log      lc.Logger
	store    *lc.Store
	fc       *fallback.Coordinator
	batch    *batch.Translator
	articles *lc.Bucket[Article]
	tracker  *availability.Tracker

	closers []func()
}

func newApp(ctx context.Context, cfg config.Config, stderr io.Writer) (*app, error) {
	a := &app{cfg: cfg}
	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return nil, err
	}
	a.log = logger
	if z, ok := logger.(lczap.ZapLogger); ok {
		a.closers = append(a.closers, func() { _ = z.Sync() })
	}

	hookLog, err := lcslog.New(stderr, cfg.LogLevel, true)
	if err != nil {
		return nil, err
	}
	hooks := asynchook.New(sloghooks.New(hookLog.L, sloghooks.Options{EvictedEvery: 10, ExpiredEvery: 10}), 1, 256)

	provider, gens, err := openBackend(ctx, cfg)
	if err != nil {
		hooks.Close()
		return nil, err
	}

	opts := cfg.StoreOptions()
	opts.Provider = provider
	opts.GenStore = gens
	opts.Logger = logger
	opts.Hooks = hooks
	a.store = lc.New(opts)
	a.closers = append(a.closers, func() {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.store.Close(cctx); err != nil {
			logger.Warn("store close failed", lc.Fields{"err": err})
		}
		hooks.Close()
	})

	primary, err := gemini.New(ctx, gemini.Config{APIKey: cfg.Gemini.APIKey, Model: cfg.Gemini.Model})
	if err != nil {
		a.Close()
		return nil, err
	}
	var fb service.Service
	if cfg.OpenAI.APIKey != "" {
		fb = openai.New(openai.Config{APIKey: cfg.OpenAI.APIKey, Model: cfg.OpenAI.Model, BaseURL: cfg.OpenAI.BaseURL})
	}

	a.tracker = availability.New(availability.Options{
		TTL: cfg.AvailabilityTTL,
		OnChange: func(id string, available bool) {
			logger.Info("service availability changed", lc.Fields{"service": id, "available": available})
		},
	})

	vocabCodec, err := vocabularyCodec(cfg.Cache.Codec)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.fc = fallback.New(fallback.Options{
		Store:           a.store,
		Primary:         primary,
		Fallback:        fb,
		Tracker:         a.tracker,
		Retry:           cfg.RetryConfig(),
		VocabularyCodec: vocabCodec,
		Logger:          logger,
	})
	a.batch = batch.New(batch.Options{Coordinator: a.fc, Store: a.store, Logger: logger})
	a.articles = lc.NewBucket[Article](a.store, lc.NSArticle, codec.Limit[Article]{
		Inner:     codec.MustCBOR[Article](true),
		MaxEncode: maxArticleBytes,
		MaxDecode: maxArticleBytes,
	})
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newLogger(cfg config.Config, w io.Writer) (lc.Logger, error) {
	switch strings.ToLower(cfg.LogFormat) {
	case "zap":
		return lczap.New(cfg.LogLevel)
	case "logrus":
		return lclogrus.New(w, cfg.LogLevel)
	default:
		return lcslog.New(w, cfg.LogLevel, false)
	}
}

func vocabularyCodec(name string) (codec.Codec[[]service.VocabularyItem], error) {
	switch name {
	case "msgpack":
		return codec.Msgpack[[]service.VocabularyItem]{}, nil
	case "cbor":
		return codec.NewCBOR[[]service.VocabularyItem](true)
	case "", "json":
		return codec.JSON[[]service.VocabularyItem]{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}

// openBackend returns the provider for durable namespaces and the matching
// generation store. Shared backends keep generations next to the data so
// every process sees the same Clear.
func openBackend(ctx context.Context, cfg config.Config) (pr.Provider, gen.GenStore, error) {
	switch cfg.Cache.Backend {
	case config.BackendMemory:
		return nil, gen.NewLocalGenStore(), nil

	case config.BackendBigcache:
		p, err := bcprov.New(ctx, bcprov.Config{
			LifeWindow:         cfg.Cache.LifeWindow,
			HardMaxCacheSizeMB: int(cfg.Cache.MaxCostBytes >> 20),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("bigcache: %w", err)
		}
		return p, gen.NewLocalGenStore(), nil

	case config.BackendRistretto:
		p, err := rprov.New(rprov.Config{NumCounters: 10_000, MaxCost: cfg.Cache.MaxCostBytes})
		if err != nil {
			return nil, nil, fmt.Errorf("ristretto: %w", err)
		}
		return p, gen.NewLocalGenStore(), nil

	case config.BackendRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis: ping %s: %w", cfg.Redis.Addr, err)
		}
		p, err := redisprov.New(redisprov.Config{Client: client, CloseClient: true})
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return p, gen.NewRedisGenStore(client, cfg.Redis.Prefix, false), nil

	case config.BackendValkey:
		client, err := vkprov.Dial(ctx, cfg.Valkey.Addr, cfg.Valkey.Password, cfg.Valkey.DB)
		if err != nil {
			return nil, nil, err
		}
		p, err := vkprov.New(vkprov.Config{Client: client, CloseClient: true})
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return p, gen.NewValkeyGenStore(client, cfg.Valkey.Prefix, false), nil
	}
	return nil, nil, errors.New("unknown cache backend " + cfg.Cache.Backend)
}
