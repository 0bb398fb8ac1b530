package fallback

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lc "github.com/unkn0wn-root/lingocache"
	"github.com/unkn0wn-root/lingocache/codec"
	"github.com/unkn0wn-root/lingocache/retry"
	"github.com/unkn0wn-root/lingocache/service"
	"github.com/unkn0wn-root/lingocache/svcerr"
)

var fastRetry = retry.Config{
	BaseDelay:      time.Millisecond,
	MaxDelay:       time.Millisecond,
	JitterFraction: -1,
	AttemptTimeout: time.Second,
}

type mock struct {
	service.Funcs
	calls atomic.Int32
}

// translator returns a service whose Translate answers with reply or err.
func translator(name, reply string, err error) *mock {
	m := &mock{}
	m.ID = name
	m.TranslateFunc = func(context.Context, service.TranslateRequest) (string, error) {
		m.calls.Add(1)
		return reply, err
	}
	return m
}

func newCoordinator(t *testing.T, primary, fb service.Service) (*Coordinator, *lc.Store) {
	t.Helper()
	store := lc.New(lc.Options{})
	opts := Options{Store: store, Primary: primary, Retry: fastRetry}
	if fb != nil {
		opts.Fallback = fb
	}
	return New(opts), store
}

func TestTranslateCachesResult(t *testing.T) {
	primary := translator("primary", "hola", nil)
	c, store := newCoordinator(t, primary, nil)
	ctx := context.Background()

	got, err := c.Translate(ctx, "hello", "en", "es")
	require.NoError(t, err)
	assert.Equal(t, "hola", got)

	raw, ok := store.Get(ctx, lc.NSTranslation, "en:es:hello")
	require.True(t, ok)
	assert.Equal(t, "hola", string(raw))

	res, err := c.ProcessWithFallback(ctx, service.TaskTranslate, Payload{Text: "hello", From: "en", To: "es"})
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Empty(t, res.Service)
	assert.EqualValues(t, 1, primary.calls.Load(), "cache hit must not call the service")
}

func TestPrimaryDownFallbackUp(t *testing.T) {
	primary := translator("primary", "", svcerr.New(svcerr.KindUnavailable, "down"))
	fb := translator("fallback", "hola", nil)
	c, store := newCoordinator(t, primary, fb)
	ctx := context.Background()

	res, err := c.ProcessWithFallback(ctx, service.TaskTranslate, Payload{Text: "hello", From: "en", To: "es"})
	require.NoError(t, err)
	assert.Equal(t, "hola", res.Text)
	assert.Equal(t, "fallback", res.Service)
	assert.EqualValues(t, 1, primary.calls.Load(), "terminal error is not retried")
	assert.EqualValues(t, 1, fb.calls.Load())
	assert.False(t, c.Tracker().Snapshot()["primary"].Available)
	assert.True(t, c.Tracker().Snapshot()["fallback"].Available)

	_, ok := store.Get(ctx, lc.NSTranslation, "en:es:hello")
	assert.True(t, ok, "fallback result is cached under the same key")

	// primary is now skipped without a call
	_, err = c.Translate(ctx, "goodbye", "en", "es")
	require.NoError(t, err)
	assert.EqualValues(t, 1, primary.calls.Load())
	assert.EqualValues(t, 2, fb.calls.Load())
}

func TestPrimarySucceedsFallbackUntouched(t *testing.T) {
	primary := translator("primary", "bonjour", nil)
	fb := translator("fallback", "salut", nil)
	c, _ := newCoordinator(t, primary, fb)

	got, err := c.Translate(context.Background(), "hello", "en", "fr")
	require.NoError(t, err)
	assert.Equal(t, "bonjour", got)
	assert.Zero(t, fb.calls.Load())
}

func TestBothFailCompoundError(t *testing.T) {
	primary := translator("primary", "", svcerr.Unavailable("primary", "no key"))
	fb := translator("fallback", "", svcerr.New(svcerr.KindNetwork, "connection reset"))
	c, store := newCoordinator(t, primary, fb)

	_, err := c.Translate(context.Background(), "hello", "en", "es")
	require.Error(t, err)

	var ce *svcerr.CompoundError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Errors, 2)
	assert.Equal(t, svcerr.KindUnavailable, svcerr.KindOf(ce.Errors[0]))
	assert.Equal(t, svcerr.KindNetwork, svcerr.KindOf(ce.Errors[1]))
	assert.False(t, ce.Retryable())
	assert.Contains(t, err.Error(), "primary: service-unavailable")
	assert.Contains(t, err.Error(), "fallback: network")
	assert.Contains(t, err.Error(), "after 3 attempts")

	assert.EqualValues(t, 1, primary.calls.Load())
	assert.EqualValues(t, 3, fb.calls.Load(), "retryable errors use the full budget")
	assert.True(t, c.Tracker().Snapshot()["fallback"].Available, "retryable failure keeps availability")
	assert.Zero(t, store.Stats(lc.NSTranslation).Entries)
}

func TestRetryableThenSuccess(t *testing.T) {
	var n atomic.Int32
	primary := &service.Funcs{ID: "primary", TranslateFunc: func(context.Context, service.TranslateRequest) (string, error) {
		if n.Add(1) < 3 {
			return "", svcerr.New(svcerr.KindRateLimit, "slow down")
		}
		return "hallo", nil
	}}
	c, _ := newCoordinator(t, primary, nil)

	got, err := c.Translate(context.Background(), "hello", "en", "de")
	require.NoError(t, err)
	assert.Equal(t, "hallo", got)
	assert.EqualValues(t, 3, n.Load())
}

func TestMissingCapabilitySkipsWithoutMarking(t *testing.T) {
	primary := translator("primary", "x", nil)
	fb := &service.Funcs{ID: "fallback", SummarizeFunc: func(_ context.Context, req service.SummarizeRequest) (string, error) {
		return "short: " + req.Length, nil
	}}
	c, _ := newCoordinator(t, primary, fb)

	got, err := c.Summarize(context.Background(), service.SummarizeRequest{Text: "A long article."})
	require.NoError(t, err)
	assert.Equal(t, "short: short", got)
	assert.Zero(t, primary.calls.Load())
	_, probed := c.Tracker().Snapshot()["primary"]
	assert.False(t, probed, "a missing capability does not touch availability")
}

func TestInvalidInputRejectedBeforeServices(t *testing.T) {
	primary := translator("primary", "x", nil)
	c, _ := newCoordinator(t, primary, nil)
	ctx := context.Background()

	cases := []struct {
		task service.Task
		p    Payload
	}{
		{service.TaskTranslate, Payload{Text: "   ", From: "en", To: "es"}},
		{service.TaskTranslate, Payload{Text: "hi", From: "en"}},
		{service.TaskTranslate, Payload{Text: "hi", From: "not a code!", To: "es"}},
		{service.TaskSummarize, Payload{Text: "hi", Length: "huge"}},
		{service.TaskRewrite, Payload{Text: "hi", Level: "D9"}},
		{service.Task("poem"), Payload{Text: "hi"}},
	}
	for _, tc := range cases {
		_, err := c.ProcessWithFallback(ctx, tc.task, tc.p)
		assert.Equal(t, svcerr.KindInvalidInput, svcerr.KindOf(err), "%s %+v", tc.task, tc.p)
	}
	assert.Zero(t, primary.calls.Load())
}

func TestLanguageCodesCanonicalized(t *testing.T) {
	primary := translator("primary", "olá", nil)
	c, store := newCoordinator(t, primary, nil)
	ctx := context.Background()

	_, err := c.Translate(ctx, "hello", "EN", "pt-br")
	require.NoError(t, err)
	_, ok := store.Get(ctx, lc.NSTranslation, "en:pt-BR:hello")
	assert.True(t, ok)

	_, err = c.Translate(ctx, "hello", "en", "PT-BR")
	require.NoError(t, err)
	assert.EqualValues(t, 1, primary.calls.Load())

	_, err = c.Translate(ctx, "hello", "auto", "pt-BR")
	require.NoError(t, err)
	_, ok = store.Get(ctx, lc.NSTranslation, "auto:pt-BR:hello")
	assert.True(t, ok)
}

func TestBatchTaskBypassesCache(t *testing.T) {
	primary := translator("primary", "[0] uno", nil)
	c, store := newCoordinator(t, primary, nil)
	ctx := context.Background()

	for range 2 {
		_, err := c.ProcessWithFallback(ctx, service.TaskTranslateBatch, Payload{Text: "[0] one", From: "en", To: "es"})
		require.NoError(t, err)
	}
	assert.EqualValues(t, 2, primary.calls.Load())
	assert.Zero(t, store.Stats(lc.NSTranslation).Entries)
}

func TestVocabularyCachedWithCodec(t *testing.T) {
	var calls atomic.Int32
	primary := &service.Funcs{ID: "primary", AnalyzeVocabularyFunc: func(_ context.Context, req service.VocabularyRequest) ([]service.VocabularyItem, error) {
		calls.Add(1)
		return []service.VocabularyItem{{Word: "perro", Translation: "dog", Difficulty: req.Level}}, nil
	}}
	store := lc.New(lc.Options{})
	c := New(Options{
		Store:           store,
		Primary:         primary,
		Retry:           fastRetry,
		VocabularyCodec: codec.Msgpack[[]service.VocabularyItem]{},
	})
	ctx := context.Background()
	req := service.VocabularyRequest{Text: "El perro corre.", Language: "es", TargetLanguage: "en", Level: "a2"}

	for range 2 {
		items, err := c.AnalyzeVocabulary(ctx, req)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "dog", items[0].Translation)
		assert.Equal(t, "A2", items[0].Difficulty)
	}
	assert.EqualValues(t, 1, calls.Load())
	assert.EqualValues(t, 1, store.Stats(lc.NSProcessed).Hits)
}

func TestDetectAndRewriteUseSeparateKeys(t *testing.T) {
	primary := &service.Funcs{
		ID:                 "primary",
		DetectLanguageFunc: func(context.Context, string) (string, error) { return "fr", nil },
		RewriteFunc: func(_ context.Context, req service.RewriteRequest) (string, error) {
			return "rewritten for " + req.Level, nil
		},
	}
	c, store := newCoordinator(t, primary, nil)
	ctx := context.Background()

	lang, err := c.DetectLanguage(ctx, "  Bonjour tout le monde  ")
	require.NoError(t, err)
	assert.Equal(t, "fr", lang)
	_, ok := store.Get(ctx, lc.NSDetection, "Bonjour tout le monde")
	assert.True(t, ok)

	a, err := c.Rewrite(ctx, service.RewriteRequest{Text: "texte", Level: "A1"})
	require.NoError(t, err)
	b, err := c.Rewrite(ctx, service.RewriteRequest{Text: "texte", Level: "B2"})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, store.Stats(lc.NSProcessed).Entries)
}

func TestCallerCancellationIsReturnedAsIs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	primary := &service.Funcs{ID: "primary", TranslateFunc: func(context.Context, service.TranslateRequest) (string, error) {
		cancel()
		return "", svcerr.New(svcerr.KindNetwork, "reset")
	}}
	fb := translator("fallback", "hola", nil)
	c, _ := newCoordinator(t, primary, fb)

	_, err := c.Translate(ctx, "hello", "en", "es")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, fb.calls.Load())
	assert.True(t, c.Tracker().Snapshot()["primary"].Available)
}

func TestNoServicesConfigured(t *testing.T) {
	c := New(Options{Retry: fastRetry})
	_, err := c.Translate(context.Background(), "hello", "en", "es")
	var ce *svcerr.CompoundError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, svcerr.KindUnavailable, svcerr.KindOf(ce.Errors[0]))
}

func TestSameNamedServicesTrackedSeparately(t *testing.T) {
	primary := translator("gateway", "", svcerr.New(svcerr.KindUnavailable, "down"))
	fb := translator("gateway", "hola", nil)
	c, _ := newCoordinator(t, primary, fb)
	ctx := context.Background()

	got, err := c.Translate(ctx, "hello", "en", "es")
	require.NoError(t, err)
	assert.Equal(t, "hola", got)

	snap := c.Tracker().Snapshot()
	assert.False(t, snap["gateway"].Available)
	assert.True(t, snap["gateway@fallback"].Available)

	_, err = c.Translate(ctx, "goodbye", "en", "es")
	require.NoError(t, err, "fallback stays usable after the primary is marked down")
	assert.EqualValues(t, 1, primary.calls.Load())
	assert.EqualValues(t, 2, fb.calls.Load())
}
