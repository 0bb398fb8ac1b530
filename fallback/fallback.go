// Package fallback answers AI requests from the cache when it can, otherwise
// from the primary service and, if that fails, from the fallback service.
//
// Each service runs under its own retry budget. A terminal failure marks the
// service unavailable in the tracker so later calls skip it until the status
// goes stale and is re-probed.
package fallback

import (
	"context"
	"time"

	"github.com/google/uuid"

	lc "github.com/unkn0wn-root/lingocache"
	"github.com/unkn0wn-root/lingocache/codec"
	"github.com/unkn0wn-root/lingocache/internal/availability"
	"github.com/unkn0wn-root/lingocache/retry"
	"github.com/unkn0wn-root/lingocache/service"
	"github.com/unkn0wn-root/lingocache/svcerr"
)

// Payload carries the inputs of every task; each task reads only its fields.
type Payload struct {
	Text string

	// translation
	From    string // "" or "auto" => let the service detect it
	To      string
	Context string

	// summary, rewrite, vocabulary
	Language       string
	TargetLanguage string
	Length         string // summary: short|medium|long
	Level          string // rewrite and vocabulary: CEFR level
}

// Result is the outcome of one call. Vocabulary is set for TaskVocabulary,
// Text for every other task.
type Result struct {
	Text       string
	Vocabulary []service.VocabularyItem
	Service    string // service that produced the value; "" on a cache hit
	Cached     bool
}

type Options struct {
	Store    *lc.Store       // nil => no caching
	Primary  service.Service // required
	Fallback service.Service // optional

	// Tracker holds availability for both services. nil => a private tracker
	// with the default staleness window. Services are registered by Name.
	Tracker *availability.Tracker

	Retry         retry.Config
	FallbackRetry *retry.Config // nil => Retry

	// VocabularyCodec encodes cached vocabulary lists. nil => JSON.
	VocabularyCodec codec.Codec[[]service.VocabularyItem]

	Logger lc.Logger
}

type lane struct {
	role  string
	id    string // tracker key: the service name, or name@role on a clash
	svc   service.Service
	retry retry.Config
}

type Coordinator struct {
	lanes   []lane
	tracker *availability.Tracker
	log     lc.Logger

	text  map[lc.Namespace]*lc.Bucket[string]
	vocab *lc.Bucket[[]service.VocabularyItem]
}

func New(opts Options) *Coordinator {
	c := &Coordinator{
		tracker: opts.Tracker,
		log:     opts.Logger,
	}
	if c.log == nil {
		c.log = lc.NopLogger{}
	}
	if c.tracker == nil {
		c.tracker = availability.New(availability.Options{})
	}

	fbRetry := opts.Retry
	if opts.FallbackRetry != nil {
		fbRetry = *opts.FallbackRetry
	}
	for _, l := range []lane{
		{role: "primary", svc: opts.Primary, retry: opts.Retry},
		{role: "fallback", svc: opts.Fallback, retry: fbRetry},
	} {
		if l.svc == nil {
			continue
		}
		l.id = l.svc.Name()
		for _, prev := range c.lanes {
			if prev.id == l.id {
				l.id += "@" + l.role
			}
		}
		c.tracker.Register(l.id, l.svc.Available)
		c.lanes = append(c.lanes, l)
	}

	if opts.Store != nil {
		c.text = map[lc.Namespace]*lc.Bucket[string]{
			lc.NSTranslation: lc.NewBucket[string](opts.Store, lc.NSTranslation, codec.String{}),
			lc.NSDetection:   lc.NewBucket[string](opts.Store, lc.NSDetection, codec.String{}),
			lc.NSProcessed:   lc.NewBucket[string](opts.Store, lc.NSProcessed, codec.String{}),
		}
		vc := opts.VocabularyCodec
		if vc == nil {
			vc = codec.JSON[[]service.VocabularyItem]{}
		}
		c.vocab = lc.NewBucket(opts.Store, lc.NSProcessed, vc)
	}
	return c
}

// Tracker exposes the availability tracker, e.g. for a forced refresh.
func (c *Coordinator) Tracker() *availability.Tracker { return c.tracker }

// ProcessWithFallback runs task for p: cache, then primary, then fallback.
// When every service fails the error is a *svcerr.CompoundError with one
// entry per configured service.
func (c *Coordinator) ProcessWithFallback(ctx context.Context, task service.Task, p Payload) (Result, error) {
	p, err := normalize(task, p)
	if err != nil {
		return Result{}, err
	}

	reqID := uuid.NewString()
	ns, key, cacheable := cacheKey(task, p)
	if cacheable {
		if res, ok := c.lookup(ctx, task, ns, key); ok {
			c.log.Debug("served from cache", lc.Fields{"req": reqID, "task": task, "ns": ns})
			return res, nil
		}
	}

	errs := make([]error, 0, len(c.lanes))
	for _, l := range c.lanes {
		start := time.Now()
		res, err := c.try(ctx, l, task, p, reqID)
		if err == nil {
			c.log.Debug("service answered", lc.Fields{
				"req": reqID, "task": task, "service": l.svc.Name(), "role": l.role, "took": time.Since(start),
			})
			if cacheable {
				c.store(ctx, task, ns, key, res)
			}
			return res, nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return Result{}, cerr
		}
		errs = append(errs, err)
		c.log.Warn("service failed", lc.Fields{
			"req": reqID, "task": task, "service": l.svc.Name(), "role": l.role, "err": err,
		})
	}
	if len(errs) == 0 {
		errs = append(errs, svcerr.New(svcerr.KindUnavailable, "no services configured"))
	}
	cerr := &svcerr.CompoundError{Errors: errs}
	c.log.Error("all services failed", lc.Fields{"req": reqID, "task": task, "err": cerr})
	return Result{}, cerr
}

func (c *Coordinator) try(ctx context.Context, l lane, task service.Task, p Payload, reqID string) (Result, error) {
	name := l.svc.Name()
	if !l.svc.Capabilities(ctx).Supports(task) {
		return Result{}, svcerr.Unavailable(name, string(task)+" not supported")
	}
	if !c.tracker.Available(ctx, l.id) {
		return Result{}, svcerr.Unavailable(name, "marked unavailable")
	}

	cfg := l.retry
	onRetry := cfg.OnRetry
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.log.Info("retrying", lc.Fields{"req": reqID, "service": name, "attempt": attempt, "delay": delay, "err": err})
		if onRetry != nil {
			onRetry(attempt, delay, err)
		}
	}

	res, err := retry.Value(ctx, func(ctx context.Context) (Result, error) {
		return invoke(ctx, l.svc, task, p)
	}, nil, cfg)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, err
		}
		if !svcerr.IsRetryable(err) {
			c.tracker.MarkUnavailable(l.id)
		}
		if se := svcerr.As(err); se.Service == "" {
			cp := *se
			cp.Service = name
			err = &cp
		}
		return Result{}, err
	}
	res.Service = name
	return res, nil
}

func invoke(ctx context.Context, svc service.Service, task service.Task, p Payload) (Result, error) {
	var (
		out string
		err error
	)
	switch task {
	case service.TaskTranslate, service.TaskTranslateBatch:
		out, err = svc.Translate(ctx, service.TranslateRequest{Text: p.Text, From: p.From, To: p.To, Context: p.Context})
	case service.TaskDetectLanguage:
		out, err = svc.DetectLanguage(ctx, p.Text)
	case service.TaskSummarize:
		out, err = svc.Summarize(ctx, service.SummarizeRequest{Text: p.Text, Language: p.Language, Length: p.Length})
	case service.TaskRewrite:
		out, err = svc.Rewrite(ctx, service.RewriteRequest{Text: p.Text, Language: p.Language, Level: p.Level})
	case service.TaskVocabulary:
		items, verr := svc.AnalyzeVocabulary(ctx, service.VocabularyRequest{
			Text: p.Text, Language: p.Language, TargetLanguage: p.TargetLanguage, Level: p.Level,
		})
		return Result{Vocabulary: items}, verr
	default:
		return Result{}, svcerr.InvalidInput("unknown task " + string(task))
	}
	return Result{Text: out}, err
}

func (c *Coordinator) lookup(ctx context.Context, task service.Task, ns lc.Namespace, key string) (Result, bool) {
	if task == service.TaskVocabulary {
		if c.vocab == nil {
			return Result{}, false
		}
		items, ok := c.vocab.Get(ctx, key)
		return Result{Vocabulary: items, Cached: ok}, ok
	}
	b := c.text[ns]
	if b == nil {
		return Result{}, false
	}
	s, ok := b.Get(ctx, key)
	return Result{Text: s, Cached: ok}, ok
}

func (c *Coordinator) store(ctx context.Context, task service.Task, ns lc.Namespace, key string, res Result) {
	var err error
	switch {
	case task == service.TaskVocabulary && c.vocab != nil:
		err = c.vocab.Set(ctx, key, res.Vocabulary, 0)
	case c.text[ns] != nil:
		err = c.text[ns].Set(ctx, key, res.Text, 0)
	}
	if err != nil {
		c.log.Warn("cache encode failed", lc.Fields{"task": task, "ns": ns, "err": err})
	}
}

// Translate translates text between two BCP-47 languages. from may be "" or
// "auto".
func (c *Coordinator) Translate(ctx context.Context, text, from, to string) (string, error) {
	res, err := c.ProcessWithFallback(ctx, service.TaskTranslate, Payload{Text: text, From: from, To: to})
	return res.Text, err
}

// DetectLanguage returns the BCP-47 code of text.
func (c *Coordinator) DetectLanguage(ctx context.Context, text string) (string, error) {
	res, err := c.ProcessWithFallback(ctx, service.TaskDetectLanguage, Payload{Text: text})
	return res.Text, err
}

func (c *Coordinator) Summarize(ctx context.Context, req service.SummarizeRequest) (string, error) {
	res, err := c.ProcessWithFallback(ctx, service.TaskSummarize, Payload{Text: req.Text, Language: req.Language, Length: req.Length})
	return res.Text, err
}

func (c *Coordinator) Rewrite(ctx context.Context, req service.RewriteRequest) (string, error) {
	res, err := c.ProcessWithFallback(ctx, service.TaskRewrite, Payload{Text: req.Text, Language: req.Language, Level: req.Level})
	return res.Text, err
}

func (c *Coordinator) AnalyzeVocabulary(ctx context.Context, req service.VocabularyRequest) ([]service.VocabularyItem, error) {
	res, err := c.ProcessWithFallback(ctx, service.TaskVocabulary, Payload{
		Text: req.Text, Language: req.Language, TargetLanguage: req.TargetLanguage, Level: req.Level,
	})
	return res.Vocabulary, err
}
