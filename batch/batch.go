// Package batch translates many short strings with one service call.
//
// Cached items are answered from the translation namespace. The rest are sent
// as one combined request, one "[i] text" line per item, and the reply is
// split back by those markers. Items the reply does not account for are
// translated one by one, and an item that still fails carries its own error.
package batch

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	lc "github.com/unkn0wn-root/lingocache"
	"github.com/unkn0wn-root/lingocache/codec"
	"github.com/unkn0wn-root/lingocache/fallback"
	"github.com/unkn0wn-root/lingocache/service"
	"github.com/unkn0wn-root/lingocache/svcerr"
)

// MaxItems caps one batch. Larger batches are rejected, not chunked.
const MaxItems = 20

const defaultIndividualConcurrency = 4

type Item struct {
	Text string

	// Context is an optional disambiguation hint, never translated. Items
	// with the same text share one request and one cache entry, so only the
	// first such item's Context is sent; later ones keep theirs in Result.
	Context string
}

type Result struct {
	Original    string
	Translation string
	Context     string
	Cached      bool
	Err         error // per-item failure; siblings are unaffected
}

type Options struct {
	Coordinator *fallback.Coordinator // required
	Store       *lc.Store             // nil => no caching
	Logger      lc.Logger

	// IndividualConcurrency bounds the one-by-one fallback. 0 => 4.
	IndividualConcurrency int
}

type Translator struct {
	fc    *fallback.Coordinator
	cache *lc.Bucket[string]
	log   lc.Logger
	conc  int
}

func New(opts Options) *Translator {
	t := &Translator{fc: opts.Coordinator, log: opts.Logger, conc: opts.IndividualConcurrency}
	if t.log == nil {
		t.log = lc.NopLogger{}
	}
	if t.conc <= 0 {
		t.conc = defaultIndividualConcurrency
	}
	if opts.Store != nil {
		t.cache = lc.NewBucket[string](opts.Store, lc.NSTranslation, codec.String{})
	}
	return t
}

// pending is one distinct uncached text and the input positions that share it.
type pending struct {
	key  string
	item Item
	idx  []int
}

// BatchTranslate returns one Result per item, in input order. The error is
// non-nil only for a rejected request (too many items, bad language codes) or
// caller cancellation.
func (t *Translator) BatchTranslate(ctx context.Context, items []Item, from, to string) ([]Result, error) {
	if len(items) > MaxItems {
		return nil, svcerr.InvalidInput(fmt.Sprintf("batch of %d items exceeds the limit of %d", len(items), MaxItems))
	}
	if len(items) == 0 {
		return nil, nil
	}
	if _, err := fallback.TranslationKey("x", from, to); err != nil {
		return nil, err
	}

	results := make([]Result, len(items))
	var todo []*pending
	byKey := make(map[string]*pending)
	for i, it := range items {
		results[i] = Result{Original: it.Text, Context: it.Context}
		key, err := fallback.TranslationKey(it.Text, from, to)
		if err != nil {
			results[i].Err = err
			continue
		}
		if t.cache != nil {
			if s, ok := t.cache.Get(ctx, key); ok {
				results[i].Translation, results[i].Cached = s, true
				continue
			}
		}
		if p := byKey[key]; p != nil {
			p.idx = append(p.idx, i)
			continue
		}
		p := &pending{key: key, item: it, idx: []int{i}}
		byKey[key] = p
		todo = append(todo, p)
	}
	if len(todo) == 0 {
		return results, nil
	}

	text, hints := combine(todo)
	res, err := t.fc.ProcessWithFallback(ctx, service.TaskTranslateBatch, fallback.Payload{
		Text: text, From: from, To: to, Context: hints,
	})
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		// both services already failed with retries; no point asking per item
		t.log.Warn("batch translation failed", lc.Fields{"items": len(todo), "err": err})
		for _, p := range todo {
			for _, i := range p.idx {
				results[i].Err = err
			}
		}
		return results, nil
	}

	parts, found := Parse(res.Text, len(todo))
	var missed []int
	for j, p := range todo {
		if !found[j] {
			missed = append(missed, j)
			continue
		}
		t.fill(results, p, parts[j], nil)
		if t.cache != nil {
			_ = t.cache.Set(ctx, p.key, parts[j], 0) // string codec cannot fail
		}
	}
	if len(missed) > 0 {
		t.log.Info("batch reply incomplete, translating items individually", lc.Fields{
			"items": len(todo), "missing": len(missed), "service": res.Service,
		})
		if err := t.individually(ctx, results, todo, missed, from, to); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// individually translates todo[j] for j in missed through the coordinator,
// which also caches each success.
func (t *Translator) individually(ctx context.Context, results []Result, todo []*pending, missed []int, from, to string) error {
	out := make([]struct {
		s   string
		err error
	}, len(missed))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.conc)
	for k, j := range missed {
		p := todo[j]
		g.Go(func() error {
			r, err := t.fc.ProcessWithFallback(gctx, service.TaskTranslate, fallback.Payload{
				Text: p.item.Text, From: from, To: to, Context: p.item.Context,
			})
			out[k].s, out[k].err = r.Text, err
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	for k, j := range missed {
		t.fill(results, todo[j], out[k].s, out[k].err)
	}
	return nil
}

func (t *Translator) fill(results []Result, p *pending, s string, err error) {
	for _, i := range p.idx {
		results[i].Translation, results[i].Err = s, err
	}
}

// combine renders the pending items as marker lines, plus their contexts as
// marker lines for the request context.
func combine(todo []*pending) (text, hints string) {
	var tb, hb strings.Builder
	for j, p := range todo {
		fmt.Fprintf(&tb, "[%d] %s\n", j, oneLine(p.item.Text))
		if p.item.Context != "" {
			fmt.Fprintf(&hb, "[%d] %s\n", j, oneLine(p.item.Context))
		}
	}
	return strings.TrimSuffix(tb.String(), "\n"), strings.TrimSuffix(hb.String(), "\n")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
