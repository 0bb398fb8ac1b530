package service

import (
	"context"

	"github.com/unkn0wn-root/lingocache/svcerr"
)

// Funcs adapts plain functions to Service. A nil function means the
// capability is absent; calling it returns a service-unavailable error.
type Funcs struct {
	ID string

	Probe func(ctx context.Context) bool // nil => always available

	DetectLanguageFunc    func(ctx context.Context, text string) (string, error)
	SummarizeFunc         func(ctx context.Context, req SummarizeRequest) (string, error)
	RewriteFunc           func(ctx context.Context, req RewriteRequest) (string, error)
	TranslateFunc         func(ctx context.Context, req TranslateRequest) (string, error)
	AnalyzeVocabularyFunc func(ctx context.Context, req VocabularyRequest) ([]VocabularyItem, error)
}

var _ Service = (*Funcs)(nil)

func (f *Funcs) Name() string { return f.ID }

func (f *Funcs) Available(ctx context.Context) bool {
	if f.Probe == nil {
		return true
	}
	return f.Probe(ctx)
}

func (f *Funcs) Capabilities(context.Context) Capabilities {
	return Capabilities{
		DetectLanguage:    f.DetectLanguageFunc != nil,
		Summarize:         f.SummarizeFunc != nil,
		Rewrite:           f.RewriteFunc != nil,
		Translate:         f.TranslateFunc != nil,
		AnalyzeVocabulary: f.AnalyzeVocabularyFunc != nil,
	}
}

func (f *Funcs) missing(op string) error {
	return svcerr.Unavailable(f.ID, op+" not supported")
}

func (f *Funcs) DetectLanguage(ctx context.Context, text string) (string, error) {
	if f.DetectLanguageFunc == nil {
		return "", f.missing("language detection")
	}
	return f.DetectLanguageFunc(ctx, text)
}

func (f *Funcs) Summarize(ctx context.Context, req SummarizeRequest) (string, error) {
	if f.SummarizeFunc == nil {
		return "", f.missing("summarization")
	}
	return f.SummarizeFunc(ctx, req)
}

func (f *Funcs) Rewrite(ctx context.Context, req RewriteRequest) (string, error) {
	if f.RewriteFunc == nil {
		return "", f.missing("rewriting")
	}
	return f.RewriteFunc(ctx, req)
}

func (f *Funcs) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	if f.TranslateFunc == nil {
		return "", f.missing("translation")
	}
	return f.TranslateFunc(ctx, req)
}

func (f *Funcs) AnalyzeVocabulary(ctx context.Context, req VocabularyRequest) ([]VocabularyItem, error) {
	if f.AnalyzeVocabularyFunc == nil {
		return nil, f.missing("vocabulary analysis")
	}
	return f.AnalyzeVocabularyFunc(ctx, req)
}
