package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/unkn0wn-root/lingocache/svcerr"
)

const defaultMaxInputChars = 30_000

// Completer sends one system/user prompt pair to a chat model and returns
// the reply text. Errors should already be *svcerr.Error.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type LLMConfig struct {
	Name          string
	Completer     Completer
	Probe         func(ctx context.Context) bool // nil => always available
	Caps          *Capabilities                  // nil => All
	MaxInputChars int                            // 0 => 30000
}

// LLM implements Service with prompts over a Completer. The gemini and
// openai packages build one around their client.
type LLM struct {
	name     string
	c        Completer
	probe    func(ctx context.Context) bool
	caps     Capabilities
	maxInput int
}

var _ Service = (*LLM)(nil)

func NewLLM(cfg LLMConfig) *LLM {
	l := &LLM{
		name:     cfg.Name,
		c:        cfg.Completer,
		probe:    cfg.Probe,
		caps:     All,
		maxInput: cfg.MaxInputChars,
	}
	if cfg.Caps != nil {
		l.caps = *cfg.Caps
	}
	if l.maxInput <= 0 {
		l.maxInput = defaultMaxInputChars
	}
	return l
}

func (l *LLM) Name() string { return l.name }

func (l *LLM) Available(ctx context.Context) bool {
	if l.c == nil {
		return false
	}
	if l.probe == nil {
		return true
	}
	return l.probe(ctx)
}

func (l *LLM) Capabilities(context.Context) Capabilities { return l.caps }

func (l *LLM) DetectLanguage(ctx context.Context, text string) (string, error) {
	out, err := l.complete(ctx, text,
		"Identify the language of the user's text. Reply with only its BCP-47 language code, for example en, es, pt-BR.",
		text)
	if err != nil {
		return "", err
	}
	code := strings.Trim(strings.TrimSpace(out), "\"'`.")
	tag, perr := language.Parse(code)
	if perr != nil {
		return "", l.fail(svcerr.KindProcessingFailed, fmt.Sprintf("model returned %q, not a language code", code), perr)
	}
	return tag.String(), nil
}

func (l *LLM) Summarize(ctx context.Context, req SummarizeRequest) (string, error) {
	length := req.Length
	if length == "" {
		length = "short"
	}
	sys := fmt.Sprintf("Summarize the article for a language learner. Length: %s (%s). Write the summary in %s. Reply with only the summary.",
		length, summaryLength(length), languageName(req.Language))
	return l.complete(ctx, req.Text, sys, req.Text)
}

func (l *LLM) Rewrite(ctx context.Context, req RewriteRequest) (string, error) {
	sys := fmt.Sprintf("Rewrite the text in %s for a reader at CEFR level %s. Keep the meaning and the paragraph structure. Use vocabulary and grammar suited to that level. Reply with only the rewritten text.",
		languageName(req.Language), req.Level)
	return l.complete(ctx, req.Text, sys, req.Text)
}

func (l *LLM) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	var sys strings.Builder
	fmt.Fprintf(&sys, "Translate the user's text from %s to %s. Reply with only the translation.", languageName(req.From), languageName(req.To))
	sys.WriteString(" Lines starting with a marker such as [0] or [1] are separate items: keep every marker at the start of its line and translate each line independently.")
	if req.Context != "" {
		sys.WriteString("\nContext (do not translate, use it to disambiguate):\n")
		sys.WriteString(req.Context)
	}
	return l.complete(ctx, req.Text, sys.String(), req.Text)
}

func (l *LLM) AnalyzeVocabulary(ctx context.Context, req VocabularyRequest) ([]VocabularyItem, error) {
	sys := fmt.Sprintf(`Pick the words in the %s text that a learner at level %s is least likely to know.
Reply with only a JSON array of objects with the fields "word", "translation" (into %s), "definition", "partOfSpeech", "difficulty" and "example".`,
		languageName(req.Language), coalesceStr(req.Level, "B1"), languageName(req.TargetLanguage))
	out, err := l.complete(ctx, req.Text, sys, req.Text)
	if err != nil {
		return nil, err
	}
	var items []VocabularyItem
	if jerr := json.Unmarshal([]byte(stripFence(out)), &items); jerr != nil {
		return nil, l.fail(svcerr.KindProcessingFailed, "vocabulary reply is not a JSON array", jerr)
	}
	return items, nil
}

func (l *LLM) complete(ctx context.Context, input, system, user string) (string, error) {
	if l.c == nil {
		return "", svcerr.Unavailable(l.name, "no client configured")
	}
	if strings.TrimSpace(input) == "" {
		return "", l.fail(svcerr.KindInvalidInput, "empty text", nil)
	}
	if n := len([]rune(input)); n > l.maxInput {
		return "", l.fail(svcerr.KindInvalidInput, fmt.Sprintf("text too long: %d > %d characters", n, l.maxInput), nil)
	}

	out, err := l.c.Complete(ctx, system, user)
	if err != nil {
		se := svcerr.As(err)
		if se.Service == "" {
			cp := *se
			cp.Service = l.name
			se = &cp
		}
		return "", se
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", l.fail(svcerr.KindProcessingFailed, "empty reply", nil)
	}
	return out, nil
}

func (l *LLM) fail(k svcerr.Kind, msg string, cause error) *svcerr.Error {
	e := svcerr.Wrap(k, msg, cause)
	e.Service = l.name
	return e
}

func summaryLength(s string) string {
	switch s {
	case "medium":
		return "one paragraph"
	case "long":
		return "three to five paragraphs"
	default:
		return "two or three sentences"
	}
}

// languageName renders a BCP-47 code in English for prompts; "" is "the
// source language".
func languageName(code string) string {
	if code == "" {
		return "the source language"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	return fmt.Sprintf("%s (%s)", display.English.Tags().Name(tag), tag)
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func coalesceStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
