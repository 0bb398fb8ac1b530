package fallback

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	lc "github.com/unkn0wn-root/lingocache"
	"github.com/unkn0wn-root/lingocache/service"
	"github.com/unkn0wn-root/lingocache/svcerr"
)

const autoLang = "auto"

var (
	summaryLengths = map[string]bool{"short": true, "medium": true, "long": true}
	cefrLevels     = map[string]bool{"A1": true, "A2": true, "B1": true, "B2": true, "C1": true, "C2": true}
)

// normalize rejects malformed input before any service call and
// canonicalizes language codes so equivalent requests share a cache key.
func normalize(task service.Task, p Payload) (Payload, error) {
	if strings.TrimSpace(p.Text) == "" {
		return p, svcerr.InvalidInput("empty text")
	}
	var err error
	switch task {
	case service.TaskTranslate, service.TaskTranslateBatch:
		if p.To == "" {
			return p, svcerr.InvalidInput("target language required")
		}
		if p.From == autoLang {
			p.From = ""
		}
		if p.From, err = canonical(p.From); err != nil {
			return p, err
		}
		if p.To, err = canonical(p.To); err != nil {
			return p, err
		}
	case service.TaskDetectLanguage:
	case service.TaskSummarize:
		if p.Length == "" {
			p.Length = "short"
		}
		if !summaryLengths[p.Length] {
			return p, svcerr.InvalidInput(fmt.Sprintf("summary length %q: want short, medium or long", p.Length))
		}
		if p.Language, err = canonical(p.Language); err != nil {
			return p, err
		}
	case service.TaskRewrite, service.TaskVocabulary:
		p.Level = strings.ToUpper(p.Level)
		if task == service.TaskVocabulary && p.Level == "" {
			p.Level = "B1"
		}
		if !cefrLevels[p.Level] {
			return p, svcerr.InvalidInput(fmt.Sprintf("level %q: want a CEFR level A1-C2", p.Level))
		}
		if p.Language, err = canonical(p.Language); err != nil {
			return p, err
		}
		if p.TargetLanguage, err = canonical(p.TargetLanguage); err != nil {
			return p, err
		}
	default:
		return p, svcerr.InvalidInput("unknown task " + string(task))
	}
	return p, nil
}

func canonical(code string) (string, error) {
	if code == "" {
		return "", nil
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", svcerr.Wrap(svcerr.KindInvalidInput, fmt.Sprintf("language code %q", code), err)
	}
	return tag.String(), nil
}

// cacheKey maps a normalized request to its namespace and key. Batch payloads
// are combined texts and are never cached as a whole.
func cacheKey(task service.Task, p Payload) (lc.Namespace, string, bool) {
	switch task {
	case service.TaskTranslate:
		from := p.From
		if from == "" {
			from = autoLang
		}
		return lc.NSTranslation, lc.TranslationKey(p.Text, from, p.To), true
	case service.TaskDetectLanguage:
		return lc.NSDetection, lc.DetectionKey(p.Text), true
	case service.TaskSummarize:
		return lc.NSProcessed, lc.ProcessedKey(p.Text, lc.KindSummary, param(p.Length, p.Language)), true
	case service.TaskRewrite:
		return lc.NSProcessed, lc.ProcessedKey(p.Text, lc.KindRewrite, param(p.Level, p.Language)), true
	case service.TaskVocabulary:
		return lc.NSProcessed, lc.ProcessedKey(p.Text, lc.KindVocabulary, param(p.Level, p.Language, p.TargetLanguage)), true
	}
	return "", "", false
}

// param joins the parameters that change the output; positions are kept so
// an empty field never shifts the next one.
func param(parts ...string) string { return strings.Join(parts, "/") }

// TranslationKey is the translation-namespace key the coordinator uses for
// text, with language codes canonicalized the same way.
func TranslationKey(text, from, to string) (string, error) {
	p, err := normalize(service.TaskTranslate, Payload{Text: text, From: from, To: to})
	if err != nil {
		return "", err
	}
	_, key, _ := cacheKey(service.TaskTranslate, p)
	return key, nil
}
