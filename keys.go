package lingocache

import (
	"strings"

	"github.com/unkn0wn-root/lingocache/internal/hash"
)

const (
	translationPrefixLen = 100
	detectionPrefixLen   = 200
)

// ProcessedKind selects the processed-content subtype.
type ProcessedKind string

const (
	KindSummary    ProcessedKind = "summary"
	KindRewrite    ProcessedKind = "rewrite"
	KindVocabulary ProcessedKind = "vocabulary"
)

// TranslationKey is "{from}:{to}:{first 100 chars}". Texts longer than 100
// characters get a "#{hash}" suffix so two texts sharing a prefix stay apart.
func TranslationKey(text, from, to string) string {
	prefix, cut := runePrefix(text, translationPrefixLen)
	k := from + ":" + to + ":" + prefix
	if cut {
		k += "#" + hash.Content(text)
	}
	return k
}

// ProcessedKey is "processed:{hash}:{kind}:{param}".
func ProcessedKey(content string, kind ProcessedKind, param string) string {
	return "processed:" + hash.Content(content) + ":" + string(kind) + ":" + param
}

// DetectionKey is the first 200 characters of the trimmed text.
func DetectionKey(text string) string {
	k, _ := runePrefix(strings.TrimSpace(text), detectionPrefixLen)
	return k
}

// ArticleKey is "article:{hash(url)}".
func ArticleKey(url string) string {
	return "article:" + hash.Content(url)
}

// runePrefix returns the first n runes of s and whether s was longer.
func runePrefix(s string, n int) (string, bool) {
	if len(s) <= n {
		return s, false // fewer bytes than n means fewer runes too
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], true
		}
		i++
	}
	return s, false
}
