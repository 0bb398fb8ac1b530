// Package service defines the contract the coordinators use to reach an AI
// backend, plus adapters for plain functions and prompt-driven LLMs.
package service

import "context"

// Task names one kind of AI work. It doubles as the capability a service
// must report to be asked for it.
type Task string

const (
	TaskTranslate      Task = "translation"
	TaskTranslateBatch Task = "translation-batch" // combined payload, never cached as a whole
	TaskDetectLanguage Task = "language-detection"
	TaskSummarize      Task = "summary"
	TaskRewrite        Task = "rewrite"
	TaskVocabulary     Task = "vocabulary"
)

// Capabilities lists what a service can do. Populated once, from the
// service's probe, and read on every call.
type Capabilities struct {
	DetectLanguage    bool
	Summarize         bool
	Rewrite           bool
	Translate         bool
	AnalyzeVocabulary bool
}

// All is every capability enabled.
var All = Capabilities{DetectLanguage: true, Summarize: true, Rewrite: true, Translate: true, AnalyzeVocabulary: true}

// Supports reports whether c covers t. Batch translation rides on Translate.
func (c Capabilities) Supports(t Task) bool {
	switch t {
	case TaskTranslate, TaskTranslateBatch:
		return c.Translate
	case TaskDetectLanguage:
		return c.DetectLanguage
	case TaskSummarize:
		return c.Summarize
	case TaskRewrite:
		return c.Rewrite
	case TaskVocabulary:
		return c.AnalyzeVocabulary
	default:
		return false
	}
}

type TranslateRequest struct {
	Text    string
	From    string // BCP-47; "" lets the service detect it
	To      string
	Context string // surrounding sentence(s) to disambiguate the text
}

type SummarizeRequest struct {
	Text     string
	Language string
	Length   string // "short", "medium", "long"
}

type RewriteRequest struct {
	Text     string
	Language string
	Level    string // CEFR: A1..C2
}

type VocabularyRequest struct {
	Text           string
	Language       string
	TargetLanguage string // language for translations and definitions
	Level          string
}

type VocabularyItem struct {
	Word         string `json:"word"`
	Translation  string `json:"translation"`
	Definition   string `json:"definition,omitempty"`
	PartOfSpeech string `json:"partOfSpeech,omitempty"`
	Difficulty   string `json:"difficulty,omitempty"`
	Example      string `json:"example,omitempty"`
}

// Service is one AI backend. Implementations classify failures as
// *svcerr.Error so retry and fallback can decide on them.
type Service interface {
	Name() string
	// Available is a cheap liveness check (credentials configured, endpoint up).
	Available(ctx context.Context) bool
	Capabilities(ctx context.Context) Capabilities

	DetectLanguage(ctx context.Context, text string) (string, error)
	Summarize(ctx context.Context, req SummarizeRequest) (string, error)
	Rewrite(ctx context.Context, req RewriteRequest) (string, error)
	Translate(ctx context.Context, req TranslateRequest) (string, error)
	AnalyzeVocabulary(ctx context.Context, req VocabularyRequest) ([]VocabularyItem, error)
}
