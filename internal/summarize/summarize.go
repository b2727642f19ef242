// Package summarize condenses oversized email bodies before extraction.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/submission-intake/constants"
	"github.com/joseph-ayodele/submission-intake/internal/entity"
	"github.com/joseph-ayodele/submission-intake/internal/llm"
)

// ShouldSummarize reports whether body is longer than the summarization threshold, in characters.
func ShouldSummarize(body string) bool {
	return utf8.RuneCountInString(body) > constants.SummarizeThreshold
}

// Summary is a condensed email plus the fields it stated outright.
type Summary struct {
	Text    string
	Partial *entity.QuoteRecord
}

type Summarizer struct {
	Logger    *slog.Logger
	Extractor llm.Extractor
}

func New(logger *slog.Logger, ext llm.Extractor) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{Logger: logger, Extractor: ext}
}

// Summarize runs one schema-constrained call over body. Fields of the partial record the
// email does not state are unknown.
func (s *Summarizer) Summarize(ctx context.Context, body string) (*Summary, error) {
	start := time.Now()
	s.Logger.Info("summarize.start", "body_chars", utf8.RuneCountInString(body))

	raw, err := s.Extractor.Extract(ctx, llm.ExtractionRequest{
		Name:         llm.SummarySchemaName,
		Instructions: llm.BuildSummaryInstructions(),
		Parts:        []llm.ContentPart{llm.TextPart("EMAIL CONTENT:\n" + body)},
		Schema:       llm.BuildSummarySchema(),
		Sanitize:     llm.SanitizeSummaryJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	var out struct {
		SummaryText   string              `json:"summary_text"`
		PartialRecord *entity.QuoteRecord `json:"partial_record"`
	}
	if err := llm.DecodeResult(raw, llm.SanitizeSummaryJSON, s.Logger, &out); err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	text := strings.TrimSpace(out.SummaryText)
	if text == "" {
		return nil, errors.New("summarize: empty summary")
	}
	partial := out.PartialRecord
	if partial == nil {
		partial = entity.NewQuoteRecord()
	}
	partial.ParsingNotes = entity.Notes{}

	s.Logger.Info("summarize.ok",
		"summary_chars", utf8.RuneCountInString(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &Summary{Text: text, Partial: partial}, nil
}
