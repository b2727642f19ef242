// Package pipeline turns submission documents into a reconciled quote record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/submission-intake/internal/common"
	"github.com/joseph-ayodele/submission-intake/internal/entity"
	"github.com/joseph-ayodele/submission-intake/internal/llm"
	"github.com/joseph-ayodele/submission-intake/internal/metrics"
	"github.com/joseph-ayodele/submission-intake/internal/summarize"
)

// ErrNoSources is returned when a request has neither PDFs nor email text.
var ErrNoSources = fmt.Errorf("at least one PDF or email body is required: %w", common.ErrValidation)

// AnalyzeRequest is everything one analysis draws on.
type AnalyzeRequest struct {
	PDFs              []PDF
	EmailBody         string
	AlreadySummarized bool
	Email             *llm.EmailContext

	// EmailSummaryPartial is a pre-extraction the caller already holds for a summarized body.
	EmailSummaryPartial *entity.QuoteRecord
}

type AnalyzeResult struct {
	Record     *entity.QuoteRecord
	Summarized bool
	RequestID  string
}

// Processor coordinates summarization, extraction and reconciliation.
type Processor struct {
	Logger     *slog.Logger
	Extractor  llm.Extractor
	Summarizer *summarize.Summarizer
}

func NewProcessor(logger *slog.Logger, ext llm.Extractor, sum *summarize.Summarizer) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Extractor: ext, Summarizer: sum}
}

// Analyze runs one extraction over the request's sources and returns the reconciled record.
// Extraction-service failures are returned as *llm.ExtractionError.
func (p *Processor) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	log := p.Logger.With("req_id", rid)

	body := strings.TrimSpace(req.EmailBody)
	if len(req.PDFs) == 0 && body == "" {
		return nil, ErrNoSources
	}
	log.Info("pipeline.analyze.start",
		"pdfs", len(req.PDFs),
		"body_chars", len(body),
		"already_summarized", req.AlreadySummarized,
		"has_sender", req.Email != nil && req.Email.SenderEmail != "",
	)

	parts, err := EncodePDFs(ctx, req.PDFs)
	if err != nil {
		log.Warn("pipeline.analyze.pdf_rejected", "error", err)
		return nil, err
	}

	summarized := req.AlreadySummarized
	partial := req.EmailSummaryPartial
	if body != "" && !summarized && summarize.ShouldSummarize(body) && p.Summarizer != nil {
		sum, err := p.Summarizer.Summarize(ctx, body)
		if err != nil {
			metrics.IncSummarization("failed")
			log.Warn("pipeline.analyze.summarize_failed", "error", err, "hint", "continuing with full email body")
		} else {
			metrics.IncSummarization("ok")
			body, partial, summarized = sum.Text, sum.Partial, true
		}
	}
	if body != "" || req.Email.HasEnvelope() {
		parts = append(parts, llm.TextPart(llm.BuildEmailBlock(body, summarized, req.Email)))
	}

	start := time.Now()
	raw, err := p.Extractor.Extract(ctx, llm.ExtractionRequest{
		Name:         llm.QuoteSchemaName,
		Instructions: llm.BuildQuoteInstructions(),
		Parts:        parts,
		Schema:       llm.BuildQuoteRecordSchema(),
		Sanitize:     llm.SanitizeQuoteJSON,
	})
	if err == nil && len(raw) == 0 {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		ee := llm.Classify(err)
		metrics.RecordExtraction(string(ee.Kind), time.Since(start))
		log.Error("pipeline.analyze.extract_failed", "kind", ee.Kind, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, ee
	}
	metrics.RecordExtraction("ok", time.Since(start))

	rec := entity.NewQuoteRecord()
	if err := llm.DecodeResult(raw, llm.SanitizeQuoteJSON, log, rec); err != nil {
		log.Error("pipeline.analyze.decode_failed", "error", err)
		return nil, llm.Classify(fmt.Errorf("decode extraction result: %w", err))
	}

	var sender string
	if req.Email != nil {
		sender = req.Email.SenderEmail
	}
	Reconcile(rec, sender, partial)

	log.Info("pipeline.analyze.ok",
		"summarized", summarized,
		"notes", len(rec.ParsingNotes),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &AnalyzeResult{Record: rec, Summarized: summarized, RequestID: rid}, nil
}

// IsValidation reports whether err is a caller mistake rather than a service failure.
func IsValidation(err error) bool {
	return errors.Is(err, common.ErrValidation)
}
