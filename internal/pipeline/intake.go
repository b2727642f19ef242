package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/submission-intake/constants"
	"github.com/joseph-ayodele/submission-intake/internal/email"
	"github.com/joseph-ayodele/submission-intake/internal/llm"
	"github.com/joseph-ayodele/submission-intake/internal/metrics"
)

// EmailIntake is an uploaded email ready for analysis. A degraded parse carries a Warning
// for the reviewer; a file nothing could be read from is Cleared.
type EmailIntake struct {
	*email.Extraction
	Warning string
	Cleared bool
}

// Context returns the sender and subject for the extraction prompt, or nil.
func (e *EmailIntake) Context() *llm.EmailContext {
	if e == nil || e.Extraction == nil || e.Metadata == nil {
		return nil
	}
	return &llm.EmailContext{
		SenderEmail: e.Metadata.SenderEmail,
		SenderName:  e.Metadata.SenderDisplayName,
		Subject:     e.Metadata.Subject,
	}
}

// LoadEmail reads raw .eml content. It never fails: a broken structure falls back to
// raw-text salvage and the problem is reported through Warning.
func LoadEmail(raw []byte, logger *slog.Logger) *EmailIntake {
	if logger == nil {
		logger = slog.Default()
	}

	ex, err := email.Extract(raw)
	if err == nil {
		metrics.IncEmailParse(string(ex.Path))
		logger.Info("email.parse.ok",
			"path", ex.Path,
			"body_chars", len(ex.BodyText),
			"attachments", len(ex.Attachments),
			"body_strategy", ex.BodyStrategy,
		)
		return &EmailIntake{Extraction: ex}
	}

	logger.Warn("email.parse.fallback", "error", err, "bytes", len(raw))
	ex = email.Salvage(raw)
	if strings.TrimSpace(ex.BodyText) == "" && ex.Metadata.SenderEmail == "" && ex.Metadata.Subject == "" {
		metrics.IncEmailParse(string(constants.ParsePathCleared))
		logger.Warn("email.parse.cleared", "bytes", len(raw))
		return &EmailIntake{
			Extraction: &email.Extraction{Path: constants.ParsePathCleared},
			Warning:    "Nothing could be read from the email file, so it was cleared. Please upload it again or paste the text instead.",
			Cleared:    true,
		}
	}

	metrics.IncEmailParse(string(ex.Path))
	logger.Info("email.parse.salvaged",
		"body_chars", len(ex.BodyText),
		"body_strategy", ex.BodyStrategy,
		"has_sender", ex.Metadata.SenderEmail != "",
	)
	return &EmailIntake{
		Extraction: ex,
		Warning: fmt.Sprintf("The email could not be fully parsed (%v). Text was recovered from the raw file; "+
			"attachments could not be read and the body may be incomplete.", err),
	}
}

// Request builds an AnalyzeRequest from the email's body, sender and PDF attachments,
// followed by any separately uploaded PDFs. A nil intake uses extra alone.
func (e *EmailIntake) Request(extra []PDF) AnalyzeRequest {
	var req AnalyzeRequest
	if e != nil && e.Extraction != nil {
		req.EmailBody = e.BodyText
		req.Email = e.Context()
		for _, a := range e.Attachments {
			req.PDFs = append(req.PDFs, PDF{Filename: a.Filename, Data: a.Content})
		}
	}
	req.PDFs = append(req.PDFs, extra...)
	return req
}
