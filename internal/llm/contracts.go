package llm

import (
	"context"
	"log/slog"
	"strings"
)

// PartKind tags a content part sent to the extraction service.
type PartKind string

const (
	PartPDF  PartKind = "application/pdf"
	PartText PartKind = "text/plain"
)

// ContentPart is one input handed to the model: a base64 PDF blob or a block of text.
type ContentPart struct {
	Kind     PartKind
	Filename string // PDF only
	Base64   string // PDF only, standard encoding without a data: prefix
	Text     string // text only
}

func PDFPart(filename, b64 string) ContentPart {
	return ContentPart{Kind: PartPDF, Filename: filename, Base64: b64}
}

func TextPart(text string) ContentPart {
	return ContentPart{Kind: PartText, Text: text}
}

// SanitizeFunc repairs a model response that failed schema validation.
// It returns the cleaned document and a short description of every change.
type SanitizeFunc func(raw []byte, logger *slog.Logger) ([]byte, []string, error)

// ExtractionRequest is a single schema-constrained call.
type ExtractionRequest struct {
	Name         string // schema name reported to the provider, e.g. "quote_record"
	Instructions string // system message
	Parts        []ContentPart
	Schema       map[string]any
	Sanitize     SanitizeFunc // optional lenient repair before giving up on validation
}

// Extractor is the interface the pipeline depends on. Implementations return the
// response JSON only after it validates against req.Schema.
type Extractor interface {
	Extract(ctx context.Context, req ExtractionRequest) ([]byte, error)
}

// EmailContext is what the envelope says about the sender.
type EmailContext struct {
	SenderEmail string
	SenderName  string
	Subject     string
}

// HasEnvelope reports whether c carries a sender or subject worth showing the model.
func (c *EmailContext) HasEnvelope() bool {
	return c != nil && (strings.TrimSpace(c.SenderEmail) != "" || strings.TrimSpace(c.Subject) != "")
}
