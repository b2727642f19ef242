// Package email turns raw .eml files into clean body text, PDF attachments and sender metadata.
package email

import (
	"github.com/joseph-ayodele/submission-intake/constants"
)

// Metadata is what the envelope tells us about a submission. Empty strings are unknown.
type Metadata struct {
	Subject           string `json:"subject,omitempty"`
	SenderEmail       string `json:"sender_email,omitempty"`
	SenderDisplayName string `json:"sender_display_name,omitempty"`
	ToAddress         string `json:"to_address,omitempty"`
	DateISO           string `json:"date_iso,omitempty"`
}

// Extraction is the result of reading one email file. It is not modified after construction.
type Extraction struct {
	BodyText    string
	Attachments []Attachment
	Metadata    *Metadata
	Path        constants.EmailParsePath

	// BodyStrategy names the fallback strategy that produced BodyText, if any.
	BodyStrategy string
}

// Extract parses raw with the structured MIME parser. Sender and subject that the headers
// cannot supply are filled from the raw-text patterns; the body comes only from the tree. An error means the structure
// itself could not be read; callers should then use Salvage.
func Extract(raw []byte) (*Extraction, error) {
	msg, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	text := string(raw)

	meta := &Metadata{
		Subject:   decodeWords(msg.Header.Get("Subject")),
		ToAddress: toFromHeader(msg.Header),
		DateISO:   dateFromHeader(msg.Header),
	}
	meta.SenderEmail, meta.SenderDisplayName = senderFromHeader(msg.Header)
	if meta.SenderEmail == "" {
		meta.SenderEmail = senderFromRaw(text)
	}
	if meta.Subject == "" {
		meta.Subject = subjectFromRaw(text)
	}

	// A tree without a text leaf has no body; the raw-text fallbacks would
	// otherwise pick up encoded attachment data.
	return &Extraction{
		BodyText:    findBody(msg.Root),
		Attachments: collectAttachments(msg.Root),
		Metadata:    meta,
		Path:        constants.ParsePathStructured,
	}, nil
}

// Salvage extracts what it can from raw text alone: body via BodyFallbacks, sender and subject
// via line patterns. Attachments are never recovered this way.
func Salvage(raw []byte) *Extraction {
	text := normalizeNewlines(string(raw))
	body, strategy := FallbackBody(text)
	meta := &Metadata{
		SenderEmail: senderFromRaw(text),
		Subject:     subjectFromRaw(text),
	}
	return &Extraction{
		BodyText:     body,
		Metadata:     meta,
		Path:         constants.ParsePathFallback,
		BodyStrategy: strategy,
	}
}
