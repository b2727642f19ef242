package email

import (
	"bytes"
)

var pdfMagic = []byte("%PDF")

// Attachment is a PDF carried by the email.
type Attachment struct {
	Filename string
	Content  []byte
}

// collectAttachments walks the tree and returns every PDF-identified attachment in document order.
func collectAttachments(root Node) []Attachment {
	var out []Attachment
	Walk(root, func(l *Leaf) bool {
		if !l.IsAttachment() || !l.IsPDF() {
			return true
		}
		content, err := l.Content()
		if err != nil {
			return true
		}
		out = append(out, Attachment{Filename: l.Filename(), Content: maybeBase64(content)})
		return true
	})
	return out
}

// maybeBase64 decodes content that arrived as a base64 string without a transfer-encoding header.
func maybeBase64(content []byte) []byte {
	if bytes.HasPrefix(bytes.TrimSpace(content), pdfMagic) {
		return content
	}
	decoded, err := decodeBase64(content)
	if err != nil || !bytes.HasPrefix(decoded, pdfMagic) {
		return content
	}
	return decoded
}
