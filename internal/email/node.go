package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/quotedprintable"
	"net/url"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/joseph-ayodele/submission-intake/constants"
)

// Node is one part of a parsed email. It is either a *Leaf or a *Composite.
type Node interface {
	Headers() *Header
}

// Header carries the MIME headers every node has.
type Header struct {
	MediaType   string            // lowercased, e.g. "text/plain"
	Params      map[string]string // content-type parameters
	Disposition string            // lowercased, e.g. "attachment"; empty when absent
	DispParams  map[string]string
}

// Leaf is a node with content and no children.
type Leaf struct {
	Header
	Encoding string // content-transfer-encoding, lowercased
	Raw      []byte // body exactly as it appeared in the message
}

// Composite is a multipart (or message/rfc822) node.
type Composite struct {
	Header
	Children []Node
}

func (l *Leaf) Headers() *Header      { return &l.Header }
func (c *Composite) Headers() *Header { return &c.Header }

// Walk visits every leaf under n depth-first in document order until fn returns false.
func Walk(n Node, fn func(*Leaf) bool) bool {
	switch v := n.(type) {
	case *Leaf:
		return fn(v)
	case *Composite:
		for _, child := range v.Children {
			if !Walk(child, fn) {
				return false
			}
		}
	}
	return true
}

// Content returns the leaf body with its transfer encoding removed.
func (l *Leaf) Content() ([]byte, error) {
	switch l.Encoding {
	case "base64":
		return decodeBase64(l.Raw)
	case "quoted-printable":
		return io.ReadAll(quotedprintable.NewReader(bytes.NewReader(l.Raw)))
	default:
		return l.Raw, nil
	}
}

// Text returns the decoded body as UTF-8 with normalized line endings.
func (l *Leaf) Text() (string, error) {
	b, err := l.Content()
	if err != nil {
		return "", err
	}
	if cs := l.Params["charset"]; cs != "" && !strings.EqualFold(cs, "utf-8") && !strings.EqualFold(cs, "us-ascii") {
		r, err := charset.NewReaderLabel(cs, bytes.NewReader(b))
		if err == nil {
			if converted, err := io.ReadAll(r); err == nil {
				b = converted
			}
		}
	}
	return normalizeNewlines(string(b)), nil
}

// IsAttachment reports whether the part is attachment-like: an explicit attachment
// disposition, a PDF media type, or an octet-stream named *.pdf.
func (p *Header) IsAttachment() bool {
	if p.Disposition == "attachment" {
		return true
	}
	if isPDFMediaType(p.MediaType) {
		return true
	}
	return p.MediaType == "application/octet-stream" && hasPDFName(p.rawFilename())
}

// IsPDF reports whether the part is identified as a PDF by media type or filename.
func (p *Header) IsPDF() bool {
	return isPDFMediaType(p.MediaType) || hasPDFName(p.rawFilename())
}

// Filename resolves the attachment name from the disposition filename (URL-decoded),
// then the content-type name, then the default.
func (p *Header) Filename() string {
	if name := p.rawFilename(); name != "" {
		return name
	}
	return constants.DefaultAttachmentName
}

func (p *Header) rawFilename() string {
	if name := strings.TrimSpace(p.DispParams["filename"]); name != "" {
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
		return decodeWords(name)
	}
	return decodeWords(strings.TrimSpace(p.Params["name"]))
}

func isPDFMediaType(mt string) bool {
	return mt == "application/pdf" || mt == "application/x-pdf"
}

func hasPDFName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

var wordDecoder = &mime.WordDecoder{CharsetReader: charset.NewReaderLabel}

// decodeWords decodes RFC 2047 encoded-words, returning s unchanged on failure.
func decodeWords(s string) string {
	if !strings.Contains(s, "=?") {
		return s
	}
	out, err := wordDecoder.DecodeHeader(s)
	if err != nil {
		return s
	}
	return out
}

func decodeBase64(raw []byte) ([]byte, error) {
	clean := bytes.Map(func(r rune) rune {
		switch r {
		case '\r', '\n', ' ', '\t':
			return -1
		}
		return r
	}, raw)
	out := make([]byte, base64.StdEncoding.DecodedLen(len(clean)))
	n, err := base64.StdEncoding.Decode(out, clean)
	if err == nil {
		return out[:n], nil
	}
	out = make([]byte, base64.RawStdEncoding.DecodedLen(len(clean)))
	n, rawErr := base64.RawStdEncoding.Decode(out, bytes.TrimRight(clean, "="))
	if rawErr != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return out[:n], nil
}

func normalizeNewlines(s string) string {
	return reCRLF.ReplaceAllString(s, "\n")
}
