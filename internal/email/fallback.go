package email

import (
	"bytes"
	"io"
	"mime/quotedprintable"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/submission-intake/constants"
)

var (
	// section headers, blank line, content up to the next boundary or header
	reTextPlainSection     = regexp.MustCompile(`(?is)Content-Type:[ \t]*text/plain[^\n]*\n((?:[ \t][^\n]*\n|[A-Za-z][A-Za-z0-9-]*:[^\n]*\n)*)\n(.*?)(?:\n--|\nContent-Type:|\z)`)
	reTextHTMLSection      = regexp.MustCompile(`(?is)Content-Type:[ \t]*text/html[^\n]*\n((?:[ \t][^\n]*\n|[A-Za-z][A-Za-z0-9-]*:[^\n]*\n)*)\n(.*?)(?:\n--|\nContent-Type:|\z)`)
	reAfterBlankToBoundary = regexp.MustCompile(`(?s)\n\n(.*?)(?:\n--|\z)`)
	reTransferEncoding     = regexp.MustCompile(`(?i)Content-Transfer-Encoding:[ \t]*([A-Za-z0-9-]+)`)
)

// BodyStrategy is one named way of pulling a body out of raw, unparsed email text.
type BodyStrategy struct {
	Name    string
	Extract func(raw string) string
}

// BodyFallbacks are tried in order against raw text; the first non-empty result wins.
var BodyFallbacks = []BodyStrategy{
	{Name: "text-plain-section", Extract: func(raw string) string {
		return sectionBody(reTextPlainSection, raw, false)
	}},
	{Name: "text-html-section", Extract: func(raw string) string {
		return sectionBody(reTextHTMLSection, raw, true)
	}},
	{Name: "blank-line-to-boundary", Extract: func(raw string) string {
		if m := reAfterBlankToBoundary.FindStringSubmatch(raw); m != nil {
			return CollapseWhitespace(m[1])
		}
		return ""
	}},
	{Name: "after-first-blank-line", Extract: func(raw string) string {
		body := raw
		if _, after, ok := strings.Cut(raw, "\n\n"); ok {
			body = after
		}
		return truncateRunes(strings.TrimSpace(body), constants.MaxFallbackBodyChars)
	}},
}

// FallbackBody runs BodyFallbacks and returns the winning text and strategy name.
func FallbackBody(raw string) (string, string) {
	raw = normalizeNewlines(raw)
	for _, s := range BodyFallbacks {
		if text := s.Extract(raw); text != "" {
			return text, s.Name
		}
	}
	return "", ""
}

func sectionBody(re *regexp.Regexp, raw string, html bool) string {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	content := m[2]
	if enc := reTransferEncoding.FindStringSubmatch(m[1]); enc != nil {
		switch strings.ToLower(enc[1]) {
		case "base64":
			if b, err := decodeBase64([]byte(content)); err == nil {
				content = string(b)
			}
		case "quoted-printable":
			if b, err := io.ReadAll(quotedprintable.NewReader(bytes.NewReader([]byte(content)))); err == nil {
				content = string(b)
			}
		}
	}
	if html {
		return StripHTML(content)
	}
	return CollapseWhitespace(content)
}
