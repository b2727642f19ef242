package email

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"regexp"
	"strings"
)

const maxDepth = 32

var (
	reBoundaryParam = regexp.MustCompile(`(?i)boundary\s*=\s*"?([^";\r\n]+)"?`)

	ErrNoParts = errors.New("multipart body has no readable parts")
)

// Message is a parsed email: its top-level headers and MIME tree.
type Message struct {
	Header mail.Header
	Root   Node
}

// Parse decodes raw .eml content into a MIME tree.
// Nested parts that fail to parse degrade to leaves; a broken top level is an error.
func Parse(raw []byte) (*Message, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}
	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	root, err := parseNode(textproto.MIMEHeader(msg.Header), body, 0)
	if err != nil {
		return nil, err
	}
	return &Message{Header: msg.Header, Root: root}, nil
}

func parseNode(h textproto.MIMEHeader, body []byte, depth int) (Node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("mime nesting deeper than %d", maxDepth)
	}
	hdr := parseHeader(h)

	switch {
	case strings.HasPrefix(hdr.MediaType, "multipart/"):
		return parseMultipart(hdr, body, depth)
	case hdr.MediaType == "message/rfc822":
		inner, err := mail.ReadMessage(bytes.NewReader(body))
		if err != nil {
			return newLeaf(hdr, h, body), nil
		}
		innerBody, err := io.ReadAll(inner.Body)
		if err != nil {
			return newLeaf(hdr, h, body), nil
		}
		child, err := parseNode(textproto.MIMEHeader(inner.Header), innerBody, depth+1)
		if err != nil {
			return newLeaf(hdr, h, body), nil
		}
		return &Composite{Header: hdr, Children: []Node{child}}, nil
	default:
		return newLeaf(hdr, h, body), nil
	}
}

func parseMultipart(hdr Header, body []byte, depth int) (Node, error) {
	boundary := hdr.Params["boundary"]
	if boundary == "" {
		return nil, fmt.Errorf("%s without boundary", hdr.MediaType)
	}
	comp := &Composite{Header: hdr}
	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		p, err := mr.NextRawPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if len(comp.Children) == 0 {
				return nil, fmt.Errorf("%s: %w", hdr.MediaType, err)
			}
			// keep the parts read so far
			break
		}
		pb, err := io.ReadAll(p)
		if err != nil && len(pb) == 0 {
			if len(comp.Children) == 0 {
				return nil, fmt.Errorf("%s: read part: %w", hdr.MediaType, err)
			}
			break
		}
		child, err := parseNode(p.Header, pb, depth+1)
		if err != nil {
			child = newLeaf(parseHeader(p.Header), p.Header, pb)
		}
		comp.Children = append(comp.Children, child)
	}
	if len(comp.Children) == 0 {
		return nil, ErrNoParts
	}
	return comp, nil
}

func newLeaf(hdr Header, h textproto.MIMEHeader, body []byte) *Leaf {
	return &Leaf{
		Header:   hdr,
		Encoding: strings.ToLower(strings.TrimSpace(h.Get("Content-Transfer-Encoding"))),
		Raw:      body,
	}
}

func parseHeader(h textproto.MIMEHeader) Header {
	out := Header{MediaType: "text/plain", Params: map[string]string{}, DispParams: map[string]string{}}

	if ct := strings.TrimSpace(h.Get("Content-Type")); ct != "" {
		mt, params, err := mime.ParseMediaType(ct)
		if mt == "" {
			mt, _, _ = strings.Cut(ct, ";")
		}
		out.MediaType = strings.ToLower(strings.TrimSpace(mt))
		if err == nil {
			out.Params = params
		} else if m := reBoundaryParam.FindStringSubmatch(ct); m != nil {
			out.Params["boundary"] = strings.TrimSpace(m[1])
		}
	}

	if cd := strings.TrimSpace(h.Get("Content-Disposition")); cd != "" {
		disp, params, err := mime.ParseMediaType(cd)
		if disp == "" {
			disp, _, _ = strings.Cut(cd, ";")
		}
		out.Disposition = strings.ToLower(strings.TrimSpace(disp))
		if err == nil {
			out.DispParams = params
		}
	}
	return out
}
