package email

import (
	"net/mail"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	reEmailToken = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	reRawSender  = regexp.MustCompile(`(?mi)^(?:From|Return-Path):[^\n]*?([A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,})`)
	reRawSubject = regexp.MustCompile(`(?mi)^Subject:[ \t]*([^\r\n]*)`)
)

// senderHeaders are tried in order; the first yielding an address wins.
var senderHeaders = []string{"From", "Return-Path", "Reply-To", "Sender"}

// senderFromHeader returns the sender address and display name from parsed headers,
// scanning every header value as a last resort.
func senderFromHeader(h mail.Header) (addr, name string) {
	for _, key := range senderHeaders {
		if a, n := addressFrom(h.Get(key)); a != "" {
			if key == "From" {
				return a, n
			}
			return a, ""
		}
	}

	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range h[k] {
			if m := reEmailToken.FindString(v); m != "" {
				return m, ""
			}
		}
	}
	return "", ""
}

// addressFrom parses one address header value, falling back to an address-shaped token.
func addressFrom(value string) (addr, name string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ""
	}
	if a, err := (&mail.AddressParser{WordDecoder: wordDecoder}).Parse(value); err == nil && a.Address != "" {
		return a.Address, strings.TrimSpace(a.Name)
	}
	if m := reEmailToken.FindString(value); m != "" {
		return m, ""
	}
	return "", ""
}

// senderFromRaw matches a "From:" or "Return-Path:" line in unparsed text.
func senderFromRaw(raw string) string {
	if m := reRawSender.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

func subjectFromRaw(raw string) string {
	if m := reRawSubject.FindStringSubmatch(raw); m != nil {
		return decodeWords(strings.TrimSpace(m[1]))
	}
	return ""
}

// toFromHeader returns the first recipient address, else the raw header value.
func toFromHeader(h mail.Header) string {
	v := strings.TrimSpace(h.Get("To"))
	if v == "" {
		return ""
	}
	if list, err := (&mail.AddressParser{WordDecoder: wordDecoder}).ParseList(v); err == nil && len(list) > 0 {
		return list[0].Address
	}
	return decodeWords(v)
}

// dateFromHeader renders the Date header as RFC 3339 UTC, or "" when absent or unparseable.
func dateFromHeader(h mail.Header) string {
	t, err := h.Date()
	if err != nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
