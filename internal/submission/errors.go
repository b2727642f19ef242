package submission

import "fmt"

// DeclinedError is a business rejection. The reviewer can edit the record and resubmit.
type DeclinedError struct {
	Message string
}

func (e *DeclinedError) Error() string {
	if e.Message == "" {
		return "quote declined"
	}
	return "quote declined: " + e.Message
}

// TransportError is a technical failure talking to the token or quote endpoint.
// Retryable is set when a manual retry is expected to succeed, e.g. after a token refresh.
type TransportError struct {
	StatusCode int
	Message    string
	Retryable  bool
	Cause      error
}

func (e *TransportError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Cause }
