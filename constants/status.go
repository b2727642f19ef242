package constants

// QuoteStatus is the outcome reported by the quote API.
type QuoteStatus string

// Stable values as returned by the API (case-insensitive on the wire).
const (
	QuoteStatusApproved QuoteStatus = "APPROVED"
	QuoteStatusDeclined QuoteStatus = "DECLINED"
)

// EmailParsePath records how an email body was obtained.
type EmailParsePath string

const (
	ParsePathStructured EmailParsePath = "structured" // MIME tree parsed
	ParsePathFallback   EmailParsePath = "fallback"   // regex salvage from raw text
	ParsePathCleared    EmailParsePath = "cleared"    // nothing salvageable
)
