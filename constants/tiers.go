package constants

// AggLimitTiers are the aggregate limits the quote product sells, ascending.
var AggLimitTiers = []float64{50000, 100000, 250000, 500000, 750000, 1000000, 2000000, 3000000}

// MaxAggLimit is the hard product ceiling.
const MaxAggLimit = 3000000

// RetentionTiers are the allowed retention (deductible) amounts, ascending.
var RetentionTiers = []float64{500, 1000, 2500, 5000, 10000, 15000, 25000, 50000, 75000, 100000}

const (
	// RetentionTolerancePct and RetentionToleranceMin bound how far a raw retention may sit
	// from its nearest tier: max(pct*raw, min).
	RetentionTolerancePct = 0.10
	RetentionToleranceMin = 1000

	// SummarizeThreshold is the body length (in characters) above which email text is pre-summarized.
	SummarizeThreshold = 10000

	// MaxFallbackBodyChars truncates the last-resort raw body salvage.
	MaxFallbackBodyChars = 50000

	// DefaultContactMethod fills insured_contact.preferred_method when unset.
	DefaultContactMethod = "Email"

	// DefaultAttachmentName is used when a PDF part carries no filename.
	DefaultAttachmentName = "attachment.pdf"
)
