package llm

import (
	"strings"
)

// BuildQuoteInstructions is the fixed system message for quote extraction. It names every
// target field and the rules for unknowns, money, dates and source conflicts.
func BuildQuoteInstructions() string {
	parts := []string{
		"You extract commercial insurance submission data into JSON matching the provided JSON Schema.",
		"Sources may be PDF application forms, an email body (or a summary of one), or both.",
		"Fields: broker_email (the submitting broker's email), insured_name (legal name of the applicant business),",
		"insured_taxid (FEIN or other tax id, as written), year_founded (4-digit year), effective_date (requested policy start),",
		"revenue (annual revenue), naics (6-digit NAICS code as an integer), question_highrisk (true if the applicant",
		"answers yes to any high-risk activity question, false if it answers no to all, null if not asked),",
		"agg_limit (requested aggregate limit), retention (requested retention or deductible),",
		"insured_location (address1, address2, city, state as 2-letter code, zip),",
		"claims (count of prior claims, total claims amount), website (has_website, domainName without scheme),",
		"insured_contact (first_name, last_name, email, phone, preferred_method).",
		"If a field is not present in the sources, return null. Never guess or fabricate a value.",
		"Return monetary values as plain numbers without currency symbols, commas or suffixes: \"$1.5M\" becomes 1500000.",
		"Return dates as ISO-8601 YYYY-MM-DD.",
		"When PDF and email content are both present and disagree, the email content wins.",
		"Always return every group object, with null members when unknown.",
	}
	return strings.Join(parts, " ")
}

// BuildSummaryInstructions is the system message for pre-summarizing a long email.
func BuildSummaryInstructions() string {
	parts := []string{
		"You condense long insurance submission emails.",
		"Write summary_text: a concise prose summary that keeps every fact relevant to quoting",
		"(business identity, address, revenue, limits, retention, claims history, contacts, website, effective date).",
		"Fill partial_record only with fields the email states explicitly; every other field must be null.",
		"Never infer or guess values.",
		"Return monetary values as plain numbers and dates as YYYY-MM-DD.",
	}
	return strings.Join(parts, " ")
}

// BuildEmailBlock labels the email text and tells the model who probably sent it.
func BuildEmailBlock(body string, summarized bool, meta *EmailContext) string {
	body = strings.TrimSpace(body)
	var b strings.Builder
	switch {
	case body == "":
		b.WriteString("EMAIL METADATA (the email has no body text):\n")
	case summarized:
		b.WriteString("EMAIL SUMMARY (condensed from a long email):\n")
	default:
		b.WriteString("EMAIL CONTENT:\n")
	}
	if meta != nil {
		if s := strings.TrimSpace(meta.SenderEmail); s != "" {
			b.WriteString("From: ")
			if n := strings.TrimSpace(meta.SenderName); n != "" {
				b.WriteString(n)
				b.WriteString(" <")
				b.WriteString(s)
				b.WriteString(">")
			} else {
				b.WriteString(s)
			}
			b.WriteString("\nThe sender address is very likely the broker's email (broker_email).\n")
		}
		if s := strings.TrimSpace(meta.Subject); s != "" {
			b.WriteString("Subject: ")
			b.WriteString(s)
			b.WriteString("\n")
		}
	}
	if body != "" {
		b.WriteString("\n")
		b.WriteString(body)
	}
	return b.String()
}
