// Package submission sends a reviewed quote record to the quoting API.
package submission

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/submission-intake/internal/entity"
)

// BuildPayload converts a record into the quote API request body. Parsing notes are dropped,
// unknown strings become "", unknown numbers and booleans stay null, and website.domainName is
// sent only for a known website, with a URL scheme.
func BuildPayload(rec *entity.QuoteRecord) map[string]any {
	loc := rec.InsuredLocation
	contact := rec.InsuredContact

	website := map[string]any{"has_website": boolOrNil(rec.Website.HasWebsite)}
	if rec.Website.HasWebsite != nil && *rec.Website.HasWebsite {
		if d := strings.TrimSpace(str(rec.Website.DomainName)); d != "" {
			website["domainName"] = withScheme(d)
		}
	}

	return map[string]any{
		"broker_email":      str(rec.BrokerEmail),
		"insured_name":      str(rec.InsuredName),
		"insured_taxid":     str(rec.InsuredTaxID),
		"year_founded":      intOrNil(rec.YearFounded),
		"effective_date":    str(rec.EffectiveDate),
		"revenue":           floatOrNil(rec.Revenue),
		"naics":             intOrNil(rec.NAICS),
		"question_highrisk": boolOrNil(rec.QuestionHighRisk),
		"agg_limit":         floatOrNil(rec.AggLimit),
		"retention":         floatOrNil(rec.Retention),
		"insured_location": map[string]any{
			"address1": str(loc.Address1),
			"address2": str(loc.Address2),
			"city":     str(loc.City),
			"state":    str(loc.State),
			"zip":      str(loc.Zip),
		},
		"claims": map[string]any{
			"count":  intOrNil(rec.Claims.Count),
			"amount": floatOrNil(rec.Claims.Amount),
		},
		"website": website,
		"insured_contact": map[string]any{
			"first_name":       str(contact.FirstName),
			"last_name":        str(contact.LastName),
			"email":            str(contact.Email),
			"phone":            str(contact.Phone),
			"preferred_method": str(contact.PreferredMethod),
		},
	}
}

// RecordFromPayload reads a payload back into a record. Empty strings become unknown.
func RecordFromPayload(payload map[string]any) (*entity.QuoteRecord, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	rec := entity.NewQuoteRecord()
	if err := json.Unmarshal(b, rec); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	for _, p := range []**string{
		&rec.BrokerEmail, &rec.InsuredName, &rec.InsuredTaxID, &rec.EffectiveDate,
		&rec.InsuredLocation.Address1, &rec.InsuredLocation.Address2, &rec.InsuredLocation.City,
		&rec.InsuredLocation.State, &rec.InsuredLocation.Zip, &rec.Website.DomainName,
		&rec.InsuredContact.FirstName, &rec.InsuredContact.LastName, &rec.InsuredContact.Email,
		&rec.InsuredContact.Phone, &rec.InsuredContact.PreferredMethod,
	} {
		if *p != nil && **p == "" {
			*p = nil
		}
	}
	rec.ParsingNotes = entity.Notes{}
	return rec, nil
}

func withScheme(domain string) string {
	lower := strings.ToLower(domain)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return domain
	}
	return "https://" + domain
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func intOrNil(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatOrNil(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func boolOrNil(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}
