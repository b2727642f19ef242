package llm

import "slices"

const (
	QuoteSchemaName   = "quote_record"
	SummarySchemaName = "email_summary"
)

// quoteFields lists the top-level scalar fields of a quote record and their JSON types.
// Every one of them is nullable: null is the unknown value.
var quoteFields = map[string]string{
	"broker_email":      "string",
	"insured_name":      "string",
	"insured_taxid":     "string",
	"year_founded":      "integer",
	"effective_date":    "string",
	"revenue":           "number",
	"naics":             "integer",
	"question_highrisk": "boolean",
	"agg_limit":         "number",
	"retention":         "number",
}

// quoteGroups lists the nested groups and their member types.
var quoteGroups = map[string]map[string]string{
	"insured_location": {"address1": "string", "address2": "string", "city": "string", "state": "string", "zip": "string"},
	"claims":           {"count": "integer", "amount": "number"},
	"website":          {"has_website": "boolean", "domainName": "string"},
	"insured_contact":  {"first_name": "string", "last_name": "string", "email": "string", "phone": "string", "preferred_method": "string"},
}

// BuildQuoteRecordSchema returns the JSON Schema for an extracted quote record as a generic map.
// It is sent to the provider as the structured output constraint and used locally to validate.
func BuildQuoteRecordSchema() map[string]any {
	props := make(map[string]any, len(quoteFields)+len(quoteGroups))
	for name, typ := range quoteFields {
		props[name] = nullable(typ)
	}
	props["effective_date"] = map[string]any{
		"type":    []string{"string", "null"},
		"pattern": `^\d{4}-\d{2}-\d{2}$`,
	}
	for group, members := range quoteGroups {
		props[group] = objectOf(members)
	}
	return closedObject(props)
}

// BuildSummarySchema wraps the quote schema: prose summary plus the fields the text states outright.
func BuildSummarySchema() map[string]any {
	return closedObject(map[string]any{
		"summary_text":   map[string]any{"type": "string", "minLength": 1},
		"partial_record": BuildQuoteRecordSchema(),
	})
}

func objectOf(members map[string]string) map[string]any {
	props := make(map[string]any, len(members))
	for name, typ := range members {
		props[name] = nullable(typ)
	}
	return closedObject(props)
}

// closedObject requires every property and forbids extras, which strict structured output demands.
func closedObject(props map[string]any) map[string]any {
	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	slices.Sort(required)
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func nullable(typ string) map[string]any {
	return map[string]any{"type": []string{typ, "null"}}
}
