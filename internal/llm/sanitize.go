package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// synonyms maps keys models sometimes invent to the schema key.
var synonyms = map[string]string{
	"fein":            "insured_taxid",
	"tax_id":          "insured_taxid",
	"taxid":           "insured_taxid",
	"company_name":    "insured_name",
	"business_name":   "insured_name",
	"naics_code":      "naics",
	"aggregate_limit": "agg_limit",
	"deductible":      "retention",
	"high_risk":       "question_highrisk",
	"location":        "insured_location",
	"address":         "insured_location",
	"contact":         "insured_contact",
}

// SanitizeQuoteJSON repairs a quote record document so it can pass schema validation:
// synonyms are renamed, unknown keys dropped, values coerced to their schema types,
// unparseable values nulled and missing fields and groups filled with null.
func SanitizeQuoteJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}
	changes := sanitizeQuoteMap(m)
	out, err := json.Marshal(m)
	if err != nil {
		return nil, changes, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changes) > 0 {
		logger.Warn("llm.sanitize.quote", "changes", changes)
	}
	return out, changes, nil
}

// SanitizeSummaryJSON applies SanitizeQuoteJSON's repairs to partial_record and
// drops anything besides summary_text and partial_record.
func SanitizeSummaryJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}
	var changes []string
	for k := range maps.Clone(m) {
		if k != "summary_text" && k != "partial_record" {
			delete(m, k)
			changes = append(changes, k+"(unknown)")
		}
	}
	if s, ok := m["summary_text"].(string); ok {
		m["summary_text"] = strings.TrimSpace(s)
	}
	partial, ok := m["partial_record"].(map[string]any)
	if !ok {
		partial = map[string]any{}
		changes = append(changes, "partial_record(filled)")
	}
	for _, c := range sanitizeQuoteMap(partial) {
		changes = append(changes, "partial_record."+c)
	}
	m["partial_record"] = partial

	out, err := json.Marshal(m)
	if err != nil {
		return nil, changes, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changes) > 0 {
		logger.Warn("llm.sanitize.summary", "changes", changes)
	}
	return out, changes, nil
}

func sanitizeQuoteMap(m map[string]any) []string {
	changes := make([]string, 0, 8)

	for from, to := range synonyms {
		v, ok := m[from]
		if !ok {
			continue
		}
		if existing, exists := m[to]; !exists || existing == nil {
			m[to] = v
		}
		delete(m, from)
		changes = append(changes, from+"->"+to)
	}

	for k := range maps.Clone(m) {
		_, scalar := quoteFields[k]
		_, group := quoteGroups[k]
		if !scalar && !group {
			delete(m, k)
			changes = append(changes, k+"(unknown)")
		}
	}

	for name, typ := range quoteFields {
		v, ok := m[name]
		if !ok {
			m[name] = nil
			continue
		}
		var out any
		var changed bool
		if name == "effective_date" {
			out, changed = coerceDate(v)
		} else {
			out, changed = coerce(typ, v)
		}
		if changed {
			m[name] = out
			changes = append(changes, name+"(coerced)")
		}
	}

	for group, members := range quoteGroups {
		g, ok := m[group].(map[string]any)
		if !ok {
			g = map[string]any{}
			changes = append(changes, group+"(filled)")
		}
		for k := range maps.Clone(g) {
			if _, known := members[k]; !known {
				delete(g, k)
				changes = append(changes, group+"."+k+"(unknown)")
			}
		}
		for name, typ := range members {
			v, present := g[name]
			if !present {
				g[name] = nil
				continue
			}
			if out, changed := coerce(typ, v); changed {
				g[name] = out
				changes = append(changes, group+"."+name+"(coerced)")
			}
		}
		m[group] = g
	}

	slices.Sort(changes)
	return changes
}

// DecodeResult runs sanitize over a validated response, when set, and unmarshals the
// result into v. The schema validator accepts integral floats such as 2010.0 for integer
// fields, which encoding/json refuses to decode into an int.
func DecodeResult(raw []byte, sanitize SanitizeFunc, logger *slog.Logger, v any) error {
	if sanitize != nil {
		cleaned, _, err := sanitize(raw, logger)
		if err != nil {
			return err
		}
		raw = cleaned
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
