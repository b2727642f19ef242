package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/submission-intake/internal/entity"
)

const (
	QuoteSheet = "Quote"
	NotesSheet = "Notes"
)

// fieldOrder lists the dotted record keys in review order.
var fieldOrder = []string{
	"broker_email",
	"insured_name",
	"insured_taxid",
	"year_founded",
	"effective_date",
	"revenue",
	"naics",
	"question_highrisk",
	"agg_limit",
	"retention",
	"insured_location.address1",
	"insured_location.address2",
	"insured_location.city",
	"insured_location.state",
	"insured_location.zip",
	"claims.count",
	"claims.amount",
	"website.has_website",
	"website.domainName",
	"insured_contact.first_name",
	"insured_contact.last_name",
	"insured_contact.email",
	"insured_contact.phone",
	"insured_contact.preferred_method",
}

// Service produces the XLSX review workbook for a quote record.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// FlattenRecord returns the record's scalar fields keyed by dotted path; unknown fields map to nil.
func FlattenRecord(rec *entity.QuoteRecord) (map[string]any, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	out := make(map[string]any, len(fieldOrder))
	flatten("", m, out)
	delete(out, "parsing_notes")
	return out, nil
}

func flatten(prefix string, m map[string]any, out map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(key, sub, out)
			continue
		}
		out[key] = v
	}
}

// cellValue keeps numbers numeric so reviewers can compute on them.
func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return t
	}
}

// RecordXLSX returns the workbook as bytes.
func (s *Service) RecordXLSX(rec *entity.QuoteRecord) ([]byte, error) {
	start := time.Now()
	if rec == nil {
		return nil, fmt.Errorf("record is required")
	}
	flat, err := FlattenRecord(rec)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	// The default sheet becomes the quote sheet.
	if err := f.SetSheetName(f.GetSheetName(0), QuoteSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(NotesSheet); err != nil {
		return nil, err
	}
	idx, _ := f.GetSheetIndex(QuoteSheet)
	f.SetActiveSheet(idx)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	write := func(sheet string, col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	write(QuoteSheet, 1, 1, "Field")
	write(QuoteSheet, 2, 1, "Value")
	_ = f.SetCellStyle(QuoteSheet, "A1", "B1", bold)
	for i, key := range fieldOrder {
		write(QuoteSheet, 1, i+2, key)
		write(QuoteSheet, 2, i+2, cellValue(flat[key]))
	}
	_ = f.SetColWidth(QuoteSheet, "A", "A", 34)
	_ = f.SetColWidth(QuoteSheet, "B", "B", 48)

	write(NotesSheet, 1, 1, "#")
	write(NotesSheet, 2, 1, "Parsing note")
	_ = f.SetCellStyle(NotesSheet, "A1", "B1", bold)
	for i, n := range rec.ParsingNotes {
		write(NotesSheet, 1, i+2, i+1)
		write(NotesSheet, 2, i+2, n)
	}
	_ = f.SetColWidth(NotesSheet, "A", "A", 6)
	_ = f.SetColWidth(NotesSheet, "B", "B", 100)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"fields", len(fieldOrder),
		"notes", len(rec.ParsingNotes),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
