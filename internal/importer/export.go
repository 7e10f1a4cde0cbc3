package importer

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/NgigiN/budget/internal/storage"
	"github.com/NgigiN/budget/internal/validation"
)

// Document is the JSON form of one exported period.
type Document struct {
	Period  PeriodInfo `json:"period"`
	Records []Row      `json:"records"`
}

type PeriodInfo struct {
	Name     string `json:"name"`
	AmountIn string `json:"amount_in"`
}

// Export converts stored records back into importable rows.
func Export(records []storage.Record) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, Row{
			Label:    r.Label,
			Amount:   r.Amount.String(),
			Category: r.Category,
			Date:     r.Date,
			IsCredit: r.IsCredit,
			Done:     r.Done,
			Borrowed: r.Borrowed,
			Fixed:    r.Fixed,
		})
	}
	return rows
}

// EncodeJSON writes period p and its records to w.
func EncodeJSON(w io.Writer, p storage.Period, records []storage.Record) error {
	doc := Document{
		Period:  PeriodInfo{Name: p.Name, AmountIn: p.AmountIn.String()},
		Records: Export(records),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode period %q: %w", p.Name, err)
	}
	return nil
}

// DecodeJSON reads a document written by EncodeJSON.
func DecodeJSON(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode period document: %w", err)
	}
	return doc, nil
}

// ImportOptions returns the options that restore d as exported: every row is
// validated leniently and the period keeps its exported income.
func (d Document) ImportOptions() (Options, error) {
	amountIn, err := validation.ParseAmount(d.Period.AmountIn)
	if err != nil {
		return Options{}, &validation.ValidationError{Messages: []string{"amount_in: " + err.Error()}}
	}
	return Options{Lenient: true, AmountIn: &amountIn}, nil
}
