// Package importer turns externally parsed rows into a new period, written
// in a single transaction. Rows that fail validation are skipped and
// counted; they never abort the batch.
package importer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/NgigiN/budget/internal/storage"
	"github.com/NgigiN/budget/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Store is the single atomic write the coordinator needs.
type Store interface {
	BulkCreatePeriodWithRecords(name string, amountIn decimal.Decimal, records []storage.Record) (uint, error)
}

// Row is one imported line. Amount and Date are raw text.
type Row struct {
	Label    string `json:"label"`
	Amount   string `json:"amount"`
	Category string `json:"category,omitempty"`
	Date     string `json:"date"`
	IsCredit bool   `json:"is_credit"`
	Done     bool   `json:"done"`
	Borrowed bool   `json:"borrowed"`
	Fixed    bool   `json:"fixed"`
}

type Options struct {
	// MarkDone flags every imported record as done.
	MarkDone bool
	// Lenient validates rows with ValidateExportedRow instead of ValidateRow,
	// so records exported with blank labels or zero amounts come back intact.
	Lenient bool
	// AmountIn overrides the income of the new period. When nil the income
	// is the sum of the valid credit rows.
	AmountIn *decimal.Decimal
}

// SkippedRow identifies a rejected row by its zero-based position.
type SkippedRow struct {
	Index  int
	Reason string
}

// PartialImportWarning reports rows left out of an otherwise successful import.
type PartialImportWarning struct {
	Total   int
	Skipped []SkippedRow
}

func (w *PartialImportWarning) String() string {
	return fmt.Sprintf("%d of %d rows skipped", len(w.Skipped), w.Total)
}

type Result struct {
	PeriodID uint
	BatchID  uuid.UUID
	AmountIn decimal.Decimal
	Created  int
	Skipped  int
	Warning  *PartialImportWarning // nil when every row was imported
}

var (
	errBlankLabel  = errors.New("label is required")
	errZeroAmount  = errors.New("amount must be greater than zero")
	errMissingDate = errors.New("date is required")
	errBadDate     = errors.New("date must use the dd/mm/yyyy format")
)

type Coordinator struct {
	store Store
	log   zerolog.Logger
}

func NewCoordinator(store Store, log zerolog.Logger) *Coordinator {
	return &Coordinator{store: store, log: log}
}

// Import validates rows, then creates period name holding every valid row.
// The period's income is opts.AmountIn, or the sum of the valid credit rows
// when that is nil.
func (c *Coordinator) Import(name string, rows []Row, opts Options) (Result, error) {
	vp, err := validation.ValidatePeriod(name, "")
	if err != nil {
		return Result{}, err
	}

	res := Result{BatchID: uuid.New(), AmountIn: decimal.Zero}
	records := make([]storage.Record, 0, len(rows))
	var skipped []SkippedRow
	validate := ValidateRow
	if opts.Lenient {
		validate = ValidateExportedRow
	}
	for i, row := range rows {
		r, err := validate(row)
		if err != nil {
			skipped = append(skipped, SkippedRow{Index: i, Reason: err.Error()})
			continue
		}
		if opts.MarkDone {
			r.Done = true
		}
		if r.IsCredit {
			res.AmountIn = res.AmountIn.Add(r.Amount)
		}
		records = append(records, r)
	}
	if opts.AmountIn != nil {
		res.AmountIn = *opts.AmountIn
	}

	log := c.log.With().Str("batch", res.BatchID.String()).Str("period", vp.Name).Logger()
	id, err := c.store.BulkCreatePeriodWithRecords(vp.Name, res.AmountIn, records)
	if err != nil {
		log.Error().Err(err).Msg("import failed")
		return Result{}, fmt.Errorf("import %q: %w", vp.Name, err)
	}

	res.PeriodID = id
	res.Created = len(records)
	res.Skipped = len(skipped)
	if len(skipped) > 0 {
		res.Warning = &PartialImportWarning{Total: len(rows), Skipped: skipped}
		log.Warn().Int("skipped", res.Skipped).Msg("import skipped rows")
	}
	log.Info().Int("created", res.Created).Str("amount_in", res.AmountIn.String()).Msg("import committed")
	return res, nil
}

// ValidateRow converts a row into a record. Blank labels, zero or invalid
// amounts and missing or malformed dates are rejected.
func ValidateRow(row Row) (storage.Record, error) {
	if strings.TrimSpace(row.Label) == "" {
		return storage.Record{}, errBlankLabel
	}
	v, err := validation.ValidateRecord(row.Label, row.Amount, row.Category)
	if err != nil {
		return storage.Record{}, err
	}
	if v.Amount.IsZero() {
		return storage.Record{}, errZeroAmount
	}
	date := strings.TrimSpace(row.Date)
	if date == "" {
		return storage.Record{}, errMissingDate
	}
	t, err := validation.ParseDate(date)
	if err != nil {
		return storage.Record{}, errBadDate
	}
	return storage.Record{
		Label:    v.Label,
		Amount:   v.Amount,
		Category: v.Category,
		Date:     t.Format(validation.DateLayout),
		IsCredit: row.IsCredit,
		Done:     row.Done,
		Borrowed: row.Borrowed,
		Fixed:    row.Fixed,
	}, nil
}

// ValidateExportedRow converts a row written by Export. Blank labels and zero
// amounts are kept and a missing date becomes today; only unparsable amounts
// and malformed dates are rejected.
func ValidateExportedRow(row Row) (storage.Record, error) {
	v, err := validation.ValidateRecord(row.Label, row.Amount, row.Category)
	if err != nil {
		return storage.Record{}, err
	}
	date := validation.Today()
	if d := strings.TrimSpace(row.Date); d != "" {
		t, err := validation.ParseDate(d)
		if err != nil {
			return storage.Record{}, errBadDate
		}
		date = t.Format(validation.DateLayout)
	}
	return storage.Record{
		Label:    v.Label,
		Amount:   v.Amount,
		Category: v.Category,
		Date:     date,
		IsCredit: row.IsCredit,
		Done:     row.Done,
		Borrowed: row.Borrowed,
		Fixed:    row.Fixed,
	}, nil
}
