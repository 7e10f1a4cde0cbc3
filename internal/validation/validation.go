// Package validation normalizes raw textual input into typed period and
// record fields. Nothing here touches storage; every function returns a
// best-effort value alongside a *ValidationError listing what was wrong.
package validation

import (
	"errors"
	"strings"
	"time"

	"github.com/NgigiN/budget/internal/storage"
	"github.com/shopspring/decimal"
)

// DateLayout is the canonical textual format of a record date.
const DateLayout = "02/01/2006"

// dateReadLayout also accepts unpadded day and month.
const dateReadLayout = "2/1/2006"

var (
	errAmountInvalid  = errors.New("amount must be a valid number")
	errAmountNegative = errors.New("amount cannot be negative")
)

// ValidationError carries field-level messages for rejected input.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Messages, "; ")
}

// ValidatedPeriod holds normalized period fields.
type ValidatedPeriod struct {
	Name     string
	AmountIn decimal.Decimal
}

// ValidatedRecord holds normalized record fields.
type ValidatedRecord struct {
	Label    string
	Amount   decimal.Decimal
	Category string
}

// ParseAmount parses a non-negative decimal accepting either '.' or ',' as
// the decimal separator. An empty string is zero. Exponent forms such as
// "1e3" are rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, errAmountInvalid
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, errAmountInvalid
	}
	if d.IsNegative() {
		return d, errAmountNegative
	}
	return d, nil
}

// ParseDate parses a d/m/yyyy record date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateReadLayout, strings.TrimSpace(s))
}

// Today returns the current date in DateLayout.
func Today() string {
	return time.Now().Format(DateLayout)
}

// ValidatePeriod checks a period name and its income figure.
func ValidatePeriod(name, amountStr string) (ValidatedPeriod, error) {
	var msgs []string
	v := ValidatedPeriod{Name: strings.TrimSpace(name), AmountIn: decimal.Zero}
	if v.Name == "" {
		msgs = append(msgs, "period name is required")
	}
	amount, err := ParseAmount(amountStr)
	switch {
	case errors.Is(err, errAmountInvalid):
		msgs = append(msgs, "income must be a valid number")
	case errors.Is(err, errAmountNegative):
		msgs = append(msgs, "income cannot be negative")
	default:
		v.AmountIn = amount
	}
	if len(msgs) > 0 {
		return v, &ValidationError{Messages: msgs}
	}
	return v, nil
}

// ValidateRecord checks a record's label, amount and category. Blank labels
// are allowed; an empty category becomes storage.DefaultCategory.
func ValidateRecord(label, amountStr, category string) (ValidatedRecord, error) {
	v := ValidatedRecord{
		Label:    strings.TrimSpace(label),
		Amount:   decimal.Zero,
		Category: strings.TrimSpace(category),
	}
	if v.Category == "" {
		v.Category = storage.DefaultCategory
	}
	amount, err := ParseAmount(amountStr)
	if err != nil {
		return v, &ValidationError{Messages: []string{err.Error()}}
	}
	v.Amount = amount
	return v, nil
}

// RecordInput is the raw form of a record as entered by a user. Zero values
// take the documented defaults.
type RecordInput struct {
	Label    string
	Amount   string
	Category string // defaults to storage.DefaultCategory
	Date     string // d/m/yyyy, defaults to today
	IsCredit bool
	Done     bool
	Borrowed bool
	Fixed    bool
}

// BuildRecord validates in and returns the record it describes, without an
// ID or period.
func BuildRecord(in RecordInput) (storage.Record, error) {
	v, err := ValidateRecord(in.Label, in.Amount, in.Category)
	var msgs []string
	var verr *ValidationError
	if errors.As(err, &verr) {
		msgs = append(msgs, verr.Messages...)
	}

	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = Today()
	} else if t, err := ParseDate(date); err != nil {
		msgs = append(msgs, "date must use the dd/mm/yyyy format")
	} else {
		date = t.Format(DateLayout)
	}

	r := storage.Record{
		Label:    v.Label,
		Amount:   v.Amount,
		Category: v.Category,
		Date:     date,
		IsCredit: in.IsCredit,
		Done:     in.Done,
		Borrowed: in.Borrowed,
		Fixed:    in.Fixed,
	}
	if len(msgs) > 0 {
		return r, &ValidationError{Messages: msgs}
	}
	return r, nil
}
