// Package mpesa reads M-PESA confirmation SMS texts and turns them into rows
// for the bulk importer.
package mpesa

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/NgigiN/budget/internal/importer"
	"github.com/NgigiN/budget/internal/validation"
	"github.com/shopspring/decimal"
)

// Ksh<number>[,number]* with an optional fractional part.
const money = `Ksh[\d,]+(?:\.\d+)?`

const (
	when = `\s+on\s+(\d{1,2}/\d{1,2}/\d{2})\s+at\s+(\d{1,2}:\d{2}\s?(?:AM|PM))\.?\s*`

	// Tolerates "paid"/"sent", an optional "for account ..." in the
	// counterparty, a missing space before "New", and trailing promo text.
	outgoingPattern = `(?i)(\w+)\s+Confirmed\.?\s+(` + money + `)\s+(?:sent|paid)\s+to\s+(.*?)\s*\.?` + when +
		`New\s+(?:M-PESA|business)\s+balance\s+is\s+(` + money + `)\.\s*Transaction\s+cost,?\s*(` + money + `)(?:\.|\b)`

	incomingPattern = `(?i)(\w+)\s+Confirmed\.?\s*You\s+have\s+received\s+(` + money + `)\s+from\s+(.*?)\s*\.?` + when +
		`New\s+M-PESA\s+balance\s+is\s+(` + money + `)`
)

var (
	outgoingRe = regexp.MustCompile(outgoingPattern)
	incomingRe = regexp.MustCompile(incomingPattern)

	ErrNotMPesa = errors.New("not a valid M-PESA confirmation")
)

// Transaction is one parsed confirmation.
type Transaction struct {
	Code         string
	Amount       decimal.Decimal
	Counterparty string
	At           time.Time
	Balance      decimal.Decimal
	Cost         decimal.Decimal
	Incoming     bool
}

// ParseMessage parses one confirmation text, either money sent or paid out
// or money received.
func ParseMessage(msg string) (*Transaction, error) {
	if m := outgoingRe.FindStringSubmatch(msg); m != nil {
		tx, err := build(m[1], m[2], m[3], m[4], m[5], m[6])
		if err != nil {
			return nil, err
		}
		if tx.Cost, err = parseKsh(m[7]); err != nil {
			return nil, fmt.Errorf("failed to parse cost: %w", err)
		}
		return tx, nil
	}
	if m := incomingRe.FindStringSubmatch(msg); m != nil {
		tx, err := build(m[1], m[2], m[3], m[4], m[5], m[6])
		if err != nil {
			return nil, err
		}
		tx.Incoming = true
		return tx, nil
	}
	return nil, ErrNotMPesa
}

func build(code, amount, counterparty, date, clock, balance string) (*Transaction, error) {
	tx := &Transaction{
		Code:         code,
		Counterparty: strings.Join(strings.Fields(strings.TrimSuffix(counterparty, ".")), " "),
		Cost:         decimal.Zero,
	}
	var err error
	if tx.Amount, err = parseKsh(amount); err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	if tx.Balance, err = parseKsh(balance); err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}
	clock = strings.ReplaceAll(strings.ToUpper(clock), " ", "")
	if tx.At, err = time.Parse("2/1/06 3:04PM", date+" "+clock); err != nil {
		return nil, fmt.Errorf("failed to parse date/time: %w", err)
	}
	return tx, nil
}

func parseKsh(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimPrefix(s, "Ksh"), ",", ""))
}

// Row converts the transaction into an import row. Money received is a
// credit; everything else is a debit. An empty category is left for the
// importer to default.
func (t *Transaction) Row(category, reason string) importer.Row {
	label := t.Counterparty
	if reason != "" {
		label = reason + " (" + t.Counterparty + ")"
	}
	return importer.Row{
		Label:    label,
		Amount:   t.Amount.String(),
		Category: category,
		Date:     t.At.Format(validation.DateLayout),
		IsCredit: t.Incoming,
	}
}
