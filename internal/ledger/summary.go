package ledger

import (
	"github.com/NgigiN/budget/internal/storage"
	"github.com/shopspring/decimal"
)

// Summary aggregates a list of records. It is always derived, never stored.
type Summary struct {
	Count        int
	TotalDebit   decimal.Decimal
	TotalCredit  decimal.Decimal
	DoneDebit    decimal.Decimal
	PendingDebit decimal.Decimal // TotalDebit - DoneDebit
	Borrowed     decimal.Decimal // credits and debits alike
	FixedDebit   decimal.Decimal
	Remaining    decimal.Decimal // TotalCredit - TotalDebit
}

// Summarize computes the summary of records. It works on any list: the
// canonical records, the projection, or an unsaved candidate list.
func Summarize(records []storage.Record) Summary {
	s := Summary{
		Count:       len(records),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
		DoneDebit:   decimal.Zero,
		Borrowed:    decimal.Zero,
		FixedDebit:  decimal.Zero,
	}
	for _, r := range records {
		if r.Borrowed {
			s.Borrowed = s.Borrowed.Add(r.Amount)
		}
		if r.IsCredit {
			s.TotalCredit = s.TotalCredit.Add(r.Amount)
			continue
		}
		s.TotalDebit = s.TotalDebit.Add(r.Amount)
		if r.Done {
			s.DoneDebit = s.DoneDebit.Add(r.Amount)
		}
		if r.Fixed {
			s.FixedDebit = s.FixedDebit.Add(r.Amount)
		}
	}
	s.PendingDebit = s.TotalDebit.Sub(s.DoneDebit)
	s.Remaining = s.TotalCredit.Sub(s.TotalDebit)
	return s
}
