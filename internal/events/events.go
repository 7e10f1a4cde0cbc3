package events

import (
	"github.com/NgigiN/budget/internal/ledger"
	"github.com/NgigiN/budget/internal/storage"
	"github.com/shopspring/decimal"
)

// Event is one of the change notifications defined in this package. The set
// is closed: only types declared here implement it.
type Event interface {
	Kind() string
	event()
}

type PeriodCreated struct{ Period storage.Period }

type PeriodLoaded struct {
	Period  storage.Period
	Records int
}

type PeriodDeleted struct {
	Name      string
	WasActive bool
}

type PeriodRenamed struct {
	ID      uint
	OldName string
	NewName string
}

type PeriodDuplicated struct {
	SourceName string
	Period     storage.Period
	Copied     int
}

type RecordAdded struct{ Record storage.Record }

type RecordUpdated struct{ Record storage.Record }

type RecordRemoved struct{ ID uint }

type SalaryUpdated struct {
	PeriodID uint
	AmountIn decimal.Decimal
}

// DisplayRefreshed carries the current projection and its summary.
type DisplayRefreshed struct {
	Records []storage.Record
	Summary ledger.Summary
}

type SearchChanged struct {
	Term    string
	Matches int
}

func (PeriodCreated) Kind() string    { return "period.created" }
func (PeriodLoaded) Kind() string     { return "period.loaded" }
func (PeriodDeleted) Kind() string    { return "period.deleted" }
func (PeriodRenamed) Kind() string    { return "period.renamed" }
func (PeriodDuplicated) Kind() string { return "period.duplicated" }
func (RecordAdded) Kind() string      { return "record.added" }
func (RecordUpdated) Kind() string    { return "record.updated" }
func (RecordRemoved) Kind() string    { return "record.removed" }
func (SalaryUpdated) Kind() string    { return "salary.updated" }
func (DisplayRefreshed) Kind() string { return "display.refreshed" }
func (SearchChanged) Kind() string    { return "search.changed" }

func (PeriodCreated) event()    {}
func (PeriodLoaded) event()     {}
func (PeriodDeleted) event()    {}
func (PeriodRenamed) event()    {}
func (PeriodDuplicated) event() {}
func (RecordAdded) event()      {}
func (RecordUpdated) event()    {}
func (RecordRemoved) event()    {}
func (SalaryUpdated) event()    {}
func (DisplayRefreshed) event() {}
func (SearchChanged) event()    {}
