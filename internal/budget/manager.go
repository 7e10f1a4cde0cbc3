// Package budget orchestrates period-level operations. Every operation
// validates its input, writes through the store, and only after the store
// succeeded updates the in-memory ledger and publishes one event.
package budget

import (
	"errors"
	"fmt"

	"github.com/NgigiN/budget/internal/events"
	"github.com/NgigiN/budget/internal/importer"
	"github.com/NgigiN/budget/internal/ledger"
	"github.com/NgigiN/budget/internal/storage"
	"github.com/NgigiN/budget/internal/validation"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrNoActivePeriod is returned by operations that need a loaded period.
var ErrNoActivePeriod = errors.New("no active period")

// Store is the persistence the manager needs. *storage.Database satisfies it.
type Store interface {
	ledger.RecordStore
	importer.Store

	CreatePeriod(name string, amountIn decimal.Decimal) (uint, error)
	GetPeriod(name string) (*storage.Period, error)
	GetPeriodByID(id uint) (*storage.Period, error)
	ListPeriods() ([]storage.Period, error)
	RenamePeriod(id uint, newName string) error
	UpdatePeriodAmountIn(id uint, amountIn decimal.Decimal) error
	DeletePeriod(name string) error
	DuplicatePeriod(srcID uint, newName string, opts storage.DuplicateOptions) (storage.DuplicateResult, error)
	GetConfig(key string) (string, bool, error)
	SetConfig(key, value string) error
}

type Manager struct {
	store    Store
	ledger   *ledger.Collection
	importer *importer.Coordinator
	bus      *events.Bus
	log      zerolog.Logger

	active *storage.Period
}

// NewManager returns a manager with no active period that publishes to bus.
func NewManager(store Store, bus *events.Bus, log zerolog.Logger) *Manager {
	return &Manager{
		store:    store,
		ledger:   ledger.NewCollection(store),
		importer: importer.NewCoordinator(store, log),
		bus:      bus,
		log:      log,
	}
}

// CreatePeriod stores a new period and makes it active with no records.
func (m *Manager) CreatePeriod(name, amountStr string) (storage.Period, error) {
	v, err := validation.ValidatePeriod(name, amountStr)
	if err != nil {
		return storage.Period{}, err
	}
	id, err := m.store.CreatePeriod(v.Name, v.AmountIn)
	if err != nil {
		return storage.Period{}, fmt.Errorf("create period: %w", err)
	}
	p, err := m.mustGetPeriod(id)
	if err != nil {
		return storage.Period{}, err
	}

	m.ledger.Reset(p.ID)
	m.setActive(p)
	m.log.Info().Str("period", p.Name).Msg("period created")
	m.emit(events.PeriodCreated{Period: p})
	return p, nil
}

// LoadPeriod makes the named period active.
func (m *Manager) LoadPeriod(name string) (storage.Period, error) {
	p, err := m.store.GetPeriod(name)
	if err != nil {
		return storage.Period{}, fmt.Errorf("load period: %w", err)
	}
	if p == nil {
		return storage.Period{}, &storage.NotFoundError{Entity: "period", Key: name}
	}
	if err := m.activate(*p); err != nil {
		return storage.Period{}, err
	}
	m.emit(events.PeriodLoaded{Period: *p, Records: len(m.ledger.Records())})
	return *p, nil
}

// activate loads p's records and makes it the active period.
func (m *Manager) activate(p storage.Period) error {
	if err := m.ledger.Load(p.ID); err != nil {
		return fmt.Errorf("load records of %q: %w", p.Name, err)
	}
	m.setActive(p)
	m.log.Info().Str("period", p.Name).Int("records", len(m.ledger.Records())).Msg("period loaded")
	return nil
}

// DeletePeriod removes a period and its records. Deleting the active period
// leaves the manager without one.
func (m *Manager) DeletePeriod(name string) error {
	if err := m.store.DeletePeriod(name); err != nil {
		return fmt.Errorf("delete period: %w", err)
	}
	wasActive := m.active != nil && m.active.Name == name
	if wasActive {
		m.active = nil
		m.ledger.Reset(0)
	}
	m.log.Info().Str("period", name).Bool("active", wasActive).Msg("period deleted")
	m.emit(events.PeriodDeleted{Name: name, WasActive: wasActive})
	return nil
}

// RenamePeriod renames the active period. On failure nothing changes.
func (m *Manager) RenamePeriod(newName string) error {
	if m.active == nil {
		return ErrNoActivePeriod
	}
	v, err := validation.ValidatePeriod(newName, "")
	if err != nil {
		return err
	}
	if err := m.store.RenamePeriod(m.active.ID, v.Name); err != nil {
		return fmt.Errorf("rename period: %w", err)
	}
	old := m.active.Name
	p := *m.active
	p.Name = v.Name
	m.setActive(p)
	m.log.Info().Str("from", old).Str("to", v.Name).Msg("period renamed")
	m.emit(events.PeriodRenamed{ID: p.ID, OldName: old, NewName: v.Name})
	return nil
}

// DuplicatePeriod copies the active period with its records under newName
// and then makes the copy active. resetStatus clears the done and borrowed
// flags on the copies.
func (m *Manager) DuplicatePeriod(newName string, resetStatus bool) (storage.DuplicateResult, error) {
	if m.active == nil {
		return storage.DuplicateResult{}, ErrNoActivePeriod
	}
	v, err := validation.ValidatePeriod(newName, "")
	if err != nil {
		return storage.DuplicateResult{}, err
	}
	source := m.active.Name
	res, err := m.store.DuplicatePeriod(m.active.ID, v.Name, storage.DuplicateOptions{ResetStatus: resetStatus})
	if err != nil {
		return storage.DuplicateResult{}, fmt.Errorf("duplicate period: %w", err)
	}
	p, err := m.mustGetPeriod(res.PeriodID)
	if err != nil {
		return storage.DuplicateResult{}, err
	}
	if err := m.activate(p); err != nil {
		return storage.DuplicateResult{}, err
	}
	m.emit(events.PeriodDuplicated{SourceName: source, Period: p, Copied: res.Copied})
	return res, nil
}

// ImportPeriod creates a period from externally parsed rows and makes it
// active. Invalid rows are skipped and reported in the result.
func (m *Manager) ImportPeriod(name string, rows []importer.Row, opts importer.Options) (importer.Result, error) {
	res, err := m.importer.Import(name, rows, opts)
	if err != nil {
		return importer.Result{}, err
	}
	p, err := m.mustGetPeriod(res.PeriodID)
	if err != nil {
		return importer.Result{}, err
	}
	if err := m.activate(p); err != nil {
		return importer.Result{}, err
	}
	m.emit(events.PeriodLoaded{Period: p, Records: res.Created})
	return res, nil
}

// SetAmountIn changes the active period's income figure.
func (m *Manager) SetAmountIn(amountStr string) error {
	if m.active == nil {
		return ErrNoActivePeriod
	}
	v, err := validation.ValidatePeriod(m.active.Name, amountStr)
	if err != nil {
		return err
	}
	if err := m.store.UpdatePeriodAmountIn(m.active.ID, v.AmountIn); err != nil {
		return fmt.Errorf("set income: %w", err)
	}
	m.active.AmountIn = v.AmountIn
	m.emit(events.SalaryUpdated{PeriodID: m.active.ID, AmountIn: v.AmountIn})
	return nil
}

// AddRecord appends a record built from in to the active period.
func (m *Manager) AddRecord(in validation.RecordInput) (storage.Record, error) {
	if m.active == nil {
		return storage.Record{}, ErrNoActivePeriod
	}
	r, err := validation.BuildRecord(in)
	if err != nil {
		return storage.Record{}, err
	}
	added, err := m.ledger.Add(r)
	if err != nil {
		return storage.Record{}, fmt.Errorf("add record: %w", err)
	}
	m.emit(events.RecordAdded{Record: added})
	return added, nil
}

// UpdateRecord replaces every field of record id with in.
func (m *Manager) UpdateRecord(id uint, in validation.RecordInput) (storage.Record, error) {
	if m.active == nil {
		return storage.Record{}, ErrNoActivePeriod
	}
	r, err := validation.BuildRecord(in)
	if err != nil {
		return storage.Record{}, err
	}
	return m.updateRecord(id, ledger.FieldsOf(r))
}

// SetRecordFields changes only the fields set in f.
func (m *Manager) SetRecordFields(id uint, f ledger.Fields) (storage.Record, error) {
	if m.active == nil {
		return storage.Record{}, ErrNoActivePeriod
	}
	var msgs []string
	if f.Amount != nil && f.Amount.IsNegative() {
		msgs = append(msgs, "amount cannot be negative")
	}
	if f.Date != nil {
		t, err := validation.ParseDate(*f.Date)
		if err != nil {
			msgs = append(msgs, "date must use the dd/mm/yyyy format")
		} else {
			date := t.Format(validation.DateLayout)
			f.Date = &date
		}
	}
	if len(msgs) > 0 {
		return storage.Record{}, &validation.ValidationError{Messages: msgs}
	}
	if f.Category != nil && *f.Category == "" {
		category := storage.DefaultCategory
		f.Category = &category
	}
	return m.updateRecord(id, f)
}

func (m *Manager) updateRecord(id uint, f ledger.Fields) (storage.Record, error) {
	updated, err := m.ledger.Update(id, f)
	if err != nil {
		return storage.Record{}, fmt.Errorf("update record: %w", err)
	}
	m.emit(events.RecordUpdated{Record: updated})
	return updated, nil
}

// RemoveRecord deletes record id from the active period.
func (m *Manager) RemoveRecord(id uint) error {
	if m.active == nil {
		return ErrNoActivePeriod
	}
	if err := m.ledger.Remove(id); err != nil {
		return fmt.Errorf("remove record: %w", err)
	}
	m.emit(events.RecordRemoved{ID: id})
	return nil
}

// ClearRecords deletes every record of the active period.
func (m *Manager) ClearRecords() error {
	if m.active == nil {
		return ErrNoActivePeriod
	}
	if err := m.ledger.Clear(); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	m.refreshed()
	return nil
}

// SetSearchTerm filters the view by label and rebuilds it.
func (m *Manager) SetSearchTerm(term string) {
	m.ledger.SetSearchTerm(term)
	m.emit(events.SearchChanged{Term: term, Matches: len(m.ledger.View())})
}

// SetSortKey reorders the view. Unknown keys are a validation error.
func (m *Manager) SetSortKey(key string) error {
	k, err := ledger.ParseSortKey(key)
	if err != nil {
		return &validation.ValidationError{Messages: []string{err.Error()}}
	}
	m.ledger.SetSortKey(k)
	m.refreshed()
	return nil
}

// Refresh rebuilds the projection from the canonical records.
func (m *Manager) Refresh() {
	m.ledger.Rebuild()
	m.refreshed()
}

func (m *Manager) refreshed() {
	m.emit(events.DisplayRefreshed{Records: m.ledger.View(), Summary: m.ledger.ViewSummary()})
}

// Active returns the active period, if any.
func (m *Manager) Active() (storage.Period, bool) {
	if m.active == nil {
		return storage.Period{}, false
	}
	return *m.active, true
}

func (m *Manager) Records() []storage.Record         { return m.ledger.Records() }
func (m *Manager) View() []storage.Record            { return m.ledger.View() }
func (m *Manager) Summary() ledger.Summary           { return m.ledger.Summary() }
func (m *Manager) ViewSummary() ledger.Summary       { return m.ledger.ViewSummary() }
func (m *Manager) SearchTerm() string                { return m.ledger.SearchTerm() }
func (m *Manager) SortKey() ledger.SortKey           { return m.ledger.SortKey() }
func (m *Manager) Periods() ([]storage.Period, error) { return m.store.ListPeriods() }

// SummaryOf aggregates an arbitrary list, such as unsaved edits.
func (m *Manager) SummaryOf(records []storage.Record) ledger.Summary {
	return ledger.Summarize(records)
}

func (m *Manager) mustGetPeriod(id uint) (storage.Period, error) {
	p, err := m.store.GetPeriodByID(id)
	if err != nil {
		return storage.Period{}, err
	}
	if p == nil {
		return storage.Period{}, &storage.NotFoundError{Entity: "period", Key: id}
	}
	return *p, nil
}

// setActive records p as active and remembers it for the next start.
func (m *Manager) setActive(p storage.Period) {
	m.active = &p
	if err := m.store.SetConfig(storage.ConfigLastPeriod, p.Name); err != nil {
		m.log.Warn().Err(err).Str("period", p.Name).Msg("could not save last period")
	}
}

func (m *Manager) emit(e events.Event) {
	if err := m.bus.Publish(e); err != nil {
		m.log.Warn().Err(err).Str("event", e.Kind()).Msg("event delivery incomplete")
	}
}
