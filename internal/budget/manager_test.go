package budget

import (
	"bytes"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/NgigiN/budget/internal/events"
	"github.com/NgigiN/budget/internal/importer"
	"github.com/NgigiN/budget/internal/ledger"
	"github.com/NgigiN/budget/internal/storage"
	"github.com/NgigiN/budget/internal/validation"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type recorder struct {
	events []events.Event
}

func (r *recorder) handle(e events.Event) error {
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) kinds() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind()
	}
	return out
}

func (r *recorder) reset() { r.events = nil }

func openDB(t *testing.T, path string) *storage.Database {
	t.Helper()
	db, err := storage.NewDatabase(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestManager(t *testing.T) (*Manager, *storage.Database, *recorder) {
	t.Helper()
	db := openDB(t, filepath.Join(t.TempDir(), "budget.db"))
	bus := events.NewBus(zerolog.Nop())
	rec := &recorder{}
	bus.Subscribe(rec.handle)
	return NewManager(db, bus, zerolog.Nop()), db, rec
}

func mustCreate(t *testing.T, m *Manager, name, amount string) storage.Period {
	t.Helper()
	p, err := m.CreatePeriod(name, amount)
	if err != nil {
		t.Fatalf("CreatePeriod(%q): %v", name, err)
	}
	return p
}

func mustAddRecord(t *testing.T, m *Manager, in validation.RecordInput) storage.Record {
	t.Helper()
	r, err := m.AddRecord(in)
	if err != nil {
		t.Fatalf("AddRecord(%q): %v", in.Label, err)
	}
	return r
}

func TestCreateAndSummarize(t *testing.T) {
	m, _, rec := newTestManager(t)
	mustCreate(t, m, "Jan", "0")
	mustAddRecord(t, m, validation.RecordInput{Label: "a", Amount: "10"})
	mustAddRecord(t, m, validation.RecordInput{Label: "b", Amount: "30"})
	mustAddRecord(t, m, validation.RecordInput{Label: "pay", Amount: "20", IsCredit: true})

	s := m.Summary()
	if !s.TotalDebit.Equal(decimal.NewFromInt(40)) || !s.TotalCredit.Equal(decimal.NewFromInt(20)) {
		t.Errorf("totals = %s/%s, want 40/20", s.TotalDebit, s.TotalCredit)
	}
	if !s.Remaining.Equal(decimal.NewFromInt(-20)) {
		t.Errorf("remaining = %s, want -20", s.Remaining)
	}
	want := []string{"period.created", "record.added", "record.added", "record.added"}
	if !slices.Equal(rec.kinds(), want) {
		t.Errorf("events = %v, want %v", rec.kinds(), want)
	}
}

func TestRenamePeriod(t *testing.T) {
	m, db, rec := newTestManager(t)
	mustCreate(t, m, "Feb", "0")
	mustCreate(t, m, "Jan", "0")
	rec.reset()

	if err := m.RenamePeriod("January"); err != nil {
		t.Fatalf("RenamePeriod: %v", err)
	}
	var dup *storage.DuplicateNameError
	if err := m.RenamePeriod("Feb"); !errors.As(err, &dup) {
		t.Fatalf("error = %v, want DuplicateNameError", err)
	}

	if p, _ := m.Active(); p.Name != "January" {
		t.Errorf("active name = %q, want January", p.Name)
	}
	if p, _ := db.GetPeriod("January"); p == nil {
		t.Error("January not persisted")
	}
	if !slices.Equal(rec.kinds(), []string{"period.renamed"}) {
		t.Errorf("events = %v", rec.kinds())
	}
	if last, _, _ := db.GetConfig(storage.ConfigLastPeriod); last != "January" {
		t.Errorf("last_period = %q", last)
	}
}

func TestDuplicatePeriod(t *testing.T) {
	m, db, rec := newTestManager(t)
	mustCreate(t, m, "Jan", "1000")
	mustAddRecord(t, m, validation.RecordInput{Label: "rent", Amount: "800", Done: true, Borrowed: true})
	mustAddRecord(t, m, validation.RecordInput{Label: "food", Amount: "200"})
	rec.reset()

	res, err := m.DuplicatePeriod("Feb", true)
	if err != nil {
		t.Fatalf("DuplicatePeriod: %v", err)
	}
	if res.Copied != 2 {
		t.Errorf("copied = %d, want 2", res.Copied)
	}
	if !slices.Equal(rec.kinds(), []string{"period.duplicated"}) {
		t.Errorf("events = %v, want only period.duplicated", rec.kinds())
	}
	p, _ := m.Active()
	if p.Name != "Feb" || !p.AmountIn.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("active = %+v", p)
	}
	for _, r := range m.Records() {
		if r.Done || r.Borrowed || r.PeriodID != p.ID {
			t.Errorf("copied record not reset: %+v", r)
		}
	}
	if len(m.View()) != 2 {
		t.Errorf("view not rebuilt: %d entries", len(m.View()))
	}

	rec.reset()
	var dup *storage.DuplicateNameError
	if _, err := m.DuplicatePeriod("Jan", false); !errors.As(err, &dup) {
		t.Fatalf("error = %v, want DuplicateNameError", err)
	}
	if p, _ := m.Active(); p.Name != "Feb" {
		t.Errorf("active changed to %q after failure", p.Name)
	}
	if len(rec.events) != 0 {
		t.Errorf("events after failure: %v", rec.kinds())
	}
	periods, _ := db.ListPeriods()
	if len(periods) != 2 {
		t.Errorf("periods = %d, want 2", len(periods))
	}
}

func TestDeletePeriod(t *testing.T) {
	m, db, rec := newTestManager(t)
	mustCreate(t, m, "Jan", "0")
	mustAddRecord(t, m, validation.RecordInput{Label: "a", Amount: "1"})
	rec.reset()

	var nf *storage.NotFoundError
	if err := m.DeletePeriod("Nope"); !errors.As(err, &nf) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
	if err := m.DeletePeriod("Jan"); err != nil {
		t.Fatalf("DeletePeriod: %v", err)
	}

	if _, ok := m.Active(); ok {
		t.Error("deleted period still active")
	}
	if len(m.Records()) != 0 || len(m.View()) != 0 {
		t.Error("records still in memory")
	}
	if !slices.Equal(rec.kinds(), []string{"period.deleted"}) {
		t.Errorf("events = %v", rec.kinds())
	}
	if e := rec.events[0].(events.PeriodDeleted); !e.WasActive {
		t.Error("event should report the active period")
	}
	if periods, _ := db.ListPeriods(); len(periods) != 0 {
		t.Errorf("periods left: %d", len(periods))
	}
}

func TestLoadPeriod(t *testing.T) {
	m, _, rec := newTestManager(t)
	mustCreate(t, m, "Jan", "0")
	mustAddRecord(t, m, validation.RecordInput{Label: "groceries", Amount: "5"})
	mustAddRecord(t, m, validation.RecordInput{Label: "rent", Amount: "9"})
	mustCreate(t, m, "Feb", "0")
	rec.reset()

	var nf *storage.NotFoundError
	if _, err := m.LoadPeriod("Mar"); !errors.As(err, &nf) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
	if p, _ := m.Active(); p.Name != "Feb" {
		t.Errorf("failed load changed the active period to %q", p.Name)
	}

	if _, err := m.LoadPeriod("Jan"); err != nil {
		t.Fatalf("LoadPeriod: %v", err)
	}
	if len(m.Records()) != 2 {
		t.Errorf("records = %d, want 2", len(m.Records()))
	}
	if !slices.Equal(rec.kinds(), []string{"period.loaded"}) {
		t.Errorf("events = %v", rec.kinds())
	}

	m.SetSearchTerm("gro")
	if len(m.View()) != 1 || m.View()[0].Label != "groceries" {
		t.Errorf("view = %+v", m.View())
	}
	if e := rec.events[1].(events.SearchChanged); e.Matches != 1 {
		t.Errorf("search event = %+v", e)
	}
}

func TestOperationsNeedActivePeriod(t *testing.T) {
	m, _, rec := newTestManager(t)
	checks := map[string]error{
		"add":    func() error { _, err := m.AddRecord(validation.RecordInput{}); return err }(),
		"rename": m.RenamePeriod("x"),
		"income": m.SetAmountIn("5"),
		"remove": m.RemoveRecord(1),
		"clear":  m.ClearRecords(),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrNoActivePeriod) {
			t.Errorf("%s: error = %v, want ErrNoActivePeriod", name, err)
		}
	}
	if len(rec.events) != 0 {
		t.Errorf("events = %v", rec.kinds())
	}
}

func TestValidationFailuresDoNotMutate(t *testing.T) {
	m, db, rec := newTestManager(t)
	var verr *validation.ValidationError
	if _, err := m.CreatePeriod("", "abc"); !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	mustCreate(t, m, "Jan", "0")
	rec.reset()

	if _, err := m.AddRecord(validation.RecordInput{Label: "x", Amount: "-1"}); !errors.As(err, &verr) {
		t.Errorf("AddRecord error = %v", err)
	}
	if err := m.SetAmountIn("lots"); !errors.As(err, &verr) {
		t.Errorf("SetAmountIn error = %v", err)
	}
	if err := m.SetSortKey("random"); !errors.As(err, &verr) {
		t.Errorf("SetSortKey error = %v", err)
	}
	if len(rec.events) != 0 || len(m.Records()) != 0 {
		t.Errorf("state changed: events %v, records %d", rec.kinds(), len(m.Records()))
	}
	if periods, _ := db.ListPeriods(); len(periods) != 1 {
		t.Errorf("periods = %d, want 1", len(periods))
	}
}

func TestRecordEdits(t *testing.T) {
	m, db, rec := newTestManager(t)
	mustCreate(t, m, "Jan", "0")
	r := mustAddRecord(t, m, validation.RecordInput{Label: "rent", Amount: "800", Category: "Housing", Date: "01/01/2025"})
	rec.reset()

	done := true
	updated, err := m.SetRecordFields(r.ID, ledger.Fields{Done: &done})
	if err != nil {
		t.Fatalf("SetRecordFields: %v", err)
	}
	if !updated.Done || updated.Category != "Housing" {
		t.Errorf("updated = %+v", updated)
	}

	negative := decimal.NewFromInt(-5)
	var verr *validation.ValidationError
	if _, err := m.SetRecordFields(r.ID, ledger.Fields{Amount: &negative}); !errors.As(err, &verr) {
		t.Errorf("negative amount error = %v", err)
	}

	updated, err = m.UpdateRecord(r.ID, validation.RecordInput{Label: "mortgage", Amount: "900", Date: "02/01/2025"})
	if err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	if updated.Category != storage.DefaultCategory || updated.Done {
		t.Errorf("full update should replace every field: %+v", updated)
	}
	stored, _ := db.ListRecords(r.PeriodID)
	if len(stored) != 1 || stored[0].Label != "mortgage" || !stored[0].Amount.Equal(decimal.NewFromInt(900)) {
		t.Errorf("stored = %+v", stored)
	}

	var nf *storage.NotFoundError
	if _, err := m.SetRecordFields(999, ledger.Fields{Done: &done}); !errors.As(err, &nf) {
		t.Errorf("unknown record error = %v", err)
	}

	if err := m.RemoveRecord(r.ID); err != nil {
		t.Fatalf("RemoveRecord: %v", err)
	}
	want := []string{"record.updated", "record.updated", "record.removed"}
	if !slices.Equal(rec.kinds(), want) {
		t.Errorf("events = %v, want %v", rec.kinds(), want)
	}
}

func TestClearAndRefresh(t *testing.T) {
	m, _, rec := newTestManager(t)
	mustCreate(t, m, "Jan", "0")
	mustAddRecord(t, m, validation.RecordInput{Label: "a", Amount: "1", Date: "01/01/2025"})
	mustAddRecord(t, m, validation.RecordInput{Label: "b", Amount: "2", Date: "02/01/2025"})
	rec.reset()

	if err := m.SetSortKey("amount_asc"); err != nil {
		t.Fatalf("SetSortKey: %v", err)
	}
	refreshed := rec.events[0].(events.DisplayRefreshed)
	if len(refreshed.Records) != 2 || refreshed.Records[0].Label != "a" {
		t.Errorf("refresh payload = %+v", refreshed.Records)
	}
	if !refreshed.Summary.TotalDebit.Equal(decimal.NewFromInt(3)) {
		t.Errorf("refresh summary = %+v", refreshed.Summary)
	}

	if err := m.ClearRecords(); err != nil {
		t.Fatalf("ClearRecords: %v", err)
	}
	m.Refresh()
	if len(m.Records()) != 0 {
		t.Error("records survived clear")
	}
	if !slices.Equal(rec.kinds(), []string{"display.refreshed", "display.refreshed", "display.refreshed"}) {
		t.Errorf("events = %v", rec.kinds())
	}
}

func TestSetAmountIn(t *testing.T) {
	m, db, rec := newTestManager(t)
	p := mustCreate(t, m, "Jan", "0")
	rec.reset()

	if err := m.SetAmountIn("2500,50"); err != nil {
		t.Fatalf("SetAmountIn: %v", err)
	}
	want := decimal.RequireFromString("2500.5")
	if active, _ := m.Active(); !active.AmountIn.Equal(want) {
		t.Errorf("active amount_in = %s", active.AmountIn)
	}
	if stored, _ := db.GetPeriodByID(p.ID); !stored.AmountIn.Equal(want) {
		t.Errorf("stored amount_in = %s", stored.AmountIn)
	}
	if !slices.Equal(rec.kinds(), []string{"salary.updated"}) {
		t.Errorf("events = %v", rec.kinds())
	}
}

func TestImportPeriod(t *testing.T) {
	m, _, rec := newTestManager(t)
	rows := []importer.Row{
		{Label: "salary", Amount: "3000", Date: "01/03/2025", IsCredit: true},
		{Label: "rent", Amount: "900", Date: "02/03/2025"},
		{Label: "broken", Amount: "", Date: "03/03/2025"},
	}
	res, err := m.ImportPeriod("Mar", rows, importer.Options{})
	if err != nil {
		t.Fatalf("ImportPeriod: %v", err)
	}
	if res.Created != 2 || res.Skipped != 1 {
		t.Errorf("created/skipped = %d/%d", res.Created, res.Skipped)
	}
	p, ok := m.Active()
	if !ok || p.Name != "Mar" || !p.AmountIn.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("active = %+v", p)
	}
	if len(m.View()) != 2 {
		t.Errorf("view = %d entries", len(m.View()))
	}
	if !slices.Equal(rec.kinds(), []string{"period.loaded"}) {
		t.Errorf("events = %v", rec.kinds())
	}
}

func TestExportedPeriodReimportsIntact(t *testing.T) {
	m, _, _ := newTestManager(t)
	src := mustCreate(t, m, "Jan", "500")
	if _, err := m.AddRecord(validation.RecordInput{}); err != nil {
		t.Fatalf("AddRecord blank: %v", err)
	}
	if _, err := m.AddRecord(validation.RecordInput{Label: "rent", Amount: "800"}); err != nil {
		t.Fatalf("AddRecord rent: %v", err)
	}

	var buf bytes.Buffer
	if err := importer.EncodeJSON(&buf, src, m.Records()); err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	doc, err := importer.DecodeJSON(&buf)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	opts, err := doc.ImportOptions()
	if err != nil {
		t.Fatalf("ImportOptions: %v", err)
	}
	res, err := m.ImportPeriod("Jan copy", doc.Records, opts)
	if err != nil {
		t.Fatalf("ImportPeriod: %v", err)
	}
	if res.Created != 2 || res.Skipped != 0 {
		t.Errorf("created/skipped = %d/%d, want 2/0", res.Created, res.Skipped)
	}
	p, _ := m.Active()
	if p.Name != "Jan copy" || !p.AmountIn.Equal(decimal.NewFromInt(500)) {
		t.Errorf("active = %+v, want Jan copy with income 500", p)
	}
	if got := m.Records(); len(got) != 2 || got[0].Label != "" || !got[0].Amount.IsZero() {
		t.Errorf("records = %+v", got)
	}
}

func TestRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.db")
	db := openDB(t, path)
	bus := events.NewBus(zerolog.Nop())

	empty := NewManager(db, bus, zerolog.Nop())
	if ok, err := empty.Restore(); ok || err != nil {
		t.Fatalf("Restore on empty db = %v, %v", ok, err)
	}

	m := NewManager(db, bus, zerolog.Nop())
	mustCreate(t, m, "Jan", "0")
	mustCreate(t, m, "Feb", "0")
	if _, err := m.LoadPeriod("Jan"); err != nil {
		t.Fatalf("LoadPeriod: %v", err)
	}

	again := NewManager(db, bus, zerolog.Nop())
	if ok, err := again.Restore(); !ok || err != nil {
		t.Fatalf("Restore = %v, %v", ok, err)
	}
	if p, _ := again.Active(); p.Name != "Jan" {
		t.Errorf("restored %q, want Jan", p.Name)
	}

	if err := again.DeletePeriod("Jan"); err != nil {
		t.Fatalf("DeletePeriod: %v", err)
	}
	fallback := NewManager(db, bus, zerolog.Nop())
	if ok, err := fallback.Restore(); !ok || err != nil {
		t.Fatalf("Restore = %v, %v", ok, err)
	}
	if p, _ := fallback.Active(); p.Name != "Feb" {
		t.Errorf("fallback restored %q, want Feb", p.Name)
	}
}

func TestTheme(t *testing.T) {
	m, _, _ := newTestManager(t)
	if theme, err := m.Theme(); err != nil || theme != ThemeLight {
		t.Fatalf("default theme = %q, %v", theme, err)
	}
	if err := m.SetTheme(" Dark "); err != nil {
		t.Fatalf("SetTheme: %v", err)
	}
	if theme, _ := m.Theme(); theme != ThemeDark {
		t.Errorf("theme = %q, want dark", theme)
	}
	var verr *validation.ValidationError
	if err := m.SetTheme("blue"); !errors.As(err, &verr) {
		t.Errorf("error = %v, want ValidationError", err)
	}
}

func TestFailingSubscriberDoesNotFailOperation(t *testing.T) {
	db := openDB(t, filepath.Join(t.TempDir(), "budget.db"))
	bus := events.NewBus(zerolog.Nop())
	bus.Subscribe(func(events.Event) error { return errors.New("ui gone") })
	rec := &recorder{}
	bus.Subscribe(rec.handle)

	m := NewManager(db, bus, zerolog.Nop())
	if _, err := m.CreatePeriod("Jan", "0"); err != nil {
		t.Fatalf("CreatePeriod: %v", err)
	}
	if !slices.Equal(rec.kinds(), []string{"period.created"}) {
		t.Errorf("later subscriber saw %v", rec.kinds())
	}
}
