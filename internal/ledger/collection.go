// Package ledger keeps the active period's records in memory: the canonical
// list mirrors storage, the projection is the filtered and sorted view of it.
//
// The projection is exactly Project(canonical, term, key) after Load,
// SetSearchTerm, SetSortKey and Rebuild. Add appends a matching record at the
// end of the projection without sorting, and Update edits entries in place
// without re-checking the filter or the order. Both stay that way until the
// next full rebuild.
package ledger

import (
	"slices"
	"strings"

	"github.com/NgigiN/budget/internal/storage"
	"github.com/shopspring/decimal"
)

// RecordStore is the persistence the collection writes through.
type RecordStore interface {
	ListRecords(periodID uint) ([]storage.Record, error)
	CreateRecord(periodID uint, r *storage.Record) error
	UpdateRecord(r storage.Record) error
	DeleteRecord(id uint) error
	DeleteAllRecords(periodID uint) error
}

// Fields is a partial record update; nil fields are left alone.
type Fields struct {
	Label    *string
	Amount   *decimal.Decimal
	Category *string
	Date     *string
	IsCredit *bool
	Done     *bool
	Borrowed *bool
	Fixed    *bool
}

// Apply copies the set fields onto r.
func (f Fields) Apply(r *storage.Record) {
	if f.Label != nil {
		r.Label = *f.Label
	}
	if f.Amount != nil {
		r.Amount = *f.Amount
	}
	if f.Category != nil {
		r.Category = *f.Category
	}
	if f.Date != nil {
		r.Date = *f.Date
	}
	if f.IsCredit != nil {
		r.IsCredit = *f.IsCredit
	}
	if f.Done != nil {
		r.Done = *f.Done
	}
	if f.Borrowed != nil {
		r.Borrowed = *f.Borrowed
	}
	if f.Fixed != nil {
		r.Fixed = *f.Fixed
	}
}

// FieldsOf returns a Fields value that sets every mutable column to r's.
func FieldsOf(r storage.Record) Fields {
	return Fields{
		Label:    &r.Label,
		Amount:   &r.Amount,
		Category: &r.Category,
		Date:     &r.Date,
		IsCredit: &r.IsCredit,
		Done:     &r.Done,
		Borrowed: &r.Borrowed,
		Fixed:    &r.Fixed,
	}
}

// Matches reports whether r's label contains term, ignoring case. An empty
// term matches everything.
func Matches(r storage.Record, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Label), strings.ToLower(term))
}

// Project filters records by term and sorts the result by key. The input is
// not modified.
func Project(records []storage.Record, term string, key SortKey) []storage.Record {
	out := make([]storage.Record, 0, len(records))
	for _, r := range records {
		if Matches(r, term) {
			out = append(out, r)
		}
	}
	Sort(out, key)
	return out
}

// Collection holds the canonical records of one period and their projection.
// It is not safe for concurrent use.
type Collection struct {
	store     RecordStore
	periodID  uint
	canonical []storage.Record
	view      []storage.Record
	term      string
	sortKey   SortKey
}

func NewCollection(store RecordStore) *Collection {
	return &Collection{store: store, sortKey: DefaultSortKey}
}

// Load replaces the canonical list with the stored records of periodID,
// resets the search term and sort key, and rebuilds the projection. On error
// the collection is unchanged.
func (c *Collection) Load(periodID uint) error {
	records, err := c.store.ListRecords(periodID)
	if err != nil {
		return err
	}
	c.periodID = periodID
	c.canonical = records
	c.term = ""
	c.sortKey = DefaultSortKey
	c.Rebuild()
	return nil
}

// Reset makes periodID active with empty lists. Reset(0) detaches the
// collection from any period.
func (c *Collection) Reset(periodID uint) {
	c.periodID = periodID
	c.canonical = nil
	c.view = nil
	c.term = ""
	c.sortKey = DefaultSortKey
}

// Add persists r into the active period and appends it to the canonical list.
// It is appended to the projection only if it matches the current term.
func (c *Collection) Add(r storage.Record) (storage.Record, error) {
	if err := c.store.CreateRecord(c.periodID, &r); err != nil {
		return storage.Record{}, err
	}
	c.canonical = append(c.canonical, r)
	if Matches(r, c.term) {
		c.view = append(c.view, r)
	}
	return r, nil
}

// Update applies f to the record with the given id. The store is written
// first; memory changes only once it succeeded.
func (c *Collection) Update(id uint, f Fields) (storage.Record, error) {
	i := c.indexOf(c.canonical, id)
	if i < 0 {
		return storage.Record{}, &storage.NotFoundError{Entity: "record", Key: id}
	}
	updated := c.canonical[i]
	f.Apply(&updated)
	if err := c.store.UpdateRecord(updated); err != nil {
		return storage.Record{}, err
	}
	c.canonical[i] = updated
	if j := c.indexOf(c.view, id); j >= 0 {
		c.view[j] = updated
	}
	return updated, nil
}

// Remove deletes the record with the given id from storage, the canonical
// list and, if present, the projection.
func (c *Collection) Remove(id uint) error {
	i := c.indexOf(c.canonical, id)
	if i < 0 {
		return &storage.NotFoundError{Entity: "record", Key: id}
	}
	if err := c.store.DeleteRecord(id); err != nil {
		return err
	}
	c.canonical = slices.Delete(c.canonical, i, i+1)
	if j := c.indexOf(c.view, id); j >= 0 {
		c.view = slices.Delete(c.view, j, j+1)
	}
	return nil
}

// Clear deletes every record of the active period.
func (c *Collection) Clear() error {
	if err := c.store.DeleteAllRecords(c.periodID); err != nil {
		return err
	}
	c.canonical = nil
	c.view = nil
	return nil
}

// SetSearchTerm changes the filter and rebuilds the projection.
func (c *Collection) SetSearchTerm(term string) {
	c.term = term
	c.Rebuild()
}

// SetSortKey changes the ordering and rebuilds the projection.
func (c *Collection) SetSortKey(key SortKey) {
	c.sortKey = key
	c.Rebuild()
}

// Rebuild recomputes the projection from the canonical list.
func (c *Collection) Rebuild() {
	c.view = Project(c.canonical, c.term, c.sortKey)
}

func (c *Collection) PeriodID() uint     { return c.periodID }
func (c *Collection) SearchTerm() string { return c.term }
func (c *Collection) SortKey() SortKey   { return c.sortKey }

// Records returns a copy of the canonical list.
func (c *Collection) Records() []storage.Record { return slices.Clone(c.canonical) }

// View returns a copy of the projection.
func (c *Collection) View() []storage.Record { return slices.Clone(c.view) }

// Find looks a record up in the canonical list.
func (c *Collection) Find(id uint) (storage.Record, bool) {
	if i := c.indexOf(c.canonical, id); i >= 0 {
		return c.canonical[i], true
	}
	return storage.Record{}, false
}

// Summary aggregates the canonical list.
func (c *Collection) Summary() Summary { return Summarize(c.canonical) }

// ViewSummary aggregates the projection.
func (c *Collection) ViewSummary() Summary { return Summarize(c.view) }

func (c *Collection) indexOf(list []storage.Record, id uint) int {
	return slices.IndexFunc(list, func(r storage.Record) bool { return r.ID == id })
}
