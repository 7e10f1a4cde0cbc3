package ledger

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/NgigiN/budget/internal/storage"
	"github.com/NgigiN/budget/internal/validation"
)

// SortKey selects the ordering of the projection.
type SortKey string

const (
	SortDateAsc    SortKey = "date_asc"
	SortDateDesc   SortKey = "date_desc"
	SortAmountAsc  SortKey = "amount_asc"
	SortAmountDesc SortKey = "amount_desc"
	SortLabelAsc   SortKey = "label_asc"
	SortLabelDesc  SortKey = "label_desc"
	SortDoneFirst  SortKey = "done_desc"
	SortDoneLast   SortKey = "done_asc"
	SortFixedFirst SortKey = "fixed_desc"
	SortType       SortKey = "type"
)

// DefaultSortKey is applied on every Load.
const DefaultSortKey = SortDateDesc

var comparators = map[SortKey]func(a, b storage.Record) int{
	SortDateAsc:    func(a, b storage.Record) int { return recordDate(a).Compare(recordDate(b)) },
	SortDateDesc:   func(a, b storage.Record) int { return recordDate(b).Compare(recordDate(a)) },
	SortAmountAsc:  func(a, b storage.Record) int { return a.Amount.Cmp(b.Amount) },
	SortAmountDesc: func(a, b storage.Record) int { return b.Amount.Cmp(a.Amount) },
	SortLabelAsc:   func(a, b storage.Record) int { return cmp.Compare(foldLabel(a), foldLabel(b)) },
	SortLabelDesc:  func(a, b storage.Record) int { return cmp.Compare(foldLabel(b), foldLabel(a)) },
	SortDoneFirst:  func(a, b storage.Record) int { return trueFirst(a.Done, b.Done) },
	SortDoneLast:   func(a, b storage.Record) int { return trueFirst(b.Done, a.Done) },
	SortFixedFirst: func(a, b storage.Record) int { return trueFirst(a.Fixed, b.Fixed) },
	SortType: func(a, b storage.Record) int {
		if c := trueFirst(a.IsCredit, b.IsCredit); c != 0 {
			return c
		}
		return cmp.Compare(foldLabel(a), foldLabel(b))
	},
}

// SortKeys lists every accepted key.
func SortKeys() []SortKey {
	keys := make([]SortKey, 0, len(comparators))
	for k := range comparators {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ParseSortKey validates a textual sort key.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.TrimSpace(s))
	if _, ok := comparators[k]; !ok {
		return "", fmt.Errorf("unknown sort key %q", s)
	}
	return k, nil
}

// Sort orders records in place by key. Records comparing equal keep their
// relative order. Unknown keys fall back to DefaultSortKey.
func Sort(records []storage.Record, key SortKey) {
	compare, ok := comparators[key]
	if !ok {
		compare = comparators[DefaultSortKey]
	}
	slices.SortStableFunc(records, compare)
}

// recordDate parses the record date; unparsable dates sort as the zero time.
func recordDate(r storage.Record) time.Time {
	t, err := validation.ParseDate(r.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

func foldLabel(r storage.Record) string { return strings.ToLower(r.Label) }

func trueFirst(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}
