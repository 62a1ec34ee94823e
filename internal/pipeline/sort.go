package pipeline

import (
	"sort"

	"github.com/theirongolddev/fintrack/internal/model"
)

// Dated is anything ordered by an ISO YYYY-MM-DD date string.
type Dated interface {
	DateKey() string
}

// SortByDateDesc returns a copy of items ordered newest first. Equal dates
// keep their input order. Plain string comparison is enough for ISO dates.
func SortByDateDesc[T Dated](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DateKey() > out[j].DateKey()
	})
	return out
}

var (
	_ Dated = model.ExpenseRecord{}
	_ Dated = model.ReceivedRecord{}
)
