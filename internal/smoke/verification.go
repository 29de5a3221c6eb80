package smoke

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/acolyte/internal/domain/model"
)

// expectation maps each id to the item the table must hold.
type expectation map[int64]model.Item

func (e expectation) add(warriors ...model.Warrior) {
	for _, w := range warriors {
		e[w.ID] = w.Item()
	}
}

// diff lists the expected ids that are missing or differ in items.
func (e expectation) diff(items []model.Item) (missing []int64, mismatched []string) {
	got := make(map[int64]model.Item, len(items))
	for _, it := range items {
		got[it.ID] = it
	}
	for id, want := range e {
		have, ok := got[id]
		switch {
		case !ok:
			missing = append(missing, id)
		case have != want:
			mismatched = append(mismatched, fmt.Sprintf("id %d: want %+v, got %+v", id, want, have))
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	sort.Strings(mismatched)
	return missing, mismatched
}

// verifyResults fails when any expected record is absent or differs.
func verifyResults(want expectation, items []model.Item, stats *Stats) error {
	missing, mismatched := want.diff(items)
	stats.Verified = len(want) - len(missing) - len(mismatched)
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing ids %v", ErrNotIngested, missing)
	}
	if len(mismatched) > 0 {
		return fmt.Errorf("%w: %s", ErrMismatch, strings.Join(mismatched, "; "))
	}
	return nil
}
