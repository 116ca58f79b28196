package table

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Filters is the filter state of a view: one global substring query and
// exact-match values per column. An empty value means no filter.
type Filters struct {
	Global  string
	Columns map[string]string
}

// Active returns the non-empty column filters.
func (f Filters) Active() map[string]string {
	out := make(map[string]string, len(f.Columns))
	for k, v := range f.Columns {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Clone returns a deep copy of f.
func (f Filters) Clone() Filters {
	cols := make(map[string]string, len(f.Columns))
	for k, v := range f.Columns {
		cols[k] = v
	}
	return Filters{Global: f.Global, Columns: cols}
}

// IsZero reports whether no filter is active.
func (f Filters) IsZero() bool {
	return strings.TrimSpace(f.Global) == "" && len(f.Active()) == 0
}

// matcher is a prepared form of Filters.
type matcher struct {
	q    string
	cols map[string]string
}

func newMatcher(f Filters, except string) matcher {
	cols := f.Active()
	delete(cols, except)
	return matcher{q: NormalizeQuery(f.Global), cols: cols}
}

func (m matcher) match(r Row) bool {
	if !r.Matches(m.q) {
		return false
	}
	for k, v := range m.cols {
		if r.Get(k) != v {
			return false
		}
	}
	return true
}

// Filter returns the rows passing f, in dataset order.
func Filter(ds *Dataset, f Filters) []Row {
	return filterExcept(ds, f, "")
}

func filterExcept(ds *Dataset, f Filters, except string) []Row {
	if ds == nil {
		return nil
	}
	m := newMatcher(f, except)
	out := make([]Row, 0, len(ds.Rows))
	for _, r := range ds.Rows {
		if m.match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Apply derives the visible rows: global filter, column filters, then a
// stable sort.
func Apply(ds *Dataset, f Filters, s Sort) []Row {
	if ds == nil {
		return nil
	}
	return SortRows(Filter(ds, f), s, ds.Columns)
}

// Options returns the values offered in the filter of column key: the
// distinct non-empty values across rows passing every filter except key's
// own. Any offered value therefore yields at least one row.
func Options(ds *Dataset, f Filters, key string) []string {
	if ds == nil {
		return nil
	}
	seen := map[string]struct{}{}
	values := []string{}
	for _, r := range filterExcept(ds, f, key) {
		v := r.Get(key)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	SortOptions(values, ds.Columns.IsDate(key))
	return values
}

// IsSentinel reports whether v is a placeholder marker ("—", "нет", "НЕТ УЗ"
// and the like). Sentinels are listed before real values.
func IsSentinel(v string) bool {
	lower := strings.ToLower(strings.TrimSpace(v))
	switch lower {
	case "—", "-", "нет", "none", "(пусто)":
		return true
	}
	return strings.HasPrefix(lower, "нет ")
}

// SortOptions orders filter options in place: sentinels first, then date
// order for date columns or Russian collation for text.
func SortOptions(values []string, date bool) {
	var cmp func(a, b string) int
	if date {
		cmp = func(a, b string) int { return Compare(a, b, true) }
	} else {
		c := collate.New(language.Russian, collate.IgnoreCase)
		cmp = c.CompareString
	}
	sort.SliceStable(values, func(i, j int) bool {
		si, sj := IsSentinel(values[i]), IsSentinel(values[j])
		if si != sj {
			return si
		}
		return cmp(values[i], values[j]) < 0
	})
}
