package table

import (
	"regexp"
	"sort"
	"strings"
)

var datePrefix = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{4})`)

// DateKey transposes a DD.MM.YYYY prefix into YYYYMMDD so that plain string
// comparison orders dates chronologically. Other values are returned as is.
func DateKey(v string) string {
	m := datePrefix.FindStringSubmatch(v)
	if m == nil {
		return v
	}
	return m[3] + m[2] + m[1]
}

// Sort is the single active ordering of a view. An empty Key means the
// filtered order is kept.
type Sort struct {
	Key  string
	Desc bool
}

// Toggle returns the sort after a click on key: the same key flips the
// direction, a different key starts ascending.
func (s Sort) Toggle(key string) Sort {
	if s.Key == key {
		return Sort{Key: key, Desc: !s.Desc}
	}
	return Sort{Key: key}
}

// Indicator returns the header glyph for key under s.
func (s Sort) Indicator(key string) string {
	switch {
	case s.Key != key:
		return ""
	case s.Desc:
		return "▼"
	default:
		return "▲"
	}
}

// Compare orders two field values of one column: case-insensitive text, or
// DateKey order for date columns.
func Compare(a, b string, date bool) int {
	if date {
		a, b = DateKey(a), DateKey(b)
	} else {
		a, b = strings.ToLower(a), strings.ToLower(b)
	}
	return strings.Compare(a, b)
}

// SortRows returns a sorted copy of rows. The sort is stable, so ties keep
// their incoming order in both directions.
func SortRows(rows []Row, s Sort, cols Columns) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	if s.Key == "" {
		return out
	}
	date := cols.IsDate(s.Key)
	keys := make([]string, len(out))
	for i := range out {
		v := out[i].Get(s.Key)
		if date {
			keys[i] = DateKey(v)
		} else {
			keys[i] = strings.ToLower(v)
		}
	}
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		c := strings.Compare(keys[idx[i]], keys[idx[j]])
		if s.Desc {
			return c > 0
		}
		return c < 0
	})
	sorted := make([]Row, len(out))
	for i, k := range idx {
		sorted[i] = out[k]
	}
	return sorted
}
