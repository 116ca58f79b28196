package table

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// searchSep joins field values in the search string so that a query never
// matches across two adjacent fields.
const searchSep = "\x1f"

// Row is one immutable record of a dataset. Missing fields read as "".
type Row struct {
	fields map[string]string
	search string
}

// Get returns the field value for key.
func (r Row) Get(key string) string {
	return r.fields[key]
}

// Fields returns a copy of the row's fields.
func (r Row) Fields() map[string]string {
	out := make(map[string]string, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}

// Project returns the row's values for cols in column order.
func (r Row) Project(cols Columns) []string {
	out := make([]string, len(cols))
	for i, col := range cols {
		out[i] = r.fields[col.Key]
	}
	return out
}

// Matches reports whether the normalised query q is a substring of the row's
// search string. q must already be prepared with NormalizeQuery.
func (r Row) Matches(q string) bool {
	return q == "" || strings.Contains(r.search, q)
}

// NewRow builds a row and its derived search string from the values of cols.
func NewRow(fields map[string]string, cols Columns) Row {
	if fields == nil {
		fields = map[string]string{}
	}
	var b strings.Builder
	for i, col := range cols {
		if i > 0 {
			b.WriteString(searchSep)
		}
		b.WriteString(fields[col.Key])
	}
	return Row{fields: fields, search: fold(b.String())}
}

// NormalizeQuery prepares a global filter string for Row.Matches.
func NormalizeQuery(q string) string {
	return fold(strings.TrimSpace(q))
}

func fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// Dataset is an immutable snapshot of rows under a column model.
type Dataset struct {
	Columns Columns
	Rows    []Row
}

// NewDataset converts raw records into rows. The per-row search string is
// computed here, once per load, and never on filter changes.
func NewDataset(cols Columns, records []map[string]string) *Dataset {
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = NewRow(rec, cols)
	}
	return &Dataset{Columns: cols, Rows: rows}
}

// Len returns the number of rows, treating a nil dataset as empty.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}
