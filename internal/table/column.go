package table

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// Column describes one displayed field. The same ordered list drives the
// header, the body cells, the filters and the export payload.
type Column struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
	// Date columns compare by DateKey instead of case-folded text.
	Date bool `yaml:"date,omitempty" json:"-"`
	// Primary marks the column that carries the identity link.
	Primary bool `yaml:"primary,omitempty" json:"-"`
}

// Columns is an ordered column model.
type Columns []Column

// Keys returns the column keys in display order.
func (c Columns) Keys() []string {
	keys := make([]string, len(c))
	for i := range c {
		keys[i] = c[i].Key
	}
	return keys
}

// Lookup finds a column by key.
func (c Columns) Lookup(key string) (Column, bool) {
	for _, col := range c {
		if col.Key == key {
			return col, true
		}
	}
	return Column{}, false
}

// IsDate reports whether key names a date-typed column.
func (c Columns) IsDate(key string) bool {
	col, ok := c.Lookup(key)
	return ok && col.Date
}

// With returns a copy of c extended by extra columns. Keys already present
// are skipped.
func (c Columns) With(extra ...Column) Columns {
	out := make(Columns, len(c), len(c)+len(extra))
	copy(out, c)
	for _, col := range extra {
		if _, exists := out.Lookup(col.Key); exists || col.Key == "" {
			continue
		}
		out = append(out, col)
	}
	return out
}

//go:embed columns.yaml
var columnsYAML []byte

var (
	columnSetsOnce sync.Once
	columnSets     map[string]Columns
	columnSetsErr  error
)

// ColumnSet returns a named column set declared in columns.yaml.
func ColumnSet(name string) (Columns, error) {
	columnSetsOnce.Do(func() {
		columnSets = map[string]Columns{}
		columnSetsErr = yaml.Unmarshal(columnsYAML, &columnSets)
	})
	if columnSetsErr != nil {
		return nil, fmt.Errorf("parse column sets: %w", columnSetsErr)
	}
	cols, ok := columnSets[name]
	if !ok {
		return nil, fmt.Errorf("unknown column set %q", name)
	}
	return cols.With(), nil
}

// MustColumnSet is ColumnSet for package-level declarations.
func MustColumnSet(name string) Columns {
	cols, err := ColumnSet(name)
	if err != nil {
		panic(err)
	}
	return cols
}
