package table

import (
	"fmt"
	"strings"
	"sync"
)

// DefaultChunkSize is the number of rows materialised per render step.
const DefaultChunkSize = 200

// Footer carries the three counters shown under a table.
type Footer struct {
	Total    int
	Matched  int
	Rendered int
	Err      error
}

// String renders the footer text. Matched and rendered counts are only
// spelled out when they differ from the number before them.
func (f Footer) String() string {
	if f.Err != nil {
		return ""
	}
	parts := []string{fmt.Sprintf("Всего записей: %d", f.Total)}
	if f.Matched != f.Total {
		parts = append(parts, fmt.Sprintf("по фильтру: %d", f.Matched))
	}
	if f.Rendered != f.Matched {
		parts = append(parts, fmt.Sprintf("показано: %d", f.Rendered))
	}
	return strings.Join(parts, " · ")
}

// State is a read-only snapshot of a view for rendering.
type State struct {
	Columns  Columns
	Filters  Filters
	Sort     Sort
	Options  map[string][]string
	Footer   Footer
	Loaded   bool
	Loading  bool
	Err      error
	Sequence uint64
}

// View owns the filter, sort and render-cursor state of one table. It is the
// single source of truth; the HTML is a projection of it. All methods are
// safe for concurrent use.
type View struct {
	mu sync.Mutex

	columns   Columns
	chunkSize int

	data    *Dataset
	filters Filters
	sort    Sort
	visible []Row
	options map[string][]string
	cursor  int

	generation uint64
	loading    bool
	loaded     bool
	err        error
}

// NewView creates an empty view over cols. A chunkSize <= 0 selects
// DefaultChunkSize.
func NewView(cols Columns, chunkSize int) *View {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &View{
		columns:   cols,
		chunkSize: chunkSize,
		filters:   Filters{Columns: map[string]string{}},
		options:   map[string][]string{},
	}
}

// Columns returns the view's column model.
func (v *View) Columns() Columns {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.columns
}

// Begin starts a new load and returns its generation. Results of older
// generations are discarded by Load and Fail.
func (v *View) Begin() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation++
	v.loading = true
	return v.generation
}

// Generation returns the generation of the most recent Begin.
func (v *View) Generation() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.generation
}

// Load replaces the dataset with records if gen is still current. It
// returns false when a newer load has been started since.
func (v *View) Load(gen uint64, records []map[string]string) bool {
	ds := NewDataset(v.Columns(), records)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation {
		return false
	}
	v.data = ds
	v.loading = false
	v.loaded = true
	v.err = nil
	v.recompute()
	return true
}

// Fail records a load failure for gen. Stale failures are ignored.
func (v *View) Fail(gen uint64, err error) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation {
		return false
	}
	v.loading = false
	v.err = err
	v.data = nil
	v.visible = nil
	v.options = map[string][]string{}
	v.cursor = 0
	return true
}

// Invalidate forgets the loaded data so the next page visit reloads it.
// Filter and sort state is kept.
func (v *View) Invalidate() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation++
	v.loaded = false
	v.loading = false
}

// Loaded reports whether the view holds a dataset for its current generation.
func (v *View) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded && v.err == nil
}

// SetGlobal sets the global filter query.
func (v *View) SetGlobal(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters.Global = q
	v.recompute()
}

// SetColumnFilter sets the exact-match filter of key; an empty value clears it.
// Unknown keys are ignored.
func (v *View) SetColumnFilter(key, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.columns.Lookup(key); !ok {
		return
	}
	if value == "" {
		delete(v.filters.Columns, key)
	} else {
		v.filters.Columns[key] = value
	}
	v.recompute()
}

// SetFilters replaces the whole filter state in one step.
func (v *View) SetFilters(f Filters) {
	v.mu.Lock()
	defer v.mu.Unlock()
	next := Filters{Global: f.Global, Columns: map[string]string{}}
	for k, val := range f.Columns {
		if _, ok := v.columns.Lookup(k); ok && val != "" {
			next.Columns[k] = val
		}
	}
	v.filters = next
	v.recompute()
}

// ToggleSort applies a header click on key.
func (v *View) ToggleSort(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.columns.Lookup(key); !ok {
		return
	}
	v.sort = v.sort.Toggle(key)
	v.recompute()
}

// SetSort replaces the sort state.
func (v *View) SetSort(s Sort) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if s.Key != "" {
		if _, ok := v.columns.Lookup(s.Key); !ok {
			return
		}
	}
	v.sort = s
	v.recompute()
}

// Reset clears filters and sort.
func (v *View) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters = Filters{Columns: map[string]string{}}
	v.sort = Sort{}
	v.recompute()
}

// recompute derives visible rows and option sets from the current state and
// rewinds the render cursor. A selected column value that is no longer
// offered is dropped, and the derivation repeats until nothing changes.
// Callers hold v.mu.
func (v *View) recompute() {
	v.cursor = 0
	if v.data == nil {
		v.visible = nil
		v.options = map[string][]string{}
		return
	}
	for i := 0; i <= len(v.columns); i++ {
		v.options = make(map[string][]string, len(v.columns))
		for _, col := range v.columns {
			v.options[col.Key] = Options(v.data, v.filters, col.Key)
		}
		if !v.dropUnavailable() {
			break
		}
	}
	v.visible = Apply(v.data, v.filters, v.sort)
}

func (v *View) dropUnavailable() bool {
	changed := false
	for key, selected := range v.filters.Columns {
		if !contains(v.options[key], selected) {
			delete(v.filters.Columns, key)
			changed = true
		}
	}
	return changed
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// Rewind moves the render cursor back to the first row.
func (v *View) Rewind() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cursor = 0
}

// NextChunk returns the next rows to render and advances the cursor. It
// returns nil once every visible row has been handed out.
func (v *View) NextChunk() []Row {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cursor >= len(v.visible) {
		return nil
	}
	end := min(v.cursor+v.chunkSize, len(v.visible))
	chunk := make([]Row, end-v.cursor)
	copy(chunk, v.visible[v.cursor:end])
	v.cursor = end
	return chunk
}

// Window is one render step: the rows it hands out, the rows already
// rendered before them and the counters after the step.
type Window struct {
	Before []Row
	Rows   []Row
	More   bool
	Footer Footer
}

// Advance hands out the next chunk like NextChunk and reports it together
// with its context, so a caller can append the chunk without rendering the
// earlier rows again. Before and Rows share storage with the view and must
// not be modified.
func (v *View) Advance() Window {
	v.mu.Lock()
	defer v.mu.Unlock()
	start := min(v.cursor, len(v.visible))
	end := min(start+v.chunkSize, len(v.visible))
	v.cursor = end
	return Window{
		Before: v.visible[:start:start],
		Rows:   v.visible[start:end:end],
		More:   end < len(v.visible),
		Footer: v.footer(),
	}
}

// HasMore reports whether NextChunk would return rows.
func (v *View) HasMore() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cursor < len(v.visible)
}

// Rendered returns the rows handed out by NextChunk since the last rewind.
func (v *View) Rendered() []Row {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Row, v.cursor)
	copy(out, v.visible[:v.cursor])
	return out
}

// Visible returns a copy of the filtered and sorted rows.
func (v *View) Visible() []Row {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Row, len(v.visible))
	copy(out, v.visible)
	return out
}

// Footer returns the current counters.
func (v *View) Footer() Footer {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.footer()
}

func (v *View) footer() Footer {
	if v.err != nil {
		return Footer{Err: v.err}
	}
	return Footer{Total: v.data.Len(), Matched: len(v.visible), Rendered: v.cursor}
}

// Snapshot returns the state needed to render headers, filters and footer.
func (v *View) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	opts := make(map[string][]string, len(v.options))
	for k, vals := range v.options {
		opts[k] = append([]string(nil), vals...)
	}
	return State{
		Columns:  v.columns,
		Filters:  v.filters.Clone(),
		Sort:     v.sort,
		Options:  opts,
		Footer:   v.footer(),
		Loaded:   v.loaded,
		Loading:  v.loading,
		Err:      v.err,
		Sequence: v.generation,
	}
}
