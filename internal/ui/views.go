package ui

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"idrecon/internal/backend"
	"idrecon/internal/domain"
	"idrecon/internal/export"
	"idrecon/internal/session"
	"idrecon/internal/table"
)

// viewDef describes one server-side table view: where its rows come from
// and how it is exported and decorated.
type viewDef struct {
	Name    string
	Columns func(sess *session.Session) table.Columns
	Load    func(ctx context.Context, c *backend.Client, sess *session.Session) ([]map[string]string, error)
	// Export returns the workbook and sheet names of the current view.
	Export func(sess *session.Session) (filename, sheet string)
	Empty  string
	Sort   table.Sort
	// RowClasses returns one class string per row of rows; before holds
	// the rows rendered above them. Nil means inactive accounts are the
	// only thing highlighted.
	RowClasses func(before, rows []table.Row) []string
	// Prepare fetches what Columns depends on.
	Prepare func(ctx context.Context, c *backend.Client, sess *session.Session) error
}

const (
	viewConsolidated = "consolidated"
	viewDuplicates   = "duplicates"
	securityPrefix   = "security-"

	cacheDuplicates = "duplicates:stats"
	cacheSecurity   = "security:report"
)

func fixedColumns(set string) func(*session.Session) table.Columns {
	cols := table.MustColumnSet(set)
	return func(*session.Session) table.Columns { return cols }
}

var sourceClasses = map[string]string{
	"AD":    "source-ad",
	"MFA":   "source-mfa",
	"Кадры": "source-people",
}

func isInactive(row table.Row) bool {
	for _, key := range []string{"enabled", "uz_active"} {
		switch row.Get(key) {
		case "Нет", "false":
			return true
		}
	}
	return false
}

func inactiveClasses(rows []table.Row) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		if isInactive(row) {
			out[i] = "uz-inactive"
		}
	}
	return out
}

func consolidatedClasses(_, rows []table.Row) []string {
	out := inactiveClasses(rows)
	for i, row := range rows {
		if cls := sourceClasses[row.Get("source")]; cls != "" {
			out[i] = strings.TrimSpace(cls + " " + out[i])
		}
	}
	return out
}

// duplicateClasses shades alternate login groups and separates them. The
// group count continues from the rows rendered before.
func duplicateClasses(before, rows []table.Row) []string {
	out := inactiveClasses(rows)
	prev := ""
	group := 0
	for i, row := range before {
		login := strings.ToLower(row.Get("login"))
		if i == 0 || login != prev {
			prev = login
			group++
		}
	}
	for i, row := range rows {
		login := strings.ToLower(row.Get("login"))
		classes := []string{}
		if group == 0 || login != prev {
			prev = login
			group++
			if i > 0 || len(before) > 0 {
				classes = append(classes, "dup-group-sep")
			}
		}
		if group%2 == 0 {
			classes = append(classes, "dup-group-alt")
		}
		if out[i] != "" {
			classes = append(classes, out[i])
		}
		out[i] = strings.Join(classes, " ")
	}
	return out
}

var staticViews = map[string]viewDef{
	viewConsolidated: {
		Name:    viewConsolidated,
		Columns: fixedColumns("consolidated"),
		Load: func(ctx context.Context, c *backend.Client, _ *session.Session) ([]map[string]string, error) {
			set, err := c.Consolidated(ctx)
			if err != nil {
				return nil, err
			}
			return backend.Records(set.Rows), nil
		},
		Export: func(*session.Session) (string, string) {
			return export.ConsolidatedFile, export.ConsolidatedSheet
		},
		Empty:      "Нет данных. Загрузите файлы на странице «Загрузка».",
		RowClasses: consolidatedClasses,
	},
	viewDuplicates: {
		Name:    viewDuplicates,
		Columns: fixedColumns("duplicates"),
		Load: func(ctx context.Context, c *backend.Client, sess *session.Session) ([]map[string]string, error) {
			d, err := c.Duplicates(ctx)
			if err != nil {
				return nil, err
			}
			sess.SetCached(cacheDuplicates, d)
			return backend.Records(d.Rows), nil
		},
		Export: func(*session.Session) (string, string) {
			return export.DuplicatesFile, export.DuplicatesSheet
		},
		Empty:      "Дублей логинов между доменами AD не найдено",
		Sort:       table.Sort{Key: "login"},
		RowClasses: duplicateClasses,
	},
}

func membersView(p treePage) viewDef {
	return viewDef{
		Name:    p.MembersView(),
		Columns: fixedColumns(p.Columns),
		Load: func(ctx context.Context, c *backend.Client, sess *session.Session) ([]map[string]string, error) {
			sel, ok := selectedParams(sess, p)
			if !ok {
				return nil, nil
			}
			m, err := p.LoadMembers(ctx, c, sel)
			if err != nil {
				return nil, err
			}
			sess.SetCached(membersCacheKey(p, sel), m)
			return backend.Records(m.Members), nil
		},
		Export: func(sess *session.Session) (string, string) {
			sel, _ := selectedParams(sess, p)
			return p.ExportName(sel)
		},
		Empty: "Нет участников",
	}
}

// membersCacheKey names the members document of one selected node, so a
// late load for another node cannot change what the panel shows.
func membersCacheKey(p treePage, sel url.Values) string {
	return p.Key + ":members:" + sel.Encode()
}

func selectedParams(sess *session.Session, p treePage) (url.Values, bool) {
	key := sess.Tree(p.Key).Selected
	if key == "" {
		return url.Values{}, false
	}
	sel, err := url.ParseQuery(key)
	if err != nil {
		return url.Values{}, false
	}
	return sel, true
}

func cachedReport(sess *session.Session) (*backend.SecurityReport, bool) {
	v, ok := sess.Cached(cacheSecurity)
	if !ok {
		return nil, false
	}
	rep, ok := v.(*backend.SecurityReport)
	return rep, ok && rep != nil
}

// securityReport returns the session's findings report, fetching it when
// missing or when reload is set.
func securityReport(ctx context.Context, c *backend.Client, sess *session.Session, reload bool) (*backend.SecurityReport, error) {
	if rep, ok := cachedReport(sess); ok && !reload {
		return rep, nil
	}
	rep, err := c.SecurityFindings(ctx)
	if err != nil {
		return nil, err
	}
	sess.SetCached(cacheSecurity, rep)
	return rep, nil
}

func findingByID(rep *backend.SecurityReport, id string) (backend.Finding, bool) {
	if rep == nil {
		return backend.Finding{}, false
	}
	for _, f := range rep.Findings {
		if f.ID == id {
			return f, true
		}
	}
	return backend.Finding{}, false
}

func findingColumns(f backend.Finding) table.Columns {
	return export.FindingColumns(f)
}

func securityView(id string) viewDef {
	return viewDef{
		Name: securityPrefix + id,
		Columns: func(sess *session.Session) table.Columns {
			rep, _ := cachedReport(sess)
			f, _ := findingByID(rep, id)
			return findingColumns(f)
		},
		Prepare: func(ctx context.Context, c *backend.Client, sess *session.Session) error {
			_, err := securityReport(ctx, c, sess, false)
			return err
		},
		Load: func(ctx context.Context, c *backend.Client, sess *session.Session) ([]map[string]string, error) {
			rep, err := securityReport(ctx, c, sess, false)
			if err != nil {
				return nil, err
			}
			f, ok := findingByID(rep, id)
			if !ok {
				return nil, domain.ErrNotFound("проверка %q не найдена", id)
			}
			return backend.Records(f.Items), nil
		},
		Export: func(*session.Session) (string, string) {
			return export.SecurityNames(id)
		},
		Empty: "Замечаний нет",
	}
}

// lookupView resolves a view name from a URL.
func lookupView(name string) (viewDef, bool) {
	if def, ok := staticViews[name]; ok {
		return def, true
	}
	if id, ok := strings.CutPrefix(name, securityPrefix); ok && id != "" {
		return securityView(id), true
	}
	for _, p := range treePages {
		if p.MembersView() == name {
			return membersView(p), true
		}
	}
	return viewDef{}, false
}

// view returns the session's view for def, creating it on first use. A
// view whose column model no longer matches def is replaced.
func (h *Handler) view(r *http.Request, sess *session.Session, def viewDef) (*table.View, error) {
	if def.Prepare != nil {
		if err := def.Prepare(r.Context(), h.client(r), sess); err != nil {
			return nil, err
		}
	}
	cols := def.Columns(sess)
	create := func() *table.View {
		v := table.NewView(cols, h.ChunkSize)
		v.SetSort(def.Sort)
		return v
	}
	v := sess.View(def.Name, create)
	if !sameColumns(v.Columns(), cols) {
		v = create()
		sess.ReplaceView(def.Name, v)
	}
	return v, nil
}

func sameColumns(a, b table.Columns) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key != b[i].Key || a[i].Label != b[i].Label {
			return false
		}
	}
	return true
}

// ensureLoaded fetches the view's rows unless they are already loaded.
// A load started later wins over this one.
func (h *Handler) ensureLoaded(ctx context.Context, r *http.Request, sess *session.Session, def viewDef, v *table.View, force bool) error {
	if v.Loaded() && !force {
		return nil
	}
	gen := v.Begin()
	records, err := def.Load(ctx, h.client(r), sess)
	if err != nil {
		v.Fail(gen, err)
		return err
	}
	if !v.Load(gen, records) {
		h.log(ctx).Debug("stale view load discarded", "view", def.Name, "generation", gen)
	}
	return nil
}
