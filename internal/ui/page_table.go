package ui

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	"idrecon/internal/table"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// maxFilterOptions caps the entries of one column filter select. The
// selected value is always offered.
const maxFilterOptions = 1000

var unsafeID = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// domID turns a view name into an element id fragment.
func domID(name string) string {
	return unsafeID.ReplaceAllString(name, "_")
}

func viewURL(name, action string) string {
	return "/ui/views/" + url.PathEscape(name) + "/" + action
}

func viewQueryURL(name string, params ...string) string {
	q := url.Values{}
	for i := 0; i+1 < len(params); i += 2 {
		q.Set(params[i], params[i+1])
	}
	return viewURL(name, "table") + "?" + q.Encode()
}

// tableSection renders a complete table view: toolbar, export notice slot
// and the grid with the rows handed out so far.
func tableSection(def viewDef, v *table.View, extra ...Node) Node {
	id := domID(def.Name)
	return Div(
		Class(cardClass("table-view")),
		ID("view-"+id),
		Div(
			Class("table-toolbar"),
			tableSearch(def.Name, v.Snapshot().Filters.Global),
			Button(Type("button"), Class("btn btn-sm"), onClick(getAction(viewQueryURL(def.Name, "reset", "1"))), Text("Сбросить фильтры")),
			Button(Type("button"), Class("btn btn-sm btn-primary"), onClick(getAction(viewURL(def.Name, "export"))), Text("Экспорт XLSX")),
			Group(extra),
		),
		exportNotice(def.Name, nil),
		tableGrid(def, v),
	)
}

func tableSearch(name, value string) Node {
	return Input(
		Type("search"),
		ID("view-"+domID(name)+"-q"),
		Class("input table-search"),
		Placeholder("Поиск по всем столбцам…"),
		Value(value),
		Attr("data-on:input__debounce.300ms", "@get('"+jsString(viewURL(name, "table"))+"?q=' + encodeURIComponent(el.value))"),
	)
}

func exportNotice(name string, content Node) Node {
	return Div(ID("view-"+domID(name)+"-notice"), Class("export-notice"), content)
}

// tableGrid renders the header, the filter row, the rendered rows, the
// lazy-load sentinel and the footer.
func tableGrid(def viewDef, v *table.View) Node {
	st := v.Snapshot()
	rows := v.Rendered()
	id := domID(def.Name)

	headers := make([]Node, 0, len(st.Columns))
	filters := make([]Node, 0, len(st.Columns))
	for _, col := range st.Columns {
		label := col.Label
		if ind := st.Sort.Indicator(col.Key); ind != "" {
			label += " " + ind
		}
		headers = append(headers, Th(Button(
			Type("button"),
			Class("sort-btn"),
			Title("Сортировать"),
			onClick(getAction(viewQueryURL(def.Name, "sort", col.Key))),
			Text(label),
		)))
		filters = append(filters, Th(columnFilter(def.Name, col.Key, st.Filters.Columns[col.Key], st.Options[col.Key])))
	}

	return Div(
		ID("view-"+id+"-grid"),
		Class("table-wrap"),
		Table(
			Class("data-table"),
			THead(Tr(Group(headers)), Tr(Class("filter-row"), Group(filters))),
			TBody(ID(rowsID(def.Name)), tableBody(def, st, rows)),
		),
		moreSentinel(def.Name, len(rows), v.HasMore()),
		tableFooter(def.Name, st.Footer),
	)
}

func rowsID(name string) string { return "view-" + domID(name) + "-rows" }

func tableFooter(name string, f table.Footer) Node {
	return P(ID("view-"+domID(name)+"-footer"), Class("table-footer "+mutedClass()), Text(f.String()))
}

func columnFilter(name, key, selected string, options []string) Node {
	opts := make([]Node, 0, min(len(options), maxFilterOptions)+2)
	opts = append(opts, Option(Value(""), Text("Все")))
	seen := false
	for i, o := range options {
		if i >= maxFilterOptions {
			break
		}
		if o == selected {
			seen = true
		}
		opts = append(opts, Option(Value(o), If(o == selected, Selected()), Text(o)))
	}
	if selected != "" && !seen {
		opts = append(opts, Option(Value(selected), Selected(), Text(selected)))
	}
	return Select(
		Class("input input-sm"),
		Attr("aria-label", "Фильтр"),
		Attr("data-on:change", "@get('"+jsString(viewQueryURL(name, "col", key))+"&value=' + encodeURIComponent(el.value))"),
		Group(opts),
	)
}

func tableBody(def viewDef, st table.State, rows []table.Row) Node {
	span := strconv.Itoa(max(len(st.Columns), 1))
	message := func(text string) Node {
		return Tr(Td(ColSpan(span), Class("muted-text"), Text(text)))
	}
	switch {
	case st.Err != nil:
		return message(errorText(st.Err))
	case !st.Loaded:
		return message("Загрузка…")
	case st.Footer.Total == 0:
		if def.Empty != "" {
			return message(def.Empty)
		}
		return message("Нет данных")
	case len(rows) == 0:
		return message("Ничего не найдено")
	}

	return Group(tableRows(def, st.Columns, nil, rows))
}

// tableRows renders rows as table rows. before holds the rows already
// rendered above them, for classes that depend on their neighbours.
func tableRows(def viewDef, cols table.Columns, before, rows []table.Row) []Node {
	var classes []string
	if def.RowClasses != nil {
		classes = def.RowClasses(before, rows)
	} else {
		classes = inactiveClasses(rows)
	}
	out := make([]Node, 0, len(rows))
	for i, row := range rows {
		cells := make([]Node, 0, len(cols))
		for _, col := range cols {
			cells = append(cells, Td(cellContent(col, row)))
		}
		out = append(out, Tr(If(classes[i] != "", Class(classes[i])), Group(cells)))
	}
	return out
}

// cellContent links the primary column to the user card when the row
// carries an identity key.
func cellContent(col table.Column, row table.Row) Node {
	value := row.Get(col.Key)
	key := row.Get("key")
	if !col.Primary || key == "" || value == "" {
		return Text(value)
	}
	return A(
		Href("#"),
		Class("card-link"),
		onClickPrevent(getAction(userCardURL(key, cardPopup))),
		Text(value),
	)
}

// moreSentinel is the slot that loads the next chunk when it scrolls into
// view. The inner id changes with every chunk so each one is observed anew.
func moreSentinel(name string, rendered int, hasMore bool) Node {
	slot := Div(ID("view-" + domID(name) + "-more"))
	if !hasMore {
		return slot
	}
	more := getAction(viewURL(name, "more"))
	return Div(
		ID("view-"+domID(name)+"-more"),
		Div(
			ID(fmt.Sprintf("view-%s-more-%d", domID(name), rendered)),
			Class("table-more"),
			Attr("data-on-intersect__once", more),
			Button(Type("button"), Class("btn btn-sm"), onClick(more), Text("Показать ещё")),
		),
	)
}

// exportFrame starts a download without leaving the page. nonce makes
// every click a new frame source.
func exportFrame(name string, nonce int64) Node {
	return IFrame(
		Class("download-frame"),
		Attr("hidden", ""),
		Src(viewURL(name, "export.xlsx")+"?n="+strconv.FormatInt(nonce, 36)),
	)
}
