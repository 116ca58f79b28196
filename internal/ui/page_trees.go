package ui

import (
	"fmt"
	"net/url"
	"strconv"

	"idrecon/internal/backend"
	"idrecon/internal/session"
	"idrecon/internal/table"
	"idrecon/internal/tree"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"
)

func treePanel(p treePage, st session.TreeState, nodes []navNode, err error) Node {
	treeURL := "/ui/" + p.Key + "/tree"
	return Aside(
		Class(cardClass("tree-panel")),
		data.Signals(map[string]any{"filter": st.Filter, "active": st.ActiveOnly}),
		Div(
			Class("tree-toolbar"),
			Input(
				Type("search"),
				Class("input"),
				Placeholder(p.Placeholder),
				data.Bind("filter"),
				Attr("data-on:input__debounce.250ms", getAction(treeURL)),
			),
			Label(
				Class("checkbox"),
				Input(Type("checkbox"), data.Bind("active"), Attr("data-on:change", getAction(treeURL))),
				Span(Text("Только активные")),
			),
		),
		treeView(p, st, nodes, err),
	)
}

func treeView(p treePage, st session.TreeState, nodes []navNode, err error) Node {
	id := "tree-" + p.Key
	if err != nil {
		return Div(ID(id), Class("tree"), emptyState(errorText(err)))
	}
	forest := tree.Build(nodes, navAccessor, tree.Options{Filter: st.Filter, ActiveOnly: st.ActiveOnly, Selected: st.Selected})
	if forest.Empty() {
		msg := p.EmptyTree
		if len(nodes) > 0 {
			msg = "Ничего не найдено"
		}
		return Div(ID(id), Class("tree"), emptyState(msg))
	}
	return Div(
		ID(id),
		Class("tree"),
		Ul(Class("tree-list"), Group(treeItems(p, forest.Roots, 0))),
		P(Class(mutedClass()), Text(fmt.Sprintf("Узлов: %d", forest.Len()))),
	)
}

func treeItems(p treePage, nodes []*tree.Node[navNode], depth int) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		label := treeLabel(p, n)
		if len(n.Children) == 0 {
			out = append(out, Li(Div(Class("tree-leaf"), label)))
			continue
		}
		out = append(out, Li(Details(
			If(n.Expanded || depth == 0, Attr("open", "")),
			Summary(label),
			Ul(Class("tree-list"), Group(treeItems(p, n.Children, depth+1))),
		)))
	}
	return out
}

func treeLabel(p treePage, n *tree.Node[navNode]) Node {
	count := n.Count
	if n.HasTotal {
		count = n.Total
	}
	badge := Span(Class("tree-count"), Text(strconv.Itoa(count)))
	if !n.Selectable {
		return Span(Class("tree-node"), Text(n.Name), badge)
	}
	className := "tree-node tree-link"
	if n.Selected {
		className += " selected"
	}
	return A(
		Href("#"),
		Class(className),
		onClickPrevent(getAction("/ui/"+p.Key+"/members?key="+url.QueryEscape(n.Key))),
		Text(n.Name),
		badge,
	)
}

func membersPanel(p treePage, sess *session.Session, def viewDef, v *table.View) Node {
	id := "members-" + p.Key
	sel, ok := selectedParams(sess, p)
	if !ok {
		return Section(ID(id), Class("members-panel"), emptyState("Выберите узел слева, чтобы увидеть участников"))
	}
	info := ""
	if cached, ok := sess.Cached(membersCacheKey(p, sel)); ok {
		if m, ok := cached.(*backend.Members); ok && m != nil {
			info = p.Info(m)
		}
	}
	return Section(
		ID(id),
		Class("members-panel"),
		pageHeader(p.Heading(sel), info),
		tableSection(def, v),
	)
}
