package ui

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"idrecon/internal/backend"
	"idrecon/internal/export"
	"idrecon/internal/tree"
)

// navNode is the common shape the three navigation trees are converted to.
// Key is the url-encoded members query of the node, so selection survives
// rebuilds and doubles as the members request.
type navNode struct {
	Key         string
	Name        string
	Count       int
	ActiveCount *int
	Total       int
	HasTotal    bool
	Selectable  bool
	Children    []navNode
}

var navAccessor = tree.Accessor[navNode]{
	Key:      func(n navNode) string { return n.Key },
	Name:     func(n navNode) string { return n.Name },
	Children: func(n navNode) []navNode { return n.Children },
	Count: func(n navNode, activeOnly bool) int {
		if activeOnly && n.ActiveCount != nil {
			return *n.ActiveCount
		}
		return n.Count
	},
	Total: func(n navNode, _ bool) (int, bool) {
		return n.Total, n.HasTotal
	},
	Selectable: func(n navNode) bool { return n.Selectable },
}

func nodeKey(pairs ...string) string {
	q := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			q.Set(pairs[i], pairs[i+1])
		}
	}
	return q.Encode()
}

func activeCount(n *backend.LooseInt) *int {
	if n == nil {
		return nil
	}
	v := int(*n)
	return &v
}

func domainLabel(key, city string) string {
	if city == "" {
		return key
	}
	return city + " (" + key + ")"
}

func groupNodes(t *backend.GroupTree) []navNode {
	out := make([]navNode, 0, len(t.Domains))
	for _, d := range t.Domains {
		dn := navNode{
			Key:      nodeKey("domain", d.Key),
			Name:     domainLabel(d.Key, d.City),
			Total:    int(d.TotalUsers),
			HasTotal: true,
		}
		for _, g := range d.Groups {
			dn.Children = append(dn.Children, navNode{
				Key:         nodeKey("domain", d.Key, "group", g.Name),
				Name:        g.Name,
				Count:       int(g.Count),
				ActiveCount: activeCount(g.ActiveCount),
				Selectable:  true,
			})
		}
		out = append(out, dn)
	}
	return out
}

func structureNodes(t *backend.StructureTree) []navNode {
	var ous func(domain, parent string, nodes []backend.OUNode) []navNode
	ous = func(domain, parent string, nodes []backend.OUNode) []navNode {
		out := make([]navNode, 0, len(nodes))
		for _, n := range nodes {
			path := n.Name
			if parent != "" {
				path = parent + "/" + n.Name
			}
			out = append(out, navNode{
				Key:         nodeKey("domain", domain, "path", path),
				Name:        n.Name,
				Count:       int(n.Count),
				ActiveCount: activeCount(n.ActiveCount),
				Total:       int(n.Total),
				HasTotal:    true,
				Selectable:  true,
				Children:    ous(domain, path, n.Children),
			})
		}
		return out
	}

	out := make([]navNode, 0, len(t.Domains))
	for _, d := range t.Domains {
		out = append(out, navNode{
			Key:      nodeKey("domain", d.Key),
			Name:     domainLabel(d.Key, d.City),
			Total:    int(d.TotalUsers),
			HasTotal: true,
			Children: ous(d.Key, "", d.Tree),
		})
	}
	return out
}

func orgNodes(t *backend.OrgTree) []navNode {
	out := make([]navNode, 0, len(t.Companies))
	for _, c := range t.Companies {
		cn := navNode{
			Key:        nodeKey("company", c.Name),
			Name:       firstNonBlank(c.Name, "Без компании"),
			Total:      int(c.Count),
			HasTotal:   true,
			Selectable: c.Name != "",
		}
		for _, d := range c.Departments {
			cn.Children = append(cn.Children, navNode{
				Key:         nodeKey("company", c.Name, "department", d.Name),
				Name:        firstNonBlank(d.Name, "Без отдела"),
				Count:       int(d.Count),
				ActiveCount: activeCount(d.ActiveCount),
				Selectable:  c.Name != "" && d.Name != "",
			})
		}
		out = append(out, cn)
	}
	return out
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// treePage describes one tree + members page.
type treePage struct {
	Key         string
	Title       string
	Placeholder string
	EmptyTree   string
	Columns     string
	// SelectionParams are the page query parameters a deep link may carry.
	// Required must be among them and non-empty.
	SelectionParams []string
	Required        string

	LoadTree    func(ctx context.Context, c *backend.Client) ([]navNode, error)
	LoadMembers func(ctx context.Context, c *backend.Client, sel url.Values) (*backend.Members, error)
	Heading     func(sel url.Values) string
	Info        func(m *backend.Members) string
	ExportName  func(sel url.Values) (filename, sheet string)
}

// MembersView is the name of the page's members table view.
func (p treePage) MembersView() string { return p.Key + "-members" }

// Selection returns the node key a deep link points at, or "".
func (p treePage) Selection(q url.Values) string {
	if strings.TrimSpace(q.Get(p.Required)) == "" {
		return ""
	}
	pairs := make([]string, 0, 2*len(p.SelectionParams))
	for _, name := range p.SelectionParams {
		pairs = append(pairs, name, strings.TrimSpace(q.Get(name)))
	}
	return nodeKey(pairs...)
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

var treePages = map[string]treePage{
	"groups": {
		Key:             "groups",
		Title:           "Группы AD",
		Placeholder:     "Поиск группы…",
		EmptyTree:       "Нет данных AD",
		Columns:         "members",
		SelectionParams: []string{"domain", "group"},
		Required:        "group",
		LoadTree: func(ctx context.Context, c *backend.Client) ([]navNode, error) {
			t, err := c.GroupTree(ctx)
			if err != nil {
				return nil, err
			}
			return groupNodes(t), nil
		},
		LoadMembers: func(ctx context.Context, c *backend.Client, sel url.Values) (*backend.Members, error) {
			return c.GroupMembers(ctx, sel.Get("group"), sel.Get("domain"))
		},
		Heading: func(sel url.Values) string { return sel.Get("group") },
		Info: func(m *backend.Members) string {
			return fmt.Sprintf("%d уч. (%s)", m.Count, m.City)
		},
		ExportName: func(sel url.Values) (string, string) {
			name := export.SafeName(sel.Get("group"))
			return "Group_" + name + ".xlsx", name
		},
	},
	"structure": {
		Key:             "structure",
		Title:           "Структура OU",
		Placeholder:     "Поиск OU…",
		EmptyTree:       "Нет данных AD",
		Columns:         "members",
		SelectionParams: []string{"domain", "path"},
		Required:        "path",
		LoadTree: func(ctx context.Context, c *backend.Client) ([]navNode, error) {
			t, err := c.StructureTree(ctx)
			if err != nil {
				return nil, err
			}
			return structureNodes(t), nil
		},
		LoadMembers: func(ctx context.Context, c *backend.Client, sel url.Values) (*backend.Members, error) {
			return c.StructureMembers(ctx, sel.Get("path"), sel.Get("domain"))
		},
		Heading: func(sel url.Values) string {
			return strings.ReplaceAll(sel.Get("path"), "/", " › ")
		},
		Info: func(m *backend.Members) string {
			return fmt.Sprintf("%d уч. (%s)", m.Count, m.City)
		},
		ExportName: func(sel url.Values) (string, string) {
			name := export.SafeName(lastSegment(sel.Get("path")))
			if name == "" {
				name = "ou"
			}
			return "OU_" + name + ".xlsx", name
		},
	},
	"org": {
		Key:             "org",
		Title:           "Оргструктура",
		Placeholder:     "Поиск компании или отдела…",
		EmptyTree:       "Нет данных кадров",
		Columns:         "org_members",
		SelectionParams: []string{"company", "department"},
		Required:        "company",
		LoadTree: func(ctx context.Context, c *backend.Client) ([]navNode, error) {
			t, err := c.OrgTree(ctx)
			if err != nil {
				return nil, err
			}
			return orgNodes(t), nil
		},
		LoadMembers: func(ctx context.Context, c *backend.Client, sel url.Values) (*backend.Members, error) {
			return c.OrgMembers(ctx, sel.Get("company"), sel.Get("department"))
		},
		Heading: func(sel url.Values) string {
			parts := make([]string, 0, 2)
			for _, p := range []string{sel.Get("company"), sel.Get("department")} {
				if p != "" {
					parts = append(parts, p)
				}
			}
			if len(parts) == 0 {
				return "Все"
			}
			return strings.Join(parts, " → ")
		},
		Info: func(m *backend.Members) string {
			return fmt.Sprintf("%d чел.", m.Count)
		},
		ExportName: func(sel url.Values) (string, string) {
			name := export.SafeName(firstNonBlank(sel.Get("department"), sel.Get("company"), "org"))
			return "Org_" + name + ".xlsx", name
		},
	},
}
