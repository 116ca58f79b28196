package ui

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idrecon/internal/backend"
	"idrecon/internal/tree"
)

func intp(n int) *backend.LooseInt {
	v := backend.LooseInt(n)
	return &v
}

func TestNodeKey_SkipsEmptyValues(t *testing.T) {
	assert.Equal(t, "domain=ad%2Fmoscow&group=Admins", nodeKey("domain", "ad/moscow", "group", "Admins"))
	assert.Equal(t, "company=ACME", nodeKey("company", "ACME", "department", ""))
}

func TestTreePage_Selection(t *testing.T) {
	groups := treePages["groups"]
	assert.Empty(t, groups.Selection(url.Values{"domain": {"ad/moscow"}}), "a domain alone is not a group")
	assert.Equal(t, nodeKey("domain", "ad/moscow", "group", "VPN"),
		groups.Selection(url.Values{"domain": {"ad/moscow"}, "group": {" VPN "}}))

	org := treePages["org"]
	assert.Equal(t, nodeKey("company", "ACME"), org.Selection(url.Values{"company": {"ACME"}}))
}

func TestGroupNodes_SelectionMatchesDeepLink(t *testing.T) {
	gt := &backend.GroupTree{Domains: []backend.GroupDomain{{
		Key: "ad/moscow", City: "Москва", TotalUsers: 5,
		Groups: []backend.GroupNode{{Name: "VPN", Count: 3, ActiveCount: intp(1)}, {Name: "Admins", Count: 2, ActiveCount: intp(0)}},
	}}}
	nodes := groupNodes(gt)
	require.Len(t, nodes, 1)
	assert.Equal(t, "Москва (ad/moscow)", nodes[0].Name)
	assert.False(t, nodes[0].Selectable)

	sel := treePages["groups"].Selection(url.Values{"domain": {"ad/moscow"}, "group": {"VPN"}})
	f := tree.Build(nodes, navAccessor, tree.Options{Selected: sel})
	n, ok := f.Find(sel)
	require.True(t, ok)
	assert.True(t, n.Selected)
	assert.True(t, f.Roots[0].Expanded)

	active := tree.Build(nodes, navAccessor, tree.Options{ActiveOnly: true})
	require.Len(t, active.Roots, 1)
	require.Len(t, active.Roots[0].Children, 1)
	assert.Equal(t, "VPN", active.Roots[0].Children[0].Name)
	assert.Equal(t, 1, active.Roots[0].Total)
}

func TestOrgNodes_BlankNamesNotSelectable(t *testing.T) {
	ot := &backend.OrgTree{Companies: []backend.Company{
		{Name: "", Count: 2, Departments: []backend.Department{{Name: "IT", Count: 2}}},
		{Name: "ACME", Count: 1, Departments: []backend.Department{{Name: "", Count: 1}}},
	}}
	nodes := orgNodes(ot)
	require.Len(t, nodes, 2)
	assert.Equal(t, "Без компании", nodes[0].Name)
	assert.False(t, nodes[0].Selectable)
	assert.False(t, nodes[0].Children[0].Selectable)
	assert.True(t, nodes[1].Selectable)
	assert.Equal(t, "Без отдела", nodes[1].Children[0].Name)
	assert.False(t, nodes[1].Children[0].Selectable)
}

func TestStructureNodes_PathKeys(t *testing.T) {
	st := &backend.StructureTree{Domains: []backend.StructureDomain{{
		Key: "ad/izhevsk",
		Tree: []backend.OUNode{{Name: "Users", Count: 1, Total: 3, Children: []backend.OUNode{{Name: "IT", Count: 2, Total: 2}}}},
	}}}
	nodes := structureNodes(st)
	it := nodes[0].Children[0].Children[0]
	assert.Equal(t, nodeKey("domain", "ad/izhevsk", "path", "Users/IT"), it.Key)
	assert.Equal(t, "IT", lastSegment("Users/IT"))
}
