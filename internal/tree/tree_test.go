package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ou struct {
	path     string
	name     string
	count    int
	active   int
	children []ou
}

var ouAccessor = Accessor[ou]{
	Key:      func(n ou) string { return n.path },
	Name:     func(n ou) string { return n.name },
	Children: func(n ou) []ou { return n.children },
	Count: func(n ou, activeOnly bool) int {
		if activeOnly {
			return n.active
		}
		return n.count
	},
	Total: func(n ou, activeOnly bool) (int, bool) {
		t := n.count
		for _, c := range n.children {
			t += subtotal(c)
		}
		return t, true
	},
}

func subtotal(n ou) int {
	t := n.count
	for _, c := range n.children {
		t += subtotal(c)
	}
	return t
}

func sampleForest() []ou {
	return []ou{
		{path: "Москва", name: "Москва", children: []ou{
			{path: "Москва/ИТ", name: "ИТ", count: 3, active: 1, children: []ou{
				{path: "Москва/ИТ/Сеть", name: "Сеть", count: 2, active: 0},
				{path: "Москва/ИТ/Сервис", name: "Сервисдеск", count: 4, active: 4},
			}},
			{path: "Москва/Бухгалтерия", name: "Бухгалтерия", count: 5, active: 2},
		}},
		{path: "Ижевск", name: "Ижевск", count: 1, active: 0, children: []ou{
			{path: "Ижевск/Склад", name: "Склад", count: 2, active: 0},
		}},
	}
}

func keys(f *Forest[ou]) []string {
	var out []string
	f.Walk(func(n *Node[ou], _ int) bool {
		out = append(out, n.Key)
		return true
	})
	return out
}

func TestBuild_NoFilterKeepsEverythingCollapsed(t *testing.T) {
	f := Build(sampleForest(), ouAccessor, Options{})

	assert.Equal(t, 7, f.Len())
	f.Walk(func(n *Node[ou], _ int) bool {
		assert.False(t, n.Expanded, n.Key)
		return true
	})
	root, ok := f.Find("Москва")
	require.True(t, ok)
	assert.Equal(t, 14, root.Total)
}

func TestBuild_DeepLeafMatchKeepsAncestors(t *testing.T) {
	f := Build(sampleForest(), ouAccessor, Options{Filter: "сервисДЕСК"})

	assert.Equal(t, []string{"Москва", "Москва/ИТ", "Москва/ИТ/Сервис"}, keys(f))
	for _, key := range []string{"Москва", "Москва/ИТ"} {
		n, ok := f.Find(key)
		require.True(t, ok)
		assert.True(t, n.Expanded, key)
		assert.False(t, n.Matched, key)
	}
	leaf, _ := f.Find("Москва/ИТ/Сервис")
	assert.True(t, leaf.Matched)
}

func TestBuild_MatchingParentFiltersChildren(t *testing.T) {
	f := Build(sampleForest(), ouAccessor, Options{Filter: "ит"})

	// "ИТ" matches but neither of its children does.
	assert.Equal(t, []string{"Москва", "Москва/ИТ"}, keys(f))
}

func TestBuild_NoMatch(t *testing.T) {
	f := Build(sampleForest(), ouAccessor, Options{Filter: "zzz"})
	assert.True(t, f.Empty())
	assert.Zero(t, f.Len())
}

func TestBuild_SelectionSurvivesRebuild(t *testing.T) {
	opts := Options{Selected: "Москва/ИТ/Сеть"}
	f := Build(sampleForest(), ouAccessor, opts)

	n, ok := f.Find("Москва/ИТ/Сеть")
	require.True(t, ok)
	assert.True(t, n.Selected)
	parent, _ := f.Find("Москва/ИТ")
	assert.True(t, parent.Expanded)
	other, _ := f.Find("Ижевск")
	assert.False(t, other.Expanded)

	opts.Filter = "се"
	f = Build(sampleForest(), ouAccessor, opts)
	n, ok = f.Find("Москва/ИТ/Сеть")
	require.True(t, ok)
	assert.True(t, n.Selected)
}

func TestBuild_ActiveOnlyRecomputesAndPrunes(t *testing.T) {
	f := Build(sampleForest(), ouAccessor, Options{ActiveOnly: true})

	assert.Equal(t, []string{"Москва", "Москва/ИТ", "Москва/ИТ/Сервис", "Москва/Бухгалтерия"}, keys(f))
	root, _ := f.Find("Москва")
	assert.Equal(t, 7, root.Total)
	it, _ := f.Find("Москва/ИТ")
	assert.Equal(t, 1, it.Count)
	assert.Equal(t, 5, it.Total)
}

func TestBuild_FlatWithoutTotals(t *testing.T) {
	type group struct {
		name   string
		count  int
		active int
	}
	acc := Accessor[group]{
		Key:  func(g group) string { return g.name },
		Name: func(g group) string { return g.name },
		Count: func(g group, activeOnly bool) int {
			if activeOnly {
				return g.active
			}
			return g.count
		},
		Selectable: func(g group) bool { return g.count > 0 },
	}
	groups := []group{{"VPN Users", 10, 3}, {"Old", 2, 0}, {"Empty", 0, 0}}

	f := Build(groups, acc, Options{ActiveOnly: true})
	require.Len(t, f.Roots, 1)
	assert.Equal(t, 3, f.Roots[0].Count)

	f = Build(groups, acc, Options{})
	require.Len(t, f.Roots, 3)
	assert.False(t, f.Roots[2].Selectable)
	assert.False(t, f.Roots[0].HasTotal)
}

func TestForest_WalkDepthAndStop(t *testing.T) {
	f := Build(sampleForest(), ouAccessor, Options{})

	depths := map[string]int{}
	f.Walk(func(n *Node[ou], depth int) bool {
		depths[n.Key] = depth
		return n.Key != "Москва/ИТ/Сеть"
	})
	assert.Equal(t, 2, depths["Москва/ИТ/Сеть"])
	assert.NotContains(t, depths, "Ижевск")
}
