// Package tree builds the filtered, expandable navigation trees of the
// groups, structure and org pages from a nested source structure.
package tree

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Accessor adapts a concrete node type to the tree builder.
type Accessor[T any] struct {
	// Key identifies a node across rebuilds. Selection is matched by key.
	Key func(T) string
	// Name is the label the text filter is matched against.
	Name     func(T) string
	Children func(T) []T
	// Count is the node's own count, raw or active-only.
	Count func(T, bool) int
	// Total is the count including descendants, when the source provides one.
	// It may be nil.
	Total func(T, bool) (int, bool)
	// Selectable reports whether clicking the node loads members. Nil means
	// every node is selectable.
	Selectable func(T) bool
}

// Options controls one build.
type Options struct {
	Filter     string
	ActiveOnly bool
	Selected   string
}

// Node is one surviving node of a built tree.
type Node[T any] struct {
	Item       T
	Key        string
	Name       string
	Count      int
	Total      int
	HasTotal   bool
	Matched    bool
	Expanded   bool
	Selected   bool
	Selectable bool
	Children   []*Node[T]

	selectedBelow bool
}

// Forest is the result of Build.
type Forest[T any] struct {
	Roots []*Node[T]
}

// Build filters roots and computes expansion and selection state.
//
// A node survives when its name contains the filter (case-insensitive) or
// one of its descendants survives. Ancestors of surviving matches and of the
// selected node are expanded. With ActiveOnly, counts come from the
// accessor's active-only figures, totals are summed again from the children,
// and nodes with nothing active are removed.
func Build[T any](roots []T, acc Accessor[T], opts Options) *Forest[T] {
	b := &builder[T]{acc: acc, opts: opts, q: fold(strings.TrimSpace(opts.Filter))}
	f := &Forest[T]{}
	for _, r := range roots {
		if n := b.node(r); n != nil {
			f.Roots = append(f.Roots, n)
		}
	}
	return f
}

type builder[T any] struct {
	acc  Accessor[T]
	opts Options
	q    string
}

func (b *builder[T]) node(item T) *Node[T] {
	n := &Node[T]{
		Item:       item,
		Key:        b.acc.Key(item),
		Name:       b.acc.Name(item),
		Count:      b.count(item),
		Selectable: b.acc.Selectable == nil || b.acc.Selectable(item),
	}
	n.Total, n.HasTotal = b.total(item)
	if b.opts.ActiveOnly && weight(n) == 0 {
		return nil
	}
	n.Matched = b.q == "" || strings.Contains(fold(n.Name), b.q)
	n.Selected = b.opts.Selected != "" && n.Key == b.opts.Selected

	for _, c := range b.children(item) {
		child := b.node(c)
		if child == nil {
			continue
		}
		n.Children = append(n.Children, child)
		if child.Selected || child.selectedBelow {
			n.selectedBelow = true
		}
	}
	if !n.Matched && len(n.Children) == 0 {
		return nil
	}
	n.Expanded = len(n.Children) > 0 && (b.q != "" || n.selectedBelow)
	return n
}

func (b *builder[T]) children(item T) []T {
	if b.acc.Children == nil {
		return nil
	}
	return b.acc.Children(item)
}

func (b *builder[T]) count(item T) int {
	if b.acc.Count == nil {
		return 0
	}
	return b.acc.Count(item, b.opts.ActiveOnly)
}

func (b *builder[T]) total(item T) (int, bool) {
	if b.acc.Total == nil {
		return 0, false
	}
	t, ok := b.acc.Total(item, b.opts.ActiveOnly)
	if !ok || !b.opts.ActiveOnly {
		return t, ok
	}
	sum := b.count(item)
	for _, c := range b.children(item) {
		if ct, ok := b.total(c); ok {
			sum += ct
		} else {
			sum += b.count(c)
		}
	}
	return sum, true
}

func weight[T any](n *Node[T]) int {
	if n.HasTotal {
		return n.Total
	}
	return n.Count
}

func fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// Len returns the number of surviving nodes.
func (f *Forest[T]) Len() int {
	total := 0
	f.Walk(func(*Node[T], int) bool {
		total++
		return true
	})
	return total
}

// Empty reports whether nothing survived the build.
func (f *Forest[T]) Empty() bool {
	return f == nil || len(f.Roots) == 0
}

// Find returns the surviving node with key.
func (f *Forest[T]) Find(key string) (*Node[T], bool) {
	var found *Node[T]
	f.Walk(func(n *Node[T], _ int) bool {
		if n.Key == key {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

// Walk visits nodes depth-first in display order. fn receives the depth of
// each node and stops the walk by returning false.
func (f *Forest[T]) Walk(fn func(n *Node[T], depth int) bool) {
	if f == nil {
		return
	}
	var visit func(nodes []*Node[T], depth int) bool
	visit = func(nodes []*Node[T], depth int) bool {
		for _, n := range nodes {
			if !fn(n, depth) {
				return false
			}
			if !visit(n.Children, depth+1) {
				return false
			}
		}
		return true
	}
	visit(f.Roots, 0)
}
