// Package tree holds the static directory of API components and endpoints
// and turns it into the rows the tree panel draws.
package tree

import (
	"strings"
)

// Node is either a *Directory or an *Endpoint.
type Node interface {
	Name() string
	Path() string
	node()
}

type Directory struct {
	name     string
	path     string
	children []Node
}

type Endpoint struct {
	name string
	path string
}

func Dir(name, path string, children ...Node) *Directory {
	return &Directory{name: name, path: path, children: children}
}

func Leaf(name, path string) *Endpoint {
	return &Endpoint{name: name, path: path}
}

func (d *Directory) Name() string { return d.name }
func (d *Directory) Path() string { return d.path }
func (d *Directory) node()        {}

// Children returns a copy so callers can't reorder the catalog.
func (d *Directory) Children() []Node {
	return append([]Node(nil), d.children...)
}

func (e *Endpoint) Name() string { return e.name }
func (e *Endpoint) Path() string { return e.path }
func (e *Endpoint) node()        {}

// Indent is the number of columns added per nesting level.
const Indent = 2

const (
	GlyphOpen   = "▾"
	GlyphClosed = "▸"
	GlyphFolder = "📁"
	GlyphFile   = "📄"
)

type Row struct {
	Key      string
	Name     string
	Path     string
	Depth    int
	Dir      bool
	Expanded bool
}

// Selected compares request paths, not keys: two nodes that share a request
// path highlight together.
func (r Row) Selected(selectedPath string) bool {
	return selectedPath != "" && r.Path == selectedPath
}

// Label renders the row without color: indentation, chevron cell, glyph, name.
func (r Row) Label() string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", r.Depth*Indent))
	switch {
	case r.Dir && r.Expanded:
		sb.WriteString(GlyphOpen + " " + GlyphFolder)
	case r.Dir:
		sb.WriteString(GlyphClosed + " " + GlyphFolder)
	default:
		sb.WriteString("  " + GlyphFile)
	}
	sb.WriteString(" ")
	sb.WriteString(r.Name)
	return sb.String()
}

// ChevronAt reports whether column col (0-based, relative to the row start)
// lands on the disclosure chevron. Endpoints have none.
func (r Row) ChevronAt(col int) bool {
	if !r.Dir {
		return false
	}
	start := r.Depth * Indent
	return col >= start && col <= start+1
}

// Key joins a parent key and a child name, collapsing repeated slashes.
func Key(parent, name string) string {
	if parent == "" {
		return name
	}
	k := parent + "/" + name
	for strings.Contains(k, "//") {
		k = strings.ReplaceAll(k, "//", "/")
	}
	return k
}

// Ancestors returns the keys of every ancestor of key, outermost first.
func Ancestors(key string) []string {
	parts := strings.Split(key, "/")
	out := make([]string, 0, len(parts)-1)
	for i := 1; i < len(parts); i++ {
		out = append(out, strings.Join(parts[:i], "/"))
	}
	return out
}

// Rows lists the visible nodes depth-first in declaration order. Top-level
// nodes are always visible; children only when their parent key is expanded.
func Rows(nodes []Node, expanded map[string]bool) []Row {
	var out []Row
	walk(nodes, "", 0, func(n Node, key string, depth int) bool {
		row := Row{Key: key, Name: n.Name(), Path: n.Path(), Depth: depth}
		switch n.(type) {
		case *Directory:
			row.Dir = true
			row.Expanded = expanded[key]
		case *Endpoint:
		}
		out = append(out, row)
		return row.Expanded
	})
	return out
}

// All lists every node as if every directory were expanded.
func All(nodes []Node) []Row {
	var out []Row
	walk(nodes, "", 0, func(n Node, key string, depth int) bool {
		_, dir := n.(*Directory)
		out = append(out, Row{Key: key, Name: n.Name(), Path: n.Path(), Depth: depth, Dir: dir, Expanded: dir})
		return true
	})
	return out
}

// walk visits nodes depth-first; visit returns whether to descend.
func walk(nodes []Node, parent string, depth int, visit func(n Node, key string, depth int) bool) {
	for _, n := range nodes {
		key := Key(parent, n.Name())
		descend := visit(n, key, depth)
		switch v := n.(type) {
		case *Directory:
			if descend {
				walk(v.Children(), key, depth+1, visit)
			}
		case *Endpoint:
		}
	}
}
