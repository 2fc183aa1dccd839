package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/hoister/pkg/hoist"
	"github.com/matzehuels/hoister/pkg/resolve"
)

// RootID names the virtual project node.
const RootID = "."

// Options configures diagram generation.
type Options struct {
	// Detailed adds the package location (graph) or install path (tree)
	// to each label.
	Detailed bool
}

type node struct {
	id, label string
	optional  bool
	ignored   bool
}

func header(buf *bytes.Buffer) {
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")
	fmt.Fprintf(buf, "  %q [label=%q, shape=folder];\n", RootID, RootID)
}

func writeNode(buf *bytes.Buffer, n node) {
	attrs := []string{fmt.Sprintf("label=%q", n.label)}
	switch {
	case n.ignored:
		attrs = append(attrs, "fillcolor=lightgrey", "fontcolor=grey40")
	case n.optional:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	fmt.Fprintf(buf, "  %q [%s];\n", n.id, strings.Join(attrs, ", "))
}

func refNode(id, label string, ref *resolve.Reference) node {
	n := node{id: id, label: label}
	if ref != nil {
		n.optional = ref.Optional()
		n.ignored = ref.Ignore()
	}
	return n
}

// GraphDOT renders the resolved graph of r. Nodes and edges are emitted in
// sorted order so equal resolutions produce equal output.
func GraphDOT(r *resolve.Resolver, opts Options) string {
	var buf bytes.Buffer
	header(&buf)

	for _, m := range r.Manifests() {
		label := m.ID()
		if opts.Detailed && m.Reference != nil {
			label += "\n" + m.Reference.Location()
		}
		writeNode(&buf, refNode(graphID(m), label, m.Reference))
	}

	buf.WriteString("\n")
	var edges []string
	for _, p := range r.DedupePatterns(r.SeedPatterns()) {
		if m := r.GetResolvedPattern(p); m != nil {
			edges = append(edges, fmt.Sprintf("  %q -> %q;\n", RootID, graphID(m)))
		}
	}
	for _, m := range r.Manifests() {
		if m.Reference == nil {
			continue
		}
		for _, dep := range m.Reference.Dependencies() {
			if child := r.GetResolvedPattern(dep); child != nil {
				edges = append(edges, fmt.Sprintf("  %q -> %q [tooltip=%q];\n", graphID(m), graphID(child), dep))
			}
		}
	}
	slices.Sort(edges)
	for _, e := range slices.Compact(edges) {
		buf.WriteString(e)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// graphID keeps same-version packages from different remotes apart.
func graphID(m *resolve.Manifest) string {
	if m.Reference != nil {
		return m.Reference.Location()
	}
	return m.ID()
}

// TreeDOT renders hoisted entries, which must be sorted by key as
// [hoist.Hoister.Init] returns them.
func TreeDOT(entries []hoist.Entry, opts Options) string {
	var buf bytes.Buffer
	header(&buf)

	placed := make(map[string]bool, len(entries))
	for _, e := range entries {
		placed[e.Manifest.Key] = true
	}

	for _, e := range entries {
		m := e.Manifest
		label := m.Pkg.ID()
		if opts.Detailed {
			label += "\n" + e.Path
		}
		writeNode(&buf, refNode(m.Key, label, m.Pkg.Reference))
	}

	buf.WriteString("\n")
	for _, e := range entries {
		key := e.Manifest.Key
		parent := RootID
		if i := strings.LastIndex(key, hoist.KeySeparator); i >= 0 && placed[key[:i]] {
			parent = key[:i]
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", parent, key)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders DOT source to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized svg element with one sized
// by its viewBox so the diagram scales in browsers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
