package modgraph

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/knightfall-dh/bannerman/pkg/modules"
)

// DotOptions configures constraint-graph rendering.
type DotOptions struct {
	// Detailed includes module versions in node labels. When false, only
	// the module id is shown.
	Detailed bool
}

// ToDOT converts the constraint graph to Graphviz DOT format. Synthetic tier
// edges are dashed, optional edges grey, so declared constraints stand out.
// The resulting DOT string can be rendered with [RenderSVG].
func ToDOT(g *Graph, opts DotOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph modules {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, id := range g.IDs() {
		n, _ := g.Node(id)
		label := n.ID
		if opts.Detailed {
			label = fmt.Sprintf("%s\n%s", n.ID, n.Version)
		}
		fmt.Fprintf(&buf, "  %q [label=%q];\n", n.ID, label)
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.From, e.To, edgeAttrs(e))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func edgeAttrs(e Edge) string {
	switch {
	case e.Synthetic:
		return ` [style=dashed, color=grey50]`
	case e.Optional:
		return ` [color=grey70]`
	case e.Kind == modules.LoadBeforeThis:
		return ` [style=dotted]`
	default:
		return ""
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
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
	return buf.Bytes(), nil
}
