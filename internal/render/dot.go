// Package render writes project graphs as Graphviz DOT text.
package render

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/leapstack-labs/slnlint/internal/colour"
	"github.com/leapstack-labs/slnlint/internal/graph"
)

// Options configures DOT output.
type Options struct {
	// ExcludeLegend drops the cluster listing every chart colour.
	ExcludeLegend bool
}

// WriteDOT writes g to w. Each node is styled with the chart attributes of
// its resolved colour; nodes missing from colours are drawn as Invalid. Only
// required references become edges, so the output is the transitive
// reduction of the graph.
func WriteDOT(w io.Writer, g *graph.ProjectGraph, colours map[int64]colour.Colour, chart *colour.Chart, opts Options) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("digraph \"DependencyGraph\" {\n")
	bw.WriteString("    ratio=\"compress\"\n")

	if !opts.ExcludeLegend {
		bw.WriteString("    subgraph cluster_legend {\n")
		bw.WriteString("        rank=sink;\n")
		bw.WriteString("        label=\"Legend\";\n")
		bw.WriteString("        shape=rectangle;\n")
		bw.WriteString("        color=black;\n")
		for _, c := range chart.Colours() {
			fmt.Fprintf(bw, "        %q [%s];\n", c.Name, fmtAttrs(chart.Attributes(c.Name)))
		}
		bw.WriteString("    }\n")
	}

	for _, n := range g.Nodes() {
		c, ok := colours[n.ID()]
		if !ok {
			c = colour.Invalid
		}
		attrs := fmtAttrs(chart.Attributes(c.Name))
		fmt.Fprintf(bw, "    %d [label=%q, %s];\n", n.ID(), n.Name(), attrs)
		for _, dep := range n.Required() {
			fmt.Fprintf(bw, "    %d -> %d;\n", n.ID(), dep.ID())
		}
	}

	bw.WriteString("}\n")
	return bw.Flush()
}

func fmtAttrs(attrs map[string]string) string {
	parts := make([]string, 0, len(attrs))
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		parts = append(parts, fmt.Sprintf("%s=%q", k, attrs[k]))
	}
	return strings.Join(parts, ", ")
}
