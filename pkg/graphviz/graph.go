// Package graphviz renders property graph snapshots in the DOT language.
//
//go:generate qtc -file=graph.qtpl
package graphviz

import (
	"fmt"
	"io"
	"strings"

	"github.com/delaneyj/propgraph/property"
)

// Render writes nodes as a DOT digraph. Dirty nodes are filled, nodes whose
// last evaluation failed are outlined in red, and every dependency becomes an
// edge from the reader to the cell it read.
func Render(w io.Writer, name string, nodes []property.NodeInfo) {
	WriteGraph(w, name, nodes)
}

func String(name string, nodes []property.NodeInfo) string {
	return Graph(name, nodes)
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func quote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

func label(n property.NodeInfo) string {
	l := fmt.Sprintf("%s\nv%d", n.Name, n.Version)
	if n.Err != "" {
		l += "\n" + n.Err
	}
	return l
}
