package graph

import (
	"fmt"
	"strings"
)

// Mermaid renders the compiled topology as a mermaid flowchart, suitable
// for embedding in run output next to the evaluation report.
func (cg *CompiledGraph[T]) Mermaid() string {
	var b strings.Builder
	b.WriteString("graph TD\n")
	b.WriteString(fmt.Sprintf("    %s([START]) --> %s\n", START, cg.graph.entryPoint))
	for _, node := range cg.order {
		b.WriteString(fmt.Sprintf("    %s --> %s\n", node, cg.next[node]))
	}
	b.WriteString(fmt.Sprintf("    %s([END])\n", END))
	return b.String()
}

// Describe returns a plain-text summary of the path for console output.
func (cg *CompiledGraph[T]) Describe() string {
	var b strings.Builder
	b.WriteString("Graph Structure:\n")
	b.WriteString("Entry Point: " + cg.graph.entryPoint + "\n")
	b.WriteString("Path: " + strings.Join(append(cg.Path(), END), " --> ") + "\n")
	return b.String()
}
