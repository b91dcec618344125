package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Constants for special nodes
const (
	START            = "START"
	END              = "END"
	defaultGraphName = "graph"
)

// State represents the base interface for any state type.
type State interface {
	// Validate validates the state
	Validate() error
}

// GraphState combines validation with the merge contract node responses
// are folded through.
type GraphState[T any] interface {
	State
	Merge(T) T
}

// NodeFunc transforms the state at one node. The returned state is merged
// into the current state by the executor.
type NodeFunc[T GraphState[T]] func(context.Context, T, Config) (T, error)

// NodeSpec represents a node's specification
type NodeSpec[T GraphState[T]] struct {
	Name        string
	Function    NodeFunc[T]
	Metadata    map[string]any
	RetryPolicy *RetryPolicy
}

// RetryPolicy defines how a node should handle failures
type RetryPolicy struct {
	MaxAttempts int
	Delay       int // delay in seconds between attempts
}

// Edge represents a connection between nodes
type Edge struct {
	From     string
	To       string
	Metadata map[string]any
}

// Graph is the mutable, declarative form of a workflow. Nodes and edges are
// added while loading configuration; Compile validates the result and
// freezes it. Graphs are strictly linear: every node has exactly one
// outgoing edge and the path from the entry point must reach END.
type Graph[T GraphState[T]] struct {
	graphID    string
	name       string
	nodes      map[string]NodeSpec[T]
	edges      []Edge
	entryPoint string
	compiled   bool
}

type Option[T GraphState[T]] func(*Graph[T])

func WithGraphID[T GraphState[T]](id string) Option[T] {
	return func(g *Graph[T]) {
		g.graphID = id
	}
}

// NewGraph creates a new graph instance
func NewGraph[T GraphState[T]](name string, opt ...Option[T]) *Graph[T] {
	graphName := defaultGraphName
	if name != "" {
		graphName = strings.ReplaceAll(name, " ", "-")
	}

	g := Graph[T]{
		graphID: uuid.New().String(),
		name:    graphName,
		nodes:   make(map[string]NodeSpec[T]),
	}
	for _, o := range opt {
		o(&g)
	}

	g.graphID = fmt.Sprintf("%s-%s", graphName, g.graphID)
	return &g
}

// ID returns the unique graph identifier.
func (g *Graph[T]) ID() string {
	return g.graphID
}

// Name returns the graph name.
func (g *Graph[T]) Name() string {
	return g.name
}

// AddNode adds a new node to the graph
func (g *Graph[T]) AddNode(name string, fn NodeFunc[T], metadata map[string]any) error {
	if g.compiled {
		return NewLoadError("AddNode", name, ErrAlreadyCompiled)
	}
	if name == START || name == END {
		return NewLoadError("AddNode", name, fmt.Errorf("%q is a reserved node name", name))
	}
	if _, exists := g.nodes[name]; exists {
		return NewLoadError("AddNode", name, ErrDuplicateNode)
	}

	g.nodes[name] = NodeSpec[T]{
		Name:     name,
		Function: fn,
		Metadata: metadata,
	}
	return nil
}

// SetRetryPolicy attaches a retry policy to an existing node.
func (g *Graph[T]) SetRetryPolicy(name string, policy *RetryPolicy) error {
	node, exists := g.nodes[name]
	if !exists {
		return NewLoadError("SetRetryPolicy", name, ErrNodeNotFound)
	}
	node.RetryPolicy = policy
	g.nodes[name] = node
	return nil
}

// AddEdge declares a transition between two nodes, or from a node to END.
func (g *Graph[T]) AddEdge(from, to string, metadata map[string]any) error {
	if g.compiled {
		return NewLoadError("AddEdge", from, ErrAlreadyCompiled)
	}
	if err := g.validateEdgeNodes(from, to); err != nil {
		return err
	}

	g.edges = append(g.edges, Edge{From: from, To: to, Metadata: metadata})
	return nil
}

func (g *Graph[T]) validateEdgeNodes(from, to string) error {
	if from == END {
		return NewLoadError("AddEdge", from, fmt.Errorf("cannot add edge from END"))
	}
	if _, exists := g.nodes[from]; !exists {
		return NewLoadError("AddEdge", from, ErrNodeNotFound)
	}
	if to == START {
		return NewLoadError("AddEdge", to, fmt.Errorf("cannot add edge to START"))
	}
	if to != END {
		if _, exists := g.nodes[to]; !exists {
			return NewLoadError("AddEdge", to, ErrNodeNotFound)
		}
	}
	return nil
}

// SetEntryPoint sets the entry point of the graph
func (g *Graph[T]) SetEntryPoint(name string) error {
	if g.compiled {
		return NewLoadError("SetEntryPoint", name, ErrAlreadyCompiled)
	}
	if name == END {
		return NewLoadError("SetEntryPoint", name, fmt.Errorf("cannot set END as entry point"))
	}
	if _, exists := g.nodes[name]; !exists {
		return NewLoadError("SetEntryPoint", name, ErrNodeNotFound)
	}

	g.entryPoint = name
	return nil
}

// HasNode reports whether a node with the given name was declared.
func (g *Graph[T]) HasNode(name string) bool {
	_, exists := g.nodes[name]
	return exists
}

// Validate checks the declared topology before any execution: the entry
// point must exist, every node must have exactly one outgoing edge, the
// entry path must terminate at END without revisiting a node, and no
// declared node may sit off that path.
func (g *Graph[T]) Validate() error {
	if g.entryPoint == "" {
		return NewLoadError("Validate", "", ErrNoEntryPoint)
	}

	outgoing := make(map[string][]string, len(g.nodes))
	for _, edge := range g.edges {
		outgoing[edge.From] = append(outgoing[edge.From], edge.To)
	}

	for name := range g.nodes {
		if n := len(outgoing[name]); n != 1 {
			return NewLoadError("Validate", name,
				fmt.Errorf("%w (found %d)", ErrNotLinear, n))
		}
	}

	// Walk the single path from the entry point. Each node has exactly one
	// out-edge, so a revisit is a cycle and a finite walk must end at END.
	visited := make(map[string]bool, len(g.nodes))
	current := g.entryPoint
	for current != END {
		if visited[current] {
			return NewLoadError("Validate", current, ErrCycle)
		}
		visited[current] = true
		current = outgoing[current][0]
	}

	for name := range g.nodes {
		if !visited[name] {
			return NewLoadError("Validate", name, ErrUnreachableNode)
		}
	}

	return nil
}

// path returns node names in execution order. Only valid after Validate.
func (g *Graph[T]) path() []string {
	outgoing := make(map[string]string, len(g.nodes))
	for _, edge := range g.edges {
		outgoing[edge.From] = edge.To
	}

	var order []string
	for current := g.entryPoint; current != END; current = outgoing[current] {
		order = append(order, current)
	}
	return order
}
