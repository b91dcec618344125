package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyCompiled is returned when attempting to modify a compiled graph
	ErrAlreadyCompiled = errors.New("graph is already compiled and cannot be modified")

	// ErrDuplicateNode is returned when adding a node that already exists
	ErrDuplicateNode = errors.New("node with this name already exists")

	// ErrNodeNotFound is returned when referencing a non-existent node
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoEntryPoint is returned when validating a graph with no entry point
	ErrNoEntryPoint = errors.New("entry point not set")

	// ErrCycle is returned when the edge set loops back through a visited node
	ErrCycle = errors.New("cycle detected")

	// ErrNotLinear is returned when a node does not have exactly one outgoing edge
	ErrNotLinear = errors.New("node must have exactly one outgoing edge")

	// ErrUnreachableNode is returned when a declared node is not on the entry path
	ErrUnreachableNode = errors.New("node is unreachable from entry point")

	// ErrNoEndPoint is returned when the entry path never reaches END
	ErrNoEndPoint = errors.New("no path to END from entry point")
)

// LoadError reports a malformed graph definition. Load errors are fatal:
// nothing is executed for a graph that fails validation.
type LoadError struct {
	// Op is the operation that failed
	Op string
	// Node is the name of the node involved (if any)
	Node string
	// Err is the underlying error
	Err error
}

func (e *LoadError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("graph load failed: %s: node %q: %v", e.Op, e.Node, e.Err)
	}
	return fmt.Sprintf("graph load failed: %s: %v", e.Op, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError creates a new LoadError
func NewLoadError(op, node string, err error) error {
	return &LoadError{Op: op, Node: node, Err: err}
}

// ExecutionError reports a failure while running a compiled graph. It fails
// the dataset item being processed, never the whole run.
type ExecutionError struct {
	// Node is the name of the node being executed
	Node string
	// Err is the underlying error
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution error: node %q: %v", e.Node, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NewExecutionError creates a new ExecutionError
func NewExecutionError(node string, err error) error {
	return &ExecutionError{Node: node, Err: err}
}

func errMaxSteps(n int) error {
	return fmt.Errorf("max steps reached (%d)", n)
}
