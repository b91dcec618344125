package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// TriageState is a minimal workflow state for engine tests.
type TriageState struct {
	Input   string
	Visited []string
	Output  string
}

func (s TriageState) Validate() error {
	if s.Input == "" {
		return errors.New("input cannot be empty")
	}
	return nil
}

func (s TriageState) Merge(other TriageState) TriageState {
	if other.Input != "" {
		s.Input = other.Input
	}
	if other.Output != "" {
		s.Output = other.Output
	}
	s.Visited = append(s.Visited, other.Visited...)
	return s
}

func visitNode(name string) NodeFunc[TriageState] {
	return func(_ context.Context, _ TriageState, _ Config) (TriageState, error) {
		return TriageState{Visited: []string{name}}, nil
	}
}

func buildLinear(t *testing.T, names ...string) *Graph[TriageState] {
	t.Helper()
	g := NewGraph[TriageState]("linear-test")
	for _, name := range names {
		require.NoError(t, g.AddNode(name, visitNode(name), nil))
	}
	for i := 0; i < len(names)-1; i++ {
		require.NoError(t, g.AddEdge(names[i], names[i+1], nil))
	}
	require.NoError(t, g.AddEdge(names[len(names)-1], END, nil))
	require.NoError(t, g.SetEntryPoint(names[0]))
	return g
}

func TestLinearExecutionOrder(t *testing.T) {
	t.Parallel()

	g := buildLinear(t, "classify", "extract", "summarize")
	compiled, err := g.Compile()
	require.NoError(t, err)
	require.Equal(t, []string{"classify", "extract", "summarize"}, compiled.Path())

	final, err := compiled.Run(context.Background(), TriageState{Input: "dryer 12 is down"})
	require.NoError(t, err)
	require.Equal(t, []string{"classify", "extract", "summarize"}, final.Visited)
}

func TestValidationRejections(t *testing.T) {
	t.Parallel()

	t.Run("missing_entry_point", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[TriageState]("no-entry")
		require.NoError(t, g.AddNode("a", visitNode("a"), nil))
		require.NoError(t, g.AddEdge("a", END, nil))

		_, err := g.Compile()
		require.ErrorIs(t, err, ErrNoEntryPoint)
	})

	t.Run("node_without_outgoing_edge", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[TriageState]("dangling")
		require.NoError(t, g.AddNode("a", visitNode("a"), nil))
		require.NoError(t, g.AddNode("b", visitNode("b"), nil))
		require.NoError(t, g.AddEdge("a", "b", nil))
		require.NoError(t, g.SetEntryPoint("a"))

		_, err := g.Compile()
		require.ErrorIs(t, err, ErrNotLinear)

		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		require.Equal(t, "b", loadErr.Node)
	})

	t.Run("node_with_two_outgoing_edges", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[TriageState]("fanout")
		require.NoError(t, g.AddNode("a", visitNode("a"), nil))
		require.NoError(t, g.AddNode("b", visitNode("b"), nil))
		require.NoError(t, g.AddEdge("a", "b", nil))
		require.NoError(t, g.AddEdge("a", END, nil))
		require.NoError(t, g.AddEdge("b", END, nil))
		require.NoError(t, g.SetEntryPoint("a"))

		_, err := g.Compile()
		require.ErrorIs(t, err, ErrNotLinear)
	})

	t.Run("cycle", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[TriageState]("cyclic")
		require.NoError(t, g.AddNode("a", visitNode("a"), nil))
		require.NoError(t, g.AddNode("b", visitNode("b"), nil))
		require.NoError(t, g.AddEdge("a", "b", nil))
		require.NoError(t, g.AddEdge("b", "a", nil))
		require.NoError(t, g.SetEntryPoint("a"))

		_, err := g.Compile()
		require.ErrorIs(t, err, ErrCycle)
	})

	t.Run("unreachable_node", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[TriageState]("orphan")
		require.NoError(t, g.AddNode("a", visitNode("a"), nil))
		require.NoError(t, g.AddNode("orphan", visitNode("orphan"), nil))
		require.NoError(t, g.AddEdge("a", END, nil))
		require.NoError(t, g.AddEdge("orphan", END, nil))
		require.NoError(t, g.SetEntryPoint("a"))

		_, err := g.Compile()
		require.ErrorIs(t, err, ErrUnreachableNode)
	})

	t.Run("edge_to_undeclared_node", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[TriageState]("bad-edge")
		require.NoError(t, g.AddNode("a", visitNode("a"), nil))
		require.ErrorIs(t, g.AddEdge("a", "ghost", nil), ErrNodeNotFound)
	})

	t.Run("duplicate_node", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[TriageState]("dupes")
		require.NoError(t, g.AddNode("a", visitNode("a"), nil))
		require.ErrorIs(t, g.AddNode("a", visitNode("a"), nil), ErrDuplicateNode)
	})

	t.Run("reserved_names", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[TriageState]("reserved")
		require.Error(t, g.AddNode(START, visitNode(START), nil))
		require.Error(t, g.AddNode(END, visitNode(END), nil))
	})
}

func TestCompiledGraphIsFrozen(t *testing.T) {
	t.Parallel()

	g := buildLinear(t, "only")
	_, err := g.Compile()
	require.NoError(t, err)

	require.ErrorIs(t, g.AddNode("late", visitNode("late"), nil), ErrAlreadyCompiled)
	require.ErrorIs(t, g.AddEdge("only", END, nil), ErrAlreadyCompiled)
	require.ErrorIs(t, g.SetEntryPoint("only"), ErrAlreadyCompiled)
}

func TestRunValidatesInitialState(t *testing.T) {
	t.Parallel()

	g := buildLinear(t, "only")
	compiled, err := g.Compile()
	require.NoError(t, err)

	_, err = compiled.Run(context.Background(), TriageState{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "input cannot be empty")
}

func TestNodeFailureWrapsExecutionError(t *testing.T) {
	t.Parallel()

	boom := errors.New("model unavailable")
	g := NewGraph[TriageState]("failing")
	require.NoError(t, g.AddNode("call", func(_ context.Context, _ TriageState, _ Config) (TriageState, error) {
		return TriageState{}, boom
	}, nil))
	require.NoError(t, g.AddEdge("call", END, nil))
	require.NoError(t, g.SetEntryPoint("call"))

	compiled, err := g.Compile()
	require.NoError(t, err)

	_, err = compiled.Run(context.Background(), TriageState{Input: "x"})
	require.ErrorIs(t, err, boom)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, "call", execErr.Node)
}

func TestRetryPolicyRecovers(t *testing.T) {
	t.Parallel()

	attempts := 0
	g := NewGraph[TriageState]("retrying")
	require.NoError(t, g.AddNode("flaky", func(_ context.Context, _ TriageState, _ Config) (TriageState, error) {
		attempts++
		if attempts < 3 {
			return TriageState{}, errors.New("transient")
		}
		return TriageState{Visited: []string{"flaky"}}, nil
	}, nil))
	require.NoError(t, g.SetRetryPolicy("flaky", &RetryPolicy{MaxAttempts: 3, Delay: 0}))
	require.NoError(t, g.AddEdge("flaky", END, nil))
	require.NoError(t, g.SetEntryPoint("flaky"))

	compiled, err := g.Compile()
	require.NoError(t, err)

	final, err := compiled.Run(context.Background(), TriageState{Input: "x"})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
	require.Equal(t, []string{"flaky"}, final.Visited)
}

func TestCancellationStopsExecution(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	g := NewGraph[TriageState]("cancelled")
	require.NoError(t, g.AddNode("first", func(_ context.Context, _ TriageState, _ Config) (TriageState, error) {
		cancel()
		return TriageState{Visited: []string{"first"}}, nil
	}, nil))
	require.NoError(t, g.AddNode("second", visitNode("second"), nil))
	require.NoError(t, g.AddEdge("first", "second", nil))
	require.NoError(t, g.AddEdge("second", END, nil))
	require.NoError(t, g.SetEntryPoint("first"))

	compiled, err := g.Compile()
	require.NoError(t, err)

	final, err := compiled.Run(ctx, TriageState{Input: "x"})
	require.ErrorIs(t, err, context.Canceled)
	require.NotContains(t, final.Visited, "second")
}

func TestMermaidExport(t *testing.T) {
	t.Parallel()

	g := buildLinear(t, "classify", "extract")
	compiled, err := g.Compile()
	require.NoError(t, err)

	diagram := compiled.Mermaid()
	require.Contains(t, diagram, "graph TD")
	require.Contains(t, diagram, "START([START]) --> classify")
	require.Contains(t, diagram, "classify --> extract")
	require.Contains(t, diagram, "extract --> END")
}
