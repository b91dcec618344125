// Package workflow assembles a runnable workflow from its configuration
// bundle: a graph definition, a directory of agent specs, and an output
// schema, plus the metric set the workflow is scored with.
package workflow

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/flowbench/flowbench/internal/agent"
	"github.com/flowbench/flowbench/internal/graph"
	"github.com/flowbench/flowbench/internal/metrics"
	"github.com/flowbench/flowbench/internal/schema"
	"github.com/flowbench/flowbench/internal/state"
)

// AgentInvoker dispatches one agent call. It is satisfied by
// *agent.Invoker and by test fakes.
type AgentInvoker interface {
	Invoke(ctx context.Context, spec agent.Spec, vars map[string]string) (map[string]any, error)
}

// InvokerFunc adapts a function to the AgentInvoker interface.
type InvokerFunc func(ctx context.Context, spec agent.Spec, vars map[string]string) (map[string]any, error)

func (f InvokerFunc) Invoke(ctx context.Context, spec agent.Spec, vars map[string]string) (map[string]any, error) {
	return f(ctx, spec, vars)
}

// Workflow is a loaded, validated workflow: compiled graph, agent specs,
// output schema and metric registry. Immutable after Load; reused across
// all dataset items.
type Workflow struct {
	Name    string
	Agents  map[string]agent.Spec
	Graph   *graph.CompiledGraph[state.WorkflowState]
	Schema  *schema.Schema
	Metrics *metrics.Registry
}

// Execute runs one input through the workflow graph and returns the final
// structured output.
func (w *Workflow) Execute(ctx context.Context, input string) (map[string]any, error) {
	final, err := w.Graph.Run(ctx, state.New(input))
	if err != nil {
		return nil, err
	}
	if final.Output == nil {
		return nil, errors.New("workflow produced no output")
	}
	return final.Output, nil
}

// agentNode wraps one agent invocation as a graph node. The node returns a
// delta state that the executor merges into the threaded state.
func agentNode(inv AgentInvoker, spec agent.Spec) graph.NodeFunc[state.WorkflowState] {
	return func(ctx context.Context, st state.WorkflowState, _ graph.Config) (state.WorkflowState, error) {
		vars := map[string]string{"input": st.Input}
		if st.Output != nil {
			if encoded, err := json.Marshal(st.Output); err == nil {
				vars["output"] = string(encoded)
			}
		}

		payload, err := inv.Invoke(ctx, spec, vars)
		if err != nil {
			return state.WorkflowState{}, err
		}

		return state.WorkflowState{
			Output:      payload,
			StepResults: map[string]map[string]any{spec.Name: payload},
		}, nil
	}
}

// buildMetric constructs a built-in metric by its registered name.
func buildMetric(name string, sch *schema.Schema) (metrics.Metric, error) {
	switch name {
	case "schema_validity":
		return metrics.SchemaValidity{Schema: sch}, nil
	case "category_classification":
		return metrics.CategoryClassification{}, nil
	case "asset_identification":
		return metrics.AssetIdentification{}, nil
	case "downtime_extraction":
		return metrics.DowntimeExtraction{}, nil
	case "completeness":
		return metrics.Completeness{}, nil
	default:
		return nil, errors.Errorf("unknown metric %q", name)
	}
}

func buildRegistry(names []string, sch *schema.Schema, logger *zap.Logger) (*metrics.Registry, error) {
	if len(names) == 0 {
		names = []string{"schema_validity"}
	}

	registry := metrics.NewRegistry(logger)
	for _, name := range names {
		m, err := buildMetric(name, sch)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(m); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
