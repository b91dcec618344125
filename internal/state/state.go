package state

import (
	"encoding/json"

	"github.com/pkg/errors"
)

var ErrNoInput = errors.New("no input text")

// WorkflowState is threaded through a single graph execution. Each state
// value is owned by exactly one in-flight dataset item and is never shared
// across items.
type WorkflowState struct {
	// Input is the raw text the workflow operates on.
	Input string `json:"input"`

	// Output holds the structured payload produced by the most recent agent.
	Output map[string]any `json:"output,omitempty"`

	// StepResults accumulates each agent's payload keyed by agent name.
	StepResults map[string]map[string]any `json:"step_results,omitempty"`

	// Errors collects non-fatal diagnostics raised while the item ran.
	Errors []string `json:"errors,omitempty"`
}

// New creates an initial state for one dataset item.
func New(input string) WorkflowState {
	return WorkflowState{
		Input:       input,
		StepResults: make(map[string]map[string]any),
	}
}

func (s WorkflowState) Validate() error {
	if s.Input == "" {
		return ErrNoInput
	}
	return nil
}

// Merge folds a node's response into the current state. The newer output
// wins; step results and errors accumulate.
func (s WorkflowState) Merge(other WorkflowState) WorkflowState {
	merged := s.Clone()
	if other.Input != "" {
		merged.Input = other.Input
	}
	if other.Output != nil {
		merged.Output = other.Output
	}
	for name, result := range other.StepResults {
		merged.StepResults[name] = result
	}
	merged.Errors = append(merged.Errors, other.Errors...)
	return merged
}

func (s WorkflowState) Clone() WorkflowState {
	cloned := WorkflowState{
		Input:       s.Input,
		Output:      s.Output,
		StepResults: make(map[string]map[string]any, len(s.StepResults)),
		Errors:      append([]string{}, s.Errors...),
	}
	for name, result := range s.StepResults {
		cloned.StepResults[name] = result
	}
	return cloned
}

// WithStepResult returns a state carrying one agent's payload as both the
// current output and a recorded step.
func (s WorkflowState) WithStepResult(agent string, payload map[string]any) WorkflowState {
	next := s.Clone()
	next.Output = payload
	next.StepResults[agent] = payload
	return next
}

func (s WorkflowState) Dump() ([]byte, error) {
	return json.Marshal(s)
}

func Load(data []byte) (WorkflowState, error) {
	var st WorkflowState
	if err := json.Unmarshal(data, &st); err != nil {
		return WorkflowState{}, errors.Wrap(err, "failed to decode workflow state")
	}
	if st.StepResults == nil {
		st.StepResults = make(map[string]map[string]any)
	}
	return st, nil
}
