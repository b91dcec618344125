package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, WorkflowState{}.Validate(), ErrNoInput)
	require.NoError(t, New("tunnel washer 1 is down").Validate())
}

func TestMergeAccumulates(t *testing.T) {
	t.Parallel()

	base := New("dryer 12 bearing noise")
	first := base.WithStepResult("triage", map[string]any{"tasks": []any{"inspect"}})
	second := first.Merge(WorkflowState{
		Output:      map[string]any{"tasks": []any{"inspect", "replace"}},
		StepResults: map[string]map[string]any{"refine": {"tasks": []any{"inspect", "replace"}}},
		Errors:      []string{"refine: low confidence"},
	})

	require.Equal(t, "dryer 12 bearing noise", second.Input)
	require.Equal(t, map[string]any{"tasks": []any{"inspect", "replace"}}, second.Output)
	require.Len(t, second.StepResults, 2)
	require.Equal(t, []string{"refine: low confidence"}, second.Errors)

	// The pre-merge state must be unaffected.
	require.Len(t, first.StepResults, 1)
	require.Empty(t, first.Errors)
}

func TestDumpLoadRoundTrip(t *testing.T) {
	t.Parallel()

	st := New("ironer 4 jammed").WithStepResult("triage", map[string]any{"asset_id": "ironer-004"})
	data, err := st.Dump()
	require.NoError(t, err)

	loaded, err := Load(data)
	require.NoError(t, err)
	require.Equal(t, st.Input, loaded.Input)
	require.Equal(t, "ironer-004", loaded.Output["asset_id"])
}

func TestLoadRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Load([]byte("not json"))
	require.Error(t, err)
}
