package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowbench/flowbench/internal/schema"
	"github.com/flowbench/flowbench/internal/transform"
)

func triageSchema() *schema.Schema {
	return &schema.Schema{Fields: []schema.Field{
		{Name: "work_requests", Type: schema.TypeList, Required: true, Elem: &schema.Field{
			Name: "work_request", Type: schema.TypeObject, Fields: []schema.Field{
				{Name: "title", Type: schema.TypeString, Required: true},
			},
		}},
	}}
}

func TestSchemaValidity(t *testing.T) {
	t.Parallel()

	m := SchemaValidity{Schema: triageSchema()}

	score, err := m.Evaluate("", map[string]any{
		"work_requests": []any{map[string]any{"title": "fix dryer"}},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, 1.0, score)

	score, err = m.Evaluate("", map[string]any{
		"work_requests": []any{map[string]any{"description": "no title"}},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, 0.0, score)

	score, err = m.Evaluate("", map[string]any{}, nil)
	require.NoError(t, err)
	require.Equal(t, 0.0, score)
}

func TestCategoryClassification(t *testing.T) {
	t.Parallel()

	m := CategoryClassification{}
	task := map[string]any{"title": "t"}

	t.Run("exact_match", func(t *testing.T) {
		t.Parallel()
		score, err := m.Evaluate("",
			map[string]any{"tasks": []any{task}},
			map[string]any{"tasks": []any{task}})
		require.NoError(t, err)
		require.Equal(t, 1.0, score)
	})

	t.Run("partial_overlap", func(t *testing.T) {
		t.Parallel()
		score, err := m.Evaluate("",
			map[string]any{"tasks": []any{task}, "work_orders": []any{task}},
			map[string]any{"tasks": []any{task}, "work_requests": []any{task}})
		require.NoError(t, err)
		require.InDelta(t, 1.0/3.0, score, 1e-9)
	})

	t.Run("no_expected_output", func(t *testing.T) {
		t.Parallel()
		score, err := m.Evaluate("", map[string]any{"tasks": []any{task}}, nil)
		require.NoError(t, err)
		require.Equal(t, 0.0, score)
	})

	t.Run("empty_lists_are_not_populated", func(t *testing.T) {
		t.Parallel()
		score, err := m.Evaluate("",
			map[string]any{"tasks": []any{}},
			map[string]any{"tasks": []any{}})
		require.NoError(t, err)
		require.Equal(t, 1.0, score)
	})
}

func TestAssetIdentification(t *testing.T) {
	t.Parallel()

	m := AssetIdentification{Mapper: transform.NewAssetMapper()}

	withAssets := func(ids ...string) map[string]any {
		var items []any
		for _, id := range ids {
			items = append(items, map[string]any{"title": "work", "asset_id": id})
		}
		return map[string]any{"tasks": items}
	}

	t.Run("no_assets_mentioned_scores_full", func(t *testing.T) {
		t.Parallel()
		score, err := m.Evaluate("replace breakroom light bulbs", withAssets(), nil)
		require.NoError(t, err)
		require.Equal(t, 1.0, score)
	})

	t.Run("two_of_three_expected", func(t *testing.T) {
		t.Parallel()
		input := "tunnel washer 1 and dryer 12 are down, also ironer 4 squeaks"
		score, err := m.Evaluate(input, withAssets("tunnel-001", "dryer-012"), nil)
		require.NoError(t, err)
		require.InDelta(t, 2.0/3.0, score, 1e-9)
	})

	t.Run("all_identified", func(t *testing.T) {
		t.Parallel()
		score, err := m.Evaluate("dryer 22 belt snapped", withAssets("dryer-022"), nil)
		require.NoError(t, err)
		require.Equal(t, 1.0, score)
	})

	t.Run("wrong_asset_ids", func(t *testing.T) {
		t.Parallel()
		score, err := m.Evaluate("dryer 22 belt snapped", withAssets("dryer-012"), nil)
		require.NoError(t, err)
		require.Equal(t, 0.0, score)
	})
}

func TestDowntimeExtraction(t *testing.T) {
	t.Parallel()

	m := DowntimeExtraction{}

	cases := []struct {
		name     string
		actual   any
		expected any
		want     float64
	}{
		{"exact_match", 2.5, 2.5, 1.0},
		{"within_tolerance", 2.25, 2.5, 0.9},
		{"far_off", 10.0, 2.0, 0.0},
		{"zero_expected_zero_actual", 0.0, 0.0, 1.0},
		{"zero_expected_nonzero_actual", 1.0, 0.0, 0.0},
		{"non_numeric_actual", "two hours", 2.0, 0.0},
		{"missing_actual", nil, 2.0, 0.0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			actual := map[string]any{}
			if tc.actual != nil {
				actual["equipment_downtime"] = tc.actual
			}
			score, err := m.Evaluate("", actual, map[string]any{"equipment_downtime": tc.expected})
			require.NoError(t, err)
			require.InDelta(t, tc.want, score, 1e-9)
		})
	}

	t.Run("no_expected_output", func(t *testing.T) {
		t.Parallel()
		score, err := m.Evaluate("", map[string]any{"equipment_downtime": 2.0}, nil)
		require.NoError(t, err)
		require.Equal(t, 0.0, score)
	})
}

func TestCompleteness(t *testing.T) {
	t.Parallel()

	m := Completeness{}
	expected := map[string]any{"tasks": []any{}}

	t.Run("fully_complete_item", func(t *testing.T) {
		t.Parallel()
		actual := map[string]any{"tasks": []any{
			map[string]any{"title": "fix", "description": "fix the belt", "status": "pending"},
		}}
		score, err := m.Evaluate("", actual, expected)
		require.NoError(t, err)
		require.Equal(t, 1.0, score)
	})

	t.Run("partially_filled_items", func(t *testing.T) {
		t.Parallel()
		actual := map[string]any{"tasks": []any{
			map[string]any{"title": "fix", "description": "", "status": "pending"},
			map[string]any{"title": "check"},
		}}
		score, err := m.Evaluate("", actual, expected)
		require.NoError(t, err)
		require.InDelta(t, 0.5, score, 1e-9)
	})

	t.Run("no_items", func(t *testing.T) {
		t.Parallel()
		score, err := m.Evaluate("", map[string]any{}, expected)
		require.NoError(t, err)
		require.Equal(t, 0.0, score)
	})
}
