package metrics

import (
	"math"
	"reflect"

	"github.com/flowbench/flowbench/internal/schema"
	"github.com/flowbench/flowbench/internal/transform"
)

// Category keys a triage payload may populate.
var defaultCategories = []string{"work_requests", "work_orders", "tasks"}

// SchemaValidity scores 1.0 when the actual output parses against the
// declared schema, 0.0 otherwise. Needs no expected output.
type SchemaValidity struct {
	Schema *schema.Schema
}

func (SchemaValidity) Name() string { return "schema_validity" }

func (m SchemaValidity) Evaluate(_ string, actual, _ map[string]any) (float64, error) {
	if _, err := m.Schema.Validate(actual); err != nil {
		return 0.0, nil
	}
	return 1.0, nil
}

// CategoryClassification compares which work-item categories were
// populated. Exact set match scores 1.0; otherwise Jaccard overlap gives
// partial credit.
type CategoryClassification struct {
	Categories []string
}

func (CategoryClassification) Name() string { return "category_classification_accuracy" }

func (m CategoryClassification) Evaluate(_ string, actual, expected map[string]any) (float64, error) {
	if expected == nil {
		return 0.0, nil
	}

	expectedSet := populatedCategories(expected, m.categories())
	actualSet := populatedCategories(actual, m.categories())

	if equalSets(expectedSet, actualSet) {
		return 1.0, nil
	}

	union := len(unionSet(expectedSet, actualSet))
	if union == 0 {
		return 0.0, nil
	}
	return float64(len(intersectSet(expectedSet, actualSet))) / float64(union), nil
}

func (m CategoryClassification) categories() []string {
	if len(m.Categories) > 0 {
		return m.Categories
	}
	return defaultCategories
}

// AssetIdentification measures how many assets mentioned in the input made
// it into the output's asset_id fields: |actual ∩ expected| / |expected|,
// 1.0 when the input mentions no assets.
type AssetIdentification struct {
	Mapper     *transform.AssetMapper
	Categories []string
}

func (AssetIdentification) Name() string { return "asset_identification_accuracy" }

func (m AssetIdentification) Evaluate(input string, actual, _ map[string]any) (float64, error) {
	mapper := m.Mapper
	if mapper == nil {
		mapper = transform.NewAssetMapper()
	}

	expectedSet := make(map[string]bool)
	for _, id := range mapper.ExtractAssetIDs(input) {
		expectedSet[id] = true
	}
	if len(expectedSet) == 0 {
		return 1.0, nil
	}

	categories := m.Categories
	if len(categories) == 0 {
		categories = defaultCategories
	}

	actualSet := make(map[string]bool)
	for _, category := range categories {
		for _, item := range itemsOf(actual, category) {
			if id, ok := item["asset_id"].(string); ok && id != "" {
				actualSet[id] = true
			}
		}
	}

	return float64(len(intersectSet(expectedSet, actualSet))) / float64(len(expectedSet)), nil
}

// DowntimeExtraction compares reported equipment downtime values. Exact
// matches score 1.0; numeric pairs score by relative error; anything else
// scores 0.0.
type DowntimeExtraction struct {
	Field string
}

func (DowntimeExtraction) Name() string { return "downtime_extraction_accuracy" }

func (m DowntimeExtraction) Evaluate(_ string, actual, expected map[string]any) (float64, error) {
	if expected == nil {
		return 0.0, nil
	}

	field := m.Field
	if field == "" {
		field = "equipment_downtime"
	}

	expectedValue := expected[field]
	actualValue := actual[field]

	if reflect.DeepEqual(expectedValue, actualValue) {
		return 1.0, nil
	}

	expectedNum, expectedOK := toFloat(expectedValue)
	actualNum, actualOK := toFloat(actualValue)
	if !expectedOK || !actualOK {
		return 0.0, nil
	}

	if expectedNum == 0 {
		if actualNum == 0 {
			return 1.0, nil
		}
		return 0.0, nil
	}

	relativeError := math.Abs(expectedNum-actualNum) / expectedNum
	return math.Max(0.0, 1.0-relativeError), nil
}

// Completeness measures the fraction of required fields that are present
// and non-empty across the emitted work items.
type Completeness struct {
	Categories     []string
	RequiredFields []string
}

func (Completeness) Name() string { return "completeness_score" }

func (m Completeness) Evaluate(_ string, actual, expected map[string]any) (float64, error) {
	if expected == nil {
		return 0.0, nil
	}

	categories := m.Categories
	if len(categories) == 0 {
		categories = defaultCategories
	}
	required := m.RequiredFields
	if len(required) == 0 {
		required = []string{"title", "description", "status"}
	}

	score := 0.0
	totalItems := 0
	for _, category := range categories {
		for _, item := range itemsOf(actual, category) {
			totalItems++
			itemScore := 0.0
			for _, field := range required {
				if value, ok := item[field]; ok && !isEmpty(value) {
					itemScore++
				}
			}
			score += itemScore / float64(len(required))
		}
	}

	if totalItems == 0 {
		return 0.0, nil
	}
	return score / float64(totalItems), nil
}

func itemsOf(payload map[string]any, category string) []map[string]any {
	list, ok := payload[category].([]any)
	if !ok {
		return nil
	}
	var items []map[string]any
	for _, entry := range list {
		if item, ok := entry.(map[string]any); ok {
			items = append(items, item)
		}
	}
	return items
}

func populatedCategories(payload map[string]any, categories []string) map[string]bool {
	set := make(map[string]bool)
	for _, category := range categories {
		if len(itemsOf(payload, category)) > 0 {
			set[category] = true
		}
	}
	return set
}

func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}

func equalSets(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func intersectSet(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}

func unionSet(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool, len(a)+len(b))
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}
