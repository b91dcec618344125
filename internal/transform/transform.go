// Package transform maps free-text equipment and urgency mentions onto the
// canonical identifiers the maintenance system uses.
package transform

import (
	"sort"
	"strings"
)

// AssetMapper resolves spoken asset mentions to canonical asset IDs.
type AssetMapper struct {
	mappings map[string][]string
}

var defaultAssetMappings = map[string][]string{
	"tunnel-001": {"tunnel washer 1", "tunnel 1", "tunnel one", "tw1", "tw 1"},
	"tunnel-002": {"tunnel washer 2", "tunnel 2", "tunnel two", "tw2", "tw 2"},
	"dryer-012":  {"dryer 12", "clm 12", "clm dryer 12", "d12", "dryer twelve"},
	"dryer-022":  {"dryer 22", "incline dryer 22", "d22", "dryer twenty two"},
	"ironer-004": {"ironer 4", "iron 4", "ironer number 4", "i4", "ironer four"},
}

// NewAssetMapper returns a mapper with the plant's standard asset table.
func NewAssetMapper() *AssetMapper {
	return &AssetMapper{mappings: defaultAssetMappings}
}

// NewAssetMapperWith builds a mapper from a custom asset table.
func NewAssetMapperWith(mappings map[string][]string) *AssetMapper {
	return &AssetMapper{mappings: mappings}
}

// ExtractAssetID returns the first asset mentioned in the text, or "".
func (m *AssetMapper) ExtractAssetID(text string) string {
	ids := m.ExtractAssetIDs(text)
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// ExtractAssetIDs returns every asset mentioned in the text, sorted for
// deterministic output.
func (m *AssetMapper) ExtractAssetIDs(text string) []string {
	lower := strings.ToLower(text)
	var ids []string
	for assetID, variations := range m.mappings {
		for _, variation := range variations {
			if strings.Contains(lower, variation) {
				ids = append(ids, assetID)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids
}

// WorkTypeClassifier buckets a request by urgency keywords.
type WorkTypeClassifier struct {
	mappings map[string][]string
	order    []string
}

var workTypeOrder = []string{"emergency-001", "urgent-002", "routine-003", "low-004"}

var workTypeMappings = map[string][]string{
	"emergency-001": {
		"emergency", "critical", "safety hazard", "production stopped",
		"leak", "failure", "down", "broken", "not working",
	},
	"urgent-002": {
		"urgent", "asap", "as soon as possible", "high priority",
		"priority", "soon", "quickly",
	},
	"routine-003": {
		"routine", "scheduled", "preventive", "pm", "regular",
		"maintenance", "inspection",
	},
	"low-004": {
		"when possible", "low priority", "whenever", "non-urgent",
		"eventually", "sometime",
	},
}

// NewWorkTypeClassifier returns a classifier with the standard urgency table.
func NewWorkTypeClassifier() *WorkTypeClassifier {
	return &WorkTypeClassifier{mappings: workTypeMappings, order: workTypeOrder}
}

// Classify returns the most urgent work-type ID whose keywords appear in
// the text, or "" when nothing matches.
func (c *WorkTypeClassifier) Classify(text string) string {
	lower := strings.ToLower(text)
	for _, workType := range c.order {
		for _, keyword := range c.mappings[workType] {
			if strings.Contains(lower, keyword) {
				return workType
			}
		}
	}
	return ""
}
