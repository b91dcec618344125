// Package dataset loads evaluation datasets: an ordered JSON list of
// inputs with optional expected outputs.
package dataset

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Item is one (input, expected_output) pair, evaluated independently of
// every other item.
type Item struct {
	Input          string         `json:"input"`
	ExpectedOutput map[string]any `json:"expected_output,omitempty"`
}

// Load reads a dataset file: a plain JSON list, no envelope.
func Load(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read dataset %s", path)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errors.Wrapf(err, "failed to parse dataset %s", path)
	}

	for i, item := range items {
		if item.Input == "" {
			return nil, errors.Errorf("dataset %s: item %d has no input", path, i)
		}
	}
	return items, nil
}
