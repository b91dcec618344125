package runner

import (
	"time"
)

// ItemResult is one dataset item's evaluation record. Every processed item
// produces exactly one entry, with either a full score set or an explicit
// error list and zeroed scores.
type ItemResult struct {
	Index          int                `json:"index"`
	Input          string             `json:"input"`
	ActualOutput   map[string]any     `json:"actual_output,omitempty"`
	ExpectedOutput map[string]any     `json:"expected_output,omitempty"`
	Metrics        map[string]float64 `json:"metrics"`
	Errors         []string           `json:"errors,omitempty"`
	Success        bool               `json:"success"`
	Elapsed        time.Duration      `json:"elapsed_ns"`
}

// Summary aggregates a finished run.
type Summary struct {
	Total       int                `json:"total"`
	Failed      int                `json:"failed"`
	SuccessRate float64            `json:"success_rate"`
	MetricMeans map[string]float64 `json:"metric_means"`
	AvgElapsed  time.Duration      `json:"avg_elapsed_ns"`
}

// Report is the full outcome of one run: per-item results in dataset order
// plus summary statistics. Immutable once the run completes; it is the
// sole contract exposed to renderers.
type Report struct {
	Workflow string       `json:"workflow"`
	Model    string       `json:"model"`
	RunID    string       `json:"run_id"`
	Started  time.Time    `json:"started"`
	Items    []ItemResult `json:"items"`
	Summary  Summary      `json:"summary"`
}

// summarize computes aggregate statistics. The per-metric mean counts
// failed items as 0.0, so the denominator is always the processed item
// count.
func summarize(items []ItemResult, metricNames []string) Summary {
	s := Summary{
		Total:       len(items),
		MetricMeans: make(map[string]float64, len(metricNames)),
	}
	if len(items) == 0 {
		return s
	}

	sums := make(map[string]float64, len(metricNames))
	var elapsed time.Duration
	succeeded := 0

	for _, item := range items {
		if item.Success {
			succeeded++
		} else {
			s.Failed++
		}
		elapsed += item.Elapsed
		for _, name := range metricNames {
			sums[name] += item.Metrics[name]
		}
	}

	for _, name := range metricNames {
		s.MetricMeans[name] = sums[name] / float64(len(items))
	}
	s.SuccessRate = float64(succeeded) / float64(len(items))
	s.AvgElapsed = elapsed / time.Duration(len(items))
	return s
}
