// Package metrics scores workflow output against expectations. Every
// metric is an independent pure function from (input, actual, expected) to
// a score in [0,1]; a registry instance groups the metrics applicable to
// one workflow.
package metrics

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Metric scores one aspect of a workflow's output. Expected may be nil;
// metrics that need it report 0.0 rather than failing.
type Metric interface {
	Name() string
	Evaluate(input string, actual map[string]any, expected map[string]any) (float64, error)
}

// Registry holds the metric set for one workflow. It is an explicit
// instance handed to the runner, read-only after setup, so parallel runs
// can carry different metric sets.
type Registry struct {
	order   []string
	metrics map[string]Metric
	logger  *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		metrics: make(map[string]Metric),
		logger:  logger,
	}
}

// Register adds a metric. Registration order is preserved in reports.
func (r *Registry) Register(m Metric) error {
	name := m.Name()
	if name == "" {
		return errors.New("metric has no name")
	}
	if _, exists := r.metrics[name]; exists {
		return errors.Errorf("metric %q already registered", name)
	}
	r.metrics[name] = m
	r.order = append(r.order, name)
	return nil
}

// Names returns metric names in registration order.
func (r *Registry) Names() []string {
	return append([]string{}, r.order...)
}

// Zero returns an all-zero score map, used for failed items.
func (r *Registry) Zero() map[string]float64 {
	scores := make(map[string]float64, len(r.order))
	for _, name := range r.order {
		scores[name] = 0.0
	}
	return scores
}

// Evaluate runs every metric. No metric failure propagates: an error or
// panic becomes a 0.0 score with a logged reason, so one broken metric
// never aborts the run.
func (r *Registry) Evaluate(input string, actual, expected map[string]any) map[string]float64 {
	scores := make(map[string]float64, len(r.order))
	for _, name := range r.order {
		scores[name] = r.evaluateOne(r.metrics[name], input, actual, expected)
	}
	return scores
}

func (r *Registry) evaluateOne(m Metric, input string, actual, expected map[string]any) (score float64) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("metric panicked",
				zap.String("metric", m.Name()),
				zap.String("panic", fmt.Sprint(rec)))
			score = 0.0
		}
	}()

	score, err := m.Evaluate(input, actual, expected)
	if err != nil {
		r.logger.Error("metric failed",
			zap.String("metric", m.Name()),
			zap.Error(err))
		return 0.0
	}
	return clamp(score)
}

func clamp(score float64) float64 {
	if score < 0.0 {
		return 0.0
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}
