// Package runner drives a workflow across a dataset and aggregates the
// results into an evaluation report.
package runner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/flowbench/flowbench/internal/dataset"
	"github.com/flowbench/flowbench/internal/workflow"
)

const (
	defaultConcurrency = 1
	defaultItemTimeout = 60 * time.Second
)

// Options control one run.
type Options struct {
	// MaxItems processes only the first N dataset items; 0 means all.
	MaxItems int
	// Concurrency bounds the number of items in flight; external API rate
	// limits are the reason this stays small.
	Concurrency int
	// ItemTimeout bounds each item's end-to-end execution.
	ItemTimeout time.Duration
	// Model is recorded in the report for traceability.
	Model string
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = defaultConcurrency
	}
	if o.ItemTimeout <= 0 {
		o.ItemTimeout = defaultItemTimeout
	}
	return o
}

// Runner evaluates datasets against one workflow.
type Runner struct {
	wf     *workflow.Workflow
	logger *zap.Logger
}

// New creates a runner for a loaded workflow.
func New(wf *workflow.Workflow, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{wf: wf, logger: logger}
}

// Run evaluates the dataset. Items execute under a bounded worker pool;
// each result lands at its dataset index, so report order always matches
// dataset order regardless of completion order. One item's failure is
// recorded and the run continues. Cancelling ctx stops launching new
// items while in-flight items finish or time out on their own.
func (r *Runner) Run(ctx context.Context, items []dataset.Item, opts Options) (*Report, error) {
	opts = opts.withDefaults()

	if opts.MaxItems > 0 && opts.MaxItems < len(items) {
		items = items[:opts.MaxItems]
	}

	report := &Report{
		Workflow: r.wf.Name,
		Model:    opts.Model,
		RunID:    uuid.New().String(),
		Started:  time.Now().UTC(),
		Items:    make([]ItemResult, len(items)),
	}

	r.logger.Info("starting run",
		zap.String("workflow", r.wf.Name),
		zap.String("run_id", report.RunID),
		zap.Int("items", len(items)),
		zap.Int("concurrency", opts.Concurrency))

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)

	for i := range items {
		if err := ctx.Err(); err != nil {
			// Stop launching; items not yet started are recorded as cancelled.
			for j := i; j < len(items); j++ {
				report.Items[j] = r.cancelledResult(j, items[j])
			}
			break
		}

		i := i
		g.Go(func() error {
			report.Items[i] = r.runItem(ctx, i, items[i], opts)
			return nil
		})
	}

	// Workers never return errors; Wait only synchronizes completion.
	_ = g.Wait()

	report.Summary = summarize(report.Items, r.wf.Metrics.Names())

	r.logger.Info("run finished",
		zap.String("run_id", report.RunID),
		zap.Int("failed", report.Summary.Failed),
		zap.Float64("success_rate", report.Summary.SuccessRate))
	return report, nil
}

// runItem executes, validates, and scores one dataset item. Failures stay
// inside the returned result.
func (r *Runner) runItem(ctx context.Context, index int, item dataset.Item, opts Options) ItemResult {
	started := time.Now()
	result := ItemResult{
		Index:          index,
		Input:          item.Input,
		ExpectedOutput: item.ExpectedOutput,
	}

	// In-flight items run to completion on their own deadline even when
	// the run itself is cancelled.
	itemCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), opts.ItemTimeout)
	defer cancel()

	raw, err := r.wf.Execute(itemCtx, item.Input)
	if err != nil {
		r.logger.Warn("item execution failed",
			zap.Int("index", index),
			zap.Error(err))
		result.Errors = append(result.Errors, err.Error())
		result.Metrics = r.wf.Metrics.Zero()
		result.Elapsed = time.Since(started)
		return result
	}
	result.ActualOutput = raw

	validated, err := r.wf.Schema.Validate(raw)
	if err != nil {
		r.logger.Warn("item output failed schema validation",
			zap.Int("index", index),
			zap.Error(err))
		result.Errors = append(result.Errors, err.Error())
		result.Metrics = r.wf.Metrics.Zero()
		result.Elapsed = time.Since(started)
		return result
	}
	result.ActualOutput = validated

	result.Metrics = r.wf.Metrics.Evaluate(item.Input, validated, item.ExpectedOutput)
	result.Success = true
	result.Elapsed = time.Since(started)
	return result
}

func (r *Runner) cancelledResult(index int, item dataset.Item) ItemResult {
	return ItemResult{
		Index:          index,
		Input:          item.Input,
		ExpectedOutput: item.ExpectedOutput,
		Metrics:        r.wf.Metrics.Zero(),
		Errors:         []string{"run cancelled before item started"},
	}
}
