// Package render turns an evaluation report into console and JSON views.
// The report structure is the only contract; renderers never reach back
// into the runner.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/flowbench/flowbench/internal/runner"
)

// Console writes a human-readable run summary.
func Console(w io.Writer, report *runner.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Workflow:\t%s\n", report.Workflow)
	if report.Model != "" {
		fmt.Fprintf(tw, "Model:\t%s\n", report.Model)
	}
	fmt.Fprintf(tw, "Run ID:\t%s\n", report.RunID)
	fmt.Fprintf(tw, "Items:\t%d\n", report.Summary.Total)
	fmt.Fprintf(tw, "Failed:\t%d\n", report.Summary.Failed)
	fmt.Fprintf(tw, "Success rate:\t%.2f%%\n", report.Summary.SuccessRate*100)
	fmt.Fprintf(tw, "Avg time:\t%s\n", report.Summary.AvgElapsed)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "Metric\tMean")
	for _, name := range sortedKeys(report.Summary.MetricMeans) {
		fmt.Fprintf(tw, "%s\t%.3f\n", name, report.Summary.MetricMeans[name])
	}

	failed := failedItems(report)
	if len(failed) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "Errors:")
		for _, item := range failed {
			fmt.Fprintf(tw, "  item %d:\t%s\n", item.Index, strings.Join(item.Errors, "; "))
		}
	}

	return errors.Wrap(tw.Flush(), "failed to render console report")
}

// JSON writes the full report as indented JSON.
func JSON(w io.Writer, report *runner.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(report), "failed to encode report")
}

// WriteJSONFile saves the JSON report to a file.
func WriteJSONFile(path string, report *runner.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create report file %s", path)
	}
	defer f.Close()
	return JSON(f, report)
}

func failedItems(report *runner.Report) []runner.ItemResult {
	var failed []runner.ItemResult
	for _, item := range report.Items {
		if len(item.Errors) > 0 {
			failed = append(failed, item)
		}
	}
	return failed
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
