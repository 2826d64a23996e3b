package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/sift-al/sift-al/sift"
	"github.com/sift-al/sift-al/sift/attribution"
	"github.com/sift-al/sift-al/sift/surrogate"
)

// ObjectiveReport records how one objective was modeled: the tuned
// hyperparameters, the cross-validated error against the constant-mean
// baseline, and which features drive the prediction.
type ObjectiveReport struct {
	Objective   string                       `json:"objective"`
	CVError     float64                      `json:"cv_error"`
	Baseline    float64                      `json:"baseline"`
	Config      surrogate.Config             `json:"config"`
	TopFeatures []attribution.FeatureSummary `json:"top_features"`
	MutualInfo  []attribution.MIScore        `json:"mutual_info"`
}

// GradeReport records the battery-grade classifier. CVLogLoss is omitted
// when the dataset was too small to cross-validate.
type GradeReport struct {
	PositiveRate float64  `json:"positive_rate"`
	CVLogLoss    *float64 `json:"cv_log_loss,omitempty"`
}

// Report aggregates everything a study produces: dataset shape, per-objective
// model quality and attribution, the classifier, and the proposed frontier
// candidates. Marshals cleanly to JSON; every embedded value is finite.
type Report struct {
	Rows            int               `json:"rows"`
	DroppedRuns     int               `json:"dropped_runs"`
	Features        []string          `json:"features"`
	Summary         sift.DataSummary  `json:"summary"`
	Missing         map[string]int    `json:"missing,omitempty"`
	Objectives      []ObjectiveReport `json:"objectives"`
	Grade           *GradeReport      `json:"grade,omitempty"`
	FrontierColumns []string          `json:"frontier_columns"`
	Frontier        [][]float64       `json:"frontier"`
	Warnings        []string          `json:"warnings,omitempty"`
}

// FrontierTable rebuilds the frontier rows as a Table, column order matching
// FrontierColumns.
func (r *Report) FrontierTable() (*sift.Table, error) {
	t, err := sift.NewTable(r.FrontierColumns)
	if err != nil {
		return nil, err
	}
	for _, row := range r.Frontier {
		if err := t.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Save writes the report as indented JSON.
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Print displays the study results at the end of a run.
func (r *Report) Print() {
	fmt.Println("=== SIFT Study Report ===")
	fmt.Printf("Analysis Rows        : %d\n", r.Rows)
	fmt.Printf("Dropped Runs         : %d\n", r.DroppedRuns)
	fmt.Printf("Features             : %d\n", len(r.Features))
	for _, obj := range r.Objectives {
		fmt.Printf("Surrogate %-11s: CV RMSE %.4f (baseline %.4f)\n", obj.Objective, obj.CVError, obj.Baseline)
		if len(obj.TopFeatures) > 0 {
			fmt.Printf("  Top Feature        : %s (mean |phi| %.4f)\n",
				obj.TopFeatures[0].Feature, obj.TopFeatures[0].MeanAbs)
		}
	}
	if r.Grade != nil {
		fmt.Printf("Battery-Grade Rate   : %.1f%%\n", r.Grade.PositiveRate*100)
		if r.Grade.CVLogLoss != nil {
			fmt.Printf("Classifier Log-Loss  : %.4f\n", *r.Grade.CVLogLoss)
		}
	}
	fmt.Printf("Frontier Points      : %d\n", len(r.Frontier))
	for _, obj := range r.Objectives {
		col := r.frontierColumn(obj.Objective)
		if len(col) == 0 {
			continue
		}
		sort.Float64s(col)
		fmt.Printf("  Median %-12s: %.4f (best %.4f)\n", obj.Objective, percentileOf(col, 50), col[0])
	}
	for _, w := range r.Warnings {
		fmt.Printf("Warning              : %s\n", w)
	}
}

// frontierColumn copies one named column out of the frontier rows.
func (r *Report) frontierColumn(name string) []float64 {
	idx := -1
	for i, col := range r.FrontierColumns {
		if col == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]float64, len(r.Frontier))
	for i, row := range r.Frontier {
		out[i] = row[idx]
	}
	return out
}

type number interface {
	int | int64 | float64
}

// percentileOf calculates the p-th percentile of a sorted data list with
// linear rank interpolation.
func percentileOf[T number](data []T, p float64) float64 {
	n := len(data)
	if n == 0 {
		return math.NaN()
	}
	rank := p / 100.0 * float64(n-1)
	lowerIdx := int(math.Floor(rank))
	upperIdx := int(math.Ceil(rank))
	if lowerIdx == upperIdx || upperIdx >= n {
		return float64(data[lowerIdx])
	}
	lowerVal := data[lowerIdx]
	upperVal := data[upperIdx]
	return float64(lowerVal) + float64(upperVal-lowerVal)*(rank-float64(lowerIdx))
}

// meanOf calculates the mean of a data list.
func meanOf[T number](numbers []T) float64 {
	if len(numbers) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, number := range numbers {
		sum += float64(number)
	}
	return sum / float64(len(numbers))
}
