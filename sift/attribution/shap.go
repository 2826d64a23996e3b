// Package attribution explains trained surrogate models: permutation
// Shapley values with background marginalization, one-at-a-time
// sensitivity sweeps, partial dependence curves, and histogram mutual
// information between conditions and outcomes.
package attribution

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sift-al/sift-al/sift"
	"github.com/sift-al/sift-al/sift/surrogate"
)

// FeatureSummary aggregates one feature's contributions across samples.
type FeatureSummary struct {
	Feature string  `json:"feature"`
	MeanAbs float64 `json:"mean_abs"`
	Mean    float64 `json:"mean"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Explanation holds per-sample Shapley values for one model over one
// dataset. For every sample, Baseline plus the sample's row in Values sums
// to the model prediction for that sample.
type Explanation struct {
	Features    []string         `json:"features"`
	Baseline    float64          `json:"baseline"`
	Values      *sift.Table      `json:"-"`
	Predictions []float64        `json:"-"`
	Summary     []FeatureSummary `json:"summary"`
}

// Explain estimates Shapley values for every row of data by permutation
// sampling. Each permutation walks the model features in a random order,
// switching them one at a time from a background row's values to the
// sample's values; the prediction delta at each switch is that feature's
// marginal contribution. The same permutations and background rows are
// used for every sample, so contributions telescope exactly: baseline plus
// the contribution sum reproduces the prediction up to float rounding.
//
// The background is a seeded draw of at most settings.BackgroundRows rows
// from data. The whole explanation is a deterministic function of
// (model, data, settings, seed).
func Explain(model *surrogate.Model, data *sift.Table, settings sift.AttributionSettings, seed int64) (*Explanation, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: model is nil", sift.ErrInvalidArgument)
	}
	if data == nil || data.NumRows() == 0 {
		return nil, fmt.Errorf("%w: dataset is empty", sift.ErrInvalidArgument)
	}
	if settings.Permutations < 1 {
		return nil, fmt.Errorf("%w: permutations must be at least 1, got %d", sift.ErrInvalidArgument, settings.Permutations)
	}
	if settings.BackgroundRows < 1 {
		return nil, fmt.Errorf("%w: background_rows must be at least 1, got %d", sift.ErrInvalidArgument, settings.BackgroundRows)
	}
	features := model.Features()
	points, err := data.Select(features...)
	if err != nil {
		return nil, err
	}
	n := points.NumRows()
	d := len(features)
	perms := settings.Permutations

	rng := rand.New(rand.NewSource(seed))
	bgN := settings.BackgroundRows
	if bgN > n {
		bgN = n
	}
	bgIdx := rng.Perm(n)[:bgN]
	logrus.Debugf("Attributing %s over %d rows (%d permutations, %d background rows)",
		model.Target(), n, perms, bgN)

	// Draw the permutation orders and their background rows up front and
	// share them across samples. The baseline is then one fixed value and
	// every sample's contributions telescope against it exactly.
	orders := make([][]int, perms)
	bgRows := make([][]float64, perms)
	bgPreds := make([]float64, perms)
	for p := 0; p < perms; p++ {
		orders[p] = rng.Perm(d)
		row, err := points.Row(bgIdx[p%bgN])
		if err != nil {
			return nil, err
		}
		bgRows[p] = row
		bgPreds[p] = model.Predict(row)
	}
	baseline := stat.Mean(bgPreds, nil)

	phi := make([][]float64, d)
	for j := range phi {
		phi[j] = make([]float64, n)
	}
	preds := make([]float64, n)
	scratch := make([]float64, d)
	invP := 1.0 / float64(perms)
	for i := 0; i < n; i++ {
		x, err := points.Row(i)
		if err != nil {
			return nil, err
		}
		for p := 0; p < perms; p++ {
			copy(scratch, bgRows[p])
			prev := bgPreds[p]
			for _, j := range orders[p] {
				scratch[j] = x[j]
				cur := model.Predict(scratch)
				phi[j][i] += (cur - prev) * invP
				prev = cur
			}
		}
		preds[i] = model.Predict(x)
	}

	values, err := sift.NewTableFromColumns(features, phi)
	if err != nil {
		return nil, err
	}
	summary := make([]FeatureSummary, d)
	abs := make([]float64, n)
	for j, name := range features {
		col := phi[j]
		for i, v := range col {
			abs[i] = math.Abs(v)
		}
		summary[j] = FeatureSummary{
			Feature: name,
			MeanAbs: stat.Mean(abs, nil),
			Mean:    stat.Mean(col, nil),
			Min:     floats.Min(col),
			Max:     floats.Max(col),
		}
	}
	sort.SliceStable(summary, func(a, b int) bool {
		if summary[a].MeanAbs != summary[b].MeanAbs {
			return summary[a].MeanAbs > summary[b].MeanAbs
		}
		return summary[a].Feature < summary[b].Feature
	})

	return &Explanation{
		Features:    features,
		Baseline:    baseline,
		Values:      values,
		Predictions: preds,
		Summary:     summary,
	}, nil
}
