package attribution

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sift-al/sift-al/sift"
	"github.com/sift-al/sift-al/sift/surrogate"
)

// Sweep is a one-dimensional response curve: model predictions as a single
// feature moves across its range.
type Sweep struct {
	Feature     string    `json:"feature"`
	Values      []float64 `json:"values"`
	Predictions []float64 `json:"predictions"`
}

// Sensitivity sweeps each model feature across its bounds while pinning the
// remaining features at their dataset medians. Bounds come from space when
// it names the feature and from the observed data range otherwise.
func Sensitivity(model *surrogate.Model, data *sift.Table, space sift.ParameterSpace, steps int) ([]Sweep, error) {
	if err := checkSweepArgs(model, data, steps); err != nil {
		return nil, err
	}
	features := model.Features()
	points, err := data.Select(features...)
	if err != nil {
		return nil, err
	}

	medians := make([]float64, len(features))
	ranges := make([][2]float64, len(features))
	for j, name := range features {
		col, err := finiteColumn(points, name)
		if err != nil {
			return nil, err
		}
		sort.Float64s(col)
		medians[j] = stat.Quantile(0.5, stat.Empirical, col, nil)
		ranges[j] = [2]float64{col[0], col[len(col)-1]}
		if p, ok := space.Bounds(name); ok {
			ranges[j] = [2]float64{p.Min, p.Max}
		}
	}

	sweeps := make([]Sweep, len(features))
	point := make([]float64, len(features))
	for j, name := range features {
		copy(point, medians)
		values := linspace(ranges[j][0], ranges[j][1], steps)
		preds := make([]float64, steps)
		for k, v := range values {
			point[j] = v
			preds[k] = model.Predict(point)
		}
		sweeps[j] = Sweep{Feature: name, Values: values, Predictions: preds}
	}
	return sweeps, nil
}

// PartialDependence forces one feature to each of steps grid values across
// its observed range and averages the model prediction over every dataset
// row at each value.
func PartialDependence(model *surrogate.Model, data *sift.Table, feature string, steps int) (*Sweep, error) {
	if err := checkSweepArgs(model, data, steps); err != nil {
		return nil, err
	}
	features := model.Features()
	target := -1
	for j, name := range features {
		if name == feature {
			target = j
			break
		}
	}
	if target < 0 {
		return nil, fmt.Errorf("%w: %q is not a model feature", sift.ErrInvalidArgument, feature)
	}
	points, err := data.Select(features...)
	if err != nil {
		return nil, err
	}
	col, err := finiteColumn(points, feature)
	if err != nil {
		return nil, err
	}
	sort.Float64s(col)

	values := linspace(col[0], col[len(col)-1], steps)
	preds := make([]float64, steps)
	row := make([]float64, len(features))
	for k, v := range values {
		sum := 0.0
		for r := 0; r < points.NumRows(); r++ {
			base, err := points.Row(r)
			if err != nil {
				return nil, err
			}
			copy(row, base)
			row[target] = v
			sum += model.Predict(row)
		}
		preds[k] = sum / float64(points.NumRows())
	}
	return &Sweep{Feature: feature, Values: values, Predictions: preds}, nil
}

func checkSweepArgs(model *surrogate.Model, data *sift.Table, steps int) error {
	if model == nil {
		return fmt.Errorf("%w: model is nil", sift.ErrInvalidArgument)
	}
	if data == nil || data.NumRows() == 0 {
		return fmt.Errorf("%w: dataset is empty", sift.ErrInvalidArgument)
	}
	if steps < 2 {
		return fmt.Errorf("%w: steps must be at least 2, got %d", sift.ErrInvalidArgument, steps)
	}
	return nil
}

func finiteColumn(t *sift.Table, name string) ([]float64, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := col[:0]
	for _, v := range col {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: column %s has no finite values", sift.ErrInsufficientData, name)
	}
	return out, nil
}

func linspace(lo, hi float64, steps int) []float64 {
	vals := make([]float64, steps)
	span := hi - lo
	for k := range vals {
		vals[k] = lo + span*float64(k)/float64(steps-1)
	}
	return vals
}
