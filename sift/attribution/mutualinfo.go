package attribution

import (
	"fmt"
	"math"
	"sort"

	"github.com/sift-al/sift-al/sift"
)

// MIScore pairs a feature with its estimated mutual information against an
// outcome, in nats.
type MIScore struct {
	Feature string  `json:"feature"`
	Score   float64 `json:"score"`
}

// MutualInformation estimates the mutual information between each feature
// and the target with an equal-width two-dimensional histogram. Rows with a
// non-finite value in either column are skipped pairwise. Scores come back
// sorted descending, ties broken by feature name.
func MutualInformation(data *sift.Table, features []string, target string, bins int) ([]MIScore, error) {
	if data == nil || data.NumRows() == 0 {
		return nil, fmt.Errorf("%w: dataset is empty", sift.ErrInvalidArgument)
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: no feature columns", sift.ErrInvalidArgument)
	}
	if bins < 2 {
		return nil, fmt.Errorf("%w: bins must be at least 2, got %d", sift.ErrInvalidArgument, bins)
	}
	if err := data.RequireColumns(append(append([]string{}, features...), target)...); err != nil {
		return nil, err
	}
	ty, err := data.Column(target)
	if err != nil {
		return nil, err
	}

	scores := make([]MIScore, 0, len(features))
	for _, name := range features {
		fx, err := data.Column(name)
		if err != nil {
			return nil, err
		}
		mi, used := histogramMI(fx, ty, bins)
		if used < 2 {
			return nil, fmt.Errorf("%w: fewer than 2 complete rows for %s vs %s", sift.ErrInsufficientData, name, target)
		}
		scores = append(scores, MIScore{Feature: name, Score: mi})
	}
	sort.SliceStable(scores, func(a, b int) bool {
		if scores[a].Score != scores[b].Score {
			return scores[a].Score > scores[b].Score
		}
		return scores[a].Feature < scores[b].Feature
	})
	return scores, nil
}

// histogramMI is the plug-in estimator over pairwise-complete rows. It
// returns the estimate and the number of rows used.
func histogramMI(x, y []float64, bins int) (float64, int) {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if finitePair(x[i], y[i]) {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}
	n := len(xs)
	if n == 0 {
		return 0, 0
	}
	bx := binIndices(xs, bins)
	by := binIndices(ys, bins)
	joint := make([]float64, bins*bins)
	cx := make([]float64, bins)
	cy := make([]float64, bins)
	for i := 0; i < n; i++ {
		joint[bx[i]*bins+by[i]]++
		cx[bx[i]]++
		cy[by[i]]++
	}
	total := float64(n)
	mi := 0.0
	for ix := 0; ix < bins; ix++ {
		for iy := 0; iy < bins; iy++ {
			c := joint[ix*bins+iy]
			if c == 0 {
				continue
			}
			mi += (c / total) * math.Log(c*total/(cx[ix]*cy[iy]))
		}
	}
	return mi, n
}

func finitePair(a, b float64) bool {
	return !math.IsNaN(a) && !math.IsInf(a, 0) && !math.IsNaN(b) && !math.IsInf(b, 0)
}

// binIndices maps values to equal-width bins over their observed range. A
// constant column collapses into bin zero.
func binIndices(v []float64, bins int) []int {
	lo, hi := v[0], v[0]
	for _, x := range v {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	idx := make([]int, len(v))
	if hi == lo {
		return idx
	}
	width := (hi - lo) / float64(bins)
	for i, x := range v {
		b := int((x - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		idx[i] = b
	}
	return idx
}
