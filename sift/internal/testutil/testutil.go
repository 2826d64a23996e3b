// Package testutil provides shared test infrastructure for the SIFT
// pipeline: float comparison with relative tolerance and a deterministic
// synthetic crystallization dataset used across subpackage tests.
package testutil

import (
	"math"
	"math/rand"
	"testing"

	"github.com/sift-al/sift-al/sift"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// SyntheticRuns builds a deterministic synthetic SIFT dataset with the full
// canonical schema. Outcomes follow smooth functions of the conditions plus
// small noise, so surrogate models can learn them from few rows. Roughly one
// run in ten is flagged unsuccessful.
func SyntheticRuns(t *testing.T, n int, seed int64) *sift.Table {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	space := sift.DefaultConditionSpace()

	cols := append(space.Names(),
		sift.ColFiniMg, sift.ColFiniCa, sift.ColFiniK, sift.ColFiniNa,
		sift.ColFiniLiPurity, sift.ColSuccess)
	tbl, err := sift.NewTable(cols)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < n; i++ {
		point := make(map[string]float64, space.Dim())
		row := make([]float64, 0, len(cols))
		for _, p := range space {
			v := p.Min + rng.Float64()*(p.Max-p.Min)
			point[p.Name] = v
			row = append(row, v)
		}
		deltaT := point[sift.ColTHot] - point[sift.ColTCold]
		noise := func(scale float64) float64 { return rng.NormFloat64() * scale }

		mg := math.Max(0, 0.25*point[sift.ColInitMg]+100-1.1*deltaT+noise(2))
		ca := math.Max(0, 0.30*point[sift.ColInitCa]+60-0.5*deltaT+noise(2))
		k := math.Max(0, 0.10*point[sift.ColInitK]+2+noise(0.5))
		na := math.Max(0, 0.20*point[sift.ColInitNa]+30+noise(3))
		purity := math.Min(99.99, 99.9-0.002*(mg+ca)+noise(0.01))
		success := 1.0
		if rng.Float64() < 0.1 {
			success = 0
		}

		row = append(row, mg, ca, k, na, purity, success)
		if err := tbl.AppendRow(row); err != nil {
			t.Fatal(err)
		}
	}
	return tbl
}
