package attribution

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sift-al/sift-al/sift"
	"github.com/sift-al/sift-al/sift/internal/testutil"
	"github.com/sift-al/sift-al/sift/surrogate"
)

func trainedMgModel(t *testing.T, rows int) (*surrogate.Model, *sift.Table) {
	t.Helper()
	data := testutil.SyntheticRuns(t, rows, 42)
	features := []string{sift.ColTCold, sift.ColTHot, sift.ColInitMg, sift.ColInitCa}
	model, err := surrogate.Train(data, features, sift.ColFiniMg, surrogate.DefaultConfig(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	return model, data
}

// Baseline plus the contribution sum must reproduce each prediction.
func TestExplain_LocalAccuracy(t *testing.T) {
	model, data := trainedMgModel(t, 50)
	exp, err := Explain(model, data, sift.AttributionSettings{Permutations: 8, BackgroundRows: 20}, 7)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < exp.Values.NumRows(); i++ {
		row, err := exp.Values.Row(i)
		if err != nil {
			t.Fatal(err)
		}
		sum := exp.Baseline
		for _, phi := range row {
			sum += phi
		}
		testutil.AssertFloat64Equal(t, fmt.Sprintf("row %d reconstruction", i), exp.Predictions[i], sum, 1e-6)
	}
}

func TestExplain_DeterministicForSeed(t *testing.T) {
	model, data := trainedMgModel(t, 40)
	settings := sift.AttributionSettings{Permutations: 4, BackgroundRows: 10}
	a, err := Explain(model, data, settings, 3)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Explain(model, data, settings, 3)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, a.Baseline, b.Baseline)
	assert.Equal(t, a.Summary, b.Summary)
	for _, name := range a.Features {
		colA, _ := a.Values.Column(name)
		colB, _ := b.Values.Column(name)
		assert.Equal(t, colA, colB, "contribution column %s", name)
	}
}

func TestExplain_InformativeFeatureDominates(t *testing.T) {
	n := 40
	rng := rand.New(rand.NewSource(9))
	x1 := make([]float64, n)
	x2 := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x1[i] = float64(i)
		x2[i] = rng.Float64() * 100
		y[i] = 5 * x1[i]
	}
	tbl, err := sift.NewTableFromColumns([]string{"x1", "x2", "y"}, [][]float64{x1, x2, y})
	if err != nil {
		t.Fatal(err)
	}
	model, err := surrogate.Train(tbl, []string{"x1", "x2"}, "y", surrogate.DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	exp, err := Explain(model, tbl, sift.AttributionSettings{Permutations: 8, BackgroundRows: 20}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if exp.Summary[0].Feature != "x1" {
		t.Fatalf("expected x1 to rank first, got %q", exp.Summary[0].Feature)
	}
	if exp.Summary[0].MeanAbs < 5*exp.Summary[1].MeanAbs {
		t.Errorf("x1 mean |phi| %.3f does not dominate x2 mean |phi| %.3f",
			exp.Summary[0].MeanAbs, exp.Summary[1].MeanAbs)
	}
}

func TestExplain_ClassifierReconstruction(t *testing.T) {
	n := 30
	x := make([]float64, n)
	label := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = float64(i)
		if x[i] < 15 {
			label[i] = 1
		}
	}
	tbl, err := sift.NewTableFromColumns([]string{"x1", "bg"}, [][]float64{x, label})
	if err != nil {
		t.Fatal(err)
	}
	cfg := surrogate.Config{Trees: 50, Depth: 2, LearningRate: 0.2, MinLeaf: 1, Subsample: 1}
	model, err := surrogate.TrainClassifier(tbl, []string{"x1"}, "bg", cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	exp, err := Explain(model, tbl, sift.AttributionSettings{Permutations: 4, BackgroundRows: 10}, 11)
	if err != nil {
		t.Fatal(err)
	}
	if exp.Baseline <= 0 || exp.Baseline >= 1 {
		t.Errorf("classifier baseline %.4f outside (0, 1)", exp.Baseline)
	}
	for i := 0; i < exp.Values.NumRows(); i++ {
		row, _ := exp.Values.Row(i)
		sum := exp.Baseline
		for _, phi := range row {
			sum += phi
		}
		testutil.AssertFloat64Equal(t, fmt.Sprintf("row %d probability", i), exp.Predictions[i], sum, 1e-6)
	}
}

func TestExplain_MissingFeature_SchemaMismatch(t *testing.T) {
	model, _ := trainedMgModel(t, 30)
	narrow, err := sift.NewTableFromColumns([]string{sift.ColTCold}, [][]float64{{10, 12, 14}})
	if err != nil {
		t.Fatal(err)
	}
	_, err = Explain(model, narrow, sift.AttributionSettings{Permutations: 2, BackgroundRows: 2}, 1)
	if !errors.Is(err, sift.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestExplain_BadArguments_InvalidArgument(t *testing.T) {
	model, data := trainedMgModel(t, 20)
	empty, err := sift.NewTable([]string{"x1"})
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name     string
		model    *surrogate.Model
		data     *sift.Table
		settings sift.AttributionSettings
	}{
		{"nil model", nil, data, sift.AttributionSettings{Permutations: 2, BackgroundRows: 2}},
		{"empty data", model, empty, sift.AttributionSettings{Permutations: 2, BackgroundRows: 2}},
		{"zero permutations", model, data, sift.AttributionSettings{Permutations: 0, BackgroundRows: 2}},
		{"zero background rows", model, data, sift.AttributionSettings{Permutations: 2, BackgroundRows: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Explain(tc.model, tc.data, tc.settings, 1)
			if !errors.Is(err, sift.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}
