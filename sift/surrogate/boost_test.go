package surrogate

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sift-al/sift-al/sift"
)

// linearTable builds n rows with y = 3*x1 + 0.5*x2, no noise.
func linearTable(t *testing.T, n int, seed int64) *sift.Table {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	x1 := make([]float64, n)
	x2 := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x1[i] = rng.Float64() * 10
		x2[i] = rng.Float64() * 4
		y[i] = 3*x1[i] + 0.5*x2[i]
	}
	tbl, err := sift.NewTableFromColumns([]string{"x1", "x2", "y"}, [][]float64{x1, x2, y})
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func TestTrain_LearnsLinearTrend(t *testing.T) {
	tbl := linearTable(t, 60, 42)
	model, err := Train(tbl, []string{"x1", "x2"}, "y", DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	pred, err := model.PredictTable(tbl)
	if err != nil {
		t.Fatal(err)
	}
	truth, _ := tbl.Column("y")
	trainRMSE := RMSE(truth, pred)
	baseline := BaselineRMSE(truth)
	if trainRMSE >= baseline/2 {
		t.Errorf("training RMSE %.4f not well below baseline %.4f", trainRMSE, baseline)
	}
}

func TestTrain_DeterministicWithSubsampling(t *testing.T) {
	tbl := linearTable(t, 40, 7)
	cfg := Config{Trees: 30, Depth: 3, LearningRate: 0.1, MinLeaf: 2, Subsample: 0.7}

	m1, err := Train(tbl, []string{"x1", "x2"}, "y", cfg, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatal(err)
	}
	m2, err := Train(tbl, []string{"x1", "x2"}, "y", cfg, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatal(err)
	}
	probe := []float64{4.2, 1.1}
	if m1.Predict(probe) != m2.Predict(probe) {
		t.Errorf("identical seeds gave different predictions: %v vs %v", m1.Predict(probe), m2.Predict(probe))
	}
}

func TestTrain_SubsampleWithoutRNG_InvalidArgument(t *testing.T) {
	tbl := linearTable(t, 10, 1)
	cfg := DefaultConfig()
	cfg.Subsample = 0.5
	_, err := Train(tbl, []string{"x1"}, "y", cfg, nil)
	if !errors.Is(err, sift.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestTrain_EmptyFeatures_InvalidArgument(t *testing.T) {
	tbl := linearTable(t, 10, 1)
	_, err := Train(tbl, nil, "y", DefaultConfig(), nil)
	if !errors.Is(err, sift.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestTrain_EmptyTable_InvalidArgument(t *testing.T) {
	tbl, _ := sift.NewTable([]string{"x1", "y"})
	_, err := Train(tbl, []string{"x1"}, "y", DefaultConfig(), nil)
	if !errors.Is(err, sift.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestTrain_MissingColumn_SchemaMismatch(t *testing.T) {
	tbl := linearTable(t, 10, 1)
	_, err := Train(tbl, []string{"x1", "x9"}, "y", DefaultConfig(), nil)
	if !errors.Is(err, sift.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestTrain_BadConfig_InvalidArgument(t *testing.T) {
	tbl := linearTable(t, 10, 1)
	cfg := DefaultConfig()
	cfg.LearningRate = 0
	_, err := Train(tbl, []string{"x1"}, "y", cfg, nil)
	if !errors.Is(err, sift.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestModel_Predict_WrongArity_Panics(t *testing.T) {
	tbl := linearTable(t, 20, 2)
	model, err := Train(tbl, []string{"x1", "x2"}, "y", DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	assert.Panics(t, func() { model.Predict([]float64{1}) })
}

func TestModel_Predict_PureAndRepeatable(t *testing.T) {
	tbl := linearTable(t, 30, 3)
	model, _ := Train(tbl, []string{"x1", "x2"}, "y", DefaultConfig(), nil)
	probe := []float64{5, 2}
	first := model.Predict(probe)
	for i := 0; i < 5; i++ {
		if got := model.Predict(probe); got != first {
			t.Fatalf("prediction drifted between calls: %v vs %v", got, first)
		}
	}
}

func TestModel_PredictTable_MissingColumn_SchemaMismatch(t *testing.T) {
	tbl := linearTable(t, 20, 2)
	model, _ := Train(tbl, []string{"x1", "x2"}, "y", DefaultConfig(), nil)
	short, _ := tbl.Select("x1", "y")
	_, err := model.PredictTable(short)
	if !errors.Is(err, sift.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestTrainClassifier_SeparatesLabels(t *testing.T) {
	n := 80
	rng := rand.New(rand.NewSource(11))
	x := make([]float64, n)
	label := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = rng.Float64()*200 - 100
		if x[i] < 0 {
			label[i] = 1
		}
	}
	tbl, _ := sift.NewTableFromColumns([]string{"x", "bg"}, [][]float64{x, label})
	model, err := TrainClassifier(tbl, []string{"x"}, "bg", Config{Trees: 50, Depth: 2, LearningRate: 0.2, MinLeaf: 2, Subsample: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !model.Logistic() {
		t.Fatal("expected a logistic model")
	}
	if p := model.Predict([]float64{-50}); p < 0.9 {
		t.Errorf("P(bg | x=-50) = %.3f, want > 0.9", p)
	}
	if p := model.Predict([]float64{50}); p > 0.1 {
		t.Errorf("P(bg | x=50) = %.3f, want < 0.1", p)
	}
}

func TestTrainClassifier_NonBinaryTarget_InvalidArgument(t *testing.T) {
	tbl, _ := sift.NewTableFromColumns([]string{"x", "bg"}, [][]float64{{1, 2}, {0, 0.5}})
	_, err := TrainClassifier(tbl, []string{"x"}, "bg", DefaultConfig(), nil)
	if !errors.Is(err, sift.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := []Config{
		{Trees: 0, Depth: 3, LearningRate: 0.1, MinLeaf: 1, Subsample: 1},
		{Trees: 10, Depth: 0, LearningRate: 0.1, MinLeaf: 1, Subsample: 1},
		{Trees: 10, Depth: 3, LearningRate: 0, MinLeaf: 1, Subsample: 1},
		{Trees: 10, Depth: 3, LearningRate: 1.5, MinLeaf: 1, Subsample: 1},
		{Trees: 10, Depth: 3, LearningRate: 0.1, MinLeaf: 0, Subsample: 1},
		{Trees: 10, Depth: 3, LearningRate: 0.1, MinLeaf: 1, Subsample: 0},
		{Trees: 10, Depth: 3, LearningRate: 0.1, MinLeaf: 1, Subsample: 1.2},
	}
	for i, cfg := range bad {
		if err := cfg.Validate(); !errors.Is(err, sift.ErrInvalidArgument) {
			t.Errorf("config %d: expected ErrInvalidArgument, got %v", i, err)
		}
	}
}
