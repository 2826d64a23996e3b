// Package surrogate trains gradient-boosted regression trees on experiment
// tables: squared-loss boosting for continuous outcomes and logistic-loss
// boosting for the binary battery-grade classifier. Hyperparameters are
// found by a seeded two-phase search (random warmup, then Gaussian-process
// guided refinement) scored with k-fold cross validation.
package surrogate

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/sift-al/sift-al/sift"
)

// Config holds the boosted-tree hyperparameters.
type Config struct {
	Trees        int     `json:"trees" yaml:"trees"`
	Depth        int     `json:"depth" yaml:"depth"`
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`
	MinLeaf      int     `json:"min_leaf" yaml:"min_leaf"`
	Subsample    float64 `json:"subsample" yaml:"subsample"`
}

// DefaultConfig returns the untuned starting hyperparameters.
func DefaultConfig() Config {
	return Config{Trees: 100, Depth: 3, LearningRate: 0.1, MinLeaf: 1, Subsample: 1.0}
}

// Validate checks hyperparameter ranges.
func (c Config) Validate() error {
	if c.Trees < 1 {
		return fmt.Errorf("%w: trees must be at least 1, got %d", sift.ErrInvalidArgument, c.Trees)
	}
	if c.Depth < 1 {
		return fmt.Errorf("%w: depth must be at least 1, got %d", sift.ErrInvalidArgument, c.Depth)
	}
	if !(c.LearningRate > 0 && c.LearningRate <= 1) {
		return fmt.Errorf("%w: learning_rate must be in (0, 1], got %v", sift.ErrInvalidArgument, c.LearningRate)
	}
	if c.MinLeaf < 1 {
		return fmt.Errorf("%w: min_leaf must be at least 1, got %d", sift.ErrInvalidArgument, c.MinLeaf)
	}
	if !(c.Subsample > 0 && c.Subsample <= 1) {
		return fmt.Errorf("%w: subsample must be in (0, 1], got %v", sift.ErrInvalidArgument, c.Subsample)
	}
	return nil
}

// Model is an immutable fitted boosted-tree ensemble. Regression models
// predict the outcome directly; logistic models predict the positive-class
// probability.
type Model struct {
	features []string
	target   string
	config   Config
	logistic bool
	baseline float64
	trees    []*regTree
}

// Features returns the feature columns the model was trained on, in input
// order. Predict expects points in this order.
func (m *Model) Features() []string {
	return append([]string(nil), m.features...)
}

// Target returns the name of the modeled outcome column.
func (m *Model) Target() string {
	return m.target
}

// Config returns the hyperparameters the model was trained with.
func (m *Model) Config() Config {
	return m.config
}

// Logistic reports whether the model predicts probabilities.
func (m *Model) Logistic() bool {
	return m.logistic
}

// Predict returns the model output for one point in Features() order.
// Panics if the point has the wrong dimension, matching gonum's convention
// for shape errors on hot paths.
func (m *Model) Predict(point []float64) float64 {
	if len(point) != len(m.features) {
		panic(fmt.Sprintf("surrogate: point has %d values, model expects %d", len(point), len(m.features)))
	}
	score := m.baseline
	for _, t := range m.trees {
		score += t.predict(point)
	}
	if m.logistic {
		return sigmoid(score)
	}
	return score
}

// PredictTable scores every row of the table. The table must carry all
// model features.
func (m *Model) PredictTable(t *sift.Table) ([]float64, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: table is nil", sift.ErrInvalidArgument)
	}
	if err := t.RequireColumns(m.features...); err != nil {
		return nil, err
	}
	sel, err := t.Select(m.features...)
	if err != nil {
		return nil, err
	}
	out := make([]float64, sel.NumRows())
	for r := 0; r < sel.NumRows(); r++ {
		row, _ := sel.Row(r)
		out[r] = m.Predict(row)
	}
	return out, nil
}

// Train fits a squared-loss boosted-tree regressor for the target column.
// The rng drives row subsampling and may be nil when cfg.Subsample == 1;
// training is deterministic given (data, features, target, cfg, rng state).
func Train(data *sift.Table, features []string, target string, cfg Config, rng *rand.Rand) (*Model, error) {
	X, y, err := designMatrix(data, features, target, cfg, rng)
	if err != nil {
		return nil, err
	}
	m := &Model{
		features: append([]string(nil), features...),
		target:   target,
		config:   cfg,
		baseline: stat.Mean(y, nil),
	}
	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = m.baseline
	}
	residual := make([]float64, len(y))
	for i := 0; i < cfg.Trees; i++ {
		for j := range y {
			residual[j] = y[j] - pred[j]
		}
		tree := &regTree{maxDepth: cfg.Depth, minLeaf: cfg.MinLeaf}
		idx := subsampleRows(len(y), cfg.Subsample, rng)
		tree.fit(X, residual, idx)
		scaleLeaves(tree, cfg.LearningRate)
		for j := range y {
			pred[j] += tree.predict(X[j])
		}
		m.trees = append(m.trees, tree)
	}
	return m, nil
}

// TrainClassifier fits a logistic-loss boosted-tree classifier. The target
// column must hold 0/1 labels; Predict returns P(label == 1).
func TrainClassifier(data *sift.Table, features []string, target string, cfg Config, rng *rand.Rand) (*Model, error) {
	X, y, err := designMatrix(data, features, target, cfg, rng)
	if err != nil {
		return nil, err
	}
	pos := 0
	for _, v := range y {
		switch v {
		case 0, 1:
		default:
			return nil, fmt.Errorf("%w: classifier target %q must be 0 or 1, got %v", sift.ErrInvalidArgument, target, v)
		}
		if v == 1 {
			pos++
		}
	}
	p := clampProb(float64(pos) / float64(len(y)))
	m := &Model{
		features: append([]string(nil), features...),
		target:   target,
		config:   cfg,
		logistic: true,
		baseline: math.Log(p / (1 - p)),
	}
	score := make([]float64, len(y))
	for i := range score {
		score[i] = m.baseline
	}
	residual := make([]float64, len(y))
	for i := 0; i < cfg.Trees; i++ {
		for j := range y {
			residual[j] = y[j] - sigmoid(score[j])
		}
		tree := &regTree{maxDepth: cfg.Depth, minLeaf: cfg.MinLeaf}
		idx := subsampleRows(len(y), cfg.Subsample, rng)
		assign := tree.fit(X, residual, idx)

		// Newton step per leaf: sum(residual) / sum(p(1-p)).
		num := make(map[int]float64)
		den := make(map[int]float64)
		for _, j := range idx {
			leaf := assign[j]
			pj := sigmoid(score[j])
			num[leaf] += residual[j]
			den[leaf] += pj * (1 - pj)
		}
		values := make(map[int]float64, len(num))
		for leaf, n := range num {
			values[leaf] = cfg.LearningRate * n / (den[leaf] + 1e-12)
		}
		tree.setLeafValues(values)

		for j := range y {
			score[j] += tree.predict(X[j])
		}
		m.trees = append(m.trees, tree)
	}
	return m, nil
}

func designMatrix(data *sift.Table, features []string, target string, cfg Config, rng *rand.Rand) ([][]float64, []float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if len(features) == 0 {
		return nil, nil, fmt.Errorf("%w: no feature columns", sift.ErrInvalidArgument)
	}
	if data == nil || data.NumRows() == 0 {
		return nil, nil, fmt.Errorf("%w: training table is empty", sift.ErrInvalidArgument)
	}
	if cfg.Subsample < 1 && rng == nil {
		return nil, nil, fmt.Errorf("%w: subsample %v requires an rng", sift.ErrInvalidArgument, cfg.Subsample)
	}
	cols := append(append([]string{}, features...), target)
	sel, err := data.Select(cols...)
	if err != nil {
		return nil, nil, err
	}
	X := make([][]float64, sel.NumRows())
	y := make([]float64, sel.NumRows())
	for r := 0; r < sel.NumRows(); r++ {
		row, _ := sel.Row(r)
		X[r] = row[:len(features)]
		y[r] = row[len(features)]
	}
	return X, y, nil
}

func subsampleRows(n int, fraction float64, rng *rand.Rand) []int {
	if fraction >= 1 || rng == nil {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	k := int(math.Ceil(fraction * float64(n)))
	if k < 1 {
		k = 1
	}
	perm := rng.Perm(n)[:k]
	return perm
}

func scaleLeaves(t *regTree, lr float64) {
	var walk func(n *treeNode)
	walk = func(n *treeNode) {
		if n.leaf {
			n.value *= lr
			return
		}
		walk(n.left)
		walk(n.right)
	}
	walk(t.root)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clampProb(p float64) float64 {
	return math.Min(1-1e-9, math.Max(1e-9, p))
}
