package surrogate

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/constraints"

	"github.com/sift-al/sift-al/sift"
)

// Range bounds one hyperparameter search dimension, inclusive on both ends.
type Range[T constraints.Integer | constraints.Float] struct {
	Min T `json:"min" yaml:"min"`
	Max T `json:"max" yaml:"max"`
}

// normalize maps v into [0, 1] within the range; degenerate ranges map to 0.
func (r Range[T]) normalize(v T) float64 {
	if r.Max == r.Min {
		return 0
	}
	return (float64(v) - float64(r.Min)) / (float64(r.Max) - float64(r.Min))
}

func (r Range[T]) check(name string) error {
	if r.Min > r.Max {
		return fmt.Errorf("%w: search space %s: min %v > max %v", sift.ErrInvalidArgument, name, r.Min, r.Max)
	}
	return nil
}

func randInt(r Range[int], rng *rand.Rand) int {
	if r.Max == r.Min {
		return r.Min
	}
	return r.Min + rng.Intn(r.Max-r.Min+1)
}

func randFloat(r Range[float64], rng *rand.Rand) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// SearchSpace bounds every tunable hyperparameter.
type SearchSpace struct {
	Trees        Range[int]     `json:"trees" yaml:"trees"`
	Depth        Range[int]     `json:"depth" yaml:"depth"`
	LearningRate Range[float64] `json:"learning_rate" yaml:"learning_rate"`
	MinLeaf      Range[int]     `json:"min_leaf" yaml:"min_leaf"`
	Subsample    Range[float64] `json:"subsample" yaml:"subsample"`
}

// DefaultSearchSpace returns the standard search bounds.
func DefaultSearchSpace() SearchSpace {
	return SearchSpace{
		Trees:        Range[int]{Min: 50, Max: 400},
		Depth:        Range[int]{Min: 2, Max: 6},
		LearningRate: Range[float64]{Min: 0.01, Max: 0.3},
		MinLeaf:      Range[int]{Min: 1, Max: 10},
		Subsample:    Range[float64]{Min: 0.5, Max: 1.0},
	}
}

// Validate checks the space bounds against Config's legal ranges.
func (s SearchSpace) Validate() error {
	if err := s.Trees.check("trees"); err != nil {
		return err
	}
	if err := s.Depth.check("depth"); err != nil {
		return err
	}
	if err := s.LearningRate.check("learning_rate"); err != nil {
		return err
	}
	if err := s.MinLeaf.check("min_leaf"); err != nil {
		return err
	}
	if err := s.Subsample.check("subsample"); err != nil {
		return err
	}
	corner := Config{
		Trees:        s.Trees.Min,
		Depth:        s.Depth.Min,
		LearningRate: s.LearningRate.Min,
		MinLeaf:      s.MinLeaf.Min,
		Subsample:    s.Subsample.Min,
	}
	return corner.Validate()
}

func (s SearchSpace) sample(rng *rand.Rand) Config {
	return Config{
		Trees:        randInt(s.Trees, rng),
		Depth:        randInt(s.Depth, rng),
		LearningRate: randFloat(s.LearningRate, rng),
		MinLeaf:      randInt(s.MinLeaf, rng),
		Subsample:    randFloat(s.Subsample, rng),
	}
}

// normalizeConfig maps a config to the unit hypercube the GP models.
func (s SearchSpace) normalizeConfig(c Config) []float64 {
	return []float64{
		s.Trees.normalize(c.Trees),
		s.Depth.normalize(c.Depth),
		s.LearningRate.normalize(c.LearningRate),
		s.MinLeaf.normalize(c.MinLeaf),
		s.Subsample.normalize(c.Subsample),
	}
}

// Trial is one evaluated hyperparameter combination.
type Trial struct {
	Config Config  `json:"config"`
	Score  float64 `json:"score"`
	Phase  string  `json:"phase"` // "random" or "gp"
}

// TuneResult is the outcome of a hyperparameter search.
type TuneResult struct {
	Best     Config  `json:"best"`
	Score    float64 `json:"score"`
	Baseline float64 `json:"baseline"`
	Trials   []Trial `json:"trials"`
}

// GP acquisition: posterior mean minus kappa standard deviations (the
// lower confidence bound, minimized).
const (
	gpKappa       = 1.96
	gpLengthScale = 0.25
	gpNoise       = 1e-6
)

// TuneHyperparameters searches the space for the config minimizing k-fold
// cross-validated RMSE on the target column. Phase 1 evaluates seeded random
// configs on a bounded worker pool; phase 2 refines with a Gaussian process
// over completed trials. The whole search is a deterministic function of
// (data, features, target, space, settings, seed): trial configs and fold
// assignments are drawn up front and results are slotted by trial index, so
// goroutine scheduling cannot reorder anything observable.
func TuneHyperparameters(data *sift.Table, features []string, target string, space SearchSpace, settings sift.TunerSettings, seed int64) (*TuneResult, error) {
	if err := space.Validate(); err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: no feature columns", sift.ErrInvalidArgument)
	}
	if data == nil || data.NumRows() == 0 {
		return nil, fmt.Errorf("%w: training table is empty", sift.ErrInvalidArgument)
	}
	if err := data.RequireColumns(append(append([]string{}, features...), target)...); err != nil {
		return nil, err
	}
	if settings.Trials < 0 {
		return nil, fmt.Errorf("%w: trials must be non-negative, got %d", sift.ErrInvalidArgument, settings.Trials)
	}
	// A zero budget is legal and surfaces below as ErrInsufficientData once
	// no trial has completed. Worker and candidate counts are operational
	// knobs, floored rather than rejected.
	workers := settings.Workers
	if workers < 1 {
		workers = 1
	}
	candidates := settings.Candidates
	if candidates < 1 {
		candidates = 1
	}
	warmupBudget := settings.InitialTrials
	if warmupBudget < 0 {
		warmupBudget = 0
	}

	rng := rand.New(rand.NewSource(seed))
	folds, err := KFoldIndices(data.NumRows(), settings.Folds, rng)
	if err != nil {
		return nil, err
	}
	truth, err := data.Column(target)
	if err != nil {
		return nil, err
	}
	result := &TuneResult{Baseline: BaselineRMSE(truth)}

	warmup := warmupBudget
	if warmup > settings.Trials {
		warmup = settings.Trials
	}
	logrus.Infof("Tuning %s: %d trials (%d random + %d gp-guided), %d-fold CV, %d rows",
		target, settings.Trials, warmup, settings.Trials-warmup, settings.Folds, data.NumRows())

	// Phase 1: seeded random warmup on a bounded worker pool. Configs and
	// per-trial seeds are drawn before any goroutine starts.
	configs := make([]Config, warmup)
	seeds := make([]int64, warmup)
	for i := range configs {
		configs[i] = space.sample(rng)
		seeds[i] = rng.Int63()
	}
	scores := make([]float64, warmup)
	errs := make([]error, warmup)
	semaphore := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := range configs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()
			trialRNG := rand.New(rand.NewSource(seeds[idx]))
			scores[idx], errs[idx] = CrossValidate(data, features, target, configs[idx], folds, trialRNG)
		}(i)
	}
	wg.Wait()
	for i := range configs {
		if errs[i] != nil {
			logrus.Warnf("Trial %d failed: %v", i, errs[i])
			continue
		}
		result.Trials = append(result.Trials, Trial{Config: configs[i], Score: scores[i], Phase: "random"})
		logrus.Debugf("Trial %d (random): score %.5f config %+v", i, scores[i], configs[i])
	}

	// Phase 2: GP-guided refinement over the completed trials.
	for t := warmup; t < settings.Trials; t++ {
		cfg := proposeNext(space, candidates, result.Trials, rng)
		trialRNG := rand.New(rand.NewSource(rng.Int63()))
		score, err := CrossValidate(data, features, target, cfg, folds, trialRNG)
		if err != nil {
			logrus.Warnf("Trial %d failed: %v", t, err)
			continue
		}
		result.Trials = append(result.Trials, Trial{Config: cfg, Score: score, Phase: "gp"})
		logrus.Debugf("Trial %d (gp): score %.5f config %+v", t, score, cfg)
	}

	if len(result.Trials) == 0 {
		return nil, fmt.Errorf("%w: no trial completed within the search budget", sift.ErrInsufficientData)
	}
	best := 0
	for i, trial := range result.Trials {
		if trial.Score < result.Trials[best].Score {
			best = i
		}
	}
	result.Best = result.Trials[best].Config
	result.Score = result.Trials[best].Score
	logrus.Infof("Tuning %s done: best score %.5f (baseline %.5f) after %d trials",
		target, result.Score, result.Baseline, len(result.Trials))
	return result, nil
}

// proposeNext picks the next config to try: the lower-confidence-bound
// minimizer among random candidates under a GP fit to past trials, falling
// back to pure random when the GP cannot be fit.
func proposeNext(space SearchSpace, candidates int, trials []Trial, rng *rand.Rand) Config {
	pool := make([]Config, candidates)
	for i := range pool {
		pool[i] = space.sample(rng)
	}
	if len(trials) == 0 {
		return pool[0]
	}
	model := newGP(gpLengthScale, gpNoise)
	for _, trial := range trials {
		model.add(space.normalizeConfig(trial.Config), trial.Score)
	}
	if err := model.fit(); err != nil {
		logrus.Debugf("GP fit failed (%v); falling back to random proposal", err)
		return pool[0]
	}
	best := 0
	bestAcq := math.Inf(1)
	for i, cfg := range pool {
		mean, std := model.predict(space.normalizeConfig(cfg))
		if acq := mean - gpKappa*std; acq < bestAcq {
			bestAcq = acq
			best = i
		}
	}
	return pool[best]
}
