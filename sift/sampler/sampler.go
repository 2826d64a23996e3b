// Package sampler generates candidate experiment conditions within a
// bounded parameter space. Latin Hypercube sampling is the default; uniform
// sampling exists as a baseline comparator.
package sampler

import (
	"fmt"
	"math/rand"

	"github.com/sift-al/sift-al/sift"
)

// Sample generates cfg.Points candidate vectors inside the space using the
// configured method. The result has one column per parameter in space order.
// The seed is the sole source of randomness: identical (space, cfg, seed)
// inputs produce bit-identical tables.
func Sample(space sift.ParameterSpace, cfg sift.SamplerSettings, seed int64) (*sift.Table, error) {
	rng := rand.New(rand.NewSource(seed))
	switch cfg.Method {
	case sift.SamplerLatinHypercube, "":
		return LatinHypercube(space, cfg.Points, rng)
	case sift.SamplerUniform:
		return Uniform(space, cfg.Points, rng)
	default:
		return nil, fmt.Errorf("%w: unknown sampler method %q; valid: lhs, uniform", sift.ErrInvalidArgument, cfg.Method)
	}
}

// SampleConditions runs Sample and appends the derived delta_T column when
// the space contains both temperature setpoints. This is the candidate
// table the surrogate models score.
func SampleConditions(space sift.ParameterSpace, cfg sift.SamplerSettings, seed int64) (*sift.Table, error) {
	tbl, err := Sample(space, cfg, seed)
	if err != nil {
		return nil, err
	}
	if err := sift.DeriveDeltaT(tbl); err != nil {
		return nil, err
	}
	return tbl, nil
}

// LatinHypercube draws points rows with one value per stratum per dimension:
// each dimension's range splits into points equal strata, every stratum
// receives exactly one uniform draw, and stratum order is permuted
// independently per dimension.
func LatinHypercube(space sift.ParameterSpace, points int, rng *rand.Rand) (*sift.Table, error) {
	if err := validate(space, points, rng); err != nil {
		return nil, err
	}
	n := float64(points)
	cols := make([][]float64, space.Dim())
	for d, p := range space {
		perm := rng.Perm(points)
		col := make([]float64, points)
		for i := 0; i < points; i++ {
			u := rng.Float64()
			col[i] = p.Min + (float64(perm[i])+u)/n*(p.Max-p.Min)
		}
		cols[d] = col
	}
	return sift.NewTableFromColumns(space.Names(), cols)
}

// Uniform draws every cell independently and uniformly within its
// dimension's bounds.
func Uniform(space sift.ParameterSpace, points int, rng *rand.Rand) (*sift.Table, error) {
	if err := validate(space, points, rng); err != nil {
		return nil, err
	}
	cols := make([][]float64, space.Dim())
	for d, p := range space {
		col := make([]float64, points)
		for i := 0; i < points; i++ {
			col[i] = p.Min + rng.Float64()*(p.Max-p.Min)
		}
		cols[d] = col
	}
	return sift.NewTableFromColumns(space.Names(), cols)
}

func validate(space sift.ParameterSpace, points int, rng *rand.Rand) error {
	if rng == nil {
		return fmt.Errorf("%w: rng is nil", sift.ErrInvalidArgument)
	}
	if points <= 0 {
		return fmt.Errorf("%w: points must be positive, got %d", sift.ErrInvalidArgument, points)
	}
	return space.Validate()
}
