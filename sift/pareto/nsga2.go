// Package pareto extracts Pareto-optimal experiment candidates with NSGA-II.
// Each individual carries a single integer gene, an index into the candidate
// table, so the search ranks existing rows rather than inventing new points.
// The frontier is the non-dominated subset of every row evaluated in any
// generation, deduplicated and sorted by the objective columns.
package pareto

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/sift-al/sift-al/sift"
)

// mutationRate is the per-offspring probability of reassigning the gene to
// a uniformly drawn candidate row.
const mutationRate = 0.1

type individual struct {
	gene int
	obj  []float64
}

// OptimizeFront evolves a population of row indices over the candidate
// table and returns the Pareto frontier as (objective columns only, full
// rows), both sorted ascending by the objective values. Rows with a
// non-finite value in any objective column are excluded up front, matching
// the treatment of incomplete experiment records elsewhere.
//
// Evolution stops at settings.Generations or as soon as the frontier holds
// settings.MinUniquePoints unique rows. Exhausting the budget short of the
// target returns the partial frontier with a warning, not an error.
func OptimizeFront(population *sift.Table, objectives []string, settings sift.ParetoSettings, seed int64) (*sift.Table, *sift.Table, error) {
	if population == nil || population.NumRows() == 0 {
		return nil, nil, fmt.Errorf("%w: candidate population is empty", sift.ErrInvalidArgument)
	}
	if len(objectives) < 2 {
		return nil, nil, fmt.Errorf("%w: need at least 2 objectives, got %d", sift.ErrInvalidArgument, len(objectives))
	}
	seen := make(map[string]bool, len(objectives))
	for _, name := range objectives {
		if seen[name] {
			return nil, nil, fmt.Errorf("%w: duplicate objective %q", sift.ErrInvalidArgument, name)
		}
		seen[name] = true
	}
	if settings.Population < 2 {
		return nil, nil, fmt.Errorf("%w: population must be at least 2, got %d", sift.ErrInvalidArgument, settings.Population)
	}
	if settings.Generations < 0 {
		return nil, nil, fmt.Errorf("%w: generations must be non-negative, got %d", sift.ErrInvalidArgument, settings.Generations)
	}
	if !(settings.Tolerance > 0) || math.IsInf(settings.Tolerance, 0) {
		return nil, nil, fmt.Errorf("%w: tolerance must be positive and finite, got %v", sift.ErrInvalidArgument, settings.Tolerance)
	}
	if err := population.RequireColumns(objectives...); err != nil {
		return nil, nil, err
	}

	objCols := make([][]float64, len(objectives))
	for k, name := range objectives {
		col, err := population.Column(name)
		if err != nil {
			return nil, nil, err
		}
		objCols[k] = col
	}

	// Candidate genes are the rows with finite values in every objective.
	candidates := make([]int, 0, population.NumRows())
	objVecs := make(map[int][]float64, population.NumRows())
	for row := 0; row < population.NumRows(); row++ {
		vec := make([]float64, len(objectives))
		ok := true
		for k := range objCols {
			v := objCols[k][row]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				ok = false
				break
			}
			vec[k] = v
		}
		if ok {
			candidates = append(candidates, row)
			objVecs[row] = vec
		}
	}
	if len(candidates) == 0 {
		return nil, nil, fmt.Errorf("%w: no candidate row has finite values in all objectives", sift.ErrInsufficientData)
	}
	if dropped := population.NumRows() - len(candidates); dropped > 0 {
		logrus.Debugf("Excluding %d candidate rows with non-finite objective values", dropped)
	}

	rng := rand.New(rand.NewSource(seed))
	pop := make([]individual, settings.Population)
	archive := make(map[int]bool, len(candidates))
	for i := range pop {
		gene := candidates[rng.Intn(len(candidates))]
		pop[i] = individual{gene: gene, obj: objVecs[gene]}
		archive[gene] = true
	}

	target := settings.MinUniquePoints
	gen := 0
	for ; gen < settings.Generations; gen++ {
		if target > 0 {
			frontier, err := frontierRows(population, objVecs, archive, settings.Tolerance)
			if err != nil {
				return nil, nil, err
			}
			if len(frontier) >= target {
				break
			}
		}

		ranks, crowd := rankPopulation(pop)
		offspring := make([]individual, 0, len(pop))
		for len(offspring) < len(pop) {
			p1 := tournament(pop, ranks, crowd, rng)
			p2 := tournament(pop, ranks, crowd, rng)
			gene := p1.gene
			if rng.Intn(2) == 1 {
				gene = p2.gene
			}
			if rng.Float64() < mutationRate {
				gene = candidates[rng.Intn(len(candidates))]
			}
			offspring = append(offspring, individual{gene: gene, obj: objVecs[gene]})
			archive[gene] = true
		}

		combined := make([]individual, 0, len(pop)+len(offspring))
		combined = append(combined, pop...)
		combined = append(combined, offspring...)
		pop = survivors(combined, settings.Population)
	}

	frontier, err := frontierRows(population, objVecs, archive, settings.Tolerance)
	if err != nil {
		return nil, nil, err
	}
	if target > 0 && len(frontier) < target {
		logrus.Warnf("Only %d unique Pareto points found (requested %d)", len(frontier), target)
	}
	logrus.Infof("Pareto frontier: %d unique points from %d evaluated rows after %d generations",
		len(frontier), len(archive), gen)

	inFrontier := make(map[int]bool, len(frontier))
	for _, row := range frontier {
		inFrontier[row] = true
	}
	// FilterRows preserves table order; re-sort by the objective tuple.
	full := population.FilterRows(func(row int) bool { return inFrontier[row] })
	if err := full.SortByColumns(objectives...); err != nil {
		return nil, nil, err
	}
	objOnly, err := full.Select(objectives...)
	if err != nil {
		return nil, nil, err
	}
	return objOnly, full, nil
}

// rankPopulation computes non-domination ranks and crowding distances for
// the current population.
func rankPopulation(pop []individual) ([]int, []float64) {
	objs := make([][]float64, len(pop))
	for i := range pop {
		objs[i] = pop[i].obj
	}
	fronts, rank := nondominatedSort(objs)
	return rank, crowdingAll(objs, fronts)
}

// tournament picks the better of two uniformly drawn individuals: lower
// rank first, then larger crowding distance, then the first drawn.
func tournament(pop []individual, rank []int, crowd []float64, rng *rand.Rand) individual {
	a := rng.Intn(len(pop))
	b := rng.Intn(len(pop))
	switch {
	case rank[a] < rank[b]:
		return pop[a]
	case rank[b] < rank[a]:
		return pop[b]
	case crowd[b] > crowd[a]:
		return pop[b]
	default:
		return pop[a]
	}
}

// survivors keeps the best n of the combined parent and offspring pool:
// whole fronts in rank order, with the last partial front cut by descending
// crowding distance.
func survivors(combined []individual, n int) []individual {
	objs := make([][]float64, len(combined))
	for i := range combined {
		objs[i] = combined[i].obj
	}
	fronts, _ := nondominatedSort(objs)
	crowd := crowdingAll(objs, fronts)

	next := make([]individual, 0, n)
	for _, front := range fronts {
		if len(next)+len(front) <= n {
			for _, i := range front {
				next = append(next, combined[i])
			}
			continue
		}
		order := append([]int(nil), front...)
		sortByCrowding(order, crowd)
		for _, i := range order {
			if len(next) == n {
				break
			}
			next = append(next, combined[i])
		}
		break
	}
	return next
}

func sortByCrowding(order []int, crowd []float64) {
	sort.SliceStable(order, func(a, b int) bool {
		return crowd[order[a]] > crowd[order[b]]
	})
}
