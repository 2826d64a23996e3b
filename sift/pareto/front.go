package pareto

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sift-al/sift-al/sift"
)

// Dominates reports whether objective vector a dominates b under
// minimization: a is no worse on every objective and strictly better on at
// least one. Equal vectors dominate neither way.
func Dominates(a, b []float64) bool {
	better := false
	for i := range a {
		if a[i] > b[i] {
			return false
		}
		if a[i] < b[i] {
			better = true
		}
	}
	return better
}

// nondominatedSort partitions objective vectors into fronts by dominance
// depth (Deb's fast non-dominated sort). fronts[0] holds the indices no
// vector dominates; rank[i] is the front index of vector i.
func nondominatedSort(objs [][]float64) (fronts [][]int, rank []int) {
	n := len(objs)
	dominated := make([][]int, n)
	domCount := make([]int, n)
	rank = make([]int, n)

	var current []int
	for p := 0; p < n; p++ {
		for q := 0; q < n; q++ {
			if p == q {
				continue
			}
			switch {
			case Dominates(objs[p], objs[q]):
				dominated[p] = append(dominated[p], q)
			case Dominates(objs[q], objs[p]):
				domCount[p]++
			}
		}
		if domCount[p] == 0 {
			current = append(current, p)
		}
	}
	for len(current) > 0 {
		fronts = append(fronts, current)
		var next []int
		for _, p := range current {
			for _, q := range dominated[p] {
				domCount[q]--
				if domCount[q] == 0 {
					rank[q] = len(fronts)
					next = append(next, q)
				}
			}
		}
		current = next
	}
	return fronts, rank
}

// crowdingAll assigns every vector its crowding distance within its front.
// Boundary vectors of each front get +Inf so selection always keeps the
// frontier extremes.
func crowdingAll(objs [][]float64, fronts [][]int) []float64 {
	crowd := make([]float64, len(objs))
	if len(objs) == 0 {
		return crowd
	}
	numObj := len(objs[0])
	for _, front := range fronts {
		if len(front) <= 2 {
			for _, i := range front {
				crowd[i] = math.Inf(1)
			}
			continue
		}
		order := append([]int(nil), front...)
		for m := 0; m < numObj; m++ {
			sort.SliceStable(order, func(a, b int) bool {
				return objs[order[a]][m] < objs[order[b]][m]
			})
			lo := objs[order[0]][m]
			hi := objs[order[len(order)-1]][m]
			crowd[order[0]] = math.Inf(1)
			crowd[order[len(order)-1]] = math.Inf(1)
			if hi == lo {
				continue
			}
			for k := 1; k < len(order)-1; k++ {
				crowd[order[k]] += (objs[order[k+1]][m] - objs[order[k-1]][m]) / (hi - lo)
			}
		}
	}
	return crowd
}

// frontierRows reduces the archived row indices to the sorted unique
// non-dominated frontier: rows are deduplicated by full-row equality after
// quantizing every value to tolerance, the survivors are filtered to those
// no archived row dominates, and the result is ordered ascending by the
// objective values.
func frontierRows(t *sift.Table, objVecs map[int][]float64, archive map[int]bool, tolerance float64) ([]int, error) {
	idx := make([]int, 0, len(archive))
	for row := range archive {
		idx = append(idx, row)
	}
	sort.Ints(idx)

	unique := make([]int, 0, len(idx))
	seen := make(map[string]bool, len(idx))
	for _, row := range idx {
		vals, err := t.Row(row)
		if err != nil {
			return nil, err
		}
		key := quantKey(vals, tolerance)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, row)
	}

	frontier := make([]int, 0, len(unique))
	for _, row := range unique {
		dominated := false
		for _, other := range unique {
			if other != row && Dominates(objVecs[other], objVecs[row]) {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, row)
		}
	}

	sort.SliceStable(frontier, func(a, b int) bool {
		va, vb := objVecs[frontier[a]], objVecs[frontier[b]]
		for m := range va {
			if va[m] != vb[m] {
				return va[m] < vb[m]
			}
		}
		return frontier[a] < frontier[b]
	})
	return frontier, nil
}

// quantKey builds a row-equality key with every value rounded to the
// nearest multiple of tolerance.
func quantKey(vals []float64, tolerance float64) string {
	var b strings.Builder
	for i, v := range vals {
		if i > 0 {
			b.WriteByte('|')
		}
		if math.IsNaN(v) {
			b.WriteString("nan")
			continue
		}
		b.WriteString(strconv.FormatFloat(math.Round(v/tolerance), 'g', -1, 64))
	}
	return b.String()
}
