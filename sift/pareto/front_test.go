package pareto

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDominates(t *testing.T) {
	cases := []struct {
		name string
		a, b []float64
		want bool
	}{
		{"strictly better on all", []float64{1, 1}, []float64{2, 2}, true},
		{"better on one, equal on other", []float64{1, 2}, []float64{2, 2}, true},
		{"equal vectors", []float64{2, 2}, []float64{2, 2}, false},
		{"worse on one", []float64{1, 3}, []float64{2, 2}, false},
		{"worse on all", []float64{3, 3}, []float64{2, 2}, false},
	}
	for _, tc := range cases {
		if got := Dominates(tc.a, tc.b); got != tc.want {
			t.Errorf("%s: Dominates(%v, %v) = %v, want %v", tc.name, tc.a, tc.b, got, tc.want)
		}
	}
}

// A vector that dominates another must never sit on a deeper front.
func TestNondominatedSort_DominanceOrdersRanks(t *testing.T) {
	objs := [][]float64{
		{1, 1}, // dominates {2, 2}
		{2, 2},
		{0, 3},
		{3, 0},
		{3, 3}, // dominated by {1, 1} and {2, 2}
	}
	fronts, rank := nondominatedSort(objs)

	if rank[0] > rank[1] {
		t.Errorf("dominating vector ranked %d, dominated ranked %d", rank[0], rank[1])
	}
	assert.Equal(t, []int{0, 2, 3}, fronts[0])
	assert.Equal(t, []int{1}, fronts[1])
	assert.Equal(t, []int{4}, fronts[2])
	assert.Equal(t, 0, rank[2])
	assert.Equal(t, 0, rank[3])
	assert.Equal(t, 2, rank[4])
}

func TestNondominatedSort_EqualVectorsShareFront(t *testing.T) {
	objs := [][]float64{{1, 2}, {1, 2}, {5, 5}}
	fronts, rank := nondominatedSort(objs)
	assert.Equal(t, []int{0, 1}, fronts[0])
	assert.Equal(t, rank[0], rank[1])
}

func TestCrowdingAll_BoundariesGetInfinity(t *testing.T) {
	objs := [][]float64{{1, 5}, {2, 4}, {3, 3}, {4, 2}, {5, 1}}
	fronts, _ := nondominatedSort(objs)
	if len(fronts) != 1 {
		t.Fatalf("expected a single front, got %d", len(fronts))
	}
	crowd := crowdingAll(objs, fronts)

	if !math.IsInf(crowd[0], 1) || !math.IsInf(crowd[4], 1) {
		t.Errorf("boundary crowding = (%v, %v), want +Inf on both ends", crowd[0], crowd[4])
	}
	for i := 1; i < 4; i++ {
		if math.IsInf(crowd[i], 0) || crowd[i] <= 0 {
			t.Errorf("interior crowding[%d] = %v, want positive finite", i, crowd[i])
		}
	}
}

func TestCrowdingAll_TinyFrontIsAllInfinite(t *testing.T) {
	objs := [][]float64{{1, 2}, {2, 1}}
	fronts, _ := nondominatedSort(objs)
	crowd := crowdingAll(objs, fronts)
	if !math.IsInf(crowd[0], 1) || !math.IsInf(crowd[1], 1) {
		t.Errorf("two-member front crowding = %v, want +Inf for both", crowd)
	}
}
