package surrogate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// gp is a Gaussian-process regressor over normalized search points, used to
// score untried hyperparameter combinations from observed trial results.
// Observations are standardized internally; predictions are returned on the
// original scale.
type gp struct {
	x      [][]float64
	y      []float64
	length float64
	noise  float64

	yMean float64
	yStd  float64
	chol  mat.Cholesky
	alpha *mat.VecDense
	ready bool
}

func newGP(length, noise float64) *gp {
	return &gp{length: length, noise: noise}
}

func (g *gp) add(x []float64, y float64) {
	g.x = append(g.x, append([]float64(nil), x...))
	g.y = append(g.y, y)
	g.ready = false
}

// rbf is the radial basis kernel exp(-||a-b||^2 / (2 l^2)); 1 at identical
// points, falling toward 0 with distance.
func (g *gp) rbf(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return math.Exp(-d * d / (2 * g.length * g.length))
}

// fit factorizes the kernel matrix. Fails when the matrix is not positive
// definite, which callers treat as "fall back to random search".
func (g *gp) fit() error {
	n := len(g.x)
	if n == 0 {
		return fmt.Errorf("no observations")
	}
	g.yMean = 0
	for _, v := range g.y {
		g.yMean += v
	}
	g.yMean /= float64(n)
	g.yStd = 0
	for _, v := range g.y {
		d := v - g.yMean
		g.yStd += d * d
	}
	g.yStd = math.Sqrt(g.yStd / float64(n))
	if g.yStd == 0 {
		g.yStd = 1
	}

	k := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := g.rbf(g.x[i], g.x[j])
			if i == j {
				v += g.noise
			}
			k.SetSym(i, j, v)
		}
	}
	if ok := g.chol.Factorize(k); !ok {
		return fmt.Errorf("kernel matrix is not positive definite")
	}
	ys := mat.NewVecDense(n, nil)
	for i, v := range g.y {
		ys.SetVec(i, (v-g.yMean)/g.yStd)
	}
	g.alpha = mat.NewVecDense(n, nil)
	if err := g.chol.SolveVecTo(g.alpha, ys); err != nil {
		return err
	}
	g.ready = true
	return nil
}

// predict returns the posterior mean and standard deviation at x on the
// original observation scale. fit must have succeeded.
func (g *gp) predict(x []float64) (mean, std float64) {
	n := len(g.x)
	ks := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		ks.SetVec(i, g.rbf(x, g.x[i]))
	}
	mean = mat.Dot(ks, g.alpha)*g.yStd + g.yMean

	v := mat.NewVecDense(n, nil)
	if err := g.chol.SolveVecTo(v, ks); err != nil {
		return mean, g.yStd
	}
	variance := 1 + g.noise - mat.Dot(ks, v)
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance) * g.yStd
}
