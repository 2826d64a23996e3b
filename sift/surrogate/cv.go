package surrogate

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sift-al/sift-al/sift"
)

// KFoldIndices shuffles row indices once and splits them into k near-equal
// folds. Fold membership is fixed by the rng state, so every trial in a
// search scores against identical folds.
func KFoldIndices(n, k int, rng *rand.Rand) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("%w: folds must be at least 2, got %d", sift.ErrInvalidArgument, k)
	}
	if n < k {
		return nil, fmt.Errorf("%w: %d rows cannot fill %d folds", sift.ErrInsufficientData, n, k)
	}
	perm := rng.Perm(n)
	folds := make([][]int, k)
	for i, row := range perm {
		folds[i%k] = append(folds[i%k], row)
	}
	return folds, nil
}

// CrossValidate fits cfg on each fold complement and returns the mean
// held-out RMSE across folds.
func CrossValidate(data *sift.Table, features []string, target string, cfg Config, folds [][]int, rng *rand.Rand) (float64, error) {
	return crossValidate(data, features, target, cfg, folds, rng, false)
}

// CrossValidateClassifier is CrossValidate for the logistic model, scored
// with mean held-out log-loss.
func CrossValidateClassifier(data *sift.Table, features []string, target string, cfg Config, folds [][]int, rng *rand.Rand) (float64, error) {
	return crossValidate(data, features, target, cfg, folds, rng, true)
}

func crossValidate(data *sift.Table, features []string, target string, cfg Config, folds [][]int, rng *rand.Rand, logistic bool) (float64, error) {
	if len(folds) < 2 {
		return 0, fmt.Errorf("%w: need at least 2 folds, got %d", sift.ErrInvalidArgument, len(folds))
	}
	scores := make([]float64, 0, len(folds))
	for f := range folds {
		holdout := make(map[int]bool, len(folds[f]))
		for _, row := range folds[f] {
			holdout[row] = true
		}
		train := data.FilterRows(func(row int) bool { return !holdout[row] })
		test := data.FilterRows(func(row int) bool { return holdout[row] })
		if train.NumRows() == 0 || test.NumRows() == 0 {
			return 0, fmt.Errorf("%w: fold %d leaves an empty split", sift.ErrInsufficientData, f)
		}

		var model *Model
		var err error
		if logistic {
			model, err = TrainClassifier(train, features, target, cfg, rng)
		} else {
			model, err = Train(train, features, target, cfg, rng)
		}
		if err != nil {
			return 0, err
		}
		pred, err := model.PredictTable(test)
		if err != nil {
			return 0, err
		}
		truth, err := test.Column(target)
		if err != nil {
			return 0, err
		}
		if logistic {
			scores = append(scores, LogLoss(truth, pred))
		} else {
			scores = append(scores, RMSE(truth, pred))
		}
	}
	return stat.Mean(scores, nil), nil
}

// RMSE returns the root mean squared error between truth and predictions.
func RMSE(truth, pred []float64) float64 {
	if len(truth) == 0 || len(truth) != len(pred) {
		return math.NaN()
	}
	return floats.Distance(truth, pred, 2) / math.Sqrt(float64(len(truth)))
}

// LogLoss returns the mean negative log-likelihood of 0/1 truth under
// predicted probabilities.
func LogLoss(truth, prob []float64) float64 {
	if len(truth) == 0 || len(truth) != len(prob) {
		return math.NaN()
	}
	sum := 0.0
	for i, y := range truth {
		p := clampProb(prob[i])
		sum += y*math.Log(p) + (1-y)*math.Log(1-p)
	}
	return -sum / float64(len(truth))
}

// BaselineRMSE returns the RMSE of always predicting the target mean: the
// skill floor any useful surrogate must beat.
func BaselineRMSE(y []float64) float64 {
	if len(y) == 0 {
		return math.NaN()
	}
	m := stat.Mean(y, nil)
	sum := 0.0
	for _, v := range y {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(y)))
}
