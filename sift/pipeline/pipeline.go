// Package pipeline sequences a full SIFT study: dataset preparation,
// per-objective surrogate tuning, training and attribution, the
// battery-grade classifier, Latin Hypercube candidate generation, candidate
// scoring, and Pareto-frontier extraction. It carries no algorithmic logic
// of its own; each stage lives in its own package and the pipeline only
// orders calls and passes outputs forward.
package pipeline

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sift-al/sift-al/sift"
	"github.com/sift-al/sift-al/sift/attribution"
	"github.com/sift-al/sift-al/sift/pareto"
	"github.com/sift-al/sift-al/sift/sampler"
	"github.com/sift-al/sift-al/sift/surrogate"
)

const (
	// topFeatureCount caps the attribution features reported per objective.
	topFeatureCount = 5
	// miBins is the histogram resolution for mutual-information scores.
	miBins = 10
)

// Run executes the study described by cfg against the experiment table and
// returns the report proposing the next round of candidate conditions.
// Every randomized stage draws its seed from the study seed and a stage
// label, so a run is a pure function of (cfg, data).
func Run(cfg *sift.StudyConfig, data *sift.Table) (*Report, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", sift.ErrInvalidArgument)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if data == nil || data.NumRows() == 0 {
		return nil, fmt.Errorf("%w: experiment table is empty", sift.ErrInvalidArgument)
	}
	key := sift.NewStudyKey(cfg.Seed)
	rngs := sift.NewPartitionedRNG(key)
	logrus.Infof("Starting SIFT study: %d experiment rows, objectives %v, seed %d",
		data.NumRows(), cfg.Objectives, cfg.Seed)

	var warnings []string
	successful := sift.FilterSuccessful(data, cfg.SuccessColumn)
	droppedRuns := data.NumRows() - successful.NumRows()

	targets := append(append([]string{}, cfg.Objectives...), sift.ColBatteryGrade)
	clean, features, _, err := sift.PrepareAnalysisDataset(successful, cfg.Features, targets)
	if err != nil {
		return nil, err
	}
	for _, obj := range cfg.Objectives {
		if !clean.HasColumn(obj) {
			return nil, fmt.Errorf("%w: objective column %s absent from the dataset", sift.ErrSchemaMismatch, obj)
		}
	}

	models := make(map[string]*surrogate.Model, len(cfg.Objectives))
	objReports := make([]ObjectiveReport, 0, len(cfg.Objectives))
	searchSpace := surrogate.DefaultSearchSpace()
	for _, obj := range cfg.Objectives {
		tuneSeed := sift.SubsystemSeed(key, sift.SubsystemTuner+":"+obj)
		tuned, err := surrogate.TuneHyperparameters(clean, features, obj, searchSpace, cfg.Tuner, tuneSeed)
		if err != nil {
			return nil, fmt.Errorf("failed to tune %s: %w", obj, err)
		}
		model, err := surrogate.Train(clean, features, obj, tuned.Best, rngs.ForSubsystem("train:"+obj))
		if err != nil {
			return nil, fmt.Errorf("failed to train %s: %w", obj, err)
		}
		models[obj] = model

		attrSeed := sift.SubsystemSeed(key, sift.SubsystemAttribution+":"+obj)
		explained, err := attribution.Explain(model, clean, cfg.Attribution, attrSeed)
		if err != nil {
			return nil, fmt.Errorf("failed to attribute %s: %w", obj, err)
		}
		mi, err := attribution.MutualInformation(clean, features, obj, miBins)
		if err != nil {
			return nil, fmt.Errorf("failed to score mutual information for %s: %w", obj, err)
		}
		top := explained.Summary
		if len(top) > topFeatureCount {
			top = top[:topFeatureCount]
		}
		objReports = append(objReports, ObjectiveReport{
			Objective:   obj,
			CVError:     tuned.Score,
			Baseline:    tuned.Baseline,
			Config:      tuned.Best,
			TopFeatures: top,
			MutualInfo:  mi,
		})
	}

	grade, classifier, err := trainGradeModel(clean, features, cfg.Tuner.Folds, rngs)
	if err != nil {
		return nil, err
	}
	if classifier == nil {
		warnings = append(warnings, "battery-grade label unavailable; classifier skipped")
	} else if grade.CVLogLoss == nil {
		warnings = append(warnings, "too few rows to cross-validate the battery-grade classifier")
	}

	candidates, err := sampler.SampleConditions(cfg.Space, cfg.Sampler, sift.SubsystemSeed(key, sift.SubsystemSampler))
	if err != nil {
		return nil, fmt.Errorf("failed to sample candidate conditions: %w", err)
	}
	for _, obj := range cfg.Objectives {
		preds, err := models[obj].PredictTable(candidates)
		if err != nil {
			return nil, fmt.Errorf("failed to score candidates for %s: %w", obj, err)
		}
		if err := candidates.SetColumn(obj, preds); err != nil {
			return nil, err
		}
	}

	_, frontier, err := pareto.OptimizeFront(candidates, cfg.Objectives, cfg.Pareto, sift.SubsystemSeed(key, sift.SubsystemPareto))
	if err != nil {
		return nil, fmt.Errorf("failed to extract Pareto frontier: %w", err)
	}
	if target := cfg.Pareto.MinUniquePoints; target > 0 && frontier.NumRows() < target {
		warnings = append(warnings,
			fmt.Sprintf("frontier holds %d unique points, short of the %d requested", frontier.NumRows(), target))
	}
	if classifier != nil {
		probs, err := classifier.PredictTable(frontier)
		if err != nil {
			return nil, fmt.Errorf("failed to annotate frontier with grade probability: %w", err)
		}
		if err := frontier.SetColumn(sift.ColBatteryGradeProbability, probs); err != nil {
			return nil, err
		}
	}

	rows, err := tableRows(frontier)
	if err != nil {
		return nil, err
	}
	report := &Report{
		Rows:            clean.NumRows(),
		DroppedRuns:     droppedRuns,
		Features:        features,
		Summary:         sift.Summarize(clean),
		Missing:         sift.MissingCounts(successful),
		Objectives:      objReports,
		Grade:           grade,
		FrontierColumns: frontier.Columns(),
		Frontier:        rows,
		Warnings:        warnings,
	}
	logrus.Infof("Study complete: %d frontier candidates proposed from %d sampled conditions",
		frontier.NumRows(), cfg.Sampler.Points)
	return report, nil
}

// trainGradeModel fits the battery-grade classifier when the label column
// survived preparation. The CV log-loss is advisory: when the dataset is
// too small for the fold count it is omitted rather than failing the run.
func trainGradeModel(clean *sift.Table, features []string, folds int, rngs *sift.PartitionedRNG) (*GradeReport, *surrogate.Model, error) {
	if !clean.HasColumn(sift.ColBatteryGrade) {
		return nil, nil, nil
	}
	labels, err := clean.Column(sift.ColBatteryGrade)
	if err != nil {
		return nil, nil, err
	}
	classifier, err := surrogate.TrainClassifier(clean, features, sift.ColBatteryGrade, surrogate.DefaultConfig(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to train the battery-grade classifier: %w", err)
	}
	grade := &GradeReport{PositiveRate: meanOf(labels)}

	kfolds, err := surrogate.KFoldIndices(clean.NumRows(), folds, rngs.ForSubsystem("classifier:folds"))
	if err == nil {
		loss, cvErr := surrogate.CrossValidateClassifier(clean, features, sift.ColBatteryGrade, surrogate.DefaultConfig(), kfolds, nil)
		if cvErr == nil {
			grade.CVLogLoss = &loss
		} else {
			logrus.Warnf("Battery-grade classifier CV failed: %v", cvErr)
		}
	} else {
		logrus.Warnf("Skipping battery-grade classifier CV: %v", err)
	}
	return grade, classifier, nil
}

func tableRows(t *sift.Table) ([][]float64, error) {
	rows := make([][]float64, t.NumRows())
	for i := range rows {
		row, err := t.Row(i)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}
	return rows, nil
}
