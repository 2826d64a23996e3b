package sift

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// Canonical column names for SIFT crystallization datasets. Process
// conditions carry an init_ prefix for feed concentrations (ppm) and fini_
// for the measured product outcomes.
const (
	ColTCold               = "T_cold"
	ColTHot                = "T_hot"
	ColDeltaT              = "delta_T"
	ColFlowRate            = "flow_rate"
	ColSlurryConcentration = "slurry_concentration"
	ColInitCa              = "init_Ca"
	ColInitK               = "init_K"
	ColInitLi              = "init_Li"
	ColInitMg              = "init_Mg"
	ColInitNa              = "init_Na"

	ColFiniMg       = "fini_Mg"
	ColFiniK        = "fini_K"
	ColFiniLiPurity = "fini_Li_purity"
	ColFiniCa       = "fini_Ca"
	ColFiniNa       = "fini_Na"

	// ColBatteryGrade is the derived binary label: 1 when the product meets
	// the battery-grade magnesium limit, 0 otherwise.
	ColBatteryGrade = "bg"

	// ColBatteryGradeProbability annotates proposed candidates with the
	// classifier's predicted probability of a battery-grade outcome.
	ColBatteryGradeProbability = "bg_probability"

	// ColSuccess flags completed extraction runs (1) versus aborted ones (0).
	ColSuccess = "success"
)

// BatteryGradeMgLimit is the magnesium impurity ceiling (ppm) under which a
// run is labeled battery grade.
const BatteryGradeMgLimit = 80.0

// BatteryGradePPMLimits returns the per-impurity ppm ceilings for
// battery-grade lithium carbonate.
func BatteryGradePPMLimits() map[string]float64 {
	return map[string]float64{
		ColFiniCa: 160,
		ColFiniK:  10,
		ColFiniMg: 80,
		ColFiniNa: 500,
		"fini_Si": 40,
	}
}

// DefaultFeatureColumns returns the process-condition columns used as model
// features when a study does not name its own.
func DefaultFeatureColumns() []string {
	return []string{
		ColTCold, ColTHot, ColDeltaT, ColFlowRate, ColSlurryConcentration,
		ColInitCa, ColInitK, ColInitLi, ColInitMg, ColInitNa,
	}
}

// DefaultTargetColumns returns the outcome columns modeled when a study does
// not name its own.
func DefaultTargetColumns() []string {
	return []string{ColFiniMg, ColFiniK, ColFiniLiPurity, ColFiniCa, ColFiniNa}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// DeriveDeltaT adds the delta_T column (T_hot - T_cold) when both source
// columns exist and delta_T does not. Missing sources leave the table
// untouched.
func DeriveDeltaT(t *Table) error {
	if t.HasColumn(ColDeltaT) || !t.HasColumn(ColTCold) || !t.HasColumn(ColTHot) {
		return nil
	}
	cold, err := t.Column(ColTCold)
	if err != nil {
		return err
	}
	hot, err := t.Column(ColTHot)
	if err != nil {
		return err
	}
	delta := make([]float64, len(hot))
	for i := range hot {
		delta[i] = hot[i] - cold[i]
	}
	return t.SetColumn(ColDeltaT, delta)
}

// LabelBatteryGrade adds the bg column (1 when fini_Mg is under the
// battery-grade limit) when fini_Mg exists and bg does not.
func LabelBatteryGrade(t *Table) error {
	if t.HasColumn(ColBatteryGrade) || !t.HasColumn(ColFiniMg) {
		return nil
	}
	mg, err := t.Column(ColFiniMg)
	if err != nil {
		return err
	}
	label := make([]float64, len(mg))
	for i, v := range mg {
		switch {
		case !isFinite(v):
			label[i] = math.NaN()
		case v < BatteryGradeMgLimit:
			label[i] = 1
		}
	}
	return t.SetColumn(ColBatteryGrade, label)
}

// FilterSuccessful drops rows whose success flag is not 1. Tables without
// the column pass through unchanged.
func FilterSuccessful(t *Table, successCol string) *Table {
	if successCol == "" {
		successCol = ColSuccess
	}
	if !t.HasColumn(successCol) {
		return t
	}
	flags, _ := t.Column(successCol)
	kept := t.FilterRows(func(row int) bool { return flags[row] == 1 })
	if dropped := t.NumRows() - kept.NumRows(); dropped > 0 {
		logrus.Debugf("Filtered %d unsuccessful runs (%s != 1)", dropped, successCol)
	}
	return kept
}

// PrepareAnalysisDataset selects the feature and target columns present in
// the table, derives delta_T and the battery-grade label first, and drops
// rows with missing values. Nil feature or target lists fall back to the
// defaults. Requested columns absent from the table are skipped with a
// warning; an empty intersection on either side is a schema mismatch.
func PrepareAnalysisDataset(t *Table, features, targets []string) (*Table, []string, []string, error) {
	if t == nil || t.NumRows() == 0 {
		return nil, nil, nil, fmt.Errorf("%w: dataset is empty", ErrInsufficientData)
	}
	if features == nil {
		features = DefaultFeatureColumns()
	}
	if targets == nil {
		targets = DefaultTargetColumns()
	}
	work := t.Clone()
	if err := DeriveDeltaT(work); err != nil {
		return nil, nil, nil, err
	}
	if err := LabelBatteryGrade(work); err != nil {
		return nil, nil, nil, err
	}

	keptFeatures := intersectColumns(work, features)
	keptTargets := intersectColumns(work, targets)
	if len(keptFeatures) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: none of the feature columns %v present", ErrSchemaMismatch, features)
	}
	if len(keptTargets) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: none of the target columns %v present", ErrSchemaMismatch, targets)
	}
	if len(keptFeatures) < len(features) || len(keptTargets) < len(targets) {
		logrus.Warnf("Dataset is missing %d of %d requested columns; continuing with the available ones",
			len(features)+len(targets)-len(keptFeatures)-len(keptTargets), len(features)+len(targets))
	}

	selected, err := work.Select(append(append([]string{}, keptFeatures...), keptTargets...)...)
	if err != nil {
		return nil, nil, nil, err
	}
	complete := selected.DropMissing()
	if dropped := selected.NumRows() - complete.NumRows(); dropped > 0 {
		logrus.Debugf("Dropped %d rows with missing values", dropped)
	}
	if complete.NumRows() == 0 {
		return nil, nil, nil, fmt.Errorf("%w: no complete rows after dropping missing values", ErrInsufficientData)
	}
	return complete, keptFeatures, keptTargets, nil
}

func intersectColumns(t *Table, names []string) []string {
	var kept []string
	for _, name := range names {
		if t.HasColumn(name) {
			kept = append(kept, name)
		}
	}
	return kept
}

// ColumnSummary holds descriptive statistics for one column.
type ColumnSummary struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Missing int     `json:"missing"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// DataSummary describes a dataset: shape, per-column statistics, and the
// columns carrying missing values.
type DataSummary struct {
	Rows    int             `json:"rows"`
	Cols    int             `json:"cols"`
	Columns []ColumnSummary `json:"columns"`
}

// Summarize computes descriptive statistics per column, ignoring missing
// cells.
func Summarize(t *Table) DataSummary {
	s := DataSummary{Rows: t.NumRows(), Cols: t.NumCols()}
	for _, name := range t.Columns() {
		col, _ := t.Column(name)
		clean := col[:0:0]
		for _, v := range col {
			if isFinite(v) {
				clean = append(clean, v)
			}
		}
		cs := ColumnSummary{
			Name:    name,
			Count:   len(clean),
			Missing: len(col) - len(clean),
			Min:     math.NaN(),
			Max:     math.NaN(),
			Mean:    math.NaN(),
			StdDev:  math.NaN(),
		}
		if len(clean) > 0 {
			cs.Mean, cs.StdDev = stat.MeanStdDev(clean, nil)
			if len(clean) == 1 {
				cs.StdDev = 0
			}
			sorted := append([]float64(nil), clean...)
			sort.Float64s(sorted)
			cs.Min = sorted[0]
			cs.Max = sorted[len(sorted)-1]
		}
		s.Columns = append(s.Columns, cs)
	}
	return s
}

// MissingCounts returns the number of missing cells per column, including
// only columns that have at least one.
func MissingCounts(t *Table) map[string]int {
	out := make(map[string]int)
	for _, name := range t.Columns() {
		col, _ := t.Column(name)
		n := 0
		for _, v := range col {
			if !isFinite(v) {
				n++
			}
		}
		if n > 0 {
			out[name] = n
		}
	}
	return out
}
