package sift

import "fmt"

// Param is one bounded experimental condition, inclusive on both ends.
type Param struct {
	Name string  `yaml:"name"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
}

// ParameterSpace is an ordered list of bounded conditions. Order is
// significant: samplers emit columns in space order.
type ParameterSpace []Param

// Validate checks that every parameter has a unique non-empty name and
// finite bounds with min <= max.
func (s ParameterSpace) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: parameter space is empty", ErrInvalidArgument)
	}
	seen := make(map[string]bool, len(s))
	for i, p := range s {
		prefix := fmt.Sprintf("parameter_space[%d]", i)
		if p.Name == "" {
			return fmt.Errorf("%w: %s: name is empty", ErrInvalidArgument, prefix)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: %s: duplicate name %q", ErrInvalidArgument, prefix, p.Name)
		}
		seen[p.Name] = true
		if p.Min > p.Max {
			return fmt.Errorf("%w: %s (%s): min %v > max %v", ErrInvalidArgument, prefix, p.Name, p.Min, p.Max)
		}
		if !isFinite(p.Min) || !isFinite(p.Max) {
			return fmt.Errorf("%w: %s (%s): bounds must be finite", ErrInvalidArgument, prefix, p.Name)
		}
	}
	return nil
}

// Names returns the parameter names in space order.
func (s ParameterSpace) Names() []string {
	names := make([]string, len(s))
	for i, p := range s {
		names[i] = p.Name
	}
	return names
}

// Dim returns the number of parameters.
func (s ParameterSpace) Dim() int {
	return len(s)
}

// Bounds returns the parameter named name, when the space defines one.
func (s ParameterSpace) Bounds(name string) (Param, bool) {
	for _, p := range s {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Contains reports whether the point lies inside the space, inclusive of
// bounds. The point must have one value per parameter in space order.
func (s ParameterSpace) Contains(point []float64) bool {
	if len(point) != len(s) {
		return false
	}
	for i, p := range s {
		if point[i] < p.Min || point[i] > p.Max {
			return false
		}
	}
	return true
}

// DefaultConditionSpace returns the standard bounds for lithium brine
// crystallization runs: cold- and hot-side temperatures in Celsius, feed
// flow in L/min, slurry concentration in wt%, and initial impurity
// concentrations in ppm.
func DefaultConditionSpace() ParameterSpace {
	return ParameterSpace{
		{Name: ColTCold, Min: 5, Max: 25},
		{Name: ColTHot, Min: 60, Max: 95},
		{Name: ColFlowRate, Min: 0.5, Max: 5},
		{Name: ColSlurryConcentration, Min: 1, Max: 30},
		{Name: ColInitCa, Min: 0, Max: 600},
		{Name: ColInitK, Min: 0, Max: 100},
		{Name: ColInitLi, Min: 500, Max: 6000},
		{Name: ColInitMg, Min: 0, Max: 400},
		{Name: ColInitNa, Min: 0, Max: 2000},
	}
}
