package sift

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParameterSpace_Validate_RejectsBadSpaces(t *testing.T) {
	tests := []struct {
		name  string
		space ParameterSpace
	}{
		{"empty space", ParameterSpace{}},
		{"empty name", ParameterSpace{{Name: "", Min: 0, Max: 1}}},
		{"duplicate name", ParameterSpace{{Name: "x", Min: 0, Max: 1}, {Name: "x", Min: 0, Max: 1}}},
		{"min above max", ParameterSpace{{Name: "x", Min: 2, Max: 1}}},
		{"nan bound", ParameterSpace{{Name: "x", Min: math.NaN(), Max: 1}}},
		{"inf bound", ParameterSpace{{Name: "x", Min: 0, Max: math.Inf(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.space.Validate()
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestParameterSpace_Validate_AcceptsPointParam(t *testing.T) {
	// Min == Max pins a condition to a single value.
	space := ParameterSpace{{Name: "T_cold", Min: 10, Max: 10}}
	assert.NoError(t, space.Validate())
}

func TestParameterSpace_Contains_InclusiveBounds(t *testing.T) {
	space := ParameterSpace{
		{Name: "x", Min: 0, Max: 1},
		{Name: "y", Min: -5, Max: 5},
	}
	assert.True(t, space.Contains([]float64{0, 5}))
	assert.True(t, space.Contains([]float64{1, -5}))
	assert.False(t, space.Contains([]float64{1.0001, 0}))
	assert.False(t, space.Contains([]float64{0.5}))
}

func TestParameterSpace_Names_PreservesOrder(t *testing.T) {
	space := DefaultConditionSpace()
	names := space.Names()
	assert.Equal(t, space.Dim(), len(names))
	assert.Equal(t, ColTCold, names[0])
	assert.Equal(t, ColTHot, names[1])
}

func TestDefaultConditionSpace_Valid(t *testing.T) {
	assert.NoError(t, DefaultConditionSpace().Validate())
}
