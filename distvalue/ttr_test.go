package distvalue

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/uyouii/distribution-algorithms/model"
)

func TestCheckIsFullValidTTR(t *testing.T) {
	tests := []struct {
		name      string
		positions []float64
		masses    []float64
		want      bool
	}{
		{
			// symmetric atoms telescope to ascending boundaries
			name:      "valid order two",
			positions: []float64{-1, 0, 1, 2},
			masses:    []float64{0.25, 0.25, 0.25, 0.25},
			want:      true,
		},
		{
			// three deltas can never be a full TTR
			name:      "non power of two",
			positions: []float64{0, 1, 3},
			masses:    []float64{0.5, 0.25, 0.25},
			want:      false,
		},
		{
			name:      "single delta",
			positions: []float64{1.0},
			masses:    []float64{1.0},
			want:      true,
		},
		{
			name:      "pair",
			positions: []float64{0, 1},
			masses:    []float64{0.5, 0.5},
			want:      true,
		},
		{
			// the derived top boundary overshoots the third delta
			name:      "non monotone coalescence",
			positions: []float64{0, 1, 2, 100},
			masses:    []float64{0.001, 0.9, 0.05, 0.049},
			want:      false,
		},
		{
			name:      "infinite position",
			positions: []float64{0, 1, 2, math.Inf(1)},
			masses:    []float64{0.25, 0.25, 0.25, 0.25},
			want:      false,
		},
		{
			name:      "nan position",
			positions: []float64{0, math.NaN()},
			masses:    []float64{0.5, 0.5},
			want:      false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(deltasOf(tt.positions, tt.masses))
			assert.Equal(t, tt.want, v.CheckIsFullValidTTR())
			// cached answer is stable
			assert.Equal(t, tt.want, v.CheckIsFullValidTTR())
		})
	}
}

func TestCheckIsFullValidTTRNormalizesFirst(t *testing.T) {
	// zero-mass and duplicate deltas disappear before the check
	v := New([]model.DiracDelta{
		model.NewDiracDelta(5.0, 0),
		model.NewDiracDelta(1.0, 0.25),
		model.NewDiracDelta(0.0, 0.5),
		model.NewDiracDelta(1.0, 0.25),
	})
	assert.True(t, v.CheckIsFullValidTTR())
	assert.Equal(t, 2, v.UROrder())
}

func TestCheckIsFullValidTTREmpty(t *testing.T) {
	v := New(nil)
	assert.False(t, v.CheckIsFullValidTTR())
}
