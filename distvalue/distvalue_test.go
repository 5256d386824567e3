package distvalue

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uyouii/distribution-algorithms/model"
)

func deltasOf(positions []float64, masses []float64) []model.DiracDelta {
	res := make([]model.DiracDelta, len(positions))
	for i := range positions {
		res[i] = model.NewDiracDelta(positions[i], masses[i])
	}
	return res
}

func positionsOf(deltas []model.DiracDelta) []float64 {
	res := make([]float64, len(deltas))
	for i := range deltas {
		res[i] = deltas[i].Position
	}
	return res
}

func TestSortPartitionsSpecials(t *testing.T) {
	v := New([]model.DiracDelta{
		model.NewDiracDelta(math.Inf(1), 0.1),
		model.NewDiracDelta(math.NaN(), 0.1),
		model.NewDiracDelta(3.0, 0.2),
		model.NewDiracDelta(math.Inf(-1), 0.1),
		model.NewDiracDelta(1.0, 0.5),
	})
	v.Sort()

	deltas := v.Deltas()
	require.Len(t, deltas, 5)
	assert.Equal(t, 1.0, deltas[0].Position)
	assert.Equal(t, 3.0, deltas[1].Position)
	assert.True(t, math.IsNaN(deltas[2].Position))
	assert.True(t, math.IsInf(deltas[3].Position, -1))
	assert.True(t, math.IsInf(deltas[4].Position, 1))
}

func TestSortAccumulatesSpecialMass(t *testing.T) {
	// one finite and one NaN atom, each a half-unit raw mass
	v := New([]model.DiracDelta{
		model.NewDiracDeltaRaw(0.0, 1<<62),
		model.NewDiracDeltaRaw(math.NaN(), 1<<62),
	})
	v.Sort()

	deltas := v.Deltas()
	require.Len(t, deltas, 2)
	assert.Equal(t, 0.0, deltas[0].Position)
	assert.True(t, math.IsNaN(deltas[1].Position))
	assert.Equal(t, 0.5, v.NaNDelta().Mass())

	mean, ok := v.Mean()
	require.True(t, ok)
	assert.True(t, math.IsNaN(mean))
}

func TestSortIdempotent(t *testing.T) {
	v := New([]model.DiracDelta{
		model.NewDiracDelta(math.NaN(), 0.25),
		model.NewDiracDelta(2.0, 0.25),
		model.NewDiracDelta(1.0, 0.5),
	})
	v.Sort()
	first := positionsOf(v.Deltas())
	firstNaN := v.NaNDelta().RawMass()

	v.Sort()
	assert.Equal(t, first[:2], positionsOf(v.Deltas())[:2])
	assert.Equal(t, firstNaN, v.NaNDelta().RawMass())
	require.Len(t, v.Deltas(), 3)
}

func TestDropZeroMass(t *testing.T) {
	v := New([]model.DiracDelta{
		model.NewDiracDelta(1.0, 0.5),
		model.NewDiracDelta(2.0, 0),
		model.NewDiracDelta(3.0, 0.5),
	})
	v.DropZeroMass()
	assert.Equal(t, []float64{1.0, 3.0}, positionsOf(v.Deltas()))

	v.DropZeroMass()
	assert.Equal(t, []float64{1.0, 3.0}, positionsOf(v.Deltas()))
}

func TestCureMergesExactDuplicates(t *testing.T) {
	v := New(deltasOf([]float64{1.0, 1.0, 2.0}, []float64{0.25, 0.25, 0.25}))
	v.Cure()

	deltas := v.Deltas()
	require.Len(t, deltas, 2)
	assert.Equal(t, 1.0, deltas[0].Position)
	assert.Equal(t, 0.5, deltas[0].Mass())
	assert.Equal(t, 2.0, deltas[1].Position)
}

func TestCombineMergesNearDuplicates(t *testing.T) {
	// a gap of 1e-15 sits under the range-scaled threshold
	v := New(deltasOf([]float64{1.0, 1.0 + 1e-15, 5.0}, []float64{0.25, 0.25, 0.25}))
	v.CombineDiracDeltas(DefaultRelativeMeanThreshold, DefaultRelativeRangeThreshold)

	deltas := v.Deltas()
	require.Len(t, deltas, 2)
	assert.InDelta(t, 1.0, deltas[0].Position, 1e-14)
	assert.InDelta(t, 0.5, deltas[0].Mass(), 1e-15)
	assert.Equal(t, 5.0, deltas[1].Position)
	assert.InDelta(t, 0.25, deltas[1].Mass(), 1e-15)
}

func TestCureIdempotent(t *testing.T) {
	v := New(deltasOf([]float64{2.0, 1.0, 1.0}, []float64{0.25, 0.25, 0.25}))
	v.Cure()
	first := positionsOf(v.Deltas())
	v.Cure()
	assert.Equal(t, first, positionsOf(v.Deltas()))
}

func TestCureSortCommute(t *testing.T) {
	build := func() *DistributionalValue {
		return New([]model.DiracDelta{
			model.NewDiracDelta(2.0, 0.2),
			model.NewDiracDelta(math.NaN(), 0.1),
			model.NewDiracDelta(2.0, 0.2),
			model.NewDiracDelta(1.0, 0.5),
		})
	}

	a := build()
	a.Cure()
	a.Sort()

	b := build()
	b.Sort()
	b.Cure()

	require.Equal(t, len(a.Deltas()), len(b.Deltas()))
	for i := range a.Deltas() {
		da, db := a.Deltas()[i], b.Deltas()[i]
		if math.IsNaN(da.Position) {
			assert.True(t, math.IsNaN(db.Position))
		} else {
			assert.Equal(t, da.Position, db.Position)
		}
		assert.Equal(t, da.RawMass(), db.RawMass())
	}
}

func TestNormalizeInvariants(t *testing.T) {
	v := New([]model.DiracDelta{
		model.NewDiracDelta(3.0, 0.1),
		model.NewDiracDelta(1.0, 0),
		model.NewDiracDelta(math.Inf(1), 0.2),
		model.NewDiracDelta(3.0, 0.1),
		model.NewDiracDelta(-2.0, 0.3),
		model.NewDiracDelta(math.NaN(), 0.3),
	})
	v.Normalize()

	deltas := v.Deltas()
	require.Len(t, deltas, 4)

	// no zero masses, finite part strictly ascending, specials at the tail
	for _, d := range deltas {
		assert.NotZero(t, d.Mass())
	}
	assert.Equal(t, -2.0, deltas[0].Position)
	assert.Equal(t, 3.0, deltas[1].Position)
	assert.InDelta(t, 0.2, deltas[1].Mass(), 1e-15)
	assert.True(t, math.IsNaN(deltas[2].Position))
	assert.True(t, math.IsInf(deltas[3].Position, 1))
	assert.Equal(t, 4, v.UROrder())
}

func TestMeanSemantics(t *testing.T) {
	tests := []struct {
		name      string
		positions []float64
		masses    []float64
		wantNaN   bool
		want      float64
	}{
		{"weighted finite", []float64{1.0, 2.0}, []float64{0.25, 0.25}, false, 1.5},
		{"nan atom wins", []float64{1.0, math.NaN()}, []float64{0.9, 0.1}, true, 0},
		{"both infinities", []float64{math.Inf(-1), math.Inf(1)}, []float64{0.5, 0.5}, true, 0},
		{"negative infinity", []float64{1.0, math.Inf(-1)}, []float64{0.5, 0.5}, false, math.Inf(-1)},
		{"positive infinity", []float64{1.0, math.Inf(1)}, []float64{0.5, 0.5}, false, math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(deltasOf(tt.positions, tt.masses))
			mean, ok := v.Mean()
			require.True(t, ok)
			if tt.wantNaN {
				assert.True(t, math.IsNaN(mean))
			} else {
				assert.Equal(t, tt.want, mean)
			}
		})
	}
}

func TestMeanEmptyValue(t *testing.T) {
	v := New(nil)
	_, ok := v.Mean()
	assert.False(t, ok)
	_, ok = v.Variance()
	assert.False(t, ok)
}

func TestVariance(t *testing.T) {
	v := New(deltasOf([]float64{1.0, 2.0}, []float64{0.25, 0.25}))
	variance, ok := v.Variance()
	require.True(t, ok)
	assert.InDelta(t, 0.25, variance, 1e-15)

	// not defined when the mean is not finite
	v = New(deltasOf([]float64{1.0, math.Inf(1)}, []float64{0.5, 0.5}))
	_, ok = v.Variance()
	assert.False(t, ok)
}

func TestMutationInvalidatesCaches(t *testing.T) {
	v := New(deltasOf([]float64{1.0, 2.0}, []float64{0.5, 0.5}))
	mean, ok := v.Mean()
	require.True(t, ok)
	assert.Equal(t, 1.5, mean)

	v.AppendDelta(model.NewDiracDelta(7.0, 1.0))
	mean, ok = v.Mean()
	require.True(t, ok)
	assert.InDelta(t, 4.25, mean, 1e-15)
}

func TestPrimeMean(t *testing.T) {
	v := New(deltasOf([]float64{1.0, 2.0}, []float64{0.5, 0.5}))
	v.PrimeMean(42.0)
	mean, ok := v.Mean()
	require.True(t, ok)
	assert.Equal(t, 42.0, mean)

	v.SetDeltas(deltasOf([]float64{1.0}, []float64{1.0}))
	mean, ok = v.Mean()
	require.True(t, ok)
	assert.Equal(t, 1.0, mean)
}

func TestMeanDistance(t *testing.T) {
	a := New(deltasOf([]float64{1.0}, []float64{1.0}))
	b := New(deltasOf([]float64{4.0}, []float64{1.0}))
	d, ok := MeanDistance(a, b)
	require.True(t, ok)
	assert.Equal(t, 3.0, d)

	c := New(deltasOf([]float64{math.NaN()}, []float64{1.0}))
	_, ok = MeanDistance(a, c)
	assert.False(t, ok)
}

func TestAccessors(t *testing.T) {
	v := New([]model.DiracDelta{
		model.NewDiracDelta(1.0, 0.5),
		model.NewDiracDelta(math.Inf(1), 0.5),
	})
	assert.True(t, v.HasSpecialValues())
	assert.Equal(t, 0.5, v.PosInfMass())
	assert.Equal(t, 0.0, v.NegInfMass())
	assert.Len(t, v.FiniteDeltas(), 1)
	assert.Equal(t, []float64{1.0, 0.5}, []float64{v.Positions()[0], v.Masses()[0]})
}
