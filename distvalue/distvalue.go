// Package distvalue holds the canonical in-memory form of a distributional
// value: a finite collection of weighted Dirac deltas, possibly including
// atoms at NaN and the two infinities, plus producer metadata and cached
// summary statistics.
package distvalue

import (
	"fmt"
	"math"

	"github.com/uyouii/distribution-algorithms/model"
	"gonum.org/v1/gonum/stat"
)

// checkState is a cached invariant check: unknown until computed, then
// pinned until a mutation invalidates it.
type checkState int8

const (
	checkUnknown checkState = iota
	checkFalse
	checkTrue
)

func (s checkState) known() bool {
	return s != checkUnknown
}

func boolState(b bool) checkState {
	if b {
		return checkTrue
	}
	return checkFalse
}

type DistributionalValue struct {
	// ParticleValue is the producer's scalar point estimate, if any.
	ParticleValue *float64
	// URType is an opaque producer tag carried end-to-end.
	URType uint8
	// DoublePrecision selects float64 support positions on the wire.
	// In memory positions are always float64.
	DoublePrecision bool

	deltas []model.DiracDelta

	// Reserved special-value atoms. Always present; materialized into
	// deltas by Sort when they carry positive mass.
	nanDelta    model.DiracDelta
	negInfDelta model.DiracDelta
	posInfDelta model.DiracDelta

	mean     *float64
	variance *float64

	hasNoZeroMass  checkState
	isFinite       checkState
	isSorted       checkState
	isCured        checkState
	isFullValidTTR checkState
}

func New(deltas []model.DiracDelta) *DistributionalValue {
	v := &DistributionalValue{
		DoublePrecision: true,
		nanDelta:        model.NewDiracDeltaRaw(math.NaN(), 0),
		negInfDelta:     model.NewDiracDeltaRaw(math.Inf(-1), 0),
		posInfDelta:     model.NewDiracDeltaRaw(math.Inf(1), 0),
	}
	v.deltas = append([]model.DiracDelta{}, deltas...)
	return v
}

// Deltas returns the delta sequence. The slice must not be mutated by the
// caller; use SetDeltas or AppendDelta so caches stay valid.
func (v *DistributionalValue) Deltas() []model.DiracDelta {
	return v.deltas
}

func (v *DistributionalValue) SetDeltas(deltas []model.DiracDelta) {
	v.deltas = append([]model.DiracDelta{}, deltas...)
	v.invalidateAll()
}

func (v *DistributionalValue) AppendDelta(delta model.DiracDelta) {
	v.deltas = append(v.deltas, delta)
	v.invalidateAll()
}

// UROrder is the delta count, including materialized special atoms.
func (v *DistributionalValue) UROrder() int {
	return len(v.deltas)
}

func (v *DistributionalValue) NaNDelta() model.DiracDelta {
	return v.nanDelta
}

func (v *DistributionalValue) NegInfDelta() model.DiracDelta {
	return v.negInfDelta
}

func (v *DistributionalValue) PosInfDelta() model.DiracDelta {
	return v.posInfDelta
}

// FiniteDeltas returns the deltas with finite positions, in sequence order.
func (v *DistributionalValue) FiniteDeltas() []model.DiracDelta {
	res := make([]model.DiracDelta, 0, len(v.deltas))
	for _, d := range v.deltas {
		if math.IsNaN(d.Position) || math.IsInf(d.Position, 0) {
			continue
		}
		res = append(res, d)
	}
	return res
}

func (v *DistributionalValue) Positions() []float64 {
	res := make([]float64, len(v.deltas))
	for i := range v.deltas {
		res[i] = v.deltas[i].Position
	}
	return res
}

func (v *DistributionalValue) Masses() []float64 {
	res := make([]float64, len(v.deltas))
	for i := range v.deltas {
		res[i] = v.deltas[i].Mass()
	}
	return res
}

// NaNMass, NegInfMass and PosInfMass scan the current sequence, so they are
// correct whether or not the special atoms have been partitioned out yet.
func (v *DistributionalValue) NaNMass() float64 {
	res := 0.0
	for i := range v.deltas {
		if math.IsNaN(v.deltas[i].Position) {
			res += v.deltas[i].Mass()
		}
	}
	return res
}

func (v *DistributionalValue) NegInfMass() float64 {
	res := 0.0
	for i := range v.deltas {
		if math.IsInf(v.deltas[i].Position, -1) {
			res += v.deltas[i].Mass()
		}
	}
	return res
}

func (v *DistributionalValue) PosInfMass() float64 {
	res := 0.0
	for i := range v.deltas {
		if math.IsInf(v.deltas[i].Position, 1) {
			res += v.deltas[i].Mass()
		}
	}
	return res
}

func (v *DistributionalValue) HasSpecialValues() bool {
	for i := range v.deltas {
		if math.IsNaN(v.deltas[i].Position) || math.IsInf(v.deltas[i].Position, 0) {
			return true
		}
	}
	return false
}

// Mean returns the distribution mean. The second return is false only when
// there are no deltas.
//
// An atom at NaN, or atoms at both infinities, make the mean NaN. A single
// infinite atom pulls the mean to that infinity. Otherwise the mean is the
// mass-weighted mean of the finite deltas.
func (v *DistributionalValue) Mean() (float64, bool) {
	if v.mean != nil {
		return *v.mean, true
	}
	if len(v.deltas) == 0 {
		return 0, false
	}

	nanMass, negMass, posMass := v.NaNMass(), v.NegInfMass(), v.PosInfMass()

	var m float64
	switch {
	case nanMass > 0:
		m = math.NaN()
	case negMass > 0 && posMass > 0:
		m = math.NaN()
	case negMass > 0:
		m = math.Inf(-1)
	case posMass > 0:
		m = math.Inf(1)
	default:
		positions, masses := finitePositionsMasses(v.deltas)
		m = stat.Mean(positions, masses)
	}

	v.mean = &m
	return m, true
}

// Variance returns the mass-weighted second central moment of the finite
// deltas. The second return is false when the mean is not finite or there
// are no deltas.
func (v *DistributionalValue) Variance() (float64, bool) {
	if v.variance != nil {
		return *v.variance, true
	}

	mean, ok := v.Mean()
	if !ok || len(v.deltas) == 0 || math.IsNaN(mean) || math.IsInf(mean, 0) {
		return 0, false
	}

	positions, masses := finitePositionsMasses(v.deltas)
	variance := stat.MomentAbout(2, positions, mean, masses)

	v.variance = &variance
	return variance, true
}

// PrimeMean seeds the mean cache with a producer-supplied value, so that an
// immediate re-encode reproduces the wire bytes exactly. SetDeltas,
// AppendDelta and CombineDiracDeltas (hence Cure and Normalize) drop the
// primed value; DropZeroMass and Sort keep it.
func (v *DistributionalValue) PrimeMean(mean float64) {
	m := mean
	v.mean = &m
}

// MeanDistance is the absolute distance between the means of two values.
// The second return is false when either mean is missing or not finite.
func MeanDistance(a, b *DistributionalValue) (float64, bool) {
	ma, ok := a.Mean()
	if !ok || math.IsNaN(ma) || math.IsInf(ma, 0) {
		return 0, false
	}
	mb, ok := b.Mean()
	if !ok || math.IsNaN(mb) || math.IsInf(mb, 0) {
		return 0, false
	}
	return math.Abs(ma - mb), true
}

func (v *DistributionalValue) DebugString() string {
	particle := "nil"
	if v.ParticleValue != nil {
		particle = fmt.Sprintf("%v", *v.ParticleValue)
	}
	return fmt.Sprintf("particle: %v, urType: %v, urOrder: %v, doublePrecision: %v",
		particle, v.URType, v.UROrder(), v.DoublePrecision)
}

func (v *DistributionalValue) invalidateAll() {
	v.mean = nil
	v.variance = nil
	v.hasNoZeroMass = checkUnknown
	v.isFinite = checkUnknown
	v.isSorted = checkUnknown
	v.isCured = checkUnknown
	v.isFullValidTTR = checkUnknown
}

func (v *DistributionalValue) invalidateStats() {
	v.mean = nil
	v.variance = nil
}

func finitePositionsMasses(deltas []model.DiracDelta) ([]float64, []float64) {
	positions := make([]float64, 0, len(deltas))
	masses := make([]float64, 0, len(deltas))
	for i := range deltas {
		p := deltas[i].Position
		if math.IsNaN(p) || math.IsInf(p, 0) {
			continue
		}
		positions = append(positions, p)
		masses = append(masses, deltas[i].Mass())
	}
	return positions, masses
}
