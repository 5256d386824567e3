package distvalue

import (
	"math"

	"github.com/uyouii/distribution-algorithms/model"
	"gonum.org/v1/gonum/stat"
)

// The canonical normalization order is DropZeroMass, Sort, then
// CombineDiracDeltas. Each step is idempotent on its own.

// DropZeroMass removes every delta whose mass is zero.
func (v *DistributionalValue) DropZeroMass() {
	if v.hasNoZeroMass == checkTrue {
		return
	}

	res := make([]model.DiracDelta, 0, len(v.deltas))
	for _, d := range v.deltas {
		if d.Mass() == 0 {
			continue
		}
		res = append(res, d)
	}
	v.deltas = res

	v.hasNoZeroMass = checkTrue
	v.isFullValidTTR = checkUnknown
	if v.isFinite == checkFalse {
		// a dropped zero-mass special atom may have been the only one
		v.isFinite = checkUnknown
	}
}

// Sort partitions the deltas by position class. The finite deltas are
// sorted ascending; the NaN and infinity classes accumulate their summed
// raw mass into the reserved atoms, which are appended at the tail in the
// order [NaN, -Inf, +Inf] when positive.
func (v *DistributionalValue) Sort() {
	finite := make([]model.DiracDelta, 0, len(v.deltas))
	var nanRaw, negRaw, posRaw uint64
	for _, d := range v.deltas {
		p := d.Position
		switch {
		case math.IsNaN(p):
			nanRaw += d.RawMass()
		case math.IsInf(p, -1):
			negRaw += d.RawMass()
		case math.IsInf(p, 1):
			posRaw += d.RawMass()
		default:
			finite = append(finite, d)
		}
	}
	model.SortDeltas(finite)

	v.nanDelta = model.NewDiracDeltaRaw(math.NaN(), nanRaw)
	v.negInfDelta = model.NewDiracDeltaRaw(math.Inf(-1), negRaw)
	v.posInfDelta = model.NewDiracDeltaRaw(math.Inf(1), posRaw)

	v.deltas = v.appendSpecials(finite)

	v.isSorted = checkTrue
	v.isFinite = boolState(nanRaw == 0 && negRaw == 0 && posRaw == 0)
	v.isFullValidTTR = checkUnknown
}

// CombineDiracDeltas merges adjacent finite deltas no farther apart than a threshold
// derived from the finite mean and the support range. Thresholds (0, 0)
// give exact-position de-duplication.
func (v *DistributionalValue) CombineDiracDeltas(relativeMeanThreshold, relativeRangeThreshold float64) {
	if v.isSorted != checkTrue {
		v.Sort()
	}

	finite := v.FiniteDeltas()
	if len(finite) > 1 {
		positions := make([]float64, len(finite))
		masses := make([]float64, len(finite))
		for i := range finite {
			positions[i] = finite[i].Position
			masses[i] = finite[i].Mass()
		}
		finiteMean := stat.Mean(positions, masses)
		supportRange := positions[len(positions)-1] - positions[0]
		threshold := math.Max(math.Abs(finiteMean)*relativeMeanThreshold,
			supportRange*relativeRangeThreshold)

		merged := make([]model.DiracDelta, 0, len(finite))
		cur := finite[0]
		for i := 1; i < len(finite); i++ {
			if math.Abs(cur.Position-finite[i].Position) <= threshold {
				cur = cur.Add(finite[i])
				continue
			}
			merged = append(merged, cur)
			cur = finite[i]
		}
		merged = append(merged, cur)
		finite = merged
	}

	v.deltas = v.appendSpecials(finite)

	v.isCured = checkTrue
	v.isFullValidTTR = checkUnknown
	v.invalidateStats()
}

// Cure de-duplicates exactly coincident finite deltas.
func (v *DistributionalValue) Cure() {
	v.CombineDiracDeltas(0, 0)
}

// Normalize runs the full canonical pipeline at default thresholds.
func (v *DistributionalValue) Normalize() {
	v.DropZeroMass()
	v.Sort()
	v.CombineDiracDeltas(DefaultRelativeMeanThreshold, DefaultRelativeRangeThreshold)
}

func (v *DistributionalValue) appendSpecials(finite []model.DiracDelta) []model.DiracDelta {
	res := finite
	if v.nanDelta.RawMass() > 0 {
		res = append(res, v.nanDelta)
	}
	if v.negInfDelta.RawMass() > 0 {
		res = append(res, v.negInfDelta)
	}
	if v.posInfDelta.RawMass() > 0 {
		res = append(res, v.posInfDelta)
	}
	return res
}
