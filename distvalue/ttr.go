package distvalue

import (
	"github.com/uyouii/distribution-algorithms/utils"
)

// CheckIsFullValidTTR reports whether the value, after zero-mass dropping
// and curing, is the k-th-order telescoping torques representation of some
// bin PDF: all deltas finite, a power-of-two count, and strictly ascending
// derived boundary positions under iterative coalescence.
func (v *DistributionalValue) CheckIsFullValidTTR() bool {
	if v.isFullValidTTR.known() {
		return v.isFullValidTTR == checkTrue
	}

	if v.hasNoZeroMass != checkTrue {
		v.DropZeroMass()
	}
	if v.isCured != checkTrue {
		v.Cure()
	}

	res := v.checkCoalescence()
	v.isFullValidTTR = boolState(res)
	return res
}

func (v *DistributionalValue) checkCoalescence() bool {
	// Cure leaves the special atoms at the tail, so finiteness is just the
	// reservoir masses. The position, not the delta itself, is what gets
	// tested for finiteness.
	if v.nanDelta.RawMass() > 0 || v.negInfDelta.RawMass() > 0 || v.posInfDelta.RawMass() > 0 {
		return false
	}

	order := len(v.deltas)
	if order == 0 || !utils.IsPowerOfTwo(order) {
		return false
	}

	numberOfBoundaries := 2*order - 1
	bp := make([]float64, numberOfBoundaries)
	bm := make([]float64, numberOfBoundaries)
	for j := range v.deltas {
		bp[2*j] = v.deltas[j].Position
		bm[2*j] = v.deltas[j].Mass()
	}

	k := utils.FloorLog2(order)
	for n := 0; n < k; n++ {
		step := 1 << n
		for i := (1 << (n + 1)) - 1; i < numberOfBoundaries; i += 1 << (n + 2) {
			bp[i] = (bp[i-step]*bm[i-step] + bp[i+step]*bm[i+step]) / (bm[i-step] + bm[i+step])
			bm[i] = bm[i-step] + bm[i+step]
		}
	}

	for i := 0; i+1 < numberOfBoundaries; i++ {
		if !(bp[i] < bp[i+1]) {
			return false
		}
	}
	return true
}
