package binning

import (
	"math"

	"github.com/uyouii/distribution-algorithms/model"
)

// boundaryCoincidenceTol, scaled by the total support range, decides when
// a split position lands on an existing boundary. The centroid of a
// TTR-binned histogram and the boundary it telescopes to are computed by
// different summation orders, so exact float equality cannot be relied on.
const boundaryCoincidenceTol = 1e-9

// BinPDFToTTR reduces a bin PDF to its order-k TTR: 2^k deltas obtained by
// recursively splitting the histogram at its centre of mass.
func BinPDFToTTR(pdf *model.BinPDF, order int) []model.DiracDelta {
	return binToTTR(pdf.BoundaryPositions, pdf.BinWidths, pdf.BinHeights, order)
}

func binToTTR(bp, widths, heights []float64, order int) []model.DiracDelta {
	totalMass := 0.0
	moment := 0.0
	for i := range widths {
		area := widths[i] * heights[i]
		totalMass += area
		moment += area * (bp[i] + bp[i+1]) / 2
	}
	position := moment / totalMass

	if order == 0 {
		return []model.DiracDelta{model.NewDiracDelta(position, totalMass)}
	}

	tol := boundaryCoincidenceTol * (bp[len(bp)-1] - bp[0])

	split := -1
	for i := 1; i+1 < len(bp); i++ {
		if math.Abs(bp[i]-position) <= tol {
			split = i
			break
		}
	}

	var leftBP, leftW, leftH, rightBP, rightW, rightH []float64
	if split >= 0 {
		leftBP, leftW, leftH = bp[:split+1], widths[:split], heights[:split]
		rightBP, rightW, rightH = bp[split:], widths[split:], heights[split:]
	} else {
		// position falls inside bin i-1: insert it as a boundary, both
		// halves of the cut bin keep its height
		i := len(bp) - 1
		for j := 1; j < len(bp); j++ {
			if bp[j] > position {
				i = j
				break
			}
		}
		leftBP = append(append([]float64{}, bp[:i]...), position)
		leftW = append(append([]float64{}, widths[:i-1]...), position-bp[i-1])
		leftH = append(append([]float64{}, heights[:i-1]...), heights[i-1])

		rightBP = append([]float64{position}, bp[i:]...)
		rightW = append([]float64{bp[i] - position}, widths[i:]...)
		rightH = append([]float64{heights[i-1]}, heights[i:]...)
	}

	res := binToTTR(leftBP, leftW, leftH, order-1)
	return append(res, binToTTR(rightBP, rightW, rightH, order-1)...)
}
