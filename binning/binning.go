// Package binning reconstructs piecewise-constant histograms from weighted
// Dirac deltas and reduces histograms back to their telescoping torques
// representation (TTR).
//
// Layout convention: for m deltas there are 2m+1 boundary slots. Delta i
// sits at slot 2i+1, internal boundaries at the even slots between them,
// and slots 0 and 2m are the extremal boundaries. The histogram has 2m
// bins, two per delta.
package binning

import (
	"context"
	"math"

	"github.com/uyouii/distribution-algorithms/common"
	"github.com/uyouii/distribution-algorithms/model"
	"github.com/uyouii/distribution-algorithms/utils"
	"go.uber.org/zap"
)

// DetermineBoundaryPositions fills the internal boundary slots for the
// given finite, strictly ascending deltas. It returns the slot position and
// slot mass arrays; the two extremal slots stay NaN.
//
// With useTTRBinning the slots are filled by the upward TTR coalescence
// sweep and repaired where the sweep left a NaN or broke monotonicity with
// the neighbouring delta positions. Without it every internal slot is the
// mass-weighted mean of its two neighbouring delta positions.
func DetermineBoundaryPositions(deltas []model.DiracDelta, exponent int, useTTRBinning bool) ([]float64, []float64, error) {
	m := len(deltas)
	numberOfSlots := 2*m + 1

	bp := make([]float64, numberOfSlots)
	bm := make([]float64, numberOfSlots)
	for i := range bp {
		bp[i] = math.NaN()
	}
	for i, d := range deltas {
		bp[2*i+1] = d.Position
		bm[2*i+1] = d.Mass()
	}

	if !useTTRBinning {
		for i := 2; i <= 2*m-2; i += 2 {
			bp[i] = weightedMidpoint(bp, bm, i, 1)
		}
		return bp, bm, nil
	}

	if m != 1<<exponent {
		return nil, nil, common.ErrorValidation
	}

	// Upward sweep. The delta slots are odd here, so the stride origin is
	// shifted by one against the validity-check indexing.
	for n := 0; n < exponent; n++ {
		step := 1 << n
		for i := 1 << (n + 1); i < numberOfSlots; i += 1 << (n + 2) {
			bp[i] = weightedMidpoint(bp, bm, i, step)
			bm[i] = bm[i-step] + bm[i+step]
		}
	}

	// Repair: any slot the sweep left NaN or pushed outside its
	// neighbouring delta positions falls back to the local weighted mean.
	for i := 2; i <= 2*m-2; i += 2 {
		if math.IsNaN(bp[i]) || !(bp[i-1] < bp[i] && bp[i] < bp[i+1]) {
			bp[i] = weightedMidpoint(bp, bm, i, 1)
		}
	}

	return bp, bm, nil
}

func weightedMidpoint(bp, bm []float64, i, step int) float64 {
	return (bp[i-step]*bm[i-step] + bp[i+step]*bm[i+step]) / (bm[i-step] + bm[i+step])
}

// CreateBinning builds the 2m-bin histogram whose bin pairs carry each
// delta's mass with the pair's centre of mass at the delta position.
func CreateBinning(ctx context.Context, deltas []model.DiracDelta, exponent int, useTTRBinning bool) (*model.BinPDF, error) {
	logger := utils.GetLogger(ctx)

	m := len(deltas)
	if m < 2 {
		logger.Warn("binning needs at least two deltas", zap.Int("count", m))
		return nil, common.ErrorValidation
	}

	bp, bm, err := DetermineBoundaryPositions(deltas, exponent, useTTRBinning)
	if err != nil {
		logger.Warn("boundary determination failed",
			zap.Int("count", m), zap.Int("exponent", exponent))
		return nil, err
	}

	widths := make([]float64, 2*m)
	heights := make([]float64, 2*m)
	for j := 1; j <= 2*m-2; j++ {
		widths[j] = bp[j+1] - bp[j]
	}

	// Internal deltas first: their bin pairs only need the internal
	// boundaries. The two end deltas wait for the extremal closure.
	for i := 1; i <= m-2; i++ {
		splitDeltaMass(bm[2*i+1], widths, heights, 2*i)
	}

	HandleExtremalBins(bp, bm, widths, heights)

	pdf := &model.BinPDF{
		BoundaryPositions: bp,
		BinWidths:         widths,
		BinHeights:        heights,
	}
	return pdf, nil
}

// HandleExtremalBins closes both ends of the histogram: picks the two
// extremal boundary positions and splits the outermost deltas' masses into
// their bin pairs.
//
// The preferred closure zeroes the second derivative of the height across
// the three end bins, which needs at least six deltas and a usable positive
// quadratic root; otherwise the width of the adjacent internal bin is
// reflected outward (zero first derivative).
func HandleExtremalBins(bp, bm, widths, heights []float64) {
	m := (len(bp) - 1) / 2

	// left end
	w0 := extremalWidth(bm[1], widths[1], widths[2], heights[2], m)
	bp[0] = bp[1] - w0
	widths[0] = bp[1] - bp[0]
	splitDeltaMass(bm[1], widths, heights, 0)

	// right end
	w0 = extremalWidth(bm[2*m-1], widths[2*m-2], widths[2*m-3], heights[2*m-3], m)
	bp[2*m] = bp[2*m-1] + w0
	widths[2*m-1] = bp[2*m] - bp[2*m-1]
	splitDeltaMass(bm[2*m-1], widths, heights, 2*m-2)
}

// extremalWidth solves a*w0^2 + b*w0 + c = 0 from the zero-second-
// derivative condition. p0 is the outermost delta's mass, w1 and w2 the two
// adjacent internal bin widths walking inward, d2 the height of the
// second-neighbour bin.
func extremalWidth(p0, w1, w2, d2 float64, m int) float64 {
	if m < 6 {
		return w1
	}

	a := d2*w1 - p0
	b := a*w1 - p0*w2
	c := p0 * w1 * (w1 + w2)

	det := b*b - 4*a*c
	// the quadratic only applies for a finite non-negative determinant
	if math.IsNaN(det) || math.IsInf(det, 0) || det < 0 {
		return w1
	}

	sq := math.Sqrt(det)
	r1 := (-b - sq) / (2 * a)
	r2 := (-b + sq) / (2 * a)
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	switch {
	case r1 > 0 && utils.IsFinite(r1):
		return r1
	case r2 > 0 && utils.IsFinite(r2):
		return r2
	default:
		return w1
	}
}

// splitDeltaMass spreads mass mu over the bin pair starting at left so that
// the pair's average height is mu over the pair width, putting the pair's
// centre of mass at the shared boundary.
func splitDeltaMass(mu float64, widths, heights []float64, left int) {
	wl, wr := widths[left], widths[left+1]
	avg := mu / (wl + wr)
	heights[left] = avg * wr / wl
	heights[left+1] = avg * wl / wr
}
