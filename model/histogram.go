package model

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
	"gonum.org/v1/gonum/floats"
)

// BinPDF is a piecewise-constant density over a finite support, kept as
// three parallel slices. With n bins there are n+1 boundaries,
// BinWidths[i] = BoundaryPositions[i+1] - BoundaryPositions[i], and the
// integral is the dot product of widths and heights.
type BinPDF struct {
	BoundaryPositions []float64 `json:"boundary_positions"`
	BinWidths         []float64 `json:"bin_widths"`
	BinHeights        []float64 `json:"bin_heights"`
}

func (p *BinPDF) NumBins() int {
	return len(p.BinHeights)
}

// TotalMass integrates the density over the full support.
func (p *BinPDF) TotalMass() float64 {
	return floats.Dot(p.BinWidths, p.BinHeights)
}

// BinMid returns the midpoint of bin i.
func (p *BinPDF) BinMid(i int) float64 {
	return (p.BoundaryPositions[i] + p.BoundaryPositions[i+1]) / 2
}

// Validate checks the structural invariants and returns every violation
// found, combined.
func (p *BinPDF) Validate() error {
	var err error

	n := len(p.BinHeights)
	if len(p.BinWidths) != n {
		err = multierr.Append(err, fmt.Errorf("width count %v != height count %v", len(p.BinWidths), n))
	}
	if len(p.BoundaryPositions) != n+1 {
		err = multierr.Append(err, fmt.Errorf("boundary count %v != bin count %v + 1", len(p.BoundaryPositions), n))
		return err
	}

	for i := 0; i+1 < len(p.BoundaryPositions); i++ {
		if !(p.BoundaryPositions[i] < p.BoundaryPositions[i+1]) {
			err = multierr.Append(err, fmt.Errorf("boundaries not strictly ascending at %v: %v >= %v",
				i, p.BoundaryPositions[i], p.BoundaryPositions[i+1]))
		}
	}
	for i := 0; i < n && i < len(p.BinWidths); i++ {
		want := p.BoundaryPositions[i+1] - p.BoundaryPositions[i]
		if math.Abs(p.BinWidths[i]-want) > 1e-9*math.Max(1, math.Abs(want)) {
			err = multierr.Append(err, fmt.Errorf("width %v at bin %v inconsistent with boundaries (want %v)",
				p.BinWidths[i], i, want))
		}
	}
	for i, h := range p.BinHeights {
		if h < 0 || math.IsNaN(h) {
			err = multierr.Append(err, fmt.Errorf("negative or NaN height %v at bin %v", h, i))
		}
	}
	return err
}
