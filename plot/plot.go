// Package plot reshapes reconstructed plot data into the minimal geometry a
// chart library needs: one rectangle per bin plus scalar bars for the
// special-value masses. No rendering policy lives here.
package plot

import (
	"github.com/uyouii/distribution-algorithms/binning"
)

type Rect struct {
	X0     float64 `json:"x0"`
	X1     float64 `json:"x1"`
	Height float64 `json:"height"`
	Area   float64 `json:"area"`
}

type Series struct {
	Rects []Rect `json:"rects"`

	NaNBar    float64 `json:"nan_bar,omitempty"`
	NegInfBar float64 `json:"neg_inf_bar,omitempty"`
	PosInfBar float64 `json:"pos_inf_bar,omitempty"`
}

// BuildSeries converts plot data to bin rectangles. A single-delta
// reconstruction (one position, zero width) becomes one zero-width marker
// rectangle carrying the full mass.
func BuildSeries(pd *binning.PlotData) *Series {
	res := &Series{
		Rects:     []Rect{},
		NaNBar:    pd.NaNMass,
		NegInfBar: pd.NegInfMass,
		PosInfBar: pd.PosInfMass,
	}

	if len(pd.Positions) == 1 {
		res.Rects = append(res.Rects, Rect{
			X0:     pd.Positions[0],
			X1:     pd.Positions[0],
			Height: pd.Masses[0],
			Area:   pd.Masses[0],
		})
		return res
	}

	for i := 0; i < len(pd.Widths); i++ {
		res.Rects = append(res.Rects, Rect{
			X0:     pd.Positions[i],
			X1:     pd.Positions[i+1],
			Height: pd.Masses[i],
			Area:   pd.Masses[i] * pd.Widths[i],
		})
	}
	return res
}
