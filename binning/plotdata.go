package binning

import (
	"context"

	"github.com/uyouii/distribution-algorithms/common"
	"github.com/uyouii/distribution-algorithms/distvalue"
	"github.com/uyouii/distribution-algorithms/model"
	"github.com/uyouii/distribution-algorithms/utils"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// PlotData is the render-ready reconstruction of a distributional value:
// the histogram boundary positions, the bin heights and widths, plus the
// masses parked at the three special positions.
type PlotData struct {
	Positions []float64 `json:"positions"`
	Masses    []float64 `json:"masses"`
	Widths    []float64 `json:"widths"`

	MaxValue   float64 `json:"max_value"`
	TotalRange float64 `json:"total_range"`
	MinRange   float64 `json:"min_range"`
	MaxRange   float64 `json:"max_range"`

	NaNMass    float64 `json:"nan_mass,omitempty"`
	NegInfMass float64 `json:"neg_inf_mass,omitempty"`
	PosInfMass float64 `json:"pos_inf_mass,omitempty"`
}

// NewPlotData normalizes the value and reconstructs its histogram at the
// requested resolution (0 means the default, twice the largest power of
// two at or below the finite delta count). A requested resolution must be
// a power of two and is clamped to the default.
//
// A value that normalizes to zero finite deltas is non-fatal: the result
// carries only the special-value masses.
func NewPlotData(ctx context.Context, v *distvalue.DistributionalValue, resolution int) (*PlotData, error) {
	logger := utils.GetLogger(ctx)

	if v.UROrder() == 0 {
		logger.Warn("plot data construction on an empty value")
		return nil, common.ErrorValidation
	}
	if _, ok := v.Mean(); !ok {
		logger.Warn("plot data construction without a mean")
		return nil, common.ErrorValidation
	}

	v.DropZeroMass()
	v.CombineDiracDeltas(distvalue.DefaultRelativeMeanThreshold, distvalue.DefaultRelativeRangeThreshold)

	res := &PlotData{
		NaNMass:    v.NaNDelta().Mass(),
		NegInfMass: v.NegInfDelta().Mass(),
		PosInfMass: v.PosInfDelta().Mass(),
	}

	finite := v.FiniteDeltas()
	switch len(finite) {
	case 0:
		logger.Warn("no finite deltas left after normalization")
		return res, nil
	case 1:
		p, mass := finite[0].Position, finite[0].Mass()
		res.Positions = []float64{p}
		res.Masses = []float64{mass}
		res.Widths = []float64{0}
		res.MaxValue = mass
		res.MinRange = p - 0.5
		res.MaxRange = p + 0.5
		res.TotalRange = 1.0
		return res, nil
	}

	final, err := GetBinning(ctx, finite, resolution)
	if err != nil {
		return nil, err
	}

	res.Positions = final.BoundaryPositions
	res.Masses = final.BinHeights
	res.Widths = final.BinWidths
	res.MaxValue = floats.Max(final.BinHeights)
	res.MinRange = final.BoundaryPositions[0]
	res.MaxRange = final.BoundaryPositions[len(final.BoundaryPositions)-1]
	res.TotalRange = res.MaxRange - res.MinRange
	return res, nil
}

// GetBinning runs the full reconstruction for two or more finite deltas:
// a mass-weighted seed binning, its TTR at the plotting order, then the
// TTR binning of that representation.
func GetBinning(ctx context.Context, finite []model.DiracDelta, resolution int) (*model.BinPDF, error) {
	ttrOrder, err := plottingTTROrder(ctx, len(finite), resolution)
	if err != nil {
		return nil, err
	}

	seed, err := CreateBinning(ctx, finite, 0, false)
	if err != nil {
		return nil, err
	}

	ttr := BinPDFToTTR(seed, ttrOrder)

	return CreateBinning(ctx, ttr, ttrOrder, true)
}

// plottingTTROrder derives the TTR order from the finite delta count and
// the requested resolution, clamping the request to twice the machine
// representation.
func plottingTTROrder(ctx context.Context, finiteCount, resolution int) (int, error) {
	logger := utils.GetLogger(ctx)

	machineRepresentation := 1 << utils.FloorLog2(finiteCount)
	effective := 2 * machineRepresentation
	if resolution > 0 {
		if !utils.IsPowerOfTwo(resolution) {
			logger.Warn("plotting resolution must be a power of two", zap.Int("resolution", resolution))
			return 0, common.ErrorValidation
		}
		effective = utils.IntMin(resolution, effective)
	}
	if effective < 4 {
		logger.Warn("plotting resolution too small", zap.Int("resolution", effective))
		return 0, common.ErrorValidation
	}
	return utils.FloorLog2(effective) - 1, nil
}
