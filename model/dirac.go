package model

import (
	"fmt"
	"math"
	"sort"
)

// FixedPointOne is the Q0.63 fixed-point representation of unit probability.
const FixedPointOne uint64 = 1 << 63

// DiracDelta is a weighted point on the real line: a position (which may be
// NaN or infinite) and a probability mass kept in two synchronized forms.
// The raw fixed-point form is authoritative on the wire.
type DiracDelta struct {
	Position float64

	rawMass uint64
	mass    float64
}

func NewDiracDelta(position, mass float64) DiracDelta {
	d := DiracDelta{Position: position}
	d.SetMass(mass)
	return d
}

func NewDiracDeltaRaw(position float64, rawMass uint64) DiracDelta {
	d := DiracDelta{Position: position}
	d.SetRawMass(rawMass)
	return d
}

func (d DiracDelta) Mass() float64 {
	return d.mass
}

func (d DiracDelta) RawMass() uint64 {
	return d.rawMass
}

// SetMass updates both mass forms from a float64 probability.
// A NaN mass forces the raw mass to zero.
func (d *DiracDelta) SetMass(mass float64) {
	if math.IsNaN(mass) || mass < 0 {
		d.rawMass = 0
		d.mass = 0
		return
	}
	d.rawMass = uint64(math.Round(mass * float64(FixedPointOne)))
	d.mass = mass
}

// SetRawMass updates both mass forms from a Q0.63 fixed-point integer.
func (d *DiracDelta) SetRawMass(rawMass uint64) {
	d.rawMass = rawMass
	d.mass = float64(rawMass) / float64(FixedPointOne)
}

// Add combines two deltas: masses add, positions merge into the
// mass-weighted mean. The receiver is not modified.
func (d DiracDelta) Add(o DiracDelta) DiracDelta {
	res := DiracDelta{}
	res.SetRawMass(d.rawMass + o.rawMass)
	if d.Position == o.Position {
		res.Position = d.Position
	} else {
		res.Position = (d.Position*d.mass + o.Position*o.mass) / (d.mass + o.mass)
	}
	return res
}

// Less orders deltas by position with plain IEEE semantics. Callers must
// partition NaN-position deltas out before sorting.
func (d DiracDelta) Less(o DiracDelta) bool {
	return d.Position < o.Position
}

// Equal compares by position alone.
func (d DiracDelta) Equal(o DiracDelta) bool {
	return d.Position == o.Position
}

// Cmp returns -1, 0 or 1 comparing by position.
func (d DiracDelta) Cmp(o DiracDelta) int {
	switch {
	case d.Position < o.Position:
		return -1
	case d.Position > o.Position:
		return 1
	default:
		return 0
	}
}

// SortDeltas sorts a slice of finite-position deltas ascending in place.
func SortDeltas(deltas []DiracDelta) {
	sort.Slice(deltas, func(i, j int) bool {
		return deltas[i].Less(deltas[j])
	})
}

func (d DiracDelta) DebugString() string {
	return fmt.Sprintf("position: %v, mass: %v, rawMass: %v", d.Position, d.mass, d.rawMass)
}
