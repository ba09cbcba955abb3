package blockcode

import (
	"math"

	"github.com/modelsmith/archforge/pkgs/invariant"
)

// Splitter is implemented by composite blocks that can be subdivided into two
// sequential blocks without changing the represented computation.
type Splitter interface {
	Split(threshold int) string
}

// Scaler is implemented by composite blocks whose channel widths and depth
// can be multiplicatively rescaled into a new code.
type Scaler interface {
	StructureScale(channelScale, subLayerScale float64) string
}

// RoundToBase snaps x to the nearest multiple of base, never below base
// itself. base is the channel rounding discipline: hardware-friendly widths
// are multiples of 8, 16 or 32.
func RoundToBase(x float64, base int) int {
	invariant.Precondition(base >= 1, "base must be positive")
	rounded := int(math.Round(x/float64(base))) * base
	if rounded < base {
		return base
	}
	return rounded
}

// SmartRound picks the rounding base from the magnitude of x: wide layers
// snap to coarser multiples.
func SmartRound(x float64) int {
	switch {
	case x > 32*8:
		return RoundToBase(x, 32)
	case x > 16*8:
		return RoundToBase(x, 16)
	default:
		return RoundToBase(x, 8)
	}
}

// scaleSubLayers rescales a repeat count, never dropping below one stage.
func scaleSubLayers(subLayers int, scale float64) int {
	scaled := int(math.Round(float64(subLayers) * scale))
	if scaled < 1 {
		return 1
	}
	return scaled
}
