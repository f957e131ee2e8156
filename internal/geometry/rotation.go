package geometry

import "math"

// NormalizeDegrees maps any rotation onto [0, 360).
func NormalizeDegrees(deg float64) float64 {
	normalized := math.Mod(deg, 360)
	if normalized < 0 {
		normalized += 360
	}
	return normalized
}

// SnapRotation reduces a display rotation to the collision rotation: the
// nearest 90-degree increment, one of 0, 90, 180 or 270. Free rotation is a
// rendering concern; collision math only ever sees snapped values.
func SnapRotation(deg float64) int {
	steps := int(math.Round(NormalizeDegrees(deg)/90)) % 4
	return steps * 90
}

// FootprintFor returns the footprint an asset occupies at the given display
// rotation. At 0/180 the stored footprint applies; at 90/270 it is transposed.
func FootprintFor(base Footprint, rotationDeg float64) Footprint {
	switch SnapRotation(rotationDeg) {
	case 90, 270:
		return base.Transpose()
	default:
		return base
	}
}
