package units

import (
	"math"
	"strings"

	pkgerrors "github.com/terrainforge/backend/pkg/errors"
)

// Unit is a supported display unit for table dimensions. Occupancy math is
// always metres; units only exist at the presentation boundary.
type Unit string

const (
	Metres      Unit = "m"
	Centimetres Unit = "cm"
	Feet        Unit = "ft"
	Inches      Unit = "in"
)

// unitsPerMetre holds the fixed linear conversion factor for each unit.
var unitsPerMetre = map[Unit]float64{
	Metres:      1,
	Centimetres: 100,
	Feet:        3.28084,
	Inches:      39.3701,
}

var labels = map[Unit]string{
	Metres:      "metres",
	Centimetres: "centimetres",
	Feet:        "feet",
	Inches:      "inches",
}

// Parse resolves a unit token. Accepts the short form and a few aliases.
func Parse(raw string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "m", "metre", "metres", "meter", "meters":
		return Metres, nil
	case "cm", "centimetre", "centimetres", "centimeter", "centimeters":
		return Centimetres, nil
	case "ft", "foot", "feet":
		return Feet, nil
	case "in", "inch", "inches":
		return Inches, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "unsupported unit").
		WithDetails(map[string]any{"unit": raw})
}

// ToMetres converts a user-entered length to metres. Non-finite or negative
// values are rejected rather than coerced, so NaN never reaches geometry.
func ToMetres(value float64, unit Unit) (float64, error) {
	factor, ok := unitsPerMetre[unit]
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "unsupported unit").
			WithDetails(map[string]any{"unit": string(unit)})
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "length must be a non-negative finite number")
	}
	return value / factor, nil
}

// FromMetres converts a metre length into the display unit.
func FromMetres(metres float64, unit Unit) (float64, error) {
	factor, ok := unitsPerMetre[unit]
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "unsupported unit").
			WithDetails(map[string]any{"unit": string(unit)})
	}
	if math.IsNaN(metres) || math.IsInf(metres, 0) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "length must be finite")
	}
	return metres * factor, nil
}

// Label returns the human-readable name for a unit, or the raw token when
// the unit is unknown.
func Label(unit Unit) string {
	if label, ok := labels[unit]; ok {
		return label
	}
	return string(unit)
}
