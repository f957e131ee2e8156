package units

import (
	"math"
	"testing"

	pkgerrors "github.com/terrainforge/backend/pkg/errors"
)

func TestToMetresFactors(t *testing.T) {
	cases := []struct {
		name  string
		value float64
		unit  Unit
		want  float64
	}{
		{"metres identity", 1.8, Metres, 1.8},
		{"centimetres", 180, Centimetres, 1.8},
		{"feet", 6, Feet, 1.8288},
		{"inches", 12, Inches, 0.3048},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToMetres(tc.value, tc.unit)
			if err != nil {
				t.Fatalf("ToMetres error = %v", err)
			}
			if math.Abs(got-tc.want) > 1e-4 {
				t.Fatalf("ToMetres(%v, %s) = %v, want %v", tc.value, tc.unit, got, tc.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, unit := range []Unit{Metres, Centimetres, Feet, Inches} {
		metres, err := ToMetres(2.5, unit)
		if err != nil {
			t.Fatalf("ToMetres(%s) error = %v", unit, err)
		}
		back, err := FromMetres(metres, unit)
		if err != nil {
			t.Fatalf("FromMetres(%s) error = %v", unit, err)
		}
		if math.Abs(back-2.5) > 1e-9 {
			t.Fatalf("round trip via %s: got %v", unit, back)
		}
	}
}

func TestToMetresRejectsBadInput(t *testing.T) {
	for _, value := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -0.5} {
		_, err := ToMetres(value, Metres)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %v, got %v", value, err)
		}
	}

	if _, err := ToMetres(1, Unit("furlong")); err == nil {
		t.Fatal("expected error for unknown unit")
	}
}

func TestParse(t *testing.T) {
	cases := map[string]Unit{
		"m":      Metres,
		" FT ":   Feet,
		"inches": Inches,
		"cm":     Centimetres,
		"meter":  Metres,
	}
	for raw, want := range cases {
		got, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", raw, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %s, want %s", raw, got, want)
		}
	}

	if _, err := Parse("yards"); err == nil {
		t.Fatal("expected error for unsupported unit")
	}
}

func TestLabel(t *testing.T) {
	if Label(Feet) != "feet" {
		t.Fatalf("unexpected label %q", Label(Feet))
	}
	if Label(Unit("x")) != "x" {
		t.Fatalf("expected raw token for unknown unit")
	}
}
