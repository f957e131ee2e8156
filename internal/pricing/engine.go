package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/terrainforge/backend/internal/geometry"
	"github.com/terrainforge/backend/pkg/config"
	pkgerrors "github.com/terrainforge/backend/pkg/errors"
)

// Engine derives print costs from asset geometry and splits the stored
// first-purchase price into artist cost, platform commission and print cost.
// Geometry estimation stays in float64; every money value is a decimal.
type Engine struct {
	materialCostPerGram decimal.Decimal
	machineCostPerHour  decimal.Decimal
	laborCostPerPrint   decimal.Decimal
	printSpeedGramsHour decimal.Decimal
	overheadMultiplier  decimal.Decimal
	commissionRate      decimal.Decimal
	repeatMarginRate    decimal.Decimal

	wallThicknessCm    float64
	infillFraction     float64
	wasteFactor        float64
	densityGramsPerCm3 float64
	minWeightGrams     float64
}

// NewEngine validates the pricing constants and builds an engine.
func NewEngine(cfg config.PricingConfig) (*Engine, error) {
	if cfg.MaterialCostPerGram <= 0 || cfg.MachineCostPerHour <= 0 || cfg.LaborCostPerPrint < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost constants must be positive")
	}
	if cfg.PrintSpeedGramsPerHour <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "print speed must be positive")
	}
	if cfg.OverheadMultiplier < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "overhead multiplier must be at least 1")
	}
	if cfg.CommissionRate < 0 || cfg.CommissionRate >= 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission rate must be within [0,1)")
	}
	if cfg.RepeatMarginRate < 0 || cfg.RepeatMarginRate >= 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "repeat margin rate must be within [0,1)")
	}
	if cfg.WallThicknessCm <= 0 || cfg.DensityGramsPerCm3 <= 0 || cfg.WasteFactor < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight estimation constants are invalid")
	}
	if cfg.InfillFraction < 0 || cfg.InfillFraction > 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "infill fraction must be within [0,1]")
	}

	return &Engine{
		materialCostPerGram: decimal.NewFromFloat(cfg.MaterialCostPerGram),
		machineCostPerHour:  decimal.NewFromFloat(cfg.MachineCostPerHour),
		laborCostPerPrint:   decimal.NewFromFloat(cfg.LaborCostPerPrint),
		printSpeedGramsHour: decimal.NewFromFloat(cfg.PrintSpeedGramsPerHour),
		overheadMultiplier:  decimal.NewFromFloat(cfg.OverheadMultiplier),
		commissionRate:      decimal.NewFromFloat(cfg.CommissionRate),
		repeatMarginRate:    decimal.NewFromFloat(cfg.RepeatMarginRate),
		wallThicknessCm:     cfg.WallThicknessCm,
		infillFraction:      cfg.InfillFraction,
		wasteFactor:         cfg.WasteFactor,
		densityGramsPerCm3:  cfg.DensityGramsPerCm3,
		minWeightGrams:      cfg.MinWeightGrams,
	}, nil
}

// VolumeCm3 is the bounding-box volume in cubic centimetres.
func VolumeCm3(aabb geometry.AABB) float64 {
	return (aabb.X * 100) * (aabb.Y * 100) * (aabb.Z * 100)
}

// EstimateWeight approximates the printed piece as a thin hollow shell:
// surface area times wall thickness, a small fractional infill of the
// interior volume, and a waste/support overhead factor, converted to grams
// via material density. Never returns less than the configured floor.
func (e *Engine) EstimateWeight(aabb geometry.AABB) float64 {
	xCm, yCm, zCm := aabb.X*100, aabb.Y*100, aabb.Z*100

	surfaceCm2 := 2 * (xCm*yCm + yCm*zCm + xCm*zCm)
	shellCm3 := surfaceCm2 * e.wallThicknessCm

	innerX := xCm - 2*e.wallThicknessCm
	innerY := yCm - 2*e.wallThicknessCm
	innerZ := zCm - 2*e.wallThicknessCm
	var interiorCm3 float64
	if innerX > 0 && innerY > 0 && innerZ > 0 {
		interiorCm3 = innerX * innerY * innerZ
	}

	materialCm3 := shellCm3 + interiorCm3*e.infillFraction
	grams := materialCm3 * e.densityGramsPerCm3 * e.wasteFactor
	if grams < e.minWeightGrams {
		grams = e.minWeightGrams
	}
	return grams
}

// PrintCost converts estimated weight into a money cost:
// overhead x (material + machine time + fixed labor).
func (e *Engine) PrintCost(aabb geometry.AABB) decimal.Decimal {
	weight := decimal.NewFromFloat(e.EstimateWeight(aabb))

	material := weight.Mul(e.materialCostPerGram)
	machine := weight.Div(e.printSpeedGramsHour).Mul(e.machineCostPerHour)

	return e.overheadMultiplier.Mul(material.Add(machine).Add(e.laborCostPerPrint))
}
