package agronomy

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"turflog/models"
)

// Elements lists the tracked element symbols in canonical order.
var Elements = []string{
	"N", "P", "K", "Ca", "Mg", "S", "Fe", "Mn", "Zn",
	"Cu", "B", "Mo", "Cl", "Na", "Si", "Ni", "Co", "V",
}

const (
	RateUnitSolid  = "g/m2"
	RateUnitLiquid = "ml/m2"
)

// Application is the result of costing one treatment event: absolute grams
// delivered per element for the treated area, the total product mass applied,
// and the monetary cost of that mass.
type Application struct {
	Nutrients   map[string]float64 `json:"nutrients"`
	TotalCost   float64            `json:"total_cost"`
	MassApplied float64            `json:"mass_applied"`
	RateUnit    string             `json:"rate_unit"`
}

// ComputeApplication converts a fertilizer definition, a treated area (m²),
// and an application rate (g/m² or ml/m²) into elemental nutrient mass and a
// cost estimate. It is pure and fail-soft: a nil fertilizer or a non-finite
// or negative input yields an all-zero result, never an error, so one
// malformed record cannot abort a dashboard render.
func ComputeApplication(f *models.Fertilizer, areaM2, ratePerM2 float64) Application {
	result := Application{
		Nutrients: zeroNutrients(),
		RateUnit:  RateUnitSolid,
	}
	if f == nil {
		return result
	}

	liquid := IsLiquid(f)
	if liquid {
		result.RateUnit = RateUnitLiquid
	}

	if !isFinite(areaM2) || !isFinite(ratePerM2) || areaM2 < 0 || ratePerM2 < 0 {
		return result
	}

	// Total product mass in grams. For liquids the rate is a volume, so
	// density converts it to mass; density defaults to 1 g/ml when the
	// label does not declare one.
	mass := ratePerM2 * areaM2
	if liquid {
		mass *= densityOrDefault(f.Density)
	}
	mass = finiteOrZero(mass)
	result.MassApplied = mass

	// Diluted concentrates: only part of the liquid carries nutrients.
	bearing := mass
	if liquid && f.Concentration > 0 {
		bearing = finiteOrZero(mass * f.Concentration / 100)
	}

	for element, pct := range f.NutrientPercents() {
		result.Nutrients[element] = round3(finiteOrZero(bearing * pct / 100))
	}

	result.TotalCost = round2(finiteOrZero(packageCost(f, liquid, mass)))
	return result
}

// IsLiquid reports whether the product is applied as a liquid: its package
// unit carries a volume marker or its declared type names the liquid
// category.
func IsLiquid(f *models.Fertilizer) bool {
	if f == nil {
		return false
	}
	unit := strings.ToLower(f.PackageUnit)
	if strings.Contains(unit, "ml") || strings.Contains(unit, "l") {
		return true
	}
	return strings.Contains(strings.ToLower(f.Type), "liquid")
}

// packageCost prices the applied mass from the package descriptor. Packages
// with no parseable positive magnitude cannot be priced and cost zero;
// nutrient computation is unaffected.
func packageCost(f *models.Fertilizer, liquid bool, massG float64) float64 {
	magnitude := LeadingNumber(f.PackageUnit)
	weightKg := magnitude
	if liquid {
		weightKg = magnitude * densityOrDefault(f.Density)
	}
	if !isFinite(weightKg) || weightKg <= 0 {
		return 0
	}
	costPerKg := f.Price / weightKg
	return massG / 1000 * costPerKg
}

var leadingNumberPattern = regexp.MustCompile(`\d*\.?\d+`)

// LeadingNumber extracts the first numeric magnitude from a descriptor
// string such as "20kg" or "5ml/m2", returning 0 when none is present.
func LeadingNumber(value string) float64 {
	match := leadingNumberPattern.FindString(strings.TrimSpace(value))
	if match == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func densityOrDefault(density float64) float64 {
	if !isFinite(density) || density <= 0 {
		return 1
	}
	return density
}

func zeroNutrients() map[string]float64 {
	nutrients := make(map[string]float64, len(Elements))
	for _, element := range Elements {
		nutrients[element] = 0
	}
	return nutrients
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteOrZero(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
