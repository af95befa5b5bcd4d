package agronomy

import (
	"math"
	"reflect"
	"testing"

	"turflog/models"
)

func solidFertilizer() *models.Fertilizer {
	return &models.Fertilizer{
		Name:        "Slow Release 21-0-0",
		Type:        "slow-release",
		N:           21,
		Price:       30000,
		PackageUnit: "20kg",
	}
}

func liquidFertilizer() *models.Fertilizer {
	return &models.Fertilizer{
		Name:        "Liquid Iron Plus",
		Type:        "liquid",
		N:           10,
		Price:       50000,
		PackageUnit: "10L",
		Density:     1.1,
	}
}

func TestComputeApplicationSolid(t *testing.T) {
	t.Parallel()

	app := ComputeApplication(solidFertilizer(), 1000, 20)

	if app.MassApplied != 20000 {
		t.Fatalf("MassApplied = %.3f, want 20000", app.MassApplied)
	}
	if app.Nutrients["N"] != 4200 {
		t.Fatalf("Nutrients[N] = %.3f, want 4200", app.Nutrients["N"])
	}
	if app.TotalCost != 30000 {
		t.Fatalf("TotalCost = %.2f, want 30000", app.TotalCost)
	}
	if app.RateUnit != RateUnitSolid {
		t.Fatalf("RateUnit = %q, want %q", app.RateUnit, RateUnitSolid)
	}
	for _, element := range Elements {
		if element == "N" {
			continue
		}
		if app.Nutrients[element] != 0 {
			t.Fatalf("Nutrients[%s] = %.3f, want 0", element, app.Nutrients[element])
		}
	}
}

func TestComputeApplicationLiquid(t *testing.T) {
	t.Parallel()

	app := ComputeApplication(liquidFertilizer(), 500, 5)

	if math.Abs(app.MassApplied-2750) > 1e-9 {
		t.Fatalf("MassApplied = %.3f, want 2750", app.MassApplied)
	}
	if math.Abs(app.Nutrients["N"]-275) > 1e-9 {
		t.Fatalf("Nutrients[N] = %.3f, want 275", app.Nutrients["N"])
	}
	// Package weight 10 L x 1.1 = 11 kg, so 2.75 kg costs ~12500.
	if math.Abs(app.TotalCost-12500) > 0.01 {
		t.Fatalf("TotalCost = %.2f, want ~12500", app.TotalCost)
	}
	if app.RateUnit != RateUnitLiquid {
		t.Fatalf("RateUnit = %q, want %q", app.RateUnit, RateUnitLiquid)
	}
}

func TestComputeApplicationConcentration(t *testing.T) {
	t.Parallel()

	f := liquidFertilizer()
	f.Concentration = 50

	app := ComputeApplication(f, 500, 5)

	// Mass is unchanged; only half of it bears nutrients.
	if math.Abs(app.MassApplied-2750) > 1e-9 {
		t.Fatalf("MassApplied = %.3f, want 2750", app.MassApplied)
	}
	if math.Abs(app.Nutrients["N"]-137.5) > 1e-9 {
		t.Fatalf("Nutrients[N] = %.3f, want 137.5", app.Nutrients["N"])
	}
	// Cost is priced on the full applied mass, not the bearing mass.
	if math.Abs(app.TotalCost-12500) > 0.01 {
		t.Fatalf("TotalCost = %.2f, want ~12500", app.TotalCost)
	}
}

func TestComputeApplicationZeroResults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		f    *models.Fertilizer
		area float64
		rate float64
	}{
		{"nil fertilizer", nil, 1000, 20},
		{"zero area", solidFertilizer(), 0, 20},
		{"negative area", solidFertilizer(), -10, 20},
		{"negative rate", solidFertilizer(), 1000, -5},
		{"nan area", solidFertilizer(), math.NaN(), 20},
		{"inf rate", solidFertilizer(), 1000, math.Inf(1)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			app := ComputeApplication(tt.f, tt.area, tt.rate)
			if app.TotalCost != 0 {
				t.Fatalf("TotalCost = %.2f, want 0", app.TotalCost)
			}
			if app.MassApplied != 0 {
				t.Fatalf("MassApplied = %.3f, want 0", app.MassApplied)
			}
			for element, grams := range app.Nutrients {
				if grams != 0 {
					t.Fatalf("Nutrients[%s] = %.3f, want 0", element, grams)
				}
			}
		})
	}
}

func TestComputeApplicationUnpriceablePackage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		unit string
	}{
		{"no magnitude", "bag"},
		{"empty", ""},
		{"zero magnitude", "0kg"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := solidFertilizer()
			f.PackageUnit = tt.unit
			app := ComputeApplication(f, 1000, 20)
			if app.TotalCost != 0 {
				t.Fatalf("TotalCost = %.2f, want 0", app.TotalCost)
			}
			// Nutrient computation proceeds independently of pricing.
			if app.Nutrients["N"] != 4200 {
				t.Fatalf("Nutrients[N] = %.3f, want 4200", app.Nutrients["N"])
			}
		})
	}
}

func TestComputeApplicationMassConservation(t *testing.T) {
	t.Parallel()

	f := solidFertilizer()
	f.K = 100 // saturated declaration still cannot exceed applied mass

	area, rate := 750.0, 12.5
	app := ComputeApplication(f, area, rate)
	upper := area * rate
	for element, grams := range app.Nutrients {
		if grams < 0 || grams > upper {
			t.Fatalf("Nutrients[%s] = %.3f outside [0, %.1f]", element, grams, upper)
		}
		if math.IsNaN(grams) || math.IsInf(grams, 0) {
			t.Fatalf("Nutrients[%s] is not finite", element)
		}
	}
}

func TestComputeApplicationIdempotent(t *testing.T) {
	t.Parallel()

	f := liquidFertilizer()
	first := ComputeApplication(f, 500, 5)
	second := ComputeApplication(f, 500, 5)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated calls diverged: %+v vs %+v", first, second)
	}
}

func TestIsLiquid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		f    *models.Fertilizer
		want bool
	}{
		{"nil", nil, false},
		{"solid bag", &models.Fertilizer{PackageUnit: "20kg"}, false},
		{"litre package", &models.Fertilizer{PackageUnit: "10L"}, true},
		{"millilitre package", &models.Fertilizer{PackageUnit: "500ml"}, true},
		{"liquid type", &models.Fertilizer{PackageUnit: "20kg", Type: "liquid concentrate"}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsLiquid(tt.f); got != tt.want {
				t.Fatalf("IsLiquid() = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestLeadingNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  float64
	}{
		{"20kg", 20},
		{"10L", 10},
		{"2.5kg", 2.5},
		{" 15 kg ", 15},
		{"bag", 0},
		{"", 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			if got := LeadingNumber(tt.value); got != tt.want {
				t.Fatalf("LeadingNumber(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
