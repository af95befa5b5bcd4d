package agronomy

import (
	"strings"

	"turflog/models"
)

// Guideline is a named reference annual nutrient program: total N/P/K in
// g/m² per year plus a monthly distribution curve that sums to 1.0 across
// the year. January is index 0.
type Guideline struct {
	Key          string      `json:"key"`
	Name         string      `json:"name"`
	AnnualN      float64     `json:"annual_n"`
	AnnualP      float64     `json:"annual_p"`
	AnnualK      float64     `json:"annual_k"`
	Distribution [12]float64 `json:"distribution"`
}

// DefaultGuidelineKey selects the program used whenever a tenant's selected
// key does not resolve.
const DefaultGuidelineKey = "cool-season-green"

// Growth curves. Cool-season turf feeds in spring and autumn shoulders;
// warm-season turf concentrates in midsummer.
var (
	coolSeasonCurve = [12]float64{0.02, 0.03, 0.08, 0.12, 0.13, 0.10, 0.08, 0.10, 0.13, 0.12, 0.06, 0.03}
	warmSeasonCurve = [12]float64{0.00, 0.00, 0.04, 0.08, 0.14, 0.18, 0.20, 0.18, 0.10, 0.06, 0.02, 0.00}
)

var guidelines = []Guideline{
	{
		Key:          "cool-season-green",
		Name:         "Cool-season bentgrass green",
		AnnualN:      18,
		AnnualP:      6,
		AnnualK:      14,
		Distribution: coolSeasonCurve,
	},
	{
		Key:          "cool-season-fairway",
		Name:         "Cool-season fairway",
		AnnualN:      12,
		AnnualP:      4,
		AnnualK:      9,
		Distribution: coolSeasonCurve,
	},
	{
		Key:          "warm-season-green",
		Name:         "Warm-season bermudagrass green",
		AnnualN:      24,
		AnnualP:      7,
		AnnualK:      18,
		Distribution: warmSeasonCurve,
	},
	{
		Key:          "warm-season-fairway",
		Name:         "Warm-season fairway",
		AnnualN:      15,
		AnnualP:      5,
		AnnualK:      11,
		Distribution: warmSeasonCurve,
	},
}

// Guidelines returns the built-in reference programs.
func Guidelines() []Guideline {
	out := make([]Guideline, len(guidelines))
	copy(out, guidelines)
	return out
}

// GuidelineByKey resolves a guideline, falling back to the default program
// when the key is unknown or blank.
func GuidelineByKey(key string) Guideline {
	trimmed := strings.ToLower(strings.TrimSpace(key))
	for _, g := range guidelines {
		if g.Key == trimmed {
			return g
		}
	}
	for _, g := range guidelines {
		if g.Key == DefaultGuidelineKey {
			return g
		}
	}
	return guidelines[0]
}

// ComparisonPoint aligns one month's actual nutrient delivery against the
// planned target, both in g/m². Month is 1-12.
type ComparisonPoint struct {
	Month   int     `json:"month"`
	ActualN float64 `json:"actual_n"`
	ActualP float64 `json:"actual_p"`
	ActualK float64 `json:"actual_k"`
	GuideN  float64 `json:"guide_n"`
	GuideP  float64 `json:"guide_p"`
	GuideK  float64 `json:"guide_k"`
}

// CompareMonthly distributes a guideline's annual targets across twelve
// months and aligns them with the actual series. Actuals arrive as absolute
// grams and are converted to g/m² with the zone area; an unknown or
// non-positive area yields zero actuals rather than dividing by zero.
func CompareMonthly(actual [12]NPK, areaM2 float64, g Guideline) []ComparisonPoint {
	points := make([]ComparisonPoint, 12)
	for month := 0; month < 12; month++ {
		points[month] = ComparisonPoint{
			Month:   month + 1,
			ActualN: perSquareMeter(actual[month].N, areaM2),
			ActualP: perSquareMeter(actual[month].P, areaM2),
			ActualK: perSquareMeter(actual[month].K, areaM2),
			GuideN:  g.AnnualN * g.Distribution[month],
			GuideP:  g.AnnualP * g.Distribution[month],
			GuideK:  g.AnnualK * g.Distribution[month],
		}
	}
	return points
}

// CompareManual aligns actuals against a tenant-authored 12-month plan.
// Plans shorter than twelve months are zero-padded.
func CompareManual(actual [12]NPK, areaM2 float64, targets []models.NPKTarget) []ComparisonPoint {
	points := make([]ComparisonPoint, 12)
	for month := 0; month < 12; month++ {
		var target models.NPKTarget
		if month < len(targets) {
			target = targets[month]
		}
		points[month] = ComparisonPoint{
			Month:   month + 1,
			ActualN: perSquareMeter(actual[month].N, areaM2),
			ActualP: perSquareMeter(actual[month].P, areaM2),
			ActualK: perSquareMeter(actual[month].K, areaM2),
			GuideN:  target.N,
			GuideP:  target.P,
			GuideK:  target.K,
		}
	}
	return points
}

// Cumulative replaces each month's value with the running sum through that
// month, independently for all six series.
func Cumulative(points []ComparisonPoint) []ComparisonPoint {
	out := make([]ComparisonPoint, len(points))
	var running ComparisonPoint
	for i, point := range points {
		running.ActualN += point.ActualN
		running.ActualP += point.ActualP
		running.ActualK += point.ActualK
		running.GuideN += point.GuideN
		running.GuideP += point.GuideP
		running.GuideK += point.GuideK
		out[i] = ComparisonPoint{
			Month:   point.Month,
			ActualN: running.ActualN,
			ActualP: running.ActualP,
			ActualK: running.ActualK,
			GuideN:  running.GuideN,
			GuideP:  running.GuideP,
			GuideK:  running.GuideK,
		}
	}
	return out
}

func perSquareMeter(grams, areaM2 float64) float64 {
	if !isFinite(areaM2) || areaM2 <= 0 {
		return 0
	}
	return finiteOrZero(grams / areaM2)
}
