package agronomy

import (
	"sort"
	"strconv"
	"strings"

	"turflog/models"
)

// YearFilterAll disables year filtering in the aggregation functions.
const YearFilterAll = "all"

// Granularity selects the period bucket size for cost aggregation.
type Granularity string

const (
	Daily   Granularity = "daily"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

// ProductStat summarises every application of one product.
type ProductStat struct {
	Product   string  `json:"product"`
	Count     int     `json:"count"`
	TotalCost float64 `json:"total_cost"`
	AmountKg  float64 `json:"amount_kg"`
	Liquid    bool    `json:"liquid"`
}

// PeriodStat is one cost bucket keyed by an ISO period string.
type PeriodStat struct {
	Period string  `json:"period"`
	Cost   float64 `json:"cost"`
}

// UsageStat summarises physical product usage for one product within a year.
type UsageStat struct {
	Product string  `json:"product"`
	Amount  float64 `json:"amount"`
	Unit    string  `json:"unit"`
	Cost    float64 `json:"cost"`
	Count   int     `json:"count"`
}

// NPK carries nitrogen, phosphorus, and potassium figures for one bucket.
type NPK struct {
	N float64 `json:"n"`
	P float64 `json:"p"`
	K float64 `json:"k"`
}

// ProductStats folds the log into per-product summaries ordered by
// descending total cost, ties broken by name for determinism.
func ProductStats(entries []models.LogEntry) []ProductStat {
	byProduct := make(map[string]*ProductStat)
	order := make([]string, 0)
	for i := range entries {
		entry := &entries[i]
		stat, ok := byProduct[entry.ProductName]
		if !ok {
			stat = &ProductStat{Product: entry.ProductName, Liquid: entryIsLiquid(entry)}
			byProduct[entry.ProductName] = stat
			order = append(order, entry.ProductName)
		}
		stat.Count++
		stat.TotalCost += entry.TotalCost
		stat.AmountKg += amountAppliedKg(entry)
	}

	stats := make([]ProductStat, 0, len(order))
	for _, name := range order {
		stats = append(stats, *byProduct[name])
	}
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].TotalCost != stats[j].TotalCost {
			return stats[i].TotalCost > stats[j].TotalCost
		}
		return stats[i].Product < stats[j].Product
	})
	return stats
}

// MostFrequent reorders product stats by descending application count.
func MostFrequent(stats []ProductStat) []ProductStat {
	ordered := make([]ProductStat, len(stats))
	copy(ordered, stats)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Count != ordered[j].Count {
			return ordered[i].Count > ordered[j].Count
		}
		return ordered[i].Product < ordered[j].Product
	})
	return ordered
}

// PeriodStats buckets entry costs by day, month, or year, optionally
// restricted to a four-digit year. Buckets are sorted ascending by period
// string; zero-padded ISO components make that chronological.
func PeriodStats(entries []models.LogEntry, granularity Granularity, year string) []PeriodStat {
	buckets := make(map[string]float64)
	for i := range entries {
		entry := &entries[i]
		if !matchesYear(entry, year) {
			continue
		}
		period := periodKey(entry, granularity)
		if period == "" {
			continue
		}
		buckets[period] += entry.TotalCost
	}

	stats := make([]PeriodStat, 0, len(buckets))
	for period, cost := range buckets {
		stats = append(stats, PeriodStat{Period: period, Cost: cost})
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Period < stats[j].Period
	})
	return stats
}

// UsageStats folds physical amounts (kg or L), cost, and count per product
// for the selected year, sorted by descending amount.
func UsageStats(entries []models.LogEntry, year string) []UsageStat {
	byProduct := make(map[string]*UsageStat)
	order := make([]string, 0)
	for i := range entries {
		entry := &entries[i]
		if !matchesYear(entry, year) {
			continue
		}
		stat, ok := byProduct[entry.ProductName]
		if !ok {
			unit := "kg"
			if entryIsLiquid(entry) {
				unit = "L"
			}
			stat = &UsageStat{Product: entry.ProductName, Unit: unit}
			byProduct[entry.ProductName] = stat
			order = append(order, entry.ProductName)
		}
		stat.Amount += amountAppliedKg(entry)
		stat.Cost += entry.TotalCost
		stat.Count++
	}

	stats := make([]UsageStat, 0, len(order))
	for _, name := range order {
		stats = append(stats, *byProduct[name])
	}
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Amount != stats[j].Amount {
			return stats[i].Amount > stats[j].Amount
		}
		return stats[i].Product < stats[j].Product
	})
	return stats
}

// MonthlyNutrients sums delivered N, P, and K grams into twelve monthly
// buckets for the given year, optionally restricted to one usage zone.
// January is index 0.
func MonthlyNutrients(entries []models.LogEntry, year, zone string) [12]NPK {
	var series [12]NPK
	for i := range entries {
		entry := &entries[i]
		if !matchesYear(entry, year) {
			continue
		}
		if zone != "" && entry.Zone != zone {
			continue
		}
		month, ok := monthIndex(entry.Date)
		if !ok {
			continue
		}
		series[month].N += entry.Nutrients["N"]
		series[month].P += entry.Nutrients["P"]
		series[month].K += entry.Nutrients["K"]
	}
	return series
}

// TotalCost sums the stored cost over the whole log.
func TotalCost(entries []models.LogEntry) float64 {
	total := 0.0
	for i := range entries {
		total += entries[i].TotalCost
	}
	return total
}

// amountAppliedKg prefers the mass snapshot taken at write time and only
// falls back to area×rate for legacy rows that predate the snapshot.
func amountAppliedKg(entry *models.LogEntry) float64 {
	if entry.MassApplied > 0 {
		return entry.MassApplied / 1000
	}
	return finiteOrZero(entry.AreaM2 * entry.Rate / 1000)
}

func entryIsLiquid(entry *models.LogEntry) bool {
	return strings.Contains(strings.ToLower(entry.RateUnit), "ml")
}

func matchesYear(entry *models.LogEntry, year string) bool {
	if year == "" || year == YearFilterAll {
		return true
	}
	return entry.Year() == year
}

func periodKey(entry *models.LogEntry, granularity Granularity) string {
	switch granularity {
	case Daily:
		if len(entry.Date) < 10 {
			return ""
		}
		return entry.Date[:10]
	case Monthly:
		return entry.Month()
	case Yearly:
		return entry.Year()
	default:
		return ""
	}
}

func monthIndex(date string) (int, bool) {
	if len(date) < 7 {
		return 0, false
	}
	month, err := strconv.Atoi(date[5:7])
	if err != nil || month < 1 || month > 12 {
		return 0, false
	}
	return month - 1, true
}
