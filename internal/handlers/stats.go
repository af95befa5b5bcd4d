package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"turflog/internal/agronomy"
	applog "turflog/internal/log"
	"turflog/models"
)

// ProductStats serves per-product cost and usage summaries.
// Query: order=cost (default) | count, year=all (default) | YYYY.
func ProductStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	entries, err := loadTenantEntries(r, userID)
	if err != nil {
		applog.Error(r.Context(), "failed to load entries for product stats", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to compute statistics")
		return
	}

	entries = filterByYear(entries, yearParam(r))
	stats := agronomy.ProductStats(entries)
	if strings.EqualFold(r.URL.Query().Get("order"), "count") {
		stats = agronomy.MostFrequent(stats)
	}
	writeJSON(w, http.StatusOK, stats)
}

// PeriodStats serves cost buckets by day, month, or year.
// Query: granularity=daily|monthly (default)|yearly, year=all (default) | YYYY.
func PeriodStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	granularity := agronomy.Monthly
	switch strings.ToLower(r.URL.Query().Get("granularity")) {
	case "", "monthly":
	case "daily":
		granularity = agronomy.Daily
	case "yearly":
		granularity = agronomy.Yearly
	default:
		writeJSONError(w, http.StatusBadRequest, "granularity must be daily, monthly, or yearly")
		return
	}

	entries, err := loadTenantEntries(r, userID)
	if err != nil {
		applog.Error(r.Context(), "failed to load entries for period stats", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to compute statistics")
		return
	}

	writeJSON(w, http.StatusOK, agronomy.PeriodStats(entries, granularity, yearParam(r)))
}

// UsageStats serves annual physical usage per product.
func UsageStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	entries, err := loadTenantEntries(r, userID)
	if err != nil {
		applog.Error(r.Context(), "failed to load entries for usage stats", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to compute statistics")
		return
	}

	writeJSON(w, http.StatusOK, agronomy.UsageStats(entries, yearParam(r)))
}

type comparisonResponse struct {
	Year       string                     `json:"year"`
	Zone       string                     `json:"zone"`
	Guideline  string                     `json:"guideline"`
	ManualPlan bool                       `json:"manual_plan"`
	Cumulative bool                       `json:"cumulative"`
	Points     []agronomy.ComparisonPoint `json:"points"`
}

// Comparison serves the monthly actual-vs-guideline N/P/K series.
// Query: year=YYYY (required), zone=green (default)|tee|fairway,
// cumulative=true|false.
func Comparison(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	year := strings.TrimSpace(r.URL.Query().Get("year"))
	if _, err := strconv.Atoi(year); err != nil || len(year) != 4 {
		writeJSONError(w, http.StatusBadRequest, "year must be a four-digit year")
		return
	}
	zone := models.NormalizeZone(r.URL.Query().Get("zone"))
	cumulative := strings.EqualFold(r.URL.Query().Get("cumulative"), "true")

	entries, err := loadTenantEntries(r, userID)
	if err != nil {
		applog.Error(r.Context(), "failed to load entries for comparison", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to compute comparison")
		return
	}

	settings, err := loadSettings(r, userID)
	if err != nil {
		applog.Error(r.Context(), "failed to load settings for comparison", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to compute comparison")
		return
	}

	actual := agronomy.MonthlyNutrients(entries, year, zone)
	area := settings.ZoneArea(zone)

	response := comparisonResponse{
		Year:       year,
		Zone:       zone,
		ManualPlan: settings.ManualPlan,
		Cumulative: cumulative,
	}
	if settings.ManualPlan {
		response.Points = agronomy.CompareManual(actual, area, settings.ZoneTargets(zone))
	} else {
		guideline := agronomy.GuidelineByKey(settings.GuidelineKey)
		response.Guideline = guideline.Key
		response.Points = agronomy.CompareMonthly(actual, area, guideline)
	}
	if cumulative {
		response.Points = agronomy.Cumulative(response.Points)
	}

	writeJSON(w, http.StatusOK, response)
}

// GuidelineIndex lists the built-in reference programs.
func GuidelineIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, agronomy.Guidelines())
}

func yearParam(r *http.Request) string {
	year := strings.TrimSpace(r.URL.Query().Get("year"))
	if year == "" {
		return agronomy.YearFilterAll
	}
	return year
}

func filterByYear(entries []models.LogEntry, year string) []models.LogEntry {
	if year == "" || year == agronomy.YearFilterAll {
		return entries
	}
	filtered := make([]models.LogEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Year() == year {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}
