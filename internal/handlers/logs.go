package handlers

import (
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"turflog/internal/agronomy"
	applog "turflog/internal/log"
	"turflog/models"
)

type logEntryRequest struct {
	Date          string  `json:"date"`
	ProductName   string  `json:"product_name"`
	Zone          string  `json:"zone"`
	AreaM2        float64 `json:"area_m2"`
	Rate          float64 `json:"rate"`
	TopdressingMM float64 `json:"topdressing_mm"`
}

func (payload *logEntryRequest) validate() string {
	if _, err := time.Parse("2006-01-02", payload.Date); err != nil {
		return "date must be formatted YYYY-MM-DD"
	}
	if strings.TrimSpace(payload.ProductName) == "" {
		return "product_name is required"
	}
	if payload.Zone != "" && !models.ValidZone(strings.ToLower(payload.Zone)) {
		return "zone must be one of green, tee, fairway"
	}
	if math.IsNaN(payload.AreaM2) || math.IsInf(payload.AreaM2, 0) || payload.AreaM2 <= 0 {
		return "area_m2 must be a positive number"
	}
	if math.IsNaN(payload.Rate) || math.IsInf(payload.Rate, 0) || payload.Rate < 0 {
		return "rate must not be negative"
	}
	return ""
}

// LogResource handles REST-style interactions for the application log.
func LogResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/logs"), "/")
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listLogEntries(w, r, userID)
		case http.MethodPost:
			createLogEntry(w, r, userID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	deleteLogEntry(w, r, userID, path)
}

func listLogEntries(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()
	var entries []models.LogEntry
	err := database.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date desc, id desc").
		Find(&entries).Error
	if err != nil {
		applog.Error(ctx, "failed to list log entries", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load application log")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// createLogEntry runs the calculator once and stores the cost, mass, and
// nutrient snapshot on the row. The entry stays valid even if the catalog
// entry it names is later edited or deleted.
func createLogEntry(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()

	var payload logEntryRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if message := payload.validate(); message != "" {
		writeJSONError(w, http.StatusBadRequest, message)
		return
	}

	fertilizer, err := findAccessibleFertilizerByName(r, userID, payload.ProductName)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		applog.Error(ctx, "failed to resolve product for log entry", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to record application")
		return
	}
	if fertilizer == nil {
		applog.Warn(ctx, "recording application for unknown product", "product", payload.ProductName)
	}

	computed := agronomy.ComputeApplication(fertilizer, payload.AreaM2, payload.Rate)

	entry := models.LogEntry{
		EntryID:       models.NewEntryID(),
		UserID:        userID,
		Date:          payload.Date,
		ProductName:   strings.TrimSpace(payload.ProductName),
		Zone:          models.NormalizeZone(payload.Zone),
		AreaM2:        payload.AreaM2,
		Rate:          payload.Rate,
		RateUnit:      computed.RateUnit,
		TotalCost:     computed.TotalCost,
		MassApplied:   computed.MassApplied,
		Nutrients:     computed.Nutrients,
		TopdressingMM: payload.TopdressingMM,
	}

	var token string
	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkDataVersion(r, tx, userID); err != nil {
			return err
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		var txErr error
		token, txErr = touchDataVersion(ctx, tx, userID)
		return txErr
	})
	if err != nil {
		if errors.Is(err, errStaleDataVersion) {
			writeJSONError(w, http.StatusPreconditionFailed, "application log changed since last read")
			return
		}
		applog.Error(ctx, "failed to create log entry", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to record application")
		return
	}

	setVersionHeader(w, token)
	writeJSON(w, http.StatusCreated, entry)
}

func deleteLogEntry(w http.ResponseWriter, r *http.Request, userID uint, entryID string) {
	ctx := r.Context()

	var entry models.LogEntry
	err := database.WithContext(ctx).
		Where("entry_id = ? AND user_id = ?", entryID, userID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load log entry for delete", "error", err, "entryID", entryID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete application")
		return
	}

	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkDataVersion(r, tx, userID); err != nil {
			return err
		}
		if err := tx.Delete(&entry).Error; err != nil {
			return err
		}
		_, txErr := touchDataVersion(ctx, tx, userID)
		return txErr
	})
	if err != nil {
		if errors.Is(err, errStaleDataVersion) {
			writeJSONError(w, http.StatusPreconditionFailed, "application log changed since last read")
			return
		}
		applog.Error(ctx, "failed to delete log entry", "error", err, "entryID", entryID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete application")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// loadTenantEntries fetches every log entry for a tenant, newest first.
func loadTenantEntries(r *http.Request, userID uint) ([]models.LogEntry, error) {
	if database == nil {
		return nil, gorm.ErrInvalidDB
	}
	var entries []models.LogEntry
	err := database.WithContext(r.Context()).
		Where("user_id = ?", userID).
		Order("date desc, id desc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
