package handlers

import (
	"errors"
	"math"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"turflog/internal/agronomy"
	applog "turflog/internal/log"
	"turflog/models"
)

type settingsRequest struct {
	GreenAreaM2   float64                       `json:"green_area_m2"`
	TeeAreaM2     float64                       `json:"tee_area_m2"`
	FairwayAreaM2 float64                       `json:"fairway_area_m2"`
	GuidelineKey  string                        `json:"guideline_key"`
	ManualPlan    bool                          `json:"manual_plan"`
	ManualTargets map[string][]models.NPKTarget `json:"manual_targets"`
}

func (payload *settingsRequest) validate() string {
	for _, area := range []float64{payload.GreenAreaM2, payload.TeeAreaM2, payload.FairwayAreaM2} {
		if math.IsNaN(area) || math.IsInf(area, 0) || area < 0 {
			return "zone areas must not be negative"
		}
	}
	for zone, targets := range payload.ManualTargets {
		if !models.ValidZone(zone) {
			return "manual_targets keys must be zone names"
		}
		if len(targets) > 12 {
			return "manual_targets holds at most 12 months per zone"
		}
	}
	return ""
}

// Settings reads and updates the tenant's configuration.
func Settings(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	switch r.Method {
	case http.MethodGet:
		showSettings(w, r, userID)
	case http.MethodPut:
		updateSettings(w, r, userID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// loadSettings returns the tenant's settings, falling back to zeroed
// defaults with the default guideline when none are stored yet.
func loadSettings(r *http.Request, userID uint) (*models.UserSettings, error) {
	settings := &models.UserSettings{}
	err := database.WithContext(r.Context()).
		Where("user_id = ?", userID).
		First(settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.UserSettings{
			UserID:       userID,
			GuidelineKey: agronomy.DefaultGuidelineKey,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func showSettings(w http.ResponseWriter, r *http.Request, userID uint) {
	settings, err := loadSettings(r, userID)
	if err != nil {
		applog.Error(r.Context(), "failed to load settings", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func updateSettings(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()

	var payload settingsRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if message := payload.validate(); message != "" {
		writeJSONError(w, http.StatusBadRequest, message)
		return
	}

	settings, err := loadSettings(r, userID)
	if err != nil {
		applog.Error(ctx, "failed to load settings for update", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load settings")
		return
	}

	settings.GreenAreaM2 = payload.GreenAreaM2
	settings.TeeAreaM2 = payload.TeeAreaM2
	settings.FairwayAreaM2 = payload.FairwayAreaM2
	settings.GuidelineKey = strings.ToLower(strings.TrimSpace(payload.GuidelineKey))
	settings.ManualPlan = payload.ManualPlan
	settings.ManualTargets = payload.ManualTargets

	var token string
	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkDataVersion(r, tx, userID); err != nil {
			return err
		}
		if err := tx.Save(settings).Error; err != nil {
			return err
		}
		var txErr error
		token, txErr = touchDataVersion(ctx, tx, userID)
		return txErr
	})
	if err != nil {
		if errors.Is(err, errStaleDataVersion) {
			writeJSONError(w, http.StatusPreconditionFailed, "settings changed since last read")
			return
		}
		applog.Error(ctx, "failed to save settings", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to save settings")
		return
	}

	setVersionHeader(w, token)
	writeJSON(w, http.StatusOK, settings)
}
