package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	applog "turflog/internal/log"
	"turflog/models"
)

type fertilizerRequest struct {
	Name            string             `json:"name"`
	Zone            string             `json:"zone"`
	Type            string             `json:"type"`
	Nutrients       map[string]float64 `json:"nutrients"`
	AminoAcid       float64            `json:"amino_acid"`
	Price           float64            `json:"price"`
	PackageUnit     string             `json:"package_unit"`
	RecommendedRate string             `json:"recommended_rate"`
	Density         float64            `json:"density"`
	Concentration   float64            `json:"concentration"`
	StockCount      int                `json:"stock_count"`
	LowStockAlert   bool               `json:"low_stock_alert"`
	Description     string             `json:"description"`
	Shared          bool               `json:"shared"`
}

func (payload *fertilizerRequest) validate() string {
	if strings.TrimSpace(payload.Name) == "" {
		return "name is required"
	}
	if payload.Zone != "" && !models.ValidZone(strings.ToLower(payload.Zone)) {
		return "zone must be one of green, tee, fairway"
	}
	for element, pct := range payload.Nutrients {
		if pct < 0 || pct > 100 {
			return "nutrient percentage for " + element + " must be within [0,100]"
		}
	}
	if payload.AminoAcid < 0 || payload.AminoAcid > 100 {
		return "amino_acid must be within [0,100]"
	}
	if payload.Concentration < 0 || payload.Concentration > 100 {
		return "concentration must be within [0,100]"
	}
	if payload.Price < 0 {
		return "price must not be negative"
	}
	if payload.Density < 0 {
		return "density must not be negative"
	}
	return ""
}

func (payload *fertilizerRequest) apply(fertilizer *models.Fertilizer) {
	fertilizer.Name = strings.TrimSpace(payload.Name)
	fertilizer.Zone = models.NormalizeZone(payload.Zone)
	fertilizer.Type = strings.TrimSpace(payload.Type)
	fertilizer.AminoAcid = payload.AminoAcid
	fertilizer.Price = payload.Price
	fertilizer.PackageUnit = strings.TrimSpace(payload.PackageUnit)
	fertilizer.RecommendedRate = strings.TrimSpace(payload.RecommendedRate)
	fertilizer.Density = payload.Density
	fertilizer.Concentration = payload.Concentration
	fertilizer.StockCount = payload.StockCount
	fertilizer.LowStockAlert = payload.LowStockAlert
	fertilizer.Description = strings.TrimSpace(payload.Description)

	fertilizer.N = payload.Nutrients["N"]
	fertilizer.P = payload.Nutrients["P"]
	fertilizer.K = payload.Nutrients["K"]
	fertilizer.Ca = payload.Nutrients["Ca"]
	fertilizer.Mg = payload.Nutrients["Mg"]
	fertilizer.S = payload.Nutrients["S"]
	fertilizer.Fe = payload.Nutrients["Fe"]
	fertilizer.Mn = payload.Nutrients["Mn"]
	fertilizer.Zn = payload.Nutrients["Zn"]
	fertilizer.Cu = payload.Nutrients["Cu"]
	fertilizer.B = payload.Nutrients["B"]
	fertilizer.Mo = payload.Nutrients["Mo"]
	fertilizer.Cl = payload.Nutrients["Cl"]
	fertilizer.Na = payload.Nutrients["Na"]
	fertilizer.Si = payload.Nutrients["Si"]
	fertilizer.Ni = payload.Nutrients["Ni"]
	fertilizer.Co = payload.Nutrients["Co"]
	fertilizer.V = payload.Nutrients["V"]
}

// FertilizerResource handles REST-style interactions for catalog records.
func FertilizerResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	user, err := loadCurrentUser(r)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/fertilizers"), "/")
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listFertilizers(w, r, user)
		case http.MethodPost:
			createFertilizer(w, r, user)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	idValue, err := strconv.ParseUint(path, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	fertilizerID := uint(idValue)

	switch r.Method {
	case http.MethodGet:
		showFertilizer(w, r, fertilizerID, user)
	case http.MethodPut:
		updateFertilizer(w, r, fertilizerID, user)
	case http.MethodDelete:
		deleteFertilizer(w, r, fertilizerID, user)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listFertilizers(w http.ResponseWriter, r *http.Request, user *models.User) {
	ctx := r.Context()
	var results []models.Fertilizer
	err := database.WithContext(ctx).
		Where("owner_id = ? OR shared = ?", user.ID, true).
		Order("name asc").
		Find(&results).Error
	if err != nil {
		applog.Error(ctx, "failed to list fertilizers", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load catalog")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func showFertilizer(w http.ResponseWriter, r *http.Request, fertilizerID uint, user *models.User) {
	ctx := r.Context()
	var fertilizer models.Fertilizer
	if err := database.WithContext(ctx).First(&fertilizer, fertilizerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load fertilizer", "error", err, "id", fertilizerID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load catalog entry")
		return
	}

	if fertilizer.OwnerID != user.ID && !fertilizer.Shared {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, fertilizer)
}

func createFertilizer(w http.ResponseWriter, r *http.Request, user *models.User) {
	ctx := r.Context()

	var payload fertilizerRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if message := payload.validate(); message != "" {
		writeJSONError(w, http.StatusBadRequest, message)
		return
	}

	fertilizer := models.Fertilizer{OwnerID: user.ID}
	payload.apply(&fertilizer)
	if payload.Shared && user.IsAdmin() {
		fertilizer.Shared = true
	}

	var token string
	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkDataVersion(r, tx, user.ID); err != nil {
			return err
		}
		if err := tx.Create(&fertilizer).Error; err != nil {
			return err
		}
		var txErr error
		token, txErr = touchDataVersion(ctx, tx, user.ID)
		return txErr
	})
	if err != nil {
		if errors.Is(err, errStaleDataVersion) {
			writeJSONError(w, http.StatusPreconditionFailed, "catalog changed since last read")
			return
		}
		applog.Error(ctx, "failed to create fertilizer", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to create catalog entry")
		return
	}

	setVersionHeader(w, token)
	writeJSON(w, http.StatusCreated, fertilizer)
}

func updateFertilizer(w http.ResponseWriter, r *http.Request, fertilizerID uint, user *models.User) {
	ctx := r.Context()

	var fertilizer models.Fertilizer
	if err := database.WithContext(ctx).First(&fertilizer, fertilizerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load fertilizer for update", "error", err, "id", fertilizerID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load catalog entry")
		return
	}

	if !canManageFertilizer(&fertilizer, user) {
		http.NotFound(w, r)
		return
	}

	var payload fertilizerRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if message := payload.validate(); message != "" {
		writeJSONError(w, http.StatusBadRequest, message)
		return
	}

	payload.apply(&fertilizer)
	if user.IsAdmin() {
		fertilizer.Shared = payload.Shared
	}

	var token string
	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkDataVersion(r, tx, user.ID); err != nil {
			return err
		}
		if err := tx.Save(&fertilizer).Error; err != nil {
			return err
		}
		var txErr error
		token, txErr = touchDataVersion(ctx, tx, user.ID)
		return txErr
	})
	if err != nil {
		if errors.Is(err, errStaleDataVersion) {
			writeJSONError(w, http.StatusPreconditionFailed, "catalog changed since last read")
			return
		}
		applog.Error(ctx, "failed to update fertilizer", "error", err, "id", fertilizerID)
		writeJSONError(w, http.StatusBadRequest, "unable to update catalog entry")
		return
	}

	setVersionHeader(w, token)
	writeJSON(w, http.StatusOK, fertilizer)
}

func deleteFertilizer(w http.ResponseWriter, r *http.Request, fertilizerID uint, user *models.User) {
	ctx := r.Context()

	var fertilizer models.Fertilizer
	if err := database.WithContext(ctx).First(&fertilizer, fertilizerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load fertilizer for delete", "error", err, "id", fertilizerID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load catalog entry")
		return
	}

	if !canManageFertilizer(&fertilizer, user) {
		http.NotFound(w, r)
		return
	}

	// Historical log entries reference products by name, not id, so they
	// survive catalog deletion untouched.
	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkDataVersion(r, tx, user.ID); err != nil {
			return err
		}
		if err := tx.Delete(&fertilizer).Error; err != nil {
			return err
		}
		_, txErr := touchDataVersion(ctx, tx, user.ID)
		return txErr
	})
	if err != nil {
		if errors.Is(err, errStaleDataVersion) {
			writeJSONError(w, http.StatusPreconditionFailed, "catalog changed since last read")
			return
		}
		applog.Error(ctx, "failed to delete fertilizer", "error", err, "id", fertilizerID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete catalog entry")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func canManageFertilizer(fertilizer *models.Fertilizer, user *models.User) bool {
	if fertilizer.OwnerID == user.ID {
		return true
	}
	return fertilizer.Shared && user.IsAdmin()
}

// findAccessibleFertilizerByName resolves a catalog entry visible to the
// user. A miss is reported with gorm.ErrRecordNotFound; callers tolerate it
// because log entries outlive their catalog references.
func findAccessibleFertilizerByName(r *http.Request, userID uint, name string) (*models.Fertilizer, error) {
	if database == nil {
		return nil, gorm.ErrInvalidDB
	}
	trimmed := strings.TrimSpace(name)
	var fertilizer models.Fertilizer

	// A tenant's own entry overrides a shared one of the same name.
	err := database.WithContext(r.Context()).
		Where("name = ? AND owner_id = ?", trimmed, userID).
		First(&fertilizer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = database.WithContext(r.Context()).
			Where("name = ? AND shared = ?", trimmed, true).
			First(&fertilizer).Error
	}
	if err != nil {
		return nil, err
	}
	return &fertilizer, nil
}
