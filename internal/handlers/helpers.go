package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	applog "turflog/internal/log"
	"turflog/models"
)

var (
	sessionManager *scs.SessionManager
	database       *gorm.DB
)

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(sm *scs.SessionManager, db *gorm.DB) {
	sessionManager = sm
	database = db
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, payload any) error {
	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(payload)
}

// loadCurrentUser resolves the session's account from the database.
func loadCurrentUser(r *http.Request) (*models.User, error) {
	userID, ok := currentUserID(r)
	if !ok {
		return nil, errors.New("no authenticated session")
	}
	if database == nil {
		return nil, gorm.ErrInvalidDB
	}
	user := &models.User{}
	if err := database.WithContext(r.Context()).First(user, userID).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// touchDataVersion rotates the tenant's dataset version token inside the
// caller's transaction. Every mutation of logs, catalog, or settings goes
// through here so If-Match checks observe a consistent token.
func touchDataVersion(ctx context.Context, tx *gorm.DB, userID uint) (string, error) {
	token := uuid.NewString()
	err := tx.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("data_version", token).Error
	if err != nil {
		return "", err
	}
	return token, nil
}

// checkDataVersion enforces optimistic concurrency when the client presents
// an If-Match header. An absent header keeps the legacy last-writer-wins
// behavior.
func checkDataVersion(r *http.Request, tx *gorm.DB, userID uint) error {
	presented := strings.TrimSpace(r.Header.Get("If-Match"))
	if presented == "" {
		return nil
	}
	var user models.User
	if err := tx.WithContext(r.Context()).First(&user, userID).Error; err != nil {
		return err
	}
	if user.DataVersion != strings.Trim(presented, `"`) {
		return errStaleDataVersion
	}
	return nil
}

var errStaleDataVersion = errors.New("handlers: dataset version mismatch")

func setVersionHeader(w http.ResponseWriter, token string) {
	if token != "" {
		w.Header().Set("ETag", `"`+token+`"`)
	}
}
