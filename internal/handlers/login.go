package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	applog "turflog/internal/log"
	"turflog/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountResponse struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	CourseName  string `json:"course_name"`
	Role        string `json:"role"`
	Approved    bool   `json:"approved"`
	DataVersion string `json:"data_version"`
}

func projectAccount(user *models.User) accountResponse {
	return accountResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		CourseName:  user.CourseName,
		Role:        user.Role,
		Approved:    user.Approved,
		DataVersion: user.DataVersion,
	}
}

// Login processes sign-in submissions.
func Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if sessionManager == nil || database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "authentication not available")
		return
	}

	var payload loginRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	email := strings.TrimSpace(payload.Email)
	if email == "" || payload.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := authenticate(r, email, payload.Password)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, errInvalidCredentials) {
			writeJSONError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		applog.Error(r.Context(), "login failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to sign in")
		return
	}

	if !user.Approved && !user.IsAdmin() {
		// The session is established so the account can poll its own
		// approval status, but data endpoints stay closed.
		writeJSON(w, http.StatusOK, map[string]any{
			"account": projectAccount(user),
			"pending": true,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"account": projectAccount(user)})
}

// Session reports the authenticated account for the current cookie.
func Session(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user, err := loadCurrentUser(r)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "no active session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": projectAccount(user)})
}
