package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"turflog/internal/agronomy"
	applog "turflog/internal/log"
	"turflog/models"
)

// userDataSummary is the admin's read-only aggregate over one tenant,
// computed on demand and never stored.
type userDataSummary struct {
	Account     accountResponse     `json:"account"`
	LogCount    int                 `json:"log_count"`
	TotalCost   float64             `json:"total_cost"`
	LastLogDate string              `json:"last_log_date"`
	Logs        []models.LogEntry   `json:"logs,omitempty"`
	Fertilizers []models.Fertilizer `json:"fertilizers,omitempty"`
}

// AdminUserResource serves tenant summaries and the approval workflow:
//
//	GET  /api/admin/users                       list summaries
//	GET  /api/admin/users/{id}                  one summary with full lists
//	POST /api/admin/users/{id}/approve          approve the account
//	PUT  /api/admin/users/{id}/logs/{entry_id}  shallow log edit
func AdminUserResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/users"), "/")
	if path == "" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		listUserSummaries(w, r)
		return
	}

	segments := strings.Split(path, "/")
	idValue, err := strconv.ParseUint(segments[0], 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	tenantID := uint(idValue)

	switch {
	case len(segments) == 1:
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		showUserSummary(w, r, tenantID)
	case len(segments) == 2 && segments[1] == "approve":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		approveUser(w, r, tenantID)
	case len(segments) == 3 && segments[1] == "logs":
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		adminEditLogEntry(w, r, tenantID, segments[2])
	default:
		http.NotFound(w, r)
	}
}

func buildUserSummary(r *http.Request, user *models.User, includeLists bool) (userDataSummary, error) {
	summary := userDataSummary{Account: projectAccount(user)}

	entries, err := loadTenantEntries(r, user.ID)
	if err != nil {
		return summary, err
	}

	summary.LogCount = len(entries)
	summary.TotalCost = agronomy.TotalCost(entries)
	for _, entry := range entries {
		if entry.Date > summary.LastLogDate {
			summary.LastLogDate = entry.Date
		}
	}

	if includeLists {
		summary.Logs = entries
		var fertilizers []models.Fertilizer
		err := database.WithContext(r.Context()).
			Where("owner_id = ?", user.ID).
			Order("name asc").
			Find(&fertilizers).Error
		if err != nil {
			return summary, err
		}
		summary.Fertilizers = fertilizers
	}

	return summary, nil
}

func listUserSummaries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var users []models.User
	if err := database.WithContext(ctx).Order("created_at asc").Find(&users).Error; err != nil {
		applog.Error(ctx, "failed to list users", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load accounts")
		return
	}

	summaries := make([]userDataSummary, 0, len(users))
	for i := range users {
		summary, err := buildUserSummary(r, &users[i], false)
		if err != nil {
			applog.Error(ctx, "failed to build user summary", "error", err, "userID", users[i].ID)
			writeJSONError(w, http.StatusInternalServerError, "unable to load account summaries")
			return
		}
		summaries = append(summaries, summary)
	}
	writeJSON(w, http.StatusOK, summaries)
}

func showUserSummary(w http.ResponseWriter, r *http.Request, tenantID uint) {
	ctx := r.Context()
	var user models.User
	if err := database.WithContext(ctx).First(&user, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load user", "error", err, "userID", tenantID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load account")
		return
	}

	summary, err := buildUserSummary(r, &user, true)
	if err != nil {
		applog.Error(ctx, "failed to build user summary", "error", err, "userID", tenantID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load account summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func approveUser(w http.ResponseWriter, r *http.Request, tenantID uint) {
	ctx := r.Context()
	var user models.User
	if err := database.WithContext(ctx).First(&user, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load user for approval", "error", err, "userID", tenantID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load account")
		return
	}

	if err := database.WithContext(ctx).Model(&user).Update("approved", true).Error; err != nil {
		applog.Error(ctx, "failed to approve user", "error", err, "userID", tenantID)
		writeJSONError(w, http.StatusInternalServerError, "unable to approve account")
		return
	}

	user.Approved = true
	applog.Info(ctx, "account approved", "userID", tenantID, "email", user.Email)
	writeJSON(w, http.StatusOK, map[string]any{"account": projectAccount(&user)})
}

type adminLogEditRequest struct {
	Date          *string  `json:"date"`
	ProductName   *string  `json:"product_name"`
	Zone          *string  `json:"zone"`
	AreaM2        *float64 `json:"area_m2"`
	Rate          *float64 `json:"rate"`
	TopdressingMM *float64 `json:"topdressing_mm"`
}

// adminEditLogEntry performs a shallow field merge without recomputing the
// cost or nutrient snapshot. That mirrors the historical admin correction
// path: the stored figures describe what was actually computed at entry
// time, and corrections that should re-price an application are made by
// deleting and re-recording it.
func adminEditLogEntry(w http.ResponseWriter, r *http.Request, tenantID uint, entryID string) {
	ctx := r.Context()

	var entry models.LogEntry
	err := database.WithContext(ctx).
		Where("entry_id = ? AND user_id = ?", entryID, tenantID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load log entry for admin edit", "error", err, "entryID", entryID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load log entry")
		return
	}

	var payload adminLogEditRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	updates := map[string]any{}
	if payload.Date != nil {
		updates["date"] = strings.TrimSpace(*payload.Date)
	}
	if payload.ProductName != nil {
		updates["product_name"] = strings.TrimSpace(*payload.ProductName)
	}
	if payload.Zone != nil {
		updates["zone"] = models.NormalizeZone(*payload.Zone)
	}
	if payload.AreaM2 != nil {
		updates["area_m2"] = *payload.AreaM2
	}
	if payload.Rate != nil {
		updates["rate"] = *payload.Rate
	}
	if payload.TopdressingMM != nil {
		updates["topdressing_mm"] = *payload.TopdressingMM
	}
	if len(updates) == 0 {
		writeJSONError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entry).Updates(updates).Error; err != nil {
			return err
		}
		_, txErr := touchDataVersion(ctx, tx, tenantID)
		return txErr
	})
	if err != nil {
		applog.Error(ctx, "failed to apply admin log edit", "error", err, "entryID", entryID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update log entry")
		return
	}

	if err := database.WithContext(ctx).Where("entry_id = ?", entryID).First(&entry).Error; err != nil {
		applog.Error(ctx, "failed to reload log entry after admin edit", "error", err, "entryID", entryID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load updated entry")
		return
	}

	writeJSON(w, http.StatusOK, entry)
}
