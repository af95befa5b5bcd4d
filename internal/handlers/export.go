package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	applog "turflog/internal/log"
	"turflog/models"
)

var logExportColumns = []string{
	"Date", "Product", "Zone", "Area (m2)", "Rate", "Rate Unit",
	"Mass Applied (g)", "Total Cost", "N (g)", "P (g)", "K (g)",
}

// AdminExportLogs streams one tenant's application log as an Excel workbook.
// Route: GET /api/admin/export/{id}.
func AdminExportLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/export"), "/")
	idValue, err := strconv.ParseUint(path, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	tenantID := uint(idValue)

	ctx := r.Context()
	var user models.User
	if err := database.WithContext(ctx).First(&user, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load user for export", "error", err, "userID", tenantID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load account")
		return
	}

	entries, err := loadTenantEntries(r, tenantID)
	if err != nil {
		applog.Error(ctx, "failed to load entries for export", "error", err, "userID", tenantID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load application log")
		return
	}

	workbook, err := buildLogWorkbook(&user, entries)
	if err != nil {
		applog.Error(ctx, "failed to build export workbook", "error", err, "userID", tenantID)
		writeJSONError(w, http.StatusInternalServerError, "unable to build export")
		return
	}
	defer workbook.Close()

	filename := fmt.Sprintf("turflog-%d-applications.xlsx", tenantID)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := workbook.Write(w); err != nil {
		applog.Error(ctx, "failed to stream export workbook", "error", err, "userID", tenantID)
	}
}

func buildLogWorkbook(user *models.User, entries []models.LogEntry) (*excelize.File, error) {
	workbook := excelize.NewFile()
	sheet := "Applications"
	if err := workbook.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	if err := workbook.SetCellValue(sheet, "A1", "Course"); err != nil {
		return nil, err
	}
	if err := workbook.SetCellValue(sheet, "B1", user.CourseName); err != nil {
		return nil, err
	}

	headerRow := 3
	for col, title := range logExportColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, headerRow)
		if err != nil {
			return nil, err
		}
		if err := workbook.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
	}

	for i, entry := range entries {
		values := []any{
			entry.Date,
			entry.ProductName,
			entry.Zone,
			entry.AreaM2,
			entry.Rate,
			entry.RateUnit,
			entry.MassApplied,
			entry.TotalCost,
			entry.Nutrients["N"],
			entry.Nutrients["P"],
			entry.Nutrients["K"],
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, headerRow+1+i)
			if err != nil {
				return nil, err
			}
			if err := workbook.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	return workbook, nil
}
