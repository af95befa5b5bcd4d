package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xuri/excelize/v2"

	"turflog/models"
)

func TestAdminExportLogs(t *testing.T) {
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	keeper := seedUser(t, db, "keeper@example.com", models.RoleMember, true)
	seedEntry(t, db, keeper.ID, "2024-03-15", "Slow Release 21-0-0", 30000)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/admin/export/%d", keeper.ID), nil)
	rr := httptest.NewRecorder()
	AdminExportLogs(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if disposition := rr.Header().Get("Content-Disposition"); disposition == "" {
		t.Fatal("expected an attachment disposition header")
	}

	workbook, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not a readable workbook: %v", err)
	}
	defer workbook.Close()

	course, err := workbook.GetCellValue("Applications", "B1")
	if err != nil {
		t.Fatalf("failed to read course cell: %v", err)
	}
	if course != keeper.CourseName {
		t.Fatalf("expected course %q, got %q", keeper.CourseName, course)
	}

	header, err := workbook.GetCellValue("Applications", "A3")
	if err != nil {
		t.Fatalf("failed to read header cell: %v", err)
	}
	if header != "Date" {
		t.Fatalf("expected Date header, got %q", header)
	}

	date, err := workbook.GetCellValue("Applications", "A4")
	if err != nil {
		t.Fatalf("failed to read first data cell: %v", err)
	}
	if date != "2024-03-15" {
		t.Fatalf("expected first entry date, got %q", date)
	}
}

func TestAdminExportLogsUnknownUser(t *testing.T) {
	_, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/export/98765", nil)
	rr := httptest.NewRecorder()
	AdminExportLogs(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown account, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/export/not-a-number", nil)
	rr = httptest.NewRecorder()
	AdminExportLogs(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a malformed id, got %d", rr.Code)
	}
}
