package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"turflog/models"
)

func TestLoginSuccess(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	seedUser(t, db, "keeper@example.com", models.RoleMember, true)

	body := strings.NewReader(`{"email":"keeper@example.com","password":"password123"}`)
	req := newSessionRequest(t, sm, http.MethodPost, "/api/login", body)
	rr := httptest.NewRecorder()
	Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var payload struct {
		Account accountResponse `json:"account"`
		Pending bool            `json:"pending"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Account.Email != "keeper@example.com" {
		t.Fatalf("unexpected account email %q", payload.Account.Email)
	}
	if payload.Pending {
		t.Fatal("approved account must not be flagged pending")
	}
	if !ActiveSession(req) {
		t.Fatal("expected an authenticated session after login")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	seedUser(t, db, "keeper@example.com", models.RoleMember, true)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"wrong password", `{"email":"keeper@example.com","password":"nope-nope"}`, http.StatusUnauthorized},
		{"unknown account", `{"email":"ghost@example.com","password":"password123"}`, http.StatusUnauthorized},
		{"missing fields", `{"email":"","password":""}`, http.StatusBadRequest},
		{"malformed body", `{"email":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := newSessionRequest(t, sm, http.MethodPost, "/api/login", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			Login(rr, req)
			if rr.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestLoginPendingApproval(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	seedUser(t, db, "new@example.com", models.RoleMember, false)

	body := strings.NewReader(`{"email":"new@example.com","password":"password123"}`)
	req := newSessionRequest(t, sm, http.MethodPost, "/api/login", body)
	rr := httptest.NewRecorder()
	Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var payload struct {
		Pending bool `json:"pending"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !payload.Pending {
		t.Fatal("unapproved account must be flagged pending")
	}
}

func TestSessionEndpoint(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	user := seedUser(t, db, "keeper@example.com", models.RoleMember, true)

	req := newSessionRequest(t, sm, http.MethodGet, "/api/session", nil)
	rr := httptest.NewRecorder()
	Session(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rr.Code)
	}

	req = newSessionRequest(t, sm, http.MethodGet, "/api/session", nil)
	signIn(t, sm, req, user)
	rr = httptest.NewRecorder()
	Session(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var payload struct {
		Account accountResponse `json:"account"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Account.ID != user.ID {
		t.Fatalf("expected account id %d, got %d", user.ID, payload.Account.ID)
	}
}
