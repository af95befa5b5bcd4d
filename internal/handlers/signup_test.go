package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"turflog/models"
)

func TestSignup(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	_, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	body := strings.NewReader(`{"email":"new@example.com","name":"New Keeper","course_name":"Lakeside","password":"password123"}`)
	req := newSessionRequest(t, sm, http.MethodPost, "/api/signup", body)
	rr := httptest.NewRecorder()
	Signup(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var payload struct {
		Account accountResponse `json:"account"`
		Pending bool            `json:"pending"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !payload.Pending {
		t.Fatal("new accounts must start pending approval")
	}
	if payload.Account.CourseName != "Lakeside" {
		t.Fatalf("unexpected course name %q", payload.Account.CourseName)
	}
	if !ActiveSession(req) {
		t.Fatal("expected a session after signup")
	}
}

func TestSignupValidation(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	seedUser(t, db, "taken@example.com", models.RoleMember, true)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing email", `{"email":"","password":"password123"}`, http.StatusBadRequest},
		{"not an email", `{"email":"nope","password":"password123"}`, http.StatusBadRequest},
		{"short password", `{"email":"a@b.com","password":"short"}`, http.StatusBadRequest},
		{"duplicate email", `{"email":"taken@example.com","password":"password123"}`, http.StatusConflict},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := newSessionRequest(t, sm, http.MethodPost, "/api/signup", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			Signup(rr, req)
			if rr.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rr.Code, rr.Body.String())
			}
		})
	}
}
