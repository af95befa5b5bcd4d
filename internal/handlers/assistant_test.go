package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"turflog/internal/ai"
	"turflog/models"
)

func withTestAIClient(t *testing.T, handler http.HandlerFunc) func() {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := ai.NewClient(ai.Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("failed to build test ai client: %v", err)
	}

	original := openAIClient
	openAIClient = client
	return func() {
		openAIClient = original
	}
}

func completionResponse(t *testing.T, content string) []byte {
	t.Helper()
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to encode completion: %v", err)
	}
	return encoded
}

func TestAssistantChat(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	user := seedUser(t, db, "keeper@example.com", models.RoleMember, true)
	seedEntry(t, db, user.ID, "2024-03-15", "Slow Release 21-0-0", 30000)

	var prompt string
	aiCleanup := withTestAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil && len(payload.Messages) == 2 {
			prompt = payload.Messages[1].Content
		}
		reply := "Greens are **behind** on nitrogen.\n" +
			`{"product_name": "Slow Release 21-0-0", "target_area": 1000, "rate": 20, "reason": "close the gap"}`
		w.Write(completionResponse(t, reply))
	})
	t.Cleanup(aiCleanup)

	body := strings.NewReader(`{"question":"What should I apply this week?","year":"2024","zone":"green"}`)
	req := newSessionRequest(t, sm, http.MethodPost, "/api/assistant/chat", body)
	signIn(t, sm, req, user)
	rr := httptest.NewRecorder()
	AssistantChat(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var response assistantChatResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Action == nil || response.Action.ProductName != "Slow Release 21-0-0" {
		t.Fatalf("expected a parsed action, got %+v", response.Action)
	}
	if strings.Contains(response.Text, "product_name") {
		t.Fatal("expected the action block stripped from the reply text")
	}
	if !strings.Contains(response.HTML, "<strong>behind</strong>") {
		t.Fatalf("expected rendered markdown, got %q", response.HTML)
	}
	if !strings.Contains(prompt, "Slow Release 21-0-0") {
		t.Fatal("expected the season snapshot embedded in the prompt")
	}
}

func TestAssistantChatWithoutClient(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)

	original := openAIClient
	openAIClient = nil
	t.Cleanup(func() { openAIClient = original })

	body := strings.NewReader(`{"question":"anything"}`)
	req := newSessionRequest(t, sm, http.MethodPost, "/api/assistant/chat", body)
	rr := httptest.NewRecorder()
	AssistantChat(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a configured client, got %d", rr.Code)
	}
}

func TestAssistantChatRequiresQuestion(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	user := seedUser(t, db, "keeper@example.com", models.RoleMember, true)

	aiCleanup := withTestAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("the model must not be called for a blank question")
	})
	t.Cleanup(aiCleanup)

	req := newSessionRequest(t, sm, http.MethodPost, "/api/assistant/chat", strings.NewReader(`{"question":"  "}`))
	signIn(t, sm, req, user)
	rr := httptest.NewRecorder()
	AssistantChat(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a blank question, got %d", rr.Code)
	}
}

func TestAssistantDatasheetFromRawText(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	user := seedUser(t, db, "keeper@example.com", models.RoleMember, true)

	aiCleanup := withTestAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		draft := `{"name": "Liquid Iron Plus", "type": "liquid", "nutrients": {"N": 10, "Fe": 4},` +
			` "package_unit": "10L", "recommended_rate": "5ml/m2", "density": 1.1, "concentration": 0, "description": "Iron supplement"}`
		w.Write(completionResponse(t, draft))
	})
	t.Cleanup(aiCleanup)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("raw_text", "Guaranteed analysis: N 10%, Fe 4%. 10L jug, density 1.1."); err != nil {
		t.Fatalf("failed to build form: %v", err)
	}
	form.Close()

	req := newSessionRequest(t, sm, http.MethodPost, "/api/assistant/datasheet", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	signIn(t, sm, req, user)
	rr := httptest.NewRecorder()
	AssistantDatasheet(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var payload struct {
		Draft ai.FertilizerDraft `json:"draft"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Draft.Name != "Liquid Iron Plus" {
		t.Fatalf("unexpected draft name %q", payload.Draft.Name)
	}
	if payload.Draft.Nutrients["Fe"] != 4 {
		t.Fatalf("expected Fe 4%%, got %v", payload.Draft.Nutrients["Fe"])
	}
}

func TestAssistantDatasheetRequiresContent(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	user := seedUser(t, db, "keeper@example.com", models.RoleMember, true)

	aiCleanup := withTestAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("the model must not be called without datasheet content")
	})
	t.Cleanup(aiCleanup)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	form.Close()

	req := newSessionRequest(t, sm, http.MethodPost, "/api/assistant/datasheet", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	signIn(t, sm, req, user)
	rr := httptest.NewRecorder()
	AssistantDatasheet(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without content, got %d", rr.Code)
	}
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	t.Parallel()

	html := renderMarkdown("Hello **world** <script>alert(1)</script>")
	if !strings.Contains(html, "<strong>world</strong>") {
		t.Fatalf("expected markdown emphasis, got %q", html)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("expected script tags stripped, got %q", html)
	}
}
