package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"turflog/internal/agronomy"
	"turflog/internal/ai"
	applog "turflog/internal/log"
	"turflog/models"
)

const maxDatasheetUploadSize = 5 << 20

var openAIClient *ai.Client

// ConfigureAI installs the assistant client. A nil client disables the
// assistant endpoints with a 503 rather than failing startup.
func ConfigureAI(client *ai.Client) {
	openAIClient = client
}

var (
	markdownRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	markdownSanitizer = bluemonday.UGCPolicy()
)

type assistantChatRequest struct {
	Question string `json:"question"`
	Year     string `json:"year"`
	Zone     string `json:"zone"`
}

type assistantChatResponse struct {
	Text   string     `json:"text"`
	HTML   string     `json:"html"`
	Action *ai.Action `json:"action,omitempty"`
}

// AssistantChat answers a manager's question with the season snapshot as
// grounding. Route: POST /api/assistant/chat.
func AssistantChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if openAIClient == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "assistant is not configured")
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var payload assistantChatRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if strings.TrimSpace(payload.Question) == "" {
		writeJSONError(w, http.StatusBadRequest, "question is required")
		return
	}

	ctx := r.Context()
	advisor, err := buildAdvisorContext(r, userID, payload.Year, payload.Zone)
	if err != nil {
		applog.Error(ctx, "failed to build advisor context", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to prepare assistant context")
		return
	}

	reply, err := openAIClient.Chat(ctx, payload.Question, advisor)
	if err != nil {
		applog.Error(ctx, "assistant chat failed", "error", err)
		writeJSONError(w, http.StatusBadGateway, "assistant is unavailable")
		return
	}

	writeJSON(w, http.StatusOK, assistantChatResponse{
		Text:   reply.Text,
		HTML:   renderMarkdown(reply.Text),
		Action: reply.Action,
	})
}

// buildAdvisorContext assembles the aggregates the assistant reasons over.
// The year defaults to the current calendar year.
func buildAdvisorContext(r *http.Request, userID uint, year, zone string) (ai.AdvisorContext, error) {
	if _, err := strconv.Atoi(year); err != nil || len(year) != 4 {
		year = strconv.Itoa(time.Now().Year())
	}
	zone = models.NormalizeZone(zone)

	user, err := loadCurrentUser(r)
	if err != nil {
		return ai.AdvisorContext{}, err
	}

	entries, err := loadTenantEntries(r, userID)
	if err != nil {
		return ai.AdvisorContext{}, err
	}

	settings, err := loadSettings(r, userID)
	if err != nil {
		return ai.AdvisorContext{}, err
	}

	var catalog []models.Fertilizer
	err = database.WithContext(r.Context()).
		Where("owner_id = ? OR shared = ?", userID, true).
		Order("name asc").
		Find(&catalog).Error
	if err != nil {
		return ai.AdvisorContext{}, err
	}
	names := make([]string, 0, len(catalog))
	for _, fertilizer := range catalog {
		names = append(names, fertilizer.Name)
	}

	actual := agronomy.MonthlyNutrients(entries, year, zone)
	area := settings.ZoneArea(zone)

	advisor := ai.AdvisorContext{
		CourseName:   user.CourseName,
		Year:         year,
		Products:     agronomy.ProductStats(filterByYear(entries, year)),
		MonthlyCost:  agronomy.PeriodStats(entries, agronomy.Monthly, year),
		CatalogNames: names,
		ZoneAreas: map[string]float64{
			models.ZoneGreen:   settings.GreenAreaM2,
			models.ZoneTee:     settings.TeeAreaM2,
			models.ZoneFairway: settings.FairwayAreaM2,
		},
	}
	if settings.ManualPlan {
		advisor.Guideline = "manual"
		advisor.Comparison = agronomy.CompareManual(actual, area, settings.ZoneTargets(zone))
	} else {
		guideline := agronomy.GuidelineByKey(settings.GuidelineKey)
		advisor.Guideline = guideline.Key
		advisor.Comparison = agronomy.CompareMonthly(actual, area, guideline)
	}
	return advisor, nil
}

func renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(text), &buf); err != nil {
		return ""
	}
	return markdownSanitizer.Sanitize(buf.String())
}

// AssistantDatasheet turns an uploaded datasheet into a catalog draft.
// Route: POST /api/assistant/datasheet. Accepts a multipart form with a
// "datasheet_file" (PDF or plain text) and/or a "raw_text" field.
func AssistantDatasheet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if openAIClient == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "assistant is not configured")
		return
	}

	if _, ok := currentUserID(r); !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx := r.Context()
	if err := r.ParseMultipartForm(maxDatasheetUploadSize); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	rawText := strings.TrimSpace(r.FormValue("raw_text"))
	nameHint := strings.TrimSpace(r.FormValue("name_hint"))

	filename, data, mime, err := readDatasheetUpload(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(data) > 0 {
		extracted, err := deriveTextFromUpload(data, mime)
		if err != nil {
			applog.Error(ctx, "failed to extract datasheet text", "error", err, "file", filename)
			writeJSONError(w, http.StatusUnprocessableEntity, "unable to read uploaded datasheet")
			return
		}
		if rawText != "" {
			rawText += "\n\n"
		}
		rawText += extracted
		if nameHint == "" {
			nameHint = strings.TrimSuffix(filename, filepath.Ext(filename))
		}
	}

	if strings.TrimSpace(rawText) == "" {
		writeJSONError(w, http.StatusBadRequest, "datasheet text or file is required")
		return
	}

	draft, err := openAIClient.ExtractFertilizer(ctx, ai.DatasheetInput{
		NameHint: nameHint,
		RawText:  rawText,
	})
	if err != nil {
		applog.Error(ctx, "datasheet extraction failed", "error", err)
		writeJSONError(w, http.StatusBadGateway, "unable to extract catalog entry")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"draft": draft})
}

func readDatasheetUpload(r *http.Request) (string, []byte, string, error) {
	file, header, err := r.FormFile("datasheet_file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil, "", nil
		}
		return "", nil, "", errors.New("invalid file upload")
	}
	defer file.Close()

	if header.Size > maxDatasheetUploadSize {
		return "", nil, "", errors.New("file exceeds the 5 MiB upload limit")
	}

	buf := bytes.NewBuffer(make([]byte, 0, header.Size))
	if _, err := io.Copy(buf, file); err != nil {
		return "", nil, "", errors.New("unable to read file upload")
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" {
		mime = mimeTypeFromName(header.Filename)
	}
	return header.Filename, buf.Bytes(), mime, nil
}

func deriveTextFromUpload(data []byte, mime string) (string, error) {
	lower := strings.ToLower(mime)
	switch {
	case strings.Contains(lower, "pdf"):
		return extractTextFromPDF(data)
	default:
		return string(data), nil
	}
}

func extractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

func mimeTypeFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	default:
		return ""
	}
}
