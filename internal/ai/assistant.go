package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"turflog/internal/agronomy"
)

// AdvisorContext is the serialized snapshot of a tenant's season that gets
// embedded into the assistant prompt. It is produced entirely from
// aggregator and comparator output.
type AdvisorContext struct {
	CourseName   string                     `json:"course_name"`
	Year         string                     `json:"year"`
	Guideline    string                     `json:"guideline"`
	Products     []agronomy.ProductStat     `json:"products"`
	MonthlyCost  []agronomy.PeriodStat      `json:"monthly_cost"`
	Comparison   []agronomy.ComparisonPoint `json:"comparison"`
	CatalogNames []string                   `json:"catalog_names"`
	ZoneAreas    map[string]float64         `json:"zone_areas"`
}

// Action is the structured recommendation the assistant may embed in its
// reply. The UI can feed it back as a prefilled log-entry form.
type Action struct {
	ProductName string  `json:"product_name"`
	TargetArea  float64 `json:"target_area"`
	Rate        float64 `json:"rate"`
	Reason      string  `json:"reason"`
}

// Reply is the assistant's answer: free text plus an optional parsed action.
type Reply struct {
	Text   string
	Action *Action
}

const advisorSystemPrompt = `You are an agronomy assistant for golf-course turf managers.
You receive a JSON snapshot of the course's fertilizer season: per-product usage, monthly spend, and actual-vs-guideline N/P/K delivery in g/m2.
Answer the manager's question concisely and practically, grounded in the snapshot.
When you recommend a concrete application, append exactly one JSON object on its own line at the end of the reply:
{"product_name": string (must match a catalog name), "target_area": number (m2), "rate": number (g/m2 or ml/m2), "reason": short string}
Only append the object when a specific application is warranted. Never wrap it in markdown fences.`

// Chat sends the manager's question with the serialized season snapshot and
// returns the reply text plus any embedded action. A reply without a valid
// action block is not an error.
func (c *Client) Chat(ctx context.Context, question string, advisor AdvisorContext) (Reply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Reply{}, errors.New("ai: question must not be empty")
	}

	snapshot, err := json.Marshal(advisor)
	if err != nil {
		return Reply{}, fmt.Errorf("ai: encode advisor context: %w", err)
	}

	var builder strings.Builder
	builder.WriteString("Season snapshot:\n")
	builder.Write(snapshot)
	builder.WriteString("\n\nQuestion:\n")
	builder.WriteString(question)

	content, err := c.performChatCompletion(ctx, advisorSystemPrompt, builder.String())
	if err != nil {
		return Reply{}, err
	}

	action, text := ParseAction(content)
	return Reply{Text: text, Action: action}, nil
}

// ParseAction scans reply text for an embedded recommendation object and
// returns it alongside the text with the object removed. Malformed or
// missing blocks yield a nil action and the original text; the caller must
// never fail on account of the model's formatting.
func ParseAction(content string) (*Action, string) {
	for start := 0; start < len(content); start++ {
		if content[start] != '{' {
			continue
		}
		end, ok := matchBrace(content, start)
		if !ok {
			continue
		}
		candidate := content[start : end+1]
		if !strings.Contains(candidate, "product_name") {
			continue
		}
		var action Action
		if err := json.Unmarshal([]byte(candidate), &action); err != nil {
			continue
		}
		if strings.TrimSpace(action.ProductName) == "" {
			continue
		}
		remainder := strings.TrimSpace(content[:start] + content[end+1:])
		return &action, remainder
	}
	return nil, strings.TrimSpace(content)
}

func matchBrace(content string, start int) (int, bool) {
	depth := 0
	inString := false
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '"':
			if i == 0 || content[i-1] != '\\' {
				inString = !inString
			}
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return i, true
				}
			}
		}
	}
	return 0, false
}
