package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DatasheetInput is the text extracted from a product label or datasheet.
type DatasheetInput struct {
	NameHint string
	RawText  string
}

// FertilizerDraft is the structured catalog entry the model proposes from a
// datasheet. Percentages are by weight; undeclared elements are zero.
type FertilizerDraft struct {
	Name            string             `json:"name"`
	Type            string             `json:"type"`
	Nutrients       map[string]float64 `json:"nutrients"`
	PackageUnit     string             `json:"package_unit"`
	RecommendedRate string             `json:"recommended_rate"`
	Density         float64            `json:"density"`
	Concentration   float64            `json:"concentration"`
	Description     string             `json:"description"`
}

const datasheetSystemPrompt = `You convert fertilizer product datasheets into precise JSON catalog entries.
- Extract the product name, its category (e.g. slow-release, liquid, water-soluble, organic), and the guaranteed analysis.
- Report nutrient content as percentage by weight, keyed by element symbol (N, P, K, Ca, Mg, S, Fe, Mn, Zn, Cu, B, Mo, Cl, Na, Si, Ni, Co, V). Omit undeclared elements.
- Report the package descriptor (e.g. "20kg", "10L") and the recommended application rate (e.g. "20g/m2", "5ml/m2") when stated.
- For liquids include density (g/ml) and concentration (% active carrier) when stated, otherwise 0.
- Respond with strictly valid JSON using this schema:
{"name": string, "type": string, "nutrients": {symbol: number}, "package_unit": string, "recommended_rate": string, "density": number, "concentration": number, "description": string}
- Never include explanations, markdown, or commentary outside of the JSON payload.`

// ExtractFertilizer asks the model to parse datasheet text into a catalog
// draft. The caller validates the draft before persisting it.
func (c *Client) ExtractFertilizer(ctx context.Context, input DatasheetInput) (FertilizerDraft, error) {
	trimmed := strings.TrimSpace(input.RawText)
	if trimmed == "" {
		return FertilizerDraft{}, errors.New("ai: datasheet import requires text content")
	}

	var builder strings.Builder
	if hint := strings.TrimSpace(input.NameHint); hint != "" {
		builder.WriteString("Product hint: ")
		builder.WriteString(hint)
		builder.WriteString("\n\n")
	}
	builder.WriteString("Datasheet text:\n")
	builder.WriteString(trimmed)

	content, err := c.performChatCompletion(ctx, datasheetSystemPrompt, builder.String())
	if err != nil {
		return FertilizerDraft{}, err
	}

	content = strings.TrimSpace(strings.TrimPrefix(content, "json"))

	var draft FertilizerDraft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return FertilizerDraft{}, fmt.Errorf("ai: parse datasheet payload: %w", err)
	}
	if strings.TrimSpace(draft.Name) == "" {
		draft.Name = strings.TrimSpace(input.NameHint)
	}
	if strings.TrimSpace(draft.Name) == "" {
		return FertilizerDraft{}, errors.New("ai: product name missing from response")
	}

	return draft, nil
}
