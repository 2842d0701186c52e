package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bryanwahyu/assessly/internal/domain/ai"
)

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a senior digital maturity consultant. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- intro and outro are short paragraphs addressed to the company.
- categories mirrors the category scores given by the user, one entry per category, same names.
- currentScore is the given score (0-100); benchmark is a realistic industry benchmark (0-100).
- trend is one of: improving, stable, declining. Use "stable" unless the answers clearly suggest otherwise.
- bestPractices is 2-4 short, concrete, actionable items per category.

Schema (example with empty values):
{
  "intro": "<string>",
  "categories": [
    {
      "name": "<string>",
      "currentScore": 0,
      "benchmark": 0,
      "trend": "<improving|stable|declining>",
      "bestPractices": ["<string>"]
    }
  ],
  "outro": "<string>"
}`
}

// GetUserPrompt serializes the assessment context into one compact user
// message. The payload is JSON so the model sees exact numbers.
func GetUserPrompt(req ai.RecommendationRequest) string {
	payload := struct {
		Company        string              `json:"company"`
		CategoryScores []ai.ScoredCategory `json:"category_scores"`
		Answers        []ai.QuestionAnswer `json:"answers"`
	}{
		Company:        companyOrDefault(req.CompanyName),
		CategoryScores: req.CategoryScores,
		Answers:        req.Answers,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		// Marshal of plain structs cannot realistically fail; fall back
		// to a minimal prompt rather than aborting the completion.
		return fmt.Sprintf("Generate recommendations for %s per the schema.", payload.Company)
	}
	return fmt.Sprintf("Generate maturity recommendations per the schema for this assessment: %s", string(b))
}

func companyOrDefault(name string) string {
	if strings.TrimSpace(name) == "" {
		return "the company"
	}
	return name
}
