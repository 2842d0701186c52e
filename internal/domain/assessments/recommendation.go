package assessments

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RecommendationCategory is one scored survey category with advice.
type RecommendationCategory struct {
	Name          string   `json:"name"`
	CurrentScore  int      `json:"currentScore"`
	Benchmark     int      `json:"benchmark"`
	Trend         string   `json:"trend"`
	BestPractices []string `json:"bestPractices"`
}

// RecommendationDoc is the structured document the model returns and the
// renderer consumes.
type RecommendationDoc struct {
	Intro      string                   `json:"intro"`
	Categories []RecommendationCategory `json:"categories"`
	Outro      string                   `json:"outro"`
}

// Validate checks the minimum the renderer needs out of a model response.
func (d *RecommendationDoc) Validate() error {
	if strings.TrimSpace(d.Intro) == "" && len(d.Categories) == 0 {
		return fmt.Errorf("recommendation document is empty")
	}
	for i, c := range d.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("category %d has no name", i)
		}
	}
	return nil
}

// Recommendations is the union stored in the recommendations column.
// Old rows hold a bare JSON string (free-text advice from the first
// release); new rows hold the structured document. Readers take either;
// writers always produce the structured form.
type Recommendations struct {
	Doc    RecommendationDoc
	Legacy bool
}

// FromDoc wraps a structured document.
func FromDoc(doc RecommendationDoc) *Recommendations {
	return &Recommendations{Doc: doc}
}

// UnmarshalJSON upgrades the legacy string form on read: the free text
// becomes the intro of an otherwise empty structured document.
func (r *Recommendations) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	if trimmed[0] == '"' {
		var legacy string
		if err := json.Unmarshal(data, &legacy); err != nil {
			return fmt.Errorf("decode legacy recommendations: %w", err)
		}
		r.Doc = RecommendationDoc{Intro: legacy}
		r.Legacy = true
		return nil
	}
	var doc RecommendationDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode recommendations: %w", err)
	}
	r.Doc = doc
	r.Legacy = false
	return nil
}

// MarshalJSON always writes the structured form, upgraded or not.
func (r *Recommendations) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Doc)
}

// ParseRecommendationDoc decodes and validates a raw model response.
// Anything that is not a JSON object matching the schema is rejected.
func ParseRecommendationDoc(raw string) (*RecommendationDoc, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, fmt.Errorf("model response is not a JSON object")
	}
	var doc RecommendationDoc
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}
