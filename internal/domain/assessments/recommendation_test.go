package assessments

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRecommendations_DecodeLegacyString(t *testing.T) {
	raw := `"Focus on automating your deployment pipeline."`

	var rec Recommendations
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.Legacy {
		t.Fatalf("expected legacy flag")
	}
	if rec.Doc.Intro != "Focus on automating your deployment pipeline." {
		t.Fatalf("legacy text should become intro, got %q", rec.Doc.Intro)
	}
	if len(rec.Doc.Categories) != 0 {
		t.Fatalf("legacy upgrade should have no categories")
	}
}

func TestRecommendations_DecodeStructured(t *testing.T) {
	raw := `{
		"intro": "Hello",
		"categories": [
			{"name": "Strategy", "currentScore": 60, "benchmark": 70, "trend": "improving", "bestPractices": ["do x"]}
		],
		"outro": "Bye"
	}`

	var rec Recommendations
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Legacy {
		t.Fatalf("structured form should not be legacy")
	}
	if len(rec.Doc.Categories) != 1 || rec.Doc.Categories[0].Name != "Strategy" {
		t.Fatalf("unexpected doc: %+v", rec.Doc)
	}
}

func TestRecommendations_AlwaysMarshalsStructured(t *testing.T) {
	var rec Recommendations
	if err := json.Unmarshal([]byte(`"old text"`), &rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := json.Marshal(&rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(string(out), "{") {
		t.Fatalf("writer must produce the structured form, got %s", out)
	}
	var doc RecommendationDoc
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if doc.Intro != "old text" {
		t.Fatalf("upgraded intro lost: %q", doc.Intro)
	}
}

func TestParseRecommendationDoc_RejectsNonJSON(t *testing.T) {
	if _, err := ParseRecommendationDoc("here are my thoughts..."); err == nil {
		t.Fatalf("expected error for non-JSON content")
	}
	if _, err := ParseRecommendationDoc(`{"intro": "", "categories": []}`); err == nil {
		t.Fatalf("expected error for empty document")
	}
	if _, err := ParseRecommendationDoc(`{"categories": [{"name": ""}], "intro": "x"}`); err == nil {
		t.Fatalf("expected error for unnamed category")
	}
}

func TestParseRecommendationDoc_Valid(t *testing.T) {
	doc, err := ParseRecommendationDoc(`{"intro":"hi","categories":[{"name":"Tech","currentScore":40,"benchmark":60,"trend":"stable","bestPractices":["a","b"]}],"outro":"bye"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Categories[0].CurrentScore != 40 {
		t.Fatalf("unexpected score: %d", doc.Categories[0].CurrentScore)
	}
}

func TestParseLegacyArtifactID(t *testing.T) {
	if id, ok := ParseLegacyArtifactID("report-123.pdf"); !ok || id != 123 {
		t.Fatalf("expected 123, got %d ok=%v", id, ok)
	}
	if id, ok := ParseLegacyArtifactID("/public/uploads/report-9.pdf"); !ok || id != 9 {
		t.Fatalf("expected 9, got %d ok=%v", id, ok)
	}
	if _, ok := ParseLegacyArtifactID("acme-2024-01-01.pdf"); ok {
		t.Fatalf("expected no match for new naming")
	}
	if _, ok := ParseLegacyArtifactID("report-.pdf"); ok {
		t.Fatalf("expected no match for malformed name")
	}
}
