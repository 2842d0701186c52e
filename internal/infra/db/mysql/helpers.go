package mysql

import (
	"database/sql"
	"encoding/json"
	"fmt"

	domain "github.com/bryanwahyu/assessly/internal/domain/assessments"
)

// answers and recommendations live in JSON columns; these helpers keep
// the row scanning code readable.

func encodeAnswers(answers []domain.Answer) ([]byte, error) {
	if answers == nil {
		answers = []domain.Answer{}
	}
	return json.Marshal(answers)
}

func decodeAnswers(raw []byte) ([]domain.Answer, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []domain.Answer
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return out, nil
}

// decodeRecommendations takes either the legacy string form or the
// structured object; domain.Recommendations handles the upgrade.
func decodeRecommendations(raw []byte) (*domain.Recommendations, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var rec domain.Recommendations
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
