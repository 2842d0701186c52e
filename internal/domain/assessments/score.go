package assessments

import "math"

// Score maps a set of ordinal answers onto 0..100.
// Nil-valued answers are skipped; zero remaining answers score 0.
// Each value is shifted from [-2,2] into [0,4], summed, and normalized
// against the maximum (count*4). Pure and idempotent.
func Score(answers []Answer) int {
	sum := 0
	count := 0
	for _, ans := range answers {
		if ans.Value == nil {
			continue
		}
		v := clampValue(*ans.Value)
		sum += v + 2
		count++
	}
	if count == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(count*4) * 100))
}

// clampValue keeps out-of-range input from skewing the scale; an
// out-of-range value is a caller contract violation, production clamps.
func clampValue(v int) int {
	if v < -2 {
		return -2
	}
	if v > 2 {
		return 2
	}
	return v
}

// CategoryScore is one survey category scored on its own answers.
type CategoryScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// CategoryScores groups answers by question category and scores each
// group independently. Categories are emitted in catalog order,
// deduplicated; a category with no answered entries scores 0.
func CategoryScores(answers []Answer, questions []Question) []CategoryScore {
	catByQuestion := make(map[int64]string, len(questions))
	var order []string
	seen := make(map[string]bool)
	for _, q := range questions {
		catByQuestion[q.ID] = q.Category
		if !seen[q.Category] {
			seen[q.Category] = true
			order = append(order, q.Category)
		}
	}

	grouped := make(map[string][]Answer)
	for _, ans := range answers {
		if ans.QuestionID == nil {
			continue
		}
		cat, ok := catByQuestion[*ans.QuestionID]
		if !ok {
			continue
		}
		grouped[cat] = append(grouped[cat], ans)
	}

	out := make([]CategoryScore, 0, len(order))
	for _, cat := range order {
		out = append(out, CategoryScore{Name: cat, Score: Score(grouped[cat])})
	}
	return out
}
