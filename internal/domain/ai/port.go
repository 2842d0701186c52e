package ai

import "context"

// RecommendationRequest carries everything the prompt builder needs.
type RecommendationRequest struct {
	CompanyName    string
	CategoryScores []ScoredCategory
	Answers        []QuestionAnswer
}

// ScoredCategory is a category score for the current period.
type ScoredCategory struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// QuestionAnswer is one raw question/answer pair fed to the model.
type QuestionAnswer struct {
	Question string `json:"question"`
	Value    int    `json:"value"`
}

// Client is the language-model collaborator. At most one call per
// completion; the response content must be strict JSON matching the
// recommendation document schema.
type Client interface {
	GenerateRecommendations(ctx context.Context, req RecommendationRequest) (string, error)
}
