package ai

import (
	"context"
	"time"

	domai "github.com/bryanwahyu/assessly/internal/domain/ai"
	domain "github.com/bryanwahyu/assessly/internal/domain/assessments"
)

// Service is the recommendation generator: prompt context in, validated
// structured document out. One model call per invocation, no retries.
type Service struct {
	client  domai.Client
	timeout time.Duration
}

func NewService(client domai.Client, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Service{client: client, timeout: timeout}
}

// Generate calls the model and parses its JSON response into a
// RecommendationDoc. Returns ErrMissingAPIKey without calling out when
// no client is configured.
func (s *Service) Generate(ctx context.Context, req domai.RecommendationRequest) (*domain.RecommendationDoc, error) {
	if s == nil || s.client == nil {
		return nil, domai.ErrMissingAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.client.GenerateRecommendations(ctx, req)
	if err != nil {
		return nil, err
	}
	return domain.ParseRecommendationDoc(raw)
}
