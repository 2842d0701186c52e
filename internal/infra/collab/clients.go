package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	domain "github.com/bryanwahyu/assessly/internal/domain/assessments"
)

// HTTP clients for the external collaborators this pipeline consumes:
// the survey question catalog and the user directory. Both are owned by
// other services; only their read contracts matter here.

type CatalogClient struct {
	baseURL string
	http    *http.Client
}

func NewCatalogClient(baseURL string) *CatalogClient {
	return &CatalogClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// QuestionsForSurvey → GET {base}/surveys/{id}/questions
func (c *CatalogClient) QuestionsForSurvey(ctx context.Context, surveyID int64) ([]domain.Question, error) {
	url := fmt.Sprintf("%s/surveys/%d/questions", c.baseURL, surveyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("survey catalog: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("survey catalog: unexpected status %d", resp.StatusCode)
	}

	var out []domain.Question
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("survey catalog: decode: %w", err)
	}
	return out, nil
}

type DirectoryClient struct {
	baseURL string
	http    *http.Client
}

func NewDirectoryClient(baseURL string) *DirectoryClient {
	return &DirectoryClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// UserByID → GET {base}/users/{id}
func (c *DirectoryClient) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	url := fmt.Sprintf("%s/users/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user directory: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("user directory: user %d not found", id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user directory: unexpected status %d", resp.StatusCode)
	}

	var out domain.User
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("user directory: decode: %w", err)
	}
	return &out, nil
}
