package assessments

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	domai "github.com/bryanwahyu/assessly/internal/domain/ai"
	domain "github.com/bryanwahyu/assessly/internal/domain/assessments"
	dommail "github.com/bryanwahyu/assessly/internal/domain/mail"
)

// in-memory fakes shared by the pipeline and recovery tests

type fakeRepo struct {
	mu   sync.Mutex
	rows map[domain.AssessmentID]*domain.Assessment
}

func newFakeRepo(rows ...*domain.Assessment) *fakeRepo {
	r := &fakeRepo{rows: make(map[domain.AssessmentID]*domain.Assessment)}
	for _, row := range rows {
		r.rows[row.ID] = row
	}
	return r
}

func (r *fakeRepo) Save(ctx context.Context, a *domain.Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.rows[a.ID] = &cp
	return nil
}

func (r *fakeRepo) Get(ctx context.Context, id domain.AssessmentID) (*domain.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *fakeRepo) FindByArtifactPath(ctx context.Context, path string) (*domain.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	trimmed := strings.TrimPrefix(path, "/")
	for _, row := range r.rows {
		if row.ArtifactPath != nil && strings.TrimPrefix(*row.ArtifactPath, "/") == trimmed {
			cp := *row
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeRepo) UpdateAnswers(ctx context.Context, id domain.AssessmentID, status domain.Status, answers []domain.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	row.Status = status
	row.Answers = answers
	return nil
}

func (r *fakeRepo) UpdateCompletion(ctx context.Context, id domain.AssessmentID, score int, completedOn time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	row.Status = domain.StatusCompleted
	row.Score = &score
	row.CompletedOn = &completedOn
	return nil
}

func (r *fakeRepo) UpdateRecommendations(ctx context.Context, id domain.AssessmentID, rec *domain.Recommendations) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	row.Recommendations = rec
	return nil
}

func (r *fakeRepo) UpdateArtifactPath(ctx context.Context, id domain.AssessmentID, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	row.ArtifactPath = &path
	return nil
}

func (r *fakeRepo) get(id domain.AssessmentID) *domain.Assessment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id]
}

type fakeCatalog struct {
	questions []domain.Question
	err       error
}

func (c *fakeCatalog) QuestionsForSurvey(ctx context.Context, surveyID int64) ([]domain.Question, error) {
	return c.questions, c.err
}

type fakeDirectory struct {
	users map[int64]*domain.User
	calls atomic.Int64
}

func (d *fakeDirectory) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	d.calls.Add(1)
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %d not found", id)
}

// fakeAIClient implements domai.Client. Honors context cancellation the
// way the real client does.
type fakeAIClient struct {
	response string
	err      error
	calls    atomic.Int64
}

func (c *fakeAIClient) GenerateRecommendations(ctx context.Context, req domai.RecommendationRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.calls.Add(1)
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

// fakeRenderer counts renders so concurrency tests can assert exactly one.
type fakeRenderer struct {
	renders atomic.Int64
	fail    bool
	delay   time.Duration

	mu          sync.Mutex
	lastCompany string
}

func (r *fakeRenderer) Render(a *domain.Assessment, doc *domain.RecommendationDoc, company string) ([]byte, error) {
	r.renders.Add(1)
	r.mu.Lock()
	r.lastCompany = company
	r.mu.Unlock()
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if r.fail {
		return nil, fmt.Errorf("boom")
	}
	return []byte("%PDF-fake"), nil
}

func (r *fakeRenderer) company() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastCompany
}

func (r *fakeRenderer) FileName(company string, completedOn time.Time) string {
	base := strings.ToLower(strings.ReplaceAll(company, " ", "-"))
	if base == "" {
		base = "assessment"
	}
	return base + "-" + completedOn.Format("2006-01-02") + ".pdf"
}

// fakeStore keeps artifacts in memory and counts every touch so the
// precondition tests can assert no filesystem work happened.
type fakeStore struct {
	mu     sync.Mutex
	files  map[string][]byte
	writes int
	calls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{files: make(map[string][]byte)}
}

func (s *fakeStore) OwnerDir(userID *int64, guest *domain.Guest) string {
	if userID != nil {
		return filepath.Join("uploads", strconv.FormatInt(*userID, 10))
	}
	if guest != nil && guest.Email != "" {
		return filepath.Join("uploads", "guest", guest.Email)
	}
	return filepath.Join("uploads", "guest", "anonymous")
}

func (s *fakeStore) Write(ctx context.Context, rel string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.writes++
	s.files[rel] = data
	return rel, nil
}

func (s *fakeStore) Resolve(ctx context.Context, stored string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	trimmed := strings.TrimPrefix(stored, "/")
	if _, ok := s.files[trimmed]; ok {
		return "/resolved/" + trimmed, nil
	}
	return "", domain.ErrArtifactMissing
}

func (s *fakeStore) touches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *fakeStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// fakeSender captures outbound mail.
type fakeSender struct {
	mu   sync.Mutex
	sent []dommail.Message
	err  error
}

func (s *fakeSender) Send(ctx context.Context, msg dommail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) messages() []dommail.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]dommail.Message(nil), s.sent...)
}
