package assessments

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bryanwahyu/assessly/internal/application"
	appai "github.com/bryanwahyu/assessly/internal/application/ai"
	"github.com/bryanwahyu/assessly/internal/application/notify"
	domai "github.com/bryanwahyu/assessly/internal/domain/ai"
	domain "github.com/bryanwahyu/assessly/internal/domain/assessments"
	"github.com/bryanwahyu/assessly/internal/middleware"
	"github.com/bryanwahyu/assessly/internal/platform/logger"
)

// Service implements use-cases untuk Assessment: the completion pipeline
// (score → recommendations → artifact → mail) and artifact recovery.
// Safe for concurrent use.
type Service struct {
	Repo      domain.Repository
	Catalog   domain.QuestionCatalog
	Users     domain.UserDirectory
	AI        *appai.Service // nil when no credential is configured
	Renderer  domain.Renderer
	Artifacts domain.ArtifactStore
	Mirror    domain.ArtifactMirror // optional
	Notifier  *notify.Service       // optional
	Clock     application.Clock
	Log       *logger.Logger

	flight singleflight.Group
}

// pipelineTimeout bounds the detached post-persistence stages (model
// call, render, store, mail) of one completion.
const pipelineTimeout = 3 * time.Minute

//
// ==== USE CASES ====
//

// CreateCommand opens a new draft assessment.
type CreateCommand struct {
	ID       domain.AssessmentID
	SurveyID int64
	UserID   *int64
	Guest    *domain.Guest
}

// Create persists a draft. Owner is exactly one of user or guest; the
// guest snapshot is frozen here and never re-joined to a live record.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*domain.Assessment, error) {
	if cmd.ID <= 0 {
		return nil, &domain.ValidationError{Field: "id", Msg: "must be positive"}
	}
	if cmd.SurveyID <= 0 {
		return nil, &domain.ValidationError{Field: "survey_id", Msg: "must be positive"}
	}
	if cmd.UserID == nil && cmd.Guest == nil {
		return nil, &domain.ValidationError{Field: "owner", Msg: "user id or guest identity required"}
	}
	a := &domain.Assessment{
		ID:        cmd.ID,
		SurveyID:  cmd.SurveyID,
		UserID:    cmd.UserID,
		Guest:     cmd.Guest,
		Status:    domain.StatusDraft,
		CreatedAt: s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// SaveAnswers accumulates partial answers (draft → in_progress).
// Duplicates by question id resolve last-write-wins.
func (s *Service) SaveAnswers(ctx context.Context, id domain.AssessmentID, answers []domain.Answer) (*domain.Assessment, error) {
	if err := validateAnswers(answers); err != nil {
		return nil, err
	}
	a, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.IsCompleted() {
		return nil, domain.ErrAlreadyCompleted
	}
	a.Answers = domain.MergeAnswers(a.Answers, answers)
	a.Status = domain.StatusInProgress
	if err := s.Repo.UpdateAnswers(ctx, id, a.Status, a.Answers); err != nil {
		return nil, err
	}
	return a, nil
}

// Get ambil 1 assessment by id
func (s *Service) Get(ctx context.Context, id domain.AssessmentID) (*domain.Assessment, error) {
	return s.Repo.Get(ctx, id)
}

// CompleteCommand carries the final answer set.
type CompleteCommand struct {
	ID      domain.AssessmentID
	Answers []domain.Answer
}

// CompleteResult is what the caller sees: completion always succeeds
// once the score is persisted, whatever the downstream stages did.
type CompleteResult struct {
	ID              domain.AssessmentID `json:"id"`
	Status          domain.Status       `json:"status"`
	Score           int                 `json:"score"`
	ArtifactPath    string              `json:"pdf_path,omitempty"`
	Recommendations bool                `json:"recommendations"`
}

// Complete drives the in_progress → completed transition. Scoring and
// persistence failures abort; recommendation, artifact and mail failures
// are logged and swallowed so the user-visible result is still success.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) (CompleteResult, error) {
	if err := validateAnswers(cmd.Answers); err != nil {
		return CompleteResult{}, err
	}

	a, err := s.Repo.Get(ctx, cmd.ID)
	if err != nil {
		return CompleteResult{}, err
	}
	if a.IsCompleted() {
		// completed is terminal; re-posting the form must not re-run
		// the pipeline
		return resultFrom(a), nil
	}

	a.Answers = domain.MergeAnswers(a.Answers, cmd.Answers)
	if err := s.Repo.UpdateAnswers(ctx, a.ID, domain.StatusInProgress, a.Answers); err != nil {
		return CompleteResult{}, err
	}

	score := domain.Score(a.Answers)
	now := s.Clock.Now()
	if err := s.Repo.UpdateCompletion(ctx, a.ID, score, now); err != nil {
		return CompleteResult{}, err
	}
	a.Status = domain.StatusCompleted
	a.Score = &score
	a.CompletedOn = &now

	s.Log.Info("assessment completed", "id", a.ID, "score", score)

	// Everything below is best effort and must outlive the caller: a
	// client that disconnects right after posting the form must not
	// cancel the one model call this assessment ever gets.
	dctx, cancel := context.WithTimeout(context.Background(), pipelineTimeout)
	defer cancel()

	user := s.lookupOwner(dctx, a)
	doc := s.generateRecommendations(dctx, a, user)
	var pdf []byte
	if doc != nil {
		pdf = s.storeArtifact(dctx, a, doc, user)
	}
	if pdf != nil {
		s.notifyOwner(dctx, a, user, pdf)
	}

	return resultFrom(a), nil
}

// generateRecommendations runs the single model call for this
// completion. Any failure leaves the assessment completed without
// recommendations.
func (s *Service) generateRecommendations(ctx context.Context, a *domain.Assessment, user *domain.User) *domain.RecommendationDoc {
	if s.AI == nil {
		s.Log.Warn("ai client not configured, skipping recommendations", "id", a.ID)
		return nil
	}

	questions, err := s.Catalog.QuestionsForSurvey(ctx, a.SurveyID)
	if err != nil || len(questions) == 0 {
		s.Log.Error("question catalog unavailable, skipping recommendations", "id", a.ID, "survey_id", a.SurveyID, "err", err)
		return nil
	}

	req := buildRecommendationRequest(a, user, questions)

	doc, err := s.AI.Generate(ctx, req)
	if err != nil {
		middleware.IncrementRecommendationFailures()
		if errors.Is(err, domai.ErrMissingAPIKey) {
			s.Log.Warn("ai credential missing, skipping recommendations", "id", a.ID)
		} else {
			s.Log.Error("recommendation generation failed", "id", a.ID, "err", err)
		}
		return nil
	}

	if err := s.Repo.UpdateRecommendations(ctx, a.ID, domain.FromDoc(*doc)); err != nil {
		s.Log.Error("persist recommendations failed", "id", a.ID, "err", err)
		return nil
	}
	a.Recommendations = domain.FromDoc(*doc)
	return doc
}

// storeArtifact renders and persists the report; returns the bytes for
// the notification attachment, or nil when the stage failed.
func (s *Service) storeArtifact(ctx context.Context, a *domain.Assessment, doc *domain.RecommendationDoc, user *domain.User) []byte {
	company := a.CompanyName(user)

	pdf, err := s.Renderer.Render(a, doc, company)
	if err != nil {
		s.Log.Error("artifact render failed", "id", a.ID, "err", err)
		return nil
	}

	name := s.Renderer.FileName(company, *a.CompletedOn)
	rel := path.Join(s.Artifacts.OwnerDir(a.UserID, a.Guest), name)
	stored, err := s.Artifacts.Write(ctx, rel, pdf)
	if err != nil {
		s.Log.Error("artifact write failed", "id", a.ID, "path", rel, "err", err)
		return nil
	}
	if err := s.Repo.UpdateArtifactPath(ctx, a.ID, stored); err != nil {
		s.Log.Error("artifact pointer update failed", "id", a.ID, "path", stored, "err", err)
		return nil
	}
	a.ArtifactPath = &stored

	if s.Mirror != nil {
		if _, err := s.Mirror.Put(ctx, stored, pdf); err != nil {
			s.Log.Warn("artifact mirror failed", "id", a.ID, "key", stored, "err", err)
		}
	}
	return pdf
}

func (s *Service) notifyOwner(ctx context.Context, a *domain.Assessment, user *domain.User, pdf []byte) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendCompletion(ctx, a, user, pdf); err != nil {
		s.Log.Error("completion mail failed", "id", a.ID, "err", err)
	}
}

// lookupOwner resolves the authenticated owner; a directory failure
// degrades to guest/anonymous naming instead of failing the stage.
func (s *Service) lookupOwner(ctx context.Context, a *domain.Assessment) *domain.User {
	if a.UserID == nil || s.Users == nil {
		return nil
	}
	user, err := s.Users.UserByID(ctx, *a.UserID)
	if err != nil {
		s.Log.Warn("user directory lookup failed", "id", a.ID, "user_id", *a.UserID, "err", err)
		return nil
	}
	return user
}

func buildRecommendationRequest(a *domain.Assessment, user *domain.User, questions []domain.Question) domai.RecommendationRequest {
	scores := domain.CategoryScores(a.Answers, questions)
	scored := make([]domai.ScoredCategory, 0, len(scores))
	for _, cs := range scores {
		scored = append(scored, domai.ScoredCategory{Name: cs.Name, Score: cs.Score})
	}

	textByID := make(map[int64]string, len(questions))
	for _, q := range questions {
		textByID[q.ID] = q.Text
	}
	var qa []domai.QuestionAnswer
	for _, ans := range a.Answers {
		if ans.QuestionID == nil || ans.Value == nil {
			continue
		}
		if text, ok := textByID[*ans.QuestionID]; ok {
			qa = append(qa, domai.QuestionAnswer{Question: text, Value: *ans.Value})
		}
	}

	return domai.RecommendationRequest{
		CompanyName:    a.CompanyName(user),
		CategoryScores: scored,
		Answers:        qa,
	}
}

func validateAnswers(answers []domain.Answer) error {
	for i, ans := range answers {
		if ans.Value == nil {
			continue
		}
		if *ans.Value < -2 || *ans.Value > 2 {
			return &domain.ValidationError{Field: "answers", Msg: fmt.Sprintf("value out of range at index %d", i)}
		}
	}
	return nil
}

func resultFrom(a *domain.Assessment) CompleteResult {
	res := CompleteResult{
		ID:              a.ID,
		Status:          a.Status,
		Recommendations: a.Recommendations != nil,
	}
	if a.Score != nil {
		res.Score = *a.Score
	}
	if a.ArtifactPath != nil {
		res.ArtifactPath = *a.ArtifactPath
	}
	return res
}
