package assessments

import (
	"context"
	"errors"
	"path"
	"strconv"

	domain "github.com/bryanwahyu/assessly/internal/domain/assessments"
)

// Artifact recovery: when a stored pointer does not resolve to a file,
// the report is rebuilt from the row's own data. The stored
// recommendation document is reused as-is; the model is never re-called
// here. Concurrent requests for the same id collapse into one rebuild
// via singleflight, and every waiter gets the one shared outcome,
// errors included.

// ArtifactForAssessment resolves (or rebuilds) the artifact for an id
// and returns the absolute on-disk path.
func (s *Service) ArtifactForAssessment(ctx context.Context, id domain.AssessmentID) (string, error) {
	a, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", &domain.RecoveryError{ID: id, Reason: domain.ReasonNotFound}
		}
		return "", err
	}
	if a.ArtifactPath != nil {
		if abs, err := s.Artifacts.Resolve(ctx, *a.ArtifactPath); err == nil {
			return abs, nil
		}
	}
	return s.RecoverArtifact(ctx, id)
}

// ArtifactForPath resolves a raw stored path, falling back to recovery
// when the file is gone: first by pointer lookup, then by parsing the
// legacy report-{id}.pdf naming.
func (s *Service) ArtifactForPath(ctx context.Context, stored string) (string, error) {
	if abs, err := s.Artifacts.Resolve(ctx, stored); err == nil {
		return abs, nil
	}

	if a, err := s.Repo.FindByArtifactPath(ctx, stored); err == nil {
		return s.RecoverArtifact(ctx, a.ID)
	}
	if id, ok := domain.ParseLegacyArtifactID(stored); ok {
		return s.RecoverArtifact(ctx, id)
	}
	return "", domain.ErrArtifactMissing
}

// RecoverArtifact rebuilds the artifact for one assessment. At most one
// rebuild per id is in flight in this process; racing callers wait for
// the holder's result instead of starting their own.
func (s *Service) RecoverArtifact(ctx context.Context, id domain.AssessmentID) (string, error) {
	key := strconv.FormatInt(int64(id), 10)
	v, err, shared := s.flight.Do(key, func() (any, error) {
		// Detached context: waiters share this result, so the rebuild
		// must not die with the first caller's request.
		return s.recover(context.Background(), id)
	})
	if shared {
		s.Log.Debug("recovery deduplicated", "id", id)
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// recover does the actual rebuild. Preconditions are checked in a fixed
// order before any filesystem work, each with its own reason code.
func (s *Service) recover(ctx context.Context, id domain.AssessmentID) (string, error) {
	a, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", &domain.RecoveryError{ID: id, Reason: domain.ReasonNotFound}
		}
		return "", &domain.RecoveryError{ID: id, Reason: domain.ReasonNotFound, Err: err}
	}
	if !a.IsCompleted() {
		return "", &domain.RecoveryError{ID: id, Reason: domain.ReasonNotCompleted}
	}
	if a.Recommendations == nil {
		return "", &domain.RecoveryError{ID: id, Reason: domain.ReasonNoRecommendations}
	}
	if len(a.Answers) == 0 {
		return "", &domain.RecoveryError{ID: id, Reason: domain.ReasonNoAnswers}
	}
	questions, err := s.Catalog.QuestionsForSurvey(ctx, a.SurveyID)
	if err != nil || len(questions) == 0 {
		return "", &domain.RecoveryError{ID: id, Reason: domain.ReasonNoQuestions, Err: err}
	}

	user := s.lookupOwner(ctx, a)
	company := a.CompanyName(user)

	pdf, err := s.Renderer.Render(a, &a.Recommendations.Doc, company)
	if err != nil {
		return "", &domain.RecoveryError{ID: id, Reason: domain.ReasonRenderFailed, Err: err}
	}

	completedOn := a.CreatedAt
	if a.CompletedOn != nil {
		// key on the assessment's own completion date so repeated
		// recovery lands on the same path
		completedOn = *a.CompletedOn
	}
	name := s.Renderer.FileName(company, completedOn)
	rel := path.Join(s.Artifacts.OwnerDir(a.UserID, a.Guest), name)

	stored, err := s.Artifacts.Write(ctx, rel, pdf)
	if err != nil {
		return "", &domain.RecoveryError{ID: id, Reason: domain.ReasonStoreFailed, Err: err}
	}
	if err := s.Repo.UpdateArtifactPath(ctx, id, stored); err != nil {
		return "", &domain.RecoveryError{ID: id, Reason: domain.ReasonStoreFailed, Err: err}
	}

	abs, err := s.Artifacts.Resolve(ctx, stored)
	if err != nil {
		return "", &domain.RecoveryError{ID: id, Reason: domain.ReasonStoreFailed, Err: err}
	}
	s.Log.Info("artifact recovered", "id", id, "path", stored)
	return abs, nil
}
