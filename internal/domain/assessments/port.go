package assessments

import (
	"context"
	"time"
)

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, a *Assessment) error
	Get(ctx context.Context, id AssessmentID) (*Assessment, error)
	FindByArtifactPath(ctx context.Context, path string) (*Assessment, error)

	UpdateAnswers(ctx context.Context, id AssessmentID, status Status, answers []Answer) error
	UpdateCompletion(ctx context.Context, id AssessmentID, score int, completedOn time.Time) error
	UpdateRecommendations(ctx context.Context, id AssessmentID, rec *Recommendations) error
	UpdateArtifactPath(ctx context.Context, id AssessmentID, path string) error
}

// QuestionCatalog port (survey service collaborator)
type QuestionCatalog interface {
	QuestionsForSurvey(ctx context.Context, surveyID int64) ([]Question, error)
}

// UserDirectory port (user service collaborator)
type UserDirectory interface {
	UserByID(ctx context.Context, id int64) (*User, error)
}

// Renderer port (assessment + resolved doc → report bytes). company is
// the resolved owner company, whichever owner kind holds it.
type Renderer interface {
	Render(a *Assessment, doc *RecommendationDoc, company string) ([]byte, error)
	FileName(company string, completedOn time.Time) string
}

// ArtifactStore port (filesystem persistence + tolerant read resolution)
type ArtifactStore interface {
	// Write persists bytes under the owner-keyed relative path and
	// returns the relative path that should be recorded on the row.
	Write(ctx context.Context, rel string, data []byte) (string, error)
	// Resolve maps a stored pointer to an absolute on-disk path, trying
	// historical naming conventions; ErrArtifactMissing when none exist.
	Resolve(ctx context.Context, stored string) (string, error)
	// OwnerDir is the relative directory for an owner identity.
	OwnerDir(userID *int64, guest *Guest) string
}

// ArtifactMirror port (optional object-storage copy of the artifact)
type ArtifactMirror interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
}
