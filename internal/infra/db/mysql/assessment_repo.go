package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	domain "github.com/bryanwahyu/assessly/internal/domain/assessments"
)

type AssessmentRepository struct {
	db *sql.DB
}

func NewAssessmentRepository(db *sql.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

const assessmentColumns = `
id, survey_id, user_id, guest_name, guest_email, guest_company, status,
answers, score, recommendations, pdf_path, completed_on, created_at`

// Save insert/update satu Assessment row (upsert by id)
func (r *AssessmentRepository) Save(ctx context.Context, a *domain.Assessment) error {
	const q = `
INSERT INTO assessments
(id, survey_id, user_id, guest_name, guest_email, guest_company, status,
 answers, score, recommendations, pdf_path, completed_on, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 status=VALUES(status), answers=VALUES(answers), score=VALUES(score),
 recommendations=VALUES(recommendations), pdf_path=VALUES(pdf_path),
 completed_on=VALUES(completed_on);
`
	answersJSON, err := encodeAnswers(a.Answers)
	if err != nil {
		return err
	}
	var recJSON any
	if a.Recommendations != nil {
		b, err := a.Recommendations.MarshalJSON()
		if err != nil {
			return err
		}
		recJSON = b
	}

	var guestName, guestEmail, guestCompany string
	if a.Guest != nil {
		guestName, guestEmail, guestCompany = a.Guest.Name, a.Guest.Email, a.Guest.Company
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	var score sql.NullInt64
	if a.Score != nil {
		score = sql.NullInt64{Int64: int64(*a.Score), Valid: true}
	}
	var completed sql.NullTime
	if a.CompletedOn != nil {
		completed = sql.NullTime{Time: *a.CompletedOn, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, q,
		a.ID, a.SurveyID, nullInt64(a.UserID), guestName, guestEmail, guestCompany, a.Status,
		answersJSON, score, recJSON, nullString(a.ArtifactPath), completed, created,
	)
	return err
}

// Get by ID
func (r *AssessmentRepository) Get(ctx context.Context, id domain.AssessmentID) (*domain.Assessment, error) {
	const q = `SELECT` + assessmentColumns + `
FROM assessments WHERE id=? LIMIT 1;`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// FindByArtifactPath looks a row up by its stored pointer, trying the
// leading-slash variant too since old rows stored both shapes.
func (r *AssessmentRepository) FindByArtifactPath(ctx context.Context, path string) (*domain.Assessment, error) {
	const q = `SELECT` + assessmentColumns + `
FROM assessments WHERE pdf_path=? OR pdf_path=? LIMIT 1;`
	alt := "/" + strings.TrimPrefix(path, "/")
	return r.scanOne(r.db.QueryRowContext(ctx, q, strings.TrimPrefix(path, "/"), alt))
}

// UpdateAnswers replaces the answers blob and moves the status forward.
func (r *AssessmentRepository) UpdateAnswers(ctx context.Context, id domain.AssessmentID, status domain.Status, answers []domain.Answer) error {
	answersJSON, err := encodeAnswers(answers)
	if err != nil {
		return err
	}
	const q = `UPDATE assessments SET status=?, answers=? WHERE id=?;`
	_, err = r.db.ExecContext(ctx, q, status, answersJSON, id)
	return err
}

// UpdateCompletion marks the one-way transition into completed.
func (r *AssessmentRepository) UpdateCompletion(ctx context.Context, id domain.AssessmentID, score int, completedOn time.Time) error {
	const q = `UPDATE assessments SET status=?, score=?, completed_on=? WHERE id=?;`
	_, err := r.db.ExecContext(ctx, q, domain.StatusCompleted, score, completedOn, id)
	return err
}

// UpdateRecommendations overwrites the document wholesale, never partial.
func (r *AssessmentRepository) UpdateRecommendations(ctx context.Context, id domain.AssessmentID, rec *domain.Recommendations) error {
	var recJSON any
	if rec != nil {
		b, err := rec.MarshalJSON()
		if err != nil {
			return err
		}
		recJSON = b
	}
	const q = `UPDATE assessments SET recommendations=? WHERE id=?;`
	_, err := r.db.ExecContext(ctx, q, recJSON, id)
	return err
}

// UpdateArtifactPath moves the last-known pointer.
func (r *AssessmentRepository) UpdateArtifactPath(ctx context.Context, id domain.AssessmentID, path string) error {
	const q = `UPDATE assessments SET pdf_path=? WHERE id=?;`
	_, err := r.db.ExecContext(ctx, q, path, id)
	return err
}

func (r *AssessmentRepository) scanOne(row *sql.Row) (*domain.Assessment, error) {
	var (
		a            domain.Assessment
		userID       sql.NullInt64
		guestName    sql.NullString
		guestEmail   sql.NullString
		guestCompany sql.NullString
		answersRaw   []byte
		score        sql.NullInt64
		recRaw       []byte
		pdfPath      sql.NullString
		completed    sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.SurveyID, &userID, &guestName, &guestEmail, &guestCompany, &a.Status,
		&answersRaw, &score, &recRaw, &pdfPath, &completed, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		a.UserID = &userID.Int64
	} else if guestName.Valid || guestEmail.Valid || guestCompany.Valid {
		a.Guest = &domain.Guest{
			Name:    guestName.String,
			Email:   guestEmail.String,
			Company: guestCompany.String,
		}
	}
	if a.Answers, err = decodeAnswers(answersRaw); err != nil {
		return nil, err
	}
	if score.Valid {
		v := int(score.Int64)
		a.Score = &v
	}
	if a.Recommendations, err = decodeRecommendations(recRaw); err != nil {
		return nil, err
	}
	if pdfPath.Valid && pdfPath.String != "" {
		a.ArtifactPath = &pdfPath.String
	}
	if completed.Valid {
		a.CompletedOn = &completed.Time
	}
	return &a, nil
}
