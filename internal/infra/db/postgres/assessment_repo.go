package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/bryanwahyu/assessly/internal/domain/assessments"
)

// AssessmentRepository is the Postgres twin of the MySQL repository;
// same schema, $n placeholders and ON CONFLICT instead.
type AssessmentRepository struct {
	db *sql.DB
}

func NewAssessmentRepository(db *sql.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

const assessmentColumns = `
id, survey_id, user_id, guest_name, guest_email, guest_company, status,
answers, score, recommendations, pdf_path, completed_on, created_at`

func (r *AssessmentRepository) Save(ctx context.Context, a *domain.Assessment) error {
	const q = `
INSERT INTO assessments
(id, survey_id, user_id, guest_name, guest_email, guest_company, status,
 answers, score, recommendations, pdf_path, completed_on, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
 status=EXCLUDED.status, answers=EXCLUDED.answers, score=EXCLUDED.score,
 recommendations=EXCLUDED.recommendations, pdf_path=EXCLUDED.pdf_path,
 completed_on=EXCLUDED.completed_on;
`
	answers := a.Answers
	if answers == nil {
		answers = []domain.Answer{}
	}
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
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

	var userID sql.NullInt64
	if a.UserID != nil {
		userID = sql.NullInt64{Int64: *a.UserID, Valid: true}
	}
	var score sql.NullInt64
	if a.Score != nil {
		score = sql.NullInt64{Int64: int64(*a.Score), Valid: true}
	}
	var pdfPath sql.NullString
	if a.ArtifactPath != nil {
		pdfPath = sql.NullString{String: *a.ArtifactPath, Valid: true}
	}
	var completed sql.NullTime
	if a.CompletedOn != nil {
		completed = sql.NullTime{Time: *a.CompletedOn, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, q,
		a.ID, a.SurveyID, userID, guestName, guestEmail, guestCompany, a.Status,
		answersJSON, score, recJSON, pdfPath, completed, created,
	)
	return err
}

func (r *AssessmentRepository) Get(ctx context.Context, id domain.AssessmentID) (*domain.Assessment, error) {
	const q = `SELECT` + assessmentColumns + `
FROM assessments WHERE id=$1 LIMIT 1;`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

func (r *AssessmentRepository) FindByArtifactPath(ctx context.Context, path string) (*domain.Assessment, error) {
	const q = `SELECT` + assessmentColumns + `
FROM assessments WHERE pdf_path=$1 OR pdf_path=$2 LIMIT 1;`
	trimmed := strings.TrimPrefix(path, "/")
	return r.scanOne(r.db.QueryRowContext(ctx, q, trimmed, "/"+trimmed))
}

func (r *AssessmentRepository) UpdateAnswers(ctx context.Context, id domain.AssessmentID, status domain.Status, answers []domain.Answer) error {
	if answers == nil {
		answers = []domain.Answer{}
	}
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	const q = `UPDATE assessments SET status=$1, answers=$2 WHERE id=$3;`
	_, err = r.db.ExecContext(ctx, q, status, answersJSON, id)
	return err
}

func (r *AssessmentRepository) UpdateCompletion(ctx context.Context, id domain.AssessmentID, score int, completedOn time.Time) error {
	const q = `UPDATE assessments SET status=$1, score=$2, completed_on=$3 WHERE id=$4;`
	_, err := r.db.ExecContext(ctx, q, domain.StatusCompleted, score, completedOn, id)
	return err
}

func (r *AssessmentRepository) UpdateRecommendations(ctx context.Context, id domain.AssessmentID, rec *domain.Recommendations) error {
	var recJSON any
	if rec != nil {
		b, err := rec.MarshalJSON()
		if err != nil {
			return err
		}
		recJSON = b
	}
	const q = `UPDATE assessments SET recommendations=$1 WHERE id=$2;`
	_, err := r.db.ExecContext(ctx, q, recJSON, id)
	return err
}

func (r *AssessmentRepository) UpdateArtifactPath(ctx context.Context, id domain.AssessmentID, path string) error {
	const q = `UPDATE assessments SET pdf_path=$1 WHERE id=$2;`
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
	if len(answersRaw) > 0 {
		if err := json.Unmarshal(answersRaw, &a.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
	}
	if score.Valid {
		v := int(score.Int64)
		a.Score = &v
	}
	if len(recRaw) > 0 && string(recRaw) != "null" {
		var rec domain.Recommendations
		if err := json.Unmarshal(recRaw, &rec); err != nil {
			return nil, err
		}
		a.Recommendations = &rec
	}
	if pdfPath.Valid && pdfPath.String != "" {
		a.ArtifactPath = &pdfPath.String
	}
	if completed.Valid {
		a.CompletedOn = &completed.Time
	}
	return &a, nil
}
