package assessments

import (
	"time"
)

// ID tipe untuk Assessment
type AssessmentID int64

// Status enum; transitions are one-way, completed is terminal
type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Answer value object. QuestionID and Value are nullable because the
// survey widget submits placeholders for untouched questions.
type Answer struct {
	QuestionID *int64 `json:"questionId"`
	Value      *int   `json:"value"` // -2..2
}

// Guest identity snapshot captured at creation time. Never re-joined to a
// live user record so old reports keep their historical owner.
type Guest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
}

// Aggregate Root: Assessment
type Assessment struct {
	ID              AssessmentID     `json:"id"`
	SurveyID        int64            `json:"survey_id"`
	UserID          *int64           `json:"user_id,omitempty"`
	Guest           *Guest           `json:"guest,omitempty"`
	Status          Status           `json:"status"`
	Answers         []Answer         `json:"answers"`
	Score           *int             `json:"score,omitempty"`
	Recommendations *Recommendations `json:"recommendations,omitempty"`
	// ArtifactPath is a last-known pointer, not a guarantee. A nil value
	// does not mean the bytes are gone; the resolver always checks disk.
	ArtifactPath *string    `json:"pdf_path,omitempty"`
	CompletedOn  *time.Time `json:"completed_on,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// CompanyName for artifact naming: guest company wins when no user is
// attached; empty when neither is known.
func (a *Assessment) CompanyName(u *User) string {
	if u != nil && u.Company != "" {
		return u.Company
	}
	if a.Guest != nil {
		return a.Guest.Company
	}
	return ""
}

// OwnerEmail returns the address completion mail goes to.
func (a *Assessment) OwnerEmail(u *User) string {
	if u != nil && u.Email != "" {
		return u.Email
	}
	if a.Guest != nil {
		return a.Guest.Email
	}
	return ""
}

// IsCompleted reports whether the terminal status was reached.
func (a *Assessment) IsCompleted() bool { return a.Status == StatusCompleted }

// MergeAnswers resolves duplicates by questionId, last write wins.
// Answers without a questionId are dropped.
func MergeAnswers(existing, incoming []Answer) []Answer {
	byID := make(map[int64]int)
	var out []Answer
	add := func(ans Answer) {
		if ans.QuestionID == nil {
			return
		}
		if idx, ok := byID[*ans.QuestionID]; ok {
			out[idx] = ans
			return
		}
		byID[*ans.QuestionID] = len(out)
		out = append(out, ans)
	}
	for _, ans := range existing {
		add(ans)
	}
	for _, ans := range incoming {
		add(ans)
	}
	return out
}

// Question from the survey catalog (external collaborator).
type Question struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

// User from the user directory (external collaborator).
type User struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Company string `json:"company"`
}
