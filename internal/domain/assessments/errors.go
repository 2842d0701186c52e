package assessments

import (
	"errors"
	"fmt"
)

// ErrNotFound when an assessment id has no row.
var ErrNotFound = errors.New("assessment not found")

// ErrAlreadyCompleted when a completed assessment is completed again.
var ErrAlreadyCompleted = errors.New("assessment already completed")

// ErrArtifactMissing when no resolver candidate exists on disk.
var ErrArtifactMissing = errors.New("artifact missing")

// ValidationError for malformed input; surfaces straight to the caller.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// RecoveryReason codes why a recovery attempt cannot proceed, so the
// artifact-serving caller can tell "nothing to recover" from "recovery
// failed".
type RecoveryReason string

const (
	ReasonNotFound          RecoveryReason = "NOT_FOUND"
	ReasonNotCompleted      RecoveryReason = "NOT_COMPLETED"
	ReasonNoRecommendations RecoveryReason = "NO_RECOMMENDATIONS"
	ReasonNoAnswers         RecoveryReason = "NO_ANSWERS"
	ReasonNoQuestions       RecoveryReason = "NO_QUESTIONS"
	ReasonRenderFailed      RecoveryReason = "RENDER_FAILED"
	ReasonStoreFailed       RecoveryReason = "STORE_FAILED"
)

// RecoveryError is a reason-coded recovery failure.
type RecoveryError struct {
	ID     AssessmentID
	Reason RecoveryReason
	Err    error
}

func (e *RecoveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recovery of assessment %d failed: %s: %v", e.ID, e.Reason, e.Err)
	}
	return fmt.Sprintf("recovery of assessment %d failed: %s", e.ID, e.Reason)
}

func (e *RecoveryError) Unwrap() error { return e.Err }

// Retryable reports whether retrying without new input can ever succeed.
func (e *RecoveryError) Retryable() bool {
	switch e.Reason {
	case ReasonRenderFailed, ReasonStoreFailed:
		return true
	}
	return false
}
