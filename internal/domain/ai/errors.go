package ai

import "errors"

// ErrMissingAPIKey indicates the provider credential is not configured.
// The call must never be attempted in this state.
var ErrMissingAPIKey = errors.New("ai api key not configured")

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrUnavailable indicates a transient provider failure (timeout, 5xx).
var ErrUnavailable = errors.New("ai provider unavailable")
