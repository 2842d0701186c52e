package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appassess "github.com/bryanwahyu/assessly/internal/application/assessments"
	domai "github.com/bryanwahyu/assessly/internal/domain/ai"
	domain "github.com/bryanwahyu/assessly/internal/domain/assessments"
	"github.com/bryanwahyu/assessly/internal/middleware"
)

type Router struct {
	svc *appassess.Service
}

func NewRouter(svc *appassess.Service) http.Handler {
	r := &Router{svc: svc}
	mux := chi.NewRouter()

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/assessments", r.wrap(r.handleCreate))
		rt.Get("/assessments/{id}", r.wrap(r.handleGet))
		rt.Post("/assessments/{id}/answers", r.wrap(r.handleSaveAnswers))
		rt.Post("/assessments/{id}/complete", r.wrap(r.handleComplete))
		rt.Get("/assessments/{id}/report", r.wrap(r.handleReport))
		rt.Get("/reports/*", r.wrap(r.handleReportByPath))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps domain errors onto status codes in one place. A recovery
// failure is a 404 with its reason code so the client can tell "nothing
// to recover" from "recovery failed, retry later".
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			http.Error(w, vErr.Error(), http.StatusBadRequest)
			return
		}
		var rErr *domain.RecoveryError
		if errors.As(err, &rErr) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{
				"error":     "report not available",
				"reason":    rErr.Reason,
				"retryable": rErr.Retryable(),
			})
			return
		}
		switch {
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrArtifactMissing):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrAlreadyCompleted):
			http.Error(w, "assessment already completed", http.StatusConflict)
		case errors.Is(err, domai.ErrQuotaExceeded):
			http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func idParam(req *http.Request) (domain.AssessmentID, error) {
	raw := chi.URLParam(req, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.ValidationError{Field: "id", Msg: "must be a positive integer"}
	}
	return domain.AssessmentID(id), nil
}

// POST /v1/assessments
func (r *Router) handleCreate(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ID       int64         `json:"id"`
		SurveyID int64         `json:"survey_id"`
		UserID   *int64        `json:"user_id"`
		Guest    *domain.Guest `json:"guest"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return &domain.ValidationError{Field: "body", Msg: err.Error()}
	}
	if body.Guest != nil {
		if err := middleware.ValidateEmail(body.Guest.Email); err != nil {
			return &domain.ValidationError{Field: "guest.email", Msg: err.Error()}
		}
	}

	a, err := r.svc.Create(req.Context(), appassess.CreateCommand{
		ID:       domain.AssessmentID(body.ID),
		SurveyID: body.SurveyID,
		UserID:   body.UserID,
		Guest:    body.Guest,
	})
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	return json.NewEncoder(w).Encode(a)
}

// GET /v1/assessments/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}
	a, err := r.svc.Get(req.Context(), id)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(a)
}

// POST /v1/assessments/{id}/answers
func (r *Router) handleSaveAnswers(w http.ResponseWriter, req *http.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}
	var body struct {
		Answers []domain.Answer `json:"answers"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return &domain.ValidationError{Field: "body", Msg: err.Error()}
	}

	a, err := r.svc.SaveAnswers(req.Context(), id, body.Answers)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(a)
}

// POST /v1/assessments/{id}/complete
func (r *Router) handleComplete(w http.ResponseWriter, req *http.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}
	var body struct {
		Answers []domain.Answer `json:"answers"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return &domain.ValidationError{Field: "body", Msg: err.Error()}
	}

	res, err := r.svc.Complete(req.Context(), appassess.CompleteCommand{ID: id, Answers: body.Answers})
	if err != nil {
		return err
	}
	middleware.IncrementCompletions()

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(res)
}

// GET /v1/assessments/{id}/report
// Recovery is transparent: a missing file is rebuilt before serving.
func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}
	middleware.IncrementRecoveries()
	abs, err := r.svc.ArtifactForAssessment(req.Context(), id)
	if err != nil {
		middleware.IncrementRecoveryFailures()
		return err
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "assessment-report.pdf"))
	http.ServeFile(w, req, abs)
	return nil
}

// GET /v1/reports/{stored path}
// Serves an artifact by its stored pointer, tolerating historical path
// shapes and triggering recovery when the file is gone.
func (r *Router) handleReportByPath(w http.ResponseWriter, req *http.Request) error {
	stored := chi.URLParam(req, "*")
	if err := middleware.ValidateStoredPath(stored); err != nil {
		return &domain.ValidationError{Field: "path", Msg: err.Error()}
	}

	abs, err := r.svc.ArtifactForPath(req.Context(), stored)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, req, abs)
	return nil
}
