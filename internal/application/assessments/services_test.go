package assessments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bryanwahyu/assessly/internal/application"
	appai "github.com/bryanwahyu/assessly/internal/application/ai"
	"github.com/bryanwahyu/assessly/internal/application/notify"
	domai "github.com/bryanwahyu/assessly/internal/domain/ai"
	domain "github.com/bryanwahyu/assessly/internal/domain/assessments"
	"github.com/bryanwahyu/assessly/internal/platform/logger"
)

const validModelResponse = `{
	"intro": "Overall your security posture is developing.",
	"categories": [
		{"name": "Detection", "currentScore": 50, "benchmark": 70, "trend": "up", "bestPractices": ["centralize logs"]}
	],
	"outro": "Revisit in six months."
}`

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func intp(v int) *int    { return &v }
func idp(v int64) *int64 { return &v }

func ans(q int64, v int) domain.Answer {
	return domain.Answer{QuestionID: idp(q), Value: intp(v)}
}

func threeQuestions() []domain.Question {
	return []domain.Question{
		{ID: 1, Text: "Do you centralize logs?", Category: "Detection"},
		{ID: 2, Text: "Do you review access quarterly?", Category: "Identity"},
		{ID: 3, Text: "Do you patch within 30 days?", Category: "Hygiene"},
	}
}

func guestAssessment(id domain.AssessmentID) *domain.Assessment {
	return &domain.Assessment{
		ID:        id,
		SurveyID:  7,
		Guest:     &domain.Guest{Name: "Jane", Email: "jane@acme.io", Company: "Acme Corp"},
		Status:    domain.StatusInProgress,
		CreatedAt: fixedNow.Add(-time.Hour),
	}
}

type serviceDeps struct {
	repo     *fakeRepo
	catalog  *fakeCatalog
	users    *fakeDirectory
	ai       *fakeAIClient
	renderer *fakeRenderer
	store    *fakeStore
	sender   *fakeSender
}

func newService(d serviceDeps) *Service {
	log := logger.Nop()
	svc := &Service{
		Repo:      d.repo,
		Catalog:   d.catalog,
		Renderer:  d.renderer,
		Artifacts: d.store,
		Clock:     application.FixedClock{T: fixedNow},
		Log:       log,
	}
	if d.users != nil {
		svc.Users = d.users
	}
	if d.ai != nil {
		svc.AI = appai.NewService(d.ai, time.Second)
	}
	if d.sender != nil {
		svc.Notifier = notify.NewService(d.sender, "https://assessly.test", log)
	}
	return svc
}

func TestCompletePipeline(t *testing.T) {
	deps := serviceDeps{
		repo:     newFakeRepo(guestAssessment(42)),
		catalog:  &fakeCatalog{questions: threeQuestions()},
		ai:       &fakeAIClient{response: validModelResponse},
		renderer: &fakeRenderer{},
		store:    newFakeStore(),
		sender:   &fakeSender{},
	}
	svc := newService(deps)

	res, err := svc.Complete(context.Background(), CompleteCommand{
		ID:      42,
		Answers: []domain.Answer{ans(1, 2), ans(2, -2), ans(3, 0)},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want completed", res.Status)
	}
	if res.Score != 50 {
		t.Fatalf("score = %d, want 50", res.Score)
	}
	if !res.Recommendations {
		t.Fatalf("recommendations flag not set")
	}

	want := "uploads/guest/jane@acme.io/acme-corp-2024-03-15.pdf"
	if res.ArtifactPath != want {
		t.Fatalf("artifact path = %q, want %q", res.ArtifactPath, want)
	}

	row := deps.repo.get(42)
	if row.Status != domain.StatusCompleted || row.Score == nil || *row.Score != 50 {
		t.Fatalf("row not persisted as completed with score 50: %+v", row)
	}
	if row.CompletedOn == nil || !row.CompletedOn.Equal(fixedNow) {
		t.Fatalf("completedOn = %v, want %v", row.CompletedOn, fixedNow)
	}
	if row.Recommendations == nil || row.Recommendations.Doc.Intro == "" {
		t.Fatalf("recommendations not persisted")
	}
	if row.ArtifactPath == nil || *row.ArtifactPath != want {
		t.Fatalf("artifact pointer = %v, want %q", row.ArtifactPath, want)
	}

	msgs := deps.sender.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent %d mails, want 1", len(msgs))
	}
	if msgs[0].To != "jane@acme.io" {
		t.Fatalf("mail to = %q", msgs[0].To)
	}
	if len(msgs[0].Attachments) != 1 {
		t.Fatalf("mail has %d attachments, want 1", len(msgs[0].Attachments))
	}
}

// The best-effort stages run on a detached context: a caller that
// disconnects right after posting must not cancel the model call,
// because recovery never re-calls the model and the document would be
// lost for good.
func TestCompleteSurvivesCallerDisconnect(t *testing.T) {
	deps := serviceDeps{
		repo:     newFakeRepo(guestAssessment(42)),
		catalog:  &fakeCatalog{questions: threeQuestions()},
		ai:       &fakeAIClient{response: validModelResponse},
		renderer: &fakeRenderer{},
		store:    newFakeStore(),
		sender:   &fakeSender{},
	}
	svc := newService(deps)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := svc.Complete(ctx, CompleteCommand{
		ID:      42,
		Answers: []domain.Answer{ans(1, 2), ans(2, -2), ans(3, 0)},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !res.Recommendations {
		t.Fatalf("recommendations lost when caller disconnected")
	}
	if deps.ai.calls.Load() != 1 {
		t.Fatalf("model calls = %d, want 1", deps.ai.calls.Load())
	}
	if deps.store.writeCount() != 1 {
		t.Fatalf("artifact writes = %d, want 1", deps.store.writeCount())
	}
	if n := len(deps.sender.messages()); n != 1 {
		t.Fatalf("sent %d mails, want 1", n)
	}
}

// Owner resolution happens once per completion and the resolved company
// flows into both the rendered header and the artifact filename.
func TestCompleteResolvesOwnerOnce(t *testing.T) {
	uid := int64(77)
	a := &domain.Assessment{
		ID:        42,
		SurveyID:  7,
		UserID:    &uid,
		Status:    domain.StatusInProgress,
		CreatedAt: fixedNow.Add(-time.Hour),
	}
	deps := serviceDeps{
		repo:    newFakeRepo(a),
		catalog: &fakeCatalog{questions: threeQuestions()},
		users: &fakeDirectory{users: map[int64]*domain.User{
			77: {ID: 77, Email: "pat@megacorp.io", Name: "Pat", Company: "MegaCorp"},
		}},
		ai:       &fakeAIClient{response: validModelResponse},
		renderer: &fakeRenderer{},
		store:    newFakeStore(),
		sender:   &fakeSender{},
	}
	svc := newService(deps)

	res, err := svc.Complete(context.Background(), CompleteCommand{
		ID:      42,
		Answers: []domain.Answer{ans(1, 2), ans(2, -2), ans(3, 0)},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got := deps.users.calls.Load(); got != 1 {
		t.Fatalf("directory lookups = %d, want 1", got)
	}
	if got := deps.renderer.company(); got != "MegaCorp" {
		t.Fatalf("rendered company = %q, want MegaCorp", got)
	}
	want := "uploads/77/megacorp-2024-03-15.pdf"
	if res.ArtifactPath != want {
		t.Fatalf("artifact path = %q, want %q", res.ArtifactPath, want)
	}
	msgs := deps.sender.messages()
	if len(msgs) != 1 || msgs[0].To != "pat@megacorp.io" {
		t.Fatalf("mail = %+v, want one to pat@megacorp.io", msgs)
	}
}

func TestCompleteSurvivesModelFailure(t *testing.T) {
	deps := serviceDeps{
		repo:     newFakeRepo(guestAssessment(42)),
		catalog:  &fakeCatalog{questions: threeQuestions()},
		ai:       &fakeAIClient{err: domai.ErrUnavailable},
		renderer: &fakeRenderer{},
		store:    newFakeStore(),
		sender:   &fakeSender{},
	}
	svc := newService(deps)

	res, err := svc.Complete(context.Background(), CompleteCommand{
		ID:      42,
		Answers: []domain.Answer{ans(1, 2), ans(2, -2), ans(3, 0)},
	})
	if err != nil {
		t.Fatalf("Complete should swallow model failure, got %v", err)
	}
	if res.Status != domain.StatusCompleted || res.Score != 50 {
		t.Fatalf("result = %+v, want completed/50", res)
	}
	if res.Recommendations {
		t.Fatalf("recommendations flag set despite model failure")
	}
	if deps.store.writeCount() != 0 {
		t.Fatalf("artifact written without recommendations")
	}
	if n := len(deps.sender.messages()); n != 0 {
		t.Fatalf("sent %d mails, want 0", n)
	}

	row := deps.repo.get(42)
	if row.Status != domain.StatusCompleted || row.Recommendations != nil {
		t.Fatalf("row = %+v, want completed without recommendations", row)
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	done := guestAssessment(42)
	done.Status = domain.StatusCompleted
	done.Score = intp(75)
	completed := fixedNow.Add(-24 * time.Hour)
	done.CompletedOn = &completed

	deps := serviceDeps{
		repo:     newFakeRepo(done),
		catalog:  &fakeCatalog{questions: threeQuestions()},
		ai:       &fakeAIClient{response: validModelResponse},
		renderer: &fakeRenderer{},
		store:    newFakeStore(),
		sender:   &fakeSender{},
	}
	svc := newService(deps)

	res, err := svc.Complete(context.Background(), CompleteCommand{ID: 42, Answers: []domain.Answer{ans(1, 0)}})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Score != 75 {
		t.Fatalf("score = %d, want original 75", res.Score)
	}
	if deps.ai.calls.Load() != 0 {
		t.Fatalf("model called on re-posted completion")
	}
	if deps.renderer.renders.Load() != 0 {
		t.Fatalf("renderer called on re-posted completion")
	}
	if n := len(deps.sender.messages()); n != 0 {
		t.Fatalf("mail re-sent on re-posted completion")
	}
}

func TestCompleteRejectsOutOfRangeAnswer(t *testing.T) {
	svc := newService(serviceDeps{
		repo:     newFakeRepo(guestAssessment(42)),
		catalog:  &fakeCatalog{},
		renderer: &fakeRenderer{},
		store:    newFakeStore(),
	})

	_, err := svc.Complete(context.Background(), CompleteCommand{ID: 42, Answers: []domain.Answer{ans(1, 5)}})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestCreateValidatesOwner(t *testing.T) {
	svc := newService(serviceDeps{
		repo:     newFakeRepo(),
		catalog:  &fakeCatalog{},
		renderer: &fakeRenderer{},
		store:    newFakeStore(),
	})

	_, err := svc.Create(context.Background(), CreateCommand{ID: 1, SurveyID: 7})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError for missing owner", err)
	}

	a, err := svc.Create(context.Background(), CreateCommand{
		ID:       1,
		SurveyID: 7,
		Guest:    &domain.Guest{Email: "jane@acme.io"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Status != domain.StatusDraft {
		t.Fatalf("status = %s, want draft", a.Status)
	}
}

func TestSaveAnswersOnCompletedAssessment(t *testing.T) {
	done := guestAssessment(42)
	done.Status = domain.StatusCompleted

	svc := newService(serviceDeps{
		repo:     newFakeRepo(done),
		catalog:  &fakeCatalog{},
		renderer: &fakeRenderer{},
		store:    newFakeStore(),
	})

	_, err := svc.SaveAnswers(context.Background(), 42, []domain.Answer{ans(1, 1)})
	if !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Fatalf("err = %v, want ErrAlreadyCompleted", err)
	}
}

func TestSaveAnswersMergesAndAdvancesStatus(t *testing.T) {
	a := guestAssessment(42)
	a.Status = domain.StatusDraft
	a.Answers = []domain.Answer{ans(1, 1)}

	repo := newFakeRepo(a)
	svc := newService(serviceDeps{
		repo:     repo,
		catalog:  &fakeCatalog{},
		renderer: &fakeRenderer{},
		store:    newFakeStore(),
	})

	got, err := svc.SaveAnswers(context.Background(), 42, []domain.Answer{ans(1, 2), ans(2, 0)})
	if err != nil {
		t.Fatalf("SaveAnswers: %v", err)
	}
	if got.Status != domain.StatusInProgress {
		t.Fatalf("status = %s, want in_progress", got.Status)
	}
	if len(got.Answers) != 2 {
		t.Fatalf("answers = %d, want 2 after merge", len(got.Answers))
	}
	for _, x := range got.Answers {
		if *x.QuestionID == 1 && *x.Value != 2 {
			t.Fatalf("question 1 value = %d, want last write 2", *x.Value)
		}
	}
}
