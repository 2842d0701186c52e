package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/assessly/internal/domain/assessments"
	dommail "github.com/bryanwahyu/assessly/internal/domain/mail"
	"github.com/bryanwahyu/assessly/internal/middleware"
	"github.com/bryanwahyu/assessly/internal/platform/logger"
)

var completionTmpl = template.Must(template.New("completion").Parse(`<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Your assessment is ready</h2>
  <p>Hi {{.Name}},</p>
  <p>Thanks for completing the maturity assessment{{if .Company}} for <strong>{{.Company}}</strong>{{end}}.
  Your overall score is <strong>{{.Score}} / 100</strong>.</p>
  <p><a href="{{.DownloadURL}}">Download your full report (PDF)</a></p>
  <p>The report is also attached to this email.</p>
  <p>Regards,<br>The Assessly team</p>
</body>
</html>`))

// Service renders and sends the completion email. Best effort: every
// failure is logged and the pipeline moves on.
type Service struct {
	Sender  dommail.Sender
	BaseURL string
	Log     *logger.Logger
}

func NewService(sender dommail.Sender, baseURL string, log *logger.Logger) *Service {
	return &Service{Sender: sender, BaseURL: strings.TrimRight(baseURL, "/"), Log: log}
}

// SendCompletion mails the owner a download link plus the rendered PDF
// when bytes are available.
func (s *Service) SendCompletion(ctx context.Context, a *domain.Assessment, user *domain.User, pdf []byte) error {
	if s.Sender == nil {
		s.Log.Debug("mail sender not configured, skipping notification", "id", a.ID)
		return nil
	}
	to := a.OwnerEmail(user)
	if to == "" {
		s.Log.Warn("no owner email, skipping notification", "id", a.ID)
		return nil
	}

	score := 0
	if a.Score != nil {
		score = *a.Score
	}
	data := struct {
		Name        string
		Company     string
		Score       int
		DownloadURL string
	}{
		Name:        ownerName(a, user),
		Company:     a.CompanyName(user),
		Score:       score,
		DownloadURL: fmt.Sprintf("%s/v1/assessments/%d/report", s.BaseURL, a.ID),
	}

	var body bytes.Buffer
	if err := completionTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render completion mail: %w", err)
	}

	msg := dommail.Message{
		To:      to,
		Subject: "Your maturity assessment report",
		HTML:    body.String(),
	}
	if len(pdf) > 0 {
		msg.Attachments = []dommail.Attachment{{Name: "assessment-report.pdf", Bytes: pdf}}
	}

	msgID := uuid.New().String()
	if err := s.Sender.Send(ctx, msg); err != nil {
		middleware.IncrementEmailsFailed()
		return fmt.Errorf("deliver completion mail (msg %s): %w", msgID, err)
	}
	middleware.IncrementEmailsSent()
	s.Log.Info("completion mail sent", "id", a.ID, "to", to, "msg_id", msgID)
	return nil
}

func ownerName(a *domain.Assessment, user *domain.User) string {
	if user != nil && user.Name != "" {
		return user.Name
	}
	if a.Guest != nil && a.Guest.Name != "" {
		return a.Guest.Name
	}
	return "there"
}
