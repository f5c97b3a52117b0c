package mail

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/begari-sampath/crm-backend/internal/infra/queue"
)

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
	}
}

var reminderTemplate = template.Must(template.New("reminder").Parse(`
<p>Hi {{.AgentName}},</p>
{{if .Urgent}}
<p><strong>Urgent follow-up reminder!</strong> Your follow-up with {{.LeadName}} is due in less than 10 minutes ({{.DueAt}}).</p>
{{else}}
<p>You have a follow-up with {{.LeadName}} in the next hour ({{.DueAt}}).</p>
{{end}}
<p>— CRM reminders</p>
`))

// SendReminder satisfies queue.ReminderSender.
func (s *EmailSender) SendReminder(ctx context.Context, payload queue.ReminderPayload) error {
	data := ReminderEmailData{
		AgentName: payload.AgentName,
		LeadName:  payload.LeadName,
		DueAt:     payload.DueAt.Format(time.Kitchen),
		Urgent:    payload.Class == "urgent",
	}

	var body bytes.Buffer
	if err := reminderTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render reminder email: %w", err)
	}

	subject := fmt.Sprintf("Follow-up reminder: %s", payload.LeadName)
	if data.Urgent {
		subject = fmt.Sprintf("Urgent follow-up: %s is due in 10 minutes", payload.LeadName)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", payload.AgentEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send reminder email: %w", err)
	}

	return nil
}
