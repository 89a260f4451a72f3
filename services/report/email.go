package report

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	Recipients   []string `json:"recipients"`
}

// Mailer sends the rendered report files to the configured officers.
type Mailer struct {
	config SmtpConfig
}

func NewMailer(config SmtpConfig) *Mailer {
	return &Mailer{config: config}
}

// compose builds the report message with every rendered file attached.
func (m *Mailer) compose(model Model, outputs []Output) (*email.Email, error) {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Club Report <%s>", m.config.EmailAddress)
	mail.To = m.config.Recipients
	mail.Subject = fmt.Sprintf("%s club report, %s",
		model.ClubName, model.GeneratedAt.Format("January 2, 2006"))

	body := fmt.Sprintf(`Attached is the latest progress report for %s.

Paid members: %d
Active members: %d
Completed pathways: %d`,
		model.ClubName,
		model.Stats.TotalMembers,
		model.Stats.ActiveMembers,
		model.Stats.CompletedPathwaysTotal,
	)
	if model.Stats.IncompleteMembers > 0 {
		body += fmt.Sprintf("\n\nNote: data for %d member(s) could not be fully collected.",
			model.Stats.IncompleteMembers)
	}
	mail.Text = []byte(body)

	for _, output := range outputs {
		_, err := mail.AttachFile(output.Path)
		if err != nil {
			return nil, fmt.Errorf("attach %s: %w", output.Path, err)
		}
	}
	return mail, nil
}

func (m *Mailer) Send(ctx context.Context, model Model, outputs []Output) error {
	_, span := tracer.Start(ctx, "mailer:Send")
	defer span.End()

	mail, err := m.compose(model, outputs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to compose report email")
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.config.Server, m.config.Port)
	err = mail.Send(
		addr,
		smtp.PlainAuth("", m.config.EmailAddress, m.config.Password, m.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
