package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Sender delivers operational notifications. Services hold this
// interface so tests can capture messages instead of dialing SMTP.
type Sender interface {
	SendUrgentPrayerAssigned(ctx context.Context, to, assigneeName, requestText string) error
	SendUserInvitation(ctx context.Context, to, name, tempPassword, orgName string) error
	SendBackgroundCheckFlagged(ctx context.Context, to, volunteerName string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpSender struct {
	cfg Config
}

func NewSender(cfg Config) Sender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) send(m *gomail.Message) error {
	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *smtpSender) SendUrgentPrayerAssigned(ctx context.Context, to, assigneeName, requestText string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Urgent prayer request assigned to you")

	body := fmt.Sprintf("Hello %s,\n\nAn urgent prayer request has been assigned to you:\n\n%s\n\nPlease follow up as soon as you are able.", assigneeName, requestText)
	m.SetBody("text/plain", body)

	return s.send(m)
}

func (s *smtpSender) SendUserInvitation(ctx context.Context, to, name, tempPassword, orgName string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Your %s account", orgName))

	body := fmt.Sprintf("Hello %s,\n\nAn account has been created for you at %s.\n\nTemporary password: %s\n\nPlease sign in and change it.", name, orgName, tempPassword)
	m.SetBody("text/plain", body)

	return s.send(m)
}

func (s *smtpSender) SendBackgroundCheckFlagged(ctx context.Context, to, volunteerName string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Background check flagged")

	body := fmt.Sprintf("The background check for volunteer %s has been flagged and needs administrator review.", volunteerName)
	m.SetBody("text/plain", body)

	return s.send(m)
}
