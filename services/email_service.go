package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/arenahub/event-system/config"
)

// InviteMailer sends invite registration links. Dispatch failures are
// non-fatal to invite issuance: the caller keeps the invite and may retry or
// share the link manually.
type InviteMailer interface {
	SendAthleteInviteEmail(toEmail, teamName, eventName, inviteLink string) error
	SendManagerInviteEmail(toEmail, inviteLink string) error
}

// EmailService delivers transactional mail over SMTP.
type EmailService struct {
	cfg *config.Config
}

var _ InviteMailer = (*EmailService)(nil)

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsconfig := &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Direct TLS connection (port 465)
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("TLS connection failed: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
	} else {
		// STARTTLS (port 587)
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("SMTP connection failed: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("STARTTLS command failed: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO failed: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close DATA: %w", err)
	}

	return nil
}

func (s *EmailService) GenerateEmailBody(templatePath string, data interface{}) (string, error) {
	t, err := template.ParseFiles(templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", templatePath, err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templatePath, err)
	}
	return body.String(), nil
}

// SendAthleteInviteEmail mirrors the convite-atleta sender: the invited
// athlete receives a tokenized registration link bound to a team.
func (s *EmailService) SendAthleteInviteEmail(toEmail, teamName, eventName, inviteLink string) error {
	subject := fmt.Sprintf("Convite para a equipe %s", teamName)
	data := struct {
		TeamName   string
		EventName  string
		InviteLink string
	}{
		TeamName:   teamName,
		EventName:  eventName,
		InviteLink: inviteLink,
	}
	htmlBody, err := s.GenerateEmailBody("templates/emails/athlete_invite_email.html", data)
	if err != nil {
		return fmt.Errorf("failed to render athlete invite email: %w", err)
	}
	return s.SendEmail([]string{toEmail}, subject, htmlBody)
}

// SendManagerInviteEmail mirrors the convite-gestor sender: the invited
// manager receives a tokenized registration link with no team binding.
func (s *EmailService) SendManagerInviteEmail(toEmail, inviteLink string) error {
	subject := "Convite para gerenciar equipes"
	data := struct {
		InviteLink string
	}{
		InviteLink: inviteLink,
	}
	htmlBody, err := s.GenerateEmailBody("templates/emails/manager_invite_email.html", data)
	if err != nil {
		return fmt.Errorf("failed to render manager invite email: %w", err)
	}
	return s.SendEmail([]string{toEmail}, subject, htmlBody)
}
