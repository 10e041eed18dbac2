package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/Dosada05/voting-system/config"
	"github.com/Dosada05/voting-system/models"
)

type EmailService struct {
	cfg *config.Config
}

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
		ServerName: s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Прямое TLS-соединение (обычно порт 465)
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("ошибка TLS соединения: %w", err)
		}
		defer conn.Close()
		c, err := smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("ошибка создания SMTP клиента: %w", err)
		}
		client = c
	} else {
		// STARTTLS (обычно порт 587)
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("ошибка соединения SMTP: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("ошибка команды STARTTLS: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("ошибка аутентификации SMTP: %w", err)
	}

	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("ошибка MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("ошибка RCPT TO: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("ошибка команды DATA: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("ошибка записи сообщения: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия DATA: %w", err)
	}

	return nil
}

var candidacyDecisionTemplate = template.Must(template.New("candidacy_decision").Parse(`
<p>Bonjour {{.FirstName}},</p>
{{if .Approved}}
<p>Votre candidature a été <b>approuvée</b>. Elle apparaîtra sur le bulletin de vote.</p>
{{else}}
<p>Votre candidature a été <b>rejetée</b>.</p>
<p>Motif : {{.Reason}}</p>
{{end}}
<p>— VoteSecure</p>
`))

// SendCandidacyDecision уведомляет кандидата о решении по его заявке.
func (s *EmailService) SendCandidacyDecision(user *models.User, candidate *models.Candidate) error {
	approved := candidate.Status == models.CandidateApproved

	subject := "Votre candidature a été approuvée"
	if !approved {
		subject = "Votre candidature a été rejetée"
	}

	reason := ""
	if candidate.RejectionReason != nil {
		reason = *candidate.RejectionReason
	}

	var body bytes.Buffer
	err := candidacyDecisionTemplate.Execute(&body, struct {
		FirstName string
		Approved  bool
		Reason    string
	}{
		FirstName: user.FirstName,
		Approved:  approved,
		Reason:    reason,
	})
	if err != nil {
		return fmt.Errorf("ошибка выполнения шаблона письма: %w", err)
	}

	return s.SendEmail([]string{user.Email}, subject, body.String())
}
