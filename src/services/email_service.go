package services

import (
	"context"
	"fmt"
	"html"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/mediajenny/the-oracle/src/config"
	"github.com/mediajenny/the-oracle/src/logger"
)

// EmailService delivers report share links.
type EmailService interface {
	SendReportShareEmail(ctx context.Context, toEmail, sharedBy, reportName, shareURL string) error
}

func NewEmailService(cfg *config.AppConfig) EmailService {
	if cfg == nil {
		logger.L.Error("Configuration is nil. Email service will default to mock.")
		return &MockEmailService{}
	}

	provider := strings.ToLower(cfg.EmailServiceProvider)
	logger.L.Info("Initializing email service", "provider", provider)

	switch provider {
	case "mailgun":
		if cfg.MailgunDomain == "" || cfg.MailgunPrivateAPIKey == "" || cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or SenderEmail missing). Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		mg := mailgun.NewMailgun(cfg.MailgunDomain, cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", cfg.MailgunDomain)
		return &MailgunEmailService{
			mg:          mg,
			senderEmail: cfg.SenderEmail,
			senderName:  cfg.SenderName,
		}
	case "smtp":
		if cfg.SMTPServer == "" || cfg.SMTPUser == "" || cfg.SMTPPassword == "" || cfg.SenderEmail == "" {
			logger.L.Warn("SMTP configuration incomplete. Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		return &SMTPEmailService{
			SMTPServer:   cfg.SMTPServer,
			SMTPPort:     cfg.SMTPPort,
			SMTPUser:     cfg.SMTPUser,
			SMTPPassword: cfg.SMTPPassword,
			SenderEmail:  cfg.SenderEmail,
		}
	default:
		logger.L.Info("Defaulting to MockEmailService.")
		return &MockEmailService{}
	}
}

func shareSubject(sharedBy, reportName string) string {
	return fmt.Sprintf("%s shared the report \"%s\" with you", sharedBy, reportName)
}

func shareTextBody(sharedBy, reportName, shareURL string) string {
	return fmt.Sprintf(`Hi,

%s shared the line item performance report "%s" with you.
Open it here (sign-in required):
%s

The Oracle`, sharedBy, reportName, shareURL)
}

type SMTPEmailService struct {
	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SenderEmail  string
}

func (s *SMTPEmailService) SendReportShareEmail(ctx context.Context, toEmail, sharedBy, reportName, shareURL string) error {
	header := []string{
		"From: " + s.SenderEmail,
		"To: " + toEmail,
		"Subject: " + shareSubject(sharedBy, reportName),
		"MIME-version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
	}
	message := strings.Join(header, "\r\n") + "\r\n\r\n" + shareTextBody(sharedBy, reportName, shareURL)

	auth := smtp.PlainAuth("", s.SMTPUser, s.SMTPPassword, s.SMTPServer)
	addr := fmt.Sprintf("%s:%d", s.SMTPServer, s.SMTPPort)
	if err := smtp.SendMail(addr, auth, s.SenderEmail, []string{toEmail}, []byte(message)); err != nil {
		logger.FromContext(ctx).Error("Failed to send share email via SMTP", "error", err, "to", toEmail)
		return fmt.Errorf("failed to send share email via SMTP: %w", err)
	}
	logger.FromContext(ctx).Info("Share email sent successfully via SMTP", "to", toEmail)
	return nil
}

type MailgunEmailService struct {
	mg          mailgun.Mailgun
	senderEmail string
	senderName  string
}

func (s *MailgunEmailService) SendReportShareEmail(ctx context.Context, toEmail, sharedBy, reportName, shareURL string) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)

	htmlBody := fmt.Sprintf(`
	<html>
		<body style="font-family: Arial, sans-serif; line-height: 1.6;">
			<p>Hi,</p>
			<p>%s shared the line item performance report <strong>%s</strong> with you.</p>
			<p><a href="%s" target="_blank" style="color: #1a73e8; font-weight: bold;">Open report</a></p>
			<p>If the link above doesn't work, copy this URL into your browser:<br>%s</p>
		</body>
	</html>`, html.EscapeString(sharedBy), html.EscapeString(reportName), shareURL, shareURL)

	message := s.mg.NewMessage(from, shareSubject(sharedBy, reportName), shareTextBody(sharedBy, reportName, shareURL), toEmail)
	message.SetHtml(htmlBody)
	message.AddTag("report-share")

	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to send share email via Mailgun", "error", err, "to", toEmail, "mailgunResp", resp)
		return fmt.Errorf("mailgun send failed: %w. Response: %s", err, resp)
	}
	logger.FromContext(ctx).Info("Share email sent successfully via Mailgun", "to", toEmail, "id", id)
	return nil
}

// MockEmailService only logs. Sent keeps the recipients for tests.
type MockEmailService struct {
	Sent []string
}

func (m *MockEmailService) SendReportShareEmail(ctx context.Context, toEmail, sharedBy, reportName, shareURL string) error {
	m.Sent = append(m.Sent, toEmail)
	logger.FromContext(ctx).Info("MockEmailService: Would send share email.", "to", toEmail, "report", reportName, "shareURL", shareURL)
	return nil
}
