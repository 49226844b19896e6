package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v2"

	"github.com/debtflow/debtflow-api/internal/config"
	"github.com/debtflow/debtflow-api/internal/models"
	"github.com/debtflow/debtflow-api/pkg/logger"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

type EmailService struct {
	config       *config.Config
	resendClient *resend.Client
}

func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		config:       cfg,
		resendClient: client,
	}
}

// SendPaymentLink emails the hosted checkout link to the debtor
func (s *EmailService) SendPaymentLink(ctx context.Context, email, name, caseRef string, payment *models.Payment) error {
	if s.config.ResendAPIKey == "" {
		logger.Warn("[Email] RESEND_API_KEY not configured, skipping payment link email")
		return nil
	}

	url := ""
	if payment.PaymentLinkURL != nil {
		url = *payment.PaymentLinkURL
	}

	data := struct {
		Name    string
		CaseRef string
		Amount  string
		LinkURL string
		AppURL  string
	}{
		Name:    name,
		CaseRef: caseRef,
		Amount:  payment.Amount.StringFixed(2),
		LinkURL: url,
		AppURL:  s.config.AppURL,
	}

	body, err := s.renderTemplate("payment_link.html", data)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{email},
		Subject: fmt.Sprintf("Payment link for case %s", caseRef),
		Html:    body,
	}
	_, err = s.resendClient.Emails.Send(params)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to send payment link email to %s: %v", email, err))
		return err
	}

	logger.Info(fmt.Sprintf("[Email Sent] To: %s | Case: %s | Amount: %s", email, caseRef, data.Amount))
	return nil
}

// SendPaymentReceived confirms a cleared payment to the debtor
func (s *EmailService) SendPaymentReceived(ctx context.Context, email, name, caseRef, amount, balance string) error {
	if s.config.ResendAPIKey == "" {
		logger.Warn("[Email] RESEND_API_KEY not configured, skipping receipt email")
		return nil
	}

	data := struct {
		Name    string
		CaseRef string
		Amount  string
		Balance string
		AppURL  string
	}{
		Name:    name,
		CaseRef: caseRef,
		Amount:  amount,
		Balance: balance,
		AppURL:  s.config.AppURL,
	}

	body, err := s.renderTemplate("payment_received.html", data)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{email},
		Subject: fmt.Sprintf("Payment received for case %s", caseRef),
		Html:    body,
	}
	_, err = s.resendClient.Emails.Send(params)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to send receipt email to %s: %v", email, err))
		return err
	}

	logger.Info(fmt.Sprintf("[Email Sent] To: %s | Case: %s | Receipt for %s", email, caseRef, amount))
	return nil
}

func (s *EmailService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
