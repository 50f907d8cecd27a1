package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/mailersend/mailersend-go"
	"github.com/resend/resend-go/v2"

	"susu-app-go/internal/config"
)

var ErrNoProviders = errors.New("no email providers configured")

type Email struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// Provider sends one email and returns the provider's message id.
type Provider interface {
	Name() string
	Send(ctx context.Context, email Email) (string, error)
}

type ResendProvider struct {
	client *resend.Client
	from   string
}

func NewResendProvider(apiKey, fromEmail, fromName string) *ResendProvider {
	return &ResendProvider{
		client: resend.NewClient(apiKey),
		from:   fmt.Sprintf("%s <%s>", fromName, fromEmail),
	}
}

func (p *ResendProvider) Name() string { return "resend" }

func (p *ResendProvider) Send(ctx context.Context, email Email) (string, error) {
	res, err := p.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    p.from,
		To:      []string{email.To},
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
	})
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	return res.Id, nil
}

type MailerSendProvider struct {
	client *mailersend.Mailersend
	from   mailersend.From
}

func NewMailerSendProvider(apiKey, fromEmail, fromName string) *MailerSendProvider {
	return &MailerSendProvider{
		client: mailersend.NewMailersend(apiKey),
		from:   mailersend.From{Name: fromName, Email: fromEmail},
	}
}

func (p *MailerSendProvider) Name() string { return "mailersend" }

func (p *MailerSendProvider) Send(ctx context.Context, email Email) (string, error) {
	message := p.client.Email.NewMessage()
	message.SetFrom(p.from)
	message.SetRecipients([]mailersend.Recipient{{Name: email.ToName, Email: email.To}})
	message.SetSubject(email.Subject)
	message.SetHTML(email.HTML)
	message.SetText(email.Text)

	res, err := p.client.Email.Send(ctx, message)
	if err != nil {
		return "", fmt.Errorf("mailersend: %w", err)
	}
	return res.Header.Get("X-Message-Id"), nil
}

// ProvidersFromConfig returns the configured providers in fallback order:
// resend first, then mailersend.
func ProvidersFromConfig(cfg config.EmailConfig) []Provider {
	var providers []Provider
	if cfg.ResendAPIKey != "" {
		providers = append(providers, NewResendProvider(cfg.ResendAPIKey, cfg.FromEmail, cfg.FromName))
	}
	if cfg.MailerSendAPIKey != "" {
		providers = append(providers, NewMailerSendProvider(cfg.MailerSendAPIKey, cfg.FromEmail, cfg.FromName))
	}
	return providers
}
