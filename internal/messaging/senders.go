package messaging

import "context"

// SMSSender delivers a text message and returns the provider message id.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

type Email struct {
	ToName   string
	ToEmail  string
	Subject  string
	TextBody string
	HTMLBody string
}

// EmailSender delivers an email and returns the provider message id.
type EmailSender interface {
	SendEmail(ctx context.Context, e Email) (string, error)
}

// Alerter posts an operational alert to the owner's chat channel.
type Alerter interface {
	Alert(ctx context.Context, message string) error
}
