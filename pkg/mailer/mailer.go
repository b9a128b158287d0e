// Package mailer delivers plain notification emails.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// ErrNoRecipient is returned for messages without a To address.
var ErrNoRecipient = errors.New("mailer: message has no recipient")

// Message is a single outbound email.
type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	Text      string
	HTML      string
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Sender identifies the From header.
type Sender struct {
	Name    string
	Address string
}

// ConsoleMailer writes messages to the log instead of sending them.
type ConsoleMailer struct {
	logger zerolog.Logger
}

// NewConsoleMailer builds a mailer for development.
func NewConsoleMailer(logger zerolog.Logger) *ConsoleMailer {
	return &ConsoleMailer{logger: logger.With().Str("component", "console_mailer").Logger()}
}

func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	if strings.TrimSpace(msg.ToAddress) == "" {
		return ErrNoRecipient
	}
	m.logger.Info().
		Str("to", msg.ToAddress).
		Str("subject", msg.Subject).
		Msg(msg.Text)
	return nil
}

// SendGridMailer delivers through the SendGrid v3 API.
type SendGridMailer struct {
	client        *sendgrid.Client
	from          *sgmail.Email
	subjectPrefix string
}

// NewSendGridMailer builds a mailer authenticated with apiKey.
func NewSendGridMailer(apiKey string, from Sender, subjectPrefix string) *SendGridMailer {
	return &SendGridMailer{
		client:        sendgrid.NewSendClient(apiKey),
		from:          sgmail.NewEmail(from.Name, from.Address),
		subjectPrefix: subjectPrefix,
	}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.ToAddress) == "" {
		return ErrNoRecipient
	}

	to := sgmail.NewEmail(msg.ToName, msg.ToAddress)
	html := msg.HTML
	if html == "" {
		html = "<p>" + strings.ReplaceAll(msg.Text, "\n", "<br>") + "</p>"
	}
	payload := sgmail.NewSingleEmail(m.from, m.subjectPrefix+msg.Subject, to, msg.Text, html)

	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := m.client.Send(payload)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
