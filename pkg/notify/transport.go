// Package notify delivers rendered notification messages to their
// recipients. Delivery is asynchronous: the engine publishes a request on the
// bus and the dispatcher here picks it up, so a slow or failing mail server
// never blocks a workflow transition.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Message is one rendered notification ready for delivery.
type Message struct {
	Recipients []string
	Subject    string
	Body       string
}

// Transport delivers a message to every recipient.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPTransport delivers over plain SMTP.
type SMTPTransport struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPTransport creates a transport for the given server address and
// sender. Auth may be nil for open relays.
func NewSMTPTransport(addr, from string, auth smtp.Auth) *SMTPTransport {
	return &SMTPTransport{addr: addr, from: from, auth: auth}
}

var _ Transport = (*SMTPTransport)(nil)

func (t *SMTPTransport) Send(_ context.Context, msg Message) error {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", t.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.Recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)

	err := smtp.SendMail(t.addr, t.auth, t.from, msg.Recipients, []byte(b.String()))
	if err != nil {
		return fmt.Errorf("failed to send mail via %s: %w", t.addr, err)
	}

	return nil
}

// LogTransport writes messages to the logger instead of delivering them. Used
// in development and tests.
type LogTransport struct {
	logger *slog.Logger
}

func NewLogTransport(logger *slog.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

var _ Transport = (*LogTransport)(nil)

func (t *LogTransport) Send(ctx context.Context, msg Message) error {
	t.logger.InfoContext(ctx, "notification delivered",
		"recipients", msg.Recipients,
		"subject", msg.Subject)

	return nil
}
