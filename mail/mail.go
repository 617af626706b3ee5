// Package mail defines the outbound mail contract and an SMTP
// implementation. The report scheduler and the magic-link login flow both
// dispatch through [Mailer]; tests substitute an in-memory fake.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Message is one outbound email.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPMailer sends messages through an SMTP relay using PLAIN auth.
type SMTPMailer struct {
	host string
	port string
	auth smtp.Auth
}

// NewSMTPMailer creates an SMTPMailer. Username and password may be empty
// for relays that accept unauthenticated mail.
func NewSMTPMailer(host, port, username, password string) *SMTPMailer {
	m := &SMTPMailer{host: host, port: port}
	if username != "" {
		m.auth = smtp.PlainAuth("", username, password, host)
	}
	return m
}

// Send delivers msg. The context is honored before dialing; net/smtp itself
// does not support cancellation mid-session.
func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.host == "" || m.port == "" {
		return fmt.Errorf("mail: smtp relay not configured")
	}

	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	if err := smtp.SendMail(addr, m.auth, msg.From, msg.To, encode(msg)); err != nil {
		return fmt.Errorf("mail: send to %s: %w", strings.Join(msg.To, ","), err)
	}
	return nil
}

func encode(msg *Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}
