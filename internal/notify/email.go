package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"sync"
	"text/template"
	"time"
)

// Email is a rendered plain-text message.
type Email struct {
	To      string
	Subject string
	Body    string
}

// EmailSender delivers an email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg Email) error
}

var (
	workOrderSubject = template.Must(template.New("subject").Parse(
		`[{{if .BuildingName}}{{.BuildingName}}{{else}}Building {{.BuildingID}}{{end}}] Scheduled maintenance due: {{.Title}}`))

	workOrderBody = template.Must(template.New("body").Parse(`A work order has been raised from a recurring maintenance schedule.

Work order:     {{.WorkOrderID}}
Task:           {{.Title}}
Category:       {{.Category}}
Due:            {{.DueDate}}
Frequency:      {{.Recurrence}}
Estimated cost: {{printf "%.2f" .EstimatedCost}}
{{if .NextDueDate}}Next occurrence: {{.NextDueDate}}
{{else}}This schedule has no further occurrences.
{{end}}`))
)

// RenderWorkOrderEmail renders the manager notification for event.
func RenderWorkOrderEmail(event WorkOrderEvent) (Email, error) {
	var subject, body bytes.Buffer
	if err := workOrderSubject.Execute(&subject, event); err != nil {
		return Email{}, fmt.Errorf("render subject: %w", err)
	}
	if err := workOrderBody.Execute(&body, event); err != nil {
		return Email{}, fmt.Errorf("render body: %w", err)
	}
	return Email{To: event.Recipient, Subject: subject.String(), Body: body.String()}, nil
}

// SMTPConfig configures SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends mail through an SMTP relay.
type SMTPSender struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender validates cfg and returns a sender.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPSender{cfg: cfg, send: smtp.SendMail}, nil
}

// SendEmail delivers msg. net/smtp has no context support, so ctx is only
// checked before dialing.
func (s *SMTPSender) SendEmail(ctx context.Context, msg Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(msg.To, "\r\n") || strings.ContainsAny(msg.Subject, "\r\n") {
		return errors.New("header values must not contain line breaks")
	}
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	return s.send(addr, auth, s.cfg.From, []string{msg.To}, buildMessage(s.cfg.From, msg))
}

func buildMessage(from string, msg Email) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// MemorySender stores emails in memory for inspection and local development.
type MemorySender struct {
	mu   sync.Mutex
	sent []Email
	Err  error
}

// NewMemorySender constructs an empty memory sender.
func NewMemorySender() *MemorySender {
	return &MemorySender{}
}

// SendEmail records msg, or returns Err when set.
func (m *MemorySender) SendEmail(_ context.Context, msg Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of the emails seen so far.
func (m *MemorySender) Sent() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Email, len(m.sent))
	copy(out, m.sent)
	return out
}
