// Package mail builds outgoing email and hands it to a Mailer.
//
//	msg := mail.To(user.Email).
//	    Subject("Order ORD-1A2B3C4D received").
//	    Template(tmpl, data).
//	    Embed("qr.png", png)
//	err := mailer.Send(ctx, msg)
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"

	"gopkg.in/gomail.v2"

	"github.com/cherrydine/cherrydine/config"
	"github.com/cherrydine/cherrydine/pkg/logger"
)

// ─── Message ──────────────────────────────────────────────────────────────────

type Part struct {
	Name        string
	ContentType string
	Data        []byte
	Inline      bool
}

// Message is a fluent builder. Errors from Template are kept and returned by Send.
type Message struct {
	to       []string
	subject  string
	html     string
	text     string
	parts    []Part
	buildErr error
}

func To(addresses ...string) *Message { return &Message{to: addresses} }

func (m *Message) Subject(s string) *Message { m.subject = s; return m }

func (m *Message) HTML(body string) *Message { m.html = body; return m }

func (m *Message) Text(body string) *Message { m.text = body; return m }

// Template executes tmpl with data and uses the output as the HTML body.
func (m *Message) Template(tmpl *template.Template, data any) *Message {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		m.buildErr = fmt.Errorf("mail: render %s: %w", tmpl.Name(), err)
		return m
	}
	m.html = buf.String()
	return m
}

// Embed adds an inline image, referenced from HTML as cid:<name>.
func (m *Message) Embed(name string, png []byte) *Message {
	m.parts = append(m.parts, Part{Name: name, ContentType: "image/png", Data: png, Inline: true})
	return m
}

func (m *Message) Attach(name, contentType string, data []byte) *Message {
	m.parts = append(m.parts, Part{Name: name, ContentType: contentType, Data: data})
	return m
}

func (m *Message) Recipients() []string { return m.to }
func (m *Message) GetSubject() string   { return m.subject }
func (m *Message) GetHTML() string      { return m.html }
func (m *Message) Parts() []Part        { return m.parts }

func (m *Message) validate() error {
	if m.buildErr != nil {
		return m.buildErr
	}
	if len(m.to) == 0 {
		return fmt.Errorf("mail: no recipients")
	}
	if m.subject == "" {
		return fmt.Errorf("mail: empty subject")
	}
	return nil
}

// ─── Mailers ──────────────────────────────────────────────────────────────────

type Mailer interface {
	Send(ctx context.Context, m *Message) error
}

// New returns the mailer selected by MAIL_DRIVER.
func New() Mailer {
	switch config.MailDriver() {
	case "smtp":
		return NewSMTP(config.MailHost(), config.MailPort(), config.MailUsername(),
			config.MailPassword(), config.MailFrom(), config.MailFromName())
	default:
		return NewLog()
	}
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTP(host string, port int, username, password, from, fromName string) *SMTPMailer {
	d := gomail.NewDialer(host, port, username, password)
	addr := from
	if fromName != "" {
		addr = fmt.Sprintf("%s <%s>", fromName, from)
	}
	return &SMTPMailer{dialer: d, from: addr}
}

func (s *SMTPMailer) Send(ctx context.Context, m *Message) error {
	if err := m.validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := s.build(m)
	if err := s.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("mail: send to %s: %w", strings.Join(m.to, ","), err)
	}
	logger.WithCtx(ctx).Info("mail: sent", "to", m.to, "subject", m.subject)
	return nil
}

func (s *SMTPMailer) build(m *Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("From", s.from)
	gm.SetHeader("To", m.to...)
	gm.SetHeader("Subject", m.subject)

	switch {
	case m.html != "" && m.text != "":
		gm.SetBody("text/plain", m.text)
		gm.AddAlternative("text/html", m.html)
	case m.html != "":
		gm.SetBody("text/html", m.html)
	default:
		gm.SetBody("text/plain", m.text)
	}

	for _, p := range m.parts {
		data := p.Data
		copyFn := gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		})
		if p.Inline {
			gm.Embed(p.Name, copyFn, gomail.SetHeader(map[string][]string{
				"Content-Type": {p.ContentType},
				"Content-ID":   {"<" + p.Name + ">"},
			}))
			continue
		}
		gm.Attach(p.Name, copyFn, gomail.SetHeader(map[string][]string{
			"Content-Type": {p.ContentType},
		}))
	}
	return gm
}

// LogMailer writes messages to the log and keeps them in memory. It is the
// development default and what tests assert against.
type LogMailer struct {
	mu   sync.Mutex
	sent []*Message
}

func NewLog() *LogMailer { return &LogMailer{} }

func (l *LogMailer) Send(ctx context.Context, m *Message) error {
	if err := m.validate(); err != nil {
		return err
	}
	l.mu.Lock()
	l.sent = append(l.sent, m)
	l.mu.Unlock()

	logger.WithCtx(ctx).Info("mail: logged", "to", m.to, "subject", m.subject, "parts", len(m.parts))
	return nil
}

// Sent returns a copy of everything sent so far.
func (l *LogMailer) Sent() []*Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Message, len(l.sent))
	copy(out, l.sent)
	return out
}
