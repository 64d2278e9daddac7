// Package notification fans a notification out to its channels.
//
//	type StatusChanged struct{ ... }
//	func (n *StatusChanged) Kind() string    { return "order.status" }
//	func (n *StatusChanged) Via() []string   { return []string{"mail", "webhook"} }
//	func (n *StatusChanged) ToMail() *mail.Message { ... }
//	func (n *StatusChanged) ToWebhook() WebhookData { ... }
//
//	err := sender.Send(ctx, &StatusChanged{...})
package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cherrydine/cherrydine/config"
	httpclient "github.com/cherrydine/cherrydine/pkg/http"
	"github.com/cherrydine/cherrydine/pkg/logger"
	"github.com/cherrydine/cherrydine/pkg/mail"
	"github.com/cherrydine/cherrydine/pkg/metrics"
)

const (
	ChannelMail    = "mail"
	ChannelWebhook = "webhook"
)

type Notification interface {
	// Kind labels the notification in logs and metrics.
	Kind() string
	Via() []string
}

type Mailable interface {
	ToMail() *mail.Message
}

// WebhookData is POSTed as JSON. An empty URL uses NOTIFY_WEBHOOK_URL.
type WebhookData struct {
	URL     string
	Payload any
	Headers map[string]string
}

type Webhookable interface {
	ToWebhook() WebhookData
}

type Sender struct {
	mailer          mail.Mailer
	webhookURL      string
	webhookAttempts int
	client          *httpclient.Client
}

func NewSender(mailer mail.Mailer) *Sender {
	return &Sender{
		mailer:          mailer,
		webhookURL:      config.NotifyWebhookURL(),
		webhookAttempts: 3,
		client:          httpclient.New(nil),
	}
}

// WithWebhook overrides the default webhook target. A nil client keeps the
// pooled default.
func (s *Sender) WithWebhook(url string, client *http.Client) *Sender {
	s.webhookURL = url
	if client != nil {
		s.client = httpclient.New(client)
	}
	return s
}

// Send delivers n through every channel it lists. Each channel is attempted
// even if an earlier one failed; the failures are joined.
func (s *Sender) Send(ctx context.Context, n Notification) error {
	var errs []error
	for _, channel := range n.Via() {
		if err := s.deliver(ctx, channel, n); err != nil {
			logger.WithCtx(ctx).Error("notification: channel failed",
				"kind", n.Kind(), "channel", channel, "error", err)
			errs = append(errs, err)
		}
	}

	result := "sent"
	if len(errs) > 0 {
		result = "failed"
	}
	metrics.Notifications.WithLabelValues(n.Kind(), result).Inc()
	return errors.Join(errs...)
}

func (s *Sender) deliver(ctx context.Context, channel string, n Notification) error {
	switch channel {
	case ChannelMail:
		m, ok := n.(Mailable)
		if !ok {
			return fmt.Errorf("notification: %T is not Mailable", n)
		}
		if s.mailer == nil {
			return fmt.Errorf("notification: no mailer configured")
		}
		return s.mailer.Send(ctx, m.ToMail())

	case ChannelWebhook:
		w, ok := n.(Webhookable)
		if !ok {
			return fmt.Errorf("notification: %T is not Webhookable", n)
		}
		data := w.ToWebhook()
		if data.URL == "" {
			data.URL = s.webhookURL
		}
		if data.URL == "" {
			// No endpoint configured; the channel is optional.
			return nil
		}
		return s.postJSON(ctx, data)

	default:
		return fmt.Errorf("notification: unknown channel %q", channel)
	}
}

func (s *Sender) postJSON(ctx context.Context, data WebhookData) error {
	res, err := s.client.Post(data.URL).
		Headers(data.Headers).
		Body(data.Payload).
		Retry(s.webhookAttempts, 200*time.Millisecond).
		Send(ctx)
	if err != nil {
		return fmt.Errorf("notification: webhook: %w", err)
	}
	if !res.OK() {
		return fmt.Errorf("notification: webhook returned %d", res.StatusCode)
	}
	return nil
}
