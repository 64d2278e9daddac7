package notification_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cherrydine/cherrydine/pkg/mail"
	"github.com/cherrydine/cherrydine/pkg/metrics"
	"github.com/cherrydine/cherrydine/pkg/notification"
)

type orderReady struct {
	code string
	via  []string
}

func (n *orderReady) Kind() string  { return "test.ready" }
func (n *orderReady) Via() []string { return n.via }

func (n *orderReady) ToMail() *mail.Message {
	return mail.To("ada@example.com").Subject("Order " + n.code + " is ready").Text("come get it")
}

func (n *orderReady) ToWebhook() notification.WebhookData {
	return notification.WebhookData{Payload: map[string]string{"code": n.code, "status": "ready"}}
}

func TestSendMailAndWebhook(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	mailer := mail.NewLog()
	s := notification.NewSender(mailer).WithWebhook(srv.URL, srv.Client())
	before := testutil.ToFloat64(metrics.Notifications.WithLabelValues("test.ready", "sent"))

	err := s.Send(context.Background(), &orderReady{code: "ORD-AAAA0001", via: []string{"mail", "webhook"}})
	require.NoError(t, err)

	require.Len(t, mailer.Sent(), 1)
	assert.Equal(t, "Order ORD-AAAA0001 is ready", mailer.Sent()[0].GetSubject())
	assert.Equal(t, map[string]string{"code": "ORD-AAAA0001", "status": "ready"}, got)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.Notifications.WithLabelValues("test.ready", "sent")))
}

func TestWebhookWithoutURLIsSkipped(t *testing.T) {
	s := notification.NewSender(mail.NewLog()).WithWebhook("", nil)
	assert.NoError(t, s.Send(context.Background(), &orderReady{code: "x", via: []string{"webhook"}}))
}

func TestFailingChannelDoesNotStopOthers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	mailer := mail.NewLog()
	s := notification.NewSender(mailer).WithWebhook(srv.URL, srv.Client())

	err := s.Send(context.Background(), &orderReady{code: "x", via: []string{"webhook", "mail"}})
	assert.ErrorContains(t, err, "webhook returned 502")
	assert.Len(t, mailer.Sent(), 1)
}

func TestUnknownChannel(t *testing.T) {
	s := notification.NewSender(mail.NewLog())
	err := s.Send(context.Background(), &orderReady{via: []string{"pager"}})
	assert.ErrorContains(t, err, `unknown channel "pager"`)
}
