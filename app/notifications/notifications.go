// Package notifications holds the customer-facing messages sent from the
// queue workers.
package notifications

import (
	"embed"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/pkg/mail"
	"github.com/cherrydine/cherrydine/pkg/notification"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}).ParseFS(templateFS, "templates/*.html"))

const qrName = "order-qr.png"

func displayName(u *models.User) string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Username
}

func email(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Email
}

// OrderPlaced confirms a new order with its line items and a pickup QR.
// Order.User and Order.Items must be loaded.
type OrderPlaced struct {
	Order models.Order
	QR    []byte
}

func (n *OrderPlaced) Kind() string  { return "order.placed" }
func (n *OrderPlaced) Via() []string { return []string{notification.ChannelMail} }

func (n *OrderPlaced) ToMail() *mail.Message {
	msg := mail.To(email(n.Order.User)).
		Subject("Order " + n.Order.Code + " confirmed").
		Template(templates.Lookup("order_placed.html"), map[string]any{
			"Name":   displayName(n.Order.User),
			"Order":  n.Order,
			"QRName": qrName,
		})
	if len(n.QR) > 0 {
		msg.Embed(qrName, n.QR)
	}
	return msg
}

// StatusChanged tells the owner where the order is, and posts the change to
// the kitchen webhook when one is configured.
type StatusChanged struct {
	Order models.Order
}

func (n *StatusChanged) Kind() string { return "order.status" }
func (n *StatusChanged) Via() []string {
	return []string{notification.ChannelMail, notification.ChannelWebhook}
}

func (n *StatusChanged) ToMail() *mail.Message {
	return mail.To(email(n.Order.User)).
		Subject("Order " + n.Order.Code + " is " + string(n.Order.Status)).
		Template(templates.Lookup("status_changed.html"), map[string]any{
			"Name":  displayName(n.Order.User),
			"Order": n.Order,
			"Label": string(n.Order.Status),
		})
}

func (n *StatusChanged) ToWebhook() notification.WebhookData {
	return notification.WebhookData{Payload: map[string]any{
		"event":   "order.status_changed",
		"order":   n.Order.ID,
		"code":    n.Order.Code,
		"status":  n.Order.Status,
		"user_id": n.Order.UserID,
	}}
}

// Recommendations follows a delivered order with dishes to try next.
type Recommendations struct {
	Order models.Order
	Items []models.MenuItem
}

func (n *Recommendations) Kind() string  { return "order.recommendations" }
func (n *Recommendations) Via() []string { return []string{notification.ChannelMail} }

func (n *Recommendations) ToMail() *mail.Message {
	return mail.To(email(n.Order.User)).
		Subject("Recommendations based on your order " + n.Order.Code).
		Template(templates.Lookup("recommendations.html"), map[string]any{
			"Name":  displayName(n.Order.User),
			"Order": n.Order,
			"Items": n.Items,
		})
}
