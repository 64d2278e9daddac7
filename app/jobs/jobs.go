// Package jobs carries order lifecycle events from the request path to the
// queue workers, which render and deliver the customer notifications.
package jobs

import (
	"context"
	"fmt"

	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/app/notifications"
	"github.com/cherrydine/cherrydine/app/repositories"
	"github.com/cherrydine/cherrydine/app/services"
	"github.com/cherrydine/cherrydine/pkg/logger"
	"github.com/cherrydine/cherrydine/pkg/notification"
	"github.com/cherrydine/cherrydine/pkg/queue"
)

const (
	OrderPlacedName     = "order.placed"
	StatusChangedName   = "order.status_changed"
	RecommendationsName = "order.recommendations"
)

// Deps is what the job handlers need at run time. It is injected by the
// factories passed to queue.Manager.Register and never serialized.
type Deps struct {
	Orders          *repositories.OrderRepository
	Sender          *notification.Sender
	Recommendations *services.RecommendationService

	queue *queue.Manager
}

func NewDeps(db *gorm.DB, sender *notification.Sender) *Deps {
	return &Deps{
		Orders:          repositories.NewOrderRepository(db),
		Sender:          sender,
		Recommendations: services.NewRecommendationService(db),
	}
}

// Register wires every job type into m.
func Register(m *queue.Manager, deps *Deps) {
	deps.queue = m
	m.Register(OrderPlacedName, func() queue.Job { return &OrderPlacedJob{deps: deps} })
	m.Register(StatusChangedName, func() queue.Job { return &StatusChangedJob{deps: deps} })
	m.Register(RecommendationsName, func() queue.Job { return &RecommendationsJob{deps: deps} })
}

type OrderPlacedJob struct {
	OrderID uint `json:"order_id"`

	deps *Deps
}

func (j *OrderPlacedJob) JobName() string { return OrderPlacedName }

func (j *OrderPlacedJob) Handle(ctx context.Context) error {
	order, err := j.deps.Orders.FindWithUser(ctx, j.OrderID)
	if err != nil {
		return fmt.Errorf("order placed %d: %w", j.OrderID, err)
	}
	qr, err := qrcode.Encode(order.Code, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("order placed %d: qr: %w", j.OrderID, err)
	}
	return j.deps.Sender.Send(ctx, &notifications.OrderPlaced{Order: order, QR: qr})
}

// StatusChangedJob carries the status the order moved to, so a message sent
// after a later change still describes this one.
type StatusChangedJob struct {
	OrderID uint               `json:"order_id"`
	Status  models.OrderStatus `json:"status"`

	deps *Deps
}

func (j *StatusChangedJob) JobName() string { return StatusChangedName }

func (j *StatusChangedJob) Handle(ctx context.Context) error {
	order, err := j.deps.Orders.FindWithUser(ctx, j.OrderID)
	if err != nil {
		return fmt.Errorf("status changed %d: %w", j.OrderID, err)
	}
	if j.Status != "" {
		order.Status = j.Status
	}
	if err := j.deps.Sender.Send(ctx, &notifications.StatusChanged{Order: order}); err != nil {
		return err
	}
	if order.Status != models.StatusDelivered {
		return nil
	}

	// The status mail is out; a failure from here on must not retry it.
	if err := j.deps.queue.Dispatch(ctx, &RecommendationsJob{OrderID: order.ID}); err != nil {
		logger.Warn("jobs: dispatch recommendations", "order_id", order.ID, "error", err)
	}
	return nil
}

// RecommendationsJob follows a delivered order with dishes worth trying next.
type RecommendationsJob struct {
	OrderID uint `json:"order_id"`

	deps *Deps
}

func (j *RecommendationsJob) JobName() string { return RecommendationsName }

func (j *RecommendationsJob) Handle(ctx context.Context) error {
	order, err := j.deps.Orders.FindWithUser(ctx, j.OrderID)
	if err != nil {
		return fmt.Errorf("recommendations %d: %w", j.OrderID, err)
	}
	items, err := j.deps.Recommendations.ForOrder(ctx, order)
	if err != nil {
		return fmt.Errorf("recommendations %d: %w", j.OrderID, err)
	}
	if len(items) == 0 {
		return nil
	}
	return j.deps.Sender.Send(ctx, &notifications.Recommendations{Order: order, Items: items})
}

// QueueNotifier implements services.Notifier by dispatching jobs.
type QueueNotifier struct {
	queue *queue.Manager
}

func NewQueueNotifier(m *queue.Manager) *QueueNotifier { return &QueueNotifier{queue: m} }

func (n *QueueNotifier) NotifyOrderPlaced(ctx context.Context, order models.Order) error {
	return n.queue.Dispatch(ctx, &OrderPlacedJob{OrderID: order.ID})
}

func (n *QueueNotifier) NotifyStatusChanged(ctx context.Context, order models.Order) error {
	return n.queue.Dispatch(ctx, &StatusChangedJob{OrderID: order.ID, Status: order.Status})
}
