package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/app/repositories"
	"github.com/cherrydine/cherrydine/pkg/logger"
	"github.com/cherrydine/cherrydine/pkg/metrics"
	"github.com/cherrydine/cherrydine/pkg/orm"
)

// Notifier hands lifecycle events to the notification workers. It must not
// block on delivery; an error only means the hand-off failed.
type Notifier interface {
	NotifyOrderPlaced(ctx context.Context, order models.Order) error
	NotifyStatusChanged(ctx context.Context, order models.Order) error
}

type OrderService struct {
	db       *gorm.DB
	orders   *repositories.OrderRepository
	menu     *repositories.MenuRepository
	cart     *CartService
	notifier Notifier
	now      func() time.Time
}

func NewOrderService(db *gorm.DB, cart *CartService, notifier Notifier) *OrderService {
	return &OrderService{
		db:       db,
		orders:   repositories.NewOrderRepository(db),
		menu:     repositories.NewMenuRepository(db),
		cart:     cart,
		notifier: notifier,
		now:      time.Now,
	}
}

// NewOrderCode returns a public code such as ORD-3F9A0C1B.
func NewOrderCode() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Create turns the session cart into an order. The order and all of its line
// items are written in one transaction; the cart is emptied only after that
// commits. Notification failures are logged and never fail the call.
func (s *OrderService) Create(ctx context.Context, actor models.Actor, sess SessionStore) (models.Order, error) {
	if actor.Anonymous() {
		return models.Order{}, fmt.Errorf("%w: login required", ErrForbidden)
	}
	cart, err := s.cart.Load(sess)
	if err != nil {
		return models.Order{}, err
	}
	if len(cart) == 0 || cart.Units() == 0 {
		return models.Order{}, ErrEmptyCart
	}
	ids, err := cart.CheckoutIDs()
	if err != nil {
		return models.Order{}, err
	}

	var order models.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items, err := s.menu.WithTx(tx).FindByIDs(ctx, ids)
		if err != nil {
			return err
		}

		lines := make([]models.OrderItem, 0, len(ids))
		total := decimal.Zero
		for _, id := range ids {
			item, ok := items[id]
			if !ok {
				return fmt.Errorf("%w: menu item %d is no longer available", ErrNotFound, id)
			}
			qty := cart[cartKey(id)]
			if qty < 1 {
				return fmt.Errorf("%w: quantity for item %d", ErrInvalidArgument, id)
			}
			line := models.OrderItem{MenuItemID: id, Name: item.Name, Price: item.Price, Quantity: qty}
			total = total.Add(line.Subtotal())
			lines = append(lines, line)
		}

		order = models.Order{
			Code:       NewOrderCode(),
			UserID:     actor.UserID,
			Status:     models.StatusProcessing,
			TotalPrice: total,
			Items:      lines,
		}
		orders := s.orders.WithTx(tx)
		if err := orders.Create(ctx, &order); err != nil {
			return err
		}
		return tx.Create(&models.OrderStatusLog{
			OrderID:   order.ID,
			To:        models.StatusProcessing,
			ChangedBy: actor.UserID,
		}).Error
	})
	if err != nil {
		return models.Order{}, err
	}

	log := logger.WithCtx(ctx).With("order_id", order.ID, "code", order.Code)
	if err := s.cart.Clear(sess); err != nil {
		log.Error("order: clear cart failed", "error", err)
	}
	metrics.OrdersPlaced.Inc()
	log.Info("order: placed", "user_id", actor.UserID, "total", order.TotalPrice.StringFixed(2))

	if err := s.notifier.NotifyOrderPlaced(ctx, order); err != nil {
		log.Warn("order: placed notification not dispatched", "error", err)
	}
	return order, nil
}

// UpdateStatus is the admin transition. Setting the current status again is a
// successful no-op and sends nothing.
func (s *OrderService) UpdateStatus(ctx context.Context, actor models.Actor, orderID uint, status string) (models.Order, error) {
	if !actor.Role.CanUpdateOrderStatus() {
		return models.Order{}, fmt.Errorf("%w: only staff may change order status", ErrForbidden)
	}
	to, ok := models.ParseAssignableStatus(status)
	if !ok {
		return models.Order{}, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, status)
	}

	var (
		order   models.Order
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		var err error
		order, err = orders.FindByID(ctx, orderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		if err != nil {
			return err
		}
		if order.Status == models.StatusCancelled {
			return fmt.Errorf("%w: order %s is cancelled", ErrInvalidState, order.Code)
		}
		if order.Status == to {
			return nil
		}
		changed = true
		return s.setStatus(ctx, orders, &order, to, actor.UserID, nil)
	})
	if err != nil || !changed {
		return order, err
	}

	s.afterStatusChange(ctx, order)
	return order, nil
}

// Cancel lets the owner withdraw an order the kitchen has not started on.
// The order is kept with status cancelled. Admins move orders through
// UpdateStatus instead.
func (s *OrderService) Cancel(ctx context.Context, actor models.Actor, orderID uint) (models.Order, error) {
	if !actor.Role.CanCancelOrders() {
		return models.Order{}, fmt.Errorf("%w: admins cannot cancel orders", ErrForbidden)
	}
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		var err error
		order, err = orders.FindOwned(ctx, orderID, actor.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		if err != nil {
			return err
		}
		if order.Status != models.StatusProcessing {
			return fmt.Errorf("%w: order %s is %s and can no longer be cancelled", ErrInvalidState, order.Code, order.Status)
		}
		now := s.now().UTC()
		if err := s.setStatus(ctx, orders, &order, models.StatusCancelled, actor.UserID, map[string]any{"cancelled_at": now}); err != nil {
			return err
		}
		order.CancelledAt = &now
		return nil
	})
	if err != nil {
		return order, err
	}

	s.afterStatusChange(ctx, order)
	return order, nil
}

func (s *OrderService) setStatus(ctx context.Context, orders *repositories.OrderRepository, order *models.Order, to models.OrderStatus, by uint, extra map[string]any) error {
	err := orders.SetStatus(ctx, order, to, by, extra)
	if errors.Is(err, repositories.ErrStatusChanged) {
		return fmt.Errorf("%w: order %s was updated by someone else", ErrInvalidState, order.Code)
	}
	return err
}

func (s *OrderService) afterStatusChange(ctx context.Context, order models.Order) {
	metrics.OrderStatusChanges.WithLabelValues(string(order.Status)).Inc()
	log := logger.WithCtx(ctx).With("order_id", order.ID, "code", order.Code)
	log.Info("order: status changed", "status", order.Status)

	if err := s.notifier.NotifyStatusChanged(ctx, order); err != nil {
		log.Warn("order: status notification not dispatched", "error", err)
	}
}

// Get returns an order with its line items. Guests only see their own.
func (s *OrderService) Get(ctx context.Context, actor models.Actor, orderID uint) (models.Order, error) {
	var (
		order models.Order
		err   error
	)
	if actor.Role.CanViewAllOrders() {
		order, err = s.orders.FindByID(ctx, orderID)
	} else {
		order, err = s.orders.FindOwned(ctx, orderID, actor.UserID)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return order, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	return order, err
}

// ListMine pages the caller's orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, actor models.Actor, page, perPage int) ([]models.Order, orm.Pagination, error) {
	return s.orders.ListByUser(ctx, actor.UserID, page, perPage)
}

// ListAll is the staff view over every order.
func (s *OrderService) ListAll(ctx context.Context, actor models.Actor, status string, page, perPage int) ([]models.Order, orm.Pagination, error) {
	if !actor.Role.CanViewAllOrders() {
		return nil, orm.Pagination{}, ErrForbidden
	}
	var filter models.OrderStatus
	if status != "" {
		filter = models.OrderStatus(status)
		if _, ok := models.ParseAssignableStatus(status); !ok && filter != models.StatusCancelled {
			return nil, orm.Pagination{}, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, status)
		}
	}
	return s.orders.ListAll(ctx, filter, page, perPage)
}

func (s *OrderService) History(ctx context.Context, actor models.Actor, orderID uint) ([]models.OrderStatusLog, error) {
	if _, err := s.Get(ctx, actor, orderID); err != nil {
		return nil, err
	}
	return s.orders.StatusHistory(ctx, orderID)
}

// QRCode renders a PNG with the order's public code for pickup at the counter.
func (s *OrderService) QRCode(ctx context.Context, actor models.Actor, orderID uint, size int) ([]byte, error) {
	order, err := s.Get(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if size < 64 || size > 1024 {
		size = 256
	}
	png, err := qrcode.Encode(order.Code, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("order: qr for %s: %w", order.Code, err)
	}
	return png, nil
}

// CountOpen feeds the open-orders gauge.
func (s *OrderService) CountOpen(ctx context.Context) (int64, error) {
	return s.orders.CountOpen(ctx)
}
