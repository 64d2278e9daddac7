package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/pkg/orm"
)

// ErrStatusChanged means another request moved the order first.
var ErrStatusChanged = errors.New("order status changed concurrently")

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository { return &OrderRepository{db: tx} }

// Create inserts the order and its line items.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads the order with its line items and review.
func (r *OrderRepository) FindByID(ctx context.Context, id uint) (models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Review").
		First(&o, id).Error
	return o, err
}

// FindOwned is FindByID restricted to userID's orders.
func (r *OrderRepository) FindOwned(ctx context.Context, id, userID uint) (models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Review").
		Where("user_id = ?", userID).
		First(&o, id).Error
	return o, err
}

// FindWithUser loads everything a notification needs.
func (r *OrderRepository) FindWithUser(ctx context.Context, id uint) (models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("User").
		First(&o, id).Error
	return o, err
}

// ListByUser pages userID's orders, newest first. Line items are not loaded.
func (r *OrderRepository) ListByUser(ctx context.Context, userID uint, page, perPage int) ([]models.Order, orm.Pagination, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC")
	var out []models.Order
	p, err := orm.Paginate(q, page, perPage, &out)
	return out, p, err
}

// ListAll pages every order, optionally narrowed to one status.
func (r *OrderRepository) ListAll(ctx context.Context, status models.OrderStatus, page, perPage int) ([]models.Order, orm.Pagination, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).Order("created_at DESC, id DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.Order
	p, err := orm.Paginate(q, page, perPage, &out)
	return out, p, err
}

// SetStatus moves order from its current status to to, writes any extra
// columns and appends the audit row. The update only matches while the row
// still has order.Status. Call it inside a transaction.
func (r *OrderRepository) SetStatus(ctx context.Context, order *models.Order, to models.OrderStatus, by uint, extra map[string]any) error {
	from := order.Status
	cols := map[string]any{"status": to}
	for k, v := range extra {
		cols[k] = v
	}
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, from).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusChanged
	}
	order.Status = to
	return r.db.WithContext(ctx).Create(&models.OrderStatusLog{
		OrderID:   order.ID,
		From:      from,
		To:        to,
		ChangedBy: by,
	}).Error
}

func (r *OrderRepository) StatusHistory(ctx context.Context, orderID uint) ([]models.OrderStatusLog, error) {
	var out []models.OrderStatusLog
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&out).Error
	return out, err
}

// OrderedMenuItemIDs lists every menu item userID has ever ordered.
func (r *OrderRepository) OrderedMenuItemIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).
		Distinct("order_items.menu_item_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ?", userID).
		Pluck("order_items.menu_item_id", &ids).Error
	return ids, err
}

// CountOpen counts orders the kitchen has not finished.
func (r *OrderRepository) CountOpen(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("status IN ?", []models.OrderStatus{models.StatusProcessing, models.StatusReady}).
		Count(&n).Error
	return n, err
}
