package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusProcessing OrderStatus = "processing"
	StatusReady      OrderStatus = "ready"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// ParseAssignableStatus accepts the statuses an admin may set directly.
// Cancelled is reachable only through cancellation by the owner.
func ParseAssignableStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case StatusProcessing, StatusReady, StatusDelivered:
		return OrderStatus(s), true
	}
	return "", false
}

// Open reports whether the kitchen still has work for the order.
func (s OrderStatus) Open() bool { return s == StatusProcessing || s == StatusReady }

type Order struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Code        string          `gorm:"size:20;not null;uniqueIndex" json:"code"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	User        *User           `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Status      OrderStatus     `gorm:"size:16;not null;default:processing;index" json:"status"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	Items       []OrderItem     `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Review      *Review         `json:"review,omitempty"`
	CancelledAt *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// OrderItem snapshots the name and price at checkout so later catalog edits
// and deletions do not change past orders.
type OrderItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OrderID    uint            `gorm:"not null;index" json:"order_id"`
	MenuItemID uint            `gorm:"not null;index" json:"menu_item_id"`
	Name       string          `gorm:"size:100;not null" json:"name"`
	Price      decimal.Decimal `gorm:"type:decimal(8,2);not null" json:"price"`
	Quantity   int             `gorm:"not null;check:quantity >= 1" json:"quantity"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderStatusLog is the audit trail of status changes.
type OrderStatusLog struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"not null;index" json:"order_id"`
	From      OrderStatus `gorm:"column:from_status;size:16" json:"from"`
	To        OrderStatus `gorm:"column:to_status;size:16;not null" json:"to"`
	ChangedBy uint        `gorm:"not null" json:"changed_by"`
	CreatedAt time.Time   `json:"created_at"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;uniqueIndex" json:"order_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Rating    int       `gorm:"not null;check:rating BETWEEN 1 AND 5" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}
