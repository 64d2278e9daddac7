// Package factories creates model rows for tests.
package factories

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/pkg/auth"
)

// Password is the plain password of every factory user.
const Password = "secret123"

var seq atomic.Int64

func next() int64 { return seq.Add(1) }

func User(t *testing.T, db *gorm.DB, role models.Role) models.User {
	t.Helper()
	n := next()
	hash, err := auth.HashPassword(Password)
	require.NoError(t, err)

	u := models.User{
		Username:  fmt.Sprintf("user%d", n),
		Email:     fmt.Sprintf("user%d@example.com", n),
		Password:  hash,
		Role:      role,
		FirstName: "Test",
		LastName:  fmt.Sprintf("User %d", n),
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func Actor(u models.User) models.Actor { return models.Actor{UserID: u.ID, Role: u.Role} }

func MenuItem(t *testing.T, db *gorm.DB, name string, category models.Category, price string) models.MenuItem {
	t.Helper()
	item := models.MenuItem{
		Name:     name,
		Slug:     fmt.Sprintf("%s-%d", slug.Make(name), next()),
		Category: category,
		Price:    decimal.RequireFromString(price),
	}
	require.NoError(t, db.Create(&item).Error)
	return item
}

// Line is one line item of an Order fixture.
type Line struct {
	Item     models.MenuItem
	Quantity int
}

// Order writes an order for user with the given status, bypassing the
// order service.
func Order(t *testing.T, db *gorm.DB, user models.User, status models.OrderStatus, lines ...Line) models.Order {
	t.Helper()
	order := models.Order{
		Code:   fmt.Sprintf("ORD-T%07d", next()),
		UserID: user.ID,
		Status: status,
	}
	total := decimal.Zero
	for _, l := range lines {
		oi := models.OrderItem{MenuItemID: l.Item.ID, Name: l.Item.Name, Price: l.Item.Price, Quantity: l.Quantity}
		order.Items = append(order.Items, oi)
		total = total.Add(oi.Subtotal())
	}
	order.TotalPrice = total
	require.NoError(t, db.Create(&order).Error)
	return order
}
