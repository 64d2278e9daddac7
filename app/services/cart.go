package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/app/repositories"
)

// CartKey is where the cart lives in the session.
const CartKey = "cart"

// MaxQuantity caps a single cart line.
const MaxQuantity = 99

// SessionStore is the part of a session the cart needs.
type SessionStore interface {
	Get(key string, dest any) (bool, error)
	Set(key string, value any) error
}

// Cart maps a menu item ID (decimal string) to a positive quantity.
type Cart map[string]int

// Units is the number of portions across all lines.
func (c Cart) Units() int {
	n := 0
	for _, q := range c {
		n += q
	}
	return n
}

// ItemIDs returns the parsable keys in ascending order. Garbage keys are skipped.
func (c Cart) ItemIDs() []uint {
	ids := make([]uint, 0, len(c))
	for k := range c {
		id, err := strconv.ParseUint(k, 10, 64)
		if err != nil || id == 0 {
			continue
		}
		ids = append(ids, uint(id))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CheckoutIDs is ItemIDs for checkout: any key that is not a menu item ID
// fails with ErrNotFound instead of being skipped.
func (c Cart) CheckoutIDs() ([]uint, error) {
	for k := range c {
		if id, err := strconv.ParseUint(k, 10, 64); err != nil || id == 0 {
			return nil, fmt.Errorf("%w: cart item %q", ErrNotFound, k)
		}
	}
	return c.ItemIDs(), nil
}

func cartKey(id uint) string { return strconv.FormatUint(uint64(id), 10) }

type CartLine struct {
	Item     models.MenuItem `json:"item"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CartTotals struct {
	Lines []CartLine      `json:"lines"`
	Total decimal.Decimal `json:"total"`
	Units int             `json:"units"`
}

type CartService struct {
	menu *repositories.MenuRepository
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{menu: repositories.NewMenuRepository(db)}
}

// Load returns the session's cart, or an empty one.
func (s *CartService) Load(sess SessionStore) (Cart, error) {
	cart := Cart{}
	if _, err := sess.Get(CartKey, &cart); err != nil {
		return nil, err
	}
	if cart == nil {
		cart = Cart{}
	}
	return cart, nil
}

func (s *CartService) save(sess SessionStore, cart Cart) error {
	return sess.Set(CartKey, cart)
}

func (s *CartService) item(ctx context.Context, id uint) (models.MenuItem, error) {
	item, err := s.menu.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return item, fmt.Errorf("%w: menu item %d", ErrNotFound, id)
	}
	return item, err
}

// Add increments itemID by qty and returns the item and the new unit count.
func (s *CartService) Add(ctx context.Context, sess SessionStore, itemID uint, qty int) (models.MenuItem, int, error) {
	if qty < 1 || qty > MaxQuantity {
		return models.MenuItem{}, 0, fmt.Errorf("%w: quantity must be between 1 and %d", ErrInvalidArgument, MaxQuantity)
	}
	item, err := s.item(ctx, itemID)
	if err != nil {
		return item, 0, err
	}
	cart, err := s.Load(sess)
	if err != nil {
		return item, 0, err
	}
	if cart[cartKey(itemID)] > MaxQuantity-qty {
		return item, 0, fmt.Errorf("%w: at most %d of %s per order", ErrInvalidArgument, MaxQuantity, item.Name)
	}
	cart[cartKey(itemID)] += qty
	if err := s.save(sess, cart); err != nil {
		return item, 0, err
	}
	return item, cart.Units(), nil
}

// SetQuantity overwrites the line. It returns the line subtotal at the live
// price and the new unit count.
func (s *CartService) SetQuantity(ctx context.Context, sess SessionStore, itemID uint, qty int) (decimal.Decimal, int, error) {
	if qty < 1 || qty > MaxQuantity {
		return decimal.Zero, 0, fmt.Errorf("%w: quantity must be between 1 and %d", ErrInvalidArgument, MaxQuantity)
	}
	item, err := s.menu.FindByID(ctx, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, 0, fmt.Errorf("%w: menu item %d does not exist", ErrInvalidArgument, itemID)
	}
	if err != nil {
		return decimal.Zero, 0, err
	}
	cart, err := s.Load(sess)
	if err != nil {
		return decimal.Zero, 0, err
	}
	cart[cartKey(itemID)] = qty
	if err := s.save(sess, cart); err != nil {
		return decimal.Zero, 0, err
	}
	return item.Price.Mul(decimal.NewFromInt(int64(qty))), cart.Units(), nil
}

// Remove drops the line if present and returns the new unit count.
func (s *CartService) Remove(sess SessionStore, itemID uint) (int, error) {
	cart, err := s.Load(sess)
	if err != nil {
		return 0, err
	}
	if _, ok := cart[cartKey(itemID)]; !ok {
		return cart.Units(), nil
	}
	delete(cart, cartKey(itemID))
	return cart.Units(), s.save(sess, cart)
}

func (s *CartService) Clear(sess SessionStore) error {
	return s.save(sess, Cart{})
}

// Totals prices the cart at current catalog prices. Lines whose item has
// been deleted are left out.
func (s *CartService) Totals(ctx context.Context, sess SessionStore) (CartTotals, error) {
	cart, err := s.Load(sess)
	if err != nil {
		return CartTotals{}, err
	}
	ids := cart.ItemIDs()
	items, err := s.menu.FindByIDs(ctx, ids)
	if err != nil {
		return CartTotals{}, err
	}

	out := CartTotals{Lines: []CartLine{}, Total: decimal.Zero}
	for _, id := range ids {
		item, ok := items[id]
		qty := cart[cartKey(id)]
		if !ok || qty < 1 {
			continue
		}
		sub := item.Price.Mul(decimal.NewFromInt(int64(qty)))
		out.Lines = append(out.Lines, CartLine{Item: item, Quantity: qty, Subtotal: sub})
		out.Total = out.Total.Add(sub)
		out.Units += qty
	}
	return out, nil
}
