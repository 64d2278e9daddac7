package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/cherrydine/cherrydine/app/services"
	"github.com/cherrydine/cherrydine/pkg/ctx"
)

type CartController struct {
	carts *services.CartService
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{carts: carts}
}

type quantityInput struct {
	Quantity int `json:"quantity" validate:"min=1,max=99"`
}

// cartResponse is the body the cart widgets poll. CartTotal is the unit count.
type cartResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	CartTotal *int         `json:"cart_total,omitempty"`
	Subtotal  *json.Number `json:"subtotal,omitempty"`
}

func (cc *CartController) Show(c *ctx.Context) {
	totals, err := cc.carts.Totals(c.Context(), c.Session())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success("", totals)
}

// Add puts quantity (default 1) of the item in the cart.
func (cc *CartController) Add(c *ctx.Context) {
	id, ok := idParam(c, "itemId")
	if !ok {
		return
	}
	in := quantityInput{Quantity: 1}
	if !c.BindOptionalJSON(&in) {
		return
	}
	item, units, err := cc.carts.Add(c.Context(), c.Session(), id, in.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse{
		Success:   true,
		Message:   item.Name + " added to cart",
		CartTotal: &units,
	})
}

func (cc *CartController) Update(c *ctx.Context) {
	id, ok := idParam(c, "itemId")
	if !ok {
		return
	}
	var in quantityInput
	if !c.BindJSON(&in) {
		return
	}
	sub, units, err := cc.carts.SetQuantity(c.Context(), c.Session(), id, in.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	subtotal := json.Number(sub.StringFixed(2))
	c.JSON(http.StatusOK, cartResponse{
		Success:   true,
		Message:   "Cart updated",
		CartTotal: &units,
		Subtotal:  &subtotal,
	})
}

func (cc *CartController) Remove(c *ctx.Context) {
	id, ok := idParam(c, "itemId")
	if !ok {
		return
	}
	units, err := cc.carts.Remove(c.Session(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse{
		Success:   true,
		Message:   "Item removed from cart",
		CartTotal: &units,
	})
}
