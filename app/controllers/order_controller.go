package controllers

import (
	"net/http"

	"github.com/cherrydine/cherrydine/app/services"
	"github.com/cherrydine/cherrydine/pkg/ctx"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// Create checks out the session cart.
func (o *OrderController) Create(c *ctx.Context) {
	order, err := o.orders.Create(c.Context(), actor(c), c.Session())
	if err != nil {
		fail(c, err)
		return
	}
	c.Created("Order placed", order)
}

func (o *OrderController) Index(c *ctx.Context) {
	orders, page, err := o.orders.ListMine(c.Context(), actor(c), c.QueryInt("page", 1), c.QueryInt("per_page", 0))
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated(orders, page)
}

// AdminIndex lists every order, optionally ?status=ready.
func (o *OrderController) AdminIndex(c *ctx.Context) {
	orders, page, err := o.orders.ListAll(c.Context(), actor(c), c.Query("status"),
		c.QueryInt("page", 1), c.QueryInt("per_page", 0))
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated(orders, page)
}

func (o *OrderController) Show(c *ctx.Context) {
	id, ok := idParam(c, "orderId")
	if !ok {
		return
	}
	order, err := o.orders.Get(c.Context(), actor(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success("", order)
}

func (o *OrderController) History(c *ctx.Context) {
	id, ok := idParam(c, "orderId")
	if !ok {
		return
	}
	logs, err := o.orders.History(c.Context(), actor(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success("", logs)
}

func (o *OrderController) QRCode(c *ctx.Context) {
	id, ok := idParam(c, "orderId")
	if !ok {
		return
	}
	png, err := o.orders.QRCode(c.Context(), actor(c), id, c.QueryInt("size", 256))
	if err != nil {
		fail(c, err)
		return
	}
	c.W.Header().Set("Cache-Control", "private, max-age=3600")
	c.Bytes(http.StatusOK, "image/png", png)
}

func (o *OrderController) Cancel(c *ctx.Context) {
	id, ok := idParam(c, "orderId")
	if !ok {
		return
	}
	order, err := o.orders.Cancel(c.Context(), actor(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success("Order cancelled", order)
}

type statusInput struct {
	Status string `json:"status" validate:"required"`
}

func (o *OrderController) UpdateStatus(c *ctx.Context) {
	id, ok := idParam(c, "orderId")
	if !ok {
		return
	}
	var in statusInput
	if !c.BindJSON(&in) {
		return
	}
	order, err := o.orders.UpdateStatus(c.Context(), actor(c), id, in.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success("Order status is "+string(order.Status), order)
}
