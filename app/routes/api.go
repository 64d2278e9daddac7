// Package routes declares every HTTP endpoint of CherryDine.
package routes

import (
	"net/http"

	"github.com/cherrydine/cherrydine/app/controllers"
	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/pkg/ctx"
	"github.com/cherrydine/cherrydine/pkg/middleware"
	"github.com/cherrydine/cherrydine/pkg/rbac"
	"github.com/cherrydine/cherrydine/pkg/router"
)

// Controllers groups the handlers the routes dispatch to.
type Controllers struct {
	Accounts *controllers.AccountController
	Menu     *controllers.MenuController
	Cart     *controllers.CartController
	Orders   *controllers.OrderController
	Reviews  *controllers.ReviewController
	GraphQL  http.Handler
}

func Register(r *router.Router, c Controllers) {
	w := ctx.Wrap
	admin := rbac.HasRole(string(models.RoleAdmin))

	// accounts
	r.Post("/register", "account.register", w(c.Accounts.Register), rbac.Guest)
	r.Post("/login", "account.login", w(c.Accounts.Login))
	r.Post("/logout", "account.logout", w(c.Accounts.Logout))
	r.Post("/api/token", "account.token", w(c.Accounts.Token))

	// catalog
	r.Get("/menu", "menu.index", w(c.Menu.Index))
	r.Get("/dish/{itemId}", "menu.show", w(c.Menu.Show))
	staff := r.Group("/menu", admin)
	staff.Post("/", "menu.store", w(c.Menu.Store))
	staff.Post("/edit/{itemId}", "menu.update", w(c.Menu.Update))
	staff.Post("/delete/{itemId}", "menu.destroy", w(c.Menu.Destroy))
	staff.Post("/{itemId}/image", "menu.image", w(c.Menu.UploadImage))

	if c.GraphQL != nil {
		r.Get("/graphql", "graphql.query", c.GraphQL.ServeHTTP)
		r.Post("/graphql", "graphql.execute", c.GraphQL.ServeHTTP)
	}

	// everything below needs a logged-in user
	user := r.Group("/", middleware.RequireAuth)

	user.Get("/cart", "cart.show", w(c.Cart.Show))
	user.Post("/cart/add/{itemId}", "cart.add", w(c.Cart.Add))
	user.Post("/cart/update/{itemId}", "cart.update", w(c.Cart.Update))
	user.Post("/cart/remove/{itemId}", "cart.remove", w(c.Cart.Remove))

	user.Post("/create-order", "orders.store", w(c.Orders.Create))
	user.Get("/orders", "orders.index", w(c.Orders.Index))
	user.Get("/orders/{orderId}", "orders.show", w(c.Orders.Show))
	user.Get("/orders/{orderId}/qr", "orders.qr", w(c.Orders.QRCode))
	user.Get("/orders/{orderId}/history", "orders.history", w(c.Orders.History))
	user.Post("/cancel-order/{orderId}", "orders.cancel", w(c.Orders.Cancel))
	user.Post("/orders/{orderId}/status", "orders.status", w(c.Orders.UpdateStatus), admin)
	user.Get("/admin/orders", "admin.orders", w(c.Orders.AdminIndex), admin)

	user.Post("/add-review/{orderId}", "reviews.store", w(c.Reviews.Store))

	user.Get("/profile", "profile.show", w(c.Accounts.Profile))
	user.Post("/profile/edit", "profile.update", w(c.Accounts.UpdateProfile))
}
