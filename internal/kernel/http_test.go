package kernel_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/database/factories"
	"github.com/cherrydine/cherrydine/database/migrations"
	"github.com/cherrydine/cherrydine/internal/app"
	"github.com/cherrydine/cherrydine/internal/kernel"
	"github.com/cherrydine/cherrydine/pkg/cache"
	"github.com/cherrydine/cherrydine/pkg/mail"
	"github.com/cherrydine/cherrydine/pkg/queue"
	"github.com/cherrydine/cherrydine/pkg/storage"
	"github.com/cherrydine/cherrydine/pkg/testkit"
)

type stack struct {
	db      *gorm.DB
	jobs    *queue.MemoryDriver
	handler http.Handler
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db := testkit.DB(t, migrations.All()...)
	disk, err := storage.NewLocal(t.TempDir(), "http://localhost/storage")
	require.NoError(t, err)
	jobs := queue.NewMemoryDriver()

	a := app.New(app.Backends{
		DB:     db,
		Cache:  cache.NewMemory(),
		Disk:   disk,
		Queue:  jobs,
		Mailer: mail.NewLog(),
	})
	t.Cleanup(func() { _ = a.Close() })

	k, err := kernel.NewHTTPKernel(a)
	require.NoError(t, err)
	return &stack{db: db, jobs: jobs, handler: k.Handler()}
}

func (s *stack) login(t *testing.T, u models.User) *testkit.Client {
	t.Helper()
	c := testkit.NewClient(s.handler)
	res := c.Post(t, "/login", map[string]string{"login": u.Username, "password": factories.Password})
	require.Equal(t, http.StatusOK, res.Code, "%s", res.Body)
	return c
}

func data(t *testing.T, res *testkit.Response) map[string]any {
	t.Helper()
	body := res.Map(t)
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "no data object in %s", res.Body)
	return d
}

func TestRegisterAddToCartAndCheckout(t *testing.T) {
	s := newStack(t)
	soup := factories.MenuItem(t, s.db, "Tomato Soup", models.CategoryStarters, "120.00")
	curry := factories.MenuItem(t, s.db, "Paneer Curry", models.CategoryMain, "410.00")

	c := testkit.NewClient(s.handler)
	res := c.Post(t, "/register", map[string]string{
		"username": "asha",
		"email":    "asha@example.com",
		"password": "longenough",
	})
	require.Equal(t, http.StatusCreated, res.Code, "%s", res.Body)
	assert.Equal(t, "guest", data(t, res)["role"])

	res = c.Post(t, fmt.Sprintf("/cart/add/%d", soup.ID), map[string]int{"quantity": 2})
	require.Equal(t, http.StatusOK, res.Code, "%s", res.Body)
	assert.Equal(t, map[string]any{
		"success":    true,
		"message":    "Tomato Soup added to cart",
		"cart_total": float64(2),
	}, res.Map(t))

	res = c.Post(t, fmt.Sprintf("/cart/add/%d", curry.ID), nil)
	require.Equal(t, http.StatusOK, res.Code, "%s", res.Body)
	assert.Equal(t, float64(3), res.Map(t)["cart_total"])

	res = c.Get(t, "/cart")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(650), data(t, res)["total"])

	res = c.Post(t, "/create-order", nil)
	require.Equal(t, http.StatusCreated, res.Code, "%s", res.Body)
	order := data(t, res)
	assert.Equal(t, float64(650), order["total_price"])
	assert.Equal(t, "processing", order["status"])
	assert.Len(t, order["items"], 2)
	assert.Equal(t, 1, s.jobs.Len(), "order placed notification is queued, not sent inline")

	res = c.Get(t, "/cart")
	assert.Equal(t, float64(0), data(t, res)["units"])

	res = c.Get(t, "/orders")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, data(t, res)["items"], 1)
}

func TestCartUpdateReturnsSubtotal(t *testing.T) {
	s := newStack(t)
	user := factories.User(t, s.db, models.RoleGuest)
	soup := factories.MenuItem(t, s.db, "Soup", models.CategoryStarters, "120.00")
	c := s.login(t, user)

	c.Post(t, fmt.Sprintf("/cart/add/%d", soup.ID), nil)
	res := c.Post(t, fmt.Sprintf("/cart/update/%d", soup.ID), map[string]int{"quantity": 3})
	require.Equal(t, http.StatusOK, res.Code, "%s", res.Body)
	body := res.Map(t)
	assert.Equal(t, float64(360), body["subtotal"])
	assert.Equal(t, float64(3), body["cart_total"])

	res = c.Post(t, fmt.Sprintf("/cart/remove/%d", soup.ID), nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(0), res.Map(t)["cart_total"])
}

func TestErrorStatuses(t *testing.T) {
	s := newStack(t)
	guest := factories.User(t, s.db, models.RoleGuest)
	soup := factories.MenuItem(t, s.db, "Soup", models.CategoryStarters, "120.00")
	placed := factories.Order(t, s.db, guest, models.StatusProcessing, factories.Line{Item: soup, Quantity: 1})
	c := s.login(t, guest)

	cases := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"malformed json", fmt.Sprintf("/cart/update/%d", soup.ID), "{", http.StatusBadRequest},
		{"zero quantity", fmt.Sprintf("/cart/update/%d", soup.ID), map[string]int{"quantity": 0}, http.StatusUnprocessableEntity},
		{"quantity over limit", fmt.Sprintf("/cart/add/%d", soup.ID), map[string]int{"quantity": 100}, http.StatusUnprocessableEntity},
		{"unknown dish", "/cart/add/9999", nil, http.StatusNotFound},
		{"non numeric id", "/cart/add/abc", nil, http.StatusNotFound},
		{"empty cart", "/create-order", nil, http.StatusBadRequest},
		{"guest sets status", fmt.Sprintf("/orders/%d/status", placed.ID), map[string]string{"status": "ready"}, http.StatusForbidden},
		{"guest edits menu", fmt.Sprintf("/menu/edit/%d", soup.ID), map[string]string{"name": "x"}, http.StatusForbidden},
		{"review before delivery", fmt.Sprintf("/add-review/%d", placed.ID), map[string]int{"rating": 5}, http.StatusConflict},
		{"already logged in", "/register", map[string]string{"username": "zed"}, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := c.Post(t, tc.path, tc.body)
			assert.Equal(t, tc.status, res.Code, "%s", res.Body)
		})
	}
}

func TestAnonymousCallersAreUnauthorized(t *testing.T) {
	s := newStack(t)
	c := testkit.NewClient(s.handler)

	assert.Equal(t, http.StatusUnauthorized, c.Get(t, "/cart").Code)
	assert.Equal(t, http.StatusUnauthorized, c.Post(t, "/create-order", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, c.Get(t, "/profile").Code)
	assert.Equal(t, http.StatusOK, c.Get(t, "/menu").Code)
}

func TestAdminStatusUpdate(t *testing.T) {
	s := newStack(t)
	admin := factories.User(t, s.db, models.RoleAdmin)
	guest := factories.User(t, s.db, models.RoleGuest)
	soup := factories.MenuItem(t, s.db, "Soup", models.CategoryStarters, "120.00")
	order := factories.Order(t, s.db, guest, models.StatusProcessing, factories.Line{Item: soup, Quantity: 1})
	c := s.login(t, admin)

	path := fmt.Sprintf("/orders/%d/status", order.ID)
	res := c.Post(t, path, map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code, "%s", res.Body)

	res = c.Post(t, path, map[string]string{"status": "ready"})
	require.Equal(t, http.StatusOK, res.Code, "%s", res.Body)
	assert.Equal(t, "ready", data(t, res)["status"])
	assert.Equal(t, 1, s.jobs.Len())

	res = c.Get(t, "/admin/orders?status=ready")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, data(t, res)["items"], 1)
}

func TestReviewOncePerOrder(t *testing.T) {
	s := newStack(t)
	guest := factories.User(t, s.db, models.RoleGuest)
	soup := factories.MenuItem(t, s.db, "Soup", models.CategoryStarters, "120.00")
	order := factories.Order(t, s.db, guest, models.StatusDelivered, factories.Line{Item: soup, Quantity: 1})
	c := s.login(t, guest)

	path := fmt.Sprintf("/add-review/%d", order.ID)
	res := c.Post(t, path, map[string]any{"rating": 4, "comment": "Hot and quick"})
	require.Equal(t, http.StatusCreated, res.Code, "%s", res.Body)

	res = c.Post(t, path, map[string]any{"rating": 5})
	assert.Equal(t, http.StatusConflict, res.Code, "%s", res.Body)
}

func TestCancelOrder(t *testing.T) {
	s := newStack(t)
	guest := factories.User(t, s.db, models.RoleGuest)
	soup := factories.MenuItem(t, s.db, "Soup", models.CategoryStarters, "120.00")
	order := factories.Order(t, s.db, guest, models.StatusProcessing, factories.Line{Item: soup, Quantity: 1})
	c := s.login(t, guest)

	res := c.Post(t, fmt.Sprintf("/cancel-order/%d", order.ID), nil)
	require.Equal(t, http.StatusOK, res.Code, "%s", res.Body)
	assert.Equal(t, "cancelled", data(t, res)["status"])

	res = c.Get(t, fmt.Sprintf("/orders/%d", order.ID))
	require.Equal(t, http.StatusOK, res.Code, "cancelled orders stay visible")

	res = c.Post(t, fmt.Sprintf("/cancel-order/%d", order.ID), nil)
	assert.Equal(t, http.StatusConflict, res.Code)
}

func TestLogoutEndsSession(t *testing.T) {
	s := newStack(t)
	guest := factories.User(t, s.db, models.RoleGuest)
	c := s.login(t, guest)

	require.Equal(t, http.StatusOK, c.Get(t, "/profile").Code)
	require.Equal(t, http.StatusOK, c.Post(t, "/logout", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, c.Get(t, "/profile").Code)
}

func TestBearerToken(t *testing.T) {
	s := newStack(t)
	guest := factories.User(t, s.db, models.RoleGuest)

	res := testkit.NewClient(s.handler).Post(t, "/api/token", map[string]string{
		"login":    guest.Email,
		"password": factories.Password,
	})
	require.Equal(t, http.StatusOK, res.Code, "%s", res.Body)
	token, _ := data(t, res)["token"].(string)
	require.NotEmpty(t, token)

	res = testkit.NewClient(s.handler).WithToken(token).Get(t, "/profile")
	require.Equal(t, http.StatusOK, res.Code, "%s", res.Body)
	assert.Equal(t, guest.Username, data(t, res)["username"])
}

func TestQRCodeEndpoint(t *testing.T) {
	s := newStack(t)
	guest := factories.User(t, s.db, models.RoleGuest)
	order := factories.Order(t, s.db, guest, models.StatusProcessing)
	c := s.login(t, guest)

	res := c.Get(t, fmt.Sprintf("/orders/%d/qr", order.ID))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "image/png", res.Header.Get("Content-Type"))
	assert.Equal(t, []byte("\x89PNG"), res.Body[:4])
}

func TestOperationalEndpoints(t *testing.T) {
	s := newStack(t)
	factories.MenuItem(t, s.db, "Gulab Jamun", models.CategoryDessert, "90.00")
	c := testkit.NewClient(s.handler)

	res := c.Get(t, "/metrics")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, string(res.Body), "cherrydine_")

	res = c.Post(t, "/graphql", map[string]string{"query": "{ menu(category: dessert) { total items { name price } } }"})
	require.Equal(t, http.StatusOK, res.Code, "%s", res.Body)
	assert.Contains(t, string(res.Body), "Gulab Jamun")
	assert.Contains(t, string(res.Body), `"90.00"`)

	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))
}
