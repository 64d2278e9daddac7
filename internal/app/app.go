// Package app is the composition root: it opens every backend named in
// config and wires the services, controllers and queue jobs on top of them.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/app/controllers"
	appgraphql "github.com/cherrydine/cherrydine/app/graphql"
	"github.com/cherrydine/cherrydine/app/jobs"
	"github.com/cherrydine/cherrydine/app/routes"
	"github.com/cherrydine/cherrydine/app/services"
	"github.com/cherrydine/cherrydine/config"
	"github.com/cherrydine/cherrydine/pkg/cache"
	"github.com/cherrydine/cherrydine/pkg/database"
	"github.com/cherrydine/cherrydine/pkg/graphql"
	"github.com/cherrydine/cherrydine/pkg/logger"
	"github.com/cherrydine/cherrydine/pkg/mail"
	"github.com/cherrydine/cherrydine/pkg/notification"
	"github.com/cherrydine/cherrydine/pkg/queue"
	"github.com/cherrydine/cherrydine/pkg/storage"
)

// Backends are the already-open resources an Application runs on.
type Backends struct {
	DB     *gorm.DB
	Cache  cache.Store
	Disk   storage.Disk
	Queue  queue.Driver
	Mailer mail.Mailer

	WebhookURL    string
	WebhookClient *http.Client
}

type Application struct {
	DB     *gorm.DB
	Cache  cache.Store
	Disk   storage.Disk
	Queue  *queue.Manager
	Sender *notification.Sender

	Accounts *services.AccountService
	Catalog  *services.CatalogService
	Carts    *services.CartService
	Orders   *services.OrderService
	Reviews  *services.ReviewService

	closers []func() error
}

// Boot loads config and connects the database, cache, disk, queue and
// mailer selected there.
func Boot(ctx context.Context) (*Application, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var closers []func() error
	fail := func(err error) (*Application, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	if uri := config.LogMongoURI(); uri != "" {
		h, err := logger.NewMongoHandler(uri, config.LogMongoDatabase(), "logs")
		if err != nil {
			logger.Warn("logger: mongo sink disabled", "error", err)
		} else {
			logger.Tee(h)
			closers = append(closers, func() error { h.Close(); return nil })
		}
	}

	db, err := database.Connect()
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() error { return database.Close(db) })

	store, err := cache.Connect()
	if err != nil {
		return fail(err)
	}
	if c, ok := store.(io.Closer); ok {
		closers = append(closers, c.Close)
	}

	disk, err := storage.Connect(ctx)
	if err != nil {
		return fail(err)
	}

	driver, err := queue.Connect()
	if err != nil {
		return fail(err)
	}

	a := New(Backends{
		DB:         db,
		Cache:      store,
		Disk:       disk,
		Queue:      driver,
		Mailer:     mail.New(),
		WebhookURL: config.NotifyWebhookURL(),
	})
	a.closers = append(closers, a.closers...)

	logger.Info("app: booted",
		"env", config.AppEnv(),
		"db", config.DatabaseDriver(),
		"cache", config.CacheDriver(),
		"disk", config.StorageDefault(),
		"queue", config.QueueDriver(),
	)
	return a, nil
}

// New wires services over b. Nothing is connected or closed by New itself
// except the queue manager, which owns b.Queue.
func New(b Backends) *Application {
	sender := notification.NewSender(b.Mailer).WithWebhook(b.WebhookURL, b.WebhookClient)

	manager := queue.New(b.Queue, queue.WithFailedStore(b.DB))
	jobs.Register(manager, jobs.NewDeps(b.DB, sender))

	carts := services.NewCartService(b.DB)
	a := &Application{
		DB:     b.DB,
		Cache:  b.Cache,
		Disk:   b.Disk,
		Queue:  manager,
		Sender: sender,

		Accounts: services.NewAccountService(b.DB),
		Catalog:  services.NewCatalogService(b.DB, b.Cache, b.Disk),
		Carts:    carts,
		Orders:   services.NewOrderService(b.DB, carts, jobs.NewQueueNotifier(manager)),
		Reviews:  services.NewReviewService(b.DB),
	}
	a.closers = append(a.closers, manager.Close)
	return a
}

// Controllers builds the HTTP controllers and the GraphQL menu endpoint.
func (a *Application) Controllers() (routes.Controllers, error) {
	schema, err := appgraphql.NewSchema(a.Catalog)
	if err != nil {
		return routes.Controllers{}, fmt.Errorf("graphql: %w", err)
	}
	return routes.Controllers{
		Accounts: controllers.NewAccountController(a.Accounts),
		Menu:     controllers.NewMenuController(a.Catalog),
		Cart:     controllers.NewCartController(a.Carts),
		Orders:   controllers.NewOrderController(a.Orders),
		Reviews:  controllers.NewReviewController(a.Reviews),
		GraphQL:  graphql.Handler(schema),
	}, nil
}

// Close releases backends in reverse order of acquisition.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
