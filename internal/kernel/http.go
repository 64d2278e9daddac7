// Package kernel builds the HTTP handler: global middleware, the operational
// endpoints and the application routes.
package kernel

import (
	"net/http"
	"time"

	"github.com/cherrydine/cherrydine/app/routes"
	"github.com/cherrydine/cherrydine/config"
	"github.com/cherrydine/cherrydine/internal/app"
	"github.com/cherrydine/cherrydine/pkg/metrics"
	"github.com/cherrydine/cherrydine/pkg/middleware"
	"github.com/cherrydine/cherrydine/pkg/reqid"
	"github.com/cherrydine/cherrydine/pkg/router"
	"github.com/cherrydine/cherrydine/pkg/session"
	"github.com/cherrydine/cherrydine/pkg/storage"
)

type HTTPKernel struct {
	router *router.Router
}

func NewHTTPKernel(a *app.Application) (*HTTPKernel, error) {
	c, err := a.Controllers()
	if err != nil {
		return nil, err
	}

	r := router.New()

	// Outermost first: metrics sees total latency, recovery wraps everything
	// that can panic, and the request ID exists before anything logs.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(session.Middleware(a.Cache, session.DefaultOptions()))
	r.Use(middleware.CORS(middleware.DefaultCORSOptions()))
	r.Use(middleware.RateLimit(config.RateLimit(), time.Minute))
	r.Use(middleware.Authenticate(a.Accounts.LoadPrincipal))

	r.Handle("/metrics", metrics.Handler())
	if local, ok := a.Disk.(*storage.LocalDisk); ok {
		r.Handle("/storage/*", http.StripPrefix("/storage/", http.FileServer(http.Dir(local.Root))))
	}

	routes.Register(r, c)
	return &HTTPKernel{router: r}, nil
}

func (k *HTTPKernel) Handler() http.Handler { return k.router.Handler() }

// Router exposes the route table for route:list.
func (k *HTTPKernel) Router() *router.Router { return k.router }
