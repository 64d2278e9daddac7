package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cherrydine/cherrydine/internal/app"
	"github.com/cherrydine/cherrydine/internal/kernel"
	"github.com/cherrydine/cherrydine/internal/server"
	"github.com/cherrydine/cherrydine/pkg/cache"
	"github.com/cherrydine/cherrydine/pkg/mail"
	"github.com/cherrydine/cherrydine/pkg/queue"
)

var (
	serveWorker    bool
	serveScheduler bool
)

// cherrydine serve
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run"},
	Short:   "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := app.Boot(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		return server.Run(ctx, a, server.Options{Worker: serveWorker, Scheduler: serveScheduler})
	},
}

// cherrydine route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Routes do not touch the backends, so in-memory ones are enough.
		a := app.New(app.Backends{
			Cache:  cache.NewMemory(),
			Queue:  queue.NewMemoryDriver(),
			Mailer: mail.NewLog(),
		})
		defer a.Close()

		k, err := kernel.NewHTTPKernel(a)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range k.Router().Routes() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveWorker, "worker", true, "Consume notification jobs in this process")
	serveCmd.Flags().BoolVar(&serveScheduler, "scheduler", true, "Run maintenance tasks in this process")
}
