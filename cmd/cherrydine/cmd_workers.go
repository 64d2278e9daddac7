package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/internal/app"
	"github.com/cherrydine/cherrydine/pkg/queue"
)

var failedLimit int

// cherrydine queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Consume notification jobs until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := app.Boot(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		a.Queue.Work(ctx)
		return nil
	},
}

// cherrydine queue:failed
var queueFailedCmd = &cobra.Command{
	Use:   "queue:failed",
	Short: "List jobs that ran out of attempts",
	RunE: withDB(func(cmd *cobra.Command, db *gorm.DB) error {
		jobs, err := queue.ListFailed(cmd.Context(), db, failedLimit)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Println("No failed jobs.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tATTEMPTS\tFAILED AT\tERROR")
		for _, j := range jobs {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", j.ID, j.JobType, j.Attempts, j.FailedAt.Format("2006-01-02 15:04:05"), j.Error)
		}
		return w.Flush()
	}),
}

// cherrydine schedule:run
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Run the maintenance tasks until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := app.Boot(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.Scheduler()
		if err != nil {
			return err
		}
		for _, name := range s.Names() {
			fmt.Println("  •", name)
		}
		s.Start()

		<-ctx.Done()
		return s.Shutdown()
	},
}

func init() {
	queueFailedCmd.Flags().IntVarP(&failedLimit, "limit", "n", 20, "How many failures to show")
}
