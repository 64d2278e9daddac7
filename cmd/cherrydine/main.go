// Command cherrydine runs the CherryDine ordering service and its
// maintenance tasks.
//
//	cherrydine serve             # HTTP + gRPC health, worker and scheduler
//	cherrydine migrate           # apply pending migrations
//	cherrydine migrate:rollback
//	cherrydine migrate:status
//	cherrydine seed              # admin account and sample menu
//	cherrydine route:list
//	cherrydine queue:work        # notification worker only
//	cherrydine queue:failed
//	cherrydine schedule:run      # maintenance tasks only
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "cherrydine",
	Short:         "CherryDine restaurant ordering service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Server
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	// Database
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)

	// Workers
	rootCmd.AddCommand(queueWorkCmd)
	rootCmd.AddCommand(queueFailedCmd)
	rootCmd.AddCommand(scheduleRunCmd)
}
