package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/config"
	"github.com/cherrydine/cherrydine/database/migrations"
	"github.com/cherrydine/cherrydine/database/seeders"
	"github.com/cherrydine/cherrydine/pkg/database"
	"github.com/cherrydine/cherrydine/pkg/migration"
)

// bootDB loads config and opens the database connection.
func bootDB() (*gorm.DB, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}
	return database.Connect()
}

func withDB(fn func(cmd *cobra.Command, db *gorm.DB) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		db, err := bootDB()
		if err != nil {
			return err
		}
		defer database.Close(db)
		return fn(cmd, db)
	}
}

// cherrydine migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: withDB(func(cmd *cobra.Command, db *gorm.DB) error {
		ran, err := migration.New(db, migrations.All()...).Run(cmd.Context())
		if err != nil {
			return err
		}
		if len(ran) == 0 {
			fmt.Println("Nothing to migrate.")
		}
		for _, name := range ran {
			fmt.Println("Migrated:", name)
		}
		return nil
	}),
}

// cherrydine migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: withDB(func(cmd *cobra.Command, db *gorm.DB) error {
		reverted, err := migration.New(db, migrations.All()...).Rollback(cmd.Context())
		if err != nil {
			return err
		}
		if len(reverted) == 0 {
			fmt.Println("Nothing to roll back.")
		}
		for _, name := range reverted {
			fmt.Println("Rolled back:", name)
		}
		return nil
	}),
}

// cherrydine migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: withDB(func(cmd *cobra.Command, db *gorm.DB) error {
		rows, err := migration.New(db, migrations.All()...).Status(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "RAN\tBATCH\tMIGRATION")
		for _, s := range rows {
			ran, batch := "No", "-"
			if s.Ran {
				ran, batch = "Yes", fmt.Sprint(s.Batch)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", ran, batch, s.Name)
		}
		return w.Flush()
	}),
}

// cherrydine seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: withDB(func(cmd *cobra.Command, db *gorm.DB) error {
		if err := seeders.RunAll(cmd.Context(), db); err != nil {
			return err
		}
		fmt.Printf("Seeded: %v\n", seeders.Names())
		return nil
	}),
}
