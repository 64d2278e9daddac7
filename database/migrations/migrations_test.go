package migrations_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/database/migrations"
	"github.com/cherrydine/cherrydine/pkg/migration"
	"github.com/cherrydine/cherrydine/pkg/testkit"
)

func TestMigrationsRunAndRollBack(t *testing.T) {
	db := testkit.DB(t)
	ctx := context.Background()
	runner := migration.New(db, migrations.All()...)

	ran, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Len(t, ran, len(migrations.All()))

	for _, table := range []string{"users", "menu_items", "orders", "order_items", "order_status_logs", "reviews", "failed_jobs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Order{}, "idx_orders_user_status"))

	again, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)

	reverted, err := runner.Rollback(ctx)
	require.NoError(t, err)
	assert.Len(t, reverted, len(migrations.All()))
	assert.False(t, db.Migrator().HasTable("orders"))
}

func TestMigrationNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range migrations.All() {
		assert.False(t, seen[m.Name], "duplicate migration %s", m.Name)
		seen[m.Name] = true
		assert.NotNil(t, m.Up, m.Name)
		assert.NotNil(t, m.Down, m.Name)
	}
}
