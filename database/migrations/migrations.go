// Package migrations lists the schema changes of the CherryDine database in
// the order they were written.
package migrations

import (
	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/pkg/migration"
	"github.com/cherrydine/cherrydine/pkg/queue"
)

// All returns every migration. The runner sorts them by name.
func All() []migration.Migration {
	return []migration.Migration{
		table("20260101000000_create_users_table", &models.User{}),
		table("20260101000001_create_menu_items_table", &models.MenuItem{}),
		table("20260101000002_create_orders_table", &models.Order{}),
		table("20260101000003_create_order_items_table", &models.OrderItem{}),
		table("20260101000004_create_order_status_logs_table", &models.OrderStatusLog{}),
		table("20260101000005_create_reviews_table", &models.Review{}),
		table("20260101000006_create_failed_jobs_table", &queue.FailedJob{}),
		{
			Name: "20260102000000_index_orders_user_status",
			Up: func(tx *gorm.DB) error {
				return tx.Exec("CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders (user_id, status)").Error
			},
			Down: func(tx *gorm.DB) error {
				return tx.Migrator().DropIndex(&models.Order{}, "idx_orders_user_status")
			},
		},
	}
}

func table(name string, model any) migration.Migration {
	return migration.Migration{
		Name: name,
		Up:   func(tx *gorm.DB) error { return tx.AutoMigrate(model) },
		Down: func(tx *gorm.DB) error { return tx.Migrator().DropTable(model) },
	}
}
