// Package testkit holds the helpers shared by package tests: an isolated
// migrated database, an HTTP client that keeps its session cookie between
// calls, and a transport that records outgoing requests.
package testkit

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/pkg/database"
	"github.com/cherrydine/cherrydine/pkg/migration"
)

// DB opens an in-memory SQLite database private to t and runs migrations on
// it. The connection is closed when the test ends.
func DB(t *testing.T, migrations ...migration.Migration) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	_, err = migration.New(db, migrations...).Run(context.Background())
	require.NoError(t, err, "migrate test database")
	return db
}
