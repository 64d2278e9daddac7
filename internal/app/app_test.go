package app

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/database/factories"
	"github.com/cherrydine/cherrydine/database/migrations"
	"github.com/cherrydine/cherrydine/pkg/cache"
	"github.com/cherrydine/cherrydine/pkg/mail"
	"github.com/cherrydine/cherrydine/pkg/metrics"
	"github.com/cherrydine/cherrydine/pkg/queue"
	"github.com/cherrydine/cherrydine/pkg/testkit"
)

func newTestApp(t *testing.T) *Application {
	t.Helper()
	a := New(Backends{
		DB:     testkit.DB(t, migrations.All()...),
		Cache:  cache.NewMemory(),
		Queue:  queue.NewMemoryDriver(),
		Mailer: mail.NewLog(),
	})
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestControllersIncludeGraphQL(t *testing.T) {
	c, err := newTestApp(t).Controllers()
	require.NoError(t, err)
	assert.NotNil(t, c.GraphQL)
	assert.NotNil(t, c.Orders)
}

func TestSchedulerRegistersMaintenanceTasks(t *testing.T) {
	s, err := newTestApp(t).Scheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })

	assert.ElementsMatch(t, []string{"orders.sample-open", "queue.prune-failed"}, s.Names())
}

func TestSampleOpenOrdersSetsGauge(t *testing.T) {
	a := newTestApp(t)
	user := factories.User(t, a.DB, models.RoleGuest)
	factories.Order(t, a.DB, user, models.StatusProcessing)
	factories.Order(t, a.DB, user, models.StatusReady)
	factories.Order(t, a.DB, user, models.StatusDelivered)
	factories.Order(t, a.DB, user, models.StatusCancelled)

	require.NoError(t, a.sampleOpenOrders(context.Background()))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.OpenOrders))
}

func TestPruneFailedJobsKeepsRecentFailures(t *testing.T) {
	a := newTestApp(t)
	old := queue.FailedJob{JobType: "order.placed", Payload: "{}", FailedAt: time.Now().Add(-90 * 24 * time.Hour)}
	recent := queue.FailedJob{JobType: "order.placed", Payload: "{}", FailedAt: time.Now()}
	require.NoError(t, a.DB.Create(&old).Error)
	require.NoError(t, a.DB.Create(&recent).Error)

	require.NoError(t, a.pruneFailedJobs(context.Background()))

	left, err := queue.ListFailed(context.Background(), a.DB, 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, recent.ID, left[0].ID)
}
