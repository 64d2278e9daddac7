package queue_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cherrydine/cherrydine/pkg/database"
	"github.com/cherrydine/cherrydine/pkg/queue"
)

var (
	greeted  atomic.Int32
	failures atomic.Int32
)

type greetJob struct {
	Name string `json:"name"`
}

func (greetJob) JobName() string { return "test.greet" }

func (j *greetJob) Handle(context.Context) error {
	if j.Name == "" {
		return errors.New("no name")
	}
	greeted.Add(1)
	return nil
}

type flakyJob struct{}

func (flakyJob) JobName() string { return "test.flaky" }

func (*flakyJob) Handle(context.Context) error {
	failures.Add(1)
	return errors.New("smtp down")
}

func newManager(t *testing.T, opts ...queue.Option) (*queue.Manager, *queue.MemoryDriver) {
	t.Helper()
	driver := queue.NewMemoryDriver()
	m := queue.New(driver, append([]queue.Option{queue.WithWorkers(2), queue.WithBackoff(time.Millisecond)}, opts...)...)
	m.Register("test.greet", func() queue.Job { return &greetJob{} })
	m.Register("test.flaky", func() queue.Job { return &flakyJob{} })
	t.Cleanup(func() { _ = m.Close() })
	return m, driver
}

func TestDispatchIsConsumedByWorker(t *testing.T) {
	m, _ := newManager(t)
	before := greeted.Load()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { m.Work(ctx); close(done) }()

	require.NoError(t, m.Dispatch(context.Background(), &greetJob{Name: "Ada"}))
	require.NoError(t, m.Dispatch(context.Background(), &greetJob{Name: "Lin"}))

	assert.Eventually(t, func() bool { return greeted.Load()-before == 2 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}

func TestDispatchDoesNotRunInline(t *testing.T) {
	m, driver := newManager(t)
	before := greeted.Load()

	require.NoError(t, m.Dispatch(context.Background(), &greetJob{Name: "Ada"}))

	assert.Equal(t, 1, driver.Len())
	assert.Equal(t, before, greeted.Load())
}

func TestFailedJobIsRetriedThenPersisted(t *testing.T) {
	db, err := database.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, db.AutoMigrate(&queue.FailedJob{}))

	m, driver := newManager(t, queue.WithMaxAttempts(3), queue.WithFailedStore(db))
	before := failures.Load()

	require.NoError(t, m.Dispatch(context.Background(), &flakyJob{}))
	raw, err := driver.Pop(context.Background())
	require.NoError(t, err)

	err = m.Process(context.Background(), raw)
	assert.EqualError(t, err, "smtp down")
	assert.EqualValues(t, 3, failures.Load()-before)

	failed, err := queue.ListFailed(context.Background(), db, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "test.flaky", failed[0].JobType)
	assert.Equal(t, 3, failed[0].Attempts)
	assert.Equal(t, "smtp down", failed[0].Error)
}

func TestUnknownJobType(t *testing.T) {
	m, _ := newManager(t)
	err := m.Process(context.Background(), []byte(`{"type":"nope","payload":{}}`))
	assert.ErrorIs(t, err, queue.ErrUnknownJob)
}

func TestPruneFailed(t *testing.T) {
	db, err := database.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, db.AutoMigrate(&queue.FailedJob{}))

	old := queue.FailedJob{JobType: "a", Payload: "{}", FailedAt: time.Now().UTC().Add(-48 * time.Hour)}
	fresh := queue.FailedJob{JobType: "b", Payload: "{}", FailedAt: time.Now().UTC()}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&fresh).Error)

	n, err := queue.PruneFailed(context.Background(), db, 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	left, err := queue.ListFailed(context.Background(), db, 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "b", left[0].JobType)
}

func TestNameOfFallsBackToGoType(t *testing.T) {
	assert.Equal(t, "test.greet", queue.NameOf(&greetJob{}))
	assert.Equal(t, "*queue_test.plainJob", queue.NameOf(&plainJob{}))
}

type plainJob struct{}

func (*plainJob) Handle(context.Context) error { return nil }
