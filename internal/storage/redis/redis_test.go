package redis

import (
	"context"
	"testing"
	"time"

	"jobboard-ledger/internal/ledger"
	"jobboard-ledger/internal/models"
	"jobboard-ledger/internal/storage/memory"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var _ ledger.Cache = (*Cache)(nil)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c := NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute, zaptest.NewLogger(t))
	t.Cleanup(func() { c.Close() })

	return c, mr
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "ledger:job:1", JobKey(1))
	assert.Equal(t, "ledger:application:18446744073709551615", ApplicationKey(^uint64(0)))
	assert.Equal(t, "ledger:application:3:version", ApplicationVersionKey(3))
	assert.NotEqual(t, JobKey(7), ApplicationKey(7))
}

func TestJobRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	got, err := c.GetJob(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	job := &models.JobListing{
		JobID:          1,
		Title:          "Backend Engineer",
		Description:    "Build APIs",
		Employer:       "acme",
		ApplicationFee: models.Amount(^uint64(0)),
		IsActive:       false,
	}
	require.NoError(t, c.SetJob(ctx, job))

	got, err = c.GetJob(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, job, got)

	mr.FastForward(2 * time.Minute)

	got, err = c.GetJob(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSetJobRefusesActiveListing(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	err := c.SetJob(ctx, &models.JobListing{JobID: 2, IsActive: true})
	assert.Error(t, err)
	assert.False(t, mr.Exists(JobKey(2)))
}

func TestApplicationRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	got, err := c.GetApplication(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, got)

	version, err := c.ApplicationVersion(ctx, 5)
	require.NoError(t, err)
	assert.Zero(t, version)

	app := &models.JobApplication{ApplicationID: 5, JobID: 1, Applicant: "alice", Status: models.StatusInterviewed}
	require.NoError(t, c.SetApplication(ctx, app, version))

	got, err = c.GetApplication(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, app, got)

	require.NoError(t, c.InvalidateApplication(ctx, 5))

	got, err = c.GetApplication(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, got)

	version, err = c.ApplicationVersion(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), version)

	// the version counter outlives the cached entry
	require.NoError(t, c.SetApplication(ctx, app, version))
	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists(ApplicationKey(5)))
	assert.True(t, mr.Exists(ApplicationVersionKey(5)))
}

func TestSetApplicationDropsStaleFill(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	version, err := c.ApplicationVersion(ctx, 1)
	require.NoError(t, err)

	// status changed elsewhere after the record was read
	require.NoError(t, c.InvalidateApplication(ctx, 1))

	stale := &models.JobApplication{ApplicationID: 1, JobID: 1, Applicant: "alice", Status: models.StatusPending}
	require.NoError(t, c.SetApplication(ctx, stale, version))

	assert.False(t, mr.Exists(ApplicationKey(1)))
}

func TestCacheErrorsWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	addr := mr.Addr()
	mr.Close()

	c := NewWithClient(redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1}), time.Minute, zaptest.NewLogger(t))
	t.Cleanup(func() { c.Close() })

	_, err := c.GetJob(ctx, 1)
	assert.Error(t, err)

	_, err = c.ApplicationVersion(ctx, 1)
	assert.Error(t, err)

	assert.Error(t, c.InvalidateApplication(ctx, 1))
}

// afterTxStore runs after once, right after the next transaction commits,
// so another writer can land between a read and the cache fill.
type afterTxStore struct {
	ledger.Store
	after func()
}

func (s *afterTxStore) WithinTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	err := s.Store.WithinTx(ctx, fn)
	if s.after != nil {
		f := s.after
		s.after = nil
		f()
	}
	return err
}

func TestLedgerOverCache(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	l := ledger.New(memory.New(), c, zaptest.NewLogger(t))

	_, err := l.PostJob(ctx, "Backend Engineer", "Build APIs", "acme", 500)
	require.NoError(t, err)
	_, err = l.ApplyForJob(ctx, 1, "alice")
	require.NoError(t, err)

	app, err := l.ViewApplication(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, app.Status)

	require.NoError(t, l.UpdateApplicationStatus(ctx, 1, models.StatusHired))
	app, err = l.ViewApplication(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusHired, app.Status)

	require.NoError(t, l.CloseJob(ctx, 1))
	job, err := l.ViewJob(ctx, 1)
	require.NoError(t, err)
	assert.False(t, job.IsActive)

	_, err = l.ApplyForJob(ctx, 1, "bob")
	assert.ErrorIs(t, err, ledger.ErrInvalidState)
}

func TestCloseBetweenReadAndFillIsNotMasked(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	shared := memory.New()
	slow := &afterTxStore{Store: shared}
	a := ledger.New(slow, c, zaptest.NewLogger(t))
	b := ledger.New(shared, c, zaptest.NewLogger(t))

	_, err := b.PostJob(ctx, "t", "d", "e", 0)
	require.NoError(t, err)

	slow.after = func() { require.NoError(t, b.CloseJob(ctx, 1)) }

	job, err := a.ViewJob(ctx, 1)
	require.NoError(t, err)
	assert.True(t, job.IsActive)

	job, err = b.ViewJob(ctx, 1)
	require.NoError(t, err)
	assert.False(t, job.IsActive)

	job, err = a.ViewJob(ctx, 1)
	require.NoError(t, err)
	assert.False(t, job.IsActive)
}

func TestStatusChangeBetweenReadAndFillIsNotMasked(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	shared := memory.New()
	slow := &afterTxStore{Store: shared}
	a := ledger.New(slow, c, zaptest.NewLogger(t))
	b := ledger.New(shared, c, zaptest.NewLogger(t))

	_, err := b.PostJob(ctx, "t", "d", "e", 0)
	require.NoError(t, err)
	_, err = b.ApplyForJob(ctx, 1, "alice")
	require.NoError(t, err)

	slow.after = func() { require.NoError(t, b.UpdateApplicationStatus(ctx, 1, models.StatusRejected)) }

	app, err := a.ViewApplication(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, app.Status)

	app, err = b.ViewApplication(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, app.Status)

	app, err = a.ViewApplication(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, app.Status)
}
