package engine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ptestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/market-suggest/internal/ingest"
	"github.com/donaldgifford/market-suggest/internal/metrics"
	storeMocks "github.com/donaldgifford/market-suggest/internal/store/mocks"
	"github.com/donaldgifford/market-suggest/pkg/logger"
)

func sourceDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	var b strings.Builder
	require.NoError(t, ingest.WriteRaw(&b, testRows()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "latest.csv"), []byte(b.String()), 0o600))
	return dir
}

func TestNewScheduler_RegistersCronEntry(t *testing.T) {
	t.Parallel()

	sched, err := NewScheduler(newTestEngine(nil, nil), nil, 15*time.Minute, logger.Discard())
	require.NoError(t, err)
	assert.Len(t, sched.Entries(), 1)
	assert.NotZero(t, sched.sourceEntryID)
}

func TestNewScheduler_InvalidInterval(t *testing.T) {
	t.Parallel()

	_, err := NewScheduler(newTestEngine(nil, nil), nil, 0, logger.Discard())
	require.Error(t, err)
}

func TestJobWrappers_RecoversPanic(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	job := cron.NewChain(jobWrappers(logger.NewWithWriter(&buf, "info", "text"))...).
		Then(cron.FuncJob(func() { panic("bad row") }))

	assert.NotPanics(t, job.Run)
	assert.Contains(t, buf.String(), "bad row")
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	sched, err := NewScheduler(newTestEngine(nil, nil), nil, time.Hour, logger.Discard())
	require.NoError(t, err)

	sched.Start()
	assert.Greater(t, ptestutil.ToFloat64(metrics.SchedulerNextRunTimestamp), float64(0))
	ctx := sched.Stop()
	<-ctx.Done()
}

func TestScheduler_RunSourceWithLock(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockStore(t)
	ms.EXPECT().AcquireSchedulerLock(mock.Anything, JobSource, mock.Anything, time.Hour).Return(true, nil)
	ms.EXPECT().ReleaseSchedulerLock(mock.Anything, JobSource, mock.Anything).Return(nil)
	ms.EXPECT().CreateRun(mock.Anything, mock.Anything).Return(nil)
	ms.EXPECT().InsertRunListings(mock.Anything, mock.Anything).Return(6, nil)
	ms.EXPECT().CompleteRun(mock.Anything, testRunID, mock.Anything).Return(nil)

	eng := newTestEngine(ms, nil, WithSource(ingest.Source{Mode: ingest.ModeAuto, Dir: sourceDir(t)}))
	sched, err := NewScheduler(eng, ms, time.Hour, logger.Discard())
	require.NoError(t, err)

	sched.RunSource(context.Background())
}

func TestScheduler_RunSourceLockHeldElsewhere(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockStore(t)
	ms.EXPECT().AcquireSchedulerLock(mock.Anything, JobSource, mock.Anything, time.Hour).Return(false, nil)

	sched, err := NewScheduler(newTestEngine(ms, nil), ms, time.Hour, logger.Discard())
	require.NoError(t, err)

	// No CreateRun expectation: the run must not start.
	sched.RunSource(context.Background())
}

func TestScheduler_RunSourceLockError(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockStore(t)
	ms.EXPECT().AcquireSchedulerLock(mock.Anything, JobSource, mock.Anything, time.Hour).
		Return(false, errors.New("connection refused"))

	sched, err := NewScheduler(newTestEngine(ms, nil), ms, time.Hour, logger.Discard())
	require.NoError(t, err)

	sched.RunSource(context.Background())
}

func TestScheduler_RunSourceNoFile(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(nil, nil, WithSource(ingest.Source{Mode: ingest.ModeAuto, Dir: t.TempDir()}))
	sched, err := NewScheduler(eng, nil, time.Hour, logger.Discard())
	require.NoError(t, err)

	sched.RunSource(context.Background())
	assert.False(t, eng.Running())
}
