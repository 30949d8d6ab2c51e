package dmarc_report

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/dmarc-summaries/dto"
	er "github.com/customeros/dmarc-summaries/internal/errors"
	"github.com/customeros/dmarc-summaries/internal/models"
	"github.com/customeros/dmarc-summaries/internal/testutil"
	"github.com/customeros/dmarc-summaries/internal/utils"
	"github.com/customeros/dmarc-summaries/services/planner"
)

type staticManifest struct {
	manifest dto.Manifest
	err      error
}

func (s staticManifest) Load(context.Context) (dto.Manifest, error) {
	return s.manifest, s.err
}

func januaryClock() time.Time {
	return time.Date(2021, time.January, 17, 10, 0, 0, 0, time.UTC)
}

func TestJob_Execute(t *testing.T) {
	f := newFixture(t)
	testutil.SeedOrganization(t, f.db, "ACR")
	testutil.SeedDomain(t, f.db, "domain.ca")

	job := NewJob(testLogger(), staticManifest{manifest: manifest("ACR", "domain.ca")},
		planner.NewPlanner(utils.PeriodMonths, januaryClock), f.engine)

	result, err := job.Execute(context.Background())
	require.NoError(t, err)

	assert.Regexp(t, `^run_[a-z0-9]{12}$`, result.RunID)
	assert.Equal(t, result, job.LastResult())
	assert.False(t, job.Running())
	assert.Equal(t, 1, result.DomainsProcessed)
	assert.Equal(t, 14, result.SummariesCreated)

	dates := f.startDates(t, "domain.ca")
	require.Len(t, dates, 13)
	assert.Equal(t, "2020-01-01", dates[0])
	assert.Equal(t, "2021-01-01", dates[12])
	assert.Equal(t, int64(14), testutil.Count(t, f.db, &models.DMARCSummary{}, ""))
}

func TestJob_ManifestFailureAbortsRun(t *testing.T) {
	f := newFixture(t)
	testutil.SeedOrganization(t, f.db, "ACR")
	testutil.SeedDomain(t, f.db, "domain.ca")

	job := NewJob(testLogger(), staticManifest{err: errors.New("404")},
		planner.NewPlanner(utils.PeriodMonths, januaryClock), f.engine)

	result, err := job.Execute(context.Background())
	assert.Nil(t, result)
	assert.Nil(t, job.LastResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load manifest")
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &models.Ownership{}, ""))
}

func TestJob_RejectsConcurrentRuns(t *testing.T) {
	f := newFixture(t)
	j := NewJob(testLogger(), staticManifest{}, planner.NewPlanner(utils.PeriodMonths, januaryClock), f.engine).(*job)

	j.running.Lock()
	_, err := j.Execute(context.Background())
	j.running.Unlock()
	assert.ErrorIs(t, err, er.ErrRunInProgress)

	result, err := j.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.OrganizationsSeen)
}

func TestJob_Start(t *testing.T) {
	f := newFixture(t)
	j := NewJob(testLogger(), staticManifest{}, planner.NewPlanner(utils.PeriodMonths, januaryClock), f.engine).(*job)

	t.Run("rejects while a run holds the job", func(t *testing.T) {
		j.running.Lock()
		j.active.Store(true)
		err := j.Start(context.Background())
		j.active.Store(false)
		j.running.Unlock()
		assert.ErrorIs(t, err, er.ErrRunInProgress)
	})

	t.Run("second start is rejected synchronously", func(t *testing.T) {
		blocking := &blockingManifest{release: make(chan struct{})}
		bj := NewJob(testLogger(), blocking, planner.NewPlanner(utils.PeriodMonths, januaryClock), f.engine)

		require.NoError(t, bj.Start(context.Background()))
		assert.True(t, bj.Running())
		assert.ErrorIs(t, bj.Start(context.Background()), er.ErrRunInProgress)

		close(blocking.release)
		assert.Eventually(t, func() bool {
			return !bj.Running() && bj.LastResult() != nil
		}, 5*time.Second, 10*time.Millisecond)
		assert.NoError(t, bj.Start(context.Background()))
		assert.Eventually(t, func() bool {
			return !bj.Running()
		}, 5*time.Second, 10*time.Millisecond)
	})
}

type blockingManifest struct {
	release chan struct{}
}

func (b *blockingManifest) Load(ctx context.Context) (dto.Manifest, error) {
	select {
	case <-b.release:
		return dto.Manifest{}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
