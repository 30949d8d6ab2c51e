package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/dmarc-summaries/internal/enum"
	er "github.com/customeros/dmarc-summaries/internal/errors"
	"github.com/customeros/dmarc-summaries/internal/models"
	"github.com/customeros/dmarc-summaries/internal/repository"
	"github.com/customeros/dmarc-summaries/internal/testutil"
)

func sampleSummaryData() models.SummaryData {
	aligned := true
	return models.SummaryData{
		CategoryTotals:      models.CategoryTotals{Pass: 7, Fail: 3},
		CategoryPercentages: models.CategoryPercentages{Pass: 70, Fail: 30},
		TotalMessages:       10,
		DetailTables: models.DetailTables{
			FullPass: []models.DetailRow{{
				ID:              "row-1",
				SourceIPAddress: "192.0.2.10",
				HeaderFrom:      "domain.ca",
				DKIMAligned:     &aligned,
				TotalMessages:   7,
			}},
		},
	}
}

func TestSummaryRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	domain := testutil.SeedDomain(t, db, "domain.ca")
	repo := repository.NewSummaryRepository(db)

	require.NoError(t, repo.Create(ctx, "domain.ca", "2021-01-01", sampleSummaryData()))

	assert.Equal(t, int64(1), testutil.Count(t, db, &models.DMARCSummary{}, ""))
	assert.Equal(t, int64(1), testutil.Count(t, db, &models.DomainToDMARCSummary{}, "from_id = ? AND start_date = ?", domain.ID, "2021-01-01"))

	summary, err := repo.Get(ctx, "domain.ca", "2021-01-01")
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, sampleSummaryData(), summary.Data())

	missing, err := repo.Get(ctx, "domain.ca", "2021-02-01")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSummaryRepository_CreateDuplicateBucket(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	testutil.SeedDomain(t, db, "domain.ca")
	repo := repository.NewSummaryRepository(db)

	require.NoError(t, repo.Create(ctx, "domain.ca", enum.ThirtyDays, models.SummaryData{}))
	err := repo.Create(ctx, "domain.ca", enum.ThirtyDays, models.SummaryData{})
	assert.True(t, er.IsDatastore(err))

	// the failed transaction leaves no orphan document behind
	assert.Equal(t, int64(1), testutil.Count(t, db, &models.DMARCSummary{}, ""))
}

func TestSummaryRepository_CreateUnknownDomain(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewSummaryRepository(db)

	err := repo.Create(context.Background(), "missing.ca", "2021-01-01", models.SummaryData{})
	assert.True(t, er.IsNotFound(err))
	assert.Equal(t, int64(0), testutil.Count(t, db, &models.DMARCSummary{}, ""))
}

func TestSummaryRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	domain := testutil.SeedDomain(t, db, "domain.ca")
	seeded := testutil.SeedSummary(t, db, domain, "2021-01-01")
	repo := repository.NewSummaryRepository(db)

	updated, err := repo.Upsert(ctx, "domain.ca", "2021-01-01", sampleSummaryData())
	require.NoError(t, err)
	assert.True(t, updated)

	summary, err := repo.Get(ctx, "domain.ca", "2021-01-01")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, summary.ID)
	assert.Equal(t, 10, summary.TotalMessages)
	assert.Equal(t, sampleSummaryData().DetailTables, summary.DetailTables)
	assert.Equal(t, int64(1), testutil.Count(t, db, &models.DMARCSummary{}, ""))
}

func TestSummaryRepository_UpsertWithoutEdge(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	testutil.SeedDomain(t, db, "domain.ca")
	repo := repository.NewSummaryRepository(db)

	updated, err := repo.Upsert(ctx, "domain.ca", "2021-01-01", sampleSummaryData())
	require.NoError(t, err)
	assert.False(t, updated)

	assert.Equal(t, int64(0), testutil.Count(t, db, &models.DMARCSummary{}, ""))
	assert.Equal(t, int64(0), testutil.Count(t, db, &models.DomainToDMARCSummary{}, ""))
}

func TestSummaryRepository_UpsertVanishedDocument(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	domain := testutil.SeedDomain(t, db, "domain.ca")
	seeded := testutil.SeedSummary(t, db, domain, "2021-01-01")
	require.NoError(t, db.Where("id = ?", seeded.ID).Delete(&models.DMARCSummary{}).Error)
	repo := repository.NewSummaryRepository(db)

	updated, err := repo.Upsert(ctx, "domain.ca", "2021-01-01", sampleSummaryData())
	require.NoError(t, err)
	assert.True(t, updated)

	summary, err := repo.Get(ctx, "domain.ca", "2021-01-01")
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, seeded.ID, summary.ID)
}

func TestSummaryRepository_Remove(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	domain := testutil.SeedDomain(t, db, "domain.ca")
	testutil.SeedSummary(t, db, domain, "2000-01-01")
	testutil.SeedSummary(t, db, domain, "2021-01-01")
	repo := repository.NewSummaryRepository(db)

	require.NoError(t, repo.Remove(ctx, "domain.ca", "2000-01-01"))

	assert.Equal(t, int64(1), testutil.Count(t, db, &models.DMARCSummary{}, ""))
	assert.Equal(t, int64(0), testutil.Count(t, db, &models.DomainToDMARCSummary{}, "start_date = ?", "2000-01-01"))

	t.Run("missing bucket is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.Remove(ctx, "domain.ca", "2000-01-01"))
		assert.Equal(t, int64(1), testutil.Count(t, db, &models.DMARCSummary{}, ""))
	})
}

func TestSummaryRepository_ListAndCount(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	domain := testutil.SeedDomain(t, db, "domain.ca")
	other := testutil.SeedDomain(t, db, "other.ca")
	testutil.SeedSummary(t, db, domain, "2021-02-01")
	testutil.SeedSummary(t, db, domain, enum.ThirtyDays)
	testutil.SeedSummary(t, db, domain, "2021-01-01")
	testutil.SeedSummary(t, db, other, "2020-01-01")
	repo := repository.NewSummaryRepository(db)

	dates, err := repo.ListStartDates(ctx, "domain.ca")
	require.NoError(t, err)
	assert.Equal(t, []string{"2021-01-01", "2021-02-01"}, dates)

	count, err := repo.CountStartDate(ctx, "domain.ca", enum.ThirtyDays)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountStartDate(ctx, "other.ca", enum.ThirtyDays)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	empty, err := repo.ListStartDates(ctx, "missing.ca")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
