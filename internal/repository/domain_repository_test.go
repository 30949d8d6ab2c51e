package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/dmarc-summaries/internal/enum"
	er "github.com/customeros/dmarc-summaries/internal/errors"
	"github.com/customeros/dmarc-summaries/internal/repository"
	"github.com/customeros/dmarc-summaries/internal/testutil"
)

func TestDomainRepository_GetByName(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	seeded := testutil.SeedDomain(t, db, "domain.ca")
	repo := repository.NewDomainRepository(db)

	domain, err := repo.GetByName(ctx, "domain.ca")
	require.NoError(t, err)
	require.NotNil(t, domain)
	assert.Equal(t, seeded.ID, domain.ID)
	assert.Equal(t, enum.SendsEmailUnknown, domain.SendsEmail)

	missing, err := repo.GetByName(ctx, "missing.ca")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDomainRepository_UpdateMailStatus(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	testutil.SeedDomain(t, db, "domain.ca")
	repo := repository.NewDomainRepository(db)

	require.NoError(t, repo.UpdateMailStatus(ctx, "domain.ca", enum.SendsEmailTrue))
	domain, err := repo.GetByName(ctx, "domain.ca")
	require.NoError(t, err)
	assert.Equal(t, enum.SendsEmailTrue, domain.SendsEmail)

	assert.True(t, er.IsValidation(repo.UpdateMailStatus(ctx, "domain.ca", enum.SendsEmail("maybe"))))
	assert.True(t, er.IsNotFound(repo.UpdateMailStatus(ctx, "missing.ca", enum.SendsEmailFalse)))
}

func TestOrganizationRepository_GetByAcronym(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	testutil.SeedOrganization(t, db, "ACR")
	repo := repository.NewOrganizationRepository(db)

	organization, err := repo.GetByAcronym(ctx, "ACR")
	require.NoError(t, err)
	require.NotNil(t, organization)
	assert.Equal(t, "ACR", organization.Acronym)

	// acronyms are case sensitive
	missing, err := repo.GetByAcronym(ctx, "acr")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
