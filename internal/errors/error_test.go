package errors

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	t.Run("not found keeps sentinel", func(t *testing.T) {
		err := NotFound("OwnershipRepository.Create", ErrDomainNotFound)
		assert.True(t, IsNotFound(err))
		assert.True(t, errors.Is(err, ErrDomainNotFound))
		assert.Equal(t, "OwnershipRepository.Create: not found: domain not found", err.Error())
	})

	t.Run("validation", func(t *testing.T) {
		err := Validation("LoadDates", ErrInvalidStartDate)
		assert.True(t, IsValidation(err))
		assert.False(t, IsDatastore(err))
	})

	t.Run("datastore wraps plain errors", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Datastore("SummaryRepository.Create", cause)
		assert.True(t, IsDatastore(err))
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("datastore keeps typed errors", func(t *testing.T) {
		inner := NotFound("op", ErrOrganizationNotFound)
		assert.Equal(t, inner, Datastore("outer", inner))
	})

	t.Run("datastore nil", func(t *testing.T) {
		assert.NoError(t, Datastore("op", nil))
	})

	t.Run("unknown kind", func(t *testing.T) {
		assert.Equal(t, KindUnknown, KindOf(errors.New("x")))
		assert.Equal(t, "unknown", KindUnknown.String())
	})
}
