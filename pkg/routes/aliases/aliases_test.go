package aliases

import (
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/sorrel/pkg/models"
)

func TestNewAlias(t *testing.T) {
	t.Run("normalizes the curated name", func(t *testing.T) {
		a, err := newAlias(CreateRequest{
			Family:   models.FamilySupplier,
			EntityID: "e1",
			Name:     "ACME  Int'l.",
		})
		require.NoError(t, err)
		assert.Equal(t, "ACME  Int'l.", a.Name)
		assert.Equal(t, "acme int l", a.NormalizedName)
		assert.Equal(t, "e1", a.EntityID)
	})

	t.Run("rejects a missing entity id", func(t *testing.T) {
		_, err := newAlias(CreateRequest{Family: models.FamilySupplier, Name: "acme"})
		require.Error(t, err)
		assert.Equal(t, 400, httperror.GetStatusCode(err))
	})

	t.Run("rejects a name with no usable characters", func(t *testing.T) {
		_, err := newAlias(CreateRequest{Family: models.FamilySupplier, EntityID: "e1", Name: "--"})
		require.Error(t, err)
		assert.Equal(t, 400, httperror.GetStatusCode(err))
	})

	t.Run("rejects an unknown family", func(t *testing.T) {
		_, err := newAlias(CreateRequest{Family: "vendor", EntityID: "e1", Name: "acme"})
		require.Error(t, err)
		assert.Equal(t, 400, httperror.GetStatusCode(err))
	})
}
