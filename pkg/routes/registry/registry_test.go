package registry

import (
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/sorrel/pkg/models"
)

func strPtr(s string) *string { return &s }

func TestNewEntity(t *testing.T) {
	t.Run("derives every stored form", func(t *testing.T) {
		e, err := newEntity(CreateRequest{
			Family:       models.FamilyBank,
			OfficialName: "Saudi  National Bank",
			EnglishName:  strPtr("Saudi National Bank Co."),
			ShortCode:    strPtr("s.n.b"),
		})
		require.NoError(t, err)

		assert.Equal(t, "saudi national bank", e.NormalizedName)
		assert.Equal(t, "saudinationalbank", e.CompactName)
		require.NotNil(t, e.NormalizedEnglishName)
		assert.Equal(t, "saudi national bank co", *e.NormalizedEnglishName)
		require.NotNil(t, e.ShortCode)
		assert.Equal(t, "SNB", *e.ShortCode)
		assert.True(t, e.Confirmed)
	})

	t.Run("supplier with the minimal fields", func(t *testing.T) {
		e, err := newEntity(CreateRequest{Family: models.FamilySupplier, OfficialName: "Acme Corp"})
		require.NoError(t, err)
		assert.Nil(t, e.EnglishName)
		assert.Nil(t, e.ShortCode)
	})

	t.Run("short codes are banks only", func(t *testing.T) {
		_, err := newEntity(CreateRequest{
			Family:       models.FamilySupplier,
			OfficialName: "Acme Corp",
			ShortCode:    strPtr("ACM"),
		})
		require.Error(t, err)
		assert.Equal(t, 400, httperror.GetStatusCode(err))
	})

	t.Run("rejects a name with no usable characters", func(t *testing.T) {
		_, err := newEntity(CreateRequest{Family: models.FamilySupplier, OfficialName: " !! "})
		require.Error(t, err)
		assert.Equal(t, 400, httperror.GetStatusCode(err))
	})

	t.Run("rejects an unknown family", func(t *testing.T) {
		_, err := newEntity(CreateRequest{Family: "vendor", OfficialName: "Acme Corp"})
		require.Error(t, err)
		assert.Equal(t, 400, httperror.GetStatusCode(err))
	})
}
