package sites_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seopulse/internal/sites"
	"seopulse/internal/testsupport"
)

func TestCreateSite(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	user := testsupport.CreateTestUser(db, "owner@example.com", "password123")

	t.Run("creates site with defaults", func(t *testing.T) {
		site := &sites.Site{UserID: user.ID, Name: "Acme", URL: "https://acme.test"}
		require.NoError(t, sites.CreateSite(db, site))

		assert.NotZero(t, site.ID)
		assert.Equal(t, "standard", site.AccountType)
		assert.Equal(t, "client", site.Category)
		assert.Equal(t, "{}", site.Settings)
		assert.False(t, site.IsConnected())
	})

	t.Run("rejects missing owner", func(t *testing.T) {
		err := sites.CreateSite(db, &sites.Site{Name: "No Owner", URL: "https://noowner.test"})
		assert.Error(t, err)
	})

	t.Run("rejects missing name", func(t *testing.T) {
		err := sites.CreateSite(db, &sites.Site{UserID: user.ID, URL: "https://noname.test"})
		assert.Error(t, err)
	})

	t.Run("rejects duplicate url", func(t *testing.T) {
		first := &sites.Site{UserID: user.ID, Name: "Dup", URL: "https://dup.test"}
		require.NoError(t, sites.CreateSite(db, first))

		err := sites.CreateSite(db, &sites.Site{UserID: user.ID, Name: "Dup2", URL: "https://dup.test"})
		assert.Error(t, err)
	})
}

func TestSiteScoping(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	owner := testsupport.CreateTestUser(db, "scoped-owner@example.com", "password123")
	other := testsupport.CreateTestUser(db, "scoped-other@example.com", "password123")
	site := testsupport.CreateTestSite(t, db, owner.ID, "Scoped", "https://scoped.test")

	t.Run("owner can read own site", func(t *testing.T) {
		found, err := sites.GetSiteForUser(db, site.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, site.ID, found.ID)
	})

	t.Run("other user's lookup resolves as not found", func(t *testing.T) {
		found, err := sites.GetSiteForUser(db, site.ID, other.ID)
		assert.Nil(t, found)

		var notFound *sites.SiteNotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("other user cannot update", func(t *testing.T) {
		_, err := sites.UpdateSiteForUser(db, &sites.Site{
			ID:     site.ID,
			UserID: other.ID,
			Name:   "Hijacked",
			URL:    "https://scoped.test",
		})

		var notFound *sites.SiteNotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("other user cannot delete", func(t *testing.T) {
		err := sites.DeleteSiteForUser(db, site.ID, other.ID)

		var notFound *sites.SiteNotFoundError
		assert.ErrorAs(t, err, &notFound)

		// Still there for the owner
		_, err = sites.GetSiteForUser(db, site.ID, owner.ID)
		assert.NoError(t, err)
	})
}

func TestUpdateSiteForUser(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	user := testsupport.CreateTestUser(db, "update-owner@example.com", "password123")
	site := testsupport.CreateTestSite(t, db, user.ID, "Before", "https://update.test")

	propertyID := "properties/424242"
	updated, err := sites.UpdateSiteForUser(db, &sites.Site{
		ID:         site.ID,
		UserID:     user.ID,
		Name:       "After",
		URL:        "https://update.test",
		PropertyID: &propertyID,
		Category:   "internal",
	})
	require.NoError(t, err)

	assert.Equal(t, "After", updated.Name)
	assert.Equal(t, "internal", updated.Category)
	require.NotNil(t, updated.PropertyID)
	assert.Equal(t, propertyID, *updated.PropertyID)
	assert.True(t, updated.IsConnected())
}

func TestGetConnectedSitesForUser(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	user := testsupport.CreateTestUser(db, "connected-owner@example.com", "password123")

	testsupport.CreateTestSite(t, db, user.ID, "Connected", "https://connected.test", "properties/1")
	testsupport.CreateTestSite(t, db, user.ID, "Disconnected", "https://disconnected.test")

	connected, err := sites.GetConnectedSitesForUser(db, user.ID)
	require.NoError(t, err)
	require.Len(t, connected, 1)
	assert.Equal(t, "https://connected.test", connected[0].URL)
}

func TestGetSitesForUserOrdering(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	user := testsupport.CreateTestUser(db, "order-owner@example.com", "password123")

	testsupport.CreateTestSite(t, db, user.ID, "First", "https://first.test")
	testsupport.CreateTestSite(t, db, user.ID, "Second", "https://second.test")

	all, err := sites.GetSitesForUser(db, user.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)

	summaries, err := sites.GetSiteSummariesForUser(db, user.ID)
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
}
