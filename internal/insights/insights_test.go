package insights_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seopulse/internal/insights"
	"seopulse/internal/testsupport"
)

func TestCreateInsight(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	user := testsupport.CreateTestUser(db, "insights@example.com", "password123")
	site := testsupport.CreateTestSite(t, db, user.ID, "Insights", "https://insights.test")

	t.Run("creates a valid insight", func(t *testing.T) {
		insight := &insights.Insight{
			SiteID:       site.ID,
			AnalysisType: insights.AnalysisTraffic,
			Content:      "Traffic doubled after the landing page rewrite.",
		}
		require.NoError(t, insights.CreateInsight(db, insight))
		assert.NotZero(t, insight.ID)
		assert.False(t, insight.CreatedAt.IsZero())
	})

	t.Run("rejects missing site", func(t *testing.T) {
		err := insights.CreateInsight(db, &insights.Insight{
			AnalysisType: insights.AnalysisSEO,
			Content:      "orphan insight",
		})
		assert.Error(t, err)
	})

	t.Run("rejects empty content", func(t *testing.T) {
		err := insights.CreateInsight(db, &insights.Insight{
			SiteID:       site.ID,
			AnalysisType: insights.AnalysisSEO,
		})
		assert.Error(t, err)
	})

	t.Run("rejects unknown analysis type", func(t *testing.T) {
		err := insights.CreateInsight(db, &insights.Insight{
			SiteID:       site.ID,
			AnalysisType: "astrology",
			Content:      "mercury is in retrograde",
		})
		assert.Error(t, err)
	})
}

func TestGetInsightsForSite(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	user := testsupport.CreateTestUser(db, "list-insights@example.com", "password123")
	site := testsupport.CreateTestSite(t, db, user.ID, "Listed", "https://listed.test")

	for _, content := range []string{"first", "second", "third"} {
		require.NoError(t, insights.CreateInsight(db, &insights.Insight{
			SiteID:       site.ID,
			AnalysisType: insights.AnalysisContent,
			Content:      content,
		}))
		time.Sleep(2 * time.Millisecond)
	}

	all, err := insights.GetInsightsForSite(db, site.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Content)
	assert.Equal(t, "first", all[2].Content)
}

func TestGetLatestInsightForSite(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	user := testsupport.CreateTestUser(db, "latest-insights@example.com", "password123")
	site := testsupport.CreateTestSite(t, db, user.ID, "Latest", "https://latest-insight.test")

	t.Run("returns nil when none exist", func(t *testing.T) {
		insight, err := insights.GetLatestInsightForSite(db, site.ID, insights.AnalysisSEO)
		require.NoError(t, err)
		assert.Nil(t, insight)
	})

	t.Run("filters by analysis type", func(t *testing.T) {
		require.NoError(t, insights.CreateInsight(db, &insights.Insight{
			SiteID:       site.ID,
			AnalysisType: insights.AnalysisSEO,
			Content:      "older seo note",
		}))
		time.Sleep(2 * time.Millisecond)
		require.NoError(t, insights.CreateInsight(db, &insights.Insight{
			SiteID:       site.ID,
			AnalysisType: insights.AnalysisTechnical,
			Content:      "technical note",
		}))
		time.Sleep(2 * time.Millisecond)
		require.NoError(t, insights.CreateInsight(db, &insights.Insight{
			SiteID:       site.ID,
			AnalysisType: insights.AnalysisSEO,
			Content:      "newer seo note",
		}))

		insight, err := insights.GetLatestInsightForSite(db, site.ID, insights.AnalysisSEO)
		require.NoError(t, err)
		require.NotNil(t, insight)
		assert.Equal(t, "newer seo note", insight.Content)
	})
}
