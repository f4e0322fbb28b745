package provider_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seopulse/internal/provider"
)

func TestMockFetchDailyMetrics(t *testing.T) {
	p := provider.NewMockProvider()
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC)

	t.Run("returns one row per day inclusive", func(t *testing.T) {
		days, err := p.FetchDailyMetrics(context.Background(), "properties/1", from, to)
		require.NoError(t, err)
		require.Len(t, days, 7)

		assert.True(t, days[0].Date.Equal(from))
		assert.True(t, days[6].Date.Equal(to))
		for _, d := range days {
			assert.Positive(t, d.ActiveUsers)
			assert.Positive(t, d.Sessions)
			assert.Positive(t, d.Pageviews)
			assert.Positive(t, d.AvgSessionDuration)
		}
	})

	t.Run("empty property is not connected", func(t *testing.T) {
		_, err := p.FetchDailyMetrics(context.Background(), "", from, to)
		assert.ErrorIs(t, err, provider.ErrNotConnected)
	})

	t.Run("honours context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := p.FetchDailyMetrics(ctx, "properties/1", from, to)
		assert.Error(t, err)
	})
}

func TestMockFetchSearchMetrics(t *testing.T) {
	p := provider.NewMockProvider()
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)

	t.Run("returns day series and query breakdown", func(t *testing.T) {
		metrics, err := p.FetchSearchMetrics(context.Background(), "https://mock.test", from, to)
		require.NoError(t, err)
		require.NotNil(t, metrics)

		assert.Len(t, metrics.Days, 3)
		assert.NotEmpty(t, metrics.Queries)
		for _, q := range metrics.Queries {
			assert.NotEmpty(t, q.Query)
			assert.LessOrEqual(t, q.Clicks, q.Impressions)
		}
	})

	t.Run("empty site url is not connected", func(t *testing.T) {
		_, err := p.FetchSearchMetrics(context.Background(), "", from, to)
		assert.ErrorIs(t, err, provider.ErrNotConnected)
	})
}
