package analytics

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"seopulse/internal/daterange"
	"seopulse/internal/pkg/async"
	"seopulse/internal/sites"
)

// overviewWorkers bounds concurrent per-site queries; matches the sqlite
// connection pool headroom in non-test environments.
const overviewWorkers = 4

// SiteOverview is one site's entry in the cross-site overview.
type SiteOverview struct {
	Site   sites.SiteSummary `json:"site"`
	Latest *CacheRow         `json:"latest"`
	Totals Totals            `json:"totals"`
}

// GetOverviewForUser computes the latest cached row plus rollup totals for
// each of the user's connected sites. Per-site queries fan out across a small
// worker pool; a failure for one site fails the overview.
func GetOverviewForUser(ctx context.Context, db *gorm.DB, userID uint, r daterange.Range) ([]SiteOverview, error) {
	connected, err := sites.GetConnectedSitesForUser(db, userID)
	if err != nil {
		return nil, err
	}

	tasks := make([]async.Task[SiteOverview], len(connected))
	for i, site := range connected {
		site := site
		tasks[i] = async.Task[SiteOverview]{
			Name: strconv.FormatUint(uint64(site.ID), 10),
			Execute: func() (SiteOverview, error) {
				latest, err := GetLatestRow(db, site.ID)
				if err != nil {
					return SiteOverview{}, err
				}
				totals, err := GetTotals(db, site.ID, r)
				if err != nil {
					return SiteOverview{}, err
				}
				return SiteOverview{
					Site: sites.SiteSummary{
						ID:          site.ID,
						Name:        site.Name,
						URL:         site.URL,
						Category:    site.Category,
						AccountType: site.AccountType,
					},
					Latest: latest,
					Totals: totals,
				}, nil
			},
		}
	}

	pool := async.NewPool[SiteOverview](overviewWorkers)
	results := pool.Execute(ctx, tasks)

	overview := make([]SiteOverview, 0, len(connected))
	for _, site := range connected {
		result, ok := results[strconv.FormatUint(uint64(site.ID), 10)]
		if !ok {
			return nil, ctx.Err()
		}
		if result.Err != nil {
			return nil, fmt.Errorf("overview failed for site %d: %w", site.ID, result.Err)
		}
		overview = append(overview, result.Data)
	}

	return overview, nil
}
