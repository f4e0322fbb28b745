package jobs

import (
	"log/slog"
	"time"

	"seopulse/internal/analytics"
	"seopulse/internal/config"
	"seopulse/internal/database"
	"seopulse/internal/searchconsole"
)

// CleanupJob trims metric cache rows past the retention window. Refreshes
// keep re-inserting recent rows, so without this the caches grow without
// bound.
type CleanupJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
	cfg       *config.Config
}

func NewCleanupJob(dbManager *database.DBManager, logger *slog.Logger, cfg *config.Config) *CleanupJob {
	return &CleanupJob{
		dbManager: dbManager,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run removes cached metric rows older than the retention period.
func (j *CleanupJob) Run() error {
	retentionDays := j.cfg.CacheRetentionDays
	db := j.dbManager.GetConnection()
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	j.logger.Info("Starting metric cache cleanup",
		slog.Int("retention_days", retentionDays),
		slog.Time("cutoff_date", cutoff))

	analyticsDeleted, err := analytics.PurgeRowsOlderThan(db, cutoff, 1000)
	if err != nil {
		j.logger.Error("Failed to purge analytics cache",
			slog.Any("error", err),
			slog.Int64("deleted_so_far", analyticsDeleted))
		return err
	}

	searchDeleted, err := searchconsole.PurgeRowsOlderThan(db, cutoff, 1000)
	if err != nil {
		j.logger.Error("Failed to purge search console cache",
			slog.Any("error", err),
			slog.Int64("deleted_so_far", searchDeleted))
		return err
	}

	if analyticsDeleted == 0 && searchDeleted == 0 {
		j.logger.Debug("No expired cache rows to clean up")
		return nil
	}

	j.logger.Info("Cleaned up expired cache rows",
		slog.Int64("analytics_deleted", analyticsDeleted),
		slog.Int64("searchconsole_deleted", searchDeleted),
		slog.Int("retention_days", retentionDays))

	return nil
}
