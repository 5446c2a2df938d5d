package repair

import (
	"context"

	"github.com/cuemby/collabkit/pkg/database"
	"github.com/cuemby/collabkit/pkg/log"
	"github.com/cuemby/collabkit/pkg/metrics"
)

// TryFixingDatabase runs the one-shot repair set for a Database whose
// Validate call returned ErrNoInlineView: it marks a view inline and
// drops any row/field order entries left pointing at ids that no
// longer exist, then re-validates.
func TryFixingDatabase(ctx context.Context, db *database.Database) error {
	logger := log.WithObjectID(string(db.ID()))

	if changed, err := db.EnsureInlineView(ctx); err != nil {
		return err
	} else if changed {
		logger.Info().Msg("repair: marked a view inline")
		metrics.RepairsAppliedTotal.WithLabelValues("database_no_inline_view").Inc()
	}

	if n, err := db.PruneOrphanedOrders(ctx); err != nil {
		return err
	} else if n > 0 {
		logger.Info().Int("removed", n).Msg("repair: pruned orphaned row/field orders")
		metrics.RepairsAppliedTotal.WithLabelValues("database_orphaned_order").Add(float64(n))
	}

	return db.Validate(ctx)
}
