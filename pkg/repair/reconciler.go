package repair

import (
	"context"
	"sync"
	"time"

	"github.com/cuemby/collabkit/pkg/database"
	"github.com/cuemby/collabkit/pkg/document"
	"github.com/cuemby/collabkit/pkg/folder"
	"github.com/cuemby/collabkit/pkg/log"
	"github.com/cuemby/collabkit/pkg/metrics"
	"github.com/rs/zerolog"
)

// defaultInterval matches the teacher reconciler's sweep cadence.
const defaultInterval = 10 * time.Second

// Reconciler periodically sweeps every registered Folder/Database/
// Document for the repairs TryFixingDatabase's one-shot pass doesn't
// cover: dangling Folder section entries, orphaned Database row/field
// orders, and Document children_map entries naming a block that no
// longer exists.
type Reconciler struct {
	logger   zerolog.Logger
	interval time.Duration
	stopCh   chan struct{}

	mu        sync.RWMutex
	folders   map[string]*folder.Folder
	databases map[string]*database.Database
	documents map[string]*document.Document
}

// NewReconciler builds a Reconciler with the given sweep interval (the
// teacher's default of 10s if interval is zero).
func NewReconciler(interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Reconciler{
		logger:    log.WithComponent("repair.reconciler"),
		interval:  interval,
		stopCh:    make(chan struct{}),
		folders:   make(map[string]*folder.Folder),
		databases: make(map[string]*database.Database),
		documents: make(map[string]*document.Document),
	}
}

// RegisterFolder adds f to the sweep set under id, replacing any prior
// registration under the same id.
func (r *Reconciler) RegisterFolder(id string, f *folder.Folder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.folders[id] = f
}

// UnregisterFolder removes id from the sweep set.
func (r *Reconciler) UnregisterFolder(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.folders, id)
}

// RegisterDatabase adds db to the sweep set under id.
func (r *Reconciler) RegisterDatabase(id string, db *database.Database) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.databases[id] = db
}

// UnregisterDatabase removes id from the sweep set.
func (r *Reconciler) UnregisterDatabase(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.databases, id)
}

// RegisterDocument adds d to the sweep set under id.
func (r *Reconciler) RegisterDocument(id string, d *document.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents[id] = d
}

// UnregisterDocument removes id from the sweep set.
func (r *Reconciler) UnregisterDocument(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.documents, id)
}

// Start begins the reconciliation loop in its own goroutine.
func (r *Reconciler) Start() {
	go r.run()
}

// Stop ends the reconciliation loop.
func (r *Reconciler) Stop() {
	close(r.stopCh)
}

func (r *Reconciler) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info().Msg("repair reconciler started")

	for {
		select {
		case <-ticker.C:
			r.reconcile(context.Background())
		case <-r.stopCh:
			r.logger.Info().Msg("repair reconciler stopped")
			return
		}
	}
}

// reconcile runs one sweep across every registered object. Individual
// object failures are logged and skipped rather than aborting the rest
// of the cycle.
func (r *Reconciler) reconcile(ctx context.Context) {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.RepairCycleDuration)
		metrics.RepairCyclesTotal.Inc()
	}()

	r.mu.RLock()
	folders := make(map[string]*folder.Folder, len(r.folders))
	for k, v := range r.folders {
		folders[k] = v
	}
	databases := make(map[string]*database.Database, len(r.databases))
	for k, v := range r.databases {
		databases[k] = v
	}
	documents := make(map[string]*document.Document, len(r.documents))
	for k, v := range r.documents {
		documents[k] = v
	}
	r.mu.RUnlock()

	for id, f := range folders {
		n, err := f.PruneDanglingSections(ctx)
		if err != nil {
			r.logger.Error().Err(err).Str("folder_id", id).Msg("repair: failed to prune dangling sections")
			continue
		}
		if n > 0 {
			r.logger.Info().Str("folder_id", id).Int("removed", n).Msg("repair: pruned dangling sections")
			metrics.RepairsAppliedTotal.WithLabelValues("folder_dangling_section").Add(float64(n))
		}
	}

	for id, db := range databases {
		n, err := db.PruneOrphanedOrders(ctx)
		if err != nil {
			r.logger.Error().Err(err).Str("database_id", id).Msg("repair: failed to prune orphaned orders")
			continue
		}
		if n > 0 {
			r.logger.Info().Str("database_id", id).Int("removed", n).Msg("repair: pruned orphaned row/field orders")
			metrics.RepairsAppliedTotal.WithLabelValues("database_orphaned_order").Add(float64(n))
		}
		if changed, err := db.EnsureInlineView(ctx); err != nil {
			r.logger.Error().Err(err).Str("database_id", id).Msg("repair: failed to ensure inline view")
		} else if changed {
			r.logger.Info().Str("database_id", id).Msg("repair: marked a view inline")
			metrics.RepairsAppliedTotal.WithLabelValues("database_no_inline_view").Inc()
		}
	}

	for id, d := range documents {
		n, err := d.PruneOrphanedChildren(ctx)
		if err != nil {
			r.logger.Error().Err(err).Str("document_id", id).Msg("repair: failed to prune orphaned children")
			continue
		}
		if n > 0 {
			r.logger.Info().Str("document_id", id).Int("removed", n).Msg("repair: pruned orphaned children_map entries")
			metrics.RepairsAppliedTotal.WithLabelValues("document_orphaned_child").Add(float64(n))
		}
	}
}
