package app

import (
	"context"
	"errors"

	"consumption-analytics/internal/render"
)

// Snapshots lists the materialised per-account growth snapshots.
func (a *App) Snapshots(ctx context.Context, opts SnapshotsOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot list snapshots")
	}
	if closeStore != nil {
		defer closeStore()
	}

	snapshots, err := store.ListGrowthSnapshots(ctx, opts.Limit)
	if err != nil {
		return err
	}

	return render.SnapshotTable(snapshots)
}
