package app

import (
	"context"
	"errors"
	"time"
)

// Refresh performs a single snapshot refresh for the current bucket, outside
// the scheduled loop. Useful after a bulk load or when catching up a stale
// snapshot table.
func (a *App) Refresh(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot refresh snapshots")
	}
	if closeStore != nil {
		defer closeStore()
	}

	svc := a.newService(store, nil, a.newNotifier())
	return svc.RefreshBucket(ctx, time.Now().UTC())
}
