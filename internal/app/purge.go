package app

import (
	"context"
	"errors"
	"time"
)

// Purge deletes journaled alerts older than the retention window.
func (a *App) Purge(ctx context.Context, opts PurgeOptions) error {
	if opts.Retention <= 0 {
		return errors.New("retention must be greater than zero")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot purge")
	}
	if closeStore != nil {
		defer closeStore()
	}

	cutoff := time.Now().UTC().Add(-opts.Retention)
	removed, err := store.DeleteAlertsBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	a.Logger.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("alert journal purged")
	return nil
}
