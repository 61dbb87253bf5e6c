package app

import (
	"context"
	"fmt"
	"io"

	"github.com/specialistvlad/pipedef/internal/export"
	"github.com/specialistvlad/pipedef/internal/server"
	"github.com/specialistvlad/pipedef/internal/snapshot"
)

// Export writes the built project to w.
func (a *App) Export(ctx context.Context, w io.Writer, format export.Format) error {
	if a.project == nil {
		return ErrNotBuilt
	}
	a.logger.Debug("Exporting project.", "format", format)
	return export.Write(w, a.project, format)
}

// Snapshot stores the built project in the snapshot database.
func (a *App) Snapshot(ctx context.Context, format export.Format) (*snapshot.Snapshot, bool, error) {
	if a.project == nil {
		return nil, false, ErrNotBuilt
	}
	store, err := snapshot.Open(a.config.DBPath)
	if err != nil {
		return nil, false, err
	}
	defer store.Close()
	return store.Save(a.Context(ctx), a.project, format)
}

// Snapshots lists the stored snapshots of the built project.
func (a *App) Snapshots(ctx context.Context) ([]snapshot.Snapshot, error) {
	if a.project == nil {
		return nil, ErrNotBuilt
	}
	store, err := snapshot.Open(a.config.DBPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.List(a.Context(ctx), a.project.Project().ID)
}

// Serve runs the read-only API until ctx is cancelled. withSnapshots also
// exposes the snapshot history.
func (a *App) Serve(ctx context.Context, withSnapshots bool) error {
	if a.project == nil {
		return ErrNotBuilt
	}
	opts := server.Options{Addr: a.config.Addr, Project: a.project}
	if withSnapshots {
		store, err := snapshot.Open(a.config.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open snapshots: %w", err)
		}
		defer store.Close()
		opts.Snapshots = store
	}
	return server.Run(a.Context(ctx), opts)
}
