package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"saldo/internal/amqp"
	"saldo/internal/storage"
	"saldo/internal/store"
)

// SyncWorker pushes locally saved budget states to the remote document
// store. AMQP messages drive the fast path; a periodic sweep over rows
// whose revision is ahead of synced_revision recovers anything a lost
// message left behind.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	remote    store.RemotePusher
	batchSize int
}

func NewSyncWorker(repo *storage.SQLiteRepository, remote store.RemotePusher, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   repo,
		remote:    remote,
		batchSize: batchSize,
	}
}

// Run consumes sync messages and sweeps pending states until the
// context ends.
func (w *SyncWorker) Run(ctx context.Context, client *amqp.Client, sweepInterval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return client.ConsumeStateSync(ctx, func(msg *amqp.StateSyncMessage) error {
			return w.HandleSyncMessage(ctx, msg)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.ProcessPendingStates(ctx); err != nil {
					slog.ErrorContext(ctx, "Pending sync sweep failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}

// HandleSyncMessage pushes the group's current local snapshot to the
// remote store. The message only names the group; the snapshot is read
// fresh, so a burst of edits collapses into one push of the newest
// state.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.StateSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"group", msg.GroupKey,
		"revision", msg.Revision)

	pending, found, err := w.storage.GetPendingState(ctx, msg.GroupKey)
	if err != nil {
		return fmt.Errorf("get state from storage: %w", err)
	}
	if !found {
		slog.WarnContext(ctx, "Sync message for unknown group, skipping",
			"group", msg.GroupKey)
		return nil
	}

	return w.pushState(ctx, pending)
}

// ProcessPendingStates pushes any states whose local revision is ahead
// of the remote. This is a backup mechanism in case AMQP messages are
// lost.
func (w *SyncWorker) ProcessPendingStates(ctx context.Context) error {
	pending, err := w.storage.ListPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending states: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending states", "count", len(pending))

	for _, p := range pending {
		if err := w.pushState(ctx, p); err != nil {
			slog.ErrorContext(ctx, "Failed to push pending state",
				"group", p.GroupKey,
				"revision", p.Revision,
				"error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck pushes pending states at worker startup to recover
// from missed messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.ListPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending states for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending states found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending states on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		if err := w.pushState(ctx, p); err != nil {
			slog.ErrorContext(ctx, "Failed to push state during startup",
				"group", p.GroupKey, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) pushState(ctx context.Context, p storage.PendingState) error {
	if err := w.remote.PushState(ctx, p.GroupKey, p.State, p.Revision); err != nil {
		return fmt.Errorf("push state to remote: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, p.GroupKey, p.Revision); err != nil {
		slog.ErrorContext(ctx, "Failed to mark state as synced",
			"group", p.GroupKey, "revision", p.Revision, "error", err)
		// Don't return an error here, the push actually worked
	}

	slog.InfoContext(ctx, "Successfully synced state",
		"group", p.GroupKey,
		"revision", p.Revision,
		"items", len(p.State.RecurringItems))

	return nil
}
