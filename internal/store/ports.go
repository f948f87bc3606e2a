// Package store defines the boundary between the forecasting core and
// whatever persists budget state. The core itself never touches a store;
// callers load a snapshot, run the pure operations, and save the result.
package store

import (
	"context"

	"saldo/internal/core"
)

// Ports for state persistence adapters.
type (
	// StateLoader fetches the snapshot for a group key. The boolean is
	// false when no state exists yet; callers then start from
	// core.EmptyState().
	StateLoader interface {
		LoadState(ctx context.Context, key string) (core.BudgetState, bool, error)
	}

	// StateSaver replaces the snapshot wholesale (last write wins) and
	// returns the new local revision number.
	StateSaver interface {
		SaveState(ctx context.Context, key string, state core.BudgetState) (int64, error)
	}

	StateStore interface {
		StateLoader
		StateSaver
	}

	// GroupLister enumerates every group key with stored state; the
	// rollover worker sweeps these once per tick.
	GroupLister interface {
		ListGroups(ctx context.Context) ([]string, error)
	}

	// RemotePusher writes a snapshot to the remote document store. The
	// revision travels along so the push can be recorded as done.
	RemotePusher interface {
		PushState(ctx context.Context, key string, state core.BudgetState, revision int64) error
	}
)
