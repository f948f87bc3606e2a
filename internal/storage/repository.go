package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"saldo/internal/core"
	"saldo/internal/store"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the durable local cache: one row per group key
// holding the whole BudgetState as JSON plus a monotonically increasing
// revision. The remote document store is fed from here asynchronously.
type SQLiteRepository struct {
	db *sql.DB
}

// Interface conformance
var (
	_ store.StateStore  = (*SQLiteRepository)(nil)
	_ store.GroupLister = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadState implements store.StateLoader. Legacy documents are
// normalized to the current schema before they leave this layer.
func (r *SQLiteRepository) LoadState(ctx context.Context, key string) (core.BudgetState, bool, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT state FROM budget_states WHERE group_key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return core.BudgetState{}, false, nil
	}
	if err != nil {
		return core.BudgetState{}, false, fmt.Errorf("select state: %w", err)
	}

	var state core.BudgetState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return core.BudgetState{}, false, fmt.Errorf("decode state for %s: %w", key, err)
	}
	return store.Normalize(state), true, nil
}

// SaveState implements store.StateSaver. The state is replaced wholesale
// and the revision bumped; the new revision is returned for the sync
// pipeline.
func (r *SQLiteRepository) SaveState(ctx context.Context, key string, state core.BudgetState) (int64, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return 0, fmt.Errorf("encode state: %w", err)
	}

	var revision int64
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO budget_states (group_key, state, revision, updated_at)
		VALUES (?, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT(group_key) DO UPDATE SET
			state      = excluded.state,
			revision   = budget_states.revision + 1,
			updated_at = CURRENT_TIMESTAMP
		RETURNING revision`, key, string(raw)).Scan(&revision)
	if err != nil {
		return 0, fmt.Errorf("upsert state: %w", err)
	}

	return revision, nil
}

// ListGroups implements store.GroupLister.
func (r *SQLiteRepository) ListGroups(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT group_key FROM budget_states ORDER BY group_key`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan group key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// PendingState is a locally saved snapshot the remote store has not seen
// yet.
type PendingState struct {
	GroupKey string
	State    core.BudgetState
	Revision int64
}

// GetPendingState loads one group's snapshot together with its local
// revision, regardless of sync status.
func (r *SQLiteRepository) GetPendingState(ctx context.Context, key string) (PendingState, bool, error) {
	var (
		p   PendingState
		raw string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT group_key, state, revision FROM budget_states WHERE group_key = ?`, key).
		Scan(&p.GroupKey, &raw, &p.Revision)
	if err == sql.ErrNoRows {
		return PendingState{}, false, nil
	}
	if err != nil {
		return PendingState{}, false, fmt.Errorf("select pending state: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &p.State); err != nil {
		return PendingState{}, false, fmt.Errorf("decode state for %s: %w", key, err)
	}
	p.State = store.Normalize(p.State)
	return p, true, nil
}

// ListPendingSync returns groups whose local revision is ahead of the
// last revision pushed to the remote store. The sync worker uses this as
// a catch-up sweep for messages lost while the broker was down.
func (r *SQLiteRepository) ListPendingSync(ctx context.Context, limit int) ([]PendingState, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT group_key, state, revision
		FROM budget_states
		WHERE revision > synced_revision
		ORDER BY updated_at
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync: %w", err)
	}
	defer rows.Close()

	var pending []PendingState
	for rows.Next() {
		var (
			p   PendingState
			raw string
		)
		if err := rows.Scan(&p.GroupKey, &raw, &p.Revision); err != nil {
			return nil, fmt.Errorf("scan pending row: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &p.State); err != nil {
			return nil, fmt.Errorf("decode pending state for %s: %w", p.GroupKey, err)
		}
		p.State = store.Normalize(p.State)
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// MarkSynced records that the remote store holds at least the given
// revision. A stale revision never moves the marker backwards.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, key string, revision int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE budget_states
		SET synced_revision = ?
		WHERE group_key = ? AND synced_revision < ?`, revision, key, revision)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}
