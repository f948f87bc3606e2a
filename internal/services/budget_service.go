package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"saldo/internal/amqp"
	"saldo/internal/core"
	applog "saldo/internal/log"
	"saldo/internal/store"
)

var (
	ErrItemNotFound     = errors.New("recurring item not found")
	ErrPurchaseNotFound = errors.New("purchase not found")
)

// BudgetService orchestrates budget state operations across the local
// store and AMQP. Every write goes to the store first; the sync message
// is best effort and never fails the request.
type BudgetService struct {
	store      store.StateStore
	amqpClient *amqp.Client
	logs       *applog.StructuredLogger
	rollovers  singleflight.Group
}

func NewBudgetService(stateStore store.StateStore, amqpClient *amqp.Client) *BudgetService {
	cfg := applog.DefaultConfig()
	cfg.Component = applog.ComponentBudget
	return &BudgetService{
		store:      stateStore,
		amqpClient: amqpClient,
		logs:       applog.NewStructuredLogger(applog.New(cfg)),
	}
}

// CurrentState returns the group's state rolled over to today. An
// unknown group yields an empty state stamped with today, without
// persisting anything.
func (s *BudgetService) CurrentState(ctx context.Context, groupKey string, today time.Time) (core.BudgetState, error) {
	state, found, err := s.store.LoadState(ctx, groupKey)
	if err != nil {
		return core.BudgetState{}, fmt.Errorf("load state: %w", err)
	}
	if !found {
		return core.Rollover(core.EmptyState(), today), nil
	}
	if core.IsCurrent(state, today) {
		return state, nil
	}
	return s.rollOverShared(ctx, groupKey, today)
}

// EnsureCurrent rolls the group over to today if it is stale. It
// reports whether a rollover was applied.
func (s *BudgetService) EnsureCurrent(ctx context.Context, groupKey string, today time.Time) (bool, error) {
	state, found, err := s.store.LoadState(ctx, groupKey)
	if err != nil {
		return false, fmt.Errorf("load state: %w", err)
	}
	if !found || core.IsCurrent(state, today) {
		return false, nil
	}
	if _, err := s.rollOverShared(ctx, groupKey, today); err != nil {
		return false, err
	}
	return true, nil
}

// rollOverShared collapses concurrent rollovers of the same group and
// day into a single load-roll-save pass.
func (s *BudgetService) rollOverShared(ctx context.Context, groupKey string, today time.Time) (core.BudgetState, error) {
	key := groupKey + "@" + today.Format(time.DateOnly)
	v, err, _ := s.rollovers.Do(key, func() (any, error) {
		// Re-load inside the flight: a concurrent caller may have
		// already saved the rolled state.
		state, found, err := s.store.LoadState(ctx, groupKey)
		if err != nil {
			return nil, fmt.Errorf("load state: %w", err)
		}
		if !found {
			return core.Rollover(core.EmptyState(), today), nil
		}
		if core.IsCurrent(state, today) {
			return state, nil
		}

		rolled := core.Rollover(state, today)
		revision, err := s.store.SaveState(ctx, groupKey, rolled)
		if err != nil {
			return nil, fmt.Errorf("save rolled state: %w", err)
		}

		s.logs.LogRolloverApplied(ctx, groupKey, rolled.LastRolloverDate, revision)

		s.publishSync(ctx, groupKey, revision)
		return rolled, nil
	})
	if err != nil {
		return core.BudgetState{}, err
	}
	return v.(core.BudgetState), nil
}

// Forecast projects the group's balance over the horizon, rolling the
// state over first so the projection starts from today's balance.
func (s *BudgetService) Forecast(ctx context.Context, groupKey string, horizon core.Horizon, today time.Time) ([]core.ForecastPoint, error) {
	if err := horizon.Validate(); err != nil {
		return nil, err
	}
	state, err := s.CurrentState(ctx, groupKey, today)
	if err != nil {
		return nil, err
	}
	return core.Project(state, horizon, today)
}

// Summary returns the approximate monthly and daily net of the group's
// recurring items.
func (s *BudgetService) Summary(ctx context.Context, groupKey string, today time.Time) (core.NetSummary, error) {
	state, err := s.CurrentState(ctx, groupKey, today)
	if err != nil {
		return core.NetSummary{}, err
	}
	return core.Summarize(state), nil
}

// AddItem validates and upserts a recurring item.
func (s *BudgetService) AddItem(ctx context.Context, groupKey string, item core.RecurringItem, today time.Time) (core.BudgetState, error) {
	if err := item.Validate(); err != nil {
		return core.BudgetState{}, err
	}
	return s.mutate(ctx, groupKey, today, func(state core.BudgetState) (core.BudgetState, error) {
		return state.UpsertRecurringItem(item), nil
	})
}

// UpdateItem replaces an existing recurring item.
func (s *BudgetService) UpdateItem(ctx context.Context, groupKey string, item core.RecurringItem, today time.Time) (core.BudgetState, error) {
	if err := item.Validate(); err != nil {
		return core.BudgetState{}, err
	}
	return s.mutate(ctx, groupKey, today, func(state core.BudgetState) (core.BudgetState, error) {
		if !hasItem(state, item.ID) {
			return core.BudgetState{}, ErrItemNotFound
		}
		return state.UpsertRecurringItem(item), nil
	})
}

// DeleteItem removes a recurring item by ID.
func (s *BudgetService) DeleteItem(ctx context.Context, groupKey, itemID string, today time.Time) (core.BudgetState, error) {
	return s.mutate(ctx, groupKey, today, func(state core.BudgetState) (core.BudgetState, error) {
		next, removed := state.RemoveRecurringItem(itemID)
		if !removed {
			return core.BudgetState{}, ErrItemNotFound
		}
		return next, nil
	})
}

// AddPurchase validates and upserts a one-off purchase.
func (s *BudgetService) AddPurchase(ctx context.Context, groupKey string, purchase core.OneOffPurchase, today time.Time) (core.BudgetState, error) {
	if err := purchase.Validate(); err != nil {
		return core.BudgetState{}, err
	}
	return s.mutate(ctx, groupKey, today, func(state core.BudgetState) (core.BudgetState, error) {
		return state.UpsertPurchase(purchase), nil
	})
}

// DeletePurchase removes a one-off purchase by ID.
func (s *BudgetService) DeletePurchase(ctx context.Context, groupKey, purchaseID string, today time.Time) (core.BudgetState, error) {
	return s.mutate(ctx, groupKey, today, func(state core.BudgetState) (core.BudgetState, error) {
		next, removed := state.RemovePurchase(purchaseID)
		if !removed {
			return core.BudgetState{}, ErrPurchaseNotFound
		}
		return next, nil
	})
}

// SetStartingBalance overwrites the group's starting balance.
func (s *BudgetService) SetStartingBalance(ctx context.Context, groupKey string, balance core.Money, today time.Time) (core.BudgetState, error) {
	return s.mutate(ctx, groupKey, today, func(state core.BudgetState) (core.BudgetState, error) {
		return state.WithStartingBalance(balance), nil
	})
}

// mutate loads the state, rolls it over to today, applies the edit and
// saves the result, then publishes a sync message.
func (s *BudgetService) mutate(ctx context.Context, groupKey string, today time.Time, edit func(core.BudgetState) (core.BudgetState, error)) (core.BudgetState, error) {
	state, found, err := s.store.LoadState(ctx, groupKey)
	if err != nil {
		return core.BudgetState{}, fmt.Errorf("load state: %w", err)
	}
	if !found {
		state = core.EmptyState()
	}
	if !core.IsCurrent(state, today) {
		state = core.Rollover(state, today)
	}

	next, err := edit(state)
	if err != nil {
		return core.BudgetState{}, err
	}

	revision, err := s.store.SaveState(ctx, groupKey, next)
	if err != nil {
		return core.BudgetState{}, fmt.Errorf("save state: %w", err)
	}

	s.logs.LogStateSaved(ctx, groupKey, revision)
	s.publishSync(ctx, groupKey, revision)
	return next, nil
}

func hasItem(state core.BudgetState, itemID string) bool {
	for _, item := range state.RecurringItems {
		if item.ID == itemID {
			return true
		}
	}
	return false
}

func (s *BudgetService) publishSync(ctx context.Context, groupKey string, revision int64) {
	if s.amqpClient == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping sync message", "group", groupKey)
		return
	}
	if err := s.amqpClient.PublishStateSync(ctx, groupKey, revision); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"group", groupKey,
			"revision", revision,
			"error", err)
		// Don't fail the request, the state is saved locally
	}
}

// Close closes the AMQP connection. The store's lifecycle belongs to
// the backend that created it.
func (s *BudgetService) Close() error {
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			return fmt.Errorf("close amqp client: %w", err)
		}
	}
	return nil
}
