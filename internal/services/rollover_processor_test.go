package services

import (
	"context"
	"testing"
	"time"

	"saldo/internal/core"
	"saldo/internal/store/memory"
)

func TestProcessStaleGroups(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	service := NewBudgetService(store, nil)
	processor := NewRolloverProcessor(store, service)

	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	// Two stale groups, one current
	if _, err := service.SetStartingBalance(ctx, "g1", core.Money{Cents: 100}, march); err != nil {
		t.Fatalf("seed g1: %v", err)
	}
	if _, err := service.SetStartingBalance(ctx, "g2", core.Money{Cents: 200}, march); err != nil {
		t.Fatalf("seed g2: %v", err)
	}
	if _, err := service.SetStartingBalance(ctx, "g3", core.Money{Cents: 300}, april); err != nil {
		t.Fatalf("seed g3: %v", err)
	}

	rolled, err := processor.ProcessStaleGroups(ctx, april)
	if err != nil {
		t.Fatalf("ProcessStaleGroups() error = %v", err)
	}
	if rolled != 2 {
		t.Errorf("rolled = %d, want 2", rolled)
	}

	for _, g := range []string{"g1", "g2", "g3"} {
		state, found, err := store.LoadState(ctx, g)
		if err != nil || !found {
			t.Fatalf("LoadState(%s) = found %v, err %v", g, found, err)
		}
		if state.LastRolloverDate != "2024-04-01" {
			t.Errorf("%s LastRolloverDate = %q, want 2024-04-01", g, state.LastRolloverDate)
		}
	}

	// Second sweep is a no-op
	rolled, err = processor.ProcessStaleGroups(ctx, april)
	if err != nil {
		t.Fatalf("ProcessStaleGroups() error = %v", err)
	}
	if rolled != 0 {
		t.Errorf("second sweep rolled = %d, want 0", rolled)
	}
}

func TestProcessStaleGroups_Uninitialized(t *testing.T) {
	p := &RolloverProcessor{}
	if _, err := p.ProcessStaleGroups(context.Background(), time.Now()); err == nil {
		t.Error("expected error for uninitialized processor")
	}
}
