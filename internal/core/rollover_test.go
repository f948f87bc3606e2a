package core

import (
	"reflect"
	"testing"
)

func TestRolloverFoldsMonthlyCredit(t *testing.T) {
	// Item worth 1000.00 monthly from Jan 1; rolling over on Apr 1
	// folds four occurrences and re-anchors the item on May 1.
	state := BudgetState{
		RecurringItems: []RecurringItem{{
			ID:        "r1",
			Title:     "Salary",
			Amount:    Money{Cents: 100000},
			Kind:      Credit,
			StartDate: NewDate(2024, 1, 1),
			Interval:  1,
			Unit:      UnitMonth,
		}},
	}
	today := NewDate(2024, 4, 1).Time

	out := Rollover(state, today)

	if out.StartingBalance.Cents != 400000 {
		t.Fatalf("starting balance: got %d, want 400000", out.StartingBalance.Cents)
	}
	if len(out.RecurringItems) != 1 {
		t.Fatalf("expected item kept, got %d items", len(out.RecurringItems))
	}
	if got := out.RecurringItems[0].StartDate; !got.Equal(NewDate(2024, 5, 1).Time) {
		t.Fatalf("new start date: got %s, want 2024-05-01", got.DateOnly())
	}
	if out.LastRolloverDate != "2024-04-01" {
		t.Fatalf("rollover stamp: got %q", out.LastRolloverDate)
	}
	// Untouched fields survive the re-anchor.
	if out.RecurringItems[0].Title != "Salary" || out.RecurringItems[0].Amount.Cents != 100000 {
		t.Fatalf("item fields changed: %+v", out.RecurringItems[0])
	}
}

func TestRolloverFoldsElapsedPurchase(t *testing.T) {
	state := BudgetState{
		StartingBalance: Money{Cents: 100000},
		Purchases: []OneOffPurchase{
			{ID: "p1", Title: "Chair", Amount: Money{Cents: 50000}, PlannedDate: NewDate(2024, 2, 15)},
			{ID: "p2", Title: "Desk", Amount: Money{Cents: 30000}, PlannedDate: NewDate(2024, 9, 1)},
		},
	}
	today := NewDate(2024, 4, 1).Time

	out := Rollover(state, today)

	if out.StartingBalance.Cents != 50000 {
		t.Fatalf("starting balance: got %d, want 50000", out.StartingBalance.Cents)
	}
	if len(out.Purchases) != 1 || out.Purchases[0].ID != "p2" {
		t.Fatalf("expected only the future purchase to remain: %+v", out.Purchases)
	}
}

func TestRolloverPurchaseOnTodayIsElapsed(t *testing.T) {
	today := NewDate(2024, 4, 1)
	state := BudgetState{
		Purchases: []OneOffPurchase{
			{ID: "p", Amount: Money{Cents: 100}, PlannedDate: today},
		},
	}
	out := Rollover(state, today.Time)
	if len(out.Purchases) != 0 {
		t.Fatalf("purchase planned today must be folded")
	}
	if out.StartingBalance.Cents != -100 {
		t.Fatalf("starting balance: got %d, want -100", out.StartingBalance.Cents)
	}
}

func TestRolloverDropsEndedItem(t *testing.T) {
	end := NewDate(2024, 3, 1)
	state := BudgetState{
		RecurringItems: []RecurringItem{{
			ID:        "r1",
			Amount:    Money{Cents: 10000},
			Kind:      Credit,
			StartDate: NewDate(2024, 1, 1),
			EndDate:   &end,
			Interval:  1,
			Unit:      UnitMonth,
		}},
	}
	today := NewDate(2024, 6, 1).Time

	out := Rollover(state, today)

	// Occurrences clamp at the end date: Jan, Feb, Mar.
	if out.StartingBalance.Cents != 30000 {
		t.Fatalf("starting balance: got %d, want 30000", out.StartingBalance.Cents)
	}
	if len(out.RecurringItems) != 0 {
		t.Fatalf("fully elapsed item must be dropped: %+v", out.RecurringItems)
	}
}

func TestRolloverKeepsFutureItemUntouched(t *testing.T) {
	state := BudgetState{
		RecurringItems: []RecurringItem{{
			ID:        "r1",
			Amount:    Money{Cents: 10000},
			Kind:      Debit,
			StartDate: NewDate(2025, 1, 1),
			Interval:  1,
			Unit:      UnitMonth,
		}},
	}
	out := Rollover(state, NewDate(2024, 4, 1).Time)

	if out.StartingBalance.Cents != 0 {
		t.Fatalf("future item must not fold: %d", out.StartingBalance.Cents)
	}
	if len(out.RecurringItems) != 1 || !out.RecurringItems[0].StartDate.Equal(NewDate(2025, 1, 1).Time) {
		t.Fatalf("future item must keep its start date: %+v", out.RecurringItems)
	}
}

func TestRolloverIsIdempotent(t *testing.T) {
	state := BudgetState{
		StartingBalance: Money{Cents: 5000},
		RecurringItems: []RecurringItem{
			{ID: "a", Amount: Money{Cents: 1000}, Kind: Credit, StartDate: NewDate(2024, 1, 1), Interval: 1, Unit: UnitDay},
			{ID: "b", Amount: Money{Cents: 2500}, Kind: Debit, StartDate: NewDate(2024, 2, 1), Interval: 1, Unit: UnitMonth},
		},
		Purchases: []OneOffPurchase{
			{ID: "p", Amount: Money{Cents: 700}, PlannedDate: NewDate(2024, 3, 15)},
		},
	}
	today := NewDate(2024, 4, 1).Time

	once := Rollover(state, today)
	twice := Rollover(once, today)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("second same-day rollover changed state:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestRolloverCatchUpEquivalence(t *testing.T) {
	// Rolling over a state stale by K days in one call must match
	// folding K single-day rollovers in sequence.
	base := BudgetState{
		StartingBalance: Money{Cents: 10000},
		RecurringItems: []RecurringItem{
			{ID: "a", Amount: Money{Cents: 300}, Kind: Credit, StartDate: NewDate(2024, 3, 1), Interval: 1, Unit: UnitDay},
			{ID: "b", Amount: Money{Cents: 500}, Kind: Debit, StartDate: NewDate(2024, 3, 2), Interval: 2, Unit: UnitDay},
			{ID: "c", Amount: Money{Cents: 900}, Kind: Credit, StartDate: NewDate(2024, 3, 4), Interval: 1, Unit: UnitWeek},
		},
		Purchases: []OneOffPurchase{
			{ID: "p", Amount: Money{Cents: 1200}, PlannedDate: NewDate(2024, 3, 5)},
		},
	}
	start := NewDate(2024, 3, 1).Time

	for k := 1; k <= 14; k++ {
		target := start.AddDate(0, 0, k)

		single := Rollover(base, target)

		stepped := base
		for d := start; !d.After(target); d = d.AddDate(0, 0, 1) {
			stepped = Rollover(stepped, d)
		}

		if single.StartingBalance != stepped.StartingBalance {
			t.Fatalf("k=%d: single-pass balance %d != stepped balance %d",
				k, single.StartingBalance.Cents, stepped.StartingBalance.Cents)
		}
		if !reflect.DeepEqual(single.Purchases, stepped.Purchases) {
			t.Fatalf("k=%d: purchases diverge", k)
		}
	}
}

func TestRolloverCurrentStateIsNoOp(t *testing.T) {
	today := NewDate(2024, 4, 1).Time
	state := BudgetState{
		StartingBalance:  Money{Cents: 42},
		RecurringItems:   []RecurringItem{{ID: "a", Amount: Money{Cents: 100}, Kind: Credit, StartDate: NewDate(2024, 1, 1), Interval: 1, Unit: UnitDay}},
		LastRolloverDate: "2024-04-01",
	}
	out := Rollover(state, today)
	if !reflect.DeepEqual(out, state) {
		t.Fatalf("current state must pass through unchanged")
	}
	if IsCurrent(state, today) != true {
		t.Fatalf("IsCurrent should report true")
	}
	if IsCurrent(state, NewDate(2024, 4, 2).Time) {
		t.Fatalf("IsCurrent should report false the next day")
	}
}

func TestStateEditsArePure(t *testing.T) {
	orig := EmptyState()
	item := RecurringItem{ID: "r1", Title: "Gym", Amount: Money{Cents: 4000}, Kind: Debit, StartDate: NewDate(2024, 1, 1), Interval: 1, Unit: UnitMonth}

	withItem := orig.UpsertRecurringItem(item)
	if len(orig.RecurringItems) != 0 {
		t.Fatalf("original state mutated by upsert")
	}
	if len(withItem.RecurringItems) != 1 {
		t.Fatalf("item not added")
	}

	item.Amount = Money{Cents: 4500}
	replaced := withItem.UpsertRecurringItem(item)
	if replaced.RecurringItems[0].Amount.Cents != 4500 || withItem.RecurringItems[0].Amount.Cents != 4000 {
		t.Fatalf("upsert by id must replace in the copy only")
	}

	removed, found := replaced.RemoveRecurringItem("r1")
	if !found || len(removed.RecurringItems) != 0 {
		t.Fatalf("remove failed")
	}
	if _, found := removed.RemoveRecurringItem("missing"); found {
		t.Fatalf("remove of unknown id must report absence")
	}

	p := OneOffPurchase{ID: "p1", Title: "TV", Amount: Money{Cents: 80000}, PlannedDate: NewDate(2024, 8, 1)}
	withPurchase := orig.UpsertPurchase(p)
	if len(withPurchase.Purchases) != 1 || len(orig.Purchases) != 0 {
		t.Fatalf("purchase upsert wrong")
	}
	gone, found := withPurchase.RemovePurchase("p1")
	if !found || len(gone.Purchases) != 0 {
		t.Fatalf("purchase remove wrong")
	}

	balanced := orig.WithStartingBalance(Money{Cents: 999})
	if balanced.StartingBalance.Cents != 999 || orig.StartingBalance.Cents != 0 {
		t.Fatalf("balance edit wrong")
	}
}
