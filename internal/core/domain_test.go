package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01-01T00:00:00Z", true},
		{"2024-01-01T09:30:00+02:00", true},
		{"2024-01-01T09:30:00", true},
		{"2024-01-01", true},
		{" 2024-01-01 ", true},
		{"01/02/2024", false},
		{"not a date", false},
		{"", false},
	}
	for _, tc := range cases {
		_, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q expected ok, got %v", tc.in, err)
		}
		if !tc.ok {
			if !errors.Is(err, ErrMalformedDate) {
				t.Fatalf("%q expected ErrMalformedDate, got %v", tc.in, err)
			}
		}
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, 2, 29)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("round trip mismatch: %v != %v", back, d)
	}

	var bad Date
	if err := json.Unmarshal([]byte(`"02-29-2024"`), &bad); !errors.Is(err, ErrMalformedDate) {
		t.Fatalf("expected ErrMalformedDate, got %v", err)
	}
}

func TestRecurringItemValidate(t *testing.T) {
	end := NewDate(2025, 1, 1)
	good := RecurringItem{
		ID:        "r1",
		Title:     "Rent",
		Amount:    Money{Cents: 120000},
		Kind:      Debit,
		StartDate: NewDate(2024, 1, 1),
		Interval:  1,
		Unit:      UnitMonth,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	withEnd := good
	withEnd.EndDate = &end
	if err := withEnd.Validate(); err != nil {
		t.Fatalf("expected ok with end date, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*RecurringItem)
		want   error
	}{
		{"empty id", func(ri *RecurringItem) { ri.ID = " " }, ErrEmptyID},
		{"empty title", func(ri *RecurringItem) { ri.Title = "" }, ErrEmptyTitle},
		{"title too long", func(ri *RecurringItem) { ri.Title = strings.Repeat("a", 201) }, ErrTitleTooLong},
		{"negative amount", func(ri *RecurringItem) { ri.Amount = Money{Cents: -1} }, ErrInvalidAmount},
		{"bad kind", func(ri *RecurringItem) { ri.Kind = "transfer" }, ErrInvalidKind},
		{"zero start", func(ri *RecurringItem) { ri.StartDate = Date{Time: time.Time{}} }, nil},
		{"zero interval", func(ri *RecurringItem) { ri.Interval = 0 }, ErrInvalidInterval},
		{"negative interval", func(ri *RecurringItem) { ri.Interval = -2 }, ErrInvalidInterval},
		{"bad unit", func(ri *RecurringItem) { ri.Unit = "fortnight" }, ErrInvalidUnit},
		{"end before start", func(ri *RecurringItem) {
			e := NewDate(2023, 12, 31)
			ri.EndDate = &e
		}, ErrEndBeforeStart},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item := good
			tc.mutate(&item)
			err := item.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestOneOffPurchaseValidate(t *testing.T) {
	good := OneOffPurchase{
		ID:          "p1",
		Title:       "Laptop",
		Amount:      Money{Cents: 150000},
		PlannedDate: NewDate(2024, 6, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []OneOffPurchase{
		{ID: "", Title: "a", Amount: Money{Cents: 1}, PlannedDate: NewDate(2024, 6, 1)},
		{ID: "p", Title: " ", Amount: Money{Cents: 1}, PlannedDate: NewDate(2024, 6, 1)},
		{ID: "p", Title: strings.Repeat("a", 201), Amount: Money{Cents: 1}, PlannedDate: NewDate(2024, 6, 1)},
		{ID: "p", Title: "a", Amount: Money{Cents: -1}, PlannedDate: NewDate(2024, 6, 1)},
		{ID: "p", Title: "a", Amount: Money{Cents: 1}, PlannedDate: Date{Time: time.Time{}}},
	}
	for i, p := range bads {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBudgetStateJSONShape(t *testing.T) {
	end := NewDate(2024, 12, 31)
	state := BudgetState{
		StartingBalance: Money{Cents: 50000},
		RecurringItems: []RecurringItem{{
			ID:        "r1",
			Title:     "Salary",
			Amount:    Money{Cents: 300000},
			Kind:      Credit,
			StartDate: NewDate(2024, 1, 1),
			EndDate:   &end,
			Interval:  1,
			Unit:      UnitMonth,
		}},
		Purchases: []OneOffPurchase{{
			ID:          "p1",
			Title:       "Bike",
			Amount:      Money{Cents: 40000},
			PlannedDate: NewDate(2024, 5, 1),
		}},
		LastRolloverDate: "2024-01-15",
	}

	b, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal into map: %v", err)
	}
	for _, field := range []string{"startingBalance", "recurringItems", "purchases", "lastRolloverDate"} {
		if _, ok := decoded[field]; !ok {
			t.Fatalf("missing field %q in %s", field, b)
		}
	}
	if decoded["startingBalance"] != 500.0 {
		t.Fatalf("startingBalance should be a plain number, got %v", decoded["startingBalance"])
	}

	var back BudgetState
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.StartingBalance.Cents != 50000 || len(back.RecurringItems) != 1 || len(back.Purchases) != 1 {
		t.Fatalf("round trip mismatch: %+v", back)
	}
	if back.RecurringItems[0].EndDate == nil {
		t.Fatalf("end date lost in round trip")
	}
	if back.LastRolloverDate != "2024-01-15" {
		t.Fatalf("lastRolloverDate mismatch: %q", back.LastRolloverDate)
	}
}

func TestEmptyStateOmitsRolloverDate(t *testing.T) {
	b, err := json.Marshal(EmptyState())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["lastRolloverDate"]; ok {
		t.Fatalf("never-rolled-over state must omit lastRolloverDate: %s", b)
	}
}
