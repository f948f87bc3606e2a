package core

import (
	"reflect"
	"testing"
)

func TestParseHorizon(t *testing.T) {
	cases := []struct {
		in   string
		want Horizon
		ok   bool
	}{
		{"7d", HorizonWeek, true},
		{"30d", HorizonMonth, true},
		{"3m", Horizon3Months, true},
		{"6m", Horizon6Months, true},
		{"12m", Horizon12Months, true},
		{"24m", Horizon24Months, true},
		{" 12M ", Horizon12Months, true},
		{"90d", Horizon{Resolution: ResolutionDay, Steps: 90}, true},
		{"0d", Horizon{}, false},
		{"-3m", Horizon{}, false},
		{"9999d", Horizon{}, false},
		{"12", Horizon{}, false},
		{"m", Horizon{}, false},
		{"", Horizon{}, false},
	}
	for _, tc := range cases {
		got, err := ParseHorizon(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q: expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestProjectFirstPointIsStartingBalance(t *testing.T) {
	state := BudgetState{
		StartingBalance: Money{Cents: 123456},
		RecurringItems: []RecurringItem{
			{StartDate: NewDate(2020, 1, 1), Amount: Money{Cents: 100000}, Kind: Credit, Interval: 1, Unit: UnitMonth},
		},
		Purchases: []OneOffPurchase{
			{ID: "p", Amount: Money{Cents: 500}, PlannedDate: NewDate(2020, 6, 1)},
		},
	}
	today := NewDate(2024, 4, 1).Time

	for _, h := range []Horizon{HorizonWeek, HorizonMonth, Horizon3Months, Horizon24Months} {
		points, err := Project(state, h, today)
		if err != nil {
			t.Fatalf("%v: %v", h, err)
		}
		if len(points) != h.Steps+1 {
			t.Fatalf("%v: expected %d points, got %d", h, h.Steps+1, len(points))
		}
		first := points[0]
		if !first.Date.Equal(today) || first.Value != state.StartingBalance {
			t.Fatalf("%v: first point = (%s, %s), want (today, %s)",
				h, first.Date.DateOnly(), first.Value, state.StartingBalance)
		}
		for i := 1; i < len(points); i++ {
			if !points[i].Date.After(points[i-1].Date.Time) {
				t.Fatalf("%v: points not ordered by date at index %d", h, i)
			}
		}
	}
}

func TestProjectCumulativeValues(t *testing.T) {
	// One credit of 10.00 per day starting today, one purchase of 5.00
	// two days out. Values restate the whole balance at each step.
	today := NewDate(2024, 4, 1).Time
	state := BudgetState{
		StartingBalance: Money{Cents: 10000},
		RecurringItems: []RecurringItem{
			{StartDate: Date{Time: today}, Amount: Money{Cents: 1000}, Kind: Credit, Interval: 1, Unit: UnitDay},
		},
		Purchases: []OneOffPurchase{
			{ID: "p", Amount: Money{Cents: 500}, PlannedDate: NewDate(2024, 4, 3)},
		},
	}

	points, err := Project(state, Horizon{Resolution: ResolutionDay, Steps: 4}, today)
	if err != nil {
		t.Fatalf("project: %v", err)
	}

	want := []int64{
		10000,        // today: starting balance only
		10000 + 2000, // Apr 2: occurrences on Apr 1 and Apr 2
		10000 + 2500, // Apr 3: three occurrences, purchase hits
		10000 + 3500, // Apr 4
		10000 + 4500, // Apr 5
	}
	for i, p := range points {
		if p.Value.Cents != want[i] {
			t.Errorf("point %d (%s): got %d cents, want %d", i, p.Label, p.Value.Cents, want[i])
		}
	}
}

func TestProjectDebitsReduceBalance(t *testing.T) {
	today := NewDate(2024, 1, 1).Time
	state := BudgetState{
		RecurringItems: []RecurringItem{
			{StartDate: Date{Time: today}, Amount: Money{Cents: 30000}, Kind: Debit, Interval: 1, Unit: UnitMonth},
		},
	}
	points, err := Project(state, Horizon3Months, today)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	// Feb 1: two boundary-counted occurrences (Jan, Feb).
	if points[1].Value.Cents != -60000 {
		t.Fatalf("expected -60000 at first month step, got %d", points[1].Value.Cents)
	}
	last := points[len(points)-1]
	if last.Value.Cents != -120000 {
		t.Fatalf("expected -120000 at horizon end, got %d", last.Value.Cents)
	}
}

func TestProjectIsDeterministic(t *testing.T) {
	state := BudgetState{
		StartingBalance: Money{Cents: 777},
		RecurringItems: []RecurringItem{
			{StartDate: NewDate(2024, 1, 15), Amount: Money{Cents: 2500}, Kind: Credit, Interval: 2, Unit: UnitWeek},
			{StartDate: NewDate(2024, 2, 1), Amount: Money{Cents: 900}, Kind: Debit, Interval: 1, Unit: UnitMonth},
		},
		Purchases: []OneOffPurchase{
			{ID: "p", Amount: Money{Cents: 1500}, PlannedDate: NewDate(2024, 8, 1)},
		},
	}
	today := NewDate(2024, 4, 1).Time

	a, err := Project(state, Horizon12Months, today)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	b, err := Project(state, Horizon12Months, today)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical inputs produced different series")
	}
}

func TestProjectLabels(t *testing.T) {
	today := NewDate(2024, 11, 28).Time
	state := EmptyState()

	daily, err := Project(state, Horizon{Resolution: ResolutionDay, Steps: 4}, today)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if daily[1].Label != "11/29" || daily[4].Label != "12/2" {
		t.Fatalf("daily labels wrong: %q, %q", daily[1].Label, daily[4].Label)
	}

	monthly, err := Project(state, Horizon{Resolution: ResolutionMonth, Steps: 2}, today)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if monthly[1].Label != "12/24" || monthly[2].Label != "1/25" {
		t.Fatalf("monthly labels wrong: %q, %q", monthly[1].Label, monthly[2].Label)
	}
}

func TestSummarize(t *testing.T) {
	state := BudgetState{
		RecurringItems: []RecurringItem{
			{Amount: Money{Cents: 300000}, Kind: Credit, Interval: 1, Unit: UnitMonth},
			{Amount: Money{Cents: 60000}, Kind: Debit, Interval: 2, Unit: UnitMonth},
			{Amount: Money{Cents: 120000}, Kind: Debit, Interval: 1, Unit: UnitYear},
		},
	}
	got := Summarize(state)
	// 300000 - 60000*2 - 120000/12
	if got.MonthlyNet.Cents != 170000 {
		t.Fatalf("monthly net: got %d, want 170000", got.MonthlyNet.Cents)
	}
	if got.DailyNet.Cents != 170000/30 {
		t.Fatalf("daily net: got %d", got.DailyNet.Cents)
	}
}

func TestSummarizeScalesWeeklyItems(t *testing.T) {
	state := BudgetState{
		RecurringItems: []RecurringItem{
			{Amount: Money{Cents: 1200}, Kind: Credit, Interval: 1, Unit: UnitWeek},
		},
	}
	got := Summarize(state)
	if want := int64(1200) * 52 / 12; got.MonthlyNet.Cents != want {
		t.Fatalf("monthly net: got %d, want %d", got.MonthlyNet.Cents, want)
	}
}
