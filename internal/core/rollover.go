package core

import "time"

// IsCurrent reports whether state has already been rolled over for the
// calendar day of today. A current state is terminal for the day: the
// rollover engine leaves it untouched.
func IsCurrent(state BudgetState, today time.Time) bool {
	return state.LastRolloverDate == today.Format(time.DateOnly)
}

// Rollover folds every elapsed occurrence and purchase into the starting
// balance and advances state to today. On a current state it is a no-op,
// which makes repeated same-day invocations safe.
//
// A state stale by many days is caught up in this single pass: the
// occurrence calculator folds arbitrarily many elapsed occurrences at
// once, so the result equals running one rollover per intervening day.
//
// The result for a stale state:
//   - starting balance absorbs occurrenceCount x amount (signed by kind)
//     for every item, and subtracts every purchase planned at or before
//     today
//   - each item's start date advances past the folded occurrences; items
//     with no future occurrence left before their end date are dropped
//   - purchases planned at or before today are dropped
//   - the rollover stamp becomes today's date
func Rollover(state BudgetState, today time.Time) BudgetState {
	if IsCurrent(state, today) {
		return state
	}

	cents := state.StartingBalance.Cents

	items := make([]RecurringItem, 0, len(state.RecurringItems))
	for _, item := range state.RecurringItems {
		occ := OccurrenceCount(item, today)
		delta := int64(occ) * item.Amount.Cents
		if item.Kind == Debit {
			delta = -delta
		}
		cents += delta

		next := NextStartDate(item, today)
		if item.EndDate != nil && next.After(item.EndDate.Time) {
			// fully elapsed, nothing left to forecast
			continue
		}
		item.StartDate = next
		items = append(items, item)
	}

	purchases := make([]OneOffPurchase, 0, len(state.Purchases))
	for _, p := range state.Purchases {
		if p.PlannedDate.After(today) {
			purchases = append(purchases, p)
			continue
		}
		cents -= p.Amount.Cents
	}

	return BudgetState{
		StartingBalance:  Money{Cents: cents},
		RecurringItems:   items,
		Purchases:        purchases,
		LastRolloverDate: today.Format(time.DateOnly),
	}
}
