package store

import "saldo/internal/core"

// Legacy documents predate several schema additions: startingBalance and
// lastRolloverDate were introduced later, old items carried spelled-out
// units ("monthly") and income/expense kinds, and interval did not exist
// at all. Normalize applies the current-schema defaults so the core only
// ever sees a fully populated snapshot.
func Normalize(state core.BudgetState) core.BudgetState {
	out := state.Clone()
	if out.RecurringItems == nil {
		out.RecurringItems = []core.RecurringItem{}
	}
	if out.Purchases == nil {
		out.Purchases = []core.OneOffPurchase{}
	}
	for i := range out.RecurringItems {
		item := &out.RecurringItems[i]
		item.Unit = normalizeUnit(item.Unit)
		item.Kind = normalizeKind(item.Kind)
		if item.Interval < 1 {
			item.Interval = 1
		}
		if item.Amount.Cents < 0 {
			item.Amount.Cents = -item.Amount.Cents
		}
	}
	for i := range out.Purchases {
		if out.Purchases[i].Amount.Cents < 0 {
			out.Purchases[i].Amount.Cents = -out.Purchases[i].Amount.Cents
		}
	}
	return out
}

func normalizeUnit(u core.Unit) core.Unit {
	switch u {
	case core.UnitDay, core.UnitWeek, core.UnitMonth, core.UnitYear:
		return u
	case "daily":
		return core.UnitDay
	case "weekly":
		return core.UnitWeek
	case "monthly":
		return core.UnitMonth
	case "yearly":
		return core.UnitYear
	default:
		// oldest documents had no unit field; they were monthly
		return core.UnitMonth
	}
}

func normalizeKind(k core.Kind) core.Kind {
	switch k {
	case core.Credit, core.Debit:
		return k
	case "income":
		return core.Credit
	case "expense":
		return core.Debit
	default:
		return core.Debit
	}
}
