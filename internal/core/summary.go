package core

// NetSummary is the compact "projected net" figure shown next to the
// forecast chart: the approximate net flow per month and per day implied
// by the recurring items alone. It is a display aid, not an input to the
// projection.
type NetSummary struct {
	MonthlyNet Money `json:"monthlyNet"`
	DailyNet   Money `json:"dailyNet"`
}

// Summarize scales every recurring item to a monthly figure and sums
// them, signed by kind. The amount is multiplied by the interval, with
// day and week units scaled by average month lengths (365/12 days,
// 52/12 weeks); the daily net is the monthly net over 30 days.
func Summarize(state BudgetState) NetSummary {
	var monthly int64
	for _, item := range state.RecurringItems {
		interval := int64(item.Interval)
		if interval < 1 {
			interval = 1
		}
		var rate int64
		switch item.Unit {
		case UnitDay:
			rate = item.Amount.Cents * interval * 365 / 12
		case UnitWeek:
			rate = item.Amount.Cents * interval * 52 / 12
		case UnitMonth:
			rate = item.Amount.Cents * interval
		case UnitYear:
			rate = item.Amount.Cents * interval / 12
		}
		if item.Kind == Debit {
			rate = -rate
		}
		monthly += rate
	}
	return NetSummary{
		MonthlyNet: Money{Cents: monthly},
		DailyNet:   Money{Cents: monthly / 30},
	}
}
