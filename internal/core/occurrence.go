package core

import "time"

// OccurrenceCount returns how many occurrences of item have happened at
// or before asOf. The occurrence on StartDate itself counts as the first,
// so the count is 1 when asOf equals StartDate. When the item carries an
// end date, asOf is clamped to it: occurrences never extend past the end.
//
// Month and year counting is by calendar boundary, not day-of-month: a
// monthly occurrence is counted for the whole month as soon as the month
// boundary is crossed. Changing that would silently shift every balance
// computed from existing documents, so it stays.
func OccurrenceCount(item RecurringItem, asOf time.Time) int {
	if item.EndDate != nil && asOf.After(item.EndDate.Time) {
		asOf = item.EndDate.Time
	}
	start := item.StartDate.Time
	if asOf.Before(start) {
		return 0
	}
	interval := item.Interval
	if interval < 1 {
		// never divide by a zero or negative interval
		interval = 1
	}

	switch item.Unit {
	case UnitDay:
		return wholeDays(start, asOf)/interval + 1
	case UnitWeek:
		return wholeDays(start, asOf)/(7*interval) + 1
	case UnitMonth:
		months := (asOf.Year()-start.Year())*12 + int(asOf.Month()) - int(start.Month())
		return months/interval + 1
	case UnitYear:
		return (asOf.Year()-start.Year())/interval + 1
	default:
		return 0
	}
}

// NextStartDate returns the date of the first occurrence strictly after
// every occurrence counted by OccurrenceCount(item, asOf). The rollover
// engine uses it to re-anchor an item after folding elapsed occurrences
// into the balance.
//
// Advancement goes through time.AddDate, so month arithmetic follows Go's
// normalization (Jan 31 plus one month lands in early March). That is the
// one policy used everywhere; it pairs with the boundary-based counting
// above.
func NextStartDate(item RecurringItem, asOf time.Time) Date {
	occ := OccurrenceCount(item, asOf)
	if occ == 0 {
		return item.StartDate
	}
	interval := item.Interval
	if interval < 1 {
		interval = 1
	}
	n := occ * interval

	t := item.StartDate.Time
	switch item.Unit {
	case UnitDay:
		t = t.AddDate(0, 0, n)
	case UnitWeek:
		t = t.AddDate(0, 0, 7*n)
	case UnitMonth:
		t = t.AddDate(0, n, 0)
	case UnitYear:
		t = t.AddDate(n, 0, 0)
	}
	return Date{Time: t}
}

func wholeDays(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
