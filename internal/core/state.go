package core

// EmptyState is the snapshot a group starts from: zero balance, no
// items, no purchases, never rolled over.
func EmptyState() BudgetState {
	return BudgetState{
		RecurringItems: []RecurringItem{},
		Purchases:      []OneOffPurchase{},
	}
}

// Clone returns a deep copy; the receiver's slices are never shared.
func (s BudgetState) Clone() BudgetState {
	out := s
	out.RecurringItems = make([]RecurringItem, len(s.RecurringItems))
	copy(out.RecurringItems, s.RecurringItems)
	out.Purchases = make([]OneOffPurchase, len(s.Purchases))
	copy(out.Purchases, s.Purchases)
	return out
}

// UpsertRecurringItem returns a new state with the item added, or
// replaced in place when an item with the same ID already exists.
// Display order of untouched items is preserved.
func (s BudgetState) UpsertRecurringItem(item RecurringItem) BudgetState {
	out := s.Clone()
	for i, existing := range out.RecurringItems {
		if existing.ID == item.ID {
			out.RecurringItems[i] = item
			return out
		}
	}
	out.RecurringItems = append(out.RecurringItems, item)
	return out
}

// RemoveRecurringItem returns a new state without the identified item.
// The second return value tells whether the item was present.
func (s BudgetState) RemoveRecurringItem(id string) (BudgetState, bool) {
	out := s.Clone()
	for i, existing := range out.RecurringItems {
		if existing.ID == id {
			out.RecurringItems = append(out.RecurringItems[:i], out.RecurringItems[i+1:]...)
			return out, true
		}
	}
	return out, false
}

// UpsertPurchase returns a new state with the purchase added or replaced
// by ID.
func (s BudgetState) UpsertPurchase(p OneOffPurchase) BudgetState {
	out := s.Clone()
	for i, existing := range out.Purchases {
		if existing.ID == p.ID {
			out.Purchases[i] = p
			return out
		}
	}
	out.Purchases = append(out.Purchases, p)
	return out
}

// RemovePurchase returns a new state without the identified purchase.
func (s BudgetState) RemovePurchase(id string) (BudgetState, bool) {
	out := s.Clone()
	for i, existing := range out.Purchases {
		if existing.ID == id {
			out.Purchases = append(out.Purchases[:i], out.Purchases[i+1:]...)
			return out, true
		}
	}
	return out, false
}

// WithStartingBalance returns a new state with the balance replaced.
func (s BudgetState) WithStartingBalance(m Money) BudgetState {
	out := s.Clone()
	out.StartingBalance = m
	return out
}
