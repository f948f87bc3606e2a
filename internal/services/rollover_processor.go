package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"saldo/internal/store"
)

// RolloverProcessor sweeps all known groups and rolls stale states over
// to the current day. The HTTP path rolls on demand; the sweep catches
// groups nobody has looked at today.
type RolloverProcessor struct {
	lister  store.GroupLister
	service *BudgetService
}

func NewRolloverProcessor(lister store.GroupLister, service *BudgetService) *RolloverProcessor {
	return &RolloverProcessor{
		lister:  lister,
		service: service,
	}
}

// ProcessStaleGroups rolls every stale group over to now's calendar day
// and returns how many groups were advanced. Failures on one group do
// not stop the sweep.
func (p *RolloverProcessor) ProcessStaleGroups(ctx context.Context, now time.Time) (int, error) {
	if p.lister == nil || p.service == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	groups, err := p.lister.ListGroups(ctx)
	if err != nil {
		return 0, fmt.Errorf("list groups: %w", err)
	}

	slog.InfoContext(ctx, "Processing rollover sweep",
		"total_groups", len(groups),
		"processing_date", now.Format(time.DateOnly))

	rolledCount := 0
	for _, groupKey := range groups {
		rolled, err := p.service.EnsureCurrent(ctx, groupKey, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to roll group over",
				"group", groupKey,
				"error", err)
			continue
		}
		if rolled {
			rolledCount++
		}
	}

	slog.InfoContext(ctx, "Rollover sweep complete",
		"rolled", rolledCount,
		"total_checked", len(groups))

	return rolledCount, nil
}
