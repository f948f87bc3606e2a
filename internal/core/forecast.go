package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	ResolutionDay   Resolution = "day"
	ResolutionMonth Resolution = "month"
)

// MaxForecastSteps bounds a single projection; beyond two years of daily
// points the chart is unreadable anyway.
const MaxForecastSteps = 732

type (
	// Resolution is the step size of a forecast horizon.
	Resolution string

	// Horizon is the forward window of a forecast: Steps points at the
	// given Resolution past today.
	Horizon struct {
		Resolution Resolution
		Steps      int
	}

	// ForecastPoint is one projected balance value. Value restates the
	// full balance at Date, not a delta from the previous point.
	ForecastPoint struct {
		Label string `json:"label"`
		Date  Date   `json:"date"`
		Value Money  `json:"value"`
	}
)

// Preset horizons matching the pickers the clients expose.
var (
	HorizonWeek     = Horizon{Resolution: ResolutionDay, Steps: 7}
	HorizonMonth    = Horizon{Resolution: ResolutionDay, Steps: 30}
	Horizon3Months  = Horizon{Resolution: ResolutionMonth, Steps: 3}
	Horizon6Months  = Horizon{Resolution: ResolutionMonth, Steps: 6}
	Horizon12Months = Horizon{Resolution: ResolutionMonth, Steps: 12}
	Horizon24Months = Horizon{Resolution: ResolutionMonth, Steps: 24}
)

var ErrInvalidHorizon = errors.New("invalid horizon")

// ParseHorizon parses a compact horizon spec such as "7d", "30d" or
// "12m".
func ParseHorizon(s string) (Horizon, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 2 {
		return Horizon{}, ErrInvalidHorizon
	}
	var res Resolution
	switch s[len(s)-1] {
	case 'd':
		res = ResolutionDay
	case 'm':
		res = ResolutionMonth
	default:
		return Horizon{}, ErrInvalidHorizon
	}
	steps, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return Horizon{}, ErrInvalidHorizon
	}
	h := Horizon{Resolution: res, Steps: steps}
	return h, h.Validate()
}

func (h Horizon) Validate() error {
	if h.Steps < 1 || h.Steps > MaxForecastSteps {
		return ErrInvalidHorizon
	}
	switch h.Resolution {
	case ResolutionDay, ResolutionMonth:
		return nil
	default:
		return ErrInvalidHorizon
	}
}

// String renders the compact form accepted by ParseHorizon.
func (h Horizon) String() string {
	suffix := "d"
	if h.Resolution == ResolutionMonth {
		suffix = "m"
	}
	return strconv.Itoa(h.Steps) + suffix
}

// Project builds the projected balance series for state over the given
// horizon. It returns Steps+1 points: the first is (today,
// startingBalance), each later point i restates the full balance at
// today advanced by i units. The function is pure; identical inputs
// yield an identical series.
func Project(state BudgetState, horizon Horizon, today time.Time) ([]ForecastPoint, error) {
	if err := horizon.Validate(); err != nil {
		return nil, err
	}

	points := make([]ForecastPoint, 0, horizon.Steps+1)
	points = append(points, ForecastPoint{
		Label: stepLabel(horizon.Resolution, today),
		Date:  Date{Time: today},
		Value: state.StartingBalance,
	})

	for i := 1; i <= horizon.Steps; i++ {
		var at time.Time
		switch horizon.Resolution {
		case ResolutionDay:
			at = today.AddDate(0, 0, i)
		case ResolutionMonth:
			at = today.AddDate(0, i, 0)
		}
		points = append(points, ForecastPoint{
			Label: stepLabel(horizon.Resolution, at),
			Date:  Date{Time: at},
			Value: BalanceAt(state, at),
		})
	}
	return points, nil
}

// BalanceAt computes the projected balance at an arbitrary date:
// starting balance plus every recurring occurrence counted at or before
// the date, minus every purchase planned at or before it.
func BalanceAt(state BudgetState, at time.Time) Money {
	cents := state.StartingBalance.Cents
	for _, item := range state.RecurringItems {
		occ := OccurrenceCount(item, at)
		if occ == 0 {
			continue
		}
		delta := int64(occ) * item.Amount.Cents
		if item.Kind == Debit {
			delta = -delta
		}
		cents += delta
	}
	for _, p := range state.Purchases {
		if !p.PlannedDate.After(at) {
			cents -= p.Amount.Cents
		}
	}
	return Money{Cents: cents}
}

// stepLabel matches the chart axis labels the original app drew:
// "M/D" at daily resolution, "M/YY" at monthly.
func stepLabel(res Resolution, at time.Time) string {
	if res == ResolutionDay {
		return strconv.Itoa(int(at.Month())) + "/" + strconv.Itoa(at.Day())
	}
	return strconv.Itoa(int(at.Month())) + "/" + at.Format("06")
}
