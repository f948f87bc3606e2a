package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	UnitDay   Unit = "day"
	UnitWeek  Unit = "week"
	UnitMonth Unit = "month"
	UnitYear  Unit = "year"
)

const (
	Credit Kind = "credit"
	Debit  Kind = "debit"
)

type (
	// Unit is the calendar unit between occurrences of a recurring item.
	Unit string

	// Kind tells whether an item increases or decreases the balance.
	Kind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// RecurringItem is a periodic credit or debit. The first occurrence
	// falls on StartDate; EndDate, when set, is the last date an
	// occurrence may fall on.
	RecurringItem struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Amount    Money  `json:"amount"`
		Kind      Kind   `json:"kind"`
		StartDate Date   `json:"startDate"`
		EndDate   *Date  `json:"endDate,omitempty"`
		Interval  int    `json:"interval"`
		Unit      Unit   `json:"unit"`
	}

	// OneOffPurchase is a single planned debit at a specific date.
	OneOffPurchase struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Amount      Money  `json:"amount"`
		PlannedDate Date   `json:"plannedDate"`
	}

	// BudgetState is the whole budget snapshot for one group. It is a
	// value: every operation on it returns a new state and callers own
	// the copy they hold.
	BudgetState struct {
		StartingBalance  Money            `json:"startingBalance"`
		RecurringItems   []RecurringItem  `json:"recurringItems"`
		Purchases        []OneOffPurchase `json:"purchases"`
		LastRolloverDate string           `json:"lastRolloverDate,omitempty"`
	}
)

var (
	ErrMalformedDate   = errors.New("malformed date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidInterval = errors.New("interval must be at least 1")
	ErrInvalidUnit     = errors.New("invalid unit")
	ErrInvalidKind     = errors.New("invalid kind")
	ErrEmptyID         = errors.New("empty id")
	ErrEmptyTitle      = errors.New("empty title")
	ErrTitleTooLong    = errors.New("title too long (max 200 characters)")
	ErrEndBeforeStart  = errors.New("end date before start date")
)

// dateLayouts are the accepted wire formats, most specific first. The
// original clients stored full ISO-8601 timestamps; date-only values show
// up in hand-edited documents.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// ParseDate parses an ISO-8601 date or date-time string.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, ErrMalformedDate
}

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(time.RFC3339))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrMalformedDate
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateOnly returns the YYYY-MM-DD form, the format used for rollover
// stamps.
func (d Date) DateOnly() string {
	return d.Format(time.DateOnly)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrMalformedDate
	}
	return nil
}

func (u Unit) Validate() error {
	switch u {
	case UnitDay, UnitWeek, UnitMonth, UnitYear:
		return nil
	default:
		return ErrInvalidUnit
	}
}

func (k Kind) Validate() error {
	switch k {
	case Credit, Debit:
		return nil
	default:
		return ErrInvalidKind
	}
}

func (ri RecurringItem) Validate() error {
	if strings.TrimSpace(ri.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(ri.Title) == "" {
		return ErrEmptyTitle
	}
	if len(ri.Title) > 200 {
		return ErrTitleTooLong
	}
	if ri.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if err := ri.Kind.Validate(); err != nil {
		return err
	}
	if err := ri.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if ri.EndDate != nil {
		if err := ri.EndDate.Validate(); err != nil {
			return errors.New("invalid end date: " + err.Error())
		}
		if ri.EndDate.Before(ri.StartDate.Time) {
			return ErrEndBeforeStart
		}
	}
	if ri.Interval < 1 {
		return ErrInvalidInterval
	}
	return ri.Unit.Validate()
}

func (p OneOffPurchase) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	if len(p.Title) > 200 {
		return ErrTitleTooLong
	}
	if p.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	return p.PlannedDate.Validate()
}
