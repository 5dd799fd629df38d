// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for selecting the "current"
// transactions that feed the dashboard metrics. Each window kind (rolling,
// calendar month, fixed month, all) is its own strategy so the engine can be
// evaluated against any reference time.

package services

import (
	"fmt"
	"time"

	"fincoach/internal/core"
)

// WindowKind names a registered window strategy.
type WindowKind string

const (
	WindowRolling  WindowKind = "rolling"
	WindowCalendar WindowKind = "calendar"
	WindowFixed    WindowKind = "fixed"
	WindowAll      WindowKind = "all"
)

// DefaultRollingDays is the length of the default rolling window.
const DefaultRollingDays = 30

// WindowPolicy is the strategy interface for the period filter.
type WindowPolicy interface {
	// Select returns the transactions considered current at now, preserving
	// input order. An empty result is valid.
	Select(txs []core.Transaction, now time.Time) []core.Transaction
	// Describe returns a short label for the dashboard header.
	Describe(now time.Time) string
}

// RollingWindow keeps transactions dated on or after now minus Days.
type RollingWindow struct {
	Days int
}

func (w RollingWindow) Select(txs []core.Transaction, now time.Time) []core.Transaction {
	cutoff := now.AddDate(0, 0, -w.Days)
	return filter(txs, func(tx core.Transaction) bool {
		return !tx.Date.Before(cutoff)
	})
}

func (w RollingWindow) Describe(time.Time) string {
	return fmt.Sprintf("last %d days", w.Days)
}

// CalendarMonthWindow keeps transactions in the same year and month as now.
type CalendarMonthWindow struct{}

func (CalendarMonthWindow) Select(txs []core.Transaction, now time.Time) []core.Transaction {
	return filter(txs, func(tx core.Transaction) bool {
		return tx.Date.Year() == now.Year() && tx.Date.Month() == now.Month()
	})
}

func (CalendarMonthWindow) Describe(now time.Time) string {
	return now.Format("January 2006")
}

// FixedMonthWindow keeps transactions of one literal month regardless of now.
type FixedMonthWindow struct {
	Year  int
	Month time.Month
}

func (w FixedMonthWindow) Select(txs []core.Transaction, _ time.Time) []core.Transaction {
	return filter(txs, func(tx core.Transaction) bool {
		return tx.Date.Year() == w.Year && tx.Date.Month() == w.Month
	})
}

func (w FixedMonthWindow) Describe(time.Time) string {
	return time.Date(w.Year, w.Month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

// AllWindow keeps every transaction.
type AllWindow struct{}

func (AllWindow) Select(txs []core.Transaction, _ time.Time) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	return out
}

func (AllWindow) Describe(time.Time) string {
	return "all time"
}

func filter(txs []core.Transaction, keep func(core.Transaction) bool) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// WindowOptions parameterizes the window constructors.
type WindowOptions struct {
	Days       int    // rolling window length
	FixedMonth string // YYYY-MM for the fixed window
}

type windowFactory func(WindowOptions) (WindowPolicy, error)

// windowStrategies maps window kinds to their constructors.
var windowStrategies = map[WindowKind]windowFactory{
	WindowRolling: func(o WindowOptions) (WindowPolicy, error) {
		days := o.Days
		if days == 0 {
			days = DefaultRollingDays
		}
		if days < 0 {
			return nil, fmt.Errorf("invalid rolling window length: %d", days)
		}
		return RollingWindow{Days: days}, nil
	},
	WindowCalendar: func(WindowOptions) (WindowPolicy, error) {
		return CalendarMonthWindow{}, nil
	},
	WindowFixed: func(o WindowOptions) (WindowPolicy, error) {
		t, err := time.Parse("2006-01", o.FixedMonth)
		if err != nil {
			return nil, fmt.Errorf("invalid fixed month %q: %w", o.FixedMonth, err)
		}
		return FixedMonthWindow{Year: t.Year(), Month: t.Month()}, nil
	},
	WindowAll: func(WindowOptions) (WindowPolicy, error) {
		return AllWindow{}, nil
	},
}

// GetWindowPolicy returns the window policy registered for kind.
// Returns an error if the kind is not supported or its options are invalid.
func GetWindowPolicy(kind WindowKind, opts WindowOptions) (WindowPolicy, error) {
	factory, ok := windowStrategies[kind]
	if !ok {
		return nil, fmt.Errorf("unknown window policy: %s", kind)
	}
	return factory(opts)
}

// DefaultWindowPolicy is the rolling 30-day window.
func DefaultWindowPolicy() WindowPolicy {
	return RollingWindow{Days: DefaultRollingDays}
}

// RegisterWindowPolicy allows registering custom window strategies.
// This enables extension without modifying existing code.
func RegisterWindowPolicy(kind WindowKind, factory func(WindowOptions) (WindowPolicy, error)) {
	windowStrategies[kind] = factory
}
