package sla

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Unit is a configured SLA time unit.
type Unit string

const (
	UnitMinutes Unit = "minutes"
	UnitHours   Unit = "hours"
	UnitDays    Unit = "days"
)

// ErrInvalidUnit reports a unit outside {minutes, hours, days}. Sweeps
// skip the offending record or setting rather than abort.
var ErrInvalidUnit = errors.New("invalid sla unit")

// ParseUnit validates a stored unit string.
func ParseUnit(raw string) (Unit, error) {
	switch Unit(strings.ToLower(strings.TrimSpace(raw))) {
	case UnitMinutes:
		return UnitMinutes, nil
	case UnitHours:
		return UnitHours, nil
	case UnitDays:
		return UnitDays, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidUnit, raw)
	}
}

// ComputeDeadline adds magnitude units to base. The deadline comparison
// itself stays with the caller, which uses strict now-after-deadline.
func ComputeDeadline(base time.Time, magnitude int, unit Unit) (time.Time, error) {
	switch unit {
	case UnitMinutes:
		return base.Add(time.Duration(magnitude) * time.Minute), nil
	case UnitHours:
		return base.Add(time.Duration(magnitude) * time.Hour), nil
	case UnitDays:
		return base.AddDate(0, 0, magnitude), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
	}
}

// DescribeThreshold renders a threshold like "2 hours" or "1 day",
// singularized when magnitude is 1.
func DescribeThreshold(magnitude int, unit Unit) string {
	name := strings.TrimSuffix(string(unit), "s")
	if magnitude == 1 {
		return fmt.Sprintf("1 %s", name)
	}
	return fmt.Sprintf("%d %ss", magnitude, name)
}

// DescribeElapsed renders the time between from and now in the largest
// sensible unit, matching the granularity of DescribeThreshold.
func DescribeElapsed(from, now time.Time) string {
	d := now.Sub(from)
	if d < 0 {
		d = 0
	}
	switch {
	case d >= 24*time.Hour:
		days := int(d / (24 * time.Hour))
		return DescribeThreshold(days, UnitDays)
	case d >= time.Hour:
		hours := int(d / time.Hour)
		return DescribeThreshold(hours, UnitHours)
	default:
		minutes := int(d / time.Minute)
		return DescribeThreshold(minutes, UnitMinutes)
	}
}
