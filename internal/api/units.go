package api

import (
	"fmt"
	"strings"
)

// EffortUnit is the unit an external surface uses for estimated effort.
// Internally effort is always kept in minutes.
type EffortUnit string

const (
	UnitMinutes EffortUnit = "minutes"
	UnitHours   EffortUnit = "hours"
)

// ParseEffortUnit accepts "minutes"/"min"/"m" and "hours"/"hour"/"h".
// An empty string selects minutes.
func ParseEffortUnit(s string) (EffortUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "minutes", "minute", "min", "m":
		return UnitMinutes, nil
	case "hours", "hour", "h":
		return UnitHours, nil
	}
	return "", fmt.Errorf("unknown effort unit %q: expected minutes or hours", s)
}

// ToMinutes converts a value expressed in u to canonical minutes
func (u EffortUnit) ToMinutes(v float64) float64 {
	if u == UnitHours {
		return v * 60
	}
	return v
}

// FromMinutes converts canonical minutes to a value expressed in u
func (u EffortUnit) FromMinutes(m float64) float64 {
	if u == UnitHours {
		return m / 60
	}
	return m
}
