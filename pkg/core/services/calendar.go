package services

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/model"
)

// lockoutDay is the day of the month before a target month from which
// submissions for the target month are locked
const lockoutDay = 20

// ServiceDays returns the dates matching serviceRRule between from and to inclusive.
// from and to are civil dates at UTC midnight.
func ServiceDays(serviceRRule string, from, to time.Time) ([]time.Time, error) {
	rule, err := rrule.StrToRRule(serviceRRule)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service rrule: %w", err)
	}
	rule.DTStart(from)
	return rule.Between(from, to, true), nil
}

// ServiceDaysInMonth returns the service days of the month starting at monthStart
func ServiceDaysInMonth(serviceRRule string, monthStart time.Time) ([]time.Time, error) {
	return ServiceDays(serviceRRule, monthStart, monthStart.AddDate(0, 1, -1))
}

// NextMonth returns the first day of the month after today
func NextMonth(today time.Time) time.Time {
	return time.Date(today.Year(), today.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}

// LockoutStart returns the first day on which submissions for the month
// starting at target are locked
func LockoutStart(target time.Time) time.Time {
	prev := time.Date(target.Year(), target.Month()-1, 1, 0, 0, 0, 0, time.UTC)
	return time.Date(prev.Year(), prev.Month(), lockoutDay, 0, 0, 0, 0, time.UTC)
}

// IsLockedOut reports whether today falls inside the lockout window of target
func IsLockedOut(today, target time.Time) bool {
	return !today.Before(LockoutStart(target))
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = model.FormatDate(d)
	}
	return out
}
