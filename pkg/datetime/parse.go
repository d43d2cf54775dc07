// Package datetime provides date and time utility functions.
package datetime

import (
	"fmt"
	"time"

	"github.com/iwvelando/financing-forecast/pkg/constants"
)

const (
	// DateTimeLayout is the format expected in config files and is also the output
	// date format.
	DateTimeLayout = constants.DateTimeLayout
)

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// OffsetDate returns the string-formatted date offset by the given number of
// months relative to the given date.
func OffsetDate(date, layout string, months int) (string, error) {
	t, err := time.Parse(layout, date)
	if err != nil {
		return date, err
	}
	return t.AddDate(0, months, 0).Format(layout), nil
}

// ValidateStartDate checks that a scenario start date is empty or in the
// YYYY-MM layout.
func ValidateStartDate(startDate string) error {
	if startDate == "" {
		return nil
	}
	if _, err := time.Parse(DateTimeLayout, startDate); err != nil {
		return fmt.Errorf("start date %q must use the YYYY-MM layout: %w", startDate, err)
	}
	return nil
}

// MonthLabel returns the calendar label of timeline month m, i.e. startDate
// offset by m months. Month 0 is the signing month. An empty startDate
// yields an empty label.
func MonthLabel(startDate string, month int) (string, error) {
	if startDate == "" {
		return "", nil
	}
	return OffsetDate(startDate, DateTimeLayout, month)
}

// MonthLabels returns the labels of months 1..count.
func MonthLabels(startDate string, count int) ([]string, error) {
	labels := make([]string, count)
	if startDate == "" {
		return labels, nil
	}
	start, err := time.Parse(DateTimeLayout, startDate)
	if err != nil {
		return nil, err
	}
	for i := range labels {
		labels[i] = start.AddDate(0, i+1, 0).Format(DateTimeLayout)
	}
	return labels, nil
}
