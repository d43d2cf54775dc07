// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/financing-forecast/internal/forecast"
	"github.com/iwvelando/financing-forecast/pkg/engine"
)

// FindScenario finds a scenario by name in the results slice.
// Returns a pointer to the forecast if found, nil otherwise.
func FindScenario(results []forecast.Forecast, name string) *forecast.Forecast {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// FindMonth returns the row for the given global month, or nil when the
// timeline does not reach it.
func FindMonth(result *forecast.Forecast, month int) *engine.MonthlyResult {
	if result == nil {
		return nil
	}
	for i := range result.Rows {
		if result.Rows[i].Month == month {
			return &result.Rows[i]
		}
	}
	return nil
}
