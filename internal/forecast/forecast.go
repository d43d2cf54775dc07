// Package forecast defines the data structures related to a given forecast and
// includes functions for computing the forecasts.
package forecast

import (
	"context"
	"fmt"
	"runtime"

	"github.com/iwvelando/financing-forecast/internal/config"
	"github.com/iwvelando/financing-forecast/pkg/datetime"
	"github.com/iwvelando/financing-forecast/pkg/engine"
	"github.com/iwvelando/financing-forecast/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Forecast holds all information related to a specific forecast.
type Forecast struct {
	Name      string                 `json:"name"`
	StartDate string                 `json:"startDate,omitempty"`
	Scenario  engine.ScenarioConfig  `json:"scenario"`
	Setup     engine.Setup           `json:"setup"`
	Rows      []engine.MonthlyResult `json:"rows"`
	// Dates holds the calendar label of each row, empty without a start date.
	Dates    []string       `json:"dates,omitempty"`
	Summary  engine.Summary `json:"summary"`
	Warnings []string       `json:"warnings,omitempty"`
}

// Calculator produces the timeline of one scenario.
type Calculator interface {
	Calculate(ctx context.Context, cfg engine.ScenarioConfig) []engine.MonthlyResult
}

// CalculatorFunc adapts a function to the Calculator interface.
type CalculatorFunc func(ctx context.Context, cfg engine.ScenarioConfig) []engine.MonthlyResult

// Calculate calls f.
func (f CalculatorFunc) Calculate(ctx context.Context, cfg engine.ScenarioConfig) []engine.MonthlyResult {
	return f(ctx, cfg)
}

// EngineCalculator wraps a simulator as a Calculator.
func EngineCalculator(sim *engine.Simulator) Calculator {
	return CalculatorFunc(func(_ context.Context, cfg engine.ScenarioConfig) []engine.MonthlyResult {
		return sim.Calculate(cfg)
	})
}

// Runner computes forecasts for configured scenarios.
type Runner struct {
	logger      *zap.Logger
	calculator  Calculator
	concurrency int
}

// NewRunner creates a runner. A nil calculator uses the engine directly.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewRunner(logger *zap.Logger, calculator Calculator) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if calculator == nil {
		calculator = EngineCalculator(engine.NewSimulator(logger))
	}
	return &Runner{
		logger:      logger,
		calculator:  calculator,
		concurrency: runtime.NumCPU(),
	}
}

// GetForecast processes the Forecasts for all active Scenarios.
func GetForecast(logger *zap.Logger, conf config.Configuration) ([]Forecast, error) {
	return NewRunner(logger, nil).Run(context.Background(), conf)
}

// Run computes every active scenario concurrently and returns the forecasts
// in configuration order.
func (r *Runner) Run(ctx context.Context, conf config.Configuration) ([]Forecast, error) {
	active := make([]config.Scenario, 0, len(conf.Scenarios))
	for _, scenario := range conf.Scenarios {
		if !scenario.Active {
			r.logger.Debug(fmt.Sprintf("skipping scenario %s because it is inactive", scenario.Name),
				zap.String("op", "forecast.Run"),
			)
			continue
		}
		active = append(active, scenario)
	}

	results := make([]Forecast, len(active))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, scenario := range active {
		i, scenario := i, scenario
		g.Go(func() error {
			result, err := r.RunScenario(ctx, scenario)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunScenario computes the forecast of a single scenario regardless of its
// active flag.
func (r *Runner) RunScenario(ctx context.Context, scenario config.Scenario) (Forecast, error) {
	if err := ctx.Err(); err != nil {
		return Forecast{}, err
	}

	cfg, err := scenario.ToScenarioConfig()
	if err != nil {
		return Forecast{}, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	rows := r.calculator.Calculate(ctx, cfg)

	var dates []string
	if scenario.StartDate != "" {
		dates, err = datetime.MonthLabels(scenario.StartDate, len(rows))
		if err != nil {
			return Forecast{}, fmt.Errorf("scenario %s: invalid start date: %w", scenario.Name, err)
		}
	}

	result := Forecast{
		Name:      scenario.Name,
		StartDate: scenario.StartDate,
		Scenario:  cfg,
		Setup:     engine.Describe(cfg),
		Rows:      rows,
		Dates:     dates,
		Summary:   engine.Summarize(rows),
		Warnings:  validation.ValidateScenario(cfg),
	}

	r.logger.Debug(fmt.Sprintf("computed scenario %s", scenario.Name),
		zap.String("op", "forecast.RunScenario"),
		zap.Int("months", len(rows)),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

// Date returns the calendar label of row i, or an empty string.
func (f Forecast) Date(i int) string {
	if i < 0 || i >= len(f.Dates) {
		return ""
	}
	return f.Dates[i]
}
