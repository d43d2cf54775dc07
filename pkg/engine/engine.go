package engine

import (
	"fmt"

	"go.uber.org/zap"
)

// Simulator runs scenario simulations with an attached logger. The zero
// value is not usable; use NewSimulator.
type Simulator struct {
	logger *zap.Logger
}

// NewSimulator creates a simulator with the given logger.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewSimulator(logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{logger: logger}
}

var defaultSimulator = NewSimulator(nil)

// Calculate produces the month-by-month timeline for cfg using a silent
// simulator. The result is never nil; it is empty when nothing is owed.
func Calculate(cfg ScenarioConfig) []MonthlyResult {
	return defaultSimulator.Calculate(cfg)
}

// Calculate produces the month-by-month timeline for cfg: construction rows
// (if any) followed by amortization rows, with contiguous month numbers.
func (s *Simulator) Calculate(cfg ScenarioConfig) []MonthlyResult {
	p := newPlan(cfg.Normalize())

	if p.degenerate() {
		s.logger.Debug("nothing owed to bank or builder",
			zap.String("op", "engine.Calculate"),
		)
		return []MonthlyResult{}
	}

	st := simulationState{
		balance:     p.financedPrincipal,
		accumulated: p.cfg.EntrySignal.Add(p.signingBalloon),
	}

	construction, st := s.simulateConstruction(p, st)
	amortization, st := s.simulateAmortization(p, st)

	results := make([]MonthlyResult, 0, len(construction)+len(amortization))
	results = append(results, construction...)
	results = append(results, amortization...)

	s.logger.Debug(fmt.Sprintf("simulated %d months", len(results)),
		zap.String("op", "engine.Calculate"),
		zap.String("scenarioType", string(p.cfg.ScenarioType)),
		zap.Int("constructionMonths", len(construction)),
		zap.Int("amortizationMonths", len(amortization)),
		zap.Int("balloonsConsumed", st.balloonsConsumed),
	)
	return results
}
