package config

import (
	"github.com/iwvelando/financing-forecast/pkg/engine"
)

// ToScenarioConfig converts a configured scenario into the engine input.
// Only unknown enumeration strings are errors; amounts are passed through
// and the engine clamps them.
func (s Scenario) ToScenarioConfig() (engine.ScenarioConfig, error) {
	scenarioType, err := engine.ParseScenarioType(s.ScenarioType)
	if err != nil {
		return engine.ScenarioConfig{}, err
	}
	frequency, err := engine.ParseFrequency(s.BalloonFrequency)
	if err != nil {
		return engine.ScenarioConfig{}, err
	}
	system, err := engine.ParseAmortizationSystem(s.AmortizationSystem)
	if err != nil {
		return engine.ScenarioConfig{}, err
	}

	balloons := make([]engine.ManualBalloon, 0, len(s.ManualBalloons))
	for _, b := range s.ManualBalloons {
		balloons = append(balloons, engine.ManualBalloon{Month: b.Month, Value: b.Value})
	}

	return engine.ScenarioConfig{
		PropertyValue:               s.PropertyValue,
		DownPayment:                 s.DownPayment,
		ScenarioType:                scenarioType,
		EntrySignal:                 s.EntrySignal,
		EntryInstallmentsCount:      s.EntryInstallmentsCount,
		ManualBalloons:              balloons,
		HasBalloonProgram:           s.HasBalloonProgram,
		BalloonFrequency:            frequency,
		BalloonCount:                s.BalloonCount,
		BalloonValue:                s.BalloonValue,
		BalloonStartMonth:           s.BalloonStartMonth,
		AmortizationSystem:          system,
		NominalAnnualInterestRate:   s.NominalAnnualInterestRate,
		FinancingTermMonths:         s.FinancingTermMonths,
		MonthlyAdminFee:             s.MonthlyAdminFee,
		InsuranceMIP:                s.InsuranceMIP,
		InsuranceDFI:                s.InsuranceDFI,
		ConstructionTimeMonths:      s.ConstructionTimeMonths,
		MonthlyCorrectionRate:       s.MonthlyCorrectionRate,
		ChargeConstructionInterest:  s.ChargeConstructionInterest,
		CurrentWorkProgressPercent:  s.CurrentWorkProgressPercent,
		PreConstructionWaiting:      s.PreConstructionWaiting,
		PreConstructionGapMonths:    s.PreConstructionGapMonths,
		ConstructionDurationMonths:  s.ConstructionDurationMonths,
		UseFixedExternalInstallment: s.UseFixedExternalInstallment,
		ExternalInstallmentValue:    s.ExternalInstallmentValue,
	}, nil
}

// FromScenarioConfig builds a configured scenario from an engine input.
func FromScenarioConfig(name string, cfg engine.ScenarioConfig) Scenario {
	balloons := make([]ManualBalloon, 0, len(cfg.ManualBalloons))
	for _, b := range cfg.ManualBalloons {
		balloons = append(balloons, ManualBalloon{Month: b.Month, Value: b.Value})
	}

	return Scenario{
		Name:                        name,
		Active:                      true,
		PropertyValue:               cfg.PropertyValue,
		DownPayment:                 cfg.DownPayment,
		ScenarioType:                string(cfg.ScenarioType),
		EntrySignal:                 cfg.EntrySignal,
		EntryInstallmentsCount:      cfg.EntryInstallmentsCount,
		ManualBalloons:              balloons,
		HasBalloonProgram:           cfg.HasBalloonProgram,
		BalloonFrequency:            string(cfg.BalloonFrequency),
		BalloonCount:                cfg.BalloonCount,
		BalloonValue:                cfg.BalloonValue,
		BalloonStartMonth:           cfg.BalloonStartMonth,
		AmortizationSystem:          string(cfg.AmortizationSystem),
		NominalAnnualInterestRate:   cfg.NominalAnnualInterestRate,
		FinancingTermMonths:         cfg.FinancingTermMonths,
		MonthlyAdminFee:             cfg.MonthlyAdminFee,
		InsuranceMIP:                cfg.InsuranceMIP,
		InsuranceDFI:                cfg.InsuranceDFI,
		ConstructionTimeMonths:      cfg.ConstructionTimeMonths,
		MonthlyCorrectionRate:       cfg.MonthlyCorrectionRate,
		ChargeConstructionInterest:  cfg.ChargeConstructionInterest,
		CurrentWorkProgressPercent:  cfg.CurrentWorkProgressPercent,
		PreConstructionWaiting:      cfg.PreConstructionWaiting,
		PreConstructionGapMonths:    cfg.PreConstructionGapMonths,
		ConstructionDurationMonths:  cfg.ConstructionDurationMonths,
		UseFixedExternalInstallment: cfg.UseFixedExternalInstallment,
		ExternalInstallmentValue:    cfg.ExternalInstallmentValue,
	}
}
