package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/financing-forecast/pkg/constants"
	"github.com/iwvelando/financing-forecast/pkg/engine"
	"github.com/iwvelando/financing-forecast/pkg/format"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseOutputFormat returns the canonical name of a timeline output format:
// the per-scenario table ("pretty") or the long CSV ("csv"). Case and
// surrounding spaces are ignored.
func ParseOutputFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case constants.OutputFormatPretty:
		return constants.OutputFormatPretty, nil
	case constants.OutputFormatCSV:
		return constants.OutputFormatCSV, nil
	}
	return "", fmt.Errorf("unsupported output format %q: timelines are written as %s tables or %s rows",
		format, constants.OutputFormatPretty, constants.OutputFormatCSV)
}

// ValidateScenario returns non-fatal warnings about business values that the
// engine would silently clamp or ignore.
func ValidateScenario(cfg engine.ScenarioConfig) []string {
	var warnings []string

	for _, field := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"propertyValue", cfg.PropertyValue},
		{"downPayment", cfg.DownPayment},
		{"entrySignal", cfg.EntrySignal},
		{"balloonValue", cfg.BalloonValue},
		{"nominalAnnualInterestRate", cfg.NominalAnnualInterestRate},
		{"monthlyCorrectionRate", cfg.MonthlyCorrectionRate},
	} {
		if field.value.IsNegative() {
			warnings = append(warnings, fmt.Sprintf("%s is negative (%s) and is treated as zero", field.name, field.value))
		}
	}

	if cfg.EntrySignal.GreaterThan(cfg.DownPayment) {
		warnings = append(warnings, fmt.Sprintf("entry signal %s exceeds down payment %s",
			format.Currency(cfg.EntrySignal), format.Currency(cfg.DownPayment)))
	}
	if cfg.DownPayment.GreaterThan(cfg.PropertyValue) {
		warnings = append(warnings, fmt.Sprintf("down payment %s exceeds property value %s",
			format.Currency(cfg.DownPayment), format.Currency(cfg.PropertyValue)))
	}

	setup := engine.Describe(cfg)
	offsets := cfg.EntrySignal.Add(setup.SigningBalloon).Add(setup.ManualBalloons).Add(setup.HorizonBalloons)
	if offsets.GreaterThan(cfg.DownPayment) && !cfg.EntrySignal.GreaterThan(cfg.DownPayment) {
		warnings = append(warnings, fmt.Sprintf("signal and balloons (%s) exceed down payment %s; builder installments are zero",
			format.Currency(offsets), format.Currency(cfg.DownPayment)))
	}

	if cfg.ScenarioType.HasConstructionPhase() && cfg.ConstructionTimeMonths <= 0 {
		warnings = append(warnings, fmt.Sprintf("scenario type %s has no construction months; amortization starts at month 1", cfg.ScenarioType))
	}
	if cfg.FinancingTermMonths <= 0 {
		warnings = append(warnings, "financing term is zero; no amortization phase is simulated")
	}

	horizon := setup.ConstructionMonths + cfg.FinancingTermMonths
	seen := make(map[int]bool, len(cfg.ManualBalloons))
	for _, b := range cfg.ManualBalloons {
		switch {
		case b.Month < 1:
			warnings = append(warnings, fmt.Sprintf("manual balloon at month %d is ignored; months start at 1", b.Month))
		case b.Month > horizon:
			warnings = append(warnings, fmt.Sprintf("manual balloon at month %d is beyond the %d-month timeline", b.Month, horizon))
		}
		if seen[b.Month] {
			warnings = append(warnings, fmt.Sprintf("more than one manual balloon at month %d", b.Month))
		}
		seen[b.Month] = true
	}

	if cfg.HasBalloonProgram {
		switch cfg.BalloonFrequency {
		case engine.FrequencyOnce, "":
			if cfg.BalloonStartMonth > horizon {
				warnings = append(warnings, fmt.Sprintf("balloon at month %d is beyond the %d-month timeline", cfg.BalloonStartMonth, horizon))
			}
		default:
			if cfg.BalloonCount <= 0 {
				warnings = append(warnings, fmt.Sprintf("%s balloon program has no balloon count; no balloon is paid", cfg.BalloonFrequency))
			}
		}
	}

	if cfg.CurrentWorkProgressPercent.IsNegative() || cfg.CurrentWorkProgressPercent.GreaterThan(hundred) {
		warnings = append(warnings, fmt.Sprintf("work progress %s%% is outside 0-100", cfg.CurrentWorkProgressPercent))
	}

	if cfg.UseFixedExternalInstallment {
		if !cfg.ExternalInstallmentValue.IsPositive() {
			warnings = append(warnings, "fixed external installment is enabled with no value")
		} else if interest, ok := firstAmortizationInterest(cfg); ok && cfg.ExternalInstallmentValue.LessThan(interest) {
			warnings = append(warnings, fmt.Sprintf("fixed installment %s is below the first month's interest %s; the balance will not decrease",
				format.Currency(cfg.ExternalInstallmentValue), format.Currency(interest)))
		}
	}

	return warnings
}

func firstAmortizationInterest(cfg engine.ScenarioConfig) (decimal.Decimal, bool) {
	for _, r := range engine.Calculate(cfg) {
		if r.Phase == engine.PhaseAmortization {
			return r.BankInterest, true
		}
	}
	return decimal.Zero, false
}
