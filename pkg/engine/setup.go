package engine

import (
	"github.com/iwvelando/financing-forecast/pkg/loans"
	"github.com/iwvelando/financing-forecast/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// plan holds everything derived from a ScenarioConfig before the month loop
// starts. It is read-only during simulation.
type plan struct {
	cfg      ScenarioConfig
	balloons balloonSchedule

	constructionMonths int
	signingBalloon     decimal.Decimal
	horizonBalloons    decimal.Decimal
	manualTotal        decimal.Decimal
	manualByMonth      map[int]decimal.Decimal

	builderDebt decimal.Decimal
	builderBase decimal.Decimal

	financedPrincipal decimal.Decimal
	monthlyRate       decimal.Decimal
	correctionRate    decimal.Decimal
	fees              decimal.Decimal
}

// newPlan runs the balloon classifier and both setup steps. cfg must already
// be normalized.
func newPlan(cfg ScenarioConfig) plan {
	p := plan{
		cfg:           cfg,
		balloons:      newBalloonSchedule(cfg),
		manualTotal:   decimal.Zero,
		manualByMonth: make(map[int]decimal.Decimal, len(cfg.ManualBalloons)),
	}

	if cfg.ScenarioType.HasConstructionPhase() && cfg.ConstructionTimeMonths > 0 {
		p.constructionMonths = cfg.ConstructionTimeMonths
	}

	p.signingBalloon = p.balloons.atSigning()
	p.horizonBalloons = p.balloons.horizonTotal(p.constructionMonths)

	for _, b := range cfg.ManualBalloons {
		p.manualTotal = p.manualTotal.Add(b.Value)
		p.manualByMonth[b.Month] = p.manualByMonth[b.Month].Add(b.Value)
	}

	p.setupBuilderDebt()
	p.setupBank()
	return p
}

func (p *plan) setupBuilderDebt() {
	cfg := p.cfg
	debt := cfg.DownPayment.
		Sub(cfg.EntrySignal).
		Sub(p.signingBalloon).
		Sub(p.manualTotal).
		Sub(p.horizonBalloons)
	p.builderDebt = mathutil.NonNegative(debt)

	count := decimal.NewFromInt(int64(cfg.EntryInstallmentsCount))
	p.builderBase = mathutil.Trim(mathutil.SafeDiv(p.builderDebt, count))
}

func (p *plan) setupBank() {
	cfg := p.cfg
	// Not clamped here; balance updates clamp later.
	p.financedPrincipal = cfg.PropertyValue.Sub(cfg.DownPayment).Sub(p.signingBalloon)
	p.monthlyRate = loans.MonthlyRate(cfg.NominalAnnualInterestRate)
	p.correctionRate = mathutil.PercentToRate(cfg.MonthlyCorrectionRate)

	if cfg.UseFixedExternalInstallment {
		p.fees = decimal.Zero
	} else {
		p.fees = mathutil.Sum(cfg.MonthlyAdminFee, cfg.InsuranceMIP, cfg.InsuranceDFI)
	}
}

// degenerate reports whether nothing is owed to either the bank or the
// builder, in which case the timeline is empty. Builder debt without any
// installment to carry it is not owed by the schedule.
func (p plan) degenerate() bool {
	if p.financedPrincipal.IsPositive() {
		return false
	}
	return !p.builderDebt.IsPositive() || p.cfg.EntryInstallmentsCount <= 0
}

// correctionFactor is (1+correction)^month, recomputed fresh per month.
func (p plan) correctionFactor(month int) decimal.Decimal {
	return loans.CompoundFactor(p.correctionRate, month)
}

// builderInstallment is the corrected recurring base plus any manual balloon
// due at month. Automatic balloons are handled by the phase simulators.
func (p plan) builderInstallment(month int, factor decimal.Decimal) decimal.Decimal {
	amount := p.manualByMonth[month]
	if month <= p.cfg.EntryInstallmentsCount {
		amount = amount.Add(p.builderBase)
	}
	return mathutil.Trim(amount.Mul(factor))
}

// Setup exposes the figures derived before simulation starts, for display
// and validation.
type Setup struct {
	ConstructionMonths     int             `json:"constructionMonths"`
	SigningBalloon         decimal.Decimal `json:"signingBalloon"`
	HorizonBalloons        decimal.Decimal `json:"horizonBalloons"`
	ManualBalloons         decimal.Decimal `json:"manualBalloons"`
	BuilderDebt            decimal.Decimal `json:"builderDebt"`
	BuilderBaseInstallment decimal.Decimal `json:"builderBaseInstallment"`
	FinancedPrincipal      decimal.Decimal `json:"financedPrincipal"`
	MonthlyInterestRate    decimal.Decimal `json:"monthlyInterestRate"`
	MonthlyFees            decimal.Decimal `json:"monthlyFees"`
}

// Describe runs the setup steps on cfg without simulating any month.
func Describe(cfg ScenarioConfig) Setup {
	p := newPlan(cfg.Normalize())
	return Setup{
		ConstructionMonths:     p.constructionMonths,
		SigningBalloon:         p.signingBalloon,
		HorizonBalloons:        p.horizonBalloons,
		ManualBalloons:         p.manualTotal,
		BuilderDebt:            p.builderDebt,
		BuilderBaseInstallment: p.builderBase,
		FinancedPrincipal:      p.financedPrincipal,
		MonthlyInterestRate:    p.monthlyRate,
		MonthlyFees:            p.fees,
	}
}
