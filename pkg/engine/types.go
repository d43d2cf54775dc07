// Package engine simulates the monthly cash flows of a real-estate financing
// deal: a construction-phase payment plan owed to the builder followed by a
// bank amortization schedule after delivery.
//
// The engine is a pure computation. Calculate takes a ScenarioConfig and
// returns the ordered month-by-month timeline; it performs no I/O and keeps
// no state between calls, so it is safe to call from many goroutines.
package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ScenarioType selects whether a construction phase exists and which
// interest rule applies to it.
type ScenarioType string

const (
	// ScenarioBankReady has no construction phase; amortization starts at month 1.
	ScenarioBankReady ScenarioType = "bank_ready"
	// ScenarioConstructionStandard charges interest on the principal released
	// as construction progresses.
	ScenarioConstructionStandard ScenarioType = "construction_standard"
	// ScenarioConstructionDirect grows the whole debt by the correction index
	// every month and charges interest on the grown balance.
	ScenarioConstructionDirect ScenarioType = "construction_direct"
)

// HasConstructionPhase reports whether the scenario type simulates a
// construction phase before amortization.
func (t ScenarioType) HasConstructionPhase() bool {
	return t == ScenarioConstructionStandard || t == ScenarioConstructionDirect
}

// ParseScenarioType parses a scenario type case-insensitively. An empty
// string is bank_ready.
func ParseScenarioType(s string) (ScenarioType, error) {
	switch normalizeEnum(s) {
	case "", "bank_ready", "ready":
		return ScenarioBankReady, nil
	case "construction_standard", "standard", "construction":
		return ScenarioConstructionStandard, nil
	case "construction_direct", "direct", "direct_with_developer":
		return ScenarioConstructionDirect, nil
	}
	return "", fmt.Errorf("unknown scenario type %q", s)
}

// Frequency is the recurrence of an automatic balloon program.
type Frequency string

const (
	FrequencyOnce       Frequency = "once"
	FrequencyMonthly    Frequency = "monthly"
	FrequencyQuarterly  Frequency = "quarterly"
	FrequencySemiannual Frequency = "semiannual"
	FrequencyAnnual     Frequency = "annual"
)

// ParseFrequency parses a balloon frequency case-insensitively. An empty
// string is once.
func ParseFrequency(s string) (Frequency, error) {
	switch normalizeEnum(s) {
	case "", "once", "single":
		return FrequencyOnce, nil
	case "monthly":
		return FrequencyMonthly, nil
	case "quarterly":
		return FrequencyQuarterly, nil
	case "semiannual", "semi_annual", "biannual":
		return FrequencySemiannual, nil
	case "annual", "yearly":
		return FrequencyAnnual, nil
	}
	return "", fmt.Errorf("unknown balloon frequency %q", s)
}

// AmortizationSystem selects the bank repayment schedule.
type AmortizationSystem string

const (
	// ConstantInstallment is the French (Price) system: fixed total payment.
	ConstantInstallment AmortizationSystem = "constant_installment"
	// ConstantAmortization is the SAC system: fixed principal repayment.
	ConstantAmortization AmortizationSystem = "constant_amortization"
)

// ParseAmortizationSystem parses an amortization system case-insensitively.
// An empty string is constant_installment.
func ParseAmortizationSystem(s string) (AmortizationSystem, error) {
	switch normalizeEnum(s) {
	case "", "constant_installment", "price", "french":
		return ConstantInstallment, nil
	case "constant_amortization", "sac":
		return ConstantAmortization, nil
	}
	return "", fmt.Errorf("unknown amortization system %q", s)
}

func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// Phase tags a MonthlyResult with the simulation stage that produced it.
type Phase string

const (
	PhaseConstruction Phase = "construction"
	PhaseAmortization Phase = "amortization"
)

// ManualBalloon is an ad hoc extra builder payment at a given month.
type ManualBalloon struct {
	Month int             `json:"month"`
	Value decimal.Decimal `json:"value"`
}

// ScenarioConfig is the full input of one engine call. Percent fields are
// expressed in percent (0.45 means 0.45%).
type ScenarioConfig struct {
	PropertyValue          decimal.Decimal `json:"propertyValue"`
	DownPayment            decimal.Decimal `json:"downPayment"`
	ScenarioType           ScenarioType    `json:"scenarioType"`
	EntrySignal            decimal.Decimal `json:"entrySignal"`
	EntryInstallmentsCount int             `json:"entryInstallmentsCount"`
	ManualBalloons         []ManualBalloon `json:"manualBalloons,omitempty"`

	HasBalloonProgram bool            `json:"hasBalloonProgram"`
	BalloonFrequency  Frequency       `json:"balloonFrequency"`
	BalloonCount      int             `json:"balloonCount"`
	BalloonValue      decimal.Decimal `json:"balloonValue"`
	BalloonStartMonth int             `json:"balloonStartMonth"`

	AmortizationSystem        AmortizationSystem `json:"amortizationSystem"`
	NominalAnnualInterestRate decimal.Decimal    `json:"nominalAnnualInterestRate"`
	FinancingTermMonths       int                `json:"financingTermMonths"`

	MonthlyAdminFee decimal.Decimal `json:"monthlyAdminFee"`
	InsuranceMIP    decimal.Decimal `json:"insuranceMIP"`
	InsuranceDFI    decimal.Decimal `json:"insuranceDFI"`

	ConstructionTimeMonths     int             `json:"constructionTimeMonths"`
	MonthlyCorrectionRate      decimal.Decimal `json:"monthlyCorrectionRate"`
	ChargeConstructionInterest bool            `json:"chargeConstructionInterest"`
	CurrentWorkProgressPercent decimal.Decimal `json:"currentWorkProgressPercent"`

	// PreConstructionWaiting delays interest accrual while the works have
	// not physically started.
	PreConstructionWaiting     bool `json:"preConstructionWaiting"`
	PreConstructionGapMonths   int  `json:"preConstructionGapMonths"`
	ConstructionDurationMonths int  `json:"constructionDurationMonths"`

	UseFixedExternalInstallment bool            `json:"useFixedExternalInstallment"`
	ExternalInstallmentValue    decimal.Decimal `json:"externalInstallmentValue"`
}

// Normalize returns a copy with negative amounts and counts clamped to zero,
// empty enums defaulted, invalid manual balloons dropped and the remaining
// balloons stable-sorted by month.
func (c ScenarioConfig) Normalize() ScenarioConfig {
	n := c

	for _, field := range []*decimal.Decimal{
		&n.PropertyValue, &n.DownPayment, &n.EntrySignal, &n.BalloonValue,
		&n.NominalAnnualInterestRate, &n.MonthlyAdminFee, &n.InsuranceMIP, &n.InsuranceDFI,
		&n.MonthlyCorrectionRate, &n.CurrentWorkProgressPercent, &n.ExternalInstallmentValue,
	} {
		if field.IsNegative() {
			*field = decimal.Zero
		}
	}

	for _, field := range []*int{
		&n.EntryInstallmentsCount, &n.BalloonCount, &n.BalloonStartMonth, &n.FinancingTermMonths,
		&n.ConstructionTimeMonths, &n.PreConstructionGapMonths, &n.ConstructionDurationMonths,
	} {
		if *field < 0 {
			*field = 0
		}
	}

	if n.ScenarioType == "" {
		n.ScenarioType = ScenarioBankReady
	}
	if n.BalloonFrequency == "" {
		n.BalloonFrequency = FrequencyOnce
	}
	if n.AmortizationSystem == "" {
		n.AmortizationSystem = ConstantInstallment
	}

	balloons := make([]ManualBalloon, 0, len(c.ManualBalloons))
	for _, b := range c.ManualBalloons {
		if b.Month < 1 || !b.Value.IsPositive() {
			continue
		}
		balloons = append(balloons, b)
	}
	sort.SliceStable(balloons, func(i, j int) bool { return balloons[i].Month < balloons[j].Month })
	n.ManualBalloons = balloons

	return n
}

// MonthlyResult is one row of the simulated timeline.
type MonthlyResult struct {
	// Month is the global 1-based month index, continuous across phases.
	Month            int             `json:"month"`
	BankBalance      decimal.Decimal `json:"bankBalance"`
	BankInterest     decimal.Decimal `json:"bankInterest"`
	BankAmortization decimal.Decimal `json:"bankAmortization"`
	BankFees         decimal.Decimal `json:"bankFees"`
	// BuilderInstallment is everything owed to the builder this month,
	// including manual balloons and construction-phase automatic balloons.
	BuilderInstallment decimal.Decimal `json:"builderInstallment"`
	// Balloon is the automatic balloon paid this month. It is already part
	// of BuilderInstallment during construction and of TotalInstallment
	// during amortization.
	Balloon          decimal.Decimal `json:"balloon"`
	TotalInstallment decimal.Decimal `json:"totalInstallment"`
	AccumulatedPaid  decimal.Decimal `json:"accumulatedPaid"`
	Phase            Phase           `json:"phase"`
}
