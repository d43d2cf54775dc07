package engine

import (
	"sync"
	"testing"

	"github.com/iwvelando/financing-forecast/pkg/loans"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertNear(t *testing.T, expected string, actual decimal.Decimal, tolerance string) {
	t.Helper()
	assert.Truef(t, actual.Sub(dec(expected)).Abs().LessThanOrEqual(dec(tolerance)),
		"expected %s (+/- %s), got %s", expected, tolerance, actual.String())
}

// standardConstruction is the 350k construction deal used across tests.
func standardConstruction() ScenarioConfig {
	return ScenarioConfig{
		PropertyValue:             dec("350000"),
		DownPayment:               dec("70000"),
		ScenarioType:              ScenarioConstructionStandard,
		EntrySignal:               dec("15000"),
		EntryInstallmentsCount:    36,
		ConstructionTimeMonths:    36,
		MonthlyCorrectionRate:     dec("0.45"),
		NominalAnnualInterestRate: dec("8.66"),
		FinancingTermMonths:       420,
		AmortizationSystem:        ConstantInstallment,
	}
}

func TestCalculateConstructionStandard(t *testing.T) {
	rows := Calculate(standardConstruction())

	require.Len(t, rows, 36+420)

	for i := 0; i < 36; i++ {
		assert.Equal(t, PhaseConstruction, rows[i].Phase, "month %d", i+1)
		assert.True(t, rows[i].BankAmortization.IsZero())
		assert.True(t, rows[i].BankInterest.IsZero(), "interest is not charged by default")
		assert.True(t, rows[i].BankBalance.Equal(dec("280000")))
	}

	// (70000-15000)/36 corrected once.
	assertNear(t, "1534.65", rows[0].BuilderInstallment, "0.01")
	growth := dec("1.0045")
	for i := 1; i < 36; i++ {
		expected := rows[i-1].BuilderInstallment.Mul(growth)
		assertNear(t, expected.String(), rows[i].BuilderInstallment, "0.000001")
	}

	payment := loans.CalculateMonthlyPayment(dec("280000"), loans.MonthlyRate(dec("8.66")), 420)
	first := rows[36]
	assert.Equal(t, 37, first.Month)
	assert.Equal(t, PhaseAmortization, first.Phase)
	assert.True(t, first.BuilderInstallment.IsZero())
	assert.True(t, first.TotalInstallment.Equal(payment), "got %s want %s", first.TotalInstallment, payment)
	assertNear(t, "2020.67", first.BankInterest, "0.01")

	for _, r := range rows[36 : len(rows)-1] {
		assert.True(t, r.TotalInstallment.Equal(payment), "month %d installment %s", r.Month, r.TotalInstallment)
	}

	last := rows[len(rows)-1]
	assert.Equal(t, 456, last.Month)
	assert.True(t, last.BankBalance.IsZero())
}

func TestCalculateSigningBalloon(t *testing.T) {
	cfg := standardConstruction()
	cfg.HasBalloonProgram = true
	cfg.BalloonFrequency = FrequencyOnce
	cfg.BalloonStartMonth = 0
	cfg.BalloonValue = dec("10000")

	rows := Calculate(cfg)
	require.Len(t, rows, 36+420)

	assert.True(t, rows[0].BankBalance.Equal(dec("270000")))
	// (70000-15000-10000)/36 = 1250, corrected once.
	assertNear(t, "1255.625", rows[0].BuilderInstallment, "0.0000001")
	assertNear(t, "26255.625", rows[0].AccumulatedPaid, "0.0000001")

	payment := loans.CalculateMonthlyPayment(dec("270000"), loans.MonthlyRate(dec("8.66")), 420)
	assert.True(t, rows[36].TotalInstallment.Equal(payment))

	for _, r := range rows {
		assert.True(t, r.Balloon.IsZero(), "signing balloon is not re-detected at month %d", r.Month)
	}
}

func TestCalculateConstantAmortizationZeroRate(t *testing.T) {
	rows := Calculate(ScenarioConfig{
		PropertyValue:       dec("100000"),
		ScenarioType:        ScenarioBankReady,
		AmortizationSystem:  ConstantAmortization,
		FinancingTermMonths: 10,
	})

	require.Len(t, rows, 10)
	for i, r := range rows {
		assert.Equal(t, i+1, r.Month)
		assert.Equal(t, PhaseAmortization, r.Phase)
		assert.True(t, r.BankAmortization.Equal(dec("10000")), "month %d amortization %s", r.Month, r.BankAmortization)
		assert.True(t, r.BankInterest.IsZero())
		assert.True(t, r.TotalInstallment.Equal(dec("10000")))
	}
	assert.True(t, rows[9].BankBalance.IsZero())
	assert.True(t, rows[9].AccumulatedPaid.Equal(dec("100000")))
}

func TestCalculateFixedInstallmentBelowInterest(t *testing.T) {
	rows := Calculate(ScenarioConfig{
		PropertyValue:               dec("10000"),
		NominalAnnualInterestRate:   dec("300"),
		FinancingTermMonths:         12,
		MonthlyAdminFee:             dec("25"),
		InsuranceMIP:                dec("10"),
		UseFixedExternalInstallment: true,
		ExternalInstallmentValue:    dec("2000"),
	})

	require.Len(t, rows, 12)
	first := rows[0]
	assert.True(t, first.BankInterest.Equal(dec("2500")), "got %s", first.BankInterest)
	assert.True(t, first.BankAmortization.IsZero(), "amortization clamps at zero, got %s", first.BankAmortization)
	assert.True(t, first.BankFees.IsZero(), "fixed installment is all-inclusive")
	assert.True(t, first.TotalInstallment.Equal(dec("2000")))

	for _, r := range rows {
		assert.False(t, r.BankAmortization.IsNegative())
		assert.True(t, r.BankBalance.Equal(dec("10000")))
	}
}

func TestCalculateFixedInstallmentPaysOff(t *testing.T) {
	rows := Calculate(ScenarioConfig{
		PropertyValue:               dec("10000"),
		FinancingTermMonths:         24,
		UseFixedExternalInstallment: true,
		ExternalInstallmentValue:    dec("3000"),
	})

	require.Len(t, rows, 4)
	assert.True(t, rows[3].BankAmortization.Equal(dec("1000")))
	assert.True(t, rows[3].TotalInstallment.Equal(dec("3000")))
	assert.True(t, rows[3].BankBalance.IsZero())
}

func TestCalculateDegenerate(t *testing.T) {
	tests := []struct {
		name string
		cfg  ScenarioConfig
	}{
		{
			name: "Property fully paid",
			cfg:  ScenarioConfig{PropertyValue: dec("300000"), DownPayment: dec("300000")},
		},
		{
			name: "Everything zero",
			cfg:  ScenarioConfig{},
		},
		{
			name: "Fees without any debt",
			cfg: ScenarioConfig{
				PropertyValue:       dec("200000"),
				DownPayment:         dec("200000"),
				MonthlyAdminFee:     dec("25"),
				FinancingTermMonths: 360,
			},
		},
		{
			name: "Down payment above property with signal covering it",
			cfg: ScenarioConfig{
				PropertyValue:          dec("100000"),
				DownPayment:            dec("120000"),
				EntrySignal:            dec("120000"),
				EntryInstallmentsCount: 10,
				FinancingTermMonths:    12,
			},
		},
		{
			name: "Automatic balloon with nothing owed",
			cfg: ScenarioConfig{
				PropertyValue:       dec("100000"),
				DownPayment:         dec("100000"),
				EntrySignal:         dec("100000"),
				HasBalloonProgram:   true,
				BalloonFrequency:    FrequencyOnce,
				BalloonStartMonth:   6,
				BalloonValue:        dec("5000"),
				FinancingTermMonths: 12,
			},
		},
		{
			name: "Manual balloon covering the remaining down payment",
			cfg: ScenarioConfig{
				PropertyValue:       dec("100000"),
				DownPayment:         dec("100000"),
				EntrySignal:         dec("50000"),
				ManualBalloons:      []ManualBalloon{{Month: 3, Value: dec("50000")}},
				FinancingTermMonths: 12,
			},
		},
		{
			name: "Builder debt without installments",
			cfg: ScenarioConfig{
				PropertyValue:       dec("100000"),
				DownPayment:         dec("100000"),
				EntrySignal:         dec("40000"),
				FinancingTermMonths: 12,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := Calculate(tt.cfg)
			require.NotNil(t, rows)
			assert.Empty(t, rows)
		})
	}
}

func TestCalculateConstructionInterestStandard(t *testing.T) {
	cfg := ScenarioConfig{
		PropertyValue:              dec("100000"),
		ScenarioType:               ScenarioConstructionStandard,
		ConstructionTimeMonths:     10,
		ChargeConstructionInterest: true,
		NominalAnnualInterestRate:  dec("12"),
		MonthlyAdminFee:            dec("25"),
		FinancingTermMonths:        12,
	}

	rows := Calculate(cfg)
	require.Len(t, rows, 10+12)
	for i := 0; i < 10; i++ {
		expected := decimal.NewFromInt(int64(100 * (i + 1)))
		assertNear(t, expected.String(), rows[i].BankInterest, "0.0000001")
		assert.True(t, rows[i].BankFees.Equal(dec("25")))
		assert.True(t, rows[i].TotalInstallment.Equal(rows[i].BankInterest.Add(dec("25"))))
	}

	cfg.CurrentWorkProgressPercent = dec("50")
	rows = Calculate(cfg)
	assertNear(t, "550", rows[0].BankInterest, "0.0000001")
	assertNear(t, "1000", rows[9].BankInterest, "0.0000001")

	cfg.ChargeConstructionInterest = false
	rows = Calculate(cfg)
	for i := 0; i < 10; i++ {
		assert.True(t, rows[i].BankInterest.IsZero())
		assert.True(t, rows[i].BankFees.IsZero(), "fees follow interest charging")
	}
	assert.True(t, rows[10].BankFees.Equal(dec("25")), "fees always apply after delivery")
}

func TestCalculatePreConstructionWaiting(t *testing.T) {
	rows := Calculate(ScenarioConfig{
		PropertyValue:              dec("100000"),
		ScenarioType:               ScenarioConstructionStandard,
		ConstructionTimeMonths:     9,
		ChargeConstructionInterest: true,
		NominalAnnualInterestRate:  dec("12"),
		MonthlyAdminFee:            dec("25"),
		PreConstructionWaiting:     true,
		PreConstructionGapMonths:   3,
		ConstructionDurationMonths: 6,
		FinancingTermMonths:        12,
	})

	require.Len(t, rows, 9+12)
	for i := 0; i < 3; i++ {
		assert.True(t, rows[i].BankInterest.IsZero(), "no interest while waiting, month %d", i+1)
		assert.True(t, rows[i].BankFees.IsZero())
	}
	assertNear(t, "166.67", rows[3].BankInterest, "0.01")
	assert.True(t, rows[3].BankFees.Equal(dec("25")))
	assertNear(t, "1000", rows[8].BankInterest, "0.0000001")
}

func TestCalculateConstructionDirect(t *testing.T) {
	cfg := ScenarioConfig{
		PropertyValue:              dec("100000"),
		ScenarioType:               ScenarioConstructionDirect,
		ConstructionTimeMonths:     2,
		MonthlyCorrectionRate:      dec("1"),
		ChargeConstructionInterest: true,
		NominalAnnualInterestRate:  dec("12"),
		AmortizationSystem:         ConstantAmortization,
		FinancingTermMonths:        10,
	}

	rows := Calculate(cfg)
	require.Len(t, rows, 2+10)
	assert.True(t, rows[0].BankBalance.Equal(dec("101000")))
	assert.True(t, rows[0].BankInterest.Equal(dec("1010")))
	assert.True(t, rows[1].BankBalance.Equal(dec("102010")))
	assert.True(t, rows[1].BankInterest.Equal(dec("1020.1")))

	// Amortization runs on the corrected balance.
	assert.True(t, rows[2].BankAmortization.Equal(dec("10201")))

	cfg.ChargeConstructionInterest = false
	rows = Calculate(cfg)
	assert.True(t, rows[1].BankBalance.Equal(dec("102010")), "balance is corrected even without interest")
	assert.True(t, rows[1].BankInterest.IsZero())
}

func TestCalculateBankReadyIgnoresConstructionMonths(t *testing.T) {
	rows := Calculate(ScenarioConfig{
		PropertyValue:          dec("100000"),
		ScenarioType:           ScenarioBankReady,
		ConstructionTimeMonths: 24,
		FinancingTermMonths:    10,
	})

	require.Len(t, rows, 10)
	assert.Equal(t, 1, rows[0].Month)
	assert.Equal(t, PhaseAmortization, rows[0].Phase)
}

func TestCalculatePeriodicBalloonsShareQuota(t *testing.T) {
	rows := Calculate(ScenarioConfig{
		PropertyValue:          dec("120000"),
		DownPayment:            dec("20000"),
		ScenarioType:           ScenarioConstructionStandard,
		EntryInstallmentsCount: 6,
		ConstructionTimeMonths: 6,
		HasBalloonProgram:      true,
		BalloonFrequency:       FrequencyQuarterly,
		BalloonCount:           4,
		BalloonValue:           dec("1000"),
		FinancingTermMonths:    24,
	})

	var months []int
	for _, r := range rows {
		if r.Balloon.IsPositive() {
			months = append(months, r.Month)
		}
	}
	assert.Equal(t, []int{3, 6, 9, 12}, months)

	// Construction horizon balloons reduce recurring debt: (20000-2000)/6.
	assert.True(t, rows[0].BuilderInstallment.Equal(dec("3000")))
	assert.True(t, rows[2].BuilderInstallment.Equal(dec("4000")))
	assert.True(t, rows[2].TotalInstallment.Equal(dec("4000")))

	// Amortization balloons are bank paydowns on top of the installment.
	ninth := rows[8]
	assert.Equal(t, PhaseAmortization, ninth.Phase)
	assert.True(t, ninth.TotalInstallment.Equal(ninth.BankInterest.Add(ninth.BankAmortization).Add(dec("1000"))))
	assert.True(t, ninth.BankBalance.Equal(rows[7].BankBalance.Sub(ninth.BankAmortization).Sub(dec("1000"))))
}

func TestCalculatePeriodicBalloonWithoutCount(t *testing.T) {
	rows := Calculate(ScenarioConfig{
		PropertyValue:       dec("100000"),
		HasBalloonProgram:   true,
		BalloonFrequency:    FrequencyMonthly,
		BalloonValue:        dec("500"),
		FinancingTermMonths: 12,
	})

	require.Len(t, rows, 12)
	for _, r := range rows {
		assert.True(t, r.Balloon.IsZero())
	}
}

func TestCalculateOnceBalloonDuringAmortization(t *testing.T) {
	rows := Calculate(ScenarioConfig{
		PropertyValue:       dec("12000"),
		HasBalloonProgram:   true,
		BalloonFrequency:    FrequencyOnce,
		BalloonStartMonth:   5,
		BalloonValue:        dec("2000"),
		AmortizationSystem:  ConstantAmortization,
		FinancingTermMonths: 12,
	})

	fifth := rows[4]
	assert.True(t, fifth.Balloon.Equal(dec("2000")))
	assert.True(t, fifth.TotalInstallment.Equal(dec("3000")))
	assert.True(t, fifth.BankBalance.Equal(dec("5000")))
	// Constant amortization keeps the original quota, so the debt clears early.
	last := rows[len(rows)-1]
	assert.Equal(t, 10, last.Month)
	assert.True(t, last.BankBalance.IsZero())
}

func TestCalculateManualBalloons(t *testing.T) {
	rows := Calculate(ScenarioConfig{
		PropertyValue:          dec("110000"),
		DownPayment:            dec("10000"),
		ScenarioType:           ScenarioConstructionStandard,
		EntryInstallmentsCount: 4,
		ConstructionTimeMonths: 4,
		MonthlyCorrectionRate:  dec("1"),
		ManualBalloons: []ManualBalloon{
			{Month: 3, Value: dec("1000")},
			{Month: 2, Value: dec("500")},
			{Month: 2, Value: dec("500")},
			{Month: 0, Value: dec("9999")},
		},
		FinancingTermMonths: 12,
	})

	// (10000-2000)/4 = 2000 base; month 0 balloon is dropped.
	assertNear(t, "2020", rows[0].BuilderInstallment, "0.0000001")
	assertNear(t, "3060.3", rows[1].BuilderInstallment, "0.0000001")
	assertNear(t, "3090.903", rows[2].BuilderInstallment, "0.0000001")
	assert.True(t, rows[1].Balloon.IsZero(), "manual balloons are not automatic balloons")
}

func TestCalculateBuilderPlanExtendsPastDelivery(t *testing.T) {
	rows := Calculate(ScenarioConfig{
		PropertyValue:          dec("112000"),
		DownPayment:            dec("12000"),
		ScenarioType:           ScenarioConstructionStandard,
		EntryInstallmentsCount: 12,
		ConstructionTimeMonths: 6,
		MonthlyCorrectionRate:  dec("1"),
		FinancingTermMonths:    24,
	})

	seventh := rows[6]
	assert.Equal(t, PhaseAmortization, seventh.Phase)
	assertNear(t, "1072.1353521", seventh.BuilderInstallment, "0.000001")
	assert.True(t, seventh.TotalInstallment.Equal(seventh.BankInterest.Add(seventh.BankAmortization).Add(seventh.BuilderInstallment)))
	assert.True(t, rows[12].BuilderInstallment.IsZero())
}

func TestCalculateSettlesEarly(t *testing.T) {
	rows := Calculate(ScenarioConfig{
		PropertyValue:             dec("3000"),
		DownPayment:               dec("3000"),
		EntryInstallmentsCount:    3,
		NominalAnnualInterestRate: dec("6"),
		FinancingTermMonths:       360,
	})

	require.Len(t, rows, 4)
	for i := 0; i < 3; i++ {
		assert.True(t, rows[i].BuilderInstallment.Equal(dec("1000")))
	}
	assert.True(t, rows[3].TotalInstallment.IsZero())
	assert.True(t, rows[3].AccumulatedPaid.Equal(dec("3000")))
}

func TestCalculateZeroTerm(t *testing.T) {
	rows := Calculate(ScenarioConfig{
		PropertyValue:          dec("100000"),
		DownPayment:            dec("10000"),
		ScenarioType:           ScenarioConstructionStandard,
		EntryInstallmentsCount: 5,
		ConstructionTimeMonths: 5,
	})

	require.Len(t, rows, 5)
	for _, r := range rows {
		assert.Equal(t, PhaseConstruction, r.Phase)
	}
}

func TestCalculateIsSafeForConcurrentUse(t *testing.T) {
	cfg := standardConstruction()
	expected := Calculate(cfg)
	sim := NewSimulator(zap.NewNop())

	var wg sync.WaitGroup
	results := make([][]MonthlyResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = sim.Calculate(cfg)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		require.Len(t, got, len(expected))
		assert.True(t, got[len(got)-1].AccumulatedPaid.Equal(expected[len(expected)-1].AccumulatedPaid))
	}
}

func TestCalculateDoesNotMutateInput(t *testing.T) {
	balloons := []ManualBalloon{{Month: 5, Value: dec("100")}, {Month: 2, Value: dec("200")}}
	cfg := ScenarioConfig{
		PropertyValue:       dec("1000"),
		ManualBalloons:      balloons,
		FinancingTermMonths: 10,
	}

	Calculate(cfg)
	assert.Equal(t, 5, cfg.ManualBalloons[0].Month)
	assert.Equal(t, 2, cfg.ManualBalloons[1].Month)
}

func TestNewSimulatorNilLogger(t *testing.T) {
	sim := NewSimulator(nil)
	require.NotNil(t, sim)
	assert.NotPanics(t, func() { sim.Calculate(standardConstruction()) })
}
