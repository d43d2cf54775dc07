package engine

import (
	"fmt"

	"github.com/iwvelando/financing-forecast/pkg/loans"
	"github.com/iwvelando/financing-forecast/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// installmentRule computes the principal repaid and the base bank
// installment for the j-th month of an n-month schedule.
type installmentRule func(j, n int, balance, interest decimal.Decimal) (amortization, base decimal.Decimal)

// newInstallmentRule precomputes the schedule parameters on the starting
// balance and returns the per-month rule.
func newInstallmentRule(cfg ScenarioConfig, balance, monthlyRate decimal.Decimal, n int) installmentRule {
	if cfg.UseFixedExternalInstallment {
		fixed := cfg.ExternalInstallmentValue
		return func(_, _ int, balance, interest decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
			amortization := mathutil.Min(mathutil.NonNegative(fixed.Sub(interest)), balance)
			if !balance.IsPositive() && !amortization.IsPositive() {
				return decimal.Zero, decimal.Zero
			}
			return amortization, fixed
		}
	}

	if cfg.AmortizationSystem == ConstantAmortization {
		quota := loans.CalculateConstantAmortization(balance, n)
		return func(j, n int, balance, interest decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
			amortization := mathutil.Min(quota, balance)
			if j == n {
				amortization = balance
			}
			return amortization, amortization.Add(interest)
		}
	}

	payment := loans.CalculateMonthlyPayment(balance, monthlyRate, n)
	return func(j, n int, balance, interest decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
		amortization := mathutil.NonNegative(payment.Sub(interest))
		if j == n || amortization.GreaterThan(balance) {
			// Final month absorbs rounding residue.
			amortization = balance
			return amortization, amortization.Add(interest)
		}
		return amortization, payment
	}
}

// simulateAmortization emits the bank phase rows, continuing the global
// month count from st. It stops early once both the bank balance and the
// builder installment are settled.
func (s *Simulator) simulateAmortization(p plan, st simulationState) ([]MonthlyResult, simulationState) {
	n := p.cfg.FinancingTermMonths
	if n <= 0 {
		return nil, st
	}

	balance := mathutil.NonNegative(st.balance)
	rule := newInstallmentRule(p.cfg, balance, p.monthlyRate, n)
	rows := make([]MonthlyResult, 0, n)
	offset := st.month

	for j := 1; j <= n; j++ {
		month := offset + j
		interest := loans.CalculateInterestPayment(balance, p.monthlyRate)
		amortization, base := rule(j, n, balance, interest)

		var balloon decimal.Decimal
		balloon, st.balloonsConsumed = p.balloons.consume(month, st.balloonsConsumed)
		if balloon.IsPositive() {
			s.logger.Debug(fmt.Sprintf("balloon due in amortization month %d", month),
				zap.String("op", "engine.simulateAmortization"),
				zap.String("value", balloon.StringFixed(2)),
				zap.Int("consumed", st.balloonsConsumed),
			)
		}

		builder := p.builderInstallment(month, p.correctionFactor(month))
		bankTotal := mathutil.Sum(base, p.fees, balloon)
		total := bankTotal.Add(builder)

		balance = mathutil.NonNegative(balance.Sub(amortization).Sub(balloon))
		st.accumulated = st.accumulated.Add(total)
		st.month = month

		rows = append(rows, MonthlyResult{
			Month:              month,
			BankBalance:        balance,
			BankInterest:       interest,
			BankAmortization:   amortization,
			BankFees:           p.fees,
			BuilderInstallment: builder,
			Balloon:            balloon,
			TotalInstallment:   total,
			AccumulatedPaid:    st.accumulated,
			Phase:              PhaseAmortization,
		})

		if mathutil.IsSettled(balance) && mathutil.IsSettled(builder) {
			if j < n {
				s.logger.Debug(fmt.Sprintf("settled early at month %d", month),
					zap.String("op", "engine.simulateAmortization"),
					zap.Int("remainingTerm", n-j),
				)
			}
			break
		}
	}

	st.balance = balance
	return rows, st
}
