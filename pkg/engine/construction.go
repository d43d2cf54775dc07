package engine

import (
	"fmt"

	"github.com/iwvelando/financing-forecast/pkg/loans"
	"github.com/iwvelando/financing-forecast/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var one = decimal.NewFromInt(1)

// simulationState is carried between the two phase simulators by value.
type simulationState struct {
	month            int
	balance          decimal.Decimal
	accumulated      decimal.Decimal
	balloonsConsumed int
}

// simulateConstruction emits one row per construction month. It always
// runs the full horizon.
func (s *Simulator) simulateConstruction(p plan, st simulationState) ([]MonthlyResult, simulationState) {
	months := p.constructionMonths
	if months <= 0 {
		return nil, st
	}

	cfg := p.cfg
	rows := make([]MonthlyResult, 0, months)
	growth := one.Add(p.correctionRate)
	startProgress := mathutil.Min(one, mathutil.PercentToRate(cfg.CurrentWorkProgressPercent))

	for i := 1; i <= months; i++ {
		factor := p.correctionFactor(i)
		builder := p.builderInstallment(i, factor)

		var balloon decimal.Decimal
		balloon, st.balloonsConsumed = p.balloons.consume(i, st.balloonsConsumed)
		if balloon.IsPositive() {
			balloon = mathutil.Trim(balloon.Mul(factor))
			builder = builder.Add(balloon)
			s.logger.Debug(fmt.Sprintf("balloon due in construction month %d", i),
				zap.String("op", "engine.simulateConstruction"),
				zap.String("value", balloon.StringFixed(2)),
				zap.Int("consumed", st.balloonsConsumed),
			)
		}

		if cfg.ScenarioType == ScenarioConstructionDirect {
			st.balance = mathutil.Trim(st.balance.Mul(growth))
		}

		waiting := cfg.PreConstructionWaiting && i <= cfg.PreConstructionGapMonths
		interest := decimal.Zero
		fees := decimal.Zero
		if cfg.ChargeConstructionInterest && !waiting {
			fees = p.fees
			if cfg.ScenarioType == ScenarioConstructionDirect {
				interest = loans.CalculateInterestPayment(st.balance, p.monthlyRate)
			} else {
				released := mathutil.NonNegative(st.balance).Mul(constructionProgress(cfg, startProgress, months, i))
				interest = loans.CalculateInterestPayment(released, p.monthlyRate)
			}
		}

		total := mathutil.Sum(builder, interest, fees)
		st.accumulated = st.accumulated.Add(total)
		st.month = i

		rows = append(rows, MonthlyResult{
			Month:              i,
			BankBalance:        st.balance,
			BankInterest:       interest,
			BankAmortization:   decimal.Zero,
			BankFees:           fees,
			BuilderInstallment: builder,
			Balloon:            balloon,
			TotalInstallment:   total,
			AccumulatedPaid:    st.accumulated,
			Phase:              PhaseConstruction,
		})
	}

	return rows, st
}

// constructionProgress is the fraction of the financed principal released
// by month i, capped at 1.
func constructionProgress(cfg ScenarioConfig, start decimal.Decimal, months, i int) decimal.Decimal {
	month := decimal.NewFromInt(int64(i))

	if cfg.PreConstructionWaiting && i > cfg.PreConstructionGapMonths {
		duration := cfg.ConstructionDurationMonths
		if duration <= 0 {
			duration = months - cfg.PreConstructionGapMonths
		}
		if duration <= 0 {
			return one
		}
		elapsed := decimal.NewFromInt(int64(i - cfg.PreConstructionGapMonths))
		return mathutil.Min(one, mathutil.Trim(mathutil.SafeDiv(elapsed, decimal.NewFromInt(int64(duration)))))
	}

	step := mathutil.SafeDiv(one.Sub(start), decimal.NewFromInt(int64(months)))
	return mathutil.Min(one, mathutil.Trim(start.Add(step.Mul(month))))
}
