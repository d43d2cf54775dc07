// Package loans provides common loan processing utilities.
package loans

import (
	"github.com/iwvelando/financing-forecast/pkg/constants"
	"github.com/iwvelando/financing-forecast/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// factorPlaces is the precision kept on compounding factors.
const factorPlaces = 16

var (
	one            = decimal.NewFromInt(1)
	monthsPerYear  = decimal.NewFromInt(constants.MonthsPerYear)
	percentPerUnit = decimal.NewFromInt(constants.PercentageMultiplier)
)

// MonthlyRate converts a nominal annual interest rate expressed in percent
// into the effective monthly fraction, i.e. (rate/100)/12.
func MonthlyRate(annualInterestRate decimal.Decimal) decimal.Decimal {
	return annualInterestRate.Div(percentPerUnit).Div(monthsPerYear)
}

// CompoundFactor returns (1+rate)^periods. Non-positive periods yield 1.
func CompoundFactor(rate decimal.Decimal, periods int) decimal.Decimal {
	if periods <= 0 || rate.IsZero() {
		return one
	}
	return one.Add(rate).Pow(decimal.NewFromInt(int64(periods))).Round(factorPlaces)
}

// CalculateMonthlyPayment calculates the fixed installment of a French
// (constant-installment) schedule using the standard annuity formula
// P = B*i*(1+i)^n / ((1+i)^n - 1). A zero rate degrades to B/n.
func CalculateMonthlyPayment(principal, monthlyRate decimal.Decimal, termMonths int) decimal.Decimal {
	if termMonths <= 0 || !principal.IsPositive() {
		return decimal.Zero
	}
	n := decimal.NewFromInt(int64(termMonths))
	if monthlyRate.IsZero() {
		return principal.Div(n)
	}

	power := CompoundFactor(monthlyRate, termMonths)
	denominator := power.Sub(one)
	if denominator.IsZero() {
		return principal.Div(n)
	}
	return mathutil.Trim(principal.Mul(monthlyRate).Mul(power).Div(denominator))
}

// CalculateConstantAmortization returns the fixed principal repayment of a
// constant-amortization schedule, i.e. B/n.
func CalculateConstantAmortization(principal decimal.Decimal, termMonths int) decimal.Decimal {
	if termMonths <= 0 || !principal.IsPositive() {
		return decimal.Zero
	}
	return mathutil.Trim(principal.Div(decimal.NewFromInt(int64(termMonths))))
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(remainingPrincipal, monthlyRate decimal.Decimal) decimal.Decimal {
	return mathutil.Trim(remainingPrincipal.Mul(monthlyRate))
}
