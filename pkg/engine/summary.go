package engine

import "github.com/shopspring/decimal"

// Summary holds the scalar reductions a comparison or report view shows for
// one timeline.
type Summary struct {
	Months             int `json:"months"`
	ConstructionMonths int `json:"constructionMonths"`
	AmortizationMonths int `json:"amortizationMonths"`

	FirstConstructionInstallment decimal.Decimal `json:"firstConstructionInstallment"`
	FirstAmortizationInstallment decimal.Decimal `json:"firstAmortizationInstallment"`

	TotalConstruction decimal.Decimal `json:"totalConstruction"`
	TotalAmortization decimal.Decimal `json:"totalAmortization"`

	TotalBuilder     decimal.Decimal `json:"totalBuilder"`
	TotalInterest    decimal.Decimal `json:"totalInterest"`
	TotalAmortized   decimal.Decimal `json:"totalAmortized"`
	TotalFees        decimal.Decimal `json:"totalFees"`
	TotalBalloons    decimal.Decimal `json:"totalBalloons"`
	FinalAccumulated decimal.Decimal `json:"finalAccumulated"`
	FinalBankBalance decimal.Decimal `json:"finalBankBalance"`
}

// Summarize reduces a timeline into its Summary. An empty timeline yields a
// zero Summary.
func Summarize(rows []MonthlyResult) Summary {
	var s Summary
	s.Months = len(rows)

	seenConstruction, seenAmortization := false, false
	for _, r := range rows {
		switch r.Phase {
		case PhaseConstruction:
			s.ConstructionMonths++
			s.TotalConstruction = s.TotalConstruction.Add(r.TotalInstallment)
			if !seenConstruction {
				s.FirstConstructionInstallment = r.TotalInstallment
				seenConstruction = true
			}
		case PhaseAmortization:
			s.AmortizationMonths++
			s.TotalAmortization = s.TotalAmortization.Add(r.TotalInstallment)
			if !seenAmortization {
				s.FirstAmortizationInstallment = r.TotalInstallment
				seenAmortization = true
			}
		}

		s.TotalBuilder = s.TotalBuilder.Add(r.BuilderInstallment)
		s.TotalInterest = s.TotalInterest.Add(r.BankInterest)
		s.TotalAmortized = s.TotalAmortized.Add(r.BankAmortization)
		s.TotalFees = s.TotalFees.Add(r.BankFees)
		s.TotalBalloons = s.TotalBalloons.Add(r.Balloon)
	}

	if len(rows) > 0 {
		last := rows[len(rows)-1]
		s.FinalAccumulated = last.AccumulatedPaid
		s.FinalBankBalance = last.BankBalance
	}
	return s
}
