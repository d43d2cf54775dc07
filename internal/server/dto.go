package server

import (
	"time"

	"github.com/iwvelando/financing-forecast/internal/config"
	"github.com/iwvelando/financing-forecast/internal/forecast"
	"github.com/iwvelando/financing-forecast/internal/repository"
	"github.com/iwvelando/financing-forecast/pkg/engine"
	"github.com/iwvelando/financing-forecast/pkg/mathutil"
	"github.com/shopspring/decimal"
)

type timelineRow struct {
	Month              int     `json:"month"`
	Date               string  `json:"date,omitempty"`
	Phase              string  `json:"phase"`
	BankBalance        float64 `json:"bankBalance"`
	BankInterest       float64 `json:"bankInterest"`
	BankAmortization   float64 `json:"bankAmortization"`
	BankFees           float64 `json:"bankFees"`
	BuilderInstallment float64 `json:"builderInstallment"`
	Balloon            float64 `json:"balloon"`
	TotalInstallment   float64 `json:"totalInstallment"`
	AccumulatedPaid    float64 `json:"accumulatedPaid"`
}

type summaryDTO struct {
	Months                       int     `json:"months"`
	ConstructionMonths           int     `json:"constructionMonths"`
	AmortizationMonths           int     `json:"amortizationMonths"`
	FirstConstructionInstallment float64 `json:"firstConstructionInstallment"`
	FirstAmortizationInstallment float64 `json:"firstAmortizationInstallment"`
	TotalConstruction            float64 `json:"totalConstruction"`
	TotalAmortization            float64 `json:"totalAmortization"`
	TotalBuilder                 float64 `json:"totalBuilder"`
	TotalInterest                float64 `json:"totalInterest"`
	TotalAmortized               float64 `json:"totalAmortized"`
	TotalFees                    float64 `json:"totalFees"`
	TotalBalloons                float64 `json:"totalBalloons"`
	FinalAccumulated             float64 `json:"finalAccumulated"`
	FinalBankBalance             float64 `json:"finalBankBalance"`
}

type setupDTO struct {
	ConstructionMonths     int     `json:"constructionMonths"`
	SigningBalloon         float64 `json:"signingBalloon"`
	HorizonBalloons        float64 `json:"horizonBalloons"`
	ManualBalloons         float64 `json:"manualBalloons"`
	BuilderDebt            float64 `json:"builderDebt"`
	BuilderBaseInstallment float64 `json:"builderBaseInstallment"`
	FinancedPrincipal      float64 `json:"financedPrincipal"`
	MonthlyFees            float64 `json:"monthlyFees"`
}

type scenarioResult struct {
	Name     string        `json:"name"`
	Setup    setupDTO      `json:"setup"`
	Summary  summaryDTO    `json:"summary"`
	Rows     []timelineRow `json:"rows,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
}

type recordDTO struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Scenario  config.Scenario `json:"scenario"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func money(d decimal.Decimal) float64 {
	return mathutil.Round(d).InexactFloat64()
}

func newScenarioResult(f forecast.Forecast, withRows bool) scenarioResult {
	result := scenarioResult{
		Name:     f.Name,
		Setup:    newSetupDTO(f.Setup),
		Summary:  newSummaryDTO(f.Summary),
		Warnings: f.Warnings,
	}
	if withRows {
		result.Rows = newTimelineRows(f)
	}
	return result
}

func newTimelineRows(f forecast.Forecast) []timelineRow {
	rows := make([]timelineRow, 0, len(f.Rows))
	for i, r := range f.Rows {
		rows = append(rows, timelineRow{
			Month:              r.Month,
			Date:               f.Date(i),
			Phase:              string(r.Phase),
			BankBalance:        money(r.BankBalance),
			BankInterest:       money(r.BankInterest),
			BankAmortization:   money(r.BankAmortization),
			BankFees:           money(r.BankFees),
			BuilderInstallment: money(r.BuilderInstallment),
			Balloon:            money(r.Balloon),
			TotalInstallment:   money(r.TotalInstallment),
			AccumulatedPaid:    money(r.AccumulatedPaid),
		})
	}
	return rows
}

func newSummaryDTO(s engine.Summary) summaryDTO {
	return summaryDTO{
		Months:                       s.Months,
		ConstructionMonths:           s.ConstructionMonths,
		AmortizationMonths:           s.AmortizationMonths,
		FirstConstructionInstallment: money(s.FirstConstructionInstallment),
		FirstAmortizationInstallment: money(s.FirstAmortizationInstallment),
		TotalConstruction:            money(s.TotalConstruction),
		TotalAmortization:            money(s.TotalAmortization),
		TotalBuilder:                 money(s.TotalBuilder),
		TotalInterest:                money(s.TotalInterest),
		TotalAmortized:               money(s.TotalAmortized),
		TotalFees:                    money(s.TotalFees),
		TotalBalloons:                money(s.TotalBalloons),
		FinalAccumulated:             money(s.FinalAccumulated),
		FinalBankBalance:             money(s.FinalBankBalance),
	}
}

func newSetupDTO(s engine.Setup) setupDTO {
	return setupDTO{
		ConstructionMonths:     s.ConstructionMonths,
		SigningBalloon:         money(s.SigningBalloon),
		HorizonBalloons:        money(s.HorizonBalloons),
		ManualBalloons:         money(s.ManualBalloons),
		BuilderDebt:            money(s.BuilderDebt),
		BuilderBaseInstallment: money(s.BuilderBaseInstallment),
		FinancedPrincipal:      money(s.FinancedPrincipal),
		MonthlyFees:            money(s.MonthlyFees),
	}
}

func newRecordDTO(rec repository.Record) recordDTO {
	return recordDTO{
		ID:        rec.ID.String(),
		Name:      rec.Name,
		Scenario:  rec.Scenario,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
