package output

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/iwvelando/financing-forecast/internal/forecast"
	"github.com/iwvelando/financing-forecast/pkg/engine"
	"github.com/shopspring/decimal"
)

func sampleForecasts() []forecast.Forecast {
	cfg := engine.ScenarioConfig{
		PropertyValue:             decimal.NewFromInt(1012000),
		DownPayment:               decimal.NewFromInt(12000),
		NominalAnnualInterestRate: decimal.NewFromInt(12),
		AmortizationSystem:        engine.ConstantAmortization,
		FinancingTermMonths:       2,
		MonthlyAdminFee:           decimal.NewFromInt(25),
	}
	rows := engine.Calculate(cfg)
	return []forecast.Forecast{
		{
			Name:     "Test Scenario",
			Scenario: cfg,
			Setup:    engine.Describe(cfg),
			Rows:     rows,
			Dates:    []string{"2026-01", "2026-02"},
			Summary:  engine.Summarize(rows),
			Warnings: []string{"check me"},
		},
		{
			Name: "Empty",
		},
	}
}

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := PrettyFormat(&buf, sampleForecasts()); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	output := buf.String()

	expected := []string{
		"--- Results for scenario Test Scenario ---",
		"warning: check me",
		"Month | Date",
		"2026-01",
		"amortization",
		// Month 1: 500,000 amortization + 10,000 interest + 25 fees.
		"$510,025.00",
		"$500,000.00",
		"Total interest:",
		"$15,000.00",
		"--- Results for scenario Empty ---",
		"Nothing is owed",
	}
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("PrettyFormat() output missing %q:\n%s", want, output)
		}
	}
}

func TestCsvFormat(t *testing.T) {
	out, err := CsvString(sampleForecasts())
	if err != nil {
		t.Fatalf("CsvString() error = %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}

	if strings.Join(records[0], ",") != strings.Join(csvHeader, ",") {
		t.Errorf("header = %v", records[0])
	}

	first := records[1]
	expected := []string{"Test Scenario", "1", "2026-01", "amortization", "0.00", "10000.00", "500000.00", "25.00", "0.00", "510025.00", "510025.00", "500000.00"}
	for i, want := range expected {
		if first[i] != want {
			t.Errorf("column %s = %q, expected %q", csvHeader[i], first[i], want)
		}
	}

	last := records[2]
	if last[11] != "0.00" {
		t.Errorf("final balance = %s, expected 0.00", last[11])
	}
	if last[10] != "1015050.00" {
		t.Errorf("final accumulated = %s, expected 1015050.00", last[10])
	}
}

func TestCsvFormatNoResults(t *testing.T) {
	out, err := CsvString(nil)
	if err != nil {
		t.Fatalf("CsvString() error = %v", err)
	}
	if strings.TrimSpace(out) != strings.Join(csvHeader, ",") {
		t.Errorf("expected header only, got %q", out)
	}
}
