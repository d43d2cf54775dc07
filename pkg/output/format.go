// Package output provides utilities for formatting and displaying forecast results.
package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/financing-forecast/internal/forecast"
	"github.com/iwvelando/financing-forecast/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// csvHeader is the column layout of the long-format CSV export.
var csvHeader = []string{
	"scenario", "month", "date", "phase",
	"builder", "interest", "amortization", "fees", "balloon",
	"total", "accumulated", "balance",
}

// PrettyFormat writes a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, results []forecast.Forecast) error {
	p := message.NewPrinter(language.English)
	for i, result := range results {
		if _, err := p.Fprintf(w, "--- Results for scenario %s ---\n", result.Name); err != nil {
			return err
		}
		for _, warning := range result.Warnings {
			if _, err := p.Fprintf(w, "warning: %s\n", warning); err != nil {
				return err
			}
		}

		if len(result.Rows) == 0 {
			if _, err := p.Fprintf(w, "Nothing is owed; no installments to show.\n"); err != nil {
				return err
			}
		} else {
			if err := prettyTable(w, p, result); err != nil {
				return err
			}
			if err := prettySummary(w, p, result); err != nil {
				return err
			}
		}

		if len(results) > 1 && i < len(results)-1 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
	}
	return nil
}

func prettyTable(w io.Writer, p *message.Printer, result forecast.Forecast) error {
	if _, err := p.Fprintf(w, "%-5s | %-7s | %-12s | %14s | %14s | %14s | %14s | %16s | %16s\n",
		"Month", "Date", "Phase", "Builder", "Interest", "Amortization", "Fees", "Installment", "Balance"); err != nil {
		return err
	}
	if _, err := p.Fprintf(w, "%-5s | %-7s | %-12s | %14s | %14s | %14s | %14s | %16s | %16s\n",
		"_____", "____", "_____", "_______", "________", "____________", "____", "___________", "_______"); err != nil {
		return err
	}
	for i, row := range result.Rows {
		if _, err := p.Fprintf(w, "%5d | %-7s | %-12s | %14s | %14s | %14s | %14s | %16s | %16s\n",
			row.Month,
			result.Date(i),
			string(row.Phase),
			format.Currency(row.BuilderInstallment),
			format.Currency(row.BankInterest),
			format.Currency(row.BankAmortization),
			format.Currency(row.BankFees),
			format.Currency(row.TotalInstallment),
			format.Currency(row.BankBalance),
		); err != nil {
			return err
		}
	}
	return nil
}

func prettySummary(w io.Writer, p *message.Printer, result forecast.Forecast) error {
	s := result.Summary
	lines := []struct {
		label string
		value string
	}{
		{"Months", p.Sprintf("%d (%d construction, %d amortization)", s.Months, s.ConstructionMonths, s.AmortizationMonths)},
		{"Financed principal", format.Currency(result.Setup.FinancedPrincipal)},
		{"Builder debt", format.Currency(result.Setup.BuilderDebt)},
		{"Total paid to builder", format.Currency(s.TotalBuilder)},
		{"Total interest", format.Currency(s.TotalInterest)},
		{"Total fees", format.Currency(s.TotalFees)},
		{"Total balloons", format.Currency(s.TotalBalloons)},
		{"Total paid", format.Currency(s.FinalAccumulated)},
	}
	for _, line := range lines {
		if _, err := p.Fprintf(w, "%-22s %s\n", line.label+":", line.value); err != nil {
			return err
		}
	}
	return nil
}

// CsvFormat writes every timeline in long comma-separated value format, one
// record per scenario month.
func CsvFormat(w io.Writer, results []forecast.Forecast) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, result := range results {
		for i, row := range result.Rows {
			record := []string{
				result.Name,
				strconv.Itoa(row.Month),
				result.Date(i),
				string(row.Phase),
				format.Plain(row.BuilderInstallment),
				format.Plain(row.BankInterest),
				format.Plain(row.BankAmortization),
				format.Plain(row.BankFees),
				format.Plain(row.Balloon),
				format.Plain(row.TotalInstallment),
				format.Plain(row.AccumulatedPaid),
				format.Plain(row.BankBalance),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// CsvString renders CsvFormat into a string.
func CsvString(results []forecast.Forecast) (string, error) {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, results); err != nil {
		return "", err
	}
	return buf.String(), nil
}
