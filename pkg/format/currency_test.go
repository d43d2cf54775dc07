package format

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"0", "$0.00"},
		{"12.5", "$12.50"},
		{"1234.567", "$1,234.57"},
		{"1534.6527777778", "$1,534.65"},
		{"-98765432.1", "-$98,765,432.10"},
		{"-0.001", "$0.00"},
		{"280000", "$280,000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := Currency(decimal.RequireFromString(tt.input)); result != tt.expected {
				t.Errorf("Currency(%s) = %s, expected %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNumericCurrency(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"0", "0.00"},
		{"999.999", "1,000.00"},
		{"-2124.3243", "-2,124.32"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := NumericCurrency(decimal.RequireFromString(tt.input)); result != tt.expected {
				t.Errorf("NumericCurrency(%s) = %s, expected %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPlain(t *testing.T) {
	if result := Plain(decimal.RequireFromString("1234.565")); result != "1234.57" {
		t.Errorf("Plain() = %s, expected 1234.57", result)
	}
	if result := Plain(decimal.Zero); result != "0.00" {
		t.Errorf("Plain(0) = %s, expected 0.00", result)
	}
}
