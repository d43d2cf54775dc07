package datetime

import (
	"testing"
)

func TestMustParseTime(t *testing.T) {
	tests := []struct {
		name     string
		layout   string
		dateStr  string
		expected string
	}{
		{
			name:     "Valid date",
			layout:   DateTimeLayout,
			dateStr:  "2025-01",
			expected: "2025-01",
		},
		{
			name:     "Another valid date",
			layout:   DateTimeLayout,
			dateStr:  "2030-12",
			expected: "2030-12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MustParseTime(tt.layout, tt.dateStr)
			if result.Format(tt.layout) != tt.expected {
				t.Errorf("MustParseTime() = %s, expected %s", result.Format(tt.layout), tt.expected)
			}
		})
	}
}

func TestMustParseTimePanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected MustParseTime to panic with invalid date")
		}
	}()

	MustParseTime(DateTimeLayout, "invalid-date")
}

func TestOffsetDateAdvanced(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		layout   string
		months   int
		expected string
		wantErr  bool
	}{
		{
			name:     "Add multiple years",
			date:     "2025-01",
			layout:   DateTimeLayout,
			months:   24,
			expected: "2027-01",
			wantErr:  false,
		},
		{
			name:     "Subtract multiple years",
			date:     "2025-01",
			layout:   DateTimeLayout,
			months:   -24,
			expected: "2023-01",
			wantErr:  false,
		},
		{
			name:     "Cross year boundary forward",
			date:     "2025-06",
			layout:   DateTimeLayout,
			months:   8,
			expected: "2026-02",
			wantErr:  false,
		},
		{
			name:     "Cross year boundary backward",
			date:     "2025-06",
			layout:   DateTimeLayout,
			months:   -8,
			expected: "2024-10",
			wantErr:  false,
		},
		{
			name:     "Zero months",
			date:     "2025-06",
			layout:   DateTimeLayout,
			months:   0,
			expected: "2025-06",
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := OffsetDate(tt.date, tt.layout, tt.months)
			if tt.wantErr {
				if err == nil {
					t.Errorf("OffsetDate() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("OffsetDate() error = %v", err)
				return
			}
			if result != tt.expected {
				t.Errorf("OffsetDate() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestValidateStartDate(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		wantErr bool
	}{
		{"Empty is allowed", "", false},
		{"Valid month", "2026-03", false},
		{"Full date rejected", "2026-03-01", true},
		{"Garbage rejected", "March 2026", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStartDate(tt.date)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStartDate(%q) error = %v, wantErr %v", tt.date, err, tt.wantErr)
			}
		})
	}
}

func TestMonthLabel(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		month    int
		expected string
		wantErr  bool
	}{
		{"Signing month", "2026-03", 0, "2026-03", false},
		{"First month", "2026-03", 1, "2026-04", false},
		{"Crosses year", "2026-11", 37, "2029-12", false},
		{"No start date", "", 12, "", false},
		{"Invalid start date", "2026/03", 1, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MonthLabel(tt.start, tt.month)
			if tt.wantErr {
				if err == nil {
					t.Errorf("MonthLabel() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("MonthLabel() error = %v", err)
				return
			}
			if result != tt.expected {
				t.Errorf("MonthLabel() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestMonthLabels(t *testing.T) {
	labels, err := MonthLabels("2026-11", 3)
	if err != nil {
		t.Fatalf("MonthLabels() error = %v", err)
	}
	expected := []string{"2026-12", "2027-01", "2027-02"}
	for i := range expected {
		if labels[i] != expected[i] {
			t.Errorf("MonthLabels()[%d] = %s, expected %s", i, labels[i], expected[i])
		}
	}

	empty, err := MonthLabels("", 2)
	if err != nil {
		t.Fatalf("MonthLabels() without start date error = %v", err)
	}
	if len(empty) != 2 || empty[0] != "" {
		t.Errorf("MonthLabels() without start date = %v, expected two empty labels", empty)
	}

	if _, err := MonthLabels("bad", 2); err == nil {
		t.Errorf("MonthLabels() expected error for invalid start date")
	}
}
