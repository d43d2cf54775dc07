// Package constants provides shared constants for the financing-forecast application.
package constants

// DateTimeLayout is the format expected for scenario start dates and is also
// the output date format.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// CurrencyPlaces is the number of decimal places used for currency rounding
	CurrencyPlaces = 2

	// WorkingPlaces is the number of decimal places kept on intermediate
	// amounts so that long compounding runs do not grow unbounded digits.
	WorkingPlaces = 10

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100

	// SettlementTolerance is the amount at or below which a balance or
	// installment is considered settled (1 cent).
	SettlementTolerance = "0.01"
)

// Balloon frequency intervals in months.
const (
	// MonthlyInterval fires a periodic balloon every month
	MonthlyInterval = 1

	// QuarterlyInterval fires a periodic balloon every three months
	QuarterlyInterval = 3

	// SemiannualInterval fires a periodic balloon every six months
	SemiannualInterval = 6

	// AnnualInterval fires a periodic balloon every twelve months
	AnnualInterval = 12
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultCacheTTL is the default lifetime of a memoized timeline
	DefaultCacheTTL = "24h"
)
