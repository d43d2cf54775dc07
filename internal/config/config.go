// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/financing-forecast/pkg/constants"
	"github.com/iwvelando/financing-forecast/pkg/datetime"
	"github.com/iwvelando/financing-forecast/pkg/validation"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// DateTimeLayout is the format expected in config files and is also the output
// date format.
const DateTimeLayout = constants.DateTimeLayout

// Configuration holds all configuration for financing-forecast.
type Configuration struct {
	Logging   LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty"`
	Output    OutputConfig  `yaml:"output,omitempty" json:"output,omitempty"`
	Scenarios []Scenario    `yaml:"scenarios" json:"scenarios"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" json:"level,omitempty"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" json:"format,omitempty"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" json:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" json:"format,omitempty"` // pretty, csv
}

// Scenario is one named financing deal as written in the configuration.
// Enumerations stay strings here and are parsed by ToScenarioConfig.
type Scenario struct {
	Name      string `yaml:"name" json:"name"`
	Active    bool   `yaml:"active" json:"active"`
	StartDate string `yaml:"startDate,omitempty" json:"startDate,omitempty"`

	PropertyValue          decimal.Decimal `yaml:"propertyValue" json:"propertyValue"`
	DownPayment            decimal.Decimal `yaml:"downPayment" json:"downPayment"`
	ScenarioType           string          `yaml:"scenarioType,omitempty" json:"scenarioType,omitempty"`
	EntrySignal            decimal.Decimal `yaml:"entrySignal" json:"entrySignal"`
	EntryInstallmentsCount int             `yaml:"entryInstallmentsCount" json:"entryInstallmentsCount"`
	ManualBalloons         []ManualBalloon `yaml:"manualBalloons,omitempty" json:"manualBalloons,omitempty"`

	HasBalloonProgram bool            `yaml:"hasBalloonProgram" json:"hasBalloonProgram"`
	BalloonFrequency  string          `yaml:"balloonFrequency,omitempty" json:"balloonFrequency,omitempty"`
	BalloonCount      int             `yaml:"balloonCount" json:"balloonCount"`
	BalloonValue      decimal.Decimal `yaml:"balloonValue" json:"balloonValue"`
	BalloonStartMonth int             `yaml:"balloonStartMonth" json:"balloonStartMonth"`

	AmortizationSystem        string          `yaml:"amortizationSystem,omitempty" json:"amortizationSystem,omitempty"`
	NominalAnnualInterestRate decimal.Decimal `yaml:"nominalAnnualInterestRate" json:"nominalAnnualInterestRate"`
	FinancingTermMonths       int             `yaml:"financingTermMonths" json:"financingTermMonths"`

	MonthlyAdminFee decimal.Decimal `yaml:"monthlyAdminFee" json:"monthlyAdminFee"`
	InsuranceMIP    decimal.Decimal `yaml:"insuranceMIP" json:"insuranceMIP"`
	InsuranceDFI    decimal.Decimal `yaml:"insuranceDFI" json:"insuranceDFI"`

	ConstructionTimeMonths     int             `yaml:"constructionTimeMonths" json:"constructionTimeMonths"`
	MonthlyCorrectionRate      decimal.Decimal `yaml:"monthlyCorrectionRate" json:"monthlyCorrectionRate"`
	ChargeConstructionInterest bool            `yaml:"chargeConstructionInterest" json:"chargeConstructionInterest"`
	CurrentWorkProgressPercent decimal.Decimal `yaml:"currentWorkProgressPercent" json:"currentWorkProgressPercent"`

	PreConstructionWaiting     bool `yaml:"preConstructionWaiting" json:"preConstructionWaiting"`
	PreConstructionGapMonths   int  `yaml:"preConstructionGapMonths" json:"preConstructionGapMonths"`
	ConstructionDurationMonths int  `yaml:"constructionDurationMonths" json:"constructionDurationMonths"`

	UseFixedExternalInstallment bool            `yaml:"useFixedExternalInstallment" json:"useFixedExternalInstallment"`
	ExternalInstallmentValue    decimal.Decimal `yaml:"externalInstallmentValue" json:"externalInstallmentValue"`
}

// ManualBalloon is an extra builder payment at a given month.
type ManualBalloon struct {
	Month int             `yaml:"month" json:"month"`
	Value decimal.Decimal `yaml:"value" json:"value"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}

	return unmarshal(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration, viper.DecodeHook(DecodeHook())); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	configuration.applyDefaults()
	return &configuration, nil
}

// DecodeConfiguration decodes a generic map (for example a JSON document
// produced by an editor) into a Configuration with the same coercion rules as
// the YAML loader.
func DecodeConfiguration(raw map[string]interface{}) (*Configuration, error) {
	var configuration Configuration
	if err := decode(raw, &configuration); err != nil {
		return nil, fmt.Errorf("unable to decode configuration, %w", err)
	}
	configuration.applyDefaults()
	return &configuration, nil
}

// DecodeScenario decodes a single scenario from a generic map.
func DecodeScenario(raw map[string]interface{}) (Scenario, error) {
	var scenario Scenario
	if err := decode(raw, &scenario); err != nil {
		return Scenario{}, fmt.Errorf("unable to decode scenario, %w", err)
	}
	return scenario, nil
}

func decode(raw map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       DecodeHook(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

func (c *Configuration) applyDefaults() {
	if format, err := validation.ParseOutputFormat(c.Output.Format); err == nil {
		c.Output.Format = format
	} else if strings.TrimSpace(c.Output.Format) == "" {
		c.Output.Format = constants.OutputFormatPretty
	}
	for i := range c.Scenarios {
		c.Scenarios[i].Name = strings.TrimSpace(c.Scenarios[i].Name)
	}
}

// ActiveScenarios returns the scenarios flagged active, in configuration order.
func (c *Configuration) ActiveScenarios() []Scenario {
	var active []Scenario
	for _, s := range c.Scenarios {
		if s.Active {
			active = append(active, s)
		}
	}
	return active
}

// Validate returns an error for configuration problems that prevent a
// forecast from running: unnamed or duplicated scenarios, bad start dates,
// unknown enumerations and unknown output formats.
func (c *Configuration) Validate() error {
	if _, err := validation.ParseOutputFormat(c.Output.Format); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Scenarios))
	for i, s := range c.Scenarios {
		if s.Name == "" {
			return fmt.Errorf("scenario %d has no name", i+1)
		}
		if seen[s.Name] {
			return fmt.Errorf("scenario name %q is used more than once", s.Name)
		}
		seen[s.Name] = true

		if err := datetime.ValidateStartDate(s.StartDate); err != nil {
			return fmt.Errorf("scenario %q: %w", s.Name, err)
		}
		if _, err := s.ToScenarioConfig(); err != nil {
			return fmt.Errorf("scenario %q: %w", s.Name, err)
		}
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string
	for _, s := range c.Scenarios {
		if !s.Active {
			continue
		}
		cfg, err := s.ToScenarioConfig()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Scenario '%s': %v", s.Name, err))
			continue
		}
		for _, w := range validation.ValidateScenario(cfg) {
			warnings = append(warnings, fmt.Sprintf("Scenario '%s': %s", s.Name, w))
		}
	}
	return warnings
}
