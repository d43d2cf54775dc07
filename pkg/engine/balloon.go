package engine

import (
	"github.com/iwvelando/financing-forecast/pkg/constants"
	"github.com/shopspring/decimal"
)

// balloonSchedule decides when automatic balloons fire. Periodic programs
// share one consumed counter across both phases, which callers thread
// through simulationState.
type balloonSchedule struct {
	enabled    bool
	frequency  Frequency
	interval   int
	count      int
	value      decimal.Decimal
	startMonth int
}

func newBalloonSchedule(cfg ScenarioConfig) balloonSchedule {
	return balloonSchedule{
		enabled:    cfg.HasBalloonProgram,
		frequency:  cfg.BalloonFrequency,
		interval:   intervalMonths(cfg.BalloonFrequency),
		count:      cfg.BalloonCount,
		value:      cfg.BalloonValue,
		startMonth: cfg.BalloonStartMonth,
	}
}

// intervalMonths maps a periodic frequency to its spacing in months. ONCE
// has no interval.
func intervalMonths(f Frequency) int {
	switch f {
	case FrequencyMonthly:
		return constants.MonthlyInterval
	case FrequencyQuarterly:
		return constants.QuarterlyInterval
	case FrequencySemiannual:
		return constants.SemiannualInterval
	case FrequencyAnnual:
		return constants.AnnualInterval
	}
	return 0
}

func (b balloonSchedule) periodic() bool {
	return b.frequency != FrequencyOnce && b.interval > 0
}

// atSigning returns the balloon absorbed into the month-0 deposit. Only a
// ONCE balloon scheduled at month 0 qualifies.
func (b balloonSchedule) atSigning() decimal.Decimal {
	if b.enabled && !b.periodic() && b.startMonth == 0 {
		return b.value
	}
	return decimal.Zero
}

// fires reports whether a balloon is due at month given how many periodic
// balloons have already been consumed.
func (b balloonSchedule) fires(month, consumed int) bool {
	if !b.enabled || month < 1 {
		return false
	}
	if !b.periodic() {
		return b.startMonth >= 1 && month == b.startMonth
	}
	return b.count > 0 && consumed < b.count && month%b.interval == 0
}

// consume evaluates month and returns the balloon value due (zero when none
// fires) along with the updated consumed counter.
func (b balloonSchedule) consume(month, consumed int) (decimal.Decimal, int) {
	if !b.fires(month, consumed) {
		return decimal.Zero, consumed
	}
	return b.value, consumed + 1
}

// horizonTotal is the raw amount of every balloon falling in months
// 1..months. It uses its own counter and leaves the live one untouched.
func (b balloonSchedule) horizonTotal(months int) decimal.Decimal {
	total := decimal.Zero
	consumed := 0
	for month := 1; month <= months; month++ {
		var value decimal.Decimal
		value, consumed = b.consume(month, consumed)
		total = total.Add(value)
	}
	return total
}
