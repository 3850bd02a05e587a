package core

import (
	"fmt"
	"time"
)

// Frequency is the billing period of a contract. It determines how many
// installments a contract produces and how recurring add-on costs (quoted as
// monthly rates) are scaled per installment.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// ParseFrequency validates a wire value.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(s); f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown frequency %q", ErrValidation, s)
	}
}

// Multiplier scales a monthly add-on cost to one billing period.
func (f Frequency) Multiplier() int64 {
	switch f {
	case FrequencyQuarterly:
		return 3
	case FrequencyYearly:
		return 12
	default:
		return 1
	}
}

// MonthsPerPeriod is the length of one billing period in whole months.
func (f Frequency) MonthsPerPeriod() int {
	switch f {
	case FrequencyQuarterly:
		return 3
	case FrequencyYearly:
		return 12
	default:
		return 1
	}
}

// Advance moves t forward by n billing periods. Yearly periods advance whole
// years so anniversary dates stay stable.
func (f Frequency) Advance(t time.Time, n int) time.Time {
	switch f {
	case FrequencyQuarterly:
		return t.AddDate(0, 3*n, 0)
	case FrequencyYearly:
		return t.AddDate(n, 0, 0)
	default:
		return t.AddDate(0, n, 0)
	}
}
