package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/mindspend/internal/model"
)

// Tier buckets a time cost relative to one workday.
type Tier int

// Time tiers, ordered from smallest to largest.
const (
	TierQuick Tier = iota
	TierSolidChunk
	TierWorkdayShare
	TierMultipleWorkdays
)

const minutesPerWorkday = model.HoursPerWorkday * 60

// String returns a short name for the tier.
func (t Tier) String() string {
	switch t {
	case TierQuick:
		return "quick"
	case TierSolidChunk:
		return "solid-chunk"
	case TierWorkdayShare:
		return "workday-share"
	case TierMultipleWorkdays:
		return "multiple-workdays"
	default:
		return "unknown"
	}
}

// WorkdayFraction is minutes expressed as a share of an 8-hour workday.
func WorkdayFraction(minutes int) float64 {
	return float64(minutes) / minutesPerWorkday
}

// ClassifyTime buckets minutes at 0.25, 0.5 and 1 workday.
// Each threshold is an exclusive upper bound of the tier below it.
func ClassifyTime(minutes int) Tier {
	f := WorkdayFraction(minutes)
	switch {
	case f < 0.25:
		return TierQuick
	case f < 0.5:
		return TierSolidChunk
	case f < 1:
		return TierWorkdayShare
	default:
		return TierMultipleWorkdays
	}
}

// TimeContext renders the sentence shown under the time cost.
func TimeContext(minutes int) string {
	f := WorkdayFraction(minutes)
	switch ClassifyTime(minutes) {
	case TierQuick:
		return "A quick coffee break of your life"
	case TierSolidChunk:
		return "A solid chunk of your morning"
	case TierWorkdayShare:
		return fmt.Sprintf("That's %d%% of a full workday", roundInt(f*100))
	default:
		return fmt.Sprintf("That's %s full workdays of your life", decimal.NewFromFloat(f).StringFixed(1))
	}
}

// FormatWorkTime renders minutes as "45min", "2h" or "1h 30min".
func FormatWorkTime(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	hours := minutes / 60
	mins := minutes % 60
	switch {
	case hours == 0:
		return fmt.Sprintf("%dmin", mins)
	case mins == 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dh %dmin", hours, mins)
	}
}

// FormatMonthsOfExpenses renders a months-of-expenses ratio. Values below one
// month are shown as a whole percentage.
func FormatMonthsOfExpenses(months float64) string {
	if months >= 1 {
		return decimal.NewFromFloat(months).StringFixed(1) + " months"
	}
	return fmt.Sprintf("%d%%", roundInt(months*100))
}

// FormatGoalPercentage renders a goal share with two decimals.
// Anything below 0.01 is shown as "< 0.01%" rather than "0.00%".
func FormatGoalPercentage(pct float64) string {
	if pct < 0.01 {
		return "< 0.01%"
	}
	return decimal.NewFromFloat(pct).StringFixed(2) + "%"
}

// BarWidth clamps a goal share to the 0..100 range of a progress bar.
func BarWidth(pct float64) float64 {
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}

// FormatMoney renders an amount with two decimals.
func FormatMoney(amount float64) string {
	return "€" + decimal.NewFromFloat(amount).StringFixed(2)
}
