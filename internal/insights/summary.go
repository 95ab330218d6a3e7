// Package insights reduces a purchase history into summary statistics and
// advisory pattern flags.
package insights

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/mindspend/internal/model"
)

// Thresholds for the pattern flags. All comparisons are strict except MinChecksForLateNight.
const (
	LateNightHour         = 22
	LateNightThreshold    = 30
	MinChecksForLateNight = 5
	SelfControlThreshold  = 2
	BusyWeekThreshold     = 5
	RecentWindow          = 7 * 24 * time.Hour
	// HistoryViewLimit is how many records history screens show.
	HistoryViewLimit = 20
)

// FlagKind identifies a pattern flag.
type FlagKind string

// Pattern flags.
const (
	FlagGreatSelfControl FlagKind = "great_self_control"
	FlagLateNightPattern FlagKind = "late_night_pattern"
	FlagBusyWeek         FlagKind = "busy_week"
)

// Flag is an advisory observation about the history.
type Flag struct {
	Kind        FlagKind `json:"kind"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Positive    bool     `json:"positive"`
}

// Summary is the aggregate view over a set of records.
type Summary struct {
	Flags               []Flag          `json:"flags"`
	TotalSkippedValue   decimal.Decimal `json:"totalSkippedValue"`
	TotalChecks         int             `json:"totalChecks"`
	SkippedCount        int             `json:"skippedCount"`
	BoughtCount         int             `json:"boughtCount"`
	TotalSkippedTime    int             `json:"totalSkippedTime"`
	LateNightPercentage int             `json:"lateNightPercentage"`
	RecentChecks        int             `json:"recentChecks"`
}

// Summarize computes the summary for records as of now. The input is not modified.
func Summarize(records []model.PurchaseRecord, now time.Time) Summary {
	s := Summary{
		TotalChecks:       len(records),
		TotalSkippedValue: decimal.Zero,
		Flags:             []Flag{},
	}

	cutoff := now.Add(-RecentWindow)
	lateNight := 0

	for _, r := range records {
		switch r.Decision {
		case model.DecisionSkipped:
			s.SkippedCount++
			s.TotalSkippedValue = s.TotalSkippedValue.Add(decimal.NewFromFloat(r.Price))
			s.TotalSkippedTime += r.Calculations.TimeInMinutes
		case model.DecisionBought:
			s.BoughtCount++
		case model.DecisionUndecided:
		}

		if r.TimeOfDay >= LateNightHour {
			lateNight++
		}
		if r.Timestamp.After(cutoff) {
			s.RecentChecks++
		}
	}

	if s.TotalChecks > 0 {
		pct := decimal.NewFromInt(int64(lateNight)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(s.TotalChecks))).
			Round(0)
		s.LateNightPercentage = int(pct.IntPart())
	}

	if s.SkippedCount > SelfControlThreshold {
		s.Flags = append(s.Flags, Flag{
			Kind:        FlagGreatSelfControl,
			Title:       "Great self-control!",
			Description: fmt.Sprintf("You've resisted %d impulse %s, saving %s.", s.SkippedCount, plural(s.SkippedCount, "purchase"), FormatValue(s.TotalSkippedValue)),
			Positive:    true,
		})
	}
	if s.LateNightPercentage > LateNightThreshold && s.TotalChecks >= MinChecksForLateNight {
		s.Flags = append(s.Flags, Flag{
			Kind:        FlagLateNightPattern,
			Title:       "Late-night spending pattern",
			Description: fmt.Sprintf("%d%% of your checks happen after 10 PM. Consider waiting until morning before making decisions.", s.LateNightPercentage),
		})
	}
	if s.RecentChecks > BusyWeekThreshold {
		s.Flags = append(s.Flags, Flag{
			Kind:        FlagBusyWeek,
			Title:       "Busy spending week",
			Description: fmt.Sprintf("You've checked %d purchases in the last 7 days. Stay mindful!", s.RecentChecks),
		})
	}

	return s
}

// Has reports whether the summary carries the given flag.
func (s Summary) Has(kind FlagKind) bool {
	for _, f := range s.Flags {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

// FormatValue renders a saved amount rounded to a whole unit.
func FormatValue(v decimal.Decimal) string {
	return "€" + v.Round(0).String()
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
