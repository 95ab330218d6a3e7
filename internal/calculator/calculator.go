// Package calculator turns a price and a profile into the "real cost" figures
// shown after the cool-off. Everything here is pure and deterministic.
package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/Veraticus/mindspend/internal/model"
)

// Heuristics behind the life-equivalence figures. They are product
// heuristics and may be tuned.
const (
	// GroceryShare is the fraction of monthly expenses assumed to go to groceries.
	GroceryShare = 0.15
	// UtilitiesPerDay is the assumed daily cost of electricity, water and internet.
	UtilitiesPerDay = 7.0
	// DaysPerMonth converts monthly expenses into a daily burn rate.
	DaysPerMonth = 30.0
	// WeeksPerMonth converts monthly figures into weekly ones.
	WeeksPerMonth = 4.0
)

// Compute returns the derived cost of price for the given profile.
// The caller guarantees price > 0. Figures whose denominator is zero are left nil.
func Compute(price float64, p model.Profile) model.DerivedCost {
	cost := model.DerivedCost{
		DaysOfUtilities: round(price/UtilitiesPerDay, 1),
	}

	if p.HourlyWage > 0 {
		cost.TimeInMinutes = roundInt(price / p.HourlyWage * 60)
	}

	if exp := p.MonthlyExpenses; exp > 0 {
		groceryWeeks := roundInt(price / exp * WeeksPerMonth)
		emergencyDays := roundInt(price / (exp / DaysPerMonth))
		bufferDays := round(price/(exp/DaysPerMonth), 1)
		months := round(price/exp, 2)
		weeksOfGroceries := round(price/(exp*GroceryShare/WeeksPerMonth), 1)

		cost.GroceryWeeks = &groceryWeeks
		cost.EmergencyDays = &emergencyDays
		cost.EmergencyBufferDays = &bufferDays
		cost.MonthsOfExpenses = &months
		cost.WeeksOfGroceries = &weeksOfGroceries
	}

	cost.EmergencyFundPercentage = goalShare(price, p.EmergencyFundGoal)
	cost.FreedomPercentage = goalShare(price, p.FreedomGoal)

	return cost
}

// GoalPercentage is price as an unrounded, unclamped percentage of goal.
// It returns false when the goal is missing or not positive.
func GoalPercentage(price float64, goal *float64) (float64, bool) {
	if goal == nil || *goal <= 0 {
		return 0, false
	}
	return price / *goal * 100, true
}

func goalShare(price float64, goal *float64) *float64 {
	pct, ok := GoalPercentage(price, goal)
	if !ok {
		return nil
	}
	v := round(pct, 2)
	return &v
}

// round rounds half away from zero to the given number of decimal places.
func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

func roundInt(v float64) int {
	return int(decimal.NewFromFloat(v).Round(0).IntPart())
}
