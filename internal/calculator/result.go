package calculator

import (
	"github.com/Veraticus/mindspend/internal/model"
)

// GoalShare is one goal card on the results screen.
type GoalShare struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Display     string  `json:"display"`
	Percentage  float64 `json:"percentage"`
	BarWidth    float64 `json:"barWidth"`
}

// Result bundles the derived cost with the strings every front-end renders.
type Result struct {
	Label            string            `json:"label"`
	Category         model.Category    `json:"category"`
	WorkTime         string            `json:"workTime"`
	TimeContext      string            `json:"timeContext"`
	MonthsOfExpenses string            `json:"monthsOfExpenses,omitempty"`
	Goals            []GoalShare       `json:"goals,omitempty"`
	Cost             model.DerivedCost `json:"calculations"`
	Price            float64           `json:"price"`
	Tier             Tier              `json:"tier"`
}

// Present computes the cost of price and renders its display strings.
func Present(price float64, label string, category model.Category, p model.Profile) Result {
	if label == "" {
		label = model.DefaultLabel
	}
	if category == "" {
		category = model.CategoryOther
	}

	cost := Compute(price, p)
	r := Result{
		Price:       price,
		Label:       label,
		Category:    category,
		Cost:        cost,
		Tier:        ClassifyTime(cost.TimeInMinutes),
		WorkTime:    FormatWorkTime(cost.TimeInMinutes),
		TimeContext: TimeContext(cost.TimeInMinutes),
	}
	if cost.MonthsOfExpenses != nil {
		r.MonthsOfExpenses = FormatMonthsOfExpenses(*cost.MonthsOfExpenses)
	}

	if pct, ok := GoalPercentage(price, p.EmergencyFundGoal); ok {
		r.Goals = append(r.Goals, newGoalShare("Emergency Fund", "of your safety net target", pct))
	}
	if pct, ok := GoalPercentage(price, p.FreedomGoal); ok {
		r.Goals = append(r.Goals, newGoalShare("Future Freedom", "of your freedom fund", pct))
	}

	return r
}

func newGoalShare(name, description string, pct float64) GoalShare {
	return GoalShare{
		Name:        name,
		Description: description,
		Percentage:  pct,
		Display:     FormatGoalPercentage(pct),
		BarWidth:    BarWidth(pct),
	}
}
