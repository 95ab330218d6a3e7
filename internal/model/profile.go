package model

import (
	"errors"
	"fmt"
	"math"
)

// Profile defaults and estimation heuristics. These are product heuristics,
// not load-bearing values, and may be tuned.
const (
	DefaultWorkingDaysPerYear = 220
	HoursPerWorkday           = 8
	// ExpenseShareOfIncome estimates monthly expenses when the user leaves them blank.
	ExpenseShareOfIncome = 0.8
	// WorkdaysPerMonth converts an hourly wage into a monthly figure.
	WorkdaysPerMonth = 21.6
)

// Profile validation errors.
var (
	ErrInvalidWage        = errors.New("hourly wage must be greater than zero")
	ErrInvalidWorkingDays = errors.New("working days per year must be greater than zero")
	ErrNegativeExpenses   = errors.New("monthly expenses cannot be negative")
	ErrInvalidGoal        = errors.New("goal must be greater than zero")
	ErrInvalidIncome      = errors.New("income must be greater than zero")
)

// Profile is the economic baseline every price check is measured against.
type Profile struct {
	EmergencyFundGoal  *float64 `json:"emergencyFundGoal,omitempty"`
	FreedomGoal        *float64 `json:"freedomGoal,omitempty"`
	HourlyWage         float64  `json:"hourlyWage"`
	MonthlyExpenses    float64  `json:"monthlyExpenses"`
	WorkingDaysPerYear int      `json:"workingDaysPerYear"`
}

// IncomeKind tells how the user entered their income during setup.
type IncomeKind string

// Income entry kinds.
const (
	IncomeMonthly IncomeKind = "monthly"
	IncomeHourly  IncomeKind = "hourly"
)

// IncomeInput is the raw setup form: one income figure plus optional overrides.
type IncomeInput struct {
	MonthlyExpenses    *float64
	EmergencyFundGoal  *float64
	FreedomGoal        *float64
	Kind               IncomeKind
	Amount             float64
	WorkingDaysPerYear int
}

// NewProfile derives a profile from the setup form.
// The hourly wage is rounded to cents and estimated expenses to whole units.
func NewProfile(in IncomeInput) (Profile, error) {
	if in.Amount <= 0 || math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return Profile{}, ErrInvalidIncome
	}

	days := in.WorkingDaysPerYear
	if days <= 0 {
		days = DefaultWorkingDaysPerYear
	}

	var hourly, estimated float64
	switch in.Kind {
	case IncomeHourly:
		hourly = in.Amount
		estimated = in.Amount * HoursPerWorkday * WorkdaysPerMonth * ExpenseShareOfIncome
	case IncomeMonthly, "":
		hourly = (in.Amount * 12) / float64(days*HoursPerWorkday)
		estimated = in.Amount * ExpenseShareOfIncome
	default:
		return Profile{}, fmt.Errorf("unknown income kind %q", in.Kind)
	}

	expenses := math.Round(estimated)
	if in.MonthlyExpenses != nil {
		expenses = *in.MonthlyExpenses
	}

	p := Profile{
		HourlyWage:         math.Round(hourly*100) / 100,
		WorkingDaysPerYear: days,
		MonthlyExpenses:    expenses,
		EmergencyFundGoal:  in.EmergencyFundGoal,
		FreedomGoal:        in.FreedomGoal,
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// MonthlyIncome returns the monthly income implied by the hourly wage, rounded
// to a whole unit. Settings screens pre-fill the income field with it.
func (p Profile) MonthlyIncome() float64 {
	return math.Round(p.HourlyWage * float64(p.WorkingDaysPerYear) * HoursPerWorkday / 12)
}

// WithGoals returns a copy of the profile with both goals replaced.
func (p Profile) WithGoals(emergency, freedom *float64) Profile {
	p.EmergencyFundGoal = copyFloat(emergency)
	p.FreedomGoal = copyFloat(freedom)
	return p
}

// Clone returns a deep copy so snapshots never share goal pointers.
func (p Profile) Clone() Profile {
	p.EmergencyFundGoal = copyFloat(p.EmergencyFundGoal)
	p.FreedomGoal = copyFloat(p.FreedomGoal)
	return p
}

// HasGoals reports whether at least one savings goal is defined.
func (p Profile) HasGoals() bool {
	return p.EmergencyFundGoal != nil || p.FreedomGoal != nil
}

// Validate checks the profile invariants.
func (p Profile) Validate() error {
	if p.HourlyWage <= 0 || math.IsNaN(p.HourlyWage) || math.IsInf(p.HourlyWage, 0) {
		return ErrInvalidWage
	}
	if p.WorkingDaysPerYear <= 0 {
		return ErrInvalidWorkingDays
	}
	if p.MonthlyExpenses < 0 || math.IsNaN(p.MonthlyExpenses) {
		return ErrNegativeExpenses
	}
	if p.EmergencyFundGoal != nil && *p.EmergencyFundGoal <= 0 {
		return fmt.Errorf("emergency fund: %w", ErrInvalidGoal)
	}
	if p.FreedomGoal != nil && *p.FreedomGoal <= 0 {
		return fmt.Errorf("freedom fund: %w", ErrInvalidGoal)
	}
	return nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
