// Package model contains the core domain types shared across mindspend.
package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// DefaultLabel is used when a price check is submitted without a label.
const DefaultLabel = "this purchase"

// Category tags a purchase for the history view.
type Category string

// Purchase categories.
const (
	CategoryFood         Category = "food"
	CategoryTech         Category = "tech"
	CategoryClothes      Category = "clothes"
	CategoryFun          Category = "fun"
	CategoryTransport    Category = "transport"
	CategorySubscription Category = "subscription"
	CategoryOther        Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryFood,
	CategoryTech,
	CategoryClothes,
	CategoryFun,
	CategoryTransport,
	CategorySubscription,
	CategoryOther,
}

var categoryIcons = map[Category]string{
	CategoryFood:         "🍔",
	CategoryTech:         "📱",
	CategoryClothes:      "👕",
	CategoryFun:          "🎉",
	CategoryTransport:    "🚗",
	CategorySubscription: "📺",
	CategoryOther:        "📦",
}

// ParseCategory maps user input to a category. Blank input is CategoryOther.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CategoryOther, nil
	}
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// Icon returns the emoji shown next to the category.
func (c Category) Icon() string {
	if icon, ok := categoryIcons[c]; ok {
		return icon
	}
	return categoryIcons[CategoryOther]
}

// Decision is the user's retrospective classification of a price check.
type Decision string

// Decisions.
const (
	DecisionUndecided Decision = "undecided"
	DecisionBought    Decision = "bought"
	DecisionSkipped   Decision = "skipped"
)

// ParseDecision accepts the two decisions a user can set explicitly.
func ParseDecision(s string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(s))) {
	case DecisionBought:
		return DecisionBought, nil
	case DecisionSkipped:
		return DecisionSkipped, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDecision, s)
}

// Valid reports whether d is one of the three known decisions.
func (d Decision) Valid() bool {
	return d == DecisionUndecided || d == DecisionBought || d == DecisionSkipped
}

// Record validation errors.
var (
	ErrInvalidPrice     = errors.New("price must be greater than zero")
	ErrInvalidCategory  = errors.New("unknown category")
	ErrInvalidDecision  = errors.New("decision must be bought or skipped")
	ErrInvalidUTCOffset = errors.New("utc offset must be within 14 hours")
)

// DerivedCost is the set of "real cost" figures computed for one price.
// Fields whose denominator is zero or absent are nil.
type DerivedCost struct {
	GroceryWeeks            *int     `json:"groceryWeeks,omitempty"`
	EmergencyDays           *int     `json:"emergencyDays,omitempty"`
	EmergencyBufferDays     *float64 `json:"emergencyBufferDays,omitempty"`
	MonthsOfExpenses        *float64 `json:"monthsOfExpenses,omitempty"`
	WeeksOfGroceries        *float64 `json:"weeksOfGroceries,omitempty"`
	EmergencyFundPercentage *float64 `json:"emergencyFundPercentage,omitempty"`
	FreedomPercentage       *float64 `json:"freedomPercentage,omitempty"`
	DaysOfUtilities         float64  `json:"daysOfUtilities"`
	TimeInMinutes           int      `json:"timeInMinutes"`
}

// NewPurchaseRecord is what the flow hands to a record store.
type NewPurchaseRecord struct {
	// Location is the user's zone for TimeOfDay. Nil means the process zone.
	Location     *time.Location `json:"-"`
	Calculations DerivedCost    `json:"calculations"`
	Label        string         `json:"label"`
	Category     Category       `json:"category"`
	Profile      Profile        `json:"profile"`
	Price        float64        `json:"price"`
}

// Normalize applies the label and category defaults and snapshots the profile.
func (n NewPurchaseRecord) Normalize() NewPurchaseRecord {
	if strings.TrimSpace(n.Label) == "" {
		n.Label = DefaultLabel
	}
	if n.Category == "" {
		n.Category = CategoryOther
	}
	n.Profile = n.Profile.Clone()
	return n
}

// Validate rejects records a store must never persist.
func (n NewPurchaseRecord) Validate() error {
	if n.Price <= 0 || math.IsNaN(n.Price) || math.IsInf(n.Price, 0) {
		return ErrInvalidPrice
	}
	if _, err := ParseCategory(string(n.Category)); err != nil {
		return err
	}
	return nil
}

// PurchaseRecord is one persisted price check.
type PurchaseRecord struct {
	Timestamp       time.Time   `json:"timestamp"`
	Regret          *bool       `json:"regret,omitempty"`
	RegretCheckedAt *time.Time  `json:"regretCheckedAt,omitempty"`
	Calculations    DerivedCost `json:"calculations"`
	ID              string      `json:"id"`
	Label           string      `json:"label"`
	Category        Category    `json:"category"`
	Decision        Decision    `json:"decision"`
	Profile         Profile     `json:"profile"`
	Price           float64     `json:"price"`
	TimeOfDay       int         `json:"timeOfDay"`
}

// Materialize turns a new record into a stored one with the store-assigned fields.
func (n NewPurchaseRecord) Materialize(id string, now time.Time) PurchaseRecord {
	n = n.Normalize()
	local := now
	if n.Location != nil {
		local = now.In(n.Location)
	}
	return PurchaseRecord{
		ID:           id,
		Price:        n.Price,
		Label:        n.Label,
		Category:     n.Category,
		Profile:      n.Profile,
		Calculations: n.Calculations,
		Decision:     DecisionUndecided,
		Timestamp:    now,
		TimeOfDay:    local.Hour(),
	}
}

// MaxUTCOffset bounds the offsets accepted by OffsetZone.
const MaxUTCOffset = 14 * time.Hour

// OffsetZone returns a fixed zone minutes east of UTC.
func OffsetZone(minutes int) (*time.Location, error) {
	offset := time.Duration(minutes) * time.Minute
	if offset > MaxUTCOffset || offset < -MaxUTCOffset {
		return nil, fmt.Errorf("%w: %d minutes", ErrInvalidUTCOffset, minutes)
	}
	return time.FixedZone("", minutes*60), nil
}

// ApplyDecision sets the decision and, when regret is given, the regret fields.
// Nothing else on the record changes.
func (r *PurchaseRecord) ApplyDecision(decision Decision, regret *bool, now time.Time) {
	r.Decision = decision
	if regret != nil {
		v := *regret
		at := now
		r.Regret = &v
		r.RegretCheckedAt = &at
	}
}
