package calculator

import (
	"errors"
	"fmt"
	"strings"
)

// RegretQuestion is asked once the results are on screen.
const RegretQuestion = "Will you be glad you bought this tomorrow morning?"

// RegretAnswer is the user's answer to RegretQuestion.
type RegretAnswer string

// Regret answers.
const (
	RegretYes    RegretAnswer = "yes"
	RegretUnsure RegretAnswer = "unsure"
	RegretNo     RegretAnswer = "no"
)

// ErrInvalidRegretAnswer is returned for answers other than yes, unsure or no.
var ErrInvalidRegretAnswer = errors.New("answer must be yes, unsure or no")

var regretLabels = map[RegretAnswer]string{
	RegretYes:    "Yes, clearly",
	RegretUnsure: "Not sure",
	RegretNo:     "Probably not",
}

var regretAdvice = map[RegretAnswer]string{
	RegretYes:    "Then buy it intentionally.",
	RegretUnsure: "Uncertainty is valuable information. Sleep on it. If you still want it tomorrow, it will still be there.",
	RegretNo:     "Then don't buy it today. You can always come back. Your future self will thank you.",
}

// RegretAnswers lists the answers in display order.
var RegretAnswers = []RegretAnswer{RegretYes, RegretUnsure, RegretNo}

// ParseRegretAnswer accepts the answer keys and a few shorthands.
func ParseRegretAnswer(s string) (RegretAnswer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y":
		return RegretYes, nil
	case "unsure", "u", "not sure", "?":
		return RegretUnsure, nil
	case "no", "n":
		return RegretNo, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRegretAnswer, s)
}

// Label is the button text for the answer.
func (a RegretAnswer) Label() string {
	return regretLabels[a]
}

// Advice is the sentence shown after the answer. It is advisory and never stored.
func (a RegretAnswer) Advice() string {
	return regretAdvice[a]
}
