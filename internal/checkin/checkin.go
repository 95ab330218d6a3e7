// Package checkin runs the weekly honest check-in: a one-question prompt asking
// whether the app talked the user out of something they now wish they had bought.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/mindspend/internal/storage"
)

// Interval is how long a check-in answer silences the prompt.
const Interval = 7 * 24 * time.Hour

// Prompt text.
const (
	Title       = "Honest Check-in"
	Intro       = "We want to empower you, not deprive you."
	Question    = "Did this app stop you from a purchase you later wish you made?"
	Footer      = "Asking once a week to keep us honest."
	Reassurance = "Thank you for your honesty. We'll try to do better."
)

// Response is the user's answer.
type Response string

// Responses.
const (
	ResponseHelped Response = "no"
	ResponseRegret Response = "yes"
)

// ErrInvalidResponse is returned for answers other than yes or no.
var ErrInvalidResponse = errors.New("answer must be yes or no")

// Label is the button text for the response.
func (r Response) Label() string {
	if r == ResponseRegret {
		return "Yes, I regret not buying"
	}
	return "No, it helped"
}

// ParseResponse accepts yes/no and their first letters.
func ParseResponse(s string) (Response, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return ResponseRegret, nil
	case "n", "no":
		return ResponseHelped, nil
	default:
		return "", ErrInvalidResponse
	}
}

// Checker reads and writes the last check-in time on the device store.
type Checker struct {
	kv     storage.KeyValueStore
	now    func() time.Time
	logger *slog.Logger
}

// New returns a Checker. now may be nil.
func New(kv storage.KeyValueStore, now func() time.Time) *Checker {
	if now == nil {
		now = time.Now
	}
	return &Checker{kv: kv, now: now, logger: slog.Default().With("component", "checkin")}
}

// LastCheck returns when the user last answered. ok is false when never
// answered or the stored value is unreadable.
func (c *Checker) LastCheck(ctx context.Context) (last time.Time, ok bool, err error) {
	raw, err := c.kv.Get(ctx, storage.KeyLastEthicalCheck)
	if errors.Is(err, storage.ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read last check-in: %w", err)
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		c.logger.Warn("Ignoring unreadable check-in time", "value", raw)
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

// Due reports whether more than Interval has passed since the last answer.
func (c *Checker) Due(ctx context.Context) (bool, error) {
	last, ok, err := c.LastCheck(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return c.now().Sub(last) > Interval, nil
}

// Record stores the answer time and returns the follow-up message, if any.
func (c *Checker) Record(ctx context.Context, r Response) (string, error) {
	stamp := strconv.FormatInt(c.now().UnixMilli(), 10)
	if err := c.kv.Set(ctx, storage.KeyLastEthicalCheck, stamp); err != nil {
		return "", fmt.Errorf("failed to save check-in: %w", err)
	}
	c.logger.Debug("Check-in recorded", "response", r)
	if r == ResponseRegret {
		return Reassurance, nil
	}
	return "", nil
}
