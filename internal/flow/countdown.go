package flow

import (
	"context"
	"time"
)

// DefaultCoolOff is the pause before results are shown.
const DefaultCoolOff = 10 * time.Second

// Tick reports countdown progress.
type Tick struct {
	Remaining time.Duration
	// Progress runs from 0 to 1.
	Progress float64
}

// Countdown waits out the cool-off, reporting each interval.
type Countdown struct {
	Duration time.Duration
	Interval time.Duration
}

// NewCountdown returns a one-second countdown over d, or DefaultCoolOff when d is zero.
func NewCountdown(d time.Duration) Countdown {
	if d <= 0 {
		d = DefaultCoolOff
	}
	return Countdown{Duration: d, Interval: time.Second}
}

// Run calls onTick with the full duration remaining, once per interval, and
// finally with zero remaining. Cancelling ctx stops it with ctx.Err() and no
// further ticks.
func (c Countdown) Run(ctx context.Context, onTick func(Tick)) error {
	interval := c.Interval
	if interval <= 0 {
		interval = time.Second
	}
	total := c.Duration
	if total <= 0 {
		total = DefaultCoolOff
	}

	report := func(remaining time.Duration) {
		if onTick != nil {
			onTick(Tick{Remaining: remaining, Progress: float64(total-remaining) / float64(total)})
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	report(total)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	remaining := total
	for remaining > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := ctx.Err(); err != nil {
				return err
			}
			remaining -= interval
			if remaining < 0 {
				remaining = 0
			}
			report(remaining)
		}
	}
	return nil
}
