package tui

import (
	"context"
	"time"

	"github.com/Veraticus/mindspend/internal/calculator"
	"github.com/Veraticus/mindspend/internal/flow"
	"github.com/Veraticus/mindspend/internal/tui/themes"
)

// Resolver produces the results once the cool-off has run out. It is called
// at most once per program.
type Resolver func(ctx context.Context) (calculator.Result, error)

// Config holds TUI configuration.
type Config struct {
	Theme     themes.Theme
	Resolve   Resolver
	Countdown flow.Countdown
	Width     int
	AltScreen bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:     themes.Default,
		Countdown: flow.NewCountdown(0),
		Width:     60,
	}
}

// WithTheme sets the theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithCoolOff sets the countdown length.
func WithCoolOff(d time.Duration) Option {
	return func(c *Config) {
		c.Countdown = flow.NewCountdown(d)
	}
}

// WithCountdown replaces the countdown, interval included.
func WithCountdown(countdown flow.Countdown) Option {
	return func(c *Config) {
		c.Countdown = countdown
	}
}

// WithWidth sets the width of the progress bar and boxes.
func WithWidth(width int) Option {
	return func(c *Config) {
		if width > 0 {
			c.Width = width
		}
	}
}

// WithAltScreen runs the program in the alternate screen buffer.
func WithAltScreen() Option {
	return func(c *Config) {
		c.AltScreen = true
	}
}

// WithResolver sets the function that produces the results.
func WithResolver(resolve Resolver) Option {
	return func(c *Config) {
		c.Resolve = resolve
	}
}
