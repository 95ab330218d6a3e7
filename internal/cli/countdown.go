package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/mindspend/internal/flow"
)

// CoolOffMessage is shown above the countdown.
const CoolOffMessage = "Take a breath. The real cost appears in a moment."

// RunCountdown shows countdown as a progress bar on w. It returns ctx.Err()
// when canceled before the end.
func RunCountdown(ctx context.Context, w io.Writer, countdown flow.Countdown) error {
	if _, err := fmt.Fprintln(w, InfoStyle.Render(ClockIcon+" "+CoolOffMessage)); err != nil {
		return fmt.Errorf("failed to write cool-off message: %w", err)
	}

	steps := int(math.Ceil(countdown.Duration.Seconds()))
	if steps <= 0 {
		steps = 1
	}
	bar := progressbar.NewOptions(steps,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetDescription("[green][bold]Cooling off...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)

	err := countdown.Run(ctx, func(t flow.Tick) {
		if setErr := bar.Set(int(math.Round(t.Progress * float64(steps)))); setErr != nil {
			slog.Warn("Failed to update progress bar", "error", setErr)
		}
	})
	if err != nil {
		if _, werr := fmt.Fprintln(w); werr != nil {
			slog.Warn("Failed to write newline after progress bar", "error", werr)
		}
		return err
	}
	return nil
}
