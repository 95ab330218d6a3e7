package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mindspend/internal/calculator"
	"github.com/Veraticus/mindspend/internal/cli"
	"github.com/Veraticus/mindspend/internal/common"
	"github.com/Veraticus/mindspend/internal/flow"
	"github.com/Veraticus/mindspend/internal/model"
	"github.com/Veraticus/mindspend/internal/tui"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [price]",
		Short: "Check a price: take a breath, then see the real cost",
		Long: `Enter a price, wait out a short cool-off, then see what it costs in
hours of work, months of expenses and progress toward your goals.

Examples:
  mindspend check 129.99 --label "running shoes" --category clothes
  mindspend check --tui`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				return a.runCheck(ctx, cmd, args)
			})
		},
	}
	cmd.Flags().StringP("label", "l", "", "what you are thinking of buying")
	cmd.Flags().StringP("category", "c", "", "category: "+categoryList())
	cmd.Flags().Duration("cooloff", 0, "length of the cool-off pause (default from config)")
	cmd.Flags().Bool("tui", false, "show the cool-off and results full screen")
	cmd.Flags().Bool("skip-checkin", false, "do not ask the weekly check-in question")
	return cmd
}

func (a *app) runCheck(ctx context.Context, cmd *cobra.Command, args []string) error {
	if err := a.requireIdentity(); err != nil {
		return err
	}

	ctrl := flow.NewController(a.sess)
	if ctrl.Step() == flow.StepSetup {
		a.println(cli.FormatInfo("First, a few questions about your income."))
		profile, err := a.interactiveProfile(ctx)
		if err != nil {
			return err
		}
		if err := ctrl.CompleteSetup(ctx, profile); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
	}

	check, err := a.readCheck(ctx, cmd, args)
	if err != nil {
		return err
	}
	if err := ctrl.SubmitPrice(check.Price, check.Label, check.Category); err != nil {
		return common.NewUserError(err.Error(), err)
	}

	countdown := a.countdown(cmd)
	useTUI, _ := cmd.Flags().GetBool("tui")
	if useTUI {
		return a.runCheckTUI(ctx, cmd, ctrl, countdown)
	}

	handler := cli.NewInterruptHandler(a.out)
	coolCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := cli.RunCountdown(handler.HandleInterrupts(coolCtx, true), a.out, countdown); err != nil {
		ctrl.CancelCoolOff()
		if handler.WasInterrupted() || errors.Is(err, context.Canceled) {
			if !handler.WasInterrupted() {
				a.println(cli.FormatInfo("Cool-off canceled. Nothing was saved."))
			}
			return nil
		}
		return err
	}
	cancel()

	if err := ctrl.CompleteCoolOff(); err != nil {
		return err
	}
	outcome, saveErr := ctrl.Results(ctx)
	if saveErr != nil && outcome.Result.Price == 0 {
		return saveErr
	}

	a.println(cli.RenderResult(outcome.Result))
	a.reportSave(outcome, saveErr)

	idx, err := a.prompter.Choose(ctx, calculator.RegretQuestion, cli.RenderRegretQuestion())
	if err != nil {
		return err
	}
	a.println(cli.FormatInfo(calculator.RegretAnswers[idx].Advice()))

	return a.maybeCheckin(ctx, cmd)
}

func (a *app) runCheckTUI(ctx context.Context, cmd *cobra.Command, ctrl *flow.Controller, countdown flow.Countdown) error {
	var (
		saved   flow.Outcome
		saveErr error
	)
	resolve := func(ctx context.Context) (calculator.Result, error) {
		if err := ctrl.CompleteCoolOff(); err != nil {
			return calculator.Result{}, err
		}
		out, err := ctrl.Results(ctx)
		saved, saveErr = out, err
		if err != nil && out.Result.Price == 0 {
			return calculator.Result{}, err
		}
		return out.Result, nil
	}

	outcome, err := tui.Run(ctx,
		tui.WithCountdown(countdown),
		tui.WithResolver(resolve),
	)
	if err != nil {
		return err
	}
	if outcome.Canceled && !outcome.Completed {
		ctrl.CancelCoolOff()
		a.println(cli.FormatInfo("Cool-off canceled. Nothing was saved."))
		return nil
	}

	a.reportSave(saved, saveErr)
	if outcome.Answer != "" {
		a.println(cli.FormatInfo(outcome.Answer.Advice()))
	}
	return a.maybeCheckin(ctx, cmd)
}

func (a *app) reportSave(outcome flow.Outcome, saveErr error) {
	switch {
	case saveErr != nil:
		a.println(cli.FormatWarning("Could not save this check to your history."))
	case outcome.Saved:
		a.println(cli.SubtleStyle.Render("Saved as " + outcome.RecordID))
	}
}

// readCheck takes the price from args and flags, asking for whatever is missing.
func (a *app) readCheck(ctx context.Context, cmd *cobra.Command, args []string) (flow.Check, error) {
	label, _ := cmd.Flags().GetString("label")
	rawCategory, _ := cmd.Flags().GetString("category")

	category, err := model.ParseCategory(rawCategory)
	if err != nil {
		return flow.Check{}, common.NewUserError("Unknown category. Use one of: "+categoryList(), err)
	}

	if len(args) == 1 {
		price, err := cli.ParseAmount(args[0])
		if err != nil {
			return flow.Check{}, common.NewUserError(fmt.Sprintf("%q is not a price", args[0]), err)
		}
		return flow.Check{Price: price, Label: strings.TrimSpace(label), Category: category}, nil
	}

	price, err := a.prompter.AskAmount(ctx, "Price")
	if err != nil {
		return flow.Check{}, err
	}
	if !cmd.Flags().Changed("label") {
		if label, err = a.prompter.AskDefault(ctx, "What is it?", ""); err != nil {
			return flow.Check{}, err
		}
	}
	if !cmd.Flags().Changed("category") {
		idx, err := a.prompter.Choose(ctx, "Category", categoryOptions())
		if err != nil {
			return flow.Check{}, err
		}
		category = model.Categories[idx]
	}
	return flow.Check{Price: price, Label: strings.TrimSpace(label), Category: category}, nil
}

// countdown is the configured cool-off, or the --cooloff override.
func (a *app) countdown(cmd *cobra.Command) flow.Countdown {
	d := a.cfg.CoolOff
	if cmd.Flags().Changed("cooloff") {
		d, _ = cmd.Flags().GetDuration("cooloff")
	}
	countdown := flow.NewCountdown(d)
	if countdown.Duration < countdown.Interval {
		countdown.Interval = countdown.Duration
	}
	slog.Debug("Cool-off", "duration", countdown.Duration)
	return countdown
}

// maybeCheckin asks the weekly check-in question when it is due.
func (a *app) maybeCheckin(ctx context.Context, cmd *cobra.Command) error {
	if skip, _ := cmd.Flags().GetBool("skip-checkin"); skip {
		return nil
	}
	due, err := a.checker().Due(ctx)
	if err != nil {
		slog.Warn("Could not read check-in state", "error", err)
		return nil
	}
	if !due {
		return nil
	}
	return a.askCheckin(ctx)
}

func categoryList() string {
	names := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func categoryOptions() []string {
	options := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		options[i] = c.Icon() + " " + string(c)
	}
	return options
}

