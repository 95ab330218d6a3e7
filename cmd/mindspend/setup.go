package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mindspend/internal/cli"
	"github.com/Veraticus/mindspend/internal/common"
	"github.com/Veraticus/mindspend/internal/flow"
	"github.com/Veraticus/mindspend/internal/model"
	"github.com/Veraticus/mindspend/internal/session"
)

var incomeChoices = []string{"Monthly take-home pay", "Hourly wage"}

var errNoBaseline = common.NewUserError("No baseline yet: run 'mindspend setup'", session.ErrNoProfile)

func setupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Tell mindspend about your income and expenses",
		Long: `Set up the economic baseline every price check is measured against.

Without flags the questions are asked interactively:

  mindspend setup
  mindspend setup --monthly 2800 --expenses 1900`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.requireIdentity(); err != nil {
					return err
				}
				profile, err := a.profileFromInput(ctx, cmd, nil)
				if err != nil {
					return err
				}
				ctrl := flow.NewController(a.sess)
				if err := ctrl.CompleteSetup(ctx, profile); err != nil {
					return fmt.Errorf("failed to save profile: %w", err)
				}
				a.println(cli.FormatSuccess("Baseline saved."))
				a.println(cli.RenderProfile(profile))
				return nil
			})
		},
	}
	addProfileFlags(cmd)
	return cmd
}

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change your baseline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reset, _ := cmd.Flags().GetBool("reset")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.requireIdentity(); err != nil {
					return err
				}
				ctrl := flow.NewController(a.sess)

				if reset {
					ctrl.ResetSettings()
					a.println(cli.FormatInfo("Starting over. Your history is kept."))
					profile, err := a.interactiveProfile(ctx)
					if err != nil {
						return err
					}
					return a.saveProfile(ctx, profile)
				}

				current := a.sess.Profile()
				if current == nil {
					return errNoBaseline
				}
				if !profileFlagsChanged(cmd) {
					a.println(cli.RenderProfile(*current))
					return nil
				}

				profile, err := a.profileFromInput(ctx, cmd, current)
				if err != nil {
					return err
				}
				return a.saveProfile(ctx, profile)
			})
		},
	}
	addProfileFlags(cmd)
	cmd.Flags().Bool("reset", false, "forget the baseline and answer the setup questions again")
	return cmd
}

func goalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Set or clear your savings goals",
		Long: `Set the emergency fund and freedom fund goals shown on the results screen.
A value of 0 clears a goal; a goal that is not given keeps its value.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.requireIdentity(); err != nil {
					return err
				}
				current := a.sess.Profile()
				if current == nil {
					return errNoBaseline
				}

				emergency, err := goalFlag(cmd, "emergency", current.EmergencyFundGoal)
				if err != nil {
					return err
				}
				freedom, err := goalFlag(cmd, "freedom", current.FreedomGoal)
				if err != nil {
					return err
				}
				if err := a.sess.UpdateGoals(ctx, emergency, freedom); err != nil {
					return goalError(err)
				}
				a.println(cli.FormatSuccess("Goals updated."))
				a.println(cli.RenderProfile(*a.sess.Profile()))
				return nil
			})
		},
	}
	cmd.Flags().Float64("emergency", 0, "emergency fund goal, 0 clears it")
	cmd.Flags().Float64("freedom", 0, "freedom fund goal, 0 clears it")
	return cmd
}

func addProfileFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("monthly", 0, "monthly take-home income")
	cmd.Flags().Float64("hourly", 0, "hourly wage")
	cmd.Flags().Int("days", 0, "working days per year (default 220)")
	cmd.Flags().Float64("expenses", 0, "monthly expenses (default 80% of income)")
	cmd.Flags().Float64("emergency-goal", 0, "emergency fund goal")
	cmd.Flags().Float64("freedom-goal", 0, "freedom fund goal")
	cmd.MarkFlagsMutuallyExclusive("monthly", "hourly")
}

var profileFlagNames = []string{"monthly", "hourly", "days", "expenses", "emergency-goal", "freedom-goal"}

func profileFlagsChanged(cmd *cobra.Command) bool {
	for _, name := range profileFlagNames {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func (a *app) saveProfile(ctx context.Context, p model.Profile) error {
	if err := a.sess.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	a.println(cli.FormatSuccess("Baseline saved."))
	a.println(cli.RenderProfile(p))
	return nil
}

// profileFromInput builds a profile from flags, starting from base when set.
// With no flags and no base the questions are asked interactively.
func (a *app) profileFromInput(ctx context.Context, cmd *cobra.Command, base *model.Profile) (model.Profile, error) {
	if !profileFlagsChanged(cmd) {
		return a.interactiveProfile(ctx)
	}

	flags := cmd.Flags()
	in := model.IncomeInput{Kind: model.IncomeMonthly}
	switch {
	case flags.Changed("monthly"):
		in.Amount, _ = flags.GetFloat64("monthly")
	case flags.Changed("hourly"):
		in.Kind = model.IncomeHourly
		in.Amount, _ = flags.GetFloat64("hourly")
	case base != nil:
		in.Kind = model.IncomeHourly
		in.Amount = base.HourlyWage
	default:
		return model.Profile{}, common.NewUserError("Give your income with --monthly or --hourly", model.ErrInvalidIncome)
	}

	if base != nil {
		in.WorkingDaysPerYear = base.WorkingDaysPerYear
		expenses := base.MonthlyExpenses
		in.MonthlyExpenses = &expenses
		in.EmergencyFundGoal = base.EmergencyFundGoal
		in.FreedomGoal = base.FreedomGoal
	}
	if flags.Changed("days") {
		in.WorkingDaysPerYear, _ = flags.GetInt("days")
		if in.WorkingDaysPerYear <= 0 {
			return model.Profile{}, common.NewUserError("Working days must be greater than zero", model.ErrInvalidWorkingDays)
		}
	}
	if flags.Changed("expenses") {
		expenses, _ := flags.GetFloat64("expenses")
		in.MonthlyExpenses = &expenses
	}
	if flags.Changed("emergency-goal") {
		in.EmergencyFundGoal = optionalGoal(flags.GetFloat64("emergency-goal"))
	}
	if flags.Changed("freedom-goal") {
		in.FreedomGoal = optionalGoal(flags.GetFloat64("freedom-goal"))
	}

	profile, err := model.NewProfile(in)
	if err != nil {
		return model.Profile{}, common.NewUserError(err.Error(), err)
	}
	return profile, nil
}

func (a *app) interactiveProfile(ctx context.Context) (model.Profile, error) {
	a.println(cli.FormatTitle("Your baseline"))
	a.println(cli.SubtleStyle.Render("Prices are measured against what your time is worth."))

	choice, err := a.prompter.Choose(ctx, "How do you want to enter your income?", incomeChoices)
	if err != nil {
		return model.Profile{}, err
	}
	in := model.IncomeInput{Kind: model.IncomeMonthly}
	question := "Monthly take-home pay"
	if choice == 1 {
		in.Kind = model.IncomeHourly
		question = "Hourly wage"
	}

	if in.Amount, err = a.prompter.AskAmount(ctx, question); err != nil {
		return model.Profile{}, err
	}
	if in.MonthlyExpenses, err = a.prompter.AskOptionalAmount(ctx, "Monthly expenses"); err != nil {
		return model.Profile{}, err
	}
	if in.WorkingDaysPerYear, err = a.askWorkingDays(ctx); err != nil {
		return model.Profile{}, err
	}
	if in.EmergencyFundGoal, err = a.prompter.AskOptionalAmount(ctx, "Emergency fund goal"); err != nil {
		return model.Profile{}, err
	}
	if in.FreedomGoal, err = a.prompter.AskOptionalAmount(ctx, "Freedom fund goal"); err != nil {
		return model.Profile{}, err
	}

	profile, err := model.NewProfile(in)
	if err != nil {
		return model.Profile{}, common.NewUserError(err.Error(), err)
	}
	return profile, nil
}

func (a *app) askWorkingDays(ctx context.Context) (int, error) {
	def := strconv.Itoa(model.DefaultWorkingDaysPerYear)
	for attempt := 0; attempt < cli.MaxAttempts; attempt++ {
		answer, err := a.prompter.AskDefault(ctx, "Working days per year", def)
		if err != nil {
			return 0, err
		}
		days, err := strconv.Atoi(answer)
		if err == nil && days > 0 {
			return days, nil
		}
		a.println(cli.FormatError("Enter a whole number of days"))
	}
	return 0, cli.ErrTooManyAttempts
}

// goalFlag reads a goal flag: unset keeps current, 0 clears it.
func goalFlag(cmd *cobra.Command, name string, current *float64) (*float64, error) {
	if !cmd.Flags().Changed(name) {
		return current, nil
	}
	v, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		return nil, err
	}
	if v < 0 {
		return nil, common.NewUserError("Goals must be positive, or 0 to clear", model.ErrInvalidGoal)
	}
	return optionalGoal(v, nil), nil
}

func optionalGoal(v float64, err error) *float64 {
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

func goalError(err error) error {
	return common.NewUserError(err.Error(), err)
}
