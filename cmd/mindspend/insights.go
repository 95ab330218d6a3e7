package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mindspend/internal/checkin"
	"github.com/Veraticus/mindspend/internal/cli"
	"github.com/Veraticus/mindspend/internal/insights"
)

func insightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Show patterns in your price checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				store, err := a.records()
				if err != nil {
					return err
				}
				records, err := store.List(ctx, 0)
				if err != nil {
					return fmt.Errorf("failed to load history: %w", err)
				}
				a.println(cli.RenderInsights(insights.Summarize(records, a.now())))
				return nil
			})
		},
	}
}

func checkinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkin",
		Short: "Answer the honest weekly check-in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				return a.askCheckin(ctx)
			})
		},
	}
}

func (a *app) checker() *checkin.Checker {
	return checkin.New(a.device, a.now)
}

func (a *app) askCheckin(ctx context.Context) error {
	a.println(cli.RenderCheckin())

	var response checkin.Response
	for attempt := 0; ; attempt++ {
		answer, err := a.prompter.Ask(ctx, "yes / no")
		if err != nil {
			return err
		}
		response, err = checkin.ParseResponse(answer)
		if err == nil {
			break
		}
		if attempt+1 >= cli.MaxAttempts {
			return cli.ErrTooManyAttempts
		}
		a.println(cli.FormatError(err.Error()))
	}

	msg, err := a.checker().Record(ctx, response)
	if err != nil {
		return err
	}
	if msg != "" {
		a.println(cli.FormatInfo(msg))
	} else {
		a.println(cli.FormatSuccess("Thanks. See you next week " + cli.HeartIcon))
	}
	return nil
}
