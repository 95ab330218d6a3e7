package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mindspend/internal/cli"
	"github.com/Veraticus/mindspend/internal/common"
	"github.com/Veraticus/mindspend/internal/flow"
	"github.com/Veraticus/mindspend/internal/history"
	"github.com/Veraticus/mindspend/internal/insights"
	"github.com/Veraticus/mindspend/internal/model"
)

var limitUsage = fmt.Sprintf("number of checks to show (default %d)", insights.HistoryViewLimit)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List your recent price checks",
		RunE:  runHistoryList,
	}
	cmd.Flags().Int("limit", 0, limitUsage)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your recent price checks",
		RunE:  runHistoryList,
	}
	listCmd.Flags().Int("limit", 0, limitUsage)

	cmd.AddCommand(listCmd)
	cmd.AddCommand(historyShowCmd())
	cmd.AddCommand(historyDecideCmd())
	cmd.AddCommand(historyDeleteCmd())
	return cmd
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	return withApp(cmd, func(ctx context.Context, a *app) error {
		store, err := a.records()
		if err != nil {
			return err
		}
		records, err := store.List(ctx, limit)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		if limit <= 0 {
			records = insights.Recent(records)
		}
		a.println(cli.RenderHistory(records, a.now()))
		return nil
	})
}

func historyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the results of a past check against your current baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				record, err := a.findRecord(ctx, args[0])
				if err != nil {
					return err
				}
				if !a.sess.HasProfile() {
					return errNoBaseline
				}

				ctrl := flow.NewController(a.sess)
				ctrl.ViewHistory(record)
				outcome, err := ctrl.Results(ctx)
				if err != nil {
					return err
				}
				a.println(cli.RenderResult(outcome.Result))
				a.println(cli.SubtleStyle.Render(fmt.Sprintf("Checked %s, decision: %s",
					insights.TimeAgo(record.Timestamp, a.now()), record.Decision)))
				return nil
			})
		},
	}
}

func historyDecideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decide <id> <bought|skipped>",
		Short: "Record whether you bought or skipped a checked item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			decision, err := model.ParseDecision(args[1])
			if err != nil {
				return common.NewUserError("Decision must be 'bought' or 'skipped'", err)
			}
			regret, err := regretFlag(cmd)
			if err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				store, err := a.records()
				if err != nil {
					return err
				}
				if err := store.UpdateDecision(ctx, args[0], decision, regret); err != nil {
					return recordError(args[0], err)
				}
				a.println(cli.FormatSuccess(fmt.Sprintf("Marked as %s.", decision)))
				return nil
			})
		},
	}
	cmd.Flags().String("regret", "", "whether you regret it: yes or no")
	return cmd
}

func historyDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a check from your history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				store, err := a.records()
				if err != nil {
					return err
				}
				if !force {
					ok, err := a.prompter.Confirm(ctx, "Delete this check?", false)
					if err != nil {
						return err
					}
					if !ok {
						a.println(cli.FormatInfo("Nothing deleted."))
						return nil
					}
				}
				if err := store.Delete(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to delete check: %w", err)
				}
				a.println(cli.FormatSuccess("Deleted."))
				return nil
			})
		},
	}
	cmd.Flags().Bool("force", false, "do not ask for confirmation")
	return cmd
}

func (a *app) findRecord(ctx context.Context, id string) (model.PurchaseRecord, error) {
	store, err := a.records()
	if err != nil {
		return model.PurchaseRecord{}, err
	}
	record, err := history.Find(ctx, store, id)
	if err != nil {
		return model.PurchaseRecord{}, recordError(id, err)
	}
	return record, nil
}

func regretFlag(cmd *cobra.Command) (*bool, error) {
	raw, _ := cmd.Flags().GetString("regret")
	switch raw {
	case "":
		return nil, nil
	case "yes", "y":
		v := true
		return &v, nil
	case "no", "n":
		v := false
		return &v, nil
	}
	return nil, common.NewUserError("--regret must be yes or no", common.ErrInvalidInput)
}

func recordError(id string, err error) error {
	if errors.Is(err, history.ErrRecordNotFound) {
		return common.NewUserError(fmt.Sprintf("No check with id %s", id), err)
	}
	if errors.Is(err, model.ErrInvalidDecision) {
		return common.NewUserError(err.Error(), err)
	}
	return err
}
