package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mindspend/internal/cli"
	"github.com/Veraticus/mindspend/internal/common"
	"github.com/Veraticus/mindspend/internal/model"
	"github.com/Veraticus/mindspend/internal/ofx"
	"github.com/Veraticus/mindspend/internal/plaid"
	"github.com/Veraticus/mindspend/internal/reconcile"
)

// newTransactionFetcher connects to the bank feed. Tests replace it.
var newTransactionFetcher = func(cfg plaid.Config) (plaid.TransactionFetcher, error) {
	return plaid.NewClient(cfg)
}

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Match undecided checks against your bank transactions",
		Long: `Find undecided checks that show up as a purchase in your bank transactions
and mark them as bought.

Transactions come from OFX/QFX statement files or from Plaid:
  mindspend reconcile --ofx statement.qfx
  mindspend reconcile --plaid --days 30 --apply`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			files, _ := cmd.Flags().GetStringSlice("ofx")
			usePlaid, _ := cmd.Flags().GetBool("plaid")
			days, _ := cmd.Flags().GetInt("days")
			apply, _ := cmd.Flags().GetBool("apply")

			if len(files) == 0 && !usePlaid {
				return common.NewUserError("Give statement files with --ofx or use --plaid", common.ErrInvalidInput)
			}
			if days <= 0 {
				return common.NewUserError("--days must be greater than zero", common.ErrInvalidInput)
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				store, err := a.records()
				if err != nil {
					return err
				}

				var txns []model.Transaction
				if len(files) > 0 {
					txns, err = ofx.NewParser().ParseFiles(ctx, files)
				} else {
					txns, err = a.fetchPlaid(ctx, days)
				}
				if err != nil {
					return err
				}
				a.println(cli.FormatInfo(fmt.Sprintf("Loaded %d transactions", len(txns))))

				r := reconcile.New(store, reconcile.Options{})
				matches, err := r.Suggest(ctx, txns, 0)
				if err != nil {
					return err
				}
				a.println(cli.RenderMatches(matches))
				if len(matches) == 0 {
					return nil
				}

				if !apply {
					ok, err := a.prompter.Confirm(ctx, fmt.Sprintf("Mark %d checks as bought?", len(matches)), false)
					if err != nil {
						return err
					}
					if !ok {
						return nil
					}
				}
				applied, err := r.Apply(ctx, matches)
				if err != nil {
					return err
				}
				a.println(cli.FormatSuccess(fmt.Sprintf("Marked %d checks as bought.", applied)))
				return nil
			})
		},
	}
	cmd.Flags().StringSlice("ofx", nil, "OFX/QFX statement files")
	cmd.Flags().Bool("plaid", false, "fetch transactions from Plaid")
	cmd.Flags().Int("days", 30, "how many days of Plaid transactions to fetch")
	cmd.Flags().Bool("apply", false, "mark matches as bought without asking")
	cmd.MarkFlagsMutuallyExclusive("ofx", "plaid")
	return cmd
}

func (a *app) fetchPlaid(ctx context.Context, days int) ([]model.Transaction, error) {
	if !a.cfg.Plaid.Configured() {
		return nil, common.NewUserError("Plaid is not configured; set plaid.client_id, plaid.secret and plaid.access_token", common.ErrMissingConfig)
	}
	fetcher, err := newTransactionFetcher(plaid.Config{
		ClientID:    a.cfg.Plaid.ClientID,
		Secret:      a.cfg.Plaid.Secret,
		Environment: a.cfg.Plaid.Environment,
		AccessToken: a.cfg.Plaid.AccessToken,
	})
	if err != nil {
		return nil, err
	}

	end := a.now()
	start := end.Add(-time.Duration(days) * 24 * time.Hour)
	txns, err := fetcher.GetTransactions(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	return txns, nil
}
