// Package reconcile matches undecided price checks against posted bank
// transactions and marks the matches as bought.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Veraticus/mindspend/internal/history"
	"github.com/Veraticus/mindspend/internal/model"
	"github.com/shopspring/decimal"
)

// Matching defaults.
const (
	DefaultWindow = 14 * 24 * time.Hour
	// DefaultRelativeTolerance allows for tax and shipping on top of the checked price.
	DefaultRelativeTolerance = 0.10
)

// DefaultMinTolerance is the smallest absolute amount difference accepted.
var DefaultMinTolerance = decimal.RequireFromString("0.50")

// Options tune matching. Zero values take the defaults.
type Options struct {
	// Window is how long after a check a purchase may post.
	Window time.Duration
	// RelativeTolerance is the accepted difference as a share of the price.
	RelativeTolerance float64
	// MinTolerance is the floor for the accepted absolute difference.
	MinTolerance decimal.Decimal
}

func (o Options) withDefaults() Options {
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	if o.RelativeTolerance <= 0 {
		o.RelativeTolerance = DefaultRelativeTolerance
	}
	if !o.MinTolerance.IsPositive() {
		o.MinTolerance = DefaultMinTolerance
	}
	return o
}

// Match pairs a price check with the transaction that most likely paid for it.
type Match struct {
	Transaction model.Transaction
	Record      model.PurchaseRecord
	AmountDiff  decimal.Decimal
	DaysAfter   int
}

// Suggest pairs undecided records with outflow transactions. A transaction
// matches when it posted on the check's day or within the window after it
// and its amount is within tolerance of the price. Each record and each
// transaction is used at most once; closer amounts win, then closer dates.
func Suggest(records []model.PurchaseRecord, txns []model.Transaction, opts Options) []Match {
	opts = opts.withDefaults()

	var candidates []Match
	for _, rec := range records {
		if rec.Decision != model.DecisionUndecided {
			continue
		}
		price := decimal.NewFromFloat(rec.Price)
		tolerance := decimal.Max(price.Mul(decimal.NewFromFloat(opts.RelativeTolerance)), opts.MinTolerance)
		checkDay := day(rec.Timestamp)

		for _, tx := range txns {
			if !tx.IsOutflow() {
				continue
			}
			postedDay := day(tx.Date)
			if postedDay.Before(checkDay) || postedDay.Sub(checkDay) > opts.Window {
				continue
			}
			diff := tx.Amount.Sub(price).Abs()
			if diff.GreaterThan(tolerance) {
				continue
			}
			candidates = append(candidates, Match{
				Record:      rec,
				Transaction: tx,
				AmountDiff:  diff,
				DaysAfter:   int(postedDay.Sub(checkDay).Hours() / 24),
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if c := a.AmountDiff.Cmp(b.AmountDiff); c != 0 {
			return c < 0
		}
		if a.DaysAfter != b.DaysAfter {
			return a.DaysAfter < b.DaysAfter
		}
		return a.Record.Timestamp.Before(b.Record.Timestamp)
	})

	usedRecords := make(map[string]bool)
	usedTxns := make(map[string]bool)
	var matches []Match
	for _, m := range candidates {
		txKey := m.Transaction.ID + "|" + m.Transaction.Hash()
		if usedRecords[m.Record.ID] || usedTxns[txKey] {
			continue
		}
		usedRecords[m.Record.ID] = true
		usedTxns[txKey] = true
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Record.Timestamp.After(matches[j].Record.Timestamp)
	})
	return matches
}

// day returns the calendar date of t as a comparable UTC midnight.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Reconciler runs matching against a history store.
type Reconciler struct {
	store  history.Store
	logger *slog.Logger
	opts   Options
}

// New creates a Reconciler over store.
func New(store history.Store, opts Options) *Reconciler {
	return &Reconciler{
		store:  store,
		opts:   opts,
		logger: slog.Default().With("component", "reconcile"),
	}
}

// Suggest loads the newest records and matches them against txns.
func (r *Reconciler) Suggest(ctx context.Context, txns []model.Transaction, limit int) ([]Match, error) {
	records, err := r.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	matches := Suggest(records, txns, r.opts)
	r.logger.Info("Reconciled history against transactions",
		"records", len(records),
		"transactions", len(txns),
		"matches", len(matches))
	return matches, nil
}

// Apply marks every matched record as bought, leaving regret untouched.
// It stops at the first failure and reports how many were applied.
func (r *Reconciler) Apply(ctx context.Context, matches []Match) (int, error) {
	applied := 0
	for _, m := range matches {
		if err := r.store.UpdateDecision(ctx, m.Record.ID, model.DecisionBought, nil); err != nil {
			return applied, fmt.Errorf("failed to mark %q as bought: %w", m.Record.Label, err)
		}
		applied++
		r.logger.Debug("Marked check as bought",
			"record", m.Record.ID,
			"transaction", m.Transaction.ID)
	}
	return applied, nil
}
