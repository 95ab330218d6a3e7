package plaid

import (
	"context"
	"time"

	"github.com/Veraticus/mindspend/internal/model"
)

// TransactionFetcher fetches posted bank transactions for a date range.
type TransactionFetcher interface {
	GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error)
}
