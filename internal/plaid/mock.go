package plaid

import (
	"context"
	"sync"
	"time"

	"github.com/Veraticus/mindspend/internal/model"
)

// MockClient is a TransactionFetcher for tests.
type MockClient struct {
	GetTransactionsFn func(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error)

	mu    sync.Mutex
	calls []GetTransactionsCall
}

// GetTransactionsCall records the parameters of a GetTransactions call.
type GetTransactionsCall struct {
	StartDate time.Time
	EndDate   time.Time
}

// NewMockClient returns a mock that serves txns.
func NewMockClient(txns ...model.Transaction) *MockClient {
	return &MockClient{
		GetTransactionsFn: func(context.Context, time.Time, time.Time) ([]model.Transaction, error) {
			return txns, nil
		},
	}
}

// GetTransactions records the call and delegates to GetTransactionsFn.
func (m *MockClient) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error) {
	m.mu.Lock()
	m.calls = append(m.calls, GetTransactionsCall{StartDate: startDate, EndDate: endDate})
	fn := m.GetTransactionsFn
	m.mu.Unlock()

	if fn == nil {
		return nil, nil
	}
	return fn(ctx, startDate, endDate)
}

// Calls returns the recorded calls.
func (m *MockClient) Calls() []GetTransactionsCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GetTransactionsCall(nil), m.calls...)
}

var _ TransactionFetcher = (*MockClient)(nil)
