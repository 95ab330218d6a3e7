package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one posted bank or card transaction, as read from an OFX
// statement or Plaid. Amount is positive for money leaving the account.
type Transaction struct {
	Date      time.Time
	Amount    decimal.Decimal
	ID        string
	Name      string // Raw description from the institution
	Payee     string // Cleaned merchant name
	AccountID string
	Source    string // "ofx" or "plaid"
}

// IsOutflow reports whether the transaction spent money.
func (t Transaction) IsOutflow() bool {
	return t.Amount.IsPositive()
}

// Hash identifies the transaction across repeated imports.
func (t Transaction) Hash() string {
	data := fmt.Sprintf("%s:%s:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount.StringFixed(2),
		t.Payee,
		t.AccountID)
	sum := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", sum)
}
