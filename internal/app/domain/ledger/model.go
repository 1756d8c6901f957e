// Package ledger holds the stored-value account and its append-only
// transaction history. Amounts are fixed-point integers in minor currency
// units; conversion to display decimals happens at the API boundary only.
package ledger

import (
	"errors"
	"time"
)

// Kind tags a transaction as balance-increasing or balance-decreasing.
type Kind string

const (
	KindCredit Kind = "CREDIT"
	KindDebit  Kind = "DEBIT"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Account is a prepaid wallet owned by a single user and shared by all of
// that user's vehicles. Balance never goes negative.
type Account struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transaction is an immutable ledger entry. Amount is signed: positive for
// credits, negative for debits. The account balance always equals the sum of
// its committed transaction amounts.
type Transaction struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Amount    int64     `json:"amount"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidateAmount checks a requested debit/credit magnitude.
func ValidateAmount(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
