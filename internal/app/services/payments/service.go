// Package payments charges fuel purchases against prepaid accounts and
// accepts top-ups. Every successful operation yields a receipt carrying the
// ledger transaction and the balance left behind.
package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/fueltag-io/fueltag/internal/app/domain/ledger"
	"github.com/fueltag-io/fueltag/internal/app/storage"
	"github.com/fueltag-io/fueltag/pkg/logger"
)

// Receipt records the outcome of a payment or top-up. Amount is the absolute
// value charged or loaded, in minor currency units; Balance is the account
// balance after the operation.
type Receipt struct {
	TransactionID string      `json:"transactionId"`
	AccountID     string      `json:"accountId"`
	Kind          ledger.Kind `json:"kind"`
	Amount        int64       `json:"amount"`
	Balance       int64       `json:"balance"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// Service processes debits and credits against the ledger.
type Service struct {
	ledger storage.LedgerStore
	log    *logger.Logger
}

// New creates a payments service.
func New(store storage.LedgerStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("payments")
	}
	return &Service{ledger: store, log: log}
}

// Pay charges a fuel purchase. The ledger enforces that the debit cannot
// overdraw the account and that the balance change and transaction row land
// together.
func (s *Service) Pay(ctx context.Context, accountID string, amount int64) (Receipt, error) {
	acct, tx, err := s.ledger.Debit(ctx, accountID, amount)
	if err != nil {
		return Receipt{}, fmt.Errorf("pay: %w", err)
	}
	s.log.WithField("account_id", acct.ID).Infof("charged %d, balance %d", amount, acct.Balance)
	return receipt(acct, tx, amount), nil
}

// TopUp loads money onto an account.
func (s *Service) TopUp(ctx context.Context, accountID string, amount int64) (Receipt, error) {
	acct, tx, err := s.ledger.Credit(ctx, accountID, amount)
	if err != nil {
		return Receipt{}, fmt.Errorf("top up: %w", err)
	}
	s.log.WithField("account_id", acct.ID).Infof("loaded %d, balance %d", amount, acct.Balance)
	return receipt(acct, tx, amount), nil
}

// Balance returns the current account state.
func (s *Service) Balance(ctx context.Context, accountID string) (ledger.Account, error) {
	return s.ledger.GetAccount(ctx, accountID)
}

// Transactions returns the account's full history, oldest first. The account
// must exist; an empty history on a live account returns an empty slice.
func (s *Service) Transactions(ctx context.Context, accountID string) ([]ledger.Transaction, error) {
	if _, err := s.ledger.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	txs, err := s.ledger.ListTransactions(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []ledger.Transaction{}
	}
	return txs, nil
}

func receipt(acct ledger.Account, tx ledger.Transaction, amount int64) Receipt {
	return Receipt{
		TransactionID: tx.ID,
		AccountID:     acct.ID,
		Kind:          tx.Kind,
		Amount:        amount,
		Balance:       acct.Balance,
		CreatedAt:     tx.CreatedAt,
	}
}
