package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fueltag-io/fueltag/internal/app/domain/ledger"
	"github.com/fueltag-io/fueltag/internal/app/domain/user"
	"github.com/fueltag-io/fueltag/internal/app/storage/memory"
)

func newService(t *testing.T) (*Service, string) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	owner, err := store.CreateUser(ctx, user.User{Name: "owner", Phone: "9000000001", Email: "owner@example.com"})
	require.NoError(t, err)
	acct, err := store.CreateAccount(ctx, ledger.Account{UserID: owner.ID})
	require.NoError(t, err)

	return New(store, nil), acct.ID
}

func TestTopUpThenPay(t *testing.T) {
	svc, accountID := newService(t)
	ctx := context.Background()

	loaded, err := svc.TopUp(ctx, accountID, 50000)
	require.NoError(t, err)
	require.Equal(t, ledger.KindCredit, loaded.Kind)
	require.Equal(t, int64(50000), loaded.Amount)
	require.Equal(t, int64(50000), loaded.Balance)

	charged, err := svc.Pay(ctx, accountID, 15000)
	require.NoError(t, err)
	require.Equal(t, ledger.KindDebit, charged.Kind)
	require.Equal(t, int64(15000), charged.Amount)
	require.Equal(t, int64(35000), charged.Balance)
	require.NotEmpty(t, charged.TransactionID)

	acct, err := svc.Balance(ctx, accountID)
	require.NoError(t, err)
	require.Equal(t, int64(35000), acct.Balance)
}

func TestPayInsufficientBalance(t *testing.T) {
	svc, accountID := newService(t)
	ctx := context.Background()

	_, err := svc.TopUp(ctx, accountID, 10000)
	require.NoError(t, err)

	_, err = svc.Pay(ctx, accountID, 40000)
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	acct, err := svc.Balance(ctx, accountID)
	require.NoError(t, err)
	require.Equal(t, int64(10000), acct.Balance, "failed payment must not move the balance")

	txs, err := svc.Transactions(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, txs, 1, "failed payment must not append a transaction")
}

func TestPayExactBalanceDrainsToZero(t *testing.T) {
	svc, accountID := newService(t)
	ctx := context.Background()

	_, err := svc.TopUp(ctx, accountID, 15000)
	require.NoError(t, err)

	charged, err := svc.Pay(ctx, accountID, 15000)
	require.NoError(t, err)
	require.Equal(t, int64(0), charged.Balance)
}

func TestInvalidAmounts(t *testing.T) {
	svc, accountID := newService(t)
	ctx := context.Background()

	for _, amount := range []int64{0, -1} {
		_, err := svc.Pay(ctx, accountID, amount)
		require.ErrorIs(t, err, ledger.ErrInvalidAmount)
		_, err = svc.TopUp(ctx, accountID, amount)
		require.ErrorIs(t, err, ledger.ErrInvalidAmount)
	}
}

func TestUnknownAccount(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Pay(ctx, "missing", 100)
	require.ErrorIs(t, err, ledger.ErrAccountNotFound)
	_, err = svc.TopUp(ctx, "missing", 100)
	require.ErrorIs(t, err, ledger.ErrAccountNotFound)
	_, err = svc.Balance(ctx, "missing")
	require.ErrorIs(t, err, ledger.ErrAccountNotFound)
	_, err = svc.Transactions(ctx, "missing")
	require.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestTransactionsHistoryOrderAndSigns(t *testing.T) {
	svc, accountID := newService(t)
	ctx := context.Background()

	txs, err := svc.Transactions(ctx, accountID)
	require.NoError(t, err)
	require.NotNil(t, txs)
	require.Empty(t, txs)

	_, err = svc.TopUp(ctx, accountID, 50000)
	require.NoError(t, err)
	_, err = svc.Pay(ctx, accountID, 15000)
	require.NoError(t, err)
	_, err = svc.Pay(ctx, accountID, 5000)
	require.NoError(t, err)

	txs, err = svc.Transactions(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	require.Equal(t, int64(50000), txs[0].Amount)
	require.Equal(t, int64(-15000), txs[1].Amount)
	require.Equal(t, int64(-5000), txs[2].Amount)

	var sum int64
	for _, tx := range txs {
		sum += tx.Amount
	}
	acct, err := svc.Balance(ctx, accountID)
	require.NoError(t, err)
	require.Equal(t, acct.Balance, sum)
}
