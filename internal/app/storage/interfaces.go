package storage

import (
	"context"

	"github.com/fueltag-io/fueltag/internal/app/domain/ledger"
	"github.com/fueltag-io/fueltag/internal/app/domain/user"
	"github.com/fueltag-io/fueltag/internal/app/domain/vehicle"
)

// UserStore persists fund owners.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByPhone(ctx context.Context, phone string) (user.User, error)
}

// VehicleStore persists vehicles. Plate numbers are unique across the fleet.
type VehicleStore interface {
	CreateVehicle(ctx context.Context, v vehicle.Vehicle) (vehicle.Vehicle, error)
	GetVehicle(ctx context.Context, id string) (vehicle.Vehicle, error)
	GetVehicleByPlate(ctx context.Context, plate string) (vehicle.Vehicle, error)
	ListVehicles(ctx context.Context, userID string) ([]vehicle.Vehicle, error)
}

// LedgerStore is the sole writer of account balances and transaction rows.
// Debit and Credit each execute as one atomic unit: the balance change and the
// appended transaction commit together or not at all, under mutual exclusion
// scoped to the account.
type LedgerStore interface {
	CreateAccount(ctx context.Context, acct ledger.Account) (ledger.Account, error)
	GetAccount(ctx context.Context, id string) (ledger.Account, error)
	GetAccountByUser(ctx context.Context, userID string) (ledger.Account, error)

	Debit(ctx context.Context, accountID string, amount int64) (ledger.Account, ledger.Transaction, error)
	Credit(ctx context.Context, accountID string, amount int64) (ledger.Account, ledger.Transaction, error)
	ListTransactions(ctx context.Context, accountID string) ([]ledger.Transaction, error)
}

// RegistrationStore creates a user, their account, and their first vehicle as
// a single unit of work. A failure leaves no partial rows behind.
type RegistrationStore interface {
	CreateRegistration(ctx context.Context, u user.User, v vehicle.Vehicle, acct ledger.Account) (user.User, vehicle.Vehicle, ledger.Account, error)
}
