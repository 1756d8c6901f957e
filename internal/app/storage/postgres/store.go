package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/fueltag-io/fueltag/internal/app/domain/ledger"
	"github.com/fueltag-io/fueltag/internal/app/domain/user"
	"github.com/fueltag-io/fueltag/internal/app/domain/vehicle"
	"github.com/fueltag-io/fueltag/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL. Debits and
// credits run inside a database transaction that takes a row lock on the
// account (SELECT ... FOR UPDATE), so concurrent mutations of one account are
// serialised by the database and the balance check is never based on a stale
// read.
type Store struct {
	db *sql.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.VehicleStore = (*Store)(nil)
var _ storage.LedgerStore = (*Store)(nil)
var _ storage.RegistrationStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// uniqueViolation is the PostgreSQL error code for breached unique
// constraints; mapErr translates it into the domain sentinels by constraint
// name.
const uniqueViolation = "23505"

func mapErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		switch {
		case strings.Contains(pqErr.Constraint, "phone"):
			return fmt.Errorf("%w: %s", user.ErrPhoneInUse, pqErr.Detail)
		case strings.Contains(pqErr.Constraint, "email"):
			return fmt.Errorf("%w: %s", user.ErrEmailInUse, pqErr.Detail)
		case strings.Contains(pqErr.Constraint, "plate"):
			return fmt.Errorf("%w: %s", vehicle.ErrPlateInUse, pqErr.Detail)
		}
	}
	return err
}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, phone, email, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Name, u.Phone, u.Email, u.CreatedAt)
	if err != nil {
		return user.User{}, mapErr(err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, email, created_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row, id)
}

func (s *Store) GetUserByPhone(ctx context.Context, phone string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, email, created_at
		FROM users
		WHERE phone = $1
	`, phone)
	return scanUser(row, phone)
}

func scanUser(row *sql.Row, key string) (user.User, error) {
	var u user.User
	if err := row.Scan(&u.ID, &u.Name, &u.Phone, &u.Email, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, fmt.Errorf("user %s: %w", key, user.ErrNotFound)
		}
		return user.User{}, err
	}
	return u, nil
}

// --- VehicleStore -----------------------------------------------------------

func (s *Store) CreateVehicle(ctx context.Context, v vehicle.Vehicle) (vehicle.Vehicle, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.PlateNumber = vehicle.NormalizePlate(v.PlateNumber)
	v.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vehicles (id, user_id, plate_number, vehicle_type, fuel_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.ID, v.UserID, v.PlateNumber, v.VehicleType, v.FuelType, v.CreatedAt)
	if err != nil {
		return vehicle.Vehicle{}, mapErr(err)
	}
	return v, nil
}

func (s *Store) GetVehicle(ctx context.Context, id string) (vehicle.Vehicle, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, plate_number, vehicle_type, fuel_type, created_at
		FROM vehicles
		WHERE id = $1
	`, id)
	return scanVehicle(row, id)
}

func (s *Store) GetVehicleByPlate(ctx context.Context, plate string) (vehicle.Vehicle, error) {
	normalized := vehicle.NormalizePlate(plate)
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, plate_number, vehicle_type, fuel_type, created_at
		FROM vehicles
		WHERE plate_number = $1
	`, normalized)
	return scanVehicle(row, normalized)
}

func scanVehicle(row *sql.Row, key string) (vehicle.Vehicle, error) {
	var v vehicle.Vehicle
	if err := row.Scan(&v.ID, &v.UserID, &v.PlateNumber, &v.VehicleType, &v.FuelType, &v.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return vehicle.Vehicle{}, fmt.Errorf("vehicle %s: %w", key, vehicle.ErrNotFound)
		}
		return vehicle.Vehicle{}, err
	}
	return v, nil
}

func (s *Store) ListVehicles(ctx context.Context, userID string) ([]vehicle.Vehicle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, plate_number, vehicle_type, fuel_type, created_at
		FROM vehicles
		WHERE $1 = '' OR user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []vehicle.Vehicle
	for rows.Next() {
		var v vehicle.Vehicle
		if err := rows.Scan(&v.ID, &v.UserID, &v.PlateNumber, &v.VehicleType, &v.FuelType, &v.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

// --- LedgerStore ------------------------------------------------------------

func (s *Store) CreateAccount(ctx context.Context, acct ledger.Account) (ledger.Account, error) {
	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	acct.CreatedAt = now
	acct.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, acct.ID, acct.UserID, acct.Balance, acct.CreatedAt, acct.UpdatedAt)
	if err != nil {
		return ledger.Account{}, mapErr(err)
	}
	return acct, nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (ledger.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, balance, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`, id)
	return scanAccount(row, id)
}

func (s *Store) GetAccountByUser(ctx context.Context, userID string) (ledger.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, balance, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
	`, userID)
	return scanAccount(row, userID)
}

func scanAccount(row *sql.Row, key string) (ledger.Account, error) {
	var acct ledger.Account
	if err := row.Scan(&acct.ID, &acct.UserID, &acct.Balance, &acct.CreatedAt, &acct.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Account{}, fmt.Errorf("account %s: %w", key, ledger.ErrAccountNotFound)
		}
		return ledger.Account{}, err
	}
	return acct, nil
}

func (s *Store) Debit(ctx context.Context, accountID string, amount int64) (ledger.Account, ledger.Transaction, error) {
	return s.mutateBalance(ctx, accountID, amount, ledger.KindDebit)
}

func (s *Store) Credit(ctx context.Context, accountID string, amount int64) (ledger.Account, ledger.Transaction, error) {
	return s.mutateBalance(ctx, accountID, amount, ledger.KindCredit)
}

// mutateBalance applies a debit or credit as one atomic unit. The row lock
// taken by FOR UPDATE holds until commit, so the balance check and the write
// cannot interleave with another mutation of the same account.
func (s *Store) mutateBalance(ctx context.Context, accountID string, amount int64, kind ledger.Kind) (ledger.Account, ledger.Transaction, error) {
	if err := ledger.ValidateAmount(amount); err != nil {
		return ledger.Account{}, ledger.Transaction{}, err
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Account{}, ledger.Transaction{}, err
	}
	defer func() {
		if err != nil {
			_ = dbTx.Rollback()
		}
	}()

	var acct ledger.Account
	err = dbTx.QueryRowContext(ctx, `
		SELECT id, user_id, balance, created_at, updated_at
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`, accountID).Scan(&acct.ID, &acct.UserID, &acct.Balance, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("account %s: %w", accountID, ledger.ErrAccountNotFound)
		}
		return ledger.Account{}, ledger.Transaction{}, err
	}

	signedAmount := amount
	if kind == ledger.KindDebit {
		if acct.Balance < amount {
			err = ledger.ErrInsufficientBalance
			return ledger.Account{}, ledger.Transaction{}, err
		}
		signedAmount = -amount
	}

	now := time.Now().UTC()
	acct.Balance += signedAmount
	acct.UpdatedAt = now

	_, err = dbTx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $2, updated_at = $3
		WHERE id = $1
	`, acct.ID, acct.Balance, acct.UpdatedAt)
	if err != nil {
		return ledger.Account{}, ledger.Transaction{}, err
	}

	tx := ledger.Transaction{
		ID:        uuid.NewString(),
		AccountID: acct.ID,
		Amount:    signedAmount,
		Kind:      kind,
		CreatedAt: now,
	}
	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO transactions (id, account_id, amount, kind, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, tx.ID, tx.AccountID, tx.Amount, tx.Kind, tx.CreatedAt)
	if err != nil {
		return ledger.Account{}, ledger.Transaction{}, err
	}

	if err = dbTx.Commit(); err != nil {
		return ledger.Account{}, ledger.Transaction{}, err
	}
	return acct, tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, accountID string) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, amount, kind, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ledger.Transaction
	for rows.Next() {
		var tx ledger.Transaction
		if err := rows.Scan(&tx.ID, &tx.AccountID, &tx.Amount, &tx.Kind, &tx.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, tx)
	}
	return result, rows.Err()
}

// --- RegistrationStore ------------------------------------------------------

func (s *Store) CreateRegistration(ctx context.Context, u user.User, v vehicle.Vehicle, acct ledger.Account) (user.User, vehicle.Vehicle, ledger.Account, error) {
	now := time.Now().UTC()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = now

	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}
	acct.UserID = u.ID
	acct.CreatedAt = now
	acct.UpdatedAt = now

	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.UserID = u.ID
	v.PlateNumber = vehicle.NormalizePlate(v.PlateNumber)
	v.CreatedAt = now

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return user.User{}, vehicle.Vehicle{}, ledger.Account{}, err
	}
	defer func() {
		if err != nil {
			_ = dbTx.Rollback()
		}
	}()

	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO users (id, name, phone, email, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Name, u.Phone, u.Email, u.CreatedAt)
	if err != nil {
		err = mapErr(err)
		return user.User{}, vehicle.Vehicle{}, ledger.Account{}, err
	}

	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, acct.ID, acct.UserID, acct.Balance, acct.CreatedAt, acct.UpdatedAt)
	if err != nil {
		err = mapErr(err)
		return user.User{}, vehicle.Vehicle{}, ledger.Account{}, err
	}

	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO vehicles (id, user_id, plate_number, vehicle_type, fuel_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.ID, v.UserID, v.PlateNumber, v.VehicleType, v.FuelType, v.CreatedAt)
	if err != nil {
		err = mapErr(err)
		return user.User{}, vehicle.Vehicle{}, ledger.Account{}, err
	}

	if err = dbTx.Commit(); err != nil {
		return user.User{}, vehicle.Vehicle{}, ledger.Account{}, err
	}
	return u, v, acct, nil
}
