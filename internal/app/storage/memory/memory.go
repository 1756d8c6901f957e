package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fueltag-io/fueltag/internal/app/domain/ledger"
	"github.com/fueltag-io/fueltag/internal/app/domain/user"
	"github.com/fueltag-io/fueltag/internal/app/domain/vehicle"
	"github.com/fueltag-io/fueltag/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local
// development. All mutations run behind the store mutex, so every debit or
// credit is serialised with respect to any other mutation of the same
// account.
type Store struct {
	mu              sync.RWMutex
	users           map[string]user.User
	usersByPhone    map[string]string
	usersByEmail    map[string]string
	vehicles        map[string]vehicle.Vehicle
	vehiclesByPlate map[string]string
	accounts        map[string]ledger.Account
	accountsByUser  map[string]string
	transactions    map[string][]ledger.Transaction
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.VehicleStore = (*Store)(nil)
var _ storage.LedgerStore = (*Store)(nil)
var _ storage.RegistrationStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		users:           make(map[string]user.User),
		usersByPhone:    make(map[string]string),
		usersByEmail:    make(map[string]string),
		vehicles:        make(map[string]vehicle.Vehicle),
		vehiclesByPlate: make(map[string]string),
		accounts:        make(map[string]ledger.Account),
		accountsByUser:  make(map[string]string),
		transactions:    make(map[string][]ledger.Transaction),
	}
}

// UserStore implementation --------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createUserLocked(u)
}

func (s *Store) createUserLocked(u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	} else if _, exists := s.users[u.ID]; exists {
		return user.User{}, fmt.Errorf("user %s already exists", u.ID)
	}

	phoneKey := strings.TrimSpace(u.Phone)
	emailKey := strings.ToLower(strings.TrimSpace(u.Email))
	if _, exists := s.usersByPhone[phoneKey]; exists {
		return user.User{}, fmt.Errorf("phone %s: %w", u.Phone, user.ErrPhoneInUse)
	}
	if _, exists := s.usersByEmail[emailKey]; exists {
		return user.User{}, fmt.Errorf("email %s: %w", u.Email, user.ErrEmailInUse)
	}

	u.CreatedAt = time.Now().UTC()
	s.users[u.ID] = u
	s.usersByPhone[phoneKey] = u.ID
	s.usersByEmail[emailKey] = u.ID
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", id, user.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByPhone(_ context.Context, phone string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.usersByPhone[strings.TrimSpace(phone)]; ok {
		return s.users[id], nil
	}
	return user.User{}, fmt.Errorf("phone %s: %w", phone, user.ErrNotFound)
}

// VehicleStore implementation -----------------------------------------------

func (s *Store) CreateVehicle(_ context.Context, v vehicle.Vehicle) (vehicle.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createVehicleLocked(v)
}

func (s *Store) createVehicleLocked(v vehicle.Vehicle) (vehicle.Vehicle, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	} else if _, exists := s.vehicles[v.ID]; exists {
		return vehicle.Vehicle{}, fmt.Errorf("vehicle %s already exists", v.ID)
	}

	v.PlateNumber = vehicle.NormalizePlate(v.PlateNumber)
	if _, exists := s.vehiclesByPlate[v.PlateNumber]; exists {
		return vehicle.Vehicle{}, fmt.Errorf("plate %s: %w", v.PlateNumber, vehicle.ErrPlateInUse)
	}

	v.CreatedAt = time.Now().UTC()
	s.vehicles[v.ID] = v
	s.vehiclesByPlate[v.PlateNumber] = v.ID
	return v, nil
}

func (s *Store) GetVehicle(_ context.Context, id string) (vehicle.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vehicles[id]
	if !ok {
		return vehicle.Vehicle{}, fmt.Errorf("vehicle %s: %w", id, vehicle.ErrNotFound)
	}
	return v, nil
}

func (s *Store) GetVehicleByPlate(_ context.Context, plate string) (vehicle.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.vehiclesByPlate[vehicle.NormalizePlate(plate)]; ok {
		return s.vehicles[id], nil
	}
	return vehicle.Vehicle{}, fmt.Errorf("plate %s: %w", plate, vehicle.ErrNotFound)
}

func (s *Store) ListVehicles(_ context.Context, userID string) ([]vehicle.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]vehicle.Vehicle, 0)
	for _, v := range s.vehicles {
		if userID == "" || v.UserID == userID {
			result = append(result, v)
		}
	}
	return result, nil
}

// LedgerStore implementation ------------------------------------------------

func (s *Store) CreateAccount(_ context.Context, acct ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createAccountLocked(acct)
}

func (s *Store) createAccountLocked(acct ledger.Account) (ledger.Account, error) {
	if acct.ID == "" {
		acct.ID = uuid.NewString()
	} else if _, exists := s.accounts[acct.ID]; exists {
		return ledger.Account{}, fmt.Errorf("account %s already exists", acct.ID)
	}
	if existing, exists := s.accountsByUser[acct.UserID]; exists {
		return ledger.Account{}, fmt.Errorf("user %s already owns account %s", acct.UserID, existing)
	}

	now := time.Now().UTC()
	acct.CreatedAt = now
	acct.UpdatedAt = now

	s.accounts[acct.ID] = acct
	s.accountsByUser[acct.UserID] = acct.ID
	return acct, nil
}

func (s *Store) GetAccount(_ context.Context, id string) (ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[id]
	if !ok {
		return ledger.Account{}, fmt.Errorf("account %s: %w", id, ledger.ErrAccountNotFound)
	}
	return acct, nil
}

func (s *Store) GetAccountByUser(_ context.Context, userID string) (ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.accountsByUser[userID]; ok {
		return s.accounts[id], nil
	}
	return ledger.Account{}, fmt.Errorf("user %s: %w", userID, ledger.ErrAccountNotFound)
}

func (s *Store) Debit(_ context.Context, accountID string, amount int64) (ledger.Account, ledger.Transaction, error) {
	if err := ledger.ValidateAmount(amount); err != nil {
		return ledger.Account{}, ledger.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[accountID]
	if !ok {
		return ledger.Account{}, ledger.Transaction{}, fmt.Errorf("account %s: %w", accountID, ledger.ErrAccountNotFound)
	}
	if acct.Balance < amount {
		return ledger.Account{}, ledger.Transaction{}, ledger.ErrInsufficientBalance
	}

	updated, tx := s.applyLocked(acct, -amount, ledger.KindDebit)
	return updated, tx, nil
}

func (s *Store) Credit(_ context.Context, accountID string, amount int64) (ledger.Account, ledger.Transaction, error) {
	if err := ledger.ValidateAmount(amount); err != nil {
		return ledger.Account{}, ledger.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[accountID]
	if !ok {
		return ledger.Account{}, ledger.Transaction{}, fmt.Errorf("account %s: %w", accountID, ledger.ErrAccountNotFound)
	}

	updated, tx := s.applyLocked(acct, amount, ledger.KindCredit)
	return updated, tx, nil
}

// applyLocked commits a balance change and its transaction row together.
// Callers hold the write lock and have already validated preconditions.
func (s *Store) applyLocked(acct ledger.Account, signedAmount int64, kind ledger.Kind) (ledger.Account, ledger.Transaction) {
	now := time.Now().UTC()

	acct.Balance += signedAmount
	acct.UpdatedAt = now
	s.accounts[acct.ID] = acct

	tx := ledger.Transaction{
		ID:        uuid.NewString(),
		AccountID: acct.ID,
		Amount:    signedAmount,
		Kind:      kind,
		CreatedAt: now,
	}
	s.transactions[acct.ID] = append(s.transactions[acct.ID], tx)
	return acct, tx
}

func (s *Store) ListTransactions(_ context.Context, accountID string) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]ledger.Transaction(nil), s.transactions[accountID]...), nil
}

// RegistrationStore implementation ------------------------------------------

func (s *Store) CreateRegistration(_ context.Context, u user.User, v vehicle.Vehicle, acct ledger.Account) (user.User, vehicle.Vehicle, ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := s.createUserLocked(u)
	if err != nil {
		return user.User{}, vehicle.Vehicle{}, ledger.Account{}, err
	}

	acct.UserID = created.ID
	createdAcct, err := s.createAccountLocked(acct)
	if err != nil {
		s.rollbackUserLocked(created)
		return user.User{}, vehicle.Vehicle{}, ledger.Account{}, err
	}

	v.UserID = created.ID
	createdVehicle, err := s.createVehicleLocked(v)
	if err != nil {
		s.rollbackAccountLocked(createdAcct)
		s.rollbackUserLocked(created)
		return user.User{}, vehicle.Vehicle{}, ledger.Account{}, err
	}

	return created, createdVehicle, createdAcct, nil
}

func (s *Store) rollbackUserLocked(u user.User) {
	delete(s.users, u.ID)
	delete(s.usersByPhone, strings.TrimSpace(u.Phone))
	delete(s.usersByEmail, strings.ToLower(strings.TrimSpace(u.Email)))
}

func (s *Store) rollbackAccountLocked(acct ledger.Account) {
	delete(s.accounts, acct.ID)
	delete(s.accountsByUser, acct.UserID)
}
