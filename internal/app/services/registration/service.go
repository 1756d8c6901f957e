// Package registration onboards a fund owner together with their first
// vehicle and a zero-balance account, then issues the scannable token that
// pump operators use to charge the account.
package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fueltag-io/fueltag/internal/app/domain/ledger"
	"github.com/fueltag-io/fueltag/internal/app/domain/token"
	"github.com/fueltag-io/fueltag/internal/app/domain/user"
	"github.com/fueltag-io/fueltag/internal/app/domain/vehicle"
	"github.com/fueltag-io/fueltag/internal/app/storage"
	"github.com/fueltag-io/fueltag/pkg/logger"
)

// ErrInvalidInput marks registration requests that fail field validation.
var ErrInvalidInput = errors.New("invalid registration input")

// RegisterInput carries everything needed to onboard a new owner.
type RegisterInput struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	PlateNumber string `json:"plateNumber"`
	VehicleType string `json:"vehicleType"`
	FuelType    string `json:"fuelType"`
}

// VehicleInput adds one more vehicle to an existing owner.
type VehicleInput struct {
	PlateNumber string `json:"plateNumber"`
	VehicleType string `json:"vehicleType"`
	FuelType    string `json:"fuelType"`
}

// Registration is the result of a successful onboarding. Token is the JSON
// payload to embed in the vehicle's QR sticker.
type Registration struct {
	User    user.User       `json:"user"`
	Vehicle vehicle.Vehicle `json:"vehicle"`
	Account ledger.Account  `json:"account"`
	Token   string          `json:"token"`
}

// VehicleCard pairs a vehicle with its scannable token so a lost sticker can
// be reprinted at any time.
type VehicleCard struct {
	Vehicle vehicle.Vehicle `json:"vehicle"`
	Token   string          `json:"token"`
}

// Stores groups the persistence dependencies of the service.
type Stores struct {
	Users         storage.UserStore
	Vehicles      storage.VehicleStore
	Ledger        storage.LedgerStore
	Registrations storage.RegistrationStore
}

// Service coordinates owner onboarding and vehicle issuance.
type Service struct {
	stores Stores
	log    *logger.Logger
}

// New creates a registration service.
func New(stores Stores, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("registration")
	}
	return &Service{stores: stores, log: log}
}

// Register creates the user, their account, and their first vehicle in one
// unit of work, then issues the vehicle token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Registration, error) {
	if err := validateRegisterInput(in); err != nil {
		return Registration{}, err
	}

	u := user.User{
		Name:  strings.TrimSpace(in.Name),
		Phone: strings.TrimSpace(in.Phone),
		Email: strings.ToLower(strings.TrimSpace(in.Email)),
	}
	v := vehicle.Vehicle{
		PlateNumber: in.PlateNumber,
		VehicleType: strings.TrimSpace(in.VehicleType),
		FuelType:    strings.TrimSpace(in.FuelType),
	}

	createdUser, createdVehicle, acct, err := s.stores.Registrations.CreateRegistration(ctx, u, v, ledger.Account{})
	if err != nil {
		return Registration{}, fmt.Errorf("create registration: %w", err)
	}

	tok, err := issueToken(createdVehicle, acct.ID)
	if err != nil {
		return Registration{}, err
	}

	s.log.WithField("user_id", createdUser.ID).Infof("registered owner with vehicle %s", createdVehicle.PlateNumber)
	return Registration{User: createdUser, Vehicle: createdVehicle, Account: acct, Token: tok}, nil
}

// AddVehicle attaches another vehicle to an existing owner's account and
// issues its token. All of an owner's vehicles draw from the same balance.
func (s *Service) AddVehicle(ctx context.Context, userID string, in VehicleInput) (VehicleCard, error) {
	if err := validateVehicleInput(in); err != nil {
		return VehicleCard{}, err
	}

	owner, err := s.stores.Users.GetUser(ctx, userID)
	if err != nil {
		return VehicleCard{}, err
	}
	acct, err := s.stores.Ledger.GetAccountByUser(ctx, owner.ID)
	if err != nil {
		return VehicleCard{}, err
	}

	created, err := s.stores.Vehicles.CreateVehicle(ctx, vehicle.Vehicle{
		UserID:      owner.ID,
		PlateNumber: in.PlateNumber,
		VehicleType: strings.TrimSpace(in.VehicleType),
		FuelType:    strings.TrimSpace(in.FuelType),
	})
	if err != nil {
		return VehicleCard{}, fmt.Errorf("create vehicle: %w", err)
	}

	tok, err := issueToken(created, acct.ID)
	if err != nil {
		return VehicleCard{}, err
	}

	s.log.WithField("user_id", owner.ID).Infof("added vehicle %s", created.PlateNumber)
	return VehicleCard{Vehicle: created, Token: tok}, nil
}

// Card rebuilds the token for an existing vehicle.
func (s *Service) Card(ctx context.Context, vehicleID string) (VehicleCard, error) {
	v, err := s.stores.Vehicles.GetVehicle(ctx, vehicleID)
	if err != nil {
		return VehicleCard{}, err
	}
	acct, err := s.stores.Ledger.GetAccountByUser(ctx, v.UserID)
	if err != nil {
		return VehicleCard{}, err
	}
	tok, err := issueToken(v, acct.ID)
	if err != nil {
		return VehicleCard{}, err
	}
	return VehicleCard{Vehicle: v, Token: tok}, nil
}

func issueToken(v vehicle.Vehicle, accountID string) (string, error) {
	data, err := token.Encode(token.Record{
		VehicleID:     v.ID,
		VehicleNumber: v.PlateNumber,
		VehicleType:   v.VehicleType,
		FuelType:      v.FuelType,
		AccountID:     accountID,
	})
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return string(data), nil
}

func validateRegisterInput(in RegisterInput) error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"name", in.Name},
		{"phone", in.Phone},
		{"email", in.Email},
	} {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, field.name)
		}
	}
	if !strings.Contains(in.Email, "@") {
		return fmt.Errorf("%w: email is malformed", ErrInvalidInput)
	}
	return validateVehicleInput(VehicleInput{
		PlateNumber: in.PlateNumber,
		VehicleType: in.VehicleType,
		FuelType:    in.FuelType,
	})
}

func validateVehicleInput(in VehicleInput) error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"plateNumber", in.PlateNumber},
		{"vehicleType", in.VehicleType},
		{"fuelType", in.FuelType},
	} {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, field.name)
		}
	}
	return nil
}
