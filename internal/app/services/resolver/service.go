// Package resolver answers the pump-side question: given a scanned token, a
// vehicle id, or a plate number typed in by the attendant, which account pays
// and what does its balance look like right now.
package resolver

import (
	"context"

	"github.com/fueltag-io/fueltag/internal/app/domain/token"
	"github.com/fueltag-io/fueltag/internal/app/domain/vehicle"
	"github.com/fueltag-io/fueltag/internal/app/storage"
	"github.com/fueltag-io/fueltag/pkg/logger"
)

// Snapshot is the read model shown at the pump before charging. Balance is in
// minor currency units.
type Snapshot struct {
	AccountID     string `json:"accountId"`
	Balance       int64  `json:"balance"`
	VehicleID     string `json:"vehicleId"`
	VehicleNumber string `json:"vehicleNumber"`
	VehicleType   string `json:"vehicleType"`
	FuelType      string `json:"fuelType"`
	OwnerName     string `json:"ownerName"`
}

// Stores groups the persistence dependencies of the service.
type Stores struct {
	Users    storage.UserStore
	Vehicles storage.VehicleStore
	Ledger   storage.LedgerStore
}

// Service resolves payment identities.
type Service struct {
	stores Stores
	log    *logger.Logger
}

// New creates a resolver service.
func New(stores Stores, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("resolver")
	}
	return &Service{stores: stores, log: log}
}

// ResolveToken decodes a scanned token and resolves the vehicle it names.
// The token's embedded fields are treated as hints only: the snapshot is
// always rebuilt from stored state, so a stale sticker cannot misreport the
// account or balance.
func (s *Service) ResolveToken(ctx context.Context, payload []byte) (Snapshot, error) {
	rec, err := token.Decode(payload)
	if err != nil {
		return Snapshot{}, err
	}
	return s.ResolveVehicle(ctx, rec.VehicleID)
}

// ResolveVehicle builds a snapshot from a vehicle id.
func (s *Service) ResolveVehicle(ctx context.Context, vehicleID string) (Snapshot, error) {
	v, err := s.stores.Vehicles.GetVehicle(ctx, vehicleID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(ctx, v)
}

// ResolvePlate builds a snapshot from a plate number, for pumps where the
// sticker is unreadable and the attendant types the plate instead.
func (s *Service) ResolvePlate(ctx context.Context, plate string) (Snapshot, error) {
	v, err := s.stores.Vehicles.GetVehicleByPlate(ctx, plate)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(ctx, v)
}

func (s *Service) snapshot(ctx context.Context, v vehicle.Vehicle) (Snapshot, error) {
	owner, err := s.stores.Users.GetUser(ctx, v.UserID)
	if err != nil {
		return Snapshot{}, err
	}
	acct, err := s.stores.Ledger.GetAccountByUser(ctx, v.UserID)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		AccountID:     acct.ID,
		Balance:       acct.Balance,
		VehicleID:     v.ID,
		VehicleNumber: v.PlateNumber,
		VehicleType:   v.VehicleType,
		FuelType:      v.FuelType,
		OwnerName:     owner.Name,
	}, nil
}
