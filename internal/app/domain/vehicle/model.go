package vehicle

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("vehicle not found")
	ErrPlateInUse = errors.New("plate number already registered")
)

// Vehicle binds a physical vehicle to its owning user. The plate number is
// globally unique and stored in normalised form.
type Vehicle struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	PlateNumber string    `json:"plate_number"`
	VehicleType string    `json:"vehicle_type"`
	FuelType    string    `json:"fuel_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// NormalizePlate canonicalises a plate number for storage and lookup.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}
