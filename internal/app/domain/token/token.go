// Package token implements the identity payload carried by a vehicle's QR
// code. Producing or scanning the QR image is a collaborator concern; this
// package owns the schema and its validation.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidPayload reports token bytes that do not parse as the expected
// schema or are missing a required field. Callers branch on it to show a
// user-facing message instead of treating the scan as a system fault.
var ErrInvalidPayload = errors.New("invalid identity payload")

// Record is the structured content of an identity token.
type Record struct {
	VehicleID     string `json:"vehicle_id"`
	VehicleNumber string `json:"vehicle_number"`
	VehicleType   string `json:"vehicle_type"`
	FuelType      string `json:"fuel_type"`
	AccountID     string `json:"account_id"`
}

// Encode serialises a record into token bytes. Encode is deterministic and
// lossless: Decode(Encode(r)) always yields r for a valid record.
func Encode(rec Record) ([]byte, error) {
	if err := validate(rec); err != nil {
		return nil, err
	}
	return json.Marshal(rec)
}

// Decode parses token bytes back into a record. Any malformed input maps to
// ErrInvalidPayload; no other error kind escapes.
func Decode(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := validate(rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func validate(rec Record) error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"vehicle_id", rec.VehicleID},
		{"vehicle_number", rec.VehicleNumber},
		{"vehicle_type", rec.VehicleType},
		{"fuel_type", rec.FuelType},
		{"account_id", rec.AccountID},
	} {
		if field.value == "" {
			return fmt.Errorf("%w: missing %s", ErrInvalidPayload, field.name)
		}
	}
	return nil
}
