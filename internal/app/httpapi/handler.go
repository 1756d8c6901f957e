// Package httpapi exposes the REST surface of the fuel-payment service.
// Monetary amounts cross the wire as decimal currency strings ("150.00") and
// are converted to integer minor units at this boundary; everything below it
// works in minor units only.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	app "github.com/fueltag-io/fueltag/internal/app"
	"github.com/fueltag-io/fueltag/internal/app/domain/ledger"
	"github.com/fueltag-io/fueltag/internal/app/domain/token"
	"github.com/fueltag-io/fueltag/internal/app/domain/user"
	"github.com/fueltag-io/fueltag/internal/app/domain/vehicle"
	"github.com/fueltag-io/fueltag/internal/app/metrics"
	"github.com/fueltag-io/fueltag/internal/app/services/payments"
	"github.com/fueltag-io/fueltag/internal/app/services/registration"
	"github.com/fueltag-io/fueltag/internal/app/services/resolver"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns the instrumented mux exposing the core REST API.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}
	mux := http.NewServeMux()
	mux.HandleFunc("/registrations", h.registrations)
	mux.HandleFunc("/registrations/", h.registrationResources)
	mux.HandleFunc("/vehicles/", h.vehicles)
	mux.HandleFunc("/resolve/", h.resolve)
	mux.HandleFunc("/accounts/", h.accountResources)
	mux.HandleFunc("/healthz", h.health)
	mux.Handle("/metrics", metrics.Handler())
	return metrics.InstrumentHandler(mux)
}

func (h *handler) registrations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var payload registration.RegisterInput
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	reg, err := h.app.Registration.Register(r.Context(), payload)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

func (h *handler) registrationResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/registrations"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "vehicles" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var payload registration.VehicleInput
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	card, err := h.app.Registration.AddVehicle(r.Context(), parts[0], payload)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

func (h *handler) vehicles(w http.ResponseWriter, r *http.Request) {
	vehicleID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/vehicles"), "/")
	if vehicleID == "" || strings.Contains(vehicleID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	card, err := h.app.Registration.Card(r.Context(), vehicleID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *handler) resolve(w http.ResponseWriter, r *http.Request) {
	mode := strings.Trim(strings.TrimPrefix(r.URL.Path, "/resolve"), "/")
	switch mode {
	case "token":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var payload struct {
			Token string `json:"token"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		snap, err := h.app.Resolver.ResolveToken(r.Context(), []byte(payload.Token))
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, snapshotResponse(snap))

	case "plate":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		plate := r.URL.Query().Get("plate")
		if strings.TrimSpace(plate) == "" {
			writeError(w, http.StatusBadRequest, fmt.Errorf("plate query parameter is required"))
			return
		}
		snap, err := h.app.Resolver.ResolvePlate(r.Context(), plate)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, snapshotResponse(snap))

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *handler) accountResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/accounts"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	accountID := parts[0]

	switch parts[1] {
	case "pay":
		h.charge(w, r, accountID, ledger.KindDebit)
	case "topup":
		h.charge(w, r, accountID, ledger.KindCredit)
	case "balance":
		h.balance(w, r, accountID)
	case "transactions":
		h.transactions(w, r, accountID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *handler) charge(w http.ResponseWriter, r *http.Request, accountID string, kind ledger.Kind) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := toMinorUnits(payload.Amount)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	var receipt payments.Receipt
	if kind == ledger.KindDebit {
		receipt, err = h.app.Payments.Pay(r.Context(), accountID, amount)
	} else {
		receipt, err = h.app.Payments.TopUp(r.Context(), accountID, amount)
	}
	metrics.RecordLedgerOperation(string(kind), amount, err)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, receiptResponse{
		Receipt:        receipt,
		AmountDecimal:  formatMinorUnits(receipt.Amount),
		BalanceDecimal: formatMinorUnits(receipt.Balance),
	})
}

func (h *handler) balance(w http.ResponseWriter, r *http.Request, accountID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	acct, err := h.app.Payments.Balance(r.Context(), accountID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		AccountID      string `json:"accountId"`
		Balance        int64  `json:"balance"`
		BalanceDecimal string `json:"balanceDecimal"`
	}{acct.ID, acct.Balance, formatMinorUnits(acct.Balance)})
}

func (h *handler) transactions(w http.ResponseWriter, r *http.Request, accountID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	txs, err := h.app.Payments.Transactions(r.Context(), accountID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type receiptResponse struct {
	payments.Receipt
	AmountDecimal  string `json:"amountDecimal"`
	BalanceDecimal string `json:"balanceDecimal"`
}

type snapshotView struct {
	AccountID      string `json:"accountId"`
	Balance        int64  `json:"balance"`
	BalanceDecimal string `json:"balanceDecimal"`
	VehicleID      string `json:"vehicleId"`
	VehicleNumber  string `json:"vehicleNumber"`
	VehicleType    string `json:"vehicleType"`
	FuelType       string `json:"fuelType"`
	OwnerName      string `json:"ownerName"`
}

func snapshotResponse(snap resolver.Snapshot) snapshotView {
	return snapshotView{
		AccountID:      snap.AccountID,
		Balance:        snap.Balance,
		BalanceDecimal: formatMinorUnits(snap.Balance),
		VehicleID:      snap.VehicleID,
		VehicleNumber:  snap.VehicleNumber,
		VehicleType:    snap.VehicleType,
		FuelType:       snap.FuelType,
		OwnerName:      snap.OwnerName,
	}
}

// toMinorUnits converts a decimal currency amount into integer minor units.
// Amounts with sub-cent precision are rejected rather than rounded.
func toMinorUnits(d decimal.Decimal) (int64, error) {
	minor := d.Shift(2)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: at most two decimal places", ledger.ErrInvalidAmount)
	}
	return minor.IntPart(), nil
}

func formatMinorUnits(v int64) string {
	return decimal.New(v, -2).StringFixed(2)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, token.ErrInvalidPayload),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, registration.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, vehicle.ErrNotFound),
		errors.Is(err, ledger.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, user.ErrPhoneInUse),
		errors.Is(err, user.ErrEmailInUse),
		errors.Is(err, vehicle.ErrPlateInUse):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
