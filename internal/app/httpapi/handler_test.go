package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	app "github.com/fueltag-io/fueltag/internal/app"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	application, err := app.New(app.Stores{}, nil)
	if err != nil {
		t.Fatalf("build application: %v", err)
	}
	srv := httptest.NewServer(NewHandler(application))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, rawURL string, payload any, out any) int {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}
	req, err := http.NewRequest(method, rawURL, &body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, rawURL, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

type registrationBody struct {
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	Vehicle struct {
		ID          string `json:"id"`
		PlateNumber string `json:"plateNumber"`
	} `json:"vehicle"`
	Account struct {
		ID      string `json:"id"`
		Balance int64  `json:"balance"`
	} `json:"account"`
	Token string `json:"token"`
}

func register(t *testing.T, srv *httptest.Server) registrationBody {
	t.Helper()
	var reg registrationBody
	status := doJSON(t, http.MethodPost, srv.URL+"/registrations", map[string]string{
		"name":        "Asha Rao",
		"phone":       "9876543210",
		"email":       "asha@example.com",
		"plateNumber": "ka-05-mn-7788",
		"vehicleType": "car",
		"fuelType":    "petrol",
	}, &reg)
	if status != http.StatusCreated {
		t.Fatalf("register: status %d", status)
	}
	return reg
}

func TestPumpLifecycle(t *testing.T) {
	srv := newTestServer(t)
	reg := register(t, srv)

	if reg.Vehicle.PlateNumber != "KA-05-MN-7788" {
		t.Fatalf("plate not normalized: %q", reg.Vehicle.PlateNumber)
	}
	if reg.Token == "" {
		t.Fatal("registration returned no token")
	}

	// Load money.
	var topup struct {
		Balance        int64  `json:"balance"`
		BalanceDecimal string `json:"balanceDecimal"`
	}
	status := doJSON(t, http.MethodPost, srv.URL+"/accounts/"+reg.Account.ID+"/topup",
		map[string]string{"amount": "500.00"}, &topup)
	if status != http.StatusOK {
		t.Fatalf("topup: status %d", status)
	}
	if topup.Balance != 50000 || topup.BalanceDecimal != "500.00" {
		t.Fatalf("unexpected topup response: %+v", topup)
	}

	// Scan the sticker at the pump.
	var snap struct {
		AccountID      string `json:"accountId"`
		Balance        int64  `json:"balance"`
		BalanceDecimal string `json:"balanceDecimal"`
		OwnerName      string `json:"ownerName"`
	}
	status = doJSON(t, http.MethodPost, srv.URL+"/resolve/token",
		map[string]string{"token": reg.Token}, &snap)
	if status != http.StatusOK {
		t.Fatalf("resolve token: status %d", status)
	}
	if snap.AccountID != reg.Account.ID || snap.Balance != 50000 || snap.OwnerName != "Asha Rao" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	// Charge the fill-up.
	var receipt struct {
		Kind           string `json:"kind"`
		Amount         int64  `json:"amount"`
		Balance        int64  `json:"balance"`
		AmountDecimal  string `json:"amountDecimal"`
		BalanceDecimal string `json:"balanceDecimal"`
	}
	status = doJSON(t, http.MethodPost, srv.URL+"/accounts/"+reg.Account.ID+"/pay",
		map[string]string{"amount": "150.50"}, &receipt)
	if status != http.StatusOK {
		t.Fatalf("pay: status %d", status)
	}
	if receipt.Kind != "DEBIT" || receipt.Amount != 15050 || receipt.Balance != 34950 {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if receipt.AmountDecimal != "150.50" || receipt.BalanceDecimal != "349.50" {
		t.Fatalf("unexpected decimal rendering: %+v", receipt)
	}

	// History shows both movements, signed.
	var txs []struct {
		Amount int64  `json:"amount"`
		Kind   string `json:"kind"`
	}
	status = doJSON(t, http.MethodGet, srv.URL+"/accounts/"+reg.Account.ID+"/transactions", nil, &txs)
	if status != http.StatusOK {
		t.Fatalf("transactions: status %d", status)
	}
	if len(txs) != 2 || txs[0].Amount != 50000 || txs[1].Amount != -15050 {
		t.Fatalf("unexpected history: %+v", txs)
	}
}

func TestPayInsufficientBalanceReturnsConflict(t *testing.T) {
	srv := newTestServer(t)
	reg := register(t, srv)

	status := doJSON(t, http.MethodPost, srv.URL+"/accounts/"+reg.Account.ID+"/topup",
		map[string]string{"amount": "100.00"}, nil)
	if status != http.StatusOK {
		t.Fatalf("topup: status %d", status)
	}

	var errBody struct {
		Error string `json:"error"`
	}
	status = doJSON(t, http.MethodPost, srv.URL+"/accounts/"+reg.Account.ID+"/pay",
		map[string]string{"amount": "400.00"}, &errBody)
	if status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
	if errBody.Error == "" {
		t.Fatal("error body missing")
	}

	// Balance untouched.
	var bal struct {
		Balance int64 `json:"balance"`
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/accounts/"+reg.Account.ID+"/balance", nil, &bal); status != http.StatusOK {
		t.Fatalf("balance: status %d", status)
	}
	if bal.Balance != 10000 {
		t.Fatalf("failed payment moved the balance: %d", bal.Balance)
	}
}

func TestAmountValidationAtTheBoundary(t *testing.T) {
	srv := newTestServer(t)
	reg := register(t, srv)

	for name, amount := range map[string]string{
		"zero":     "0",
		"negative": "-10.00",
		"sub-cent": "1.005",
	} {
		status := doJSON(t, http.MethodPost, srv.URL+"/accounts/"+reg.Account.ID+"/topup",
			map[string]string{"amount": amount}, nil)
		if status != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, status)
		}
	}
}

func TestResolvePlateAndErrors(t *testing.T) {
	srv := newTestServer(t)
	reg := register(t, srv)

	var snap struct {
		VehicleID string `json:"vehicleId"`
	}
	rawURL := srv.URL + "/resolve/plate?plate=" + url.QueryEscape("ka-05-mn-7788")
	if status := doJSON(t, http.MethodGet, rawURL, nil, &snap); status != http.StatusOK {
		t.Fatalf("resolve plate: status %d", status)
	}
	if snap.VehicleID != reg.Vehicle.ID {
		t.Fatalf("resolved wrong vehicle: %+v", snap)
	}

	if status := doJSON(t, http.MethodGet, srv.URL+"/resolve/plate?plate=KA-99-ZZ-9999", nil, nil); status != http.StatusNotFound {
		t.Fatalf("unknown plate: expected 404, got %d", status)
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/resolve/plate", nil, nil); status != http.StatusBadRequest {
		t.Fatalf("missing plate: expected 400, got %d", status)
	}
	if status := doJSON(t, http.MethodPost, srv.URL+"/resolve/token", map[string]string{"token": "junk"}, nil); status != http.StatusBadRequest {
		t.Fatalf("bad token: expected 400, got %d", status)
	}
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv)

	status := doJSON(t, http.MethodPost, srv.URL+"/registrations", map[string]string{
		"name":        "Someone Else",
		"phone":       "9000011111",
		"email":       "someone@example.com",
		"plateNumber": "KA-05-MN-7788",
		"vehicleType": "car",
		"fuelType":    "diesel",
	}, nil)
	if status != http.StatusConflict {
		t.Fatalf("duplicate plate: expected 409, got %d", status)
	}
}

func TestAddVehicleAndReprintCard(t *testing.T) {
	srv := newTestServer(t)
	reg := register(t, srv)

	var card struct {
		Vehicle struct {
			ID string `json:"id"`
		} `json:"vehicle"`
		Token string `json:"token"`
	}
	status := doJSON(t, http.MethodPost, srv.URL+"/registrations/"+reg.User.ID+"/vehicles",
		map[string]string{"plateNumber": "KA-05-ZZ-0001", "vehicleType": "bike", "fuelType": "petrol"}, &card)
	if status != http.StatusCreated {
		t.Fatalf("add vehicle: status %d", status)
	}

	var reprint struct {
		Token string `json:"token"`
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/vehicles/"+card.Vehicle.ID, nil, &reprint); status != http.StatusOK {
		t.Fatalf("card: status %d", status)
	}
	if reprint.Token != card.Token {
		t.Fatalf("reprinted token differs")
	}
}

func TestUnknownAccountReturnsNotFound(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"balance", "transactions"} {
		if status := doJSON(t, http.MethodGet, fmt.Sprintf("%s/accounts/missing/%s", srv.URL, path), nil, nil); status != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, status)
		}
	}
	if status := doJSON(t, http.MethodPost, srv.URL+"/accounts/missing/pay",
		map[string]string{"amount": "10.00"}, nil); status != http.StatusNotFound {
		t.Fatalf("pay: expected 404")
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	var body map[string]string
	if status := doJSON(t, http.MethodGet, srv.URL+"/healthz", nil, &body); status != http.StatusOK {
		t.Fatalf("healthz: status %d", status)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected health body: %v", body)
	}
}
