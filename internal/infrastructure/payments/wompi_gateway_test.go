package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dleon_gold/internal/domain/entities"
	"dleon_gold/internal/infrastructure/config"
	"dleon_gold/internal/usecase/interfaces"
)

func newWompiForTest(t *testing.T, apiURL string) *WompiGateway {
	t.Helper()
	g, err := NewWompiGateway(config.WompiConfig{
		PublicKey:   "pub_test_key",
		PrivateKey:  "prv_test_key",
		APIURL:      apiURL,
		CheckoutURL: "https://checkout.wompi.co",
	}, "https://shop.test/checkout/success", 2*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return g
}

func TestNewWompiGateway_MissingCredentials(t *testing.T) {
	_, err := NewWompiGateway(config.WompiConfig{PublicKey: "pub"}, "https://r", time.Second)
	if !errors.Is(err, ErrMissingWompiCredentials) {
		t.Fatalf("expected ErrMissingWompiCredentials, got %v", err)
	}
}

func TestWompiGateway_CreateTransaction_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transactions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer prv_test_key" {
			t.Fatalf("unexpected authorization: %q", got)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["amount_in_cents"] != float64(11590000) {
			t.Fatalf("unexpected amount: %v", body["amount_in_cents"])
		}
		if body["currency"] != "COP" || body["reference"] != "ord-1" {
			t.Fatalf("unexpected payload: %v", body)
		}
		method := body["payment_method"].(map[string]any)
		if method["type"] != "PSE" {
			t.Fatalf("unexpected payment method type: %v", method["type"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"id": "tx-9", "status": "PENDING"},
		})
	}))
	defer srv.Close()

	g := newWompiForTest(t, srv.URL)
	order := testOrder()
	order.PaymentMethod = entities.PaymentMethodWompi
	order.PaymentChannel = "pse"

	tx, err := g.CreateTransaction(context.Background(), order)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Reference != "tx-9" {
		t.Fatalf("unexpected reference: %q", tx.Reference)
	}
	if tx.RedirectURL != "https://checkout.wompi.co/p/pub_test_key?transaction_id=tx-9" {
		t.Fatalf("unexpected redirect: %q", tx.RedirectURL)
	}
	if tx.Status != entities.OrderStatusAwaitingProvider {
		t.Fatalf("unexpected status: %s", tx.Status)
	}
}

func TestWompiGateway_CreateTransaction_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"type":"INPUT_VALIDATION_ERROR"}}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	g := newWompiForTest(t, srv.URL)
	_, err := g.CreateTransaction(context.Background(), testOrder())
	if !errors.Is(err, interfaces.ErrProviderRejected) {
		t.Fatalf("expected ErrProviderRejected, got %v", err)
	}
}

func TestWompiGateway_CreateTransaction_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := newWompiForTest(t, srv.URL)
	_, err := g.CreateTransaction(context.Background(), testOrder())
	if !errors.Is(err, interfaces.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestWompiGateway_CreateTransaction_MissingTransactionID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{}})
	}))
	defer srv.Close()

	g := newWompiForTest(t, srv.URL)
	_, err := g.CreateTransaction(context.Background(), testOrder())
	if !errors.Is(err, interfaces.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestWompiMethodType(t *testing.T) {
	cases := map[string]string{
		"":      "CARD",
		"card":  "CARD",
		"pse":   "PSE",
		" PSE ": "PSE",
		"nequi": "NEQUI",
		"other": "CARD",
	}
	for in, want := range cases {
		if got := wompiMethodType(in); got != want {
			t.Fatalf("wompiMethodType(%q) = %q, want %q", in, got, want)
		}
	}
}
