package mercadopago

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/riskibarqy/bilardeando/internal/domain/payment"
	"github.com/riskibarqy/bilardeando/internal/platform/resilience"
	"github.com/shopspring/decimal"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, sandbox bool) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		BaseURL:         srv.URL,
		AccessToken:     "test-token",
		NotificationURL: "https://api.bilardeando.test/v1/webhooks/payments",
		Sandbox:         sandbox,
		MaxRetries:      1,
		CircuitBreaker:  resilience.CircuitBreakerConfig{Enabled: false},
	}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClient_RequiresToken(t *testing.T) {
	if _, err := NewClient(Config{}, nil); err == nil {
		t.Fatalf("expected missing token error")
	}
}

func TestCreatePaymentLink(t *testing.T) {
	var body string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/checkout/preferences" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected authorization %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		_, _ = w.Write([]byte(`{"id":"pref-1","init_point":"https://mp/checkout","sandbox_init_point":"https://sandbox.mp/checkout"}`))
	}, true)

	link, err := client.CreatePaymentLink(t.Context(), payment.LinkRequest{
		Title:             "Wallet load - Bilardeando",
		Amount:            decimal.RequireFromString("1050.00"),
		ExternalReference: "tx-1",
		PayerEmail:        "diego@example.com",
		BackURLs:          payment.BackURLs{Success: "https://app/wallet?status=success"},
	})
	if err != nil {
		t.Fatalf("create link: %v", err)
	}
	if link.PreferenceID != "pref-1" || link.InitPoint != "https://sandbox.mp/checkout" {
		t.Fatalf("unexpected link %+v", link)
	}
	for _, fragment := range []string{`"external_reference":"tx-1"`, `"unit_price":1050`, `"currency_id":"ARS"`, `"auto_return":"approved"`, `"email":"diego@example.com"`} {
		if !strings.Contains(body, fragment) {
			t.Fatalf("expected body to contain %s, got %s", fragment, body)
		}
	}
}

func TestGetPayment_NormalizesStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/987" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":987,"status":"authorized","external_reference":"league:lg-1:tx:tx-9"}`))
	}, false)

	p, err := client.GetPayment(t.Context(), "987")
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if p.ID != "987" || p.Status != payment.StatusApproved || p.ExternalReference != "league:lg-1:tx:tx-9" {
		t.Fatalf("unexpected payment %+v", p)
	}
}

func TestGetPayment_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, false)

	if _, err := client.GetPayment(t.Context(), "1"); !errors.Is(err, payment.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestGetPayment_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":5,"status":"rejected"}`))
	}, false)

	p, err := client.GetPayment(t.Context(), "5")
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if p.Status != payment.StatusRejected {
		t.Fatalf("expected rejected, got %s", p.Status)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}
