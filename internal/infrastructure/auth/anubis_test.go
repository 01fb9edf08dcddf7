package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/bilardeando/internal/platform/resilience"
	"github.com/riskibarqy/bilardeando/internal/usecase"
)

func newAnubisServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestAnubisVerifier_SendsAdminKeyAndParsesResponse(t *testing.T) {
	srv := newAnubisServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/auth/introspect" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("x-admin-key"); got != "admin-secret" {
			t.Errorf("unexpected x-admin-key: %s", got)
		}
		var req introspectRequest
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil || req.Token != "token-abc" {
			t.Errorf("unexpected request body %+v err=%v", req, err)
		}
		_, _ = w.Write([]byte(`{"active":true,"user_id":"user-123","email":"lio@example.com","name":"Lio"}`))
	})

	v := NewAnubisVerifier(AnubisConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		IntrospectPath: "v1/auth/introspect",
		AdminKey:       "admin-secret",
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	}, nil)

	principal, err := v.VerifyAccessToken(t.Context(), "token-abc")
	if err != nil {
		t.Fatalf("verify token failed: %v", err)
	}
	if principal.UserID != "user-123" || principal.Email != "lio@example.com" || principal.Name != "Lio" {
		t.Fatalf("unexpected principal %+v", principal)
	}
}

func TestAnubisVerifier_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "inactive token", status: http.StatusOK, body: `{"active":false}`, wantErr: usecase.ErrUnauthorized},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{}`, wantErr: usecase.ErrUnauthorized},
		{name: "forbidden admin key", status: http.StatusForbidden, body: `{}`, wantErr: usecase.ErrDependencyUnavailable},
		{name: "server error", status: http.StatusBadGateway, body: `{}`, wantErr: usecase.ErrDependencyUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newAnubisServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			v := NewAnubisVerifier(AnubisConfig{
				HTTPClient:     srv.Client(),
				BaseURL:        srv.URL,
				IntrospectPath: "/introspect",
				CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
			}, nil)

			_, err := v.VerifyAccessToken(t.Context(), "tok")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestAnubisVerifier_CachesActivePrincipals(t *testing.T) {
	var calls atomic.Int32
	srv := newAnubisServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"active":true,"user_id":"user-1"}`))
	})
	v := NewAnubisVerifier(AnubisConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		IntrospectPath: "/introspect",
		CacheTTL:       time.Minute,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	}, nil)

	for i := 0; i < 3; i++ {
		if _, err := v.VerifyAccessToken(t.Context(), "tok"); err != nil {
			t.Fatalf("verify: %v", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 introspection call, got %d", got)
	}
}
