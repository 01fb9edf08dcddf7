package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riskibarqy/bilardeando/internal/domain/user"
	"github.com/riskibarqy/bilardeando/internal/usecase"
)

type recordingProvisioner struct {
	seen []string
	err  error
}

func (p *recordingProvisioner) Ensure(_ context.Context, principal user.Principal) (user.Account, error) {
	p.seen = append(p.seen, principal.UserID)
	if p.err != nil {
		return user.Account{}, p.err
	}
	return user.Account{ID: principal.UserID}, nil
}

func TestRequireAuth_ProvisionsAndInjectsPrincipal(t *testing.T) {
	accounts := &recordingProvisioner{}
	var gotUser string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := principalFromContext(r.Context())
		if !ok {
			t.Fatalf("expected principal in context")
		}
		gotUser = p.UserID
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "bearer user-7")
	rec := httptest.NewRecorder()
	RequireAuth(tokenAsUserVerifier{}, accounts, next).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if gotUser != "user-7" {
		t.Fatalf("expected principal user-7, got %q", gotUser)
	}
	if len(accounts.seen) != 1 || accounts.seen[0] != "user-7" {
		t.Fatalf("expected one provisioning call, got %v", accounts.seen)
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		accounts AccountProvisioner
		want     int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer   ", want: http.StatusUnauthorized},
		{name: "verifier rejects", header: "Bearer bad", want: http.StatusUnauthorized},
		{
			name:     "provisioning unavailable",
			header:   "Bearer user-1",
			accounts: &recordingProvisioner{err: usecase.ErrDependencyUnavailable},
			want:     http.StatusServiceUnavailable,
		},
		{
			name:     "provisioning internal error",
			header:   "Bearer user-1",
			accounts: &recordingProvisioner{err: errors.New("disk on fire")},
			want:     http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatalf("next handler must not run")
			})
			req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			RequireAuth(tokenAsUserVerifier{}, tc.accounts, next).ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestRequireInternalJobToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	tests := []struct {
		name       string
		configured string
		provided   string
		want       int
	}{
		{name: "not configured", configured: "", provided: "x", want: http.StatusServiceUnavailable},
		{name: "missing", configured: "secret", provided: "", want: http.StatusUnauthorized},
		{name: "mismatch", configured: "secret", provided: "nope", want: http.StatusUnauthorized},
		{name: "match", configured: "secret", provided: " secret ", want: http.StatusAccepted},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/league-lock", nil)
			if tc.provided != "" {
				req.Header.Set(internalJobTokenHeader, tc.provided)
			}
			rec := httptest.NewRecorder()
			RequireInternalJobToken(tc.configured, next).ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestSafeRedirect(t *testing.T) {
	tests := map[string]string{
		"":                      "/wallet",
		"/leagues/ABC123":       "/leagues/ABC123",
		"//evil.example/x":      "/wallet",
		"https://evil.example":  "/wallet",
		`/\evil.example`:        "/wallet",
		"  /wallet?status=ok  ": "/wallet?status=ok",
	}
	for in, want := range tests {
		if got := safeRedirect(in); got != want {
			t.Fatalf("safeRedirect(%q) = %q, want %q", in, got, want)
		}
	}
}
