// Package auth turns bearer tokens into user principals, either through the
// Anubis introspection service or by verifying a signed JWT locally.
package auth

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/bilardeando/internal/domain/user"
	"github.com/riskibarqy/bilardeando/internal/platform/cache"
	"github.com/riskibarqy/bilardeando/internal/platform/logging"
	"github.com/riskibarqy/bilardeando/internal/platform/resilience"
	"github.com/riskibarqy/bilardeando/internal/usecase"
)

var errAnubisTransient = crerr.New("anubis transient failure")

type AnubisConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	IntrospectPath string
	AdminKey       string
	CacheTTL       time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// AnubisVerifier introspects tokens remotely. Active principals are cached
// by token hash for CacheTTL.
type AnubisVerifier struct {
	httpClient    *http.Client
	introspectURL string
	adminKey      string
	cache         *cache.Store
	logger        *logging.Logger
	breaker       *resilience.CircuitBreaker
}

func NewAnubisVerifier(cfg AnubisConfig, logger *logging.Logger) *AnubisVerifier {
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	var principalCache *cache.Store
	if cfg.CacheTTL > 0 {
		principalCache = cache.NewStore(cfg.CacheTTL)
	}

	return &AnubisVerifier{
		httpClient:    httpClient,
		introspectURL: buildURL(cfg.BaseURL, cfg.IntrospectPath),
		adminKey:      strings.TrimSpace(cfg.AdminKey),
		cache:         principalCache,
		logger:        logger,
		breaker:       resilience.NewCircuitBreaker("anubis", cfg.CircuitBreaker, logger),
	}
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active bool   `json:"active"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

func (v *AnubisVerifier) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	if v.cache == nil {
		return v.introspect(ctx, token)
	}
	return cache.Load(ctx, v.cache, "principal:"+hashToken(token), func(ctx context.Context) (user.Principal, error) {
		return v.introspect(ctx, token)
	})
}

func (v *AnubisVerifier) introspect(ctx context.Context, token string) (user.Principal, error) {
	if err := v.breaker.Allow(); err != nil {
		v.logger.WarnContext(ctx, "anubis circuit breaker rejected request", "error", err)
		return user.Principal{}, fmt.Errorf("%w: auth service is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}

	principal, err := v.doIntrospect(ctx, token)
	transient := err != nil && crerr.Is(err, errAnubisTransient)
	v.breaker.Record(transient)
	if transient {
		return user.Principal{}, fmt.Errorf("%w: %w", usecase.ErrDependencyUnavailable, err)
	}
	return principal, err
}

func (v *AnubisVerifier) doIntrospect(ctx context.Context, token string) (user.Principal, error) {
	encoded, err := sonic.Marshal(introspectRequest{Token: token})
	if err != nil {
		return user.Principal{}, crerr.Wrap(err, "marshal introspect request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.introspectURL, bytes.NewReader(encoded))
	if err != nil {
		return user.Principal{}, crerr.Wrap(err, "create introspect request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if v.adminKey != "" {
		req.Header.Set("x-admin-key", v.adminKey)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return user.Principal{}, crerr.Mark(crerr.Wrap(err, "request introspection"), errAnubisTransient)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return user.Principal{}, crerr.Mark(crerr.Wrap(err, "read introspect response"), errAnubisTransient)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return user.Principal{}, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	case resp.StatusCode == http.StatusForbidden:
		// A forbidden introspection means our admin key is wrong, not the token.
		v.logger.ErrorContext(ctx, "anubis rejected admin key", "status_code", resp.StatusCode)
		return user.Principal{}, crerr.Mark(crerr.New("anubis introspection forbidden"), errAnubisTransient)
	case resp.StatusCode != http.StatusOK:
		v.logger.WarnContext(ctx, "anubis introspection non-200", "status_code", resp.StatusCode)
		return user.Principal{}, crerr.Mark(crerr.Newf("anubis introspection status=%d", resp.StatusCode), errAnubisTransient)
	}

	var decoded introspectResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return user.Principal{}, crerr.Wrap(err, "decode introspect response")
	}
	if !decoded.Active {
		return user.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}
	if strings.TrimSpace(decoded.UserID) == "" {
		return user.Principal{}, fmt.Errorf("%w: introspection returned no user", usecase.ErrUnauthorized)
	}

	return user.Principal{
		UserID: decoded.UserID,
		Email:  decoded.Email,
		Name:   decoded.Name,
	}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func buildURL(baseURL, path string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	path = strings.TrimSpace(path)
	if path == "" {
		return baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return baseURL + path
}
