package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/riskibarqy/bilardeando/internal/domain/user"
	"github.com/riskibarqy/bilardeando/internal/platform/logging"
)

const (
	requestIDHeader = "X-Request-ID"
	maxRequestIDLen = 64

	logKeyRequestID = "request_id"
	logKeyUserID    = "user_id"
)

type principalKey struct{}

// withPrincipal stores the verified caller and tags later logs with its id.
func withPrincipal(ctx context.Context, p user.Principal) context.Context {
	ctx = logging.ContextWith(ctx, logKeyUserID, p.UserID)
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFromContext(ctx context.Context) (user.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(user.Principal)
	return p, ok
}

// requestID reuses a sane inbound X-Request-ID (e.g. from the load
// balancer) and mints a uuid otherwise.
func requestID(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(requestIDHeader))
	if id == "" || len(id) > maxRequestIDLen || strings.ContainsAny(id, " \t\r\n\"") {
		return uuid.NewString()
	}
	return id
}

func requestIDFromContext(ctx context.Context) string {
	v, _ := logging.ContextValue(ctx, logKeyRequestID)
	id, _ := v.(string)
	return id
}
