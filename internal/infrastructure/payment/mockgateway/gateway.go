// Package mockgateway is the payment.Gateway used in development: links point
// back at the API's mock completion route instead of a real checkout.
package mockgateway

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/bilardeando/internal/domain/payment"
	"github.com/riskibarqy/bilardeando/internal/platform/logging"
)

const completionPath = "/v1/webhooks/payments/mock"

type Gateway struct {
	mu       sync.RWMutex
	baseURL  string
	payments map[string]payment.Payment
	logger   *logging.Logger
	now      func() time.Time
}

func New(baseURL string, logger *logging.Logger) *Gateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &Gateway{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		payments: make(map[string]payment.Payment),
		logger:   logger,
		now:      time.Now,
	}
}

func (g *Gateway) CreatePaymentLink(ctx context.Context, req payment.LinkRequest) (payment.Link, error) {
	prefID := payment.MockPreferenceID(g.now().UnixMilli(), req.ExternalReference)

	query := url.Values{}
	query.Set("pref", prefID)
	query.Set("redirect", redirectPath(req.BackURLs.Success))

	g.logger.InfoContext(ctx, "mock payment link created", "preference_id", prefID)
	return payment.Link{
		PreferenceID: prefID,
		InitPoint:    g.baseURL + completionPath + "?" + query.Encode(),
	}, nil
}

// GetPayment reports mock payments as approved. Ids not issued by this
// gateway are unknown.
func (g *Gateway) GetPayment(_ context.Context, paymentID string) (payment.Payment, error) {
	g.mu.RLock()
	p, ok := g.payments[paymentID]
	g.mu.RUnlock()
	if ok {
		return p, nil
	}
	if strings.HasPrefix(paymentID, "mock_pay_") {
		return payment.Payment{ID: paymentID, Status: payment.StatusApproved}, nil
	}
	return payment.Payment{}, payment.ErrPaymentNotFound
}

// Record registers a payment outcome, letting tests drive webhooks.
func (g *Gateway) Record(p payment.Payment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[p.ID] = p
}

// redirectPath keeps only the path of the success URL so the completion
// route never redirects off-site.
func redirectPath(successURL string) string {
	parsed, err := url.Parse(successURL)
	if err != nil || parsed.Path == "" {
		return "/wallet"
	}
	return parsed.Path
}
