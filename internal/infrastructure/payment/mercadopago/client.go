// Package mercadopago implements payment.Gateway against the Mercado Pago
// Checkout Pro API.
package mercadopago

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/bilardeando/internal/domain/payment"
	"github.com/riskibarqy/bilardeando/internal/platform/logging"
	"github.com/riskibarqy/bilardeando/internal/platform/resilience"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultBaseURL  = "https://api.mercadopago.com"
	defaultCurrency = "ARS"
	maxBodyLog      = 512
)

var errTransient = crerr.New("mercadopago transient failure")

type Config struct {
	BaseURL         string
	AccessToken     string
	NotificationURL string
	Currency        string
	// Sandbox returns the sandbox init point instead of the production one.
	Sandbox        bool
	Timeout        time.Duration
	MaxRetries     int
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	http            *fasthttp.Client
	baseURL         string
	accessToken     string
	notificationURL string
	currency        string
	sandbox         bool
	timeout         time.Duration
	maxRetries      int
	logger          *logging.Logger
	breaker         *resilience.CircuitBreaker
	flight          resilience.SingleFlight[[]byte]
}

func NewClient(cfg Config, logger *logging.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, crerr.New("mercadopago access token is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: &fasthttp.Client{
			Name:         "bilardeando",
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		baseURL:         baseURL,
		accessToken:     strings.TrimSpace(cfg.AccessToken),
		notificationURL: strings.TrimSpace(cfg.NotificationURL),
		currency:        currency,
		sandbox:         cfg.Sandbox,
		timeout:         timeout,
		maxRetries:      max(cfg.MaxRetries, 0),
		logger:          logger,
		breaker:         resilience.NewCircuitBreaker("mercadopago", cfg.CircuitBreaker, logger),
	}, nil
}

type preferenceItem struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	CurrencyID  string  `json:"currency_id"`
}

type preferencePayer struct {
	Email string `json:"email,omitempty"`
}

type preferenceBackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type preferenceRequest struct {
	Items             []preferenceItem   `json:"items"`
	Payer             *preferencePayer   `json:"payer,omitempty"`
	BackURLs          preferenceBackURLs `json:"back_urls"`
	AutoReturn        string             `json:"auto_return,omitempty"`
	ExternalReference string             `json:"external_reference"`
	NotificationURL   string             `json:"notification_url,omitempty"`
}

type preferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

type paymentResponse struct {
	ID                int64  `json:"id"`
	Status            string `json:"status"`
	StatusDetail      string `json:"status_detail"`
	ExternalReference string `json:"external_reference"`
}

func (c *Client) CreatePaymentLink(ctx context.Context, req payment.LinkRequest) (payment.Link, error) {
	unitPrice, _ := req.Amount.Round(2).Float64()
	body := preferenceRequest{
		Items: []preferenceItem{{
			Title:       req.Title,
			Description: req.Description,
			Quantity:    1,
			UnitPrice:   unitPrice,
			CurrencyID:  c.currency,
		}},
		BackURLs: preferenceBackURLs{
			Success: req.BackURLs.Success,
			Failure: req.BackURLs.Failure,
			Pending: req.BackURLs.Pending,
		},
		ExternalReference: req.ExternalReference,
		NotificationURL:   c.notificationURL,
	}
	if req.BackURLs.Success != "" {
		body.AutoReturn = "approved"
	}
	if email := strings.TrimSpace(req.PayerEmail); email != "" {
		body.Payer = &preferencePayer{Email: email}
	}

	payload, err := sonic.Marshal(body)
	if err != nil {
		return payment.Link{}, crerr.Wrap(err, "marshal preference")
	}

	// Creating a preference is not idempotent, so it is never retried.
	raw, err := c.do(ctx, fasthttp.MethodPost, "/checkout/preferences", payload, 0)
	if err != nil {
		return payment.Link{}, crerr.Wrapf(err, "create preference external_reference=%s", req.ExternalReference)
	}

	var out preferenceResponse
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return payment.Link{}, crerr.Wrap(err, "decode preference response")
	}
	if out.ID == "" {
		return payment.Link{}, crerr.New("preference response has no id")
	}

	initPoint := out.InitPoint
	if c.sandbox && out.SandboxInitPoint != "" {
		initPoint = out.SandboxInitPoint
	}
	c.logger.InfoContext(ctx, "mercadopago preference created",
		"preference_id", out.ID,
		"external_reference", req.ExternalReference,
	)
	return payment.Link{PreferenceID: out.ID, InitPoint: initPoint}, nil
}

// GetPayment is deduplicated per id: gateways tend to deliver the same
// notification several times at once.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (payment.Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return payment.Payment{}, crerr.New("payment id is required")
	}

	raw, _, err := c.flight.Do("payment:"+paymentID, func() ([]byte, error) {
		return c.do(ctx, fasthttp.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, c.maxRetries)
	})
	if err != nil {
		return payment.Payment{}, crerr.Wrapf(err, "get payment id=%s", paymentID)
	}

	var res paymentResponse
	if err := sonic.Unmarshal(raw, &res); err != nil {
		return payment.Payment{}, crerr.Wrap(err, "decode payment response")
	}

	return payment.Payment{
		ID:                strconv.FormatInt(res.ID, 10),
		Status:            payment.NormalizeStatus(res.Status),
		ExternalReference: res.ExternalReference,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, retries int) ([]byte, error) {
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "mercadopago circuit breaker rejected request", "error", err)
		return nil, crerr.Wrap(err, "mercadopago is temporarily unavailable")
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.String("mercadopago.method", method),
			attribute.String("mercadopago.path", path),
		)
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		raw, err := c.execute(ctx, method, path, body)
		if err == nil {
			c.record(nil)
			return raw, nil
		}
		lastErr = err
		if !crerr.Is(err, errTransient) || attempt == retries {
			break
		}

		timer := time.NewTimer(time.Duration(attempt+1) * 500 * time.Millisecond)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.record(lastErr)
	return nil, lastErr
}

func (c *Client) execute(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+c.accessToken)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBodyRaw(body)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return nil, crerr.Mark(crerr.Wrapf(err, "send %s %s", method, path), errTransient)
	}

	status := resp.StatusCode()
	raw := append([]byte(nil), resp.Body()...)
	switch {
	case status >= 200 && status < 300:
		return raw, nil
	case status == fasthttp.StatusNotFound:
		return nil, crerr.Wrapf(payment.ErrPaymentNotFound, "%s %s", method, path)
	case status == fasthttp.StatusTooManyRequests || status >= fasthttp.StatusInternalServerError:
		return nil, crerr.Mark(crerr.Newf("%s %s status=%d body=%s", method, path, status, abbreviate(raw)), errTransient)
	default:
		return nil, crerr.Newf("%s %s status=%d body=%s", method, path, status, abbreviate(raw))
	}
}

func (c *Client) record(err error) {
	c.breaker.Record(err != nil && crerr.Is(err, errTransient))
}

func abbreviate(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) > maxBodyLog {
		return text[:maxBodyLog] + "..."
	}
	return text
}
