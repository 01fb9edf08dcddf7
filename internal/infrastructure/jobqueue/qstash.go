// Package jobqueue publishes delayed HTTP jobs through Upstash QStash. QStash
// calls back into the internal job routes, forwarding X-Internal-Job-Token.
package jobqueue

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/bilardeando/internal/platform/logging"
	"github.com/riskibarqy/bilardeando/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errTransient = crerr.New("qstash transient failure")

type Config struct {
	BaseURL          string
	Token            string
	TargetBaseURL    string
	Retries          int
	InternalJobToken string
	Timeout          time.Duration
	CircuitBreaker   resilience.CircuitBreakerConfig
}

// Job is one delayed call to TargetBaseURL+Path.
type Job struct {
	Path            string
	Payload         any
	Delay           time.Duration
	DeduplicationID string
}

type Client struct {
	httpClient       *http.Client
	baseURL          string
	token            string
	targetBaseURL    string
	retries          int
	internalJobToken string
	logger           *logging.Logger
	breaker          *resilience.CircuitBreaker
}

func NewClient(cfg Config, logger *logging.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:          strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:            strings.TrimSpace(cfg.Token),
		targetBaseURL:    strings.TrimRight(strings.TrimSpace(cfg.TargetBaseURL), "/"),
		retries:          cfg.Retries,
		internalJobToken: strings.TrimSpace(cfg.InternalJobToken),
		logger:           logger,
		breaker:          resilience.NewCircuitBreaker("qstash", cfg.CircuitBreaker, logger),
	}
}

func (c *Client) Publish(ctx context.Context, job Job) error {
	path := "/" + strings.TrimLeft(strings.TrimSpace(job.Path), "/")
	if path == "/" {
		return crerr.New("job path is required")
	}

	baseURL, err := validateBaseURL(c.baseURL)
	if err != nil {
		return crerr.Wrap(err, "invalid QSTASH_BASE_URL")
	}
	targetBaseURL, err := validateBaseURL(c.targetBaseURL)
	if err != nil {
		return crerr.Wrap(err, "invalid QSTASH_TARGET_BASE_URL")
	}

	targetURL := targetBaseURL + path
	publishURL := baseURL + "/v2/publish/" + targetURL
	payload := job.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := sonic.Marshal(payload)
	if err != nil {
		return crerr.Wrap(err, "marshal job payload")
	}

	headers := c.headers(job)
	preview := curlPreview(publishURL, headers, truncate(string(body), 2048))
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.String("qstash.target_url", targetURL),
			attribute.String("qstash.path", path),
			attribute.String("qstash.curl_preview", preview),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, publishURL, strings.NewReader(string(body)))
	if err != nil {
		return crerr.Wrap(err, "create qstash request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	for _, h := range headers {
		req.Header.Set(h.name, h.value)
	}

	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "qstash circuit breaker rejected request", "error", err)
		return crerr.Wrap(err, "qstash is temporarily unavailable")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		callErr := crerr.Mark(crerr.Wrapf(err, "publish qstash job target_url=%s", targetURL), errTransient)
		c.record(callErr)
		return callErr
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		callErr := crerr.Newf("publish qstash job status=%d target_url=%s body=%s", resp.StatusCode, targetURL, strings.TrimSpace(string(raw)))
		if retryableStatus(resp.StatusCode) {
			callErr = crerr.Mark(callErr, errTransient)
		}
		c.record(callErr)
		c.logger.WarnContext(ctx, "qstash publish failed", "status", resp.StatusCode, "curl_preview", preview)
		return callErr
	}

	c.logger.InfoContext(ctx, "qstash job published",
		"path", path,
		"delay", formatDelay(job.Delay),
		"deduplication_id", job.DeduplicationID,
	)
	c.record(nil)
	return nil
}

type header struct {
	name  string
	value string
}

func (c *Client) headers(job Job) []header {
	out := []header{
		{name: "Content-Type", value: "application/json"},
		{name: "Upstash-Method", value: http.MethodPost},
	}
	if c.retries > 0 {
		out = append(out, header{name: "Upstash-Retries", value: strconv.Itoa(c.retries)})
	}
	if job.Delay > 0 {
		out = append(out, header{name: "Upstash-Delay", value: formatDelay(job.Delay)})
	}
	if id := strings.TrimSpace(job.DeduplicationID); id != "" {
		out = append(out, header{name: "Upstash-Deduplication-Id", value: id})
	}
	if c.internalJobToken != "" {
		out = append(out, header{name: "Upstash-Forward-X-Internal-Job-Token", value: c.internalJobToken})
	}
	return out
}

func (c *Client) record(err error) {
	c.breaker.Record(err != nil && crerr.Is(err, errTransient))
}

func formatDelay(delay time.Duration) string {
	seconds := int(delay.Round(time.Second).Seconds())
	if seconds < 0 {
		seconds = 0
	}
	return strconv.Itoa(seconds) + "s"
}

func validateBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}
	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q", candidate, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}
	return strings.TrimRight(candidate, "/"), nil
}

// curlPreview renders the request for logs with secrets masked.
func curlPreview(publishURL string, headers []header, body string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("curl -X POST ")
	_, _ = buf.WriteString(shellQuote(publishURL))
	_, _ = buf.WriteString(" -H 'Authorization: Bearer ***'")
	for _, h := range headers {
		value := h.value
		if strings.HasSuffix(h.name, "Internal-Job-Token") {
			value = "***"
		}
		_, _ = buf.WriteString(" -H ")
		_, _ = buf.WriteString(shellQuote(h.name + ": " + value))
	}
	_, _ = buf.WriteString(" -d ")
	_, _ = buf.WriteString(shellQuote(body))
	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}

func retryableStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError
}

// IsTransient reports whether a publish error is worth retrying.
func IsTransient(err error) bool {
	return err != nil && crerr.Is(err, errTransient)
}
