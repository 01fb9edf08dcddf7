package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/bilardeando/internal/usecase"
)

const defaultMockRedirect = "/wallet"

type webhookAckDTO struct {
	Received bool `json:"received"`
}

// PaymentWebhook acknowledges every notification with 200 so the provider
// stops retrying; reconciliation failures are only logged.
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PaymentWebhook")
	defer span.End()

	notification := parseNotification(w, r)
	result, err := h.paymentService.HandleNotification(ctx, notification)
	switch {
	case err == nil:
		h.logger.InfoContext(ctx, "payment notification handled",
			"topic", notification.Topic,
			"payment_id", notification.PaymentID,
			"transaction_id", result.TransactionID,
			"outcome", string(result.Outcome),
		)
	case usecase.IsReconcileNoise(err):
		h.logger.WarnContext(ctx, "payment notification ignored", "payment_id", notification.PaymentID, "error", err)
	default:
		h.logger.ErrorContext(ctx, "payment notification failed", "payment_id", notification.PaymentID, "error", err)
	}

	writeSuccess(ctx, w, http.StatusOK, webhookAckDTO{Received: true})
}

// MockPaymentComplete settles a mock checkout and sends the browser back
// into the app.
func (h *Handler) MockPaymentComplete(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.MockPaymentComplete")
	defer span.End()

	if !h.mockPaymentsEnabled {
		writeError(ctx, w, usecase.ErrNotFound)
		return
	}

	query := r.URL.Query()
	pref := strings.TrimSpace(query.Get("pref"))
	if pref == "" {
		writeError(ctx, w, errMissingPreference)
		return
	}

	completion, err := h.paymentService.CompleteMockPayment(ctx, pref)
	if err != nil {
		h.logger.WarnContext(ctx, "mock payment failed", "preference_id", pref, "error", err)
	} else {
		h.logger.InfoContext(ctx, "mock payment completed",
			"transaction_id", completion.TransactionID,
			"payment_id", completion.PaymentID,
			"outcome", string(completion.Outcome),
		)
	}

	http.Redirect(w, r, safeRedirect(query.Get("redirect")), http.StatusSeeOther)
}

var (
	errMissingPreference = fmt.Errorf("%w: pref query parameter is required", usecase.ErrInvalidInput)

	// integer payment ids must survive the round trip without float rounding
	webhookJSON = sonic.Config{UseInt64: true}.Froze()
)

func parseNotification(w http.ResponseWriter, r *http.Request) usecase.PaymentNotification {
	query := r.URL.Query()
	n := usecase.PaymentNotification{
		Topic:     firstNonEmpty(query.Get("type"), query.Get("topic")),
		PaymentID: firstNonEmpty(query.Get("data.id"), query.Get("id")),
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err != nil || len(strings.TrimSpace(string(raw))) == 0 {
		return n
	}
	var body map[string]any
	if err := webhookJSON.Unmarshal(raw, &body); err != nil {
		return n
	}

	if topic := firstNonEmpty(scalarString(body["type"]), scalarString(body["topic"])); topic != "" {
		n.Topic = topic
	}
	var dataID string
	if data, ok := body["data"].(map[string]any); ok {
		dataID = scalarString(data["id"])
	}
	if id := firstNonEmpty(dataID, scalarString(body["id"])); id != "" {
		n.PaymentID = id
	}
	return n
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// safeRedirect only allows same-origin relative paths.
func safeRedirect(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return defaultMockRedirect
	}
	return raw
}
