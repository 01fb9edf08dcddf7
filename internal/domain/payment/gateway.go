package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrPaymentNotFound is returned by GetPayment for ids the provider does not know.
var ErrPaymentNotFound = errors.New("payment not found")

// Status is the outcome a gateway reports for a payment.
type Status string

const (
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusPending  Status = "pending"
)

// NormalizeStatus folds provider specific states into the three we act on.
func NormalizeStatus(raw string) Status {
	switch raw {
	case "approved", "authorized":
		return StatusApproved
	case "rejected", "cancelled", "refunded", "charged_back":
		return StatusRejected
	default:
		return StatusPending
	}
}

type BackURLs struct {
	Success string
	Failure string
	Pending string
}

type LinkRequest struct {
	Title             string
	Description       string
	Amount            decimal.Decimal
	ExternalReference string
	PayerEmail        string
	BackURLs          BackURLs
}

// Link is a hosted checkout the user is redirected to.
type Link struct {
	PreferenceID string
	InitPoint    string
}

type Payment struct {
	ID                string
	Status            Status
	ExternalReference string
}

// Gateway is the payment provider collaborator.
type Gateway interface {
	CreatePaymentLink(ctx context.Context, req LinkRequest) (Link, error)
	GetPayment(ctx context.Context, paymentID string) (Payment, error)
}
