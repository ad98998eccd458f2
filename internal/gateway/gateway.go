// Package gateway defines the capability interface this service consumes from
// the payment provider. Amounts are integer minor currency units throughout.
package gateway

import (
	"context"
	"errors"
)

type AuthorizationState string

const (
	StateRequiresPaymentMethod AuthorizationState = "requires_payment_method"
	StateRequiresConfirmation  AuthorizationState = "requires_confirmation"
	StateRequiresCapture       AuthorizationState = "requires_capture"
	StateSucceeded             AuthorizationState = "succeeded"
	StateCanceled              AuthorizationState = "canceled"
)

// Cancelable reports whether an authorization in this state can still be
// voided without a refund.
func (s AuthorizationState) Cancelable() bool {
	switch s {
	case StateRequiresPaymentMethod, StateRequiresConfirmation, StateRequiresCapture:
		return true
	}
	return false
}

// Authorization is the gateway-side object reserving or charging money
// against a customer's payment method for one booking.
type Authorization struct {
	ID              string             `json:"id"`
	State           AuthorizationState `json:"state"`
	Amount          int64              `json:"amount"`
	Currency        string             `json:"currency"`
	PaymentMethodID string             `json:"payment_method_id"`
	CustomerID      string             `json:"customer_id"`
}

type Refund struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
}

type Reversal struct {
	ID string `json:"id"`
}

type CreateAuthorizationParams struct {
	Amount          int64
	Currency        string
	CustomerID      string
	PaymentMethodID string
	Metadata        map[string]string
}

// ErrNotFound distinguishes a missing gateway object from transport failure.
// Everything else returned by a Client is treated as transient.
var ErrNotFound = errors.New("gateway: no such object")

// Client is the payment gateway capability surface. Implementations wrap the
// provider SDK; tests inject fakes.
type Client interface {
	GetAuthorization(ctx context.Context, id string) (*Authorization, error)
	ConfirmAuthorization(ctx context.Context, id string) (*Authorization, error)
	CaptureAuthorization(ctx context.Context, id string) (*Authorization, error)
	CancelAuthorization(ctx context.Context, id string) (*Authorization, error)
	CreateAndConfirmAuthorization(ctx context.Context, params CreateAuthorizationParams) (*Authorization, error)

	// CreateRefund refunds against a succeeded authorization. Amount 0 means
	// a full refund.
	CreateRefund(ctx context.Context, authorizationID string, amount int64, metadata map[string]string) (*Refund, error)

	// ReverseTransfer claws back funds already moved to a business's
	// connected account.
	ReverseTransfer(ctx context.Context, transferID string, amount int64, metadata map[string]string) (*Reversal, error)
}
