package service

import (
	"errors"
	"fmt"
)

var ErrBookingNotFound = errors.New("booking not found")

// ErrorCode classifies orchestrator failures for the caller. Transient codes
// are safe to retry with the same operation.
type ErrorCode string

const (
	CodeMissingPaymentMethod    ErrorCode = "missing_payment_method"
	CodeUnexpectedGatewayState  ErrorCode = "unexpected_gateway_state"
	CodeFeeChargeFailed         ErrorCode = "fee_charge_failed"
	CodeServiceChargeFailed     ErrorCode = "service_amount_charge_failed"
	CodeRefundTargetNotCaptured ErrorCode = "refund_target_not_captured"
	CodeGatewayUnavailable      ErrorCode = "gateway_unavailable"
	CodeLedgerWriteFailed       ErrorCode = "ledger_write_failed"
)

// Retryable reports whether the caller should re-invoke the same operation.
func (c ErrorCode) Retryable() bool {
	return c == CodeGatewayUnavailable
}

// PaymentError is a structured orchestrator failure: no money moved, or the
// movement is fully accounted for in the message.
type PaymentError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PaymentError) Unwrap() error { return e.Err }

func paymentErr(code ErrorCode, format string, args ...any) *PaymentError {
	return &PaymentError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func gatewayErr(err error, format string, args ...any) *PaymentError {
	return &PaymentError{Code: CodeGatewayUnavailable, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf extracts the error code from an orchestrator failure, or "" for
// untyped errors.
func CodeOf(err error) ErrorCode {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
