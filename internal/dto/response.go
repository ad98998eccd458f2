package dto

import (
	"time"

	"github.com/servly/payment-service/internal/models"
	"github.com/servly/payment-service/internal/service"
)

type PaymentStateResponse struct {
	BookingID               uint                 `json:"booking_id"`
	Status                  models.BookingStatus `json:"status"`
	PaymentStatus           models.PaymentStatus `json:"payment_status"`
	TotalAmount             float64              `json:"total_amount"`
	PlatformFee             float64              `json:"platform_fee"`
	ServiceAmount           float64              `json:"service_amount"`
	FeeCharged              bool                 `json:"fee_charged"`
	ServiceAmountCharged    bool                 `json:"service_amount_charged"`
	ServiceAmountAuthorized bool                 `json:"service_amount_authorized"`
	CancellationFee         float64              `json:"cancellation_fee,omitempty"`
	RefundAmount            float64              `json:"refund_amount,omitempty"`
	ScheduledAt             time.Time            `json:"scheduled_at"`
}

type AcceptResponse struct {
	Booking        PaymentStateResponse `json:"booking"`
	AlreadyCharged bool                 `json:"already_charged,omitempty"`
	Authorized     bool                 `json:"authorized,omitempty"`
	Warnings       []string             `json:"warnings,omitempty"`
}

type DeclineResponse struct {
	Booking  PaymentStateResponse `json:"booking"`
	Warnings []string             `json:"warnings,omitempty"`
}

type CancelResponse struct {
	Booking         PaymentStateResponse `json:"booking"`
	RefundAmount    float64              `json:"refund_amount"`
	CancellationFee float64              `json:"cancellation_fee"`
	ReversalFailed  bool                 `json:"reversal_failed,omitempty"`
	Warnings        []string             `json:"warnings,omitempty"`
}

type ErrorResponse struct {
	Code    service.ErrorCode `json:"code,omitempty"`
	Message string            `json:"message"`
}

// PaymentEvent is the outbound message a notification dispatcher consumes.
type PaymentEvent struct {
	EventID      string    `json:"event_id"`
	BookingID    uint      `json:"booking_id"`
	EventType    string    `json:"event_type"`
	RefundAmount float64   `json:"refund_amount,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func ToPaymentState(b *models.Booking) PaymentStateResponse {
	return PaymentStateResponse{
		BookingID:               b.ID,
		Status:                  b.Status,
		PaymentStatus:           b.PaymentStatus,
		TotalAmount:             b.TotalAmount,
		PlatformFee:             b.PlatformFee,
		ServiceAmount:           b.ServiceAmount,
		FeeCharged:              b.FeeCharged,
		ServiceAmountCharged:    b.ServiceAmountCharged,
		ServiceAmountAuthorized: b.ServiceAmountAuthorized,
		CancellationFee:         b.CancellationFee,
		RefundAmount:            b.RefundAmount,
		ScheduledAt:             b.ScheduledAt,
	}
}
