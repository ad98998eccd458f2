package models

import "time"

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusAccepted  BookingStatus = "accepted"
	StatusDeclined  BookingStatus = "declined"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Booking is the payment view of a booking. The row is created by the
// booking-creation flow; this service only reads and updates it.
type Booking struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	BusinessID string `gorm:"type:varchar(64)" json:"business_id,omitempty"`
	CustomerID string `gorm:"type:varchar(64)" json:"customer_id,omitempty"`

	TotalAmount   float64 `gorm:"not null" json:"total_amount"`
	PlatformFee   float64 `json:"platform_fee"`
	ServiceAmount float64 `json:"service_amount"`

	ScheduledAt   time.Time     `gorm:"not null" json:"scheduled_at"`
	Status        BookingStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`

	FeeCharged              bool `gorm:"not null;default:false" json:"fee_charged"`
	ServiceAmountCharged    bool `gorm:"not null;default:false" json:"service_amount_charged"`
	ServiceAmountAuthorized bool `gorm:"not null;default:false" json:"service_amount_authorized"`

	// Legacy two-authorization topology: one gateway authorization per leg.
	// Empty on bookings that went through single-intent checkout.
	FeeAuthorizationID     string `gorm:"type:varchar(64)" json:"fee_authorization_id,omitempty"`
	ServiceAuthorizationID string `gorm:"type:varchar(64)" json:"service_authorization_id,omitempty"`

	CancellationFee float64 `json:"cancellation_fee"`
	RefundAmount    float64 `json:"refund_amount"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WasAccepted reports whether the booking has ever been accepted. Status alone
// is not enough: a declined-then-reaccepted booking keeps its charge flags.
func (b *Booking) WasAccepted() bool {
	return b.Status == StatusAccepted || b.FeeCharged
}
