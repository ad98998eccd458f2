package models

import (
	"time"

	"gorm.io/datatypes"
)

type TransactionDirection string

const (
	DirectionCharge TransactionDirection = "charge"
	DirectionRefund TransactionDirection = "refund"
)

// Transaction types written by this service. Checkout writes "checkout" rows
// when it registers a payment authorization for a booking.
const (
	TxnTypeCheckout      = "checkout"
	TxnTypeBookingTotal  = "booking_total"
	TxnTypePlatformFee   = "platform_fee"
	TxnTypeServiceAmount = "service_amount"
	TxnTypeRefund        = "cancellation_refund"
	TxnTypeDeclineRefund = "decline_refund"
)

// TransactionRecord is an append-only audit entry. Rows are never updated or
// deleted; GatewayRef is unique so a retried write collapses into the first.
type TransactionRecord struct {
	ID         uint                 `gorm:"primaryKey" json:"id"`
	BookingID  uint                 `gorm:"not null;index" json:"booking_id"`
	Amount     float64              `gorm:"not null" json:"amount"`
	Direction  TransactionDirection `gorm:"type:varchar(10);not null" json:"direction"`
	GatewayRef string               `gorm:"type:varchar(64);not null;uniqueIndex" json:"gateway_ref"`
	Type       string               `gorm:"type:varchar(40);not null" json:"type"`
	Metadata   datatypes.JSONMap    `json:"metadata,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

// PayoutRecord records the fee/net split of a captured amount. TransferID is
// set once funds have moved to the business's connected account; its presence
// is what triggers transfer reversal on refund.
type PayoutRecord struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	BookingID        uint      `gorm:"not null;index" json:"booking_id"`
	BusinessID       string    `gorm:"type:varchar(64)" json:"business_id"`
	GatewayRef       string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"gateway_ref"`
	PlatformFee      float64   `gorm:"not null" json:"platform_fee"`
	NetPaymentAmount float64   `gorm:"not null" json:"net_payment_amount"`
	TransferID       string    `gorm:"type:varchar(64)" json:"transfer_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
