package repository

import (
	"context"
	"errors"

	"github.com/servly/payment-service/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrDuplicateRecord normalizes a unique-index violation on an append-only
// ledger insert. Callers treat it as "already recorded".
var ErrDuplicateRecord = errors.New("ledger record already exists")

// LedgerRepository is the durable store behind the payment orchestrator:
// the mutable booking row plus the append-only transaction and payout ledgers.
type LedgerRepository interface {
	FindBookingByID(ctx context.Context, id uint) (*models.Booking, error)
	UpdateBooking(ctx context.Context, booking *models.Booking) error

	// LatestChargeRef returns the gateway reference of the most recent charge
	// row for a booking, preferring the checkout row checkout appended when it
	// registered the authorization. The authoritative authorization reference
	// lives here, not on the booking row: checkout appends it after the row
	// already exists.
	LatestChargeRef(ctx context.Context, bookingID uint) (string, error)

	InsertTransaction(ctx context.Context, record *models.TransactionRecord) error
	TransactionByGatewayRef(ctx context.Context, ref string) (*models.TransactionRecord, error)

	// RefundByAuthorization returns the refund row previously written against
	// an authorization, matched on the authorization id pinned in the record
	// metadata. A refunded authorization still reads succeeded at the gateway,
	// so this row is the only durable evidence the refund already happened.
	RefundByAuthorization(ctx context.Context, bookingID uint, authorizationID string) (*models.TransactionRecord, error)

	InsertPayout(ctx context.Context, record *models.PayoutRecord) error
	PayoutByGatewayRef(ctx context.Context, ref string) (*models.PayoutRecord, error)
	PayoutByBookingID(ctx context.Context, bookingID uint) (*models.PayoutRecord, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) FindBookingByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *ledgerRepository) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	// Save with Select("*") so flag resets back to false are written too.
	return r.db.WithContext(ctx).Model(booking).Select("*").Omit("id", "created_at").Updates(booking).Error
}

func (r *ledgerRepository) LatestChargeRef(ctx context.Context, bookingID uint) (string, error) {
	var record models.TransactionRecord
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND direction = ? AND type = ?", bookingID, models.DirectionCharge, models.TxnTypeCheckout).
		Order("id DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = r.db.WithContext(ctx).
			Where("booking_id = ? AND direction = ?", bookingID, models.DirectionCharge).
			Order("id DESC").
			First(&record).Error
	}
	if err != nil {
		return "", err
	}
	return record.GatewayRef, nil
}

func (r *ledgerRepository) InsertTransaction(ctx context.Context, record *models.TransactionRecord) error {
	err := r.db.WithContext(ctx).Create(record).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateRecord
	}
	return err
}

func (r *ledgerRepository) TransactionByGatewayRef(ctx context.Context, ref string) (*models.TransactionRecord, error) {
	var record models.TransactionRecord
	if err := r.db.WithContext(ctx).Where("gateway_ref = ?", ref).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *ledgerRepository) RefundByAuthorization(ctx context.Context, bookingID uint, authorizationID string) (*models.TransactionRecord, error) {
	var record models.TransactionRecord
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND direction = ?", bookingID, models.DirectionRefund).
		Where(datatypes.JSONQuery("metadata").Equals(authorizationID, "authorization_id")).
		Order("id DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *ledgerRepository) InsertPayout(ctx context.Context, record *models.PayoutRecord) error {
	err := r.db.WithContext(ctx).Create(record).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateRecord
	}
	return err
}

func (r *ledgerRepository) PayoutByGatewayRef(ctx context.Context, ref string) (*models.PayoutRecord, error) {
	var record models.PayoutRecord
	if err := r.db.WithContext(ctx).Where("gateway_ref = ?", ref).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *ledgerRepository) PayoutByBookingID(ctx context.Context, bookingID uint) (*models.PayoutRecord, error) {
	var record models.PayoutRecord
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("id DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
