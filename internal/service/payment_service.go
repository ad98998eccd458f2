package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/servly/payment-service/internal/gateway"
	"github.com/servly/payment-service/internal/models"
	"github.com/servly/payment-service/internal/money"
	"github.com/servly/payment-service/internal/policy"
	"github.com/servly/payment-service/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Config tunes the orchestrator. Zero value is not usable; start from
// DefaultConfig.
type Config struct {
	Currency     string
	FeeRate      float64
	AcceptPolicy policy.ChargePolicy
}

func DefaultConfig() Config {
	return Config{
		Currency:     "usd",
		FeeRate:      money.DefaultFeeRate,
		AcceptPolicy: policy.ChargeImmediately,
	}
}

// AcceptResult reports what an Accept operation did. Warnings carry ledger
// writes that failed after the money already moved.
type AcceptResult struct {
	Booking        *models.Booking
	AlreadyCharged bool // authorization had already succeeded; nothing new was charged
	Authorized     bool // legacy policy: held for later capture, not charged
	Warnings       []string
}

type DeclineResult struct {
	Booking  *models.Booking
	Warnings []string
}

type CancelResult struct {
	Booking         *models.Booking
	RefundAmount    float64
	CancellationFee float64
	ReversalFailed  bool
	Warnings        []string
}

// PaymentService is the booking payment lifecycle orchestrator. Every
// operation is safe to re-invoke from scratch after any failure.
type PaymentService interface {
	AcceptBooking(ctx context.Context, bookingID uint) (*AcceptResult, error)
	DeclineBooking(ctx context.Context, bookingID uint) (*DeclineResult, error)
	CancelBooking(ctx context.Context, bookingID uint) (*CancelResult, error)
}

type paymentService struct {
	gw     gateway.Client
	ledger repository.LedgerRepository
	cfg    Config
}

func NewPaymentService(gw gateway.Client, ledger repository.LedgerRepository, cfg Config) PaymentService {
	return &paymentService{gw: gw, ledger: ledger, cfg: cfg}
}

// --- Accept ---

func (s *paymentService) AcceptBooking(ctx context.Context, bookingID uint) (*AcceptResult, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	topo, err := s.resolveTopology(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("resolve authorizations for booking %d: %w", bookingID, err)
	}

	// Checkout never completed: there is nothing to charge against.
	if topo.empty() {
		return nil, paymentErr(CodeMissingPaymentMethod, "booking %d has no payment authorization on file", bookingID)
	}

	if topo.dual() {
		return s.acceptDual(ctx, booking, topo)
	}
	return s.acceptSingle(ctx, booking, topo.combined)
}

func (s *paymentService) acceptSingle(ctx context.Context, booking *models.Booking, authID string) (*AcceptResult, error) {
	auth, err := s.gw.GetAuthorization(ctx, authID)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, paymentErr(CodeMissingPaymentMethod, "authorization %s no longer exists at the gateway", authID)
		}
		return nil, gatewayErr(err, "retrieve authorization %s", authID)
	}

	switch auth.State {
	case gateway.StateSucceeded:
		// Retry or reschedule: the customer was already charged. Refresh the
		// booking's flags without new gateway calls or ledger rows.
		return s.acceptAlreadyCharged(ctx, booking)

	case gateway.StateRequiresCapture:
		if s.cfg.AcceptPolicy == policy.AuthorizeBeyondWindow &&
			!policy.WithinCancellationWindow(booking.ScheduledAt, time.Now()) {
			// Held, not charged. The external scheduler re-invokes Accept
			// inside the window and the capture branch below completes it.
			booking.ServiceAmountAuthorized = true
			booking.Status = models.StatusAccepted
			if err := s.ledger.UpdateBooking(ctx, booking); err != nil {
				return nil, fmt.Errorf("persist authorized booking %d: %w", booking.ID, err)
			}
			return &AcceptResult{Booking: booking, Authorized: true}, nil
		}
		return s.acceptCapture(ctx, booking, auth)

	case gateway.StateRequiresConfirmation, gateway.StateRequiresPaymentMethod:
		return s.acceptSplitCharge(ctx, booking, auth)

	default:
		return nil, paymentErr(CodeUnexpectedGatewayState, "authorization %s is %s; refusing to guess", auth.ID, auth.State)
	}
}

func (s *paymentService) acceptAlreadyCharged(ctx context.Context, booking *models.Booking) (*AcceptResult, error) {
	var warnings []string
	s.applySplit(booking)
	booking.FeeCharged = true
	booking.ServiceAmountCharged = true
	booking.ServiceAmountAuthorized = false
	booking.Status = models.StatusAccepted
	booking.PaymentStatus = models.PaymentPaid
	s.persistAfterMoneyMoved(ctx, booking, &warnings)
	return &AcceptResult{Booking: booking, AlreadyCharged: true, Warnings: warnings}, nil
}

// acceptCapture charges the full total in one capture call.
func (s *paymentService) acceptCapture(ctx context.Context, booking *models.Booking, auth *gateway.Authorization) (*AcceptResult, error) {
	captured, err := s.gw.CaptureAuthorization(ctx, auth.ID)
	if err != nil {
		return nil, gatewayErr(err, "capture authorization %s", auth.ID)
	}
	if captured.State != gateway.StateSucceeded {
		return nil, paymentErr(CodeUnexpectedGatewayState, "capture of %s returned state %s", auth.ID, captured.State)
	}

	var warnings []string
	s.applySplit(booking)
	booking.FeeCharged = true
	booking.ServiceAmountCharged = true
	booking.ServiceAmountAuthorized = false
	booking.Status = models.StatusAccepted
	booking.PaymentStatus = models.PaymentPaid
	s.persistAfterMoneyMoved(ctx, booking, &warnings)

	s.appendTransaction(ctx, &models.TransactionRecord{
		BookingID:  booking.ID,
		Amount:     booking.TotalAmount,
		Direction:  models.DirectionCharge,
		GatewayRef: auth.ID,
		Type:       models.TxnTypeBookingTotal,
		Metadata:   metadata(map[string]string{"booking_id": itoa(booking.ID)}),
	}, &warnings)

	if booking.BusinessID != "" {
		s.appendPayout(ctx, &models.PayoutRecord{
			BookingID:        booking.ID,
			BusinessID:       booking.BusinessID,
			GatewayRef:       auth.ID,
			PlatformFee:      booking.PlatformFee,
			NetPaymentAmount: booking.ServiceAmount,
		}, &warnings)
	}

	return &AcceptResult{Booking: booking, Warnings: warnings}, nil
}

// acceptSplitCharge handles an authorization that was never confirmed: cancel
// it and charge the fee and service amount as two fresh authorizations against
// the same customer and payment method. Legacy topology.
func (s *paymentService) acceptSplitCharge(ctx context.Context, booking *models.Booking, auth *gateway.Authorization) (*AcceptResult, error) {
	// An unconfirmed authorization does not always carry the customer yet; the
	// booking row knows who checked out.
	customerID := auth.CustomerID
	if customerID == "" {
		customerID = booking.CustomerID
	}
	if auth.PaymentMethodID == "" || customerID == "" {
		return nil, paymentErr(CodeMissingPaymentMethod, "authorization %s has no payment method attached", auth.ID)
	}

	fee, serviceAmount := money.Split(booking.TotalAmount, booking.PlatformFee, s.cfg.FeeRate)

	// Nothing is charged yet, so a failure anywhere up to the fee charge
	// leaves no money moved and the operation fully retryable.
	if _, err := s.gw.CancelAuthorization(ctx, auth.ID); err != nil {
		return nil, gatewayErr(err, "cancel unconfirmed authorization %s", auth.ID)
	}

	feeAuth, err := s.gw.CreateAndConfirmAuthorization(ctx, gateway.CreateAuthorizationParams{
		Amount:          money.MinorUnits(fee),
		Currency:        s.cfg.Currency,
		CustomerID:      customerID,
		PaymentMethodID: auth.PaymentMethodID,
		Metadata:        legMetadata(booking.ID, legFee),
	})
	if err != nil {
		return nil, &PaymentError{Code: CodeFeeChargeFailed, Message: fmt.Sprintf("charge platform fee for booking %d", booking.ID), Err: err}
	}
	if feeAuth.State != gateway.StateSucceeded {
		return nil, paymentErr(CodeFeeChargeFailed, "fee authorization %s ended in state %s", feeAuth.ID, feeAuth.State)
	}

	svcAuth, err := s.gw.CreateAndConfirmAuthorization(ctx, gateway.CreateAuthorizationParams{
		Amount:          money.MinorUnits(serviceAmount),
		Currency:        s.cfg.Currency,
		CustomerID:      customerID,
		PaymentMethodID: auth.PaymentMethodID,
		Metadata:        legMetadata(booking.ID, legService),
	})
	if err != nil {
		return nil, &PaymentError{Code: CodeServiceChargeFailed, Message: fmt.Sprintf("charge service amount for booking %d", booking.ID), Err: err}
	}
	if svcAuth.State != gateway.StateSucceeded {
		return nil, paymentErr(CodeServiceChargeFailed, "service authorization %s ended in state %s", svcAuth.ID, svcAuth.State)
	}

	var warnings []string
	booking.PlatformFee = fee
	booking.ServiceAmount = serviceAmount
	booking.FeeAuthorizationID = feeAuth.ID
	booking.ServiceAuthorizationID = svcAuth.ID
	booking.FeeCharged = true
	booking.ServiceAmountCharged = true
	booking.ServiceAmountAuthorized = false
	booking.Status = models.StatusAccepted
	booking.PaymentStatus = models.PaymentPaid
	s.persistAfterMoneyMoved(ctx, booking, &warnings)

	s.appendTransaction(ctx, &models.TransactionRecord{
		BookingID:  booking.ID,
		Amount:     fee,
		Direction:  models.DirectionCharge,
		GatewayRef: feeAuth.ID,
		Type:       models.TxnTypePlatformFee,
		Metadata:   metadata(legMetadata(booking.ID, legFee)),
	}, &warnings)
	s.appendTransaction(ctx, &models.TransactionRecord{
		BookingID:  booking.ID,
		Amount:     serviceAmount,
		Direction:  models.DirectionCharge,
		GatewayRef: svcAuth.ID,
		Type:       models.TxnTypeServiceAmount,
		Metadata:   metadata(legMetadata(booking.ID, legService)),
	}, &warnings)

	if booking.BusinessID != "" {
		s.appendPayout(ctx, &models.PayoutRecord{
			BookingID:        booking.ID,
			BusinessID:       booking.BusinessID,
			GatewayRef:       svcAuth.ID,
			PlatformFee:      fee,
			NetPaymentAmount: serviceAmount,
		}, &warnings)
	}

	return &AcceptResult{Booking: booking, Warnings: warnings}, nil
}

// acceptDual retries an accept over an existing fee/service authorization
// pair, driving each leg to succeeded.
func (s *paymentService) acceptDual(ctx context.Context, booking *models.Booking, topo authTopology) (*AcceptResult, error) {
	legs := []struct {
		leg  authLeg
		id   string
		code ErrorCode
	}{
		{legFee, topo.fee, CodeFeeChargeFailed},
		{legService, topo.service, CodeServiceChargeFailed},
	}

	allCharged := true
	for _, l := range legs {
		if l.id == "" {
			return nil, paymentErr(CodeUnexpectedGatewayState, "booking %d is missing its %s authorization", booking.ID, l.leg)
		}
		auth, err := s.gw.GetAuthorization(ctx, l.id)
		if err != nil {
			return nil, gatewayErr(err, "retrieve %s authorization %s", l.leg, l.id)
		}

		switch auth.State {
		case gateway.StateSucceeded:
			continue
		case gateway.StateRequiresConfirmation:
			auth, err = s.gw.ConfirmAuthorization(ctx, auth.ID)
		case gateway.StateRequiresCapture:
			auth, err = s.gw.CaptureAuthorization(ctx, auth.ID)
		default:
			return nil, paymentErr(l.code, "%s authorization %s is %s", l.leg, auth.ID, auth.State)
		}
		if err != nil {
			return nil, &PaymentError{Code: l.code, Message: fmt.Sprintf("complete %s authorization %s", l.leg, l.id), Err: err}
		}
		if auth.State != gateway.StateSucceeded {
			return nil, paymentErr(l.code, "%s authorization %s ended in state %s", l.leg, auth.ID, auth.State)
		}
		allCharged = false
	}

	if allCharged {
		return s.acceptAlreadyCharged(ctx, booking)
	}

	var warnings []string
	fee, serviceAmount := money.Split(booking.TotalAmount, booking.PlatformFee, s.cfg.FeeRate)
	booking.PlatformFee = fee
	booking.ServiceAmount = serviceAmount
	booking.FeeCharged = true
	booking.ServiceAmountCharged = true
	booking.ServiceAmountAuthorized = false
	booking.Status = models.StatusAccepted
	booking.PaymentStatus = models.PaymentPaid
	s.persistAfterMoneyMoved(ctx, booking, &warnings)

	s.appendTransaction(ctx, &models.TransactionRecord{
		BookingID:  booking.ID,
		Amount:     fee,
		Direction:  models.DirectionCharge,
		GatewayRef: topo.fee,
		Type:       models.TxnTypePlatformFee,
		Metadata:   metadata(legMetadata(booking.ID, legFee)),
	}, &warnings)
	s.appendTransaction(ctx, &models.TransactionRecord{
		BookingID:  booking.ID,
		Amount:     serviceAmount,
		Direction:  models.DirectionCharge,
		GatewayRef: topo.service,
		Type:       models.TxnTypeServiceAmount,
		Metadata:   metadata(legMetadata(booking.ID, legService)),
	}, &warnings)

	if booking.BusinessID != "" {
		s.appendPayout(ctx, &models.PayoutRecord{
			BookingID:        booking.ID,
			BusinessID:       booking.BusinessID,
			GatewayRef:       topo.service,
			PlatformFee:      fee,
			NetPaymentAmount: serviceAmount,
		}, &warnings)
	}

	return &AcceptResult{Booking: booking, Warnings: warnings}, nil
}

// --- Decline ---

// DeclineBooking is best-effort across authorizations: a failed cancel or
// refund on one leg never blocks the other, and the booking is declined
// regardless of gateway outcomes.
func (s *paymentService) DeclineBooking(ctx context.Context, bookingID uint) (*DeclineResult, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	topo, err := s.resolveTopology(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("resolve authorizations for booking %d: %w", bookingID, err)
	}

	var warnings []string
	for _, ref := range topo.refs() {
		auth, err := s.gw.GetAuthorization(ctx, ref.id)
		if err != nil {
			warnf(&warnings, "decline booking %d: retrieve %s authorization %s: %v", bookingID, ref.leg, ref.id, err)
			continue
		}

		switch {
		case auth.State.Cancelable():
			if _, err := s.gw.CancelAuthorization(ctx, auth.ID); err != nil {
				warnf(&warnings, "decline booking %d: cancel %s authorization %s: %v", bookingID, ref.leg, auth.ID, err)
			}
		case auth.State == gateway.StateSucceeded:
			// The refund ledger row is the only durable evidence a prior
			// decline attempt already refunded this leg.
			if _, err := s.ledger.RefundByAuthorization(ctx, booking.ID, auth.ID); err == nil {
				continue
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				warnf(&warnings, "decline booking %d: check prior refund of %s: %v", bookingID, auth.ID, err)
				continue
			}
			refundMeta := legMetadata(booking.ID, ref.leg)
			refundMeta["authorization_id"] = auth.ID
			refundMeta["reason"] = "booking_declined"
			refund, err := s.gw.CreateRefund(ctx, auth.ID, 0, refundMeta)
			if err != nil {
				warnf(&warnings, "decline booking %d: refund %s authorization %s: %v", bookingID, ref.leg, auth.ID, err)
				continue
			}
			s.appendTransaction(ctx, &models.TransactionRecord{
				BookingID:  booking.ID,
				Amount:     money.FromMinorUnits(auth.Amount),
				Direction:  models.DirectionRefund,
				GatewayRef: refund.ID,
				Type:       models.TxnTypeDeclineRefund,
				Metadata:   metadata(refundMeta),
			}, &warnings)
		}
	}

	// The booking is declined no matter what happened above.
	booking.FeeCharged = false
	booking.ServiceAmountCharged = false
	booking.ServiceAmountAuthorized = false
	booking.Status = models.StatusDeclined
	booking.PaymentStatus = models.PaymentPending
	s.persistAfterMoneyMoved(ctx, booking, &warnings)

	return &DeclineResult{Booking: booking, Warnings: warnings}, nil
}

// --- Customer cancel ---

func (s *paymentService) CancelBooking(ctx context.Context, bookingID uint) (*CancelResult, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// A cancel that already completed is replayed from stored state. Duplicate
	// deliveries must not reach the gateway again.
	if booking.Status == models.StatusCancelled {
		return &CancelResult{
			Booking:         booking,
			RefundAmount:    booking.RefundAmount,
			CancellationFee: booking.CancellationFee,
		}, nil
	}

	topo, err := s.resolveTopology(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("resolve authorizations for booking %d: %w", bookingID, err)
	}

	// Never accepted: nothing was captured, so void whatever is outstanding.
	if !booking.WasAccepted() {
		warnings := s.cancelOutstanding(ctx, booking.ID, topo)
		booking.Status = models.StatusCancelled
		booking.RefundAmount = 0
		if err := s.ledger.UpdateBooking(ctx, booking); err != nil {
			return nil, fmt.Errorf("persist cancelled booking %d: %w", booking.ID, err)
		}
		return &CancelResult{Booking: booking, Warnings: warnings}, nil
	}

	fee, serviceAmount := money.Split(booking.TotalAmount, booking.PlatformFee, s.cfg.FeeRate)

	// Inside the window the whole total is forfeited. No gateway call.
	if policy.WithinCancellationWindow(booking.ScheduledAt, time.Now()) {
		booking.CancellationFee = booking.TotalAmount
		booking.RefundAmount = 0
		booking.Status = models.StatusCancelled
		if err := s.ledger.UpdateBooking(ctx, booking); err != nil {
			return nil, fmt.Errorf("persist cancelled booking %d: %w", booking.ID, err)
		}
		return &CancelResult{Booking: booking, CancellationFee: booking.TotalAmount}, nil
	}

	return s.cancelWithRefund(ctx, booking, topo, fee, serviceAmount)
}

func (s *paymentService) cancelWithRefund(ctx context.Context, booking *models.Booking, topo authTopology, fee, serviceAmount float64) (*CancelResult, error) {
	target := topo.refundTarget()
	if target == "" {
		return nil, paymentErr(CodeRefundTargetNotCaptured, "booking %d was accepted but has no authorization on file", booking.ID)
	}

	auth, err := s.gw.GetAuthorization(ctx, target)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, paymentErr(CodeRefundTargetNotCaptured, "authorization %s no longer exists at the gateway", target)
		}
		return nil, gatewayErr(err, "retrieve authorization %s", target)
	}

	// Authorized but never captured: nothing was taken, so there is nothing
	// to give back. Void the hold and keep only the fee as cancellation fee.
	if auth.State == gateway.StateRequiresCapture {
		if _, err := s.gw.CancelAuthorization(ctx, auth.ID); err != nil {
			return nil, gatewayErr(err, "cancel held authorization %s", auth.ID)
		}
		var warnings []string
		booking.CancellationFee = fee
		booking.RefundAmount = 0
		booking.ServiceAmountAuthorized = false
		booking.Status = models.StatusCancelled
		s.persistAfterMoneyMoved(ctx, booking, &warnings)
		return &CancelResult{Booking: booking, CancellationFee: fee, Warnings: warnings}, nil
	}

	if auth.State != gateway.StateSucceeded {
		return nil, paymentErr(CodeRefundTargetNotCaptured, "authorization %s is %s, not succeeded", auth.ID, auth.State)
	}

	// A refunded authorization still reads succeeded at the gateway, so the
	// refund ledger row is the dedupe signal. Finding one means an earlier
	// attempt moved the money but failed to persist the booking: finish that,
	// without new gateway calls.
	if _, err := s.ledger.RefundByAuthorization(ctx, booking.ID, target); err == nil {
		var warnings []string
		booking.CancellationFee = fee
		booking.RefundAmount = serviceAmount
		booking.Status = models.StatusCancelled
		booking.PaymentStatus = models.PaymentRefunded
		s.persistAfterMoneyMoved(ctx, booking, &warnings)
		return &CancelResult{
			Booking:         booking,
			RefundAmount:    serviceAmount,
			CancellationFee: fee,
			Warnings:        warnings,
		}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check prior refund for booking %d: %w", booking.ID, err)
	}

	var warnings []string
	refundMeta := map[string]string{
		"booking_id":       itoa(booking.ID),
		"authorization_id": target,
		"reason":           "customer_cancelled",
	}

	// Claw back the business payout first when one already happened. A
	// reversal failure must not block the customer's refund; it is recorded
	// in the refund metadata for manual reconciliation.
	reversalFailed := false
	payout, err := s.ledger.PayoutByBookingID(ctx, booking.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		warnf(&warnings, "cancel booking %d: read payout record: %v", booking.ID, err)
	}
	if payout != nil && payout.TransferID != "" && booking.ServiceAmountCharged {
		rev, err := s.gw.ReverseTransfer(ctx, payout.TransferID, money.MinorUnits(serviceAmount), map[string]string{
			"booking_id": itoa(booking.ID),
		})
		if err != nil {
			reversalFailed = true
			refundMeta["transfer_reversal"] = "failed"
			warnf(&warnings, "cancel booking %d: reverse transfer %s: %v", booking.ID, payout.TransferID, err)
		} else {
			refundMeta["transfer_reversal"] = rev.ID
		}
	}

	refund, err := s.gw.CreateRefund(ctx, target, money.MinorUnits(serviceAmount), refundMeta)
	if err != nil {
		return nil, gatewayErr(err, "refund authorization %s", target)
	}

	s.appendTransaction(ctx, &models.TransactionRecord{
		BookingID:  booking.ID,
		Amount:     serviceAmount,
		Direction:  models.DirectionRefund,
		GatewayRef: refund.ID,
		Type:       models.TxnTypeRefund,
		Metadata:   metadata(refundMeta),
	}, &warnings)

	booking.CancellationFee = fee
	booking.RefundAmount = serviceAmount
	booking.Status = models.StatusCancelled
	booking.PaymentStatus = models.PaymentRefunded
	s.persistAfterMoneyMoved(ctx, booking, &warnings)

	return &CancelResult{
		Booking:         booking,
		RefundAmount:    serviceAmount,
		CancellationFee: fee,
		ReversalFailed:  reversalFailed,
		Warnings:        warnings,
	}, nil
}

// cancelOutstanding voids every still-cancelable authorization. No refunds.
func (s *paymentService) cancelOutstanding(ctx context.Context, bookingID uint, topo authTopology) []string {
	var warnings []string
	for _, ref := range topo.refs() {
		auth, err := s.gw.GetAuthorization(ctx, ref.id)
		if err != nil {
			warnf(&warnings, "cancel booking %d: retrieve %s authorization %s: %v", bookingID, ref.leg, ref.id, err)
			continue
		}
		if !auth.State.Cancelable() {
			continue
		}
		if _, err := s.gw.CancelAuthorization(ctx, auth.ID); err != nil {
			warnf(&warnings, "cancel booking %d: void %s authorization %s: %v", bookingID, ref.leg, auth.ID, err)
		}
	}
	return warnings
}

// --- shared helpers ---

func (s *paymentService) loadBooking(ctx context.Context, id uint) (*models.Booking, error) {
	booking, err := s.ledger.FindBookingByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("load booking %d: %w", id, err)
	}
	return booking, nil
}

// applySplit fills in the fee/service split on bookings persisted without one.
func (s *paymentService) applySplit(booking *models.Booking) {
	fee, serviceAmount := money.Split(booking.TotalAmount, booking.PlatformFee, s.cfg.FeeRate)
	booking.PlatformFee = fee
	booking.ServiceAmount = serviceAmount
}

// persistAfterMoneyMoved writes the booking row after a gateway mutation has
// already happened. The store is a mirror of gateway truth at that point, so
// a write failure is logged for out-of-band repair, never surfaced as an
// operation failure.
func (s *paymentService) persistAfterMoneyMoved(ctx context.Context, booking *models.Booking, warnings *[]string) {
	if err := s.ledger.UpdateBooking(ctx, booking); err != nil {
		warnf(warnings, "%s: persist booking %d: %v", CodeLedgerWriteFailed, booking.ID, err)
	}
}

// appendTransaction writes an audit row, existence-checked on the gateway
// reference so retries collapse into the first write. Failures are warnings:
// the money already moved.
func (s *paymentService) appendTransaction(ctx context.Context, record *models.TransactionRecord, warnings *[]string) {
	if _, err := s.ledger.TransactionByGatewayRef(ctx, record.GatewayRef); err == nil {
		return // already recorded
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		warnf(warnings, "%s: check transaction %s: %v", CodeLedgerWriteFailed, record.GatewayRef, err)
		return
	}
	err := s.ledger.InsertTransaction(ctx, record)
	if err != nil && !errors.Is(err, repository.ErrDuplicateRecord) {
		warnf(warnings, "%s: insert transaction %s: %v", CodeLedgerWriteFailed, record.GatewayRef, err)
	}
}

func (s *paymentService) appendPayout(ctx context.Context, record *models.PayoutRecord, warnings *[]string) {
	if _, err := s.ledger.PayoutByGatewayRef(ctx, record.GatewayRef); err == nil {
		return // already recorded
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		warnf(warnings, "%s: check payout %s: %v", CodeLedgerWriteFailed, record.GatewayRef, err)
		return
	}
	err := s.ledger.InsertPayout(ctx, record)
	if err != nil && !errors.Is(err, repository.ErrDuplicateRecord) {
		warnf(warnings, "%s: insert payout %s: %v", CodeLedgerWriteFailed, record.GatewayRef, err)
	}
}

func warnf(warnings *[]string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[Orchestrator] %s", msg)
	*warnings = append(*warnings, msg)
}

func legMetadata(bookingID uint, leg authLeg) map[string]string {
	return map[string]string{"booking_id": itoa(bookingID), "leg": string(leg)}
}

func metadata(m map[string]string) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for k, v := range m {
		out[k] = v
	}
	return out
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
