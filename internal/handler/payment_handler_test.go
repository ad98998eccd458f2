package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/servly/payment-service/internal/dto"
	"github.com/servly/payment-service/internal/models"
	"github.com/servly/payment-service/internal/service"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// --- Mock PaymentService ---

type mockPaymentService struct {
	acceptFn  func(ctx context.Context, bookingID uint) (*service.AcceptResult, error)
	declineFn func(ctx context.Context, bookingID uint) (*service.DeclineResult, error)
	cancelFn  func(ctx context.Context, bookingID uint) (*service.CancelResult, error)
}

func (m *mockPaymentService) AcceptBooking(ctx context.Context, bookingID uint) (*service.AcceptResult, error) {
	return m.acceptFn(ctx, bookingID)
}
func (m *mockPaymentService) DeclineBooking(ctx context.Context, bookingID uint) (*service.DeclineResult, error) {
	return m.declineFn(ctx, bookingID)
}
func (m *mockPaymentService) CancelBooking(ctx context.Context, bookingID uint) (*service.CancelResult, error) {
	return m.cancelFn(ctx, bookingID)
}

// --- Mock LedgerRepository (only FindBookingByID matters here) ---

type mockLedger struct {
	booking *models.Booking
}

func (m *mockLedger) FindBookingByID(ctx context.Context, id uint) (*models.Booking, error) {
	if m.booking == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return m.booking, nil
}
func (m *mockLedger) UpdateBooking(ctx context.Context, b *models.Booking) error { return nil }
func (m *mockLedger) LatestChargeRef(ctx context.Context, bookingID uint) (string, error) {
	return "", gorm.ErrRecordNotFound
}
func (m *mockLedger) InsertTransaction(ctx context.Context, r *models.TransactionRecord) error {
	return nil
}
func (m *mockLedger) TransactionByGatewayRef(ctx context.Context, ref string) (*models.TransactionRecord, error) {
	return nil, gorm.ErrRecordNotFound
}
func (m *mockLedger) RefundByAuthorization(ctx context.Context, bookingID uint, authorizationID string) (*models.TransactionRecord, error) {
	return nil, gorm.ErrRecordNotFound
}
func (m *mockLedger) InsertPayout(ctx context.Context, r *models.PayoutRecord) error { return nil }
func (m *mockLedger) PayoutByGatewayRef(ctx context.Context, ref string) (*models.PayoutRecord, error) {
	return nil, gorm.ErrRecordNotFound
}
func (m *mockLedger) PayoutByBookingID(ctx context.Context, bookingID uint) (*models.PayoutRecord, error) {
	return nil, gorm.ErrRecordNotFound
}

// --- Mock Notifier ---

type mockNotifier struct {
	events chan dto.PaymentEvent
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{events: make(chan dto.PaymentEvent, 1)}
}

func (m *mockNotifier) Publish(routingKey string, payload any) error {
	if e, ok := payload.(dto.PaymentEvent); ok {
		m.events <- e
	}
	return nil
}

// --- helpers ---

func acceptedBooking() *models.Booking {
	return &models.Booking{
		ID:                   7,
		TotalAmount:          120.00,
		PlatformFee:          20.00,
		ServiceAmount:        100.00,
		ScheduledAt:          time.Now().Add(48 * time.Hour),
		Status:               models.StatusAccepted,
		PaymentStatus:        models.PaymentPaid,
		FeeCharged:           true,
		ServiceAmountCharged: true,
	}
}

func doRequest(h *PaymentHandler, fn func(echo.Context) error, id string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	return rec, fn(c)
}

// --- Tests ---

func TestAcceptBooking_Handler_Success(t *testing.T) {
	svc := &mockPaymentService{
		acceptFn: func(ctx context.Context, bookingID uint) (*service.AcceptResult, error) {
			return &service.AcceptResult{Booking: acceptedBooking()}, nil
		},
	}
	notifier := newMockNotifier()
	h := NewPaymentHandler(svc, nil, notifier)

	rec, err := doRequest(h, h.AcceptBooking, "7")

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.AcceptResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint(7), resp.Booking.BookingID)
	assert.Equal(t, models.StatusAccepted, resp.Booking.Status)
	assert.True(t, resp.Booking.FeeCharged)

	select {
	case event := <-notifier.events:
		assert.Equal(t, "accepted", event.EventType)
		assert.Equal(t, uint(7), event.BookingID)
		assert.NotEmpty(t, event.EventID)
	case <-time.After(time.Second):
		t.Fatal("expected a payment event to be published")
	}
}

func TestAcceptBooking_Handler_MissingPaymentMethod(t *testing.T) {
	svc := &mockPaymentService{
		acceptFn: func(ctx context.Context, bookingID uint) (*service.AcceptResult, error) {
			return nil, &service.PaymentError{Code: service.CodeMissingPaymentMethod, Message: "no authorization on file"}
		},
	}
	h := NewPaymentHandler(svc, nil, nil)

	rec, err := doRequest(h, h.AcceptBooking, "7")

	assert.NoError(t, err)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp dto.ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, service.CodeMissingPaymentMethod, resp.Code)
}

func TestAcceptBooking_Handler_GatewayUnavailable(t *testing.T) {
	svc := &mockPaymentService{
		acceptFn: func(ctx context.Context, bookingID uint) (*service.AcceptResult, error) {
			return nil, &service.PaymentError{Code: service.CodeGatewayUnavailable, Message: "capture authorization pi_1"}
		},
	}
	h := NewPaymentHandler(svc, nil, nil)

	rec, err := doRequest(h, h.AcceptBooking, "7")

	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestAcceptBooking_Handler_ChargeFailure(t *testing.T) {
	svc := &mockPaymentService{
		acceptFn: func(ctx context.Context, bookingID uint) (*service.AcceptResult, error) {
			return nil, &service.PaymentError{Code: service.CodeFeeChargeFailed, Message: "card declined"}
		},
	}
	h := NewPaymentHandler(svc, nil, nil)

	rec, err := doRequest(h, h.AcceptBooking, "7")

	assert.NoError(t, err)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestAcceptBooking_Handler_NotFound(t *testing.T) {
	svc := &mockPaymentService{
		acceptFn: func(ctx context.Context, bookingID uint) (*service.AcceptResult, error) {
			return nil, service.ErrBookingNotFound
		},
	}
	h := NewPaymentHandler(svc, nil, nil)

	_, err := doRequest(h, h.AcceptBooking, "999")

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestAcceptBooking_Handler_InvalidID(t *testing.T) {
	h := NewPaymentHandler(nil, nil, nil)

	_, err := doRequest(h, h.AcceptBooking, "abc")

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestDeclineBooking_Handler_Success(t *testing.T) {
	booking := acceptedBooking()
	booking.Status = models.StatusDeclined
	booking.PaymentStatus = models.PaymentPending
	svc := &mockPaymentService{
		declineFn: func(ctx context.Context, bookingID uint) (*service.DeclineResult, error) {
			return &service.DeclineResult{Booking: booking, Warnings: []string{"refund pi_fee: rejected"}}, nil
		},
	}
	h := NewPaymentHandler(svc, nil, nil)

	rec, err := doRequest(h, h.DeclineBooking, "7")

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.DeclineResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusDeclined, resp.Booking.Status)
	assert.Len(t, resp.Warnings, 1)
}

func TestCancelBooking_Handler_RefundAmountInResponseAndEvent(t *testing.T) {
	booking := acceptedBooking()
	booking.Status = models.StatusCancelled
	svc := &mockPaymentService{
		cancelFn: func(ctx context.Context, bookingID uint) (*service.CancelResult, error) {
			return &service.CancelResult{Booking: booking, RefundAmount: 100.00, CancellationFee: 20.00}, nil
		},
	}
	notifier := newMockNotifier()
	h := NewPaymentHandler(svc, nil, notifier)

	rec, err := doRequest(h, h.CancelBooking, "7")

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.CancelResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 100.00, resp.RefundAmount)
	assert.Equal(t, 20.00, resp.CancellationFee)

	select {
	case event := <-notifier.events:
		assert.Equal(t, "cancelled", event.EventType)
		assert.Equal(t, 100.00, event.RefundAmount)
	case <-time.After(time.Second):
		t.Fatal("expected a payment event to be published")
	}
}

func TestCancelBooking_Handler_RefundTargetNotCaptured(t *testing.T) {
	svc := &mockPaymentService{
		cancelFn: func(ctx context.Context, bookingID uint) (*service.CancelResult, error) {
			return nil, &service.PaymentError{Code: service.CodeRefundTargetNotCaptured, Message: "authorization pi_1 is requires_confirmation"}
		},
	}
	h := NewPaymentHandler(svc, nil, nil)

	rec, err := doRequest(h, h.CancelBooking, "7")

	assert.NoError(t, err)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelBooking_Handler_UntypedErrorIs500(t *testing.T) {
	svc := &mockPaymentService{
		cancelFn: func(ctx context.Context, bookingID uint) (*service.CancelResult, error) {
			return nil, errors.New("resolve authorizations: connection refused")
		},
	}
	h := NewPaymentHandler(svc, nil, nil)

	_, err := doRequest(h, h.CancelBooking, "7")

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, he.Code)
}

func TestGetPaymentState_Handler(t *testing.T) {
	h := NewPaymentHandler(nil, &mockLedger{booking: acceptedBooking()}, nil)

	rec, err := doRequest(h, h.GetPaymentState, "7")

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.PaymentStateResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 120.00, resp.TotalAmount)
	assert.Equal(t, models.PaymentPaid, resp.PaymentStatus)
}

func TestGetPaymentState_Handler_NotFound(t *testing.T) {
	h := NewPaymentHandler(nil, &mockLedger{}, nil)

	_, err := doRequest(h, h.GetPaymentState, "7")

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)
}
