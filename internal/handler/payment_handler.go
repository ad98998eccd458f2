package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/servly/payment-service/internal/dto"
	"github.com/servly/payment-service/internal/repository"
	"github.com/servly/payment-service/internal/service"
	"github.com/servly/payment-service/pkg/rabbitmq"
)

// Notifier is the fire-and-forget outbound event sink. Delivery failures are
// logged and never affect the reported outcome.
type Notifier interface {
	Publish(routingKey string, payload any) error
}

type PaymentHandler struct {
	svc      service.PaymentService
	ledger   repository.LedgerRepository
	notifier Notifier
}

func NewPaymentHandler(svc service.PaymentService, ledger repository.LedgerRepository, notifier Notifier) *PaymentHandler {
	return &PaymentHandler{svc: svc, ledger: ledger, notifier: notifier}
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo) {
	bookings := e.Group("/api/v1/bookings")
	bookings.POST("/:id/accept", h.AcceptBooking)
	bookings.POST("/:id/decline", h.DeclineBooking)
	bookings.POST("/:id/cancel", h.CancelBooking)
	bookings.GET("/:id/payment", h.GetPaymentState)
}

func (h *PaymentHandler) AcceptBooking(c echo.Context) error {
	bookingID, err := parseBookingID(c)
	if err != nil {
		return err
	}

	result, err := h.svc.AcceptBooking(c.Request().Context(), bookingID)
	if err != nil {
		return h.paymentError(c, err)
	}

	h.notify(dto.PaymentEvent{
		EventID:    uuid.NewString(),
		BookingID:  bookingID,
		EventType:  "accepted",
		OccurredAt: time.Now().UTC(),
	}, rabbitmq.KeyBookingAccepted)

	return c.JSON(http.StatusOK, dto.AcceptResponse{
		Booking:        dto.ToPaymentState(result.Booking),
		AlreadyCharged: result.AlreadyCharged,
		Authorized:     result.Authorized,
		Warnings:       result.Warnings,
	})
}

func (h *PaymentHandler) DeclineBooking(c echo.Context) error {
	bookingID, err := parseBookingID(c)
	if err != nil {
		return err
	}

	result, err := h.svc.DeclineBooking(c.Request().Context(), bookingID)
	if err != nil {
		return h.paymentError(c, err)
	}

	h.notify(dto.PaymentEvent{
		EventID:    uuid.NewString(),
		BookingID:  bookingID,
		EventType:  "declined",
		OccurredAt: time.Now().UTC(),
	}, rabbitmq.KeyBookingDeclined)

	return c.JSON(http.StatusOK, dto.DeclineResponse{
		Booking:  dto.ToPaymentState(result.Booking),
		Warnings: result.Warnings,
	})
}

func (h *PaymentHandler) CancelBooking(c echo.Context) error {
	bookingID, err := parseBookingID(c)
	if err != nil {
		return err
	}

	result, err := h.svc.CancelBooking(c.Request().Context(), bookingID)
	if err != nil {
		return h.paymentError(c, err)
	}

	h.notify(dto.PaymentEvent{
		EventID:      uuid.NewString(),
		BookingID:    bookingID,
		EventType:    "cancelled",
		RefundAmount: result.RefundAmount,
		OccurredAt:   time.Now().UTC(),
	}, rabbitmq.KeyBookingCancelled)

	return c.JSON(http.StatusOK, dto.CancelResponse{
		Booking:         dto.ToPaymentState(result.Booking),
		RefundAmount:    result.RefundAmount,
		CancellationFee: result.CancellationFee,
		ReversalFailed:  result.ReversalFailed,
		Warnings:        result.Warnings,
	})
}

func (h *PaymentHandler) GetPaymentState(c echo.Context) error {
	id, err := parseBookingID(c)
	if err != nil {
		return err
	}

	booking, err := h.ledger.FindBookingByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "booking not found")
	}

	return c.JSON(http.StatusOK, dto.ToPaymentState(booking))
}

func parseBookingID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}
	return uint(id), nil
}

// notify hands the event off without awaiting delivery. The operation's
// outcome is already decided by the time this runs.
func (h *PaymentHandler) notify(event dto.PaymentEvent, routingKey string) {
	if h.notifier == nil {
		return
	}
	go func() {
		if err := h.notifier.Publish(routingKey, event); err != nil {
			log.Printf("[PaymentHandler] publish %s for booking %d: %v", routingKey, event.BookingID, err)
		}
	}()
}

func (h *PaymentHandler) paymentError(c echo.Context, err error) error {
	if errors.Is(err, service.ErrBookingNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	var pe *service.PaymentError
	if errors.As(err, &pe) {
		return c.JSON(statusForCode(pe.Code), dto.ErrorResponse{Code: pe.Code, Message: pe.Message})
	}

	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func statusForCode(code service.ErrorCode) int {
	switch code {
	case service.CodeMissingPaymentMethod:
		return http.StatusConflict
	case service.CodeUnexpectedGatewayState, service.CodeRefundTargetNotCaptured:
		return http.StatusConflict
	case service.CodeFeeChargeFailed, service.CodeServiceChargeFailed:
		return http.StatusPaymentRequired
	case service.CodeGatewayUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
