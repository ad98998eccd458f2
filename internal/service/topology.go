package service

import (
	"context"
	"errors"

	"github.com/servly/payment-service/internal/models"
	"gorm.io/gorm"
)

// authLeg labels which slice of the total an authorization covers.
type authLeg string

const (
	legCombined authLeg = "combined"
	legFee      authLeg = "fee"
	legService  authLeg = "service_amount"
)

type authRef struct {
	leg authLeg
	id  string
}

// authTopology is the per-operation view of which gateway authorizations
// exist for a booking: one combined authorization in the common case, or a
// fee/service pair in the legacy case. Resolved once per operation from the
// ledger and the booking row, never re-guessed mid-flight.
type authTopology struct {
	combined string
	fee      string
	service  string
}

func (t authTopology) dual() bool  { return t.fee != "" || t.service != "" }
func (t authTopology) empty() bool { return t.combined == "" && !t.dual() }

// refundTarget is the authorization a service-amount refund goes against:
// the service leg when the booking was charged in two pieces, otherwise the
// combined authorization.
func (t authTopology) refundTarget() string {
	if t.service != "" {
		return t.service
	}
	return t.combined
}

// refs lists every known authorization, fee leg first.
func (t authTopology) refs() []authRef {
	var out []authRef
	if t.fee != "" {
		out = append(out, authRef{leg: legFee, id: t.fee})
	}
	if t.service != "" {
		out = append(out, authRef{leg: legService, id: t.service})
	}
	if t.combined != "" {
		out = append(out, authRef{leg: legCombined, id: t.combined})
	}
	return out
}

// resolveTopology discovers the booking's authorization shape. Dual-leg ids
// persisted on the booking win; otherwise the latest charge reference in the
// transaction ledger is the single authorization. An empty topology is not an
// error here — each operation decides what it means.
func (s *paymentService) resolveTopology(ctx context.Context, booking *models.Booking) (authTopology, error) {
	if booking.FeeAuthorizationID != "" || booking.ServiceAuthorizationID != "" {
		return authTopology{fee: booking.FeeAuthorizationID, service: booking.ServiceAuthorizationID}, nil
	}

	ref, err := s.ledger.LatestChargeRef(ctx, booking.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return authTopology{}, nil
		}
		return authTopology{}, err
	}
	return authTopology{combined: ref}, nil
}
