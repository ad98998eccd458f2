// Package money holds the pure arithmetic for splitting a booking total into
// the non-refundable platform fee and the refundable service amount.
package money

import "math"

// DefaultFeeRate is the platform's cut applied on top of the service amount:
// total = serviceAmount * (1 + rate).
const DefaultFeeRate = 0.20

// Split divides a booking total into (fee, serviceAmount). When the booking
// was persisted with a precomputed fee it is used as-is; a zero fee means the
// booking predates fee precomputation and the fee is derived from rate.
func Split(total, platformFee, rate float64) (fee, serviceAmount float64) {
	if platformFee > 0 {
		return round2(platformFee), round2(total - platformFee)
	}
	serviceAmount = round2(total / (1 + rate))
	return round2(total - serviceAmount), serviceAmount
}

// MinorUnits converts a decimal amount to integer minor currency units for
// gateway calls. This is the single place rounding happens, so the ledger
// total and the gateway-charged total cannot drift apart.
// A half-cent stored as a float sits a hair below the true value
// (10.005 -> 1000.4999...), which would round down; the nudge keeps
// half-cents rounding up.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount*100 + 1e-9))
}

// FromMinorUnits converts a gateway amount back to a decimal ledger amount.
func FromMinorUnits(units int64) float64 {
	return float64(units) / 100
}

func round2(v float64) float64 {
	return math.Round(v*100+1e-9) / 100
}
