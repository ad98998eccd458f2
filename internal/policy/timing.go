// Package policy holds the pure timing rules around a booking's scheduled
// start, plus the accept-time charge policy knob.
package policy

import "time"

// CancellationWindow is the cutoff inside which a cancelled booking forfeits
// its full total.
const CancellationWindow = 24 * time.Hour

// HoursUntil returns the fractional hours from now until the scheduled start.
// Negative when the start has already passed.
func HoursUntil(scheduledAt, now time.Time) float64 {
	return scheduledAt.Sub(now).Hours()
}

// WithinCancellationWindow reports whether the booking starts in 24 hours or
// less. Exactly 24h counts as within the window.
func WithinCancellationWindow(scheduledAt, now time.Time) bool {
	return scheduledAt.Sub(now) <= CancellationWindow
}

// ChargePolicy selects what Accept does with a held authorization when the
// booking is still more than 24 hours out.
type ChargePolicy string

const (
	// ChargeImmediately captures the full total at accept time regardless of
	// timing. This is the current model.
	ChargeImmediately ChargePolicy = "immediate"

	// AuthorizeBeyondWindow leaves a held authorization uncaptured while the
	// booking is more than 24h out; an external scheduler re-invokes Accept
	// inside the window to capture. Legacy behavior, kept configurable.
	AuthorizeBeyondWindow ChargePolicy = "authorize_beyond_window"
)
