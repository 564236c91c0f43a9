// Package ledger owns seat inventory for departures. All mutation of
// held seat counts goes through the three operations below; no other
// component writes inventory state.
package ledger

import (
	"context"
	"errors"

	"github.com/zvrva/railbooking/internal/domain"
)

var (
	// ErrNotFound is returned when the departure, class or booking does
	// not exist, or the booking belongs to a different user.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientInventory is returned when the requested seat count
	// exceeds the seats currently available for the class.
	ErrInsufficientInventory = errors.New("insufficient inventory")
	// ErrPricingUnavailable is returned when the trip has no positive
	// fare configured for the requested class.
	ErrPricingUnavailable = errors.New("pricing unavailable")
	ErrAlreadyConfirmed   = errors.New("booking already confirmed")
	ErrAlreadyCancelled   = errors.New("booking already cancelled")
	// ErrLockTimeout is returned when the inventory lock could not be
	// acquired within the configured wait; callers may retry.
	ErrLockTimeout = errors.New("inventory lock timeout")

	ErrInvalidSeatCount = errors.New("seat count must be at least 1")
	ErrUnknownClass     = errors.New("unknown class key")
)

type ReserveParams struct {
	DepartureID int64
	ClassKey    domain.ClassKey
	UserID      int64
	SeatCount   int
}

// Refund is the result of a cancellation, handed to the payment
// reversal downstream. The policy is a fixed 100% of the price
// snapshot stored on the booking.
type Refund struct {
	BookingID   int64  `json:"booking_id"`
	Reference   string `json:"reference"`
	AmountCents int64  `json:"amount_cents"`
}

// Ledger atomically reserves, confirms and releases seat inventory.
//
// Operations on the same (departure, class) pair are serialized;
// unrelated pairs never block each other. Every operation re-reads
// authoritative state under the lock, so a loser of a race observes
// the true post-commit availability, never a stale read.
type Ledger interface {
	// Reserve holds SeatCount seats and creates a pending booking with
	// a unique reference and a price snapshot. On any failure nothing
	// is held and no booking row exists.
	Reserve(ctx context.Context, p ReserveParams) (*domain.Booking, error)

	// Confirm transitions a pending booking owned by userID to
	// confirmed and assigns a seat number. Held counts are unchanged;
	// the seats were already counted at reserve time.
	Confirm(ctx context.Context, bookingID, userID int64) (*domain.Booking, error)

	// Cancel transitions a non-cancelled booking owned by userID to
	// cancelled, releases its seats back to inventory and returns the
	// refund amount. Cancelling twice fails and never double-releases.
	Cancel(ctx context.Context, bookingID, userID int64) (*Refund, error)
}

func (p ReserveParams) validate() error {
	if p.SeatCount < 1 {
		return ErrInvalidSeatCount
	}
	if !p.ClassKey.Known() {
		return ErrUnknownClass
	}
	return nil
}
