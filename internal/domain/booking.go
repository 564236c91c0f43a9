package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking holds seats of one class on one departure for one user.
// Rows are never deleted; cancellation only transitions the status.
// UnitPriceCents is the fare snapshot taken at reservation time and
// is never recomputed. SeatNumber stays empty until confirmation.
type Booking struct {
	ID              int64         `json:"id"`
	Reference       string        `json:"reference"`
	UserID          int64         `json:"user_id"`
	DepartureID     int64         `json:"departure_id"`
	ClassKey        ClassKey      `json:"class_key"`
	SeatCount       int           `json:"seat_count"`
	UnitPriceCents  int64         `json:"unit_price_cents"`
	TotalPriceCents int64         `json:"total_price_cents"`
	Status          BookingStatus `json:"status"`
	SeatNumber      string        `json:"seat_number,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}
