package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zvrva/railbooking/internal/domain"
)

// BookingRepository serves read paths only. All writes to bookings and
// seat inventory go through the ledger.
type BookingRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	GetForUser(ctx context.Context, bookingID, userID int64) (*domain.Booking, error)
	List(ctx context.Context, limit, offset int) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, reference, user_id, departure_id, class_key, seat_count, unit_price_cents, total_price_cents, status, seat_number, created_at, updated_at`

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (r *PGBookingRepository) GetForUser(ctx context.Context, bookingID, userID int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id=$1 AND user_id=$2`, bookingID, userID)
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.Reference, &b.UserID, &b.DepartureID, &b.ClassKey, &b.SeatCount,
		&b.UnitPriceCents, &b.TotalPriceCents, &b.Status, &b.SeatNumber, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, mapNoRows(err)
	}
	return &b, nil
}

func (r *PGBookingRepository) List(ctx context.Context, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

type bookingRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanBookings(rows bookingRows) ([]domain.Booking, error) {
	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.Reference, &b.UserID, &b.DepartureID, &b.ClassKey, &b.SeatCount,
			&b.UnitPriceCents, &b.TotalPriceCents, &b.Status, &b.SeatNumber, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
