package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zvrva/railbooking/internal/domain"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error)
	MarkRefundedByBooking(ctx context.Context, bookingID int64) error
}

type PGPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

func (r *PGPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO payments (booking_id, amount_cents, method, status, reference) VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		p.BookingID, p.AmountCents, p.Method, p.Status, p.Reference).
		Scan(&p.ID, &p.CreatedAt)
}

func (r *PGPaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, booking_id, amount_cents, method, status, reference, created_at
		 FROM payments WHERE booking_id=$1 ORDER BY created_at`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.BookingID, &p.AmountCents, &p.Method, &p.Status, &p.Reference, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *PGPaymentRepository) MarkRefundedByBooking(ctx context.Context, bookingID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE payments SET status=$2 WHERE booking_id=$1 AND status=$3`,
		bookingID, domain.PaymentStatusRefunded, domain.PaymentStatusCompleted)
	return err
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
