package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zvrva/railbooking/internal/domain"
)

const (
	pgCodeLockNotAvailable = "55P03"
	pgCodeUniqueViolation  = "23505"

	maxReferenceAttempts = 3
)

// PGLedger is the authoritative ledger implementation. Each operation
// is one transaction holding a row lock on the inventory row for the
// (departure, class) pair, acquired with a bounded lock_timeout.
type PGLedger struct {
	db          *pgxpool.Pool
	lockTimeout time.Duration
}

func NewPGLedger(db *pgxpool.Pool, lockTimeout time.Duration) *PGLedger {
	if lockTimeout <= 0 {
		lockTimeout = 3 * time.Second
	}
	return &PGLedger{db: db, lockTimeout: lockTimeout}
}

func (l *PGLedger) Reserve(ctx context.Context, p ReserveParams) (*domain.Booking, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	// A reference collision aborts the whole transaction, so the retry
	// restarts from the top with a fresh reference.
	var lastErr error
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		booking, err := l.reserveOnce(ctx, p, NewReference())
		if err == nil {
			return booking, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("generate unique booking reference: %w", lastErr)
}

func (l *PGLedger) reserveOnce(ctx context.Context, p ReserveParams, reference string) (*domain.Booking, error) {
	tx, err := l.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var capacity, held int
	err = tx.QueryRow(ctx,
		`SELECT capacity, held FROM departure_inventory WHERE departure_id=$1 AND class_key=$2 FOR UPDATE`,
		p.DepartureID, p.ClassKey).Scan(&capacity, &held)
	if err != nil {
		return nil, mapLockErr(err)
	}

	if capacity-held < p.SeatCount {
		return nil, ErrInsufficientInventory
	}

	var unitPrice int64
	err = tx.QueryRow(ctx,
		`SELECT f.price_cents FROM trip_fares f
		 JOIN departures d ON d.trip_id = f.trip_id
		 WHERE d.id=$1 AND f.class_key=$2`,
		p.DepartureID, p.ClassKey).Scan(&unitPrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPricingUnavailable
	}
	if err != nil {
		return nil, err
	}
	if unitPrice <= 0 {
		return nil, ErrPricingUnavailable
	}

	b := &domain.Booking{
		Reference:       reference,
		UserID:          p.UserID,
		DepartureID:     p.DepartureID,
		ClassKey:        p.ClassKey,
		SeatCount:       p.SeatCount,
		UnitPriceCents:  unitPrice,
		TotalPriceCents: unitPrice * int64(p.SeatCount),
		Status:          domain.BookingStatusPending,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO bookings (reference, user_id, departure_id, class_key, seat_count, unit_price_cents, total_price_cents, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		b.Reference, b.UserID, b.DepartureID, b.ClassKey, b.SeatCount, b.UnitPriceCents, b.TotalPriceCents, b.Status).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE departure_inventory SET held = held + $3 WHERE departure_id=$1 AND class_key=$2`,
		p.DepartureID, p.ClassKey, p.SeatCount); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (l *PGLedger) Confirm(ctx context.Context, bookingID, userID int64) (*domain.Booking, error) {
	tx, err := l.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	b, err := lockBooking(ctx, tx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	switch b.Status {
	case domain.BookingStatusConfirmed:
		return nil, ErrAlreadyConfirmed
	case domain.BookingStatusCancelled:
		return nil, ErrAlreadyCancelled
	}

	b.SeatNumber = NewSeatNumber(b.ClassKey)
	b.Status = domain.BookingStatusConfirmed
	err = tx.QueryRow(ctx,
		`UPDATE bookings SET status=$2, seat_number=$3, updated_at=now() WHERE id=$1 RETURNING updated_at`,
		b.ID, b.Status, b.SeatNumber).Scan(&b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (l *PGLedger) Cancel(ctx context.Context, bookingID, userID int64) (*Refund, error) {
	tx, err := l.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	b, err := lockBooking(ctx, tx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	if b.Status == domain.BookingStatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	if _, err := tx.Exec(ctx,
		`UPDATE bookings SET status=$2, updated_at=now() WHERE id=$1`,
		b.ID, domain.BookingStatusCancelled); err != nil {
		return nil, err
	}

	// Clamped at zero so a counter that drifted low can never go
	// negative; the CHECK constraint guards the upper bound.
	if _, err := tx.Exec(ctx,
		`UPDATE departure_inventory SET held = GREATEST(held - $3, 0) WHERE departure_id=$1 AND class_key=$2`,
		b.DepartureID, b.ClassKey, b.SeatCount); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &Refund{BookingID: b.ID, Reference: b.Reference, AmountCents: b.TotalPriceCents}, nil
}

// begin opens a transaction with the bounded row-lock wait applied.
func (l *PGLedger) begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", l.lockTimeout.Milliseconds())); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	return tx, nil
}

func lockBooking(ctx context.Context, tx pgx.Tx, bookingID, userID int64) (*domain.Booking, error) {
	var b domain.Booking
	err := tx.QueryRow(ctx,
		`SELECT id, reference, user_id, departure_id, class_key, seat_count, unit_price_cents, total_price_cents, status, seat_number, created_at, updated_at
		 FROM bookings WHERE id=$1 FOR UPDATE`, bookingID).
		Scan(&b.ID, &b.Reference, &b.UserID, &b.DepartureID, &b.ClassKey, &b.SeatCount,
			&b.UnitPriceCents, &b.TotalPriceCents, &b.Status, &b.SeatNumber, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, mapLockErr(err)
	}
	// Foreign bookings are indistinguishable from absent ones.
	if b.UserID != userID {
		return nil, ErrNotFound
	}
	return &b, nil
}

func mapLockErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgCodeLockNotAvailable {
		return ErrLockTimeout
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgCodeUniqueViolation
}

var _ Ledger = (*PGLedger)(nil)
